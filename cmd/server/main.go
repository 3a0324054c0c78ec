// Shop chat server: relays customer messages to an LLM that can search the
// product catalog and convert currencies.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ashureev/shopchat/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

// cli holds state shared by all commands.
type cli struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
	logger     *slog.Logger
}

func main() {
	os.Exit(execute(newRootCmd()))
}

// execute runs root and reports a failure on its error stream. Errors are
// silenced inside cobra so they are printed once, here.
func execute(root *cobra.Command) int {
	if err := root.Execute(); err != nil {
		root.PrintErrln("Error:", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}
	config.SetDefaults(c.v)

	root := &cobra.Command{
		Use:           "shopchat",
		Short:         "Shop assistant chat server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return c.init()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "optional config file (yaml, json or toml)")
	flags.String("port", "", "HTTP port (PORT)")
	flags.String("catalog", "", "catalog source: path, sqlite:// or s3:// URI (CATALOG_PATH)")
	flags.String("llm-provider", "", "openai or anthropic (LLM_PROVIDER)")
	flags.String("llm-model", "", "model id (LLM_MODEL)")
	flags.String("log-level", "", "debug, info, warn or error (LOG_LEVEL)")
	for key, flag := range map[string]string{
		"port":         "port",
		"catalog_path": "catalog",
		"llm_provider": "llm-provider",
		"llm_model":    "llm-model",
		"log_level":    "log-level",
	} {
		if err := c.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}

	root.AddCommand(serve, c.searchCmd(), c.convertCmd(), c.askCmd())
	return root
}

// init sets up logging and loads configuration.
func (c *cli) init() error {
	c.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(c.logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load(c.v, c.configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return err
	}
	c.cfg = cfg

	level, _ := cfg.SlogLevel()
	c.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(c.logger)
	return nil
}
