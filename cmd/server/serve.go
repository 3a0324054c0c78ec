package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/shopchat/internal/api"
	"github.com/ashureev/shopchat/internal/catalog"
	"github.com/ashureev/shopchat/internal/chat"
	"github.com/ashureev/shopchat/internal/currency"
	"github.com/ashureev/shopchat/internal/health"
	"github.com/ashureev/shopchat/internal/llm"
	"github.com/ashureev/shopchat/internal/mcpserver"
	"github.com/ashureev/shopchat/internal/middleware"
	"github.com/ashureev/shopchat/internal/tools"
	"github.com/ashureev/shopchat/internal/transcript"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
)

// services are the long-lived components built from configuration.
type services struct {
	catalog    *catalog.Store
	model      llm.Client
	dispatcher *tools.Dispatcher
	relay      *chat.Relay
}

// buildServices loads the catalog and wires the model, tools and relay.
// Any failure here is fatal at startup.
func (c *cli) buildServices(ctx context.Context) (*services, error) {
	store, err := catalog.Load(ctx, c.cfg.CatalogPath,
		catalog.WithAWSRegion(c.cfg.AWSRegion),
		catalog.WithLogger(c.logger),
	)
	if err != nil {
		return nil, err
	}

	model, err := llm.New(llm.Config{
		Provider: c.cfg.LLM.Provider,
		Model:    c.cfg.LLM.Model,
		APIKey:   c.cfg.LLM.APIKey,
		BaseURL:  c.cfg.LLM.BaseURL,
		Timeout:  c.cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, err
	}

	return c.wire(store, model), nil
}

func (c *cli) wire(store *catalog.Store, model llm.Client) *services {
	if c.cfg.Rates.AppID == "" {
		c.logger.Warn("OPEN_EXCHANGE_APP_ID is not set, currency conversion will fail")
	}
	converter := currency.NewConverter(currency.Config{
		AppID:   c.cfg.Rates.AppID,
		BaseURL: c.cfg.Rates.BaseURL,
		Timeout: c.cfg.Rates.Timeout,
	}, nil, c.logger)

	dispatcher := tools.NewDispatcher(store, converter, c.logger)
	return &services{
		catalog:    store,
		model:      model,
		dispatcher: dispatcher,
		relay:      chat.NewRelay(model, dispatcher, c.logger),
	}
}

// newRouter builds the HTTP router.
func (c *cli) newRouter(svc *services, chatLog transcript.Logger, limiter *api.RateLimiter) http.Handler {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(c.cfg.CORSOrigins))

	api.NewHealthHandler(svc.catalog, c.cfg.LLM.Provider, svc.model.Model()).RegisterHealth(r)

	opts := []api.ChatOption{
		api.WithTranscript(chatLog),
		api.WithAllowedOrigins(c.cfg.CORSOrigins),
	}
	if limiter != nil {
		opts = append(opts, api.WithRateLimiter(limiter))
	}
	api.NewChatHandler(svc.relay, c.logger, opts...).RegisterRoutes(r)

	if c.cfg.MCPEnabled {
		r.Handle("/mcp", mcpserver.New(svc.dispatcher, version, c.logger).Handler())
	}
	return r
}

func (c *cli) serve(parent context.Context) error {
	slog.Info("Starting server", "port", c.cfg.Port, "dev", c.cfg.IsDevelopment(), "version", version)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := c.buildServices(ctx)
	if err != nil {
		slog.Error("Failed to initialize services", "error", err)
		return err
	}
	slog.Info("Model client ready", "provider", c.cfg.LLM.Provider, "model", svc.model.Model())

	chatLog, err := transcript.New(transcript.Config{
		Enabled:   c.cfg.ChatLog.Enabled,
		Dir:       c.cfg.ChatLog.Dir,
		QueueSize: c.cfg.ChatLog.QueueSize,
	}, c.logger)
	if err != nil {
		slog.Error("Failed to initialize chat transcript", "error", err)
		return err
	}
	defer func() {
		if closeErr := chatLog.Close(); closeErr != nil {
			slog.Error("Failed to close chat transcript", "error", closeErr)
		}
	}()

	var limiter *api.RateLimiter
	if c.cfg.ChatRateLimit > 0 {
		limiter = api.NewRateLimiter(c.cfg.ChatRateLimit)
		defer limiter.Close()
	}

	// WebSocket chat connections are long-lived, so there is no WriteTimeout.
	srv := &http.Server{
		Addr:              ":" + c.cfg.Port,
		Handler:           c.newRouter(svc, chatLog, limiter),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if c.cfg.GRPCPort != "" {
		lis, err := net.Listen("tcp", ":"+c.cfg.GRPCPort)
		if err != nil {
			stop()
			_ = g.Wait()
			return fmt.Errorf("listen grpc: %w", err)
		}
		hs := health.NewServer(c.logger)
		hs.SetServing(true)
		g.Go(func() error { return hs.Serve(gctx, lis) })
	}

	if err := g.Wait(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		return err
	}

	slog.Info("Server stopped successfully")
	return nil
}
