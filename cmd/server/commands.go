package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ashureev/shopchat/internal/catalog"
	"github.com/ashureev/shopchat/internal/currency"
	"github.com/ashureev/shopchat/internal/domain"
	"github.com/ashureev/shopchat/internal/tools"
	"github.com/spf13/cobra"
)

// searchCmd runs the catalog search the model would get, without a model.
func (c *cli) searchCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the product catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := catalog.Load(cmd.Context(), c.cfg.CatalogPath,
				catalog.WithAWSRegion(c.cfg.AWSRegion),
				catalog.WithLogger(c.logger),
			)
			if err != nil {
				return err
			}

			var out any
			if all {
				summaries := make([]domain.ProductSummary, 0)
				for _, p := range store.Search(args[0]) {
					summaries = append(summaries, p.Summary())
				}
				out = summaries
			} else {
				d := tools.NewDispatcher(store, nil, c.logger)
				if out, err = d.Dispatch(cmd.Context(), tools.SearchProducts{Query: args[0]}); err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "print every match instead of the first two")
	return cmd
}

// convertCmd converts a currency amount with the configured rates API.
func (c *cli) convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <amount> <from> <to>",
		Short: "Convert an amount between currencies",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}
			conv := currency.NewConverter(currency.Config{
				AppID:   c.cfg.Rates.AppID,
				BaseURL: c.cfg.Rates.BaseURL,
				Timeout: c.cfg.Rates.Timeout,
			}, nil, c.logger)

			out, err := conv.Convert(cmd.Context(), amount, args[1], args[2])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
}

// askCmd sends one message through the full relay and prints the reply.
func (c *cli) askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one chat message and print the reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := c.buildServices(ctx)
			if err != nil {
				return err
			}
			reply, err := svc.relay.Reply(ctx, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), reply)
			return err
		},
	}
}
