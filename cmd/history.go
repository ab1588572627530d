package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	app "github.com/okian/witarcade/internal/app"
	"github.com/okian/witarcade/pkg/logger"
	"github.com/spf13/cobra"
)

// ErrMissingEmail is returned when history is run without --email.
var ErrMissingEmail = errors.New("--email is required")

func newHistoryCmd(rf *rootFlags) *cobra.Command {
	var (
		email string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List one player's scores, newest first, straight from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				return ErrMissingEmail
			}
			cfg, err := rf.load(cmd.Context(), cmd.Flags())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, err := openStore(ctx, cfg, logger.Get().Named("history"))
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			svc := app.New(app.WithStore(store), app.WithLimits(cfg.DefaultLeaderboardLimit, cfg.MaxLeaderboardLimit))
			if err := svc.Start(ctx); err != nil {
				return err
			}
			defer svc.Stop()
			return runHistory(ctx, cmd.OutOrStdout(), svc, email, limit)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&email, "email", "e", "", "player email")
	fs.IntVarP(&limit, "limit", "n", 0, "rows to fetch; 0 uses the default")
	addServeFlags(fs)
	return cmd
}

func runHistory(ctx context.Context, out io.Writer, svc *app.Service, email string, limit int) error {
	entries, err := svc.History(ctx, email, limit)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintf(out, "No scores for %s.\n", email)
		return err
	}
	return printEntries(out, entries, false)
}
