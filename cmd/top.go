package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/okian/witarcade/internal/client"
	"github.com/okian/witarcade/internal/domain/types"
	"github.com/spf13/cobra"
)

const defaultServerURL = "http://localhost:3001"

func newTopCmd(rf *rootFlags) *cobra.Command {
	var (
		url     string
		limit   int
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Print the leaderboard of a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := rf.loadLogging(); err != nil {
				return err
			}
			return runTop(cmd.Context(), cmd.OutOrStdout(), client.New(url, client.WithTimeout(timeout)), limit)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&url, "url", "u", defaultServerURL, "server base URL")
	fs.IntVarP(&limit, "limit", "n", 0, "rows to fetch; 0 uses the server default")
	fs.DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
	return cmd
}

// leaderboardReader is the read half of the leaderboard client.
type leaderboardReader interface {
	ListLeaderboard(ctx context.Context, limit int) ([]types.Entry, error)
}

func runTop(ctx context.Context, out io.Writer, board leaderboardReader, limit int) error {
	entries, err := board.ListLeaderboard(ctx, limit)
	if err != nil {
		return fmt.Errorf("fetch leaderboard: %w", err)
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(out, "No scores yet.")
		return err
	}
	return printEntries(out, entries, true)
}

// printEntries renders entries as an aligned table.
func printEntries(out io.Writer, entries []types.Entry, mask bool) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPLAYER\tGUESSES\tTIME\tDATE")
	for i, e := range entries {
		if mask {
			e = e.Masked()
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", i+1, e.Email, e.Guesses,
			types.FormatHMS(e.ElapsedSec), e.CreatedAt.Local().Format(time.DateOnly))
	}
	return tw.Flush()
}
