package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	app "github.com/okian/witarcade/internal/app"
	"github.com/okian/witarcade/internal/client"
	"github.com/okian/witarcade/internal/domain/catalog"
	"github.com/okian/witarcade/internal/domain/round"
	"github.com/okian/witarcade/internal/domain/suggest"
	"github.com/okian/witarcade/internal/domain/types"
	"github.com/okian/witarcade/internal/play"
	"github.com/okian/witarcade/pkg/logger"
	"github.com/spf13/cobra"
)

const (
	maxShownSuggestions = 8
	replyTimeout        = 15 * time.Second
)

const playHelp = `Commands:
  <name>            guess a player
  ?<text>           show suggestions
  /new [code]       start a new round, optionally from a challenge code
  /submit <email>   submit a finished round; this gives consent to list your masked email
  /help             show this help
  /quit             leave
`

func newPlayCmd(rf *rootFlags) *cobra.Command {
	var (
		url         string
		catalogPath string
		challenge   string
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a round in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := rf.loadLogging()
			if err != nil {
				return err
			}
			cat, err := catalog.Load(catalogPath)
			if err != nil {
				return err
			}
			opts := []play.SessionOption{
				play.WithSuggester(suggest.NewIndex(cat.Names())),
				play.WithSessionLogger(log.Named("play")),
			}
			board, stop, err := playBoard(cmd.Context(), url, log)
			if err != nil {
				return err
			}
			defer stop()
			opts = append(opts, play.WithLeaderboard(board))
			return runPlay(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), play.NewSession(cat, opts...), challenge)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&url, "url", "u", "", "server base URL for score submission; empty keeps scores in memory")
	fs.StringVar(&catalogPath, "catalog-path", "", "player catalog file; empty uses the built-in sample")
	fs.StringVar(&challenge, "challenge", "", "challenge code to replay a specific target")
	return cmd
}

// playBoard returns the remote leaderboard at url, or an in-memory one when
// url is empty.
func playBoard(ctx context.Context, url string, log logger.Logger) (play.Leaderboard, func(), error) {
	if url != "" {
		return client.New(url), func() {}, nil
	}
	svc := app.New(app.WithLogger(log.Named("leaderboard")))
	if err := svc.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to start local leaderboard: %w", err)
	}
	return svc, svc.Stop, nil
}

// runPlay drives s from line-oriented input until EOF or /quit.
func runPlay(ctx context.Context, in io.Reader, out io.Writer, s *play.Session, challenge string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.Run(ctx)

	replies := make(chan struct{}, 1)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for m := range s.Messages() {
			if !printMessage(out, m) {
				continue
			}
			select {
			case replies <- struct{}{}:
			default:
			}
		}
	}()

	send := func(ev play.Event) error {
		if err := s.Send(ctx, ev); err != nil {
			return err
		}
		select {
		case <-replies:
			return nil
		case <-time.After(replyTimeout):
			return fmt.Errorf("no reply from session")
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := send(play.StartRequested{Challenge: challenge}); err != nil {
		return err
	}

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		ev, quit := parseLine(out, sc.Text())
		if quit {
			break
		}
		if ev == nil {
			continue
		}
		if err := send(ev); err != nil {
			return err
		}
	}
	cancel()
	<-printed
	return sc.Err()
}

// parseLine maps one input line to an event.
func parseLine(out io.Writer, line string) (play.Event, bool) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return nil, false
	case strings.HasPrefix(line, "?"):
		return play.QueryChanged{Text: strings.TrimPrefix(line, "?")}, false
	case line == "/quit":
		return nil, true
	case line == "/help":
		fmt.Fprint(out, playHelp)
		return nil, false
	case line == "/new" || strings.HasPrefix(line, "/new "):
		return play.StartRequested{Challenge: strings.TrimSpace(strings.TrimPrefix(line, "/new"))}, false
	case strings.HasPrefix(line, "/submit"):
		email := strings.TrimSpace(strings.TrimPrefix(line, "/submit"))
		return play.ScoreSubmitRequested{Email: email, Consent: true}, false
	case strings.HasPrefix(line, "/"):
		fmt.Fprint(out, playHelp)
		return nil, false
	default:
		return play.GuessSubmitted{Text: line}, false
	}
}

// printMessage renders m and reports whether it completes a reply.
func printMessage(out io.Writer, m play.Message) bool {
	switch msg := m.(type) {
	case play.TickMessage:
		return false
	case play.RoundStartedMessage:
		fmt.Fprintf(out, "New round (challenge %s). You have %d guesses. /help for commands.\n", msg.Challenge, msg.MaxGuesses)
	case play.SuggestionsMessage:
		names := msg.Names
		if len(names) > maxShownSuggestions {
			names = names[:maxShownSuggestions]
		}
		if len(names) == 0 {
			fmt.Fprintln(out, "No matches.")
		} else {
			fmt.Fprintln(out, strings.Join(names, " | "))
		}
	case play.GuessResultMessage:
		fb := msg.Record.Feedback
		e := msg.Record.Entity
		fmt.Fprintf(out, "%d/%d %-22s conf %s  team %s  pos %s  #%d %s  age %d %s\n",
			msg.Guesses, round.MaxGuesses, e.Name,
			mark(fb.ConferenceMatch), mark(fb.TeamMatch), mark(fb.PositionMatch),
			e.Number, fb.NumberHint.Arrow(), e.Age, fb.AgeHint.Arrow())
		return !msg.State.Terminal()
	case play.GuessRejectedMessage:
		fmt.Fprintln(out, rejection(msg.Code))
	case play.RoundOverMessage:
		if msg.Won {
			fmt.Fprintf(out, "Correct! %s in %d guess%s (%s).\n", msg.Target.Name, msg.Guesses, plural(msg.Guesses), types.FormatHMS(msg.ElapsedSec))
		} else {
			fmt.Fprintf(out, "Out of guesses. It was %s.\n", msg.Target.Name)
		}
		fmt.Fprintf(out, "Share this target with challenge code %s.\n", msg.Challenge)
	case play.ScoreSubmittedMessage:
		fmt.Fprintln(out, "Score saved.")
		if len(msg.Leaderboard) > 0 {
			_ = printEntries(out, msg.Leaderboard, false)
		}
	case play.ErrorMessage:
		fmt.Fprintf(out, "error: %s (%s)\n", msg.Message, msg.Code)
	}
	return true
}

func rejection(code string) string {
	switch code {
	case play.CodeEntityNotFound:
		return "Player not found - try exact name"
	case play.CodeDuplicateGuess:
		return "Already guessed - try a different player"
	case play.CodeEmptyGuess:
		return "Type a player name"
	default:
		return "The round is over - /new to play again"
	}
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "es"
}
