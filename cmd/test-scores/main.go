// Command test-scores drives a running leaderboard server with generated
// submissions and checks what comes back.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/okian/witarcade/internal/testscores"
	"github.com/spf13/pflag"
)

// Default configuration constants.
const (
	defaultNumScores   = 2000
	defaultInvalid     = 10
	defaultReplays     = 50
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	fs := pflag.NewFlagSet("test-scores", pflag.ExitOnError)
	var (
		baseURL    = fs.StringP("url", "u", "http://localhost:3001", "Base URL of the service")
		numScores  = fs.IntP("scores", "n", defaultNumScores, "Number of scores to generate and submit")
		invalid    = fs.Int("invalid", defaultInvalid, "Percentage of deliberately invalid submissions")
		replays    = fs.Int("replays", defaultReplays, "Number of valid submissions re-sent with the same idempotency key")
		workers    = fs.IntP("workers", "w", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = fs.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = fs.StringP("output", "o", "", "Output file for generated scores (default: generated_scores_TIMESTAMP.json)")
		logFile    = fs.String("log", "", "Also write logs to this file")
		logFormat  = fs.String("log-format", "text", "Log format: text, json or pretty")
		seed       = fs.Uint64("seed", 0, "Generator seed; 0 picks one")
		verbose    = fs.BoolP("verbose", "v", false, "Enable verbose logging")
	)
	_ = fs.Parse(os.Args[1:])

	closeLog, err := testscores.SetupLogging(*logFile, *logFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to setup logging:", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)

	_, err = testscores.Run(ctx, &testscores.Config{
		BaseURL:        *baseURL,
		NumScores:      *numScores,
		InvalidPercent: *invalid,
		Replays:        *replays,
		Workers:        *workers,
		Timeout:        *timeout,
		OutputFile:     *outputFile,
		Seed:           *seed,
		Verbose:        *verbose,
	})
	cancel()
	_ = closeLog()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Test failed:", err)
		os.Exit(1)
	}
}
