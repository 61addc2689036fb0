package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/musicone/internal/services"
	"github.com/desertthunder/musicone/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "musicone",
		Usage:    "Look up and download songs from Spotify & YouTube links",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Before:   runner.Configure,
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(exitCode(app.Run(ctx, os.Args), logger))
}

// exitCode reports err and maps it to the process exit status.
//
// User-facing errors (validation, backend messages) print their message only.
func exitCode(err error, logger interface{ Errorf(string, ...any) }) int {
	if err == nil {
		return 0
	}

	var re *services.RequestError
	switch {
	case errors.Is(err, context.Canceled):
		return 130
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrMissingArgument):
		fmt.Fprintln(os.Stderr, err)
	case errors.As(err, &re):
		fmt.Fprintln(os.Stderr, re.Message)
	default:
		logger.Errorf("application error: %v", err)
	}
	return 1
}
