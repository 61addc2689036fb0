package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/musicone/internal/links"
	"github.com/desertthunder/musicone/internal/shared"
	"github.com/desertthunder/musicone/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI.
//
// A url argument opens the song view directly, the same as visiting /download?url=... on the web.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	logPath := cmd.String("log-file")
	if logPath == "" {
		logPath = r.config.Log.TUIFile
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	opts := []ui.Option{ui.WithLogger(fileLogger)}
	if raw := strings.TrimSpace(cmd.StringArg("url")); raw != "" {
		opts = append(opts, ui.WithRoute(links.DownloadPath(raw)))
	}

	model := ui.NewModel(ctx, r.api, opts...)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
