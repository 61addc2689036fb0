package main

import (
	"context"
	"time"

	"github.com/desertthunder/musicone/internal/formatter"
	"github.com/desertthunder/musicone/internal/links"
	"github.com/desertthunder/musicone/internal/models"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

// validatedURL reads the url argument and validates it before any network call.
func validatedURL(cmd *cli.Command) (links.Platform, string, error) {
	return links.Validate(cmd.StringArg("url"))
}

// Info fetches song metadata and prints it as text, JSON, Markdown or CSV.
func (r *Runner) Info(ctx context.Context, cmd *cli.Command) error {
	platform, u, err := validatedURL(cmd)
	if err != nil {
		return err
	}

	r.logger.Debug("fetching song info", "url", u, "platform", platform)

	info, err := r.api.FetchSongInfo(ctx, u)
	if err != nil {
		return err
	}

	out := cmd.String("output")
	switch {
	case cmd.Bool("json"):
		return r.writeJSON(info, cmd.Bool("pretty"))
	case cmd.Bool("markdown") && out != "":
		result, err := formatter.WriteMarkdownExport(info, out, r.status)
		if err != nil {
			return err
		}
		r.logger.Info("markdown export written", "dir", result.Directory, "files", len(result.Files))
		return r.writePlain("✓ Exported to %s\n", result.Directory)
	case cmd.Bool("markdown"):
		data, err := formatter.SongMarkdown(info, info.AlbumImage)
		if err != nil {
			return err
		}
		return r.writeBytes(data)
	case cmd.Bool("csv"):
		data, err := formatter.SongCSV(info)
		if err != nil {
			return err
		}
		return r.writeBytes(data)
	case out != "":
		path, err := formatter.WriteTextExport(info, out)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Exported to %s\n", path)
	default:
		data, err := formatter.SongText(info)
		if err != nil {
			return err
		}
		return r.writeBytes(data)
	}
}

// Download asks the backend to download the song, showing a spinner while it waits.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	_, u, err := validatedURL(cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("info") {
		info, err := r.api.FetchSongInfo(ctx, u)
		if err != nil {
			return err
		}
		data, err := formatter.SongText(info)
		if err != nil {
			return err
		}
		if err := r.writeBytes(data); err != nil {
			return err
		}
	}

	r.logger.Debug("starting download", "url", u)

	type outcome struct {
		result *models.DownloadResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := r.api.DownloadSong(ctx, u)
		done <- outcome{res, err}
	}()

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(r.status),
		progressbar.OptionSetDescription("downloading..."),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionClearOnFinish(),
	)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var res outcome
wait:
	for {
		select {
		case res = <-done:
			break wait
		case <-ticker.C:
			bar.Add(1)
		}
	}
	bar.Finish()

	if res.err != nil {
		return res.err
	}

	msg := "Download complete"
	if res.result != nil && res.result.Message != "" {
		msg = res.result.Message
	}
	return r.writePlain("✓ %s\n", msg)
}

// Ping calls the backend health check.
func (r *Runner) Ping(ctx context.Context, cmd *cli.Command) error {
	start := time.Now()
	health, err := r.api.Health(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start).Round(time.Millisecond)
	if health == nil {
		health = &models.Health{}
	}

	if cmd.Bool("json") {
		return r.writeJSON(health, false)
	}

	status := health.Status
	if status == "" {
		status = "ok"
	}
	if health.Message != "" {
		return r.writePlain("%s: %s (%s)\n", status, health.Message, elapsed)
	}
	return r.writePlain("%s (%s)\n", status, elapsed)
}
