package services

import (
	"context"

	"github.com/desertthunder/musicone/internal/models"
)

// SongService is the backend surface used by the CLI, TUI and web front-end.
type SongService interface {
	// FetchSongInfo resolves display metadata for a Spotify or YouTube URL.
	FetchSongInfo(ctx context.Context, url string) (*models.SongInfo, error)

	// DownloadSong asks the backend to download the track behind url.
	DownloadSong(ctx context.Context, url string) (*models.DownloadResult, error)

	// Health reports whether the backend is up.
	Health(ctx context.Context) (*models.Health, error)
}

var _ SongService = (*APIService)(nil)

// songRequest is the JSON body of both POST operations.
type songRequest struct {
	URL string `json:"url"`
}
