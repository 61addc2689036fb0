package models

import "fmt"

// SongInfo describes a resolved track as returned by the backend.
//
// ReleaseDate is opaque and echoed as received. AlbumImage is only valid for
// the current display session.
type SongInfo struct {
	Name        string `json:"name"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	ReleaseDate string `json:"release_date"`
	DurationMS  int    `json:"duration_ms"`
	AlbumImage  string `json:"album_image"`
	Platform    string `json:"platform,omitempty"`
}

// Duration returns the track length rendered by [FormatDuration].
func (s SongInfo) Duration() string {
	return FormatDuration(s.DurationMS)
}

// DownloadResult is the success body of a download call.
type DownloadResult struct {
	Message string `json:"message,omitempty"`
}

// Health is the backend health check body.
type Health struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// FormatDuration renders milliseconds as minutes:seconds with zero-padded seconds.
//
// Minutes are not wrapped into hours, so an hour is "60:00".
func FormatDuration(ms int) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
