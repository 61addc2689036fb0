// API service for the musicone media backend
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musicone/internal/models"
	"github.com/desertthunder/musicone/internal/shared"
)

// APIService calls the backend's song-info, download and health endpoints.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
	info       Policy
	download   Policy
	sleep      Sleeper
}

// Option configures an [APIService].
type Option func(*APIService)

// WithLogger sets the logger used for per-attempt diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(a *APIService) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithInfoPolicy overrides the song-info and health budget.
func WithInfoPolicy(p Policy) Option {
	return func(a *APIService) { a.info = p }
}

// WithDownloadPolicy overrides the download budget.
func WithDownloadPolicy(p Policy) Option {
	return func(a *APIService) { a.download = p }
}

// WithSleeper replaces the backoff wait, mostly for tests.
func WithSleeper(s Sleeper) Option {
	return func(a *APIService) {
		if s != nil {
			a.sleep = s
		}
	}
}

// NewAPIService creates a new API service instance for the backend at baseURL.
//
// An empty baseURL falls back to [shared.DefaultBackendURL]; a nil client to [http.DefaultClient].
func NewAPIService(baseURL string, client *http.Client, opts ...Option) *APIService {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = shared.DefaultBackendURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	a := &APIService{
		baseURL:    baseURL,
		httpClient: client,
		logger:     log.New(io.Discard),
		info:       InfoPolicy,
		download:   DownloadPolicy,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BaseURL returns the backend base URL requests are sent to.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

func (a *APIService) songInfoOp() operation {
	return operation{
		name:     "song-info",
		method:   http.MethodPost,
		path:     "/song-info",
		policy:   a.info,
		fallback: "failed to load song info",
		unreachable: func(string) string {
			return "cannot connect to the server, it may be asleep - try again in a few seconds"
		},
	}
}

func (a *APIService) downloadOp() operation {
	return operation{
		name:     "download",
		method:   http.MethodPost,
		path:     "/download",
		policy:   a.download,
		fallback: "failed to download song",
		unreachable: func(base string) string {
			return fmt.Sprintf("cannot connect to the server, check that it is running at %s", base)
		},
	}
}

func (a *APIService) healthOp() operation {
	return operation{
		name:     "health",
		method:   http.MethodGet,
		path:     "/",
		policy:   a.info,
		fallback: "health check failed",
		unreachable: func(base string) string {
			return fmt.Sprintf("cannot connect to the server at %s", base)
		},
	}
}

// FetchSongInfo posts url to /song-info and decodes the track metadata.
func (a *APIService) FetchSongInfo(ctx context.Context, url string) (*models.SongInfo, error) {
	op := a.songInfoOp()
	resp, err := a.do(ctx, op, songRequest{URL: url})
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, statusError(op, resp)
	}

	var info models.SongInfo
	if err := decodeJSON(resp.body, &info); err != nil {
		return nil, &RequestError{Kind: KindMalformed, Op: op.name, Status: resp.status, Message: msgInvalidResponse, Err: err}
	}
	return &info, nil
}

// DownloadSong posts url to /download.
//
// The success body is optional; when present it must be valid JSON of any shape.
func (a *APIService) DownloadSong(ctx context.Context, url string) (*models.DownloadResult, error) {
	op := a.downloadOp()
	resp, err := a.do(ctx, op, songRequest{URL: url})
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, statusError(op, resp)
	}

	var result models.DownloadResult
	if len(bytes.TrimSpace(resp.body)) == 0 {
		return &result, nil
	}
	if !json.Valid(resp.body) {
		return nil, &RequestError{Kind: KindMalformed, Op: op.name, Status: resp.status, Message: msgInvalidResponse}
	}
	// Any JSON shape is accepted; only an object's message is kept.
	_ = decodeJSON(resp.body, &result)
	return &result, nil
}

// Health calls the backend's root health check.
func (a *APIService) Health(ctx context.Context) (*models.Health, error) {
	op := a.healthOp()
	resp, err := a.do(ctx, op, nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, statusError(op, resp)
	}

	var health models.Health
	if err := decodeJSON(resp.body, &health); err != nil {
		return nil, &RequestError{Kind: KindMalformed, Op: op.name, Status: resp.status, Message: msgInvalidResponse, Err: err}
	}
	return &health, nil
}
