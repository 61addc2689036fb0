// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/musicone/internal/models"
)

// MockSongService is a test double for services.SongService.
//
// Calls are counted; Block, when set, is waited on before DownloadSong returns.
type MockSongService struct {
	mu sync.Mutex

	Info        *models.SongInfo
	InfoErr     error
	Download    *models.DownloadResult
	DownloadErr error
	HealthResp  *models.Health
	HealthErr   error
	Block       chan struct{}

	InfoCalls     int
	DownloadCalls int
	URLs          []string
}

func (m *MockSongService) FetchSongInfo(ctx context.Context, url string) (*models.SongInfo, error) {
	m.mu.Lock()
	m.InfoCalls++
	m.URLs = append(m.URLs, url)
	m.mu.Unlock()

	if m.InfoErr != nil {
		return nil, m.InfoErr
	}
	return m.Info, nil
}

func (m *MockSongService) DownloadSong(ctx context.Context, url string) (*models.DownloadResult, error) {
	m.mu.Lock()
	m.DownloadCalls++
	m.URLs = append(m.URLs, url)
	block := m.Block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.DownloadErr != nil {
		return nil, m.DownloadErr
	}
	if m.Download == nil {
		return &models.DownloadResult{}, nil
	}
	return m.Download, nil
}

func (m *MockSongService) Health(ctx context.Context) (*models.Health, error) {
	if m.HealthErr != nil {
		return nil, m.HealthErr
	}
	return m.HealthResp, nil
}

// Downloads returns the number of DownloadSong calls so far.
func (m *MockSongService) Downloads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.DownloadCalls
}

// SampleSong returns a fully populated [models.SongInfo].
func SampleSong() *models.SongInfo {
	return &models.SongInfo{
		Name:        "Never Gonna Give You Up",
		Artist:      "Rick Astley",
		Album:       "Whenever You Need Somebody",
		ReleaseDate: "1987-11-12",
		DurationMS:  213000,
		AlbumImage:  "https://i.scdn.co/image/ab67616d0000b273",
		Platform:    "spotify",
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter lets the first allowed writes through to w and fails every write after.
type LimitedWriter struct {
	allowed int
	w       io.Writer
}

func NewLimitedWriter(allowed int, w io.Writer) LimitedWriter {
	return LimitedWriter{allowed: allowed, w: w}
}

func (l *LimitedWriter) Write(p []byte) (int, error) {
	if l.allowed <= 0 {
		return 0, errors.New("write limit reached")
	}
	l.allowed--
	return l.w.Write(p)
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// RoundTripFunc adapts a function to [http.RoundTripper].
type RoundTripFunc func(*http.Request) (*http.Response, error)

func (f RoundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// NewResponse builds an [http.Response] with the given status and body.
func NewResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
