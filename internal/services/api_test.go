package services

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/desertthunder/musicone/internal/shared"
	tu "github.com/desertthunder/musicone/internal/testing"
)

const songJSON = `{"name":"Song","artist":"Artist","album":"Album","release_date":"2021-03-04","duration_ms":125000,"album_image":"https://img.example.com/a.jpg"}`

// sleepRecorder records backoff waits without sleeping.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}

func newTestService(rt http.RoundTripper, sleeper *sleepRecorder, opts ...Option) *APIService {
	client := &http.Client{Transport: rt}
	opts = append([]Option{WithSleeper(sleeper.Sleep)}, opts...)
	return NewAPIService("http://backend.test", client, opts...)
}

func connRefused() error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
}

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService("http://example.com/", customClient)

			if srv.baseURL != "http://example.com" {
				t.Errorf("expected baseURL 'http://example.com', got %s", srv.baseURL)
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Empty BaseURL", func(t *testing.T) {
			srv := NewAPIService("", nil)

			if srv.BaseURL() != "http://localhost:5000" {
				t.Errorf("expected default baseURL 'http://localhost:5000', got %s", srv.BaseURL())
			}
		})

		t.Run("With Nil Client", func(t *testing.T) {
			srv := NewAPIService("http://example.com", nil)

			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})

		t.Run("Default Policies", func(t *testing.T) {
			srv := NewAPIService("", nil)

			if srv.info != (Policy{Timeout: 60 * time.Second, Retries: 2}) {
				t.Errorf("unexpected info policy %+v", srv.info)
			}
			if srv.download != (Policy{Timeout: 300 * time.Second, Retries: 1}) {
				t.Errorf("unexpected download policy %+v", srv.download)
			}
		})
	})

	t.Run("FetchSongInfo", func(t *testing.T) {
		t.Run("Successful Request", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST method, got %s", r.Method)
				}
				if r.URL.Path != "/song-info" {
					t.Errorf("expected path '/song-info', got %s", r.URL.Path)
				}
				if ct := r.Header.Get("Content-Type"); ct != "application/json" {
					t.Errorf("expected JSON content type, got %s", ct)
				}

				var body map[string]string
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Errorf("failed to decode request body: %v", err)
				}
				if body["url"] != "https://youtu.be/abc" {
					t.Errorf("expected url in body, got %v", body)
				}

				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(songJSON))
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			info, err := srv.FetchSongInfo(context.Background(), "https://youtu.be/abc")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if info.Name != "Song" || info.DurationMS != 125000 || info.Duration() != "2:05" {
				t.Errorf("unexpected song info %+v", info)
			}
		})

		t.Run("Always Times Out", func(t *testing.T) {
			var attempts atomic.Int32
			rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
				attempts.Add(1)
				<-r.Context().Done()
				return nil, r.Context().Err()
			})
			sleeper := &sleepRecorder{}
			srv := newTestService(rt, sleeper, WithInfoPolicy(Policy{Timeout: 10 * time.Millisecond, Retries: 2}))

			_, err := srv.FetchSongInfo(context.Background(), "https://youtu.be/abc")

			if got := attempts.Load(); got != 3 {
				t.Errorf("expected 3 attempts, got %d", got)
			}
			waits := sleeper.Waits()
			if len(waits) != 2 || waits[0] != 2*time.Second || waits[1] != 4*time.Second {
				t.Errorf("expected waits [2s 4s], got %v", waits)
			}
			if err == nil || err.Error() != msgTimeout {
				t.Fatalf("expected timeout message, got %v", err)
			}
			if !IsKind(err, KindTimeout) {
				t.Errorf("expected timeout kind, got %v", err)
			}
			if !errors.Is(err, shared.ErrTimeout) {
				t.Error("expected error to match shared.ErrTimeout")
			}
		})

		t.Run("Transport Failure Then Success", func(t *testing.T) {
			var attempts atomic.Int32
			rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
				if attempts.Add(1) == 1 {
					return nil, connRefused()
				}
				return tu.NewResponse(http.StatusOK, songJSON), nil
			})
			sleeper := &sleepRecorder{}
			srv := newTestService(rt, sleeper)

			info, err := srv.FetchSongInfo(context.Background(), "https://open.spotify.com/track/1")
			if err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if info.Name != "Song" {
				t.Errorf("expected decoded payload, got %+v", info)
			}
			if got := attempts.Load(); got != 2 {
				t.Errorf("expected 2 attempts, got %d", got)
			}
			if waits := sleeper.Waits(); len(waits) != 1 || waits[0] != 2*time.Second {
				t.Errorf("expected a single 2s wait, got %v", waits)
			}
		})

		t.Run("Server Error Body Is Not Retried", func(t *testing.T) {
			var attempts atomic.Int32
			rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
				attempts.Add(1)
				return tu.NewResponse(http.StatusNotFound, `{"error":"not found"}`), nil
			})
			sleeper := &sleepRecorder{}
			srv := newTestService(rt, sleeper)

			_, err := srv.FetchSongInfo(context.Background(), "https://youtu.be/abc")
			if err == nil || err.Error() != "not found" {
				t.Fatalf("expected message 'not found', got %v", err)
			}
			if got := attempts.Load(); got != 1 {
				t.Errorf("expected a single attempt, got %d", got)
			}
			if len(sleeper.Waits()) != 0 {
				t.Errorf("expected no backoff, got %v", sleeper.Waits())
			}

			var re *RequestError
			if !errors.As(err, &re) || re.Kind != KindServer || re.Status != http.StatusNotFound {
				t.Errorf("expected server error with status 404, got %#v", err)
			}
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Error("expected error to match shared.ErrAPIRequest")
			}
		})

		t.Run("Non-JSON Error Body", func(t *testing.T) {
			rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
				return tu.NewResponse(http.StatusInternalServerError, "<html>oops</html>"), nil
			})
			srv := newTestService(rt, &sleepRecorder{})

			_, err := srv.FetchSongInfo(context.Background(), "https://youtu.be/abc")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "Internal Server Error") {
				t.Errorf("expected status code and text in message, got %q", err.Error())
			}
			if !IsKind(err, KindMalformed) {
				t.Errorf("expected malformed kind, got %v", err)
			}
		})

		t.Run("Non-JSON Error Body Keeps Server Reason", func(t *testing.T) {
			tc := []struct {
				name   string
				status string
				want   string
			}{
				{name: "custom reason", status: "599 Backend Overloaded", want: "server returned an error: 599 Backend Overloaded"},
				{name: "no reason", status: "599", want: "server returned an error: 599"},
				{name: "empty status line", status: "", want: "server returned an error: 599"},
			}

			for _, tt := range tc {
				t.Run(tt.name, func(t *testing.T) {
					rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
						resp := tu.NewResponse(599, "<html>busy</html>")
						resp.Status = tt.status
						return resp, nil
					})
					srv := newTestService(rt, &sleepRecorder{})

					_, err := srv.FetchSongInfo(context.Background(), "https://youtu.be/abc")
					if err == nil || err.Error() != tt.want {
						t.Errorf("expected %q, got %v", tt.want, err)
					}
				})
			}
		})

		t.Run("JSON Error Body Without Message", func(t *testing.T) {
			rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
				return tu.NewResponse(http.StatusBadRequest, `{"detail":"nope"}`), nil
			})
			srv := newTestService(rt, &sleepRecorder{})

			_, err := srv.FetchSongInfo(context.Background(), "https://youtu.be/abc")
			if err == nil || err.Error() != "failed to load song info" {
				t.Errorf("expected fallback message, got %v", err)
			}
		})

		t.Run("Malformed Success Body", func(t *testing.T) {
			rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
				return tu.NewResponse(http.StatusOK, "not json"), nil
			})
			srv := newTestService(rt, &sleepRecorder{})

			_, err := srv.FetchSongInfo(context.Background(), "https://youtu.be/abc")
			if err == nil || err.Error() != msgInvalidResponse {
				t.Errorf("expected invalid response message, got %v", err)
			}
		})

		t.Run("Failed Response Body Read Is Retried", func(t *testing.T) {
			var attempts atomic.Int32
			rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
				if attempts.Add(1) == 1 {
					return &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}, nil
				}
				return tu.NewResponse(http.StatusOK, songJSON), nil
			})
			srv := newTestService(rt, &sleepRecorder{})

			if _, err := srv.FetchSongInfo(context.Background(), "https://youtu.be/abc"); err != nil {
				t.Fatalf("expected success on second attempt, got %v", err)
			}
			if got := attempts.Load(); got != 2 {
				t.Errorf("expected 2 attempts, got %d", got)
			}
		})

		t.Run("Unreachable Server", func(t *testing.T) {
			server := httptest.NewServer(http.NotFoundHandler())
			url := server.URL
			server.Close()

			sleeper := &sleepRecorder{}
			srv := NewAPIService(url, nil, WithSleeper(sleeper.Sleep))

			_, err := srv.FetchSongInfo(context.Background(), "https://youtu.be/abc")
			if !IsKind(err, KindTransport) {
				t.Fatalf("expected transport kind, got %v", err)
			}
			if !strings.Contains(err.Error(), "may be asleep") {
				t.Errorf("expected unreachable message, got %q", err.Error())
			}
			if !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Error("expected error to match shared.ErrServiceUnavailable")
			}
			if len(sleeper.Waits()) != 2 {
				t.Errorf("expected 2 waits for 3 attempts, got %v", sleeper.Waits())
			}
		})

		t.Run("Canceled During Backoff", func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			var attempts atomic.Int32
			rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
				attempts.Add(1)
				return nil, connRefused()
			})
			srv := NewAPIService("http://backend.test", &http.Client{Transport: rt}, WithSleeper(func(ctx context.Context, d time.Duration) error {
				cancel()
				return ctx.Err()
			}))

			_, err := srv.FetchSongInfo(ctx, "https://youtu.be/abc")
			if !IsKind(err, KindCanceled) {
				t.Fatalf("expected canceled kind, got %v", err)
			}
			if !errors.Is(err, context.Canceled) {
				t.Error("expected error to wrap context.Canceled")
			}
			if got := attempts.Load(); got != 1 {
				t.Errorf("expected no attempt after cancellation, got %d", got)
			}
		})
	})

	t.Run("DownloadSong", func(t *testing.T) {
		t.Run("Successful Request", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/download" {
					t.Errorf("expected path '/download', got %s", r.URL.Path)
				}
				w.Write([]byte(`{"message":"Download complete"}`))
			}))
			defer server.Close()

			result, err := NewAPIService(server.URL, nil).DownloadSong(context.Background(), "https://youtu.be/abc")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.Message != "Download complete" {
				t.Errorf("expected message, got %q", result.Message)
			}
		})

		t.Run("Empty Or Unexpected JSON Body", func(t *testing.T) {
			for _, body := range []string{"", "[]", `"ok"`} {
				rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
					return tu.NewResponse(http.StatusOK, body), nil
				})
				if _, err := newTestService(rt, &sleepRecorder{}).DownloadSong(context.Background(), "u"); err != nil {
					t.Errorf("body %q: expected no error, got %v", body, err)
				}
			}
		})

		t.Run("Non-JSON Success Body", func(t *testing.T) {
			rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
				return tu.NewResponse(http.StatusOK, "done!"), nil
			})
			_, err := newTestService(rt, &sleepRecorder{}).DownloadSong(context.Background(), "u")
			if !IsKind(err, KindMalformed) {
				t.Errorf("expected malformed kind, got %v", err)
			}
		})

		t.Run("Retries Once Then Names Base URL", func(t *testing.T) {
			var attempts atomic.Int32
			rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
				attempts.Add(1)
				return nil, connRefused()
			})
			sleeper := &sleepRecorder{}
			_, err := newTestService(rt, sleeper).DownloadSong(context.Background(), "u")

			if got := attempts.Load(); got != 2 {
				t.Errorf("expected 2 attempts, got %d", got)
			}
			if waits := sleeper.Waits(); len(waits) != 1 || waits[0] != 2*time.Second {
				t.Errorf("expected a single 2s wait, got %v", waits)
			}
			if err == nil || !strings.Contains(err.Error(), "http://backend.test") {
				t.Errorf("expected message naming the base URL, got %v", err)
			}
		})

		t.Run("Server Error Fallback", func(t *testing.T) {
			rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
				return tu.NewResponse(http.StatusInternalServerError, `{}`), nil
			})
			_, err := newTestService(rt, &sleepRecorder{}).DownloadSong(context.Background(), "u")
			if err == nil || err.Error() != "failed to download song" {
				t.Errorf("expected fallback message, got %v", err)
			}
		})
	})

	t.Run("Health", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.URL.Path != "/" {
				t.Errorf("expected GET /, got %s %s", r.Method, r.URL.Path)
			}
			w.Write([]byte(`{"status":"ok","message":"MusicOne API is running"}`))
		}))
		defer server.Close()

		health, err := NewAPIService(server.URL, nil).Health(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if health.Status != "ok" {
			t.Errorf("expected status ok, got %q", health.Status)
		}
	})
}

func TestBackoff(t *testing.T) {
	want := []time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second}
	for i, w := range want {
		if got := Backoff(i); got != w {
			t.Errorf("Backoff(%d) = %v, want %v", i, got, w)
		}
	}
}

func TestPolicyAttempts(t *testing.T) {
	if InfoPolicy.Attempts() != 3 {
		t.Errorf("expected 3 info attempts, got %d", InfoPolicy.Attempts())
	}
	if DownloadPolicy.Attempts() != 2 {
		t.Errorf("expected 2 download attempts, got %d", DownloadPolicy.Attempts())
	}
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if err := sleepContext(context.Background(), time.Millisecond); err != nil {
		t.Errorf("expected nil after short sleep, got %v", err)
	}
}

func TestErrorKindString(t *testing.T) {
	tc := map[ErrorKind]string{
		KindTransport: "transport",
		KindTimeout:   "timeout",
		KindServer:    "server",
		KindMalformed: "malformed",
		KindCanceled:  "canceled",
		ErrorKind(99): "unknown",
	}
	for k, want := range tc {
		if got := k.String(); got != want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
