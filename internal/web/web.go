// Package web serves the input and song screens as server-rendered HTML pages.
//
// Routes
//
//	GET  /          → input form
//	POST /          → validate; re-render with the inline error (422) or redirect (303) to /download?url=...
//	GET  /download  → loading page with hints, which reloads with fetch=1
//	GET  /download?fetch=1 → fetch song info and render it, or a full-page error
//	POST /download  → trigger the backend download and re-render the song with the outcome
//	GET  /healthz   → liveness of the front-end itself
//
// The song page carries the fetched metadata in hidden fields, so POST /download does not
// fetch it again. Concurrent download submissions for the same URL share one backend call.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musicone/internal/links"
	"github.com/desertthunder/musicone/internal/models"
	"github.com/desertthunder/musicone/internal/server"
	"github.com/desertthunder/musicone/internal/services"
	"github.com/desertthunder/musicone/internal/ui"
	"golang.org/x/sync/singleflight"
)

//go:embed templates/*.html
var templateFS embed.FS

// SongClient is the part of the backend client the web front-end needs.
type SongClient interface {
	FetchSongInfo(ctx context.Context, url string) (*models.SongInfo, error)
	DownloadSong(ctx context.Context, url string) (*models.DownloadResult, error)
}

// hints mirrors the TUI loading hints for the browser-side timers.
type hints struct {
	Connecting, Waking, Almost string
	WakingMS, AlmostMS         int64
}

var loadingHints = hints{
	Connecting: ui.HintConnecting,
	Waking:     ui.HintWaking,
	Almost:     ui.HintAlmost,
	WakingMS:   ui.WakingDelay.Milliseconds(),
	AlmostMS:   ui.AlmostDelay.Milliseconds(),
}

// fetchKey marks a song request that should block on the backend instead of showing the loading page.
const fetchKey = "fetch"

// fetchPath is the song route for u that fetches immediately.
func fetchPath(u string) string {
	return links.DownloadPath(u) + "&" + fetchKey + "=1"
}

// page is the data every template receives.
type page struct {
	Title   string
	URL     string
	Song    *models.SongInfo
	Error   string
	Success string
	Retry   string
	Next    string
	Hints   hints
}

// Handler renders the two screens on top of a [SongClient].
type Handler struct {
	client    SongClient
	logger    *log.Logger
	templates *template.Template
	downloads singleflight.Group
}

// New parses the embedded templates and returns a ready [Handler].
func New(client SongClient, logger *log.Logger) (*Handler, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Handler{client: client, logger: logger, templates: tmpl}, nil
}

// Register adds the front-end routes to r.
func (h *Handler) Register(r server.Router) {
	r.HandleFunc(http.MethodGet, "/", h.Index)
	r.HandleFunc(http.MethodPost, "/", h.Submit)
	r.HandleFunc(http.MethodGet, links.DownloadRoute, h.Song)
	r.HandleFunc(http.MethodPost, links.DownloadRoute, h.Download)
	r.HandleFunc(http.MethodGet, "/healthz", h.Healthz)
	r.NotFound(http.HandlerFunc(h.NotFound))
}

// Index renders the empty input form.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "index", page{Title: "Home"})
}

// Submit validates the pasted URL and navigates to the song page.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "index", page{Title: "Home", Error: "could not read the form"})
		return
	}

	raw := r.PostForm.Get(links.QueryKey)
	_, u, err := links.Validate(raw)
	if err != nil {
		h.render(w, r, http.StatusUnprocessableEntity, "index", page{Title: "Home", URL: raw, Error: err.Error()})
		return
	}

	http.Redirect(w, r, links.DownloadPath(u), http.StatusSeeOther)
}

// Song fetches and renders the song behind the url query parameter.
//
// Without fetch=1 it first serves the loading page, so the hints run during the blocking fetch
// whether the page was reached by the form, a retry link or a pasted address.
func (h *Handler) Song(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	u, err := links.URLFromQuery(q)
	if err != nil {
		h.render(w, r, http.StatusBadRequest, "error", page{Title: "Error", Error: err.Error()})
		return
	}

	if q.Get(fetchKey) == "" {
		h.render(w, r, http.StatusOK, "loading", page{Title: "Loading", URL: u, Next: fetchPath(u)})
		return
	}

	info, err := h.client.FetchSongInfo(r.Context(), u)
	if err != nil {
		h.logger.Warn("song info failed", "url", u, "err", err, "request_id", server.RequestIDFrom(r.Context()))
		h.render(w, r, statusFor(err), "error", page{Title: "Error", URL: u, Error: err.Error(), Retry: links.DownloadPath(u)})
		return
	}

	h.render(w, r, http.StatusOK, "song", page{Title: info.Name, URL: u, Song: info})
}

// Download triggers the backend download for the form's url.
//
// The backend call outlives a client that disconnects; its own per-attempt deadlines still apply.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "error", page{Title: "Error", Error: "could not read the form"})
		return
	}

	u, err := links.URLFromQuery(r.PostForm)
	if err != nil {
		h.render(w, r, http.StatusBadRequest, "error", page{Title: "Error", Error: err.Error()})
		return
	}

	song := songFromForm(r)
	p := page{Title: song.Name, URL: u, Song: song}

	ctx := context.WithoutCancel(r.Context())
	v, err, shared := h.downloads.Do(u, func() (any, error) {
		return h.client.DownloadSong(ctx, u)
	})
	if shared {
		h.logger.Debug("joined in-flight download", "url", u)
	}

	if err != nil {
		h.logger.Warn("download failed", "url", u, "err", err, "request_id", server.RequestIDFrom(r.Context()))
		p.Error = err.Error()
		h.render(w, r, http.StatusOK, "song", p)
		return
	}

	p.Success = "Download complete"
	if res, ok := v.(*models.DownloadResult); ok && res != nil && res.Message != "" {
		p.Success = res.Message
	}
	h.render(w, r, http.StatusOK, "song", p)
}

// Healthz reports that the front-end is serving.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, `{"status":"ok"}`)
}

// NotFound renders the error page for unknown paths.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "error", page{Title: "Not found", Error: "page not found"})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	p.Hints = loadingHints

	var buf strings.Builder
	if err := h.templates.ExecuteTemplate(&buf, name, p); err != nil {
		h.logger.Error("failed to render template", "template", name, "err", err, "request_id", server.RequestIDFrom(r.Context()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, buf.String())
}

// songFromForm rebuilds the displayed song from the hidden fields of the song page.
func songFromForm(r *http.Request) *models.SongInfo {
	ms, _ := strconv.Atoi(r.PostForm.Get("duration_ms"))
	return &models.SongInfo{
		Name:        r.PostForm.Get("name"),
		Artist:      r.PostForm.Get("artist"),
		Album:       r.PostForm.Get("album"),
		ReleaseDate: r.PostForm.Get("release_date"),
		DurationMS:  ms,
		AlbumImage:  r.PostForm.Get("album_image"),
	}
}

// statusFor maps a failed backend call onto the status of the error page.
func statusFor(err error) int {
	var re *services.RequestError
	if !errors.As(err, &re) {
		return http.StatusBadGateway
	}
	switch re.Kind {
	case services.KindTimeout:
		return http.StatusGatewayTimeout
	case services.KindServer:
		if re.Status == http.StatusNotFound || re.Status == http.StatusBadRequest {
			return re.Status
		}
		return http.StatusBadGateway
	case services.KindTransport:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
