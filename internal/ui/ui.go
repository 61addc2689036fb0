package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/musicone/internal/links"
	"github.com/desertthunder/musicone/internal/models"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	InputView ViewState = iota
	DisplayView
)

// DisplayState is the state of the display view.
type DisplayState int

const (
	Loading DisplayState = iota
	Ready
	Downloading
	Failed
)

func (s DisplayState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Downloading:
		return "downloading"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// Loading hints shown while a fetch is pending.
const (
	HintConnecting = "connecting to server..."
	HintWaking     = "server is waking up, please wait..."
	HintAlmost     = "almost done..."
)

// Hint delays, measured from the start of a fetch.
const (
	WakingDelay = 5 * time.Second
	AlmostDelay = 15 * time.Second
)

// SongClient is the part of the backend client the TUI needs.
type SongClient interface {
	FetchSongInfo(ctx context.Context, url string) (*models.SongInfo, error)
	DownloadSong(ctx context.Context, url string) (*models.DownloadResult, error)
}

// Option configures a [Model].
type Option func(*Model)

// WithRoute starts the TUI on the display view for route, e.g. the result of [links.DownloadPath].
func WithRoute(route string) Option {
	return func(m *Model) { m.initialRoute = route }
}

// WithClipboard replaces the system clipboard reader.
func WithClipboard(read func() (string, error)) Option {
	return func(m *Model) {
		if read != nil {
			m.readClipboard = read
		}
	}
}

// WithLogger sets the logger for state transitions.
func WithLogger(l *log.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	client SongClient
	logger *log.Logger

	view  ViewState
	state DisplayState

	input    textinput.Model
	inputErr string

	route   string
	url     string
	song    *models.SongInfo
	err     error
	hint    string
	loadID  int
	hints   context.Context
	endLoad context.CancelFunc
	endHint context.CancelFunc

	downloaded  *models.DownloadResult
	downloadErr error

	initialRoute  string
	readClipboard func() (string, error)

	spinner spinner.Model
	help    help.Model
	keys    keyMap
	width   int
	height  int
}

// NewModel creates a new TUI model backed by client.
func NewModel(ctx context.Context, client SongClient, opts ...Option) *Model {
	ti := textinput.New()
	ti.Placeholder = "https://open.spotify.com/track/... or https://youtu.be/..."
	ti.Prompt = "› "
	ti.CharLimit = 2048
	ti.Width = 60
	ti.Focus()

	m := &Model{
		ctx:           ctx,
		client:        client,
		logger:        log.New(io.Discard),
		view:          InputView,
		input:         ti,
		readClipboard: clipboard.ReadAll,
		spinner:       spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.warn)),
		help:          help.New(),
		keys:          newKeyMap(),
		endLoad:       func() {},
		endHint:       func() {},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init starts the cursor blink, or the first fetch when started with a route.
func (m *Model) Init() tea.Cmd {
	if m.initialRoute != "" {
		return m.navigate(m.initialRoute)
	}
	return textinput.Blink
}

// State returns the current view and display state.
func (m *Model) State() (ViewState, DisplayState) {
	return m.view, m.state
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if msg.Width > 10 {
			m.input.Width = min(msg.Width-8, 80)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case InputView:
			return m.handleInputKeys(msg)
		case DisplayView:
			return m.handleDisplayKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)

	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.view == InputView {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.forceQ), msg.Type == tea.KeyEsc:
		m.shutdown()
		return m, tea.Quit
	case key.Matches(msg, m.keys.submit):
		return m.submit()
	case key.Matches(msg, m.keys.paste):
		return m, m.paste()
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.inputErr = ""
	}
	return m, cmd
}

// submit validates the input and navigates to the display view.
func (m *Model) submit() (tea.Model, tea.Cmd) {
	_, u, err := links.Validate(m.input.Value())
	if err != nil {
		m.inputErr = err.Error()
		return m, nil
	}
	m.inputErr = ""
	return m, m.navigate(links.DownloadPath(u))
}

func (m *Model) handleDisplayKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.shutdown()
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		// one download at a time: stay on the song until it settles
		if m.state == Downloading {
			return m, nil
		}
		m.back()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.download):
		return m, m.startDownload()
	case key.Matches(msg, m.keys.retry):
		if m.state == Failed && m.url != "" {
			return m, m.navigate(m.route)
		}
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	if msg.kind == MsgPasted {
		res := msg.data.(pasteResult)
		if res.err != nil {
			m.inputErr = "could not read from the clipboard"
			m.logger.Warn("clipboard read failed", "err", res.err)
			return m, nil
		}
		m.input.SetValue(strings.TrimSpace(res.text))
		m.input.CursorEnd()
		m.inputErr = ""
		return m, nil
	}

	if msg.id != m.loadID || m.view != DisplayView {
		m.logger.Debug("dropping stale message", "kind", msg.kind, "id", msg.id, "current", m.loadID)
		return m, nil
	}

	switch msg.kind {
	case MsgHint:
		if m.state == Loading {
			m.hint = msg.data.(string)
		}
	case MsgSongFetched:
		if m.state != Loading {
			return m, nil
		}
		m.endHint()
		res := msg.data.(songResult)
		switch {
		case res.err != nil:
			m.state = Failed
			m.err = res.err
			m.logger.Warn("song info failed", "url", m.url, "err", res.err)
		case res.info == nil:
			m.state = Failed
			m.err = errors.New("no song information returned")
		default:
			m.state = Ready
			m.song = res.info
			m.logger.Info("song info loaded", "url", m.url, "name", res.info.Name)
		}
	case MsgDownloaded:
		if m.state != Downloading {
			return m, nil
		}
		res := msg.data.(downloadResult)
		m.state = Ready
		if res.err != nil {
			m.downloadErr = res.err
			m.logger.Warn("download failed", "url", m.url, "err", res.err)
			return m, nil
		}
		m.downloaded = res.result
		if m.downloaded == nil {
			m.downloaded = &models.DownloadResult{}
		}
		m.logger.Info("download complete", "url", m.url)
	}
	return m, nil
}

// navigate enters the display view for route and starts loading.
//
// A route without a URL goes straight to the error state.
func (m *Model) navigate(route string) tea.Cmd {
	m.endLoad()
	m.loadID++
	m.view = DisplayView
	m.route = route
	m.song = nil
	m.err = nil
	m.downloaded = nil
	m.downloadErr = nil

	u, err := links.URLFromPath(route)
	if err != nil {
		m.url = ""
		m.state = Failed
		m.err = err
		return nil
	}

	m.url = u
	m.state = Loading
	m.hint = HintConnecting

	loadCtx, endLoad := context.WithCancel(m.ctx)
	hintCtx, endHint := context.WithCancel(loadCtx)
	m.hints, m.endLoad, m.endHint = hintCtx, endLoad, endHint

	m.logger.Debug("loading song", "url", u, "id", m.loadID)
	return tea.Batch(
		m.fetchSong(loadCtx, m.loadID, u),
		scheduleHint(hintCtx, m.loadID, WakingDelay, HintWaking),
		scheduleHint(hintCtx, m.loadID, AlmostDelay, HintAlmost),
		m.spinner.Tick,
	)
}

// back returns to the input view, abandoning any pending load.
func (m *Model) back() {
	m.endLoad()
	m.loadID++
	m.view = InputView
	m.state = Loading
	m.song = nil
	m.err = nil
	m.downloaded = nil
	m.downloadErr = nil
	m.input.Focus()
}

// startDownload triggers a download unless one is already in flight.
func (m *Model) startDownload() tea.Cmd {
	if m.state != Ready {
		return nil
	}
	m.state = Downloading
	m.downloaded = nil
	m.downloadErr = nil

	id, u, ctx := m.loadID, m.url, m.ctx
	client := m.client
	return tea.Batch(
		func() tea.Msg {
			res, err := client.DownloadSong(ctx, u)
			return downloadedMsg(id, res, err)
		},
		m.spinner.Tick,
	)
}

func (m *Model) fetchSong(ctx context.Context, id int, u string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		info, err := client.FetchSongInfo(ctx, u)
		return songFetchedMsg(id, info, err)
	}
}

func (m *Model) paste() tea.Cmd {
	read := m.readClipboard
	return func() tea.Msg {
		text, err := read()
		return pastedMsg(text, err)
	}
}

func (m *Model) busy() bool {
	return m.view == DisplayView && (m.state == Loading || m.state == Downloading)
}

func (m *Model) shutdown() {
	m.endLoad()
}

// scheduleHint emits text after d unless ctx ends first, in which case the command yields nothing.
func scheduleHint(ctx context.Context, id int, d time.Duration, text string) tea.Cmd {
	return func() tea.Msg {
		t := time.NewTimer(d)
		defer t.Stop()

		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			return hintMsg(id, text)
		}
	}
}
