package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/musicone/internal/models"
)

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case InputView:
		body = m.renderInput()
	case DisplayView:
		body = m.renderDisplay()
	}
	return styles.frame.Render(body)
}

func (m *Model) renderInput() string {
	title := styles.title.Render("musicone")
	prompt := "Paste a Spotify or YouTube link"

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\n%s\n", title, prompt, m.input.View())
	if m.inputErr != "" {
		fmt.Fprintf(&b, "\n%s\n", styles.err.Render(m.inputErr))
	}

	quit := key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "quit"))
	helpKeys := []key.Binding{m.keys.submit, m.keys.paste, quit}
	fmt.Fprintf(&b, "\n%s", m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderDisplay() string {
	switch m.state {
	case Loading:
		return m.renderLoading()
	case Failed:
		return m.renderError()
	default:
		return m.renderSong()
	}
}

func (m *Model) renderLoading() string {
	title := styles.title.Render("Loading song")
	line := fmt.Sprintf("%s %s", m.spinner.View(), m.hint)
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s\n\n%s", title, styles.help.Render(m.url), line, helpView)
}

func (m *Model) renderError() string {
	title := styles.err.Render("Something went wrong")
	msg := "unknown error"
	if m.err != nil {
		msg = m.err.Error()
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	if m.url != "" {
		helpKeys = []key.Binding{m.keys.retry, m.keys.back, m.keys.quit}
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, msg, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderSong() string {
	if m.song == nil {
		return m.renderError()
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(m.song.Name))
	b.WriteString("\n")
	b.WriteString(songDetails(m.song))
	b.WriteString("\n\n")

	switch {
	case m.state == Downloading:
		fmt.Fprintf(&b, "%s downloading...\n", m.spinner.View())
	case m.downloadErr != nil:
		fmt.Fprintf(&b, "%s\n", styles.err.Render(m.downloadErr.Error()))
	case m.downloaded != nil:
		msg := "Download complete"
		if m.downloaded.Message != "" {
			msg = m.downloaded.Message
		}
		fmt.Fprintf(&b, "%s\n", styles.ok.Render("✓ "+msg))
	}

	helpKeys := []key.Binding{m.keys.download, m.keys.back, m.keys.quit}
	if m.state == Downloading {
		helpKeys = []key.Binding{m.keys.quit}
	}
	fmt.Fprintf(&b, "\n%s", m.help.ShortHelpView(helpKeys))
	return b.String()
}

// songDetails renders the labelled fields of a song, skipping empty ones.
func songDetails(s *models.SongInfo) string {
	rows := [][2]string{
		{"Artist", s.Artist},
		{"Album", s.Album},
		{"Duration", s.Duration()},
		{"Released", s.ReleaseDate},
		{"Cover", s.AlbumImage},
	}
	if s.Platform != "" {
		rows = append(rows, [2]string{"Source", s.Platform})
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, styles.label.Render(r[0]), r[1]))
	}
	return strings.Join(lines, "\n")
}
