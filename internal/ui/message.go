package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/musicone/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
//
// id is the load the message belongs to; messages from an earlier load are dropped.
type Msg struct {
	kind MsgKind
	id   int
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSongFetched MsgKind = iota
	MsgHint
	MsgDownloaded
	MsgPasted
)

type songResult struct {
	info *models.SongInfo
	err  error
}

type downloadResult struct {
	result *models.DownloadResult
	err    error
}

type pasteResult struct {
	text string
	err  error
}

// songFetchedMsg is the constructor for [MsgSongFetched]
func songFetchedMsg(id int, info *models.SongInfo, err error) Msg {
	return Msg{kind: MsgSongFetched, id: id, data: songResult{info, err}}
}

// hintMsg is the constructor for [MsgHint]
func hintMsg(id int, text string) Msg {
	return Msg{kind: MsgHint, id: id, data: text}
}

// downloadedMsg is the constructor for [MsgDownloaded]
func downloadedMsg(id int, result *models.DownloadResult, err error) Msg {
	return Msg{kind: MsgDownloaded, id: id, data: downloadResult{result, err}}
}

// pastedMsg is the constructor for [MsgPasted]
func pastedMsg(text string, err error) Msg {
	return Msg{kind: MsgPasted, data: pasteResult{text, err}}
}
