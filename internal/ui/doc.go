// Package ui implements the interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [InputView] : Paste a Spotify or YouTube URL and submit it
//  2. [DisplayView] : Show the resolved song and trigger a download
//
// The display view moves through [Loading], [Ready], [Downloading] and [Failed]. Navigation
// between the views goes through the same encoded route the web front-end uses
// (/download?url=...), so the TUI can be started on the display view with a URL argument.
//
// While a fetch is pending the loading text changes after 5 and 15 seconds. The hint timers
// share a context that is cancelled as soon as the fetch settles, and every fetch carries a
// load id so results from an earlier navigation are dropped.
package ui
