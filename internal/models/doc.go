// Package models defines the data shapes exchanged with the musicone media backend.
//
//   - [SongInfo] : display metadata for a resolved track, decoded from POST /song-info
//   - [DownloadResult] : success body of POST /download; only the message is kept
//   - [Health] : body of the backend's GET / health check
//
// None of these outlive a single request/response cycle.
package models
