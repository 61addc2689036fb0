// Package services implements the resilient request client for the musicone media backend.
//
// # Operations
//
// [APIService] wraps the backend's HTTP surface:
//   - [APIService.FetchSongInfo] : POST /song-info, 60s per attempt, 2 retries
//   - [APIService.DownloadSong] : POST /download, 300s per attempt, 1 retry
//   - [APIService.Health] : GET /, same budget as song info
//
// # Retry Model
//
// Every attempt runs under its own deadline derived from the caller's context.
// Transport failures and deadline overruns are retried after a linear backoff
// of (attempt+1)*2s. Any completed HTTP response ends the loop, so a non-2xx
// status is reported immediately rather than retried. Attempts never overlap.
//
// # Error Handling
//
// Callers never see raw transport errors. Every failure is a [*RequestError]
// whose Error() is the single message to show the user. Kinds also match the
// shared sentinels through errors.Is:
//   - [KindTransport] : [shared.ErrServiceUnavailable]
//   - [KindTimeout] : [shared.ErrTimeout]
//   - [KindServer], [KindMalformed] : [shared.ErrAPIRequest]
//   - [KindCanceled] : [context.Canceled] or [context.DeadlineExceeded] of the caller
package services
