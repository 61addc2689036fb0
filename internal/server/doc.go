// Package server provides HTTP routing, middleware and the listener lifecycle for the web front-end.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses a gorilla/mux router internally with method matching, so a
// known path requested with the wrong method answers 405.
//
// # Middleware
//
//   - [RequestID] tags every request with an id (X-Request-ID, generated when absent)
//   - [Logging] writes one structured line per request
//   - [RateLimit] throttles per client IP with a token bucket, optionally only for some methods
//   - [CORS] applies the configured allowed origins
//   - [Recover] turns handler panics into 500s
//
// # Lifecycle
//
// [Server] wraps [http.Server]; [Server.Run] blocks until its context is cancelled and then
// shuts down gracefully.
package server
