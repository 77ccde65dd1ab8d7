// Package server exposes the library engine to tool-dispatch clients over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("POST /tools/{name}").
//
// # Middleware
//
//   - [RequestID] tags each request with an id (X-Request-ID), generated when the client sends none
//   - [Logging] writes one structured line per request
//   - [Recover] turns handler panics into 500 responses
//   - [RateLimit] rejects requests over a token bucket with 429
//
// # Tool Handler
//
// [ToolHandler] serves the library operations as named tools:
//
//	GET  /tools          → tool catalogue
//	POST /tools/{name}   → call a tool with a JSON object of arguments
//	GET  /status         → connection status
//
// Every response is a JSON envelope carrying either a result or an error. Missing tracks and playlists map to 404,
// a disconnected library to 503 and bad arguments to 400.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
