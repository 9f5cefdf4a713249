// Package api is the client for the overlay display server's control API.
//
// Endpoints (relative to the display server, default http://localhost:8090):
//   - POST /control/hide, /control/reconnect
//   - POST /control/duration {"ms": n}
//   - POST /control/status-panel {"visible": bool} or {"toggle": true}
//   - GET  /control/ready-state, /status, /health
//
// Requests carry a bearer token when one is configured. 5xx and 429
// responses are retried with jittered exponential backoff.
package api
