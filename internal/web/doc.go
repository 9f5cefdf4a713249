// Package web serves the overlay page and its control API.
//
// Server implements monitor.Display: the monitor pushes events and status
// into it from the event loop, and the page polls /overlay.json to mirror
// that state in the browser. Control endpoints forward to the monitor
// through a Controls implementation (normally *monitor.Controller) and
// require a bearer token when credentials are configured.
package web
