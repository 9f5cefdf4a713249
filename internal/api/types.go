package api

import "github.com/rickgao/overlay-monitor/internal/web"

// Wire types shared with the display server.
type (
	ReadyStateResponse = web.ReadyStateJSON
	HealthResponse     = web.HealthJSON
	OverlayResponse    = web.OverlayJSON
)
