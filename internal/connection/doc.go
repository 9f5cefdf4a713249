// Package connection provides the overlay's transport to the relay.
//
// Client wraps a gorilla/websocket connection (Connect/Send/Messages/Errors)
// and reports a browser-style ReadyState. LoopDialer runs a Client in the
// background and posts its open, message and close events onto an event
// loop, so the monitor sees the transport the way a page sees a WebSocket.
package connection
