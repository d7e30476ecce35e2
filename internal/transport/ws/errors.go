package ws

import "errors"

var (
	// ErrHandshakeTimeout indicates the websocket handshake exceeded the configured timeout.
	ErrHandshakeTimeout = errors.New("websocket handshake timed out")
	// ErrSessionShutdown is emitted when the server requests a session shutdown.
	ErrSessionShutdown = errors.New("websocket session shutdown")
	// ErrIdleTimeout closes sessions that have been silent for longer than the idle timeout.
	ErrIdleTimeout = errors.New("websocket session idle")
	// ErrUnknownEvent is reported to clients that send an event name the server does not handle.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrMalformedFrame is reported for frames that are not a JSON {event, data} object.
	ErrMalformedFrame = errors.New("malformed frame")
)
