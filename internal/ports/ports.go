package ports

import (
	"context"
	"io"

	"warmline/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	InputFormat string
	InputDevice string
}

// AudioSession is a live microphone capture stream.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture acquires microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// PeerHandlers receive transport callbacks. The transport serializes
// delivery per connection; handlers guard any shared state themselves.
type PeerHandlers struct {
	// ChannelOpen fires every time a control channel becomes usable,
	// including when a remote-opened channel replaces the proactive one.
	ChannelOpen func(peer PeerSession)
	// ChannelMessage delivers one inbound control-channel frame.
	ChannelMessage func(peer PeerSession, raw []byte)
	// ChannelError reports a control-channel transport error.
	ChannelError func(err error)
	// StatusChanged reports non-fatal transport status, such as connection
	// state transitions or a channel-availability timeout.
	StatusChanged func(message string)
	// Milestone reports lifecycle points observed by the transport.
	Milestone func(m domain.Milestone)
	// ConnectionLost reports a failed or disconnected peer connection.
	// Cleanup is left to the caller.
	ConnectionLost func(state string)
}

// PeerSession is an established realtime session.
type PeerSession interface {
	// Send writes one control-channel event. It fails when no channel is
	// currently open.
	Send(event []byte) error
	ChannelOpen() bool
	// SetTransmit toggles whether captured audio actually leaves the
	// client. Capture itself is unaffected.
	SetTransmit(enabled bool)
	// Close is idempotent and safe from any state.
	Close() error
}

// PeerTransport performs the signaling handshake and owns the peer
// connection for the session's lifetime.
type PeerTransport interface {
	Connect(ctx context.Context, details domain.SessionDetails, mic AudioSession, handlers PeerHandlers) (PeerSession, error)
}

// EventSink forwards assembled session state to the caller.
type EventSink interface {
	Transcript(text string)
	Status(message string)
	SessionError(code domain.ErrorCode, detail string)
	TimelineUpdated(snapshot domain.TimelineSnapshot)
	MicrophoneStateChanged(enabled bool)
}
