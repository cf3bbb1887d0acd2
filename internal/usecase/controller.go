package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"warmline/internal/codec"
	"warmline/internal/domain"
	"warmline/internal/ports"
)

var (
	ErrSessionActive   = errors.New("a session is already active")
	ErrNoActiveSession = errors.New("no active session")
)

// Config controls session behavior.
type Config struct {
	Audio ports.AudioConfig
}

// SessionController orchestrates one realtime greeting session: capture
// acquisition, the signaling handshake, the greeting protocol, inbound
// event dispatch, and teardown. All assembled state flows to the caller
// through the EventSink.
type SessionController struct {
	capture   ports.AudioCapture
	transport ports.PeerTransport
	events    ports.EventSink
	log       *logrus.Logger
	cfg       Config

	mu      sync.Mutex
	current *activeSession
}

func NewSessionController(
	capture ports.AudioCapture,
	transport ports.PeerTransport,
	events ports.EventSink,
	log *logrus.Logger,
	cfg Config,
) *SessionController {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SessionController{
		capture:   capture,
		transport: transport,
		events:    events,
		log:       log,
		cfg:       cfg,
	}
}

// Start validates the session material, acquires the microphone, and runs
// the signaling handshake. Capture failure and handshake failure are fatal;
// the session never reaches open and all acquired resources are released.
func (c *SessionController) Start(ctx context.Context, details domain.SessionDetails) error {
	if err := validateDetails(details); err != nil {
		c.events.SessionError(domain.ErrorCodeStartup, err.Error())
		return err
	}

	c.mu.Lock()
	if c.current != nil {
		c.mu.Unlock()
		return ErrSessionActive
	}
	c.mu.Unlock()

	active := &activeSession{
		policy:    details.Settings,
		assembler: newTranscriptAssembler(),
		timeline:  newTimeline(nil),
		state:     domain.SessionStateNegotiating,
	}
	active.timeline.Mark(domain.MilestoneSessionCreated)
	c.events.TimelineUpdated(active.timeline.Snapshot())

	mic, err := c.capture.Start(ctx, c.cfg.Audio)
	if err != nil {
		active.setState(domain.SessionStateFailed)
		c.events.SessionError(domain.ErrorCodeStartup, fmt.Sprintf("microphone capture unavailable: %v", err))
		return fmt.Errorf("microphone capture unavailable: %w", err)
	}
	active.mic = mic

	active.gate = newMicGate(
		details.Settings.RequireManualMicEnable,
		func(enabled bool) {
			if peer := active.getPeer(); peer != nil {
				peer.SetTransmit(enabled)
			}
		},
		c.events.MicrophoneStateChanged,
	)

	handlers := ports.PeerHandlers{
		ChannelOpen: func(peer ports.PeerSession) {
			c.sendGreetingSequence(active, peer)
		},
		ChannelMessage: func(_ ports.PeerSession, raw []byte) {
			c.handleFrame(active, raw)
		},
		ChannelError: func(err error) {
			c.events.SessionError(domain.ErrorCodeChannel, err.Error())
		},
		StatusChanged: c.events.Status,
		Milestone: func(m domain.Milestone) {
			if active.timeline.Mark(m) {
				c.events.TimelineUpdated(active.timeline.Snapshot())
			}
		},
		ConnectionLost: func(state string) {
			active.setState(domain.SessionStateFailed)
			c.events.SessionError(domain.ErrorCodeConnection, "connection "+state)
		},
	}

	peer, err := c.transport.Connect(ctx, details, mic, handlers)
	if err != nil {
		active.setState(domain.SessionStateFailed)
		_ = mic.Stop()
		c.events.SessionError(domain.ErrorCodeHandshake, err.Error())
		return err
	}
	active.setPeer(peer)
	peer.SetTransmit(active.gate.Enabled())
	active.setState(domain.SessionStateOpen)

	c.mu.Lock()
	c.current = active
	c.mu.Unlock()

	c.log.WithField("session", details.SessionID).Info("realtime session open")
	return nil
}

// SendText wraps caller text in a user conversation item. It is a silent
// no-op when no control channel is open.
func (c *SessionController) SendText(text string) error {
	active, err := c.getCurrent()
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	payload, err := codec.UserTextItem(text)
	if err != nil {
		return err
	}
	return c.sendIfOpen(active, payload)
}

// SendImage base64-encodes the blob and wraps it in a user conversation
// item. It is a silent no-op when no control channel is open.
func (c *SessionController) SendImage(image []byte) error {
	active, err := c.getCurrent()
	if err != nil {
		return err
	}
	if len(image) == 0 {
		return nil
	}
	payload, err := codec.UserImageItem(base64.StdEncoding.EncodeToString(image))
	if err != nil {
		return err
	}
	return c.sendIfOpen(active, payload)
}

// SetMicrophoneEnabled toggles the microphone gate.
func (c *SessionController) SetMicrophoneEnabled(enabled bool) error {
	active, err := c.getCurrent()
	if err != nil {
		return err
	}
	active.gate.Set(enabled)
	return nil
}

// MicrophoneState reports the current capture/transmission pair.
func (c *SessionController) MicrophoneState() domain.MicrophoneState {
	active, err := c.getCurrent()
	if err != nil {
		return domain.MicrophoneState{}
	}
	return domain.MicrophoneState{Captured: true, Transmitted: active.gate.Enabled()}
}

// Transcript returns the currently assembled transcript.
func (c *SessionController) Transcript() string {
	active, err := c.getCurrent()
	if err != nil {
		return ""
	}
	return active.assembler.Render()
}

// Timeline returns a snapshot of the recorded milestones.
func (c *SessionController) Timeline() domain.TimelineSnapshot {
	active, err := c.getCurrent()
	if err != nil {
		return domain.TimelineSnapshot{}
	}
	return active.timeline.Snapshot()
}

// Status returns the current session status.
func (c *SessionController) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return domain.Status{State: domain.SessionStateIdle, Active: false}
	}
	state := c.current.getState()
	return domain.Status{State: state, Active: state == domain.SessionStateOpen || state == domain.SessionStateNegotiating}
}

// Close tears the session down: control channel, transmission gate, peer
// connection, capture hardware. It is idempotent and safe from any state.
func (c *SessionController) Close() {
	c.mu.Lock()
	active := c.current
	c.current = nil
	c.mu.Unlock()
	if active == nil {
		return
	}

	active.closeOnce.Do(func() {
		if peer := active.getPeer(); peer != nil {
			_ = peer.Close()
		}
		active.gate.Set(false)
		if active.mic != nil {
			_ = active.mic.Stop()
		}
		active.setState(domain.SessionStateClosed)
		c.events.Status("session closed")
	})
}

// sendGreetingSequence delivers the session configuration and greeting
// request. It runs once per channel-open event; a remote-opened channel
// that replaces the proactive one triggers it again, since only one of the
// two becomes the live channel.
func (c *SessionController) sendGreetingSequence(active *activeSession, peer ports.PeerSession) {
	system, instructions := greetingPrompts(active.policy.RequireEnglishGreeting)

	update, err := codec.SessionUpdate(system, []string{"text", "audio"})
	if err == nil {
		err = peer.Send(update)
	}
	if err == nil {
		var request []byte
		if request, err = codec.ResponseCreate(instructions, system); err == nil {
			err = peer.Send(request)
		}
	}
	if err != nil {
		c.events.SessionError(domain.ErrorCodeChannel, fmt.Sprintf("greeting sequence failed: %v", err))
		return
	}
	c.events.Status("voice channel open; awaiting greeting")
}

// handleFrame dispatches one inbound control-channel frame. Malformed
// frames and unrecognized event types are dropped, never fatal.
func (c *SessionController) handleFrame(active *activeSession, raw []byte) {
	event, err := codec.Decode(raw)
	if err != nil {
		c.log.WithError(err).Debug("dropping malformed control frame")
		return
	}
	c.log.WithField("type", event.Type).Debug("realtime event")

	turnID := event.ResponseID()

	if fragment, ok := event.TextDelta(); ok {
		if active.assembler.Append(domain.SpeakerAssistant, fragment, turnID) {
			if active.timeline.Mark(domain.MilestoneFirstTranscript) {
				c.events.TimelineUpdated(active.timeline.Snapshot())
			}
			c.events.Transcript(active.assembler.Render())
		}
	}

	switch event.Type {
	case codec.TypeResponseCompleted, codec.TypeResponseFinalized:
		c.events.Status("greeting delivered")
	case codec.TypeAudioTranscriptDone:
		if text, ok := event.FinalTranscript(); ok {
			if active.assembler.SetFinal(turnID, text) {
				c.events.Transcript(active.assembler.Render())
			}
			if active.gate.AutoEnable() {
				c.events.Status("greeting complete; microphone is live")
			}
		}
	case codec.TypeItemCreated:
		item, ok := event.UserItem()
		if !ok {
			return
		}
		if text, ok := codec.UserText(item); ok {
			if active.assembler.Append(domain.SpeakerPatient, text, "") {
				c.events.Transcript(active.assembler.Render())
			}
		}
	}
}

func (c *SessionController) sendIfOpen(active *activeSession, payload []byte) error {
	peer := active.getPeer()
	if peer == nil || !peer.ChannelOpen() {
		return nil
	}
	return peer.Send(payload)
}

func (c *SessionController) getCurrent() (*activeSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil, ErrNoActiveSession
	}
	return c.current, nil
}

func validateDetails(details domain.SessionDetails) error {
	if strings.TrimSpace(details.Model) == "" {
		return errors.New("session details missing model")
	}
	if strings.TrimSpace(details.ClientSecret.Value) == "" {
		return errors.New("session details missing client secret")
	}
	return nil
}
