package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/sirupsen/logrus"

	"warmline/internal/domain"
	"warmline/internal/ports"
)

const (
	defaultRealtimeBase = "https://api.openai.com/v1/realtime"
	controlChannelLabel = "oai-events"

	defaultChannelWait = 5 * time.Second
	defaultChannelPoll = 50 * time.Millisecond

	// 20 ms of 8 kHz mono G.711 mu-law.
	uplinkFrameBytes    = 160
	uplinkFrameDuration = 20 * time.Millisecond
	muLawSilence        = 0xFF
)

var errChannelClosed = errors.New("control channel is not open")

// Config controls the WebRTC negotiator.
type Config struct {
	// BaseURL is the signaling endpoint; the model id is appended as a
	// query parameter.
	BaseURL     string
	HTTPClient  *http.Client
	ChannelWait time.Duration
	ChannelPoll time.Duration
	// AudioSink receives raw remote audio payloads; discarded when nil.
	AudioSink io.Writer
}

// Negotiator implements ports.PeerTransport over a pion peer connection:
// offer, SDP exchange, answer, proactive control channel, media pumps.
type Negotiator struct {
	cfg Config
	log *logrus.Logger
}

func NewNegotiator(cfg Config, log *logrus.Logger) *Negotiator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultRealtimeBase
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.ChannelWait <= 0 {
		cfg.ChannelWait = defaultChannelWait
	}
	if cfg.ChannelPoll <= 0 {
		cfg.ChannelPoll = defaultChannelPoll
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Negotiator{cfg: cfg, log: log}
}

// Connect performs the signaling handshake and returns the live session.
// The microphone must already be captured; its frames are forwarded on the
// uplink track, as silence while transmission is gated off.
func (n *Negotiator) Connect(ctx context.Context, details domain.SessionDetails, mic ports.AudioSession, handlers ports.PeerHandlers) (ports.PeerSession, error) {
	iceServers := make([]webrtc.ICEServer, 0, len(details.ICEServers))
	for _, server := range details.ICEServers {
		iceServers = append(iceServers, webrtc.ICEServer{
			URLs:       server.URLs,
			Username:   server.Username,
			Credential: server.Credential,
		})
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: iceServers})
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	session := &peerSession{
		pc:       pc,
		log:      n.log,
		handlers: handlers,
		done:     make(chan struct{}),
	}

	uplink, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypePCMU, ClockRate: 8000, Channels: 1},
		"audio", "warmline-mic",
	)
	if err != nil {
		_ = pc.Close()
		return nil, fmt.Errorf("create uplink track: %w", err)
	}
	sender, err := pc.AddTrack(uplink)
	if err != nil {
		_ = pc.Close()
		return nil, fmt.Errorf("attach uplink track: %w", err)
	}
	go drainRTCP(sender)
	go session.pumpUplink(uplink, mic)

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		go session.pumpDownlink(track, n.cfg.AudioSink)
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		if handlers.StatusChanged != nil {
			handlers.StatusChanged("connection state: " + state.String())
		}
		switch state {
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateDisconnected:
			if handlers.ConnectionLost != nil {
				handlers.ConnectionLost(state.String())
			}
		}
	})

	// Proactive channel so sends work even before the remote side opens
	// one; a remote-opened channel with the same label replaces it.
	proactive, err := pc.CreateDataChannel(controlChannelLabel, nil)
	if err != nil {
		_ = pc.Close()
		return nil, fmt.Errorf("create control channel: %w", err)
	}
	session.attachChannel(proactive)

	pc.OnDataChannel(func(channel *webrtc.DataChannel) {
		if channel.Label() == controlChannelLabel {
			session.attachChannel(channel)
		}
	})

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("create offer: %w", err)
	}
	if handlers.Milestone != nil {
		handlers.Milestone(domain.MilestoneOfferCreated)
	}

	// The exchange is a single HTTP POST, so the local description must be
	// complete before it goes out.
	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(offer); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("apply local description: %w", err)
	}
	select {
	case <-gathered:
	case <-ctx.Done():
		_ = session.Close()
		return nil, ctx.Err()
	}

	answer, err := exchangeSDP(ctx, n.cfg.HTTPClient, n.cfg.BaseURL, details.Model, details.ClientSecret.Value, pc.LocalDescription().SDP)
	if err != nil {
		_ = session.Close()
		return nil, err
	}
	if err := pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: answer}); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("apply remote description: %w", err)
	}
	if handlers.Milestone != nil {
		handlers.Milestone(domain.MilestoneAnswerReceived)
	}

	// Not every remote implementation opens the channel on the same side;
	// past the bound the session proceeds degraded instead of failing.
	if !session.ChannelOpen() {
		session.waitForChannel(ctx, n.cfg.ChannelWait, n.cfg.ChannelPoll)
	}

	return session, nil
}

type peerSession struct {
	pc       *webrtc.PeerConnection
	log      *logrus.Logger
	handlers ports.PeerHandlers

	mu       sync.Mutex
	channel  *webrtc.DataChannel
	transmit bool

	firstMedia sync.Once
	closeOnce  sync.Once
	done       chan struct{}
}

func (s *peerSession) attachChannel(channel *webrtc.DataChannel) {
	s.mu.Lock()
	if s.channel == channel {
		s.mu.Unlock()
		return
	}
	s.channel = channel
	s.mu.Unlock()

	channel.OnOpen(func() {
		if s.handlers.ChannelOpen != nil {
			s.handlers.ChannelOpen(s)
		}
	})
	channel.OnMessage(func(msg webrtc.DataChannelMessage) {
		if s.handlers.ChannelMessage != nil {
			s.handlers.ChannelMessage(s, msg.Data)
		}
	})
	channel.OnError(func(err error) {
		if s.handlers.ChannelError != nil {
			s.handlers.ChannelError(err)
		}
	})
}

func (s *peerSession) Send(event []byte) error {
	s.mu.Lock()
	channel := s.channel
	s.mu.Unlock()
	if channel == nil || channel.ReadyState() != webrtc.DataChannelStateOpen {
		return errChannelClosed
	}
	return channel.Send(event)
}

func (s *peerSession) ChannelOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel != nil && s.channel.ReadyState() == webrtc.DataChannelStateOpen
}

func (s *peerSession) SetTransmit(enabled bool) {
	s.mu.Lock()
	s.transmit = enabled
	s.mu.Unlock()
}

func (s *peerSession) transmitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transmit
}

func (s *peerSession) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		channel := s.channel
		s.transmit = false
		s.mu.Unlock()

		if channel != nil {
			_ = channel.Close()
		}
		_ = s.pc.Close()
		close(s.done)
	})
	return nil
}

// pumpUplink forwards 20 ms microphone frames to the local track,
// substituting mu-law silence while transmission is gated off so the
// sender stays alive.
func (s *peerSession) pumpUplink(track *webrtc.TrackLocalStaticSample, mic ports.AudioSession) {
	if mic == nil {
		return
	}

	frame := make([]byte, uplinkFrameBytes)
	silence := make([]byte, uplinkFrameBytes)
	for i := range silence {
		silence[i] = muLawSilence
	}

	for {
		select {
		case <-s.done:
			return
		default:
		}

		if _, err := io.ReadFull(mic, frame); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				s.log.WithError(err).Debug("microphone capture ended")
			}
			return
		}

		payload := frame
		if !s.transmitting() {
			payload = silence
		}
		if err := track.WriteSample(media.Sample{Data: payload, Duration: uplinkFrameDuration}); err != nil {
			s.log.WithError(err).Debug("uplink write failed")
			return
		}
	}
}

// pumpDownlink copies remote audio payloads to the sink; the first frame
// marks the audio-started milestone.
func (s *peerSession) pumpDownlink(track *webrtc.TrackRemote, sink io.Writer) {
	buf := make([]byte, 1500)
	for {
		n, _, err := track.Read(buf)
		if err != nil {
			return
		}
		s.firstMedia.Do(func() {
			if s.handlers.Milestone != nil {
				s.handlers.Milestone(domain.MilestoneAudioStarted)
			}
		})
		if sink != nil && n > 0 {
			_, _ = sink.Write(buf[:n])
		}
	}
}

func (s *peerSession) waitForChannel(ctx context.Context, wait, every time.Duration) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		if s.ChannelOpen() {
			return
		}
		if time.Now().After(deadline) {
			if s.handlers.StatusChanged != nil {
				s.handlers.StatusChanged("realtime channel unavailable")
			}
			return
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func drainRTCP(sender *webrtc.RTPSender) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := sender.Read(buf); err != nil {
			return
		}
	}
}
