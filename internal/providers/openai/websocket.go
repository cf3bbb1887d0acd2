package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"warmline/internal/domain"
	"warmline/internal/ports"
)

// WSTransport attaches to the realtime endpoint over a websocket instead
// of a peer connection. Only the event protocol flows; no media moves, so
// transmission gating and the audio milestones stay inert. Useful for
// text-only smoke runs against the same event protocol.
type WSTransport struct {
	cfg    Config
	dialer *websocket.Dialer
	log    *logrus.Logger
}

func NewWSTransport(cfg Config, log *logrus.Logger) *WSTransport {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultRealtimeBase
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &WSTransport{cfg: cfg, dialer: websocket.DefaultDialer, log: log}
}

func (t *WSTransport) Connect(ctx context.Context, details domain.SessionDetails, _ ports.AudioSession, handlers ports.PeerHandlers) (ports.PeerSession, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+details.ClientSecret.Value)
	header.Set("OpenAI-Beta", "realtime=v1")

	conn, _, err := t.dialer.DialContext(ctx, websocketURL(t.cfg.BaseURL, details.Model), header)
	if err != nil {
		return nil, fmt.Errorf("realtime websocket dial failed: %w", err)
	}

	session := &wsSession{
		conn:     conn,
		handlers: handlers,
		open:     true,
		done:     make(chan struct{}),
	}
	go session.readLoop()

	go func() {
		<-ctx.Done()
		_ = session.Close()
	}()

	if handlers.ChannelOpen != nil {
		handlers.ChannelOpen(session)
	}
	return session, nil
}

type wsSession struct {
	conn     *websocket.Conn
	handlers ports.PeerHandlers

	writeMu sync.Mutex

	mu   sync.Mutex
	open bool

	closeOnce sync.Once
	done      chan struct{}
}

func (s *wsSession) Send(event []byte) error {
	if !s.ChannelOpen() {
		return errChannelClosed
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, event)
}

func (s *wsSession) ChannelOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// SetTransmit is a no-op: the websocket attach mode carries no media.
func (s *wsSession) SetTransmit(bool) {}

func (s *wsSession) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.open = false
		s.mu.Unlock()
		_ = s.conn.Close()
		close(s.done)
	})
	return nil
}

func (s *wsSession) readLoop() {
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			s.open = false
			s.mu.Unlock()

			if isExpectedClose(err) {
				return
			}
			select {
			case <-s.done:
			default:
				if s.handlers.ChannelError != nil {
					s.handlers.ChannelError(fmt.Errorf("realtime websocket read failed: %w", err))
				}
			}
			return
		}
		if s.handlers.ChannelMessage != nil {
			s.handlers.ChannelMessage(s, payload)
		}
	}
}

func isExpectedClose(err error) bool {
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return true
	}
	return errors.Is(err, net.ErrClosed)
}

func websocketURL(base, model string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "?model=" + url.QueryEscape(model)
}
