package usecase

import (
	"sync"

	"warmline/internal/domain"
	"warmline/internal/ports"
)

// activeSession holds the per-session state graph. A fresh instance is
// built for every Start and discarded on close; nothing survives across
// sessions.
type activeSession struct {
	mic    ports.AudioSession
	policy domain.SessionPolicy

	assembler *transcriptAssembler
	timeline  *timeline
	gate      *micGate

	peerMu sync.Mutex
	peer   ports.PeerSession

	stateMu sync.Mutex
	state   domain.SessionState

	closeOnce sync.Once
}

func (s *activeSession) setPeer(peer ports.PeerSession) {
	s.peerMu.Lock()
	defer s.peerMu.Unlock()
	s.peer = peer
}

func (s *activeSession) getPeer() ports.PeerSession {
	s.peerMu.Lock()
	defer s.peerMu.Unlock()
	return s.peer
}

func (s *activeSession) setState(state domain.SessionState) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.state = state
}

func (s *activeSession) getState() domain.SessionState {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}
