package usecase

import "sync"

// micGate controls whether captured audio is transmitted. Hardware capture
// is never stopped by the gate; only session close does that. Every
// completed transition notifies the caller once.
type micGate struct {
	mu        sync.Mutex
	enabled   bool
	autoFired bool
	manual    bool

	apply  func(enabled bool)
	notify func(enabled bool)
}

func newMicGate(manual bool, apply, notify func(bool)) *micGate {
	return &micGate{manual: manual, apply: apply, notify: notify}
}

// Set toggles transmission. An unchanged state is a no-op with no callback.
func (g *micGate) Set(enabled bool) {
	g.mu.Lock()
	if g.enabled == enabled {
		g.mu.Unlock()
		return
	}
	g.enabled = enabled
	g.mu.Unlock()

	g.apply(enabled)
	g.notify(enabled)
}

// AutoEnable turns transmission on after the greeting finalizes, at most
// once, and only when policy leaves the gate automatic. It reports whether
// the transition happened.
func (g *micGate) AutoEnable() bool {
	g.mu.Lock()
	if g.manual || g.autoFired || g.enabled {
		g.mu.Unlock()
		return false
	}
	g.autoFired = true
	g.enabled = true
	g.mu.Unlock()

	g.apply(true)
	g.notify(true)
	return true
}

// Enabled reports whether transmission is currently allowed.
func (g *micGate) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled
}
