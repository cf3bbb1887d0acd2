package usecase

import (
	"sync"
	"time"

	"warmline/internal/domain"
)

// timeline records first-occurrence timestamps for session milestones.
// Later marks for an already-set milestone are no-ops.
type timeline struct {
	mu    sync.Mutex
	marks map[domain.Milestone]time.Time
	now   func() time.Time
}

func newTimeline(now func() time.Time) *timeline {
	if now == nil {
		now = time.Now
	}
	return &timeline{marks: make(map[domain.Milestone]time.Time), now: now}
}

// Mark stamps the milestone on first call and reports whether it was newly
// set.
func (t *timeline) Mark(m domain.Milestone) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.marks[m]; ok {
		return false
	}
	t.marks[m] = t.now()
	return true
}

// Snapshot returns an immutable copy of the recorded milestones.
func (t *timeline) Snapshot() domain.TimelineSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	marks := make(map[domain.Milestone]time.Time, len(t.marks))
	for milestone, at := range t.marks {
		marks[milestone] = at
	}
	return domain.TimelineSnapshot{Marks: marks}
}
