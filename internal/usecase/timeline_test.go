package usecase

import (
	"testing"
	"time"

	"warmline/internal/domain"
)

func TestTimelineMarksFirstOccurrenceOnly(t *testing.T) {
	t.Parallel()

	current := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		current = current.Add(time.Second)
		return current
	}

	tl := newTimeline(clock)
	if !tl.Mark(domain.MilestoneSessionCreated) {
		t.Fatalf("first mark should report newly set")
	}
	first := tl.Snapshot().Marks[domain.MilestoneSessionCreated]

	if tl.Mark(domain.MilestoneSessionCreated) {
		t.Fatalf("repeat mark should be a no-op")
	}
	if got := tl.Snapshot().Marks[domain.MilestoneSessionCreated]; !got.Equal(first) {
		t.Fatalf("repeat mark moved the timestamp: %v -> %v", first, got)
	}
}

func TestTimelineElapsed(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(120 * time.Millisecond)}
	clock := func() time.Time {
		next := times[0]
		if len(times) > 1 {
			times = times[1:]
		}
		return next
	}

	tl := newTimeline(clock)
	tl.Mark(domain.MilestoneSessionCreated)
	tl.Mark(domain.MilestoneOfferCreated)

	snapshot := tl.Snapshot()
	elapsed, ok := snapshot.Elapsed(domain.MilestoneOfferCreated)
	if !ok || elapsed != 120*time.Millisecond {
		t.Fatalf("Elapsed() = (%v, %t)", elapsed, ok)
	}
	if _, ok := snapshot.Elapsed(domain.MilestoneFirstTranscript); ok {
		t.Fatalf("unrecorded milestone should report no elapsed time")
	}
}

func TestTimelineSnapshotIsACopy(t *testing.T) {
	t.Parallel()

	tl := newTimeline(nil)
	tl.Mark(domain.MilestoneSessionCreated)

	snapshot := tl.Snapshot()
	delete(snapshot.Marks, domain.MilestoneSessionCreated)

	if _, ok := tl.Snapshot().Marks[domain.MilestoneSessionCreated]; !ok {
		t.Fatalf("mutating a snapshot leaked into the timeline")
	}
}
