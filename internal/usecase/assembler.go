package usecase

import (
	"strings"
	"sync"

	"warmline/internal/domain"
)

// transcriptAssembler folds streamed fragments into speaker-attributed
// segments and lets a consolidated final transcript supersede the streamed
// text for a turn. Segments are never reordered or deleted; only the
// trailing segment is extended in place.
type transcriptAssembler struct {
	mu       sync.Mutex
	segments []domain.Segment
	turns    map[string]int
}

func newTranscriptAssembler() *transcriptAssembler {
	return &transcriptAssembler{turns: make(map[string]int)}
}

// Append merges a fragment into the trailing segment when the speaker (and
// turn, when supplied) matches, else starts a new segment. It reports
// whether the transcript changed.
func (a *transcriptAssembler) Append(speaker domain.Speaker, fragment, turnID string) bool {
	normalized := normalizeText(fragment)
	if normalized == "" {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if n := len(a.segments); n > 0 {
		last := &a.segments[n-1]
		if last.Speaker == speaker && (turnID == "" || last.TurnID == turnID) {
			last.Text = joinFragments(last.Text, normalized)
			return true
		}
	}

	a.segments = append(a.segments, domain.Segment{Speaker: speaker, Text: normalized, TurnID: turnID})
	if speaker == domain.SpeakerAssistant && turnID != "" {
		a.turns[turnID] = len(a.segments) - 1
	}
	return true
}

// SetFinal replaces the whole text of the assistant segment registered for
// the turn; the consolidated transcript is authoritative over streamed
// deltas. When no segment exists for the turn yet, one is created.
func (a *transcriptAssembler) SetFinal(turnID, fullText string) bool {
	normalized := normalizeText(fullText)
	if normalized == "" || turnID == "" {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if index, ok := a.turns[turnID]; ok {
		a.segments[index].Text = normalized
		return true
	}
	a.segments = append(a.segments, domain.Segment{Speaker: domain.SpeakerAssistant, Text: normalized, TurnID: turnID})
	a.turns[turnID] = len(a.segments) - 1
	return true
}

// Render returns the assembled transcript, one "<Speaker>: <text>" block
// per segment separated by blank lines.
func (a *transcriptAssembler) Render() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	blocks := make([]string, 0, len(a.segments))
	for _, segment := range a.segments {
		blocks = append(blocks, segment.Speaker.Label()+": "+segment.Text)
	}
	return strings.Join(blocks, "\n\n")
}

// Segments returns a copy of the current segment sequence.
func (a *transcriptAssembler) Segments() []domain.Segment {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.Segment(nil), a.segments...)
}

func normalizeText(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// joinFragments glues token fragments with a single separating space,
// except when the boundary already carries one (trailing whitespace or an
// opening bracket/quote) or the next fragment starts with closing
// punctuation.
func joinFragments(previous, next string) string {
	if previous == "" {
		return next
	}
	if next == "" {
		return previous
	}
	last := previous[len(previous)-1]
	if last == ' ' || last == '\t' || last == '\n' || strings.IndexByte("([{\"", last) >= 0 {
		return previous + next
	}
	if strings.IndexByte(",.;!?%)]}", next[0]) >= 0 {
		return previous + next
	}
	return previous + " " + next
}
