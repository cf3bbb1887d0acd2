package codec

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Inbound event types emitted by the realtime endpoint.
const (
	TypeOutputTextDelta      = "response.output_text.delta"
	TypeAudioTranscriptDelta = "response.audio_transcript.delta"
	TypeResponseDelta        = "response.delta"
	TypeResponseUpdated      = "response.updated"
	TypeResponseCompleted    = "response.completed"
	TypeResponseFinalized    = "response.finalized"
	TypeAudioTranscriptDone  = "response.audio_transcript.done"
	TypeItemCreated          = "conversation.item.created"
)

// Event is one decoded control-channel envelope. The raw fields beyond Type
// are populated only for the event shapes that carry them; accessors
// tolerate missing or mistyped payloads and report "no value" instead of
// failing.
type Event struct {
	Type          string          `json:"type"`
	RawResponseID json.RawMessage `json:"response_id"`
	RawDelta      json.RawMessage `json:"delta"`
	RawTranscript json.RawMessage `json:"transcript"`
	RawResponse   json.RawMessage `json:"response"`
	RawItem       json.RawMessage `json:"item"`
}

// Decode parses one inbound wire frame. A decode error means the frame was
// not JSON; callers log and drop it rather than failing the session.
func Decode(raw []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return Event{}, fmt.Errorf("malformed control frame: %w", err)
	}
	return event, nil
}

// ResponseID returns the turn identifier when the envelope carries one.
func (e Event) ResponseID() string {
	return stringField(e.RawResponseID)
}

// TextDelta extracts an incremental assistant text fragment. It reports
// false for event shapes that carry no text.
func (e Event) TextDelta() (string, bool) {
	switch e.Type {
	case TypeOutputTextDelta, TypeAudioTranscriptDelta:
		if s := stringField(e.RawDelta); s != "" {
			return s, true
		}
	case TypeResponseDelta:
		return e.compositeDelta()
	case TypeResponseUpdated:
		return e.updatedText()
	}
	return "", false
}

// FinalTranscript returns the consolidated turn transcript carried by a
// response.audio_transcript.done event.
func (e Event) FinalTranscript() (string, bool) {
	if e.Type != TypeAudioTranscriptDone {
		return "", false
	}
	transcript := stringField(e.RawTranscript)
	if transcript == "" || e.ResponseID() == "" {
		return "", false
	}
	return transcript, true
}

// UserItem returns the raw conversation item when the event announces a
// freshly created user-role item.
func (e Event) UserItem() (json.RawMessage, bool) {
	if e.Type != TypeItemCreated || len(e.RawItem) == 0 {
		return nil, false
	}
	var item struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(e.RawItem, &item); err != nil || item.Role != "user" {
		return nil, false
	}
	return e.RawItem, true
}

// compositeDelta handles the response.delta encoding, where delta is a
// single object or an array of objects and only output_text_delta entries
// contribute text.
func (e Event) compositeDelta() (string, bool) {
	if len(e.RawDelta) == 0 {
		return "", false
	}

	var pieces []contentBlock
	if err := json.Unmarshal(e.RawDelta, &pieces); err != nil {
		var single contentBlock
		if err := json.Unmarshal(e.RawDelta, &single); err != nil {
			return "", false
		}
		pieces = []contentBlock{single}
	}

	var b strings.Builder
	for _, piece := range pieces {
		if piece.Type == "output_text_delta" {
			b.WriteString(piece.Text)
		}
	}
	if b.Len() == 0 {
		return "", false
	}
	return b.String(), true
}

// updatedText handles the full-response-updated encoding, concatenating all
// nested output_text blocks in array order.
func (e Event) updatedText() (string, bool) {
	if len(e.RawResponse) == 0 {
		return "", false
	}

	var response struct {
		Output []struct {
			Content []contentBlock `json:"content"`
		} `json:"output"`
	}
	if err := json.Unmarshal(e.RawResponse, &response); err != nil {
		return "", false
	}

	var b strings.Builder
	for _, item := range response.Output {
		for _, block := range item.Content {
			if block.Type == "output_text" {
				b.WriteString(block.Text)
			}
		}
	}
	if b.Len() == 0 {
		return "", false
	}
	return b.String(), true
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// UserText resolves patient-side text out of a conversation item. The
// endpoint nests user content in several shapes: probe transcript, text and
// value fields on each content part, then one nested content level on the
// first part, then the formatted fallback. The first non-empty resolution
// wins.
func UserText(item json.RawMessage) (string, bool) {
	var candidate struct {
		Content   []json.RawMessage `json:"content"`
		Formatted struct {
			Transcript string `json:"transcript"`
			Text       string `json:"text"`
		} `json:"formatted"`
	}
	if err := json.Unmarshal(item, &candidate); err != nil {
		return "", false
	}

	var collected []string
	for _, part := range candidate.Content {
		if text, ok := partText(part); ok {
			collected = append(collected, text)
		}
	}

	if len(collected) == 0 && len(candidate.Content) > 0 {
		var nested struct {
			Content []json.RawMessage `json:"content"`
		}
		if err := json.Unmarshal(candidate.Content[0], &nested); err == nil {
			texts := make([]string, 0, len(nested.Content))
			for _, entry := range nested.Content {
				if text, ok := partText(entry); ok {
					texts = append(texts, text)
				}
			}
			if joined := strings.Join(texts, " "); joined != "" {
				collected = append(collected, joined)
			}
		}
	}

	if len(collected) > 0 {
		return sanitize(strings.Join(collected, " ")), true
	}
	if candidate.Formatted.Transcript != "" {
		return sanitize(candidate.Formatted.Transcript), true
	}
	if candidate.Formatted.Text != "" {
		return sanitize(candidate.Formatted.Text), true
	}
	return "", false
}

func partText(raw json.RawMessage) (string, bool) {
	var record struct {
		Transcript json.RawMessage `json:"transcript"`
		Text       json.RawMessage `json:"text"`
		Value      json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(raw, &record); err != nil {
		return "", false
	}

	if s := stringField(record.Transcript); s != "" {
		return s, true
	}
	if len(record.Transcript) > 0 {
		var chunks []json.RawMessage
		if err := json.Unmarshal(record.Transcript, &chunks); err == nil {
			parts := make([]string, 0, len(chunks))
			for _, chunk := range chunks {
				if s := stringField(chunk); s != "" {
					parts = append(parts, s)
				}
			}
			if joined := strings.Join(parts, " "); joined != "" {
				return joined, true
			}
		}
	}
	if s := stringField(record.Text); s != "" {
		return s, true
	}
	if s := stringField(record.Value); s != "" {
		return s, true
	}
	return "", false
}

func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func sanitize(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
