package codec

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Outbound event types consumed by the realtime endpoint.
const (
	TypeSessionUpdate  = "session.update"
	TypeResponseCreate = "response.create"
	TypeItemCreate     = "conversation.item.create"
)

type contentPart struct {
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	Image  string `json:"image,omitempty"`
	Detail string `json:"detail,omitempty"`
}

type sessionUpdate struct {
	EventID string         `json:"event_id"`
	Type    string         `json:"type"`
	Session sessionPayload `json:"session"`
}

type sessionPayload struct {
	Instructions string   `json:"instructions"`
	Modalities   []string `json:"modalities"`
}

// SessionUpdate builds the session-configuration event carrying the system
// instructions and enabled modalities.
func SessionUpdate(instructions string, modalities []string) ([]byte, error) {
	return json.Marshal(sessionUpdate{
		EventID: uuid.NewString(),
		Type:    TypeSessionUpdate,
		Session: sessionPayload{Instructions: instructions, Modalities: modalities},
	})
}

type responseCreate struct {
	EventID  string          `json:"event_id"`
	Type     string          `json:"type"`
	Response responsePayload `json:"response"`
}

type responsePayload struct {
	Modalities   []string           `json:"modalities"`
	Conversation []conversationSeed `json:"conversation"`
	Instructions string             `json:"instructions"`
}

type conversationSeed struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

// ResponseCreate builds the greeting response request with an inlined
// system-role conversation seed.
func ResponseCreate(instructions, systemText string) ([]byte, error) {
	return json.Marshal(responseCreate{
		EventID: uuid.NewString(),
		Type:    TypeResponseCreate,
		Response: responsePayload{
			Modalities: []string{"audio", "text"},
			Conversation: []conversationSeed{{
				Role:    "system",
				Content: []contentPart{{Type: "input_text", Text: systemText}},
			}},
			Instructions: instructions,
		},
	})
}

type itemCreate struct {
	EventID string      `json:"event_id"`
	Type    string      `json:"type"`
	Item    messageItem `json:"item"`
}

type messageItem struct {
	Type    string        `json:"type"`
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

// UserTextItem wraps caller text as a user-role conversation item.
func UserTextItem(text string) ([]byte, error) {
	return json.Marshal(itemCreate{
		EventID: uuid.NewString(),
		Type:    TypeItemCreate,
		Item: messageItem{
			Type:    "message",
			Role:    "user",
			Content: []contentPart{{Type: "input_text", Text: text}},
		},
	})
}

// UserImageItem wraps a base64-encoded image as a user-role conversation
// item.
func UserImageItem(imageB64 string) ([]byte, error) {
	return json.Marshal(itemCreate{
		EventID: uuid.NewString(),
		Type:    TypeItemCreate,
		Item: messageItem{
			Type:    "message",
			Role:    "user",
			Content: []contentPart{{Type: "input_image", Image: imageB64, Detail: "high"}},
		},
	})
}
