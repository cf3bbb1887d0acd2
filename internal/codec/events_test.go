package codec

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDecodeRejectsNonJSON(t *testing.T) {
	t.Parallel()

	if _, err := Decode([]byte("not-json")); err == nil {
		t.Fatalf("expected decode error for non-JSON frame")
	}
}

func TestTextDeltaVariants(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{
			name: "output text delta",
			raw:  `{"type":"response.output_text.delta","delta":"Hello"}`,
			want: "Hello",
			ok:   true,
		},
		{
			name: "audio transcript delta",
			raw:  `{"type":"response.audio_transcript.delta","delta":" world"}`,
			want: " world",
			ok:   true,
		},
		{
			name: "non-string delta yields nothing",
			raw:  `{"type":"response.output_text.delta","delta":42}`,
		},
		{
			name: "composite delta array",
			raw:  `{"type":"response.delta","delta":[{"type":"output_text_delta","text":"Hi"},{"type":"audio_delta","text":"x"},{"type":"output_text_delta","text":" there"}]}`,
			want: "Hi there",
			ok:   true,
		},
		{
			name: "composite delta single object",
			raw:  `{"type":"response.delta","delta":{"type":"output_text_delta","text":"solo"}}`,
			want: "solo",
			ok:   true,
		},
		{
			name: "composite delta without qualifying pieces",
			raw:  `{"type":"response.delta","delta":[{"type":"audio_delta","text":"x"}]}`,
		},
		{
			name: "composite delta missing",
			raw:  `{"type":"response.delta"}`,
		},
		{
			name: "response updated",
			raw:  `{"type":"response.updated","response":{"output":[{"content":[{"type":"output_text","text":"A"},{"type":"audio","text":"z"}]},{"content":[{"type":"output_text","text":"B"}]}]}}`,
			want: "AB",
			ok:   true,
		},
		{
			name: "response updated without text",
			raw:  `{"type":"response.updated","response":{"output":[]}}`,
		},
		{
			name: "unrecognized type",
			raw:  `{"type":"session.created","delta":"ignored"}`,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			event, err := Decode([]byte(tc.raw))
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			got, ok := event.TextDelta()
			if ok != tc.ok || got != tc.want {
				t.Fatalf("TextDelta() = (%q, %t), want (%q, %t)", got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestResponseIDToleratesMistypedField(t *testing.T) {
	t.Parallel()

	event, err := Decode([]byte(`{"type":"response.output_text.delta","response_id":17,"delta":"x"}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got := event.ResponseID(); got != "" {
		t.Fatalf("expected empty response id, got %q", got)
	}
}

func TestFinalTranscript(t *testing.T) {
	t.Parallel()

	event, err := Decode([]byte(`{"type":"response.audio_transcript.done","response_id":"r1","transcript":"Hello, welcome."}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	text, ok := event.FinalTranscript()
	if !ok || text != "Hello, welcome." {
		t.Fatalf("FinalTranscript() = (%q, %t)", text, ok)
	}

	missingID, _ := Decode([]byte(`{"type":"response.audio_transcript.done","transcript":"x"}`))
	if _, ok := missingID.FinalTranscript(); ok {
		t.Fatalf("expected no final transcript without a response id")
	}

	wrongType, _ := Decode([]byte(`{"type":"response.completed","response_id":"r1","transcript":"x"}`))
	if _, ok := wrongType.FinalTranscript(); ok {
		t.Fatalf("expected no final transcript for other event types")
	}
}

func TestUserItemFiltersRole(t *testing.T) {
	t.Parallel()

	user, _ := Decode([]byte(`{"type":"conversation.item.created","item":{"role":"user","content":[{"text":"hi"}]}}`))
	if _, ok := user.UserItem(); !ok {
		t.Fatalf("expected user item")
	}

	assistant, _ := Decode([]byte(`{"type":"conversation.item.created","item":{"role":"assistant","content":[]}}`))
	if _, ok := assistant.UserItem(); ok {
		t.Fatalf("expected assistant item to be filtered")
	}
}

func TestUserTextResolutionOrder(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		item string
		want string
		ok   bool
	}{
		{
			name: "transcript string",
			item: `{"content":[{"transcript":"I have blurry vision"}]}`,
			want: "I have blurry vision",
			ok:   true,
		},
		{
			name: "transcript array of chunks",
			item: `{"content":[{"transcript":["my eye","hurts"]}]}`,
			want: "my eye hurts",
			ok:   true,
		},
		{
			name: "text field",
			item: `{"content":[{"text":"typed message"}]}`,
			want: "typed message",
			ok:   true,
		},
		{
			name: "value field",
			item: `{"content":[{"value":"fallback value"}]}`,
			want: "fallback value",
			ok:   true,
		},
		{
			name: "multiple parts joined",
			item: `{"content":[{"text":"first"},{"text":"second"}]}`,
			want: "first second",
			ok:   true,
		},
		{
			name: "nested content one level",
			item: `{"content":[{"content":[{"transcript":"nested words"},{"text":"too"}]}]}`,
			want: "nested words too",
			ok:   true,
		},
		{
			name: "formatted transcript fallback",
			item: `{"content":[],"formatted":{"transcript":"formatted words"}}`,
			want: "formatted words",
			ok:   true,
		},
		{
			name: "formatted text fallback",
			item: `{"formatted":{"text":"last resort"}}`,
			want: "last resort",
			ok:   true,
		},
		{
			name: "whitespace collapsed",
			item: `{"content":[{"text":"  spaced \n out  "}]}`,
			want: "spaced out",
			ok:   true,
		},
		{
			name: "nothing resolvable",
			item: `{"content":[{"kind":"audio"}]}`,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := UserText(json.RawMessage(tc.item))
			if ok != tc.ok || got != tc.want {
				t.Fatalf("UserText() = (%q, %t), want (%q, %t)", got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestSessionUpdatePayload(t *testing.T) {
	t.Parallel()

	raw, err := SessionUpdate("be warm", []string{"text", "audio"})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	var decoded struct {
		EventID string `json:"event_id"`
		Type    string `json:"type"`
		Session struct {
			Instructions string   `json:"instructions"`
			Modalities   []string `json:"modalities"`
		} `json:"session"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Type != TypeSessionUpdate || decoded.EventID == "" {
		t.Fatalf("unexpected envelope: %+v", decoded)
	}
	if decoded.Session.Instructions != "be warm" || len(decoded.Session.Modalities) != 2 {
		t.Fatalf("unexpected session payload: %+v", decoded.Session)
	}
}

func TestResponseCreateCarriesSystemSeed(t *testing.T) {
	t.Parallel()

	raw, err := ResponseCreate("greet now", "system prompt")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	text := string(raw)
	if !strings.Contains(text, `"type":"response.create"`) {
		t.Fatalf("missing type tag: %s", text)
	}
	if !strings.Contains(text, `"role":"system"`) || !strings.Contains(text, `"system prompt"`) {
		t.Fatalf("missing system seed: %s", text)
	}
	if !strings.Contains(text, `"instructions":"greet now"`) {
		t.Fatalf("missing instructions: %s", text)
	}
}

func TestUserItemBuilders(t *testing.T) {
	t.Parallel()

	text, err := UserTextItem("hello there")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if !strings.Contains(string(text), `"type":"input_text"`) || !strings.Contains(string(text), `"role":"user"`) {
		t.Fatalf("unexpected text item: %s", text)
	}

	image, err := UserImageItem("aGVsbG8=")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if !strings.Contains(string(image), `"type":"input_image"`) || !strings.Contains(string(image), `"detail":"high"`) {
		t.Fatalf("unexpected image item: %s", image)
	}
}
