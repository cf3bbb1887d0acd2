package domain

import "time"

// Speaker identifies which party produced a transcript fragment.
type Speaker string

const (
	SpeakerAssistant Speaker = "assistant"
	SpeakerPatient   Speaker = "patient"
)

// Label returns the transcript display label for the speaker.
func (s Speaker) Label() string {
	if s == SpeakerPatient {
		return "Patient"
	}
	return "Assistant"
}

// Segment is one speaker-attributed block of the running transcript.
type Segment struct {
	Speaker Speaker
	Text    string
	TurnID  string
}

// Milestone names a point in the session lifecycle whose first occurrence
// is timestamped for latency reporting.
type Milestone string

const (
	MilestoneSessionCreated  Milestone = "session_created"
	MilestoneOfferCreated    Milestone = "offer_created"
	MilestoneAnswerReceived  Milestone = "answer_received"
	MilestoneAudioStarted    Milestone = "audio_started"
	MilestoneFirstTranscript Milestone = "first_transcript"
)

// TimelineSnapshot is an immutable copy of the recorded milestones.
type TimelineSnapshot struct {
	Marks map[Milestone]time.Time
}

// Elapsed returns the time from session creation to the milestone, and
// whether both points were recorded.
func (s TimelineSnapshot) Elapsed(m Milestone) (time.Duration, bool) {
	start, ok := s.Marks[MilestoneSessionCreated]
	if !ok {
		return 0, false
	}
	at, ok := s.Marks[m]
	if !ok {
		return 0, false
	}
	return at.Sub(start), true
}

// SessionState models the session lifecycle.
type SessionState string

const (
	SessionStateIdle        SessionState = "idle"
	SessionStateNegotiating SessionState = "negotiating"
	SessionStateOpen        SessionState = "open"
	SessionStateClosed      SessionState = "closed"
	SessionStateFailed      SessionState = "failed"
)

// ErrorCode identifies fatal and in-flight backend errors.
type ErrorCode string

const (
	ErrorCodeStartup    ErrorCode = "startup"
	ErrorCodeAuth       ErrorCode = "auth"
	ErrorCodeProvision  ErrorCode = "provision"
	ErrorCodeHandshake  ErrorCode = "handshake"
	ErrorCodeConnection ErrorCode = "connection"
	ErrorCodeChannel    ErrorCode = "channel"
	ErrorCodeAudio      ErrorCode = "audio"
)

// ICEServer describes one relay/traversal server for the peer connection.
type ICEServer struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

// ClientSecret is the short-lived secret authenticating the signaling
// exchange. It is distinct from the caller's bearer token.
type ClientSecret struct {
	Value     string `json:"value"`
	ExpiresAt string `json:"expiresAt"`
}

// SessionPolicy carries provisioning-time policy flags.
type SessionPolicy struct {
	RequireManualMicEnable bool `json:"requireManualMicEnable"`
	RequireEnglishGreeting bool `json:"requireEnglishGreeting"`
}

// SessionDetails is the immutable connection material for one session,
// supplied once at negotiation start.
type SessionDetails struct {
	SessionID    string        `json:"sessionId"`
	Model        string        `json:"model"`
	ExpiresAt    string        `json:"expiresAt"`
	ClientSecret ClientSecret  `json:"clientSecret"`
	ICEServers   []ICEServer   `json:"iceServers"`
	Settings     SessionPolicy `json:"settings"`
}

// MicrophoneState reports hardware capture vs gated transmission for the
// local microphone. Transmitted implies captured.
type MicrophoneState struct {
	Captured    bool
	Transmitted bool
}

// Status summarizes the current session status.
type Status struct {
	State   SessionState `json:"state"`
	Active  bool         `json:"active"`
	Message string       `json:"message,omitempty"`
}
