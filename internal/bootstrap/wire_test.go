package bootstrap

import (
	"path/filepath"
	"testing"

	"warmline/internal/domain"
)

type noopSink struct{}

func (noopSink) Transcript(string)                       {}
func (noopSink) Status(string)                           {}
func (noopSink) SessionError(domain.ErrorCode, string)   {}
func (noopSink) TimelineUpdated(domain.TimelineSnapshot) {}
func (noopSink) MicrophoneStateChanged(bool)             {}

func TestBuild(t *testing.T) {
	t.Setenv("WARMLINE_AUDIO_OUT", "")
	t.Setenv("WARMLINE_TRANSPORT", "")

	services, err := Build(noopSink{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if services.Controller == nil || services.Intake == nil || services.Log == nil {
		t.Fatalf("incomplete service graph: %+v", services)
	}
}

func TestBuildWebsocketTransport(t *testing.T) {
	t.Setenv("WARMLINE_AUDIO_OUT", "")
	t.Setenv("WARMLINE_TRANSPORT", "websocket")

	if _, err := Build(noopSink{}); err != nil {
		t.Fatalf("build failed: %v", err)
	}
}

func TestBuildAudioOutFile(t *testing.T) {
	t.Setenv("WARMLINE_AUDIO_OUT", filepath.Join(t.TempDir(), "remote.ulaw"))

	if _, err := Build(noopSink{}); err != nil {
		t.Fatalf("build failed: %v", err)
	}
}
