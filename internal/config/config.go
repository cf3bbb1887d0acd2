package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Transport selects how the realtime session attaches.
const (
	TransportWebRTC    = "webrtc"
	TransportWebsocket = "websocket"
)

// Config stores runtime configuration for the greeting client.
type Config struct {
	Intake   IntakeConfig
	Realtime RealtimeConfig
	Audio    AudioConfig
	Login    LoginConfig
	Log      LogConfig
}

type IntakeConfig struct {
	BaseURL string
}

type RealtimeConfig struct {
	BaseURL     string
	Transport   string
	ChannelWait time.Duration
	ChannelPoll time.Duration
	AudioOut    string
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
}

type LoginConfig struct {
	Username string
	Password string
	DOB      string
}

type LogConfig struct {
	Level string
	JSON  bool
}

// Load resolves configuration from an optional .env file, environment
// variables, and sensible defaults.
func Load() (Config, error) {
	// Missing .env is fine; the environment alone is enough.
	_ = godotenv.Load()

	cfg := Config{
		Intake: IntakeConfig{
			BaseURL: envOrDefault("WARMLINE_API_BASE", "http://localhost:4000"),
		},
		Realtime: RealtimeConfig{
			BaseURL:     envOrDefault("WARMLINE_REALTIME_BASE", "https://api.openai.com/v1/realtime"),
			Transport:   strings.ToLower(envOrDefault("WARMLINE_TRANSPORT", TransportWebRTC)),
			ChannelWait: time.Duration(envOrDefaultInt("WARMLINE_CHANNEL_WAIT_MS", 5000)) * time.Millisecond,
			ChannelPoll: time.Duration(envOrDefaultInt("WARMLINE_CHANNEL_POLL_MS", 50)) * time.Millisecond,
			AudioOut:    strings.TrimSpace(os.Getenv("WARMLINE_AUDIO_OUT")),
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("WARMLINE_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("WARMLINE_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:     envOrDefault("WARMLINE_AUDIO_INPUT_DEVICE", "default"),
		},
		Login: LoginConfig{
			Username: strings.TrimSpace(os.Getenv("WARMLINE_USERNAME")),
			Password: os.Getenv("WARMLINE_PASSWORD"),
			DOB:      strings.TrimSpace(os.Getenv("WARMLINE_DOB")),
		},
		Log: LogConfig{
			Level: envOrDefault("LOG_LEVEL", "info"),
			JSON:  envOrDefaultBool("LOG_JSON", false),
		},
	}

	if cfg.Realtime.Transport != TransportWebsocket {
		cfg.Realtime.Transport = TransportWebRTC
	}
	if cfg.Realtime.ChannelWait <= 0 {
		cfg.Realtime.ChannelWait = 5 * time.Second
	}
	if cfg.Realtime.ChannelPoll <= 0 {
		cfg.Realtime.ChannelPoll = 50 * time.Millisecond
	}

	return cfg, nil
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
