package bootstrap

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"warmline/internal/audio"
	"warmline/internal/config"
	"warmline/internal/logging"
	"warmline/internal/ports"
	"warmline/internal/providers/intake"
	"warmline/internal/providers/openai"
	"warmline/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.SessionController
	Intake     *intake.Client
	Config     config.Config
	Log        *logrus.Logger
}

// Build wires all backend dependencies for the current runtime.
func Build(events ports.EventSink) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}
	log := logging.New(cfg.Log.Level, cfg.Log.JSON)

	sink, err := audioSink(cfg.Realtime.AudioOut)
	if err != nil {
		return Services{}, err
	}

	transportCfg := openai.Config{
		BaseURL:     cfg.Realtime.BaseURL,
		ChannelWait: cfg.Realtime.ChannelWait,
		ChannelPoll: cfg.Realtime.ChannelPoll,
		AudioSink:   sink,
	}

	var transport ports.PeerTransport
	if cfg.Realtime.Transport == config.TransportWebsocket {
		transport = openai.NewWSTransport(transportCfg, log)
	} else {
		transport = openai.NewNegotiator(transportCfg, log)
	}

	controller := usecase.NewSessionController(
		audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand),
		transport,
		events,
		log,
		usecase.Config{
			Audio: ports.AudioConfig{
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
		},
	)

	client := intake.NewClient(intake.Config{BaseURL: cfg.Intake.BaseURL})

	return Services{Controller: controller, Intake: client, Config: cfg, Log: log}, nil
}

// audioSink opens the remote-audio destination; payloads are discarded
// when no path is configured.
func audioSink(path string) (io.Writer, error) {
	if path == "" {
		return io.Discard, nil
	}
	return os.Create(path)
}
