package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"warmline/internal/bootstrap"
	"warmline/internal/config"
	"warmline/internal/domain"
	"warmline/internal/providers/intake"
	"warmline/internal/usecase"
)

// App is the terminal boundary for a greeting session: it implements the
// event sink and forwards user intent to the controller.
type App struct {
	controller *usecase.SessionController
	intake     *intake.Client
	cfg        config.Config
	log        *logrus.Logger
}

func NewApp() *App {
	return &App{log: logrus.StandardLogger()}
}

// Startup wires the dependency graph with the app as the event sink.
func (a *App) Startup() error {
	services, err := bootstrap.Build(a)
	if err != nil {
		return err
	}
	a.controller = services.Controller
	a.intake = services.Intake
	a.cfg = services.Config
	a.log = services.Log
	return nil
}

// Run logs in, provisions a session, starts it, and serves terminal
// commands until the caller quits or the context ends.
func (a *App) Run(ctx context.Context) error {
	login := a.cfg.Login
	if login.Username == "" || login.Password == "" || login.DOB == "" {
		return errors.New("WARMLINE_USERNAME, WARMLINE_PASSWORD and WARMLINE_DOB must be set")
	}

	auth, err := a.intake.Login(ctx, intake.LoginRequest{
		Username: login.Username,
		Password: login.Password,
		DOB:      login.DOB,
	})
	if err != nil {
		a.SessionError(domain.ErrorCodeAuth, err.Error())
		return err
	}
	a.log.WithField("user", auth.User.Username).Info("authenticated")

	details, err := a.intake.CreateSession(ctx, auth.AccessToken)
	if err != nil {
		a.SessionError(domain.ErrorCodeProvision, err.Error())
		return err
	}
	a.log.WithFields(logrus.Fields{
		"session":   details.SessionID,
		"model":     details.Model,
		"manualMic": details.Settings.RequireManualMicEnable,
	}).Info("session provisioned")

	if err := a.controller.Start(ctx, details); err != nil {
		return err
	}
	defer a.controller.Close()

	return a.commandLoop(ctx)
}

// commandLoop reads terminal commands: /mic on|off, /image <path>, /quit;
// any other line is sent as patient text.
func (a *App) commandLoop(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if done := a.handleCommand(line); done {
				return nil
			}
		}
	}
}

func (a *App) handleCommand(line string) bool {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return false
	case line == "/quit":
		return true
	case line == "/mic on":
		a.setMicrophone(true)
		return false
	case line == "/mic off":
		a.setMicrophone(false)
		return false
	case strings.HasPrefix(line, "/image "):
		a.sendImage(strings.TrimSpace(strings.TrimPrefix(line, "/image ")))
		return false
	default:
		if err := a.controller.SendText(line); err != nil {
			a.SessionError(domain.ErrorCodeChannel, err.Error())
		}
		return false
	}
}

func (a *App) setMicrophone(enabled bool) {
	if err := a.controller.SetMicrophoneEnabled(enabled); err != nil {
		a.SessionError(domain.ErrorCodeAudio, err.Error())
	}
}

func (a *App) sendImage(path string) {
	image, err := os.ReadFile(path)
	if err != nil {
		a.SessionError(domain.ErrorCodeChannel, fmt.Sprintf("cannot read image: %v", err))
		return
	}
	if err := a.controller.SendImage(image); err != nil {
		a.SessionError(domain.ErrorCodeChannel, err.Error())
	}
}

// Transcript prints the assembled transcript.
func (a *App) Transcript(text string) {
	fmt.Fprintf(os.Stdout, "\n%s\n", text)
}

// Status logs transport and lifecycle status updates.
func (a *App) Status(message string) {
	a.log.Info(message)
}

// SessionError logs backend errors with a stable headline per code.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	a.log.WithField("detail", detail).Error(errorMessage(code, detail))
}

// TimelineUpdated logs elapsed milestones as they are recorded.
func (a *App) TimelineUpdated(snapshot domain.TimelineSnapshot) {
	fields := logrus.Fields{}
	for _, milestone := range []domain.Milestone{
		domain.MilestoneOfferCreated,
		domain.MilestoneAnswerReceived,
		domain.MilestoneAudioStarted,
		domain.MilestoneFirstTranscript,
	} {
		if elapsed, ok := snapshot.Elapsed(milestone); ok {
			fields[string(milestone)] = elapsed.Milliseconds()
		}
	}
	if len(fields) > 0 {
		a.log.WithFields(fields).Info("timeline (ms)")
	}
}

// MicrophoneStateChanged logs gate transitions.
func (a *App) MicrophoneStateChanged(enabled bool) {
	if enabled {
		a.log.Info("microphone live")
		return
	}
	a.log.Info("microphone muted")
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeAuth:
		return "Authentication failed"
	case domain.ErrorCodeProvision:
		return "Session provisioning failed"
	case domain.ErrorCodeHandshake:
		return "Realtime handshake failed"
	case domain.ErrorCodeConnection:
		return "Connection lost"
	case domain.ErrorCodeChannel:
		return "Realtime channel error"
	case domain.ErrorCodeAudio:
		return "Audio issue"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
