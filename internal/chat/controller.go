// Package chat holds the controllers behind the chat page: sending
// questions, uploading documents, focusing history entries and resetting
// the conversation. Network failures never escape as errors; they become
// persona messages in the transcript.
package chat

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/comigor/damon-go/internal/history"
	"github.com/comigor/damon-go/internal/logger"
	"github.com/comigor/damon-go/internal/transcript"
)

// Persona texts.
const (
	LoadingText      = "Absorbing knowledge..."
	GreetingText     = "The scroll is fresh. What do you seek, mortal?"
	VoiceEnabledText = "Voice output enabled."
	askErrorFormat   = "My connection to the ether is disrupted. (%s)"
	uploadErrorText  = "I rejected this scroll. "
	uploadingFormat  = "Uploading %s..."
	focusFormat      = "I am focusing my attention on %s..."
)

// Service is the remote Damon API.
type Service interface {
	Ask(ctx context.Context, query string) (string, error)
	Upload(ctx context.Context, filename string, content io.Reader) (string, error)
}

// Speaker narrates text aloud.
type Speaker interface {
	Speak(text string)
}

// Selector is an optional document-selection widget.
type Selector interface {
	AddOption(name string)
	SetValue(name string)
}

// Controller wires the chat page to the remote service.
type Controller struct {
	svc        Service
	transcript *transcript.Transcript
	history    *history.Store
	state      *State
	speaker    Speaker
	selector   Selector
}

// Option configures a Controller.
type Option func(*Controller)

// WithSpeaker routes replies to s while voice output is enabled.
func WithSpeaker(s Speaker) Option {
	return func(c *Controller) { c.speaker = s }
}

// WithSelector keeps a document selector in sync with uploads.
func WithSelector(s Selector) Option {
	return func(c *Controller) { c.selector = s }
}

// New creates a Controller.
func New(svc Service, tr *transcript.Transcript, hist *history.Store, state *State, opts ...Option) *Controller {
	c := &Controller{
		svc:        svc,
		transcript: tr,
		history:    hist,
		state:      state,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcript returns the transcript the controller writes to.
func (c *Controller) Transcript() *transcript.Transcript { return c.transcript }

// History returns the history store the controller writes to.
func (c *Controller) History() *history.Store { return c.history }

// State returns the page session state.
func (c *Controller) State() *State { return c.state }

// SendMessage posts text to the service and renders the outcome. Blank input
// is ignored and reported as false. Concurrent calls are allowed: each owns
// its loading message, replies land in completion order, and replies that
// arrive after a new chat started are dropped.
func (c *Controller) SendMessage(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	epoch := c.transcript.Epoch()
	c.transcript.Add(text, transcript.SenderUser, false)
	loadingID := c.transcript.Add(LoadingText, transcript.SenderAssistant, true)

	reply, err := c.svc.Ask(ctx, text)
	c.transcript.Remove(loadingID)
	if err != nil {
		logger.L.Warn("ask failed", "error", err)
		c.transcript.AddIn(epoch, fmt.Sprintf(askErrorFormat, err.Error()), transcript.SenderAssistant)
		return true
	}
	logger.L.Debug("ask answered", "query", text, "response", reply)

	if !c.transcript.AddIn(epoch, reply, transcript.SenderAssistant) {
		logger.L.Debug("dropping reply from a previous conversation")
		return true
	}
	if c.speaker != nil && c.state.VoiceEnabled() {
		c.speaker.Speak(reply)
	}
	return true
}

// UploadFile sends a document to the service. On success the filename is
// added to the history, persisted, and made the selector's value.
func (c *Controller) UploadFile(ctx context.Context, filename string, content io.Reader) error {
	c.transcript.Add(fmt.Sprintf(uploadingFormat, filename), transcript.SenderAssistant, false)

	msg, err := c.svc.Upload(ctx, filename, content)
	if err != nil {
		logger.L.Warn("upload failed", "file", filename, "error", err)
		c.transcript.Add(uploadErrorText+err.Error(), transcript.SenderAssistant, false)
		return nil
	}
	c.transcript.Add(msg, transcript.SenderAssistant, false)

	c.history.Add(filename)
	if err := c.history.Persist(filename); err != nil {
		logger.L.Error("failed to persist history", "file", filename, "error", err)
		return err
	}
	if c.selector != nil {
		c.selector.AddOption(filename)
		c.selector.SetValue(filename)
	}
	return nil
}

// UploadPath opens the file at path and uploads it under its base name.
// A file that cannot be opened is reported like any other rejection.
func (c *Controller) UploadPath(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		c.transcript.Add(uploadErrorText+err.Error(), transcript.SenderAssistant, false)
		return nil
	}
	defer f.Close()
	return c.UploadFile(ctx, filepath.Base(path), f)
}

// Focus highlights a history entry and announces it. Nothing is sent to the
// service: later questions are not scoped to the focused document.
func (c *Controller) Focus(filename string) bool {
	if !c.history.Select(filename) {
		return false
	}
	c.transcript.Add(fmt.Sprintf(focusFormat, filename), transcript.SenderAssistant, false)
	return true
}

// NewChat clears the transcript and greets the user again.
func (c *Controller) NewChat() {
	c.transcript.Clear()
	c.transcript.Add(GreetingText, transcript.SenderAssistant, false)
}

// ToggleVoice flips voice output and confirms aloud when it turns on.
func (c *Controller) ToggleVoice() bool {
	on := c.state.ToggleVoice()
	if on && c.speaker != nil {
		c.speaker.Speak(VoiceEnabledText)
	}
	return on
}

// LoadHistory renders the persisted upload history.
func (c *Controller) LoadHistory() {
	if err := c.history.Load(); err != nil {
		logger.L.Warn("failed to load history", "error", err)
	}
}
