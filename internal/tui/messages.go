package tui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// frameMsg drives the background animation once per frame.
type frameMsg time.Time

// replyDoneMsg signals that a send finished, successfully or not.
type replyDoneMsg struct{}

// uploadDoneMsg signals that an upload finished.
type uploadDoneMsg struct{ err error }

// DictationMsg carries a recognized utterance into the message box.
type DictationMsg struct{ Text string }

// ListeningMsg reports that dictation started or stopped.
type ListeningMsg struct{ Listening bool }

func frameTick(fps int) tea.Cmd {
	return tea.Tick(time.Second/time.Duration(fps), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Bridge forwards callbacks from background goroutines, such as the voice
// adapter, into the running program. Messages sent before Attach are dropped.
type Bridge struct {
	mu sync.Mutex
	p  *tea.Program
}

// NewBridge returns an unattached Bridge.
func NewBridge() *Bridge { return &Bridge{} }

// Attach connects the bridge to p.
func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	b.p = p
	b.mu.Unlock()
}

func (b *Bridge) send(msg tea.Msg) {
	b.mu.Lock()
	p := b.p
	b.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Dictated delivers a transcript to the message box.
func (b *Bridge) Dictated(text string) { b.send(DictationMsg{Text: text}) }

// Listening reports the dictation state.
func (b *Bridge) Listening(on bool) { b.send(ListeningMsg{Listening: on}) }

// DocSelector is the document selector shown in the status bar. Uploads add
// options to it and make the new document its value.
type DocSelector struct {
	mu      sync.Mutex
	options []string
	value   string
}

// NewDocSelector returns an empty selector.
func NewDocSelector() *DocSelector { return &DocSelector{} }

func (d *DocSelector) AddOption(name string) {
	d.mu.Lock()
	d.options = append(d.options, name)
	d.mu.Unlock()
}

func (d *DocSelector) SetValue(name string) {
	d.mu.Lock()
	d.value = name
	d.mu.Unlock()
}

// Value returns the selected document.
func (d *DocSelector) Value() string {
	if d == nil {
		return ""
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

// Options returns the known documents in insertion order.
func (d *DocSelector) Options() []string {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.options...)
}
