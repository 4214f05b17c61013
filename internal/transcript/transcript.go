// Package transcript keeps the ordered list of chat messages for one page
// session. It is safe for concurrent use: controllers append from request
// goroutines while the UI reads snapshots on every frame.
package transcript

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Transcript is the ordered, in-memory chat log.
type Transcript struct {
	mu       sync.Mutex
	messages []Message
	epoch    uint64
	version  uint64
}

// New returns an empty transcript.
func New() *Transcript {
	return &Transcript{}
}

// Add appends a message and returns its id.
func (t *Transcript) Add(text string, sender Sender, transient bool) string {
	msg := Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    sender,
		Transient: transient,
		CreatedAt: time.Now(),
	}
	t.mu.Lock()
	t.messages = append(t.messages, msg)
	t.version++
	t.mu.Unlock()
	return msg.ID
}

// AddIn appends a message only if the transcript is still in the given epoch.
// It reports whether the message was added.
func (t *Transcript) AddIn(epoch uint64, text string, sender Sender) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.epoch != epoch {
		return false
	}
	t.messages = append(t.messages, Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    sender,
		CreatedAt: time.Now(),
	})
	t.version++
	return true
}

// Remove deletes the message with the given id. Unknown ids are ignored.
func (t *Transcript) Remove(id string) bool {
	if id == "" {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	i := slices.IndexFunc(t.messages, func(m Message) bool { return m.ID == id })
	if i < 0 {
		return false
	}
	t.messages = slices.Delete(t.messages, i, i+1)
	t.version++
	return true
}

// Clear drops every message and starts a new epoch.
func (t *Transcript) Clear() {
	t.mu.Lock()
	t.messages = nil
	t.epoch++
	t.version++
	t.mu.Unlock()
}

// Epoch identifies the current conversation; it advances on Clear.
func (t *Transcript) Epoch() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.epoch
}

// Version changes on every mutation, letting renderers skip unchanged frames.
func (t *Transcript) Version() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.version
}

// Messages returns a copy of the transcript in display order.
func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.messages)
}

// Last returns the most recent message.
func (t *Transcript) Last() (Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}
