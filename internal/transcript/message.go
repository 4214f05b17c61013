package transcript

import "time"

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "damon"
)

// Message represents a single chat entry shown in the transcript. Messages
// live only for the page session and are never persisted.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Transient bool      `json:"transient"`
	CreatedAt time.Time `json:"created_at"`
}
