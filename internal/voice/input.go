package voice

import (
	"context"
	"errors"
	"sync"

	"github.com/qmuntal/stateless"

	"github.com/comigor/damon-go/internal/logger"
)

// ErrUnavailable is returned when the platform offers no speech recognition.
var ErrUnavailable = errors.New("speech recognition unavailable")

// RecognizeOptions mirrors the knobs of a platform recognizer.
type RecognizeOptions struct {
	Continuous     bool
	InterimResults bool
}

// Result is one recognition outcome. Each alternative is a candidate
// transcript, best first.
type Result struct {
	Alternatives []string
	Final        bool
}

// Recognizer is the platform speech-to-text capability. Recognize listens
// until it has a result, the context is cancelled, or it fails.
type Recognizer interface {
	Recognize(ctx context.Context, opts RecognizeOptions) ([]Result, error)
}

// Session states
type SessionState stateless.State

var (
	StateIdle      SessionState = "Idle"
	StateListening SessionState = "Listening"
)

// Session triggers
type SessionTrigger stateless.Trigger

var (
	TriggerStart SessionTrigger = "Start"
	TriggerEnd   SessionTrigger = "End" // result delivered, manual stop, or failure
)

// Input fills the message box from dictation. A single recognition session
// runs at a time; toggling while listening stops it.
type Input struct {
	rec          Recognizer
	onTranscript func(string)
	onChange     func(listening bool)

	mu     sync.Mutex
	fsm    *stateless.StateMachine
	cancel context.CancelFunc
	done   chan struct{}
}

// NewInput returns an adapter over rec. onTranscript receives the first
// alternative of a final result; onChange is told when listening starts and
// stops. Both callbacks run on the recognition goroutine and may be nil.
func NewInput(rec Recognizer, onTranscript func(string), onChange func(listening bool)) *Input {
	in := &Input{
		rec:          rec,
		onTranscript: onTranscript,
		onChange:     onChange,
		fsm:          stateless.NewStateMachine(StateIdle),
	}
	in.fsm.Configure(StateIdle).
		Permit(TriggerStart, StateListening).
		Ignore(TriggerEnd)
	in.fsm.Configure(StateListening).
		Permit(TriggerEnd, StateIdle).
		Ignore(TriggerStart)
	return in
}

// Available reports whether a recognizer is present. The UI hides the
// trigger control when it is not.
func (in *Input) Available() bool {
	return in != nil && in.rec != nil
}

// Listening reports whether a session is active.
func (in *Input) Listening() bool {
	if in == nil {
		return false
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.fsm.MustState() == StateListening
}

// Toggle starts a session when idle and stops the active one otherwise. It
// never blocks on the callbacks, so it is safe to call from a UI event loop
// that the callbacks feed. It returns ErrUnavailable, without side effects,
// if no recognizer exists.
func (in *Input) Toggle() error {
	if !in.Available() {
		return ErrUnavailable
	}
	in.mu.Lock()
	if in.fsm.MustState() == StateListening {
		cancel := in.cancel
		in.mu.Unlock()
		cancel()
		return nil
	}
	if err := in.fsm.Fire(TriggerStart); err != nil {
		in.mu.Unlock()
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	in.cancel, in.done = cancel, done
	in.mu.Unlock()

	go in.listen(ctx, cancel, done)
	return nil
}

// Cancel ends the active session, if any, without waiting for it.
func (in *Input) Cancel() {
	if in == nil {
		return
	}
	in.mu.Lock()
	cancel := in.cancel
	in.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Stop ends the active session, if any, and waits for it to wind down. The
// callbacks must not be blocked on the caller while it waits.
func (in *Input) Stop() {
	if in == nil {
		return
	}
	in.mu.Lock()
	cancel, done := in.cancel, in.done
	in.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Wait blocks until the active session, if any, has ended.
func (in *Input) Wait() {
	in.mu.Lock()
	done := in.done
	in.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (in *Input) listen(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer close(done)
	defer cancel()

	in.notify(true)
	results, err := in.rec.Recognize(ctx, RecognizeOptions{Continuous: false, InterimResults: false})
	switch {
	case err != nil && ctx.Err() == nil:
		logger.L.Warn("speech recognition failed", "error", err)
	case err == nil:
		if text, ok := firstFinal(results); ok && in.onTranscript != nil {
			in.onTranscript(text)
		}
	}

	in.mu.Lock()
	if err := in.fsm.Fire(TriggerEnd); err != nil {
		logger.L.Warn("voice session fire error", "error", err)
	}
	in.cancel = nil
	in.mu.Unlock()
	in.notify(false)
}

func (in *Input) notify(listening bool) {
	if in.onChange != nil {
		in.onChange(listening)
	}
}

// firstFinal picks the first alternative of the first final result.
func firstFinal(results []Result) (string, bool) {
	for _, r := range results {
		if r.Final && len(r.Alternatives) > 0 {
			return r.Alternatives[0], true
		}
	}
	return "", false
}
