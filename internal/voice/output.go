package voice

import (
	"context"

	"github.com/comigor/damon-go/internal/logger"
)

// Utterance is one piece of synthesized speech.
type Utterance struct {
	Text  string
	Pitch float64 // 1.0 is the synthesizer's natural pitch
	Rate  float64 // 1.0 is the synthesizer's natural speed
}

// Synthesizer is the platform text-to-speech capability. Speak must not
// block until playback ends; Cancel silences whatever is playing.
type Synthesizer interface {
	Speak(ctx context.Context, u Utterance) error
	Cancel()
}

// Persona voice defaults: lowered pitch, slightly slowed rate.
const (
	DefaultPitch = 0.6
	DefaultRate  = 0.9
)

// Speaker narrates replies in the persona voice, one utterance at a time.
type Speaker struct {
	synth Synthesizer
	pitch float64
	rate  float64
}

// NewSpeaker returns a Speaker. A nil synth turns Speak into a no-op, as does
// a zero pitch or rate falling back to the persona defaults.
func NewSpeaker(synth Synthesizer, pitch, rate float64) *Speaker {
	if pitch <= 0 {
		pitch = DefaultPitch
	}
	if rate <= 0 {
		rate = DefaultRate
	}
	return &Speaker{synth: synth, pitch: pitch, rate: rate}
}

// Available reports whether speech output is possible at all.
func (s *Speaker) Available() bool {
	return s != nil && s.synth != nil
}

// Speak cancels any utterance in progress, then speaks text.
func (s *Speaker) Speak(text string) {
	if !s.Available() || text == "" {
		return
	}
	s.synth.Cancel()
	err := s.synth.Speak(context.Background(), Utterance{Text: text, Pitch: s.pitch, Rate: s.rate})
	if err != nil {
		logger.L.Warn("speech synthesis failed", "error", err)
	}
}

// Stop silences the current utterance, if any.
func (s *Speaker) Stop() {
	if s.Available() {
		s.synth.Cancel()
	}
}
