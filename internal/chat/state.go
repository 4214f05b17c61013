package chat

import "sync"

// State is the mutable application state of one page session.
type State struct {
	mu           sync.Mutex
	voiceEnabled bool
}

// NewState returns the session state with voice output on or off.
func NewState(voiceEnabled bool) *State {
	return &State{voiceEnabled: voiceEnabled}
}

// VoiceEnabled reports whether replies should be narrated.
func (s *State) VoiceEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voiceEnabled
}

// SetVoiceEnabled turns narration on or off.
func (s *State) SetVoiceEnabled(on bool) {
	s.mu.Lock()
	s.voiceEnabled = on
	s.mu.Unlock()
}

// ToggleVoice flips narration and returns the new value.
func (s *State) ToggleVoice() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voiceEnabled = !s.voiceEnabled
	return s.voiceEnabled
}
