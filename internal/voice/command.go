package voice

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Natural settings of the espeak family, scaled by Utterance pitch and rate.
const (
	espeakPitch = 50
	espeakSpeed = 175
	sayRate     = 175
)

// CommandSynthesizer speaks by running an external TTS program such as
// espeak or say. Arguments may reference {text}, {pitch} and {rate}; when
// {text} is absent the text is appended as the last argument.
type CommandSynthesizer struct {
	argv []string

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewCommandSynthesizer returns nil when argv is empty or its program is
// not on PATH, so callers can treat the capability as absent.
func NewCommandSynthesizer(argv []string) *CommandSynthesizer {
	if len(argv) == 0 {
		return nil
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil
	}
	return &CommandSynthesizer{argv: argv}
}

// Args builds the command line for u.
func (s *CommandSynthesizer) Args(u Utterance) []string {
	args := append([]string(nil), s.argv[1:]...)
	switch filepath.Base(s.argv[0]) {
	case "espeak", "espeak-ng":
		args = append(args,
			"-p", strconv.Itoa(scale(espeakPitch, u.Pitch)),
			"-s", strconv.Itoa(scale(espeakSpeed, u.Rate)))
	case "say":
		args = append(args, "-r", strconv.Itoa(scale(sayRate, u.Rate)))
	}

	r := strings.NewReplacer(
		"{text}", u.Text,
		"{pitch}", strconv.FormatFloat(u.Pitch, 'f', -1, 64),
		"{rate}", strconv.FormatFloat(u.Rate, 'f', -1, 64),
	)
	hasText := false
	for i, a := range args {
		if strings.Contains(a, "{text}") {
			hasText = true
		}
		args[i] = r.Replace(a)
	}
	if !hasText {
		args = append(args, u.Text)
	}
	return args
}

// Speak starts playback and returns without waiting for it to finish.
func (s *CommandSynthesizer) Speak(ctx context.Context, u Utterance) error {
	cmd := exec.CommandContext(ctx, s.argv[0], s.Args(u)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", s.argv[0], err)
	}
	s.mu.Lock()
	s.cmd = cmd
	s.mu.Unlock()

	go func() {
		cmd.Wait()
		s.mu.Lock()
		if s.cmd == cmd {
			s.cmd = nil
		}
		s.mu.Unlock()
	}()
	return nil
}

// Cancel kills the utterance in progress.
func (s *CommandSynthesizer) Cancel() {
	s.mu.Lock()
	cmd := s.cmd
	s.cmd = nil
	s.mu.Unlock()
	if cmd != nil && cmd.Process != nil {
		cmd.Process.Kill()
	}
}

func scale(base int, factor float64) int {
	if factor <= 0 {
		return base
	}
	return int(math.Round(float64(base) * factor))
}

// CommandRecognizer listens by running an external speech-to-text program
// that prints its transcript on stdout, one alternative per line.
type CommandRecognizer struct {
	argv []string
}

// NewCommandRecognizer returns nil when argv is empty or its program is not
// on PATH.
func NewCommandRecognizer(argv []string) *CommandRecognizer {
	if len(argv) == 0 {
		return nil
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil
	}
	return &CommandRecognizer{argv: argv}
}

// Recognize runs the program once. Only final results are produced, so
// interim and continuous options have no effect.
func (r *CommandRecognizer) Recognize(ctx context.Context, _ RecognizeOptions) ([]Result, error) {
	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, r.argv[0], r.argv[1:]...)
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("run %s: %w", r.argv[0], err)
	}

	var alts []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			alts = append(alts, line)
		}
	}
	if len(alts) == 0 {
		return nil, nil
	}
	return []Result{{Alternatives: alts, Final: true}}, nil
}
