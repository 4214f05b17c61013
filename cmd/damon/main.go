package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/comigor/damon-go/internal/chat"
	"github.com/comigor/damon-go/internal/config"
	"github.com/comigor/damon-go/internal/history"
	"github.com/comigor/damon-go/internal/landing"
	"github.com/comigor/damon-go/internal/logger"
	"github.com/comigor/damon-go/internal/transcript"
	"github.com/comigor/damon-go/internal/tui"
	"github.com/comigor/damon-go/internal/voice"
	"github.com/comigor/damon-go/pkg/damonapi"
)

func main() {
	flags := pflag.NewFlagSet("damon", pflag.ExitOnError)
	page := flags.String("page", "landing", "page to open: landing or chat")
	mute := flags.Bool("mute", false, "start with voice output disabled")
	flags.String("base-url", "", "Damon service base URL")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("db", "", "path of the history database")
	flags.Parse(os.Args[1:])

	if err := run(*page, *mute, flags); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(pageName string, mute bool, flags *pflag.FlagSet) error {
	startPage, err := landing.ParsePage(pageName)
	if err != nil {
		return err
	}

	// Load configuration
	cfg, err := config.Load(flags)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logFile := openLog(cfg.Log.File)
	defer logFile.Close()
	logger.SetOutput(logFile)
	logger.SetLevel(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Durable history
	storage := history.NewSQLiteStorage(cfg.Storage.Path)
	defer storage.Close()
	store := history.NewStore(storage, cfg.Storage.Key)

	// Platform capabilities; absent programs leave the interfaces nil.
	var synth voice.Synthesizer
	if s := voice.NewCommandSynthesizer(cfg.Voice.Synthesizer); s != nil {
		synth = s
	}
	var rec voice.Recognizer
	if r := voice.NewCommandRecognizer(cfg.Voice.Recognizer); r != nil {
		rec = r
	}
	speaker := voice.NewSpeaker(synth, cfg.Voice.Pitch, cfg.Voice.Rate)
	defer speaker.Stop()

	bridge := tui.NewBridge()
	mic := voice.NewInput(rec, bridge.Dictated, bridge.Listening)
	defer mic.Stop()
	selector := tui.NewDocSelector()

	ctrl := chat.New(
		damonapi.NewClient(cfg.API.BaseURL, cfg.API.Timeout),
		transcript.New(),
		store,
		chat.NewState(cfg.Voice.Enabled && !mute),
		chat.WithSpeaker(speaker),
		chat.WithSelector(selector),
	)

	logger.L.Info("starting damon",
		"page", startPage,
		"base_url", cfg.API.BaseURL,
		"speech_output", speaker.Available(),
		"speech_input", mic.Available())

	model := tui.New(tui.Options{
		Context:    ctx,
		Controller: ctrl,
		Mic:        mic,
		Selector:   selector,
		Page:       startPage,
		FPS:        cfg.Render.FPS,
		Particles:  cfg.Render.Particles,
		Seed:       uint64(time.Now().UnixNano()),
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.Attach(p)

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// openLog opens the log file, falling back to discarding output.
func openLog(path string) io.WriteCloser {
	if path == "" {
		return nopCloser{io.Discard}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nopCloser{io.Discard}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nopCloser{io.Discard}
	}
	return f
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
