// Package tui is the terminal front-end: a landing screen over the animated
// background and a chat screen with transcript, history sidebar, upload
// picker and voice controls.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/comigor/damon-go/internal/chat"
	"github.com/comigor/damon-go/internal/landing"
	"github.com/comigor/damon-go/internal/render"
	"github.com/comigor/damon-go/internal/voice"
)

// Options configures the root model.
type Options struct {
	Context    context.Context
	Controller *chat.Controller
	Mic        *voice.Input
	Selector   *DocSelector
	Page       landing.Page
	FPS        int
	Particles  int
	Seed       uint64
}

// Model is the root Bubble Tea model.
type Model struct {
	page    landing.Page
	scene   *render.Scene
	landing *landing.Controller
	chat    chatPage
	keys    keyMap

	fps     int
	start   time.Time
	width   int
	height  int
	quitted bool
}

// New builds the root model for the requested page.
func New(opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.Page == "" {
		opts.Page = landing.PageLanding
	}
	m := Model{
		page: opts.Page,
		scene: render.NewScene(render.Options{
			Particles: opts.Particles,
			Seed:      opts.Seed,
			Landing:   opts.Page == landing.PageLanding,
		}),
		landing: landing.New(opts.FPS),
		chat:    newChatPage(opts.Context, opts.Controller, opts.Mic, opts.Selector),
		keys:    newKeyMap(),
		fps:     opts.FPS,
		start:   time.Now(),
		width:   80,
		height:  24,
	}
	if m.page == landing.PageChat {
		m.chat, _ = m.chat.init()
	}
	m.layout()
	return m
}

// Page returns the active page.
func (m Model) Page() landing.Page { return m.page }

func (m Model) Init() tea.Cmd {
	if m.page == landing.PageChat {
		return tea.Batch(frameTick(m.fps), textinput.Blink)
	}
	return frameTick(m.fps)
}

func (m *Model) layout() {
	if m.page == landing.PageLanding {
		m.scene.Resize(m.width, m.height)
		return
	}
	m.scene.Resize(m.width, bandHeight)
	m.chat.resize(m.width, m.height)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		if m.page == landing.PageChat {
			var cmd tea.Cmd
			m.chat, cmd = m.chat.update(msg)
			return m, cmd
		}
		return m, nil

	case frameMsg:
		m.scene.Step(time.Time(msg).Sub(m.start))
		if m.page == landing.PageLanding {
			m.landing.Tick()
		} else {
			m.chat.refresh()
		}
		return m, frameTick(m.fps)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitted = true
			m.chat.mic.Cancel()
			return m, tea.Quit
		}
		if m.page == landing.PageLanding {
			if msg.Type == tea.KeyEnter || msg.Type == tea.KeySpace {
				return m.navigate(m.landing.Start())
			}
			return m, nil
		}
	}

	if m.page != landing.PageChat {
		return m, nil
	}
	var cmd tea.Cmd
	m.chat, cmd = m.chat.update(msg)
	return m, cmd
}

func (m Model) navigate(to landing.Page) (tea.Model, tea.Cmd) {
	if to == m.page {
		return m, nil
	}
	m.page = to
	m.scene.SetLanding(to == landing.PageLanding)
	var cmd tea.Cmd
	if to == landing.PageChat {
		m.chat, cmd = m.chat.init()
	}
	m.layout()
	return m, cmd
}

func (m Model) View() string {
	if m.quitted {
		return ""
	}
	if m.page == landing.PageLanding {
		return m.landingView()
	}
	return m.chat.view(m.backgroundView(m.width, bandHeight))
}

func (m Model) backgroundView(w, h int) string {
	c := render.NewCanvas(w, h)
	m.scene.Draw(c)
	return c.String(backgroundPalette)
}

func (m Model) landingView() string {
	c := render.NewCanvas(m.width, m.height)
	m.scene.Draw(c)

	els := m.landing.Elements()
	rows := []int{m.height/2 - 3, m.height/2 - 1, m.height/2 + 2}
	inks := []render.Ink{render.InkAccent, render.InkMuted, render.InkText}
	for i, e := range els {
		if i >= len(rows) || !e.Started(m.landing.Elapsed()) || e.Opacity < 0.05 {
			continue
		}
		c.CenterText(rows[i]+e.Row(), e.Text, inks[i])
	}
	return c.String(landingPalette(els))
}
