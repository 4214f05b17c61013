package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/comigor/damon-go/internal/chat"
	"github.com/comigor/damon-go/internal/logger"
	"github.com/comigor/damon-go/internal/transcript"
	"github.com/comigor/damon-go/internal/voice"
)

type focus int

const (
	focusInput focus = iota
	focusHistory
	focusPicker
)

const (
	sidebarWidth = 30
	bandHeight   = 5
)

type chatPage struct {
	ctx      context.Context
	ctrl     *chat.Controller
	mic      *voice.Input
	selector *DocSelector

	input    textinput.Model
	viewport viewport.Model
	picker   filepicker.Model
	help     help.Model
	keys     keyMap

	focus     focus
	cursor    int
	version   uint64
	pending   int
	listening bool
	failure   string
	width     int
	height    int
	loaded    bool
}

func newChatPage(ctx context.Context, ctrl *chat.Controller, mic *voice.Input, sel *DocSelector) chatPage {
	in := textinput.New()
	in.Placeholder = "Ask Damon..."
	in.Prompt = "❯ "
	in.CharLimit = 0
	in.Focus()

	fp := filepicker.New()
	if home, err := os.UserHomeDir(); err == nil {
		fp.CurrentDirectory = home
	}

	vp := viewport.New(80, 10)
	vp.KeyMap = viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
	}

	keys := newKeyMap()
	keys.Mic.SetEnabled(mic.Available())

	return chatPage{
		ctx:      ctx,
		ctrl:     ctrl,
		mic:      mic,
		selector: sel,
		input:    in,
		viewport: vp,
		picker:   fp,
		help:     help.New(),
		keys:     keys,
		version:  ^uint64(0),
	}
}

// init wires the page on first display: the history is read from storage.
func (p chatPage) init() (chatPage, tea.Cmd) {
	if !p.loaded {
		p.ctrl.LoadHistory()
		p.loaded = true
	}
	p.refresh()
	return p, textinput.Blink
}

func (p *chatPage) resize(w, h int) {
	p.width, p.height = w, h
	p.input.Width = max(w-4, 10)
	p.help.Width = w
	p.viewport.Width = max(w-sidebarWidth-1, 20)
	p.viewport.Height = max(h-bandHeight-4, 3)
	p.version = ^uint64(0)
	p.refresh()
}

// refresh rebuilds the transcript view when it changed.
func (p *chatPage) refresh() {
	v := p.ctrl.Transcript().Version()
	if v == p.version {
		return
	}
	p.version = v
	p.viewport.SetContent(renderTranscript(p.ctrl.Transcript().Messages(), p.viewport.Width))
	p.viewport.GotoBottom()
}

func (p chatPage) update(msg tea.Msg) (chatPage, tea.Cmd) {
	switch msg := msg.(type) {
	case replyDoneMsg:
		p.pending--
		p.refresh()
		return p, nil

	case uploadDoneMsg:
		p.pending--
		p.failure = ""
		if msg.err != nil {
			p.failure = "archive not saved: " + msg.err.Error()
		}
		p.refresh()
		return p, nil

	case DictationMsg:
		p.input.SetValue(msg.Text)
		p.input.CursorEnd()
		return p, nil

	case ListeningMsg:
		p.listening = msg.Listening
		return p, nil

	case tea.KeyMsg:
		if p.focus == focusPicker {
			return p.updatePicker(msg)
		}
		switch {
		case key.Matches(msg, p.keys.NewChat):
			p.ctrl.NewChat()
			p.refresh()
			return p, nil
		case key.Matches(msg, p.keys.Voice):
			p.ctrl.ToggleVoice()
			return p, nil
		case key.Matches(msg, p.keys.Mic):
			if err := p.mic.Toggle(); err != nil {
				logger.L.Debug("dictation toggle failed", "error", err)
			}
			return p, nil
		case key.Matches(msg, p.keys.Upload):
			p.focus = focusPicker
			p.input.Blur()
			return p, p.picker.Init()
		case key.Matches(msg, p.keys.SwitchTab):
			p.toggleHistoryFocus()
			return p, nil
		}
		if p.focus == focusHistory {
			return p.updateHistory(msg)
		}
		if key.Matches(msg, p.keys.Send) {
			return p.send()
		}
	}

	if p.focus == focusPicker {
		var cmd tea.Cmd
		p.picker, cmd = p.picker.Update(msg)
		return p, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	cmds = append(cmds, cmd)
	p.viewport, cmd = p.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return p, tea.Batch(cmds...)
}

func (p *chatPage) toggleHistoryFocus() {
	if p.focus == focusHistory {
		p.focus = focusInput
		p.input.Focus()
		return
	}
	p.focus = focusHistory
	p.input.Blur()
	p.cursor = min(p.cursor, max(p.ctrl.History().Len()-1, 0))
}

func (p chatPage) send() (chatPage, tea.Cmd) {
	text := p.input.Value()
	if strings.TrimSpace(text) == "" {
		return p, nil
	}
	p.input.Reset()
	p.pending++
	ctx, ctrl := p.ctx, p.ctrl
	return p, func() tea.Msg {
		ctrl.SendMessage(ctx, text)
		return replyDoneMsg{}
	}
}

func (p chatPage) updateHistory(msg tea.KeyMsg) (chatPage, tea.Cmd) {
	entries := p.ctrl.History().Entries()
	switch {
	case key.Matches(msg, p.keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, p.keys.Down):
		if p.cursor < len(entries)-1 {
			p.cursor++
		}
	case key.Matches(msg, p.keys.Send):
		if p.cursor < len(entries) {
			p.ctrl.Focus(entries[p.cursor].Filename)
			p.refresh()
		}
	case key.Matches(msg, p.keys.Cancel):
		p.toggleHistoryFocus()
	}
	return p, nil
}

func (p chatPage) updatePicker(msg tea.KeyMsg) (chatPage, tea.Cmd) {
	if key.Matches(msg, p.keys.Cancel) || key.Matches(msg, p.keys.Upload) {
		p.focus = focusInput
		p.input.Focus()
		return p, nil
	}
	var cmd tea.Cmd
	p.picker, cmd = p.picker.Update(msg)
	if ok, path := p.picker.DidSelectFile(msg); ok {
		p.focus = focusInput
		p.input.Focus()
		p.pending++
		ctx, ctrl := p.ctx, p.ctrl
		upload := func() tea.Msg {
			err := ctrl.UploadPath(ctx, path)
			if err != nil {
				logger.L.Error("upload bookkeeping failed", "path", path, "error", err)
			}
			return uploadDoneMsg{err: err}
		}
		return p, tea.Batch(cmd, upload)
	}
	return p, cmd
}

func (p chatPage) view(band string) string {
	var main string
	if p.focus == focusPicker {
		main = lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Choose a scroll to offer"),
			p.offeredView(),
			p.picker.View())
	} else {
		main = p.viewport.View()
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(p.viewport.Width).Render(main),
		p.sidebarView())

	return lipgloss.JoinVertical(lipgloss.Left,
		band,
		body,
		p.statusView(),
		p.input.View(),
		p.help.View(p.keys),
	)
}

func (p chatPage) sidebarView() string {
	lines := []string{titleStyle.Render("Archive")}
	entries := p.ctrl.History().Entries()
	if len(entries) == 0 {
		lines = append(lines, dimStyle.Render("no scrolls yet"))
	}
	for i, e := range entries {
		st := historyItemStyle
		if e.Highlighted {
			st = historySelectedStyle
		}
		if p.focus == focusHistory && i == p.cursor {
			st = st.Inherit(historyCursorStyle)
		}
		lines = append(lines, st.Render(truncate(e.Label(), sidebarWidth-3)))
	}
	return sidebarStyle.Width(sidebarWidth).Height(p.viewport.Height).Render(strings.Join(lines, "\n"))
}

func (p chatPage) statusView() string {
	voiceLabel := inactiveStyle.Render("voice off")
	if p.ctrl.State().VoiceEnabled() {
		voiceLabel = activeStyle.Render("voice on")
	}
	parts := []string{voiceLabel}
	if p.mic.Available() {
		if p.listening || p.mic.Listening() {
			parts = append(parts, activeStyle.Render("● listening"))
		} else {
			parts = append(parts, inactiveStyle.Render("mic idle"))
		}
	}
	if doc := p.selector.Value(); doc != "" {
		parts = append(parts, fmt.Sprintf("scroll: %s", doc))
	}
	if p.failure != "" {
		parts = append(parts, errorStyle.Render(p.failure))
	}
	if p.pending > 0 {
		parts = append(parts, dimStyle.Render(fmt.Sprintf("%d awaiting", p.pending)))
	}
	return statusBarStyle.Width(max(p.width, 1)).Render(strings.Join(parts, "  │  "))
}

func renderTranscript(msgs []transcript.Message, width int) string {
	if len(msgs) == 0 {
		return dimStyle.Render("The crypt is quiet.")
	}
	body := lipgloss.NewStyle().Width(max(width-2, 10))
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch {
		case m.Sender == transcript.SenderUser:
			b.WriteString(userRoleStyle.Render("You"))
		default:
			b.WriteString(damonRoleStyle.Render("Damon"))
		}
		b.WriteByte('\n')
		st := messageStyle
		if m.Transient {
			st = transientStyle
		}
		b.WriteString(st.Inherit(body).Render(m.Text))
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:max(n-1, 0)]) + "…"
}

// offeredView lists the documents already offered this session.
func (p chatPage) offeredView() string {
	opts := p.selector.Options()
	if len(opts) == 0 {
		return dimStyle.Render("nothing offered yet")
	}
	return dimStyle.Render(truncate("offered: "+strings.Join(opts, ", "), max(p.viewport.Width, 10)))
}
