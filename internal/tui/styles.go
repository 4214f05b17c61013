package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/comigor/damon-go/internal/landing"
	"github.com/comigor/damon-go/internal/render"
)

const (
	neonRed   = "#ff003c"
	bloodRed  = "#880000"
	ashGrey   = "#aaaaaa"
	smokeGrey = "#666666"
	bone      = "#f2f2f2"
	night     = "#000000"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(neonRed)).
			Padding(0, 1)

	sidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color(bloodRed)).
			Padding(0, 1)

	historyItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(ashGrey))

	historyCursorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(bone)).
				Underline(true)

	historySelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(bone)).
				Background(lipgloss.Color("#3d000e"))

	userRoleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("238")).
			Padding(0, 1)

	damonRoleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color(bloodRed)).
			Padding(0, 1)

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			PaddingLeft(1)

	transientStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(smokeGrey)).
			Italic(true).
			PaddingLeft(1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(neonRed)).
			Bold(true)

	inactiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(smokeGrey))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(bloodRed)).
			Bold(true)
)

// backgroundPalette colours the particle field.
var backgroundPalette = render.Palette{
	render.InkFar:  lipgloss.NewStyle().Foreground(lipgloss.Color("#7a001d")),
	render.InkNear: lipgloss.NewStyle().Foreground(lipgloss.Color(neonRed)),
	render.InkCore: lipgloss.NewStyle().Foreground(lipgloss.Color(bloodRed)),
	render.InkWire: lipgloss.NewStyle().Foreground(lipgloss.Color(neonRed)),
}

// landingPalette extends the background with hero text faded in by opacity.
func landingPalette(els []landing.Element) render.Palette {
	p := render.Palette{}
	for ink, st := range backgroundPalette {
		p[ink] = st
	}
	colors := []string{neonRed, ashGrey, bone}
	inks := []render.Ink{render.InkAccent, render.InkMuted, render.InkText}
	for i, e := range els {
		if i >= len(inks) {
			break
		}
		st := lipgloss.NewStyle().Foreground(lipgloss.Color(landing.Fade(night, colors[i], e.Opacity)))
		if i == 0 {
			st = st.Bold(true)
		}
		p[inks[i]] = st
	}
	return p
}
