// Package landing animates the hero elements of the landing screen: each
// one rises into place and fades in after its own delay, driven by a
// critically damped spring.
package landing

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/harmonica"
	"github.com/lucasb-eyer/go-colorful"
)

// Page names a screen of the application.
type Page string

const (
	PageLanding Page = "landing"
	PageChat    Page = "chat"
)

// ParsePage validates a page name.
func ParsePage(s string) (Page, error) {
	switch p := Page(strings.ToLower(strings.TrimSpace(s))); p {
	case PageLanding, PageChat:
		return p, nil
	case "":
		return PageLanding, nil
	default:
		return "", fmt.Errorf("unknown page %q (want landing or chat)", s)
	}
}

// Hero texts.
const (
	TitleText    = "D A M O N"
	SubtitleText = "Keeper of scrolls. Drinker of knowledge."
	StartText    = "[ Enter the crypt ]"
)

const (
	angularFrequency = 6.0
	dampingRatio     = 1.0
	settleEpsilon    = 0.01
)

// Element is one animated hero element.
type Element struct {
	Text    string
	Delay   time.Duration
	Offset  float64 // rows below the resting position
	Opacity float64 // 0 transparent, 1 opaque

	vel   float64
	opVel float64
}

// Started reports whether the element's delay has passed at elapsed.
func (e Element) Started(elapsed time.Duration) bool {
	return elapsed >= e.Delay
}

// Row returns the element's current row offset, rounded to whole cells.
func (e Element) Row() int {
	return int(math.Round(e.Offset))
}

// Controller drives the landing entrance.
type Controller struct {
	spring   harmonica.Spring
	elements []Element
	elapsed  time.Duration
	frame    time.Duration
}

// New returns a Controller stepping at fps frames per second.
func New(fps int) *Controller {
	if fps <= 0 {
		fps = 30
	}
	return &Controller{
		spring: harmonica.NewSpring(harmonica.FPS(fps), angularFrequency, dampingRatio),
		frame:  time.Second / time.Duration(fps),
		elements: []Element{
			{Text: TitleText, Delay: 200 * time.Millisecond, Offset: 3},
			{Text: SubtitleText, Delay: 500 * time.Millisecond, Offset: 2},
			{Text: StartText, Delay: time.Second, Offset: 1},
		},
	}
}

// Tick advances the animation by one frame.
func (c *Controller) Tick() {
	c.elapsed += c.frame
	for i := range c.elements {
		e := &c.elements[i]
		if !e.Started(c.elapsed) {
			continue
		}
		e.Offset, e.vel = c.spring.Update(e.Offset, e.vel, 0)
		e.Opacity, e.opVel = c.spring.Update(e.Opacity, e.opVel, 1)
		e.Opacity = min(max(e.Opacity, 0), 1)
	}
}

// Elapsed returns the animation time so far.
func (c *Controller) Elapsed() time.Duration { return c.elapsed }

// Elements returns a snapshot of the hero elements: title, subtitle, start.
func (c *Controller) Elements() []Element {
	return append([]Element(nil), c.elements...)
}

// Settled reports whether every element has reached its resting state.
func (c *Controller) Settled() bool {
	for _, e := range c.elements {
		if math.Abs(e.Offset) > settleEpsilon || math.Abs(1-e.Opacity) > settleEpsilon {
			return false
		}
	}
	return true
}

// Start is the start control: it always leads to the chat page.
func (c *Controller) Start() Page {
	return PageChat
}

// Fade blends from the background colour towards fg by opacity and returns
// the result as a hex colour. Unparseable inputs return fg unchanged.
func Fade(bg, fg string, opacity float64) string {
	from, err := colorful.Hex(bg)
	if err != nil {
		return fg
	}
	to, err := colorful.Hex(fg)
	if err != nil {
		return fg
	}
	switch {
	case opacity <= 0:
		return from.Hex()
	case opacity >= 1:
		return to.Hex()
	}
	return from.BlendLab(to, opacity).Clamped().Hex()
}
