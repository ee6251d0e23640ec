package app

import (
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
)

const pulseFPS = 30

type pulseTickMsg struct{}

// pulse is a damped spring kicked on every publish. Its position decays
// from 1 back to rest and drives the highlight of the descriptor panel.
type pulse struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
	active bool
}

func newPulse() pulse {
	return pulse{spring: harmonica.NewSpring(harmonica.FPS(pulseFPS), 8.0, 0.4)}
}

// kick restarts the animation. It returns a tick command when the pulse
// was at rest; a running pulse already has a tick in flight.
func (p *pulse) kick() tea.Cmd {
	p.pos = 1
	p.vel = 0
	if p.active {
		return nil
	}
	p.active = true
	return pulseTick()
}

// step advances one frame and reports whether the pulse is still moving.
func (p *pulse) step() bool {
	p.pos, p.vel = p.spring.Update(p.pos, p.vel, 0)
	if math.Abs(p.pos) < 0.01 && math.Abs(p.vel) < 0.01 {
		p.pos, p.vel = 0, 0
		p.active = false
	}
	return p.active
}

// intensity is the absolute displacement clamped to [0, 1].
func (p pulse) intensity() float64 {
	return math.Min(1, math.Abs(p.pos))
}

func pulseTick() tea.Cmd {
	return tea.Tick(time.Second/pulseFPS, func(time.Time) tea.Msg {
		return pulseTickMsg{}
	})
}
