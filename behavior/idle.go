package behavior

import (
	"fmt"

	"github.com/milk9111/mobmind/agent"
	"github.com/milk9111/mobmind/goal"
)

// IdleParams configures an Idle goal. Duration zero idles until
// something preempts it.
type IdleParams struct {
	ID          string
	Duration    int
	Cooldown    int
	MaxDuration int
}

// Idle claims the movement channel and does nothing with it: the
// navigator halts on start and the agent stands still. Registered at
// the worst priority it makes a clean fallback that any other movement
// goal preempts.
type Idle struct {
	goal.Base
	id      string
	nav     agent.Navigator
	p       IdleParams
	elapsed int
}

func NewIdle(nav agent.Navigator, p IdleParams) (*Idle, error) {
	if nav == nil {
		return nil, fmt.Errorf("behavior: idle: nil navigator")
	}
	if p.ID == "" {
		p.ID = "idle"
	}
	if p.Duration < 0 {
		return nil, fmt.Errorf("behavior: idle %s: negative duration %d", p.ID, p.Duration)
	}
	return &Idle{id: p.ID, nav: nav, p: p}, nil
}

func (g *Idle) ID() string        { return g.id }
func (g *Idle) Flags() goal.Flags { return goal.FlagMovement }
func (g *Idle) Cooldown() int     { return g.p.Cooldown }
func (g *Idle) MaxDuration() int  { return g.p.MaxDuration }

func (g *Idle) Start() {
	g.elapsed = 0
	g.nav.Stop()
}

func (g *Idle) Tick() goal.Result {
	if g.p.Duration == 0 {
		return goal.Running()
	}
	g.elapsed++
	if g.elapsed >= g.p.Duration {
		return goal.Succeed("rested")
	}
	return goal.Running()
}

func (g *Idle) Reset() { g.elapsed = 0 }
