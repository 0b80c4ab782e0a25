package behavior

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/mobmind/agent"
	"github.com/milk9111/mobmind/goal"
)

const (
	defaultLookInterval = 40
	lookAheadDistance   = 64.0
)

// LookAroundParams configures a LookAround goal. Duration zero keeps
// glancing until preempted.
type LookAroundParams struct {
	ID            string
	IntervalTicks int
	Duration      int
	Rand          *rand.Rand
	Cooldown      int
}

// LookAround idly turns the agent's gaze to a random bearing every
// IntervalTicks. It claims only the look channel, so it layers under
// any movement goal as low-priority filler.
type LookAround struct {
	goal.Base
	id   string
	self agent.ControlledEntity
	p    LookAroundParams

	sinceTurn int
	elapsed   int
}

func NewLookAround(self agent.ControlledEntity, p LookAroundParams) (*LookAround, error) {
	if self == nil {
		return nil, fmt.Errorf("behavior: look_around: nil entity")
	}
	if p.ID == "" {
		p.ID = "look_around"
	}
	if p.IntervalTicks < 0 || p.Duration < 0 {
		return nil, fmt.Errorf("behavior: look_around %s: negative param", p.ID)
	}
	if p.IntervalTicks == 0 {
		p.IntervalTicks = defaultLookInterval
	}
	return &LookAround{id: p.ID, self: self, p: p}, nil
}

func (g *LookAround) ID() string        { return g.id }
func (g *LookAround) Flags() goal.Flags { return goal.FlagLook }
func (g *LookAround) Cooldown() int     { return g.p.Cooldown }

func (g *LookAround) CanStart() bool { return g.self.Valid() }

func (g *LookAround) Start() {
	g.sinceTurn = 0
	g.elapsed = 0
}

func (g *LookAround) Tick() goal.Result {
	g.sinceTurn--
	if g.sinceTurn <= 0 {
		g.sinceTurn = g.p.IntervalTicks
		angle := g.float() * 2 * math.Pi
		dir := cp.Vector{X: math.Cos(angle), Y: math.Sin(angle)}
		g.self.LookAt(g.self.Location().Pos.Add(dir.Mult(lookAheadDistance)))
	}
	if g.p.Duration > 0 {
		g.elapsed++
		if g.elapsed >= g.p.Duration {
			return goal.Succeed("done looking")
		}
	}
	return goal.Running()
}

func (g *LookAround) Reset() {
	g.sinceTurn = 0
	g.elapsed = 0
}

func (g *LookAround) float() float64 {
	if g.p.Rand != nil {
		return g.p.Rand.Float64()
	}
	return rand.Float64()
}
