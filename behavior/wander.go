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
	defaultWanderRadius    = 160.0
	defaultWanderSpeed     = 1.0
	defaultWanderPathTries = 6
)

// WanderParams configures a Wander goal. Zero-valued fields take the
// package defaults. Anchor nil re-anchors to wherever the agent stands
// at each activation.
type WanderParams struct {
	ID           string
	Radius       float64
	Speed        float64
	MaxPathTries int
	Anchor       *agent.Location
	Rand         *rand.Rand
	Cooldown     int
	MaxDuration  int
}

// Wander strolls to a random point within Radius of the anchor and
// succeeds on arrival. Unreachable picks are retried with fresh points,
// one attempt per tick, failing after MaxPathTries.
type Wander struct {
	goal.Base
	id     string
	self   agent.Entity
	nav    agent.Navigator
	p      WanderParams
	anchor agent.Location
	tries  int
	moving bool
}

func NewWander(self agent.Entity, nav agent.Navigator, p WanderParams) (*Wander, error) {
	if self == nil {
		return nil, fmt.Errorf("behavior: wander: nil entity")
	}
	if nav == nil {
		return nil, fmt.Errorf("behavior: wander: nil navigator")
	}
	if p.ID == "" {
		p.ID = "wander"
	}
	if p.Radius < 0 || p.Speed < 0 || p.MaxPathTries < 0 {
		return nil, fmt.Errorf("behavior: wander %s: negative param", p.ID)
	}
	if p.Radius == 0 {
		p.Radius = defaultWanderRadius
	}
	if p.Speed == 0 {
		p.Speed = defaultWanderSpeed
	}
	if p.MaxPathTries == 0 {
		p.MaxPathTries = defaultWanderPathTries
	}
	return &Wander{id: p.ID, self: self, nav: nav, p: p}, nil
}

func (g *Wander) ID() string        { return g.id }
func (g *Wander) Flags() goal.Flags { return goal.FlagMovement }
func (g *Wander) Cooldown() int     { return g.p.Cooldown }
func (g *Wander) MaxDuration() int  { return g.p.MaxDuration }

func (g *Wander) CanStart() bool { return g.self.Valid() }

func (g *Wander) Start() {
	g.tries = 0
	g.moving = false
	if g.p.Anchor != nil {
		g.anchor = *g.p.Anchor
	} else {
		g.anchor = g.self.Location()
	}
}

func (g *Wander) Tick() goal.Result {
	if !g.moving {
		if g.tries >= g.p.MaxPathTries {
			return goal.Fail("no reachable point")
		}
		g.tries++
		if g.nav.PathTo(g.pickPoint(), g.p.Speed) == agent.PathFailed {
			return goal.Running()
		}
		g.moving = true
		return goal.Running()
	}
	if !g.nav.IsMoving() {
		return goal.Succeed("arrived")
	}
	return goal.Running()
}

func (g *Wander) Stop(goal.Result) { g.nav.Stop() }

func (g *Wander) Reset() {
	g.tries = 0
	g.moving = false
}

// pickPoint samples a uniformly distributed point on the anchor disc.
func (g *Wander) pickPoint() agent.Location {
	angle := g.float() * 2 * math.Pi
	dist := math.Sqrt(g.float()) * g.p.Radius
	offset := cp.Vector{X: math.Cos(angle), Y: math.Sin(angle)}.Mult(dist)
	return agent.Location{Pos: g.anchor.Pos.Add(offset), World: g.anchor.World}
}

func (g *Wander) float() float64 {
	if g.p.Rand != nil {
		return g.p.Rand.Float64()
	}
	return rand.Float64()
}
