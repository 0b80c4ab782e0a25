package behavior

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/mobmind/agent"
	"github.com/milk9111/mobmind/goal"
)

const (
	defaultFleeDangerRadius = 220.0
	defaultFleeSafeDistance = 320.0
	defaultFleeSpeed        = 1.6
	defaultFleeProbe        = 120.0
	defaultFleePathTries    = 6
	defaultFleeRepathTicks  = 10
)

// fleeAngles are the bearings tried when the straight-away escape is
// blocked, in radians off the away vector.
var fleeAngles = []float64{0, math.Pi / 4, -math.Pi / 4, math.Pi / 2, -math.Pi / 2}

// FleeParams configures a Flee goal.
type FleeParams struct {
	ID            string
	DangerRadius  float64
	SafeDistance  float64
	Speed         float64
	ProbeDistance float64
	MaxPathTries  int
	RepathTicks   int
	Cooldown      int
	MaxDuration   int
}

// Flee sprints away from the provider's current target. It starts when
// the threat comes inside DangerRadius, repaths along the away vector
// with side-step fallbacks when the straight escape is blocked, and
// succeeds once the threat is beyond SafeDistance. Repeated pathing
// failures mean the agent is cornered.
type Flee struct {
	goal.Base
	id      string
	self    agent.Entity
	nav     agent.Navigator
	targets agent.TargetProvider
	p       FleeParams

	sinceRepath int
	tries       int
}

func NewFlee(self agent.Entity, nav agent.Navigator, targets agent.TargetProvider, p FleeParams) (*Flee, error) {
	if self == nil {
		return nil, fmt.Errorf("behavior: flee: nil entity")
	}
	if nav == nil {
		return nil, fmt.Errorf("behavior: flee: nil navigator")
	}
	if targets == nil {
		return nil, fmt.Errorf("behavior: flee: nil target provider")
	}
	if p.ID == "" {
		p.ID = "flee"
	}
	if p.DangerRadius < 0 || p.SafeDistance < 0 || p.Speed < 0 || p.ProbeDistance < 0 || p.MaxPathTries < 0 || p.RepathTicks < 0 {
		return nil, fmt.Errorf("behavior: flee %s: negative param", p.ID)
	}
	if p.DangerRadius == 0 {
		p.DangerRadius = defaultFleeDangerRadius
	}
	if p.SafeDistance == 0 {
		p.SafeDistance = defaultFleeSafeDistance
	}
	if p.SafeDistance < p.DangerRadius {
		return nil, fmt.Errorf("behavior: flee %s: safe distance %.1f inside danger radius %.1f", p.ID, p.SafeDistance, p.DangerRadius)
	}
	if p.Speed == 0 {
		p.Speed = defaultFleeSpeed
	}
	if p.ProbeDistance == 0 {
		p.ProbeDistance = defaultFleeProbe
	}
	if p.MaxPathTries == 0 {
		p.MaxPathTries = defaultFleePathTries
	}
	if p.RepathTicks == 0 {
		p.RepathTicks = defaultFleeRepathTicks
	}
	return &Flee{id: p.ID, self: self, nav: nav, targets: targets, p: p}, nil
}

func (g *Flee) ID() string        { return g.id }
func (g *Flee) Flags() goal.Flags { return goal.FlagMovement }
func (g *Flee) Cooldown() int     { return g.p.Cooldown }
func (g *Flee) MaxDuration() int  { return g.p.MaxDuration }

func (g *Flee) CanStart() bool {
	threat, ok := g.targets.CurrentTarget()
	if !ok || !g.self.Valid() {
		return false
	}
	loc := g.self.Location()
	tloc := threat.Location()
	return loc.SameWorld(tloc) && loc.Pos.Distance(tloc.Pos) < g.p.DangerRadius
}

func (g *Flee) Start() {
	g.sinceRepath = 0
	g.tries = 0
}

func (g *Flee) Tick() goal.Result {
	threat, ok := g.targets.CurrentTarget()
	if !ok {
		return goal.Succeed("threat gone")
	}
	loc := g.self.Location()
	tloc := threat.Location()
	if !loc.SameWorld(tloc) {
		return goal.Succeed("threat gone")
	}
	if loc.Pos.Distance(tloc.Pos) >= g.p.SafeDistance {
		return goal.Succeed("escaped")
	}

	g.sinceRepath--
	if g.sinceRepath <= 0 {
		g.sinceRepath = g.p.RepathTicks
		if g.pathAway(loc, tloc.Pos) {
			g.tries = 0
		} else {
			g.tries++
			if g.tries >= g.p.MaxPathTries {
				return goal.Fail("cornered")
			}
		}
	}
	return goal.Running()
}

func (g *Flee) Stop(goal.Result) { g.nav.Stop() }

func (g *Flee) Reset() {
	g.sinceRepath = 0
	g.tries = 0
}

// pathAway probes escape bearings fanning out from the straight-away
// vector until the navigator accepts one.
func (g *Flee) pathAway(loc agent.Location, threat cp.Vector) bool {
	away := loc.Pos.Sub(threat)
	if away.Length() < 1e-6 {
		away = cp.Vector{X: 1, Y: 0}
	}
	away = away.Normalize()
	for _, angle := range fleeAngles {
		dir := away.Rotate(cp.ForAngle(angle))
		dest := agent.Location{Pos: loc.Pos.Add(dir.Mult(g.p.ProbeDistance)), World: loc.World}
		if g.nav.PathTo(dest, g.p.Speed) != agent.PathFailed {
			return true
		}
	}
	return false
}
