package behavior

import (
	"fmt"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/mobmind/agent"
	"github.com/milk9111/mobmind/goal"
)

const (
	defaultFollowSpeed       = 1.0
	defaultFollowStopDist    = 8.0
	defaultFollowRepathTicks = 12
)

// FollowParams configures a FollowEntity goal. GiveUpDistance zero
// follows forever; TeleportDistance zero never teleports.
type FollowParams struct {
	ID               string
	Speed            float64
	StopDistance     float64
	GiveUpDistance   float64
	TeleportDistance float64
	RepathTicks      int
	Cooldown         int
	MaxDuration      int
}

// FollowEntity keeps the agent near the provider's current target. It
// repaths on a timer and whenever the target has moved meaningfully,
// holds position inside StopDistance, and snaps next to a target that
// ended up in another world or beyond TeleportDistance.
type FollowEntity struct {
	goal.Base
	id      string
	self    agent.ControlledEntity
	nav     agent.Navigator
	targets agent.TargetProvider
	p       FollowParams

	sinceRepath int
	lastGoal    cp.Vector
	pathed      bool
}

func NewFollow(self agent.ControlledEntity, nav agent.Navigator, targets agent.TargetProvider, p FollowParams) (*FollowEntity, error) {
	if self == nil {
		return nil, fmt.Errorf("behavior: follow: nil entity")
	}
	if nav == nil {
		return nil, fmt.Errorf("behavior: follow: nil navigator")
	}
	if targets == nil {
		return nil, fmt.Errorf("behavior: follow: nil target provider")
	}
	if p.ID == "" {
		p.ID = "follow"
	}
	if p.Speed < 0 || p.StopDistance < 0 || p.GiveUpDistance < 0 || p.TeleportDistance < 0 || p.RepathTicks < 0 {
		return nil, fmt.Errorf("behavior: follow %s: negative param", p.ID)
	}
	if p.Speed == 0 {
		p.Speed = defaultFollowSpeed
	}
	if p.StopDistance == 0 {
		p.StopDistance = defaultFollowStopDist
	}
	if p.RepathTicks == 0 {
		p.RepathTicks = defaultFollowRepathTicks
	}
	return &FollowEntity{id: p.ID, self: self, nav: nav, targets: targets, p: p}, nil
}

func (g *FollowEntity) ID() string        { return g.id }
func (g *FollowEntity) Flags() goal.Flags { return goal.FlagMovement }
func (g *FollowEntity) Cooldown() int     { return g.p.Cooldown }
func (g *FollowEntity) MaxDuration() int  { return g.p.MaxDuration }

func (g *FollowEntity) CanStart() bool {
	target, ok := g.targets.CurrentTarget()
	if !ok || !g.self.Valid() {
		return false
	}
	tloc := target.Location()
	loc := g.self.Location()
	if !loc.SameWorld(tloc) {
		return g.p.TeleportDistance > 0
	}
	return loc.Pos.Distance(tloc.Pos) > g.p.StopDistance
}

func (g *FollowEntity) Start() {
	g.sinceRepath = 0
	g.pathed = false
}

func (g *FollowEntity) Tick() goal.Result {
	target, ok := g.targets.CurrentTarget()
	if !ok {
		return goal.Fail("target lost")
	}
	tloc := target.Location()
	loc := g.self.Location()

	if !loc.SameWorld(tloc) || (g.p.TeleportDistance > 0 && loc.Pos.Distance(tloc.Pos) > g.p.TeleportDistance) {
		if g.p.TeleportDistance == 0 {
			return goal.Fail("target in another world")
		}
		g.self.Teleport(g.besideTarget(tloc))
		g.nav.Stop()
		g.pathed = false
		return goal.Running()
	}

	if loc.Pos.Distance(tloc.Pos) <= g.p.StopDistance {
		if g.nav.IsMoving() {
			g.nav.Stop()
			g.pathed = false
		}
		return goal.Running()
	}

	g.sinceRepath--
	if !g.pathed || g.sinceRepath <= 0 || tloc.Pos.Distance(g.lastGoal) > g.p.StopDistance {
		g.sinceRepath = g.p.RepathTicks
		g.lastGoal = tloc.Pos
		if g.nav.PathTo(tloc, g.p.Speed) == agent.PathFailed {
			g.pathed = false
			return goal.Running()
		}
		g.pathed = true
	}
	return goal.Running()
}

func (g *FollowEntity) ShouldContinue() bool {
	target, ok := g.targets.CurrentTarget()
	if !ok {
		return false
	}
	if g.p.GiveUpDistance == 0 {
		return true
	}
	return g.self.Location().DistanceTo(target.Location()) <= g.p.GiveUpDistance
}

func (g *FollowEntity) Stop(goal.Result) { g.nav.Stop() }

func (g *FollowEntity) Reset() {
	g.sinceRepath = 0
	g.pathed = false
}

// besideTarget lands the agent a comfortable step short of the target
// rather than inside it.
func (g *FollowEntity) besideTarget(tloc agent.Location) agent.Location {
	away := g.self.Location().Pos.Sub(tloc.Pos)
	if away.Length() < 1e-6 {
		away = cp.Vector{X: 1, Y: 0}
	}
	offset := away.Normalize().Mult(g.p.StopDistance * 0.5)
	return agent.Location{Pos: tloc.Pos.Add(offset), World: tloc.World}
}
