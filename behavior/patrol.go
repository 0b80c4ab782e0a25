package behavior

import (
	"fmt"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/mobmind/agent"
	"github.com/milk9111/mobmind/goal"
)

const (
	defaultPatrolSpeed       = 1.0
	defaultPatrolReachDist   = 6.0
	defaultPatrolRepathTicks = 12
	defaultPatrolStallTicks  = 30
	defaultPatrolPathFails   = 3

	// stallEpsilon is how little movement per tick counts as stuck.
	stallEpsilon = 0.1
)

// PatrolParams configures a Patrol goal. TeleportAfter zero disables
// the snap-to-waypoint recovery.
type PatrolParams struct {
	ID            string
	Waypoints     []agent.Location
	Speed         float64
	ReachDistance float64
	RepathTicks   int
	StallTicks    int
	TeleportAfter float64
	Loop          bool
	Cooldown      int
	MaxDuration   int
}

// Patrol walks an ordered waypoint route. It repaths on a timer, counts
// ticks without movement as stalls and forces an early repath, fails
// the route after repeated pathing failures, and optionally teleports
// onto a waypoint it has fallen too far behind. Without Loop the route
// ends in Success after the last waypoint.
type Patrol struct {
	goal.Base
	id   string
	self agent.ControlledEntity
	nav  agent.Navigator
	p    PatrolParams

	wp          int
	sinceRepath int
	stalled     int
	failedPaths int
	lastPos     cp.Vector
}

func NewPatrol(self agent.ControlledEntity, nav agent.Navigator, p PatrolParams) (*Patrol, error) {
	if self == nil {
		return nil, fmt.Errorf("behavior: patrol: nil entity")
	}
	if nav == nil {
		return nil, fmt.Errorf("behavior: patrol: nil navigator")
	}
	if p.ID == "" {
		p.ID = "patrol"
	}
	if len(p.Waypoints) == 0 {
		return nil, fmt.Errorf("behavior: patrol %s: no waypoints", p.ID)
	}
	if p.Speed < 0 || p.ReachDistance < 0 || p.RepathTicks < 0 || p.StallTicks < 0 || p.TeleportAfter < 0 {
		return nil, fmt.Errorf("behavior: patrol %s: negative param", p.ID)
	}
	if p.Speed == 0 {
		p.Speed = defaultPatrolSpeed
	}
	if p.ReachDistance == 0 {
		p.ReachDistance = defaultPatrolReachDist
	}
	if p.RepathTicks == 0 {
		p.RepathTicks = defaultPatrolRepathTicks
	}
	if p.StallTicks == 0 {
		p.StallTicks = defaultPatrolStallTicks
	}
	return &Patrol{id: p.ID, self: self, nav: nav, p: p}, nil
}

func (g *Patrol) ID() string        { return g.id }
func (g *Patrol) Flags() goal.Flags { return goal.FlagMovement }
func (g *Patrol) Cooldown() int     { return g.p.Cooldown }
func (g *Patrol) MaxDuration() int  { return g.p.MaxDuration }

func (g *Patrol) CanStart() bool { return g.self.Valid() }

func (g *Patrol) Start() {
	g.wp = 0
	g.sinceRepath = 0
	g.stalled = 0
	g.failedPaths = 0
	g.lastPos = g.self.Location().Pos
}

func (g *Patrol) Tick() goal.Result {
	cur := g.p.Waypoints[g.wp]
	loc := g.self.Location()

	// A waypoint in another world cannot be walked to.
	if !loc.SameWorld(cur) {
		g.self.Teleport(cur)
		g.nav.Stop()
		g.sinceRepath = 0
		return goal.Running()
	}

	dist := loc.Pos.Distance(cur.Pos)
	if dist <= g.p.ReachDistance {
		return g.advance()
	}
	if g.p.TeleportAfter > 0 && dist > g.p.TeleportAfter {
		g.self.Teleport(cur)
		g.nav.Stop()
		return g.advance()
	}

	g.sinceRepath--
	if g.sinceRepath <= 0 {
		g.sinceRepath = g.p.RepathTicks
		if g.nav.PathTo(cur, g.p.Speed) == agent.PathFailed {
			g.failedPaths++
			if g.failedPaths >= defaultPatrolPathFails {
				return goal.Fail("waypoint unreachable")
			}
		} else {
			g.failedPaths = 0
		}
	}

	// No ground covered while the navigator claims to be moving means
	// the agent is wedged; force an early repath.
	if loc.Pos.Distance(g.lastPos) < stallEpsilon && g.nav.IsMoving() {
		g.stalled++
		if g.stalled >= g.p.StallTicks {
			g.stalled = 0
			g.sinceRepath = 0
		}
	} else {
		g.stalled = 0
	}
	g.lastPos = loc.Pos

	return goal.Running()
}

func (g *Patrol) advance() goal.Result {
	g.wp++
	g.sinceRepath = 0
	g.stalled = 0
	g.failedPaths = 0
	if g.wp >= len(g.p.Waypoints) {
		if !g.p.Loop {
			return goal.Succeed("route complete")
		}
		g.wp = 0
	}
	return goal.Running()
}

func (g *Patrol) Stop(goal.Result) { g.nav.Stop() }

func (g *Patrol) Reset() {
	g.wp = 0
	g.sinceRepath = 0
	g.stalled = 0
	g.failedPaths = 0
}
