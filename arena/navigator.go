package arena

import (
	"github.com/jakecoffman/cp"

	"github.com/milk9111/mobmind/agent"
)

const (
	// baseSpeed is pixels per second at a goal speed multiplier of 1.
	baseSpeed = 96.0
	// waypointReach is the fraction of a tile within which a waypoint
	// counts as hit.
	waypointReach = 0.3
	// retargetRings bounds the nearest-open search when a path goal
	// sits inside a wall.
	retargetRings = 4
)

// Navigator steers one agent along grid paths. PathTo plans against
// the wall grid; steering happens as the world steps.
type Navigator struct {
	world *World
	agent *Agent

	waypoints []cp.Vector
	speed     float64
}

// Navigator returns the agent's navigator, creating it on first use.
func (w *World) Navigator(a *Agent) *Navigator {
	if a.nav == nil {
		a.nav = &Navigator{world: w, agent: a}
	}
	return a.nav
}

// PathTo plans a route to the location. A goal inside a wall retargets
// to the nearest open tile and reports PathPartial; an unreachable or
// foreign-world goal reports PathFailed and keeps the previous route.
func (n *Navigator) PathTo(loc agent.Location, speed float64) agent.PathOutcome {
	if loc.World != n.world.name || !n.agent.alive {
		return agent.PathFailed
	}
	if speed <= 0 {
		speed = 1
	}

	start := n.tileOf(n.agent.body.Position())
	goal := n.tileOf(loc.Pos)

	outcome := agent.PathSuccess
	exact := true
	if n.world.Blocked(goal.x, goal.y) {
		open, ok := n.world.nearestOpen(goal, retargetRings)
		if !ok {
			return agent.PathFailed
		}
		goal = open
		outcome = agent.PathPartial
		exact = false
	}

	path := n.world.findPath(start, goal)
	if path == nil {
		return agent.PathFailed
	}

	waypoints := make([]cp.Vector, 0, len(path))
	for _, p := range path[1:] {
		waypoints = append(waypoints, n.world.TileCenter(p.x, p.y))
	}
	if exact {
		// Finish on the requested point, not the tile center.
		if len(waypoints) > 0 {
			waypoints[len(waypoints)-1] = loc.Pos
		} else {
			waypoints = append(waypoints, loc.Pos)
		}
	}

	n.waypoints = waypoints
	n.speed = speed
	return outcome
}

// Stop clears the route and halts the body.
func (n *Navigator) Stop() {
	n.waypoints = nil
	n.agent.body.SetVelocityVector(cp.Vector{})
}

// IsMoving reports whether a route is still being walked.
func (n *Navigator) IsMoving() bool { return len(n.waypoints) > 0 }

// step advances steering by one frame: velocity toward the next
// waypoint, popping waypoints as they are reached.
func (n *Navigator) step(dt float64) {
	if len(n.waypoints) == 0 {
		return
	}

	pos := n.agent.body.Position()
	reach := n.world.tileSize * waypointReach
	for len(n.waypoints) > 0 && pos.Distance(n.waypoints[0]) <= reach {
		n.waypoints = n.waypoints[1:]
	}
	if len(n.waypoints) == 0 {
		n.agent.body.SetVelocityVector(cp.Vector{})
		return
	}

	next := n.waypoints[0]
	d := next.Sub(pos)
	dist := d.Length()
	v := n.speed * baseSpeed
	if dist < v*dt {
		// Close enough to overshoot this frame; land exactly.
		v = dist / dt
	}
	n.agent.body.SetVelocityVector(d.Mult(1 / dist).Mult(v))
}

func (n *Navigator) tileOf(pos cp.Vector) gridPos {
	tx, ty := n.world.TileAt(pos)
	return gridPos{x: tx, y: ty}
}
