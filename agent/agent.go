// Package agent binds a goal selector to the collaborators behaviors
// act through: the body being controlled, a navigator that moves it,
// and a current-target slot. The interfaces here are the whole surface
// a host world has to implement; the engine never reaches past them.
package agent

import (
	"fmt"

	"github.com/jakecoffman/cp"
)

// Location is a world-qualified position.
type Location struct {
	Pos   cp.Vector
	World string
}

// SameWorld reports whether both locations share a world.
func (l Location) SameWorld(other Location) bool { return l.World == other.World }

// DistanceTo returns the planar distance to other, ignoring worlds.
func (l Location) DistanceTo(other Location) float64 { return l.Pos.Distance(other.Pos) }

func (l Location) String() string {
	return fmt.Sprintf("%s(%.1f, %.1f)", l.World, l.Pos.X, l.Pos.Y)
}

// Entity is anything a goal can observe, chase, or flee.
type Entity interface {
	Location() Location
	// Valid reports whether the entity still exists in its world. Dead
	// or despawned entities answer false and goals treat them as gone.
	Valid() bool
}

// ControlledEntity is the agent's own body.
type ControlledEntity interface {
	Entity
	// Teleport moves the entity instantly, possibly across worlds.
	Teleport(Location)
	// LookAt turns the entity's facing toward a point in its world.
	LookAt(cp.Vector)
}

// PathOutcome reports how a navigation request resolved.
type PathOutcome int

const (
	// PathFailed means no route was found; the navigator keeps its
	// previous state.
	PathFailed PathOutcome = iota
	// PathPartial means the navigator accepted a route toward the
	// nearest reachable point short of the destination.
	PathPartial
	// PathSuccess means the navigator accepted a route to the
	// destination.
	PathSuccess
)

func (o PathOutcome) String() string {
	switch o {
	case PathFailed:
		return "failed"
	case PathPartial:
		return "partial"
	case PathSuccess:
		return "success"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Navigator moves the controlled entity. PathTo answers immediately
// whether a route was accepted; actual movement happens as the host
// advances its world between ticks.
type Navigator interface {
	PathTo(loc Location, speed float64) PathOutcome
	Stop()
	IsMoving() bool
}

// TargetProvider exposes the agent's current target. Behaviors consult
// it every tick rather than caching entities across ticks.
type TargetProvider interface {
	CurrentTarget() (Entity, bool)
}

// Binder is implemented by goals that need the controller itself at
// registration time, such as target-acquisition goals that write the
// target slot. Controller.AddGoal runs the hook once after a
// successful registration.
type Binder interface {
	Bind(*Controller)
}
