package agent

import (
	"fmt"

	"github.com/milk9111/mobmind/goal"
)

// Controller drives one agent: the selector full of goals, the body it
// commands, the navigator that moves it, and the current-target slot.
// Controllers are single-threaded; call every method from the host's
// update loop.
type Controller struct {
	entity    ControlledEntity
	navigator Navigator
	selector  *goal.Selector
	target    Entity
}

// NewController wires a controller. Both collaborators are required.
func NewController(entity ControlledEntity, navigator Navigator) (*Controller, error) {
	if entity == nil {
		return nil, fmt.Errorf("agent: new controller: nil entity")
	}
	if navigator == nil {
		return nil, fmt.Errorf("agent: new controller: nil navigator")
	}
	return &Controller{
		entity:    entity,
		navigator: navigator,
		selector:  goal.NewSelector(),
	}, nil
}

// AddGoal registers a goal at the given priority, then runs its Bind
// hook when it has one. Registration problems come back as errors.
func (c *Controller) AddGoal(g goal.Goal, priority int) error {
	if err := c.selector.Register(g, priority); err != nil {
		return err
	}
	if b, ok := g.(Binder); ok {
		b.Bind(c)
	}
	return nil
}

// RemoveGoal unregisters a goal, force-stopping it first when active.
func (c *Controller) RemoveGoal(id string) bool { return c.selector.Unregister(id) }

// Update runs one selector pass. Call once per simulation tick.
func (c *Controller) Update() { c.selector.Tick() }

// CurrentTarget implements TargetProvider. Targets that stopped being
// valid read as absent.
func (c *Controller) CurrentTarget() (Entity, bool) {
	if c.target == nil || !c.target.Valid() {
		return nil, false
	}
	return c.target, true
}

// SetTarget stores the entity target-consuming goals act on.
func (c *Controller) SetTarget(e Entity) { c.target = e }

// ClearTarget drops the current target.
func (c *Controller) ClearTarget() { c.target = nil }

// ForceStop stops an active goal by ID regardless of interruptibility.
func (c *Controller) ForceStop(id string) bool { return c.selector.ForceStop(id) }

// Shutdown force-stops every active goal so each runs its Stop cleanup.
func (c *Controller) Shutdown() { c.selector.StopAll() }

// Reset discards all goal state without Stop cleanup, halts
// navigation, and clears the target. For respawn-style resets.
func (c *Controller) Reset() {
	c.selector.ResetAll()
	c.navigator.Stop()
	c.target = nil
}

// ActiveGoals returns the goals running this tick in priority order.
func (c *Controller) ActiveGoals() []goal.Goal { return c.selector.ActiveGoals() }

// Events exposes the selector's telemetry queue.
func (c *Controller) Events() *goal.EventQueue { return c.selector.Events() }

func (c *Controller) Entity() ControlledEntity { return c.entity }
func (c *Controller) Navigator() Navigator     { return c.navigator }
func (c *Controller) Selector() *goal.Selector { return c.selector }
func (c *Controller) TickCount() int           { return c.selector.TickCount() }
