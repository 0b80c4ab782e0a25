package goal

import (
	"fmt"
	"sort"
)

// runState tracks where a registration is in the activation lifecycle.
type runState int

const (
	stateIdle runState = iota
	stateActive
)

type registration struct {
	goal     Goal
	priority int
	seq      int

	state        runState
	cooldownLeft int
	ticksRun     int

	pending   Result
	hasResult bool
}

// Selector arbitrates which registered goals run each tick. Lower
// priority numbers take precedence, registration order breaks ties, and
// equal priority never preempts. All methods must be called from the
// host's single update goroutine.
type Selector struct {
	regs   []*registration // kept sorted by (priority, seq)
	seq    int
	tick   int
	events EventQueue
}

func NewSelector() *Selector { return &Selector{} }

// Register adds a goal at the given priority. Configuration problems
// surface here, never mid-tick: nil goal, empty or duplicate ID,
// negative cooldown or duration.
func (s *Selector) Register(g Goal, priority int) error {
	if g == nil {
		return fmt.Errorf("goal: register: nil goal")
	}
	id := g.ID()
	if id == "" {
		return fmt.Errorf("goal: register: empty goal ID")
	}
	if s.find(id) != nil {
		return fmt.Errorf("goal: register %s: duplicate ID", id)
	}
	if cd := g.Cooldown(); cd < 0 {
		return fmt.Errorf("goal: register %s: negative cooldown %d", id, cd)
	}
	if md := g.MaxDuration(); md < 0 {
		return fmt.Errorf("goal: register %s: negative max duration %d", id, md)
	}
	reg := &registration{goal: g, priority: priority, seq: s.seq}
	s.seq++
	s.regs = append(s.regs, reg)
	sort.Slice(s.regs, func(i, j int) bool {
		if s.regs[i].priority != s.regs[j].priority {
			return s.regs[i].priority < s.regs[j].priority
		}
		return s.regs[i].seq < s.regs[j].seq
	})
	return nil
}

// Unregister removes a goal. An active goal is force-stopped first so
// its Stop cleanup still runs. Reports whether the ID was known.
func (s *Selector) Unregister(id string) bool {
	for i, reg := range s.regs {
		if reg.goal.ID() == id {
			if reg.state == stateActive {
				s.stop(reg, Cancelled(), EventForceStopped, "")
			}
			s.regs = append(s.regs[:i], s.regs[i+1:]...)
			return true
		}
	}
	return false
}

// Tick runs one arbitration pass:
//
//  1. cooldowns of idle goals decay
//  2. idle goals are scanned in priority order; a candidate activates
//     when it conflicts with nothing, or preempts when every
//     conflicting active goal is interruptible and strictly lower
//     precedence
//  3. active goals that reached their duration cap stop with Cancelled
//  4. remaining active goals tick, ShouldContinue turning a Running
//     answer into Cancelled
//  5. goals that went terminal stop and begin their cooldown
func (s *Selector) Tick() {
	for _, reg := range s.regs {
		if reg.state == stateIdle && reg.cooldownLeft > 0 {
			reg.cooldownLeft--
		}
	}

	// regs is sorted by (priority, seq), so earlier entries win ties
	// and goals activated earlier in the pass are visible to later
	// candidates.
	for _, cand := range s.regs {
		if cand.state != stateIdle || cand.cooldownLeft > 0 {
			continue
		}
		if !cand.goal.CanStart() {
			continue
		}
		conflicts := s.conflictsWith(cand)
		if !canPreempt(cand, conflicts) {
			continue
		}
		for _, victim := range conflicts {
			victim.goal.OnInterrupted()
			s.stop(victim, Cancelled(), EventPreempted, cand.goal.ID())
		}
		s.start(cand)
	}

	if Debug {
		s.assertDisjoint()
	}

	for _, reg := range s.regs {
		if reg.state != stateActive {
			continue
		}
		if md := reg.goal.MaxDuration(); md > 0 && reg.ticksRun >= md {
			s.stop(reg, Cancelled(), EventStopped, "")
		}
	}

	for _, reg := range s.regs {
		if reg.state != stateActive {
			continue
		}
		res := reg.goal.Tick()
		reg.ticksRun++
		if res.Status == StatusRunning && !reg.goal.ShouldContinue() {
			res = Cancelled()
		}
		if res.Terminal() {
			reg.pending = res
			reg.hasResult = true
		}
	}

	for _, reg := range s.regs {
		if reg.state == stateActive && reg.hasResult {
			s.stop(reg, reg.pending, EventStopped, "")
		}
	}

	s.tick++
}

// conflictsWith returns the active registrations the candidate cannot
// run beside: flag intersection, or exclusive control on either side.
// The slice comes back in priority order.
func (s *Selector) conflictsWith(cand *registration) []*registration {
	candFlags := cand.goal.Flags()
	candExcl := cand.goal.RequiresExclusiveControl()
	var out []*registration
	for _, reg := range s.regs {
		if reg.state != stateActive {
			continue
		}
		if candFlags.Conflicts(reg.goal.Flags()) || candExcl || reg.goal.RequiresExclusiveControl() {
			out = append(out, reg)
		}
	}
	return out
}

// canPreempt reports whether every conflicting goal yields to the
// candidate: interruptible and a strictly larger priority number. An
// empty conflict set always activates. Equal priority never preempts.
func canPreempt(cand *registration, conflicts []*registration) bool {
	for _, reg := range conflicts {
		if !reg.goal.CanBeInterrupted() {
			return false
		}
		if reg.priority <= cand.priority {
			return false
		}
	}
	return true
}

func (s *Selector) start(reg *registration) {
	reg.state = stateActive
	reg.ticksRun = 0
	reg.hasResult = false
	reg.goal.Start()
	s.events.Push(Event{Tick: s.tick, Kind: EventStarted, GoalID: reg.goal.ID(), Priority: reg.priority})
}

func (s *Selector) stop(reg *registration, res Result, kind EventKind, by string) {
	reg.state = stateIdle
	reg.hasResult = false
	reg.cooldownLeft = reg.goal.Cooldown()
	reg.goal.Stop(res)
	s.events.Push(Event{Tick: s.tick, Kind: kind, GoalID: reg.goal.ID(), Priority: reg.priority, Result: res, By: by})
}

// ActiveGoals returns the goals running right now, in priority order.
func (s *Selector) ActiveGoals() []Goal {
	var out []Goal
	for _, reg := range s.regs {
		if reg.state == stateActive {
			out = append(out, reg.goal)
		}
	}
	return out
}

// ForceStop stops an active goal immediately with Cancelled, ignoring
// CanBeInterrupted. The goal's cooldown still applies. OnInterrupted is
// not called; that hook is for goal-versus-goal preemption.
func (s *Selector) ForceStop(id string) bool {
	reg := s.find(id)
	if reg == nil || reg.state != stateActive {
		return false
	}
	s.stop(reg, Cancelled(), EventForceStopped, "")
	return true
}

// StopAll force-stops every active goal in priority order. Teardown.
func (s *Selector) StopAll() {
	for _, reg := range s.regs {
		if reg.state == stateActive {
			s.stop(reg, Cancelled(), EventForceStopped, "")
		}
	}
}

// ResetAll returns every goal to its pre-start state without running
// Stop and clears all cooldowns. Respawn-style resets.
func (s *Selector) ResetAll() {
	for _, reg := range s.regs {
		reg.goal.Reset()
		reg.state = stateIdle
		reg.cooldownLeft = 0
		reg.ticksRun = 0
		reg.hasResult = false
	}
}

// Len returns the number of registered goals.
func (s *Selector) Len() int { return len(s.regs) }

// TickCount returns how many Tick passes have completed.
func (s *Selector) TickCount() int { return s.tick }

// Events exposes the telemetry queue; drain it once per frame.
func (s *Selector) Events() *EventQueue { return &s.events }

func (s *Selector) find(id string) *registration {
	for _, reg := range s.regs {
		if reg.goal.ID() == id {
			return reg
		}
	}
	return nil
}

// assertDisjoint panics when two active goals hold overlapping flags.
// Reachable only when a goal's Flags answer changes mid-activation.
func (s *Selector) assertDisjoint() {
	var act []*registration
	for _, reg := range s.regs {
		if reg.state == stateActive {
			act = append(act, reg)
		}
	}
	for i := 0; i < len(act); i++ {
		for j := i + 1; j < len(act); j++ {
			a, b := act[i], act[j]
			if shared := a.goal.Flags() & b.goal.Flags(); shared != 0 {
				panic(fmt.Sprintf("goal: active goals %s and %s share flags %s",
					a.goal.ID(), b.goal.ID(), shared))
			}
		}
	}
}
