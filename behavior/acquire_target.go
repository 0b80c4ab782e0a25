package behavior

import (
	"fmt"

	"github.com/milk9111/mobmind/agent"
	"github.com/milk9111/mobmind/goal"
)

const (
	defaultAcquireRange       = 260.0
	defaultAcquireDropRange   = 340.0
	defaultAcquireRescanTicks = 10
)

// AcquireTargetParams configures an AcquireTarget goal. Candidates
// supplies the entities worth considering; Filter, when set, vetoes
// individual candidates (line of sight, faction, and so on).
type AcquireTargetParams struct {
	ID          string
	Range       float64
	DropRange   float64
	RescanTicks int
	Candidates  func() []agent.Entity
	Filter      func(agent.Entity) bool
	Cooldown    int
}

// AcquireTarget owns the target channel: it scans for the nearest valid
// candidate in Range, writes it into the controller's target slot, and
// keeps it while it stays valid and inside DropRange, swapping to a
// closer candidate on each rescan. Stop clears the slot, so whatever
// ends this goal also releases the target.
//
// The goal needs the controller itself to write the slot, so it must be
// registered through Controller.AddGoal, which runs its Bind hook.
type AcquireTarget struct {
	goal.Base
	id  string
	ctl *agent.Controller
	p   AcquireTargetParams

	rescan int
}

func NewAcquireTarget(p AcquireTargetParams) (*AcquireTarget, error) {
	if p.Candidates == nil {
		return nil, fmt.Errorf("behavior: acquire_target: nil candidates func")
	}
	if p.ID == "" {
		p.ID = "acquire_target"
	}
	if p.Range < 0 || p.DropRange < 0 || p.RescanTicks < 0 {
		return nil, fmt.Errorf("behavior: acquire_target %s: negative param", p.ID)
	}
	if p.Range == 0 {
		p.Range = defaultAcquireRange
	}
	if p.DropRange == 0 {
		p.DropRange = defaultAcquireDropRange
	}
	if p.DropRange < p.Range {
		return nil, fmt.Errorf("behavior: acquire_target %s: drop range %.1f inside range %.1f", p.ID, p.DropRange, p.Range)
	}
	if p.RescanTicks == 0 {
		p.RescanTicks = defaultAcquireRescanTicks
	}
	return &AcquireTarget{id: p.ID, p: p}, nil
}

// Bind implements agent.Binder.
func (g *AcquireTarget) Bind(ctl *agent.Controller) { g.ctl = ctl }

func (g *AcquireTarget) ID() string        { return g.id }
func (g *AcquireTarget) Flags() goal.Flags { return goal.FlagTarget }
func (g *AcquireTarget) Cooldown() int     { return g.p.Cooldown }

func (g *AcquireTarget) CanStart() bool {
	return g.ctl != nil && g.nearest(g.p.Range) != nil
}

func (g *AcquireTarget) Start() {
	g.rescan = g.p.RescanTicks
	if t := g.nearest(g.p.Range); t != nil {
		g.ctl.SetTarget(t)
	}
}

func (g *AcquireTarget) Tick() goal.Result {
	self := g.ctl.Entity()
	target, ok := g.ctl.CurrentTarget()
	if ok {
		tloc := target.Location()
		loc := self.Location()
		if !loc.SameWorld(tloc) || loc.Pos.Distance(tloc.Pos) > g.p.DropRange {
			g.ctl.ClearTarget()
			ok = false
		}
	}

	g.rescan--
	if !ok || g.rescan <= 0 {
		g.rescan = g.p.RescanTicks
		next := g.nearest(g.p.Range)
		switch {
		case next != nil:
			g.ctl.SetTarget(next)
		case !ok:
			return goal.Fail("no targets")
		}
	}
	return goal.Running()
}

// Stop releases the target slot; preemption and force stops drop the
// target with it.
func (g *AcquireTarget) Stop(goal.Result) {
	if g.ctl != nil {
		g.ctl.ClearTarget()
	}
}

func (g *AcquireTarget) Reset() { g.rescan = 0 }

// nearest returns the closest valid candidate within reach, or nil.
func (g *AcquireTarget) nearest(within float64) agent.Entity {
	self := g.ctl.Entity()
	if !self.Valid() {
		return nil
	}
	loc := self.Location()
	var best agent.Entity
	bestDist := within
	for _, cand := range g.p.Candidates() {
		if cand == nil || !cand.Valid() || cand == agent.Entity(self) {
			continue
		}
		cloc := cand.Location()
		if !loc.SameWorld(cloc) {
			continue
		}
		if g.p.Filter != nil && !g.p.Filter(cand) {
			continue
		}
		if d := loc.Pos.Distance(cloc.Pos); d <= bestDist {
			best = cand
			bestDist = d
		}
	}
	return best
}
