// Package behavior provides the stock leaf goals: idle, wander, patrol,
// follow, attack, flee, target acquisition, look-around, and
// tengo-scripted goals. Each leaf is configured through a params struct
// whose zero values take the package defaults, embeds goal.Base, and
// reaches its collaborators through the agent interfaces handed to its
// constructor.
package behavior

import (
	"fmt"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/mobmind/agent"
	"github.com/milk9111/mobmind/goal"
)

const (
	defaultAttackReach       = 40.0
	defaultAttackPursuit     = 260.0
	defaultAttackSpeed       = 1.25
	defaultAttackSwingTicks  = 20
	defaultAttackRepathTicks = 12
)

// AttackParams configures an Attack goal. Strike is invoked whenever a
// swing lands; damage is the host's business. A nil Strike still
// chases and faces the target.
type AttackParams struct {
	ID           string
	Reach        float64
	PursuitRange float64
	Speed        float64
	SwingTicks   int
	RepathTicks  int
	Strike       func(agent.Entity)
	Cooldown     int
	MaxDuration  int
}

// Attack closes on the provider's current target, faces it every tick,
// and swings at it whenever it is within Reach and the swing timer has
// elapsed. The goal keeps running while the target stays valid and
// inside PursuitRange.
type Attack struct {
	goal.Base
	id      string
	self    agent.ControlledEntity
	nav     agent.Navigator
	targets agent.TargetProvider
	p       AttackParams

	swing       int
	sinceRepath int
	lastGoal    cp.Vector
	pathed      bool
}

func NewAttack(self agent.ControlledEntity, nav agent.Navigator, targets agent.TargetProvider, p AttackParams) (*Attack, error) {
	if self == nil {
		return nil, fmt.Errorf("behavior: attack: nil entity")
	}
	if nav == nil {
		return nil, fmt.Errorf("behavior: attack: nil navigator")
	}
	if targets == nil {
		return nil, fmt.Errorf("behavior: attack: nil target provider")
	}
	if p.ID == "" {
		p.ID = "attack"
	}
	if p.Reach < 0 || p.PursuitRange < 0 || p.Speed < 0 || p.SwingTicks < 0 || p.RepathTicks < 0 {
		return nil, fmt.Errorf("behavior: attack %s: negative param", p.ID)
	}
	if p.Reach == 0 {
		p.Reach = defaultAttackReach
	}
	if p.PursuitRange == 0 {
		p.PursuitRange = defaultAttackPursuit
	}
	if p.Speed == 0 {
		p.Speed = defaultAttackSpeed
	}
	if p.SwingTicks == 0 {
		p.SwingTicks = defaultAttackSwingTicks
	}
	if p.RepathTicks == 0 {
		p.RepathTicks = defaultAttackRepathTicks
	}
	return &Attack{id: p.ID, self: self, nav: nav, targets: targets, p: p}, nil
}

func (g *Attack) ID() string        { return g.id }
func (g *Attack) Flags() goal.Flags { return goal.FlagMovement | goal.FlagLook | goal.FlagAttack }
func (g *Attack) Cooldown() int     { return g.p.Cooldown }
func (g *Attack) MaxDuration() int  { return g.p.MaxDuration }

func (g *Attack) CanStart() bool {
	target, ok := g.targets.CurrentTarget()
	if !ok || !g.self.Valid() {
		return false
	}
	loc := g.self.Location()
	tloc := target.Location()
	return loc.SameWorld(tloc) && loc.Pos.Distance(tloc.Pos) <= g.p.PursuitRange
}

func (g *Attack) Start() {
	g.swing = 0
	g.sinceRepath = 0
	g.pathed = false
}

func (g *Attack) Tick() goal.Result {
	target, ok := g.targets.CurrentTarget()
	if !ok {
		return goal.Fail("target lost")
	}
	tloc := target.Location()
	loc := g.self.Location()
	if !loc.SameWorld(tloc) {
		return goal.Fail("target in another world")
	}

	g.self.LookAt(tloc.Pos)
	if g.swing > 0 {
		g.swing--
	}

	if loc.Pos.Distance(tloc.Pos) <= g.p.Reach {
		if g.nav.IsMoving() {
			g.nav.Stop()
			g.pathed = false
		}
		if g.swing == 0 {
			g.swing = g.p.SwingTicks
			if g.p.Strike != nil {
				g.p.Strike(target)
			}
		}
		return goal.Running()
	}

	g.sinceRepath--
	if !g.pathed || g.sinceRepath <= 0 || tloc.Pos.Distance(g.lastGoal) > g.p.Reach {
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

func (g *Attack) ShouldContinue() bool {
	target, ok := g.targets.CurrentTarget()
	if !ok {
		return false
	}
	loc := g.self.Location()
	tloc := target.Location()
	return loc.SameWorld(tloc) && loc.Pos.Distance(tloc.Pos) <= g.p.PursuitRange
}

func (g *Attack) Stop(goal.Result) { g.nav.Stop() }

func (g *Attack) Reset() {
	g.swing = 0
	g.sinceRepath = 0
	g.pathed = false
}
