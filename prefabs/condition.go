package prefabs

import (
	"fmt"
	"log"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/milk9111/mobmind/agent"
	"github.com/milk9111/mobmind/goal"
)

// condEnv is the variable set a condition expression sees. Distances
// are planar; target_distance is -1 when there is no target or it sits
// in another world.
type condEnv struct {
	HasTarget      bool    `expr:"has_target"`
	TargetDistance float64 `expr:"target_distance"`
	TargetWorld    string  `expr:"target_world"`
	SelfX          float64 `expr:"self_x"`
	SelfY          float64 `expr:"self_y"`
	World          string  `expr:"world"`
	Moving         bool    `expr:"moving"`
	Tick           int     `expr:"tick"`
}

// conditioned gates an inner goal's CanStart on a compiled expression.
// Everything else passes straight through.
type conditioned struct {
	goal.Goal
	ctl     *agent.Controller
	program *vm.Program
	src     string
}

func newConditioned(inner goal.Goal, ctl *agent.Controller, src string) (goal.Goal, error) {
	program, err := expr.Compile(src, expr.Env(condEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("prefabs: condition %q: %w", src, err)
	}
	return &conditioned{Goal: inner, ctl: ctl, program: program, src: src}, nil
}

func (c *conditioned) CanStart() bool {
	if !c.Goal.CanStart() {
		return false
	}
	out, err := expr.Run(c.program, c.snapshot())
	if err != nil {
		log.Printf("prefabs: condition %q: %v", c.src, err)
		return false
	}
	ok, _ := out.(bool)
	return ok
}

// Bind forwards the controller hook to the wrapped goal; the embedded
// interface would otherwise hide it.
func (c *conditioned) Bind(ctl *agent.Controller) {
	if b, ok := c.Goal.(agent.Binder); ok {
		b.Bind(ctl)
	}
}

func (c *conditioned) snapshot() condEnv {
	self := c.ctl.Entity().Location()
	env := condEnv{
		TargetDistance: -1,
		SelfX:          self.Pos.X,
		SelfY:          self.Pos.Y,
		World:          self.World,
		Moving:         c.ctl.Navigator().IsMoving(),
		Tick:           c.ctl.TickCount(),
	}
	if tgt, ok := c.ctl.CurrentTarget(); ok {
		loc := tgt.Location()
		env.HasTarget = true
		env.TargetWorld = loc.World
		if loc.SameWorld(self) {
			env.TargetDistance = self.DistanceTo(loc)
		}
	}
	return env
}
