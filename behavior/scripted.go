package behavior

import (
	"fmt"
	"log"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/jakecoffman/cp"

	"github.com/milk9111/mobmind/agent"
	"github.com/milk9111/mobmind/goal"
)

// scriptedDispatch is appended to every goal script so one compiled
// program serves all lifecycle phases. The script must define on_start,
// on_tick, should_continue, and on_stop; missing functions surface as
// compile errors from NewScripted.
const scriptedDispatch = `
if __phase == "start" {
	on_start(__engine, __state)
} else if __phase == "tick" {
	__status = on_tick(__engine, __state)
} else if __phase == "should_continue" {
	__continue = should_continue(__engine, __state)
} else if __phase == "stop" {
	on_stop(__engine, __state, __result)
}
`

// ScriptedParams configures a Scripted goal. Source is the tengo
// program; Flags are the channels the script claims.
type ScriptedParams struct {
	ID          string
	Flags       goal.Flags
	Source      []byte
	Cooldown    int
	MaxDuration int
}

// Scripted runs a tengo script through the goal lifecycle. The script
// defines on_start(engine, state), on_tick(engine, state),
// should_continue(engine, state), and on_stop(engine, state, result).
// on_tick returns "running", "success", or "failure", with an optional
// reason after a colon ("failure:cornered"). state is a script-owned
// map that persists across ticks within one activation; engine exposes
// the navigation and target bindings.
type Scripted struct {
	goal.Base
	id       string
	self     agent.ControlledEntity
	nav      agent.Navigator
	targets  agent.TargetProvider
	ctl      *agent.Controller
	p        ScriptedParams
	compiled *tengo.Compiled
	engine   *tengo.ImmutableMap
	state    *tengo.Map
}

func NewScripted(self agent.ControlledEntity, nav agent.Navigator, targets agent.TargetProvider, p ScriptedParams) (*Scripted, error) {
	if self == nil {
		return nil, fmt.Errorf("behavior: scripted: nil entity")
	}
	if nav == nil {
		return nil, fmt.Errorf("behavior: scripted: nil navigator")
	}
	if targets == nil {
		return nil, fmt.Errorf("behavior: scripted: nil target provider")
	}
	if p.ID == "" {
		return nil, fmt.Errorf("behavior: scripted: empty ID")
	}
	if len(p.Source) == 0 {
		return nil, fmt.Errorf("behavior: scripted %s: empty script", p.ID)
	}

	g := &Scripted{id: p.ID, self: self, nav: nav, targets: targets, p: p}
	g.engine = g.buildEngine()
	g.state = &tengo.Map{Value: map[string]tengo.Object{}}

	src := string(p.Source) + "\n" + scriptedDispatch
	script := tengo.NewScript([]byte(src))
	_ = script.Add("__phase", "")
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	_ = script.Add("__result", "")
	_ = script.Add("__status", "")
	_ = script.Add("__continue", true)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("behavior: scripted %s: compile: %w", p.ID, err)
	}
	g.compiled = compiled
	return g, nil
}

// Bind keeps the controller for the clear_target binding. Optional;
// without it clear_target is a no-op.
func (g *Scripted) Bind(ctl *agent.Controller) { g.ctl = ctl }

func (g *Scripted) ID() string        { return g.id }
func (g *Scripted) Flags() goal.Flags { return g.p.Flags }
func (g *Scripted) Cooldown() int     { return g.p.Cooldown }
func (g *Scripted) MaxDuration() int  { return g.p.MaxDuration }

func (g *Scripted) Start() {
	g.state = &tengo.Map{Value: map[string]tengo.Object{}}
	if err := g.runPhase("start", ""); err != nil {
		log.Printf("behavior: scripted %s: on_start: %v", g.id, err)
	}
}

func (g *Scripted) Tick() goal.Result {
	if err := g.runPhase("tick", ""); err != nil {
		return goal.Fail(fmt.Sprintf("script error: %v", err))
	}
	status := g.compiled.Get("__status").String()
	reason := ""
	if i := strings.IndexByte(status, ':'); i >= 0 {
		status, reason = status[:i], strings.TrimSpace(status[i+1:])
	}
	switch strings.TrimSpace(status) {
	case "", "running":
		return goal.Running()
	case "success":
		return goal.Succeed(reason)
	case "failure":
		return goal.Fail(reason)
	default:
		return goal.Fail(fmt.Sprintf("bad on_tick status %q", status))
	}
}

func (g *Scripted) ShouldContinue() bool {
	if err := g.runPhase("should_continue", ""); err != nil {
		log.Printf("behavior: scripted %s: should_continue: %v", g.id, err)
		return false
	}
	return g.compiled.Get("__continue").Bool()
}

func (g *Scripted) Stop(res goal.Result) {
	if err := g.runPhase("stop", res.String()); err != nil {
		log.Printf("behavior: scripted %s: on_stop: %v", g.id, err)
	}
	g.nav.Stop()
}

func (g *Scripted) Reset() {
	g.state = &tengo.Map{Value: map[string]tengo.Object{}}
}

func (g *Scripted) runPhase(phase, result string) error {
	if err := g.compiled.Set("__phase", phase); err != nil {
		return err
	}
	if err := g.compiled.Set("__engine", g.engine); err != nil {
		return err
	}
	if err := g.compiled.Set("__state", g.state); err != nil {
		return err
	}
	if err := g.compiled.Set("__result", result); err != nil {
		return err
	}
	return g.compiled.Run()
}

// buildEngine exposes the agent bindings scripts call. Closures read
// live collaborator state, so one immutable map serves every phase.
func (g *Scripted) buildEngine() *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["navigate_to"] = &tengo.UserFunction{Name: "navigate_to", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 3 {
			return tengo.FalseValue, nil
		}
		x, okX := tengo.ToFloat64(args[0])
		y, okY := tengo.ToFloat64(args[1])
		speed, okS := tengo.ToFloat64(args[2])
		if !okX || !okY || !okS {
			return tengo.FalseValue, nil
		}
		loc := agent.Location{Pos: cp.Vector{X: x, Y: y}, World: g.self.Location().World}
		if g.nav.PathTo(loc, speed) == agent.PathFailed {
			return tengo.FalseValue, nil
		}
		return tengo.TrueValue, nil
	}}

	values["stop_navigation"] = &tengo.UserFunction{Name: "stop_navigation", Value: func(args ...tengo.Object) (tengo.Object, error) {
		g.nav.Stop()
		return tengo.TrueValue, nil
	}}

	values["is_moving"] = &tengo.UserFunction{Name: "is_moving", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if g.nav.IsMoving() {
			return tengo.TrueValue, nil
		}
		return tengo.FalseValue, nil
	}}

	values["look_at"] = &tengo.UserFunction{Name: "look_at", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return tengo.FalseValue, nil
		}
		x, okX := tengo.ToFloat64(args[0])
		y, okY := tengo.ToFloat64(args[1])
		if !okX || !okY {
			return tengo.FalseValue, nil
		}
		g.self.LookAt(cp.Vector{X: x, Y: y})
		return tengo.TrueValue, nil
	}}

	values["self_x"] = &tengo.UserFunction{Name: "self_x", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: g.self.Location().Pos.X}, nil
	}}

	values["self_y"] = &tengo.UserFunction{Name: "self_y", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: g.self.Location().Pos.Y}, nil
	}}

	values["has_target"] = &tengo.UserFunction{Name: "has_target", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if _, ok := g.targets.CurrentTarget(); ok {
			return tengo.TrueValue, nil
		}
		return tengo.FalseValue, nil
	}}

	values["target_x"] = &tengo.UserFunction{Name: "target_x", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if t, ok := g.targets.CurrentTarget(); ok {
			return &tengo.Float{Value: t.Location().Pos.X}, nil
		}
		return &tengo.Float{Value: 0}, nil
	}}

	values["target_y"] = &tengo.UserFunction{Name: "target_y", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if t, ok := g.targets.CurrentTarget(); ok {
			return &tengo.Float{Value: t.Location().Pos.Y}, nil
		}
		return &tengo.Float{Value: 0}, nil
	}}

	values["target_distance"] = &tengo.UserFunction{Name: "target_distance", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if t, ok := g.targets.CurrentTarget(); ok {
			return &tengo.Float{Value: g.self.Location().DistanceTo(t.Location())}, nil
		}
		return &tengo.Float{Value: -1}, nil
	}}

	values["clear_target"] = &tengo.UserFunction{Name: "clear_target", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if g.ctl == nil {
			return tengo.FalseValue, nil
		}
		g.ctl.ClearTarget()
		return tengo.TrueValue, nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		msg, _ := tengo.ToString(args[0])
		log.Printf("behavior: scripted %s: %s", g.id, msg)
		return tengo.TrueValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}
