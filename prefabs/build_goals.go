package prefabs

import (
	"fmt"
	"math/rand"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/mobmind/agent"
	"github.com/milk9111/mobmind/behavior"
	"github.com/milk9111/mobmind/goal"
)

// BuildContext carries everything a factory may need beyond the YAML:
// the controller being populated and the host hooks the data file
// cannot express. Registry nil means DefaultRegistry.
type BuildContext struct {
	Controller *agent.Controller
	Registry   Registry

	// Candidates feeds acquire_target scans.
	Candidates func() []agent.Entity
	// Strike lands attack hits in the host world.
	Strike func(agent.Entity)
	// Rand seeds wander, look_around, and random composites. Nil uses
	// the shared global source.
	Rand *rand.Rand
}

// Factory builds one goal from its spec entry.
type Factory func(bc *BuildContext, g GoalSpec) (goal.Goal, error)

// Registry maps behavior names to factories.
type Registry map[string]Factory

// Build compiles a single spec entry into a goal, wrapping it in its
// condition gate when one is declared. All problems surface here, at
// registration time.
func Build(bc *BuildContext, g GoalSpec) (goal.Goal, error) {
	if bc == nil || bc.Controller == nil {
		return nil, fmt.Errorf("prefabs: build: nil controller")
	}
	reg := bc.Registry
	if reg == nil {
		reg = DefaultRegistry()
	}
	factory, ok := reg[g.Behavior]
	if !ok {
		return nil, fmt.Errorf("prefabs: build: unknown behavior %q", g.Behavior)
	}
	built, err := factory(bc, g)
	if err != nil {
		return nil, err
	}
	if g.Condition != "" {
		built, err = newConditioned(built, bc.Controller, g.Condition)
		if err != nil {
			return nil, err
		}
	}
	return built, nil
}

// Apply builds every goal in the spec and registers it with the
// controller at its declared priority, in spec order.
func Apply(bc *BuildContext, spec Spec) error {
	for _, g := range spec.Goals {
		built, err := Build(bc, g)
		if err != nil {
			return fmt.Errorf("prefabs: apply %s: %w", spec.Name, err)
		}
		if err := bc.Controller.AddGoal(built, g.Priority); err != nil {
			return fmt.Errorf("prefabs: apply %s: %w", spec.Name, err)
		}
	}
	return nil
}

// DefaultRegistry returns a registry with every built-in behavior.
func DefaultRegistry() Registry {
	return Registry{
		"idle":           buildIdle,
		"wander":         buildWander,
		"patrol":         buildPatrol,
		"follow":         buildFollow,
		"attack":         buildAttack,
		"flee":           buildFlee,
		"acquire_target": buildAcquireTarget,
		"look_around":    buildLookAround,
		"scripted":       buildScripted,
		"composite":      buildComposite,
	}
}

type pointSpec struct {
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	World string  `yaml:"world"`
}

// location resolves the point, defaulting an omitted world to the
// agent's own so specs stay world-agnostic.
func (p pointSpec) location(fallbackWorld string) agent.Location {
	world := p.World
	if world == "" {
		world = fallbackWorld
	}
	return agent.Location{Pos: cp.Vector{X: p.X, Y: p.Y}, World: world}
}

type idleParamsSpec struct {
	Duration    int `yaml:"duration"`
	Cooldown    int `yaml:"cooldown"`
	MaxDuration int `yaml:"max_duration"`
}

func buildIdle(bc *BuildContext, g GoalSpec) (goal.Goal, error) {
	p, err := DecodeParams[idleParamsSpec](g.Params)
	if err != nil {
		return nil, fmt.Errorf("prefabs: idle params: %w", err)
	}
	return behavior.NewIdle(bc.Controller.Navigator(), behavior.IdleParams{
		ID:          g.ID,
		Duration:    p.Duration,
		Cooldown:    p.Cooldown,
		MaxDuration: p.MaxDuration,
	})
}

type wanderParamsSpec struct {
	Radius       float64    `yaml:"radius"`
	Speed        float64    `yaml:"speed"`
	MaxPathTries int        `yaml:"max_path_tries"`
	Anchor       *pointSpec `yaml:"anchor"`
	Cooldown     int        `yaml:"cooldown"`
	MaxDuration  int        `yaml:"max_duration"`
}

func buildWander(bc *BuildContext, g GoalSpec) (goal.Goal, error) {
	p, err := DecodeParams[wanderParamsSpec](g.Params)
	if err != nil {
		return nil, fmt.Errorf("prefabs: wander params: %w", err)
	}
	var anchor *agent.Location
	if p.Anchor != nil {
		loc := p.Anchor.location(bc.Controller.Entity().Location().World)
		anchor = &loc
	}
	return behavior.NewWander(bc.Controller.Entity(), bc.Controller.Navigator(), behavior.WanderParams{
		ID:           g.ID,
		Radius:       p.Radius,
		Speed:        p.Speed,
		MaxPathTries: p.MaxPathTries,
		Anchor:       anchor,
		Rand:         bc.Rand,
		Cooldown:     p.Cooldown,
		MaxDuration:  p.MaxDuration,
	})
}

type patrolParamsSpec struct {
	Waypoints     []pointSpec `yaml:"waypoints"`
	Speed         float64     `yaml:"speed"`
	ReachDistance float64     `yaml:"reach_distance"`
	RepathTicks   int         `yaml:"repath_ticks"`
	StallTicks    int         `yaml:"stall_ticks"`
	TeleportAfter float64     `yaml:"teleport_after"`
	Loop          bool        `yaml:"loop"`
	Cooldown      int         `yaml:"cooldown"`
	MaxDuration   int         `yaml:"max_duration"`
}

func buildPatrol(bc *BuildContext, g GoalSpec) (goal.Goal, error) {
	p, err := DecodeParams[patrolParamsSpec](g.Params)
	if err != nil {
		return nil, fmt.Errorf("prefabs: patrol params: %w", err)
	}
	home := bc.Controller.Entity().Location().World
	waypoints := make([]agent.Location, 0, len(p.Waypoints))
	for _, wp := range p.Waypoints {
		waypoints = append(waypoints, wp.location(home))
	}
	return behavior.NewPatrol(bc.Controller.Entity(), bc.Controller.Navigator(), behavior.PatrolParams{
		ID:            g.ID,
		Waypoints:     waypoints,
		Speed:         p.Speed,
		ReachDistance: p.ReachDistance,
		RepathTicks:   p.RepathTicks,
		StallTicks:    p.StallTicks,
		TeleportAfter: p.TeleportAfter,
		Loop:          p.Loop,
		Cooldown:      p.Cooldown,
		MaxDuration:   p.MaxDuration,
	})
}

type followParamsSpec struct {
	Speed            float64 `yaml:"speed"`
	StopDistance     float64 `yaml:"stop_distance"`
	GiveUpDistance   float64 `yaml:"give_up_distance"`
	TeleportDistance float64 `yaml:"teleport_distance"`
	RepathTicks      int     `yaml:"repath_ticks"`
	Cooldown         int     `yaml:"cooldown"`
	MaxDuration      int     `yaml:"max_duration"`
}

func buildFollow(bc *BuildContext, g GoalSpec) (goal.Goal, error) {
	p, err := DecodeParams[followParamsSpec](g.Params)
	if err != nil {
		return nil, fmt.Errorf("prefabs: follow params: %w", err)
	}
	return behavior.NewFollow(bc.Controller.Entity(), bc.Controller.Navigator(), bc.Controller, behavior.FollowParams{
		ID:               g.ID,
		Speed:            p.Speed,
		StopDistance:     p.StopDistance,
		GiveUpDistance:   p.GiveUpDistance,
		TeleportDistance: p.TeleportDistance,
		RepathTicks:      p.RepathTicks,
		Cooldown:         p.Cooldown,
		MaxDuration:      p.MaxDuration,
	})
}

type attackParamsSpec struct {
	Reach        float64 `yaml:"reach"`
	PursuitRange float64 `yaml:"pursuit_range"`
	Speed        float64 `yaml:"speed"`
	SwingTicks   int     `yaml:"swing_ticks"`
	RepathTicks  int     `yaml:"repath_ticks"`
	Cooldown     int     `yaml:"cooldown"`
	MaxDuration  int     `yaml:"max_duration"`
}

func buildAttack(bc *BuildContext, g GoalSpec) (goal.Goal, error) {
	p, err := DecodeParams[attackParamsSpec](g.Params)
	if err != nil {
		return nil, fmt.Errorf("prefabs: attack params: %w", err)
	}
	return behavior.NewAttack(bc.Controller.Entity(), bc.Controller.Navigator(), bc.Controller, behavior.AttackParams{
		ID:           g.ID,
		Reach:        p.Reach,
		PursuitRange: p.PursuitRange,
		Speed:        p.Speed,
		SwingTicks:   p.SwingTicks,
		RepathTicks:  p.RepathTicks,
		Strike:       bc.Strike,
		Cooldown:     p.Cooldown,
		MaxDuration:  p.MaxDuration,
	})
}

type fleeParamsSpec struct {
	DangerRadius  float64 `yaml:"danger_radius"`
	SafeDistance  float64 `yaml:"safe_distance"`
	Speed         float64 `yaml:"speed"`
	ProbeDistance float64 `yaml:"probe_distance"`
	MaxPathTries  int     `yaml:"max_path_tries"`
	RepathTicks   int     `yaml:"repath_ticks"`
	Cooldown      int     `yaml:"cooldown"`
	MaxDuration   int     `yaml:"max_duration"`
}

func buildFlee(bc *BuildContext, g GoalSpec) (goal.Goal, error) {
	p, err := DecodeParams[fleeParamsSpec](g.Params)
	if err != nil {
		return nil, fmt.Errorf("prefabs: flee params: %w", err)
	}
	return behavior.NewFlee(bc.Controller.Entity(), bc.Controller.Navigator(), bc.Controller, behavior.FleeParams{
		ID:            g.ID,
		DangerRadius:  p.DangerRadius,
		SafeDistance:  p.SafeDistance,
		Speed:         p.Speed,
		ProbeDistance: p.ProbeDistance,
		MaxPathTries:  p.MaxPathTries,
		RepathTicks:   p.RepathTicks,
		Cooldown:      p.Cooldown,
		MaxDuration:   p.MaxDuration,
	})
}

type acquireParamsSpec struct {
	Range       float64 `yaml:"range"`
	DropRange   float64 `yaml:"drop_range"`
	RescanTicks int     `yaml:"rescan_ticks"`
	Cooldown    int     `yaml:"cooldown"`
}

func buildAcquireTarget(bc *BuildContext, g GoalSpec) (goal.Goal, error) {
	p, err := DecodeParams[acquireParamsSpec](g.Params)
	if err != nil {
		return nil, fmt.Errorf("prefabs: acquire_target params: %w", err)
	}
	if bc.Candidates == nil {
		return nil, fmt.Errorf("prefabs: acquire_target: no candidates hook in build context")
	}
	return behavior.NewAcquireTarget(behavior.AcquireTargetParams{
		ID:          g.ID,
		Range:       p.Range,
		DropRange:   p.DropRange,
		RescanTicks: p.RescanTicks,
		Candidates:  bc.Candidates,
		Cooldown:    p.Cooldown,
	})
}

type lookParamsSpec struct {
	IntervalTicks int `yaml:"interval_ticks"`
	Duration      int `yaml:"duration"`
	Cooldown      int `yaml:"cooldown"`
}

func buildLookAround(bc *BuildContext, g GoalSpec) (goal.Goal, error) {
	p, err := DecodeParams[lookParamsSpec](g.Params)
	if err != nil {
		return nil, fmt.Errorf("prefabs: look_around params: %w", err)
	}
	return behavior.NewLookAround(bc.Controller.Entity(), behavior.LookAroundParams{
		ID:            g.ID,
		IntervalTicks: p.IntervalTicks,
		Duration:      p.Duration,
		Rand:          bc.Rand,
		Cooldown:      p.Cooldown,
	})
}

type scriptedParamsSpec struct {
	Cooldown    int `yaml:"cooldown"`
	MaxDuration int `yaml:"max_duration"`
}

func buildScripted(bc *BuildContext, g GoalSpec) (goal.Goal, error) {
	if g.Script == "" {
		return nil, fmt.Errorf("prefabs: scripted %s: missing script", g.ID)
	}
	p, err := DecodeParams[scriptedParamsSpec](g.Params)
	if err != nil {
		return nil, fmt.Errorf("prefabs: scripted params: %w", err)
	}
	flags, err := parseFlags(g.Flags)
	if err != nil {
		return nil, fmt.Errorf("prefabs: scripted %s: %w", g.ID, err)
	}
	src, err := LoadScript(g.Script)
	if err != nil {
		return nil, fmt.Errorf("prefabs: scripted %s: load %s: %w", g.ID, g.Script, err)
	}
	return behavior.NewScripted(bc.Controller.Entity(), bc.Controller.Navigator(), bc.Controller, behavior.ScriptedParams{
		ID:          g.ID,
		Flags:       flags,
		Source:      src,
		Cooldown:    p.Cooldown,
		MaxDuration: p.MaxDuration,
	})
}

type compositeParamsSpec struct {
	Uninterruptible bool `yaml:"uninterruptible"`
	Exclusive       bool `yaml:"exclusive"`
	Cooldown        int  `yaml:"cooldown"`
	MaxDuration     int  `yaml:"max_duration"`
}

func buildComposite(bc *BuildContext, g GoalSpec) (goal.Goal, error) {
	p, err := DecodeParams[compositeParamsSpec](g.Params)
	if err != nil {
		return nil, fmt.Errorf("prefabs: composite params: %w", err)
	}
	mode, err := parseMode(g.Mode)
	if err != nil {
		return nil, fmt.Errorf("prefabs: composite %s: %w", g.ID, err)
	}
	flags, err := parseFlags(g.Flags)
	if err != nil {
		return nil, fmt.Errorf("prefabs: composite %s: %w", g.ID, err)
	}
	subs := make([]goal.Goal, 0, len(g.Subs))
	for i, sub := range g.Subs {
		built, err := Build(bc, sub)
		if err != nil {
			return nil, fmt.Errorf("prefabs: composite %s: sub %d: %w", g.ID, i, err)
		}
		subs = append(subs, built)
	}
	return goal.NewComposite(goal.CompositeConfig{
		ID:              g.ID,
		Mode:            mode,
		Loop:            g.Loop,
		Uninterruptible: p.Uninterruptible,
		Exclusive:       p.Exclusive,
		Cooldown:        p.Cooldown,
		MaxDuration:     p.MaxDuration,
		Flags:           flags,
		Rand:            bc.Rand,
	}, subs...)
}

var flagsByName = map[string]goal.Flags{
	"movement": goal.FlagMovement,
	"look":     goal.FlagLook,
	"jump":     goal.FlagJump,
	"attack":   goal.FlagAttack,
	"target":   goal.FlagTarget,
}

func parseFlags(names []string) (goal.Flags, error) {
	var out goal.Flags
	for _, name := range names {
		f, ok := flagsByName[name]
		if !ok {
			return 0, fmt.Errorf("unknown flag %q", name)
		}
		out |= f
	}
	return out, nil
}

func parseMode(name string) (goal.Mode, error) {
	switch name {
	case "sequence", "":
		return goal.ModeSequence, nil
	case "selector":
		return goal.ModeSelector, nil
	case "parallel":
		return goal.ModeParallel, nil
	case "random":
		return goal.ModeRandom, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", name)
	}
}
