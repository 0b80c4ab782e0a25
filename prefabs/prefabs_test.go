package prefabs

import (
	"strings"
	"testing"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/mobmind/agent"
	"github.com/milk9111/mobmind/goal"
)

type fakeBody struct {
	loc   agent.Location
	valid bool
}

func (b *fakeBody) Location() agent.Location { return b.loc }
func (b *fakeBody) Valid() bool              { return b.valid }
func (b *fakeBody) Teleport(l agent.Location) { b.loc = l }
func (b *fakeBody) LookAt(cp.Vector)          {}

type fakeNav struct {
	moving bool
}

func (n *fakeNav) PathTo(agent.Location, float64) agent.PathOutcome { return agent.PathSuccess }
func (n *fakeNav) Stop()                                            { n.moving = false }
func (n *fakeNav) IsMoving() bool                                   { return n.moving }

func newBuildContext(t *testing.T) *BuildContext {
	t.Helper()
	body := &fakeBody{loc: agent.Location{Pos: cp.Vector{X: 100, Y: 100}, World: "arena"}, valid: true}
	ctl, err := agent.NewController(body, &fakeNav{})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return &BuildContext{
		Controller: ctl,
		Candidates: func() []agent.Entity { return nil },
	}
}

func TestLoadEmbeddedGoalSets(t *testing.T) {
	cases := []struct {
		file  string
		name  string
		goals int
	}{
		{"guard.yaml", "guard", 4},
		{"wanderer.yaml", "wanderer", 2},
		{"coward.yaml", "coward", 4},
	}
	for _, tc := range cases {
		t.Run(tc.file, func(t *testing.T) {
			spec, err := LoadGoalSet(tc.file)
			if err != nil {
				t.Fatalf("LoadGoalSet: %v", err)
			}
			if spec.Name != tc.name {
				t.Errorf("name = %q, want %q", spec.Name, tc.name)
			}
			if len(spec.Goals) != tc.goals {
				t.Errorf("goals = %d, want %d", len(spec.Goals), tc.goals)
			}
		})
	}
}

func TestLoadGoalSetMissing(t *testing.T) {
	if _, err := LoadGoalSet("no-such-prefab.yaml"); err == nil {
		t.Fatalf("expected error for a missing spec")
	}
}

func TestApplyEmbeddedSpecs(t *testing.T) {
	for _, name := range []string{"guard.yaml", "wanderer.yaml", "coward.yaml"} {
		t.Run(name, func(t *testing.T) {
			bc := newBuildContext(t)
			spec, err := LoadGoalSet(name)
			if err != nil {
				t.Fatalf("LoadGoalSet: %v", err)
			}
			if err := Apply(bc, spec); err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if got := bc.Controller.Selector().Len(); got != len(spec.Goals) {
				t.Fatalf("registered %d goals, want %d", got, len(spec.Goals))
			}
			// The lineup must survive a few arbitration passes.
			for i := 0; i < 5; i++ {
				bc.Controller.Update()
			}
		})
	}
}

func TestBuildErrors(t *testing.T) {
	cases := []struct {
		name string
		spec GoalSpec
		want string
	}{
		{"unknown behavior", GoalSpec{Behavior: "juggle"}, "unknown behavior"},
		{"bad condition", GoalSpec{Behavior: "idle", ID: "i", Condition: "has_target &&"}, "condition"},
		{"condition type", GoalSpec{Behavior: "idle", ID: "i", Condition: "target_distance"}, "condition"},
		{"bad param type", GoalSpec{Behavior: "idle", ID: "i", Params: map[string]any{"duration": "soon"}}, "params"},
		{"negative param", GoalSpec{Behavior: "idle", ID: "i", Params: map[string]any{"duration": -5}}, "negative"},
		{"bad mode", GoalSpec{Behavior: "composite", ID: "c", Mode: "roulette",
			Subs: []GoalSpec{{Behavior: "idle", ID: "i"}}}, "unknown mode"},
		{"bad flag", GoalSpec{Behavior: "composite", ID: "c", Flags: []string{"dance"},
			Subs: []GoalSpec{{Behavior: "idle", ID: "i"}}}, "unknown flag"},
		{"scripted without script", GoalSpec{Behavior: "scripted", ID: "s"}, "missing script"},
		{"scripted missing file", GoalSpec{Behavior: "scripted", ID: "s", Script: "ghost.tengo"}, "load"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bc := newBuildContext(t)
			_, err := Build(bc, tc.spec)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestBuildComposite(t *testing.T) {
	bc := newBuildContext(t)
	built, err := Build(bc, GoalSpec{
		Behavior: "composite",
		ID:       "routine",
		Mode:     "sequence",
		Loop:     true,
		Subs: []GoalSpec{
			{Behavior: "wander", ID: "w", Params: map[string]any{"radius": 50}},
			{Behavior: "idle", ID: "i", Params: map[string]any{"duration": 10}},
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	comp, ok := built.(*goal.Composite)
	if !ok {
		t.Fatalf("built %T, want *goal.Composite", built)
	}
	if comp.Mode() != goal.ModeSequence {
		t.Fatalf("mode = %s", comp.Mode())
	}
	if comp.Flags() != goal.FlagMovement {
		t.Fatalf("flags = %s, want the sub-goal union", comp.Flags())
	}
}

func TestConditionGatesCanStart(t *testing.T) {
	bc := newBuildContext(t)
	built, err := Build(bc, GoalSpec{
		Behavior:  "idle",
		ID:        "guarded",
		Condition: "has_target && target_distance < 50",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := bc.Controller.AddGoal(built, 0); err != nil {
		t.Fatalf("AddGoal: %v", err)
	}

	if built.CanStart() {
		t.Fatalf("condition must hold CanStart without a target")
	}

	near := &fakeBody{loc: agent.Location{Pos: cp.Vector{X: 120, Y: 100}, World: "arena"}, valid: true}
	bc.Controller.SetTarget(near)
	if !built.CanStart() {
		t.Fatalf("condition must release CanStart with a target at distance 20")
	}

	far := &fakeBody{loc: agent.Location{Pos: cp.Vector{X: 500, Y: 100}, World: "arena"}, valid: true}
	bc.Controller.SetTarget(far)
	if built.CanStart() {
		t.Fatalf("condition must hold CanStart past the distance bound")
	}
}

func TestConditionSeesWorldState(t *testing.T) {
	bc := newBuildContext(t)
	built, err := Build(bc, GoalSpec{
		Behavior:  "idle",
		ID:        "homesick",
		Condition: `world == "arena" && self_x == 100.0 && !moving`,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := bc.Controller.AddGoal(built, 0); err != nil {
		t.Fatalf("AddGoal: %v", err)
	}
	if !built.CanStart() {
		t.Fatalf("condition should pass against the fake world state")
	}
}

func TestDecodeParams(t *testing.T) {
	type params struct {
		Radius float64 `yaml:"radius"`
		Loop   bool    `yaml:"loop"`
	}
	got, err := DecodeParams[params](map[string]any{"radius": 120, "loop": true})
	if err != nil {
		t.Fatalf("DecodeParams: %v", err)
	}
	if got.Radius != 120 || !got.Loop {
		t.Fatalf("decoded %+v", got)
	}

	zero, err := DecodeParams[params](nil)
	if err != nil || zero.Radius != 0 {
		t.Fatalf("nil params should decode to the zero value, got %+v, %v", zero, err)
	}
}

func TestLoadEmbeddedScript(t *testing.T) {
	for _, name := range []string{"sentry.tengo", "scripts/sentry.tengo"} {
		src, err := LoadScript(name)
		if err != nil {
			t.Fatalf("LoadScript(%q): %v", name, err)
		}
		if len(src) == 0 {
			t.Fatalf("LoadScript(%q): empty", name)
		}
	}
}

func TestWatcherFiltersExtensions(t *testing.T) {
	cases := []struct {
		path string
		spec bool
		scpt bool
	}{
		{"prefabs/guard.yaml", true, false},
		{"prefabs/guard.YML", true, false},
		{"prefabs/scripts/sentry.tengo", false, true},
		{"prefabs/readme.txt", false, false},
	}
	for _, tc := range cases {
		if got := isSpecFile(tc.path); got != tc.spec {
			t.Errorf("isSpecFile(%q) = %v", tc.path, got)
		}
		if got := isScriptFile(tc.path); got != tc.scpt {
			t.Errorf("isScriptFile(%q) = %v", tc.path, got)
		}
	}
}
