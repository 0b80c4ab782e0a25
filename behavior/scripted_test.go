package behavior

import (
	"testing"

	"github.com/milk9111/mobmind/agent"
	"github.com/milk9111/mobmind/goal"
)

const countdownScript = `
on_start := func(engine, state) {
	state.count = 0
}

on_tick := func(engine, state) {
	state.count += 1
	if state.count >= 3 {
		return "success:done counting"
	}
	return "running"
}

should_continue := func(engine, state) {
	return state.count < 100
}

on_stop := func(engine, state, result) {
	engine.stop_navigation()
}
`

const navScript = `
on_start := func(engine, state) {
	engine.navigate_to(engine.self_x() + 100.0, engine.self_y(), 1.0)
}

on_tick := func(engine, state) {
	if engine.has_target() {
		engine.look_at(engine.target_x(), engine.target_y())
	}
	if !engine.is_moving() {
		return "success:arrived"
	}
	return "running"
}

should_continue := func(engine, state) {
	return true
}

on_stop := func(engine, state, result) {
}
`

func TestScriptedValidation(t *testing.T) {
	body := bodyAt(0, 0)
	nav := &fakeNav{}
	prov := &fakeProvider{}

	cases := []struct {
		name string
		p    ScriptedParams
	}{
		{"empty ID", ScriptedParams{Source: []byte(countdownScript)}},
		{"empty source", ScriptedParams{ID: "s"}},
		{"syntax error", ScriptedParams{ID: "s", Source: []byte("on_tick := func(")}},
		{"missing lifecycle funcs", ScriptedParams{ID: "s", Source: []byte(`x := 1`)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewScripted(body, nav, prov, tc.p); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestScriptedLifecycle(t *testing.T) {
	body := bodyAt(0, 0)
	nav := &fakeNav{}
	prov := &fakeProvider{}

	g, err := NewScripted(body, nav, prov, ScriptedParams{
		ID:     "countdown",
		Flags:  goal.FlagLook,
		Source: []byte(countdownScript),
	})
	if err != nil {
		t.Fatalf("NewScripted: %v", err)
	}
	if g.Flags() != goal.FlagLook {
		t.Fatalf("flags = %s", g.Flags())
	}

	g.Start()
	for i := 0; i < 2; i++ {
		res := g.Tick()
		if res.Terminal() {
			t.Fatalf("tick %d = %s", i, res)
		}
		if !g.ShouldContinue() {
			t.Fatalf("ShouldContinue flipped early")
		}
	}
	res := g.Tick()
	if res.Status != goal.StatusSuccess || res.Reason != "done counting" {
		t.Fatalf("tick 3 = %s, want success with reason", res)
	}

	// One halt from the script's stop_navigation, one from Stop itself.
	g.Stop(res)
	if nav.stops != 2 {
		t.Fatalf("stops = %d, want 2", nav.stops)
	}

	// A fresh activation starts the count over.
	g.Start()
	if res := g.Tick(); res.Terminal() {
		t.Fatalf("state leaked across activations: %s", res)
	}
}

func TestScriptedEngineBindings(t *testing.T) {
	body := bodyAt(10, 20)
	nav := &fakeNav{outcome: agent.PathSuccess}
	target := &fakeEntity{loc: loc(300, 20), valid: true}
	prov := &fakeProvider{target: target}

	g, err := NewScripted(body, nav, prov, ScriptedParams{
		ID:     "walker",
		Source: []byte(navScript),
	})
	if err != nil {
		t.Fatalf("NewScripted: %v", err)
	}

	g.Start()
	if len(nav.paths) != 1 {
		t.Fatalf("on_start must request a path, got %d", len(nav.paths))
	}
	if nav.paths[0].Pos.X != 110 || nav.paths[0].Pos.Y != 20 {
		t.Fatalf("path goal = %v, want self + 100 on x", nav.paths[0].Pos)
	}

	if res := g.Tick(); res.Terminal() {
		t.Fatalf("walking tick = %s", res)
	}
	if len(body.lookedAt) != 1 || body.lookedAt[0].X != 300 {
		t.Fatalf("script look_at did not reach the entity: %v", body.lookedAt)
	}

	nav.arrive()
	if res := g.Tick(); res.Status != goal.StatusSuccess {
		t.Fatalf("arrival = %s, want success", res)
	}
}
