package btgoal

import (
	"errors"
	"testing"

	bt "github.com/joeycumines/go-behaviortree"

	"github.com/milk9111/mobmind/goal"
)

func leaf(status bt.Status, err error) bt.Node {
	return bt.New(func(children []bt.Node) (bt.Status, error) {
		return status, err
	})
}

func TestNewValidation(t *testing.T) {
	node := leaf(bt.Success, nil)

	tests := []struct {
		name  string
		id    string
		node  bt.Node
		opts  []Option
		valid bool
	}{
		{name: "ok", id: "tree", node: node, valid: true},
		{name: "empty id", id: "", node: node},
		{name: "nil node", id: "tree", node: nil},
		{name: "negative cooldown", id: "tree", node: node, opts: []Option{WithCooldown(-1)}},
		{name: "negative max duration", id: "tree", node: node, opts: []Option{WithMaxDuration(-5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.id, goal.FlagMovement, tt.node, tt.opts...)
			if tt.valid {
				if err != nil {
					t.Fatalf("New returned error: %v", err)
				}
				if g.ID() != tt.id {
					t.Errorf("ID = %q, want %q", g.ID(), tt.id)
				}
				return
			}
			if err == nil {
				t.Fatal("New accepted invalid config")
			}
		})
	}
}

func TestTickStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		node       bt.Node
		wantStatus goal.Status
		wantReason string
	}{
		{name: "running", node: leaf(bt.Running, nil), wantStatus: goal.StatusRunning},
		{name: "success", node: leaf(bt.Success, nil), wantStatus: goal.StatusSuccess, wantReason: "tree complete"},
		{name: "failure", node: leaf(bt.Failure, nil), wantStatus: goal.StatusFailure, wantReason: "tree failed"},
		{name: "error", node: leaf(bt.Failure, errors.New("boom")), wantStatus: goal.StatusFailure, wantReason: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New("tree", goal.FlagMovement, tt.node)
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			res := g.Tick()
			if res.Status != tt.wantStatus {
				t.Fatalf("Tick status = %v, want %v", res.Status, tt.wantStatus)
			}
			if tt.wantReason != "" && res.Reason != tt.wantReason {
				t.Errorf("Tick reason = %q, want %q", res.Reason, tt.wantReason)
			}
		})
	}
}

func TestOptions(t *testing.T) {
	gate := false
	var stopped []goal.Result
	g, err := New("tree", goal.FlagAttack, leaf(bt.Running, nil),
		WithCooldown(4),
		WithMaxDuration(9),
		Uninterruptible(),
		WithCanStart(func() bool { return gate }),
		WithStop(func(res goal.Result) { stopped = append(stopped, res) }),
	)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if g.Cooldown() != 4 {
		t.Errorf("Cooldown = %d, want 4", g.Cooldown())
	}
	if g.MaxDuration() != 9 {
		t.Errorf("MaxDuration = %d, want 9", g.MaxDuration())
	}
	if g.CanBeInterrupted() {
		t.Error("CanBeInterrupted = true, want false")
	}
	if g.CanStart() {
		t.Error("CanStart = true before gate opened")
	}
	gate = true
	if !g.CanStart() {
		t.Error("CanStart = false after gate opened")
	}

	g.Stop(goal.Succeed("done"))
	if len(stopped) != 1 || stopped[0].Status != goal.StatusSuccess {
		t.Errorf("stop hook saw %v, want one success", stopped)
	}
}

func TestRunsUnderSelector(t *testing.T) {
	ticks := 0
	tree := bt.New(
		bt.Sequence,
		leaf(bt.Success, nil),
		bt.New(func(children []bt.Node) (bt.Status, error) {
			ticks++
			if ticks%3 == 0 {
				return bt.Success, nil
			}
			return bt.Running, nil
		}),
	)

	g, err := New("tree", goal.FlagMovement, tree, WithCooldown(2))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	sel := goal.NewSelector()
	if err := sel.Register(g, 1); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	for i := 0; i < 3; i++ {
		sel.Tick()
	}
	if active := sel.ActiveGoals(); len(active) != 0 {
		t.Fatalf("goal still active after tree success: %v", active)
	}
	if ticks != 3 {
		t.Errorf("tree leaf ticked %d times, want 3", ticks)
	}

	events := sel.Events().Drain()
	var sawSuccess bool
	for _, ev := range events {
		if ev.Kind == goal.EventStopped && ev.Result.Status == goal.StatusSuccess {
			sawSuccess = true
		}
	}
	if !sawSuccess {
		t.Errorf("no success stop event in %v", events)
	}

	// Cooldown keeps the tree parked before it can go again.
	sel.Tick()
	if active := sel.ActiveGoals(); len(active) != 0 {
		t.Fatalf("goal restarted during cooldown: %v", active)
	}
	sel.Tick()
	sel.Tick()
	if active := sel.ActiveGoals(); len(active) != 1 {
		t.Fatalf("goal did not restart after cooldown, active = %v", active)
	}
}
