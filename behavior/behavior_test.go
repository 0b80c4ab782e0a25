package behavior

import (
	"testing"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/mobmind/agent"
	"github.com/milk9111/mobmind/goal"
)

type fakeEntity struct {
	loc   agent.Location
	valid bool
}

func (e *fakeEntity) Location() agent.Location { return e.loc }
func (e *fakeEntity) Valid() bool              { return e.valid }

type fakeBody struct {
	fakeEntity
	teleports []agent.Location
	lookedAt  []cp.Vector
}

func (b *fakeBody) Teleport(loc agent.Location) {
	b.teleports = append(b.teleports, loc)
	b.loc = loc
}

func (b *fakeBody) LookAt(p cp.Vector) { b.lookedAt = append(b.lookedAt, p) }

// fakeNav accepts or rejects every path per outcome and pretends to
// walk accepted routes until Stop or arrive.
type fakeNav struct {
	outcome agent.PathOutcome
	paths   []agent.Location
	stops   int
	moving  bool
}

func (n *fakeNav) PathTo(loc agent.Location, speed float64) agent.PathOutcome {
	n.paths = append(n.paths, loc)
	if n.outcome != agent.PathFailed {
		n.moving = true
	}
	return n.outcome
}

func (n *fakeNav) Stop()          { n.stops++; n.moving = false }
func (n *fakeNav) IsMoving() bool { return n.moving }

func (n *fakeNav) arrive() { n.moving = false }

type fakeProvider struct {
	target agent.Entity
}

func (p *fakeProvider) CurrentTarget() (agent.Entity, bool) {
	if p.target == nil || !p.target.Valid() {
		return nil, false
	}
	return p.target, true
}

func bodyAt(x, y float64) *fakeBody {
	return &fakeBody{fakeEntity: fakeEntity{loc: loc(x, y), valid: true}}
}

func loc(x, y float64) agent.Location {
	return agent.Location{Pos: cp.Vector{X: x, Y: y}, World: "arena"}
}

func TestConstructorValidation(t *testing.T) {
	body := bodyAt(0, 0)
	nav := &fakeNav{}
	prov := &fakeProvider{}

	cases := []struct {
		name string
		make func() error
	}{
		{"idle nil nav", func() error { _, err := NewIdle(nil, IdleParams{}); return err }},
		{"idle negative duration", func() error { _, err := NewIdle(nav, IdleParams{Duration: -1}); return err }},
		{"wander nil entity", func() error { _, err := NewWander(nil, nav, WanderParams{}); return err }},
		{"wander negative radius", func() error { _, err := NewWander(body, nav, WanderParams{Radius: -1}); return err }},
		{"patrol no waypoints", func() error { _, err := NewPatrol(body, nav, PatrolParams{}); return err }},
		{"follow nil provider", func() error { _, err := NewFollow(body, nav, nil, FollowParams{}); return err }},
		{"attack nil nav", func() error { _, err := NewAttack(body, nil, prov, AttackParams{}); return err }},
		{"flee safe inside danger", func() error {
			_, err := NewFlee(body, nav, prov, FleeParams{DangerRadius: 200, SafeDistance: 100})
			return err
		}},
		{"acquire nil candidates", func() error { _, err := NewAcquireTarget(AcquireTargetParams{}); return err }},
		{"acquire drop inside range", func() error {
			_, err := NewAcquireTarget(AcquireTargetParams{
				Range:      200,
				DropRange:  100,
				Candidates: func() []agent.Entity { return nil },
			})
			return err
		}},
		{"look nil entity", func() error { _, err := NewLookAround(nil, LookAroundParams{}); return err }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.make() == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestIdle(t *testing.T) {
	nav := &fakeNav{moving: true}
	g, err := NewIdle(nav, IdleParams{Duration: 2})
	if err != nil {
		t.Fatalf("NewIdle: %v", err)
	}
	if g.ID() != "idle" {
		t.Fatalf("default ID = %q", g.ID())
	}
	if g.Flags() != goal.FlagMovement {
		t.Fatalf("flags = %s", g.Flags())
	}

	g.Start()
	if nav.stops != 1 {
		t.Fatalf("Start must halt the navigator")
	}
	if res := g.Tick(); res.Terminal() {
		t.Fatalf("tick 1 = %s", res)
	}
	if res := g.Tick(); res.Status != goal.StatusSuccess {
		t.Fatalf("tick 2 = %s, want success", res)
	}
}

func TestIdleForever(t *testing.T) {
	g, err := NewIdle(&fakeNav{}, IdleParams{})
	if err != nil {
		t.Fatalf("NewIdle: %v", err)
	}
	g.Start()
	for i := 0; i < 50; i++ {
		if res := g.Tick(); res.Terminal() {
			t.Fatalf("duration 0 must idle forever, got %s on tick %d", res, i)
		}
	}
}

func TestWanderArrives(t *testing.T) {
	body := bodyAt(100, 100)
	nav := &fakeNav{outcome: agent.PathSuccess}
	g, err := NewWander(body, nav, WanderParams{Radius: 50})
	if err != nil {
		t.Fatalf("NewWander: %v", err)
	}

	g.Start()
	if res := g.Tick(); res.Terminal() {
		t.Fatalf("first tick = %s", res)
	}
	if len(nav.paths) != 1 {
		t.Fatalf("paths = %d, want 1", len(nav.paths))
	}
	picked := nav.paths[0]
	if picked.World != "arena" {
		t.Fatalf("picked world = %q", picked.World)
	}
	if d := picked.Pos.Distance(body.loc.Pos); d > 50 {
		t.Fatalf("picked point %.1f outside radius", d)
	}

	if res := g.Tick(); res.Terminal() {
		t.Fatalf("still walking, got %s", res)
	}
	nav.arrive()
	if res := g.Tick(); res.Status != goal.StatusSuccess {
		t.Fatalf("arrival tick = %s, want success", res)
	}

	g.Stop(goal.Succeed("arrived"))
	if nav.stops == 0 {
		t.Fatalf("Stop must halt the navigator")
	}
}

func TestWanderGivesUp(t *testing.T) {
	body := bodyAt(0, 0)
	nav := &fakeNav{outcome: agent.PathFailed}
	g, err := NewWander(body, nav, WanderParams{MaxPathTries: 2})
	if err != nil {
		t.Fatalf("NewWander: %v", err)
	}

	g.Start()
	for i := 0; i < 2; i++ {
		if res := g.Tick(); res.Terminal() {
			t.Fatalf("try %d = %s", i, res)
		}
	}
	if res := g.Tick(); res.Status != goal.StatusFailure {
		t.Fatalf("after tries exhausted = %s, want failure", res)
	}
}

func TestPatrolRoute(t *testing.T) {
	body := bodyAt(0, 0)
	nav := &fakeNav{outcome: agent.PathSuccess}
	g, err := NewPatrol(body, nav, PatrolParams{
		Waypoints:     []agent.Location{loc(0, 0), loc(100, 0)},
		ReachDistance: 5,
	})
	if err != nil {
		t.Fatalf("NewPatrol: %v", err)
	}

	g.Start()
	// Standing on the first waypoint advances immediately.
	if res := g.Tick(); res.Terminal() {
		t.Fatalf("advance tick = %s", res)
	}
	if res := g.Tick(); res.Terminal() {
		t.Fatalf("walking tick = %s", res)
	}
	if len(nav.paths) != 1 || nav.paths[0].Pos.X != 100 {
		t.Fatalf("expected one path to the second waypoint, got %v", nav.paths)
	}

	body.loc = loc(99, 0)
	if res := g.Tick(); res.Status != goal.StatusSuccess {
		t.Fatalf("route end = %s, want success", res)
	}
}

func TestPatrolLoopWraps(t *testing.T) {
	body := bodyAt(0, 0)
	nav := &fakeNav{outcome: agent.PathSuccess}
	g, err := NewPatrol(body, nav, PatrolParams{
		Waypoints:     []agent.Location{loc(0, 0)},
		ReachDistance: 5,
		Loop:          true,
	})
	if err != nil {
		t.Fatalf("NewPatrol: %v", err)
	}

	g.Start()
	for i := 0; i < 10; i++ {
		if res := g.Tick(); res.Terminal() {
			t.Fatalf("looping patrol ended with %s on tick %d", res, i)
		}
	}
}

func TestPatrolTeleportRecovery(t *testing.T) {
	body := bodyAt(0, 0)
	nav := &fakeNav{outcome: agent.PathSuccess}
	g, err := NewPatrol(body, nav, PatrolParams{
		Waypoints:     []agent.Location{loc(1000, 0), loc(1010, 0)},
		ReachDistance: 5,
		TeleportAfter: 500,
	})
	if err != nil {
		t.Fatalf("NewPatrol: %v", err)
	}

	g.Start()
	if res := g.Tick(); res.Terminal() {
		t.Fatalf("teleport tick = %s", res)
	}
	if len(body.teleports) != 1 || body.teleports[0].Pos.X != 1000 {
		t.Fatalf("expected teleport onto the waypoint, got %v", body.teleports)
	}
}

func TestPatrolUnreachable(t *testing.T) {
	body := bodyAt(0, 0)
	nav := &fakeNav{outcome: agent.PathFailed}
	g, err := NewPatrol(body, nav, PatrolParams{
		Waypoints:     []agent.Location{loc(100, 0)},
		ReachDistance: 5,
		RepathTicks:   1,
	})
	if err != nil {
		t.Fatalf("NewPatrol: %v", err)
	}

	g.Start()
	var last goal.Result
	for i := 0; i < 10; i++ {
		last = g.Tick()
		if last.Terminal() {
			break
		}
	}
	if last.Status != goal.StatusFailure {
		t.Fatalf("unreachable waypoint = %s, want failure", last)
	}
}

func TestFollowKeepsUp(t *testing.T) {
	body := bodyAt(0, 0)
	nav := &fakeNav{outcome: agent.PathSuccess}
	target := &fakeEntity{loc: loc(100, 0), valid: true}
	prov := &fakeProvider{target: target}

	g, err := NewFollow(body, nav, prov, FollowParams{StopDistance: 10, GiveUpDistance: 400})
	if err != nil {
		t.Fatalf("NewFollow: %v", err)
	}

	if !g.CanStart() {
		t.Fatalf("CanStart with a distant target")
	}

	g.Start()
	if res := g.Tick(); res.Terminal() {
		t.Fatalf("tick = %s", res)
	}
	if len(nav.paths) != 1 || nav.paths[0].Pos.X != 100 {
		t.Fatalf("expected a path to the target, got %v", nav.paths)
	}

	// Inside stop distance the follower parks.
	body.loc = loc(95, 0)
	if res := g.Tick(); res.Terminal() {
		t.Fatalf("parked tick = %s", res)
	}
	if nav.stops != 1 {
		t.Fatalf("expected navigation halted inside stop distance")
	}

	if !g.ShouldContinue() {
		t.Fatalf("ShouldContinue inside give-up range")
	}
	target.loc = loc(1000, 0)
	if g.ShouldContinue() {
		t.Fatalf("ShouldContinue beyond give-up range")
	}

	prov.target = nil
	if res := g.Tick(); res.Status != goal.StatusFailure {
		t.Fatalf("lost target = %s, want failure", res)
	}
}

func TestFollowTeleportsWhenFarBehind(t *testing.T) {
	body := bodyAt(0, 0)
	nav := &fakeNav{outcome: agent.PathSuccess}
	target := &fakeEntity{loc: loc(900, 0), valid: true}
	prov := &fakeProvider{target: target}

	g, err := NewFollow(body, nav, prov, FollowParams{StopDistance: 10, TeleportDistance: 500})
	if err != nil {
		t.Fatalf("NewFollow: %v", err)
	}

	g.Start()
	if res := g.Tick(); res.Terminal() {
		t.Fatalf("tick = %s", res)
	}
	if len(body.teleports) != 1 {
		t.Fatalf("expected a teleport next to the target")
	}
	if d := body.loc.Pos.Distance(target.loc.Pos); d > 10 {
		t.Fatalf("landed %.1f away from the target", d)
	}
}

func TestAttackStrikesInReach(t *testing.T) {
	body := bodyAt(0, 0)
	nav := &fakeNav{outcome: agent.PathSuccess}
	target := &fakeEntity{loc: loc(30, 0), valid: true}
	prov := &fakeProvider{target: target}

	var hits int
	g, err := NewAttack(body, nav, prov, AttackParams{
		Reach:      40,
		SwingTicks: 3,
		Strike:     func(agent.Entity) { hits++ },
	})
	if err != nil {
		t.Fatalf("NewAttack: %v", err)
	}

	if !g.CanStart() {
		t.Fatalf("CanStart with a target in pursuit range")
	}

	g.Start()
	for i := 0; i < 4; i++ {
		if res := g.Tick(); res.Terminal() {
			t.Fatalf("tick %d = %s", i, res)
		}
	}
	// First swing lands immediately, the timer spaces out the second.
	if hits != 2 {
		t.Fatalf("hits = %d, want 2 over 4 ticks with 3-tick swings", hits)
	}
	if len(body.lookedAt) != 4 {
		t.Fatalf("attack must face the target every tick, looked %d times", len(body.lookedAt))
	}
}

func TestAttackPursues(t *testing.T) {
	body := bodyAt(0, 0)
	nav := &fakeNav{outcome: agent.PathSuccess}
	target := &fakeEntity{loc: loc(200, 0), valid: true}
	prov := &fakeProvider{target: target}

	g, err := NewAttack(body, nav, prov, AttackParams{Reach: 40, PursuitRange: 300})
	if err != nil {
		t.Fatalf("NewAttack: %v", err)
	}

	g.Start()
	if res := g.Tick(); res.Terminal() {
		t.Fatalf("tick = %s", res)
	}
	if len(nav.paths) != 1 {
		t.Fatalf("expected a chase path")
	}

	target.loc = loc(400, 0)
	if g.ShouldContinue() {
		t.Fatalf("ShouldContinue beyond pursuit range")
	}
}

func TestFleeEscapes(t *testing.T) {
	body := bodyAt(0, 0)
	nav := &fakeNav{outcome: agent.PathSuccess}
	threat := &fakeEntity{loc: loc(50, 0), valid: true}
	prov := &fakeProvider{target: threat}

	g, err := NewFlee(body, nav, prov, FleeParams{DangerRadius: 100, SafeDistance: 200, RepathTicks: 1})
	if err != nil {
		t.Fatalf("NewFlee: %v", err)
	}

	if !g.CanStart() {
		t.Fatalf("CanStart with a threat in danger radius")
	}

	g.Start()
	if res := g.Tick(); res.Terminal() {
		t.Fatalf("tick = %s", res)
	}
	if len(nav.paths) != 1 {
		t.Fatalf("expected an escape path")
	}
	// The escape heading points away from the threat.
	if nav.paths[0].Pos.X >= 0 {
		t.Fatalf("escape point %v is not away from the threat", nav.paths[0].Pos)
	}

	body.loc = loc(-250, 0)
	if res := g.Tick(); res.Status != goal.StatusSuccess {
		t.Fatalf("beyond safe distance = %s, want success", res)
	}
}

func TestFleeCornered(t *testing.T) {
	body := bodyAt(0, 0)
	nav := &fakeNav{outcome: agent.PathFailed}
	threat := &fakeEntity{loc: loc(20, 0), valid: true}
	prov := &fakeProvider{target: threat}

	g, err := NewFlee(body, nav, prov, FleeParams{
		DangerRadius: 100,
		SafeDistance: 200,
		RepathTicks:  1,
		MaxPathTries: 2,
	})
	if err != nil {
		t.Fatalf("NewFlee: %v", err)
	}

	g.Start()
	if res := g.Tick(); res.Terminal() {
		t.Fatalf("first try = %s", res)
	}
	if res := g.Tick(); res.Status != goal.StatusFailure {
		t.Fatalf("cornered = %s, want failure", res)
	}
	// Every bearing in the fan was probed each attempt.
	if len(nav.paths) != 2*len(fleeAngles) {
		t.Fatalf("probed %d bearings, want %d", len(nav.paths), 2*len(fleeAngles))
	}
}

func TestFleeThreatGone(t *testing.T) {
	body := bodyAt(0, 0)
	nav := &fakeNav{outcome: agent.PathSuccess}
	threat := &fakeEntity{loc: loc(20, 0), valid: true}
	prov := &fakeProvider{target: threat}

	g, err := NewFlee(body, nav, prov, FleeParams{DangerRadius: 100, SafeDistance: 200})
	if err != nil {
		t.Fatalf("NewFlee: %v", err)
	}

	g.Start()
	threat.valid = false
	if res := g.Tick(); res.Status != goal.StatusSuccess {
		t.Fatalf("threat gone = %s, want success", res)
	}
}

func TestAcquireTarget(t *testing.T) {
	body := bodyAt(0, 0)
	nav := &fakeNav{}
	ctl, err := agent.NewController(body, nav)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	near := &fakeEntity{loc: loc(50, 0), valid: true}
	far := &fakeEntity{loc: loc(90, 0), valid: true}
	g, err := NewAcquireTarget(AcquireTargetParams{
		Range:       100,
		DropRange:   150,
		RescanTicks: 1,
		Candidates:  func() []agent.Entity { return []agent.Entity{far, near} },
	})
	if err != nil {
		t.Fatalf("NewAcquireTarget: %v", err)
	}
	if err := ctl.AddGoal(g, 0); err != nil {
		t.Fatalf("AddGoal: %v", err)
	}

	if !g.CanStart() {
		t.Fatalf("CanStart with candidates in range")
	}

	g.Start()
	got, ok := ctl.CurrentTarget()
	if !ok || got != agent.Entity(near) {
		t.Fatalf("expected the nearest candidate targeted")
	}

	// The target drifting past drop range releases the slot; the rescan
	// finds the other candidate.
	near.loc = loc(500, 0)
	if res := g.Tick(); res.Terminal() {
		t.Fatalf("rescan tick = %s", res)
	}
	got, ok = ctl.CurrentTarget()
	if !ok || got != agent.Entity(far) {
		t.Fatalf("expected a swap to the remaining candidate")
	}

	g.Stop(goal.Cancelled())
	if _, ok := ctl.CurrentTarget(); ok {
		t.Fatalf("Stop must clear the target slot")
	}
}

func TestAcquireTargetNoCandidates(t *testing.T) {
	body := bodyAt(0, 0)
	nav := &fakeNav{}
	ctl, err := agent.NewController(body, nav)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	g, err := NewAcquireTarget(AcquireTargetParams{
		RescanTicks: 1,
		Candidates:  func() []agent.Entity { return nil },
	})
	if err != nil {
		t.Fatalf("NewAcquireTarget: %v", err)
	}
	if err := ctl.AddGoal(g, 0); err != nil {
		t.Fatalf("AddGoal: %v", err)
	}

	if g.CanStart() {
		t.Fatalf("CanStart with nothing to target")
	}

	g.Start()
	if res := g.Tick(); res.Status != goal.StatusFailure {
		t.Fatalf("empty scan = %s, want failure", res)
	}
}

func TestLookAround(t *testing.T) {
	body := bodyAt(0, 0)
	g, err := NewLookAround(body, LookAroundParams{IntervalTicks: 2, Duration: 5})
	if err != nil {
		t.Fatalf("NewLookAround: %v", err)
	}
	if g.Flags() != goal.FlagLook {
		t.Fatalf("flags = %s", g.Flags())
	}

	g.Start()
	var last goal.Result
	ticks := 0
	for ; ticks < 10; ticks++ {
		last = g.Tick()
		if last.Terminal() {
			break
		}
	}
	if last.Status != goal.StatusSuccess || ticks != 4 {
		t.Fatalf("ended %s after %d ticks, want success on tick 5", last, ticks+1)
	}
	// Glances land on ticks 1, 3, and 5.
	if len(body.lookedAt) != 3 {
		t.Fatalf("glanced %d times, want 3", len(body.lookedAt))
	}
}
