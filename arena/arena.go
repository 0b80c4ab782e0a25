// Package arena is a small self-contained world for driving goal-run
// agents: a Chipmunk space over a tile grid, bodies that implement the
// agent interfaces, and a grid navigator. The demos run on it and tests
// use it as a realistic host.
package arena

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/mobmind/agent"
)

const (
	defaultTileSize = 32.0
	defaultName     = "arena"
	agentRadius     = 0.35 // of a tile
	agentMass       = 1.0
	spaceIterations = 20
	stepDT          = 1.0 / 60.0
)

// TileRect is an axis-aligned wall block in tile coordinates.
type TileRect struct {
	X, Y, W, H int
}

// Config sizes the arena. Width and Height are in tiles.
type Config struct {
	Name     string
	Width    int
	Height   int
	TileSize float64
	Walls    []TileRect
	Seed     int64
}

// World owns the space, the wall grid, and the spawned agents.
type World struct {
	name     string
	space    *cp.Space
	width    int
	height   int
	tileSize float64
	blocked  []bool

	agents map[string]*Agent
	order  []*Agent // spawn order, so scans stay deterministic

	rand *rand.Rand
}

func New(cfg Config) (*World, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("arena: new: size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.TileSize == 0 {
		cfg.TileSize = defaultTileSize
	}
	if cfg.TileSize < 0 {
		return nil, fmt.Errorf("arena: new: tile size %f", cfg.TileSize)
	}
	if cfg.Name == "" {
		cfg.Name = defaultName
	}

	space := cp.NewSpace()
	space.Iterations = spaceIterations

	w := &World{
		name:     cfg.Name,
		space:    space,
		width:    cfg.Width,
		height:   cfg.Height,
		tileSize: cfg.TileSize,
		blocked:  make([]bool, cfg.Width*cfg.Height),
		agents:   make(map[string]*Agent),
		rand:     rand.New(rand.NewSource(cfg.Seed)),
	}

	for _, wall := range cfg.Walls {
		if err := w.addWall(wall); err != nil {
			return nil, err
		}
	}
	w.addBorders()
	return w, nil
}

func (w *World) addWall(r TileRect) error {
	if r.W <= 0 || r.H <= 0 || r.X < 0 || r.Y < 0 || r.X+r.W > w.width || r.Y+r.H > w.height {
		return fmt.Errorf("arena: wall %+v out of %dx%d", r, w.width, w.height)
	}
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			w.blocked[y*w.width+x] = true
		}
	}
	bb := cp.BB{
		L: float64(r.X) * w.tileSize,
		B: float64(r.Y) * w.tileSize,
		R: float64(r.X+r.W) * w.tileSize,
		T: float64(r.Y+r.H) * w.tileSize,
	}
	shape := cp.NewBox2(w.space.StaticBody, bb, 0)
	shape.SetFriction(0.8)
	w.space.AddShape(shape)
	return nil
}

func (w *World) addBorders() {
	worldW := float64(w.width) * w.tileSize
	worldH := float64(w.height) * w.tileSize
	segments := []struct {
		a cp.Vector
		b cp.Vector
	}{
		{a: cp.Vector{X: 0, Y: 0}, b: cp.Vector{X: worldW, Y: 0}},
		{a: cp.Vector{X: 0, Y: worldH}, b: cp.Vector{X: worldW, Y: worldH}},
		{a: cp.Vector{X: 0, Y: 0}, b: cp.Vector{X: 0, Y: worldH}},
		{a: cp.Vector{X: worldW, Y: 0}, b: cp.Vector{X: worldW, Y: worldH}},
	}
	for _, seg := range segments {
		shape := cp.NewSegment(w.space.StaticBody, seg.a, seg.b, 1.0)
		shape.SetFriction(0.8)
		w.space.AddShape(shape)
	}
}

func (w *World) Name() string      { return w.name }
func (w *World) Space() *cp.Space  { return w.space }
func (w *World) TileSize() float64 { return w.tileSize }
func (w *World) Size() (int, int)  { return w.width, w.height }
func (w *World) Rand() *rand.Rand  { return w.rand }

// Blocked reports whether a tile is wall or out of bounds.
func (w *World) Blocked(tx, ty int) bool {
	if tx < 0 || ty < 0 || tx >= w.width || ty >= w.height {
		return true
	}
	return w.blocked[ty*w.width+tx]
}

// TileAt maps a world position to its tile, clamped into bounds.
func (w *World) TileAt(pos cp.Vector) (int, int) {
	tx := int(pos.X / w.tileSize)
	ty := int(pos.Y / w.tileSize)
	if tx < 0 {
		tx = 0
	}
	if ty < 0 {
		ty = 0
	}
	if tx >= w.width {
		tx = w.width - 1
	}
	if ty >= w.height {
		ty = w.height - 1
	}
	return tx, ty
}

// TileCenter returns the world position at the middle of a tile.
func (w *World) TileCenter(tx, ty int) cp.Vector {
	half := w.tileSize * 0.5
	return cp.Vector{X: float64(tx)*w.tileSize + half, Y: float64(ty)*w.tileSize + half}
}

// Step advances every agent's steering and the physics space by one
// fixed frame.
func (w *World) Step() {
	for _, a := range w.order {
		if a.alive && a.nav != nil {
			a.nav.step(stepDT)
		}
	}
	w.space.Step(stepDT)
}

// LineOfSight samples the segment against the wall grid.
func (w *World) LineOfSight(from, to cp.Vector) bool {
	dist := from.Distance(to)
	step := w.tileSize * 0.25
	if dist < step {
		return true
	}
	dir := to.Sub(from).Mult(1 / dist)
	for d := 0.0; d <= dist; d += step {
		p := from.Add(dir.Mult(d))
		if w.Blocked(int(p.X/w.tileSize), int(p.Y/w.tileSize)) {
			return false
		}
	}
	return true
}

// Spawn places a new agent at a tile center. IDs are unique and the
// tile must be open.
func (w *World) Spawn(id string, tx, ty int) (*Agent, error) {
	if id == "" {
		return nil, fmt.Errorf("arena: spawn: empty ID")
	}
	if _, ok := w.agents[id]; ok {
		return nil, fmt.Errorf("arena: spawn %s: duplicate ID", id)
	}
	if w.Blocked(tx, ty) {
		return nil, fmt.Errorf("arena: spawn %s: tile %d,%d blocked", id, tx, ty)
	}

	radius := w.tileSize * agentRadius
	body := cp.NewBody(agentMass, math.Inf(1))
	body.SetPosition(w.TileCenter(tx, ty))
	shape := cp.NewCircle(body, radius, cp.Vector{})
	shape.SetFriction(0.8)
	w.space.AddBody(body)
	w.space.AddShape(shape)

	a := &Agent{
		id:     id,
		world:  w,
		body:   body,
		shape:  shape,
		hp:     100,
		maxHP:  100,
		facing: cp.Vector{X: 1},
		alive:  true,
	}
	w.agents[id] = a
	w.order = append(w.order, a)
	return a, nil
}

// Despawn kills and removes an agent.
func (w *World) Despawn(id string) bool {
	a, ok := w.agents[id]
	if !ok {
		return false
	}
	a.Kill()
	delete(w.agents, id)
	for i, o := range w.order {
		if o == a {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	return true
}

// AgentByID looks up a live or dead agent that has not been despawned.
func (w *World) AgentByID(id string) (*Agent, bool) {
	a, ok := w.agents[id]
	return a, ok
}

// Agents returns the spawned agents in spawn order.
func (w *World) Agents() []*Agent {
	out := make([]*Agent, len(w.order))
	copy(out, w.order)
	return out
}

// Entities returns the spawned agents as goal-visible entities, in
// spawn order. Feed this to target acquisition.
func (w *World) Entities() []agent.Entity {
	out := make([]agent.Entity, 0, len(w.order))
	for _, a := range w.order {
		out = append(out, a)
	}
	return out
}

// Agent is one body in the arena. It satisfies agent.ControlledEntity
// for its own controller and agent.Entity for everyone else's goals.
type Agent struct {
	id     string
	world  *World
	body   *cp.Body
	shape  *cp.Shape
	hp     int
	maxHP  int
	facing cp.Vector
	alive  bool
	nav    *Navigator
}

func (a *Agent) ID() string { return a.id }

func (a *Agent) Location() agent.Location {
	return agent.Location{Pos: a.body.Position(), World: a.world.name}
}

func (a *Agent) Valid() bool { return a.alive }

// Teleport snaps the body to the location. The arena is a single
// world, so only the position matters.
func (a *Agent) Teleport(loc agent.Location) {
	a.body.SetPosition(loc.Pos)
	a.body.SetVelocityVector(cp.Vector{})
	if a.nav != nil {
		a.nav.Stop()
	}
}

// LookAt turns the agent's facing toward a point.
func (a *Agent) LookAt(p cp.Vector) {
	d := p.Sub(a.body.Position())
	if d.Length() == 0 {
		return
	}
	a.facing = d.Normalize()
}

func (a *Agent) Facing() cp.Vector { return a.facing }
func (a *Agent) HP() int           { return a.hp }
func (a *Agent) MaxHP() int        { return a.maxHP }

// Body exposes the physics body for hosts that steer an agent
// directly instead of through a navigator.
func (a *Agent) Body() *cp.Body { return a.body }

// Damage applies damage and kills the agent at zero HP.
func (a *Agent) Damage(n int) {
	if !a.alive || n <= 0 {
		return
	}
	a.hp -= n
	if a.hp <= 0 {
		a.hp = 0
		a.Kill()
	}
}

func (a *Agent) Heal(n int) {
	if !a.alive || n <= 0 {
		return
	}
	a.hp += n
	if a.hp > a.maxHP {
		a.hp = a.maxHP
	}
}

// Kill removes the body from the space. Goals see Valid() == false
// from the next tick on.
func (a *Agent) Kill() {
	if !a.alive {
		return
	}
	a.alive = false
	if a.nav != nil {
		a.nav.Stop()
	}
	a.world.space.RemoveShape(a.shape)
	a.world.space.RemoveBody(a.body)
}
