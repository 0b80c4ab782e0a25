package main

import (
	"fmt"
	"image/color"
	"log"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"golang.org/x/image/colornames"

	"github.com/ebitenui/ebitenui"

	"github.com/milk9111/mobmind/agent"
	"github.com/milk9111/mobmind/arena"
	"github.com/milk9111/mobmind/common"
	"github.com/milk9111/mobmind/goal"
	"github.com/milk9111/mobmind/prefabs"
)

const (
	baseWidth  = 1280
	baseHeight = 720

	intruderTX = 22
	intruderTY = 11

	intruderSpeed = 150.0
	intruderAccel = 12.0
	meleeRange    = 56.0
	meleeDamage   = 15
	meleeCooldown = 30
	strikeDamage  = 8

	respawnDelay = 180
	eventLines   = 6

	agentDrawRadius = 10
	facingLen       = 16
	hpBarWidth      = 28
)

// mob is one prefab-driven agent plus the controller running its goals.
type mob struct {
	prefab string
	agent  *arena.Agent
	ctl    *agent.Controller
	tx, ty int

	displayHP float64
	deadFor   int
}

type Game struct {
	frames int

	world    *arena.World
	mobs     []*mob
	intruder *arena.Agent

	ui     *ebitenui.UI
	paused bool
	debug  bool

	watcher *prefabs.Watcher

	meleeLeft   int
	respawnLeft int
	events      []string
}

func NewGame(prefabNames []string, seed int64, debug, watch bool) (*Game, error) {
	world, err := arena.New(arena.Config{
		Name:   "arena",
		Width:  40,
		Height: 22,
		Walls: []arena.TileRect{
			{X: 7, Y: 6, W: 2, H: 5},
			{X: 20, Y: 0, W: 1, H: 9},
			{X: 20, Y: 14, W: 1, H: 8},
			{X: 28, Y: 5, W: 6, H: 1},
			{X: 26, Y: 14, W: 8, H: 1},
		},
		Seed: seed,
	})
	if err != nil {
		return nil, err
	}

	g := &Game{world: world, debug: debug}

	intruder, err := world.Spawn("intruder", intruderTX, intruderTY)
	if err != nil {
		return nil, err
	}
	g.intruder = intruder

	spots := [][2]int{{3, 3}, {30, 16}, {30, 5}, {10, 18}, {35, 10}, {14, 11}}
	for i, name := range prefabNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		spot := spots[i%len(spots)]
		m, err := g.spawnMob(name, i+1, spot[0], spot[1])
		if err != nil {
			return nil, fmt.Errorf("spawn %s: %w", name, err)
		}
		g.mobs = append(g.mobs, m)
	}

	g.ui = NewPauseUI(g)

	if watch {
		w, err := prefabs.NewWatcher("prefabs")
		if err != nil {
			log.Printf("arena-demo: watch disabled: %v", err)
		} else {
			g.watcher = w
		}
	}

	return g, nil
}

func (g *Game) spawnMob(prefab string, n, tx, ty int) (*mob, error) {
	ag, err := g.world.Spawn(fmt.Sprintf("%s-%d", prefab, n), tx, ty)
	if err != nil {
		return nil, err
	}
	m := &mob{prefab: prefab, agent: ag, tx: tx, ty: ty, displayHP: 1}
	if err := g.buildController(m); err != nil {
		g.world.Despawn(ag.ID())
		return nil, err
	}
	return m, nil
}

// buildController gives the mob a fresh controller with its prefab's
// goal set. Used at spawn, respawn, and hot reload.
func (g *Game) buildController(m *mob) error {
	ctl, err := agent.NewController(m.agent, g.world.Navigator(m.agent))
	if err != nil {
		return err
	}
	spec, err := prefabs.LoadGoalSet(m.prefab + ".yaml")
	if err != nil {
		return err
	}
	bc := &prefabs.BuildContext{
		Controller: ctl,
		Candidates: g.candidates,
		Strike:     g.strike,
		Rand:       g.world.Rand(),
	}
	if err := prefabs.Apply(bc, spec); err != nil {
		return err
	}
	m.ctl = ctl
	return nil
}

// candidates feeds target acquisition. Mobs only ever hunt the
// intruder, not each other.
func (g *Game) candidates() []agent.Entity {
	return []agent.Entity{g.intruder}
}

func (g *Game) strike(e agent.Entity) {
	t, ok := e.(*arena.Agent)
	if !ok {
		return
	}
	t.Damage(strikeDamage)
	g.pushEvent(fmt.Sprintf("[%d] %s hit for %d (hp %d)", g.frames, t.ID(), strikeDamage, t.HP()))
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.paused = !g.paused
	}
	if g.paused {
		g.ui.Update()
		return nil
	}

	g.frames++

	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.debug = !g.debug
	}

	g.pollWatcher()
	g.steerIntruder()
	g.updateMelee()

	for _, m := range g.mobs {
		if m.agent.Valid() {
			m.ctl.Update()
		}
	}
	g.world.Step()

	g.drainEvents()
	g.updateRespawns()

	for _, m := range g.mobs {
		hp := float64(m.agent.HP()) / float64(m.agent.MaxHP())
		m.displayHP = common.Lerp(m.displayHP, hp, 0.2)
	}

	return nil
}

func (g *Game) pollWatcher() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case path := <-g.watcher.Events:
			g.reload(path)
		case err := <-g.watcher.Errors:
			log.Printf("arena-demo: watch: %v", err)
		default:
			return
		}
	}
}

// reload rebuilds controllers after a prefab file changes on disk. A
// script change rebuilds every mob since any of them may embed it.
func (g *Game) reload(path string) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	script := strings.HasSuffix(path, ".tengo")
	for _, m := range g.mobs {
		if !script && m.prefab != name {
			continue
		}
		if !m.agent.Valid() {
			continue
		}
		m.ctl.Shutdown()
		if err := g.buildController(m); err != nil {
			log.Printf("arena-demo: reload %s: %v", m.agent.ID(), err)
			continue
		}
		g.pushEvent(fmt.Sprintf("[%d] reloaded %s", g.frames, m.agent.ID()))
	}
}

func (g *Game) steerIntruder() {
	if !g.intruder.Valid() {
		return
	}

	var dir cp.Vector
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyLeft) {
		dir.X--
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyRight) {
		dir.X++
	}
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyUp) {
		dir.Y--
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyDown) {
		dir.Y++
	}

	var target cp.Vector
	if dir.Length() > 0 {
		target = dir.Normalize().Mult(intruderSpeed)
	}

	body := g.intruder.Body()
	vel := body.Velocity()
	vel.X = common.MoveToward(vel.X, target.X, intruderAccel)
	vel.Y = common.MoveToward(vel.Y, target.Y, intruderAccel)
	body.SetVelocityVector(vel)

	if dir.Length() > 0 {
		g.intruder.LookAt(body.Position().Add(dir))
	}
}

func (g *Game) updateMelee() {
	if g.meleeLeft > 0 {
		g.meleeLeft--
	}
	if !g.intruder.Valid() || g.meleeLeft > 0 || !inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		return
	}
	g.meleeLeft = meleeCooldown

	pos := g.intruder.Location().Pos
	for _, m := range g.mobs {
		if !m.agent.Valid() {
			continue
		}
		if m.agent.Location().Pos.Distance(pos) <= meleeRange {
			m.agent.Damage(meleeDamage)
			g.pushEvent(fmt.Sprintf("[%d] %s hit for %d (hp %d)", g.frames, m.agent.ID(), meleeDamage, m.agent.HP()))
		}
	}
}

func (g *Game) drainEvents() {
	for _, m := range g.mobs {
		for _, evt := range m.ctl.Events().Drain() {
			line := formatEvent(m.agent.ID(), evt)
			log.Printf("arena-demo: %s", line)
			g.pushEvent(line)
		}
	}
}

func formatEvent(id string, evt goal.Event) string {
	switch evt.Kind {
	case goal.EventStarted:
		return fmt.Sprintf("[%d] %s: started %s (p%d)", evt.Tick, id, evt.GoalID, evt.Priority)
	case goal.EventPreempted:
		return fmt.Sprintf("[%d] %s: %s preempted by %s", evt.Tick, id, evt.GoalID, evt.By)
	default:
		return fmt.Sprintf("[%d] %s: %s %s, %s", evt.Tick, id, evt.GoalID, evt.Kind, evt.Result)
	}
}

func (g *Game) pushEvent(line string) {
	g.events = append(g.events, line)
	if len(g.events) > eventLines {
		g.events = g.events[len(g.events)-eventLines:]
	}
}

func (g *Game) updateRespawns() {
	if !g.intruder.Valid() {
		g.respawnLeft++
		if g.respawnLeft >= respawnDelay {
			g.respawnLeft = 0
			g.world.Despawn("intruder")
			a, err := g.world.Spawn("intruder", intruderTX, intruderTY)
			if err != nil {
				log.Printf("arena-demo: respawn intruder: %v", err)
				return
			}
			g.intruder = a
		}
	}

	for _, m := range g.mobs {
		if m.agent.Valid() {
			m.deadFor = 0
			continue
		}
		m.deadFor++
		if m.deadFor < respawnDelay {
			continue
		}
		m.deadFor = 0
		id := m.agent.ID()
		g.world.Despawn(id)
		a, err := g.world.Spawn(id, m.tx, m.ty)
		if err != nil {
			log.Printf("arena-demo: respawn %s: %v", id, err)
			continue
		}
		m.agent = a
		m.displayHP = 1
		if err := g.buildController(m); err != nil {
			log.Printf("arena-demo: respawn %s: %v", id, err)
		}
	}
}

// resetMobs returns every living mob to its spawn tile with fresh goal
// state and full HP.
func (g *Game) resetMobs() {
	for _, m := range g.mobs {
		if !m.agent.Valid() {
			continue
		}
		m.ctl.Reset()
		m.agent.Teleport(agent.Location{Pos: g.world.TileCenter(m.tx, m.ty), World: g.world.Name()})
		m.agent.Heal(m.agent.MaxHP())
		m.displayHP = 1
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.NRGBA{R: 0x14, G: 0x16, B: 0x1c, A: 0xff})

	g.drawWalls(screen)
	for _, m := range g.mobs {
		g.drawMob(screen, m)
	}
	g.drawIntruder(screen)
	g.drawEventLog(screen)

	ebitenutil.DebugPrint(screen, fmt.Sprintf("Frames: %d    FPS: %.2f", g.frames, ebiten.ActualFPS()))

	if g.paused {
		g.ui.Draw(screen)
	}
}

func (g *Game) drawWalls(screen *ebiten.Image) {
	w, h := g.world.Size()
	ts := float32(g.world.TileSize())
	for ty := 0; ty < h; ty++ {
		for tx := 0; tx < w; tx++ {
			if !g.world.Blocked(tx, ty) {
				continue
			}
			vector.FillRect(screen, float32(tx)*ts, float32(ty)*ts, ts, ts, colornames.Darkslategray, false)
		}
	}
	vector.StrokeRect(screen, 0, 0, float32(w)*ts, float32(h)*ts, 1.0, colornames.Dimgray, false)
}

func (g *Game) drawMob(screen *ebiten.Image, m *mob) {
	if !m.agent.Valid() {
		return
	}
	pos := m.agent.Location().Pos
	x, y := float32(pos.X), float32(pos.Y)

	vector.FillCircle(screen, x, y, agentDrawRadius, prefabColor(m.prefab), true)

	f := m.agent.Facing()
	vector.StrokeLine(screen, x, y, x+float32(f.X)*facingLen, y+float32(f.Y)*facingLen, 2, colornames.Lightgrey, true)

	g.drawHPBar(screen, pos, m.displayHP)

	if g.debug {
		ids := make([]string, 0, 2)
		for _, gl := range m.ctl.ActiveGoals() {
			ids = append(ids, gl.ID())
		}
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s %s", m.agent.ID(), strings.Join(ids, "+")), int(pos.X)-24, int(pos.Y)+14)
	}
}

func (g *Game) drawIntruder(screen *ebiten.Image) {
	if !g.intruder.Valid() {
		return
	}
	pos := g.intruder.Location().Pos
	x, y := float32(pos.X), float32(pos.Y)

	vector.FillCircle(screen, x, y, agentDrawRadius, colornames.Skyblue, true)

	f := g.intruder.Facing()
	vector.StrokeLine(screen, x, y, x+float32(f.X)*facingLen, y+float32(f.Y)*facingLen, 2, colornames.White, true)

	g.drawHPBar(screen, pos, float64(g.intruder.HP())/float64(g.intruder.MaxHP()))
}

func (g *Game) drawHPBar(screen *ebiten.Image, pos cp.Vector, frac float64) {
	frac = common.Clamp(frac, 0, 1)
	x := float32(pos.X) - hpBarWidth/2
	y := float32(pos.Y) - 18
	vector.FillRect(screen, x, y, hpBarWidth, 4, color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xc0}, false)
	vector.FillRect(screen, x, y, hpBarWidth*float32(frac), 4, colornames.Yellowgreen, false)
}

func (g *Game) drawEventLog(screen *ebiten.Image) {
	for i, line := range g.events {
		ebitenutil.DebugPrintAt(screen, line, 8, baseHeight-16*(len(g.events)-i)-4)
	}
}

func prefabColor(name string) color.Color {
	switch name {
	case "guard":
		return colornames.Indianred
	case "wanderer":
		return colornames.Mediumseagreen
	case "coward":
		return colornames.Goldenrod
	default:
		return colornames.Slategray
	}
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return baseWidth, baseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
