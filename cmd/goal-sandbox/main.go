package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/milk9111/mobmind/agent"
	"github.com/milk9111/mobmind/arena"
	"github.com/milk9111/mobmind/goal"
	"github.com/milk9111/mobmind/prefabs"
)

const (
	worldWidth  = 40
	worldHeight = 18

	intruderTX = 22
	intruderTY = 9

	tickMs = 16

	meleeRange   = 56.0
	meleeDamage  = 15
	strikeDamage = 8
	respawnDelay = 300

	eventLines = 4
)

// sandboxMob is one prefab-driven agent plus its controller.
type sandboxMob struct {
	prefab  string
	agent   *arena.Agent
	ctl     *agent.Controller
	tx, ty  int
	deadFor int
}

type Game struct {
	screen tcell.Screen

	world    *arena.World
	mobs     []*sandboxMob
	intruder *arena.Agent

	frames      int
	paused      bool
	respawnLeft int
	events      []string
}

func NewGame(prefabNames []string, seed int64) (*Game, error) {
	world, err := arena.New(arena.Config{
		Name:   "sandbox",
		Width:  worldWidth,
		Height: worldHeight,
		Walls: []arena.TileRect{
			{X: 7, Y: 6, W: 2, H: 5},
			{X: 20, Y: 0, W: 1, H: 7},
			{X: 20, Y: 12, W: 1, H: 6},
			{X: 28, Y: 5, W: 6, H: 1},
			{X: 26, Y: 14, W: 8, H: 1},
		},
		Seed: seed,
	})
	if err != nil {
		return nil, err
	}

	g := &Game{world: world}

	intruder, err := world.Spawn("intruder", intruderTX, intruderTY)
	if err != nil {
		return nil, err
	}
	g.intruder = intruder

	spots := [][2]int{{3, 3}, {30, 14}, {30, 5}, {10, 15}, {35, 9}, {14, 9}}
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

	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	g.screen = screen

	return g, nil
}

func (g *Game) spawnMob(prefab string, n, tx, ty int) (*sandboxMob, error) {
	ag, err := g.world.Spawn(fmt.Sprintf("%s-%d", prefab, n), tx, ty)
	if err != nil {
		return nil, err
	}
	m := &sandboxMob{prefab: prefab, agent: ag, tx: tx, ty: ty}
	if err := g.buildController(m); err != nil {
		g.world.Despawn(ag.ID())
		return nil, err
	}
	return m, nil
}

func (g *Game) buildController(m *sandboxMob) error {
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

func (g *Game) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}

		switch ev.Key() {
		case tcell.KeyLeft:
			g.moveIntruder(-1, 0)
		case tcell.KeyRight:
			g.moveIntruder(1, 0)
		case tcell.KeyUp:
			g.moveIntruder(0, -1)
		case tcell.KeyDown:
			g.moveIntruder(0, 1)
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case 'h':
				g.moveIntruder(-1, 0)
			case 'l':
				g.moveIntruder(1, 0)
			case 'k':
				g.moveIntruder(0, -1)
			case 'j':
				g.moveIntruder(0, 1)
			case ' ':
				g.melee()
			case 'p':
				g.paused = !g.paused
			case 'r':
				g.resetMobs()
			}
		}

	case *tcell.EventResize:
		g.screen.Sync()
	}

	return true
}

// moveIntruder steps the player one tile. The mobs move through
// physics; the player moves on the grid so terminal input stays crisp.
func (g *Game) moveIntruder(dx, dy int) {
	if g.paused || !g.intruder.Valid() {
		return
	}
	tx, ty := g.world.TileAt(g.intruder.Location().Pos)
	nx, ny := tx+dx, ty+dy
	if g.world.Blocked(nx, ny) {
		return
	}
	g.intruder.Teleport(agent.Location{Pos: g.world.TileCenter(nx, ny), World: g.world.Name()})
	g.intruder.LookAt(g.world.TileCenter(nx+dx, ny+dy))
}

func (g *Game) melee() {
	if g.paused || !g.intruder.Valid() {
		return
	}
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

func (g *Game) resetMobs() {
	for _, m := range g.mobs {
		if !m.agent.Valid() {
			continue
		}
		m.ctl.Reset()
		m.agent.Teleport(agent.Location{Pos: g.world.TileCenter(m.tx, m.ty), World: g.world.Name()})
		m.agent.Heal(m.agent.MaxHP())
	}
}

func (g *Game) tick() {
	g.frames++

	for _, m := range g.mobs {
		if m.agent.Valid() {
			m.ctl.Update()
		}
	}
	g.world.Step()

	g.drainEvents()
	g.updateRespawns()
}

func (g *Game) drainEvents() {
	for _, m := range g.mobs {
		for _, evt := range m.ctl.Events().Drain() {
			g.pushEvent(formatEvent(m.agent.ID(), evt))
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
			if a, err := g.world.Spawn("intruder", intruderTX, intruderTY); err == nil {
				g.intruder = a
			}
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
			continue
		}
		m.agent = a
		if err := g.buildController(m); err != nil {
			g.pushEvent(fmt.Sprintf("[%d] respawn %s: %v", g.frames, id, err))
		}
	}
}

func (g *Game) draw() {
	g.screen.Clear()

	w, h := g.world.Size()
	wallStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	floorStyle := tcell.StyleDefault.Foreground(tcell.ColorDarkSlateGray)
	for ty := 0; ty < h; ty++ {
		for tx := 0; tx < w; tx++ {
			ch := '.'
			style := floorStyle
			if g.world.Blocked(tx, ty) {
				ch = '#'
				style = wallStyle
			}
			g.screen.SetContent(tx, ty, ch, nil, style)
		}
	}

	for _, m := range g.mobs {
		if !m.agent.Valid() {
			continue
		}
		tx, ty := g.world.TileAt(m.agent.Location().Pos)
		g.screen.SetContent(tx, ty, mobRune(m.prefab), nil, mobStyle(m.prefab))
	}

	if g.intruder.Valid() {
		tx, ty := g.world.TileAt(g.intruder.Location().Pos)
		g.screen.SetContent(tx, ty, '@', nil, tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true))
	}

	g.drawStatus()
	g.drawEvents()

	g.screen.Show()
}

func (g *Game) drawStatus() {
	_, h := g.world.Size()

	parts := []string{fmt.Sprintf("tick %d", g.frames)}
	if g.paused {
		parts = append(parts, "PAUSED")
	}
	if g.intruder.Valid() {
		parts = append(parts, fmt.Sprintf("@ hp %d", g.intruder.HP()))
	} else {
		parts = append(parts, "@ down")
	}
	for _, m := range g.mobs {
		if !m.agent.Valid() {
			parts = append(parts, fmt.Sprintf("%s down", m.agent.ID()))
			continue
		}
		ids := make([]string, 0, 2)
		for _, gl := range m.ctl.ActiveGoals() {
			ids = append(ids, gl.ID())
		}
		parts = append(parts, fmt.Sprintf("%s %s", m.agent.ID(), strings.Join(ids, "+")))
	}
	parts = append(parts, "hjkl move  space hit  p pause  r reset  q quit")

	g.drawText(0, h, tcell.StyleDefault.Foreground(tcell.ColorSilver), strings.Join(parts, " | "))
}

func (g *Game) drawEvents() {
	_, h := g.world.Size()
	style := tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	for i, line := range g.events {
		g.drawText(0, h+1+i, style, line)
	}
}

func (g *Game) drawText(x, y int, style tcell.Style, text string) {
	col := x
	for _, r := range text {
		g.screen.SetContent(col, y, r, nil, style)
		col++
	}
}

func mobRune(name string) rune {
	if name == "" {
		return 'M'
	}
	return unicode.ToUpper(rune(name[0]))
}

func mobStyle(name string) tcell.Style {
	switch name {
	case "guard":
		return tcell.StyleDefault.Foreground(tcell.ColorRed)
	case "wanderer":
		return tcell.StyleDefault.Foreground(tcell.ColorGreen)
	case "coward":
		return tcell.StyleDefault.Foreground(tcell.ColorYellow)
	default:
		return tcell.StyleDefault.Foreground(tcell.ColorSilver)
	}
}

func (g *Game) run() {
	ticker := time.NewTicker(tickMs * time.Millisecond)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			eventChan <- g.screen.PollEvent()
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !g.handleInput(ev) {
				return
			}

		case <-ticker.C:
			if !g.paused {
				g.tick()
			}
			g.draw()
		}
	}
}

func (g *Game) cleanup() {
	g.screen.Fini()
}

func main() {
	prefabList := flag.String("prefabs", "guard,wanderer,coward", "comma-separated prefab names to spawn")
	seed := flag.Int64("seed", 1, "world RNG seed")
	flag.Parse()

	game, err := NewGame(strings.Split(*prefabList, ","), *seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer game.cleanup()

	game.run()
}
