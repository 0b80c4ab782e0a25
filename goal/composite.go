package goal

import (
	"fmt"
	"math/rand"
)

// Mode selects how a Composite schedules its sub-goals.
type Mode int

const (
	// ModeSequence runs sub-goals one at a time in order; every one
	// must succeed.
	ModeSequence Mode = iota
	// ModeSelector tries sub-goals in order until one succeeds.
	ModeSelector
	// ModeParallel runs all startable sub-goals at once; every launched
	// one must succeed.
	ModeParallel
	// ModeRandom runs one uniformly-chosen startable sub-goal.
	ModeRandom
)

func (m Mode) String() string {
	switch m {
	case ModeSequence:
		return "sequence"
	case ModeSelector:
		return "selector"
	case ModeParallel:
		return "parallel"
	case ModeRandom:
		return "random"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// CompositeConfig configures a Composite. Zero values mean:
// interruptible, not exclusive, no cooldown, no duration cap, flags
// from the union of sub-goal flags, the global random source.
type CompositeConfig struct {
	ID              string
	Mode            Mode
	Loop            bool
	Uninterruptible bool
	Exclusive       bool
	Cooldown        int
	MaxDuration     int
	Flags           Flags      // overrides the sub-goal union when non-zero
	Rand            *rand.Rand // ModeRandom picks; fix the seed for reproducible runs
}

// subState is the composite's per-sub-goal bookkeeping, mirroring the
// selector's registration state. Cooldowns and durations of sub-goals
// span a single composite activation.
type subState struct {
	goal     Goal
	started  bool
	ticksRun int
	cooldown int
}

// Composite is a Goal built from ordered sub-goals. It presents one
// face to the selector (one ID, one flag set, one priority slot) and
// internally drives its sub-goals through the identical three-phase
// protocol: Start once, Tick plus ShouldContinue, Stop once.
type Composite struct {
	id       string
	mode     Mode
	cfg      CompositeConfig
	subs     []*subState
	cursor   int
	launched int // parallel lap size; 0 when between laps
}

// NewComposite builds a composite over the given sub-goals. All
// configuration problems are reported here.
func NewComposite(cfg CompositeConfig, subs ...Goal) (*Composite, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("goal: composite: empty ID")
	}
	switch cfg.Mode {
	case ModeSequence, ModeSelector, ModeParallel, ModeRandom:
	default:
		return nil, fmt.Errorf("goal: composite %s: unknown mode %d", cfg.ID, int(cfg.Mode))
	}
	if len(subs) == 0 {
		return nil, fmt.Errorf("goal: composite %s: no sub-goals", cfg.ID)
	}
	if cfg.Cooldown < 0 {
		return nil, fmt.Errorf("goal: composite %s: negative cooldown %d", cfg.ID, cfg.Cooldown)
	}
	if cfg.MaxDuration < 0 {
		return nil, fmt.Errorf("goal: composite %s: negative max duration %d", cfg.ID, cfg.MaxDuration)
	}
	c := &Composite{id: cfg.ID, mode: cfg.Mode, cfg: cfg}
	for i, g := range subs {
		if g == nil {
			return nil, fmt.Errorf("goal: composite %s: nil sub-goal at index %d", cfg.ID, i)
		}
		c.subs = append(c.subs, &subState{goal: g})
	}
	return c, nil
}

func (c *Composite) ID() string { return c.id }

// Mode returns the scheduling mode.
func (c *Composite) Mode() Mode { return c.mode }

// Flags returns the configured override, or the union of sub-goal
// flags.
func (c *Composite) Flags() Flags {
	if c.cfg.Flags != 0 {
		return c.cfg.Flags
	}
	var fl Flags
	for _, st := range c.subs {
		fl |= st.goal.Flags()
	}
	return fl
}

func (c *Composite) CanBeInterrupted() bool         { return !c.cfg.Uninterruptible }
func (c *Composite) RequiresExclusiveControl() bool { return c.cfg.Exclusive }
func (c *Composite) Cooldown() int                  { return c.cfg.Cooldown }
func (c *Composite) MaxDuration() int               { return c.cfg.MaxDuration }
func (c *Composite) ShouldContinue() bool           { return true }

// CanStart asks the first sub-goal in sequence mode and any sub-goal in
// the other modes.
func (c *Composite) CanStart() bool {
	if c.mode == ModeSequence {
		return c.subs[0].goal.CanStart()
	}
	for _, st := range c.subs {
		if st.goal.CanStart() {
			return true
		}
	}
	return false
}

// Start resets the private scheduler. Parallel mode launches every
// startable sub-goal here; the other modes launch lazily from Tick.
func (c *Composite) Start() {
	c.cursor = 0
	c.launched = 0
	for _, st := range c.subs {
		st.started = false
		st.ticksRun = 0
		st.cooldown = 0
	}
	if c.mode == ModeParallel {
		c.launched = c.launchParallel()
	}
}

func (c *Composite) Tick() Result {
	for _, st := range c.subs {
		if !st.started && st.cooldown > 0 {
			st.cooldown--
		}
	}
	switch c.mode {
	case ModeSequence:
		return c.tickSequence()
	case ModeSelector:
		return c.tickSelector()
	case ModeParallel:
		return c.tickParallel()
	default:
		return c.tickRandom()
	}
}

func (c *Composite) tickSequence() Result {
	st := c.subs[c.cursor]
	if !st.started {
		// The next sub-goal may be cooling down or momentarily unable
		// to start; the sequence waits rather than aborts.
		if st.cooldown > 0 || !st.goal.CanStart() {
			return Running()
		}
		c.startSub(st)
	}
	res := c.runSub(st)
	if !res.Terminal() {
		return Running()
	}
	c.stopSub(st, res)
	if res.Status != StatusSuccess {
		return res
	}
	c.cursor++
	if c.cursor >= len(c.subs) {
		if !c.cfg.Loop {
			return Succeed("sequence complete")
		}
		c.cursor = 0
	}
	return Running()
}

func (c *Composite) tickSelector() Result {
	st := c.subs[c.cursor]
	if !st.started {
		idx, ok := c.nextStartable(c.cursor)
		if !ok {
			return Fail("no sub-goal available")
		}
		c.cursor = idx
		st = c.subs[idx]
		c.startSub(st)
	}
	res := c.runSub(st)
	if !res.Terminal() {
		return Running()
	}
	c.stopSub(st, res)
	if res.Status == StatusSuccess {
		if !c.cfg.Loop {
			return res
		}
		c.cursor = 0
		return Running()
	}
	// Failure and Cancelled both fall through to the next alternative.
	c.cursor++
	if _, ok := c.nextStartable(c.cursor); !ok {
		return Fail("all sub-goals failed")
	}
	return Running()
}

func (c *Composite) tickParallel() Result {
	if c.launched == 0 {
		// The initial launch found nothing runnable, or a loop lap is
		// waiting out sub-goal cooldowns.
		c.launched = c.launchParallel()
		if c.launched == 0 {
			if c.cfg.Loop {
				return Running()
			}
			return Fail("no sub-goal available")
		}
	}
	for _, st := range c.subs {
		if !st.started {
			continue
		}
		res := c.runSub(st)
		if !res.Terminal() {
			continue
		}
		c.stopSub(st, res)
		if res.Status != StatusSuccess {
			c.abortRunning()
			return res
		}
	}
	for _, st := range c.subs {
		if st.started {
			return Running()
		}
	}
	if c.cfg.Loop {
		c.launched = 0
		return Running()
	}
	return Succeed("all sub-goals complete")
}

func (c *Composite) tickRandom() Result {
	st := c.subs[c.cursor]
	if !st.started {
		if !c.pickRandom() {
			if c.cfg.Loop {
				return Running()
			}
			return Fail("no sub-goal available")
		}
		st = c.subs[c.cursor]
	}
	res := c.runSub(st)
	if !res.Terminal() {
		return Running()
	}
	c.stopSub(st, res)
	if c.cfg.Loop {
		return Running()
	}
	return res
}

// Stop propagates the final result into every still-running sub-goal;
// each gets its own Stop cleanup.
func (c *Composite) Stop(res Result) {
	for _, st := range c.subs {
		if st.started {
			c.stopSub(st, res)
		}
	}
}

// OnInterrupted forwards the notice to running sub-goals. Stop follows.
func (c *Composite) OnInterrupted() {
	for _, st := range c.subs {
		if st.started {
			st.goal.OnInterrupted()
		}
	}
}

// Reset discards scheduler state and resets every sub-goal.
func (c *Composite) Reset() {
	c.cursor = 0
	c.launched = 0
	for _, st := range c.subs {
		st.started = false
		st.ticksRun = 0
		st.cooldown = 0
		st.goal.Reset()
	}
}

func (c *Composite) startSub(st *subState) {
	st.started = true
	st.ticksRun = 0
	st.goal.Start()
}

func (c *Composite) stopSub(st *subState, res Result) {
	st.started = false
	st.cooldown = st.goal.Cooldown()
	st.goal.Stop(res)
}

// runSub ticks a started sub-goal, applying the duration cap and
// ShouldContinue exactly the way the selector does.
func (c *Composite) runSub(st *subState) Result {
	if md := st.goal.MaxDuration(); md > 0 && st.ticksRun >= md {
		return Cancelled()
	}
	res := st.goal.Tick()
	st.ticksRun++
	if res.Status == StatusRunning && !st.goal.ShouldContinue() {
		res = Cancelled()
	}
	return res
}

// launchParallel starts every sub-goal that could run right now and
// reports how many joined the lap.
func (c *Composite) launchParallel() int {
	n := 0
	for _, st := range c.subs {
		if !st.started && st.cooldown == 0 && st.goal.CanStart() {
			c.startSub(st)
			n++
		}
	}
	return n
}

// abortRunning cancels every still-running sub-goal after one of them
// went terminal without success.
func (c *Composite) abortRunning() {
	for _, st := range c.subs {
		if st.started {
			st.goal.OnInterrupted()
			c.stopSub(st, Cancelled())
		}
	}
}

// pickRandom starts one uniformly-chosen startable sub-goal.
func (c *Composite) pickRandom() bool {
	var idxs []int
	for i, st := range c.subs {
		if !st.started && st.cooldown == 0 && st.goal.CanStart() {
			idxs = append(idxs, i)
		}
	}
	if len(idxs) == 0 {
		return false
	}
	c.cursor = idxs[c.intn(len(idxs))]
	c.startSub(c.subs[c.cursor])
	return true
}

func (c *Composite) intn(n int) int {
	if c.cfg.Rand != nil {
		return c.cfg.Rand.Intn(n)
	}
	return rand.Intn(n)
}

// nextStartable finds the first sub-goal at or after from that could
// start right now.
func (c *Composite) nextStartable(from int) (int, bool) {
	for i := from; i < len(c.subs); i++ {
		st := c.subs[i]
		if !st.started && st.cooldown == 0 && st.goal.CanStart() {
			return i, true
		}
	}
	return 0, false
}
