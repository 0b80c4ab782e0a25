// Package goal implements tick-driven priority arbitration for
// autonomous game agents. A Selector owns a set of registered goals and
// decides each tick which of them run, resolving contention over
// control channels (movement, look, jump, attack, target) by priority.
// Goals follow a strict lifecycle: CanStart while idle, Start exactly
// once, Tick plus ShouldContinue while active, Stop exactly once with
// the final Result.
//
// The package knows nothing about entities, worlds, or navigation;
// concrete behaviors live above it and reach their collaborators
// through their own constructors.
package goal

// Goal is the lifecycle contract the selector drives.
//
// Configuration problems (bad params, nil collaborators) belong in
// constructors and in Register, as errors. Behavioral outcomes are
// Result values. A contract violation, such as a Tick before Start, is
// an engine bug and panics.
type Goal interface {
	// ID names the goal for registration, telemetry, and force stops.
	ID() string

	// Flags is the set of control channels the goal claims while
	// active. The answer must not change during an activation.
	Flags() Flags

	// CanStart reports whether the goal could activate right now. The
	// selector calls it only while the goal is idle and off cooldown,
	// possibly many ticks in a row.
	CanStart() bool

	// Start begins an activation. Called exactly once, before the
	// first Tick. All per-activation state belongs here.
	Start()

	// Tick advances the goal one step and reports how it is doing.
	Tick() Result

	// ShouldContinue is consulted after every Running tick; answering
	// false ends the activation with Cancelled.
	ShouldContinue() bool

	// Stop is the single cleanup point, called exactly once per
	// activation with the final result, whatever ended it.
	Stop(Result)

	// CanBeInterrupted reports whether a higher-precedence goal may
	// preempt this one mid-activation.
	CanBeInterrupted() bool

	// RequiresExclusiveControl marks the goal as conflicting with
	// every other goal, whatever the flags say.
	RequiresExclusiveControl() bool

	// Cooldown is how many ticks must elapse after the goal stops
	// before it may activate again. Zero means none.
	Cooldown() int

	// MaxDuration caps an activation's tick count; the selector stops
	// the goal with Cancelled when it is reached. Zero means no cap.
	MaxDuration() int

	// OnInterrupted fires when another goal preempts this one, just
	// before Stop(Cancelled). It is a notice, not a cleanup point.
	OnInterrupted()

	// Reset returns the goal to its pre-start state without running
	// Stop. Hosts use it for respawn-style resets.
	Reset()
}

// Base supplies the contract's defaults: always startable, runs
// forever, interruptible, not exclusive, no cooldown, no duration cap,
// no flags. Embed it and override what the goal actually means. Base
// deliberately omits ID so every goal names itself.
type Base struct{}

func (Base) Flags() Flags                   { return 0 }
func (Base) CanStart() bool                 { return true }
func (Base) Start()                         {}
func (Base) Tick() Result                   { return Running() }
func (Base) ShouldContinue() bool           { return true }
func (Base) Stop(Result)                    {}
func (Base) CanBeInterrupted() bool         { return true }
func (Base) RequiresExclusiveControl() bool { return false }
func (Base) Cooldown() int                  { return 0 }
func (Base) MaxDuration() int               { return 0 }
func (Base) OnInterrupted()                 {}
func (Base) Reset()                         {}

// Debug enables the per-tick invariant checks; violations panic. Tests
// and sandboxes turn it on.
var Debug bool
