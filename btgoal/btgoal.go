// Package btgoal mounts a go-behaviortree node as a goal, letting an
// existing behavior tree compete for an agent's control channels under
// the selector's arbitration. The tree keeps its own semantics; the
// bridge only translates tick statuses and lifecycle edges.
package btgoal

import (
	"fmt"

	bt "github.com/joeycumines/go-behaviortree"

	"github.com/milk9111/mobmind/goal"
)

type options struct {
	cooldown        int
	maxDuration     int
	uninterruptible bool
	canStart        func() bool
	onStop          func(goal.Result)
}

// Option adjusts how the mounted tree behaves as a goal.
type Option func(*options)

// WithCooldown spaces out activations by the given tick count.
func WithCooldown(ticks int) Option { return func(o *options) { o.cooldown = ticks } }

// WithMaxDuration caps an activation's tick count.
func WithMaxDuration(ticks int) Option { return func(o *options) { o.maxDuration = ticks } }

// Uninterruptible protects the tree from preemption.
func Uninterruptible() Option { return func(o *options) { o.uninterruptible = true } }

// WithCanStart gates activation on fn.
func WithCanStart(fn func() bool) Option { return func(o *options) { o.canStart = fn } }

// WithStop runs fn with the final result on every Stop; use it to
// release resources the tree acquired.
func WithStop(fn func(goal.Result)) Option { return func(o *options) { o.onStop = fn } }

// Goal runs a behavior tree node under the goal lifecycle. bt.Running
// maps to Running, bt.Success to Success, bt.Failure to Failure, and a
// node error to Failure carrying the error text.
type Goal struct {
	goal.Base
	id    string
	flags goal.Flags
	node  bt.Node
	opts  options
}

// New mounts node as a goal claiming the given flags.
func New(id string, flags goal.Flags, node bt.Node, opts ...Option) (*Goal, error) {
	if id == "" {
		return nil, fmt.Errorf("btgoal: new: empty ID")
	}
	if node == nil {
		return nil, fmt.Errorf("btgoal: new %s: nil node", id)
	}
	g := &Goal{id: id, flags: flags, node: node}
	for _, opt := range opts {
		opt(&g.opts)
	}
	if g.opts.cooldown < 0 {
		return nil, fmt.Errorf("btgoal: new %s: negative cooldown %d", id, g.opts.cooldown)
	}
	if g.opts.maxDuration < 0 {
		return nil, fmt.Errorf("btgoal: new %s: negative max duration %d", id, g.opts.maxDuration)
	}
	return g, nil
}

func (g *Goal) ID() string             { return g.id }
func (g *Goal) Flags() goal.Flags      { return g.flags }
func (g *Goal) CanBeInterrupted() bool { return !g.opts.uninterruptible }
func (g *Goal) Cooldown() int          { return g.opts.cooldown }
func (g *Goal) MaxDuration() int       { return g.opts.maxDuration }

func (g *Goal) CanStart() bool {
	if g.opts.canStart != nil {
		return g.opts.canStart()
	}
	return true
}

func (g *Goal) Tick() goal.Result {
	status, err := g.node.Tick()
	if err != nil {
		return goal.Fail(err.Error())
	}
	switch status {
	case bt.Running:
		return goal.Running()
	case bt.Success:
		return goal.Succeed("tree complete")
	default:
		return goal.Fail("tree failed")
	}
}

func (g *Goal) Stop(res goal.Result) {
	if g.opts.onStop != nil {
		g.opts.onStop(res)
	}
}
