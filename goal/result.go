package goal

import "fmt"

// Status classifies what a goal reports from a tick.
type Status int

const (
	StatusRunning Status = iota
	StatusSuccess
	StatusFailure
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the value a goal reports each tick and the value its Stop
// receives. Behavioral outcomes are Results, never errors: a goal that
// cannot find a path fails with a reason, it does not error. Success and
// Failure carry a short reason for telemetry; Running and Cancelled do
// not.
type Result struct {
	Status Status
	Reason string
}

// Running reports that the goal wants to keep going.
func Running() Result { return Result{Status: StatusRunning} }

// Succeed reports that the goal completed what it set out to do.
func Succeed(reason string) Result { return Result{Status: StatusSuccess, Reason: reason} }

// Fail reports that the goal cannot make progress.
func Fail(reason string) Result { return Result{Status: StatusFailure, Reason: reason} }

// Cancelled reports an externally ended activation: preemption, a false
// ShouldContinue, a duration cap, or a force stop.
func Cancelled() Result { return Result{Status: StatusCancelled} }

// Terminal reports whether the result ends the activation.
func (r Result) Terminal() bool { return r.Status != StatusRunning }

func (r Result) String() string {
	if r.Reason == "" {
		return r.Status.String()
	}
	return r.Status.String() + ": " + r.Reason
}
