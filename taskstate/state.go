// Package taskstate implements the task progress state machine: a small set of
// base phases crossed with status decorators (currently/done/failed), plus an
// optional dependency decorator.
package taskstate

import "fmt"

// Phase is one of the base phases a task passes through.
type Phase int

const (
	PhaseReady Phase = iota
	PhaseBeginning
	PhasePreparing
	PhaseConfiguring
	PhaseExecuting
	PhasePausing
	PhaseResuming
	PhaseCancelling
	PhaseWaiting
)

func (p Phase) String() string {
	switch p {
	case PhaseReady:
		return "ready"
	case PhaseBeginning:
		return "beginning"
	case PhasePreparing:
		return "preparing"
	case PhaseConfiguring:
		return "configuring"
	case PhaseExecuting:
		return "executing"
	case PhasePausing:
		return "pausing"
	case PhaseResuming:
		return "resuming"
	case PhaseCancelling:
		return "cancelling"
	case PhaseWaiting:
		return "waiting"
	default:
		return "unknown"
	}
}

// status is the decorator wrapping a phase.
type status int

const (
	statusReady status = iota
	statusCurrent
	statusDone
	statusFailed
)

// State is a task's current progress: ready, or a phase decorated with
// currently/done/failed, optionally further decorated with a dependency id it
// is stalled on. State is a value type; callers hold it by pointer when they
// need to mutate it in place (the TaskQueue owns the canonical copy).
type State struct {
	status     status
	phase      Phase
	failReason string
	dependsOn  string
	hasDep     bool
}

// Ready returns the initial state every task starts in.
func Ready() State {
	return State{status: statusReady, phase: PhaseReady}
}

// --- queries -----------------------------------------------------------

// IsReady reports whether the task has never been started.
func (s State) IsReady() bool { return s.status == statusReady }

// IsStarted reports whether the task has begun at least one phase.
func (s State) IsStarted() bool { return s.status != statusReady }

// IsExecuting reports currently(executing), i.e. "running".
func (s State) IsExecuting() bool { return s.status == statusCurrent && s.phase == PhaseExecuting }

// IsPaused reports done(pausing), i.e. "paused".
func (s State) IsPaused() bool { return s.status == statusDone && s.phase == PhasePausing }

// IsWaiting reports currently(waiting): parked awaiting dependency completion
// handles, federated mode.
func (s State) IsWaiting() bool { return s.status == statusCurrent && s.phase == PhaseWaiting }

// Waited reports done(waiting): dependencies have all signalled and this task
// is now first in line to be re-picked.
func (s State) Waited() bool { return s.status == statusDone && s.phase == PhaseWaiting }

// WasCancelled reports done(cancelling), i.e. "cancelled".
func (s State) WasCancelled() bool { return s.status == statusDone && s.phase == PhaseCancelling }

// DidFail reports the failed(...) decorator.
func (s State) DidFail() bool { return s.status == statusFailed }

// DidSucceed reports done(executing), i.e. "succeeded".
func (s State) DidSucceed() bool { return s.status == statusDone && s.phase == PhaseExecuting }

// IsDone reports any done(phase) decorator, terminal or not.
func (s State) IsDone() bool { return s.status == statusDone }

// HasDependency reports whether this (non-terminal) state is additionally
// decorated with a dependency id.
func (s State) HasDependency() (id string, ok bool) { return s.dependsOn, s.hasDep }

// FailReason returns the phase-or-reason a failed state carries.
func (s State) FailReason() string { return s.failReason }

// Phase returns the base phase currently in play.
func (s State) Phase() Phase { return s.phase }

// Terminal reports whether no further transition is permitted: succeeded,
// failed, or cancelled. Paused, prepared, configured, and waited are not
// terminal.
func (s State) Terminal() bool {
	if s.status == statusFailed {
		return true
	}
	if s.status == statusDone && (s.phase == PhaseExecuting || s.phase == PhaseCancelling) {
		return true
	}
	return false
}

func (s State) String() string {
	switch s.status {
	case statusReady:
		return "ready"
	case statusCurrent:
		if s.hasDep {
			return fmt.Sprintf("currently(%s)+dependency(%s)", s.phase, s.dependsOn)
		}
		return fmt.Sprintf("currently(%s)", s.phase)
	case statusDone:
		return fmt.Sprintf("done(%s)", s.phase)
	case statusFailed:
		return fmt.Sprintf("failed(%s)", s.failReason)
	default:
		return "unknown"
	}
}

// --- transitions ---------------------------------------------------------
//
// Preconditions are enforced by panicking: an illegal transition is a
// programmer error, never a runtime condition the caller is expected to
// recover from (spec §4.2, §7 "Invariant violation").

// StartTo transitions into currently(phase). Valid from Ready, or from a
// prior done(...) phase when chaining stages (e.g. done(preparing) ->
// currently(configuring)).
func (s *State) StartTo(phase Phase) {
	if s.Terminal() {
		panic("taskstate: StartTo called on a terminal state")
	}
	if s.status != statusReady && s.status != statusDone {
		panic("taskstate: StartTo requires ready or a completed prior phase")
	}
	s.status = statusCurrent
	s.phase = phase
	s.hasDep = false
}

// Finish transitions currently(phase) -> done(phase). Requires the task to
// have been started.
func (s *State) Finish() {
	if !s.IsStarted() || s.status != statusCurrent {
		panic("taskstate: Finish requires a started (currently(...)) state")
	}
	s.status = statusDone
	s.hasDep = false
}

// Fail transitions to failed(reason). Requires the task to be started or
// dependency-flagged, and not already terminal.
func (s *State) Fail(reason string) {
	if s.Terminal() {
		panic("taskstate: Fail called on a terminal state")
	}
	if !(s.IsStarted() || s.hasDep) {
		panic("taskstate: Fail requires a started or dependency-flagged state")
	}
	s.status = statusFailed
	s.failReason = reason
	s.hasDep = false
}

// WaitTo parks the task in currently(waiting).
func (s *State) WaitTo() {
	if s.Terminal() {
		panic("taskstate: WaitTo called on a terminal state")
	}
	s.status = statusCurrent
	s.phase = PhaseWaiting
}

// Waken flips a parked currently(waiting) task to done(waiting) ("waited"),
// placing it at the head of the next pick.
func (s *State) Waken() {
	if !s.IsWaiting() {
		panic("taskstate: Waken requires currently(waiting)")
	}
	s.status = statusDone
	s.hasDep = false
}

// Pause transitions currently(executing) -> done(pausing). Only executing
// tasks may be paused.
func (s *State) Pause() {
	if !s.IsExecuting() {
		panic("taskstate: Pause requires currently(executing)")
	}
	s.status = statusDone
	s.phase = PhasePausing
}

// Resume transitions done(pausing) -> currently(executing).
func (s *State) Resume() {
	if !s.IsPaused() {
		panic("taskstate: Resume requires done(pausing)")
	}
	s.status = statusCurrent
	s.phase = PhaseExecuting
}

// Cancel transitions currently(executing) -> done(cancelling). Only
// executing tasks may be cancelled.
func (s *State) Cancel() {
	if !s.IsExecuting() {
		panic("taskstate: Cancel requires currently(executing)")
	}
	s.status = statusDone
	s.phase = PhaseCancelling
}

// SetDependency decorates a non-terminal state with the id of the dependency
// currently stalling it.
func (s *State) SetDependency(id string) {
	if s.Terminal() {
		panic("taskstate: SetDependency called on a terminal state")
	}
	s.dependsOn = id
	s.hasDep = true
}

// ClearDependency removes the dependency decorator without changing phase.
func (s *State) ClearDependency() {
	s.hasDep = false
	s.dependsOn = ""
}
