package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/statekit"
)

// Phase is the state of a mirror run.
type Phase string

const (
	stateIdle        = "idle"
	stateDiscovering = "discovering"
	stateResolving   = "resolving"
	stateFinalizing  = "finalizing"
	stateCompleted   = "completed"
	stateFailed      = "failed"
)

// Run phases.
const (
	// PhaseIdle is a run that has not started.
	PhaseIdle Phase = stateIdle
	// PhaseDiscovering is fetching the repository index.
	PhaseDiscovering Phase = stateDiscovering
	// PhaseResolving is walking listing pages and hashing artifacts.
	PhaseResolving Phase = stateResolving
	// PhaseFinalizing is writing the manifest footer and flushing outputs.
	PhaseFinalizing Phase = stateFinalizing
	// PhaseCompleted is a run whose manifest is complete.
	PhaseCompleted Phase = stateCompleted
	// PhaseFailed is a run that aborted; the manifest may be partial.
	PhaseFailed Phase = stateFailed
)

// Event types for the run state machine.
const (
	EventStart    = "START"
	EventResolve  = "RESOLVE"
	EventFinalize = "FINALIZE"
	EventComplete = "COMPLETE"
	EventFail     = "FAIL"
)

// RunContext is the statekit context of a run.
type RunContext struct {
	RunID string
}

// Lifecycle tracks one run through its phases.
type Lifecycle struct {
	interp *statekit.Interpreter[RunContext]
	now    func() time.Time

	mu         sync.RWMutex
	startedAt  time.Time
	finishedAt time.Time
	err        error
}

// NewLifecycle builds and starts the state machine for runID.
func NewLifecycle(runID string, now func() time.Time) (*Lifecycle, error) {
	if now == nil {
		now = time.Now
	}
	l := &Lifecycle{now: now}

	// Actions close over l so they update the Lifecycle, not a copy of the
	// machine context.
	machine, err := statekit.NewMachine[RunContext]("plugmirror-run").
		WithInitial(stateIdle).
		WithContext(RunContext{RunID: runID}).
		WithAction("recordStart", func(_ *RunContext, _ statekit.Event) {
			l.recordStart()
		}).
		WithAction("recordFinish", func(_ *RunContext, _ statekit.Event) {
			l.recordFinish(nil)
		}).
		WithAction("recordFailure", func(_ *RunContext, event statekit.Event) {
			if payload, ok := event.Payload.(map[string]interface{}); ok {
				if err, ok := payload["error"].(error); ok {
					l.recordFinish(err)
					return
				}
			}
			l.recordFinish(errors.New("run failed"))
		}).
		State(stateIdle).
		On(EventStart).Target(stateDiscovering).
		On(EventFail).Target(stateFailed).Done().
		State(stateDiscovering).
		OnEntry("recordStart").
		On(EventResolve).Target(stateResolving).
		On(EventFinalize).Target(stateFinalizing).
		On(EventFail).Target(stateFailed).Done().
		State(stateResolving).
		On(EventFinalize).Target(stateFinalizing).
		On(EventFail).Target(stateFailed).Done().
		State(stateFinalizing).
		On(EventComplete).Target(stateCompleted).
		On(EventFail).Target(stateFailed).Done().
		State(stateCompleted).
		OnEntry("recordFinish").Done().
		State(stateFailed).
		OnEntry("recordFailure").Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build run state machine: %w", err)
	}

	l.interp = statekit.NewInterpreter(machine)
	l.interp.Start()
	return l, nil
}

// Begin moves an idle run to discovering.
func (l *Lifecycle) Begin() {
	l.interp.Send(statekit.Event{Type: EventStart})
}

// Resolving marks the first listing page being processed.
func (l *Lifecycle) Resolving() {
	l.interp.Send(statekit.Event{Type: EventResolve})
}

// Finalizing marks the end of discovery.
func (l *Lifecycle) Finalizing() {
	l.interp.Send(statekit.Event{Type: EventFinalize})
}

// Complete marks the manifest as fully written.
func (l *Lifecycle) Complete() {
	l.interp.Send(statekit.Event{Type: EventComplete})
}

// Fail aborts the run with err.
func (l *Lifecycle) Fail(err error) {
	l.interp.Send(statekit.Event{
		Type:    EventFail,
		Payload: map[string]interface{}{"error": err},
	})
}

// Phase returns the current phase.
func (l *Lifecycle) Phase() Phase {
	return Phase(l.interp.State().Value)
}

// Err returns the failure recorded on entering the failed phase.
func (l *Lifecycle) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.err
}

// StartedAt returns when discovery began.
func (l *Lifecycle) StartedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.startedAt
}

// FinishedAt returns when the run completed or failed.
func (l *Lifecycle) FinishedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.finishedAt
}

// Stop shuts the interpreter down.
func (l *Lifecycle) Stop() {
	l.interp.Stop()
}

func (l *Lifecycle) recordStart() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.startedAt = l.now()
}

func (l *Lifecycle) recordFinish(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.finishedAt = l.now()
	l.err = err
}
