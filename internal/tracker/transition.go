package tracker

import (
	"sync"
	"time"
)

// DefaultDwell is how long a completed series stays in AllComplete before
// the completion callback runs.
const DefaultDwell = 2 * time.Second

// State is the completion state of one series.
type State int

const (
	InProgress  State = iota
	AllComplete       // transient; the advance is scheduled
	Advanced
)

func (s State) String() string {
	switch s {
	case InProgress:
		return "in_progress"
	case AllComplete:
		return "all_complete"
	case Advanced:
		return "advanced"
	}
	return "unknown"
}

// Timer is a pending fire-once callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler func(d time.Duration, f func()) Timer

// AfterFunc schedules with time.AfterFunc.
func AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// CompletionTransition tracks which series have been fully completed and
// calls onCompleted once per completion, after the dwell.
type CompletionTransition struct {
	dwell       time.Duration
	schedule    Scheduler
	onCompleted func(seriesID string)

	mu       sync.Mutex
	states   map[string]State
	timers   map[string]Timer
	reopened map[string]bool // went incomplete again while AllComplete
	closed   bool
}

// NewCompletionTransition creates a transition machine. A nil scheduler
// means AfterFunc, a non-positive dwell means DefaultDwell.
func NewCompletionTransition(dwell time.Duration, schedule Scheduler, onCompleted func(seriesID string)) *CompletionTransition {
	if dwell <= 0 {
		dwell = DefaultDwell
	}
	if schedule == nil {
		schedule = AfterFunc
	}
	return &CompletionTransition{
		dwell:       dwell,
		schedule:    schedule,
		onCompleted: onCompleted,
		states:      make(map[string]State),
		timers:      make(map[string]Timer),
		reopened:    make(map[string]bool),
	}
}

// Observe feeds the current completeness of a series into the machine and
// returns its resulting state.
//
// InProgress moves to AllComplete when the series is complete and schedules
// the advance. AllComplete cannot be aborted. Advanced returns to InProgress
// only once the series is seen incomplete, so re-observing a series that is
// already complete never fires again.
func (t *CompletionTransition) Observe(seriesID string, complete bool) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return t.states[seriesID]
	}

	switch cur := t.states[seriesID]; {
	case cur == InProgress && complete:
		t.states[seriesID] = AllComplete
		delete(t.reopened, seriesID)
		t.timers[seriesID] = t.schedule(t.dwell, func() { t.fire(seriesID) })
	case cur == AllComplete && !complete:
		t.reopened[seriesID] = true
	case cur == AllComplete && complete:
		delete(t.reopened, seriesID)
	case cur == Advanced && !complete:
		t.states[seriesID] = InProgress
	}
	return t.states[seriesID]
}

// Settle records the completeness of a series found on load without
// scheduling an advance. A series that is already complete starts Advanced.
func (t *CompletionTransition) Settle(seriesID string, complete bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.states[seriesID] != InProgress {
		return
	}
	if complete {
		t.states[seriesID] = Advanced
	}
}

// State returns the current state of a series.
func (t *CompletionTransition) State(seriesID string) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states[seriesID]
}

// Close stops all pending advances. Late fires become no-ops.
func (t *CompletionTransition) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
}

func (t *CompletionTransition) fire(seriesID string) {
	t.mu.Lock()
	if t.closed || t.states[seriesID] != AllComplete {
		t.mu.Unlock()
		return
	}
	if t.reopened[seriesID] {
		t.states[seriesID] = InProgress
		delete(t.reopened, seriesID)
	} else {
		t.states[seriesID] = Advanced
	}
	delete(t.timers, seriesID)
	t.mu.Unlock()

	if t.onCompleted != nil {
		t.onCompleted(seriesID)
	}
}
