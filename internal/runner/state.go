package runner

import "sync"

const subscriptionChannelBufferSizeConstant = 16

// RunSnapshot is an immutable view of the observable run state.
type RunSnapshot struct {
	Message   string
	Fraction  float64
	Running   bool
	Cancelled bool
}

// RunState is the single shared mutable state observed by the presentation
// layer. Exactly one producer (the SequenceRunner) mutates it; observers read
// point-in-time snapshots or consume subscription channels. Construct one
// explicitly and pass it by reference rather than relying on a singleton.
type RunState struct {
	stateMutex    sync.Mutex
	message       string
	fraction      float64
	running       bool
	cancelled     bool
	subscriptions []chan RunSnapshot
}

// NewRunState constructs an idle run state.
func NewRunState() *RunState {
	return &RunState{}
}

// Snapshot returns the current observable state.
func (state *RunState) Snapshot() RunSnapshot {
	state.stateMutex.Lock()
	defer state.stateMutex.Unlock()
	return state.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every state mutation.
// Publishes never block: a subscriber that falls behind misses intermediate
// snapshots rather than stalling the run.
func (state *RunState) Subscribe() <-chan RunSnapshot {
	state.stateMutex.Lock()
	defer state.stateMutex.Unlock()

	subscription := make(chan RunSnapshot, subscriptionChannelBufferSizeConstant)
	state.subscriptions = append(state.subscriptions, subscription)
	return subscription
}

// beginRun transitions the state to running when idle, clearing any stale
// cancellation request. It reports false when a run is already active.
func (state *RunState) beginRun(startMessage string) bool {
	state.stateMutex.Lock()
	defer state.stateMutex.Unlock()

	if state.running {
		return false
	}

	state.running = true
	state.cancelled = false
	state.message = startMessage
	state.fraction = 0
	state.publishLocked()
	return true
}

// finishRun returns the state to idle. It runs on every terminal path so a
// failed or cancelled run can never leave the state permanently running.
func (state *RunState) finishRun() {
	state.stateMutex.Lock()
	defer state.stateMutex.Unlock()

	state.running = false
	state.publishLocked()
}

// publishProgress advances the observable message and fraction together.
func (state *RunState) publishProgress(message string, fraction float64) {
	state.stateMutex.Lock()
	defer state.stateMutex.Unlock()

	state.message = message
	state.fraction = fraction
	state.publishLocked()
}

// publishMessage updates the observable message without touching the fraction.
func (state *RunState) publishMessage(message string) {
	state.stateMutex.Lock()
	defer state.stateMutex.Unlock()

	state.message = message
	state.publishLocked()
}

// requestCancel marks the active run for cooperative cancellation. It has no
// effect when no run is active.
func (state *RunState) requestCancel() bool {
	state.stateMutex.Lock()
	defer state.stateMutex.Unlock()

	if !state.running {
		return false
	}

	state.cancelled = true
	state.publishLocked()
	return true
}

// cancelRequested reports whether cancellation was requested for the active run.
func (state *RunState) cancelRequested() bool {
	state.stateMutex.Lock()
	defer state.stateMutex.Unlock()
	return state.cancelled
}

func (state *RunState) snapshotLocked() RunSnapshot {
	return RunSnapshot{
		Message:   state.message,
		Fraction:  state.fraction,
		Running:   state.running,
		Cancelled: state.cancelled,
	}
}

func (state *RunState) publishLocked() {
	snapshot := state.snapshotLocked()
	for _, subscription := range state.subscriptions {
		select {
		case subscription <- snapshot:
		default:
		}
	}
}
