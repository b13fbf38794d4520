package runner

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunStateLifecycle(testInstance *testing.T) {
	runState := NewRunState()

	initialSnapshot := runState.Snapshot()
	require.False(testInstance, initialSnapshot.Running)
	require.False(testInstance, initialSnapshot.Cancelled)
	require.Zero(testInstance, initialSnapshot.Fraction)

	require.True(testInstance, runState.beginRun("Starting repair"))
	require.False(testInstance, runState.beginRun("Starting repair"), "a second run must be rejected while one is active")

	runState.publishProgress("quit app", 0.20)
	progressSnapshot := runState.Snapshot()
	require.Equal(testInstance, "quit app", progressSnapshot.Message)
	require.Equal(testInstance, 0.20, progressSnapshot.Fraction)
	require.True(testInstance, progressSnapshot.Running)

	require.True(testInstance, runState.requestCancel())
	require.True(testInstance, runState.cancelRequested())

	runState.finishRun()
	require.False(testInstance, runState.Snapshot().Running)
	require.False(testInstance, runState.requestCancel(), "cancel must have no effect while idle")
}

func TestRunStateBeginRunClearsStaleCancellation(testInstance *testing.T) {
	runState := NewRunState()

	require.True(testInstance, runState.beginRun("Starting diagnostic"))
	require.True(testInstance, runState.requestCancel())
	runState.finishRun()

	require.True(testInstance, runState.beginRun("Starting diagnostic"))
	require.False(testInstance, runState.cancelRequested())
	runState.finishRun()
}

func TestRunStateSubscriptionsReceiveMutations(testInstance *testing.T) {
	runState := NewRunState()
	subscription := runState.Subscribe()

	require.True(testInstance, runState.beginRun("Starting diagnostic"))
	runState.publishProgress("check app running", 0.25)
	runState.finishRun()

	receivedSnapshots := make([]RunSnapshot, 0, 3)
	for snapshotIndex := 0; snapshotIndex < 3; snapshotIndex++ {
		receivedSnapshots = append(receivedSnapshots, <-subscription)
	}

	require.Equal(testInstance, "Starting diagnostic", receivedSnapshots[0].Message)
	require.True(testInstance, receivedSnapshots[0].Running)
	require.Equal(testInstance, 0.25, receivedSnapshots[1].Fraction)
	require.False(testInstance, receivedSnapshots[2].Running)
}

func TestRunStateSlowSubscriberNeverBlocksPublisher(testInstance *testing.T) {
	runState := NewRunState()
	runState.Subscribe()

	require.True(testInstance, runState.beginRun("Starting diagnostic"))
	// Publishing far more snapshots than the channel buffers must not block.
	for publishIndex := 0; publishIndex < subscriptionChannelBufferSizeConstant*4; publishIndex++ {
		runState.publishProgress("step", float64(publishIndex))
	}
	runState.finishRun()
}
