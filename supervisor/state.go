// File: supervisor/state.go
// Author: momentics <momentics@gmail.com>
//
// State is the supervisor's connection state machine, per spec §4.8:
// Disconnected -> Connecting -> Calibrating -> Streaming <-> ErrorRecoverable
// -> Disconnected, with a terminal ErrorFatal. RecordingState is
// orthogonal, gated on Streaming.

package supervisor

// State is the connection/streaming lifecycle state.
type State string

const (
	StateDisconnected     State = "Disconnected"
	StateConnecting       State = "Connecting"
	StateCalibrating      State = "Calibrating"
	StateStreaming        State = "Streaming"
	StateErrorRecoverable State = "ErrorRecoverable"
	StateErrorFatal       State = "ErrorFatal"
)

// RecordingState is orthogonal to State, gated on State == StateStreaming.
type RecordingState string

const (
	RecordingIdle      RecordingState = "Idle"
	RecordingRecording RecordingState = "Recording"
)

// validTransitions enumerates the state machine's allowed edges.
var validTransitions = map[State][]State{
	StateDisconnected:     {StateConnecting},
	StateConnecting:       {StateCalibrating, StateErrorRecoverable, StateErrorFatal, StateDisconnected},
	StateCalibrating:      {StateStreaming, StateErrorRecoverable, StateErrorFatal, StateDisconnected},
	StateStreaming:        {StateErrorRecoverable, StateDisconnected, StateErrorFatal},
	StateErrorRecoverable: {StateConnecting, StateDisconnected, StateErrorFatal},
	StateErrorFatal:       {},
}

func canTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
