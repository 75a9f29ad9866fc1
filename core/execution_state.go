package core

type ExecutionState int

const (
	ExecutionStateUnknown ExecutionState = iota
	ExecutionStateAwaitingFirstStage
	ExecutionStateRunning
	ExecutionStateCompleted
	ExecutionStateFailed
)

func ExecutionStateFromString(s string) ExecutionState {
	switch s {
	case ExecutionStateAwaitingFirstStage.String():
		return ExecutionStateAwaitingFirstStage
	case ExecutionStateRunning.String():
		return ExecutionStateRunning
	case ExecutionStateCompleted.String():
		return ExecutionStateCompleted
	case ExecutionStateFailed.String():
		return ExecutionStateFailed
	default:
		return ExecutionStateUnknown
	}
}

func (s ExecutionState) String() string {
	switch s {
	case ExecutionStateAwaitingFirstStage:
		return "awaiting_first_stage"
	case ExecutionStateRunning:
		return "running"
	case ExecutionStateCompleted:
		return "completed"
	case ExecutionStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsFinal reports whether no further transitions can happen.
func (s ExecutionState) IsFinal() bool {
	return s == ExecutionStateCompleted || s == ExecutionStateFailed
}
