package core

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

type (
	ExecutionID string

	// Execution records the progress of one pipeline run.
	Execution struct {
		id        ExecutionID
		domainID  string
		state     ExecutionState
		timeTaken time.Duration
		timestamp time.Time

		stageIndex int
		stageKind  string
		stageCount int

		// any error that might occur during execution
		err error
	}
)

// executionPersistent is used for marshaling and unmarshaling the execution
type executionPersistent struct {
	ID         string `json:"id"`
	DomainID   string `json:"domain_id,omitempty"`
	State      string `json:"state"`
	TimeTaken  int64  `json:"time_taken_us"`
	Timestamp  int64  `json:"timestamp_us"`
	StageIndex int    `json:"stage_index"`
	StageKind  string `json:"stage,omitempty"`
	StageCount int    `json:"stage_count"`
	Error      string `json:"error,omitempty"`
}

func (e *Execution) toPersistent() *executionPersistent {
	errMsg := ""
	if e.err != nil {
		errMsg = e.err.Error()
	}

	return &executionPersistent{
		ID:         string(e.id),
		DomainID:   e.domainID,
		State:      e.state.String(),
		TimeTaken:  e.timeTaken.Microseconds(),
		Timestamp:  e.timestamp.UnixMicro(),
		StageIndex: e.stageIndex,
		StageKind:  e.stageKind,
		StageCount: e.stageCount,
		Error:      errMsg,
	}
}

func (e *Execution) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.toPersistent())
}

func (e *Execution) UnmarshalJSON(data []byte) error {
	var alias executionPersistent

	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var execErr error
	if alias.Error != "" {
		execErr = errors.New(alias.Error)
	}

	*e = Execution{
		id:         ExecutionID(alias.ID),
		domainID:   alias.DomainID,
		state:      ExecutionStateFromString(alias.State),
		timeTaken:  time.Duration(alias.TimeTaken) * time.Microsecond,
		timestamp:  time.UnixMicro(alias.Timestamp),
		stageIndex: alias.StageIndex,
		stageKind:  alias.StageKind,
		stageCount: alias.StageCount,
		err:        execErr,
	}

	return nil
}

func newExecution(domainID string, stageCount int) *Execution {
	return &Execution{
		id:         ExecutionID(uuid.New().String()),
		domainID:   domainID,
		state:      ExecutionStateAwaitingFirstStage,
		timestamp:  time.Now(),
		stageIndex: -1,
		stageCount: stageCount,
	}
}

func (e *Execution) enterStage(index int, kind string) {
	if e.state.IsFinal() {
		return
	}
	e.state = ExecutionStateRunning
	e.stageIndex = index
	e.stageKind = kind
	e.timeTaken = time.Since(e.timestamp)
}

func (e *Execution) complete() {
	if e.state.IsFinal() {
		return
	}
	e.state = ExecutionStateCompleted
	e.timeTaken = time.Since(e.timestamp)
}

func (e *Execution) fail(err error) {
	if e.state.IsFinal() {
		return
	}
	e.state = ExecutionStateFailed
	e.err = err
	e.timeTaken = time.Since(e.timestamp)
}

func (e *Execution) GetID() ExecutionID {
	return e.id
}

func (e *Execution) GetDomainID() string {
	return e.domainID
}

func (e *Execution) GetState() ExecutionState {
	return e.state
}

func (e *Execution) GetTimeTaken() time.Duration {
	return e.timeTaken
}

func (e *Execution) GetTimestamp() time.Time {
	return e.timestamp
}

// GetStage returns the index and kind of the current stage. The index is -1
// before the first stage starts.
func (e *Execution) GetStage() (int, string) {
	return e.stageIndex, e.stageKind
}

func (e *Execution) GetStageCount() int {
	return e.stageCount
}

func (e *Execution) Err() error {
	return e.err
}
