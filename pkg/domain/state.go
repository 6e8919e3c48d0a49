package domain

import (
	"errors"
	"fmt"
)

// State of entities, as the backend reports it.
//
// Runs walk CREATED -> BUILT -> RUNNING -> (COMPLETED | ERROR | STOPPED).
type State string

const (
	Built     State = "BUILT"
	Cancelled State = "CANCELLED"
	Completed State = "COMPLETED"
	Created   State = "CREATED"
	Creating  State = "CREATING"
	Deleted   State = "DELETED"
	Deleting  State = "DELETING"
	Error     State = "ERROR"
	FsmError  State = "FSM_ERROR"
	Idle      State = "IDLE"
	None      State = "NONE"
	Online    State = "ONLINE"
	Pending   State = "PENDING"
	Ready     State = "READY"
	Resume    State = "RESUME"
	RunError  State = "RUN_ERROR"
	Running   State = "RUNNING"
	Stop      State = "STOP"
	Stopped   State = "STOPPED"
	Success   State = "SUCCESS"
	Unknown   State = "UNKNOWN"
	Uploading State = "UPLOADING"
)

func (s State) String() string {
	return string(s)
}

func AsState(s string) (State, error) {
	switch st := State(s); st {
	case Built, Cancelled, Completed, Created, Creating, Deleted, Deleting,
		Error, FsmError, Idle, None, Online, Pending, Ready, Resume, RunError,
		Running, Stop, Stopped, Success, Unknown, Uploading:
		return st, nil
	default:
		return "", fmt.Errorf("'%s' is not State", s)
	}
}

// Terminal reports whether a run in this state will not change anymore by itself.
func (s State) Terminal() bool {
	switch s {
	case Completed, Error, Stopped, Cancelled, Deleted, RunError, FsmError, Success:
		return true
	default:
		return false
	}
}

// LocallyRunnable reports whether a run in this state can be executed in this process.
func (s State) LocallyRunnable() bool {
	switch s {
	case Built, Stopped:
		return true
	default:
		return false
	}
}

var runTransitions = map[State][]State{
	Created: {Built, Running, Error},
	Built:   {Running, Error, Stopped},
	Running: {Completed, Error, Stopped},
	Stopped: {Running, Error},
	Ready:   {Running, Error, Stopped},
}

// CanChangeTo reports whether runs may move from s to next.
func (s State) CanChangeTo(next State) bool {
	for _, to := range runTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

var ErrInvalidRunStateChanging = errors.New("cannot change run state")

func NewErrInvalidRunStateChanging(from, to State) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidRunStateChanging, from, to)
}
