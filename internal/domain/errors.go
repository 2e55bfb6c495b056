// Package domain holds the error taxonomy shared by the control core and its adapters.
package domain

import (
	"errors"
	"fmt"

	"github.com/iwtcode/conveyorControl/internal/domain/entities"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrMissingReason     = errors.New("reason is required")
	ErrLineNotRunning    = errors.New("line is not running")
	ErrPersistence       = errors.New("persistence failure")

	ErrUnknownCommand  = entities.ErrUnknownCommand
	ErrInvalidRange    = errors.New("invalid time range")
	ErrInvalidCarModel = errors.New("car model is required")
	ErrUnknownCarModel = errors.New("unknown car model")
)

// ResetLabel names the administrative reset in TransitionError messages.
const ResetLabel = "RESET"

// TransitionError reports a command that is not legal from the current state.
// It matches ErrInvalidTransition and, for a missing reason, ErrMissingReason.
type TransitionError struct {
	From    entities.ConveyorState
	Command string
	Cause   error
}

func (e *TransitionError) Error() string {
	if errors.Is(e.Cause, ErrMissingReason) {
		return fmt.Sprintf("%s requires a reason", e.Command)
	}
	return fmt.Sprintf("cannot apply %s while %s", e.Command, e.From)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

func (e *TransitionError) Unwrap() error { return e.Cause }

type LineNotRunningError struct {
	State entities.ConveyorState
}

func (e *LineNotRunningError) Error() string {
	return fmt.Sprintf("production refused: line is %s", e.State)
}

func (e *LineNotRunningError) Is(target error) bool { return target == ErrLineNotRunning }

// PersistenceError wraps a store failure. The operation that produced it had no effect.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func (e *PersistenceError) Unwrap() error { return e.Err }

func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
