package usecases

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/iwtcode/conveyorControl/internal/domain"
	"github.com/iwtcode/conveyorControl/internal/domain/entities"
	"github.com/iwtcode/conveyorControl/internal/interfaces"
	"go.uber.org/zap"
)

// transitions maps command -> source state -> resulting state.
// A missing entry is an illegal transition.
var transitions = map[entities.Command]map[entities.ConveyorState]entities.ConveyorState{
	entities.CommandStart: {
		entities.StateStopped: entities.StateRunning,
		entities.StatePaused:  entities.StateRunning,
		entities.StateRunning: entities.StateRunning,
	},
	entities.CommandStop: {
		entities.StateRunning: entities.StateStopped,
		entities.StatePaused:  entities.StateStopped,
		entities.StateStopped: entities.StateStopped,
	},
	entities.CommandPause: {
		entities.StateRunning: entities.StatePaused,
	},
	entities.CommandEmergencyStop: {
		entities.StateRunning:          entities.StateEmergencyStopped,
		entities.StateStopped:          entities.StateEmergencyStopped,
		entities.StatePaused:           entities.StateEmergencyStopped,
		entities.StateEmergencyStopped: entities.StateEmergencyStopped,
	},
}

// stateAfter is the state every logged command leaves the line in.
var stateAfter = map[entities.Command]entities.ConveyorState{
	entities.CommandStart:         entities.StateRunning,
	entities.CommandStop:          entities.StateStopped,
	entities.CommandPause:         entities.StatePaused,
	entities.CommandEmergencyStop: entities.StateEmergencyStopped,
}

const resetReasonPrefix = "reset: "

type conveyorStateMachine struct {
	// mu serializes transitions (write) against production checks (read).
	// A waiting writer blocks new readers, so an emergency stop is not
	// starved by a stream of production events.
	mu    sync.RWMutex
	state entities.ConveyorState
	last  time.Time

	log    interfaces.CommandLog
	now    func() time.Time
	logger *zap.Logger
}

func NewConveyorStateMachine(log interfaces.CommandLog, logger *zap.Logger) interfaces.ConveyorStateMachine {
	return NewConveyorStateMachineWithClock(log, logger, time.Now)
}

func NewConveyorStateMachineWithClock(log interfaces.CommandLog, logger *zap.Logger, now func() time.Time) interfaces.ConveyorStateMachine {
	return &conveyorStateMachine{
		state:  entities.StateStopped,
		log:    log,
		now:    now,
		logger: logger.Named("conveyor"),
	}
}

func (m *conveyorStateMachine) State() entities.ConveyorState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *conveyorStateMachine) Submit(ctx context.Context, cmd entities.Command, reason string) (entities.ConveyorState, error) {
	if !cmd.Valid() {
		return m.State(), fmt.Errorf("%w: %q", domain.ErrUnknownCommand, cmd)
	}
	reason = strings.TrimSpace(reason)

	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.state
	if cmd.RequiresReason() && reason == "" {
		return from, m.reject(from, cmd.String(), domain.ErrMissingReason)
	}
	next, ok := transitions[cmd][from]
	if !ok {
		return from, m.reject(from, cmd.String(), nil)
	}

	if err := m.commit(ctx, cmd, reason, next); err != nil {
		return from, err
	}
	return next, nil
}

func (m *conveyorStateMachine) Reset(ctx context.Context, reason string) (entities.ConveyorState, error) {
	reason = strings.TrimSpace(reason)

	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.state
	if from != entities.StateEmergencyStopped {
		return from, m.reject(from, domain.ResetLabel, nil)
	}
	if reason == "" {
		return from, m.reject(from, domain.ResetLabel, domain.ErrMissingReason)
	}

	// Logged as STOP so that replaying the log yields STOPPED.
	if err := m.commit(ctx, entities.CommandStop, resetReasonPrefix+reason, entities.StateStopped); err != nil {
		return from, err
	}
	return entities.StateStopped, nil
}

func (m *conveyorStateMachine) Restore(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	last, err := m.log.Last(ctx)
	if err != nil {
		return fmt.Errorf("restore conveyor state: %w", err)
	}
	if last == nil {
		m.state = entities.StateStopped
		m.logger.Info("no command history, line starts stopped")
		return nil
	}

	state, ok := stateAfter[last.Command]
	if !ok {
		return fmt.Errorf("restore conveyor state: %w: %q", domain.ErrUnknownCommand, last.Command)
	}
	m.state = state
	m.last = last.Timestamp.UTC()
	m.logger.Info("conveyor state restored",
		zap.String("state", state.String()),
		zap.Uint64("last_record_id", last.ID),
		zap.Time("last_record_at", last.Timestamp),
	)
	return nil
}

func (m *conveyorStateMachine) WhileRunning(fn func() error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state != entities.StateRunning {
		return &domain.LineNotRunningError{State: m.state}
	}
	return fn()
}

// commit appends the record and only then moves the state. Must hold mu.
func (m *conveyorStateMachine) commit(ctx context.Context, cmd entities.Command, reason string, next entities.ConveyorState) error {
	rec := &entities.ConveyorStatus{
		Timestamp: m.stamp(),
		Command:   cmd,
	}
	if reason != "" {
		rec.Reason = &reason
	}

	if err := m.log.Append(ctx, rec); err != nil {
		m.logger.Error("command log append failed, state unchanged",
			zap.String("command", cmd.String()),
			zap.String("state", m.state.String()),
			zap.Error(err),
		)
		return err
	}

	from := m.state
	m.state = next
	m.logger.Info("command accepted",
		zap.Uint64("record_id", rec.ID),
		zap.String("command", cmd.String()),
		zap.String("from", from.String()),
		zap.String("to", next.String()),
		zap.String("reason", reason),
	)
	return nil
}

// stamp returns a timestamp that never goes behind the previous record.
func (m *conveyorStateMachine) stamp() time.Time {
	now := m.now().UTC()
	if now.Before(m.last) {
		now = m.last
	}
	m.last = now
	return now
}

func (m *conveyorStateMachine) reject(from entities.ConveyorState, command string, cause error) error {
	err := &domain.TransitionError{From: from, Command: command, Cause: cause}
	m.logger.Warn("command rejected",
		zap.String("command", command),
		zap.String("state", from.String()),
		zap.Error(err),
	)
	return err
}
