package entities

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUnknownState   = errors.New("unknown conveyor state")
)

// Command is an operator or automation directive for the conveyor line.
type Command string

const (
	CommandStart         Command = "START"
	CommandStop          Command = "STOP"
	CommandPause         Command = "PAUSE"
	CommandEmergencyStop Command = "EMERGENCY_STOP"
)

// Commands lists every valid command in declaration order.
var Commands = []Command{CommandStart, CommandStop, CommandPause, CommandEmergencyStop}

func (c Command) Valid() bool {
	return slices.Contains(Commands, c)
}

// RequiresReason reports whether a record of this command must carry a reason.
func (c Command) RequiresReason() bool {
	return c == CommandEmergencyStop
}

func (c Command) String() string { return string(c) }

// ParseCommand accepts the wire value in any case; "emergency-stop" and
// "emergency stop" are accepted as EMERGENCY_STOP.
func ParseCommand(s string) (Command, error) {
	c := Command(normalize(s))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
	}
	return c, nil
}

// ConveyorState is the operational state of the line.
type ConveyorState string

const (
	StateRunning          ConveyorState = "RUNNING"
	StateStopped          ConveyorState = "STOPPED"
	StatePaused           ConveyorState = "PAUSED"
	StateEmergencyStopped ConveyorState = "EMERGENCY_STOPPED"
)

var ConveyorStates = []ConveyorState{StateRunning, StateStopped, StatePaused, StateEmergencyStopped}

func (s ConveyorState) Valid() bool {
	return slices.Contains(ConveyorStates, s)
}

func (s ConveyorState) String() string { return string(s) }

func ParseConveyorState(s string) (ConveyorState, error) {
	st := ConveyorState(normalize(s))
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownState, s)
	}
	return st, nil
}

func normalize(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

// ConveyorStatus is one accepted command in the audit log (table conveyor_status).
type ConveyorStatus struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	Command   Command   `gorm:"type:varchar(32);not null" json:"command"`
	Reason    *string   `gorm:"type:text" json:"reason,omitempty"`
}

func (ConveyorStatus) TableName() string { return "conveyor_status" }

// ReasonText returns the reason or "" when absent.
func (r ConveyorStatus) ReasonText() string {
	if r.Reason == nil {
		return ""
	}
	return *r.Reason
}

// StockSummary is the produced count for one car model (table stock_summary).
type StockSummary struct {
	CarModel  string    `gorm:"primaryKey;size:255" json:"carModel"`
	Count     int64     `gorm:"not null;default:0" json:"count"`
	Position  int64     `gorm:"not null;index" json:"-"` // insertion order
	UpdatedAt time.Time `json:"-"`
}

func (StockSummary) TableName() string { return "stock_summary" }

// HistoryFilter selects log records in the half-open range [From, To).
// Zero From/To are unbounded; empty Commands matches all commands.
type HistoryFilter struct {
	From     time.Time
	To       time.Time
	Commands []Command
}

func (f HistoryFilter) Matches(r ConveyorStatus) bool {
	if !f.From.IsZero() && r.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !r.Timestamp.Before(f.To) {
		return false
	}
	return len(f.Commands) == 0 || slices.Contains(f.Commands, r.Command)
}
