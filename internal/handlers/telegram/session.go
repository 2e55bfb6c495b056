package telegram

import "sync"

// pendingAction is an operation waiting for the operator to type a reason.
type pendingAction int

const (
	pendingNone pendingAction = iota
	pendingEmergencyStop
	pendingReset
)

type sessions struct {
	mu      sync.Mutex
	pending map[int64]pendingAction
}

func newSessions() *sessions {
	return &sessions{pending: make(map[int64]pendingAction)}
}

func (s *sessions) Await(chatID int64, a pendingAction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a == pendingNone {
		delete(s.pending, chatID)
		return
	}
	s.pending[chatID] = a
}

// Take returns the pending action for the chat and clears it.
func (s *sessions) Take(chatID int64) pendingAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.pending[chatID]
	delete(s.pending, chatID)
	return a
}

func (s *sessions) Clear(chatID int64) {
	s.Await(chatID, pendingNone)
}
