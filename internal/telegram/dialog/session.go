// Package dialog implements the add-transaction conversation: a per-user
// session store and a state machine dispatching on (step, event kind).
// The machine produces render plans; it never talks to the transport.
package dialog

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Step identifies the position of a user inside the add-transaction flow.
type Step string

const (
	// StepIdle indicates there is no active conversation with the user.
	StepIdle Step = "idle"
	// StepAwaitingAmount waits for a transaction amount typed as text.
	StepAwaitingAmount Step = "awaiting_amount"
	// StepAwaitingCategory waits for a category button tap.
	StepAwaitingCategory Step = "awaiting_category"
	// StepAwaitingDescription waits for an optional note or the skip button.
	StepAwaitingDescription Step = "awaiting_description"
	// StepAwaitingConfirmation waits for the save or cancel button.
	StepAwaitingConfirmation Step = "awaiting_confirmation"
)

// PromptRef identifies an outbound message so it can be edited or deleted.
type PromptRef struct {
	ChatID    int64
	MessageID int
}

// Session is the conversational state of one user. All flow-scoped data,
// including the income/expense marker and the reference to the last prompt,
// lives here so concurrent users never share mutable state.
type Session struct {
	Step        Step
	IsIncome    bool
	Amount      decimal.Decimal
	HasAmount   bool
	Category    string
	Description *string
	LastPrompt  *PromptRef
}

// InProgress reports whether the user is inside an active flow.
func (s *Session) InProgress() bool {
	return s.Step != StepIdle
}

// Reset clears every field and returns the session to idle.
func (s *Session) Reset() {
	*s = Session{Step: StepIdle}
}

type entry struct {
	mu   sync.Mutex
	sess Session
}

// Store keeps one session per user. Access to a session is serialized by a
// per-user lock, so two events for the same user never interleave while
// different users proceed independently.
type Store struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

// NewStore constructs an empty session store.
func NewStore() *Store {
	return &Store{entries: make(map[int64]*entry)}
}

func (st *Store) entryFor(userID int64) *entry {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.entries[userID]
	if !ok {
		e = &entry{sess: Session{Step: StepIdle}}
		st.entries[userID] = e
	}
	return e
}

// Do runs fn with exclusive access to the user's session. The session may be
// mutated in place; mutations are visible to the next event of the same user.
func (st *Store) Do(userID int64, fn func(*Session) error) error {
	e := st.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(&e.sess)
}

// Get returns a copy of the user's session, or an idle default.
func (st *Store) Get(userID int64) Session {
	e := st.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess
}

// InProgress reports whether the user currently has an active flow.
func (st *Store) InProgress(userID int64) bool {
	s := st.Get(userID)
	return s.InProgress()
}

// Clear resets the user's session to idle.
func (st *Store) Clear(userID int64) {
	e := st.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sess.Reset()
}
