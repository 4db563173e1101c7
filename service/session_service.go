package services

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	model "github.com/mkovaleva/ThoughtFlow/models"
)

// ConversationState is the per-user conversational state. A user is idle
// unless an explicit command (/task, /meet, /note) has announced what the
// next message should be interpreted as.
type ConversationState int

const (
	StateIdle ConversationState = iota
	StateAwaitingTaskInput
	StateAwaitingMeetingInput
	StateAwaitingNoteInput
)

// RouteTarget names the branch a message is dispatched to.
type RouteTarget int

const (
	RouteAutoExtraction RouteTarget = iota
	RouteTaskInput
	RouteMeetingInput
	RouteNoteInput
	RouteCommand
)

// Route decides how an incoming message is handled. Pure dispatch: commands
// always win (they are never auto-extracted), then the active conversational
// state, then the auto-extraction default. Routing cannot fail; all failure
// belongs to the chosen branch.
func Route(state ConversationState, text string) RouteTarget {
	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		return RouteCommand
	}
	switch state {
	case StateAwaitingTaskInput:
		return RouteTaskInput
	case StateAwaitingMeetingInput:
		return RouteMeetingInput
	case StateAwaitingNoteInput:
		return RouteNoteInput
	default:
		return RouteAutoExtraction
	}
}

// SessionStore keeps one conversational state per chat user. Distinct users
// may be processed concurrently, so access is mutex-guarded.
type SessionStore struct {
	mu     sync.Mutex
	states map[int64]ConversationState
}

func NewSessionStore() *SessionStore {
	return &SessionStore{states: make(map[int64]ConversationState)}
}

func (s *SessionStore) Get(chatID int64) ConversationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[chatID]
}

func (s *SessionStore) Set(chatID int64, state ConversationState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[chatID] = state
}

func (s *SessionStore) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, chatID)
}

// PendingTaskBatch is a structured /task result parked until the user
// confirms or cancels saving it.
type PendingTaskBatch struct {
	UserID      string
	Tasks       []model.Task
	RawText     string
	VoiceFileID *string
}

// PendingStore holds task batches awaiting confirmation, keyed by a short
// batch id that the transport round-trips through its confirm button.
type PendingStore struct {
	mu      sync.Mutex
	batches map[string]PendingTaskBatch
}

func NewPendingStore() *PendingStore {
	return &PendingStore{batches: make(map[string]PendingTaskBatch)}
}

// Put parks a batch and returns its id.
func (p *PendingStore) Put(batch PendingTaskBatch) string {
	id := uuid.NewString()[:8]
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches[id] = batch
	return id
}

// Take removes and returns the batch, if present.
func (p *PendingStore) Take(id string) (PendingTaskBatch, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	batch, ok := p.batches[id]
	if ok {
		delete(p.batches, id)
	}
	return batch, ok
}

func (p *PendingStore) Drop(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.batches, id)
}
