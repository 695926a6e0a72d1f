package web

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"fitcoach/internal/models"
)

// Transcript is the chat history of one browser session.
type Transcript struct {
	mu          sync.Mutex
	messages    []models.ChatMessage
	last        *models.Answer
	showSources bool
}

// Append records a question and its answer as one (user, bot) pair.
func (t *Transcript) Append(question string, answer *models.Answer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	t.messages = append(t.messages,
		models.ChatMessage{Role: models.RoleUser, Content: question, At: now},
		models.ChatMessage{Role: models.RoleBot, Content: answer.Content, At: now},
	)
	t.last = answer
}

// Snapshot returns a copy of the messages and the most recent answer.
func (t *Transcript) Snapshot() ([]models.ChatMessage, *models.Answer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.ChatMessage(nil), t.messages...), t.last
}

func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
	t.last = nil
}

func (t *Transcript) SetShowSources(v bool) {
	t.mu.Lock()
	t.showSources = v
	t.mu.Unlock()
}

func (t *Transcript) ShowSources() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.showSources
}

// SessionStore keeps one transcript per session id. A session expires once it
// has not been used for ttl, and the least recently used are evicted beyond size.
type SessionStore struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, *Transcript]
}

func NewSessionStore(size int, ttl time.Duration) *SessionStore {
	return &SessionStore{cache: expirable.NewLRU[string, *Transcript](size, nil, ttl)}
}

// Get returns the transcript for id, creating an empty one if needed. Every
// call restarts the session's ttl.
func (s *SessionStore) Get(id string) *Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.cache.Get(id)
	if !ok {
		t = &Transcript{}
	}
	// expirable.LRU only resets the expiry on Add
	s.cache.Add(id, t)
	return t
}

func (s *SessionStore) Len() int { return s.cache.Len() }

func validSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
