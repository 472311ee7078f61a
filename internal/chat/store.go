package chat

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/visdata-app/visdata/internal/model"
)

// Store keeps per-user conversation sessions. It is an explicit,
// injected collaborator with its own size and TTL bounds; sessions are
// process-local and do not survive a restart, which is acceptable for
// an assistant conversation.
type Store struct {
	sessions    *expirable.LRU[int64, *session]
	maxMessages int
}

type session struct {
	mu       sync.Mutex
	messages []model.ChatMessage
}

func NewStore(maxSessions, maxMessages int, ttl time.Duration) *Store {
	if maxSessions <= 0 {
		maxSessions = 1024
	}
	if maxMessages <= 0 {
		maxMessages = 20
	}
	return &Store{
		sessions:    expirable.NewLRU[int64, *session](maxSessions, nil, ttl),
		maxMessages: maxMessages,
	}
}

// Append records a message in the user's session, trimming the history
// to the configured bound.
func (s *Store) Append(userID int64, msg model.ChatMessage) {
	sess, ok := s.sessions.Get(userID)
	if !ok {
		sess = &session{}
		s.sessions.Add(userID, sess)
	}
	sess.mu.Lock()
	sess.messages = append(sess.messages, msg)
	if len(sess.messages) > s.maxMessages {
		sess.messages = sess.messages[len(sess.messages)-s.maxMessages:]
	}
	sess.mu.Unlock()
}

// History returns a copy of the user's conversation so far.
func (s *Store) History(userID int64) []model.ChatMessage {
	sess, ok := s.sessions.Get(userID)
	if !ok {
		return nil
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]model.ChatMessage, len(sess.messages))
	copy(out, sess.messages)
	return out
}

// ActiveSessions reports how many sessions are currently resident.
func (s *Store) ActiveSessions() int {
	return s.sessions.Len()
}
