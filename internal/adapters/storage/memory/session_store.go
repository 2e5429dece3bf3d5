package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/domain"
)

// SessionStore is an in-memory domain.SessionStore for tests and dev mode.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*domain.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[domain.SessionID]*domain.Session),
	}
}

func (s *SessionStore) AppendOrCreate(ctx context.Context, id domain.SessionID, name string, user, bot domain.Message) (domain.SessionID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == domain.SentinelSessionID {
		if name == "" {
			name = domain.DefaultSessionName
		}
		sess := &domain.Session{
			ID:        domain.SessionID(uuid.NewString()),
			Name:      name,
			Messages:  []domain.Message{user, bot},
			CreatedAt: time.Now(),
		}
		s.sessions[sess.ID] = sess
		return sess.ID, true, nil
	}

	sess, ok := s.sessions[id]
	if !ok {
		return "", false, domain.ErrSessionNotFound
	}
	sess.Messages = append(sess.Messages, user, bot)
	return id, false, nil
}

func (s *SessionStore) History(ctx context.Context, id domain.SessionID) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	out := make([]domain.Message, len(sess.Messages))
	copy(out, sess.Messages)
	return out, nil
}

func (s *SessionStore) Sessions(ctx context.Context, ids []domain.SessionID) ([]*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Session
	for _, id := range ids {
		if sess, ok := s.sessions[id]; ok {
			cp := *sess
			cp.Messages = make([]domain.Message, len(sess.Messages))
			copy(cp.Messages, sess.Messages)
			out = append(out, &cp)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *SessionStore) Rename(ctx context.Context, id domain.SessionID, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	sess.Name = newName
	return nil
}

func (s *SessionStore) Clear(ctx context.Context, id domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	sess.Messages = []domain.Message{}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, id domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *SessionStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}
