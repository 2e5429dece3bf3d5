package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/domain"
)

// Store implements domain.SessionStore on Firestore. Each session is a
// single document carrying its messages array, so an exchange append is
// a transactional read-modify-write of one document.
type Store struct {
	client *firestore.Client
}

func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) sessionsCol() *firestore.CollectionRef {
	return s.client.Collection("sessions")
}

func (s *Store) sessionDoc(id domain.SessionID) *firestore.DocumentRef {
	return s.sessionsCol().Doc(string(id))
}

type fileDoc struct {
	Name string `firestore:"name"`
	Type string `firestore:"type"`
	Size int64  `firestore:"size"`
}

type messageDoc struct {
	Role      string    `firestore:"role"`
	Content   string    `firestore:"content"`
	Timestamp time.Time `firestore:"timestamp"`
	ModelName string    `firestore:"model_name,omitempty"`
	File      *fileDoc  `firestore:"uploaded_file,omitempty"`
}

type sessionDoc struct {
	Name      string       `firestore:"session_name"`
	Messages  []messageDoc `firestore:"messages"`
	CreatedAt time.Time    `firestore:"created_at"`
}

func toMessageDoc(m domain.Message) messageDoc {
	doc := messageDoc{
		Role:      string(m.Role),
		Content:   m.Content,
		Timestamp: m.CreatedAt,
		ModelName: m.ModelName,
	}
	if m.File != nil {
		doc.File = &fileDoc{Name: m.File.Name, Type: m.File.Type, Size: m.File.Size}
	}
	return doc
}

func toMessage(d messageDoc) domain.Message {
	m := domain.Message{
		Role:      domain.Role(d.Role),
		Content:   d.Content,
		CreatedAt: d.Timestamp,
		ModelName: d.ModelName,
	}
	if d.File != nil {
		m.File = &domain.FileInfo{Name: d.File.Name, Type: d.File.Type, Size: d.File.Size}
	}
	return m
}

func (s *Store) AppendOrCreate(ctx context.Context, id domain.SessionID, name string, user, bot domain.Message) (domain.SessionID, bool, error) {
	if id == domain.SentinelSessionID {
		if name == "" {
			name = domain.DefaultSessionName
		}
		newID := domain.SessionID(uuid.NewString())
		doc := sessionDoc{
			Name:      name,
			Messages:  []messageDoc{toMessageDoc(user), toMessageDoc(bot)},
			CreatedAt: time.Now(),
		}
		if _, err := s.sessionDoc(newID).Create(ctx, doc); err != nil {
			return "", false, fmt.Errorf("firestore create session: %w", err)
		}
		return newID, true, nil
	}

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(s.sessionDoc(id))
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return domain.ErrSessionNotFound
			}
			return err
		}

		var doc sessionDoc
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode sessionDoc: %w", err)
		}

		doc.Messages = append(doc.Messages, toMessageDoc(user), toMessageDoc(bot))
		return tx.Set(s.sessionDoc(id), doc)
	})
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return "", false, err
		}
		return "", false, fmt.Errorf("firestore append messages: %w", err)
	}

	return id, false, nil
}

func (s *Store) get(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	snap, err := s.sessionDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("firestore get session: %w", err)
	}

	var doc sessionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode sessionDoc: %w", err)
	}

	sess := &domain.Session{
		ID:        id,
		Name:      doc.Name,
		Messages:  make([]domain.Message, 0, len(doc.Messages)),
		CreatedAt: doc.CreatedAt,
	}
	for _, m := range doc.Messages {
		sess.Messages = append(sess.Messages, toMessage(m))
	}
	return sess, nil
}

func (s *Store) History(ctx context.Context, id domain.SessionID) ([]domain.Message, error) {
	sess, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess.Messages, nil
}

func (s *Store) Sessions(ctx context.Context, ids []domain.SessionID) ([]*domain.Session, error) {
	var out []*domain.Session
	for _, id := range ids {
		sess, err := s.get(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, sess)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) Rename(ctx context.Context, id domain.SessionID, newName string) error {
	_, err := s.sessionDoc(id).Update(ctx, []firestore.Update{
		{Path: "session_name", Value: newName},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.ErrSessionNotFound
		}
		return fmt.Errorf("firestore rename session: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, id domain.SessionID) error {
	_, err := s.sessionDoc(id).Update(ctx, []firestore.Update{
		{Path: "messages", Value: []messageDoc{}},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.ErrSessionNotFound
		}
		return fmt.Errorf("firestore clear session: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id domain.SessionID) error {
	// Firestore deletes are idempotent; check existence first so the
	// caller can distinguish a repeat delete.
	if _, err := s.sessionDoc(id).Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.ErrSessionNotFound
		}
		return fmt.Errorf("firestore get session: %w", err)
	}

	if _, err := s.sessionDoc(id).Delete(ctx); err != nil {
		return fmt.Errorf("firestore delete session: %w", err)
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	iter := s.sessionsCol().Select().Documents(ctx)
	defer iter.Stop()

	n := 0
	for {
		_, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return 0, fmt.Errorf("firestore count sessions: %w", err)
		}
		n++
	}
	return n, nil
}
