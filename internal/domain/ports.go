package domain

import "context"

// Backend is a pluggable text-generation provider.
type Backend interface {
	Generate(ctx context.Context, model, prompt string) (*Reply, error)
	GenerateStream(ctx context.Context, model, prompt string) (<-chan StreamToken, error)
}

// MediaBackend accepts inline binary media alongside the text prompt.
// Only cloud backends implement it.
type MediaBackend interface {
	GenerateWithMedia(ctx context.Context, model, prompt string, att Attachment) (*Reply, error)
}

// ModelLister enumerates the models a backend can serve.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Extractor turns a document's bytes into plain text.
type Extractor interface {
	Extract(data []byte) (string, error)
}

// SessionStore defines conversation persistence. AppendOrCreate is the
// only write path used by exchanges: given the sentinel id it creates a
// new session holding the pair and reports created=true; otherwise it
// appends to the existing session or returns ErrSessionNotFound.
type SessionStore interface {
	AppendOrCreate(ctx context.Context, id SessionID, name string, user, bot Message) (SessionID, bool, error)
	History(ctx context.Context, id SessionID) ([]Message, error)
	Sessions(ctx context.Context, ids []SessionID) ([]*Session, error)
	Rename(ctx context.Context, id SessionID, newName string) error
	Clear(ctx context.Context, id SessionID) error
	Delete(ctx context.Context, id SessionID) error
	Count(ctx context.Context) (int, error)
}
