package llm

import (
	"context"
	"fmt"

	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/domain"
)

// MockBackend is a deterministic backend for dev mode and tests.
type MockBackend struct{}

func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

func (m *MockBackend) Generate(ctx context.Context, model, prompt string) (*domain.Reply, error) {
	return &domain.Reply{Text: fmt.Sprintf("mock reply to %q", prompt)}, nil
}

func (m *MockBackend) GenerateStream(ctx context.Context, model, prompt string) (<-chan domain.StreamToken, error) {
	ch := make(chan domain.StreamToken, 3)
	ch <- domain.StreamToken{Text: "mock reply to "}
	ch <- domain.StreamToken{Text: fmt.Sprintf("%q", prompt)}
	ch <- domain.StreamToken{Done: true}
	close(ch)
	return ch, nil
}

func (m *MockBackend) GenerateWithMedia(ctx context.Context, model, prompt string, att domain.Attachment) (*domain.Reply, error) {
	return &domain.Reply{Text: fmt.Sprintf("mock reply to %q with %s", prompt, att.Filename)}, nil
}
