package chat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/adapters/storage/memory"
	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/app/chat"
	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/domain"
)

// stubBackend is a scriptable backend for both model types.
type stubBackend struct {
	reply      string
	err        error
	tokens     []domain.StreamToken
	streamErr  error
	mediaReply string
	lastPrompt string
}

func (b *stubBackend) Generate(ctx context.Context, model, prompt string) (*domain.Reply, error) {
	b.lastPrompt = prompt
	if b.err != nil {
		return nil, b.err
	}
	return &domain.Reply{Text: b.reply, Latency: 5}, nil
}

func (b *stubBackend) GenerateStream(ctx context.Context, model, prompt string) (<-chan domain.StreamToken, error) {
	b.lastPrompt = prompt
	if b.streamErr != nil {
		return nil, b.streamErr
	}
	ch := make(chan domain.StreamToken, len(b.tokens))
	for _, tok := range b.tokens {
		ch <- tok
	}
	close(ch)
	return ch, nil
}

func (b *stubBackend) GenerateWithMedia(ctx context.Context, model, prompt string, att domain.Attachment) (*domain.Reply, error) {
	b.lastPrompt = prompt
	if b.err != nil {
		return nil, b.err
	}
	return &domain.Reply{Text: b.mediaReply, Latency: 7}, nil
}

type stubExtractor struct {
	text string
	err  error
}

func (e *stubExtractor) Extract(data []byte) (string, error) {
	return e.text, e.err
}

func newTestService(t *testing.T) (*chat.Service, *memory.SessionStore, *stubBackend, *stubBackend) {
	t.Helper()

	local := &stubBackend{reply: "local answer"}
	cloud := &stubBackend{reply: "cloud answer", mediaReply: "media answer"}
	store := memory.NewSessionStore()
	svc := chat.NewService(local, cloud, store, &stubExtractor{text: "extracted text"})
	return svc, store, local, cloud
}

func runExchange(t *testing.T, svc *chat.Service, in chat.ExchangeInput) *chat.ExchangeOutput {
	t.Helper()

	prep, err := svc.PrepareExchange(context.Background(), in)
	require.NoError(t, err)
	out, err := svc.RunExchange(context.Background(), prep)
	require.NoError(t, err)
	return out
}

func TestExchangeCreatesSessionWithPair(t *testing.T) {
	svc, store, _, _ := newTestService(t)

	out := runExchange(t, svc, chat.ExchangeInput{
		Message:   "Hello",
		ModelType: domain.ModelCloud,
		ModelName: "gemini",
		SessionID: domain.SentinelSessionID,
	})

	assert.Equal(t, "cloud answer", out.Response)
	assert.NotEqual(t, domain.SentinelSessionID, out.SessionID)

	msgs, err := store.History(context.Background(), out.SessionID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
	assert.Equal(t, "Hello", msgs[0].Content)
	assert.Equal(t, domain.RoleBot, msgs[1].Role)
	assert.Equal(t, "gemini", msgs[1].ModelName)
}

func TestExchangePairAppendInvariant(t *testing.T) {
	svc, store, _, _ := newTestService(t)

	out := runExchange(t, svc, chat.ExchangeInput{
		Message:   "first",
		ModelType: domain.ModelLocal,
		ModelName: "phi3",
		SessionID: domain.SentinelSessionID,
	})

	for i := 0; i < 2; i++ {
		runExchange(t, svc, chat.ExchangeInput{
			Message:   "another",
			ModelType: domain.ModelLocal,
			ModelName: "phi3",
			SessionID: out.SessionID,
		})
	}

	msgs, err := store.History(context.Background(), out.SessionID)
	require.NoError(t, err)
	assert.Len(t, msgs, 6) // 2N after 3 exchanges
}

func TestExchangeAbsorbsTransportError(t *testing.T) {
	svc, store, local, _ := newTestService(t)
	local.err = domain.NewTransportError("local", "connection refused")

	out := runExchange(t, svc, chat.ExchangeInput{
		Message:   "hi",
		ModelType: domain.ModelLocal,
		ModelName: "phi3",
		SessionID: domain.SentinelSessionID,
	})

	assert.Equal(t, "Local model error: connection refused", out.Response)

	// The error string is stored as the bot's content.
	msgs, err := store.History(context.Background(), out.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Local model error: connection refused", msgs[1].Content)
}

func TestExchangeInternalErrorNotAbsorbed(t *testing.T) {
	svc, store, local, _ := newTestService(t)
	local.err = errors.New("bug")

	prep, err := svc.PrepareExchange(context.Background(), chat.ExchangeInput{
		Message:   "hi",
		ModelType: domain.ModelLocal,
		SessionID: domain.SentinelSessionID,
	})
	require.NoError(t, err)

	_, err = svc.RunExchange(context.Background(), prep)
	assert.Error(t, err)

	count, _ := store.Count(context.Background())
	assert.Zero(t, count)
}

func TestExchangeUnknownModelFallsBack(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	out := runExchange(t, svc, chat.ExchangeInput{
		Message:   "hi",
		ModelType: "quantum",
		SessionID: domain.SentinelSessionID,
	})
	assert.Equal(t, "No reply.", out.Response)
	assert.Zero(t, out.Latency)

	out = runExchange(t, svc, chat.ExchangeInput{
		Message:   "hi",
		ModelType: domain.ModelCloud,
		ModelName: "claude",
		SessionID: domain.SentinelSessionID,
	})
	assert.Equal(t, "No reply.", out.Response)
}

func TestPrepareSkipsMalformedMentions(t *testing.T) {
	svc, _, local, _ := newTestService(t)

	seed := runExchange(t, svc, chat.ExchangeInput{
		Message:   "remember the launch date",
		ModelType: domain.ModelLocal,
		ModelName: "phi3",
		SessionID: domain.SentinelSessionID,
	})

	runExchange(t, svc, chat.ExchangeInput{
		Message:   "what did we discuss?",
		ModelType: domain.ModelLocal,
		ModelName: "phi3",
		SessionID: domain.SentinelSessionID,
		MentionIDs: []string{
			"not-a-uuid",
			"123e4567-e89b-12d3-a456-426614174000", // well-formed but absent
			string(seed.SessionID),
		},
	})

	assert.Contains(t, local.lastPrompt, "Referenced conversation context:")
	assert.Contains(t, local.lastPrompt, "user: remember the launch date")
}

func TestPrepareRejectsLocalAttachment(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.PrepareExchange(context.Background(), chat.ExchangeInput{
		Message:    "look at this",
		ModelType:  domain.ModelLocal,
		SessionID:  domain.SentinelSessionID,
		Attachment: &domain.Attachment{Filename: "cat.png", MIME: "image/png", Data: []byte{1}},
	})
	assert.ErrorIs(t, err, chat.ErrLocalFileUnsupported)

	_, err = svc.PrepareExchange(context.Background(), chat.ExchangeInput{
		Message:    "look at this",
		ModelType:  domain.ModelCloud,
		SessionID:  domain.SentinelSessionID,
		Attachment: &domain.Attachment{Filename: "run.exe", Data: []byte{1}},
	})
	assert.ErrorIs(t, err, chat.ErrUnsupportedFileType)
}

func TestExchangeMediaPersistsFileDescriptor(t *testing.T) {
	svc, store, _, _ := newTestService(t)

	out := runExchange(t, svc, chat.ExchangeInput{
		Message:    "what is in this picture?",
		ModelType:  domain.ModelCloud,
		ModelName:  "gemini",
		SessionID:  domain.SentinelSessionID,
		Attachment: &domain.Attachment{Filename: "cat.png", MIME: "image/png", Data: []byte{1, 2, 3}},
	})

	assert.Equal(t, "media answer", out.Response)

	msgs, err := store.History(context.Background(), out.SessionID)
	require.NoError(t, err)
	require.NotNil(t, msgs[0].File)
	assert.Equal(t, "cat.png", msgs[0].File.Name)
	assert.Equal(t, "image/png", msgs[0].File.Type)
	assert.Equal(t, int64(3), msgs[0].File.Size)
	assert.Nil(t, msgs[1].File)
}

func TestExchangePDFAppendsExtractedText(t *testing.T) {
	svc, store, _, cloud := newTestService(t)

	out := runExchange(t, svc, chat.ExchangeInput{
		Message:    "summarize",
		ModelType:  domain.ModelCloud,
		ModelName:  "gemini",
		SessionID:  domain.SentinelSessionID,
		Attachment: &domain.Attachment{Filename: "paper.pdf", MIME: "application/pdf", Data: []byte{1}},
	})

	// PDF goes through the plain text path, not the media path.
	assert.Equal(t, "cloud answer", out.Response)
	assert.Contains(t, cloud.lastPrompt, "[PDF Content Extracted]\nextracted text")

	msgs, err := store.History(context.Background(), out.SessionID)
	require.NoError(t, err)
	assert.Nil(t, msgs[0].File)
}
