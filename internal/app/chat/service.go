package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/domain"
	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/observability"
)

// CloudModelName is the public alias clients send for the cloud backend.
const CloudModelName = "gemini"

// Service orchestrates an exchange: context assembly, backend dispatch,
// and at-least-once persistence of the resulting message pair.
type Service struct {
	local     domain.Backend
	cloud     domain.Backend
	store     domain.SessionStore
	extractor domain.Extractor
	now       func() time.Time
}

func NewService(local, cloud domain.Backend, store domain.SessionStore, extractor domain.Extractor) *Service {
	return &Service{
		local:     local,
		cloud:     cloud,
		store:     store,
		extractor: extractor,
		now:       time.Now,
	}
}

// ExchangeInput is one inbound exchange request. Transient: it is never
// stored, it produces a (user, bot) message pair.
type ExchangeInput struct {
	Message     string
	ModelType   domain.ModelType
	ModelName   string
	SessionID   domain.SessionID
	SessionName string
	MentionIDs  []string
	Attachment  *domain.Attachment
}

type ExchangeOutput struct {
	Response  string
	SessionID domain.SessionID
	Timestamp time.Time
	Latency   int64
}

// Prepared is a validated exchange with its prompt assembled, ready for
// the non-streaming or streaming path.
type Prepared struct {
	in       ExchangeInput
	prompt   string
	userTime time.Time
	pdf      bool
}

// Media reports whether the exchange carries a non-document attachment,
// which is always handled cloud-only and non-streaming.
func (p *Prepared) Media() bool {
	return p.in.Attachment != nil && !p.pdf
}

// PrepareExchange validates the attachment, gathers conversation
// context, and assembles the prompt. Malformed or unknown mention ids
// are skipped: mentions are advisory context, not correctness-critical.
func (s *Service) PrepareExchange(ctx context.Context, in ExchangeInput) (*Prepared, error) {
	log := observability.LoggerFromContext(ctx)

	if in.SessionID == "" {
		in.SessionID = domain.SentinelSessionID
	}

	if err := ValidateAttachment(in.Attachment); err != nil {
		return nil, err
	}
	if in.Attachment != nil && in.ModelType == domain.ModelLocal {
		return nil, ErrLocalFileUnsupported
	}

	var current []domain.Message
	if in.SessionID != domain.SentinelSessionID {
		h, err := s.store.History(ctx, in.SessionID)
		if err != nil {
			log.Warn("fetching current session history", "session_id", in.SessionID, "error", err)
		} else {
			current = h
		}
	}

	var mentioned [][]domain.Message
	for _, id := range in.MentionIDs {
		if uuid.Validate(id) != nil {
			continue
		}
		h, err := s.store.History(ctx, domain.SessionID(id))
		if err != nil {
			continue
		}
		mentioned = append(mentioned, h)
	}

	prompt := AssembleContext(in.Message, current, mentioned)

	p := &Prepared{
		in:       in,
		prompt:   prompt,
		userTime: s.now(),
	}

	if in.Attachment != nil && FileExt(in.Attachment.Filename) == "pdf" {
		text, err := s.extractor.Extract(in.Attachment.Data)
		if err != nil {
			return nil, fmt.Errorf("extracting pdf text: %w", err)
		}
		p.prompt = fmt.Sprintf("%s\n\n[PDF Content Extracted]\n%s", p.prompt, text)
		p.pdf = true
	}

	return p, nil
}

// RunExchange executes the non-streaming path: one backend call, then
// persistence of the pair. Transport failures are absorbed into in-band
// reply text so the user sees them as the bot's answer.
func (s *Service) RunExchange(ctx context.Context, p *Prepared) (*ExchangeOutput, error) {
	log := observability.LoggerFromContext(ctx).With(
		"session_id", p.in.SessionID,
		"model_type", p.in.ModelType,
		"model_name", p.in.ModelName,
	)

	var (
		text    string
		latency int64
		err     error
	)
	if p.Media() {
		text, latency, err = s.generateMedia(ctx, p)
	} else {
		text, latency, err = s.generateText(ctx, p)
	}
	if err != nil {
		log.Error("backend call failed", "error", err)
		return nil, err
	}

	botTime := s.now()
	finalID, created, err := s.persist(ctx, p, text, botTime)
	if err != nil {
		log.Error("persisting exchange", "error", err)
		return nil, err
	}

	log.Info("exchange completed", "created", created, "latency_ms", latency)

	return &ExchangeOutput{
		Response:  text,
		SessionID: finalID,
		Timestamp: botTime,
		Latency:   latency,
	}, nil
}

// generateText dispatches a plain text prompt by model type. The
// returned error is internal only: transport failures come back as
// reply text with the backend's error prefix.
func (s *Service) generateText(ctx context.Context, p *Prepared) (string, int64, error) {
	switch {
	case p.in.ModelType == domain.ModelLocal:
		reply, err := s.local.Generate(ctx, p.in.ModelName, p.prompt)
		if err != nil {
			return absorbTransport(err, "Local model error: ")
		}
		return reply.Text, reply.Latency, nil

	case p.in.ModelType == domain.ModelCloud && p.in.ModelName == CloudModelName:
		reply, err := s.cloud.Generate(ctx, p.in.ModelName, p.prompt)
		if err != nil {
			return absorbTransport(err, "Cloud model error: ")
		}
		return reply.Text, reply.Latency, nil

	default:
		// Unknown model type or unknown cloud model: degrade to the
		// fallback reply rather than failing the request.
		return "No reply.", 0, nil
	}
}

func (s *Service) generateMedia(ctx context.Context, p *Prepared) (string, int64, error) {
	media, ok := s.cloud.(domain.MediaBackend)
	if !ok {
		return "", 0, fmt.Errorf("cloud backend does not accept media")
	}

	reply, err := media.GenerateWithMedia(ctx, p.in.ModelName, p.prompt, *p.in.Attachment)
	if err != nil {
		return absorbTransport(err, "Cloud model error: ")
	}
	return reply.Text, reply.Latency, nil
}

// absorbTransport converts a transport failure into in-band reply text;
// anything else stays an internal error.
func absorbTransport(err error, prefix string) (string, int64, error) {
	var terr *domain.TransportError
	if errors.As(err, &terr) {
		return prefix + terr.Error(), 0, nil
	}
	return "", 0, err
}

// persist appends the (user, bot) pair, creating the session when the
// inbound id is the sentinel. The attachment descriptor is stored on
// the user message for media exchanges only.
func (s *Service) persist(ctx context.Context, p *Prepared, botText string, botTime time.Time) (domain.SessionID, bool, error) {
	user := domain.Message{
		Role:      domain.RoleUser,
		Content:   p.in.Message,
		CreatedAt: p.userTime,
	}
	if p.Media() {
		user.File = &domain.FileInfo{
			Name: p.in.Attachment.Filename,
			Type: p.in.Attachment.MIME,
			Size: int64(len(p.in.Attachment.Data)),
		}
	}

	bot := domain.Message{
		Role:      domain.RoleBot,
		Content:   botText,
		CreatedAt: botTime,
		ModelName: p.in.ModelName,
	}

	return s.store.AppendOrCreate(ctx, p.in.SessionID, p.in.SessionName, user, bot)
}
