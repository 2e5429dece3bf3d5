package chat

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/domain"
	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/observability"
)

// StreamExchange executes the streaming path: session_info first, then
// chunks as the backend produces them, then complete once the pair is
// persisted. If the accumulated text is empty after trimming, nothing
// is persisted and no complete event is sent: the exchange vanishes.
//
// On client disconnect (emit failure or context cancellation) chunk
// consumption stops and whatever accumulated is persisted best-effort;
// the client simply never sees the confirmation event.
func (s *Service) StreamExchange(ctx context.Context, p *Prepared, emit EmitFunc) error {
	log := observability.LoggerFromContext(ctx).With(
		"session_id", p.in.SessionID,
		"model_type", p.in.ModelType,
		"model_name", p.in.ModelName,
	)

	start := s.now()

	if err := emit(sessionInfoEvent(string(p.in.SessionID))); err != nil {
		// Client gone before anything was produced; nothing to keep.
		return nil
	}

	var (
		reply     strings.Builder
		gone      bool
		errorSent bool
	)

	if p.pdf {
		// Document input always uses the non-streaming backend call;
		// the full reply is delivered as a single chunk.
		text, _, err := s.generateText(ctx, p)
		if err != nil {
			log.Error("backend call failed", "error", err)
			_ = emit(errorEvent("Error: " + err.Error()))
			return nil
		}
		reply.WriteString(text)
		if emit(chunkEvent(text)) != nil {
			gone = true
		}
	} else {
		gone, errorSent = s.consumeStream(ctx, p, emit, &reply, log)
	}

	text := reply.String()
	if strings.TrimSpace(text) == "" {
		return nil
	}

	// The write must survive a dead client connection.
	persistCtx := ctx
	if gone {
		persistCtx = context.WithoutCancel(ctx)
	}

	botTime := s.now()
	finalID, created, err := s.persist(persistCtx, p, text, botTime)
	if err != nil {
		log.Error("persisting streamed exchange", "error", err, "error_sent", errorSent)
		return nil
	}

	log.Info("stream exchange persisted", "created", created, "final_session_id", finalID)

	if gone {
		return nil
	}

	latency := botTime.Sub(start).Milliseconds()
	_ = emit(completeEvent(string(finalID), botTime, latency))
	return nil
}

// consumeStream pulls tokens from the selected backend, forwarding each
// as a chunk. A transport failure (up front or mid-stream) replaces the
// accumulated text with the error message and yields an error event,
// which terminates generation but not the response stream.
func (s *Service) consumeStream(ctx context.Context, p *Prepared, emit EmitFunc, reply *strings.Builder, log *slog.Logger) (gone, errorSent bool) {
	var backend domain.Backend
	switch {
	case p.in.ModelType == domain.ModelLocal:
		backend = s.local
	case p.in.ModelType == domain.ModelCloud && p.in.ModelName == CloudModelName:
		backend = s.cloud
	default:
		// No backend can serve this request: zero chunks accumulate
		// and the exchange vanishes.
		return false, false
	}

	tokens, err := backend.GenerateStream(ctx, p.in.ModelName, p.prompt)
	if err != nil {
		msg := "Error: " + err.Error()
		reply.Reset()
		reply.WriteString(msg)
		if emit(errorEvent(msg)) != nil {
			return true, false
		}
		return false, true
	}

	for {
		select {
		case <-ctx.Done():
			return true, false

		case tok, ok := <-tokens:
			if !ok || tok.Done {
				return false, false
			}
			if tok.Err != nil {
				log.Warn("stream terminated upstream", "error", tok.Err)
				msg := "Error: " + tok.Err.Error()
				reply.Reset()
				reply.WriteString(msg)
				if emit(errorEvent(msg)) != nil {
					return true, false
				}
				return false, true
			}
			if tok.Text == "" {
				continue
			}
			reply.WriteString(tok.Text)
			if emit(chunkEvent(tok.Text)) != nil {
				return true, false
			}
		}
	}
}
