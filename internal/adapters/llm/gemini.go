package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/domain"
)

// GeminiClient implements domain.Backend and domain.MediaBackend using
// the Gemini API (API-key auth).
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates the cloud backend. The caller's model_name is
// the public alias "gemini"; the concrete model id comes from config.
func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY must be set")
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash-latest"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// Generate implements domain.Backend with a single blocking call.
// An empty reply from the provider becomes "No Reply".
func (g *GeminiClient) Generate(ctx context.Context, _ string, prompt string) (*domain.Reply, error) {
	start := time.Now()

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, nil)
	if err != nil {
		return nil, domain.NewTransportError("cloud", "gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		text = "No Reply"
	}

	return &domain.Reply{
		Text:    text,
		Latency: time.Since(start).Milliseconds(),
	}, nil
}

// GenerateStream forwards the provider's partial-text chunks as tokens.
// A mid-iteration provider error is surfaced as an error token so the
// caller can degrade to an error event instead of dropping the channel.
func (g *GeminiClient) GenerateStream(ctx context.Context, _ string, prompt string) (<-chan domain.StreamToken, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	stream := g.client.Models.GenerateContentStream(ctx, g.modelName, contents, nil)

	ch := make(chan domain.StreamToken, 16)

	go func() {
		defer close(ch)

		for res, err := range stream {
			if err != nil {
				sendToken(ctx, ch, domain.StreamToken{Err: domain.NewTransportError("cloud", "gemini stream: %w", err)})
				return
			}
			if text := res.Text(); text != "" {
				if !sendToken(ctx, ch, domain.StreamToken{Text: text}) {
					return
				}
			}
		}
		sendToken(ctx, ch, domain.StreamToken{Done: true})
	}()

	return ch, nil
}

// GenerateWithMedia sends the prompt plus inline media bytes in a
// single non-streaming call. An empty reply becomes "No reply.".
func (g *GeminiClient) GenerateWithMedia(ctx context.Context, _ string, prompt string, att domain.Attachment) (*domain.Reply, error) {
	start := time.Now()

	mime := att.MIME
	if mime == "" {
		mime = "image/jpeg"
	}

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(att.Data, mime),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, nil)
	if err != nil {
		return nil, domain.NewTransportError("cloud", "gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		text = "No reply."
	}

	return &domain.Reply{
		Text:    text,
		Latency: time.Since(start).Milliseconds(),
	}, nil
}
