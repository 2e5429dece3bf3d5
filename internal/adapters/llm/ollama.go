package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/domain"
)

// OllamaClient implements domain.Backend against a locally hosted
// Ollama server. The same 60s timeout applies to streaming and
// non-streaming calls.
type OllamaClient struct {
	baseURL string
	client  *http.Client
}

func NewOllamaClient(baseURL string) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (c *OllamaClient) generate(ctx context.Context, model, prompt string, stream bool) (*http.Response, error) {
	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: stream,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.NewTransportError("local", "calling ollama: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, domain.NewTransportError("local", "ollama returned status %d", resp.StatusCode)
	}
	return resp, nil
}

// Generate issues a single blocking call and returns the full reply.
func (c *OllamaClient) Generate(ctx context.Context, model, prompt string) (*domain.Reply, error) {
	start := time.Now()

	resp, err := c.generate(ctx, model, prompt, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, domain.NewTransportError("local", "decoding ollama response: %w", err)
	}

	text := out.Response
	if text == "" {
		text = "No reply."
	}

	return &domain.Reply{
		Text:    text,
		Latency: time.Since(start).Milliseconds(),
	}, nil
}

// GenerateStream scans the newline-delimited JSON stream and emits one
// token per object carrying a non-empty "response" field. Malformed
// lines are skipped; "done": true ends the stream.
func (c *OllamaClient) GenerateStream(ctx context.Context, model, prompt string) (<-chan domain.StreamToken, error) {
	resp, err := c.generate(ctx, model, prompt, true)
	if err != nil {
		return nil, err
	}

	ch := make(chan domain.StreamToken, 16)

	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var chunk ollamaGenerateResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				continue
			}

			if chunk.Response != "" {
				if !sendToken(ctx, ch, domain.StreamToken{Text: chunk.Response}) {
					return
				}
			}
			if chunk.Done {
				sendToken(ctx, ch, domain.StreamToken{Done: true})
				return
			}
		}

		if err := scanner.Err(); err != nil {
			sendToken(ctx, ch, domain.StreamToken{Err: domain.NewTransportError("local", "reading ollama stream: %w", err)})
			return
		}
		sendToken(ctx, ch, domain.StreamToken{Done: true})
	}()

	return ch, nil
}

// ListModels discovers locally available models from /api/tags.
// Names are deduplicated after stripping the ":tag" suffix and sorted.
func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.NewTransportError("local", "calling ollama tags: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewTransportError("local", "ollama tags returned status %d", resp.StatusCode)
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, domain.NewTransportError("local", "decoding ollama tags: %w", err)
	}

	seen := make(map[string]bool)
	var names []string
	for _, m := range tags.Models {
		name, _, _ := strings.Cut(m.Name, ":")
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}
