package llm

import (
	"context"

	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/domain"
)

// sendToken delivers tok to ch, or gives up when ctx is done. Stream
// producers must use this for every send: a consumer that stops
// receiving mid-stream would otherwise block the producer goroutine
// forever once the channel buffer fills.
func sendToken(ctx context.Context, ch chan<- domain.StreamToken, tok domain.StreamToken) bool {
	select {
	case ch <- tok:
		return true
	case <-ctx.Done():
		return false
	}
}
