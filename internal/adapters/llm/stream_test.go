package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/domain"
)

func TestSendTokenDelivers(t *testing.T) {
	ch := make(chan domain.StreamToken, 1)

	ok := sendToken(context.Background(), ch, domain.StreamToken{Text: "hi"})
	require.True(t, ok)

	tok := <-ch
	assert.Equal(t, "hi", tok.Text)
}

func TestSendTokenGivesUpOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	// Unbuffered channel with no receiver: the send can never complete.
	ch := make(chan domain.StreamToken)

	done := make(chan bool, 1)
	go func() {
		done <- sendToken(ctx, ch, domain.StreamToken{Text: "stuck"})
	}()

	cancel()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("sendToken blocked after context cancellation")
	}
}
