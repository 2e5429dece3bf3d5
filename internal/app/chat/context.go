package chat

import (
	"strings"

	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/domain"
)

const (
	contextPreamble   = "Here is the conversation context:\n"
	currentHeader     = "Current conversation history:\n"
	referencedHeader  = "Referenced conversation context:\n"
	contextTransition = "\nNow, based on the above context, here is the user's new message:\n"
)

// AssembleContext builds the final prompt from the new message, the
// current session's prior turns, and the mentioned sessions' turns.
// With no history of either kind the message is returned verbatim.
// Pure and deterministic: identical inputs produce identical prompts.
func AssembleContext(message string, current []domain.Message, mentioned [][]domain.Message) string {
	currentHistory := renderHistory(current)

	var mentionHistory strings.Builder
	for _, msgs := range mentioned {
		mentionHistory.WriteString(renderHistory(msgs))
	}

	if currentHistory == "" && mentionHistory.Len() == 0 {
		return message
	}

	var b strings.Builder
	b.WriteString(contextPreamble)
	if currentHistory != "" {
		b.WriteString(currentHeader)
		b.WriteString(currentHistory)
	}
	if mentionHistory.Len() > 0 {
		b.WriteString(referencedHeader)
		b.WriteString(mentionHistory.String())
	}
	b.WriteString(contextTransition)
	b.WriteString(message)

	return b.String()
}

// renderHistory renders messages as "{role}: {content}" lines in stored order.
func renderHistory(msgs []domain.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
