package memory

import (
	"sync"

	"github.com/loomkit/loom/core"
)

// History is an append-only conversation log. All methods are safe for
// concurrent use; accessors return copies so callers never alias the
// internal slice.
type History struct {
	mu       sync.RWMutex
	messages []core.Message
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{}
}

// Append adds messages to the log in order.
func (h *History) Append(messages ...core.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, messages...)
}

// User appends a user message with the given content.
func (h *History) User(content string) {
	h.Append(core.UserMessage(content))
}

// Assistant appends an assistant message with the given content.
func (h *History) Assistant(content string) {
	h.Append(core.AssistantMessage(content))
}

// Messages returns a copy of the full log.
func (h *History) Messages() []core.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]core.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Window returns a copy of the last n messages. n <= 0 or n beyond the log
// length returns the full log.
func (h *History) Window(n int) []core.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	start := 0
	if n > 0 && n < len(h.messages) {
		start = len(h.messages) - n
	}
	out := make([]core.Message, len(h.messages)-start)
	copy(out, h.messages[start:])
	return out
}

// Len reports the number of messages in the log.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Clear discards the log.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}
