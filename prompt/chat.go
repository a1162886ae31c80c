package prompt

import (
	"fmt"

	"github.com/loomkit/loom/core"
)

// chatEntry is one slot of a ChatTemplate: either a role/template pair or a
// history placeholder expanded from a variable.
type chatEntry struct {
	role       core.Role
	tmpl       *Template
	historyVar string
}

// ChatTemplate renders an ordered list of role/template pairs into chat
// messages. A history placeholder splices previously recorded messages in
// between the fixed entries, which is how conversational programs combine a
// system prompt, the rolling window and the current user turn.
type ChatTemplate struct {
	entries []chatEntry
}

// NewChat creates an empty ChatTemplate. Add entries with System, User,
// Assistant and History; each returns the template for chaining.
func NewChat() *ChatTemplate {
	return &ChatTemplate{}
}

// System appends a system entry. Panics on template parse errors, matching
// Must: chat templates are assembled from literals at startup.
func (c *ChatTemplate) System(text string) *ChatTemplate {
	c.entries = append(c.entries, chatEntry{role: core.RoleSystem, tmpl: Must(text)})
	return c
}

// User appends a user entry.
func (c *ChatTemplate) User(text string) *ChatTemplate {
	c.entries = append(c.entries, chatEntry{role: core.RoleUser, tmpl: Must(text)})
	return c
}

// Assistant appends an assistant entry.
func (c *ChatTemplate) Assistant(text string) *ChatTemplate {
	c.entries = append(c.entries, chatEntry{role: core.RoleAssistant, tmpl: Must(text)})
	return c
}

// History appends a placeholder that expands the []core.Message found under
// varName at render time. A missing variable renders as no messages.
func (c *ChatTemplate) History(varName string) *ChatTemplate {
	c.entries = append(c.entries, chatEntry{historyVar: varName})
	return c
}

// Render formats every entry with vars and returns the resulting messages in
// order.
func (c *ChatTemplate) Render(vars map[string]any) ([]core.Message, error) {
	var messages []core.Message
	for _, entry := range c.entries {
		if entry.historyVar != "" {
			history, err := historyMessages(vars[entry.historyVar])
			if err != nil {
				return nil, fmt.Errorf("history %q: %w", entry.historyVar, err)
			}
			messages = append(messages, history...)
			continue
		}

		text, err := entry.tmpl.Format(vars)
		if err != nil {
			return nil, fmt.Errorf("%s entry: %w", entry.role, err)
		}
		messages = append(messages, core.Message{Role: entry.role, Content: text})
	}
	return messages, nil
}

func historyMessages(val any) ([]core.Message, error) {
	switch t := val.(type) {
	case nil:
		return nil, nil
	case []core.Message:
		return t, nil
	default:
		return nil, fmt.Errorf("expected []core.Message, got %T", val)
	}
}
