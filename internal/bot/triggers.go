package bot

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wolfman30/botlink/internal/platform"
)

// textTrigger is one registered (pattern, handler) pair. Literal patterns
// compare case-insensitively against the whole text; compiled patterns are
// tested as-is. Registration order determines precedence.
type textTrigger struct {
	id           int64
	literal      string
	re           *regexp.Regexp
	conditionals Conditionals
	handler      Handler
}

func (t *textTrigger) matches(text string) bool {
	if t.re != nil {
		return t.re.MatchString(text)
	}
	return strings.EqualFold(t.literal, text)
}

// OnText registers handler for every supplied pattern. A pattern may be a
// string (exact, case-insensitive), a *regexp.Regexp, or a slice of either.
func (b *Bot) OnText(pattern any, handler Handler) error {
	return b.OnTextIf(pattern, nil, handler)
}

// OnTextIf is OnText with a conditionals gate wrapped around the handler.
func (b *Bot) OnTextIf(pattern any, cond Conditionals, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("bot: text trigger requires a handler")
	}
	switch v := pattern.(type) {
	case string:
		b.addTrigger(&textTrigger{literal: v, conditionals: cond, handler: handler})
	case *regexp.Regexp:
		b.addTrigger(&textTrigger{re: v, conditionals: cond, handler: handler})
	case []string:
		for _, s := range v {
			b.addTrigger(&textTrigger{literal: s, conditionals: cond, handler: handler})
		}
	case []any:
		for _, p := range v {
			if err := b.OnTextIf(p, cond, handler); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("bot: unsupported text trigger pattern %T", pattern)
	}
	return nil
}

// RemoveTextTrigger deletes a trigger by id. Ids are assigned in registration
// order starting at zero; removal affects only future dispatch.
func (b *Bot) RemoveTextTrigger(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, t := range b.triggers {
		if t.id == id {
			b.triggers = append(b.triggers[:i], b.triggers[i+1:]...)
			return
		}
	}
}

func (b *Bot) addTrigger(t *textTrigger) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t.id = b.nextTriggerID
	b.nextTriggerID++
	b.triggers = append(b.triggers, t)
}

// triggerEligible reports whether a message can be claimed by text triggers
// or reply listeners: free text on a chat/postback message from a contact or
// agent, and not the muted channel.notify event.
func triggerEligible(event string, m *platform.Message) bool {
	if m == nil || strings.TrimSpace(m.Text) == "" {
		return false
	}
	if m.Type != platform.TypeChat && m.Type != platform.TypePostback {
		return false
	}
	if m.Role != platform.RoleContact && m.Role != platform.RoleAgent {
		return false
	}
	if event == "channel.notify" {
		return false
	}
	return true
}

// runTriggers tests triggers in registration order and reports whether any
// structural match claimed the message. The conditionals gate decides handler
// invocation but a structural match alone claims the message. Iteration over
// a defensive copy keeps handler-driven removal safe.
func (b *Bot) runTriggers(ev *Event) bool {
	b.mu.Lock()
	triggers := make([]*textTrigger, len(b.triggers))
	copy(triggers, b.triggers)
	b.mu.Unlock()

	claimed := false
	for _, t := range triggers {
		if !t.matches(ev.Message.Text) {
			continue
		}
		claimed = true
		ev.Captured = true
		if matchConditionals(ev.Actions, ev.Message, t.conditionals) {
			b.metrics.ObserveTriggerFire()
			t.handler(ev)
		}
		if b.onlyFirstMatch {
			break
		}
	}
	return claimed
}
