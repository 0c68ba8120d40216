package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfman30/botlink/internal/platform"
)

// Actions is the per-dispatch view handed to handlers: the cached conversation
// snapshot, the resolved organization, and bound command operations. It is
// rebuilt on every dispatch and never persisted. An Actions built for an
// unknown conversation is empty but safe to call; operations on it fail with
// ErrMissingConversation.
type Actions struct {
	Conversation *platform.Conversation
	Organization *platform.Organization

	bot *Bot
}

// Context builds the actions context for a conversation id. When the id is
// unknown to the cache it emits an error event and returns an empty context
// rather than failing hard, since handlers index into it defensively.
func (b *Bot) Context(conversationID string) *Actions {
	conv, ok := b.store.Conversation(conversationID)
	if !ok {
		b.emitError(fmt.Errorf("%w: %s", ErrMissingConversation, conversationID))
		return &Actions{bot: b}
	}
	actions := &Actions{Conversation: conv, bot: b}
	b.mu.RLock()
	orgID := conv.Organization
	b.mu.RUnlock()
	if orgID != "" {
		if org, ok := b.store.Organization(orgID); ok {
			actions.Organization = org
		} else {
			actions.Organization = &platform.Organization{ID: orgID}
		}
	}
	return actions
}

// fieldValue reads a top-level conversation field under the engine lock.
// Snapshots are shared across concurrent dispatches, so unguarded reads would
// race with Set.
func (a *Actions) fieldValue(key string) (any, bool) {
	if a == nil || a.Conversation == nil {
		return nil, false
	}
	if a.bot != nil {
		a.bot.mu.RLock()
		defer a.bot.mu.RUnlock()
	}
	return a.Conversation.Field(key)
}

// metaValue reads a conversation meta entry under the engine lock.
func (a *Actions) metaValue(key string) (any, bool) {
	if a == nil || a.Conversation == nil {
		return nil, false
	}
	if a.bot != nil {
		a.bot.mu.RLock()
		defer a.bot.mu.RUnlock()
	}
	if a.Conversation.Meta == nil {
		return nil, false
	}
	v, ok := a.Conversation.Meta[key]
	return v, ok
}

// Say sends arbitrary content to this conversation through the send pipeline.
func (a *Actions) Say(ctx context.Context, content any) (*platform.Message, error) {
	if a.Conversation == nil {
		return nil, ErrMissingConversation
	}
	return a.bot.Send(ctx, a.Conversation.ID, content)
}

// Ask sends a question and resumes handler on the next qualifying answer.
func (a *Actions) Ask(ctx context.Context, question any, handler any) error {
	if a.Conversation == nil {
		return ErrMissingConversation
	}
	return a.bot.Ask(ctx, a.Conversation.ID, question, handler)
}

// Accept claims the conversation for the bot.
func (a *Actions) Accept(ctx context.Context) error {
	return a.command(ctx, "/accept", nil)
}

// Join adds the bot to the conversation's participants.
func (a *Actions) Join(ctx context.Context) error {
	return a.command(ctx, "/join", nil)
}

// Leave removes the bot from the conversation's participants.
func (a *Actions) Leave(ctx context.Context) error {
	return a.command(ctx, "/leave", nil)
}

// Assign hands the conversation to the given users.
func (a *Actions) Assign(ctx context.Context, users ...string) error {
	return a.command(ctx, "/assign "+strings.Join(users, " "), map[string]any{
		"users": users,
	})
}

// Notify pings the given channels and organizations about this conversation.
func (a *Actions) Notify(ctx context.Context, channels, organizations []string) error {
	return a.command(ctx, "/notify", map[string]any{
		"channels":      channels,
		"organizations": organizations,
	})
}

func (a *Actions) command(ctx context.Context, text string, meta map[string]any) error {
	if a.Conversation == nil {
		return ErrMissingConversation
	}
	_, err := a.bot.Send(ctx, a.Conversation.ID, &platform.Message{
		Type: platform.TypeCommand,
		Text: text,
		Meta: meta,
	})
	return err
}

// Get reads a conversation value: keys prefixed "@" address top-level fields,
// anything else addresses the metadata map.
func (a *Actions) Get(key string) any {
	if a.Conversation == nil {
		return nil
	}
	if field, ok := strings.CutPrefix(key, "@"); ok {
		v, _ := a.fieldValue(field)
		return v
	}
	v, _ := a.metaValue(key)
	return v
}

// Set writes a conversation value with the same addressing as Get. Writes
// mutate the cached snapshot, which is the single source of truth for later
// dispatches.
func (a *Actions) Set(key string, value any) error {
	if a.Conversation == nil {
		return ErrMissingConversation
	}
	if a.bot != nil {
		a.bot.mu.Lock()
		defer a.bot.mu.Unlock()
	}
	if field, ok := strings.CutPrefix(key, "@"); ok {
		switch field {
		case "status":
			a.Conversation.Status = fmt.Sprint(value)
		case "category":
			a.Conversation.Category = fmt.Sprint(value)
		case "organization":
			a.Conversation.Organization = fmt.Sprint(value)
		default:
			return fmt.Errorf("bot: unknown conversation field %q", field)
		}
		return nil
	}
	if a.Conversation.Meta == nil {
		a.Conversation.Meta = make(map[string]any)
	}
	a.Conversation.Meta[key] = value
	return nil
}
