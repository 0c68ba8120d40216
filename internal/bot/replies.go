package bot

import (
	"context"
	"fmt"
)

// ReplyListener is an outstanding "awaiting an answer" registration. It is
// resolved and removed by the next qualifying inbound message from its
// conversation, or removed explicitly. Listeners live until then; no timeout
// is enforced.
type ReplyListener struct {
	ID             int64
	ConversationID string
	MessageID      string
	handler        Handler
	callbackName   string
}

func (l *ReplyListener) resolve(b *Bot) Handler {
	if l.handler != nil {
		return l.handler
	}
	if l.callbackName != "" {
		return b.callback(l.callbackName)
	}
	return nil
}

// RegisterCallback names a handler so it can be referenced by string identity,
// persisted inside conversation metadata, and survive round trips initiated
// by the remote platform.
func (b *Bot) RegisterCallback(name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callbacks[name] = handler
}

func (b *Bot) callback(name string) Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.callbacks[name]
}

// OnReply registers a listener for the next qualifying message in the given
// conversation. Handler may be a Handler or the string name of a registered
// callback. The returned id removes the listener via RemoveReplyListener.
func (b *Bot) OnReply(conversationID string, handler any) (int64, error) {
	return b.onReply(conversationID, "", handler)
}

func (b *Bot) onReply(conversationID, messageID string, handler any) (int64, error) {
	listener := &ReplyListener{
		ConversationID: conversationID,
		MessageID:      messageID,
	}
	switch h := handler.(type) {
	case Handler:
		listener.handler = h
	case func(*Event):
		listener.handler = h
	case string:
		listener.callbackName = h
	default:
		return 0, fmt.Errorf("bot: reply handler must be a Handler or callback name, got %T", handler)
	}
	listener.ID = b.nextListenerID.Add(1)
	b.mu.Lock()
	b.replyListeners = append(b.replyListeners, listener)
	b.mu.Unlock()
	return listener.ID, nil
}

// RemoveReplyListener deletes a listener by id. Removal is immediate and
// affects only future dispatch.
func (b *Bot) RemoveReplyListener(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, l := range b.replyListeners {
		if l.ID == id {
			b.replyListeners = append(b.replyListeners[:i], b.replyListeners[i+1:]...)
			return
		}
	}
}

// Ask sends question to the conversation and, once the send succeeds, marks
// the conversation as awaiting an answer (tagged with the bot's own user id to
// disambiguate multi-bot setups) and registers a reply listener. Handler may
// be a Handler or a registered callback name.
func (b *Bot) Ask(ctx context.Context, conversationID string, question any, handler any) error {
	switch handler.(type) {
	case Handler, func(*Event), string:
	default:
		return fmt.Errorf("bot: reply handler must be a Handler or callback name, got %T", handler)
	}
	sent, err := b.Send(ctx, conversationID, question)
	if err != nil {
		return err
	}
	marker := "listener"
	if name, ok := handler.(string); ok {
		marker = name
	}
	b.setAwaitingMarker(conversationID, marker)
	messageID := ""
	if sent != nil {
		messageID = sent.ID
	}
	_, err = b.onReply(conversationID, messageID, handler)
	return err
}

func (b *Bot) askMarkerKey() string {
	return "_asked_" + b.UserID()
}

func (b *Bot) setAwaitingMarker(conversationID, value string) {
	conv, ok := b.store.Conversation(conversationID)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if conv.Meta == nil {
		conv.Meta = make(map[string]any)
	}
	conv.Meta[b.askMarkerKey()] = value
}

// runReplies resolves outstanding listeners for the event's conversation.
// Every registered listener fires, not just the most recent, and each is
// removed. When no listener is registered (a restart lost the in-memory list)
// but the conversation's awaiting-answer marker names a registered callback,
// that callback fires instead, resuming the exchange from the remotely
// persisted marker alone. Reports whether any handler claimed the message.
func (b *Bot) runReplies(ev *Event) bool {
	conversationID := ev.Message.Conversation

	b.mu.Lock()
	var matched []*ReplyListener
	remaining := b.replyListeners[:0]
	for _, l := range b.replyListeners {
		if l.ConversationID == conversationID {
			matched = append(matched, l)
		} else {
			remaining = append(remaining, l)
		}
	}
	b.replyListeners = remaining
	b.mu.Unlock()

	fired := false
	for _, l := range matched {
		if handler := l.resolve(b); handler != nil {
			b.metrics.ObserveReplyMatched()
			ev.Captured = true
			fired = true
			handler(ev)
		}
	}

	markerKey := b.askMarkerKey()
	if !fired {
		if v, ok := ev.Actions.metaValue(markerKey); ok {
			if name, _ := v.(string); name != "" && name != "listener" {
				if handler := b.callback(name); handler != nil {
					b.metrics.ObserveReplyMatched()
					ev.Captured = true
					fired = true
					handler(ev)
				}
			}
		}
	}
	if fired {
		if conv := ev.Actions.Conversation; conv != nil {
			b.mu.Lock()
			if conv.Meta != nil {
				delete(conv.Meta, markerKey)
			}
			b.mu.Unlock()
		}
	}
	return fired
}
