package bot

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/botlink/internal/platform"
)

const preloadTimeout = 15 * time.Second

// Ingest is the engine's entry point: it verifies the payload signature when
// one is supplied, validates the payload shape, updates the conversation
// cache, and hands the payload to the dispatch pipeline. Failures surface as
// events on the error channel, never as return values.
func (b *Bot) Ingest(body []byte, signature string) {
	if signature != "" && !verifySignature(b.secret, body, signature) {
		b.metrics.ObserveIngest("integrity_rejected")
		b.emitError(ErrIntegrity)
		return
	}
	var p platform.Payload
	if err := json.Unmarshal(body, &p); err != nil {
		b.metrics.ObserveIngest("malformed")
		b.emitError(fmt.Errorf("%w: %v", ErrMalformedPayload, err))
		return
	}
	b.IngestPayload(&p)
}

// IngestPayload classifies and dispatches an already-decoded payload.
func (b *Bot) IngestPayload(p *platform.Payload) {
	if p == nil || strings.TrimSpace(p.Event) == "" {
		b.metrics.ObserveIngest("malformed")
		b.emitError(fmt.Errorf("%w: missing event", ErrMalformedPayload))
		return
	}
	switch {
	case strings.HasPrefix(p.Event, "message"):
		b.ingestMessage(p)
	case p.Data.Activity != nil:
		b.metrics.ObserveIngest("dispatched")
		b.dispatch(p)
	default:
		// Unrecognized resource events are ignored on purpose.
		b.metrics.ObserveIngest("ignored")
		b.logger.Debug("ignoring unrecognized payload", "event", p.Event)
	}
}

func (b *Bot) ingestMessage(p *platform.Payload) {
	conv := p.Data.Conversation
	msg := p.Data.Message
	if conv == nil || conv.ID == "" || msg == nil {
		b.metrics.ObserveIngest("malformed")
		b.emitError(fmt.Errorf("%w: message event %q lacks conversation or message", ErrMalformedPayload, p.Event))
		return
	}
	if msg.Conversation == "" {
		msg.Conversation = conv.ID
	}
	b.store.PutConversation(conv)

	if b.preloadOrgs {
		// The snapshot is published; read its fields under the lock.
		b.mu.RLock()
		orgID := conv.Organization
		b.mu.RUnlock()
		if orgID != "" {
			if _, cached := b.store.Organization(orgID); !cached {
				// Only this event waits on the fetch; unrelated ingestion
				// continues in the meantime.
				go b.preloadThenDispatch(p, orgID)
				return
			}
		}
	}
	b.metrics.ObserveIngest("dispatched")
	b.dispatch(p)
}

func (b *Bot) preloadThenDispatch(p *platform.Payload, organizationID string) {
	ctx, cancel := context.WithTimeout(context.Background(), preloadTimeout)
	defer cancel()
	org, err := b.client.GetOrganization(ctx, organizationID)
	if err != nil {
		b.metrics.ObserveIngest("preload_failed")
		b.emitError(fmt.Errorf("%w: organization %s: %v", ErrUpstream, organizationID, err))
		return
	}
	b.store.PutOrganization(org)
	b.metrics.ObserveIngest("dispatched")
	b.dispatch(p)
}

func (b *Bot) dispatch(p *platform.Payload) {
	b.runReceive(p, func() {
		b.route(p)
	})
}

func (b *Bot) route(p *platform.Payload) {
	if p.Data.Message != nil {
		b.routeMessage(p)
		return
	}
	ev := &Event{Name: p.Event, Payload: p, Activity: p.Data.Activity}
	b.emitAs("activity", ev)
	b.emitAs(p.Event, ev)
}

// routeMessage performs the two emissions every message event gets (raw
// activity plus the typed name), runs triggers and reply correlation, and
// fires the synthetic convenience events unless a handler claimed the
// message.
func (b *Bot) routeMessage(p *platform.Payload) {
	msg := p.Data.Message
	actions := b.Context(msg.Conversation)
	ev := &Event{Name: p.Event, Payload: p, Message: msg, Actions: actions}

	b.emitAs("activity", ev)
	b.emitAs(p.Event, ev)

	claimed := false
	if triggerEligible(p.Event, msg) {
		claimed = b.runTriggers(ev)
		if b.runReplies(ev) {
			claimed = true
		}
	}
	if claimed {
		// A handled message does not also reach generic listeners.
		return
	}

	b.emitAs("message", ev)
	if msg.Type != "" && msg.Role != "" {
		b.emitAs(msg.Type+"."+msg.Role, ev)
	}
	if b.isNotifyMessage(msg) {
		b.emitAs("notify", ev)
	}
}

// isNotifyMessage reports whether a message should raise the synthetic
// "notify" event: an /assign command directed at the bot, a ">"-prefixed
// command, or a mention targeting the bot's own user.
func (b *Bot) isNotifyMessage(m *platform.Message) bool {
	switch m.Type {
	case platform.TypeCommand:
		if strings.HasPrefix(m.Text, ">") {
			return true
		}
		if strings.HasPrefix(m.Text, "/assign") && strings.Contains(m.Text, b.UserID()) {
			return true
		}
	case platform.TypeMention:
		if target, ok := m.Meta["targetUser"].(string); ok && target == b.UserID() {
			return true
		}
	}
	return false
}

// verifySignature checks a hex HMAC-SHA256 of the raw body against the
// supplied header value. An optional "sha256=" prefix is accepted.
func verifySignature(secret string, body []byte, signature string) bool {
	signature = strings.TrimPrefix(signature, "sha256=")
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
