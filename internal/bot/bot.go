// Package bot implements the webhook-driven event-dispatch engine: payload
// validation and integrity checking, receive/send middleware pipelines,
// hierarchical event routing with conditional matching, text triggers, and
// the ask/answer reply correlation protocol.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/wolfman30/botlink/internal/identity"
	metrics "github.com/wolfman30/botlink/internal/observability/metrics"
	"github.com/wolfman30/botlink/internal/platform"
	"github.com/wolfman30/botlink/pkg/logging"
)

// PlatformClient is the narrow slice of the platform REST API the engine
// needs: outbound sends and organization preloads.
type PlatformClient interface {
	SendMessage(ctx context.Context, conversationID string, content any) (*platform.Message, error)
	GetOrganization(ctx context.Context, id string) (*platform.Organization, error)
}

// Config assembles a Bot. Token and Client are required; everything else has
// working defaults.
type Config struct {
	// Token is the platform auth token; its claims identify the bot's own
	// user and organization.
	Token string
	// WebhookSecret is the shared secret for webhook signature checks.
	WebhookSecret string
	Client        PlatformClient
	Store         *Store
	Logger        *logging.Logger
	Metrics       *metrics.DispatchMetrics

	// DisableIgnoreSelf keeps the bot's own messages in the receive chain.
	DisableIgnoreSelf bool
	// DisableIgnoreBots keeps bot-authored messages in the receive chain.
	DisableIgnoreBots bool
	// OnlyFirstMatch stops text-trigger iteration after the first
	// structural match.
	OnlyFirstMatch bool
	// PreloadOrganizations fetches an uncached organization before
	// dispatching the first event referencing it.
	PreloadOrganizations bool

	// Receive appends steps after the built-in ignore filters.
	Receive []ReceiveFunc
	// Send configures the outbound pipeline.
	Send []SendFunc
}

// Bot composes the event router, caches, pipelines and platform client into
// one dispatch engine. All inbound work enters through Ingest.
type Bot struct {
	identity *identity.Identity
	secret   string
	client   PlatformClient
	store    *Store
	emitter  *emitter
	logger   *logging.Logger
	metrics  *metrics.DispatchMetrics

	onlyFirstMatch bool
	preloadOrgs    bool

	receiveSteps []ReceiveFunc
	sendSteps    []SendFunc

	// mu guards the trigger/listener/callback registries and all reads and
	// writes of cached conversation snapshots, which are shared across
	// concurrent dispatches.
	mu             sync.RWMutex
	triggers       []*textTrigger
	nextTriggerID  int64
	replyListeners []*ReplyListener
	callbacks      map[string]Handler
	nextListenerID atomic.Int64
}

// New builds a Bot from cfg.
func New(cfg Config) (*Bot, error) {
	ident, err := identity.FromToken(cfg.Token)
	if err != nil {
		return nil, err
	}
	if cfg.Client == nil {
		return nil, errors.New("bot: platform client is required")
	}
	store := cfg.Store
	if store == nil {
		store = NewStore()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	b := &Bot{
		identity:       ident,
		secret:         cfg.WebhookSecret,
		client:         cfg.Client,
		store:          store,
		emitter:        newEmitter(),
		logger:         logger,
		metrics:        cfg.Metrics,
		onlyFirstMatch: cfg.OnlyFirstMatch,
		preloadOrgs:    cfg.PreloadOrganizations,
		sendSteps:      cfg.Send,
		callbacks:      make(map[string]Handler),
	}
	if !cfg.DisableIgnoreSelf {
		b.receiveSteps = append(b.receiveSteps, IgnoreSelf)
	}
	if !cfg.DisableIgnoreBots {
		b.receiveSteps = append(b.receiveSteps, IgnoreBots)
	}
	b.receiveSteps = append(b.receiveSteps, cfg.Receive...)
	return b, nil
}

// UserID is the bot's own user id, derived from the auth token.
func (b *Bot) UserID() string { return b.identity.UserID }

// OrganizationID is the bot's own organization id.
func (b *Bot) OrganizationID() string { return b.identity.OrganizationID }

// Store exposes the conversation/organization cache.
func (b *Bot) Store() *Store { return b.store }

// On subscribes handler to a dot-segmented event name; "*" matches any single
// segment. The returned id unsubscribes via Off.
func (b *Bot) On(name string, handler Handler) int64 {
	return b.emitter.on(name, false, handler)
}

// OnIf is On gated by a conditionals map evaluated per event.
func (b *Bot) OnIf(name string, cond Conditionals, handler Handler) int64 {
	return b.emitter.on(name, false, func(ev *Event) {
		if matchConditionals(ev.Actions, ev.Message, cond) {
			handler(ev)
		}
	})
}

// Once subscribes handler for a single firing.
func (b *Bot) Once(name string, handler Handler) int64 {
	return b.emitter.on(name, true, handler)
}

// Off removes a subscription by id.
func (b *Bot) Off(id int64) {
	b.emitter.off(id)
}

// OnError subscribes to the bot's asynchronous error channel.
func (b *Bot) OnError(handler func(error)) int64 {
	return b.On("error", func(ev *Event) {
		if ev.Err != nil {
			handler(ev.Err)
		}
	})
}

// Send pushes content through the send pipeline and on to the platform.
// A bare string is wrapped into a chat message; the bot's own user id and
// role are filled in when absent. Returns ErrSendAborted when a middleware
// step suppressed the message.
func (b *Bot) Send(ctx context.Context, conversationID string, content any) (*platform.Message, error) {
	msg, err := platform.BuildMessage(content)
	if err != nil {
		return nil, err
	}
	msg.Conversation = conversationID
	if msg.User == "" {
		msg.User = b.UserID()
	}
	if msg.Role == "" {
		msg.Role = platform.RoleBot
	}

	var sent *platform.Message
	var sendErr error
	completed := b.runSend(msg, func(final *platform.Message) {
		sent, sendErr = b.client.SendMessage(ctx, conversationID, final)
	})
	if !completed {
		return nil, ErrSendAborted
	}
	if sendErr != nil {
		return nil, fmt.Errorf("bot: send to %s: %w", conversationID, sendErr)
	}
	return sent, nil
}

// emitAs fires ev under the given concrete name.
func (b *Bot) emitAs(name string, ev *Event) {
	clone := *ev
	clone.Name = name
	b.metrics.ObserveEmit(name)
	b.emitter.emit(&clone)
}

func (b *Bot) emitError(err error) {
	b.logger.Error("dispatch error", "error", err)
	b.emitter.emit(&Event{Name: "error", Err: err})
}
