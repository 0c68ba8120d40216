package bot

import (
	"fmt"

	"github.com/wolfman30/botlink/internal/platform"
)

// ReceiveFunc is a receive-pipeline step. It runs before an ingested payload
// is dispatched. Calling next(nil) proceeds to the following step; calling
// next(err) aborts the chain and surfaces a pipeline error event; not calling
// next aborts the chain silently. A step must call next at most once.
type ReceiveFunc func(b *Bot, p *platform.Payload, next func(error))

// SendFunc is a send-pipeline step. It runs before an outbound message
// reaches the platform client, with the same continuation contract as
// ReceiveFunc. Steps may rewrite the message in place.
type SendFunc func(b *Bot, m *platform.Message, next func(error))

// runReceive walks the receive chain in registration order and invokes done
// only if every step proceeded. A failing step is reported by its zero-based
// position in the chain; the built-in ignore filters occupy the leading
// positions when enabled.
func (b *Bot) runReceive(p *platform.Payload, done func()) {
	steps := b.receiveSteps
	var next func(i int) func(error)
	next = func(i int) func(error) {
		return func(err error) {
			if err != nil {
				b.emitError(fmt.Errorf("%w: receive step %d: %v", ErrPipeline, i-1, err))
				return
			}
			if i == len(steps) {
				done()
				return
			}
			steps[i](b, p, next(i+1))
		}
	}
	next(0)(nil)
}

// runSend walks the send chain and invokes done with the (possibly rewritten)
// message only if every step proceeded. It reports whether the chain
// completed, so synchronous callers can tell a short-circuit from a send.
// A failing step is reported by its zero-based position in Config.Send.
func (b *Bot) runSend(m *platform.Message, done func(*platform.Message)) bool {
	steps := b.sendSteps
	completed := false
	var next func(i int) func(error)
	next = func(i int) func(error) {
		return func(err error) {
			if err != nil {
				b.emitError(fmt.Errorf("%w: send step %d: %v", ErrPipeline, i-1, err))
				return
			}
			if i == len(steps) {
				completed = true
				done(m)
				return
			}
			steps[i](b, m, next(i+1))
		}
	}
	next(0)(nil)
	return completed
}

// IgnoreSelf drops inbound messages authored by the bot's own user. Installed
// by default; disable with Config.DisableIgnoreSelf.
func IgnoreSelf(b *Bot, p *platform.Payload, next func(error)) {
	if m := p.Data.Message; m != nil && m.User != "" && m.User == b.UserID() {
		b.logger.Debug("ignoring own message", "conversation", m.Conversation)
		return
	}
	next(nil)
}

// IgnoreBots drops inbound messages whose role marks them bot-authored.
// Installed by default; disable with Config.DisableIgnoreBots.
func IgnoreBots(b *Bot, p *platform.Payload, next func(error)) {
	if m := p.Data.Message; m != nil && m.Role == platform.RoleBot {
		b.logger.Debug("ignoring bot-authored message", "conversation", m.Conversation)
		return
	}
	next(nil)
}
