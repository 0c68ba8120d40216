package bot

import "errors"

// Failure kinds surfaced on the bot's error channel. Ingestion never returns
// these synchronously; subscribe with OnError to observe them.
var (
	// ErrIntegrity reports a webhook signature mismatch.
	ErrIntegrity = errors.New("bot: payload signature mismatch")
	// ErrMalformedPayload reports a payload missing its event, conversation
	// or message fields.
	ErrMalformedPayload = errors.New("bot: malformed payload")
	// ErrUpstream reports a failed organization preload.
	ErrUpstream = errors.New("bot: upstream fetch failed")
	// ErrPipeline reports a middleware step that signalled failure.
	ErrPipeline = errors.New("bot: middleware pipeline failed")
	// ErrMissingConversation reports a context lookup for an unknown
	// conversation id.
	ErrMissingConversation = errors.New("bot: unknown conversation")
	// ErrSendAborted reports an outbound message suppressed by a send
	// middleware step. Returned synchronously from Send, not emitted.
	ErrSendAborted = errors.New("bot: send aborted by middleware")
)
