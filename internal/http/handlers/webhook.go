package handlers

import (
	"io"
	"net/http"
	"time"

	metrics "github.com/wolfman30/botlink/internal/observability/metrics"
	"github.com/wolfman30/botlink/pkg/logging"
)

// Ingestor is the slice of the dispatch engine the webhook endpoint needs.
type Ingestor interface {
	Ingest(body []byte, signature string)
}

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "X-Hub-Signature"

const maxBodyBytes = 1 << 20

// WebhookHandler receives platform webhook deliveries and feeds them to the
// dispatch engine. Processing outcomes surface on the bot's error channel,
// so the HTTP response only acknowledges receipt.
type WebhookHandler struct {
	bot     Ingestor
	logger  *logging.Logger
	metrics *metrics.DispatchMetrics
}

type WebhookConfig struct {
	Bot     Ingestor
	Logger  *logging.Logger
	Metrics *metrics.DispatchMetrics
}

func NewWebhookHandler(cfg WebhookConfig) *WebhookHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &WebhookHandler{
		bot:     cfg.Bot,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
}

// HandleEvent ingests one webhook delivery. The platform retries on non-2xx,
// so anything past a readable body is acknowledged immediately; validation
// and integrity failures are reported asynchronously by the engine.
func (h *WebhookHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	h.bot.Ingest(body, r.Header.Get(SignatureHeader))
	h.metrics.ObserveWebhookLatency(time.Since(start).Seconds())
	w.WriteHeader(http.StatusOK)
}
