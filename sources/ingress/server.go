package ingress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"musegate/sources/configuration"
	"musegate/sources/metrics"
	"musegate/sources/providers"
	"musegate/sources/reconciler"
	"musegate/sources/tracing"

	"github.com/go-chi/chi/v5"
)

const maxWebhookBody = 1 << 20

// WebhookServer is the ingress for provider callback deliveries. It parses
// and enqueues; all reconciliation decisions happen in the worker pool. The
// contract with providers is simple: 2xx means accepted or deliberately
// ignored, anything else means deliver again later.
type WebhookServer struct {
	log      *tracing.Logger
	registry *providers.Registry
	queue    *reconciler.CompletionQueue
	metrics  *metrics.MetricsService
	server   *http.Server
}

func NewWebhookServer(
	log *tracing.Logger,
	config *configuration.Config,
	registry *providers.Registry,
	queue *reconciler.CompletionQueue,
	metricsService *metrics.MetricsService,
) *WebhookServer {
	x := &WebhookServer{
		log:      log,
		registry: registry,
		queue:    queue,
		metrics:  metricsService,
	}

	router := chi.NewRouter()
	router.Post("/webhook/{provider}", x.handleWebhook)

	x.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Ingress.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return x
}

func (x *WebhookServer) Handler() http.Handler {
	return x.server.Handler
}

func (x *WebhookServer) Serve() error {
	x.log.I("Webhook ingress listening", "addr", x.server.Addr)
	return x.server.ListenAndServe()
}

func (x *WebhookServer) Shutdown(ctx context.Context) error {
	return x.server.Shutdown(ctx)
}

func (x *WebhookServer) handleWebhook(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	adapter, err := x.registry.ByName(provider)
	if err != nil {
		x.log.W("Webhook for unknown provider", tracing.Provider, provider)
		http.Error(w, "unknown provider", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	x.metrics.RecordWebhookReceived(provider)

	outcome, err := adapter.ParseWebhook(body)
	if err != nil {
		if errors.Is(err, providers.ErrNoWebhook) {
			x.log.W("Webhook for synchronous provider", tracing.Provider, provider)
			http.Error(w, "provider has no webhook", http.StatusBadRequest)
			return
		}
		x.log.W("Unparseable webhook", tracing.Provider, provider, tracing.InnerError, err)
		http.Error(w, "unparseable payload", http.StatusBadRequest)
		return
	}

	if !x.queue.Enqueue(provider, outcome) {
		http.Error(w, "busy, retry later", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}
