package ingress

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"musegate/sources/configuration"
	"musegate/sources/metrics"
	"musegate/sources/providers"
	"musegate/sources/reconciler"
	"musegate/sources/tracing"
)

type captured struct {
	mu       sync.Mutex
	outcomes []*providers.Outcome
}

func newTestServer(t *testing.T) (*WebhookServer, *reconciler.CompletionQueue, *captured) {
	t.Helper()

	log := tracing.NewConsoleLogger()
	config := &configuration.Config{}
	config.Reconciler.Workers = 1
	config.Reconciler.QueueSize = 8

	registry := providers.NewRegistry(
		providers.NewOpenRouterAdapter(nil, config),
		providers.NewDallEAdapter(nil),
		providers.NewMidjourneyAdapter(nil, config),
		providers.NewSunoAdapter(nil, config),
		providers.NewKlingAdapter(nil, config),
	)

	sink := &captured{}
	queue := reconciler.NewCompletionQueue(log, config)
	queue.Bind(func(_ *tracing.Logger, _ string, outcome *providers.Outcome) error {
		sink.mu.Lock()
		sink.outcomes = append(sink.outcomes, outcome)
		sink.mu.Unlock()
		return nil
	})
	queue.Start()

	return NewWebhookServer(log, config, registry, queue, metrics.NewMetricsService(log)), queue, sink
}

func TestWebhookAcceptsKnownDelivery(t *testing.T) {
	server, queue, sink := newTestServer(t)

	body := `{"task_id":"mj-77","status":"success","image_url":"https://cdn/result.png"}`
	request := httptest.NewRequest("POST", "/webhook/midjourney", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, request)

	if recorder.Code != 200 {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}

	queue.Stop()
	if len(sink.outcomes) != 1 {
		t.Fatalf("reconciled %d deliveries, want 1", len(sink.outcomes))
	}
	if !sink.outcomes[0].Success || sink.outcomes[0].TaskID != "mj-77" {
		t.Errorf("unexpected outcome: %+v", sink.outcomes[0])
	}
}

func TestWebhookRejectsUnknownProvider(t *testing.T) {
	server, queue, _ := newTestServer(t)
	defer queue.Stop()

	request := httptest.NewRequest("POST", "/webhook/nonesuch", strings.NewReader(`{}`))
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, request)

	if recorder.Code != 404 {
		t.Fatalf("status = %d, want 404", recorder.Code)
	}
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	server, queue, sink := newTestServer(t)

	request := httptest.NewRequest("POST", "/webhook/midjourney", strings.NewReader("not json"))
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, request)

	if recorder.Code != 400 {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}

	queue.Stop()
	if len(sink.outcomes) != 0 {
		t.Error("malformed payload reached the reconciler")
	}
}

func TestWebhookRejectsSynchronousProvider(t *testing.T) {
	server, queue, _ := newTestServer(t)
	defer queue.Stop()

	request := httptest.NewRequest("POST", "/webhook/openrouter", strings.NewReader(`{}`))
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, request)

	if recorder.Code != 400 {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}
}
