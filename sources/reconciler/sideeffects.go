package reconciler

import (
	"sync"
	"time"
	"musegate/sources/configuration"
	"musegate/sources/providers"
	"musegate/sources/tracing"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 256

	maxDeliveryAttempts = 3
	defaultRetryBackoff = 250 * time.Millisecond
)

type Delivery struct {
	Provider string
	Outcome  *providers.Outcome
}

type Runner func(log *tracing.Logger, provider string, outcome *providers.Outcome) error

// CompletionQueue decouples webhook ingress from reconciliation: the HTTP
// handler enqueues and returns, a small worker pool drains. Because the
// delivery was already acknowledged with 200, a storage error inside the
// worker is retried in place with backoff before the delivery is dropped.
// Dropping on overflow is safe because providers redeliver and
// reconciliation is idempotent.
type CompletionQueue struct {
	log     *tracing.Logger
	queue   chan Delivery
	workers int
	runner  Runner
	backoff time.Duration
	wg      sync.WaitGroup
}

func NewCompletionQueue(log *tracing.Logger, config *configuration.Config) *CompletionQueue {
	workers := config.Reconciler.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	size := config.Reconciler.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}

	return &CompletionQueue{
		log:     log,
		queue:   make(chan Delivery, size),
		workers: workers,
		backoff: defaultRetryBackoff,
	}
}

// Bind installs the reconciliation entry point. Wired separately from the
// constructor so the queue can be built before the reconciler in the
// dependency graph.
func (x *CompletionQueue) Bind(runner Runner) {
	x.runner = runner
}

func (x *CompletionQueue) Start() {
	for i := 0; i < x.workers; i++ {
		x.wg.Add(1)
		go x.work()
	}
	x.log.I("Completion queue started", "workers", x.workers, "capacity", cap(x.queue))
}

func (x *CompletionQueue) work() {
	defer x.wg.Done()
	for delivery := range x.queue {
		x.process(delivery)
	}
}

func (x *CompletionQueue) process(delivery Delivery) {
	var err error
	for attempt := 1; attempt <= maxDeliveryAttempts; attempt++ {
		if err = x.runner(x.log, delivery.Provider, delivery.Outcome); err == nil {
			return
		}
		x.log.W("Delivery reconciliation failed",
			tracing.InnerError, err,
			tracing.Provider, delivery.Provider,
			tracing.TaskId, delivery.Outcome.TaskID,
			"attempt", attempt)
		if attempt < maxDeliveryAttempts {
			time.Sleep(x.backoff * time.Duration(attempt))
		}
	}
	x.log.E("Delivery dropped after retries, sweeper will expire the request",
		tracing.InnerError, err,
		tracing.Provider, delivery.Provider,
		tracing.TaskId, delivery.Outcome.TaskID)
}

// Enqueue hands a parsed delivery to the worker pool. Returns false when the
// queue is saturated; the caller should answer the provider with a retryable
// status.
func (x *CompletionQueue) Enqueue(provider string, outcome *providers.Outcome) bool {
	select {
	case x.queue <- Delivery{Provider: provider, Outcome: outcome}:
		return true
	default:
		x.log.W("Completion queue full, delivery rejected", tracing.Provider, provider, tracing.TaskId, outcome.TaskID)
		return false
	}
}

// Stop closes the queue and waits for the workers to drain it.
func (x *CompletionQueue) Stop() {
	close(x.queue)
	x.wg.Wait()
	x.log.I("Completion queue drained")
}
