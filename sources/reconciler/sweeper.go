package reconciler

import (
	"time"
	"musegate/sources/configuration"
	"musegate/sources/persistence/entities"
	"musegate/sources/tracing"
)

const (
	defaultSweepInterval  = 5 * time.Minute
	defaultPendingTimeout = 30 * time.Minute
)

type StuckRequestStore interface {
	GetStuckPending(logger *tracing.Logger, olderThan time.Time) ([]*entities.Request, error)
}

// Sweeper expires requests whose provider never called back. Providers lose
// jobs; without the sweeper those requests would sit pending forever with
// their placeholder messages in the chat.
type Sweeper struct {
	log        *tracing.Logger
	reconciler *Reconciler
	requests   StuckRequestStore
	interval   time.Duration
	timeout    time.Duration
	stop       chan struct{}
	done       chan struct{}
}

func NewSweeper(log *tracing.Logger, config *configuration.Config, reconciler *Reconciler, requests StuckRequestStore) *Sweeper {
	interval := config.Reconciler.SweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	timeout := config.Reconciler.PendingTimeout
	if timeout <= 0 {
		timeout = defaultPendingTimeout
	}

	return &Sweeper{
		log:        log,
		reconciler: reconciler,
		requests:   requests,
		interval:   interval,
		timeout:    timeout,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (x *Sweeper) Start() {
	go func() {
		defer close(x.done)
		ticker := time.NewTicker(x.interval)
		defer ticker.Stop()

		x.log.I("Sweeper started", "interval", x.interval, "pending_timeout", x.timeout)
		for {
			select {
			case <-ticker.C:
				x.Sweep(time.Now())
			case <-x.stop:
				return
			}
		}
	}()
}

func (x *Sweeper) Sweep(now time.Time) {
	stuck, err := x.requests.GetStuckPending(x.log, now.Add(-x.timeout))
	if err != nil {
		x.log.E("Sweep failed", tracing.InnerError, err)
		return
	}

	for _, request := range stuck {
		x.reconciler.ExpireRequest(x.log, request)
	}
}

func (x *Sweeper) Stop() {
	close(x.stop)
	<-x.done
}
