package providers

import (
	"context"
	"errors"
	"musegate/sources/persistence/entities"
	"musegate/sources/platform"
	"musegate/sources/tracing"
)

// ErrNoWebhook marks adapters that complete synchronously and never receive
// callback deliveries.
var ErrNoWebhook = errors.New("provider does not deliver webhooks")

// Outcome is the normalized shape every provider payload is reduced to
// before it reaches the reconciler. Intermediate outcomes are progress
// hints and must be dropped without touching any record.
type Outcome struct {
	TaskID           string
	Success          bool
	Result           string
	ErrorMessage     string
	Intermediate     bool
	ContentViolation bool
}

// SubmitRequest carries everything an adapter needs to fire a job. The
// details record is the same one persisted on the Generation, so the
// adapter and the billing path read identical settings.
type SubmitRequest struct {
	Prompt  string
	Quota   platform.Quota
	Details entities.GenerationDetails
}

// Adapter is one vendor integration. Submit must not block on the job
// itself: asynchronous vendors return the external task id and deliver the
// result by webhook, synchronous vendors do the work inline and return a
// terminal Outcome alongside a locally minted task id.
type Adapter interface {
	Name() string
	Submit(ctx context.Context, log *tracing.Logger, req *SubmitRequest) (string, *Outcome, error)
	ParseWebhook(body []byte) (*Outcome, error)
}
