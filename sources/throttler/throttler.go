package throttler

import (
	"context"
	"fmt"
	"time"
	"musegate/sources/configuration"
	"musegate/sources/platform"
	"musegate/sources/tracing"

	"github.com/redis/go-redis/v9"
)

const defaultLimit = 5 * time.Second

// Throttler rate-limits command handling per user. Redis failures fail open:
// losing throttling briefly is better than refusing every command.
type Throttler struct {
	client *redis.Client
	limit  time.Duration
	log    *tracing.Logger
	ctx    context.Context
}

func NewThrottler(client *redis.Client, config *configuration.Config, log *tracing.Logger) *Throttler {
	limit := config.Throttle.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	return &Throttler{client: client, limit: limit, log: log, ctx: context.Background()}
}

func (x *Throttler) IsAllowed(userId int64) bool {
	ctx, cancel := platform.ContextTimeout(x.ctx)
	defer cancel()

	key := fmt.Sprintf("throttle:%d", userId)

	success, err := x.client.SetNX(ctx, key, time.Now().Unix(), x.limit).Result()
	if err != nil {
		x.log.E("Error setting throttle key", tracing.InnerError, err)
		return true
	}

	return success
}
