package billing

import (
	"time"
	"musegate/sources/configuration"
	"musegate/sources/persistence/entities"
	"musegate/sources/platform"
	"musegate/sources/repository"
	"musegate/sources/tracing"
)

// QuotaResetter refills shared daily pools from tariff defaults on a
// schedule. Purchased quota survives resets untouched.
type QuotaResetter struct {
	users   *repository.UsersRepository
	tariffs *repository.TariffsRepository
	config  *configuration.Config
	log     *tracing.Logger
	stop    chan struct{}
}

func NewQuotaResetter(users *repository.UsersRepository, tariffs *repository.TariffsRepository, config *configuration.Config, log *tracing.Logger) *QuotaResetter {
	return &QuotaResetter{
		users:   users,
		tariffs: tariffs,
		config:  config,
		log:     log,
		stop:    make(chan struct{}),
	}
}

func (x *QuotaResetter) Start() {
	interval := x.config.Billing.ResetCheckInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	x.sweep()

	for {
		select {
		case <-ticker.C:
			x.sweep()
		case <-x.stop:
			return
		}
	}
}

func (x *QuotaResetter) Stop() {
	close(x.stop)
}

func (x *QuotaResetter) sweep() {
	now := time.Now()

	users, err := x.users.GetUsersDueForReset(x.log, now)
	if err != nil {
		x.log.E("Quota reset sweep failed to list users", tracing.InnerError, err)
		return
	}
	if len(users) == 0 {
		return
	}

	tariffs, err := x.tariffs.GetAllLatest(x.log)
	if err != nil {
		x.log.E("Quota reset sweep failed to list tariffs", tracing.InnerError, err)
		return
	}
	byKey := make(map[string]*entities.Tariff, len(tariffs))
	for _, tariff := range tariffs {
		byKey[tariff.Key] = tariff
	}

	for _, user := range users {
		tariff := byKey[user.TariffKey]
		if tariff == nil {
			tariff = byKey[platform.TariffBronze]
		}
		if tariff == nil {
			x.log.E("Quota reset found no tariff row", tracing.UserId, user.UserID, tracing.UserTariff, user.TariffKey)
			continue
		}

		limits := CloneQuotaMap(tariff.DailyLimits)
		nextReset := NextResetTime(tariff.ResetPeriod, now)

		if err := x.users.ResetDailyLimits(x.log, user, limits, nextReset); err != nil {
			x.log.E("Quota reset failed to persist", tracing.InnerError, err, tracing.UserId, user.UserID)
		}
	}

	if len(users) > 0 {
		x.log.I("Quota reset sweep completed", "users_reset", len(users))
	}
}

// CloneQuotaMap deep-copies tariff defaults before handing them to a user.
// Aliasing the tariff's map would let one user's debits bleed into the
// shared defaults.
func CloneQuotaMap(m entities.QuotaMap) entities.QuotaMap {
	clone := make(entities.QuotaMap, len(m))
	for quota, units := range m {
		clone[quota] = units
	}
	return clone
}

func NextResetTime(period platform.ResetPeriod, now time.Time) time.Time {
	switch period {
	case platform.ResetPeriodMonthly:
		return CurrentWindowStart(period, now).AddDate(0, 1, 0)
	default:
		return CurrentWindowStart(period, now).AddDate(0, 0, 1)
	}
}

// CurrentWindowStart is the most recent reset boundary, on the same local
// clock NextResetTime schedules against. Spend summaries must use this
// rather than UTC truncation, or the window drifts by the timezone offset.
func CurrentWindowStart(period platform.ResetPeriod, now time.Time) time.Time {
	switch period {
	case platform.ResetPeriodMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	default:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}
}
