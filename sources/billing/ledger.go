package billing

import (
	"musegate/sources/persistence/entities"
	"musegate/sources/platform"
	"musegate/sources/tracing"
)

// QuotaStore persists the mutated quota maps. Satisfied by
// repository.UsersRepository.
type QuotaStore interface {
	UpdateQuotas(logger *tracing.Logger, user *entities.User) error
}

type Ledger struct {
	store QuotaStore
}

func NewLedger(store QuotaStore) *Ledger {
	return &Ledger{store: store}
}

// Debit consumes units of the capability, one unit at a time: the shared
// class pool first (decrementing every sibling key uniformly), then the
// purchased per-key quota. It never drives a counter negative and stops
// early when both pools are dry. Callers are expected to have passed
// CheckAdmission before spending money on the provider call. Both maps are
// written back in a single update.
func (x *Ledger) Debit(log *tracing.Logger, user *entities.User, quota platform.Quota, units int) error {
	if units <= 0 {
		return nil
	}

	if user.DailyLimits == nil {
		user.DailyLimits = entities.QuotaMap{}
	}
	if user.AdditionalQuota == nil {
		user.AdditionalQuota = entities.QuotaMap{}
	}

	siblings := Siblings(quota)
	spent := 0

	for i := 0; i < units; i++ {
		if user.DailyLimits[quota] > 0 {
			for _, sibling := range siblings {
				if user.DailyLimits[sibling] > 0 {
					user.DailyLimits[sibling]--
				}
			}
			spent++
			continue
		}

		if user.AdditionalQuota[quota] > 0 {
			user.AdditionalQuota[quota]--
			spent++
			continue
		}

		log.W("Quota exhausted mid-debit", tracing.QuotaKey, quota, tracing.QuotaUnits, units, "spent", spent)
		break
	}

	if spent == 0 {
		return nil
	}

	if err := x.store.UpdateQuotas(log, user); err != nil {
		log.E("Failed to persist quota debit", tracing.InnerError, err, tracing.QuotaKey, quota)
		return err
	}

	log.I("Quota debited", tracing.QuotaKey, quota, tracing.QuotaClass, ClassOf(quota), tracing.QuotaUnits, spent)
	return nil
}

// Grant credits purchased per-capability quota. Package purchases and admin
// credits land here; the shared daily pool is only ever refilled by the
// periodic reset.
func (x *Ledger) Grant(log *tracing.Logger, user *entities.User, quota platform.Quota, units int) error {
	if units <= 0 {
		return nil
	}

	if user.AdditionalQuota == nil {
		user.AdditionalQuota = entities.QuotaMap{}
	}
	user.AdditionalQuota[quota] += units

	if err := x.store.UpdateQuotas(log, user); err != nil {
		log.E("Failed to persist quota grant", tracing.InnerError, err, tracing.QuotaKey, quota)
		return err
	}

	log.I("Quota granted", tracing.QuotaKey, quota, tracing.QuotaUnits, units)
	return nil
}

// Available reports the total spendable units for the capability: shared
// daily pool plus purchased per-key quota.
func (x *Ledger) Available(user *entities.User, quota platform.Quota) int {
	return user.DailyLimits[quota] + user.AdditionalQuota[quota]
}
