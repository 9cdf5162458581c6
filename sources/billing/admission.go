package billing

import (
	"fmt"
	"musegate/sources/persistence/entities"
	"musegate/sources/platform"
	"musegate/sources/tracing"
)

// InsufficientBalanceError: the tariff does bundle this capability, the user
// has simply run out until the next reset (or until they buy a package).
type InsufficientBalanceError struct {
	Quota     platform.Quota
	Cost      int
	Available int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for %s: cost %d, available %d", e.Quota, e.Cost, e.Available)
}

func IsInsufficientBalance(err error) bool {
	_, ok := err.(*InsufficientBalanceError)
	return ok
}

// RestrictedError: the user's tariff allocates zero units of this capability
// class, so waiting for a reset will not help.
type RestrictedError struct {
	Quota  platform.Quota
	Tariff string
}

func (e *RestrictedError) Error() string {
	return fmt.Sprintf("capability %s is not available on tariff %s", e.Quota, e.Tariff)
}

func IsRestricted(err error) bool {
	_, ok := err.(*RestrictedError)
	return ok
}

// CheckAdmission is the pre-flight balance check, run before any provider
// submission. It uses the same pools the ledger debits from, so an admitted
// cost is always affordable absent a concurrent debit.
func (x *Ledger) CheckAdmission(log *tracing.Logger, user *entities.User, tariff *entities.Tariff, quota platform.Quota, cost int) error {
	available := x.Available(user, quota)
	if cost <= available {
		log.D("Admission check passed", tracing.QuotaKey, quota, tracing.QuotaUnits, cost, "available", available)
		return nil
	}

	if tariff != nil && tariff.DailyLimits[quota] == 0 && user.AdditionalQuota[quota] == 0 {
		log.I("Admission rejected, capability restricted by tariff", tracing.QuotaKey, quota, tracing.UserTariff, user.TariffKey)
		return &RestrictedError{Quota: quota, Tariff: user.TariffKey}
	}

	log.I("Admission rejected, balance exhausted", tracing.QuotaKey, quota, tracing.QuotaUnits, cost, "available", available)
	return &InsufficientBalanceError{Quota: quota, Cost: cost, Available: available}
}
