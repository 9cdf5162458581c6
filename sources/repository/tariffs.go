package repository

import (
	"context"
	"errors"
	"fmt"
	"time"
	"musegate/sources/persistence/entities"
	"musegate/sources/platform"
	"musegate/sources/tracing"

	"gorm.io/gorm"
)

var ErrTariffNotFound = errors.New("tariff not found")

type TariffsRepository struct {
	db *gorm.DB
}

func NewTariffsRepository(db *gorm.DB) *TariffsRepository {
	return &TariffsRepository{db: db}
}

// GetLatestByKey returns the newest tariff row for the key. Tariff rows are
// append-only: changing a tariff means inserting a new row, existing users
// pick it up on their next quota reset.
func (x *TariffsRepository) GetLatestByKey(log *tracing.Logger, key string) (*entities.Tariff, error) {
	defer tracing.ProfilePoint(log, "Tariffs get latest by key completed", "repository.tariffs.get.latest.by.key", "key", key)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	var tariff entities.Tariff
	err := x.db.WithContext(ctx).
		Where("key = ?", key).
		Order("created_at DESC").
		First(&tariff).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTariffNotFound
		}
		return nil, fmt.Errorf("failed to get latest tariff for key %s: %w", key, err)
	}

	return &tariff, nil
}

// GetWithFallback falls back to the bronze tariff when the requested key has
// no rows, so a misconfigured user still gets the base allowance.
func (x *TariffsRepository) GetWithFallback(log *tracing.Logger, key string) (*entities.Tariff, error) {
	tariff, err := x.GetLatestByKey(log, key)
	if err != nil {
		if key != platform.TariffBronze {
			tariff, err = x.GetLatestByKey(log, platform.TariffBronze)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch tariff for %s (with bronze fallback): %w", key, err)
		}
	}
	return tariff, nil
}

func (x *TariffsRepository) GetAllLatest(log *tracing.Logger) ([]*entities.Tariff, error) {
	defer tracing.ProfilePoint(log, "Tariffs get all latest completed", "repository.tariffs.get.all.latest")()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	var tariffs []*entities.Tariff
	err := x.db.WithContext(ctx).
		Order("key, created_at DESC").
		Find(&tariffs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to get all tariffs: %w", err)
	}

	latestMap := make(map[string]*entities.Tariff)
	for _, tariff := range tariffs {
		if _, exists := latestMap[tariff.Key]; !exists {
			latestMap[tariff.Key] = tariff
		}
	}

	result := make([]*entities.Tariff, 0, len(latestMap))
	for _, tariff := range latestMap {
		result = append(result, tariff)
	}

	return result, nil
}
