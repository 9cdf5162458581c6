package repository

import (
	"context"
	"errors"
	"time"
	"musegate/sources/persistence/entities"
	"musegate/sources/platform"
	"musegate/sources/tracing"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrGenerationNotFound = errors.New("generation not found")

type GenerationsRepository struct {
	db *gorm.DB
}

func NewGenerationsRepository(db *gorm.DB) *GenerationsRepository {
	return &GenerationsRepository{db: db}
}

func (x *GenerationsRepository) CreateGeneration(logger *tracing.Logger, taskID string, requestID uuid.UUID, productID string, quota platform.Quota, provider string, isSuggestion bool, details entities.GenerationDetails) (*entities.Generation, error) {
	defer tracing.ProfilePoint(logger, "Generations create completed", "repository.generations.create", tracing.TaskId, taskID)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	generation := &entities.Generation{
		ID:           taskID,
		RequestID:    requestID,
		ProductID:    productID,
		Quota:        quota,
		Provider:     provider,
		Status:       entities.StatusPending,
		IsSuggestion: isSuggestion,
		Details:      details,
	}

	if err := x.db.WithContext(ctx).Create(generation).Error; err != nil {
		logger.E("Failed to create generation", tracing.InnerError, err, tracing.TaskId, taskID)
		return nil, err
	}

	logger.I("Generation created", tracing.TaskId, taskID, tracing.Provider, provider, tracing.QuotaKey, quota)
	return generation, nil
}

func (x *GenerationsRepository) GetByTaskID(logger *tracing.Logger, taskID string) (*entities.Generation, error) {
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	var generation entities.Generation
	err := x.db.WithContext(ctx).Where("id = ?", taskID).First(&generation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGenerationNotFound
		}
		logger.E("Failed to get generation", tracing.InnerError, err, tracing.TaskId, taskID)
		return nil, err
	}

	return &generation, nil
}

// FinishGeneration is the linearization point of webhook reconciliation.
// The pending guard in the WHERE clause turns duplicate and concurrent
// deliveries for the same task id into lost races: exactly one caller gets
// won == true and runs the completion side effects.
func (x *GenerationsRepository) FinishGeneration(logger *tracing.Logger, taskID string, result *string, hasError bool) (bool, error) {
	defer tracing.ProfilePoint(logger, "Generations finish completed", "repository.generations.finish", tracing.TaskId, taskID)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	now := time.Now()
	res := x.db.WithContext(ctx).
		Model(&entities.Generation{}).
		Where("id = ? AND status = ?", taskID, entities.StatusPending).
		Updates(map[string]interface{}{
			"status":      entities.StatusFinished,
			"result":      result,
			"has_error":   hasError,
			"finished_at": now,
		})

	if res.Error != nil {
		logger.E("Failed to finish generation", tracing.InnerError, res.Error, tracing.TaskId, taskID)
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

func (x *GenerationsRepository) GetPendingByRequest(logger *tracing.Logger, requestID uuid.UUID) ([]*entities.Generation, error) {
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	var generations []*entities.Generation
	err := x.db.WithContext(ctx).
		Where("request_id = ? AND status = ?", requestID, entities.StatusPending).
		Find(&generations).Error

	if err != nil {
		logger.E("Failed to get pending generations", tracing.InnerError, err, tracing.RequestId, requestID)
		return nil, err
	}

	return generations, nil
}
