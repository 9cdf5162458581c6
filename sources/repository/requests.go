package repository

import (
	"context"
	"errors"
	"time"
	"musegate/sources/persistence/entities"
	"musegate/sources/platform"
	"musegate/sources/tracing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

var ErrRequestNotFound = errors.New("request not found")

type RequestsRepository struct {
	db *gorm.DB
}

func NewRequestsRepository(db *gorm.DB) *RequestsRepository {
	return &RequestsRepository{db: db}
}

func (x *RequestsRepository) CreateRequest(logger *tracing.Logger, userID uuid.UUID, chatID int64) (*entities.Request, error) {
	defer tracing.ProfilePoint(logger, "Requests create completed", "repository.requests.create", tracing.ChatId, chatID)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	request := &entities.Request{
		UserID:               userID,
		ChatID:               chatID,
		Status:               entities.StatusPending,
		ProcessingMessageIDs: pq.Int64Array{},
	}

	if err := x.db.WithContext(ctx).Create(request).Error; err != nil {
		logger.E("Failed to create request", tracing.InnerError, err)
		return nil, err
	}

	logger.I("Request created", tracing.RequestId, request.ID)
	return request, nil
}

func (x *RequestsRepository) GetByID(logger *tracing.Logger, id uuid.UUID) (*entities.Request, error) {
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	var request entities.Request
	err := x.db.WithContext(ctx).Where("id = ?", id).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		logger.E("Failed to get request", tracing.InnerError, err)
		return nil, err
	}

	return &request, nil
}

func (x *RequestsRepository) AppendProcessingMessage(logger *tracing.Logger, requestID uuid.UUID, messageID int64) error {
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	err := x.db.WithContext(ctx).
		Model(&entities.Request{}).
		Where("id = ?", requestID).
		Update("processing_message_ids", gorm.Expr("array_append(processing_message_ids, ?)", messageID)).Error

	if err != nil {
		logger.E("Failed to append processing message", tracing.InnerError, err, tracing.RequestId, requestID)
		return err
	}

	return nil
}

// FinishRequest flips the request to finished once. The status guard in the
// WHERE clause makes concurrent completions race safely: only one caller
// observes won == true.
func (x *RequestsRepository) FinishRequest(logger *tracing.Logger, requestID uuid.UUID) (bool, error) {
	defer tracing.ProfilePoint(logger, "Requests finish completed", "repository.requests.finish", tracing.RequestId, requestID)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	now := time.Now()
	result := x.db.WithContext(ctx).
		Model(&entities.Request{}).
		Where("id = ? AND status = ?", requestID, entities.StatusPending).
		Updates(map[string]interface{}{
			"status":      entities.StatusFinished,
			"finished_at": now,
		})

	if result.Error != nil {
		logger.E("Failed to finish request", tracing.InnerError, result.Error)
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (x *RequestsRepository) GetStuckPending(logger *tracing.Logger, olderThan time.Time) ([]*entities.Request, error) {
	defer tracing.ProfilePoint(logger, "Requests get stuck pending completed", "repository.requests.get.stuck.pending")()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	var requests []*entities.Request
	err := x.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", entities.StatusPending, olderThan).
		Find(&requests).Error

	if err != nil {
		logger.E("Failed to get stuck pending requests", tracing.InnerError, err)
		return nil, err
	}

	return requests, nil
}
