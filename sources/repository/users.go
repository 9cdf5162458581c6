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

var ErrUserNotFound = errors.New("user not found")

type UsersRepository struct {
	db *gorm.DB
}

func NewUsersRepository(db *gorm.DB) *UsersRepository {
	return &UsersRepository{db: db}
}

func (x *UsersRepository) CreateUser(logger *tracing.Logger, euid int64, uname *string, ufullname *string, tariffKey string, limits entities.QuotaMap, resetAt time.Time) (*entities.User, error) {
	defer tracing.ProfilePoint(logger, "Users create user completed", "repository.users.create.user", "user_id", euid)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	user := &entities.User{
		UserID:          euid,
		Username:        uname,
		Fullname:        ufullname,
		TariffKey:       tariffKey,
		DailyLimits:     limits,
		AdditionalQuota: entities.QuotaMap{},
		LimitsResetAt:   resetAt,
		IsActive:        platform.BoolPtr(true),
	}

	if err := x.db.WithContext(ctx).Create(user).Error; err != nil {
		logger.E("Failed to create user", tracing.InnerError, err)
		return nil, err
	}

	logger.I("Created user", tracing.UserTariff, tariffKey)
	return user, nil
}

func (x *UsersRepository) GetUserByEid(logger *tracing.Logger, euid int64) (*entities.User, error) {
	defer tracing.ProfilePoint(logger, "Users get user by eid completed", "repository.users.get.user.by.eid", "user_id", euid)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	var user entities.User
	err := x.db.WithContext(ctx).Where("user_id = ?", euid).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		logger.E("Failed to get user", tracing.InnerError, err)
		return nil, err
	}

	return &user, nil
}

func (x *UsersRepository) GetUserByID(logger *tracing.Logger, id uuid.UUID) (*entities.User, error) {
	defer tracing.ProfilePoint(logger, "Users get user by id completed", "repository.users.get.user.by.id")()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	var user entities.User
	err := x.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.W("User not found when expected")
			return nil, ErrUserNotFound
		}
		logger.E("Failed to get user", tracing.InnerError, err)
		return nil, err
	}

	return &user, nil
}

// UpdateQuotas writes both quota maps back in a single update. The ledger
// mutates the in-memory maps and persists them here, all at once.
func (x *UsersRepository) UpdateQuotas(logger *tracing.Logger, user *entities.User) error {
	defer tracing.ProfilePoint(logger, "Users update quotas completed", "repository.users.update.quotas")()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	err := x.db.WithContext(ctx).
		Model(&entities.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"daily_limits":     user.DailyLimits,
			"additional_quota": user.AdditionalQuota,
		}).Error

	if err != nil {
		logger.E("Failed to update user quotas", tracing.InnerError, err)
		return err
	}

	return nil
}

func (x *UsersRepository) AssignTariff(logger *tracing.Logger, user *entities.User, tariffKey string, limits entities.QuotaMap, resetAt time.Time) error {
	defer tracing.ProfilePoint(logger, "Users assign tariff completed", "repository.users.assign.tariff", tracing.UserTariff, tariffKey)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	err := x.db.WithContext(ctx).
		Model(&entities.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"tariff_key":      tariffKey,
			"daily_limits":    limits,
			"limits_reset_at": resetAt,
		}).Error

	if err != nil {
		logger.E("Failed to assign tariff", tracing.InnerError, err)
		return err
	}

	user.TariffKey = tariffKey
	user.DailyLimits = limits
	user.LimitsResetAt = resetAt
	return nil
}

func (x *UsersRepository) GetUsersDueForReset(logger *tracing.Logger, now time.Time) ([]*entities.User, error) {
	defer tracing.ProfilePoint(logger, "Users get due for reset completed", "repository.users.get.due.for.reset")()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	var users []*entities.User
	err := x.db.WithContext(ctx).Where("limits_reset_at <= ?", now).Find(&users).Error
	if err != nil {
		logger.E("Failed to get users due for reset", tracing.InnerError, err)
		return nil, err
	}

	return users, nil
}

func (x *UsersRepository) ResetDailyLimits(logger *tracing.Logger, user *entities.User, limits entities.QuotaMap, nextReset time.Time) error {
	defer tracing.ProfilePoint(logger, "Users reset daily limits completed", "repository.users.reset.daily.limits")()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	err := x.db.WithContext(ctx).
		Model(&entities.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"daily_limits":    limits,
			"limits_reset_at": nextReset,
		}).Error

	if err != nil {
		logger.E("Failed to reset daily limits", tracing.InnerError, err)
		return err
	}

	user.DailyLimits = limits
	user.LimitsResetAt = nextReset
	logger.I("Daily limits reset", tracing.UserTariff, user.TariffKey, "next_reset", nextReset)
	return nil
}
