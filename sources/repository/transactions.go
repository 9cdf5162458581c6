package repository

import (
	"context"
	"time"
	"musegate/sources/persistence/entities"
	"musegate/sources/platform"
	"musegate/sources/tracing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionsRepository struct {
	db *gorm.DB
}

func NewTransactionsRepository(db *gorm.DB) *TransactionsRepository {
	return &TransactionsRepository{db: db}
}

func (x *TransactionsRepository) CreateExpense(logger *tracing.Logger, userID uuid.UUID, productID string, amount decimal.Decimal, currency string, quantity int, details entities.TransactionDetails) error {
	defer tracing.ProfilePoint(logger, "Transactions create expense completed", "repository.transactions.create.expense", tracing.ProductId, productID)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	transaction := &entities.Transaction{
		UserID:    userID,
		Type:      entities.TransactionTypeExpense,
		ProductID: productID,
		Amount:    amount,
		Currency:  currency,
		Quantity:  quantity,
		Details:   details,
	}

	if err := x.db.WithContext(ctx).Create(transaction).Error; err != nil {
		logger.E("Failed to create expense transaction", tracing.InnerError, err)
		return err
	}

	logger.I("Expense transaction saved", tracing.ProductId, productID, "quantity", quantity, "amount", amount)
	return nil
}

func (x *TransactionsRepository) GetUserExpenses(logger *tracing.Logger, userID uuid.UUID, since time.Time) ([]*entities.Transaction, error) {
	defer tracing.ProfilePoint(logger, "Transactions get user expenses completed", "repository.transactions.get.user.expenses")()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	var transactions []*entities.Transaction
	err := x.db.WithContext(ctx).
		Where("user_id = ? AND type = ? AND created_at >= ?", userID, entities.TransactionTypeExpense, since).
		Order("created_at DESC").
		Find(&transactions).Error

	if err != nil {
		logger.E("Failed to get user expenses", tracing.InnerError, err)
		return nil, err
	}

	return transactions, nil
}
