package entities

import (
	"time"
	"musegate/sources/platform"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Status = string

const (
	StatusPending  Status = "pending"
	StatusFinished Status = "finished"
)

type TransactionType = string

const (
	TransactionTypeExpense TransactionType = "expense"
	TransactionTypeIncome  TransactionType = "income"
)

// QuotaMap holds the remaining allowance per capability key. Stored as a
// jsonb document and always written back as a whole.
type QuotaMap map[platform.Quota]int

type (
	User struct {
		ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
		UserID          int64     `gorm:"uniqueIndex;not null" json:"user_id"`
		Username        *string   `gorm:"size:255" json:"username"`
		Fullname        *string   `gorm:"size:255" json:"fullname"`
		TariffKey       string    `gorm:"size:50;not null;default:'bronze'" json:"tariff_key"`
		DailyLimits     QuotaMap  `gorm:"type:jsonb;serializer:json;not null" json:"daily_limits"`
		AdditionalQuota QuotaMap  `gorm:"type:jsonb;serializer:json;not null" json:"additional_quota"`
		LimitsResetAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"limits_reset_at"`
		IsActive        *bool     `gorm:"not null;default:true" json:"is_active"`
		CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

		Requests     []Request     `gorm:"foreignKey:UserID;references:ID" json:"requests"`
		Transactions []Transaction `gorm:"foreignKey:UserID;references:ID" json:"transactions"`
	}

	// Request is one user-initiated generation action. It fans out to one
	// or more Generations and is finished exactly once, by the reconciler.
	Request struct {
		ID                   uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
		UserID               uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
		ChatID               int64         `gorm:"not null" json:"chat_id"`
		Status               Status        `gorm:"size:20;not null;default:'pending';index" json:"status"`
		ProcessingMessageIDs pq.Int64Array `gorm:"type:bigint[];not null;default:ARRAY[]::bigint[]" json:"processing_message_ids"`
		CreatedAt            time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
		FinishedAt           *time.Time    `json:"finished_at"`

		User        User         `gorm:"foreignKey:UserID;references:ID" json:"user"`
		Generations []Generation `gorm:"foreignKey:RequestID;references:ID" json:"generations"`
	}

	// Generation is one external provider call, keyed by the provider task
	// id. Rows are never deleted: they are the audit trail of quota and
	// billing decisions.
	Generation struct {
		ID           string            `gorm:"size:128;primaryKey" json:"id"`
		RequestID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"request_id"`
		ProductID    string            `gorm:"size:100;not null" json:"product_id"`
		Quota        platform.Quota    `gorm:"size:50;not null" json:"quota"`
		Provider     string            `gorm:"size:50;not null" json:"provider"`
		Status       Status            `gorm:"size:20;not null;default:'pending';index" json:"status"`
		Result       *string           `gorm:"type:text" json:"result"`
		HasError     bool              `gorm:"not null;default:false" json:"has_error"`
		IsSuggestion bool              `gorm:"not null;default:false" json:"is_suggestion"`
		Details      GenerationDetails `gorm:"type:jsonb;serializer:json;not null" json:"details"`
		CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
		FinishedAt   *time.Time        `json:"finished_at"`

		Request Request `gorm:"foreignKey:RequestID;references:ID" json:"request"`
	}

	Transaction struct {
		ID        uuid.UUID          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
		UserID    uuid.UUID          `gorm:"type:uuid;not null;index" json:"user_id"`
		Type      TransactionType    `gorm:"size:20;not null" json:"type"`
		ProductID string             `gorm:"size:100;not null" json:"product_id"`
		Amount    decimal.Decimal    `gorm:"type:decimal(10,2);not null" json:"amount"`
		Currency  string             `gorm:"size:10;not null" json:"currency"`
		Quantity  int                `gorm:"not null" json:"quantity"`
		Details   TransactionDetails `gorm:"type:jsonb;serializer:json;not null" json:"details"`
		CreatedAt time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

		User User `gorm:"foreignKey:UserID;references:ID" json:"user"`
	}

	Tariff struct {
		ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
		Key         string    `gorm:"column:key;not null;index:idx_key_created,priority:1"`
		DisplayName string    `gorm:"column:display_name;not null"`
		ResetPeriod string    `gorm:"column:reset_period;not null;default:'daily'"`
		DailyLimits QuotaMap  `gorm:"column:daily_limits;type:jsonb;serializer:json;not null"`
		CreatedAt   time.Time `gorm:"column:created_at;default:now();index:idx_key_created,priority:2,sort:desc"`
	}
)

func (User) TableName() string        { return "mg_users" }
func (Request) TableName() string     { return "mg_requests" }
func (Generation) TableName() string  { return "mg_generations" }
func (Transaction) TableName() string { return "mg_transactions" }
func (Tariff) TableName() string      { return "mg_tariffs" }
