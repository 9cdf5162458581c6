package reconciler

import (
	"errors"
	"fmt"
	"time"
	"musegate/sources/billing"
	"musegate/sources/metrics"
	"musegate/sources/persistence/entities"
	"musegate/sources/platform"
	"musegate/sources/providers"
	"musegate/sources/repository"
	"musegate/sources/texting/transform"
	"musegate/sources/tracing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type GenerationStore interface {
	GetByTaskID(logger *tracing.Logger, taskID string) (*entities.Generation, error)
	FinishGeneration(logger *tracing.Logger, taskID string, result *string, hasError bool) (bool, error)
	GetPendingByRequest(logger *tracing.Logger, requestID uuid.UUID) ([]*entities.Generation, error)
}

type RequestStore interface {
	GetByID(logger *tracing.Logger, id uuid.UUID) (*entities.Request, error)
	FinishRequest(logger *tracing.Logger, requestID uuid.UUID) (bool, error)
}

type UserStore interface {
	GetUserByID(logger *tracing.Logger, id uuid.UUID) (*entities.User, error)
}

type ExpenseStore interface {
	CreateExpense(logger *tracing.Logger, userID uuid.UUID, productID string, amount decimal.Decimal, currency string, quantity int, details entities.TransactionDetails) error
}

type QuotaDebiter interface {
	Debit(log *tracing.Logger, user *entities.User, quota platform.Quota, units int) error
}

// Notifier delivers reconciliation outcomes back to the chat. Satisfied by
// telegram.Courier.
type Notifier interface {
	DeliverResult(log *tracing.Logger, chatID int64, quota platform.Quota, result string) error
	DeliverFailure(log *tracing.Logger, chatID int64, message string, contentViolation bool) error
	CleanupMessages(log *tracing.Logger, chatID int64, messageIDs []int64)
	NotifyMaintainers(log *tracing.Logger, text string)
}

// Reconciler drives every generation to exactly one terminal state and runs
// the completion side effects (billing, notification, request closure) at
// most once per task, no matter how many times the provider delivers.
type Reconciler struct {
	generations GenerationStore
	requests    RequestStore
	users       UserStore
	expenses    ExpenseStore
	ledger      QuotaDebiter
	notifier    Notifier
	metrics     *metrics.MetricsService
}

func NewReconciler(
	generations GenerationStore,
	requests RequestStore,
	users UserStore,
	expenses ExpenseStore,
	ledger QuotaDebiter,
	notifier Notifier,
	metricsService *metrics.MetricsService,
) *Reconciler {
	return &Reconciler{
		generations: generations,
		requests:    requests,
		users:       users,
		expenses:    expenses,
		ledger:      ledger,
		notifier:    notifier,
		metrics:     metricsService,
	}
}

// Reconcile applies one provider delivery. Intermediate, unknown and
// duplicate deliveries are acknowledged no-ops; only the caller that wins
// the pending-to-finished transition runs the side effects. An error is
// returned only for storage failures, where the provider should redeliver.
func (x *Reconciler) Reconcile(log *tracing.Logger, provider string, outcome *providers.Outcome) error {
	if outcome.Intermediate {
		log.D("Intermediate delivery ignored", tracing.Provider, provider, tracing.TaskId, outcome.TaskID)
		x.metrics.RecordWebhookIgnored("intermediate")
		return nil
	}

	generation, err := x.generations.GetByTaskID(log, outcome.TaskID)
	if err != nil {
		if errors.Is(err, repository.ErrGenerationNotFound) {
			log.W("Delivery for unknown task ignored", tracing.Provider, provider, tracing.TaskId, outcome.TaskID)
			x.metrics.RecordWebhookIgnored("unknown_task")
			return nil
		}
		return err
	}

	result, hasError := terminalState(outcome)
	won, err := x.generations.FinishGeneration(log, outcome.TaskID, result, hasError)
	if err != nil {
		return err
	}
	if !won {
		log.D("Duplicate delivery ignored", tracing.Provider, provider, tracing.TaskId, outcome.TaskID)
		x.metrics.RecordWebhookIgnored("duplicate")
		return nil
	}

	x.metrics.RecordGenerationFinished(generation.Provider, outcomeKind(outcome))
	x.metrics.RecordGenerationDuration(generation.Provider, time.Since(generation.CreatedAt))
	log.I("Generation reconciled",
		tracing.TaskId, generation.ID,
		tracing.Provider, generation.Provider,
		tracing.OutcomeKind, outcomeKind(outcome))

	request, err := x.requests.GetByID(log, generation.RequestID)
	if err != nil {
		log.E("Request lookup failed after completion", tracing.InnerError, err, tracing.TaskId, generation.ID)
		return nil
	}

	x.settle(log, request, generation, outcome)
	x.notify(log, request, generation, outcome)
	x.closeRequest(log, request)
	return nil
}

// settle debits quota and writes the expense record. Failed generations and
// suggestions settle at quantity zero: the transaction row still lands for
// the audit trail, but nothing is charged.
func (x *Reconciler) settle(log *tracing.Logger, request *entities.Request, generation *entities.Generation, outcome *providers.Outcome) {
	user, err := x.users.GetUserByID(log, request.UserID)
	if err != nil {
		log.E("User lookup failed, settlement skipped", tracing.InnerError, err, tracing.TaskId, generation.ID)
		x.alert(log, generation, "settlement skipped, user lookup failed", err.Error())
		return
	}

	quantity := 0
	if outcome.Success && !generation.IsSuggestion {
		quantity = generation.Details.CostUnits
	}

	if quantity > 0 {
		if err := x.ledger.Debit(log, user, generation.Quota, quantity); err != nil {
			log.E("Quota debit failed", tracing.InnerError, err, tracing.TaskId, generation.ID)
			x.alert(log, generation, "quota debit failed", err.Error())
		} else {
			x.metrics.RecordQuotaDebit(string(billing.ClassOf(generation.Quota)), quantity)
		}
	}

	details := entities.TransactionDetails{
		Prompt:   generation.Details.Prompt,
		HasError: !outcome.Success,
		TaskID:   generation.ID,
	}
	if outcome.Success {
		details.Result = &outcome.Result
	} else if outcome.ErrorMessage != "" {
		details.Error = platform.StringPtr(outcome.ErrorMessage)
	}

	amount := billing.PriceOf(generation.Quota).Mul(decimal.NewFromInt(int64(quantity)))
	err = x.expenses.CreateExpense(log, user.ID, generation.ProductID, amount, billing.Currency, quantity, details)
	if err != nil {
		log.E("Failed to record expense", tracing.InnerError, err, tracing.TaskId, generation.ID)
		x.alert(log, generation, "expense write failed", err.Error())
		return
	}
	x.metrics.RecordTransaction(entities.TransactionTypeExpense)
}

func (x *Reconciler) notify(log *tracing.Logger, request *entities.Request, generation *entities.Generation, outcome *providers.Outcome) {
	var err error
	switch {
	case outcome.Success:
		err = x.notifier.DeliverResult(log, request.ChatID, generation.Quota, outcome.Result)
	case generation.IsSuggestion:
		// Suggestions are unsolicited: a failed one dies silently.
		return
	default:
		// Content violations are user-caused and stay between the user and
		// the bot; everything else is an operational problem.
		if !outcome.ContentViolation {
			x.alert(log, generation, "provider failure", outcome.ErrorMessage)
		}
		err = x.notifier.DeliverFailure(log, request.ChatID, outcome.ErrorMessage, outcome.ContentViolation)
	}

	if err != nil {
		log.E("Failed to deliver outcome", tracing.InnerError, err, tracing.ChatId, request.ChatID)
		x.metrics.RecordNotification("failed")
		return
	}
	x.metrics.RecordNotification("sent")
}

const alertPayloadLimit = 512

func (x *Reconciler) alert(log *tracing.Logger, generation *entities.Generation, reason, payload string) {
	x.notifier.NotifyMaintainers(log, fmt.Sprintf(
		"[%s] %s, task %s: %s",
		generation.Provider, reason, generation.ID, transform.Truncate(payload, alertPayloadLimit)))
}

// closeRequest finishes the request once its last generation lands and
// removes the processing placeholders from the chat. The status guard on
// FinishRequest keeps concurrent last-generation races harmless.
func (x *Reconciler) closeRequest(log *tracing.Logger, request *entities.Request) {
	pending, err := x.generations.GetPendingByRequest(log, request.ID)
	if err != nil {
		log.E("Pending check failed, request left open", tracing.InnerError, err, tracing.RequestId, request.ID)
		return
	}
	if len(pending) > 0 {
		return
	}

	won, err := x.requests.FinishRequest(log, request.ID)
	if err != nil || !won {
		return
	}

	x.notifier.CleanupMessages(log, request.ChatID, request.ProcessingMessageIDs)
	log.I("Request finished", tracing.RequestId, request.ID)
}

// ExpireRequest force-finishes a request whose generations never completed.
// Quota is not charged for expired generations.
func (x *Reconciler) ExpireRequest(log *tracing.Logger, request *entities.Request) {
	pending, err := x.generations.GetPendingByRequest(log, request.ID)
	if err != nil {
		log.E("Pending check failed, expiry skipped", tracing.InnerError, err, tracing.RequestId, request.ID)
		return
	}

	for _, generation := range pending {
		won, err := x.generations.FinishGeneration(log, generation.ID, nil, true)
		if err != nil {
			log.E("Failed to expire generation", tracing.InnerError, err, tracing.TaskId, generation.ID)
			continue
		}
		if won {
			x.metrics.RecordGenerationFinished(generation.Provider, "expired")
		}
	}

	won, err := x.requests.FinishRequest(log, request.ID)
	if err != nil || !won {
		return
	}

	x.notifier.CleanupMessages(log, request.ChatID, request.ProcessingMessageIDs)
	if err := x.notifier.DeliverFailure(log, request.ChatID, "the generation took too long and was cancelled", false); err != nil {
		log.E("Failed to deliver expiry notice", tracing.InnerError, err, tracing.ChatId, request.ChatID)
	}
	x.metrics.RecordRequestSwept()
	log.W("Stale request expired", tracing.RequestId, request.ID)
}

// terminalState maps an outcome onto the generation row: the asset reference
// on success, no result on failure. Error text travels through the expense
// record and the failure notice instead.
func terminalState(outcome *providers.Outcome) (*string, bool) {
	if outcome.Success {
		return &outcome.Result, false
	}
	return nil, true
}

func outcomeKind(outcome *providers.Outcome) string {
	switch {
	case outcome.Success:
		return "success"
	case outcome.ContentViolation:
		return "violation"
	default:
		return "failure"
	}
}
