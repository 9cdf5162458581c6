package reconciler

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"musegate/sources/configuration"
	"musegate/sources/metrics"
	"musegate/sources/persistence/entities"
	"musegate/sources/platform"
	"musegate/sources/providers"
	"musegate/sources/repository"
	"musegate/sources/tracing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeGenerations struct {
	byTask map[string]*entities.Generation
}

func (f *fakeGenerations) GetByTaskID(_ *tracing.Logger, taskID string) (*entities.Generation, error) {
	generation, ok := f.byTask[taskID]
	if !ok {
		return nil, repository.ErrGenerationNotFound
	}
	copied := *generation
	return &copied, nil
}

func (f *fakeGenerations) FinishGeneration(_ *tracing.Logger, taskID string, result *string, hasError bool) (bool, error) {
	generation, ok := f.byTask[taskID]
	if !ok || generation.Status != entities.StatusPending {
		return false, nil
	}
	now := time.Now()
	generation.Status = entities.StatusFinished
	generation.Result = result
	generation.HasError = hasError
	generation.FinishedAt = &now
	return true, nil
}

func (f *fakeGenerations) GetPendingByRequest(_ *tracing.Logger, requestID uuid.UUID) ([]*entities.Generation, error) {
	var pending []*entities.Generation
	for _, generation := range f.byTask {
		if generation.RequestID == requestID && generation.Status == entities.StatusPending {
			pending = append(pending, generation)
		}
	}
	return pending, nil
}

type fakeRequests struct {
	byID map[uuid.UUID]*entities.Request
}

func (f *fakeRequests) GetByID(_ *tracing.Logger, id uuid.UUID) (*entities.Request, error) {
	request, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrRequestNotFound
	}
	copied := *request
	return &copied, nil
}

func (f *fakeRequests) FinishRequest(_ *tracing.Logger, requestID uuid.UUID) (bool, error) {
	request, ok := f.byID[requestID]
	if !ok || request.Status != entities.StatusPending {
		return false, nil
	}
	request.Status = entities.StatusFinished
	return true, nil
}

type fakeUsers struct {
	user *entities.User
}

func (f *fakeUsers) GetUserByID(_ *tracing.Logger, _ uuid.UUID) (*entities.User, error) {
	return f.user, nil
}

type expenseRecord struct {
	amount   decimal.Decimal
	quantity int
	details  entities.TransactionDetails
}

type fakeExpenses struct {
	records []expenseRecord
}

func (f *fakeExpenses) CreateExpense(_ *tracing.Logger, _ uuid.UUID, _ string, amount decimal.Decimal, _ string, quantity int, details entities.TransactionDetails) error {
	f.records = append(f.records, expenseRecord{amount: amount, quantity: quantity, details: details})
	return nil
}

type debitRecord struct {
	quota platform.Quota
	units int
}

type fakeLedger struct {
	debits []debitRecord
}

func (f *fakeLedger) Debit(_ *tracing.Logger, _ *entities.User, quota platform.Quota, units int) error {
	f.debits = append(f.debits, debitRecord{quota: quota, units: units})
	return nil
}

type fakeNotifier struct {
	results    []string
	failures   []string
	alerts     []string
	violations int
	cleanups   int
}

func (f *fakeNotifier) DeliverResult(_ *tracing.Logger, _ int64, _ platform.Quota, result string) error {
	f.results = append(f.results, result)
	return nil
}

func (f *fakeNotifier) DeliverFailure(_ *tracing.Logger, _ int64, message string, contentViolation bool) error {
	f.failures = append(f.failures, message)
	if contentViolation {
		f.violations++
	}
	return nil
}

func (f *fakeNotifier) CleanupMessages(_ *tracing.Logger, _ int64, _ []int64) {
	f.cleanups++
}

func (f *fakeNotifier) NotifyMaintainers(_ *tracing.Logger, text string) {
	f.alerts = append(f.alerts, text)
}

type harness struct {
	reconciler  *Reconciler
	generations *fakeGenerations
	requests    *fakeRequests
	expenses    *fakeExpenses
	ledger      *fakeLedger
	notifier    *fakeNotifier
	request     *entities.Request
	user        *entities.User
}

func newHarness() *harness {
	user := &entities.User{
		ID:              uuid.New(),
		UserID:          100500,
		TariffKey:       string(platform.TariffSilver),
		DailyLimits:     entities.QuotaMap{platform.QuotaMidjourney: 10, platform.QuotaDallE: 10},
		AdditionalQuota: entities.QuotaMap{},
	}
	request := &entities.Request{
		ID:                   uuid.New(),
		UserID:               user.ID,
		ChatID:               42,
		Status:               entities.StatusPending,
		ProcessingMessageIDs: []int64{7},
	}

	generations := &fakeGenerations{byTask: map[string]*entities.Generation{}}
	requests := &fakeRequests{byID: map[uuid.UUID]*entities.Request{request.ID: request}}
	expenses := &fakeExpenses{}
	ledger := &fakeLedger{}
	notifier := &fakeNotifier{}

	log := tracing.NewConsoleLogger()
	reconciler := NewReconciler(generations, requests, &fakeUsers{user: user}, expenses, ledger, notifier, metrics.NewMetricsService(log))

	return &harness{
		reconciler:  reconciler,
		generations: generations,
		requests:    requests,
		expenses:    expenses,
		ledger:      ledger,
		notifier:    notifier,
		request:     request,
		user:        user,
	}
}

func (h *harness) addGeneration(taskID string, quota platform.Quota, costUnits int, isSuggestion bool) {
	h.generations.byTask[taskID] = &entities.Generation{
		ID:           taskID,
		RequestID:    h.request.ID,
		ProductID:    "image_advanced",
		Quota:        quota,
		Provider:     "midjourney",
		Status:       entities.StatusPending,
		IsSuggestion: isSuggestion,
		Details:      entities.GenerationDetails{Prompt: "a fox in the rain", CostUnits: costUnits},
		CreatedAt:    time.Now(),
	}
}

func TestReconcileSuccessRunsSideEffectsOnce(t *testing.T) {
	h := newHarness()
	h.addGeneration("mj-1", platform.QuotaMidjourney, 2, false)
	log := tracing.NewConsoleLogger()

	outcome := &providers.Outcome{TaskID: "mj-1", Success: true, Result: "https://cdn/img.png"}
	if err := h.reconciler.Reconcile(log, "midjourney", outcome); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := h.reconciler.Reconcile(log, "midjourney", outcome); err != nil {
		t.Fatalf("duplicate delivery: %v", err)
	}

	if len(h.ledger.debits) != 1 {
		t.Fatalf("expected exactly one debit, got %d", len(h.ledger.debits))
	}
	if h.ledger.debits[0].units != 2 || h.ledger.debits[0].quota != platform.QuotaMidjourney {
		t.Errorf("unexpected debit: %+v", h.ledger.debits[0])
	}
	if len(h.expenses.records) != 1 {
		t.Fatalf("expected exactly one expense, got %d", len(h.expenses.records))
	}
	if h.expenses.records[0].quantity != 2 {
		t.Errorf("expense quantity = %d, want 2", h.expenses.records[0].quantity)
	}
	if len(h.notifier.results) != 1 {
		t.Fatalf("expected exactly one result delivery, got %d", len(h.notifier.results))
	}
	if h.generations.byTask["mj-1"].Status != entities.StatusFinished {
		t.Error("generation not finished")
	}
	if h.requests.byID[h.request.ID].Status != entities.StatusFinished {
		t.Error("request not finished")
	}
	if h.notifier.cleanups != 1 {
		t.Errorf("placeholder cleanup ran %d times, want 1", h.notifier.cleanups)
	}
}

func TestReconcileIntermediateIsNoop(t *testing.T) {
	h := newHarness()
	h.addGeneration("mj-1", platform.QuotaMidjourney, 1, false)
	log := tracing.NewConsoleLogger()

	outcome := &providers.Outcome{TaskID: "mj-1", Intermediate: true}
	if err := h.reconciler.Reconcile(log, "midjourney", outcome); err != nil {
		t.Fatalf("intermediate delivery: %v", err)
	}

	if h.generations.byTask["mj-1"].Status != entities.StatusPending {
		t.Error("intermediate delivery finished the generation")
	}
	if len(h.expenses.records) != 0 || len(h.ledger.debits) != 0 || len(h.notifier.results) != 0 {
		t.Error("intermediate delivery ran side effects")
	}
}

func TestReconcileUnknownTaskIsNoop(t *testing.T) {
	h := newHarness()
	log := tracing.NewConsoleLogger()

	outcome := &providers.Outcome{TaskID: "never-seen", Success: true, Result: "x"}
	if err := h.reconciler.Reconcile(log, "midjourney", outcome); err != nil {
		t.Fatalf("unknown task delivery: %v", err)
	}

	if len(h.expenses.records) != 0 || len(h.notifier.results) != 0 {
		t.Error("unknown task delivery ran side effects")
	}
}

func TestReconcileFailureDoesNotCharge(t *testing.T) {
	h := newHarness()
	h.addGeneration("mj-1", platform.QuotaMidjourney, 3, false)
	log := tracing.NewConsoleLogger()

	outcome := &providers.Outcome{TaskID: "mj-1", ErrorMessage: "upstream exploded"}
	if err := h.reconciler.Reconcile(log, "midjourney", outcome); err != nil {
		t.Fatalf("failure delivery: %v", err)
	}

	if len(h.ledger.debits) != 0 {
		t.Error("failed generation was charged")
	}
	if len(h.expenses.records) != 1 {
		t.Fatalf("expected audit expense, got %d records", len(h.expenses.records))
	}
	if h.expenses.records[0].quantity != 0 {
		t.Errorf("audit expense quantity = %d, want 0", h.expenses.records[0].quantity)
	}
	if !h.expenses.records[0].amount.IsZero() {
		t.Errorf("audit expense amount = %s, want 0", h.expenses.records[0].amount)
	}
	if len(h.notifier.failures) != 1 {
		t.Fatalf("expected one failure notice, got %d", len(h.notifier.failures))
	}

	if h.generations.byTask["mj-1"].Result != nil {
		t.Errorf("failed generation stored result %q, want none", *h.generations.byTask["mj-1"].Result)
	}
	details := h.expenses.records[0].details
	if details.Error == nil || *details.Error != "upstream exploded" {
		t.Errorf("expense details error = %v, want the provider message", details.Error)
	}
}

func TestReconcileFailureAlertsMaintainers(t *testing.T) {
	h := newHarness()
	h.addGeneration("mj-1", platform.QuotaMidjourney, 1, false)
	log := tracing.NewConsoleLogger()

	outcome := &providers.Outcome{TaskID: "mj-1", ErrorMessage: "upstream exploded"}
	if err := h.reconciler.Reconcile(log, "midjourney", outcome); err != nil {
		t.Fatalf("failure delivery: %v", err)
	}

	if len(h.notifier.alerts) != 1 {
		t.Fatalf("maintainer alerts = %d, want 1", len(h.notifier.alerts))
	}
	if !strings.Contains(h.notifier.alerts[0], "upstream exploded") {
		t.Errorf("alert %q does not carry the raw error", h.notifier.alerts[0])
	}
	if !strings.Contains(h.notifier.alerts[0], "mj-1") {
		t.Errorf("alert %q does not name the task", h.notifier.alerts[0])
	}
}

func TestReconcileContentViolation(t *testing.T) {
	h := newHarness()
	h.addGeneration("mj-1", platform.QuotaMidjourney, 1, false)
	log := tracing.NewConsoleLogger()

	outcome := &providers.Outcome{TaskID: "mj-1", ErrorMessage: "banned prompt", ContentViolation: true}
	if err := h.reconciler.Reconcile(log, "midjourney", outcome); err != nil {
		t.Fatalf("violation delivery: %v", err)
	}

	if h.notifier.violations != 1 {
		t.Errorf("violations flagged = %d, want 1", h.notifier.violations)
	}
	if len(h.ledger.debits) != 0 {
		t.Error("violation was charged")
	}
	if len(h.notifier.alerts) != 0 {
		t.Error("content violation paged the maintainers")
	}
}

func TestReconcileSuggestionSettlesFree(t *testing.T) {
	h := newHarness()
	h.addGeneration("mj-1", platform.QuotaMidjourney, 2, true)
	log := tracing.NewConsoleLogger()

	outcome := &providers.Outcome{TaskID: "mj-1", Success: true, Result: "https://cdn/suggested.png"}
	if err := h.reconciler.Reconcile(log, "midjourney", outcome); err != nil {
		t.Fatalf("suggestion delivery: %v", err)
	}

	if len(h.ledger.debits) != 0 {
		t.Error("suggestion was charged")
	}
	if len(h.expenses.records) != 1 || h.expenses.records[0].quantity != 0 {
		t.Errorf("suggestion expense = %+v, want one record at quantity 0", h.expenses.records)
	}
	if len(h.notifier.results) != 1 {
		t.Errorf("suggestion result deliveries = %d, want 1", len(h.notifier.results))
	}
}

func TestRequestStaysOpenUntilLastGeneration(t *testing.T) {
	h := newHarness()
	h.addGeneration("mj-1", platform.QuotaMidjourney, 1, false)
	h.addGeneration("dalle-1", platform.QuotaDallE, 1, false)
	log := tracing.NewConsoleLogger()

	first := &providers.Outcome{TaskID: "mj-1", Success: true, Result: "a"}
	if err := h.reconciler.Reconcile(log, "midjourney", first); err != nil {
		t.Fatalf("first generation: %v", err)
	}
	if h.requests.byID[h.request.ID].Status != entities.StatusPending {
		t.Fatal("request finished with a sibling still pending")
	}
	if h.notifier.cleanups != 0 {
		t.Fatal("placeholders removed with a sibling still pending")
	}

	second := &providers.Outcome{TaskID: "dalle-1", Success: true, Result: "b"}
	if err := h.reconciler.Reconcile(log, "dalle", second); err != nil {
		t.Fatalf("second generation: %v", err)
	}
	if h.requests.byID[h.request.ID].Status != entities.StatusFinished {
		t.Error("request not finished after the last generation")
	}
	if h.notifier.cleanups != 1 {
		t.Errorf("placeholder cleanup ran %d times, want 1", h.notifier.cleanups)
	}
}

func TestExpireRequest(t *testing.T) {
	h := newHarness()
	h.addGeneration("mj-1", platform.QuotaMidjourney, 2, false)
	log := tracing.NewConsoleLogger()

	h.reconciler.ExpireRequest(log, h.request)

	if h.generations.byTask["mj-1"].Status != entities.StatusFinished {
		t.Error("stuck generation not expired")
	}
	if !h.generations.byTask["mj-1"].HasError {
		t.Error("expired generation not marked failed")
	}
	if h.requests.byID[h.request.ID].Status != entities.StatusFinished {
		t.Error("stuck request not finished")
	}
	if len(h.ledger.debits) != 0 {
		t.Error("expired generation was charged")
	}
	if len(h.notifier.failures) != 1 {
		t.Errorf("expiry notices = %d, want 1", len(h.notifier.failures))
	}
	if h.notifier.cleanups != 1 {
		t.Errorf("placeholder cleanup ran %d times, want 1", h.notifier.cleanups)
	}
}

func TestCompletionQueueDrainsOnStop(t *testing.T) {
	log := tracing.NewConsoleLogger()
	config := &configuration.Config{}
	config.Reconciler.Workers = 2
	config.Reconciler.QueueSize = 16

	queue := NewCompletionQueue(log, config)

	var mu sync.Mutex
	seen := map[string]int{}
	queue.Bind(func(_ *tracing.Logger, _ string, outcome *providers.Outcome) error {
		mu.Lock()
		seen[outcome.TaskID]++
		mu.Unlock()
		return nil
	})
	queue.Start()

	for i := 0; i < 10; i++ {
		if !queue.Enqueue("midjourney", &providers.Outcome{TaskID: "task", Success: true}) {
			t.Fatalf("enqueue %d rejected below capacity", i)
		}
	}
	queue.Stop()

	if seen["task"] != 10 {
		t.Errorf("processed %d deliveries, want 10", seen["task"])
	}
}

func TestCompletionQueueRetriesStorageFailures(t *testing.T) {
	log := tracing.NewConsoleLogger()
	config := &configuration.Config{}
	config.Reconciler.Workers = 1
	config.Reconciler.QueueSize = 4

	queue := NewCompletionQueue(log, config)
	queue.backoff = time.Millisecond

	var mu sync.Mutex
	calls := 0
	queue.Bind(func(_ *tracing.Logger, _ string, _ *providers.Outcome) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls < 3 {
			return errors.New("store unavailable")
		}
		return nil
	})
	queue.Start()

	queue.Enqueue("kling", &providers.Outcome{TaskID: "k-1", Success: true})
	queue.Stop()

	if calls != 3 {
		t.Errorf("runner invoked %d times, want 3 (two retries then success)", calls)
	}
}

func TestCompletionQueueDropsAfterBoundedRetries(t *testing.T) {
	log := tracing.NewConsoleLogger()
	config := &configuration.Config{}
	config.Reconciler.Workers = 1
	config.Reconciler.QueueSize = 4

	queue := NewCompletionQueue(log, config)
	queue.backoff = time.Millisecond

	var mu sync.Mutex
	calls := 0
	queue.Bind(func(_ *tracing.Logger, _ string, _ *providers.Outcome) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return errors.New("store unavailable")
	})
	queue.Start()

	queue.Enqueue("kling", &providers.Outcome{TaskID: "k-1", Success: true})
	queue.Stop()

	if calls != maxDeliveryAttempts {
		t.Errorf("runner invoked %d times, want %d", calls, maxDeliveryAttempts)
	}
}
