package metrics

import (
	"time"
	"musegate/sources/tracing"

	"github.com/prometheus/client_golang/prometheus"
)

type MetricsService struct {
	log *tracing.Logger
}

var (
	webhooksReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musegate_webhooks_received_total",
			Help: "Total number of webhook deliveries received",
		},
		[]string{"provider"},
	)

	webhooksIgnored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musegate_webhooks_ignored_total",
			Help: "Total number of webhook deliveries ignored",
		},
		[]string{"reason"},
	)

	generationsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musegate_generations_finished_total",
			Help: "Total number of generations reconciled to a terminal state",
		},
		[]string{"provider", "outcome"},
	)

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musegate_submissions_total",
			Help: "Total number of provider job submissions",
		},
		[]string{"provider", "status"},
	)

	quotaDebits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musegate_quota_units_debited_total",
			Help: "Total quota units debited",
		},
		[]string{"class"},
	)

	transactionsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musegate_transactions_total",
			Help: "Total number of billing transactions written",
		},
		[]string{"type"},
	)

	notificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musegate_notifications_total",
			Help: "Total number of result notifications sent",
		},
		[]string{"status"},
	)

	commandsUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musegate_commands_used_total",
			Help: "Total number of commands used",
		},
		[]string{"command"},
	)

	admissionsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musegate_admissions_rejected_total",
			Help: "Total number of requests rejected by the admission check",
		},
		[]string{"reason"},
	)

	generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "musegate_generation_duration_seconds",
			Help:    "Time from submission to reconciled completion",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"provider"},
	)

	requestsSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "musegate_requests_swept_total",
			Help: "Total number of stale pending requests closed by the sweeper",
		},
	)
)

func init() {
	prometheus.MustRegister(webhooksReceived)
	prometheus.MustRegister(webhooksIgnored)
	prometheus.MustRegister(generationsFinished)
	prometheus.MustRegister(submissions)
	prometheus.MustRegister(quotaDebits)
	prometheus.MustRegister(transactionsWritten)
	prometheus.MustRegister(notificationsSent)
	prometheus.MustRegister(commandsUsed)
	prometheus.MustRegister(admissionsRejected)
	prometheus.MustRegister(generationDuration)
	prometheus.MustRegister(requestsSwept)
}

func NewMetricsService(log *tracing.Logger) *MetricsService {
	return &MetricsService{log: log}
}

func (s *MetricsService) RecordWebhookReceived(provider string) {
	webhooksReceived.WithLabelValues(provider).Inc()
}

func (s *MetricsService) RecordWebhookIgnored(reason string) {
	webhooksIgnored.WithLabelValues(reason).Inc()
}

func (s *MetricsService) RecordGenerationFinished(provider, outcome string) {
	generationsFinished.WithLabelValues(provider, outcome).Inc()
}

func (s *MetricsService) RecordSubmission(provider, status string) {
	submissions.WithLabelValues(provider, status).Inc()
}

func (s *MetricsService) RecordQuotaDebit(class string, units int) {
	quotaDebits.WithLabelValues(class).Add(float64(units))
}

func (s *MetricsService) RecordTransaction(transactionType string) {
	transactionsWritten.WithLabelValues(transactionType).Inc()
}

func (s *MetricsService) RecordNotification(status string) {
	notificationsSent.WithLabelValues(status).Inc()
}

func (s *MetricsService) RecordCommandUsed(command string) {
	commandsUsed.WithLabelValues(command).Inc()
}

func (s *MetricsService) RecordAdmissionRejected(reason string) {
	admissionsRejected.WithLabelValues(reason).Inc()
}

func (s *MetricsService) RecordGenerationDuration(provider string, elapsed time.Duration) {
	generationDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (s *MetricsService) RecordRequestSwept() {
	requestsSwept.Inc()
}
