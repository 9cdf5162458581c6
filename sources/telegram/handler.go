package telegram

import (
	"errors"
	"time"
	"musegate/sources/billing"
	"musegate/sources/configuration"
	"musegate/sources/features"
	"musegate/sources/metrics"
	"musegate/sources/persistence/entities"
	"musegate/sources/platform"
	"musegate/sources/providers"
	"musegate/sources/reconciler"
	"musegate/sources/repository"
	"musegate/sources/throttler"
	"musegate/sources/tracing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Handler struct {
	courier      *Courier
	users        *repository.UsersRepository
	tariffs      *repository.TariffsRepository
	requests     *repository.RequestsRepository
	generations  *repository.GenerationsRepository
	transactions *repository.TransactionsRepository
	registry     *providers.Registry
	balancer     *providers.ImageBalancer
	ledger       *billing.Ledger
	estimator    *billing.CostEstimator
	throttler    *throttler.Throttler
	features     *features.FeatureManager
	reconciler   *reconciler.Reconciler
	config       *configuration.Config
	metrics      *metrics.MetricsService
}

func NewHandler(
	courier *Courier,
	users *repository.UsersRepository,
	tariffs *repository.TariffsRepository,
	requests *repository.RequestsRepository,
	generations *repository.GenerationsRepository,
	transactions *repository.TransactionsRepository,
	registry *providers.Registry,
	balancer *providers.ImageBalancer,
	ledger *billing.Ledger,
	estimator *billing.CostEstimator,
	throttler *throttler.Throttler,
	fm *features.FeatureManager,
	rec *reconciler.Reconciler,
	config *configuration.Config,
	metricsService *metrics.MetricsService,
) *Handler {
	return &Handler{
		courier:      courier,
		users:        users,
		tariffs:      tariffs,
		requests:     requests,
		generations:  generations,
		transactions: transactions,
		registry:     registry,
		balancer:     balancer,
		ledger:       ledger,
		estimator:    estimator,
		throttler:    throttler,
		features:     fm,
		reconciler:   rec,
		config:       config,
		metrics:      metricsService,
	}
}

func (x *Handler) HandleMessage(log *tracing.Logger, msg *tgbotapi.Message) error {
	defer tracing.ProfilePoint(log, "Handler message completed", "telegram.handler.message")()

	user, err := x.user(log, msg)
	if err != nil {
		log.E("Error getting or creating user", tracing.InnerError, err)
		return err
	}

	if !platform.BoolValue(user.IsActive, true) {
		x.courier.Reply(log, msg, "Your account is disabled. Contact support if you believe this is a mistake.")
		return nil
	}

	if !msg.IsCommand() {
		if msg.Chat.IsPrivate() && msg.Text != "" {
			x.HandleChatCommand(log.With(tracing.CommandIssued, "chat/direct"), user, msg, msg.Text)
		}
		return nil
	}

	log = log.With(tracing.CommandIssued, msg.Command())
	x.metrics.RecordCommandUsed(msg.Command())

	switch msg.Command() {
	case "start":
		x.HandleStartCommand(log, user, msg)
	case "help":
		x.HandleHelpCommand(log, user, msg)
	case "chat":
		x.HandleChatCommand(log, user, msg, "")
	case "image":
		x.HandleImageCommand(log, user, msg)
	case "music":
		x.HandleMusicCommand(log, user, msg)
	case "video":
		x.HandleVideoCommand(log, user, msg)
	case "quota":
		x.HandleQuotaCommand(log, user, msg)
	default:
		x.courier.Reply(log, msg, "Unknown command. Send /help for the list of commands.")
	}

	return nil
}

// user resolves or bootstraps the sender. New users land on the bronze
// tariff with its daily allowance already loaded.
func (x *Handler) user(log *tracing.Logger, msg *tgbotapi.Message) (*entities.User, error) {
	euid := msg.From.ID
	uname := msg.From.UserName
	fullname := msg.From.FirstName + " " + msg.From.LastName

	user, err := x.users.GetUserByEid(log, euid)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	if user == nil {
		log.I("User not found, creating new user")

		limits := entities.QuotaMap{}
		resetAt := billing.NextResetTime(platform.ResetPeriodDaily, time.Now())

		tariff, terr := x.tariffs.GetWithFallback(log, platform.TariffBronze)
		if terr != nil {
			log.W("No tariffs configured, new user starts empty", tracing.InnerError, terr)
		} else {
			limits = billing.CloneQuotaMap(tariff.DailyLimits)
			resetAt = billing.NextResetTime(tariff.ResetPeriod, time.Now())
		}

		user, err = x.users.CreateUser(log, euid, &uname, &fullname, platform.TariffBronze, limits, resetAt)
		if err != nil {
			return nil, err
		}
	}

	return user, nil
}

func (x *Handler) throttled(log *tracing.Logger, msg *tgbotapi.Message) bool {
	if x.throttler.IsAllowed(msg.From.ID) {
		return false
	}
	log.I("User throttled")
	x.courier.Reply(log, msg, "Easy there. Wait a few seconds between requests.")
	return true
}
