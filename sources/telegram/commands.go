package telegram

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"musegate/sources/billing"
	"musegate/sources/features"
	"musegate/sources/persistence/entities"
	"musegate/sources/platform"
	"musegate/sources/providers"
	"musegate/sources/texting/format"
	"musegate/sources/tracing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

const helpText = `What I can do:

/chat <prompt> - talk to a text model (--advanced for the stronger one)
/image <prompt> - generate an image (--quality hd, --provider dalle|midjourney)
/music <prompt> - generate a track (--instrumental, --duration 60)
/video <prompt> - generate a clip (--duration 5, --mode pro)
/quota - show your remaining balance

Generations run in the background; I will post the result here when it lands.`

func (x *Handler) HandleStartCommand(log *tracing.Logger, user *entities.User, msg *tgbotapi.Message) {
	x.courier.Reply(log, msg, "Hi! I generate text, images, music and video through a bundle of AI providers.\n\n"+helpText)
}

func (x *Handler) HandleHelpCommand(log *tracing.Logger, user *entities.User, msg *tgbotapi.Message) {
	x.courier.Reply(log, msg, helpText)
}

func (x *Handler) HandleChatCommand(log *tracing.Logger, user *entities.User, msg *tgbotapi.Message, directText string) {
	var cmd ChatCmd
	if directText != "" {
		cmd.Prompt = []string{directText}
	} else if _, err := parseCmd(&cmd, msg.CommandArguments()); err != nil {
		x.courier.Reply(log, msg, "Usage: /chat [--advanced] <prompt>")
		return
	}

	prompt := joinPrompt(cmd.Prompt)
	if prompt == "" {
		x.courier.Reply(log, msg, "Usage: /chat [--advanced] <prompt>")
		return
	}

	quota := platform.QuotaChatGPT
	model := x.config.Providers.TextModel
	if cmd.Advanced && x.features.IsEnabledDefault(features.FeatureAdvancedText, true) {
		quota = platform.QuotaChatGPT4
		model = x.config.Providers.TextAdvanced
	}

	details := entities.GenerationDetails{
		Text: &entities.TextDetails{Model: model},
	}

	x.runGeneration(log, user, msg, quota, prompt, details, x.estimator.TextCost(prompt))
}

func (x *Handler) HandleImageCommand(log *tracing.Logger, user *entities.User, msg *tgbotapi.Message) {
	var cmd ImageCmd
	if _, err := parseCmd(&cmd, msg.CommandArguments()); err != nil {
		x.courier.Reply(log, msg, "Usage: /image [--quality hd] [--provider dalle|midjourney] <prompt>")
		return
	}

	prompt := joinPrompt(cmd.Prompt)
	if prompt == "" {
		x.courier.Reply(log, msg, "Usage: /image [--quality hd] [--provider dalle|midjourney] <prompt>")
		return
	}

	quota := x.balancer.Pick()
	switch cmd.Provider {
	case "dalle":
		quota = platform.QuotaDallE
	case "midjourney":
		quota = platform.QuotaMidjourney
	}

	details := entities.GenerationDetails{
		Image: &entities.ImageDetails{
			Width:   cmd.Width,
			Height:  cmd.Height,
			Quality: cmd.Quality,
		},
	}

	x.runGeneration(log, user, msg, quota, prompt, details, x.estimator.ImageCost(cmd.Width, cmd.Height, cmd.Quality))
}

func (x *Handler) HandleMusicCommand(log *tracing.Logger, user *entities.User, msg *tgbotapi.Message) {
	var cmd MusicCmd
	if _, err := parseCmd(&cmd, msg.CommandArguments()); err != nil {
		x.courier.Reply(log, msg, "Usage: /music [--instrumental] [--duration 60] <prompt>")
		return
	}

	prompt := joinPrompt(cmd.Prompt)
	if prompt == "" {
		x.courier.Reply(log, msg, "Usage: /music [--instrumental] [--duration 60] <prompt>")
		return
	}

	details := entities.GenerationDetails{
		Music: &entities.MusicDetails{
			DurationSeconds: cmd.Duration,
			Instrumental:    cmd.Instrumental,
		},
	}

	x.runGeneration(log, user, msg, platform.QuotaSuno, prompt, details, x.estimator.MusicCost(cmd.Duration))
}

func (x *Handler) HandleVideoCommand(log *tracing.Logger, user *entities.User, msg *tgbotapi.Message) {
	var cmd VideoCmd
	if _, err := parseCmd(&cmd, msg.CommandArguments()); err != nil {
		x.courier.Reply(log, msg, "Usage: /video [--duration 5] [--mode pro] <prompt>")
		return
	}

	prompt := joinPrompt(cmd.Prompt)
	if prompt == "" {
		x.courier.Reply(log, msg, "Usage: /video [--duration 5] [--mode pro] <prompt>")
		return
	}

	details := entities.GenerationDetails{
		Video: &entities.VideoDetails{
			DurationSeconds: cmd.Duration,
			Mode:            cmd.Mode,
		},
	}

	x.runGeneration(log, user, msg, platform.QuotaKling, prompt, details, x.estimator.VideoCost(cmd.Duration, cmd.Mode))
}

func (x *Handler) HandleQuotaCommand(log *tracing.Logger, user *entities.User, msg *tgbotapi.Message) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Tariff: %s\n", user.TariffKey))
	sb.WriteString(fmt.Sprintf("Daily reset at: %s\n\n", user.LimitsResetAt.Format("2006-01-02 15:04")))
	sb.WriteString("Remaining balance:\n")

	keys := make([]platform.Quota, 0, len(user.DailyLimits)+len(user.AdditionalQuota))
	seen := map[platform.Quota]bool{}
	for quota := range user.DailyLimits {
		keys = append(keys, quota)
		seen[quota] = true
	}
	for quota := range user.AdditionalQuota {
		if !seen[quota] {
			keys = append(keys, quota)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, quota := range keys {
		daily := user.DailyLimits[quota]
		purchased := user.AdditionalQuota[quota]
		line := fmt.Sprintf("• %s: %s daily", quota, format.Numberify(int64(daily)))
		if purchased > 0 {
			line += fmt.Sprintf(" + %s purchased", format.Numberify(int64(purchased)))
		}
		sb.WriteString(line + "\n")
	}

	since := billing.CurrentWindowStart(platform.ResetPeriodDaily, time.Now())
	expenses, err := x.transactions.GetUserExpenses(log, user.ID, since)
	if err == nil {
		spent := 0
		amount := decimal.Zero
		for _, expense := range expenses {
			spent += expense.Quantity
			amount = amount.Add(expense.Amount)
		}
		sb.WriteString(fmt.Sprintf("\nSpent today: %s units across %s generations (%s %s)",
			format.Numberify(int64(spent)), format.Numberify(int64(len(expenses))),
			format.Decimalify(amount), billing.Currency))
	}

	x.courier.Reply(log, msg, sb.String())
}

// runGeneration is the shared submission path: admission, request and
// placeholder bookkeeping, provider dispatch, and inline reconciliation for
// synchronous providers.
func (x *Handler) runGeneration(log *tracing.Logger, user *entities.User, msg *tgbotapi.Message, quota platform.Quota, prompt string, details entities.GenerationDetails, cost int) {
	if x.throttled(log, msg) {
		return
	}

	log = log.With(tracing.QuotaKey, quota, tracing.QuotaUnits, cost)

	adapter, err := x.registry.ByQuota(quota)
	if err != nil {
		log.E("No adapter for quota", tracing.InnerError, err)
		x.courier.Reply(log, msg, "This capability is not available right now.")
		return
	}

	if !x.features.ProviderEnabled(adapter.Name()) {
		log.I("Provider disabled by feature toggle", tracing.Provider, adapter.Name())
		x.courier.Reply(log, msg, "This provider is temporarily disabled. Try again later.")
		return
	}

	tariff, err := x.tariffs.GetWithFallback(log, user.TariffKey)
	if err != nil {
		log.W("Tariff lookup failed, admission runs without tariff context", tracing.InnerError, err)
		tariff = nil
	}

	if err := x.ledger.CheckAdmission(log, user, tariff, quota, cost); err != nil {
		switch {
		case billing.IsRestricted(err):
			x.metrics.RecordAdmissionRejected("restricted")
			x.courier.Reply(log, msg, "Your tariff does not include this capability. Upgrade to unlock it.")
		case billing.IsInsufficientBalance(err):
			x.metrics.RecordAdmissionRejected("balance")
			x.courier.Reply(log, msg, "You are out of quota for this capability. It refills at the next reset; check /quota.")
		default:
			log.E("Admission check failed", tracing.InnerError, err)
			x.courier.Reply(log, msg, "Something went wrong. Try again later.")
		}
		return
	}

	request, err := x.requests.CreateRequest(log, user.ID, msg.Chat.ID)
	if err != nil {
		x.courier.Reply(log, msg, "Something went wrong. Try again later.")
		return
	}
	log = log.With(tracing.RequestId, request.ID)

	if placeholderID, perr := x.courier.SendProcessing(log, msg.Chat.ID, "Working on it…"); perr == nil {
		if aerr := x.requests.AppendProcessingMessage(log, request.ID, placeholderID); aerr == nil {
			request.ProcessingMessageIDs = append(request.ProcessingMessageIDs, placeholderID)
		}
	}

	details.Prompt = prompt
	details.CostUnits = cost

	taskID, outcome, err := adapter.Submit(context.Background(), log, &providers.SubmitRequest{
		Prompt:  prompt,
		Quota:   quota,
		Details: details,
	})
	if err != nil {
		x.metrics.RecordSubmission(adapter.Name(), "error")
		x.abandonRequest(log, request)
		x.courier.Reply(log, msg, "The provider rejected the request. Try again later.")
		return
	}
	x.metrics.RecordSubmission(adapter.Name(), "accepted")

	_, err = x.generations.CreateGeneration(log, taskID, request.ID, string(billing.ClassOf(quota)), quota, adapter.Name(), false, details)
	if err != nil {
		x.abandonRequest(log, request)
		x.courier.Reply(log, msg, "Something went wrong. Try again later.")
		return
	}

	if outcome != nil {
		if err := x.reconciler.Reconcile(log, adapter.Name(), outcome); err != nil {
			log.E("Inline reconciliation failed", tracing.InnerError, err, tracing.TaskId, taskID)
		}
	}

	x.maybeSuggest(log, user, request, quota, prompt)
}

// abandonRequest closes a request whose submission never produced a live
// generation, so the sweeper does not have to.
func (x *Handler) abandonRequest(log *tracing.Logger, request *entities.Request) {
	if _, err := x.requests.FinishRequest(log, request.ID); err != nil {
		return
	}
	x.courier.CleanupMessages(log, request.ChatID, request.ProcessingMessageIDs)
}
