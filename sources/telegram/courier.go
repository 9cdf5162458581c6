package telegram

import (
	"musegate/sources/billing"
	"musegate/sources/configuration"
	"musegate/sources/metrics"
	"musegate/sources/platform"
	"musegate/sources/texting/transform"
	"musegate/sources/tracing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const defaultChunkSize = 4096

// Courier owns every outbound message: command replies, processing
// placeholders, reconciled results and their cleanup. It also implements the
// reconciler's notifier, so completions from webhooks flow through the same
// sending path as direct replies.
type Courier struct {
	bot     *tgbotapi.BotAPI
	config  *configuration.Config
	metrics *metrics.MetricsService
}

func NewCourier(bot *tgbotapi.BotAPI, config *configuration.Config, metrics *metrics.MetricsService) *Courier {
	return &Courier{bot: bot, config: config, metrics: metrics}
}

func (x *Courier) chunkSize() int {
	if x.config.Telegram.CourierChunkSize > 0 {
		return x.config.Telegram.CourierChunkSize
	}
	return defaultChunkSize
}

func (x *Courier) Reply(log *tracing.Logger, msg *tgbotapi.Message, text string) {
	defer tracing.ProfilePoint(log, "Courier reply completed", "courier.reply")()

	for _, chunk := range transform.Chunks(text, x.chunkSize()) {
		chattable := tgbotapi.NewMessage(msg.Chat.ID, chunk)
		chattable.ReplyToMessageID = msg.MessageID

		if _, err := x.bot.Send(chattable); err != nil {
			log.E("Message chunk sending error", tracing.InnerError, err)
			x.metrics.RecordNotification("failed")
			return
		}
		x.metrics.RecordNotification("sent")
	}
}

func (x *Courier) SendText(log *tracing.Logger, chatID int64, text string) error {
	defer tracing.ProfilePoint(log, "Courier send text completed", "courier.send_text")()

	for _, chunk := range transform.Chunks(text, x.chunkSize()) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		if _, err := x.bot.Send(msg); err != nil {
			log.E("Message chunk sending error", tracing.InnerError, err)
			return err
		}
	}
	return nil
}

// SendProcessing posts the placeholder the reconciler later deletes. The
// returned message id must be appended to the request's processing list.
func (x *Courier) SendProcessing(log *tracing.Logger, chatID int64, text string) (int64, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	sent, err := x.bot.Send(msg)
	if err != nil {
		log.E("Failed to send processing placeholder", tracing.InnerError, err)
		return 0, err
	}
	return int64(sent.MessageID), nil
}

// DeliverResult sends a finished generation to the chat, shaped by the
// capability family: images as photos, music as audio, video as video, text
// in chunks.
func (x *Courier) DeliverResult(log *tracing.Logger, chatID int64, quota platform.Quota, result string) error {
	defer tracing.ProfilePoint(log, "Courier deliver result completed", "courier.deliver_result", tracing.QuotaKey, quota)()

	var err error
	switch billing.ClassOf(quota) {
	case billing.ClassImageSimple, billing.ClassImageAdvanced:
		_, err = x.bot.Send(tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(result)))
	case billing.ClassMusic:
		_, err = x.bot.Send(tgbotapi.NewAudio(chatID, tgbotapi.FileURL(result)))
	case billing.ClassVideo:
		_, err = x.bot.Send(tgbotapi.NewVideo(chatID, tgbotapi.FileURL(result)))
	default:
		return x.SendText(log, chatID, result)
	}

	if err != nil {
		// Telegram refuses some provider CDN links; the raw URL still
		// gets the result to the user.
		log.W("Media send failed, falling back to link", tracing.InnerError, err)
		return x.SendText(log, chatID, result)
	}
	return nil
}

func (x *Courier) DeliverFailure(log *tracing.Logger, chatID int64, message string, contentViolation bool) error {
	text := "Generation failed: " + message
	if contentViolation {
		text = "The provider rejected this prompt for content policy reasons. Try rephrasing it."
	}
	return x.SendText(log, chatID, text)
}

// CleanupMessages removes processing placeholders. Deletion failures are
// expected (messages expire, users delete them) and never propagate.
func (x *Courier) CleanupMessages(log *tracing.Logger, chatID int64, messageIDs []int64) {
	for _, messageID := range messageIDs {
		if _, err := x.bot.Request(tgbotapi.NewDeleteMessage(chatID, int(messageID))); err != nil {
			log.W("Failed to delete processing message", tracing.InnerError, err, tracing.MessageId, messageID)
		}
	}
}

func (x *Courier) NotifyMaintainers(log *tracing.Logger, text string) {
	if x.config.Telegram.MaintainersChat == 0 {
		return
	}
	if err := x.SendText(log, x.config.Telegram.MaintainersChat, text); err != nil {
		log.E("Failed to notify maintainers", tracing.InnerError, err)
	}
}
