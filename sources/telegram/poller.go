package telegram

import (
	"sync"
	"musegate/sources/configuration"
	"musegate/sources/tracing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type messageHandler interface {
	HandleMessage(log *tracing.Logger, msg *tgbotapi.Message) error
}

type Poller struct {
	bot     *tgbotapi.BotAPI
	log     *tracing.Logger
	config  *configuration.Config
	courier *Courier
	handler messageHandler
}

func NewPoller(bot *tgbotapi.BotAPI, log *tracing.Logger, config *configuration.Config, courier *Courier, handler *Handler) *Poller {
	return &Poller{bot: bot, log: log, config: config, courier: courier, handler: handler}
}

func (x *Poller) Start() {
	update := tgbotapi.NewUpdate(0)
	update.Timeout = x.config.Telegram.PollerTimeout
	update.AllowedUpdates = x.config.Telegram.AllowedUpdates

	x.consume(x.bot.GetUpdatesChan(update))
}

// consume dispatches each update on its own goroutine: synchronous providers
// can hold a handler for minutes, and one slow generation must not queue
// every other user's commands behind it.
func (x *Poller) consume(updates tgbotapi.UpdatesChannel) {
	var inflight sync.WaitGroup

	for update := range updates {
		msg := update.Message
		if msg == nil {
			continue
		}

		inflight.Add(1)
		go func(update tgbotapi.Update, msg *tgbotapi.Message) {
			defer inflight.Done()
			x.handleUpdate(update, msg)
		}(update, msg)
	}

	inflight.Wait()
}

func (x *Poller) handleUpdate(update tgbotapi.Update, msg *tgbotapi.Message) {
	log := x.log
	if user := update.SentFrom(); user != nil {
		log = log.With(
			tracing.UserId, user.ID,
			tracing.UserName, user.UserName,
			tracing.ChatType, msg.Chat.Type,
			tracing.ChatId, msg.Chat.ID,
			tracing.MessageId, msg.MessageID,
			tracing.MessageDate, msg.Date,
		)
	}

	if err := x.handler.HandleMessage(log, msg); err != nil {
		x.courier.Reply(log, msg, "Something went wrong. Try again later.")
	}

	log.I("Message handled")
}

func (x *Poller) Stop() {
	x.bot.StopReceivingUpdates()
}
