package telegram

import (
	"musegate/sources/configuration"
	"musegate/sources/tracing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func NewBotAPI(log *tracing.Logger, config *configuration.Config) *tgbotapi.BotAPI {
	bot, err := tgbotapi.NewBotAPI(config.Telegram.BotToken)
	if err != nil {
		log.F("Failed to initialize telegram bot", tracing.InnerError, err)
	}

	log.I("Telegram bot initialized", "bot_username", bot.Self.UserName)
	return bot
}
