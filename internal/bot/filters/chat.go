package filters

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"vipdrive.ru/driver-bot/internal/features/drivers"
)

type ChatFilter struct {
	parkChatID    int64
	driverService *drivers.Service
	bot           *tgbotapi.BotAPI
}

func NewChatFilter(parkChatID int64, driverService *drivers.Service, bot *tgbotapi.BotAPI) *ChatFilter {
	return &ChatFilter{
		parkChatID:    parkChatID,
		driverService: driverService,
		bot:           bot,
	}
}

func (f *ChatFilter) CheckAccess(ctx context.Context, message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil {
		log.WithField("component", "ChatFilter").Warn("nil message/chat")
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Warn("nil message.From (service/channel message?)")
		return false
	}
	if f.driverService == nil {
		log.WithField("component", "ChatFilter").Error("driverService is nil")
		return false
	}
	if f.bot == nil {
		log.WithField("component", "ChatFilter").Error("bot is nil")
		return false
	}
	if f.parkChatID == 0 {
		log.WithField("component", "ChatFilter").Error("parkChatID is 0 (config bug)")
		return false
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	logger := log.WithFields(log.Fields{
		"component":    "ChatFilter",
		"chat_id":      chatID,
		"chat_type":    message.Chat.Type,
		"user_id":      userID,
		"park_chat_id": f.parkChatID,
	})

	// 1) Чат парка
	if chatID == f.parkChatID {
		logger.Debug("allow: park chat")
		return true
	}

	// 2) Личка: сначала быстро по БД
	if message.Chat.IsPrivate() {
		isDriver, err := f.driverService.IsDriver(ctx, userID)
		if err != nil {
			logger.WithError(err).Error("driver check failed (db)")
			return false
		}
		if isDriver {
			logger.Debug("allow: private (db driver)")
			return true
		}

		// 2.1) БД не знает пользователя: проверяем членство через Telegram API
		cm, err := f.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
			ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
				ChatID: f.parkChatID,
				UserID: userID,
			},
		})
		if err != nil {
			logger.WithError(err).Error("driver check failed (telegram GetChatMember)")
			return false
		}

		switch cm.Status {
		case "creator", "administrator", "member", "restricted":
			if err := f.driverService.EnsureDriver(
				ctx, userID,
				message.From.UserName,
				message.From.FirstName,
				message.From.LastName,
			); err != nil {
				logger.WithError(err).Warn("failed to backfill driver to DB (allowing anyway)")
			}
			logger.WithField("tg_status", cm.Status).Info("allow: private (telegram member, backfilled)")
			return true

		default:
			logger.WithField("tg_status", cm.Status).Info("deny: private (not a park member)")
			msg := tgbotapi.NewMessage(chatID, "❌ Бот работает только для водителей парка")
			if _, sendErr := f.bot.Send(msg); sendErr != nil {
				logger.WithError(sendErr).Warn("failed to send deny message")
			}
			return false
		}
	}

	// 3) Остальные чаты игнорируем
	logger.Info("deny: not park chat and not private")
	return false
}
