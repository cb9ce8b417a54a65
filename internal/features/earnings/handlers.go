// Package earnings — handlers.go обрабатывает команды:
// !баланс (счёт), !транзакции (история).
package earnings

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"vipdrive.ru/driver-bot/internal/common"
)

// Handler обрабатывает команды бонусного счёта.
type Handler struct {
	service *Service         // Сервис бонусных счетов
	bot     *tgbotapi.BotAPI // API Telegram для отправки ответов
}

// NewHandler создаёт новый обработчик команд бонусного счёта.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{
		service: service,
		bot:     bot,
	}
}

// HandleBalance обрабатывает команду !баланс — показывает счёт.
//
// Формат ответа:
//
//	💰 Бонусный счёт: 4 000 ₽
func (h *Handler) HandleBalance(ctx context.Context, chatID int64, driverID int64) {
	balance, err := h.service.GetBalance(ctx, driverID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения баланса")
		h.sendMessage(chatID, "❌ Ошибка получения баланса")
		return
	}

	text := fmt.Sprintf("💰 Бонусный счёт: %s", common.FormatMoney(balance))
	h.sendMessage(chatID, text)
}

// HandleTransactions обрабатывает команду !транзакции — показывает историю.
func (h *Handler) HandleTransactions(ctx context.Context, chatID int64, driverID int64) {
	history, err := h.service.GetTransactionHistory(ctx, driverID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения транзакций")
		h.sendMessage(chatID, "❌ Ошибка получения истории транзакций")
		return
	}
	h.sendMessage(chatID, history)
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
