// Package drivers — handlers.go обрабатывает Telegram-события, связанные с водителями.
// Основное событие: новый пользователь вступил в чат парка.
package drivers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Handler обрабатывает события водителей.
type Handler struct {
	service *Service // Сервис водителей для бизнес-логики
}

// NewHandler создаёт новый обработчик событий водителей.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleNewChatMembers обрабатывает событие вступления новых пользователей.
// Telegram отправляет это событие, когда кто-то присоединяется к чату парка.
//
// Для каждого нового водителя:
// 1. Регистрирует в таблице drivers
// 2. Связанные записи (бонусный счёт, ВИП-состояние) создаются
//    другими сервисами при первой активности
func (h *Handler) HandleNewChatMembers(ctx context.Context, newMembers []tgbotapi.User) {
	for _, user := range newMembers {
		err := h.service.HandleNewDriver(ctx, user.ID, user.UserName, user.FirstName, user.LastName)
		if err != nil {
			log.WithError(err).WithField("user_id", user.ID).Error("Ошибка регистрации нового водителя")
		}
	}
}
