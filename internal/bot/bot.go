// Package bot содержит главный модуль бота — инициализацию, запуск и остановку.
// bot.go подключает обработчики всех фич и запускает polling.
package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"vipdrive.ru/driver-bot/internal/bot/filters"
	"vipdrive.ru/driver-bot/internal/bot/middleware"
	"vipdrive.ru/driver-bot/internal/config"
	"vipdrive.ru/driver-bot/internal/features/admin"
	"vipdrive.ru/driver-bot/internal/features/drivers"
	"vipdrive.ru/driver-bot/internal/features/earnings"
	"vipdrive.ru/driver-bot/internal/features/vip"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	driverHandler   *drivers.Handler
	earningsHandler *earnings.Handler
	vipHandler      *vip.Handler
	adminHandler    *admin.Handler

	driverService   *drivers.Service
	earningsService *earnings.Service
	vipService      *vip.Service
	adminService    *admin.Service

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	driverService *drivers.Service,
	driverHandler *drivers.Handler,
	earningsService *earnings.Service,
	earningsHandler *earnings.Handler,
	vipService *vip.Service,
	vipHandler *vip.Handler,
	adminService *admin.Service,
	adminHandler *admin.Handler,
	chatFilter *filters.ChatFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:             api,
		cfg:             cfg,
		chatFilter:      chatFilter,
		rateLimiter:     middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		driverHandler:   driverHandler,
		earningsHandler: earningsHandler,
		vipHandler:      vipHandler,
		adminHandler:    adminHandler,
		driverService:   driverService,
		earningsService: earningsService,
		vipService:      vipService,
		adminService:    adminService,
		parser:          NewCommandParser(),
		inflight:        make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			b.rateLimiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	// Обрабатываем новых водителей (событие вступления в чат парка)
	if update.Message != nil && update.Message.NewChatMembers != nil {
		if update.Message.Chat != nil && update.Message.Chat.ID == b.cfg.ParkChatID {
			b.handleNewDrivers(ctx, update.Message.NewChatMembers)
		}
		return
	}

	// Обрабатываем обычные сообщения
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	message := update.Message

	// Логируем входящее
	middleware.LogMessage(message)

	// Проверяем доступ (PARK_CHAT_ID или DM водителя)
	if !b.chatFilter.CheckAccess(ctx, message) {
		return
	}

	// Rate limiting
	if message.From != nil && !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	// EnsureDriver — ошибки нельзя игнорировать, иначе потом будет "оно не работает"
	if err := b.driverService.EnsureDriver(ctx, userID,
		message.From.UserName, message.From.FirstName, message.From.LastName,
	); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("EnsureDriver failed")
	}

	// В DM проверяем админ-панель
	if message.Chat.IsPrivate() {
		handled := b.adminHandler.HandleAdminMessage(ctx, chatID, userID, message.Text)
		if handled {
			return
		}
	}

	// Парсим команду
	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	log.WithFields(log.Fields{
		"isCommand": isCommand,
		"cmd":       cmd,
		"args":      args,
		"text":      message.Text,
	}).Debug("parsed command")

	if isCommand {
		b.routeCommand(ctx, chatID, userID, cmd, args)
	}
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, cmd string, args []string) {
	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("routing command")
	switch cmd {
	case "start", "help":
		b.sendMessage(chatID, "Бот ВИП-программы парка. Команды: !смена, !стоп, !поездка, !вип, !баланс, !транзакции")

	case "смена":
		if b.cfg.FeatureVIPEnabled {
			b.vipHandler.HandleShiftStart(ctx, chatID, userID)
		}

	case "стоп":
		if b.cfg.FeatureVIPEnabled {
			b.vipHandler.HandleShiftStop(ctx, chatID, userID)
		}

	case "поездка":
		if b.cfg.FeatureVIPEnabled {
			b.vipHandler.HandleRide(ctx, chatID, userID)
		}

	case "вип":
		if b.cfg.FeatureVIPEnabled {
			b.vipHandler.HandleStatus(ctx, chatID, userID)
		} else {
			b.sendMessage(chatID, "⭐ ВИП-программа временно отключена")
		}

	case "баланс":
		b.earningsHandler.HandleBalance(ctx, chatID, userID)

	case "транзакции":
		b.earningsHandler.HandleTransactions(ctx, chatID, userID)

	case "login":
		if chatID == userID {
			b.adminHandler.HandleLogin(ctx, chatID, userID, args)
		}
	}
}

// handleNewDrivers обрабатывает вступление новых водителей в чат парка.
func (b *Bot) handleNewDrivers(ctx context.Context, newMembers []tgbotapi.User) {
	for _, user := range newMembers {
		if err := b.driverService.HandleNewDriver(ctx, user.ID, user.UserName, user.FirstName, user.LastName); err != nil {
			log.WithError(err).WithField("user_id", user.ID).Warn("HandleNewDriver failed")
		}
		if err := b.earningsService.EnsureBalance(ctx, user.ID); err != nil {
			log.WithError(err).WithField("user_id", user.ID).Warn("EnsureBalance failed")
		}

		log.WithField("user", user.UserName).Info("Новый водитель обработан")
	}
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// SendMessageToUser отправляет сообщение пользователю в личку.
func (b *Bot) SendMessageToUser(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Не удалось отправить сообщение")
	} else {
		log.WithField("user_id", userID).Debug("message sent")
	}
}

// CommandParser парсит русские команды с префиксами !, . и /.
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"!", ".", "/"},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}

	if !hasPrefix {
		return "", nil, false
	}

	text = strings.TrimSpace(text)
	parts := strings.Fields(text)

	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return command, args, true
}
