// Package admin — handlers.go обрабатывает взаимодействие с админ-панелью.
// Панель работает через Reply Keyboard в личных сообщениях.
// Поток: аутентификация → клавиатура → выбор действия → пошаговый диалог.
package admin

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"vipdrive.ru/driver-bot/internal/common"
	"vipdrive.ru/driver-bot/internal/features/drivers"
	"vipdrive.ru/driver-bot/internal/features/earnings"
	"vipdrive.ru/driver-bot/internal/features/vip"
)

// Handler обрабатывает админ-команды.
type Handler struct {
	service         *Service
	driverService   *drivers.Service
	earningsService *earnings.Service
	vipService      *vip.Service
	bot             *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик админ-панели.
func NewHandler(service *Service, driverService *drivers.Service, earningsService *earnings.Service, vipService *vip.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{
		service:         service,
		driverService:   driverService,
		earningsService: earningsService,
		vipService:      vipService,
		bot:             bot,
	}
}

// HandleAdminMessage обрабатывает любое сообщение в DM как возможное
// админ-действие. Определяет текущее состояние диалога и маршрутизирует
// сообщение. Возвращает true, если сообщение было обработано панелью.
func (h *Handler) HandleAdminMessage(ctx context.Context, chatID int64, userID int64, text string) bool {
	// Проверяем состояние диалога
	state := h.service.GetState(userID)

	// Обрабатываем состояние ожидания пароля
	if state != nil && state.State == StateAwaitingPassword {
		h.handlePasswordInput(ctx, chatID, userID, text)
		return true
	}

	// Вход в панель по ключевому слову
	isEntry := text == "Админ" || text == "админ" || text == "Панель" || text == "панель"

	// Проверяем активную сессию
	if !h.service.HasActiveSession(ctx, userID) {
		if !isEntry {
			return false
		}
		// Нет сессии — запрашиваем пароль
		h.sendMessage(chatID, "🔒 Введите пароль для доступа к админ-панели:")
		h.service.SetState(userID, StateAwaitingPassword, nil)
		return true
	}

	// Обновляем активность сессии
	h.service.repo.UpdateActivity(ctx, userID)

	// Обрабатываем текущее состояние диалога
	if state != nil {
		switch state.State {
		case StateGrantSelect:
			h.handleDriverSelect(ctx, chatID, userID, text, StateGrantAmount, "Введите сумму начисления в рублях:")
			return true
		case StateGrantAmount:
			h.handleGrantAmount(ctx, chatID, userID, text)
			return true
		case StatePayoutSelect:
			h.handleDriverSelect(ctx, chatID, userID, text, StatePayoutAmount, "Введите сумму выплаты в рублях:")
			return true
		case StatePayoutAmount:
			h.handlePayoutAmount(ctx, chatID, userID, text)
			return true
		case StateCallSignSelect:
			h.handleDriverSelect(ctx, chatID, userID, text, StateCallSignText, "Введите позывной (максимум 64 символа):")
			return true
		case StateCallSignText:
			h.handleCallSignText(ctx, chatID, userID, text)
			return true
		}
	}

	// Обрабатываем кнопки клавиатуры
	switch text {
	case "Начислить бонус":
		h.startDriverSelect(ctx, chatID, userID, StateGrantSelect)
		return true
	case "Выплата":
		h.startDriverSelect(ctx, chatID, userID, StatePayoutSelect)
		return true
	case "Позывной":
		h.startDriverSelect(ctx, chatID, userID, StateCallSignSelect)
		return true
	case "Проверка дня":
		h.runDayCheck(ctx, chatID)
		return true
	case "Проверка месяца":
		h.runMonthCheck(ctx, chatID)
		return true
	case "Статистика":
		h.showStats(ctx, chatID)
		return true
	case "Выход":
		h.service.Logout(ctx, userID)
		h.sendMessage(chatID, "Сессия завершена")
		return true
	}

	if isEntry {
		h.showKeyboard(chatID)
		return true
	}

	return false
}

// HandleLogin обрабатывает команду /login в личке.
// С аргументом проверяет пароль сразу, без — запрашивает его отдельным шагом.
func (h *Handler) HandleLogin(ctx context.Context, chatID int64, userID int64, args []string) {
	if h.service.HasActiveSession(ctx, userID) {
		h.showKeyboard(chatID)
		return
	}
	if len(args) > 0 {
		h.handlePasswordInput(ctx, chatID, userID, strings.Join(args, " "))
		return
	}
	h.sendMessage(chatID, "🔒 Введите пароль для доступа к админ-панели:")
	h.service.SetState(userID, StateAwaitingPassword, nil)
}

// handlePasswordInput обрабатывает ввод пароля.
func (h *Handler) handlePasswordInput(ctx context.Context, chatID int64, userID int64, password string) {
	err := h.service.VerifyPassword(ctx, userID, password)
	if err != nil {
		h.sendMessage(chatID, fmt.Sprintf("❌ %s", err.Error()))
		h.service.ClearState(userID)
		return
	}

	h.service.ClearState(userID)
	h.sendMessage(chatID, "✅ Аутентификация успешна!")
	h.showKeyboard(chatID)
}

// showKeyboard отображает клавиатуру админ-панели.
func (h *Handler) showKeyboard(chatID int64) {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Начислить бонус"),
			tgbotapi.NewKeyboardButton("Выплата"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Проверка дня"),
			tgbotapi.NewKeyboardButton("Проверка месяца"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Позывной"),
			tgbotapi.NewKeyboardButton("Статистика"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Выход"),
		),
	)

	msg := tgbotapi.NewMessage(chatID, "✅ Админ-панель открыта")
	msg.ReplyMarkup = keyboard
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки клавиатуры")
	}
}

// --- Пошаговые диалоги ---

// selectedDriver хранит контекст диалога после выбора водителя.
type selectedDriver struct {
	Driver *drivers.Driver
	Next   string // Следующее состояние после выбора
}

// startDriverSelect — шаг 1: показать список водителей.
func (h *Handler) startDriverSelect(ctx context.Context, chatID int64, userID int64, nextState string) {
	list, err := h.service.GetActiveDrivers(ctx)
	if err != nil || len(list) == 0 {
		h.sendMessage(chatID, "В парке нет активных водителей")
		return
	}

	var sb strings.Builder
	sb.WriteString("Выберите водителя (отправьте номер):\n\n")
	for i, d := range list {
		sb.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, d.DisplayName(), d.FirstName))
	}

	h.sendMessage(chatID, sb.String())
	h.service.SetState(userID, nextState, list)
}

// handleDriverSelect — шаг 2: водитель выбран номером.
func (h *Handler) handleDriverSelect(ctx context.Context, chatID int64, userID int64, text, nextState, prompt string) {
	state := h.service.GetState(userID)
	list := state.Data.([]*drivers.Driver)

	num, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || num < 1 || num > len(list) {
		h.sendMessage(chatID, "❌ Неверный номер. Попробуйте ещё раз.")
		return
	}

	selected := list[num-1]
	h.sendMessage(chatID, fmt.Sprintf("%s: %s", selected.DisplayName(), prompt))
	h.service.SetState(userID, nextState, selected)
}

// handleGrantAmount — шаг 3 начисления: ввод суммы.
func (h *Handler) handleGrantAmount(ctx context.Context, chatID int64, userID int64, text string) {
	state := h.service.GetState(userID)
	selected := state.Data.(*drivers.Driver)

	amount, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || amount <= 0 {
		h.sendMessage(chatID, "❌ Сумма должна быть положительным числом")
		return
	}

	err = h.earningsService.AddBalance(ctx, selected.UserID, amount,
		earnings.TxTypeAdminGive, "Начисление администратором парка")
	if err != nil {
		h.sendMessage(chatID, fmt.Sprintf("❌ Ошибка: %s", err.Error()))
		h.service.ClearState(userID)
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ Начислено %s водителю %s",
		common.FormatMoney(amount), selected.DisplayName()))
	h.service.ClearState(userID)
}

// handlePayoutAmount — шаг 3 выплаты: ввод суммы.
func (h *Handler) handlePayoutAmount(ctx context.Context, chatID int64, userID int64, text string) {
	state := h.service.GetState(userID)
	selected := state.Data.(*drivers.Driver)

	amount, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || amount <= 0 {
		h.sendMessage(chatID, "❌ Сумма должна быть положительным числом")
		return
	}

	err = h.earningsService.Payout(ctx, selected.UserID, amount, "Выплата бонусов")
	if err != nil {
		if err == common.ErrInsufficientBalance {
			h.sendMessage(chatID, "❌ Недостаточно средств на счёте водителя")
		} else {
			h.sendMessage(chatID, fmt.Sprintf("❌ Ошибка: %s", err.Error()))
		}
		h.service.ClearState(userID)
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ Выплачено %s водителю %s",
		common.FormatMoney(amount), selected.DisplayName()))
	h.service.ClearState(userID)
}

// handleCallSignText — шаг 3 позывного: ввод текста.
func (h *Handler) handleCallSignText(ctx context.Context, chatID int64, userID int64, text string) {
	state := h.service.GetState(userID)
	selected := state.Data.(*drivers.Driver)

	callSign := strings.TrimSpace(text)
	if err := h.service.AssignCallSign(ctx, selected.UserID, callSign); err != nil {
		h.sendMessage(chatID, fmt.Sprintf("❌ Ошибка: %s", err.Error()))
		h.service.ClearState(userID)
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ Позывной назначен: %s → %s", selected.DisplayName(), callSign))
	h.service.ClearState(userID)
}

// --- Немедленные действия ---

// runDayCheck запускает проверку границы дня для всех водителей.
func (h *Handler) runDayCheck(ctx context.Context, chatID int64) {
	if err := h.vipService.RunDailyChecks(ctx); err != nil {
		h.sendMessage(chatID, fmt.Sprintf("❌ Ошибка: %s", err.Error()))
		return
	}
	h.sendMessage(chatID, "✅ Проверка дня выполнена для всех водителей")
}

// runMonthCheck запускает проверку границ месяца и цикла для всех водителей.
func (h *Handler) runMonthCheck(ctx context.Context, chatID int64) {
	if err := h.vipService.RunMonthlyChecks(ctx); err != nil {
		h.sendMessage(chatID, fmt.Sprintf("❌ Ошибка: %s", err.Error()))
		return
	}
	h.sendMessage(chatID, "✅ Проверка месяца выполнена для всех водителей")
}

// showStats показывает краткую статистику парка.
func (h *Handler) showStats(ctx context.Context, chatID int64) {
	count, err := h.driverService.Count(ctx)
	if err != nil {
		h.sendMessage(chatID, "❌ Ошибка получения статистики")
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("📊 Водителей в парке: %d", count))
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
