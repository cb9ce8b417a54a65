// Package vip — handlers.go обрабатывает команды водителя:
// !смена (выход на линию), !стоп (уход с линии), !поездка, !вип (статус).
package vip

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"vipdrive.ru/driver-bot/internal/common"
)

// Handler обрабатывает команды ВИП-программы.
type Handler struct {
	service *Service         // Сервис ВИП-статусов
	bot     *tgbotapi.BotAPI // API Telegram для отправки ответов
}

// NewHandler создаёт новый обработчик команд ВИП-программы.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{
		service: service,
		bot:     bot,
	}
}

// HandleShiftStart обрабатывает команду !смена — водитель вышел на линию.
func (h *Handler) HandleShiftStart(ctx context.Context, chatID int64, driverID int64) {
	h.service.GoOnline(ctx, driverID)
	h.sendMessage(chatID, "🚕 Смена открыта. Удачи на линии!")
}

// HandleShiftStop обрабатывает команду !стоп — водитель ушёл с линии.
// В ответе показываем накопленные часы дня.
func (h *Handler) HandleShiftStop(ctx context.Context, chatID int64, driverID int64) {
	h.service.GoOffline(ctx, driverID)

	state := h.service.Status(ctx, driverID)
	text := fmt.Sprintf("🏁 Смена закрыта.\nСегодня на линии: %s ч, поездок: %d",
		common.FormatHours(state.HoursOnline), state.RidesToday)
	h.sendMessage(chatID, text)
}

// HandleRide обрабатывает команду !поездка — засчитывает завершённую поездку.
func (h *Handler) HandleRide(ctx context.Context, chatID int64, driverID int64) {
	h.service.RegisterRide(ctx, driverID)

	state := h.service.Status(ctx, driverID)
	text := fmt.Sprintf("✅ Поездка засчитана. Сегодня: %d %s",
		state.RidesToday, common.PluralizeRides(state.RidesToday))
	h.sendMessage(chatID, text)
}

// HandleStatus обрабатывает команду !вип — показывает прогресс водителя.
//
// Формат ответа:
//
//	⭐ ВИП-статус
//	Сегодня: 6.5 ч на линии, 4 поездки ✅
//	Зачётных дней в месяце: 14 из 20
//	Серия месяцев: 2 (квартал через 1 месяц)
//	Цикл: начат 01.03.2026, осталось 214 дней
func (h *Handler) HandleStatus(ctx context.Context, chatID int64, driverID int64) {
	state := h.service.Status(ctx, driverID)
	rules := h.service.Rules()

	var b strings.Builder
	b.WriteString("⭐ ВИП-статус\n\n")

	dayMark := ""
	if rules.IsDayQualified(state.HoursOnline, state.RidesToday) {
		dayMark = " ✅"
	}
	b.WriteString(fmt.Sprintf("Сегодня: %s ч на линии, %d %s%s\n",
		common.FormatHours(state.HoursOnline),
		state.RidesToday, common.PluralizeRides(state.RidesToday), dayMark))
	if state.IsCurrentlyOnline {
		b.WriteString("Вы на линии 🚕\n")
	}

	b.WriteString(fmt.Sprintf("Зачётных дней в месяце: %d из %d\n",
		state.QualifiedDaysThisMonth, rules.MonthQualifyDays))

	m := state.ConsecutiveQualifiedMonths
	if m > 0 {
		b.WriteString(fmt.Sprintf("Серия: %d %s подряд",
			m, common.PluralizeMonths(m)))
		if rest := 3 - m%3; rest != 3 {
			b.WriteString(fmt.Sprintf(" (квартальный бонус через %d %s)",
				rest, common.PluralizeMonths(rest)))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("Серии пока нет — закройте месяц с 20 зачётными днями\n")
	}

	if state.VIPCycleStartDate != nil {
		b.WriteString(fmt.Sprintf("Цикл начат %s\n", formatCycleDate(*state.VIPCycleStartDate)))
	}

	h.sendMessage(chatID, b.String())
}

// formatCycleDate переводит ключ дня "2006-01-02" в привычный вид "02.01.2006".
func formatCycleDate(dayKey string) string {
	t, err := ParseDay(dayKey, time.UTC)
	if err != nil {
		return dayKey
	}
	return t.Format("02.01.2006")
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
