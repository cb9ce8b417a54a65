// Package vip — clock.go абстрагирует источник времени и календарные
// предикаты (тот же день? тот же месяц? сколько дней прошло?).
// В тестах подменяется фейковыми часами для детерминированной прокрутки времени.
package vip

import (
	"time"
)

// Форматы ключей дат в State. Лексикографический порядок ключей
// совпадает с хронологическим — этим пользуется проверка границы дня.
const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// Clock — источник настенного времени.
type Clock interface {
	Now() time.Time
}

// systemClock — реальные часы, привязанные к часовому поясу автопарка.
type systemClock struct {
	loc *time.Location
}

// NewSystemClock создаёт системные часы в заданном часовом поясе.
func NewSystemClock(loc *time.Location) Clock {
	return &systemClock{loc: loc}
}

func (c *systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// DayKey возвращает ключ календарного дня: "2006-01-02".
func DayKey(t time.Time) string {
	return t.Format(dayLayout)
}

// MonthKey возвращает ключ календарного месяца: "2006-01".
func MonthKey(t time.Time) string {
	return t.Format(monthLayout)
}

// ParseDay разбирает ключ дня обратно во время (полночь в поясе loc).
func ParseDay(key string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dayLayout, key, loc)
}

// StartOfDay возвращает полночь того же календарного дня.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay возвращает полночь следующего дня — верхнюю границу дня t.
// AddDate вместо Add(24h) — корректно переживает переводы часов.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}

// FirstDayOfMonth возвращает ключ первого дня месяца по ключу месяца:
// "2026-03" → "2026-03-01".
func FirstDayOfMonth(monthKey string) string {
	return monthKey + "-01"
}

// DaysSince возвращает число полных календарных дней от дня fromKey до
// момента now. Некорректный ключ или будущая дата дают 0 — вызывающий
// трактует это как «цикл ещё не истёк».
func DaysSince(fromKey string, now time.Time) int {
	from, err := ParseDay(fromKey, now.Location())
	if err != nil {
		return 0
	}
	days := int(StartOfDay(now).Sub(from).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
