// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, форматирование сумм и дат, работа с временем.
package common

import (
	"fmt"
	"math"
	"time"
)

// PluralizeDays возвращает правильную форму слова «день» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "день" (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → "дня" (2, 3, 4, 22, ...)
//   - Остальные случаи → "дней" (0, 5-20, 25-30, 100, ...)
func PluralizeDays(n int) string {
	absN := int(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "день"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "дня"
	}
	return "дней"
}

// PluralizeRides возвращает правильную форму слова «поездка».
//
// Примеры:
//
//	PluralizeRides(1)  → "поездка"
//	PluralizeRides(3)  → "поездки"
//	PluralizeRides(5)  → "поездок"
//	PluralizeRides(21) → "поездка"
func PluralizeRides(n int) string {
	absN := int(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "поездка"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "поездки"
	}
	return "поездок"
}

// PluralizeMonths возвращает правильную форму слова «месяц».
func PluralizeMonths(n int) string {
	absN := int(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "месяц"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "месяца"
	}
	return "месяцев"
}

// LoadTimezone загружает часовой пояс по имени (например "Europe/Moscow").
// Если загрузить не удалось — возвращает фиксированный UTC+3,
// чтобы бот не падал на системах без tzdata.
func LoadTimezone(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04" (день.месяц.год часы:минуты).
// Используется для отображения дат транзакций.
func FormatDateTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02.01.2006 15:04")
}

// FormatHours форматирует количество часов с одним знаком после запятой.
// Пример: FormatHours(9.25) → "9.2 ч"
func FormatHours(h float64) string {
	return fmt.Sprintf("%.1f ч", h)
}
