// Package common — format.go содержит вспомогательные функции
// для форматирования денежных сумм.
// Основная логика плюрализации реализована в helpers.go,
// этот файл экспортирует дополнительные утилиты.
package common

import "fmt"

// FormatMoney форматирует сумму в читабельную строку с разделителями тысяч.
// Пример: FormatMoney(2350) → "2 350 ₽"
func FormatMoney(amount int64) string {
	return FormatNumber(amount) + " ₽"
}

// FormatMoneySigned создаёт строку вида "+1 500 ₽" или "-500 ₽".
// Знак «+» или «-» добавляется автоматически.
func FormatMoneySigned(amount int64) string {
	if amount >= 0 {
		return "+" + FormatMoney(amount)
	}
	return "-" + FormatMoney(-amount)
}

// FormatNumber форматирует число с разделителями тысяч (пробелами).
// Пример: FormatNumber(2350) → "2 350"
func FormatNumber(n int64) string {
	// Простая реализация для чисел до миллиарда
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	// Рекурсивно добавляем разделители
	rest := n / 1000
	last := n % 1000

	if rest > 0 {
		return fmt.Sprintf("%s %03d", FormatNumber(rest), last)
	}
	return fmt.Sprintf("%d", last)
}
