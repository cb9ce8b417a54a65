// Package admin реализует админ-панель с парольной аутентификацией.
// models.go описывает структуры сессий и попыток входа.
package admin

import "time"

// AdminSession — активная сессия администратора парка.
type AdminSession struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	SessionToken    string    `db:"session_token"`
	AuthenticatedAt time.Time `db:"authenticated_at"`
	ExpiresAt       time.Time `db:"expires_at"`
	LastActivity    time.Time `db:"last_activity"`
	IsActive        bool      `db:"is_active"`
}

// LoginAttempt — попытка входа (для защиты от brute-force).
type LoginAttempt struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	AttemptTime time.Time `db:"attempt_time"`
	Success     bool      `db:"success"`
}

// AdminState — состояние диалога с админом (конечный автомат).
// Панель работает по шагам: выбор действия → выбор водителя → ввод значения.
type AdminState struct {
	State     string      // Текущее состояние ("", "awaiting_password", "grant_select", ...)
	Data      interface{} // Данные контекста (список водителей, выбранный водитель)
	ExpiresAt time.Time   // Когда состояние истекает (5 минут)
}

// Возможные состояния админ-диалога
const (
	StateNone             = ""                   // Нет активного состояния
	StateAwaitingPassword = "awaiting_password"  // Ждём пароль
	StateGrantSelect      = "grant_select"       // Ждём выбор водителя для начисления
	StateGrantAmount      = "grant_amount"       // Ждём сумму начисления
	StatePayoutSelect     = "payout_select"      // Ждём выбор водителя для выплаты
	StatePayoutAmount     = "payout_amount"      // Ждём сумму выплаты
	StateCallSignSelect   = "call_sign_select"   // Ждём выбор водителя для позывного
	StateCallSignText     = "call_sign_text"     // Ждём текст позывного
)
