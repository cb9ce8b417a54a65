// Package earnings управляет бонусным счётом водителя.
// models.go описывает структуры для балансов и транзакций.
package earnings

import "time"

// Balance представляет бонусный счёт водителя.
// Каждый водитель имеет ровно одну запись в таблице balances.
type Balance struct {
	ID          int64     `db:"id"`           // ID записи
	DriverID    int64     `db:"driver_id"`    // Telegram user ID водителя
	Balance     int64     `db:"balance"`      // Текущий баланс в рублях (начинается с 0)
	TotalEarned int64     `db:"total_earned"` // Сколько всего начислено
	TotalPaid   int64     `db:"total_paid"`   // Сколько всего выплачено
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Transaction представляет одну операцию по бонусному счёту.
// Все движения средств (бонусы, выплаты, корректировки) записываются сюда.
type Transaction struct {
	ID              int64     `db:"id"`               // ID транзакции
	DriverID        int64     `db:"driver_id"`        // Водитель
	Amount          int64     `db:"amount"`           // Сумма (всегда положительная)
	TransactionType string    `db:"transaction_type"` // Тип: 'monthly_bonus', 'quarterly_bonus', и т.д.
	Description     string    `db:"description"`      // Описание для отображения
	CreatedAt       time.Time `db:"created_at"`       // Время транзакции
}

// TransactionTypes — допустимые типы транзакций
const (
	TxTypeMonthlyBonus   = "monthly_bonus"   // Месячный ВИП-бонус
	TxTypeQuarterlyBonus = "quarterly_bonus" // Квартальный ВИП-бонус
	TxTypeAdminGive      = "admin_give"      // Начисление админом
	TxTypePayout         = "payout"          // Выплата водителю
)
