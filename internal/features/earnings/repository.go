// Package earnings — repository.go выполняет все операции с таблицами
// balances и transactions. Все денежные операции выполняются
// в транзакциях БД для целостности данных.
package earnings

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository предоставляет методы для работы с балансами и транзакциями.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий бонусных счетов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateBalance создаёт начальный счёт для нового водителя.
// Начальный баланс всегда 0 рублей.
func (r *Repository) CreateBalance(ctx context.Context, driverID int64) error {
	query := `
		INSERT INTO balances (driver_id, balance, total_earned, total_paid)
		VALUES ($1, 0, 0, 0)
		ON CONFLICT (driver_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, driverID)
	if err != nil {
		return fmt.Errorf("ошибка создания счёта: %w", err)
	}
	return nil
}

// GetBalance возвращает текущий баланс водителя.
func (r *Repository) GetBalance(ctx context.Context, driverID int64) (int64, error) {
	query := `SELECT balance FROM balances WHERE driver_id = $1`
	var balance int64
	err := r.db.QueryRow(ctx, query, driverID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	return balance, nil
}

// AddBalance начисляет сумму на счёт водителя и записывает транзакцию.
// Обновление баланса и запись журнала выполняются в одной транзакции БД.
func (r *Repository) AddBalance(ctx context.Context, driverID int64, amount int64, txType, description string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// Счёт мог ещё не существовать (бонус до первой команды водителя)
	_, err = tx.Exec(ctx, `
		INSERT INTO balances (driver_id, balance, total_earned, total_paid)
		VALUES ($1, 0, 0, 0)
		ON CONFLICT (driver_id) DO NOTHING
	`, driverID)
	if err != nil {
		return fmt.Errorf("ошибка создания счёта: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE balances
		SET balance = balance + $2, total_earned = total_earned + $2, updated_at = NOW()
		WHERE driver_id = $1
	`, driverID, amount)
	if err != nil {
		return fmt.Errorf("ошибка начисления: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (driver_id, amount, transaction_type, description)
		VALUES ($1, $2, $3, $4)
	`, driverID, amount, txType, description)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return tx.Commit(ctx)
}

// DeductBalance списывает сумму со счёта водителя и записывает транзакцию.
// Возвращает ошибку, если на счёте недостаточно средств (баланс ушёл бы
// в минус) — проверка делается условием UPDATE.
func (r *Repository) DeductBalance(ctx context.Context, driverID int64, amount int64, txType, description string) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
		UPDATE balances
		SET balance = balance - $2, total_paid = total_paid + $2, updated_at = NOW()
		WHERE driver_id = $1 AND balance >= $2
	`, driverID, amount)
	if err != nil {
		return false, fmt.Errorf("ошибка списания: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (driver_id, amount, transaction_type, description)
		VALUES ($1, $2, $3, $4)
	`, driverID, amount, txType, description)
	if err != nil {
		return false, fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// GetTransactions возвращает последние limit транзакций водителя,
// новые первыми.
func (r *Repository) GetTransactions(ctx context.Context, driverID int64, limit int) ([]Transaction, error) {
	query := `
		SELECT id, driver_id, amount, transaction_type, description, created_at
		FROM transactions
		WHERE driver_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, driverID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения транзакций: %w", err)
	}
	defer rows.Close()

	var list []Transaction
	for rows.Next() {
		var t Transaction
		var createdAt time.Time
		if err := rows.Scan(&t.ID, &t.DriverID, &t.Amount, &t.TransactionType, &t.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования транзакции: %w", err)
		}
		t.CreatedAt = createdAt
		list = append(list, t)
	}
	return list, rows.Err()
}

// TotalEarned возвращает сумму всех начислений водителя.
func (r *Repository) TotalEarned(ctx context.Context, driverID int64) (int64, error) {
	query := `SELECT total_earned FROM balances WHERE driver_id = $1`
	var total int64
	err := r.db.QueryRow(ctx, query, driverID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения суммы начислений: %w", err)
	}
	return total, nil
}
