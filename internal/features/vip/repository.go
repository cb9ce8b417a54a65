// Package vip — repository.go хранит блобы состояния в таблице vip_states.
// Таблица — простое key-value: driver_id → JSONB, по записи на водителя.
package vip

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository предоставляет методы для работы с таблицей vip_states.
// Реализует интерфейс Store.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий ВИП-состояний.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Load возвращает сохранённый блоб состояния водителя.
// Если записи нет — (nil, nil): движок начнёт со свежего состояния.
func (r *Repository) Load(ctx context.Context, driverID int64) ([]byte, error) {
	query := `SELECT state FROM vip_states WHERE driver_id = $1`

	var blob []byte
	err := r.db.QueryRow(ctx, query, driverID).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ВИП-состояния (driver_id=%d): %w", driverID, err)
	}
	return blob, nil
}

// Save сохраняет блоб состояния водителя (upsert).
func (r *Repository) Save(ctx context.Context, driverID int64, blob []byte) error {
	query := `
		INSERT INTO vip_states (driver_id, state, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (driver_id)
		DO UPDATE SET state = EXCLUDED.state, updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, driverID, blob)
	if err != nil {
		return fmt.Errorf("ошибка сохранения ВИП-состояния (driver_id=%d): %w", driverID, err)
	}
	return nil
}

// AllDriverIDs возвращает идентификаторы всех водителей с состоянием.
// Используется кроном для полуночного обхода.
func (r *Repository) AllDriverIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT driver_id FROM vip_states ORDER BY driver_id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка водителей: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка сканирования: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
