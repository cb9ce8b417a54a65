// Package drivers — repository.go отвечает за все операции с таблицей drivers в БД.
// Каждая функция выполняет один SQL-запрос и возвращает результат или ошибку.
package drivers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create добавляет нового водителя в таблицу drivers.
// На конфликте по user_id обновляет только имя/username (не трогает позывной/бан).
func (r *Repository) Create(ctx context.Context, d *Driver) error {
	query := `
		INSERT INTO drivers (user_id, username, first_name, last_name, call_sign, is_banned, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query,
		d.UserID, d.Username, d.FirstName, d.LastName,
		d.CallSign, d.IsBanned, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("ошибка создания/обновления водителя: %w", err)
	}
	return nil
}

// GetByUserID: если не найден — ошибка с pgx.ErrNoRows (errors.Is(err, pgx.ErrNoRows) == true)
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*Driver, error) {
	query := `
		SELECT id, user_id, username, first_name, last_name, call_sign, is_banned,
		       joined_at, created_at, updated_at
		FROM drivers
		WHERE user_id = $1
	`
	var d Driver
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&d.ID, &d.UserID, &d.Username, &d.FirstName, &d.LastName,
		&d.CallSign, &d.IsBanned,
		&d.JoinedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("водитель не найден (user_id=%d): %w", userID, err)
		}
		return nil, fmt.Errorf("ошибка чтения водителя (user_id=%d): %w", userID, err)
	}
	return &d, nil
}

// GetByUsername: если не найден — ошибка с pgx.ErrNoRows
func (r *Repository) GetByUsername(ctx context.Context, username string) (*Driver, error) {
	query := `
		SELECT id, user_id, username, first_name, last_name, call_sign, is_banned,
		       joined_at, created_at, updated_at
		FROM drivers
		WHERE LOWER(username) = LOWER($1)
	`
	var d Driver
	err := r.db.QueryRow(ctx, query, username).Scan(
		&d.ID, &d.UserID, &d.Username, &d.FirstName, &d.LastName,
		&d.CallSign, &d.IsBanned,
		&d.JoinedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("водитель не найден (username=%s): %w", username, err)
		}
		return nil, fmt.Errorf("ошибка чтения водителя (username=%s): %w", username, err)
	}
	return &d, nil
}

func (r *Repository) Exists(ctx context.Context, userID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM drivers WHERE user_id = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки существования: %w", err)
	}
	return exists, nil
}

func (r *Repository) UpdateInfo(ctx context.Context, userID int64, info UpdateInfo) error {
	query := `
		UPDATE drivers
		SET username = $2, first_name = $3, last_name = $4, updated_at = NOW()
		WHERE user_id = $1
	`
	if _, err := r.db.Exec(ctx, query, userID, info.Username, info.FirstName, info.LastName); err != nil {
		return fmt.Errorf("ошибка обновления данных водителя: %w", err)
	}
	return nil
}

func (r *Repository) UpdateCallSign(ctx context.Context, userID int64, callSign string) error {
	query := `UPDATE drivers SET call_sign = $2, updated_at = NOW() WHERE user_id = $1`
	if _, err := r.db.Exec(ctx, query, userID, callSign); err != nil {
		return fmt.Errorf("ошибка обновления позывного: %w", err)
	}
	return nil
}

func (r *Repository) SetBanned(ctx context.Context, userID int64, banned bool) error {
	query := `UPDATE drivers SET is_banned = $2, updated_at = NOW() WHERE user_id = $1`
	if _, err := r.db.Exec(ctx, query, userID, banned); err != nil {
		return fmt.Errorf("ошибка обновления флага отстранения: %w", err)
	}
	return nil
}

// GetActive возвращает всех неотстранённых водителей парка.
func (r *Repository) GetActive(ctx context.Context) ([]*Driver, error) {
	query := `
		SELECT id, user_id, username, first_name, last_name, call_sign, is_banned,
		       joined_at, created_at, updated_at
		FROM drivers
		WHERE is_banned = FALSE
		ORDER BY first_name
	`
	return r.queryDrivers(ctx, query)
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM drivers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта водителей: %w", err)
	}
	return n, nil
}

func (r *Repository) queryDrivers(ctx context.Context, query string, args ...interface{}) ([]*Driver, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса водителей: %w", err)
	}
	defer rows.Close()

	var out []*Driver
	for rows.Next() {
		var d Driver
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.Username, &d.FirstName, &d.LastName,
			&d.CallSign, &d.IsBanned,
			&d.JoinedAt, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}

	return out, nil
}
