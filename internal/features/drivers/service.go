// Package drivers — service.go содержит бизнес-логику управления водителями.
// Сервис координирует регистрацию новых водителей, проверку членства
// и обновление информации.
package drivers

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Service управляет водителями парка.
// Связывает обработчики Telegram-событий с репозиторием БД.
type Service struct {
	repo *Repository // Репозиторий для работы с таблицей drivers
}

// NewService создаёт новый сервис водителей.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// HandleNewDriver обрабатывает вступление нового водителя в чат парка.
// Если водитель уже есть в базе (перезашёл) — обновляет его данные.
// Если водитель новый — создаёт запись.
func (s *Service) HandleNewDriver(ctx context.Context, userID int64, username, firstName, lastName string) error {
	// Проверяем, есть ли уже в базе
	existing, _ := s.repo.GetByUserID(ctx, userID)
	if existing != nil {
		// Водитель уже зарегистрирован — обновляем данные
		log.WithField("user_id", userID).Info("Водитель перезашёл в чат, обновляем данные")
		return s.repo.UpdateInfo(ctx, userID, UpdateInfo{
			Username:  username,
			FirstName: firstName,
			LastName:  lastName,
		})
	}

	// Создаём нового водителя
	driver := &Driver{
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		IsBanned:  false,
	}

	if err := s.repo.Create(ctx, driver); err != nil {
		return fmt.Errorf("ошибка регистрации нового водителя: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"username": username,
	}).Info("Новый водитель зарегистрирован")

	return nil
}

// IsDriver проверяет, зарегистрирован ли пользователь как водитель парка.
// Используется для валидации доступа к DM.
func (s *Service) IsDriver(ctx context.Context, userID int64) (bool, error) {
	return s.repo.Exists(ctx, userID)
}

// GetByUserID возвращает водителя по его Telegram user ID.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*Driver, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// GetByUsername возвращает водителя по @username (без @).
func (s *Service) GetByUsername(ctx context.Context, username string) (*Driver, error) {
	return s.repo.GetByUsername(ctx, username)
}

// EnsureDriver гарантирует, что водитель есть в базе.
// Если нет — создаёт запись. Используется при первой команде в чате.
func (s *Service) EnsureDriver(ctx context.Context, userID int64, username, firstName, lastName string) error {
	exists, err := s.repo.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.HandleNewDriver(ctx, userID, username, firstName, lastName)
}

// SetCallSign назначает водителю позывной.
func (s *Service) SetCallSign(ctx context.Context, userID int64, callSign string) error {
	return s.repo.UpdateCallSign(ctx, userID, callSign)
}

// SetBanned отстраняет водителя от программы или возвращает в неё.
func (s *Service) SetBanned(ctx context.Context, userID int64, banned bool) error {
	return s.repo.SetBanned(ctx, userID, banned)
}

// GetActive возвращает всех неотстранённых водителей.
func (s *Service) GetActive(ctx context.Context) ([]*Driver, error) {
	return s.repo.GetActive(ctx)
}

// Count возвращает общее число водителей в базе.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
