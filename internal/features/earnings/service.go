// Package earnings — service.go содержит бизнес-логику бонусного счёта.
package earnings

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"vipdrive.ru/driver-bot/internal/common"
)

// Service предоставляет операции с бонусными счетами водителей.
type Service struct {
	repo *Repository
}

// NewService создаёт новый сервис бонусных счетов.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// EnsureBalance создаёт счёт для водителя, если его ещё нет.
// Вызывается при регистрации водителя в парке.
func (s *Service) EnsureBalance(ctx context.Context, driverID int64) error {
	return s.repo.CreateBalance(ctx, driverID)
}

// GetBalance возвращает текущий баланс водителя.
func (s *Service) GetBalance(ctx context.Context, driverID int64) (int64, error) {
	return s.repo.GetBalance(ctx, driverID)
}

// AddBalance начисляет сумму на счёт водителя.
// Используется ВИП-движком для бонусов и админкой для ручных начислений.
func (s *Service) AddBalance(ctx context.Context, driverID int64, amount int64, txType, description string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}

	if err := s.repo.AddBalance(ctx, driverID, amount, txType, description); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"driver_id": driverID,
		"amount":    amount,
		"type":      txType,
	}).Info("Начисление на бонусный счёт")
	return nil
}

// Payout списывает сумму со счёта при выплате водителю.
func (s *Service) Payout(ctx context.Context, driverID int64, amount int64, description string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}

	ok, err := s.repo.DeductBalance(ctx, driverID, amount, TxTypePayout, description)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrInsufficientBalance
	}

	log.WithFields(log.Fields{
		"driver_id": driverID,
		"amount":    amount,
	}).Info("Выплата с бонусного счёта")
	return nil
}

// GetTransactionHistory возвращает отформатированную историю последних
// транзакций водителя.
func (s *Service) GetTransactionHistory(ctx context.Context, driverID int64) (string, error) {
	list, err := s.repo.GetTransactions(ctx, driverID, 10)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "📋 Транзакций пока нет", nil
	}

	var b strings.Builder
	b.WriteString("📋 Последние транзакции:\n\n")
	for _, t := range list {
		sign := "+"
		if t.TransactionType == TxTypePayout {
			sign = "-"
		}
		b.WriteString(fmt.Sprintf("%s %s%s — %s\n",
			t.CreatedAt.Format("02.01 15:04"), sign, common.FormatMoney(t.Amount), t.Description))
	}
	return b.String(), nil
}
