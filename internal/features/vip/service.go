// Package vip — service.go связывает движок с хранилищем и заработком.
// Сервис владеет кешем состояний: мутация сначала применяется в памяти
// (последующие чтения в том же процессе сразу видят новое состояние),
// затем делается best-effort сохранение — ошибка записи логируется,
// запись повторится при следующей мутации.
package vip

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"vipdrive.ru/driver-bot/internal/config"
	"vipdrive.ru/driver-bot/internal/features/earnings"
)

// Service управляет ВИП-состояниями всех водителей автопарка.
// Один мьютекс сериализует мутации: у записи один логический владелец,
// а горутины бота и крона сходятся здесь.
type Service struct {
	repo            *Repository       // Хранилище блобов состояния
	earningsService *earnings.Service // Сервис заработка для начисления бонусов
	cfg             *config.Config    // Конфигурация
	rules           Rules             // Пороги и таблицы бонусов
	clock           Clock             // Источник времени (подменяется в тестах)

	mu     sync.Mutex
	states map[int64]*State // Кеш состояний по driver_id
}

// NewService создаёт новый сервис ВИП-статусов.
func NewService(repo *Repository, earningsService *earnings.Service, cfg *config.Config, clock Clock) *Service {
	return &Service{
		repo:            repo,
		earningsService: earningsService,
		cfg:             cfg,
		rules:           RulesFromConfig(cfg),
		clock:           clock,
		states:          make(map[int64]*State),
	}
}

// earningsSink адаптирует сервис заработка под приёмник бонусов движка.
type earningsSink struct {
	earnings *earnings.Service
}

func (s *earningsSink) GrantBonus(ctx context.Context, driverID int64, amount int64, reason, description string) error {
	return s.earnings.AddBalance(ctx, driverID, amount, reason, description)
}

// engineFor возвращает движок над состоянием водителя.
// Запись создаётся при первой активности; нечитаемый блоб трактуется
// как отсутствующий — движок начинает со свежего состояния.
// Вызывается только под s.mu.
func (s *Service) engineFor(ctx context.Context, driverID int64) *Engine {
	state, ok := s.states[driverID]
	if !ok {
		blob, err := s.repo.Load(ctx, driverID)
		if err != nil {
			log.WithError(err).WithField("driver_id", driverID).
				Error("Ошибка загрузки ВИП-состояния — работаем со свежим")
		}
		if blob != nil {
			state, err = DecodeState(blob, s.clock.Now().Location())
			if err != nil {
				log.WithError(err).WithField("driver_id", driverID).
					Warn("ВИП-состояние не читается — начинаем заново")
				state = nil
			}
		}
		if state == nil {
			state = NewState(s.clock.Now())
		}
		s.states[driverID] = state
	}
	return NewEngine(driverID, state, s.rules, s.clock, &earningsSink{earnings: s.earningsService})
}

// persist сохраняет состояние водителя best-effort: ошибка логируется,
// мутация в памяти не откатывается.
// Вызывается только под s.mu.
func (s *Service) persist(ctx context.Context, driverID int64) {
	state, ok := s.states[driverID]
	if !ok {
		return
	}
	blob, err := EncodeState(state)
	if err != nil {
		log.WithError(err).WithField("driver_id", driverID).Error("Ошибка сериализации ВИП-состояния")
		return
	}
	if err := s.repo.Save(ctx, driverID, blob); err != nil {
		log.WithError(err).WithField("driver_id", driverID).
			Error("Ошибка сохранения ВИП-состояния — повторим при следующей мутации")
	}
}

// Rules возвращает действующие пороги и таблицы бонусов.
func (s *Service) Rules() Rules {
	return s.rules
}

// GoOnline отмечает выход водителя на линию.
func (s *Service) GoOnline(ctx context.Context, driverID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engineFor(ctx, driverID).GoOnline(ctx)
	s.persist(ctx, driverID)
}

// GoOffline отмечает уход водителя с линии.
func (s *Service) GoOffline(ctx context.Context, driverID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engineFor(ctx, driverID).GoOffline(ctx)
	s.persist(ctx, driverID)
}

// RegisterRide засчитывает завершённую поездку.
func (s *Service) RegisterRide(ctx context.Context, driverID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engineFor(ctx, driverID).RegisterRide(ctx)
	s.persist(ctx, driverID)
}

// AddOnlineHours добавляет онлайн-часы напрямую (админка, интеграции).
func (s *Service) AddOnlineHours(ctx context.Context, driverID int64, hours float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engineFor(ctx, driverID).AddOnlineHours(ctx, hours); err != nil {
		return err
	}
	s.persist(ctx, driverID)
	return nil
}

// ForceDayCheck немедленно выполняет проверку границы дня.
func (s *Service) ForceDayCheck(ctx context.Context, driverID int64) DayResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.engineFor(ctx, driverID).ForceDayCheck(ctx)
	s.persist(ctx, driverID)
	return res
}

// ForceMonthCheck немедленно выполняет проверку границ месяца и цикла.
func (s *Service) ForceMonthCheck(ctx context.Context, driverID int64) MonthResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.engineFor(ctx, driverID).ForceMonthCheck(ctx)
	s.persist(ctx, driverID)
	return res
}

// Status возвращает снимок состояния водителя (после проверки границ,
// чтобы показывать актуальные счётчики).
func (s *Service) Status(ctx context.Context, driverID int64) *State {
	s.mu.Lock()
	defer s.mu.Unlock()

	engine := s.engineFor(ctx, driverID)
	engine.ForceDayCheck(ctx)
	s.persist(ctx, driverID)

	snapshot := *engine.State()
	snapshot.QualifiedDaysHistory = append([]int(nil), engine.State().QualifiedDaysHistory...)
	return &snapshot
}

// Flush синхронно сохраняет состояние водителя и возвращает ошибку записи.
// Явная граница транзакции — используется на shutdown.
func (s *Service) Flush(ctx context.Context, driverID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[driverID]
	if !ok {
		return nil
	}
	blob, err := EncodeState(state)
	if err != nil {
		return err
	}
	return s.repo.Save(ctx, driverID, blob)
}

// FlushAll сохраняет все закешированные состояния. Вызывается на shutdown.
func (s *Service) FlushAll(ctx context.Context) error {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.states))
	for id := range s.states {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	var firstErr error
	for _, id := range ids {
		if err := s.Flush(ctx, id); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("flush driver %d: %w", id, err)
		}
	}
	return firstErr
}

// RunDailyChecks выполняет проверку границы дня для всех водителей.
// Запускается кроном сразу после полуночи, чтобы дни закрывались
// вовремя даже у водителей без активности.
func (s *Service) RunDailyChecks(ctx context.Context) error {
	ids, err := s.repo.AllDriverIDs(ctx)
	if err != nil {
		return fmt.Errorf("ошибка обхода водителей: %w", err)
	}

	closed := 0
	for _, id := range ids {
		if res := s.ForceDayCheck(ctx, id); res.Closed {
			closed++
		}
	}

	log.WithFields(log.Fields{
		"total":  len(ids),
		"closed": closed,
	}).Info("Полуночный обход завершён")
	return nil
}

// RunMonthlyChecks выполняет проверку границ месяца и цикла для всех
// водителей. Запускается кроном первого числа каждого месяца.
func (s *Service) RunMonthlyChecks(ctx context.Context) error {
	ids, err := s.repo.AllDriverIDs(ctx)
	if err != nil {
		return fmt.Errorf("ошибка обхода водителей: %w", err)
	}

	resets := 0
	for _, id := range ids {
		if res := s.ForceMonthCheck(ctx, id); res.CycleReset {
			resets++
		}
	}

	log.WithFields(log.Fields{
		"total":        len(ids),
		"cycle_resets": resets,
	}).Info("Месячный обход завершён")
	return nil
}
