// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: полуночное закрытие дня
// и месячное закрытие первого числа.
package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"vipdrive.ru/driver-bot/internal/common"
	"vipdrive.ru/driver-bot/internal/features/vip"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron       *cron.Cron
	vipService *vip.Service
	tz         string
}

// NewScheduler создаёт планировщик задач в часовом поясе автопарка.
func NewScheduler(vipService *vip.Service, timezone string) *Scheduler {
	loc := common.LoadTimezone(timezone)
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:       c,
		vipService: vipService,
		tz:         loc.String(),
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Закрытие дня в 00:00 — дни закрываются вовремя даже у водителей
	// без активности после полуночи
	s.cron.AddFunc("0 0 * * *", func() {
		log.Info("[CRON] Полуночное закрытие дня")
		if err := s.vipService.RunDailyChecks(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка закрытия дня")
		}
	})

	// Закрытие месяца в 00:05 первого числа.
	// Полуночный обход уже закрыл месяц при закрытии дня; этот прогон
	// добирает проверку истечения ВИП-цикла.
	s.cron.AddFunc("5 0 1 * *", func() {
		log.Info("[CRON] Месячное закрытие")
		if err := s.vipService.RunMonthlyChecks(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка закрытия месяца")
		}
	})

	s.cron.Start()
	log.WithField("timezone", s.tz).Info("Планировщик задач запущен")
}

// Stop останавливает планировщик.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
