// Package vip — engine.go содержит сам движок: учёт активности,
// закрытие дня, закрытие месяца и проверку истечения ВИП-цикла.
//
// Движок работает над одной записью State одного водителя и не знает
// про хранилище: загрузка и сохранение — забота сервиса (service.go).
// Все публичные методы сначала выполняют проверку границы дня, чтобы
// активность всегда попадала в правильный календарный день.
package vip

import (
	"context"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"vipdrive.ru/driver-bot/internal/common"
)

// RewardSink принимает начисления бонусов. Реализуется сервисом
// заработка; в тестах — записывающей заглушкой.
type RewardSink interface {
	GrantBonus(ctx context.Context, driverID int64, amount int64, reason, description string) error
}

// Engine — ВИП-движок одного водителя.
// НЕ потокобезопасен: предполагается один логический владелец записи,
// внешняя сериализация — на уровне сервиса.
type Engine struct {
	driverID int64
	rules    Rules
	clock    Clock
	sink     RewardSink
	state    *State
}

// NewEngine создаёт движок над существующим состоянием.
func NewEngine(driverID int64, state *State, rules Rules, clock Clock, sink RewardSink) *Engine {
	return &Engine{
		driverID: driverID,
		rules:    rules,
		clock:    clock,
		sink:     sink,
		state:    state,
	}
}

// State возвращает текущее состояние (для сохранения и отображения).
func (e *Engine) State() *State {
	return e.state
}

// AddOnlineHours добавляет часы к активному дневному счётчику.
// Неположительные, NaN и Inf значения отклоняются без частичной мутации.
func (e *Engine) AddOnlineHours(ctx context.Context, hours float64) error {
	if hours <= 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return common.ErrInvalidHours
	}
	e.rolloverIfNeeded(ctx)
	e.state.HoursOnline += hours
	return nil
}

// GoOnline отмечает выход водителя на линию.
// Повторный вызов на линии — no-op, чтобы не терять начало сессии.
func (e *Engine) GoOnline(ctx context.Context) {
	e.rolloverIfNeeded(ctx)
	if e.state.IsCurrentlyOnline {
		return
	}
	now := e.clock.Now()
	e.state.IsCurrentlyOnline = true
	e.state.LastOnlineTime = &now
}

// GoOffline отмечает уход с линии: прошедшее с выхода время
// доначисляется в часы текущего дня.
func (e *Engine) GoOffline(ctx context.Context) {
	e.rolloverIfNeeded(ctx)
	if !e.state.IsCurrentlyOnline {
		return
	}
	if e.state.LastOnlineTime != nil {
		elapsed := e.clock.Now().Sub(*e.state.LastOnlineTime).Hours()
		if elapsed > 0 {
			e.state.HoursOnline += elapsed
		}
	}
	e.state.IsCurrentlyOnline = false
	e.state.LastOnlineTime = nil
}

// RegisterRide засчитывает одну завершённую поездку.
func (e *Engine) RegisterRide(ctx context.Context) {
	e.rolloverIfNeeded(ctx)
	e.state.RidesToday++
}

// ForceDayCheck немедленно выполняет проверку границы дня.
// Используется планировщиком (крон в полночь), админкой и тестами.
func (e *Engine) ForceDayCheck(ctx context.Context) DayResult {
	return e.rolloverIfNeeded(ctx)
}

// ForceMonthCheck немедленно выполняет проверку границ дня/месяца
// и дополнительно — проверку истечения ВИП-цикла, даже если
// месячная граница не пересекалась.
func (e *Engine) ForceMonthCheck(ctx context.Context) MonthResult {
	day := e.rolloverIfNeeded(ctx)

	var res MonthResult
	if day.Month != nil {
		res = *day.Month
	} else {
		res.QualifiedDays = e.state.QualifiedDaysThisMonth
		res.ConsecutiveMonths = e.state.ConsecutiveQualifiedMonths
	}

	if e.checkCycleExpiry(e.clock.Now()) {
		res.CycleReset = true
		res.ConsecutiveMonths = 0
	}
	return res
}

// rolloverIfNeeded сравнивает сохранённый CurrentDay с сегодняшним днём
// и при пересечении границы закрывает день (и, возможно, месяц).
//
// Долгий простой схлопывается в ОДНО закрытие: квалификация оценивается
// только у закрываемого дня, пропущенные дни задним числом не
// квалифицируются.
func (e *Engine) rolloverIfNeeded(ctx context.Context) DayResult {
	now := e.clock.Now()
	today := DayKey(now)

	if e.state.CurrentDay == today {
		return DayResult{QualifiedDays: e.state.QualifiedDaysThisMonth}
	}

	// Часы ушли назад относительно сохранённого дня — границу не считаем
	// пересечённой, ждём пока время догонит. Иначе откат часов ломал бы
	// квалификацию валидных дней.
	if today < e.state.CurrentDay {
		log.WithFields(log.Fields{
			"driver_id":   e.driverID,
			"current_day": e.state.CurrentDay,
			"today":       today,
		}).Warn("Часы идут назад — границу дня игнорируем")
		return DayResult{QualifiedDays: e.state.QualifiedDaysThisMonth}
	}

	return e.closeDay(ctx, now)
}

// closeDay закрывает день CurrentDay и открывает сегодняшний.
//
// Порядок важен:
//  1. доначислить онлайн-время закрываемого дня (до его полуночи);
//  2. оценить квалификацию закрываемого дня;
//  3. если сменился месяц — закрыть месяц ДО сброса дневных счётчиков;
//  4. обнулить дневные счётчики и открыть новый день.
func (e *Engine) closeDay(ctx context.Context, now time.Time) DayResult {
	// Водитель был на линии через полночь: время до конца закрываемого дня
	// относится к нему, отсчёт для нового дня начинается с его полуночи.
	if e.state.IsCurrentlyOnline && e.state.LastOnlineTime != nil {
		if dayStart, err := ParseDay(e.state.CurrentDay, now.Location()); err == nil {
			dayEnd := EndOfDay(dayStart)
			elapsed := dayEnd.Sub(*e.state.LastOnlineTime).Hours()
			if elapsed > 0 {
				e.state.HoursOnline += elapsed
			}
		}
		fresh := StartOfDay(now)
		e.state.LastOnlineTime = &fresh
	}

	qualified := e.rules.IsDayQualified(e.state.HoursOnline, e.state.RidesToday)
	if qualified {
		e.state.QualifiedDaysThisMonth++
	}

	log.WithFields(log.Fields{
		"driver_id":      e.driverID,
		"day":            e.state.CurrentDay,
		"hours":          e.state.HoursOnline,
		"rides":          e.state.RidesToday,
		"qualified":      qualified,
		"qualified_days": e.state.QualifiedDaysThisMonth,
	}).Debug("День закрыт")

	res := DayResult{
		Closed:        true,
		Qualified:     qualified,
		QualifiedDays: e.state.QualifiedDaysThisMonth,
	}

	// Граница месяца пересечена — закрываем месяц с финальным счётчиком
	// квалифицированных дней, пока дневное состояние не сброшено.
	if MonthKey(now) != e.state.CurrentMonth {
		month := e.closeMonth(ctx, now)
		res.Month = &month
	}

	e.state.HoursOnline = 0
	e.state.RidesToday = 0
	e.state.CurrentDay = DayKey(now)

	return res
}

// closeMonth закрывает месяц CurrentMonth: начисляет месячный бонус,
// обновляет серию квалифицированных месяцев, начисляет квартальный бонус,
// проверяет истечение цикла и открывает новый месяц.
func (e *Engine) closeMonth(ctx context.Context, now time.Time) MonthResult {
	days := e.state.QualifiedDaysThisMonth
	res := MonthResult{QualifiedDays: days}

	// 1. Месячный бонус по таблице ступеней
	if amount := e.rules.MonthlyBonus(days); amount > 0 {
		res.MonthlyBonus = amount
		desc := fmt.Sprintf("Месячный бонус за %s (%d дн.)", e.state.CurrentMonth, days)
		e.grant(ctx, amount, ReasonMonthlyBonus, desc)
	}

	// 2. Засчитывается ли месяц в серию
	if days >= e.rules.MonthQualifyDays {
		e.state.QualifiedDaysHistory = append(e.state.QualifiedDaysHistory, days)
		e.state.ConsecutiveQualifiedMonths++

		// Первый засчитанный месяц открывает ВИП-цикл,
		// отсчёт — с первого дня закрытого месяца.
		if e.state.VIPCycleStartDate == nil {
			start := FirstDayOfMonth(e.state.CurrentMonth)
			e.state.VIPCycleStartDate = &start
			log.WithFields(log.Fields{
				"driver_id":   e.driverID,
				"cycle_start": start,
			}).Info("Открыт новый ВИП-цикл")
		}
	} else {
		// Серия прервана
		e.state.ConsecutiveQualifiedMonths = 0
		e.state.QualifiedDaysHistory = nil
	}

	// 3. Завершённый квартал (каждые 3 месяца серии) — квартальный бонус
	if m := e.state.ConsecutiveQualifiedMonths; m > 0 && m%3 == 0 {
		if amount := e.rules.QuarterlyBonus(m); amount > 0 {
			res.QuarterlyBonus = amount
			desc := fmt.Sprintf("Квартальный бонус за серию %d мес.", m)
			e.grant(ctx, amount, ReasonQuarterlyBonus, desc)
		}
	}

	res.ConsecutiveMonths = e.state.ConsecutiveQualifiedMonths

	log.WithFields(log.Fields{
		"driver_id":          e.driverID,
		"month":              e.state.CurrentMonth,
		"qualified_days":     days,
		"monthly_bonus":      res.MonthlyBonus,
		"quarterly_bonus":    res.QuarterlyBonus,
		"consecutive_months": res.ConsecutiveMonths,
	}).Info("Месяц закрыт")

	// 4. Проверка истечения 360-дневного цикла
	if e.checkCycleExpiry(now) {
		res.CycleReset = true
		res.ConsecutiveMonths = 0
	}

	// 5. Открываем новый месяц
	e.state.QualifiedDaysThisMonth = 0
	e.state.CurrentMonth = MonthKey(now)

	return res
}

// checkCycleExpiry выполняет полный сброс прогресса, если с начала
// ВИП-цикла прошло CycleDays и больше дней. Идемпотентна: на цикле,
// не достигшем порога, ничего не меняет — сколь угодно длинная серия
// месяцев сама по себе сброс не вызывает.
func (e *Engine) checkCycleExpiry(now time.Time) bool {
	if e.state.VIPCycleStartDate == nil {
		return false
	}
	if DaysSince(*e.state.VIPCycleStartDate, now) < e.rules.CycleDays {
		return false
	}

	log.WithFields(log.Fields{
		"driver_id":   e.driverID,
		"cycle_start": *e.state.VIPCycleStartDate,
		"cycle_days":  e.rules.CycleDays,
	}).Info("ВИП-цикл истёк — полный сброс прогресса")

	e.state.ConsecutiveQualifiedMonths = 0
	e.state.VIPCycleStartDate = nil
	e.state.QualifiedDaysHistory = nil
	e.state.QualifiedDaysThisMonth = 0
	e.state.PeriodStartDate = DayKey(now)
	return true
}

// grant отправляет начисление в приёмник бонусов.
// Ошибка приёмника логируется и не прерывает закрытие периода:
// бонус виден в результате и логах, журнал сверяется вручную.
func (e *Engine) grant(ctx context.Context, amount int64, reason, description string) {
	if e.sink == nil {
		return
	}
	if err := e.sink.GrantBonus(ctx, e.driverID, amount, reason, description); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"driver_id": e.driverID,
			"amount":    amount,
			"reason":    reason,
		}).Error("Ошибка начисления бонуса")
	}
}
