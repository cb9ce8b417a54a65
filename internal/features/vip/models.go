// Package vip управляет ВИП-статусом водителя: учёт онлайн-часов и поездок
// по календарным дням, квалификация дней и месяцев, месячные и квартальные
// бонусы и 360-дневный цикл, после которого весь прогресс сбрасывается.
// models.go описывает персистентное состояние движка.
package vip

import "time"

// State — единственная сохраняемая запись движка, одна на водителя.
// Сериализуется в JSON и хранится в таблице vip_states (колонка JSONB).
//
// В любой момент открыты ровно один дневной и один месячный счётчик
// (CurrentDay/CurrentMonth); всё более раннее — неизменяемая история.
type State struct {
	// Дата, к которой относится активный дневной счётчик ("2006-01-02")
	CurrentDay string `json:"currentDay"`
	// Месяц, к которому относится активный месячный счётчик ("2006-01")
	CurrentMonth string `json:"currentMonth"`

	// Онлайн-часы за CurrentDay; сбрасываются при закрытии дня
	HoursOnline float64 `json:"hoursOnline"`
	// Завершённые поездки за CurrentDay; сбрасываются при закрытии дня
	RidesToday int `json:"ridesToday"`

	// Водитель сейчас на линии?
	IsCurrentlyOnline bool `json:"isCurrentlyOnline"`
	// Момент последнего выхода на линию; время с него доначисляется
	// в HoursOnline при уходе с линии или при закрытии дня
	LastOnlineTime *time.Time `json:"lastOnlineTime"`

	// Квалифицированных дней в CurrentMonth; сбрасывается при закрытии месяца
	QualifiedDaysThisMonth int `json:"qualifiedDaysThisMonth"`

	// Непрерывная серия месяцев, каждый из которых засчитался
	// (включая только что закрытый)
	ConsecutiveQualifiedMonths int `json:"consecutiveQualifiedMonths"`
	// Квалифицированные дни по месяцам текущей серии, от старых к новым.
	// Длина всегда равна ConsecutiveQualifiedMonths.
	QualifiedDaysHistory []int `json:"qualifiedDaysHistory"`

	// Дата начала текущего 360-дневного ВИП-цикла ("2006-01-02").
	// nil — цикла нет: водитель ещё ни разу не квалифицировался,
	// либо цикл только что сброшен.
	VIPCycleStartDate *string `json:"vipCycleStartDate"`
	// Опорная дата учёта длины периода; обновляется при сбросе цикла
	PeriodStartDate string `json:"periodStartDate"`
}

// NewState создаёт свежую запись: все счётчики по нулям, цикла нет.
// Вызывается при первой активности водителя или если сохранённая
// запись не читается.
func NewState(now time.Time) *State {
	return &State{
		CurrentDay:      DayKey(now),
		CurrentMonth:    MonthKey(now),
		PeriodStartDate: DayKey(now),
	}
}

// DayResult — итог закрытия дня, возвращается вызывающему
// для наблюдаемости и тестов.
type DayResult struct {
	// День закрывался? false — граница дня не пересечена, ничего не менялось
	Closed bool
	// Закрытый день квалифицировался (часы и поездки достигли порогов)?
	Qualified bool
	// Квалифицированных дней в месяце после закрытия
	QualifiedDays int
	// Итог закрытия месяца, если вместе с днём закрылся и месяц
	Month *MonthResult
}

// MonthResult — итог закрытия месяца.
type MonthResult struct {
	// Квалифицированных дней в закрытом месяце
	QualifiedDays int
	// Начисленный месячный бонус (0 — порог не достигнут)
	MonthlyBonus int64
	// Начисленный квартальный бонус (0 — квартал не завершён)
	QuarterlyBonus int64
	// Серия квалифицированных месяцев после закрытия
	ConsecutiveMonths int
	// Цикл истёк и прогресс был полностью сброшен?
	CycleReset bool
}

// Причины начислений в журнале транзакций
const (
	ReasonMonthlyBonus   = "monthly_bonus"
	ReasonQuarterlyBonus = "quarterly_bonus"
)
