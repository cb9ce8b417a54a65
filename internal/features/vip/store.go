// Package vip — store.go сериализует состояние движка в JSON-блоб
// и обратно. Здесь же живёт миграция устаревшего формата записи:
// старое приложение водителя хранило поля в snake_case и даты
// в формате "02.01.2006".
package vip

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store — интерфейс key-value хранилища блобов состояния.
// Load возвращает (nil, nil), если записи нет.
type Store interface {
	Load(ctx context.Context, driverID int64) ([]byte, error)
	Save(ctx context.Context, driverID int64, blob []byte) error
}

// EncodeState сериализует состояние в актуальный JSON-формат.
func EncodeState(s *State) ([]byte, error) {
	blob, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации состояния: %w", err)
	}
	return blob, nil
}

// DecodeState разбирает сохранённый блоб: сперва актуальный формат,
// затем устаревший. Нечитаемый блоб — ошибка; вызывающий трактует её
// как «записи нет» и начинает со свежего состояния.
func DecodeState(blob []byte, loc *time.Location) (*State, error) {
	if len(bytes.TrimSpace(blob)) == 0 {
		return nil, fmt.Errorf("пустой блоб состояния")
	}

	var s State
	if err := json.Unmarshal(blob, &s); err == nil && s.CurrentDay != "" {
		normalize(&s)
		return &s, nil
	}

	// Не актуальный формат — пробуем устаревший
	legacy, err := decodeLegacy(blob, loc)
	if err != nil {
		return nil, fmt.Errorf("блоб состояния не читается: %w", err)
	}
	normalize(legacy)
	return legacy, nil
}

// normalize чинит инварианты после десериализации: счётчики не могут
// быть отрицательными, длина истории равна длине серии.
// Дату начала цикла не трогаем: цикл привязан к первому засчитанному
// месяцу и переживает разрывы серии.
func normalize(s *State) {
	if s.HoursOnline < 0 {
		s.HoursOnline = 0
	}
	if s.RidesToday < 0 {
		s.RidesToday = 0
	}
	if s.QualifiedDaysThisMonth < 0 {
		s.QualifiedDaysThisMonth = 0
	}
	if s.ConsecutiveQualifiedMonths < 0 {
		s.ConsecutiveQualifiedMonths = 0
	}
	if len(s.QualifiedDaysHistory) != s.ConsecutiveQualifiedMonths {
		// История и серия разъехались — серия считается по истории
		s.ConsecutiveQualifiedMonths = len(s.QualifiedDaysHistory)
	}
}

// legacyState — формат записи старого приложения водителя:
// snake_case-ключи и даты "02.01.2006".
type legacyState struct {
	CurrentDay      string  `json:"current_day"`
	CurrentMonth    string  `json:"current_month"`
	OnlineHours     float64 `json:"online_hours"`
	RidesToday      int     `json:"rides_today"`
	Online          bool    `json:"online"`
	OnlineSince     *string `json:"online_since"`
	QualifiedDays   int     `json:"qualified_days"`
	VIPMonths       int     `json:"vip_months"`
	MonthHistory    []int   `json:"month_history"`
	VIPStartDate    *string `json:"vip_start_date"`
	PeriodStartDate string  `json:"period_start_date"`
}

const (
	legacyDayLayout   = "02.01.2006"
	legacyMonthLayout = "01.2006"
)

// decodeLegacy разбирает устаревший формат и переводит его в актуальный.
func decodeLegacy(blob []byte, loc *time.Location) (*State, error) {
	var l legacyState
	if err := json.Unmarshal(blob, &l); err != nil {
		return nil, err
	}
	if l.CurrentDay == "" {
		return nil, fmt.Errorf("нет поля current_day")
	}

	day, err := time.ParseInLocation(legacyDayLayout, l.CurrentDay, loc)
	if err != nil {
		return nil, fmt.Errorf("некорректный current_day %q: %w", l.CurrentDay, err)
	}
	month, err := time.ParseInLocation(legacyMonthLayout, l.CurrentMonth, loc)
	if err != nil {
		// Месяц не сохранился — берём из даты дня
		month = day
	}

	s := &State{
		CurrentDay:                 DayKey(day),
		CurrentMonth:               MonthKey(month),
		HoursOnline:                l.OnlineHours,
		RidesToday:                 l.RidesToday,
		IsCurrentlyOnline:          l.Online,
		QualifiedDaysThisMonth:     l.QualifiedDays,
		ConsecutiveQualifiedMonths: l.VIPMonths,
		QualifiedDaysHistory:       l.MonthHistory,
		PeriodStartDate:            DayKey(day),
	}

	if l.OnlineSince != nil {
		if t, err := time.ParseInLocation(legacyDayLayout+" 15:04", *l.OnlineSince, loc); err == nil {
			s.LastOnlineTime = &t
		}
	}
	if l.VIPStartDate != nil {
		if t, err := time.ParseInLocation(legacyDayLayout, *l.VIPStartDate, loc); err == nil {
			start := DayKey(t)
			s.VIPCycleStartDate = &start
		}
	}
	if l.PeriodStartDate != "" {
		if t, err := time.ParseInLocation(legacyDayLayout, l.PeriodStartDate, loc); err == nil {
			s.PeriodStartDate = DayKey(t)
		}
	}

	return s, nil
}
