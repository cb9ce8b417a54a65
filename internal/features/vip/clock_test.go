package vip

import (
	"testing"
	"time"
)

func TestDayAndMonthKeys(t *testing.T) {
	moment := time.Date(2026, 3, 5, 23, 59, 0, 0, time.UTC)

	if got := DayKey(moment); got != "2026-03-05" {
		t.Errorf("DayKey = %s, ожидалось 2026-03-05", got)
	}
	if got := MonthKey(moment); got != "2026-03" {
		t.Errorf("MonthKey = %s, ожидалось 2026-03", got)
	}
}

func TestFirstDayOfMonth(t *testing.T) {
	if got := FirstDayOfMonth("2026-03"); got != "2026-03-01" {
		t.Errorf("FirstDayOfMonth = %s, ожидалось 2026-03-01", got)
	}
}

func TestStartAndEndOfDay(t *testing.T) {
	moment := time.Date(2026, 3, 5, 14, 30, 45, 0, time.UTC)

	start := StartOfDay(moment)
	if start.Hour() != 0 || start.Minute() != 0 || start.Day() != 5 {
		t.Errorf("StartOfDay = %v", start)
	}

	end := EndOfDay(moment)
	if end.Day() != 6 || end.Hour() != 0 {
		t.Errorf("EndOfDay = %v", end)
	}
}

func TestDaysSince(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		fromKey string
		want    int
	}{
		{"сегодня", "2026-03-15", 0},
		{"вчера", "2026-03-14", 1},
		{"год назад", "2025-03-15", 365},
		{"будущая дата", "2026-04-01", 0},
		{"мусорный ключ", "не дата", 0},
		{"пустой ключ", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysSince(tt.fromKey, now); got != tt.want {
				t.Errorf("DaysSince(%q) = %d, ожидалось %d", tt.fromKey, got, tt.want)
			}
		})
	}
}

func TestDaysSinceIgnoresTimeOfDay(t *testing.T) {
	// Число полных календарных дней не зависит от времени суток
	early := time.Date(2026, 3, 15, 0, 1, 0, 0, time.UTC)
	late := time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC)

	if DaysSince("2026-03-10", early) != DaysSince("2026-03-10", late) {
		t.Error("DaysSince должен зависеть только от календарного дня")
	}
}
