package common

import (
	"testing"
	"time"
)

func TestPluralizeDays(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "день"},
		{2, "дня"},
		{4, "дня"},
		{5, "дней"},
		{11, "дней"},
		{12, "дней"},
		{14, "дней"},
		{21, "день"},
		{22, "дня"},
		{25, "дней"},
		{100, "дней"},
		{101, "день"},
		{0, "дней"},
	}

	for _, tt := range tests {
		if got := PluralizeDays(tt.n); got != tt.want {
			t.Errorf("PluralizeDays(%d) = %s, ожидалось %s", tt.n, got, tt.want)
		}
	}
}

func TestPluralizeRides(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "поездка"},
		{3, "поездки"},
		{5, "поездок"},
		{11, "поездок"},
		{21, "поездка"},
		{113, "поездок"},
	}

	for _, tt := range tests {
		if got := PluralizeRides(tt.n); got != tt.want {
			t.Errorf("PluralizeRides(%d) = %s, ожидалось %s", tt.n, got, tt.want)
		}
	}
}

func TestPluralizeMonths(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "месяц"},
		{2, "месяца"},
		{6, "месяцев"},
		{12, "месяцев"},
		{21, "месяц"},
	}

	for _, tt := range tests {
		if got := PluralizeMonths(tt.n); got != tt.want {
			t.Errorf("PluralizeMonths(%d) = %s, ожидалось %s", tt.n, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1 000"},
		{1500, "1 500"},
		{2350, "2 350"},
		{20000, "20 000"},
		{1234567, "1 234 567"},
		{-4000, "-4 000"},
	}

	for _, tt := range tests {
		if got := FormatNumber(tt.n); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, ожидалось %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	if got := FormatMoney(2350); got != "2 350 ₽" {
		t.Errorf("FormatMoney(2350) = %q", got)
	}
	if got := FormatMoneySigned(1500); got != "+1 500 ₽" {
		t.Errorf("FormatMoneySigned(1500) = %q", got)
	}
	if got := FormatMoneySigned(-500); got != "-500 ₽" {
		t.Errorf("FormatMoneySigned(-500) = %q", got)
	}
}

func TestFormatHours(t *testing.T) {
	tests := []struct {
		h    float64
		want string
	}{
		{0, "0.0 ч"},
		{9.25, "9.2 ч"},
		{10, "10.0 ч"},
		{14.55, "14.6 ч"},
	}

	for _, tt := range tests {
		if got := FormatHours(tt.h); got != tt.want {
			t.Errorf("FormatHours(%v) = %q, ожидалось %q", tt.h, got, tt.want)
		}
	}
}

func TestLoadTimezoneFallback(t *testing.T) {
	loc := LoadTimezone("Несуществующий/Пояс")
	if loc == nil {
		t.Fatal("LoadTimezone не должен возвращать nil")
	}
	// Запасной пояс — фиксированный UTC+3
	_, offset := time.Date(2026, 1, 1, 12, 0, 0, 0, loc).Zone()
	if offset != 3*60*60 {
		t.Errorf("offset = %d, ожидалось %d", offset, 3*60*60)
	}
}

func TestFormatDateTime(t *testing.T) {
	moment := time.Date(2026, 3, 5, 18, 42, 0, 0, time.UTC)
	if got := FormatDateTime(moment, time.UTC); got != "05.03.2026 18:42" {
		t.Errorf("FormatDateTime = %q", got)
	}
}
