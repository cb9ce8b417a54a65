package vip

import (
	"testing"
	"time"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	start := "2026-01-01"
	online := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)

	original := &State{
		CurrentDay:                 "2026-03-15",
		CurrentMonth:               "2026-03",
		HoursOnline:                7.5,
		RidesToday:                 4,
		IsCurrentlyOnline:          true,
		LastOnlineTime:             &online,
		QualifiedDaysThisMonth:     12,
		ConsecutiveQualifiedMonths: 2,
		QualifiedDaysHistory:       []int{21, 23},
		VIPCycleStartDate:          &start,
		PeriodStartDate:            "2026-01-01",
	}

	blob, err := EncodeState(original)
	if err != nil {
		t.Fatalf("EncodeState: %v", err)
	}

	decoded, err := DecodeState(blob, now.Location())
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}

	if decoded.CurrentDay != original.CurrentDay ||
		decoded.CurrentMonth != original.CurrentMonth ||
		decoded.HoursOnline != original.HoursOnline ||
		decoded.RidesToday != original.RidesToday ||
		decoded.QualifiedDaysThisMonth != original.QualifiedDaysThisMonth ||
		decoded.ConsecutiveQualifiedMonths != original.ConsecutiveQualifiedMonths {
		t.Errorf("состояние изменилось после round-trip: %+v", decoded)
	}
	if decoded.VIPCycleStartDate == nil || *decoded.VIPCycleStartDate != start {
		t.Error("дата начала цикла потерялась")
	}
	if len(decoded.QualifiedDaysHistory) != 2 {
		t.Errorf("история = %v, ожидалось [21 23]", decoded.QualifiedDaysHistory)
	}
}

func TestDecodeLegacyFormat(t *testing.T) {
	// Формат старого приложения: snake_case и даты "02.01.2006"
	blob := []byte(`{
		"current_day": "15.03.2026",
		"current_month": "03.2026",
		"online_hours": 6.5,
		"rides_today": 2,
		"online": false,
		"qualified_days": 11,
		"vip_months": 2,
		"month_history": [20, 25],
		"vip_start_date": "01.01.2026",
		"period_start_date": "01.01.2026"
	}`)

	s, err := DecodeState(blob, time.UTC)
	if err != nil {
		t.Fatalf("DecodeState(legacy): %v", err)
	}

	if s.CurrentDay != "2026-03-15" {
		t.Errorf("CurrentDay = %s, ожидалось 2026-03-15", s.CurrentDay)
	}
	if s.CurrentMonth != "2026-03" {
		t.Errorf("CurrentMonth = %s, ожидалось 2026-03", s.CurrentMonth)
	}
	if s.HoursOnline != 6.5 || s.RidesToday != 2 {
		t.Errorf("счётчики дня не перенесены: hours=%v rides=%d", s.HoursOnline, s.RidesToday)
	}
	if s.QualifiedDaysThisMonth != 11 {
		t.Errorf("QualifiedDaysThisMonth = %d, ожидалось 11", s.QualifiedDaysThisMonth)
	}
	if s.ConsecutiveQualifiedMonths != 2 || len(s.QualifiedDaysHistory) != 2 {
		t.Errorf("серия не перенесена: %d / %v", s.ConsecutiveQualifiedMonths, s.QualifiedDaysHistory)
	}
	if s.VIPCycleStartDate == nil || *s.VIPCycleStartDate != "2026-01-01" {
		t.Error("дата начала цикла не переформатирована")
	}
	if s.PeriodStartDate != "2026-01-01" {
		t.Errorf("PeriodStartDate = %s, ожидалось 2026-01-01", s.PeriodStartDate)
	}
}

func TestDecodeMalformedBlob(t *testing.T) {
	tests := []struct {
		name string
		blob []byte
	}{
		{"не JSON", []byte("это не json")},
		{"пустой", []byte("")},
		{"пробелы", []byte("   ")},
		{"JSON без полей", []byte(`{"foo": "bar"}`)},
		{"обрезанный", []byte(`{"currentDay": "2026-`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeState(tt.blob, time.UTC); err == nil {
				t.Error("нечитаемый блоб должен вернуть ошибку")
			}
		})
	}
}

func TestNormalizeFixesInvariants(t *testing.T) {
	// Отрицательные счётчики и разъехавшаяся история
	blob := []byte(`{
		"currentDay": "2026-03-15",
		"currentMonth": "2026-03",
		"hoursOnline": -3,
		"ridesToday": -1,
		"qualifiedDaysThisMonth": -5,
		"consecutiveQualifiedMonths": 4,
		"qualifiedDaysHistory": [20, 21],
		"periodStartDate": "2026-01-01"
	}`)

	s, err := DecodeState(blob, time.UTC)
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}

	if s.HoursOnline != 0 || s.RidesToday != 0 || s.QualifiedDaysThisMonth != 0 {
		t.Error("отрицательные счётчики должны обнуляться")
	}
	if s.ConsecutiveQualifiedMonths != 2 {
		t.Errorf("серия должна выровняться по истории: %d", s.ConsecutiveQualifiedMonths)
	}
}
