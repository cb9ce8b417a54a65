package vip

import "testing"

func TestMonthlyBonusTierSelection(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		days int
		want int64
	}{
		{0, 0},
		{19, 0},
		{20, 1500},
		{24, 1500},
		{25, 2500},
		{27, 2500},
		{28, 4000},
		{31, 4000},
	}

	for _, tt := range tests {
		if got := rules.MonthlyBonus(tt.days); got != tt.want {
			t.Errorf("MonthlyBonus(%d) = %d, ожидалось %d", tt.days, got, tt.want)
		}
	}
}

func TestQuarterlyBonusTierSelection(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		months int
		want   int64
	}{
		{0, 0},
		{2, 0},
		{3, 5000},
		{6, 8000},
		{9, 12000},
		{12, 20000},
		// Серия длиннее старшей ступени платит старшую ступень
		{15, 20000},
		{24, 20000},
	}

	for _, tt := range tests {
		if got := rules.QuarterlyBonus(tt.months); got != tt.want {
			t.Errorf("QuarterlyBonus(%d) = %d, ожидалось %d", tt.months, got, tt.want)
		}
	}
}

func TestIsDayQualifiedRequiresBoth(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		hours float64
		rides int
		want  bool
	}{
		{10, 3, true},
		{10, 2, false},
		{9.99, 3, false},
		{23.5, 100, true},
		{0, 0, false},
	}

	for _, tt := range tests {
		if got := rules.IsDayQualified(tt.hours, tt.rides); got != tt.want {
			t.Errorf("IsDayQualified(%v, %d) = %v, ожидалось %v",
				tt.hours, tt.rides, got, tt.want)
		}
	}
}
