// Package vip — rules.go содержит пороги квалификации и таблицы бонусов.
// Все значения приходят из конфигурации; здесь только логика выбора ступени.
package vip

import "vipdrive.ru/driver-bot/internal/config"

// BonusTier — одна ступень бонусной таблицы: порог → сумма.
type BonusTier struct {
	Threshold int   // Порог (квалифицированные дни или месяцы серии)
	Amount    int64 // Сумма бонуса
}

// Rules — пороги и таблицы бонусов ВИП-движка.
type Rules struct {
	// Квалификация дня: минимум часов на линии И минимум поездок
	MinHoursPerDay float64
	MinRidesPerDay int

	// Сколько квалифицированных дней нужно, чтобы месяц засчитался в серию
	MonthQualifyDays int

	// Длина ВИП-цикла в днях
	CycleDays int

	// Месячные бонусы, отсортированы по возрастанию порога.
	// Платится старшая ступень, порог которой достигнут.
	MonthlyTiers []BonusTier

	// Квартальные бонусы: порог — длина серии месяцев (кратная трём)
	QuarterlyTiers []BonusTier
}

// RulesFromConfig собирает Rules из конфигурации приложения.
func RulesFromConfig(cfg *config.Config) Rules {
	return Rules{
		MinHoursPerDay:   cfg.VIPMinHoursPerDay,
		MinRidesPerDay:   cfg.VIPMinRidesPerDay,
		MonthQualifyDays: cfg.VIPMonthQualifyDays,
		CycleDays:        cfg.VIPCycleDays,
		MonthlyTiers: []BonusTier{
			{Threshold: 20, Amount: cfg.VIPMonthlyBonus20},
			{Threshold: 25, Amount: cfg.VIPMonthlyBonus25},
			{Threshold: 28, Amount: cfg.VIPMonthlyBonus28},
		},
		QuarterlyTiers: []BonusTier{
			{Threshold: 3, Amount: cfg.VIPQuarterlyBonus3},
			{Threshold: 6, Amount: cfg.VIPQuarterlyBonus6},
			{Threshold: 9, Amount: cfg.VIPQuarterlyBonus9},
			{Threshold: 12, Amount: cfg.VIPQuarterlyBonus12},
		},
	}
}

// DefaultRules возвращает правила с продовыми значениями по умолчанию.
// Используется в тестах, чтобы не тянуть envconfig.
func DefaultRules() Rules {
	return Rules{
		MinHoursPerDay:   10,
		MinRidesPerDay:   3,
		MonthQualifyDays: 20,
		CycleDays:        360,
		MonthlyTiers: []BonusTier{
			{Threshold: 20, Amount: 1500},
			{Threshold: 25, Amount: 2500},
			{Threshold: 28, Amount: 4000},
		},
		QuarterlyTiers: []BonusTier{
			{Threshold: 3, Amount: 5000},
			{Threshold: 6, Amount: 8000},
			{Threshold: 9, Amount: 12000},
			{Threshold: 12, Amount: 20000},
		},
	}
}

// MonthlyBonus возвращает месячный бонус за qualifiedDays квалифицированных
// дней: сумму старшей достигнутой ступени, 0 — если не достигнута ни одна.
func (r Rules) MonthlyBonus(qualifiedDays int) int64 {
	var amount int64
	for _, tier := range r.MonthlyTiers {
		if qualifiedDays >= tier.Threshold {
			amount = tier.Amount
		}
	}
	return amount
}

// QuarterlyBonus возвращает квартальный бонус за серию months месяцев.
// Вызывается только на завершённых кварталах (months кратно 3).
// Серия длиннее старшей ступени платит старшую ступень.
func (r Rules) QuarterlyBonus(months int) int64 {
	var amount int64
	for _, tier := range r.QuarterlyTiers {
		if months >= tier.Threshold {
			amount = tier.Amount
		}
	}
	return amount
}

// IsDayQualified проверяет квалификацию дня: часы И поездки достигли порогов.
func (r Rules) IsDayQualified(hoursOnline float64, rides int) bool {
	return hoursOnline >= r.MinHoursPerDay && rides >= r.MinRidesPerDay
}
