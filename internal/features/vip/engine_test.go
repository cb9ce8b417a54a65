package vip

import (
	"context"
	"testing"
	"time"
)

// fakeClock — управляемые часы для детерминированной прокрутки времени.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// advanceDays переводит часы на n календарных дней вперёд (та же полночь + смещение).
func (c *fakeClock) advanceDays(n int) { c.now = c.now.AddDate(0, 0, n) }

// recordedGrant — одно начисление, пойманное тестовым приёмником.
type recordedGrant struct {
	driverID int64
	amount   int64
	reason   string
}

// recordingSink записывает все начисления движка.
type recordingSink struct {
	grants []recordedGrant
}

func (s *recordingSink) GrantBonus(_ context.Context, driverID int64, amount int64, reason, _ string) error {
	s.grants = append(s.grants, recordedGrant{driverID: driverID, amount: amount, reason: reason})
	return nil
}

func (s *recordingSink) total(reason string) int64 {
	var sum int64
	for _, g := range s.grants {
		if g.reason == reason {
			sum += g.amount
		}
	}
	return sum
}

// newTestEngine собирает движок на фейковых часах, стартуя 1 января 2026, 08:00 UTC.
func newTestEngine(t *testing.T) (*Engine, *fakeClock, *recordingSink) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)}
	sink := &recordingSink{}
	engine := NewEngine(42, NewState(clock.now), DefaultRules(), clock, sink)
	return engine, clock, sink
}

// qualifyToday набирает на текущем дне 10 часов и 3 поездки.
func qualifyToday(t *testing.T, e *Engine) {
	t.Helper()
	ctx := context.Background()
	if err := e.AddOnlineHours(ctx, 10); err != nil {
		t.Fatalf("AddOnlineHours: %v", err)
	}
	for i := 0; i < 3; i++ {
		e.RegisterRide(ctx)
	}
}

// runMonth проигрывает месяц: qualified дней с полной квалификацией,
// затем переводит часы на первое число следующего месяца и закрывает день.
// Возвращает итог закрытия месяца.
func runMonth(t *testing.T, e *Engine, c *fakeClock, qualified int) *MonthResult {
	t.Helper()
	ctx := context.Background()

	for i := 0; i < qualified; i++ {
		qualifyToday(t, e)
		c.advanceDays(1)
		e.ForceDayCheck(ctx)
	}

	// Прыгаем на первое число следующего месяца
	next := time.Date(c.now.Year(), c.now.Month(), 1, 8, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	c.now = next
	res := e.ForceDayCheck(ctx)
	if res.Month == nil {
		// День уже был на первом числе — месяц закрылся раньше
		return nil
	}
	return res.Month
}

func TestDayQualification(t *testing.T) {
	tests := []struct {
		name      string
		hours     float64
		rides     int
		qualified bool
	}{
		{"часы и поездки на пороге", 10, 3, true},
		{"часов не хватает", 9.99, 3, false},
		{"поездок не хватает", 10, 2, false},
		{"ничего не хватает", 2, 1, false},
		{"с запасом", 14.5, 11, true},
		{"пустой день", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, clock, _ := newTestEngine(t)
			ctx := context.Background()

			if tt.hours > 0 {
				if err := engine.AddOnlineHours(ctx, tt.hours); err != nil {
					t.Fatalf("AddOnlineHours: %v", err)
				}
			}
			for i := 0; i < tt.rides; i++ {
				engine.RegisterRide(ctx)
			}

			clock.advanceDays(1)
			res := engine.ForceDayCheck(ctx)

			if !res.Closed {
				t.Fatal("день должен был закрыться")
			}
			if res.Qualified != tt.qualified {
				t.Errorf("Qualified = %v, ожидалось %v", res.Qualified, tt.qualified)
			}
		})
	}
}

func TestDayCloseResetsCounters(t *testing.T) {
	engine, clock, _ := newTestEngine(t)
	ctx := context.Background()

	qualifyToday(t, engine)
	clock.advanceDays(1)
	engine.ForceDayCheck(ctx)

	st := engine.State()
	if st.HoursOnline != 0 || st.RidesToday != 0 {
		t.Errorf("дневные счётчики не сброшены: hours=%v rides=%d", st.HoursOnline, st.RidesToday)
	}
	if st.QualifiedDaysThisMonth != 1 {
		t.Errorf("QualifiedDaysThisMonth = %d, ожидалось 1", st.QualifiedDaysThisMonth)
	}
	if st.CurrentDay != DayKey(clock.now) {
		t.Errorf("CurrentDay = %s, ожидалось %s", st.CurrentDay, DayKey(clock.now))
	}
}

func TestDoubleDayCheckIsIdempotent(t *testing.T) {
	engine, clock, _ := newTestEngine(t)
	ctx := context.Background()

	qualifyToday(t, engine)
	clock.advanceDays(1)

	first := engine.ForceDayCheck(ctx)
	second := engine.ForceDayCheck(ctx)

	if !first.Closed {
		t.Fatal("первая проверка должна закрыть день")
	}
	if second.Closed {
		t.Error("повторная проверка в тот же день не должна закрывать день")
	}
	if engine.State().QualifiedDaysThisMonth != 1 {
		t.Errorf("QualifiedDaysThisMonth = %d, ожидалось 1", engine.State().QualifiedDaysThisMonth)
	}
}

func TestBackwardsClockIsNoop(t *testing.T) {
	engine, clock, _ := newTestEngine(t)
	ctx := context.Background()

	qualifyToday(t, engine)
	before := *engine.State()

	// Часы ушли назад на два дня
	clock.advanceDays(-2)
	res := engine.ForceDayCheck(ctx)

	if res.Closed {
		t.Error("при откате часов день закрываться не должен")
	}
	st := engine.State()
	if st.CurrentDay != before.CurrentDay || st.HoursOnline != before.HoursOnline || st.RidesToday != before.RidesToday {
		t.Error("состояние изменилось при откате часов")
	}
}

func TestGoOnlineGoOfflineAccruesHours(t *testing.T) {
	engine, clock, _ := newTestEngine(t)
	ctx := context.Background()

	engine.GoOnline(ctx)
	clock.advance(6 * time.Hour)
	engine.GoOffline(ctx)

	if got := engine.State().HoursOnline; got < 5.99 || got > 6.01 {
		t.Errorf("HoursOnline = %v, ожидалось ~6", got)
	}
	if engine.State().IsCurrentlyOnline {
		t.Error("после ухода с линии флаг должен быть снят")
	}
}

func TestGoOnlineIsIdempotent(t *testing.T) {
	engine, clock, _ := newTestEngine(t)
	ctx := context.Background()

	engine.GoOnline(ctx)
	started := *engine.State().LastOnlineTime

	clock.advance(2 * time.Hour)
	engine.GoOnline(ctx) // повторный выход — no-op

	if !engine.State().LastOnlineTime.Equal(started) {
		t.Error("повторный GoOnline не должен сдвигать начало сессии")
	}

	clock.advance(2 * time.Hour)
	engine.GoOffline(ctx)
	if got := engine.State().HoursOnline; got < 3.99 || got > 4.01 {
		t.Errorf("HoursOnline = %v, ожидалось ~4 (вся сессия)", got)
	}
}

func TestOnlineSessionAcrossMidnight(t *testing.T) {
	engine, clock, _ := newTestEngine(t)
	ctx := context.Background()

	// На линии с 20:00 до 02:00 следующего дня
	clock.now = time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC)
	engine.state = NewState(clock.now)
	engine.GoOnline(ctx)

	clock.now = time.Date(2026, 1, 2, 2, 0, 0, 0, time.UTC)
	res := engine.ForceDayCheck(ctx)

	if !res.Closed {
		t.Fatal("день должен был закрыться")
	}
	// Закрытому дню досталось 4 часа (20:00 → полночь)
	// ForceDayCheck закрыл день с этими часами; новый день начал отсчёт с полуночи
	st := engine.State()
	if !st.IsCurrentlyOnline {
		t.Fatal("водитель должен остаться на линии")
	}
	if st.LastOnlineTime == nil || !st.LastOnlineTime.Equal(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("отсчёт нового дня должен начинаться с полуночи, получили %v", st.LastOnlineTime)
	}

	engine.GoOffline(ctx)
	if got := st.HoursOnline; got < 1.99 || got > 2.01 {
		t.Errorf("новому дню должно достаться ~2 часа, получили %v", got)
	}
}

func TestAddOnlineHoursRejectsInvalid(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	for _, h := range []float64{0, -1, -0.5} {
		if err := engine.AddOnlineHours(ctx, h); err == nil {
			t.Errorf("AddOnlineHours(%v) должен вернуть ошибку", h)
		}
	}
	if engine.State().HoursOnline != 0 {
		t.Error("отклонённые значения не должны менять счётчик")
	}
}

func TestMonthlyBonusTiers(t *testing.T) {
	tests := []struct {
		qualified int
		bonus     int64
	}{
		{19, 0},
		{20, 1500},
		{24, 1500},
		{25, 2500},
		{27, 2500},
		{28, 4000},
	}

	for _, tt := range tests {
		engine, clock, sink := newTestEngine(t)
		month := runMonth(t, engine, clock, tt.qualified)
		if month == nil {
			t.Fatalf("месяц с %d днями не закрылся", tt.qualified)
		}
		if month.MonthlyBonus != tt.bonus {
			t.Errorf("%d дней: MonthlyBonus = %d, ожидалось %d", tt.qualified, month.MonthlyBonus, tt.bonus)
		}
		if got := sink.total(ReasonMonthlyBonus); got != tt.bonus {
			t.Errorf("%d дней: начислено %d, ожидалось %d", tt.qualified, got, tt.bonus)
		}
	}
}

func TestQuarterlyBonusAfterThreeMonths(t *testing.T) {
	engine, clock, sink := newTestEngine(t)

	for i := 0; i < 3; i++ {
		month := runMonth(t, engine, clock, 20)
		if month == nil {
			t.Fatalf("месяц %d не закрылся", i+1)
		}
	}

	st := engine.State()
	if st.ConsecutiveQualifiedMonths != 3 {
		t.Errorf("серия = %d, ожидалось 3", st.ConsecutiveQualifiedMonths)
	}
	if len(st.QualifiedDaysHistory) != 3 {
		t.Errorf("длина истории = %d, ожидалось 3", len(st.QualifiedDaysHistory))
	}
	if got := sink.total(ReasonQuarterlyBonus); got != 5000 {
		t.Errorf("квартальный бонус = %d, ожидалось 5000", got)
	}
	if st.VIPCycleStartDate == nil {
		t.Error("ВИП-цикл должен был открыться")
	}
}

func TestChainBreakClearsHistory(t *testing.T) {
	engine, clock, _ := newTestEngine(t)

	runMonth(t, engine, clock, 22)
	runMonth(t, engine, clock, 21)
	// Провальный месяц: 19 дней — серия рвётся
	month := runMonth(t, engine, clock, 19)

	if month == nil {
		t.Fatal("месяц не закрылся")
	}
	if month.ConsecutiveMonths != 0 {
		t.Errorf("серия после провального месяца = %d, ожидалось 0", month.ConsecutiveMonths)
	}
	st := engine.State()
	if st.ConsecutiveQualifiedMonths != 0 {
		t.Errorf("серия = %d, ожидалось 0", st.ConsecutiveQualifiedMonths)
	}
	if len(st.QualifiedDaysHistory) != 0 {
		t.Errorf("история не очищена: %v", st.QualifiedDaysHistory)
	}
}

func TestCycleStartsAtFirstQualifiedMonth(t *testing.T) {
	engine, clock, _ := newTestEngine(t)

	// Январь 2026 закрывается с 20 днями — цикл открывается
	// с первого числа января
	runMonth(t, engine, clock, 20)

	st := engine.State()
	if st.VIPCycleStartDate == nil {
		t.Fatal("цикл не открылся")
	}
	if *st.VIPCycleStartDate != "2026-01-01" {
		t.Errorf("начало цикла = %s, ожидалось 2026-01-01", *st.VIPCycleStartDate)
	}
}

func TestCycleExpiryResetsProgress(t *testing.T) {
	engine, clock, _ := newTestEngine(t)
	ctx := context.Background()

	// Открываем цикл
	runMonth(t, engine, clock, 20)
	if engine.State().VIPCycleStartDate == nil {
		t.Fatal("цикл не открылся")
	}

	// 365 дней спустя — цикл (360 дней) истёк
	clock.advanceDays(365)
	res := engine.ForceMonthCheck(ctx)

	if !res.CycleReset {
		t.Fatal("цикл должен был сброситься")
	}
	st := engine.State()
	if st.ConsecutiveQualifiedMonths != 0 {
		t.Errorf("серия = %d, ожидалось 0", st.ConsecutiveQualifiedMonths)
	}
	if st.VIPCycleStartDate != nil {
		t.Error("дата начала цикла должна обнулиться")
	}
	if len(st.QualifiedDaysHistory) != 0 {
		t.Error("история должна очиститься")
	}
	if st.PeriodStartDate != DayKey(clock.now) {
		t.Errorf("PeriodStartDate = %s, ожидалось %s", st.PeriodStartDate, DayKey(clock.now))
	}
}

func TestNoPrematureCycleReset(t *testing.T) {
	engine, clock, _ := newTestEngine(t)
	ctx := context.Background()

	runMonth(t, engine, clock, 20)

	// 30 дней — до порога далеко
	clock.advanceDays(30)
	res := engine.ForceMonthCheck(ctx)

	if res.CycleReset {
		t.Error("цикл не должен сбрасываться раньше срока")
	}
	if engine.State().VIPCycleStartDate == nil {
		t.Error("цикл должен остаться открытым")
	}
}

func TestLongIdleCollapsesToSingleClose(t *testing.T) {
	engine, clock, _ := newTestEngine(t)
	ctx := context.Background()

	qualifyToday(t, engine)

	// Водитель пропал на 10 дней
	clock.advanceDays(10)
	res := engine.ForceDayCheck(ctx)

	if !res.Closed || !res.Qualified {
		t.Fatal("закрыться должен ровно один (последний активный) день")
	}
	// Пропущенные дни задним числом не квалифицируются
	if engine.State().QualifiedDaysThisMonth != 1 {
		t.Errorf("QualifiedDaysThisMonth = %d, ожидалось 1", engine.State().QualifiedDaysThisMonth)
	}
}

func TestSinkErrorDoesNotBreakRollover(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)}
	engine := NewEngine(42, NewState(clock.now), DefaultRules(), clock, failingSink{})

	month := runMonth(t, engine, clock, 20)
	if month == nil {
		t.Fatal("месяц не закрылся")
	}
	// Бонус виден в результате, ошибка приёмника не рвёт закрытие
	if month.MonthlyBonus != 1500 {
		t.Errorf("MonthlyBonus = %d, ожидалось 1500", month.MonthlyBonus)
	}
	if engine.State().ConsecutiveQualifiedMonths != 1 {
		t.Error("серия должна обновиться несмотря на ошибку начисления")
	}
}

type failingSink struct{}

func (failingSink) GrantBonus(context.Context, int64, int64, string, string) error {
	return context.DeadlineExceeded
}
