// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы, обработчики,
// фильтры и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"vipdrive.ru/driver-bot/internal/bot"
	"vipdrive.ru/driver-bot/internal/bot/filters"
	"vipdrive.ru/driver-bot/internal/common"
	"vipdrive.ru/driver-bot/internal/config"
	"vipdrive.ru/driver-bot/internal/db/postgres"
	"vipdrive.ru/driver-bot/internal/features/admin"
	"vipdrive.ru/driver-bot/internal/features/drivers"
	"vipdrive.ru/driver-bot/internal/features/earnings"
	"vipdrive.ru/driver-bot/internal/features/vip"
	"vipdrive.ru/driver-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot        *bot.Bot
	Scheduler  *jobs.Scheduler
	VIPService *vip.Service
	DB         *pgxpool.Pool
	BotAPI     *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	// Запускаем миграции
	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 3. Репозитории ===
	driverRepo := drivers.NewRepository(pool)
	earningsRepo := earnings.NewRepository(pool)
	vipRepo := vip.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)

	// === 4. Сервисы ===
	driverService := drivers.NewService(driverRepo)
	earningsService := earnings.NewService(earningsRepo)
	clock := vip.NewSystemClock(common.LoadTimezone(cfg.AppTimezone))
	vipService := vip.NewService(vipRepo, earningsService, cfg, clock)
	adminService := admin.NewService(adminRepo, driverRepo, cfg)

	// === 5. Обработчики ===
	driverHandler := drivers.NewHandler(driverService)
	earningsHandler := earnings.NewHandler(earningsService, botAPI)
	vipHandler := vip.NewHandler(vipService, botAPI)
	adminHandler := admin.NewHandler(adminService, driverService, earningsService, vipService, botAPI)

	// === 6. Фильтры ===
	chatFilter := filters.NewChatFilter(cfg.ParkChatID, driverService, botAPI)

	// === 7. Собираем бота ===
	b := bot.New(
		botAPI, cfg,
		driverService, driverHandler,
		earningsService, earningsHandler,
		vipService, vipHandler,
		adminService, adminHandler,
		chatFilter,
	)

	// === 8. Планировщик задач ===
	scheduler := jobs.NewScheduler(vipService, cfg.AppTimezone)

	return &App{
		Bot:        b,
		Scheduler:  scheduler,
		VIPService: vipService,
		DB:         pool,
		BotAPI:     botAPI,
	}, nil
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	// Инициализируем систему миграций
	if err := postgres.InitMigrations(ctx, pool); err != nil {
		return err
	}

	// Выполняем миграции по порядку
	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Drivers},
		{2, migration002Earnings},
		{3, migration003VIPStates},
		{4, migration004Admin},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Drivers = `
CREATE TABLE IF NOT EXISTS drivers (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL,
    username VARCHAR(255),
    first_name VARCHAR(255) NOT NULL,
    last_name VARCHAR(255),
    call_sign VARCHAR(64),
    is_banned BOOLEAN DEFAULT FALSE,
    joined_at TIMESTAMP DEFAULT NOW(),
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_drivers_user_id ON drivers(user_id);
CREATE INDEX IF NOT EXISTS idx_drivers_username ON drivers(username);
`

var migration002Earnings = `
CREATE TABLE IF NOT EXISTS balances (
    id BIGSERIAL PRIMARY KEY,
    driver_id BIGINT UNIQUE NOT NULL,
    balance BIGINT DEFAULT 0,
    total_earned BIGINT DEFAULT 0,
    total_paid BIGINT DEFAULT 0,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    driver_id BIGINT NOT NULL,
    amount BIGINT NOT NULL,
    transaction_type VARCHAR(50) NOT NULL,
    description TEXT,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transactions_driver ON transactions(driver_id);
CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at DESC);
`

var migration003VIPStates = `
CREATE TABLE IF NOT EXISTS vip_states (
    driver_id BIGINT PRIMARY KEY,
    state JSONB NOT NULL,
    updated_at TIMESTAMP DEFAULT NOW()
);
`

var migration004Admin = `
CREATE TABLE IF NOT EXISTS admin_sessions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    session_token VARCHAR(255) UNIQUE,
    authenticated_at TIMESTAMP DEFAULT NOW(),
    expires_at TIMESTAMP NOT NULL,
    last_activity TIMESTAMP DEFAULT NOW(),
    is_active BOOLEAN DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_user ON admin_sessions(user_id, is_active);
CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    attempt_time TIMESTAMP DEFAULT NOW(),
    success BOOLEAN DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_admin_attempts_user ON admin_login_attempts(user_id, attempt_time);
`
