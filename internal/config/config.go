// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// ID чата автопарка, в котором бот работает (единственный разрешённый групповой чат)
	ParkChatID int64 `envconfig:"PARK_CHAT_ID" required:"true"`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"driver_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Moscow"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Admin ---
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`

	// --- VIP: квалификация дня ---
	VIPMinHoursPerDay float64 `envconfig:"VIP_MIN_HOURS_PER_DAY" default:"10"`
	VIPMinRidesPerDay int     `envconfig:"VIP_MIN_RIDES_PER_DAY" default:"3"`
	// Сколько квалифицированных дней нужно, чтобы месяц засчитался в серию
	VIPMonthQualifyDays int `envconfig:"VIP_MONTH_QUALIFY_DAYS" default:"20"`
	// Длина ВИП-цикла в днях; после него весь прогресс сбрасывается
	VIPCycleDays int `envconfig:"VIP_CYCLE_DAYS" default:"360"`

	// --- VIP: месячные бонусы (порог в квалифицированных днях → сумма) ---
	VIPMonthlyBonus20 int64 `envconfig:"VIP_MONTHLY_BONUS_20" default:"1500"`
	VIPMonthlyBonus25 int64 `envconfig:"VIP_MONTHLY_BONUS_25" default:"2500"`
	VIPMonthlyBonus28 int64 `envconfig:"VIP_MONTHLY_BONUS_28" default:"4000"`

	// --- VIP: квартальные бонусы (серия месяцев → сумма) ---
	VIPQuarterlyBonus3  int64 `envconfig:"VIP_QUARTERLY_BONUS_3" default:"5000"`
	VIPQuarterlyBonus6  int64 `envconfig:"VIP_QUARTERLY_BONUS_6" default:"8000"`
	VIPQuarterlyBonus9  int64 `envconfig:"VIP_QUARTERLY_BONUS_9" default:"12000"`
	VIPQuarterlyBonus12 int64 `envconfig:"VIP_QUARTERLY_BONUS_12" default:"20000"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Feature Flags ---
	FeatureVIPEnabled bool `envconfig:"FEATURE_VIP_ENABLED" default:"true"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	if c.ParkChatID == 0 {
		return fmt.Errorf("PARK_CHAT_ID не задан или равен 0")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.VIPMinHoursPerDay <= 0 || c.VIPMinRidesPerDay <= 0 {
		return fmt.Errorf("пороги квалификации дня должны быть > 0")
	}
	if c.VIPMonthQualifyDays <= 0 || c.VIPMonthQualifyDays > 31 {
		return fmt.Errorf("VIP_MONTH_QUALIFY_DAYS должен быть в диапазоне 1..31")
	}
	if c.VIPCycleDays <= 0 {
		return fmt.Errorf("VIP_CYCLE_DAYS должен быть > 0")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
