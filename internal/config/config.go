package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// engineMonthCap совпадает с пределом симуляции в calculations
const engineMonthCap = 1000

// Config содержит конфигурацию сервера
type Config struct {
	Port            int     `yaml:"port"`
	MaxPrincipal    float64 `yaml:"max_principal"`
	MaxRate         float64 `yaml:"max_rate"`
	MaxMonths       int     `yaml:"max_months"`
	MaxPrepayments  int     `yaml:"max_prepayments"`
	OTELEndpoint    string  `yaml:"otel_endpoint"`
	OTELServiceName string  `yaml:"otel_service_name"`
	LogLevel        string  `yaml:"log_level"`
	LogFormat       string  `yaml:"log_format"`

	RateLimitRequests int           `yaml:"rate_limit_requests"`
	RateLimitWindow   time.Duration `yaml:"rate_limit_window"`
	RedisAddr         string        `yaml:"redis_addr"`
	RedisPassword     string        `yaml:"redis_password"`
	RedisDB           int           `yaml:"redis_db"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Port:              8000,
		MaxPrincipal:      1e9,
		MaxRate:           200,
		MaxMonths:         engineMonthCap,
		MaxPrepayments:    120,
		OTELServiceName:   "emi-calculator",
		LogLevel:          "INFO",
		LogFormat:         "json",
		RateLimitRequests: 60,
		RateLimitWindow:   time.Minute,
		ShutdownTimeout:   10 * time.Second,
	}
}

// LoadConfig загружает конфигурацию: значения по умолчанию, затем YAML из
// CONFIG_FILE (если задан), затем переменные окружения.
func LoadConfig() (*Config, error) {
	// Загружаем .env файл, если он существует (игнорируем ошибку)
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnvInt("PORT", cfg.Port)
	cfg.MaxPrincipal = getEnvFloat("MAX_PRINCIPAL", cfg.MaxPrincipal)
	cfg.MaxRate = getEnvFloat("MAX_RATE", cfg.MaxRate)
	cfg.MaxMonths = getEnvInt("MAX_MONTHS", cfg.MaxMonths)
	cfg.MaxPrepayments = getEnvInt("MAX_PREPAYMENTS", cfg.MaxPrepayments)
	cfg.OTELEndpoint = getEnvString("OTEL_ENDPOINT", cfg.OTELEndpoint)
	cfg.OTELServiceName = getEnvString("OTEL_SERVICE_NAME", cfg.OTELServiceName)
	cfg.LogLevel = getEnvString("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvString("LOG_FORMAT", cfg.LogFormat)
	cfg.RateLimitRequests = getEnvInt("RATE_LIMIT_REQUESTS", cfg.RateLimitRequests)
	cfg.RateLimitWindow = getEnvDuration("RATE_LIMIT_WINDOW", cfg.RateLimitWindow)
	cfg.RedisAddr = getEnvString("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnvString("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvInt("REDIS_DB", cfg.RedisDB)
	cfg.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	// срок не может превышать предел симуляции движка
	if cfg.MaxMonths <= 0 || cfg.MaxMonths > engineMonthCap {
		cfg.MaxMonths = engineMonthCap
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Addr возвращает адрес для http.Server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
