package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/validator"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Storage    StorageConfig
	Attendance AttendanceConfig
	Fine       FineConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port               int
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
}

type StorageConfig struct {
	Driver string

	// MemoryEmployees seeds the in-memory directory, as "id=Full Name" entries.
	MemoryEmployees []string
}

// AttendanceConfig holds presence and reporting settings
type AttendanceConfig struct {
	Timezone string
	Location *time.Location

	// LateCutoff is HH:MM; LateCutoffSchedule optionally overrides it per date range
	// as "YYYY-MM-DD=HH:MM;YYYY-MM-DD=HH:MM".
	LateCutoff         string
	LateCutoffSchedule string

	DefaultWindow int
	MaxWindow     int

	ManagementEmployeeIDs []string

	AutoOfflineEnabled bool
	AutoOfflineHour    int
}

type FineConfig struct {
	FreeLateDays int
	Tier2Limit   int
	Tier2Rate    decimal.Decimal
	Tier3Rate    decimal.Decimal
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded, using process environment", "error", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	dbMaxConns, err := getEnvInt("DB_MAX_CONNS", 25)
	if err != nil {
		return nil, err
	}
	dbMinConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, err
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "presence"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(dbMaxConns),
		MinConns: int32(dbMinConns),
	}

	// Application configuration
	appPort, err := getEnvInt("APP_PORT", 8080)
	if err != nil {
		return nil, err
	}

	config.App = AppConfig{
		Port:               appPort,
		Env:                getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}

	config.JWT = JWTConfig{
		Secret: getEnv("JWT_SECRET_KEY", ""),
	}

	config.Storage = StorageConfig{
		Driver:          strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres)),
		MemoryEmployees: getEnvSlice("MEMORY_EMPLOYEES"),
	}

	// Attendance configuration
	timezone := getEnv("ATTENDANCE_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_TIMEZONE: %w", err)
	}
	defaultWindow, err := getEnvInt("ATTENDANCE_DEFAULT_WINDOW", 30)
	if err != nil {
		return nil, err
	}
	maxWindow, err := getEnvInt("ATTENDANCE_MAX_WINDOW", 92)
	if err != nil {
		return nil, err
	}
	autoOfflineEnabled, err := getEnvBool("ATTENDANCE_AUTO_OFFLINE_ENABLED", false)
	if err != nil {
		return nil, err
	}
	autoOfflineHour, err := getEnvInt("ATTENDANCE_AUTO_OFFLINE_HOUR", 23)
	if err != nil {
		return nil, err
	}

	config.Attendance = AttendanceConfig{
		Timezone:              timezone,
		Location:              loc,
		LateCutoff:            getEnv("ATTENDANCE_LATE_CUTOFF", "11:10"),
		LateCutoffSchedule:    getEnv("ATTENDANCE_LATE_CUTOFF_SCHEDULE", ""),
		DefaultWindow:         defaultWindow,
		MaxWindow:             maxWindow,
		ManagementEmployeeIDs: getEnvSlice("MANAGEMENT_EMPLOYEE_IDS"),
		AutoOfflineEnabled:    autoOfflineEnabled,
		AutoOfflineHour:       autoOfflineHour,
	}

	// Fine configuration
	freeLateDays, err := getEnvInt("FINE_FREE_LATE_DAYS", 3)
	if err != nil {
		return nil, err
	}
	tier2Limit, err := getEnvInt("FINE_TIER2_LIMIT", 6)
	if err != nil {
		return nil, err
	}
	tier2Rate, err := getEnvDecimal("FINE_TIER2_RATE", "80")
	if err != nil {
		return nil, err
	}
	tier3Rate, err := getEnvDecimal("FINE_TIER3_RATE", "500")
	if err != nil {
		return nil, err
	}

	config.Fine = FineConfig{
		FreeLateDays: freeLateDays,
		Tier2Limit:   tier2Limit,
		Tier2Rate:    tier2Rate,
		Tier3Rate:    tier3Rate,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Database.Password == "" {
			errs = append(errs, fmt.Errorf("DB_PASSWORD is required"))
		}
	case StorageDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be %q or %q", StorageDriverPostgres, StorageDriverMemory))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, fmt.Errorf("JWT_SECRET_KEY is required"))
	}
	if !validator.IsValidClock(c.Attendance.LateCutoff) {
		errs = append(errs, fmt.Errorf("ATTENDANCE_LATE_CUTOFF must be HH:MM"))
	}
	if c.Attendance.DefaultWindow < 1 || c.Attendance.MaxWindow < c.Attendance.DefaultWindow {
		errs = append(errs, fmt.Errorf("ATTENDANCE_DEFAULT_WINDOW must be between 1 and ATTENDANCE_MAX_WINDOW"))
	}
	if c.Attendance.AutoOfflineHour < 0 || c.Attendance.AutoOfflineHour > 23 {
		errs = append(errs, fmt.Errorf("ATTENDANCE_AUTO_OFFLINE_HOUR must be between 0 and 23"))
	}
	if c.Fine.FreeLateDays < 0 || c.Fine.Tier2Limit < c.Fine.FreeLateDays {
		errs = append(errs, fmt.Errorf("FINE_TIER2_LIMIT must not be below FINE_FREE_LATE_DAYS"))
	}
	if c.Fine.Tier2Rate.IsNegative() || c.Fine.Tier3Rate.IsNegative() {
		errs = append(errs, fmt.Errorf("fine rates must not be negative"))
	}

	return errors.Join(errs...)
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL to a slog level. Unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value := getEnv(key, "")
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getEnvDecimal(key, fallback string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(getEnv(key, fallback)))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
