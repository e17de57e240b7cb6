package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/offerings"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Переменные окружения, перекрывающие секреты из файла
const (
	EnvConfigPath   = "APPOINTMENTS_CONFIG"
	EnvDBPassword   = "APPOINTMENTS_DB_PASSWORD"
	EnvJobSinkToken = "APPOINTMENTS_JOB_SINK_TOKEN"
	EnvAdminToken   = "APPOINTMENTS_ADMIN_TOKEN"

	DefaultPath = "config.toml"
)

// Драйверы хранилища бронирований
const (
	StorageDriverPostgres = "postgres"
	StorageDriverFile     = "file"
)

// ErrInvalidConfig некорректная конфигурация
var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Server    ServerConfig     `toml:"server"`
	Database  DatabaseConfig   `toml:"database"`
	Storage   StorageConfig    `toml:"storage"`
	Logs      LogsConfig       `toml:"logs"`
	Metrics   MetricsConfig    `toml:"metrics"`
	Business  BusinessConfig   `toml:"business"`
	Offerings []OfferingConfig `toml:"offerings"`
	JobSink   JobSinkConfig    `toml:"job_sink"`
	Redis     RedisConfig      `toml:"redis"`
	Reconcile ReconcileConfig  `toml:"reconcile"`
	Admin     AdminConfig      `toml:"admin"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type StorageConfig struct {
	Driver   string `toml:"driver"` // postgres | file
	FilePath string `toml:"file_path"`
}

type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

type BusinessConfig struct {
	Start             string   `toml:"start"`
	End               string   `toml:"end"`
	Timezone          string   `toml:"timezone"`
	ExcludedWeekdays  []string `toml:"excluded_weekdays"`
	DefaultResourceID string   `toml:"default_resource_id"`
}

type OfferingConfig struct {
	ID                   string   `toml:"id"`
	Title                string   `toml:"title"`
	Description          string   `toml:"description"`
	DurationMinutes      int      `toml:"duration_minutes"`
	MinimumNoticeMinutes int      `toml:"minimum_notice_minutes"`
	Price                *float64 `toml:"price"`
	Currency             *string  `toml:"currency"`
}

type JobSinkConfig struct {
	Enabled       bool    `toml:"enabled"`
	URL           string  `toml:"url"`
	Token         string  `toml:"token"`
	Timeout       int     `toml:"timeout"`
	RatePerSecond float64 `toml:"rate_per_second"`
	Burst         int     `toml:"burst"`
}

type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

type ReconcileConfig struct {
	Enabled         bool `toml:"enabled"`
	IntervalSeconds int  `toml:"interval_seconds"`
	BatchSize       int  `toml:"batch_size"`
}

type AdminConfig struct {
	Token string `toml:"token"`
}

// Load читает TOML, применяет значения по умолчанию и переменные окружения, затем валидирует
func Load(path string) (*Config, error) {
	if env := os.Getenv(EnvConfigPath); env != "" {
		path = env
	}

	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to decode %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default конфигурация для одного узла с файловым хранилищем
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     10,
			WriteTimeout:    30,
			IdleTimeout:     60,
			ShutdownTimeout: 15,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Storage: StorageConfig{Driver: StorageDriverFile, FilePath: "data/bookings.json"},
		Logs:    LogsConfig{Level: "info"},
		Metrics: MetricsConfig{Path: "/metrics", ServiceName: "appointment-service"},
		Business: BusinessConfig{
			Start:             domain.DefaultBusinessStart,
			End:               domain.DefaultBusinessEnd,
			Timezone:          domain.DefaultBusinessTZ,
			ExcludedWeekdays:  []string{"saturday", "sunday"},
			DefaultResourceID: domain.DefaultResourceID,
		},
		JobSink:   JobSinkConfig{Timeout: int(domain.DefaultSinkTimeout / time.Second), RatePerSecond: 5, Burst: 5},
		Redis:     RedisConfig{Addr: "localhost:6379", TTLSeconds: 60},
		Reconcile: ReconcileConfig{IntervalSeconds: 300, BatchSize: 50},
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDBPassword); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv(EnvJobSinkToken); v != "" {
		c.JobSink.Token = v
	}
	if v := os.Getenv(EnvAdminToken); v != "" {
		c.Admin.Token = v
	}
}

func (c *Config) applyDefaults() {
	if len(c.Offerings) == 0 {
		for _, o := range offerings.Defaults() {
			c.Offerings = append(c.Offerings, OfferingConfig{
				ID:                   o.ID,
				Title:                o.Title,
				Description:          o.Description,
				DurationMinutes:      o.DurationMinutes,
				MinimumNoticeMinutes: o.MinimumNoticeMinutes,
				Price:                o.Price,
				Currency:             o.Currency,
			})
		}
	}
	if c.Business.DefaultResourceID == "" {
		c.Business.DefaultResourceID = domain.DefaultResourceID
	}
}

// Validate проверяет согласованность секций
func (c *Config) Validate() error {
	var problems []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		problems = append(problems, "server.http_port must be in [1, 65535]")
	}

	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			problems = append(problems, "database.host and database.dbname are required for postgres storage")
		}
	case StorageDriverFile:
		if c.Storage.FilePath == "" {
			problems = append(problems, "storage.file_path is required for file storage")
		}
	default:
		problems = append(problems, fmt.Sprintf("storage.driver must be %q or %q", StorageDriverPostgres, StorageDriverFile))
	}

	if _, err := c.BusinessHours(); err != nil {
		problems = append(problems, err.Error())
	}

	if _, err := c.ServiceOfferings(); err != nil {
		problems = append(problems, err.Error())
	}

	if c.JobSink.Enabled && c.JobSink.URL == "" {
		problems = append(problems, "job_sink.url is required when job_sink is enabled")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		problems = append(problems, "redis.addr is required when redis is enabled")
	}
	if c.Reconcile.Enabled {
		if !c.JobSink.Enabled {
			problems = append(problems, "reconcile requires job_sink to be enabled")
		}
		if c.Reconcile.IntervalSeconds <= 0 {
			problems = append(problems, "reconcile.interval_seconds must be positive")
		}
		if c.Reconcile.BatchSize <= 0 || c.Reconcile.BatchSize > domain.MaxReconcileBatchSize {
			problems = append(problems, fmt.Sprintf("reconcile.batch_size must be in [1, %d]", domain.MaxReconcileBatchSize))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// BusinessHours собирает рабочие часы из секции [business]
func (c *Config) BusinessHours() (domain.BusinessHours, error) {
	loc, err := time.LoadLocation(c.Business.Timezone)
	if err != nil {
		return domain.BusinessHours{}, fmt.Errorf("business.timezone %q: %v", c.Business.Timezone, err)
	}

	start, err := types.NewTimeStringFromString(c.Business.Start)
	if err != nil {
		return domain.BusinessHours{}, fmt.Errorf("business.start: %v", err)
	}
	end, err := types.NewTimeStringFromString(c.Business.End)
	if err != nil {
		return domain.BusinessHours{}, fmt.Errorf("business.end: %v", err)
	}
	if !start.IsBefore(end) {
		return domain.BusinessHours{}, fmt.Errorf("business.start %s must be before business.end %s", start, end)
	}

	excluded := make([]time.Weekday, 0, len(c.Business.ExcludedWeekdays))
	for _, name := range c.Business.ExcludedWeekdays {
		wd, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return domain.BusinessHours{}, fmt.Errorf("business.excluded_weekdays: unknown weekday %q", name)
		}
		excluded = append(excluded, wd)
	}

	return domain.BusinessHours{
		Start:            start,
		End:              end,
		Location:         loc,
		ExcludedWeekdays: excluded,
	}, nil
}

// ServiceOfferings проверенный каталог услуг
func (c *Config) ServiceOfferings() ([]domain.ServiceOffering, error) {
	items := make([]domain.ServiceOffering, 0, len(c.Offerings))
	for _, o := range c.Offerings {
		items = append(items, domain.ServiceOffering{
			ID:                   o.ID,
			Title:                o.Title,
			Description:          o.Description,
			DurationMinutes:      o.DurationMinutes,
			MinimumNoticeMinutes: o.MinimumNoticeMinutes,
			Price:                o.Price,
			Currency:             o.Currency,
		})
	}
	if _, err := offerings.NewService(items); err != nil {
		return nil, err
	}
	return items, nil
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}
