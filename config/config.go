package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DatabaseURL   string
	JobServiceURL string
	OwnerUserID   string
	DBPath        string
	LogLevel      string
	Scheduler     SchedulerConfig
	Monitor       MonitorConfig
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

// MonitorConfig carries the tunables of the aggregation core, loaded
// from config/monitor.yaml when present.
type MonitorConfig struct {
	WindowWeeks    int    `yaml:"window_weeks"`
	PollIntervalMS int    `yaml:"poll_interval_ms"`
	ZoneLocale     string `yaml:"zone_locale"`
	ExportDir      string `yaml:"export_dir"`
}

const monitorConfigPath = "config/monitor.yaml"

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JobServiceURL: os.Getenv("JOB_SERVICE_URL"),
		OwnerUserID:   os.Getenv("OWNER_USER_ID"),
		DBPath:        getEnv("DB_PATH", "monitor.db"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("MONITOR_CRON"),
		},
		Monitor: MonitorConfig{
			WindowWeeks:    12,
			PollIntervalMS: 5000,
			ZoneLocale:     "it",
			ExportDir:      "exports",
		},
	}

	if interval := os.Getenv("MONITOR_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadMonitorConfig(); err != nil {
		return nil, err
	}

	if weeks := getEnvInt("WINDOW_WEEKS", 0); weeks > 0 {
		cfg.Monitor.WindowWeeks = weeks
	}

	return cfg, nil
}

func (c *Config) loadMonitorConfig() error {
	data, err := os.ReadFile(monitorConfigPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, &c.Monitor)
}

// PollInterval converts the configured period to a duration.
func (c *Config) PollInterval() time.Duration {
	if c.Monitor.PollIntervalMS <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Monitor.PollIntervalMS) * time.Millisecond
}

// ZoneLocale resolves the configured collation locale, defaulting to
// Italian when the tag does not parse.
func (c *Config) ZoneLocale() language.Tag {
	tag, err := language.Parse(c.Monitor.ZoneLocale)
	if err != nil {
		return language.Italian
	}
	return tag
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
