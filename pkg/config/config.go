// Package config реализует загрузку конфигурации.
package config

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Seconds: длительность в конфиге, задаётся целым числом секунд.
type Seconds int

// Duration переводит значение в time.Duration.
func (s Seconds) Duration() time.Duration {
	return time.Duration(s) * time.Second
}

// Config конфигурация клиента.
type Config struct {
	Interface InterfaceConfig `yaml:"interface"`
	Common    CommonConfig    `yaml:"common"`
	User      UserConfig      `yaml:"user"`
	Log       LogConfig       `yaml:"log"`
	Limits    LimitsConfig    `yaml:"limits"`
	Events    EventsConfig    `yaml:"events"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// InterfaceConfig: сетевой интерфейс, с которого берётся MAC.
type InterfaceConfig struct {
	Name string `yaml:"name"` // пусто = первый подходящий
}

// CommonConfig: параметры протокола и повторов.
type CommonConfig struct {
	RemoteAddr        string  `yaml:"remote_addr"`
	LocalAddr         string  `yaml:"local_addr"`
	Timeout           Seconds `yaml:"timeout"`
	Retry             int     `yaml:"retry"` // -1 = бесконечно
	RetryInterval     Seconds `yaml:"retry_interval"`
	KeepAliveInterval Seconds `yaml:"keep_alive_interval"`
	HostName          string  `yaml:"host_name"`
}

// UserConfig: файл учётных данных.
type UserConfig struct {
	File     string `yaml:"file"`
	SaveUser bool   `yaml:"save_user"`
}

// LogConfig конфигурация логирования.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"` // путь к файлу логов (пустой = stdout)
	// ToFile включает запись в файл логов приложения, если File пуст.
	ToFile bool `yaml:"to_file"`
}

// LimitsConfig ограничивает частоту отправки датаграмм. 0 = без ограничения.
type LimitsConfig struct {
	SendRate  float64 `yaml:"send_rate"`
	SendBurst int     `yaml:"send_burst"`
}

// EventsConfig: публикация событий сессии в NATS.
type EventsConfig struct {
	NATSURLs      []string `yaml:"nats_urls"` // пусто = выключено
	SubjectPrefix string   `yaml:"subject_prefix"`
	ReconnectWait Seconds  `yaml:"reconnect_wait"`
	MaxReconnects int      `yaml:"max_reconnects"`
}

// Enabled сообщает, настроена ли публикация.
func (c EventsConfig) Enabled() bool { return len(c.NATSURLs) > 0 }

// MetricsConfig: HTTP эндпоинт Prometheus.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // пусто = выключено
	Path string `yaml:"path"`
}

// Enabled сообщает, нужно ли поднимать сервер метрик.
func (c MetricsConfig) Enabled() bool { return c.Addr != "" }

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Validate проверяет корректность конфигурации.
func (c *Config) Validate() error {
	var errs []error

	// Common
	if err := validateAddr(c.Common.RemoteAddr, 1); err != nil {
		errs = append(errs, fmt.Errorf("common.remote_addr: %w", err))
	}
	if err := validateAddr(c.Common.LocalAddr, 0); err != nil {
		errs = append(errs, fmt.Errorf("common.local_addr: %w", err))
	}
	if c.Common.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("common.timeout must be positive"))
	}
	if c.Common.Retry < -1 {
		errs = append(errs, fmt.Errorf("common.retry must be -1 or non-negative: %d", c.Common.Retry))
	}
	if c.Common.RetryInterval < 0 {
		errs = append(errs, fmt.Errorf("common.retry_interval must not be negative"))
	}
	if c.Common.KeepAliveInterval <= 0 {
		errs = append(errs, fmt.Errorf("common.keep_alive_interval must be positive"))
	}

	// Log
	if !slices.Contains(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of %s: %q", strings.Join(logLevels, ", "), c.Log.Level))
	}
	if !slices.Contains(logFormats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of %s: %q", strings.Join(logFormats, ", "), c.Log.Format))
	}

	// Limits
	if c.Limits.SendRate < 0 {
		errs = append(errs, fmt.Errorf("limits.send_rate must not be negative"))
	}
	if c.Limits.SendRate > 0 && c.Limits.SendBurst < 1 {
		errs = append(errs, fmt.Errorf("limits.send_burst must be positive when send_rate is set"))
	}

	// Events
	if c.Events.Enabled() && c.Events.SubjectPrefix == "" {
		errs = append(errs, fmt.Errorf("events.subject_prefix is required when nats_urls are set"))
	}

	// Metrics
	if c.Metrics.Enabled() && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path must start with '/': %q", c.Metrics.Path))
	}

	return errors.Join(errs...)
}

func validateAddr(addr string, minPort int) error {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port %q", portStr)
	}
	if port < minPort || port > 65535 {
		return fmt.Errorf("port out of range: %d", port)
	}
	return nil
}

// Default возвращает конфигурацию по умолчанию.
func Default() *Config {
	return &Config{
		Common: CommonConfig{
			RemoteAddr:        "10.100.61.3:61440",
			LocalAddr:         "0.0.0.0:0",
			Timeout:           5,
			Retry:             -1,
			RetryInterval:     5,
			KeepAliveInterval: 20,
		},
		User: UserConfig{
			SaveUser: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Events: EventsConfig{
			SubjectPrefix: "jlud.events",
			ReconnectWait: 2,
			MaxReconnects: -1,
		},
		Metrics: MetricsConfig{
			Path: "/metrics",
		},
	}
}
