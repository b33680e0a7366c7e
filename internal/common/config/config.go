// Package config provides configuration management for the sidecar puppet.
// It supports loading configuration from environment variables, config files, and defaults.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/wechaty/wechaty-puppet-sidecar/internal/common/logger"
)

// Config holds all configuration sections.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	NATS    NATSConfig    `mapstructure:"nats" yaml:"nats"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Tracing TracingConfig `mapstructure:"tracing" yaml:"tracing"`
	Sidecar SidecarConfig `mapstructure:"sidecar" yaml:"sidecar"`
	Puppet  PuppetConfig  `mapstructure:"puppet" yaml:"puppet"`
}

// ServerConfig holds HTTP control server configuration.
type ServerConfig struct {
	Enabled      bool   `mapstructure:"enabled" yaml:"enabled"`
	Host         string `mapstructure:"host" yaml:"host"`
	Port         int    `mapstructure:"port" yaml:"port"`
	ReadTimeout  int    `mapstructure:"readTimeout" yaml:"readTimeout"`   // in seconds
	WriteTimeout int    `mapstructure:"writeTimeout" yaml:"writeTimeout"` // in seconds
}

// NATSConfig holds NATS messaging configuration.
// An empty URL selects the in-memory event bus.
type NATSConfig struct {
	URL           string `mapstructure:"url" yaml:"url"`
	ClientID      string `mapstructure:"clientId" yaml:"clientId"`
	MaxReconnects int    `mapstructure:"maxReconnects" yaml:"maxReconnects"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	OutputPath string `mapstructure:"outputPath" yaml:"outputPath"`
}

// TracingConfig holds OpenTelemetry configuration.
// An empty endpoint disables tracing.
type TracingConfig struct {
	Endpoint    string `mapstructure:"endpoint" yaml:"endpoint"`
	ServiceName string `mapstructure:"serviceName" yaml:"serviceName"`
}

// SidecarConfig describes the instrumented target process and the channel
// its injected agent talks over.
type SidecarConfig struct {
	// TargetProcess is the executable to spawn and instrument.
	TargetProcess string   `mapstructure:"targetProcess" yaml:"targetProcess"`
	Args          []string `mapstructure:"args" yaml:"args"`

	// Session names the bus subjects the injected agent uses
	// (sidecar.<session>.methods and sidecar.<session>.call).
	Session string `mapstructure:"session" yaml:"session"`

	CallTimeout int `mapstructure:"callTimeout" yaml:"callTimeout"` // in seconds
	StopTimeout int `mapstructure:"stopTimeout" yaml:"stopTimeout"` // in seconds
}

// PuppetConfig holds adapter settings.
type PuppetConfig struct {
	Name      string `mapstructure:"name" yaml:"name"`
	AutoStart bool   `mapstructure:"autoStart" yaml:"autoStart"`
}

// ReadTimeoutDuration returns the read timeout as a time.Duration.
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns the write timeout as a time.Duration.
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// Addr returns the host:port the server listens on.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CallTimeoutDuration returns the bridge call timeout as a time.Duration.
func (s *SidecarConfig) CallTimeoutDuration() time.Duration {
	return time.Duration(s.CallTimeout) * time.Second
}

// StopTimeoutDuration returns the target process stop grace period.
func (s *SidecarConfig) StopTimeoutDuration() time.Duration {
	return time.Duration(s.StopTimeout) * time.Second
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8788)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)

	// empty URL means use in-memory event bus
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.clientId", "puppet-sidecar")
	v.SetDefault("nats.maxReconnects", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", logger.DetectFormat())
	v.SetDefault("logging.outputPath", "stdout")

	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.serviceName", "puppet-sidecar")

	v.SetDefault("sidecar.targetProcess", "")
	v.SetDefault("sidecar.args", []string{})
	v.SetDefault("sidecar.session", "default")
	v.SetDefault("sidecar.callTimeout", 30)
	v.SetDefault("sidecar.stopTimeout", 5)

	v.SetDefault("puppet.name", "sidecar")
	v.SetDefault("puppet.autoStart", false)
}

// Load reads configuration from environment variables, config file, and defaults.
// Environment variables use the prefix PUPPET_ with snake_case naming.
// The config file is named config.yaml and lives in the current directory or /etc/puppet-sidecar/.
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath reads configuration from the specified path or default locations.
func LoadWithPath(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("PUPPET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv does not map camelCase keys to SNAKE_CASE.
	_ = v.BindEnv("sidecar.targetProcess", "PUPPET_SIDECAR_TARGET_PROCESS")
	_ = v.BindEnv("sidecar.callTimeout", "PUPPET_SIDECAR_CALL_TIMEOUT")
	_ = v.BindEnv("sidecar.stopTimeout", "PUPPET_SIDECAR_STOP_TIMEOUT")
	_ = v.BindEnv("puppet.autoStart", "PUPPET_AUTO_START")
	_ = v.BindEnv("tracing.endpoint", "PUPPET_TRACING_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	_ = v.BindEnv("nats.url", "PUPPET_NATS_URL", "NATS_URL")

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/puppet-sidecar/")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate checks that all required configuration fields are set.
func validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Enabled && (cfg.Server.Port <= 0 || cfg.Server.Port > 65535) {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, "logging.format must be one of: json, text, console")
	}

	if strings.TrimSpace(cfg.Puppet.Name) == "" {
		errs = append(errs, "puppet.name is required")
	} else if strings.ContainsAny(cfg.Puppet.Name, ".*> ") {
		errs = append(errs, "puppet.name must not contain '.', '*', '>' or spaces")
	}
	if strings.TrimSpace(cfg.Sidecar.Session) == "" {
		errs = append(errs, "sidecar.session is required")
	} else if strings.ContainsAny(cfg.Sidecar.Session, ".*> ") {
		errs = append(errs, "sidecar.session must not contain '.', '*', '>' or spaces")
	}
	if cfg.Sidecar.CallTimeout <= 0 {
		errs = append(errs, "sidecar.callTimeout must be positive")
	}
	if cfg.Sidecar.StopTimeout <= 0 {
		errs = append(errs, "sidecar.stopTimeout must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}

	return nil
}

// Dump writes the effective configuration as YAML.
func Dump(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}
	return enc.Close()
}
