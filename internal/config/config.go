// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads r2a settings from a YAML file, R2A_* environment
// variables and command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/istvan-fodor/r2a/sink"
)

// EnvPrefix prefixes every environment override, e.g. R2A_SINK_PATH.
const EnvPrefix = "R2A"

// Config is the complete r2a configuration.
type Config struct {
	Log         LogConfig       `mapstructure:"log"`
	Definitions []string        `mapstructure:"definitions"`
	Record      RecordConfig    `mapstructure:"record"`
	Sink        SinkConfig      `mapstructure:"sink"`
	Serve       ServeConfig     `mapstructure:"serve"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
}

type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Development bool     `mapstructure:"development"`
	Encoding    string   `mapstructure:"encoding"`
	OutputPaths []string `mapstructure:"output_paths"`
}

// RecordConfig selects what the record command converts.
type RecordConfig struct {
	Type      string       `mapstructure:"type"`
	Fields    []string     `mapstructure:"fields"`
	Flat      bool         `mapstructure:"flat"`
	BatchSize int          `mapstructure:"batch_size"`
	Source    SourceConfig `mapstructure:"source"`
}

type SourceConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Topic    string `mapstructure:"topic"`
}

type SinkConfig struct {
	Kind            string `mapstructure:"kind"`
	Path            string `mapstructure:"path"`
	Format          string `mapstructure:"format"`
	Compression     string `mapstructure:"compression"`
	Bucket          string `mapstructure:"bucket"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// Sink converts to the sink package's configuration.
func (s SinkConfig) Sink() sink.Config {
	return sink.Config{
		Kind:            s.Kind,
		Path:            s.Path,
		Format:          sink.Format(s.Format),
		Compression:     sink.Compression(s.Compression),
		Bucket:          s.Bucket,
		CredentialsFile: s.CredentialsFile,
	}
}

type ServeConfig struct {
	Addr   string `mapstructure:"addr"`
	Prefix string `mapstructure:"prefix"`
}

type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Exporter    string `mapstructure:"exporter"`
	ServiceName string `mapstructure:"service_name"`
}

var defaults = map[string]any{
	"log.level":              "info",
	"log.development":        false,
	"log.encoding":           "json",
	"log.output_paths":       []string{"stderr"},
	"definitions":            []string{},
	"record.type":            "",
	"record.fields":          []string{},
	"record.flat":            false,
	"record.batch_size":      10,
	"record.source.endpoint": "tcp://127.0.0.1:5556",
	"record.source.topic":    "",
	"sink.kind":              sink.KindDir,
	"sink.path":              "./out",
	"sink.format":            string(sink.FormatParquet),
	"sink.compression":       string(sink.CompressionZstd),
	"sink.bucket":            "",
	"sink.credentials_file":  "",
	"serve.addr":             ":8080",
	"serve.prefix":           "/r2a",
	"telemetry.enabled":      false,
	"telemetry.exporter":     "stdout",
	"telemetry.service_name": "r2a",
}

// Loader accumulates flag bindings before loading.
type Loader struct {
	v *viper.Viper
}

func NewLoader() *Loader {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// BindFlag makes flag, when set, override key.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("config: no flag for %q", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads path (if not empty) and returns the merged configuration.
func (l *Loader) Load(path string) (*Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
		l.v.SetConfigType("yaml")
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Load is NewLoader().Load(path).
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// Validate checks the settings every command relies on. Command specific
// settings are checked by ValidateRecord.
func (c *Config) Validate() error {
	var errs []error
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	switch c.Log.Encoding {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.encoding: unknown encoding %q", c.Log.Encoding))
	}
	if c.Telemetry.Enabled {
		switch c.Telemetry.Exporter {
		case "stdout", "none":
		default:
			errs = append(errs, fmt.Errorf("telemetry.exporter: unknown exporter %q", c.Telemetry.Exporter))
		}
	}
	return errors.Join(errs...)
}

// ValidateRecord checks the settings of the record command.
func (c *Config) ValidateRecord() error {
	var errs []error
	if c.Record.Type == "" {
		errs = append(errs, errors.New("record.type: required"))
	}
	if c.Record.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("record.batch_size: must be positive, got %d", c.Record.BatchSize))
	}
	if c.Record.Flat && len(c.Record.Fields) > 0 {
		errs = append(errs, errors.New("record.flat: cannot be combined with record.fields"))
	}
	if c.Record.Source.Endpoint == "" {
		errs = append(errs, errors.New("record.source.endpoint: required"))
	}
	if err := c.Sink.Sink().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
