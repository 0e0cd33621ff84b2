// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Dialogue      DialogueConfig          `mapstructure:"dialogue"`
	Catalog       CatalogConfig           `mapstructure:"catalog"`
	Classifier    ClassifierConfig        `mapstructure:"classifier"`
	Vocabulary    VocabularyConfig        `mapstructure:"vocabulary"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Sessions      SessionsConfig          `mapstructure:"sessions"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// --- Dialogue ---

// DialogueConfig tunes intent resolution and recommendation scoring.
type DialogueConfig struct {
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	ExpectationBoost    float64 `mapstructure:"expectation_boost"`
	BrandFactor         float64 `mapstructure:"brand_factor"`
	Debug               bool    `mapstructure:"debug"`
	Seed                int64   `mapstructure:"seed"` // 0 seeds from the clock
}

// CatalogConfig selects where product rows come from.
type CatalogConfig struct {
	Source    string `mapstructure:"source"` // file | postgres | elasticsearch
	Path      string `mapstructure:"path"`
	Delimiter string `mapstructure:"delimiter"`
	Table     string `mapstructure:"table"`
	Index     string `mapstructure:"index"`
}

// ClassifierConfig selects and tunes the intent classifier.
type ClassifierConfig struct {
	Mode       string `mapstructure:"mode"` // keyword | http
	BaseURL    string `mapstructure:"base_url"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	MaxRetries int    `mapstructure:"max_retries"`
	Cache      struct {
		Enabled bool `mapstructure:"enabled"`
		TTL     int  `mapstructure:"ttl"` // seconds
	} `mapstructure:"cache"`
}

// VocabularyConfig points at an optional synonym file merged over the catalog defaults.
type VocabularyConfig struct {
	Path string `mapstructure:"path"`
}

// SessionsConfig bounds the conversation registry used by the worker.
type SessionsConfig struct {
	IdleTimeout int `mapstructure:"idle_timeout"` // milliseconds
	MaxSessions int `mapstructure:"max_sessions"`
}

// ObservabilityConfig holds metrics and tracing endpoints.
type ObservabilityConfig struct {
	MetricsAddr    string `mapstructure:"metrics_addr"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// --- Storage ---

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
}

// GetURL returns the URL field or the first address.
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Workflow ---

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// WorkerConfig holds the settings applicable to every job worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}
