package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig             `mapstructure:"app"`
	Server        ServerConfig          `mapstructure:"server"`
	Database      DatabaseConfig        `mapstructure:"database"`
	GenAI         GenAIConfig           `mapstructure:"genai"`
	PriceAPI      PriceAPIConfig        `mapstructure:"price_api"`
	Flows         map[string]FlowConfig `mapstructure:"flows"`
	Notifications NotificationConfig    `mapstructure:"notifications"`
	Scheduler     SchedulerConfig       `mapstructure:"scheduler"`
	Logging       LoggingConfig         `mapstructure:"logging"`
	Registry      RegistryConfig        `mapstructure:"registry"`
}

// --- Core App/Infrastructure Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int  `mapstructure:"port"`
	CORSAllowAll    bool `mapstructure:"cors_allow_all"`
	ShutdownTimeout int  `mapstructure:"shutdown_timeout"` // seconds
}

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
	Addresses   []string `mapstructure:"addresses"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	SignalIndex string   `mapstructure:"signal_index"`
	Enabled     bool     `mapstructure:"enabled"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GenAIConfig holds settings for the generative model client.
type GenAIConfig struct {
	BaseURL      string `mapstructure:"base_url"` // empty means the provider default
	APIKey       string `mapstructure:"api_key"`
	Model        string `mapstructure:"model"`
	MaxToolTurns int    `mapstructure:"max_tool_turns"`
	Timeout      int    `mapstructure:"timeout"` // milliseconds
}

// PriceAPIConfig holds settings for the market-data endpoint consumed by the
// price lookup tool.
type PriceAPIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// FlowConfig holds the core settings applicable to every flow.
type FlowConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Timeout int  `mapstructure:"timeout"` // milliseconds
}

// NotificationConfig holds settings for push and email fan-out.
type NotificationConfig struct {
	Push struct {
		Enabled bool   `mapstructure:"enabled"`
		Title   string `mapstructure:"title"`
	} `mapstructure:"push"`
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
		Digest    string `mapstructure:"digest"` // recipient for breakout digests
	} `mapstructure:"email"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// SchedulerConfig holds settings for the daily signal job.
type SchedulerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Spec    string `mapstructure:"spec"` // cron spec, default "@every 24h"
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// RegistryConfig holds the flow catalog location.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}
