// Package config loads application configuration from file and environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Exa        ExaConfig        `yaml:"exa" mapstructure:"exa"`
	Serper     SerperConfig     `yaml:"serper" mapstructure:"serper"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Budget     BudgetConfig     `yaml:"budget" mapstructure:"budget"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Analyzer   AnalyzerConfig   `yaml:"analyzer" mapstructure:"analyzer"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ExaConfig holds Exa (neural search) API settings.
type ExaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// SerperConfig holds Serper (SERP search) API settings.
type SerperConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// JinaConfig holds Jina AI Reader settings, used for contact-page fetches.
type JinaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings for the optional LLM signal check.
type AnthropicConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
}

// NotionConfig holds Notion export settings.
type NotionConfig struct {
	Token         string `yaml:"token" mapstructure:"token"`
	OpportunityDB string `yaml:"opportunity_db" mapstructure:"opportunity_db"`
}

// SalesforceConfig holds Salesforce JWT auth settings for Lead export.
type SalesforceConfig struct {
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	Username string `yaml:"username" mapstructure:"username"`
	KeyPath  string `yaml:"key_path" mapstructure:"key_path"`
	LoginURL string `yaml:"login_url" mapstructure:"login_url"`
}

// BudgetConfig configures cost tracking and allocation.
type BudgetConfig struct {
	MonthlyLimitUSD float64 `yaml:"monthly_limit_usd" mapstructure:"monthly_limit_usd"`
	ExaPerQuery     float64 `yaml:"exa_per_query" mapstructure:"exa_per_query"`
	SerperPerQuery  float64 `yaml:"serper_per_query" mapstructure:"serper_per_query"`
	LedgerPath      string  `yaml:"ledger_path" mapstructure:"ledger_path"`
}

// SearchConfig configures the dual-source orchestrator.
type SearchConfig struct {
	ConcurrencyPerBackend int     `yaml:"concurrency_per_backend" mapstructure:"concurrency_per_backend"`
	RateLimitPerSec       float64 `yaml:"rate_limit_per_sec" mapstructure:"rate_limit_per_sec"`
	ProbeResultCap        int     `yaml:"probe_result_cap" mapstructure:"probe_result_cap"`
	ExpandResultCap       int     `yaml:"expand_result_cap" mapstructure:"expand_result_cap"`
	MaxTimeSecs           int     `yaml:"max_time_secs" mapstructure:"max_time_secs"`
	CacheTTLHours         int     `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// AnalyzerConfig holds the opportunity-gate thresholds. These are tuning
// knobs subject to calibration, not correctness requirements.
type AnalyzerConfig struct {
	MinRelevance   float64 `yaml:"min_relevance" mapstructure:"min_relevance"`
	MinQuality     float64 `yaml:"min_quality" mapstructure:"min_quality"`
	MaxSpamRisk    float64 `yaml:"max_spam_risk" mapstructure:"max_spam_risk"`
	LLMAssistChars int     `yaml:"llm_assist_chars" mapstructure:"llm_assist_chars"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "outreach.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("exa.base_url", "https://api.exa.ai")
	v.SetDefault("serper.base_url", "https://google.serper.dev")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.enabled", false)
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("budget.monthly_limit_usd", 50.0)
	v.SetDefault("budget.exa_per_query", 0.005)
	v.SetDefault("budget.serper_per_query", 0.005)
	v.SetDefault("budget.ledger_path", "ledger.yaml")
	v.SetDefault("search.concurrency_per_backend", 3)
	v.SetDefault("search.rate_limit_per_sec", 5)
	v.SetDefault("search.probe_result_cap", 5)
	v.SetDefault("search.expand_result_cap", 10)
	v.SetDefault("search.max_time_secs", 120)
	v.SetDefault("search.cache_ttl_hours", 24)
	v.SetDefault("analyzer.min_relevance", 0.3)
	v.SetDefault("analyzer.min_quality", 0.4)
	v.SetDefault("analyzer.max_spam_risk", 0.6)
	v.SetDefault("analyzer.llm_assist_chars", 600)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
