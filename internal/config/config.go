package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port            int    `yaml:"port"`
	NatsURL         string `yaml:"nats_url"`
	NatsToken       string `yaml:"nats_token"`
	DatabaseURL     string `yaml:"database_url"`
	LogLevel        string `yaml:"log_level"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	AnthropicModel  string `yaml:"anthropic_model"`
	SlackBotToken   string `yaml:"slack_bot_token"`
	SlackChannel    string `yaml:"slack_channel"`
	NLPServiceURL   string `yaml:"nlp_service_url"`
	APIToken        string `yaml:"api_token"`

	CorpusPath           string `yaml:"corpus_path"`
	CorpusLimit          int    `yaml:"corpus_limit"`
	RetrainSchedule      string `yaml:"retrain_schedule"`
	RetrainOnStart       bool   `yaml:"retrain_on_start"`
	FrequencySample      int    `yaml:"frequency_sample"`
	ExampleSample        int    `yaml:"example_sample"`
	SummaryWordThreshold int    `yaml:"summary_word_threshold"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:                 8760,
		NatsURL:              "nats://hermes:4222",
		LogLevel:             "info",
		AnthropicModel:       "claude-sonnet-4-20250514",
		CorpusLimit:          20000,
		RetrainSchedule:      "@daily",
		RetrainOnStart:       true,
		FrequencySample:      1000,
		ExampleSample:        500,
		SummaryWordThreshold: 200,
	}
}

// Load builds the configuration from defaults, an optional YAML file named
// by MENTOR_CONFIG and the environment, in that order. A .env file in the
// working directory is loaded first when present.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Defaults()
	if path := os.Getenv("MENTOR_CONFIG"); path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	applyEnvironment(&cfg)
	return cfg, nil
}

func overlayFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}

func applyEnvironment(cfg *Config) {
	cfg.Port = envInt("MENTOR_PORT", cfg.Port)
	cfg.NatsURL = envStr("NATS_URL", cfg.NatsURL)
	cfg.NatsToken = envStr("NATS_TOKEN", cfg.NatsToken)
	cfg.DatabaseURL = envStr("DATABASE_URL", cfg.DatabaseURL)
	cfg.LogLevel = envStr("LOG_LEVEL", cfg.LogLevel)
	cfg.AnthropicAPIKey = envStr("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
	cfg.AnthropicModel = envStr("MENTOR_MODEL", cfg.AnthropicModel)
	cfg.SlackBotToken = envStr("SLACK_BOT_TOKEN", cfg.SlackBotToken)
	cfg.SlackChannel = envStr("SLACK_REPORTS_CHANNEL", cfg.SlackChannel)
	cfg.NLPServiceURL = envStr("NLP_SERVICE_URL", cfg.NLPServiceURL)
	cfg.APIToken = envStr("MENTOR_API_TOKEN", cfg.APIToken)

	cfg.CorpusPath = envStr("MENTOR_CORPUS_PATH", cfg.CorpusPath)
	cfg.CorpusLimit = envInt("MENTOR_CORPUS_LIMIT", cfg.CorpusLimit)
	cfg.RetrainSchedule = envStr("MENTOR_RETRAIN_SCHEDULE", cfg.RetrainSchedule)
	cfg.RetrainOnStart = envBool("MENTOR_RETRAIN_ON_START", cfg.RetrainOnStart)
	cfg.FrequencySample = envInt("MENTOR_FREQUENCY_SAMPLE", cfg.FrequencySample)
	cfg.ExampleSample = envInt("MENTOR_EXAMPLE_SAMPLE", cfg.ExampleSample)
	cfg.SummaryWordThreshold = envInt("MENTOR_SUMMARY_WORDS", cfg.SummaryWordThreshold)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
