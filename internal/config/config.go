package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

const DefaultGreeting = `Log interaction details here (e.g., "Met Dr. Smith, discussed Product-X efficacy, positive sentiment, shared brochure") or ask for help.`

type Config struct {
	Port              int    `toml:"port"`
	ExtractionURL     string `toml:"extraction_url"`
	DebugTranscript   bool   `toml:"debug_transcript"`
	Greeting          string `toml:"greeting"`
	NatsURL           string `toml:"nats_url"`
	NatsToken         string `toml:"nats_token"`
	NatsSubjectPrefix string `toml:"nats_subject_prefix"`
	SlackBotToken     string `toml:"slack_bot_token"`
	SlackChannel      string `toml:"slack_channel"`
	LogLevel          string `toml:"log_level"`

	// ExtractTimeout bounds one round-trip; zero leaves it unbounded.
	ExtractTimeout time.Duration `toml:"-"`
	// HTTPTimeout is the extraction client's transport timeout; zero disables
	// it.
	HTTPTimeout time.Duration `toml:"-"`
}

// file mirrors the TOML layout; durations are written as "30s" strings.
type file struct {
	Config
	ExtractTimeout string `toml:"extract_timeout"`
	HTTPTimeout    string `toml:"http_timeout"`
}

func Default() Config {
	return Config{
		Port:              8760,
		ExtractionURL:     "http://127.0.0.1:8000",
		Greeting:          DefaultGreeting,
		NatsSubjectPrefix: "crm.hcplog",
		LogLevel:          "info",
	}
}

// Load starts from defaults, overlays the TOML file named by HCPLOG_CONFIG if
// set, then applies environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("HCPLOG_CONFIG"); path != "" {
		var err error
		if cfg, err = loadFile(path, cfg); err != nil {
			return cfg, err
		}
	}

	cfg.Port = envInt("HCPLOG_PORT", cfg.Port)
	cfg.ExtractionURL = envStr("EXTRACTION_URL", cfg.ExtractionURL)
	cfg.ExtractTimeout = envDuration("HCPLOG_EXTRACT_TIMEOUT", cfg.ExtractTimeout)
	cfg.HTTPTimeout = envDuration("HCPLOG_HTTP_TIMEOUT", cfg.HTTPTimeout)
	cfg.DebugTranscript = envBool("HCPLOG_DEBUG_TRANSCRIPT", cfg.DebugTranscript)
	cfg.Greeting = envStr("HCPLOG_GREETING", cfg.Greeting)
	cfg.NatsURL = envStr("NATS_URL", cfg.NatsURL)
	cfg.NatsToken = envStr("NATS_TOKEN", cfg.NatsToken)
	cfg.NatsSubjectPrefix = envStr("HCPLOG_NATS_SUBJECT_PREFIX", cfg.NatsSubjectPrefix)
	cfg.SlackBotToken = envStr("SLACK_BOT_TOKEN", cfg.SlackBotToken)
	cfg.SlackChannel = envStr("SLACK_CHANNEL", cfg.SlackChannel)
	cfg.LogLevel = envStr("LOG_LEVEL", cfg.LogLevel)

	return cfg, nil
}

func loadFile(path string, base Config) (Config, error) {
	f := file{Config: base}
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return base, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg := f.Config
	cfg.ExtractTimeout = base.ExtractTimeout
	cfg.HTTPTimeout = base.HTTPTimeout
	if f.ExtractTimeout != "" {
		d, err := time.ParseDuration(f.ExtractTimeout)
		if err != nil {
			return base, fmt.Errorf("parse config %s: extract_timeout: %w", path, err)
		}
		cfg.ExtractTimeout = d
	}
	if f.HTTPTimeout != "" {
		d, err := time.ParseDuration(f.HTTPTimeout)
		if err != nil {
			return base, fmt.Errorf("parse config %s: http_timeout: %w", path, err)
		}
		cfg.HTTPTimeout = d
	}
	return cfg, nil
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
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go durations ("90s") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
