package core

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration. It is loaded from a YAML file, then
// overridden by environment variables for deployment-specific values.
//
// The weigh/hight spellings are the recognized configuration keys for the
// default output resolution and are kept for compatibility.
type Config struct {
	// Endpoint is the backend's fixed generation URL.
	Endpoint string `yaml:"endpoint"`

	// Headers are sent verbatim on every backend request.
	Headers map[string]string `yaml:"headers"`

	// RequestTimeoutSec bounds one backend call.
	RequestTimeoutSec int `yaml:"requestTimeout"`

	// MaxConcurrency is the per-conversation job ceiling; 0 = unbounded.
	MaxConcurrency int `yaml:"maxConcurrency"`

	// Forbidden is the raw forbidden-term rule list.
	Forbidden string `yaml:"forbidden"`

	// BasePrompt / NegativePrompt are the default term lists prepended
	// unless the user passes the override flag.
	BasePrompt     string `yaml:"basePrompt"`
	NegativePrompt string `yaml:"negativePrompt"`

	// Scale is the default cfg scale; 0 falls through to the hardcoded
	// fallback.
	Scale float64 `yaml:"scale"`

	// Strength is the default denoising strength for image-to-image.
	Strength float64 `yaml:"strength"`

	// DefaultWidth / DefaultHeight are the text-to-image dimensions.
	DefaultWidth  int `yaml:"weigh"`
	DefaultHeight int `yaml:"hight"`

	// Translator enables the best-effort CJK prompt translation.
	Translator bool `yaml:"translator"`

	// TranslatorModel / TranslatorBaseURL tune the translation client;
	// the API key comes from the environment only.
	TranslatorModel   string `yaml:"translatorModel"`
	TranslatorBaseURL string `yaml:"translatorBaseURL"`

	// Language selects the user-message locale table.
	Language string `yaml:"language"`

	// Censor wraps generated images in the host's moderation annotation.
	Censor bool `yaml:"censor"`

	// Output is the reply verbosity: minimal, normal, or verbose.
	Output string `yaml:"output"`

	// RecallTimeoutSec deletes sent replies after this delay; 0 disables.
	RecallTimeoutSec int `yaml:"recallTimeout"`

	// ModelLabel names the backend model in verbose replies.
	ModelLabel string `yaml:"model"`

	// DataDir holds the database and log files.
	DataDir string `yaml:"dataDir"`

	// HistoryRetentionDays prunes old history at startup; 0 keeps all.
	HistoryRetentionDays int `yaml:"historyRetentionDays"`

	// GatewayHost / GatewayPort locate the HTTP front door.
	GatewayHost string `yaml:"gatewayHost"`
	GatewayPort int    `yaml:"gatewayPort"`
}

// DefaultConfig returns the built-in defaults applied before the file and
// environment are consulted.
func DefaultConfig() Config {
	return Config{
		RequestTimeoutSec: 60,
		MaxConcurrency:    3,
		NegativePrompt:    "lowres, bad anatomy, bad hands, text, error, blurry",
		DefaultWidth:      512,
		DefaultHeight:     512,
		Language:          "en",
		Output:            "normal",
		DataDir:           "data",
		GatewayHost:       "localhost",
		GatewayPort:       3080,
	}
}

// RequestTimeout returns the backend call timeout as a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// RecallTimeout returns the reply recall delay; zero disables recall.
func (c Config) RecallTimeout() time.Duration {
	return time.Duration(c.RecallTimeoutSec) * time.Second
}

// ConfigError is a configuration problem with an actionable instruction.
type ConfigError struct {
	Message string
	Action  string
}

func (e *ConfigError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Action)
	}
	return e.Message
}

// LoadConfig reads the YAML file at path (if it exists), applies
// environment overrides, and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Missing file is fine; env can carry everything.
		case err != nil:
			return cfg, &ConfigError{
				Message: fmt.Sprintf("Cannot read config file %s: %v", path, err),
			}
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, &ConfigError{
					Message: fmt.Sprintf("Cannot parse config file %s: %v", path, err),
					Action:  "Fix the YAML syntax and restart",
				}
			}
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnvOverrides layers deployment-specific environment values over the
// file configuration.
func applyEnvOverrides(cfg *Config) {
	cfg.Endpoint = GetEnvOrDefault("PAINTBOT_ENDPOINT", cfg.Endpoint)
	cfg.DataDir = GetEnvOrDefault("PAINTBOT_DATA_DIR", cfg.DataDir)
	cfg.GatewayHost = GetEnvOrDefault("PAINTBOT_GATEWAY_HOST", cfg.GatewayHost)
	cfg.GatewayPort = ParseIntEnv("PAINTBOT_GATEWAY_PORT", cfg.GatewayPort)
	cfg.MaxConcurrency = ParseIntEnv("PAINTBOT_MAX_CONCURRENCY", cfg.MaxConcurrency)
	cfg.RequestTimeoutSec = int(ParseDurationEnv("PAINTBOT_REQUEST_TIMEOUT", cfg.RequestTimeoutSec).Seconds())
	cfg.Translator = ParseBoolEnv("PAINTBOT_TRANSLATOR", cfg.Translator)
	if token := os.Getenv("PAINTBOT_AUTH_TOKEN"); token != "" {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string)
		}
		cfg.Headers["Authorization"] = "Bearer " + token
	}
}

// Validate checks the configuration for startup-blocking problems.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return &ConfigError{
			Message: "No generation endpoint configured",
			Action:  "Set endpoint in the config file or PAINTBOT_ENDPOINT in the environment",
		}
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ConfigError{
			Message: fmt.Sprintf("Invalid endpoint URL %q", c.Endpoint),
			Action:  "Use a full http(s) URL, e.g. http://127.0.0.1:7860/sdapi/v1/txt2img",
		}
	}
	if c.MaxConcurrency < 0 {
		return &ConfigError{Message: "maxConcurrency cannot be negative"}
	}
	if c.RequestTimeoutSec <= 0 {
		return &ConfigError{Message: "requestTimeout must be positive"}
	}
	switch c.Output {
	case "", "minimal", "normal", "verbose":
	default:
		return &ConfigError{
			Message: fmt.Sprintf("Unknown output mode %q", c.Output),
			Action:  "Use minimal, normal, or verbose",
		}
	}
	return nil
}
