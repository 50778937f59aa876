package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	JWTSecret       string `mapstructure:"JWT_SECRET"`
	TokenTTLMinutes int    `mapstructure:"TOKEN_TTL_MINUTES"`

	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`

	LogFile string `mapstructure:"LOG_FILE"`

	// Generative model (Gemini-style REST endpoint).
	GenAIBaseURL string  `mapstructure:"GENAI_BASE_URL"`
	GenAIAPIKey  string  `mapstructure:"GENAI_API_KEY"`
	GenAIModel   string  `mapstructure:"GENAI_MODEL"`
	GenAITemp    float64 `mapstructure:"GENAI_TEMPERATURE"`
	GenAITopP    float64 `mapstructure:"GENAI_TOP_P"`
	GenAITopK    int     `mapstructure:"GENAI_TOP_K"`

	// Hosted inference endpoints for the pipeline models.
	InferenceBaseURL string `mapstructure:"INFERENCE_BASE_URL"`
	InferenceToken   string `mapstructure:"INFERENCE_TOKEN"`
	InferenceTimeout int    `mapstructure:"INFERENCE_TIMEOUT_SECONDS"`
	InferenceRetries int    `mapstructure:"INFERENCE_RETRIES"`

	SymptomClassifierModel string `mapstructure:"SYMPTOM_CLASSIFIER_MODEL"`
	EmbeddingModel         string `mapstructure:"EMBEDDING_MODEL"`
	VisionModel            string `mapstructure:"VISION_MODEL"`
	ModelCacheDir          string `mapstructure:"MODEL_CACHE_DIR"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("TOKEN_TTL_MINUTES", 60)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("GENAI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("GENAI_MODEL", "gemini-2.0-flash")
	v.SetDefault("GENAI_TEMPERATURE", 0.7)
	v.SetDefault("GENAI_TOP_P", 0.9)
	v.SetDefault("GENAI_TOP_K", 40)
	v.SetDefault("INFERENCE_BASE_URL", "https://api-inference.huggingface.co")
	v.SetDefault("INFERENCE_TIMEOUT_SECONDS", 30)
	v.SetDefault("INFERENCE_RETRIES", 3)
	v.SetDefault("SYMPTOM_CLASSIFIER_MODEL", "facebook/bart-large-mnli")
	v.SetDefault("EMBEDDING_MODEL", "pritamdeka/S-PubMedBert-MS-MARCO")
	v.SetDefault("VISION_MODEL", "microsoft/beit-base-patch16-224-pt22k-ft22k")
	v.SetDefault("MODEL_CACHE_DIR", "")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"JWT_SECRET", "TOKEN_TTL_MINUTES", "CORS_ORIGINS",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "LOG_FILE",
		"GENAI_BASE_URL", "GENAI_API_KEY", "GENAI_MODEL",
		"GENAI_TEMPERATURE", "GENAI_TOP_P", "GENAI_TOP_K",
		"INFERENCE_BASE_URL", "INFERENCE_TOKEN", "INFERENCE_TIMEOUT_SECONDS",
		"INFERENCE_RETRIES", "SYMPTOM_CLASSIFIER_MODEL", "EMBEDDING_MODEL",
		"VISION_MODEL", "MODEL_CACHE_DIR",
	} {
		v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// a JWT secret is mandatory, and a generative API key must be configured so
// the tool surface does not silently fail at call time.
func (c *Config) Validate() error {
	if !c.IsDev() {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when ENV is not development")
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters, got %d", len(c.JWTSecret))
		}
		if c.GenAIAPIKey == "" {
			return fmt.Errorf("GENAI_API_KEY is required when ENV is not development")
		}
	}
	if c.TokenTTLMinutes <= 0 {
		return fmt.Errorf("TOKEN_TTL_MINUTES must be positive, got %d", c.TokenTTLMinutes)
	}
	if c.InferenceRetries < 0 {
		return fmt.Errorf("INFERENCE_RETRIES must not be negative, got %d", c.InferenceRetries)
	}
	return nil
}
