package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	ServerPort      string        `mapstructure:"PORT"`
	DatabaseType    string        `mapstructure:"DB_TYPE"`
	DatabasePath    string        `mapstructure:"DB_PATH"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	SessionDuration time.Duration `mapstructure:"SESSION_DURATION"`
	CatalogSeedPath string        `mapstructure:"CATALOG_SEED_PATH"`

	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	AccessTokenTTL time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	CSRFSecret     string        `mapstructure:"CSRF_SECRET"`

	RedisAddr         string        `mapstructure:"REDIS_ADDR"`
	RateLimitRequests int           `mapstructure:"RATE_LIMIT_REQUESTS"`
	RateLimitWindow   time.Duration `mapstructure:"RATE_LIMIT_WINDOW"`

	AWSRegion    string `mapstructure:"AWS_REGION"`
	SESFromEmail string `mapstructure:"SES_FROM_EMAIL"`
	SESFromName  string `mapstructure:"SES_FROM_NAME"`
	AppBaseURL   string `mapstructure:"APP_BASE_URL"`
	EmailDebug   bool   `mapstructure:"EMAIL_DEBUG"`

	GoogleClientID       string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret   string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	FacebookClientID     string `mapstructure:"FACEBOOK_CLIENT_ID"`
	FacebookClientSecret string `mapstructure:"FACEBOOK_CLIENT_SECRET"`
	OAuthRedirectBaseURL string `mapstructure:"OAUTH_REDIRECT_BASE_URL"`
}

var defaults = map[string]interface{}{
	"PORT":                    "8080",
	"DB_TYPE":                 "sqlite",
	"DB_PATH":                 "./signlearn.db",
	"DATABASE_URL":            "",
	"SESSION_DURATION":        "24h",
	"CATALOG_SEED_PATH":       "./data/curriculum.json",
	"JWT_SECRET":              "change-me-in-production",
	"ACCESS_TOKEN_TTL":        "15m",
	"CSRF_SECRET":             "change-me-in-production",
	"REDIS_ADDR":              "",
	"RATE_LIMIT_REQUESTS":     10,
	"RATE_LIMIT_WINDOW":       "1m",
	"AWS_REGION":              "us-east-1",
	"SES_FROM_EMAIL":          "",
	"SES_FROM_NAME":           "SignLearn",
	"APP_BASE_URL":            "http://localhost:8080",
	"EMAIL_DEBUG":             false,
	"GOOGLE_CLIENT_ID":        "",
	"GOOGLE_CLIENT_SECRET":    "",
	"FACEBOOK_CLIENT_ID":      "",
	"FACEBOOK_CLIENT_SECRET":  "",
	"OAUTH_REDIRECT_BASE_URL": "",
}

// Load reads configuration from an optional .env file, an optional app.env
// in path, and the environment, in increasing order of precedence.
func Load(path string) (*Config, error) {
	// .env is optional; missing file is not an error
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
