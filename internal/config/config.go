package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds every runtime setting of the API server. Values come from a
// .env file in the working directory, overridden by environment variables.
type Config struct {
	ServerPort     string        `mapstructure:"SERVER_PORT"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	ClientOrigin   string        `mapstructure:"CLIENT_ORIGIN"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	AWSRegion    string `mapstructure:"AWS_REGION"`
	SESFromEmail string `mapstructure:"SES_FROM_EMAIL"`
	S3Bucket     string `mapstructure:"S3_BUCKET"`

	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `mapstructure:"GOOGLE_REDIRECT_URL"`
}

// LoadConfig reads configuration from a .env file at the given path and from
// the environment. Environment variables win.
func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REQUEST_TIMEOUT", 30*time.Second)
	viper.SetDefault("CLIENT_ORIGIN", "http://localhost:5173")

	if err := viper.ReadInConfig(); err != nil {
		// A missing .env file is fine in production where everything comes
		// from the environment.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
