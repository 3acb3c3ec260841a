package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

// SessionSettings holds the session lifecycle policy.
type SessionSettings struct {
	// Timeout is the absolute session ceiling from login or extension.
	Timeout time.Duration
	// ExtendThreshold is the remaining time below which client activity
	// triggers an automatic extension.
	ExtendThreshold time.Duration
	// SweepInterval is how often the monitor checks tracked scopes for
	// silent expiry.
	SweepInterval time.Duration
	// ActivityEvents is the interaction-event vocabulary counted as
	// activity.
	ActivityEvents []string
}

type RedisSettings struct {
	Address  string
	Password string
	DB       int
}

type Config struct {
	// Server port
	Port     string
	AppEnv   string
	LogLevel string

	JWTSecret string
	// AuthProvider selects the identity provider: "demo" or "microsoft".
	AuthProvider string
	// SessionBackend selects the KV backend: "memory" or "redis".
	SessionBackend  string
	StateCookieName string
	MicrosoftTenant string

	Session SessionSettings
	Redis   RedisSettings
	OAuth   map[string]*oauth2.Config
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("AUTH_PROVIDER", "demo")
	viper.SetDefault("SESSION_BACKEND", "memory")
	viper.SetDefault("STATE_COOKIE_NAME", "bms_oauth_state")
	viper.SetDefault("SESSION_TIMEOUT", "8h")
	viper.SetDefault("SESSION_EXTEND_THRESHOLD", "30m")
	viper.SetDefault("SESSION_SWEEP_INTERVAL", "5m")
	viper.SetDefault("SESSION_ACTIVITY_EVENTS", []string{"pointerdown", "pointermove", "keypress", "scroll", "touchstart"})
	viper.SetDefault("MICROSOFT_TENANT", "common")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file not found, using defaults and environment variables")
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	jwtSecret := viper.GetString("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "a_very_secret_key_change_me"
		log.Println("Warning: Using default JWT secret. Set JWT_SECRET environment variable or in config file.")
	}

	timeout := viper.GetDuration("SESSION_TIMEOUT")
	if timeout <= 0 {
		timeout = 8 * time.Hour
		log.Printf("Invalid SESSION_TIMEOUT, defaulting to %s", timeout)
	}
	extendThreshold := viper.GetDuration("SESSION_EXTEND_THRESHOLD")
	if extendThreshold <= 0 {
		extendThreshold = 30 * time.Minute
		log.Printf("Invalid SESSION_EXTEND_THRESHOLD, defaulting to %s", extendThreshold)
	}
	sweepInterval := viper.GetDuration("SESSION_SWEEP_INTERVAL")
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Minute
		log.Printf("Invalid SESSION_SWEEP_INTERVAL, defaulting to %s", sweepInterval)
	}

	oauthProviders := make(map[string]*oauth2.Config)
	oauthProviders["MICROSOFT"] = &oauth2.Config{
		ClientID:     viper.GetString("MICROSOFT_CLIENT_ID"),
		ClientSecret: viper.GetString("MICROSOFT_CLIENT_SECRET"),
		RedirectURL:  viper.GetString("MICROSOFT_REDIRECT_URL"),
		Scopes:       []string{"openid", "profile", "email", "offline_access", "User.Read"},
		Endpoint:     microsoft.AzureADEndpoint(viper.GetString("MICROSOFT_TENANT")),
	}

	return &Config{
		Port:            viper.GetString("APP_PORT"),
		AppEnv:          viper.GetString("APP_ENV"),
		LogLevel:        viper.GetString("LOG_LEVEL"),
		JWTSecret:       jwtSecret,
		AuthProvider:    viper.GetString("AUTH_PROVIDER"),
		SessionBackend:  viper.GetString("SESSION_BACKEND"),
		StateCookieName: viper.GetString("STATE_COOKIE_NAME"),
		MicrosoftTenant: viper.GetString("MICROSOFT_TENANT"),
		Session: SessionSettings{
			Timeout:         timeout,
			ExtendThreshold: extendThreshold,
			SweepInterval:   sweepInterval,
			ActivityEvents:  viper.GetStringSlice("SESSION_ACTIVITY_EVENTS"),
		},
		Redis: RedisSettings{
			Address:  viper.GetString("REDIS_ADDRESS"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		OAuth: oauthProviders,
	}, nil
}
