package config

import (
	"strings"
	"time"

	"github.com/harsh-haria/unified-event-analytics-engine/params"
	"github.com/spf13/viper"
)

const (
	DefaultListenAddr   = ":3000"
	DefaultCookieMaxAge = 7 * 24 * time.Hour
)

type MySQLConfig struct {
	Dsn         string   `mapstructure:"dsn"`
	ReplicaDsns []string `mapstructure:"replicaDsns"`
	TablePrefix string   `mapstructure:"tablePrefix"`
}

type SessionConfig struct {
	SessionMaxAge  time.Duration `mapstructure:"sessionMaxAge"`
	CookieName     string        `mapstructure:"cookieName"`
	CookieHttpOnly bool          `mapstructure:"cookieHttpOnly"`
	CookieSecure   bool          `mapstructure:"cookieSecure"`
}

type OAuthProviderConfig struct {
	ClientID     string   `mapstructure:"clientID"`
	ClientSecret string   `mapstructure:"clientSecret"`
	Scope        []string `mapstructure:"scope"`
}

type RedisConfig struct {
	URL         string `mapstructure:"url"`
	PoolSize    int    `mapstructure:"poolSize"`
	ClusterMode bool   `mapstructure:"clusterMode"`
}

type ApiKeyConfig struct {
	ExpirationDays int `mapstructure:"expirationDays"`
}

type RateLimitConfig struct {
	Max    int64         `mapstructure:"max"`
	Window time.Duration `mapstructure:"window"`
}

type Config struct {
	Debug         bool            `mapstructure:"debug"`
	BaseURL       string          `mapstructure:"baseURL"`
	MasterKey     string          `mapstructure:"masterKey"`
	ListenAddr    string          `mapstructure:"listenAddr"`
	AllowOrigins  []string        `mapstructure:"allowOrigins"`
	Redis         RedisConfig     `mapstructure:"redis"`
	Session       SessionConfig   `mapstructure:"session"`
	MySQL         MySQLConfig     `mapstructure:"mysql"`
	ApiKey        ApiKeyConfig    `mapstructure:"apiKey"`
	RateLimit     RateLimitConfig `mapstructure:"rateLimit"`
	AuthProviders struct {
		OAuth map[string]OAuthProviderConfig `mapstructure:"oauth"`
	} `mapstructure:"authProviders"`
}

func (c *Config) Sanitize() error {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.Session.SessionMaxAge == 0 {
		c.Session.SessionMaxAge = DefaultCookieMaxAge
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "uea_session"
	}
	if c.ApiKey.ExpirationDays == 0 {
		c.ApiKey.ExpirationDays = params.DefaultApiKeyExpirationDays
	}
	if c.RateLimit.Max == 0 {
		c.RateLimit.Max = params.DefaultRateLimitMax
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = params.DefaultRateLimitWindow
	}
	return nil
}

func LoadConfig(filename string) (*Config, error) {
	viper.SetConfigFile(filename)
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Sanitize(); err != nil {
		return nil, err
	}
	return &config, nil
}
