package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultJWTSecret is the placeholder signing secret used when JWT_SECRET is unset
const DefaultJWTSecret = "change-me"

var ErrInsecureJWTSecret = errors.New("JWT_SECRET must be set to a non-default value in release mode")

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Mode           string        `mapstructure:"mode"`
	AllowedOrigins []string      `mapstructure:"allowedOrigins"`
	UseHTTPS       bool          `mapstructure:"useHTTPS"`
	TLSCertFile    string        `mapstructure:"tlsCertFile"`
	TLSKeyFile     string        `mapstructure:"tlsKeyFile"`
	RateLimit      int           `mapstructure:"rateLimit"`
	RateWindow     time.Duration `mapstructure:"rateWindow"`
}

type DatabaseConfig struct {
	URL         string `mapstructure:"url"`
	AutoMigrate bool   `mapstructure:"autoMigrate"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CatalogConfig points at the Giant Bomb API
type CatalogConfig struct {
	BaseURL   string        `mapstructure:"baseURL"`
	APIKey    string        `mapstructure:"apiKey"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"userAgent"`
	Limit     int           `mapstructure:"limit"`
}

type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwtSecret"`
	TokenTTL       time.Duration `mapstructure:"tokenTTL"`
	DefaultOwnerID uint          `mapstructure:"defaultOwnerID"`
}

type AdminConfig struct {
	AllowReset bool `mapstructure:"allowReset"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// IsRelease reports whether gin runs in release mode
func (c *Config) IsRelease() bool {
	return c.Server.Mode == "release"
}

// Validate rejects settings a release build must not run with
func (c *Config) Validate() error {
	if c.IsRelease() && (c.Auth.JWTSecret == "" || c.Auth.JWTSecret == DefaultJWTSecret) {
		return ErrInsecureJWTSecret
	}
	return nil
}

// envAliases keeps the flat environment names working next to the dotted keys.
var envAliases = map[string]string{
	"server.port":        "PORT",
	"server.mode":        "GIN_MODE",
	"server.useHTTPS":    "USE_HTTPS",
	"server.tlsCertFile": "TLS_CERT_FILE",
	"server.tlsKeyFile":  "TLS_KEY_FILE",
	"database.url":       "DATABASE_URL",
	"redis.address":      "REDIS_URL",
	"redis.password":     "REDIS_PASSWORD",
	"catalog.apiKey":     "GIANTBOMB_API_KEY",
	"auth.jwtSecret":     "JWT_SECRET",
	"log.level":          "LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.allowedOrigins", []string{"http://localhost:3000", "https://localhost:3000"})
	v.SetDefault("server.useHTTPS", false)
	v.SetDefault("server.rateLimit", 120)
	v.SetDefault("server.rateWindow", time.Minute)

	v.SetDefault("database.url", "host=localhost port=5432 user=postgres dbname=gamegscore password=postgres sslmode=disable")
	v.SetDefault("database.autoMigrate", true)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("catalog.baseURL", "https://www.giantbomb.com/api")
	v.SetDefault("catalog.timeout", 10*time.Second)
	v.SetDefault("catalog.userAgent", "gamegscore/1.0")
	v.SetDefault("catalog.limit", 10)

	v.SetDefault("auth.jwtSecret", DefaultJWTSecret)
	v.SetDefault("auth.tokenTTL", 24*time.Hour)
	v.SetDefault("auth.defaultOwnerID", 1)

	v.SetDefault("admin.allowReset", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "logs/app.log")
}

// Load reads .env, an optional config.yaml and the environment, in that order of precedence.
func Load() (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, err
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the built-in configuration without reading files or the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}
