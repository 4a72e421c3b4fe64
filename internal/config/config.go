package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

type AppCfg struct {
	Env  string
	Host string
	Port int
}

type DatabaseCfg struct {
	Driver   string
	DSN      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type SessionCfg struct {
	Secret    string
	Store     string
	RedisAddr string
	PoolSize  int
}

type LogCfg struct {
	Level  string
	Format string
}

type OpenAICfg struct {
	APIKey string
}

type Config struct {
	App      AppCfg
	Database DatabaseCfg
	Session  SessionCfg
	Log      LogCfg
	OpenAI   OpenAICfg
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.App.Env == "release"
}

// Load reads configs/config.yaml when present and overlays TRACKER_* environment variables.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit config file path.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("TRACKER") // e.g. TRACKER_DATABASE_DRIVER -> database.driver
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "debug")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.user", "taskuser")
	v.SetDefault("database.password", "taskpassword")
	v.SetDefault("database.name", "project_tracker")
	v.SetDefault("session.secret", "default-secret-key-change-me")
	v.SetDefault("session.store", "cookie")
	v.SetDefault("session.redisAddr", "localhost:6379")
	v.SetDefault("session.poolSize", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("openai.apiKey", "")
}
