package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvFile = ".env"

type DatabaseCfg struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type HTTPCfg struct {
	Addr string `mapstructure:"addr"`
}

type LogCfg struct {
	Level string `mapstructure:"level"`
}

type MongoCfg struct {
	Database string `mapstructure:"database"`
	URI      string `mapstructure:"uri"`
}

type PaginationCfg struct {
	Filters     []string `mapstructure:"filters"`
	MaxPageSize int      `mapstructure:"max_page_size"`
	PageSize    int      `mapstructure:"page_size"`
	Window      int      `mapstructure:"window"`
}

type RedisCfg struct {
	Addr   string        `mapstructure:"addr"`
	Prefix string        `mapstructure:"prefix"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type Cfg struct {
	Database   DatabaseCfg   `mapstructure:"database"`
	HTTP       HTTPCfg       `mapstructure:"http"`
	Log        LogCfg        `mapstructure:"log"`
	Mongo      MongoCfg      `mapstructure:"mongo"`
	Pagination PaginationCfg `mapstructure:"pagination"`
	Primary    string        `mapstructure:"primary"`
	Redis      RedisCfg      `mapstructure:"redis"`
	Table      string        `mapstructure:"table"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("mongo.database", "")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("pagination.filters", []string{})
	v.SetDefault("pagination.max_page_size", 100)
	v.SetDefault("pagination.page_size", 25)
	v.SetDefault("pagination.window", 2)
	v.SetDefault("primary", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.prefix", "folio:tokens")
	v.SetDefault("redis.ttl", 24*time.Hour)
	v.SetDefault("table", "")
}

// Load reads configuration with this precedence: FOLIO_* environment
// variables, then configFile (any format viper reads, optional), then
// defaults. Env files are loaded first and never override variables that
// are already set. A missing env file is ignored.
func Load(configFile string, envFiles ...string) (Cfg, error) {
	if len(envFiles) == 0 {
		envFiles = []string{EnvFile}
	}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Cfg{}, err
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("FOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Cfg{}, err
		}
	}

	var cfg Cfg
	if err := v.Unmarshal(&cfg); err != nil {
		return Cfg{}, err
	}
	return cfg, nil
}
