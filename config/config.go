// Package config loads server settings from defaults, an optional config file,
// an optional .env file and MENTOR_* environment variables, in increasing priority.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"mentor-assign-server-go/engine"
)

// EnvPrefix is prepended to every environment variable, e.g. MENTOR_ASSIGNMENT_BATCH_SIZE.
const EnvPrefix = "MENTOR"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Data       DataConfig       `mapstructure:"data"`
	Assignment AssignmentConfig `mapstructure:"assignment"`
	Export     ExportConfig     `mapstructure:"export"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Log        LogConfig        `mapstructure:"log"`
	Rollbar    RollbarConfig    `mapstructure:"rollbar"`
}

type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	Mode        string   `mapstructure:"mode"` // gin mode: debug, release, test
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type DataConfig struct {
	Dir            string `mapstructure:"dir"`
	ReportsDir     string `mapstructure:"reports_dir"`
	SeedSampleData bool   `mapstructure:"seed_sample_data"`
}

type AssignmentConfig struct {
	BatchSize          int  `mapstructure:"batch_size"`
	RemainderThreshold int  `mapstructure:"remainder_threshold"`
	AllowOverload      bool `mapstructure:"allow_overload"`
	SortByRollNumber   bool `mapstructure:"sort_by_roll_number"`
}

type ExportConfig struct {
	Formats  []string `mapstructure:"formats"`
	Schedule string   `mapstructure:"schedule"` // cron spec with seconds, empty disables scheduled exports
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RollbarConfig struct {
	Token       string `mapstructure:"token"`
	Environment string `mapstructure:"environment"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("data.dir", "data")
	v.SetDefault("data.reports_dir", "reports")
	v.SetDefault("data.seed_sample_data", true)

	v.SetDefault("assignment.batch_size", engine.DefaultBatchSize)
	v.SetDefault("assignment.remainder_threshold", engine.DefaultRemainderThreshold)
	v.SetDefault("assignment.allow_overload", true)
	v.SetDefault("assignment.sort_by_roll_number", true)

	v.SetDefault("export.formats", []string{"csv", "excel", "pdf", "json"})
	v.SetDefault("export.schedule", "")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 8)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("rollbar.token", "")
	v.SetDefault("rollbar.environment", "development")
}

// Load reads the configuration.
//
// configFile may be empty, in which case config.yaml is looked up in the working
// directory and in ./config; a missing file is not an error. A .env file in the
// working directory is loaded into the environment when present.
func Load(configFile string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, errors.Wrap(err, "config.godotenv(.env)")
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "config.os.Stat(.env)")
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "config.ReadInConfig(%s)", configFile)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "config.ReadInConfig")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "config.Unmarshal")
	}
	cfg.Export.Formats = splitList(cfg.Export.Formats)
	cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOrigins)

	if _, err := cfg.EngineConfig(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// EngineConfig converts the assignment settings into a validated engine.Config.
func (c *Config) EngineConfig() (engine.Config, error) {
	return engine.NewConfig(
		c.Assignment.BatchSize,
		c.Assignment.RemainderThreshold,
		c.Assignment.AllowOverload,
	)
}

// splitList flattens comma separated entries and drops blanks.
func splitList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
