package config

import (
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL       string
	HTTPAddr          string
	LogLevel          string
	IdentityBaseURL   string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	Timezone          *time.Location
	MaterializeCron   string
	RollbarToken      string
	Env               string
}

func defaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_OPEN_CONNS", "10")
	v.SetDefault("DB_MAX_IDLE_CONNS", "5")
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("SCHEDULE_TIMEZONE", "Asia/Manila")
	// Sundays 00:05, right after the materialization window rolls over.
	v.SetDefault("MATERIALIZE_CRON", "5 0 * * 0")
	v.SetDefault("ENV", "development")
}

// Load reads the process environment, after loading dotEnvPath into it when
// that file exists.
func Load(dotEnvPath string) (Config, error) {
	if dotEnvPath != "" {
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				return Config{}, errors.Wrapf(err, "load %s", dotEnvPath)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, errors.Wrapf(err, "stat %s", dotEnvPath)
		}
	}

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	var err error

	if cfg.DatabaseURL, err = required(v, "DATABASE_URL"); err != nil {
		return cfg, err
	}
	if cfg.IdentityBaseURL, err = required(v, "IDENTITY_BASE_URL"); err != nil {
		return cfg, err
	}
	cfg.HTTPAddr = v.GetString("HTTP_ADDR")
	cfg.LogLevel = v.GetString("LOG_LEVEL")
	cfg.RollbarToken = strings.TrimSpace(v.GetString("ROLLBAR_TOKEN"))
	cfg.Env = v.GetString("ENV")

	if cfg.DBMaxOpenConns, err = getInt(v, "DB_MAX_OPEN_CONNS"); err != nil {
		return cfg, err
	}
	if cfg.DBMaxIdleConns, err = getInt(v, "DB_MAX_IDLE_CONNS"); err != nil {
		return cfg, err
	}
	if cfg.DBConnMaxLifetime, err = getDuration(v, "DB_CONN_MAX_LIFETIME"); err != nil {
		return cfg, err
	}

	tz := v.GetString("SCHEDULE_TIMEZONE")
	if cfg.Timezone, err = time.LoadLocation(tz); err != nil {
		return cfg, &configError{message: "invalid SCHEDULE_TIMEZONE " + strconv.Quote(tz) + ": " + err.Error()}
	}

	cfg.MaterializeCron = v.GetString("MATERIALIZE_CRON")
	if _, err := cron.ParseStandard(cfg.MaterializeCron); err != nil {
		return cfg, &configError{message: "invalid MATERIALIZE_CRON: " + err.Error()}
	}

	return cfg, nil
}

func required(v *viper.Viper, key string) (string, error) {
	value := strings.TrimSpace(v.GetString(key))
	if value == "" {
		return "", &configError{message: "missing required environment variable: " + key}
	}
	return value, nil
}

func getInt(v *viper.Viper, key string) (int, error) {
	parsed, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return 0, &configError{message: "invalid int for " + key + ": " + err.Error()}
	}
	return parsed, nil
}

func getDuration(v *viper.Viper, key string) (time.Duration, error) {
	parsed, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return 0, &configError{message: "invalid duration for " + key + ": " + err.Error()}
	}
	return parsed, nil
}

type configError struct {
	message string
}

func (e *configError) Error() string {
	return e.message
}

var _ error = (*configError)(nil)
