// Конфигурация сервиса редактора из переменных окружения.
//
// Основные возможности:
//   - Загрузка значений по тегам env через reflection.
//   - Преобразование типов (string, int, bool).
//   - Маскировка секретных значений в логах.
//   - Значения по умолчанию и ограничения для параметров истории и размера запроса.
package config

import (
	"log/slog"
	"os"
	"reflect"
	"strings"
	"time"
)

type Config struct {
	DatabaseDSN string `env:"DATABASE_URL"`

	ListenAddr  string `env:"LISTEN_ADDR"`
	MetricsAddr string `env:"METRICS_ADDR"`

	HistoryDebounceMs    int `env:"HISTORY_DEBOUNCE_MS"`
	HistoryKeepRevisions int `env:"HISTORY_KEEP_REVISIONS"`
	// Расписание очистки ревизий в формате cron.
	HistoryPruneSchedule string `env:"HISTORY_PRUNE_SCHEDULE"`

	RulesScriptPath string `env:"RULES_SCRIPT_PATH"`

	// Например "2M", формат echo middleware.BodyLimit.
	BodyLimit string `env:"BODY_LIMIT"`

	Debug bool `env:"DEBUG"`
}

// ReadConfig загружает конфигурацию из окружения. Без DATABASE_URL сервис не запускается.
func ReadConfig() *Config {
	config := &Config{}

	envConfig("env", config)

	if config.DatabaseDSN == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	config.setDefaults()
	return config
}

func (c *Config) setDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = ":8081"
	}
	if c.HistoryDebounceMs <= 0 {
		c.HistoryDebounceMs = 300
	}
	if c.HistoryKeepRevisions <= 0 || c.HistoryKeepRevisions > 1000 {
		c.HistoryKeepRevisions = 100
	}
	if c.HistoryPruneSchedule == "" {
		c.HistoryPruneSchedule = "@hourly"
	}
	if c.BodyLimit == "" {
		c.BodyLimit = "2M"
	}
}

func (c *Config) HistoryDebounce() time.Duration {
	return time.Duration(c.HistoryDebounceMs) * time.Millisecond
}

// Присваивает полям в переданной структуре значения переменных. Название переменной для каждого поля лежит в теге этого поля.
func envConfig(key string, s interface{}) {
	v := reflect.ValueOf(s).Elem()
	typeParam := v.Type()
	for i := 0; i < v.NumField(); i++ {
		fName := typeParam.Field(i).Name
		fEnvTag := typeParam.Field(i).Tag.Get(key)

		if !Exist(fEnvTag) {
			continue
		}

		logValue := GetEnv(fEnvTag)

		if isSecret(fName) {
			logValue = mask(logValue)
		}
		slog.Info("Set config value",
			slog.String("key", typeParam.Name()+"."+fName),
			slog.String("value", logValue),
			slog.String("source", "ENVIRONMENT"),
		)

		switch v.Field(i).Interface().(type) {
		case string:
			v.Field(i).SetString(GetEnv(fEnvTag))
		case int:
			v.Field(i).SetInt(int64(GetIntEnv(fEnvTag)))
		case bool:
			v.Field(i).SetBool(GetBoolEnv(fEnvTag))
		}
	}
}

func isSecret(name string) bool {
	name = strings.ToLower(name)
	for _, s := range []string{"pass", "secret", "token", "dsn"} {
		if strings.Contains(name, s) {
			return true
		}
	}
	return false
}

func mask(val string) string {
	runes := []rune(val)
	if len(runes) <= 2 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[0]) + strings.Repeat("*", len(runes)-2) + string(runes[len(runes)-1])
}
