// Основной пакет сервиса редактора. Отвечает за чтение конфигурации, подключение к базе данных,
// миграцию моделей, загрузку скрипта очистки и запуск HTTP сервера.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aisa-it/redactor/internal/redactor"
	"github.com/aisa-it/redactor/internal/redactor/config"
	"github.com/aisa-it/redactor/internal/redactor/dao"
	"github.com/aisa-it/redactor/internal/redactor/gormlogger"
	"github.com/aisa-it/redactor/internal/redactor/rules"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var version string = "DEV"

const sqlitePrefix = "sqlite:"

// main - запуск сервиса редактора.
//
// Пример запуска: go run main.go --noMigration --trace
func main() {
	noTranslateFlag := flag.Bool("noTranslate", false, "Turn off BD errors translate")
	paramQueries := flag.Bool("paramQueries", true, "Mask queries params in log")
	noMigration := flag.Bool("noMigration", false, "Turn off DB migration")
	trace := flag.Bool("trace", false, "Verbose logs and sql trace")
	flag.Parse()

	PrintBanner()

	cfg := config.ReadConfig()

	if *trace || cfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	// Set prod log format
	if version != "DEV" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})))
	}

	slog.Info("Redactor start.")

	db, err := gorm.Open(dialector(cfg.DatabaseDSN), &gorm.Config{
		TranslateError: !*noTranslateFlag,
		Logger:         gormlogger.NewGormLogger(slog.Default(), time.Second*4, *paramQueries),
	})
	if err != nil {
		slog.Error("Fail init DB connection", "err", err)
		os.Exit(1)
	}

	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Fail set settings to conn pool", "err", err)
		os.Exit(1)
	}
	if strings.HasPrefix(cfg.DatabaseDSN, sqlitePrefix) {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetConnMaxLifetime(time.Hour)
		sqlDB.SetConnMaxIdleTime(time.Minute * 15)
	}

	if !*noMigration {
		slog.Info("Migrate models")
		if err := dao.Migrate(db); err != nil {
			slog.Error("Migrate models", "err", err)
			os.Exit(1)
		}
	}

	var script *rules.Script
	if cfg.RulesScriptPath != "" {
		script, err = rules.LoadFile(cfg.RulesScriptPath)
		if err != nil {
			slog.Error("Load sanitizer script", "path", cfg.RulesScriptPath, "err", err)
			os.Exit(1)
		}
		defer script.Close()
		slog.Info("Sanitizer script loaded", "path", cfg.RulesScriptPath)
	}

	if err := redactor.Server(db, cfg, script, version); err != nil {
		slog.Error("Server stopped", "err", err)
		os.Exit(1)
	}
}

// dialector выбирает драйвер по DSN: "sqlite:<path>" для локального файла, иначе postgres.
func dialector(dsn string) gorm.Dialector {
	if path, ok := strings.CutPrefix(dsn, sqlitePrefix); ok {
		return sqlite.Open(path)
	}
	return postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: false, // disables implicit prepared statement usage
	})
}

// PrintBanner выводит название сервиса и версию при запуске.
func PrintBanner() {
	banner := `
 ____          _            _
|  _ \ ___  __| | __ _  ___| |_ ___  _ __
| |_) / _ \/ _  |/ _  |/ __| __/ _ \| '__|
|  _ <  __/ (_| | (_| | (__| || (_) | |
|_| \_\___|\__,_|\__,_|\___|\__\___/|_|    %s
Rich text formatting and document history service
----------------------------------------------------
`
	colorReset := "\033[0m"
	colorYellow := "\033[33m"

	formattedVersion := version
	if version == "DEV" {
		formattedVersion = colorYellow + version + colorReset
	}

	fmt.Printf(banner, formattedVersion)
}
