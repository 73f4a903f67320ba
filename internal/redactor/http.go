// Пакет redactor - HTTP сервис редактора документов: форматирование разметки по выделению,
// разбор и рендеринг модели документа, очистка, хранение документов с историей правок и экспорт.
//
// Основные возможности:
//   - Операции над разметкой без состояния (format, direction, clear, split, paste, parse, render, sanitize).
//   - Документы с отложенным сохранением ревизий, отменой и повтором.
//   - Экспорт в Markdown, HTML и PDF.
//   - Рассылка изменений документа по вебсокету.
//   - Метрики Prometheus на отдельном адресе.
package redactor

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aisa-it/redactor/internal/redactor/config"
	"github.com/aisa-it/redactor/internal/redactor/cronmanager"
	"github.com/aisa-it/redactor/internal/redactor/dao"
	"github.com/aisa-it/redactor/internal/redactor/history"
	"github.com/aisa-it/redactor/internal/redactor/live"
	policy "github.com/aisa-it/redactor/internal/redactor/redactor-policy"
	"github.com/aisa-it/redactor/internal/redactor/rules"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Services struct {
	db       *gorm.DB
	cfg      *config.Config
	version  string
	recorder *history.Recorder
	hub      *live.Hub
	sessions *Sessions
	metrics  *metrics

	// Серверный скрипт очистки, может отсутствовать.
	rules   *rules.Script
	rulesMu sync.Mutex
}

// NewServices собирает зависимости обработчиков. script может быть nil.
func NewServices(db *gorm.DB, cfg *config.Config, script *rules.Script, version string) *Services {
	s := &Services{
		db:       db,
		cfg:      cfg,
		version:  version,
		recorder: history.NewRecorder(db, cfg.HistoryDebounce()),
		hub:      live.NewHub(),
		rules:    script,
	}
	s.sessions = NewSessions(s.newEditor)
	s.metrics = newMetrics(s.sessions)
	s.recorder.OnSaved = s.documentSaved
	return s
}

// newEditor - редактор с очисткой вставки по строчной конфигурации и серверным скриптом.
func (s *Services) newEditor() *Editor {
	sanitizer := policy.New(policy.BasicConfig())
	if s.rules != nil {
		sanitizer.AddTransformer(s.rules.Transformer())
	}
	return NewEditor(sanitizer)
}

func (s *Services) documentSaved(doc *dao.Document) {
	s.metrics.revisions.Inc()
	s.hub.Send(live.Event{
		Type:       live.EventSaved,
		DocumentID: doc.ID.String(),
		Revision:   doc.Revision,
		Data:       doc,
	})
}

// ServerHeader middleware adds a `Server` header to the response.
func ServerHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderServer, "Redactor")
		return next(c)
	}
}

// NewEcho создает HTTP сервер API со всеми маршрутами.
func (s *Services) NewEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		}
		if c.Response().Committed {
			return
		}
		if err := EErrorMsgStatus(c, err, code); err != nil {
			slog.Error("Write error response", "err", err)
		}
	}

	e.Use(ServerHeader)
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit(s.cfg.BodyLimit))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level:     5,
		MinLength: 2048,
		Skipper: func(c echo.Context) bool {
			return strings.HasSuffix(c.Path(), "/ws/")
		},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  metricsNamespace,
		Registerer: s.metrics.registry,
	}))
	e.Pre(middleware.AddTrailingSlash())

	e.Validator = NewRequestValidator()

	apiGroup := e.Group("/api/")
	s.AddEditServices(apiGroup)
	s.AddDocumentServices(apiGroup)

	// Version endpoint
	apiGroup.GET("version/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"version": s.version,
			"rules":   s.rules != nil,
		})
	})

	// Health endpoint
	apiGroup.GET("_health/", func(c echo.Context) error {
		if db, err := s.db.DB(); err != nil || db.PingContext(c.Request().Context()) != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})
	return e
}

// NewMetricsEcho - сервер метрик Prometheus.
func (s *Services) NewMetricsEcho() *echo.Echo {
	metrics := echo.New()
	metrics.HideBanner = true
	metrics.HidePort = true
	metrics.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: s.metrics.registry,
	}))
	return metrics
}

// Close сохраняет отложенные ревизии.
func (s *Services) Close() error {
	return s.recorder.Close()
}

// Server запускает API, сервер метрик и очистку ревизий и работает до сигнала завершения.
func Server(db *gorm.DB, cfg *config.Config, script *rules.Script, version string) error {
	s := NewServices(db, cfg, script, version)

	cron := cronmanager.NewCronManager(cronmanager.JobRegistry{
		cronmanager.PruneRevisionsJob: cronmanager.PruneJob(db, cfg.HistoryKeepRevisions, cfg.HistoryPruneSchedule),
	})
	if err := cron.LoadJobs(); err != nil {
		return err
	}
	cron.Start()
	defer cron.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e := s.NewEcho()
	metrics := s.NewMetricsEcho()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Start API server", "addr", cfg.ListenAddr)
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		slog.Info("Start metrics server", "addr", cfg.MetricsAddr)
		if err := metrics.Start(cfg.MetricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutdown servers")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return errors.Join(
			e.Shutdown(shutdownCtx),
			metrics.Shutdown(shutdownCtx),
			s.Close(),
		)
	})
	return g.Wait()
}
