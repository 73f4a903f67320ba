// Ошибка с трассой вызовов и контекстом для логов обработчиков API.
//
// TrackErrorStack вызывается в каждом месте, через которое ошибка поднимается к обработчику.
// В лог попадают все места вызова, контекст (id документа, формат экспорта и т.п.) и запрос.
package stack_error

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/labstack/echo/v4"
)

type TrackerError struct {
	Context map[string]any
	// Места вызова TrackErrorStack, первое - ближайшее к источнику ошибки.
	Frames []string
	cause  error
}

// TrackErrorStack добавляет место вызова в трассу. Уже обернутая ошибка дополняется, а не оборачивается повторно.
func TrackErrorStack(err error) *TrackerError {
	var te *TrackerError
	if !errors.As(err, &te) {
		te = &TrackerError{
			Context: make(map[string]any),
			cause:   err,
		}
	}
	te.Frames = append(te.Frames, callerFrame())
	return te
}

// AddContext запоминает значение по ключу. Первое значение ключа не перезаписывается.
func (te *TrackerError) AddContext(k string, v any) *TrackerError {
	if _, ok := te.Context[k]; !ok {
		te.Context[k] = v
	}
	return te
}

func (te *TrackerError) Error() string {
	if te.cause != nil {
		return te.cause.Error()
	}
	return "TrackerError"
}

func (te *TrackerError) Unwrap() error {
	return te.cause
}

// Attrs - атрибуты лога: текст ошибки, контекст по ключам в алфавитном порядке и трасса.
func (te *TrackerError) Attrs() []any {
	keys := make([]string, 0, len(te.Context))
	for k := range te.Context {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	ctx := make([]any, 0, len(keys))
	for _, k := range keys {
		ctx = append(ctx, slog.Any(k, te.Context[k]))
	}
	return []any{
		slog.String("err", te.Error()),
		slog.Group("context", ctx...),
		slog.Any("trace", te.Frames),
	}
}

// GetError пишет ошибку в лог вместе с трассой, контекстом и запросом.
func GetError(c echo.Context, err error) {
	var te *TrackerError
	var attrs []any
	if errors.As(err, &te) {
		attrs = te.Attrs()
	} else {
		attrs = []any{slog.String("raw_error", err.Error())}
	}

	if c != nil {
		attrs = append(attrs,
			slog.String("method", c.Request().Method),
			slog.String("url", c.Request().URL.String()))
	}

	slog.With(attrs...).Error("stack error")
}

func callerFrame() string {
	_, path, no, ok := runtime.Caller(2)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(path), no)
}
