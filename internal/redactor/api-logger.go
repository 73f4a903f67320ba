// Возврат ошибок API редактора с нужным HTTP статусом и логированием.
//
// Основные возможности:
//   - Единый формат тела ошибки (apierrors.DefinedError).
//   - Логирование ошибки с методом, адресом запроса и местом вызова.
//   - Перевод ошибок пакетов редактора в определенные ошибки API.
package redactor

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"runtime"

	"github.com/aisa-it/redactor/internal/redactor/apierrors"
	"github.com/aisa-it/redactor/internal/redactor/commands"
	"github.com/aisa-it/redactor/internal/redactor/dao"
	"github.com/aisa-it/redactor/internal/redactor/rules"
	stack_error "github.com/aisa-it/redactor/internal/redactor/stack-error"
	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// Возврат ошибки с универсальным сообщением. Известные ошибки пакетов переводятся в свои коды.
func EError(c echo.Context, err error) error {
	if defined, ok := definedError(err); ok {
		return EErrorDefined(c, defined)
	}
	if err == nil {
		slog.Error("Unknown API error",
			"method", c.Request().Method,
			"url", c.Request().URL,
			getCallerFile(),
		)
		return EErrorDefined(c, apierrors.ErrGeneric)
	}

	var te *stack_error.TrackerError
	if errors.As(err, &te) {
		stack_error.GetError(c, err)
	} else {
		slog.Error("API error",
			"err", err,
			"method", c.Request().Method,
			"url", c.Request().URL,
			getCallerFile(),
		)
	}
	return EErrorDefined(c, apierrors.ErrGeneric)
}

// Возврат ошибки <status> с текстом ошибки, 404 не логируется.
func EErrorMsgStatus(c echo.Context, err error, status int) error {
	if status == http.StatusRequestEntityTooLarge {
		return EErrorDefined(c, apierrors.ErrBodyTooLarge)
	}
	er := apierrors.ErrGeneric
	er.StatusCode = status
	if err != nil {
		er.Err = err.Error()
		er.RuErr = ""
	}
	if status != http.StatusNotFound {
		slog.Error("API error",
			"err", err,
			"method", c.Request().Method,
			slog.Int("status", status),
			"url", c.Request().URL,
			getCallerFile(),
		)
	}
	return EErrorDefined(c, er)
}

// EErrorDefined возвращает JSON-ответ с кодом статуса и сообщением об ошибке. Если код статуса не определен, используется 400 Bad Request.
func EErrorDefined(c echo.Context, err apierrors.DefinedError) error {
	if http.StatusText(err.StatusCode) == "" {
		err.StatusCode = http.StatusBadRequest
	}
	return c.JSON(err.StatusCode, err)
}

func definedError(err error) (apierrors.DefinedError, bool) {
	var defined apierrors.DefinedError
	if errors.As(err, &defined) {
		return defined, true
	}
	var rulesErr rules.IRulesError
	if errors.As(err, &rulesErr) {
		return rulesErr.ClientError(), true
	}
	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		return apierrors.ErrValidation.WithFormattedMessage(validationErr.Error()), true
	}

	switch {
	case errors.Is(err, commands.ErrNoSelection):
		return apierrors.ErrNoSelection, true
	case errors.Is(err, commands.ErrEmptySelection):
		return apierrors.ErrEmptySelection, true
	case errors.Is(err, commands.ErrInvalidRange), errors.Is(err, ErrBlockNotFound):
		return apierrors.ErrInvalidRange, true
	case errors.Is(err, dao.ErrDocumentNotFound):
		return apierrors.ErrDocumentNotFound, true
	}
	return apierrors.DefinedError{}, false
}

// getCallerFile возвращает имя файла и строку, откуда был вызван обработчик ошибки.
func getCallerFile() slog.Attr {
	_, path, no, ok := runtime.Caller(2)
	if !ok {
		return slog.Attr{}
	}
	_, file := filepath.Split(path)
	return slog.String("caller", fmt.Sprintf("%s:%d", file, no))
}
