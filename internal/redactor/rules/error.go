// Файл error.go определяет типы ошибок скриптов очистки.
//
// IRulesError - интерфейс ошибки, который помимо Error() предоставляет:
//   - GetTime/GetFnName - когда и в какой функции произошла ошибка
//   - ScriptError - детали ошибки Lua (текст ошибки парсера или рантайма)
//   - ClientError - преобразование в HTTP-ошибку для ответа клиенту
//
// Ошибки делятся на:
//   - errScript - ошибка выполнения или неверный результат transform
//   - errParseScript - синтаксическая ошибка или отсутствие функции transform
//   - ошибки с Fail - скрипт сам вернул поле error
package rules

import (
	"time"

	"github.com/aisa-it/redactor/internal/redactor/apierrors"
)

type IRulesError interface {
	error
	GetTime() time.Time
	GetFnName() *string
	ScriptError() (string, *string, bool)
	ClientError() apierrors.DefinedError
	SetClientError()
}

const errScript = "sanitizer script failed"
const errParseScript = "error parsing lua script"

type rulesError struct {
	Err     string          `json:"err,omitempty"`
	FullErr *errDescription `json:"full_err,omitempty"`
	Info    *debugInfo      `json:"info,omitempty"`
	Fail    bool            `json:"fail"`
}

type errDescription struct {
	ErrMsg   string  `json:"err_msg,omitempty"`
	LuaError *string `json:"lua_error,omitempty"`
}

func (e *rulesError) GetTime() time.Time {
	return e.Info.Time
}

func (e *rulesError) GetFnName() *string {
	return e.Info.Function
}

func (e *rulesError) Error() string {
	return e.Err
}

func (e *rulesError) ScriptError() (string, *string, bool) {
	if e.FullErr == nil || e.FullErr.ErrMsg == "" {
		return "", nil, false
	}
	return e.FullErr.ErrMsg, e.FullErr.LuaError, true
}

func (e *rulesError) ClientError() apierrors.DefinedError {
	switch {
	case e.Err == errParseScript:
		return apierrors.ErrRulesScriptSyntax
	case e.Err == errScript:
		return apierrors.ErrRulesScriptFail
	case e.Fail:
		err := apierrors.ErrRulesCustomFail
		err.RuErr = e.Err
		err.Err = e.Err
		return err
	}
	return apierrors.ErrGeneric
}

func (e *rulesError) SetClientError() {
	e.Fail = true
}
