// Пакет содержит определения ошибок API редактора. Каждая ошибка имеет код, HTTP статус и описание на английском и русском языках.
//
// Основные возможности:
//   - Ошибки запросов, выделения и форматирования, документов, правил очистки и экспорта.
//   - Сериализация ошибки в JSON тело ответа.
//   - Форматирование сообщений с аргументами (WithFormattedMessage).
package apierrors

import (
	"fmt"
	"net/http"
	"strings"
)

type DefinedError struct {
	Code       int    `json:"code"`
	StatusCode int    `json:"-"`
	Err        string `json:"error"`
	RuErr      string `json:"ru_error,omitempty"`
}

func (e DefinedError) Error() string {
	return e.Err
}

var (
	// 1*** - request errors
	ErrBadRequest       = DefinedError{Code: 1001, StatusCode: http.StatusBadRequest, Err: "bad request", RuErr: "Некорректный запрос"}
	ErrValidation       = DefinedError{Code: 1002, StatusCode: http.StatusBadRequest, Err: "validation failed: %s", RuErr: "Ошибка проверки данных: %s"}
	ErrBodyTooLarge     = DefinedError{Code: 1003, StatusCode: http.StatusRequestEntityTooLarge, Err: "request body exceeds the allowed limit", RuErr: "Размер запроса превышает допустимый"}
	ErrInvalidDocument  = DefinedError{Code: 1004, StatusCode: http.StatusBadRequest, Err: "invalid document content", RuErr: "Некорректное содержимое документа"}
	ErrUnsupportedQuery = DefinedError{Code: 1005, StatusCode: http.StatusBadRequest, Err: "unsupported parameter %s", RuErr: "Неподдерживаемый параметр %s"}

	// 2*** - selection and formatting errors
	ErrInvalidFormat  = DefinedError{Code: 2001, StatusCode: http.StatusBadRequest, Err: "unknown format %s", RuErr: "Неизвестный формат %s"}
	ErrNoSelection    = DefinedError{Code: 2002, StatusCode: http.StatusBadRequest, Err: "no selection", RuErr: "Текст не выделен"}
	ErrEmptySelection = DefinedError{Code: 2003, StatusCode: http.StatusBadRequest, Err: "selection contains no text", RuErr: "Выделение не содержит текста"}
	ErrInvalidRange   = DefinedError{Code: 2004, StatusCode: http.StatusBadRequest, Err: "selection is out of bounds", RuErr: "Выделение выходит за границы документа"}

	// 3*** - document errors
	ErrDocumentNotFound = DefinedError{Code: 3001, StatusCode: http.StatusNotFound, Err: "document not found", RuErr: "Документ не найден"}
	ErrNothingToUndo    = DefinedError{Code: 3002, StatusCode: http.StatusConflict, Err: "nothing to undo", RuErr: "Нет изменений для отмены"}
	ErrNothingToRedo    = DefinedError{Code: 3003, StatusCode: http.StatusConflict, Err: "nothing to redo", RuErr: "Нет изменений для повтора"}
	ErrTitleRequired    = DefinedError{Code: 3004, StatusCode: http.StatusBadRequest, Err: "title is required", RuErr: "Необходимо указать заголовок документа"}

	// 4*** - rules errors
	ErrRulesScriptFail   = DefinedError{Code: 4001, StatusCode: http.StatusUnprocessableEntity, Err: "sanitizer script failed", RuErr: "Ошибка выполнения скрипта очистки"}
	ErrRulesCustomFail   = DefinedError{Code: 4002, StatusCode: http.StatusUnprocessableEntity}
	ErrRulesScriptSyntax = DefinedError{Code: 4003, StatusCode: http.StatusBadRequest, Err: "sanitizer script syntax error", RuErr: "Синтаксическая ошибка в скрипте очистки"}

	// 5*** - export and other errors
	ErrGeneric           = DefinedError{Code: 5000, StatusCode: http.StatusBadRequest, Err: "Something went wrong. Please try again later or contact the support team.", RuErr: "Что-то пошло не так. Повторите попытку позже или обратитесь в службу поддержки"}
	ErrUnsupportedExport = DefinedError{Code: 5001, StatusCode: http.StatusBadRequest, Err: "unsupported export format %s", RuErr: "Неподдерживаемый формат экспорта %s"}
	ErrExportFailed      = DefinedError{Code: 5002, StatusCode: http.StatusInternalServerError, Err: "export failed", RuErr: "Не удалось экспортировать документ"}
)

func (e DefinedError) WithFormattedMessage(args ...interface{}) DefinedError {
	if len(args) > 0 {
		e.Err = fmt.Sprintf(e.Err, args...)
		e.RuErr = fmt.Sprintf(e.RuErr, args...)
	} else {
		e.Err = strings.Replace(e.Err, "%s", "", -1)
		e.RuErr = strings.Replace(e.RuErr, "%s", "", -1)
	}
	return e
}
