package dao

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"

	policy "github.com/aisa-it/redactor/internal/redactor/redactor-policy"
)

// RedactorHTML - HTML документа, очищенный UgcPolicy при записи в базу.
type RedactorHTML struct {
	Body             string
	stripped         string
	AlreadySanitized bool
}

func (r RedactorHTML) Value() (driver.Value, error) {
	if !r.AlreadySanitized {
		return policy.UgcPolicy.Sanitize(r.Body), nil
	}
	return r.Body, nil
}

func (r *RedactorHTML) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		r.Body = v
	case []byte:
		r.Body = string(v)
	case nil:
		r.Body = ""
	default:
		return errors.New("unsupported type")
	}
	r.stripped = ""
	return nil
}

func (r RedactorHTML) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(r.Body); err != nil {
		return nil, err
	}
	return bytes.TrimSpace(buf.Bytes()), nil
}

func (r *RedactorHTML) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &r.Body); err != nil {
		return err
	}
	r.Body = RemoveInvisibleChars(policy.UgcPolicy.Sanitize(r.Body))
	r.AlreadySanitized = true
	r.stripped = ""
	return nil
}

// StripTags возвращает текст без разметки, результат кешируется.
func (r *RedactorHTML) StripTags() string {
	if r.stripped == "" {
		r.stripped = RemoveInvisibleChars(policy.StripTags(r.Body))
	}
	return r.stripped
}

func (r RedactorHTML) String() string {
	return r.Body
}

func (RedactorHTML) GormDataType() string {
	return "text"
}

func RemoveInvisibleChars(s string) string {
	invisible := []string{
		"\u200B",
		"\u200C",
		"\u200D",
		"\uFEFF",
	}

	for _, ch := range invisible {
		s = strings.ReplaceAll(s, ch, "")
	}
	return s
}
