package redactor

import (
	"encoding/json"
	"slices"

	"github.com/aisa-it/redactor/internal/redactor/editor"
	policy "github.com/aisa-it/redactor/internal/redactor/redactor-policy"
	"golang.org/x/net/html"
)

// Конфигурации очистки, доступные в запросах по имени.
var sanitizerConfigs = map[string]func() policy.Config{
	"":        policy.RelaxedConfig,
	"basic":   policy.BasicConfig,
	"relaxed": policy.RelaxedConfig,
}

// SelectionRequest - содержимое и выделение в нем. Пустой block_id - смещения по всему тексту.
type SelectionRequest struct {
	HTML    string `json:"html"`
	BlockID string `json:"block_id"`
	Start   int    `json:"start" validate:"min=0"`
	End     int    `json:"end" validate:"gtefield=Start"`
}

type FormatRequest struct {
	SelectionRequest
	Format string            `json:"format" validate:"required,format"`
	Attrs  map[string]string `json:"attrs"`
}

// attributes - атрибуты создаваемого элемента в стабильном порядке.
func attributes(attrs map[string]string) []html.Attribute {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	res := make([]html.Attribute, 0, len(keys))
	for _, k := range keys {
		res = append(res, html.Attribute{Key: k, Val: attrs[k]})
	}
	return res
}

type PasteRequest struct {
	SelectionRequest
	Paste string `json:"paste"`
}

type MarkupRequest struct {
	HTML string `json:"html"`
}

type RenderRequest struct {
	Data json.RawMessage `json:"data" validate:"required"`
}

type SanitizeRequest struct {
	HTML   string `json:"html"`
	Policy string `json:"policy" validate:"policy"`
	// Скрипт очистки вместо серверного.
	Script string `json:"script"`
}

type SelectionResponse struct {
	BlockID string `json:"block_id,omitempty"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
}

type EditResponse struct {
	HTML      string             `json:"html"`
	Direction string             `json:"direction,omitempty"`
	Selection *SelectionResponse `json:"selection,omitempty"`
}

type DocumentRequest struct {
	Title string `json:"title" validate:"required,max=150"`
	// Модель документа или разметка, если data не передана.
	Data json.RawMessage `json:"data"`
	HTML string          `json:"html"`
}

// nodes - модель документа из data или html.
func (r DocumentRequest) nodes() ([]any, error) {
	if len(r.Data) > 0 {
		return editor.DecodeNodes(r.Data)
	}
	return editor.HTMLToData(r.HTML), nil
}

type DocumentUpdateRequest struct {
	Title *string         `json:"title" validate:"omitempty,max=150"`
	Data  json.RawMessage `json:"data"`
	HTML  *string         `json:"html"`
	// Блок, который менялся. Если к моменту сохранения его нет, ревизия не пишется.
	BlockID string `json:"block_id"`
}

// DocumentEditRequest - форматирование блока документа на сервере.
type DocumentEditRequest struct {
	BlockID string            `json:"block_id"`
	Start   int               `json:"start" validate:"min=0"`
	End     int               `json:"end" validate:"gtefield=Start"`
	Action  string            `json:"action" validate:"required,oneof=format remove clear split paste"`
	Format  string            `json:"format" validate:"omitempty,format"`
	Attrs   map[string]string `json:"attrs"`
	Paste   string            `json:"paste"`
}
