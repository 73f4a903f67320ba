// Определяет политики очистки разметки редактора: белые списки тегов, атрибутов и схем ссылок.
// Очистка выполняется обходом дерева, неразрешенные элементы разворачиваются, а их содержимое сохраняется.
//
// Основные возможности:
//   - Разрешение тегов и атрибутов по конфигурации (Config), в том числе для всех тегов сразу ("*").
//   - Проверка схем URL в атрибутах ссылок (href, src).
//   - Добавление обязательных атрибутов (например rel у ссылок).
//   - Удаление элементов вместе с содержимым (script, style).
//   - Трансформеры для точечных исключений без изменения конфигурации.
//   - Готовые политики bluemonday (StripTagsPolicy, UgcPolicy) для хранимого HTML и извлечения текста.
package policy

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var StripTagsPolicy *bluemonday.Policy = bluemonday.StrictPolicy()
var UgcPolicy *bluemonday.Policy = bluemonday.UGCPolicy()

func init() {
	colorRegexp := regexp.MustCompile(`^(#(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})|rgb\((\d+),\s*(\d+),\s*(\d+)\)|inherit)$`)
	alignRegexp := regexp.MustCompile(`^(left|right|center|justify)$`)
	idRegexp := regexp.MustCompile(`^[0-9a-zA-Z-]+$`)

	UgcPolicy.AllowAttrs("id").Matching(idRegexp).OnElements("p", "h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "blockquote", "pre", "table", "figure", "div")
	UgcPolicy.AllowAttrs("data-color", "style").OnElements("mark")
	UgcPolicy.AllowAttrs("style", "class").OnElements("span")
	UgcPolicy.AllowElements("u", "s", "mark", "sub", "sup")

	UgcPolicy.AllowStyles("color", "background-color").Matching(colorRegexp).Globally()
	UgcPolicy.AllowStyles("text-align").Matching(alignRegexp).OnElements("p", "h1", "h2", "h3", "h4", "h5", "h6")
}

// StripTags оставляет только текст разметки.
func StripTags(markup string) string {
	return StripTagsPolicy.Sanitize(markup)
}

var urlProtocols = []string{"http", "https", "mailto", "tel"}

// BasicConfig - строчная разметка редактора: форматирование и ссылки.
func BasicConfig() Config {
	return Config{
		Elements: []string{"a", "b", "i", "u", "s", "code", "mark", "sub", "sup", "br", "strong", "em", "del"},
		Attributes: map[string][]string{
			"a":    {"href", "target", "title"},
			"mark": {"data-color"},
		},
		Protocols: map[string]map[string][]string{
			"a": {"href": urlProtocols},
		},
		AddAttributes: map[string]map[string]string{
			"a": {"rel": "noopener noreferrer"},
		},
		RemoveContents: []string{"script", "style", "iframe", "object", "embed", "template", "noscript"},
	}
}

// RelaxedConfig - строчная разметка и блоки документа.
func RelaxedConfig() Config {
	cfg := BasicConfig()
	cfg.Elements = append(cfg.Elements,
		"p", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre", "hr",
		"ul", "ol", "li", "table", "thead", "tbody", "tr", "th", "td",
		"img", "figure", "figcaption", "span", "div",
	)
	cfg.Attributes["*"] = []string{"id"}
	cfg.Attributes["img"] = []string{"src", "alt", "title", "width", "height"}
	cfg.Attributes["ol"] = []string{"start"}
	cfg.Attributes["td"] = []string{"colspan", "rowspan"}
	cfg.Attributes["th"] = []string{"colspan", "rowspan"}
	cfg.Protocols["img"] = map[string][]string{"src": {"http", "https"}}
	return cfg
}
