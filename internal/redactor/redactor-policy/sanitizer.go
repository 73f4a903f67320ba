package policy

import (
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/aisa-it/redactor/internal/redactor/dom"
	"golang.org/x/net/html"
)

// Config - белый список очистки дерева.
type Config struct {
	// Разрешенные теги.
	Elements []string `json:"elements"`
	// Разрешенные атрибуты по тегам, ключ "*" действует для всех тегов.
	Attributes map[string][]string `json:"attributes"`
	// Разрешенные схемы URL: тег -> атрибут -> схемы. Ссылки без схемы разрешены всегда.
	Protocols map[string]map[string][]string `json:"protocols"`
	// Атрибуты, добавляемые к оставленным элементам.
	AddAttributes map[string]map[string]string `json:"add_attributes"`
	// Теги, удаляемые вместе с содержимым.
	RemoveContents []string `json:"remove_contents"`
	// Удалять содержимое всех неразрешенных тегов.
	RemoveAllContents bool `json:"remove_all_contents"`
	AllowComments     bool `json:"allow_comments"`
}

// TransformInput - данные для трансформера об очередном элементе.
type TransformInput struct {
	Node   *html.Node
	Name   string
	Config *Config
}

// TransformOutput переопределяет решение белого списка для одного элемента.
type TransformOutput struct {
	// Оставить элемент, даже если тега нет в списке.
	Whitelist bool
	// Дополнительно разрешенные атрибуты элемента.
	AttrWhitelist []string
	// Замена элемента, обрабатывается вместо исходного.
	Node *html.Node
	// Удалить элемент вместе с содержимым.
	Drop bool
}

// Transformer вызывается для каждого элемента до проверки белым списком. nil - без изменений.
type Transformer func(in TransformInput) *TransformOutput

type Sanitizer struct {
	config       Config
	elements     map[string]bool
	remove       map[string]bool
	transformers []Transformer
}

func New(cfg Config, transformers ...Transformer) *Sanitizer {
	s := &Sanitizer{
		config:       cfg,
		elements:     make(map[string]bool),
		remove:       make(map[string]bool),
		transformers: transformers,
	}
	for _, e := range cfg.Elements {
		s.elements[strings.ToLower(e)] = true
	}
	for _, e := range cfg.RemoveContents {
		s.remove[strings.ToLower(e)] = true
	}
	return s
}

// AddTransformer добавляет трансформер в конец цепочки.
func (s *Sanitizer) AddTransformer(t Transformer) {
	s.transformers = append(s.transformers, t)
}

func (s *Sanitizer) Config() Config {
	return s.config
}

// Sanitize очищает разметку и возвращает результат.
func (s *Sanitizer) Sanitize(markup string) string {
	fragment, err := dom.ParseFragment(markup)
	if err != nil {
		slog.Warn("Sanitize markup", "err", err)
		return ""
	}
	return dom.InnerHTML(s.Clean(fragment))
}

// Clean строит очищенную копию детей root в новом фрагменте, root не изменяется.
func (s *Sanitizer) Clean(root *html.Node) *html.Node {
	res := dom.NewFragment()
	if root == nil {
		return res
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		s.cleanNode(c, res)
	}
	return res
}

func (s *Sanitizer) cleanNode(n, dst *html.Node) {
	switch n.Type {
	case html.TextNode:
		dst.AppendChild(dom.NewText(n.Data))
		return
	case html.CommentNode:
		if s.config.AllowComments {
			dst.AppendChild(dom.Clone(n, false))
		}
		return
	case html.ElementNode:
	default:
		return
	}

	out := s.transform(n)
	if out.Drop {
		return
	}
	if out.Node != nil {
		n = out.Node
		if n.Type != html.ElementNode {
			s.cleanNode(n, dst)
			return
		}
	}

	name := strings.ToLower(n.Data)
	if !s.elements[name] && !out.Whitelist {
		if s.config.RemoveAllContents || s.remove[name] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			s.cleanNode(c, dst)
		}
		return
	}

	el := dom.NewElement(name)
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)
		if !s.attrAllowed(name, key) && !slices.Contains(out.AttrWhitelist, key) {
			continue
		}
		if !s.protocolAllowed(name, key, attr.Val) {
			continue
		}
		el.Attr = append(el.Attr, html.Attribute{Key: key, Val: attr.Val})
	}
	added := s.config.AddAttributes[name]
	for _, key := range slices.Sorted(maps.Keys(added)) {
		dom.SetAttr(el, key, added[key])
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		s.cleanNode(c, el)
	}
	dst.AppendChild(el)
}

// transform прогоняет элемент через цепочку трансформеров и объединяет их решения.
func (s *Sanitizer) transform(n *html.Node) TransformOutput {
	var res TransformOutput
	for _, t := range s.transformers {
		out := t(TransformInput{Node: n, Name: strings.ToLower(n.Data), Config: &s.config})
		if out == nil {
			continue
		}
		if out.Drop {
			return TransformOutput{Drop: true}
		}
		res.Whitelist = res.Whitelist || out.Whitelist
		res.AttrWhitelist = append(res.AttrWhitelist, out.AttrWhitelist...)
		if out.Node != nil {
			res.Node = out.Node
			n = out.Node
		}
	}
	return res
}

func (s *Sanitizer) attrAllowed(tag, key string) bool {
	return slices.Contains(s.config.Attributes[tag], key) || slices.Contains(s.config.Attributes["*"], key)
}

func (s *Sanitizer) protocolAllowed(tag, key, val string) bool {
	protocols, ok := s.config.Protocols[tag][key]
	if !ok {
		return true
	}
	scheme, ok := urlScheme(val)
	if !ok {
		return true
	}
	return slices.Contains(protocols, scheme)
}

// urlScheme выделяет схему URL. Двоеточие после '/', '?' или '#' схемой не считается.
func urlScheme(val string) (string, bool) {
	val = strings.Map(func(r rune) rune {
		// Браузеры игнорируют управляющие символы и пробелы внутри схемы
		if r <= ' ' {
			return -1
		}
		return r
	}, val)
	i := strings.IndexAny(val, ":/?#")
	if i <= 0 || val[i] != ':' {
		return "", false
	}
	return strings.ToLower(val[:i]), true
}
