// Пакет dom предоставляет примитивы для работы с живым деревом редактора поверх golang.org/x/net/html.
//
// Основные возможности:
//   - Измерение текстового содержимого узлов в рунах (аналог textContent).
//   - Построение индекса текстовых узлов с символьными смещениями.
//   - Клонирование, разворачивание (unwrap) и перенос дочерних узлов.
//   - Отсоединенные фрагменты (html.DocumentNode) для промежуточных результатов.
//   - Граничные точки и диапазоны (Range) в терминах DOM.
//   - Реестр элементов по стабильным идентификаторам (атрибут id).
package dom

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var voidElements = map[atom.Atom]bool{
	atom.Area:   true,
	atom.Base:   true,
	atom.Br:     true,
	atom.Col:    true,
	atom.Embed:  true,
	atom.Hr:     true,
	atom.Img:    true,
	atom.Input:  true,
	atom.Link:   true,
	atom.Meta:   true,
	atom.Param:  true,
	atom.Source: true,
	atom.Track:  true,
	atom.Wbr:    true,
}

var inlineElements = map[string]bool{
	"a": true, "abbr": true, "b": true, "bdi": true, "bdo": true, "cite": true,
	"code": true, "data": true, "del": true, "dfn": true, "em": true, "font": true,
	"i": true, "ins": true, "kbd": true, "mark": true, "q": true, "s": true,
	"samp": true, "small": true, "span": true, "strike": true, "strong": true,
	"sub": true, "sup": true, "time": true, "u": true, "var": true,
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "dd": true,
	"div": true, "dl": true, "dt": true, "figcaption": true, "figure": true,
	"footer": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "header": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "pre": true, "section": true, "table": true, "td": true, "th": true,
	"tr": true, "ul": true,
}

// IsElement - true для узла-элемента, при непустом tag дополнительно сверяется имя тега.
func IsElement(n *html.Node, tag string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	return tag == "" || n.Data == tag
}

func IsText(n *html.Node) bool {
	return n != nil && n.Type == html.TextNode
}

// IsVoid - элемент без содержимого (br, img, hr...). Такие элементы не считаются пустыми тегами.
func IsVoid(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if n.DataAtom != 0 {
		return voidElements[n.DataAtom]
	}
	return voidElements[atom.Lookup([]byte(n.Data))]
}

// IsInline - строчный элемент разметки (b, i, a, span...).
func IsInline(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && inlineElements[n.Data]
}

// IsBlock - блочный элемент, разрывающий строку при измерении границ.
func IsBlock(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && blockElements[n.Data]
}

// NewElement создает отсоединенный элемент с копией переданных атрибутов.
func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     slices.Clone(attrs),
	}
}

func NewText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// NewFragment создает отсоединенный фрагмент. При рендеринге выводятся только его дети.
func NewFragment() *html.Node {
	return &html.Node{Type: html.DocumentNode}
}

// Clone копирует узел вместе с атрибутами, при deep - со всем поддеревом.
func Clone(n *html.Node, deep bool) *html.Node {
	if n == nil {
		return nil
	}
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      slices.Clone(n.Attr),
	}
	if deep {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			c.AppendChild(Clone(child, true))
		}
	}
	return c
}

// Children возвращает снимок списка детей, безопасный для изменения дерева во время обхода.
func Children(n *html.Node) []*html.Node {
	var res []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		res = append(res, c)
	}
	return res
}

// MoveChildren переносит всех детей src в конец dst.
func MoveChildren(dst, src *html.Node) {
	for _, c := range Children(src) {
		src.RemoveChild(c)
		dst.AppendChild(c)
	}
}

// MoveChildrenBefore переносит всех детей src перед узлом ref.
func MoveChildrenBefore(ref, src *html.Node) {
	for _, c := range Children(src) {
		src.RemoveChild(c)
		ref.Parent.InsertBefore(c, ref)
	}
}

func RemoveChildren(n *html.Node) {
	for _, c := range Children(n) {
		n.RemoveChild(c)
	}
}

// Unwrap заменяет элемент его детьми.
func Unwrap(n *html.Node) {
	if n == nil || n.Parent == nil {
		return
	}
	MoveChildrenBefore(n, n)
	n.Parent.RemoveChild(n)
}

// Detach отсоединяет узел от родителя, если он есть.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// Root - самый верхний предок узла.
func Root(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// Contains - true, если node совпадает с ancestor или лежит внутри него.
func Contains(ancestor, node *html.Node) bool {
	if ancestor == nil {
		return false
	}
	for p := node; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// CommonAncestor - ближайший общий предок двух узлов (включительно).
func CommonAncestor(a, b *html.Node) *html.Node {
	for p := a; p != nil; p = p.Parent {
		if Contains(p, b) {
			return p
		}
	}
	return nil
}

// IterNodes обходит дерево в прямом порядке. Если f возвращает true, потомки узла пропускаются.
func IterNodes(node *html.Node, f func(child *html.Node) bool) {
	if node == nil || f(node) {
		return
	}
	for p := node.FirstChild; p != nil; p = p.NextSibling {
		IterNodes(p, f)
	}
}

// FindAll возвращает элементы с именем tag (все элементы при пустом tag) в порядке документа, не включая сам root.
func FindAll(root *html.Node, tag string) []*html.Node {
	var res []*html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		IterNodes(c, func(n *html.Node) bool {
			if IsElement(n, tag) {
				res = append(res, n)
			}
			return false
		})
	}
	return res
}

func GetAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func HasAttr(n *html.Node, key string) bool {
	return slices.ContainsFunc(n.Attr, func(attr html.Attribute) bool {
		return attr.Key == key
	})
}

func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func RemoveAttr(n *html.Node, key string) {
	n.Attr = slices.DeleteFunc(n.Attr, func(attr html.Attribute) bool {
		return attr.Key == key
	})
}

// AttrsEqual сравнивает наборы атрибутов без учета порядка.
func AttrsEqual(a, b []html.Attribute) bool {
	if len(a) != len(b) {
		return false
	}
	for _, attr := range a {
		if !slices.ContainsFunc(b, func(other html.Attribute) bool {
			return other.Key == attr.Key && other.Val == attr.Val && other.Namespace == attr.Namespace
		}) {
			return false
		}
	}
	return true
}

// IsBlank - строка пуста или состоит только из пробельных символов.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
