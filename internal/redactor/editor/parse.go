package editor

import (
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/aisa-it/redactor/internal/redactor/dom"
	"golang.org/x/net/html"
)

// HTMLToData разбирает разметку в модель документа.
// Тривиальная разметка (один текстовый узел или текст с одним <br>) возвращается как есть одной строкой.
// Узлы без данных отбрасываются, кроме пустых элементов (br, img, hr).
func HTMLToData(markup string) []any {
	fragment, err := dom.ParseFragment(markup)
	if err != nil {
		slog.Error("Parse document markup", "err", err)
		return []any{}
	}
	if fragment.FirstChild == nil {
		return []any{}
	}
	if isTrivial(fragment) {
		return []any{markup}
	}
	return childrenToData(fragment)
}

// ParseDocument разбирает полный HTML документ и возвращает модель содержимого его body.
func ParseDocument(r io.Reader) ([]any, error) {
	rootNode, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	body := getBody(rootNode)
	if body == nil || body.FirstChild == nil {
		return []any{}, nil
	}
	if isTrivial(body) {
		return []any{dom.InnerHTML(body)}, nil
	}
	return childrenToData(body), nil
}

func getBody(root *html.Node) *html.Node {
	var body *html.Node
	dom.IterNodes(root, func(n *html.Node) bool {
		if body != nil {
			return true
		}
		if dom.IsElement(n, "body") {
			body = n
			return true
		}
		return false
	})
	return body
}

// isTrivial - единственный текстовый узел или текст и один <br>.
func isTrivial(parent *html.Node) bool {
	children := dom.Children(parent)
	switch len(children) {
	case 1:
		return dom.IsText(children[0])
	case 2:
		a, b := children[0], children[1]
		return (dom.IsText(a) && dom.IsElement(b, "br")) || (dom.IsElement(a, "br") && dom.IsText(b))
	}
	return false
}

func childrenToData(parent *html.Node) []any {
	res := []any{}
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if dom.IsBlank(c.Data) && !separatesInline(c) {
				continue
			}
			res = append(res, html.EscapeString(c.Data))
		case html.ElementNode:
			n := elementToNode(c)
			if n.IsEmpty() && !dom.IsVoid(c) {
				continue
			}
			res = append(res, n)
		}
	}
	return res
}

// separatesInline - пробельный текст между двумя строчными соседями несет пробел между словами.
func separatesInline(n *html.Node) bool {
	prev, next := n.PrevSibling, n.NextSibling
	if prev == nil || next == nil {
		return false
	}
	inline := func(s *html.Node) bool {
		return dom.IsText(s) || dom.IsInline(s)
	}
	return inline(prev) && inline(next) && !strings.ContainsAny(n.Data, "\n\r")
}

func elementToNode(el *html.Node) Node {
	n := Node{Type: el.Data}
	if len(el.Attr) > 0 {
		n.Attr = make(map[string]string, len(el.Attr))
		for _, attr := range el.Attr {
			n.Attr[attr.Key] = attr.Val
		}
	}

	switch {
	case el.FirstChild == nil:
		n.Data = ""
	case el.FirstChild == el.LastChild && dom.IsText(el.FirstChild):
		n.Data = html.EscapeString(el.FirstChild.Data)
	case isTrivial(el):
		n.Data = []any{dom.InnerHTML(el)}
	default:
		n.Data = childrenToData(el)
	}
	return n
}

// ParseChilds строит элемент по узлу модели. При asElement=false возвращаются только
// построенные дети, обертка нужна, когда элемент у вызывающего уже есть.
func ParseChilds(n Node, asElement bool) []*html.Node {
	el := dom.NewElement(n.Type, sortedAttrs(n.Attr)...)
	appendData(el, n.Data)
	if asElement {
		return []*html.Node{el}
	}
	children := dom.Children(el)
	for _, c := range children {
		el.RemoveChild(c)
	}
	return children
}

func sortedAttrs(attrs map[string]string) []html.Attribute {
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

func appendData(el *html.Node, data any) {
	switch v := data.(type) {
	case string:
		appendMarkup(el, v)
	case Node:
		for _, c := range ParseChilds(v, true) {
			el.AppendChild(c)
		}
	case *Node:
		if v != nil {
			appendData(el, *v)
		}
	case []any:
		for _, item := range v {
			appendData(el, item)
		}
	}
}

func appendMarkup(el *html.Node, markup string) {
	if markup == "" {
		return
	}
	fragment, err := dom.ParseFragment(markup)
	if err != nil {
		slog.Warn("Parse node markup", "type", el.Data, "err", err)
		el.AppendChild(dom.NewText(markup))
		return
	}
	dom.MoveChildren(el, fragment)
}

// RenderHTML рендерит модель документа в разметку.
func RenderHTML(nodes []any) (string, error) {
	var b strings.Builder
	for _, item := range nodes {
		switch v := item.(type) {
		case string:
			b.WriteString(v)
		case Node:
			for _, el := range ParseChilds(v, true) {
				if err := html.Render(&b, el); err != nil {
					return "", err
				}
			}
		}
	}
	return b.String(), nil
}
