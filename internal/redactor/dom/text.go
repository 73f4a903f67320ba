package dom

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TextRun - текстовый узел и его полуинтервал [Start, End) в символах относительно корня индекса.
type TextRun struct {
	Node  *html.Node
	Start int
	End   int
}

func (r TextRun) Len() int {
	return r.End - r.Start
}

// TextLen - длина текстового содержимого узла в рунах. Пустые элементы (br, img) дают 0.
func TextLen(n *html.Node) int {
	if n == nil {
		return 0
	}
	switch n.Type {
	case html.TextNode:
		return utf8.RuneCountInString(n.Data)
	case html.ElementNode, html.DocumentNode:
		l := 0
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			l += TextLen(c)
		}
		return l
	}
	return 0
}

// TextContent - склеенный текст всех текстовых потомков узла.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	IterNodes(n, func(child *html.Node) bool {
		switch child.Type {
		case html.TextNode:
			b.WriteString(child.Data)
		case html.CommentNode:
			return true
		}
		return false
	})
	return b.String()
}

// TextIndex строит упорядоченный список текстовых узлов root с их символьными интервалами.
func TextIndex(root *html.Node) []TextRun {
	var runs []TextRun
	offset := 0
	IterNodes(root, func(n *html.Node) bool {
		switch n.Type {
		case html.TextNode:
			l := utf8.RuneCountInString(n.Data)
			runs = append(runs, TextRun{Node: n, Start: offset, End: offset + l})
			offset += l
		case html.CommentNode:
			return true
		}
		return false
	})
	return runs
}

// OffsetOf - символьное смещение начала узла node относительно root.
// Второе значение false, если node не лежит внутри root.
func OffsetOf(root, node *html.Node) (int, bool) {
	if !Contains(root, node) {
		return 0, false
	}
	offset := 0
	found := false
	IterNodes(root, func(n *html.Node) bool {
		if found {
			return true
		}
		if n == node {
			found = true
			return true
		}
		if n.Type == html.TextNode {
			offset += utf8.RuneCountInString(n.Data)
		}
		return n.Type == html.CommentNode
	})
	return offset, found
}

// Span - символьный интервал узла относительно root.
func Span(root, node *html.Node) (start, end int, ok bool) {
	start, ok = OffsetOf(root, node)
	if !ok {
		return 0, 0, false
	}
	return start, start + TextLen(node), true
}

// RuneSlice возвращает подстроку s по индексам рун [start, end), индексы обрезаются по границам строки.
func RuneSlice(s string, start, end int) string {
	runes := []rune(s)
	start = max(0, min(start, len(runes)))
	end = max(start, min(end, len(runes)))
	return string(runes[start:end])
}

var fragmentContext = &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}

// ParseFragment разбирает разметку в отсоединенный фрагмент. Ошибочная разметка
// исправляется парсером так же, как это сделал бы браузер.
func ParseFragment(markup string) (*html.Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(markup), fragmentContext)
	if err != nil {
		return nil, err
	}
	fragment := NewFragment()
	for _, n := range nodes {
		fragment.AppendChild(n)
	}
	return fragment, nil
}

// OuterHTML рендерит узел. Для фрагмента выводятся только дети.
func OuterHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return ""
	}
	return b.String()
}

// InnerHTML рендерит детей узла.
func InnerHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return ""
		}
	}
	return b.String()
}

// SetInnerHTML заменяет содержимое узла разобранной разметкой.
func SetInnerHTML(n *html.Node, markup string) error {
	fragment, err := ParseFragment(markup)
	if err != nil {
		return err
	}
	RemoveChildren(n)
	MoveChildren(n, fragment)
	return nil
}
