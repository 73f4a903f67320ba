package commands

import (
	"github.com/aisa-it/redactor/internal/redactor/dom"
	"golang.org/x/net/html"
)

// SplitElement делит элемент по символьному интервалу [start, end), не изменяя его.
// Возвращает копию с текстом до start, фрагмент с текстом интервала и копию с текстом после end.
func SplitElement(el *html.Node, start, end int) (before, middle, after *html.Node) {
	return dom.Split(el, start, end)
}

// Normalize приводит разметку внутри root к каноническому виду:
// удаляет пустые строчные теги, схлопывает вложенные одинаковые теги,
// склеивает соседние одинаковые теги и текстовые узлы. Повторный вызов ничего не меняет.
func Normalize(root *html.Node) {
	if root == nil {
		return
	}
	RemoveEmptyTags(root, "")
	FlattenNestedSimilarTags(root)
	mergeText(root)
	MergeAdjacentTags(root)
	mergeText(root)
}

// RemoveEmptyTags удаляет элементы без детей. При пустом tag удаляются только строчные элементы,
// пустые элементы вроде br не трогаются. Пустые текстовые узлы удаляются всегда.
func RemoveEmptyTags(root *html.Node, tag string) {
	for _, c := range dom.Children(root) {
		switch c.Type {
		case html.TextNode:
			if c.Data == "" {
				root.RemoveChild(c)
			}
		case html.ElementNode:
			RemoveEmptyTags(c, tag)
			if c.FirstChild != nil || dom.IsVoid(c) {
				continue
			}
			if (tag == "" && dom.IsInline(c)) || (tag != "" && c.Data == tag) {
				root.RemoveChild(c)
			}
		}
	}
}

// FlattenNestedSimilarTags разворачивает вложенные элементы с тем же тегом: <b><b>x</b></b> -> <b>x</b>.
// Форматирующие теги схлопываются всегда, остальные строчные - если атрибуты совпадают или у вложенного их нет.
func FlattenNestedSimilarTags(root *html.Node) {
	for _, c := range dom.Children(root) {
		if c.Type != html.ElementNode {
			continue
		}
		if dom.IsInline(c) {
			for _, nested := range dom.FindAll(c, c.Data) {
				if IsFormatTag(c.Data) || len(nested.Attr) == 0 || dom.AttrsEqual(nested.Attr, c.Attr) {
					dom.Unwrap(nested)
				}
			}
		}
		FlattenNestedSimilarTags(c)
	}
}

// MergeAdjacentTags склеивает соседние строчные элементы с одинаковым тегом и атрибутами.
// Разделяющий их текст из одних пробелов переносится внутрь склеенного элемента.
func MergeAdjacentTags(root *html.Node) {
	if root == nil {
		return
	}
	c := root.FirstChild
	for c != nil {
		if dom.IsInline(c) {
			if next, gap := mergeCandidate(c); next != nil {
				for _, g := range gap {
					root.RemoveChild(g)
					c.AppendChild(g)
				}
				dom.MoveChildren(c, next)
				root.RemoveChild(next)
				continue
			}
		}
		c = c.NextSibling
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			MergeAdjacentTags(c)
		}
	}
}

// mergeCandidate ищет следующий элемент, который можно склеить с el, и разделяющие их текстовые узлы.
func mergeCandidate(el *html.Node) (*html.Node, []*html.Node) {
	var gap []*html.Node
	for n := el.NextSibling; n != nil; n = n.NextSibling {
		switch {
		case n.Type == html.TextNode && dom.IsBlank(n.Data):
			gap = append(gap, n)
		case n.Type == html.ElementNode && n.Data == el.Data && dom.AttrsEqual(n.Attr, el.Attr):
			return n, gap
		default:
			return nil, nil
		}
	}
	return nil, nil
}

// mergeText склеивает соседние текстовые узлы и удаляет пустые.
func mergeText(root *html.Node) {
	c := root.FirstChild
	for c != nil {
		next := c.NextSibling
		switch c.Type {
		case html.TextNode:
			if c.Data == "" {
				root.RemoveChild(c)
				c = next
				continue
			}
			if next != nil && next.Type == html.TextNode {
				c.Data += next.Data
				root.RemoveChild(next)
				continue
			}
		case html.ElementNode:
			mergeText(c)
		}
		c = next
	}
}
