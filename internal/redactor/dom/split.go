package dom

import (
	"golang.org/x/net/html"
)

// Split делит элемент по символьному интервалу [start, end) его текста и возвращает три новых части:
//   - before: поверхностная копия el с содержимым до start;
//   - middle: фрагмент с содержимым из [start, end) без обертки el;
//   - after: поверхностная копия el с содержимым начиная с end.
//
// Вложенные элементы, пересекающие границу, делятся рекурсивно, и их обертки
// повторяются в каждой из частей. Исходный элемент не изменяется.
// Пустые элементы (br, img) относятся к before, если стоят не правее start,
// к after - если не левее end, иначе к middle.
func Split(el *html.Node, start, end int) (before, middle, after *html.Node) {
	total := TextLen(el)
	start = max(0, min(start, total))
	end = max(start, min(end, total))

	before = Clone(el, false)
	after = Clone(el, false)
	middle = NewFragment()
	splitInto(el, start, end, before, middle, after)
	return before, middle, after
}

func splitInto(el *html.Node, start, end int, before, middle, after *html.Node) {
	offset := 0
	for c := el.FirstChild; c != nil; c = c.NextSibling {
		l := TextLen(c)
		cs, ce := offset, offset+l
		offset = ce

		switch {
		case c.Type == html.TextNode:
			runes := []rune(c.Data)
			appendText(before, runes, 0, start-cs)
			appendText(middle, runes, start-cs, end-cs)
			appendText(after, runes, end-cs, l)
		case l == 0:
			switch {
			case cs <= start:
				before.AppendChild(Clone(c, true))
			case cs >= end:
				after.AppendChild(Clone(c, true))
			default:
				middle.AppendChild(Clone(c, true))
			}
		case ce <= start:
			before.AppendChild(Clone(c, true))
		case cs >= end:
			after.AppendChild(Clone(c, true))
		case cs >= start && ce <= end:
			middle.AppendChild(Clone(c, true))
		default:
			// Граница проходит внутри вложенного элемента
			b, m, a := Split(c, start-cs, end-cs)
			if HasContent(b) {
				before.AppendChild(b)
			}
			if m.FirstChild != nil {
				wrapper := Clone(c, false)
				MoveChildren(wrapper, m)
				middle.AppendChild(wrapper)
			}
			if HasContent(a) {
				after.AppendChild(a)
			}
		}
	}
}

func appendText(dst *html.Node, runes []rune, from, to int) {
	from = max(0, min(from, len(runes)))
	to = max(from, min(to, len(runes)))
	if to > from {
		dst.AppendChild(NewText(string(runes[from:to])))
	}
}

// HasContent - у узла есть хотя бы один ребенок: текст или элемент.
func HasContent(n *html.Node) bool {
	return n != nil && n.FirstChild != nil
}
