package selection

import (
	"github.com/aisa-it/redactor/internal/redactor/dom"
	"golang.org/x/net/html"
)

// Bounds - геометрия выделения в строках и колонках текста контейнера (с нуля).
// Строки разрываются переводом строки, <br> и блочными элементами.
// EndColumn указывает на позицию после последнего выделенного символа.
type Bounds struct {
	StartLine   int `json:"start_line"`
	StartColumn int `json:"start_column"`
	EndLine     int `json:"end_line"`
	EndColumn   int `json:"end_column"`
}

type position struct {
	line, col int
}

// layout раскладывает текст контейнера по строкам.
type layout struct {
	chars   []position
	runes   []rune
	widths  []int
	current position
}

func (l *layout) breakLine() {
	l.widths = append(l.widths, l.current.col)
	l.current = position{line: l.current.line + 1}
}

func (l *layout) softBreak() {
	if l.current.col > 0 {
		l.breakLine()
	}
}

func (l *layout) walk(n *html.Node, root bool) {
	switch n.Type {
	case html.TextNode:
		for _, r := range n.Data {
			l.chars = append(l.chars, l.current)
			l.runes = append(l.runes, r)
			if r == '\n' {
				l.breakLine()
			} else {
				l.current.col++
			}
		}
		return
	case html.CommentNode:
		return
	}

	if dom.IsElement(n, "br") {
		l.breakLine()
		return
	}
	block := !root && dom.IsBlock(n)
	if block {
		l.softBreak()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		l.walk(c, false)
	}
	if block {
		l.softBreak()
	}
}

func newLayout(container *html.Node) *layout {
	l := &layout{}
	l.walk(container, true)
	l.widths = append(l.widths, l.current.col)
	return l
}

// at - позиция перед символом i, для конца текста - позиция после последнего символа.
func (l *layout) at(i int) position {
	if i < len(l.chars) {
		return l.chars[i]
	}
	return l.after(len(l.chars) - 1)
}

// after - позиция сразу за символом i.
func (l *layout) after(i int) position {
	if i < 0 {
		return position{}
	}
	p := l.chars[i]
	if l.runes[i] == '\n' {
		return position{line: p.line + 1}
	}
	return position{line: p.line, col: p.col + 1}
}

func (l *layout) bounds(s, e int) Bounds {
	start := l.at(s)
	end := start
	if e > s {
		end = l.after(e - 1)
	}
	return Bounds{
		StartLine:   start.line,
		StartColumn: start.col,
		EndLine:     end.line,
		EndColumn:   end.col,
	}
}

// GetBounds - границы текущего выделения внутри container.
func (t *Tracker) GetBounds(container *html.Node) (Bounds, bool) {
	s, e := t.GetOffset(container)
	if s < 0 {
		return Bounds{}, false
	}
	return newLayout(container).bounds(s, e), true
}

// GetFirstLineBounds - границы части выделения, лежащей на его первой строке.
func (t *Tracker) GetFirstLineBounds(container *html.Node) (Bounds, bool) {
	s, e := t.GetOffset(container)
	if s < 0 {
		return Bounds{}, false
	}
	l := newLayout(container)
	b := l.bounds(s, e)
	if b.EndLine != b.StartLine {
		b.EndLine = b.StartLine
		b.EndColumn = l.widths[b.StartLine]
	}
	return b, true
}
