package dom

import (
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Range - диапазон между двумя граничными точками дерева.
// Для текстового узла смещение считается в рунах, для элемента - в индексах детей.
type Range struct {
	StartContainer *html.Node
	StartOffset    int
	EndContainer   *html.Node
	EndOffset      int
}

// IsZero - диапазон не задан.
func (r Range) IsZero() bool {
	return r.StartContainer == nil || r.EndContainer == nil
}

func (r Range) Collapsed() bool {
	return r.StartContainer == r.EndContainer && r.StartOffset == r.EndOffset
}

// CommonAncestor - ближайший общий предок граничных контейнеров.
func (r Range) CommonAncestor() *html.Node {
	if r.IsZero() {
		return nil
	}
	return CommonAncestor(r.StartContainer, r.EndContainer)
}

// BoundaryOffset переводит граничную точку (node, offset) в символьное смещение относительно root.
func BoundaryOffset(root, node *html.Node, offset int) (int, bool) {
	base, ok := OffsetOf(root, node)
	if !ok {
		return 0, false
	}
	switch node.Type {
	case html.TextNode:
		return base + max(0, min(offset, utf8.RuneCountInString(node.Data))), true
	default:
		i := 0
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if i == offset {
				return base, true
			}
			base += TextLen(c)
			i++
		}
		return base, true
	}
}

// Offsets переводит диапазон в символьные смещения относительно root.
func (r Range) Offsets(root *html.Node) (start, end int, ok bool) {
	if r.IsZero() {
		return 0, 0, false
	}
	start, ok = BoundaryOffset(root, r.StartContainer, r.StartOffset)
	if !ok {
		return 0, 0, false
	}
	end, ok = BoundaryOffset(root, r.EndContainer, r.EndOffset)
	if !ok {
		return 0, 0, false
	}
	if end < start {
		start, end = end, start
	}
	return start, end, true
}

// RangeFromOffsets строит диапазон по символьным смещениям внутри root.
// Начало привязывается к узлу, в котором лежит следующий символ, конец - к узлу с предыдущим символом,
// поэтому невырожденный диапазон никогда не начинается в конце узла и не заканчивается в его начале.
// Курсор (start == end) привязывается к концу предыдущего текста.
// Второе значение false, если в root нет текстовых узлов или смещения вне границ.
func RangeFromOffsets(root *html.Node, start, end int) (Range, bool) {
	runs := TextIndex(root)
	if len(runs) == 0 {
		return Range{}, false
	}
	total := runs[len(runs)-1].End
	if start < 0 || end < start || end > total {
		return Range{}, false
	}

	endRun, ok := locateEnd(runs, end)
	if !ok {
		return Range{}, false
	}
	startRun := endRun
	if start != end {
		startRun, ok = locateStart(runs, start)
		if !ok {
			return Range{}, false
		}
	}
	return Range{
		StartContainer: startRun.Node,
		StartOffset:    start - startRun.Start,
		EndContainer:   endRun.Node,
		EndOffset:      end - endRun.Start,
	}, true
}

func locateStart(runs []TextRun, pos int) (TextRun, bool) {
	for _, run := range runs {
		if pos < run.End {
			return run, true
		}
	}
	// Курсор в самом конце контейнера
	last := runs[len(runs)-1]
	return last, pos == last.End
}

func locateEnd(runs []TextRun, pos int) (TextRun, bool) {
	for _, run := range runs {
		if pos <= run.End && (run.End > run.Start || pos == run.Start) {
			return run, true
		}
	}
	last := runs[len(runs)-1]
	return last, pos == last.End
}
