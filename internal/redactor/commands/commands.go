// Пакет commands реализует форматирование строчной разметки по текущему выделению.
//
// Основные возможности:
//   - Классификация отношения выделения к существующей разметке (Direction).
//   - Создание, удаление и перерисовка разметки с сохранением текста.
//   - Разделение элементов по символьным смещениям.
//   - Нормализация: удаление пустых тегов, схлопывание вложенных и склейка соседних.
package commands

import (
	"errors"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aisa-it/redactor/internal/redactor/dom"
	"github.com/aisa-it/redactor/internal/redactor/selection"
	"golang.org/x/net/html"
)

var (
	ErrNoSelection    = errors.New("no active selection")
	ErrEmptySelection = errors.New("selection is empty")
	ErrInvalidRange   = errors.New("invalid range")
)

// Commands выполняет форматирование в пределах одного редактируемого контейнера.
// Не потокобезопасен, как и selection.Tracker.
type Commands struct {
	tracker   *selection.Tracker
	container *html.Node
}

func New(tracker *selection.Tracker, container *html.Node) *Commands {
	return &Commands{tracker: tracker, container: container}
}

// SetContainer меняет текущий редактируемый контейнер.
func (c *Commands) SetContainer(container *html.Node) {
	c.container = container
}

func (c *Commands) Container() *html.Node {
	return c.container
}

// selectionOffsets - смещения выделения в контейнере или ErrNoSelection.
func (c *Commands) selectionOffsets() (int, int, error) {
	if c.container == nil {
		return 0, 0, ErrNoSelection
	}
	s, e := c.tracker.GetOffset(c.container)
	if s < 0 {
		return 0, 0, ErrNoSelection
	}
	return s, e, nil
}

// FindTags - элементы формата f, пересекающие выделение в текущем контейнере.
func (c *Commands) FindTags(f Format, includeChildren bool) []*html.Node {
	if c.container == nil {
		return nil
	}
	return c.tracker.FindTags(c.container, f.Tag(), includeChildren)
}

// GetSelectionDirection классифицирует выделение относительно элементов формата f.
func (c *Commands) GetSelectionDirection(f Format) Direction {
	s, e, err := c.selectionOffsets()
	if err != nil {
		return None
	}
	return classify(c.container, c.FindTags(f, false), s, e)
}

// GetElementDirection классифицирует выделение относительно конкретного элемента.
// Для элемента, не пересекающего выделение, возвращает Ignore.
func (c *Commands) GetElementDirection(el *html.Node) Direction {
	s, e, err := c.selectionOffsets()
	if err != nil || el == nil {
		return None
	}
	for _, n := range c.tracker.FindTags(c.container, el.Data, true) {
		if n == el {
			return classify(c.container, []*html.Node{el}, s, e)
		}
	}
	return Ignore
}

func classify(container *html.Node, matches []*html.Node, s, e int) Direction {
	if len(matches) == 0 {
		return None
	}
	first := matches[0]
	fs, fe, ok := dom.Span(container, first)
	if !ok {
		return None
	}

	selected := dom.RuneSlice(dom.TextContent(container), s, e)
	if trimmed := strings.TrimSpace(selected); trimmed != "" && trimmed == strings.TrimSpace(dom.TextContent(first)) {
		left, right := startsWithSpace(selected), endsWithSpace(selected)
		switch {
		case left && right:
			return FullSpace
		case left:
			return FullSpaceLeft
		case right:
			return FullSpaceRight
		}
		return Full
	}

	startsInside := fs < s && s < fe
	endsInside := fs < e && e < fe

	var ls, le int
	multiple := len(matches) > 1
	last := matches[len(matches)-1]
	if multiple {
		ls, le, _ = dom.Span(container, last)
	}
	endsInLast := multiple && ls < e && e < le

	switch {
	case startsInside && endsInside:
		return Inside
	case startsInside:
		if multiple {
			if endsInLast {
				if last.Parent == first.Parent {
					return MultipleInsideToInside
				}
				return MultipleInsideToParentInside
			}
			return MultipleInsideToRight
		}
		if endsWithSpace(selected) {
			return RightSpace
		}
		return Right
	case endsInside:
		if startsWithSpace(selected) {
			return LeftSpace
		}
		return Left
	case multiple:
		if s < fs && endsInLast {
			return MultipleInsideToLeft
		}
		return MultipleOutside
	}
	return Outside
}

func startsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r != utf8.RuneError && unicode.IsSpace(r)
}

func endsWithSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r != utf8.RuneError && unicode.IsSpace(r)
}

// Format переключает формат f на текущем выделении и возвращает использованное направление.
// Атрибуты применяются к создаваемым элементам (например href ссылки).
// После изменения выделение восстанавливается по тем же смещениям.
func (c *Commands) Format(f Format, focus bool, attrs ...html.Attribute) (Direction, error) {
	s, e, err := c.selectionOffsets()
	if err != nil {
		slog.Warn("Format without selection", "format", f)
		return None, err
	}
	if s == e {
		slog.Warn("Format on collapsed selection", "format", f, "offset", s)
		return None, ErrEmptySelection
	}

	matches := c.FindTags(f, false)
	dir := classify(c.container, matches, s, e)
	slog.Debug("Format", "format", f, "direction", dir, "start", s, "end", e)

	switch {
	case dir.IsFull(), dir == Inside, dir == Outside:
		c.removeMatches(matches, dir, s, e)
	case dir == None:
		err = c.FormatTextRange(f, s, e, c.container, attrs...)
	case dir.IsLeft(), dir.IsRight():
		fs, fe, _ := dom.Span(c.container, matches[0])
		c.removeMatches(matches, dir, s, e)
		if (dir.IsLeft() && s < fs) || (dir.IsRight() && e > fe) {
			err = c.FormatTextRange(f, s, e, c.container, matchAttrs(matches[0], attrs)...)
			if errors.Is(err, ErrEmptySelection) {
				err = nil
			}
		}
	case dir.IsMultipleInside():
		err = c.FormatTextRange(f, s, e, c.container, matchAttrs(matches[0], attrs)...)
	default:
		c.removeMatches(matches, dir, s, e)
	}

	Normalize(c.container)
	c.tracker.Select(s, e, c.container, focus)
	return dir, err
}

// matchAttrs - атрибуты для пересоздаваемой разметки: явно переданные или атрибуты существующего элемента.
func matchAttrs(el *html.Node, attrs []html.Attribute) []html.Attribute {
	if len(attrs) > 0 || el == nil {
		return attrs
	}
	return el.Attr
}

// CreateFormat оборачивает текущее выделение в новый элемент формата f.
func (c *Commands) CreateFormat(f Format, attrs ...html.Attribute) error {
	s, e, err := c.selectionOffsets()
	if err != nil {
		slog.Warn("CreateFormat without selection", "format", f)
		return err
	}
	if err := c.FormatTextRange(f, s, e, c.container, attrs...); err != nil {
		return err
	}
	c.tracker.Select(s, e, c.container, false)
	return nil
}

// FormatTextRange оборачивает текст [start, end) контейнера в элемент формата f.
// Вложенные элементы того же формата внутри интервала разворачиваются.
// Пустой или пробельный текст не форматируется: возвращается ErrEmptySelection, дерево не меняется.
func (c *Commands) FormatTextRange(f Format, start, end int, container *html.Node, attrs ...html.Attribute) error {
	if container == nil {
		return ErrNoSelection
	}
	if !f.Valid() || start < 0 || start > end || end > dom.TextLen(container) {
		slog.Warn("Invalid format range", "format", f, "start", start, "end", end)
		return ErrInvalidRange
	}
	if dom.IsBlank(dom.RuneSlice(dom.TextContent(container), start, end)) {
		slog.Warn("Skip formatting of empty text", "format", f, "start", start, "end", end)
		return ErrEmptySelection
	}

	for _, group := range groupRuns(container, start, end) {
		first, last := group[0], group[len(group)-1]
		from, to := max(start, first.Start), min(end, last.End)
		if dom.IsBlank(dom.RuneSlice(dom.TextContent(container), from, to)) {
			continue
		}
		if err := wrapRange(container, first.Node, last.Node, from, to, f.Tag(), attrs); err != nil {
			return err
		}
	}

	Normalize(container)
	return nil
}

// groupRuns делит непустые текстовые узлы, пересекающие [start, end), по ближайшему блочному предку.
// Каждая группа оборачивается отдельно, чтобы не разрезать блоки.
func groupRuns(container *html.Node, start, end int) [][]dom.TextRun {
	var groups [][]dom.TextRun
	var current *html.Node
	for _, run := range dom.TextIndex(container) {
		if run.Len() == 0 || run.Start >= end || run.End <= start {
			continue
		}
		root := inlineRoot(container, run.Node)
		if root != current || len(groups) == 0 {
			groups = append(groups, nil)
			current = root
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], run)
	}
	return groups
}

func inlineRoot(container, n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == container || dom.IsBlock(p) {
			return p
		}
	}
	return container
}

// wrapRange оборачивает интервал [from, to) между текстовыми узлами first и last.
func wrapRange(container, first, last *html.Node, from, to int, tag string, attrs []html.Attribute) error {
	ca := dom.CommonAncestor(first, last)
	if ca != nil && ca.Type == html.TextNode {
		ca = ca.Parent
	}
	caStart, ok := dom.OffsetOf(container, ca)
	if !ok {
		return ErrInvalidRange
	}

	before, middle, after := dom.Split(ca, from-caStart, to-caStart)
	for _, nested := range dom.FindAll(middle, tag) {
		dom.Unwrap(nested)
	}
	wrapInline(middle, tag, attrs)

	dom.RemoveChildren(ca)
	dom.MoveChildren(ca, before)
	dom.MoveChildren(ca, middle)
	dom.MoveChildren(ca, after)
	return nil
}

// wrapInline оборачивает строчное содержимое parent в элементы tag.
// Блочные элементы не оборачиваются, обработка продолжается внутри них.
func wrapInline(parent *html.Node, tag string, attrs []html.Attribute) {
	var run *html.Node
	closeRun := func() {
		if run != nil && dom.IsBlank(dom.TextContent(run)) && len(dom.FindAll(run, "")) == 0 {
			dom.Unwrap(run)
		}
		run = nil
	}
	for _, n := range dom.Children(parent) {
		if dom.IsBlock(n) {
			closeRun()
			wrapInline(n, tag, attrs)
			continue
		}
		if run == nil {
			run = dom.NewElement(tag, attrs...)
			parent.InsertBefore(run, n)
		}
		parent.RemoveChild(n)
		run.AppendChild(n)
	}
	closeRun()
}

// RemoveFormat снимает формат f с выделенного текста.
func (c *Commands) RemoveFormat(f Format, focus, normalize bool) error {
	s, e, err := c.selectionOffsets()
	if err != nil {
		slog.Warn("RemoveFormat without selection", "format", f)
		return err
	}
	if s == e {
		return ErrEmptySelection
	}
	matches := c.FindTags(f, false)
	c.removeMatches(matches, classify(c.container, matches, s, e), s, e)
	if normalize {
		Normalize(c.container)
	}
	c.tracker.Select(s, e, c.container, focus)
	return nil
}

// ClearAllFormatting снимает все форматы с выделенного текста.
func (c *Commands) ClearAllFormatting(normalize bool) error {
	s, e, err := c.selectionOffsets()
	if err != nil {
		slog.Warn("ClearAllFormatting without selection")
		return err
	}
	if s == e {
		return ErrEmptySelection
	}
	for _, tag := range formatTagList() {
		matches := c.tracker.FindTags(c.container, tag, false)
		c.removeMatches(matches, classify(c.container, matches, s, e), s, e)
		// Узлы выделения могли быть заменены копиями
		c.tracker.Select(s, e, c.container, false)
	}
	if normalize {
		Normalize(c.container)
	}
	c.tracker.Select(s, e, c.container, false)
	return nil
}

// removeMatches снимает разметку с части каждого элемента, попавшей в [s, e).
// Части элемента вне интервала сохраняют разметку, текст не меняется.
func (c *Commands) removeMatches(matches []*html.Node, dir Direction, s, e int) {
	if dir.IsFull() {
		for _, m := range matches {
			dom.Unwrap(m)
		}
		return
	}

	type cut struct {
		el         *html.Node
		start, end int
	}
	var cuts []cut
	for _, m := range matches {
		ms, me, ok := dom.Span(c.container, m)
		if !ok {
			continue
		}
		cuts = append(cuts, cut{el: m, start: max(s, ms) - ms, end: min(e, me) - ms})
	}

	for _, ct := range cuts {
		l := dom.TextLen(ct.el)
		switch {
		case ct.start <= 0 && ct.end >= l:
			dom.Unwrap(ct.el)
		case ct.end > ct.start:
			before, middle, after := dom.Split(ct.el, ct.start, ct.end)
			if dom.HasContent(before) {
				ct.el.Parent.InsertBefore(before, ct.el)
			}
			dom.MoveChildrenBefore(ct.el, middle)
			if dom.HasContent(after) {
				ct.el.Parent.InsertBefore(after, ct.el)
			}
			ct.el.Parent.RemoveChild(ct.el)
		}
	}
}
