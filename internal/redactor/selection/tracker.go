// Пакет selection переводит выделение редактора в символьные смещения относительно контейнера и обратно.
//
// Основные возможности:
//   - Хранение текущего диапазона (dom.Range) для одного экземпляра редактора.
//   - Расчет смещений выделения относительно произвольного контейнера с обрезкой по границам.
//   - Установка выделения по смещениям с привязкой к текстовым узлам.
//   - Поиск элементов, пересекающих выделение.
//   - Разделение содержимого контейнера по курсору.
//   - Границы выделения в строках и колонках.
package selection

import (
	"log/slog"

	"github.com/aisa-it/redactor/internal/redactor/dom"
	"golang.org/x/net/html"
)

// Scroller вызывается после Select с флагом прокрутки.
type Scroller func(r dom.Range)

// Tracker - текущее выделение одного экземпляра редактора.
// Не потокобезопасен, сериализация вызовов лежит на владельце (redactor.Editor).
type Tracker struct {
	rng    dom.Range
	active bool

	Scroller Scroller
}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) SetRange(r dom.Range) {
	if r.IsZero() {
		t.Clear()
		return
	}
	t.rng = r
	t.active = true
}

// Range возвращает текущий диапазон, второе значение false при отсутствии выделения.
func (t *Tracker) Range() (dom.Range, bool) {
	return t.rng, t.active
}

func (t *Tracker) Clear() {
	t.rng = dom.Range{}
	t.active = false
}

// GetOffset возвращает смещения выделения относительно container.
// Без выделения или при выделении в другом дереве возвращает -1, -1.
// Части выделения за пределами контейнера обрезаются до [0, длина].
func (t *Tracker) GetOffset(container *html.Node) (start, end int) {
	if !t.active || container == nil {
		return -1, -1
	}
	root := dom.Root(container)
	if dom.Root(t.rng.StartContainer) != root || dom.Root(t.rng.EndContainer) != root {
		return -1, -1
	}

	s, e, ok := t.rng.Offsets(root)
	if !ok {
		return -1, -1
	}
	cs, ce, ok := dom.Span(root, container)
	if !ok {
		return -1, -1
	}
	l := ce - cs
	return max(0, min(s-cs, l)), max(0, min(e-cs, l))
}

// Select устанавливает выделение [start, end) внутри container.
// Если подходящих текстовых узлов нет, ничего не делает.
func (t *Tracker) Select(start, end int, container *html.Node, scroll bool) {
	if container == nil {
		return
	}
	r, ok := dom.RangeFromOffsets(container, start, end)
	if !ok {
		slog.Debug("Selection bounds do not match container text", "start", start, "end", end, "length", dom.TextLen(container))
		return
	}
	t.SetRange(r)
	if scroll && t.Scroller != nil {
		t.Scroller(r)
	}
}

// FindTags возвращает в порядке документа элементы внутри container, пересекающие выделение.
// Пустой tag означает любой элемент. При includeChildren=false вложенные совпадения не возвращаются.
func (t *Tracker) FindTags(container *html.Node, tag string, includeChildren bool) []*html.Node {
	s, e := t.GetOffset(container)
	if s < 0 {
		return nil
	}

	var res []*html.Node
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		dom.IterNodes(c, func(n *html.Node) bool {
			if !dom.IsElement(n, tag) || !t.intersects(container, n, s, e) {
				return false
			}
			res = append(res, n)
			return !includeChildren
		})
	}
	return res
}

func (t *Tracker) intersects(container, el *html.Node, s, e int) bool {
	es, ee, ok := dom.Span(container, el)
	if !ok {
		return false
	}
	if es < e && ee > s {
		return true
	}
	// Граничная точка внутри элемента, даже если по символам пересечения нет
	return dom.Contains(el, t.rng.StartContainer) || dom.Contains(el, t.rng.EndContainer)
}

// SplitContent отделяет все после начала выделения в новый фрагмент и возвращает его разметку.
// В container остается только часть до курсора, курсор ставится в конец оставшегося текста.
func (t *Tracker) SplitContent(container *html.Node) string {
	s, _ := t.GetOffset(container)
	if s < 0 {
		return ""
	}
	before, middle, _ := dom.Split(container, s, dom.TextLen(container))
	dom.RemoveChildren(container)
	dom.MoveChildren(container, before)

	tail := dom.InnerHTML(middle)
	if r, ok := dom.RangeFromOffsets(container, s, s); ok {
		t.SetRange(r)
	} else {
		t.SetRange(dom.Range{StartContainer: container, StartOffset: 0, EndContainer: container, EndOffset: 0})
	}
	return tail
}
