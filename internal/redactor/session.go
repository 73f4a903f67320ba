package redactor

import (
	"errors"
	"slices"
	"sync"

	"github.com/aisa-it/redactor/internal/redactor/commands"
	"github.com/aisa-it/redactor/internal/redactor/dom"
	"github.com/aisa-it/redactor/internal/redactor/editor"
	policy "github.com/aisa-it/redactor/internal/redactor/redactor-policy"
	"github.com/aisa-it/redactor/internal/redactor/selection"
	"golang.org/x/net/html"
)

var ErrBlockNotFound = errors.New("block not found")

var headings = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

// Editor - один экземпляр редактора: дерево содержимого, выделение и команды форматирования.
// Каждый метод выполняется под мьютексом редактора. Выделение и действие над ним,
// которые не должны разделяться другими вызовами, выполняются через Edit.
type Editor struct {
	mu        sync.Mutex
	root      *html.Node
	registry  *dom.Registry
	tracker   *selection.Tracker
	commands  *commands.Commands
	sanitizer *policy.Sanitizer
	blocks    *editor.Blocks
}

// NewEditor создает пустой редактор. sanitizer очищает вставляемую разметку, nil - BasicConfig.
func NewEditor(sanitizer *policy.Sanitizer) *Editor {
	if sanitizer == nil {
		sanitizer = policy.New(policy.BasicConfig())
	}
	root := dom.NewElement("div")
	tracker := selection.NewTracker()
	return &Editor{
		root:      root,
		registry:  dom.NewRegistry(root),
		tracker:   tracker,
		commands:  commands.New(tracker, nil),
		sanitizer: sanitizer,
		blocks:    editor.NewBlocks(),
	}
}

// Blocks - реестр конструкторов блоков, используемый Load.
func (e *Editor) Blocks() *editor.Blocks {
	return e.blocks
}

// Load заменяет содержимое блоками модели документа. Выделение сбрасывается.
func (e *Editor) Load(nodes []any) {
	e.mu.Lock()
	defer e.mu.Unlock()

	dom.RemoveChildren(e.root)
	for _, block := range e.blocks.ParseBlocks(nodes, true) {
		e.root.AppendChild(block)
	}
	e.reset()
}

// LoadHTML заменяет содержимое разметкой как есть, без разбора на блоки.
func (e *Editor) LoadHTML(markup string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := dom.SetInnerHTML(e.root, markup); err != nil {
		return err
	}
	e.reset()
	return nil
}

func (e *Editor) reset() {
	e.registry.Index(e.root)
	e.tracker.Clear()
	e.commands.SetContainer(nil)
}

// container - элемент по id или весь редактор для пустого id.
func (e *Editor) container(blockID string) (*html.Node, error) {
	if blockID == "" {
		return e.root, nil
	}
	n, ok := e.registry.Resolve(blockID)
	if !ok {
		return nil, ErrBlockNotFound
	}
	return n, nil
}

// Select выделяет символы [start, end) блока blockID. Пустой blockID - весь текст редактора.
func (e *Editor) Select(blockID string, start, end int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selectRange(blockID, start, end)
}

func (e *Editor) selectRange(blockID string, start, end int) error {
	container, err := e.container(blockID)
	if err != nil {
		return err
	}
	if start < 0 || start > end || end > dom.TextLen(container) {
		return commands.ErrInvalidRange
	}
	e.commands.SetContainer(container)
	r, ok := dom.RangeFromOffsets(container, start, end)
	if !ok {
		// В контейнере нет текста, курсор ставится в его начало
		r = dom.Range{StartContainer: container, EndContainer: container}
	}
	e.tracker.SetRange(r)
	return nil
}

// Selection возвращает id текущего блока и смещения выделения в нем.
func (e *Editor) Selection() (blockID string, start, end int, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection()
}

func (e *Editor) selection() (blockID string, start, end int, ok bool) {
	container := e.commands.Container()
	if container == nil {
		return "", -1, -1, false
	}
	start, end = e.tracker.GetOffset(container)
	if start < 0 {
		return "", -1, -1, false
	}
	if container != e.root {
		blockID = dom.GetAttr(container, "id")
	}
	return blockID, start, end, true
}

// Bounds - границы выделения в строках и колонках текущего блока.
func (e *Editor) Bounds() (selection.Bounds, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.GetBounds(e.commands.Container())
}

// Format переключает формат на текущем выделении.
func (e *Editor) Format(f commands.Format, attrs ...html.Attribute) (commands.Direction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.commands.Format(f, false, attrs...)
}

// Direction - отношение текущего выделения к разметке формата f без изменения дерева.
func (e *Editor) Direction(f commands.Format) commands.Direction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.commands.GetSelectionDirection(f)
}

func (e *Editor) RemoveFormat(f commands.Format) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.commands.RemoveFormat(f, false, true)
}

// ClearFormatting снимает все строчные форматы с выделения.
func (e *Editor) ClearFormatting() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.commands.ClearAllFormatting(true)
}

// SplitContent отрезает содержимое текущего блока после начала выделения и возвращает его разметку.
func (e *Editor) SplitContent() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.splitContent()
}

func (e *Editor) splitContent() (string, error) {
	container := e.commands.Container()
	if container == nil {
		return "", commands.ErrNoSelection
	}
	if s, _ := e.tracker.GetOffset(container); s < 0 {
		return "", commands.ErrNoSelection
	}
	return e.tracker.SplitContent(container), nil
}

// SplitAtCursor делит текущий блок по курсору: хвост переносится в новый блок сразу после текущего.
// После заголовка создается параграф. Возвращает id нового блока, курсор ставится в его начало.
func (e *Editor) SplitAtCursor() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.splitAtCursor()
}

func (e *Editor) splitAtCursor() (string, error) {
	container := e.commands.Container()
	if container == e.root {
		return "", commands.ErrInvalidRange
	}
	tail, err := e.splitContent()
	if err != nil {
		return "", err
	}

	var block *html.Node
	if slices.Contains(headings, container.Data) {
		block = dom.NewElement("p")
	} else {
		block = dom.NewElement(container.Data)
		for _, attr := range container.Attr {
			if attr.Key != "id" {
				block.Attr = append(block.Attr, attr)
			}
		}
	}
	if err := dom.SetInnerHTML(block, tail); err != nil {
		return "", err
	}
	container.Parent.InsertBefore(block, container.NextSibling)

	id := editor.NewBlockID()
	e.registry.Register(id, block)
	e.commands.SetContainer(block)
	if r, ok := dom.RangeFromOffsets(block, 0, 0); ok {
		e.tracker.SetRange(r)
	} else {
		e.tracker.SetRange(dom.Range{StartContainer: block, EndContainer: block})
	}
	return id, nil
}

// Paste очищает разметку, пропускает ее через модель документа и вставляет вместо выделения.
// Курсор ставится после вставленного текста.
func (e *Editor) Paste(markup string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paste(markup)
}

func (e *Editor) paste(markup string) error {
	container := e.commands.Container()
	if container == nil {
		return commands.ErrNoSelection
	}
	s, end := e.tracker.GetOffset(container)
	if s < 0 {
		return commands.ErrNoSelection
	}

	clean, err := editor.RenderHTML(editor.HTMLToData(e.sanitizer.Sanitize(markup)))
	if err != nil {
		return err
	}
	pasted, err := dom.ParseFragment(clean)
	if err != nil {
		return err
	}
	length := dom.TextLen(pasted)

	before, _, after := dom.Split(container, s, end)
	dom.RemoveChildren(container)
	dom.MoveChildren(container, before)
	dom.MoveChildren(container, pasted)
	dom.MoveChildren(container, after)
	commands.Normalize(container)

	e.tracker.Select(s+length, s+length, container, false)
	return nil
}

// Save возвращает модель документа текущего содержимого.
func (e *Editor) Save() []any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.save()
}

func (e *Editor) save() []any {
	return editor.HTMLToData(dom.InnerHTML(e.root))
}

func (e *Editor) HTML() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return dom.InnerHTML(e.root)
}

// Edit выделяет [start, end) блока blockID и вызывает fn, не отпуская мьютекс редактора.
// Другие вызовы редактора не выполняются между выделением и действием fn.
// Методы EditTx действительны только внутри fn.
func (e *Editor) Edit(blockID string, start, end int, fn func(tx *EditTx) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.selectRange(blockID, start, end); err != nil {
		return err
	}
	return fn(&EditTx{e: e})
}

// EditTx - операции редактора над выделением, выполняемые внутри Edit.
type EditTx struct {
	e *Editor
}

func (tx *EditTx) Format(f commands.Format, attrs ...html.Attribute) (commands.Direction, error) {
	return tx.e.commands.Format(f, false, attrs...)
}

func (tx *EditTx) RemoveFormat(f commands.Format) error {
	return tx.e.commands.RemoveFormat(f, false, true)
}

func (tx *EditTx) ClearFormatting() error {
	return tx.e.commands.ClearAllFormatting(true)
}

func (tx *EditTx) SplitAtCursor() (string, error) {
	return tx.e.splitAtCursor()
}

func (tx *EditTx) Paste(markup string) error {
	return tx.e.paste(markup)
}

func (tx *EditTx) HTML() string {
	return dom.InnerHTML(tx.e.root)
}

func (tx *EditTx) Selection() (blockID string, start, end int, ok bool) {
	return tx.e.selection()
}

// Snapshot отдает модель документа для отложенного сохранения истории.
// Если блок containerID к этому моменту удален из дерева, возвращается false.
func (e *Editor) Snapshot(containerID string) ([]any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if containerID != "" {
		if _, ok := e.registry.Resolve(containerID); !ok {
			return nil, false
		}
	}
	return e.save(), true
}

// RemoveBlock удаляет блок из дерева.
func (e *Editor) RemoveBlock(blockID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, ok := e.registry.Resolve(blockID)
	if !ok {
		return ErrBlockNotFound
	}
	if dom.Contains(n, e.commands.Container()) {
		e.tracker.Clear()
		e.commands.SetContainer(nil)
	}
	dom.Detach(n)
	e.registry.Remove(blockID)
	return nil
}
