package editor

import (
	"log/slog"
	"sync"

	"github.com/aisa-it/redactor/internal/redactor/dom"
	"github.com/gofrs/uuid"
	"golang.org/x/net/html"
)

// BlockConstructor строит элемент блока по узлу модели.
type BlockConstructor func(n Node) *html.Node

// Blocks - реестр конструкторов блоков верхнего уровня.
type Blocks struct {
	mu           sync.RWMutex
	constructors map[string]BlockConstructor

	// OnUnknownType вызывается для узлов, тип которых не зарегистрирован. Такие узлы не попадают в результат.
	OnUnknownType func(n Node)
}

// Типы блоков, которые по умолчанию строятся как обычные элементы.
var defaultBlockTypes = []string{
	"p", "h1", "h2", "h3", "h4", "h5", "h6",
	"ul", "ol", "blockquote", "pre", "table", "hr",
	"figure", "div",
}

func NewBlocks() *Blocks {
	b := &Blocks{constructors: make(map[string]BlockConstructor)}
	for _, t := range defaultBlockTypes {
		b.RegisterBlock(t, ElementBlock)
	}
	return b
}

// ElementBlock строит блок как элемент с типом узла в качестве тега.
func ElementBlock(n Node) *html.Node {
	return ParseChilds(n, true)[0]
}

func (b *Blocks) RegisterBlock(blockType string, constructor BlockConstructor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.constructors[blockType] = constructor
}

func (b *Blocks) constructor(blockType string) (BlockConstructor, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.constructors[blockType]
	return c, ok
}

// Types - зарегистрированные типы блоков.
func (b *Blocks) Types() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	res := make([]string, 0, len(b.constructors))
	for t := range b.constructors {
		res = append(res, t)
	}
	return res
}

// ParseBlocks строит блоки верхнего уровня по модели документа.
// Строки верхнего уровня становятся параграфами. Каждый блок получает id, если его нет.
// При createDefault и пустом результате создается один пустой параграф.
func (b *Blocks) ParseBlocks(nodes []any, createDefault bool) []*html.Node {
	var res []*html.Node
	for _, item := range nodes {
		var block *html.Node
		switch v := item.(type) {
		case string:
			if v == "" {
				continue
			}
			block = ParseChilds(Node{Type: "p", Data: v}, true)[0]
		case Node:
			constructor, ok := b.constructor(v.Type)
			if !ok {
				slog.Warn("Unknown block type dropped", "type", v.Type)
				if b.OnUnknownType != nil {
					b.OnUnknownType(v)
				}
				continue
			}
			block = constructor(v)
		}
		if block == nil {
			continue
		}
		if dom.GetAttr(block, "id") == "" {
			dom.SetAttr(block, "id", NewBlockID())
		}
		res = append(res, block)
	}

	if len(res) == 0 && createDefault {
		res = append(res, dom.NewElement("p", html.Attribute{Key: "id", Val: NewBlockID()}))
	}
	return res
}

func NewBlockID() string {
	return uuid.Must(uuid.NewV4()).String()
}
