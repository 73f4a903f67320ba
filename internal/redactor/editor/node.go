// Пакет editor преобразует живое дерево редактора в сериализуемую модель документа и обратно.
//
// Модель документа - упорядоченный массив, элементы которого либо строки с разметкой,
// либо узлы Node{type, data, attr}. Поле data узла - строка с разметкой или такой же массив.
//
// Основные возможности:
//   - Разбор HTML в модель документа (HTMLToData, ParseDocument).
//   - Построение элементов из узлов модели (ParseChilds).
//   - Сборка блоков верхнего уровня через реестр конструкторов (Blocks).
//   - Рендеринг модели обратно в HTML (RenderHTML).
package editor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aisa-it/redactor/internal/redactor/dom"
)

// Node - сериализуемый узел документа.
// Data содержит string (разметку) или []any из string и Node.
type Node struct {
	Type string            `json:"type"`
	Data any               `json:"data"`
	Attr map[string]string `json:"attr,omitempty"`
}

// Children возвращает содержимое узла как массив. Строковые данные возвращаются одним элементом.
func (n Node) Children() []any {
	switch data := n.Data.(type) {
	case []any:
		return data
	case string:
		if data == "" {
			return nil
		}
		return []any{data}
	}
	return nil
}

// IsEmpty - у узла нет данных: пустая или пробельная строка, пустой массив или массив из одной пробельной строки.
func (n Node) IsEmpty() bool {
	switch data := n.Data.(type) {
	case nil:
		return true
	case string:
		return dom.IsBlank(data)
	case []any:
		if len(data) == 0 {
			return true
		}
		if len(data) == 1 {
			if s, ok := data[0].(string); ok {
				return dom.IsBlank(s)
			}
		}
	}
	return false
}

func (n *Node) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type string            `json:"type"`
		Data json.RawMessage   `json:"data"`
		Attr map[string]string `json:"attr"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	data, err := decodeData(raw.Data)
	if err != nil {
		return fmt.Errorf("node %q: %w", raw.Type, err)
	}
	n.Type = raw.Type
	n.Data = data
	n.Attr = raw.Attr
	return nil
}

func decodeData(raw json.RawMessage) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	switch raw[0] {
	case '"':
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	case '[':
		return DecodeNodes(raw)
	}
	return nil, fmt.Errorf("unexpected data %s", string(raw))
}

// DecodeNodes разбирает JSON массив модели документа.
func DecodeNodes(b []byte) ([]any, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, err
	}
	res := make([]any, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 {
			continue
		}
		switch item[0] {
		case '"':
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return nil, err
			}
			res = append(res, s)
		case '{':
			var n Node
			if err := json.Unmarshal(item, &n); err != nil {
				return nil, err
			}
			res = append(res, n)
		default:
			return nil, fmt.Errorf("unexpected document item %s", string(item))
		}
	}
	return res, nil
}

// TextOf возвращает видимый текст элемента модели: строки с разметкой, узла или массива.
func TextOf(item any) string {
	switch v := item.(type) {
	case string:
		fragment, err := dom.ParseFragment(v)
		if err != nil {
			return v
		}
		return dom.TextContent(fragment)
	case Node:
		return TextOf(v.Data)
	case *Node:
		return TextOf(v.Data)
	case []any:
		var b strings.Builder
		for _, child := range v {
			b.WriteString(TextOf(child))
		}
		return b.String()
	}
	return ""
}
