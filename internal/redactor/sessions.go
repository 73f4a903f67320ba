package redactor

import (
	"sync"

	"github.com/aisa-it/redactor/internal/redactor/dao"
	"github.com/gofrs/uuid"
)

// Sessions хранит открытые редакторы документов. Отложенные ревизии читают содержимое из них.
type Sessions struct {
	mu        sync.Mutex
	editors   map[uuid.UUID]*Editor
	newEditor func() *Editor
}

func NewSessions(newEditor func() *Editor) *Sessions {
	return &Sessions{
		editors:   make(map[uuid.UUID]*Editor),
		newEditor: newEditor,
	}
}

// Get возвращает редактор документа, при первом обращении загружая в него текущее содержимое.
// Создание и загрузка идут под блокировкой: параллельные первые обращения получают один редактор.
func (s *Sessions) Get(doc *dao.Document) (*Editor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ed, ok := s.editors[doc.ID]; ok {
		return ed, nil
	}
	nodes, err := doc.Nodes()
	if err != nil {
		return nil, err
	}
	ed := s.newEditor()
	ed.Load(nodes)
	s.editors[doc.ID] = ed
	return ed, nil
}

// Reload загружает в редактор документа содержимое doc.
func (s *Sessions) Reload(doc *dao.Document) (*Editor, error) {
	nodes, err := doc.Nodes()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ed, ok := s.editors[doc.ID]
	if !ok {
		ed = s.newEditor()
		s.editors[doc.ID] = ed
	}
	ed.Load(nodes)
	return ed, nil
}

func (s *Sessions) Drop(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.editors, id)
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.editors)
}
