// Пакет history сохраняет ревизии документа с задержкой: серия быстрых правок
// превращается в одну ревизию.
//
// Таймер хранит только id документа и id контейнера. Когда таймер срабатывает,
// содержимое запрашивается у источника заново; если контейнер к этому моменту
// исчез из дерева, сохранение пропускается.
package history

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aisa-it/redactor/internal/redactor/dao"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// Source отдает снимок модели документа по id контейнера. false - контейнер больше не существует.
type Source interface {
	Snapshot(containerID string) ([]any, bool)
}

type pending struct {
	timer       *time.Timer
	gen         uint64
	src         Source
	containerID string
}

type Recorder struct {
	db    *gorm.DB
	delay time.Duration

	mu      sync.Mutex
	gen     uint64
	pending map[uuid.UUID]*pending
	closed  bool

	// OnSaved вызывается после записи новой ревизии или перехода по истории.
	OnSaved func(doc *dao.Document)
}

func NewRecorder(db *gorm.DB, delay time.Duration) *Recorder {
	return &Recorder{
		db:      db,
		delay:   delay,
		pending: make(map[uuid.UUID]*pending),
	}
}

// Touch откладывает сохранение документа. Повторный вызов до срабатывания таймера перезапускает его.
func (r *Recorder) Touch(docID uuid.UUID, src Source, containerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	if p, ok := r.pending[docID]; ok {
		p.timer.Stop()
	}
	r.gen++
	gen := r.gen
	r.pending[docID] = &pending{
		gen:         gen,
		src:         src,
		containerID: containerID,
		timer: time.AfterFunc(r.delay, func() {
			if _, err := r.fire(docID, gen); err != nil {
				slog.Error("Save document revision", "doc", docID, "err", err)
			}
		}),
	}
}

// take забирает отложенное сохранение. gen 0 - любое.
func (r *Recorder) take(docID uuid.UUID, gen uint64) (*pending, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[docID]
	if !ok || (gen != 0 && p.gen != gen) {
		return nil, false
	}
	delete(r.pending, docID)
	p.timer.Stop()
	return p, true
}

func (r *Recorder) fire(docID uuid.UUID, gen uint64) (*dao.Document, error) {
	p, ok := r.take(docID, gen)
	if !ok {
		return nil, nil
	}

	nodes, ok := p.src.Snapshot(p.containerID)
	if !ok {
		slog.Debug("Skip revision of detached container", "doc", docID, "container", p.containerID)
		return nil, nil
	}

	doc, err := dao.SaveRevision(r.db, docID, nodes)
	if err != nil {
		return nil, err
	}
	slog.Debug("Document revision saved", "doc", docID, "revision", doc.Revision)
	r.saved(doc)
	return doc, nil
}

func (r *Recorder) saved(doc *dao.Document) {
	if r.OnSaved != nil {
		r.OnSaved(doc)
	}
}

// Flush сразу сохраняет отложенную ревизию документа. Без отложенной ревизии возвращает nil, nil.
func (r *Recorder) Flush(docID uuid.UUID) (*dao.Document, error) {
	return r.fire(docID, 0)
}

// Cancel отменяет отложенное сохранение без записи.
func (r *Recorder) Cancel(docID uuid.UUID) {
	r.take(docID, 0)
}

func (r *Recorder) Pending(docID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[docID]
	return ok
}

// Undo сохраняет отложенные правки и откатывает документ на предыдущую ревизию.
func (r *Recorder) Undo(docID uuid.UUID) (*dao.Document, error) {
	return r.move(docID, -1)
}

func (r *Recorder) Redo(docID uuid.UUID) (*dao.Document, error) {
	return r.move(docID, 1)
}

func (r *Recorder) move(docID uuid.UUID, delta int) (*dao.Document, error) {
	if _, err := r.Flush(docID); err != nil {
		return nil, err
	}
	doc, err := dao.MoveRevision(r.db, docID, delta)
	if err != nil {
		return nil, err
	}
	r.saved(doc)
	return doc, nil
}

// Close сохраняет все отложенные ревизии и перестает принимать новые.
func (r *Recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	ids := make([]uuid.UUID, 0, len(r.pending))
	for id := range r.pending {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if _, err := r.Flush(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
