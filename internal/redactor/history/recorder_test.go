package history

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aisa-it/redactor/internal/redactor/dao"
	"github.com/aisa-it/redactor/internal/redactor/editor"
	"github.com/glebarez/sqlite"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeSource struct {
	mu     sync.Mutex
	markup map[string]string
	calls  int
}

func newSource(id, markup string) *fakeSource {
	return &fakeSource{markup: map[string]string{id: markup}}
}

func (s *fakeSource) set(id, markup string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markup[id] = markup
}

func (s *fakeSource) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markup, id)
}

func (s *fakeSource) Snapshot(id string) ([]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	markup, ok := s.markup[id]
	if !ok {
		return nil, false
	}
	return editor.HTMLToData(markup), true
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func setup(t *testing.T) (*gorm.DB, uuid.UUID) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, dao.Migrate(db))

	doc := &dao.Document{Title: "Doc"}
	require.NoError(t, dao.CreateDocument(db, doc, editor.HTMLToData(`<p>v1</p>`)))
	return db, doc.ID
}

func revisionCount(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	revs, err := dao.GetRevisions(db, id)
	if err != nil {
		t.Errorf("get revisions: %v", err)
		return -1
	}
	return len(revs)
}

func TestDebounce(t *testing.T) {
	db, id := setup(t)
	rec := NewRecorder(db, 30*time.Millisecond)
	src := newSource("root", `<p>v1</p>`)

	for i := 2; i <= 4; i++ {
		src.set("root", fmt.Sprintf(`<p>v%d</p>`, i))
		rec.Touch(id, src, "root")
	}

	require.Eventually(t, func() bool {
		return revisionCount(t, db, id) == 2
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 2, revisionCount(t, db, id))
	assert.Equal(t, 1, src.callCount())

	doc, err := dao.GetDocument(db, id.String())
	require.NoError(t, err)
	assert.Equal(t, `<p>v4</p>`, doc.HTML.String())
}

func TestDetachedContainerIsSkipped(t *testing.T) {
	db, id := setup(t)
	rec := NewRecorder(db, time.Hour)
	src := newSource("root", `<p>v2</p>`)

	rec.Touch(id, src, "root")
	src.remove("root")

	doc, err := rec.Flush(id)
	require.NoError(t, err)
	assert.Nil(t, doc)
	assert.False(t, rec.Pending(id))
	assert.Equal(t, 1, revisionCount(t, db, id))
}

func TestUndoRedo(t *testing.T) {
	db, id := setup(t)
	rec := NewRecorder(db, time.Hour)
	var saved []int
	rec.OnSaved = func(doc *dao.Document) {
		saved = append(saved, doc.Revision)
	}
	src := newSource("root", `<p>v2</p>`)

	rec.Touch(id, src, "root")
	assert.True(t, rec.Pending(id))

	doc, err := rec.Flush(id)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, 2, doc.Revision)

	doc, err = rec.Undo(id)
	require.NoError(t, err)
	assert.Equal(t, `<p>v1</p>`, doc.HTML.String())

	_, err = rec.Undo(id)
	assert.ErrorIs(t, err, dao.ErrNoRevision)

	doc, err = rec.Redo(id)
	require.NoError(t, err)
	assert.Equal(t, `<p>v2</p>`, doc.HTML.String())

	assert.Equal(t, []int{2, 1, 2}, saved)
}

func TestUndoFlushesPendingEdit(t *testing.T) {
	db, id := setup(t)
	rec := NewRecorder(db, time.Hour)
	src := newSource("root", `<p>v2</p>`)

	rec.Touch(id, src, "root")
	doc, err := rec.Undo(id)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Revision)
	assert.Equal(t, 2, revisionCount(t, db, id))
	assert.False(t, rec.Pending(id))
}

func TestCancelAndClose(t *testing.T) {
	db, id := setup(t)
	rec := NewRecorder(db, time.Hour)
	src := newSource("root", `<p>v2</p>`)

	rec.Touch(id, src, "root")
	rec.Cancel(id)
	assert.False(t, rec.Pending(id))

	rec.Touch(id, src, "root")
	require.NoError(t, rec.Close())
	assert.Equal(t, 2, revisionCount(t, db, id))

	rec.Touch(id, src, "root")
	assert.False(t, rec.Pending(id))
}
