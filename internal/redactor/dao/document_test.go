package dao

import (
	"fmt"
	"testing"

	"github.com/aisa-it/redactor/internal/redactor/editor"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func newDoc(t *testing.T, db *gorm.DB, title, markup string) *Document {
	t.Helper()
	doc := &Document{Title: title}
	require.NoError(t, CreateDocument(db, doc, editor.HTMLToData(markup)))
	return doc
}

func TestCreateAndGetDocument(t *testing.T) {
	db := openTestDB(t)
	doc := newDoc(t, db, "Greeting", `<p>Hello <b>world</b></p>`)

	got, err := GetDocument(db, doc.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Greeting", got.Title)
	assert.Equal(t, 1, got.Revision)
	assert.Equal(t, `<p>Hello <b>world</b></p>`, got.HTML.String())
	assert.Equal(t, "Hello world", got.PlainText)

	nodes, err := got.Nodes()
	require.NoError(t, err)
	assert.Equal(t, editor.HTMLToData(`<p>Hello <b>world</b></p>`), nodes)

	_, err = GetDocument(db, "not-a-uuid")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	_, err = GetDocument(db, GenUUID().String())
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestRevisions(t *testing.T) {
	db := openTestDB(t)
	doc := newDoc(t, db, "Doc", `<p>one</p>`)

	saved, err := SaveRevision(db, doc.ID, editor.HTMLToData(`<p>two</p>`))
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Revision)

	saved, err = SaveRevision(db, doc.ID, editor.HTMLToData(`<p>two</p>`))
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Revision, "unchanged content must not create a revision")

	undone, err := MoveRevision(db, doc.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, undone.Revision)
	assert.Equal(t, `<p>one</p>`, undone.HTML.String())

	_, err = MoveRevision(db, doc.ID, -1)
	assert.ErrorIs(t, err, ErrNoRevision)

	redone, err := MoveRevision(db, doc.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, `<p>two</p>`, redone.HTML.String())

	_, err = MoveRevision(db, doc.ID, -1)
	require.NoError(t, err)

	saved, err = SaveRevision(db, doc.ID, editor.HTMLToData(`<p>three</p>`))
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Revision)

	_, err = MoveRevision(db, doc.ID, 1)
	assert.ErrorIs(t, err, ErrNoRevision, "redo branch is dropped after a new edit")

	revs, err := GetRevisions(db, doc.ID)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, 1, revs[0].Seq)
	assert.JSONEq(t, `[{"type":"p","data":"three"}]`, string(revs[1].Content))

	_, err = SaveRevision(db, GenUUID(), nil)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestPruneRevisions(t *testing.T) {
	db := openTestDB(t)
	doc := newDoc(t, db, "Doc", `<p>v1</p>`)
	other := newDoc(t, db, "Other", `<p>o1</p>`)
	for i := 2; i <= 6; i++ {
		_, err := SaveRevision(db, doc.ID, editor.HTMLToData(fmt.Sprintf(`<p>v%d</p>`, i)))
		require.NoError(t, err)
	}

	deleted, err := PruneRevisions(db, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)

	revs, err := GetRevisions(db, doc.ID)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, 5, revs[0].Seq)
	assert.Equal(t, 6, revs[1].Seq)

	revs, err = GetRevisions(db, other.ID)
	require.NoError(t, err)
	assert.Len(t, revs, 1)

	_, err = MoveRevision(db, doc.ID, -1)
	require.NoError(t, err)
	deleted, err = PruneRevisions(db, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted, "current revision is kept")
}

func TestListDocuments(t *testing.T) {
	db := openTestDB(t)
	newDoc(t, db, "Alpha", `<p>first</p>`)
	newDoc(t, db, "Beta", `<p>has a <b>needle</b> inside</p>`)
	newDoc(t, db, "Gamma", `<p>third</p>`)

	tests := []struct {
		name   string
		search string
		count  int64
		titles []string
	}{
		{"all", "", 3, nil},
		{"by text", "NEEDLE", 1, []string{"Beta"}},
		{"by title", "gam", 1, []string{"Gamma"}},
		{"nothing", "missing", 0, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := ListDocuments(db, tt.search, 0, 10)
			require.NoError(t, err)
			assert.Equal(t, tt.count, page.Count)
			docs, ok := page.Result.([]Document)
			require.True(t, ok)
			assert.Len(t, docs, int(tt.count))
			if tt.titles != nil {
				titles := make([]string, 0)
				for _, d := range docs {
					titles = append(titles, d.Title)
				}
				assert.Equal(t, tt.titles, titles)
			}
		})
	}

	page, err := ListDocuments(db, "", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Count)
	assert.Len(t, page.Result.([]Document), 2)
}

func TestRenameAndDeleteDocument(t *testing.T) {
	db := openTestDB(t)
	doc := newDoc(t, db, "Old", `<p>x</p>`)

	require.NoError(t, RenameDocument(db, doc.ID, "New"))
	got, err := GetDocument(db, doc.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.ErrorIs(t, RenameDocument(db, GenUUID(), "x"), ErrDocumentNotFound)

	require.NoError(t, DeleteDocument(db, doc.ID))
	_, err = GetDocument(db, doc.ID.String())
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	revs, err := GetRevisions(db, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, revs)
	assert.ErrorIs(t, DeleteDocument(db, doc.ID), ErrDocumentNotFound)
}

func TestRedactorHTML(t *testing.T) {
	r := RedactorHTML{Body: `<p>a<script>x</script></p>`}
	v, err := r.Value()
	require.NoError(t, err)
	assert.Equal(t, `<p>a</p>`, v)

	var decoded RedactorHTML
	require.NoError(t, decoded.UnmarshalJSON([]byte(`"<b>b\u200B</b><i onclick=\"x()\">i</i>"`)))
	assert.True(t, decoded.AlreadySanitized)
	assert.Equal(t, `<b>b</b><i>i</i>`, decoded.Body)
	assert.Equal(t, "bi", decoded.StripTags())

	b, err := decoded.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"<b>b</b><i>i</i>"`, string(b))

	require.NoError(t, decoded.Scan([]byte("<i>c</i>")))
	assert.Equal(t, "c", decoded.StripTags())
}
