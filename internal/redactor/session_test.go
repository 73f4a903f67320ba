package redactor

import (
	"runtime"
	"sync"
	"testing"

	"github.com/aisa-it/redactor/internal/redactor/commands"
	"github.com/aisa-it/redactor/internal/redactor/editor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestEditorFormat(t *testing.T) {
	ed := NewEditor(nil)
	require.NoError(t, ed.LoadHTML("hello world"))
	require.NoError(t, ed.Select("", 0, 5))

	dir, err := ed.Format(commands.Bold)
	require.NoError(t, err)
	assert.Equal(t, commands.None, dir)
	assert.Equal(t, "<b>hello</b> world", ed.HTML())

	id, start, end, ok := ed.Selection()
	require.True(t, ok)
	assert.Equal(t, "", id)
	assert.Equal(t, 0, start)
	assert.Equal(t, 5, end)
	assert.Equal(t, commands.Full, ed.Direction(commands.Bold))

	dir, err = ed.Format(commands.Bold)
	require.NoError(t, err)
	assert.Equal(t, commands.Full, dir)
	assert.Equal(t, "hello world", ed.HTML())
}

func TestEditorFormatWithoutSelection(t *testing.T) {
	ed := NewEditor(nil)
	require.NoError(t, ed.LoadHTML("hello"))

	_, err := ed.Format(commands.Bold)
	assert.ErrorIs(t, err, commands.ErrNoSelection)
	assert.ErrorIs(t, ed.ClearFormatting(), commands.ErrNoSelection)

	require.NoError(t, ed.Select("", 2, 2))
	_, err = ed.Format(commands.Bold)
	assert.ErrorIs(t, err, commands.ErrEmptySelection)
	assert.Equal(t, "hello", ed.HTML())
}

func TestEditorLink(t *testing.T) {
	ed := NewEditor(nil)
	require.NoError(t, ed.LoadHTML("see docs here"))
	require.NoError(t, ed.Select("", 4, 8))

	_, err := ed.Format(commands.Link, html.Attribute{Key: "href", Val: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, `see <a href="https://example.com">docs</a> here`, ed.HTML())
}

func TestEditorBlocks(t *testing.T) {
	ed := NewEditor(nil)
	ed.Load(editor.HTMLToData(`<p id="a">first line</p><p id="b">second</p>`))

	require.NoError(t, ed.Select("b", 0, 6))
	_, err := ed.Format(commands.Italic)
	require.NoError(t, err)
	assert.Equal(t, `<p id="a">first line</p><p id="b"><i>second</i></p>`, ed.HTML())

	id, start, end, ok := ed.Selection()
	require.True(t, ok)
	assert.Equal(t, "b", id)
	assert.Equal(t, 0, start)
	assert.Equal(t, 6, end)

	assert.ErrorIs(t, ed.Select("missing", 0, 1), ErrBlockNotFound)
	assert.ErrorIs(t, ed.Select("a", 0, 100), commands.ErrInvalidRange)
	assert.ErrorIs(t, ed.Select("a", 3, 1), commands.ErrInvalidRange)

	assert.Equal(t, []any{
		editor.Node{Type: "p", Data: "first line", Attr: map[string]string{"id": "a"}},
		editor.Node{Type: "p", Data: []any{editor.Node{Type: "i", Data: "second"}}, Attr: map[string]string{"id": "b"}},
	}, ed.Save())
}

func TestEditorLoadAssignsBlockIDs(t *testing.T) {
	ed := NewEditor(nil)
	ed.Load([]any{"plain", editor.Node{Type: "h2", Data: "head"}})

	nodes := ed.Save()
	require.Len(t, nodes, 2)
	for _, item := range nodes {
		n, ok := item.(editor.Node)
		require.True(t, ok)
		assert.NotEmpty(t, n.Attr["id"])
	}
	assert.Equal(t, "p", nodes[0].(editor.Node).Type)
}

func TestEditorSplitAtCursor(t *testing.T) {
	ed := NewEditor(nil)
	ed.Load(editor.HTMLToData(`<h1 id="h">Title text</h1>`))
	require.NoError(t, ed.Select("h", 5, 5))

	id, err := ed.SplitAtCursor()
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, `<h1 id="h">Title</h1><p id="`+id+`"> text</p>`, ed.HTML())

	blockID, start, end, ok := ed.Selection()
	require.True(t, ok)
	assert.Equal(t, id, blockID)
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)

	_, ok = ed.Snapshot(id)
	assert.True(t, ok)
	require.NoError(t, ed.RemoveBlock(id))
	_, ok = ed.Snapshot(id)
	assert.False(t, ok)
	_, ok = ed.Snapshot("")
	assert.True(t, ok)
	_, _, _, ok = ed.Selection()
	assert.False(t, ok)
}

func TestEditorSplitWholeContent(t *testing.T) {
	ed := NewEditor(nil)
	require.NoError(t, ed.LoadHTML("<b>hello</b> world"))
	require.NoError(t, ed.Select("", 3, 3))

	_, err := ed.SplitAtCursor()
	assert.ErrorIs(t, err, commands.ErrInvalidRange)

	tail, err := ed.SplitContent()
	require.NoError(t, err)
	assert.Equal(t, "<b>lo</b> world", tail)
	assert.Equal(t, "<b>hel</b>", ed.HTML())
}

func TestEditorPaste(t *testing.T) {
	ed := NewEditor(nil)
	require.NoError(t, ed.LoadHTML("hello world"))

	assert.ErrorIs(t, ed.Paste("x"), commands.ErrNoSelection)

	require.NoError(t, ed.Select("", 6, 11))
	require.NoError(t, ed.Paste(`<b>there</b><script>alert(1)</script>`))
	assert.Equal(t, "hello <b>there</b>", ed.HTML())

	_, start, end, ok := ed.Selection()
	require.True(t, ok)
	assert.Equal(t, 11, start)
	assert.Equal(t, 11, end)
}

func TestEditorClearFormatting(t *testing.T) {
	ed := NewEditor(nil)
	require.NoError(t, ed.LoadHTML("<b>bo<i>ld</i></b> <u>under</u>"))
	require.NoError(t, ed.Select("", 0, 10))

	require.NoError(t, ed.ClearFormatting())
	assert.Equal(t, "bold under", ed.HTML())
}

func TestEditorEditKeepsSelectionWithAction(t *testing.T) {
	ed := NewEditor(nil)
	for i := 0; i < 200; i++ {
		ed.Load(editor.HTMLToData(`<p id="a">hello world</p>`))

		var wg sync.WaitGroup
		edit := func(start, end int, f commands.Format) {
			defer wg.Done()
			err := ed.Edit("a", start, end, func(tx *EditTx) error {
				runtime.Gosched()
				_, err := tx.Format(f)
				return err
			})
			assert.NoError(t, err)
		}
		wg.Add(2)
		go edit(0, 5, commands.Bold)
		go edit(6, 11, commands.Italic)
		wg.Wait()

		require.Equal(t, `<p id="a"><b>hello</b> <i>world</i></p>`, ed.HTML(), "iteration %d", i)
	}
}

func TestEditorEditErrors(t *testing.T) {
	ed := NewEditor(nil)
	ed.Load(editor.HTMLToData(`<p id="a">hello</p>`))

	called := false
	err := ed.Edit("missing", 0, 1, func(tx *EditTx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrBlockNotFound)
	assert.ErrorIs(t, ed.Edit("a", 0, 10, func(tx *EditTx) error { return nil }), commands.ErrInvalidRange)
	assert.False(t, called)

	var html string
	var start, end int
	require.NoError(t, ed.Edit("a", 1, 3, func(tx *EditTx) error {
		if _, err := tx.Format(commands.Underline); err != nil {
			return err
		}
		html = tx.HTML()
		_, start, end, _ = tx.Selection()
		return nil
	}))
	assert.Equal(t, `<p id="a">h<u>el</u>lo</p>`, html)
	assert.Equal(t, 1, start)
	assert.Equal(t, 3, end)
}
