package editor

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/aisa-it/redactor/internal/redactor/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestHTMLToData(t *testing.T) {
	tests := []struct {
		name string
		html string
		want []any
	}{
		{
			name: "plain text",
			html: "hello",
			want: []any{"hello"},
		},
		{
			name: "text with br",
			html: "hello<br>",
			want: []any{"hello<br>"},
		},
		{
			name: "bold word",
			html: "<b>hello</b> world",
			want: []any{Node{Type: "b", Data: "hello"}, " world"},
		},
		{
			name: "nested",
			html: "<b><i>x</i>y</b>",
			want: []any{Node{Type: "b", Data: []any{Node{Type: "i", Data: "x"}, "y"}}},
		},
		{
			name: "attributes",
			html: `<a href="https://example.com" target="_blank">link</a>`,
			want: []any{Node{Type: "a", Data: "link", Attr: map[string]string{"href": "https://example.com", "target": "_blank"}}},
		},
		{
			name: "empty nodes are dropped",
			html: "<p></p><p>  </p><p>x</p>",
			want: []any{Node{Type: "p", Data: "x"}},
		},
		{
			name: "void elements are kept",
			html: `<p>a<img src="/a.png">b</p>`,
			want: []any{Node{Type: "p", Data: []any{"a", Node{Type: "img", Data: "", Attr: map[string]string{"src": "/a.png"}}, "b"}}},
		},
		{
			name: "space between inline elements",
			html: "<b>a</b> <i>b</i>",
			want: []any{Node{Type: "b", Data: "a"}, " ", Node{Type: "i", Data: "b"}},
		},
		{
			name: "formatting whitespace between blocks",
			html: "<p>a</p>\n<p>b</p>",
			want: []any{Node{Type: "p", Data: "a"}, Node{Type: "p", Data: "b"}},
		},
		{
			name: "trivial element content",
			html: "<p>line<br></p><p>x</p>",
			want: []any{Node{Type: "p", Data: []any{"line<br/>"}}, Node{Type: "p", Data: "x"}},
		},
		{
			name: "text is escaped",
			html: "<p>a &lt; b</p>",
			want: []any{Node{Type: "p", Data: "a &lt; b"}},
		},
		{
			name: "empty",
			html: "",
			want: []any{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTMLToData(tt.html))
		})
	}
}

func TestParseChildsRoundTrip(t *testing.T) {
	samples := []string{
		"<b>hello</b>",
		"<b><i>bold italic</i></b>",
		`<a href="https://example.com" target="_blank">link</a>`,
		`<p>text <b>bold</b> and <a href="/x">link</a><br/>next</p>`,
		"<ul><li>one</li><li><b>two</b></li></ul>",
	}
	for _, sample := range samples {
		t.Run(sample, func(t *testing.T) {
			data := HTMLToData(sample)
			require.Len(t, data, 1)
			n, ok := data[0].(Node)
			require.True(t, ok)

			els := ParseChilds(n, true)
			require.Len(t, els, 1)
			assert.Equal(t, sample, dom.OuterHTML(els[0]))
		})
	}
}

func TestParseChildsWithoutElement(t *testing.T) {
	n := Node{Type: "p", Data: []any{"a", Node{Type: "b", Data: "b"}}}
	children := ParseChilds(n, false)
	require.Len(t, children, 2)
	assert.Equal(t, "a", children[0].Data)
	assert.Nil(t, children[0].Parent)
	assert.Equal(t, "<b>b</b>", dom.OuterHTML(children[1]))
}

func TestNodeJSON(t *testing.T) {
	data := HTMLToData(`<p>text <b>bold</b></p><p><a href="/x">link</a></p>`)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	assert.Equal(t, `[{"type":"p","data":["text ",{"type":"b","data":"bold"}]},{"type":"p","data":[{"type":"a","data":"link","attr":{"href":"/x"}}]}]`, string(b))

	decoded, err := DecodeNodes(b)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)

	_, err = DecodeNodes([]byte(`[1]`))
	assert.Error(t, err)
}

func TestRenderHTML(t *testing.T) {
	src := `<p>text <b>bold</b></p><ul><li>x</li></ul>`
	out, err := RenderHTML(HTMLToData(src))
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestParseDocument(t *testing.T) {
	doc := `<!DOCTYPE html><html><head><title>x</title></head><body><h1>Title</h1><p>Body <i>text</i></p></body></html>`
	data, err := ParseDocument(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []any{
		Node{Type: "h1", Data: "Title"},
		Node{Type: "p", Data: []any{"Body ", Node{Type: "i", Data: "text"}}},
	}, data)
}

func TestParseBlocks(t *testing.T) {
	var unknown []string
	blocks := NewBlocks()
	blocks.OnUnknownType = func(n Node) {
		unknown = append(unknown, n.Type)
	}

	els := blocks.ParseBlocks([]any{
		Node{Type: "p", Data: "one"},
		Node{Type: "gallery", Data: "lost"},
		"raw <b>text</b>",
		Node{Type: "h2", Data: "two", Attr: map[string]string{"id": "fixed"}},
	}, false)

	require.Len(t, els, 3)
	assert.Equal(t, []string{"gallery"}, unknown)
	assert.Equal(t, "p", els[0].Data)
	assert.NotEmpty(t, dom.GetAttr(els[0], "id"))
	assert.Equal(t, "raw <b>text</b>", dom.InnerHTML(els[1]))
	assert.Equal(t, "fixed", dom.GetAttr(els[2], "id"))
}

func TestParseBlocksCustomConstructor(t *testing.T) {
	blocks := NewBlocks()
	blocks.RegisterBlock("callout", func(n Node) *html.Node {
		el := dom.NewElement("div", html.Attribute{Key: "data-callout", Val: "true"})
		for _, c := range ParseChilds(n, false) {
			el.AppendChild(c)
		}
		return el
	})

	els := blocks.ParseBlocks([]any{Node{Type: "callout", Data: "note"}}, false)
	require.Len(t, els, 1)
	assert.Equal(t, "true", dom.GetAttr(els[0], "data-callout"))
	assert.Equal(t, "note", dom.InnerHTML(els[0]))
}

func TestParseBlocksDefault(t *testing.T) {
	blocks := NewBlocks()
	assert.Empty(t, blocks.ParseBlocks(nil, false))

	els := blocks.ParseBlocks(nil, true)
	require.Len(t, els, 1)
	assert.Equal(t, "p", els[0].Data)
	assert.Nil(t, els[0].FirstChild)
}

func TestTextOf(t *testing.T) {
	data := HTMLToData(`<p>a &amp; <b>b</b></p>`)
	assert.Equal(t, "a & b", TextOf(data))
}
