package export

import (
	"bytes"
	"errors"
	"testing"

	"github.com/aisa-it/redactor/internal/redactor/editor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDocument = `<h2>Head</h2>` +
	`<p><b>bold</b> and <a href="https://x">link</a></p>` +
	`<ul><li>one</li><li>two</li></ul>` +
	`<ol><li>first</li></ol>` +
	`<blockquote>quote</blockquote>` +
	`<pre data-language="go">fmt.Println()</pre>` +
	`<table><tr><th>A</th><th>B</th></tr><tr><td>1</td><td>2</td></tr></table>` +
	`<p><mark data-color="#ffee00">marked</mark> <u>under</u> <s>strike</s> <i>it</i></p>`

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"md", FormatMarkdown, false},
		{"markdown", FormatMarkdown, false},
		{"HTML", FormatHTML, false},
		{"pdf", FormatPDF, false},
		{"docx", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
	assert.Equal(t, "application/octet-stream", Format("x").ContentType())
}

func TestMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Markdown("Doc", editor.HTMLToData(testDocument), &buf))
	out := buf.String()

	assert.Contains(t, out, "# Doc")
	assert.Contains(t, out, "## Head")
	assert.Contains(t, out, "**bold** and [link](https://x)")
	assert.Contains(t, out, "- one")
	assert.Contains(t, out, "- two")
	assert.Contains(t, out, "1. first")
	assert.Contains(t, out, "> quote")
	assert.Contains(t, out, "```go")
	assert.Contains(t, out, "fmt.Println()")
	assert.Contains(t, out, "~~strike~~")
	assert.Contains(t, out, "<u>under</u>")
}

func TestMarkdownPlainStrings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Markdown("", []any{"first <b>line</b>", "second"}, &buf))
	out := buf.String()

	assert.NotContains(t, out, "#")
	assert.Contains(t, out, "first **line**")
	assert.Contains(t, out, "second")
}

func TestHTML(t *testing.T) {
	out, err := HTML([]any{editor.Node{Type: "p", Data: "a    b"}, editor.Node{Type: "p", Data: "c"}})
	require.NoError(t, err)
	assert.Equal(t, "<p>a b</p><p>c</p>", out)
}

func TestPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PDF("Документ", editor.HTMLToData(testDocument+"<p>Привет</p><hr>"), &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestExport(t *testing.T) {
	nodes := editor.HTMLToData(`<p>x</p>`)
	for _, f := range []Format{FormatMarkdown, FormatHTML, FormatPDF} {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Export(f, "T", nodes, &buf))
			assert.NotZero(t, buf.Len())
		})
	}

	err := Export("docx", "T", nodes, &bytes.Buffer{})
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestSetHexFillColor(t *testing.T) {
	tests := []string{"#ffee00", "#fe0", "ffee00", "bad", "#gggggg", ""}
	for _, hex := range tests {
		t.Run(hex, func(t *testing.T) {
			var buf bytes.Buffer
			nodes := []any{editor.Node{Type: "p", Data: []any{editor.Node{Type: "mark", Data: "x", Attr: map[string]string{"data-color": hex}}}}}
			require.NoError(t, PDF("", nodes, &buf))
		})
	}
}
