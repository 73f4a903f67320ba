package commands

import (
	"testing"

	"github.com/aisa-it/redactor/internal/redactor/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parseContainer(t *testing.T, markup string) *html.Node {
	t.Helper()
	div := dom.NewElement("div")
	require.NoError(t, dom.SetInnerHTML(div, markup))
	return div
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{"already normal", "<b>hello</b> world", "<b>hello</b> world"},
		{"empty tags", "a<b></b><i><u></u></i>b", "ab"},
		{"br is kept", "a<br/>b<b><br/></b>", "a<br/>b<b><br/></b>"},
		{"empty paragraph is kept", "<p></p>", "<p></p>"},
		{"nested similar", "<b>a<b>b<i><b>c</b></i></b></b>", "<b>ab<i>c</i></b>"},
		{"adjacent tags", "<b>a</b><b>b</b>", "<b>ab</b>"},
		{"whitespace gap", "<b>a</b> <b>b</b>", "<b>a b</b>"},
		{"text gap is kept", "<b>a</b>x<b>b</b>", "<b>a</b>x<b>b</b>"},
		{"different attributes", `<a href="/1">a</a><a href="/2">b</a>`, `<a href="/1">a</a><a href="/2">b</a>`},
		{"equal attributes", `<a href="/1">a</a><a href="/1">b</a>`, `<a href="/1">ab</a>`},
		{"merge inside merged", "<b><i>a</i></b><b><i>b</i></b>", "<b><i>ab</i></b>"},
		{"paragraphs are not merged", "<p>a</p><p>b</p>", "<p>a</p><p>b</p>"},
		{"styled spans keep nesting", `<span style="color:red">a<span style="color:blue">b</span></span>`, `<span style="color:red">a<span style="color:blue">b</span></span>`},
		{"plain span is flattened", `<span class="x">a<span>b</span></span>`, `<span class="x">ab</span>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			div := parseContainer(t, tt.markup)
			Normalize(div)
			assert.Equal(t, tt.want, dom.InnerHTML(div))

			Normalize(div)
			assert.Equal(t, tt.want, dom.InnerHTML(div), "second pass must not change anything")
		})
	}
}

func TestNormalizeTextNodes(t *testing.T) {
	div := dom.NewElement("div")
	div.AppendChild(dom.NewText("a"))
	div.AppendChild(dom.NewText(""))
	div.AppendChild(dom.NewText("b"))
	b := dom.NewElement("b")
	b.AppendChild(dom.NewText("c"))
	b.AppendChild(dom.NewText("d"))
	div.AppendChild(b)

	Normalize(div)
	require.Len(t, dom.Children(div), 2)
	assert.Equal(t, "ab", div.FirstChild.Data)
	assert.Len(t, dom.Children(b), 1)
}

func TestRemoveEmptyTagsByName(t *testing.T) {
	div := parseContainer(t, "<p></p><b></b><i></i>")
	RemoveEmptyTags(div, "p")
	assert.Equal(t, "<b></b><i></i>", dom.InnerHTML(div))
}

func TestSplitElement(t *testing.T) {
	el := parseContainer(t, "<b>foo bar</b>").FirstChild
	before, middle, after := SplitElement(el, 0, dom.TextLen(el))
	assert.Equal(t, "<b></b>", dom.OuterHTML(before))
	assert.Equal(t, "foo bar", dom.OuterHTML(middle))
	assert.Equal(t, "<b></b>", dom.OuterHTML(after))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  bool
	}{
		{"b", Bold, false},
		{"bold", Bold, false},
		{"STRONG", Bold, false},
		{"a", Link, false},
		{"link", Link, false},
		{"em", Italic, false},
		{"code", Code, false},
		{"blink", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			f, err := ParseFormat(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, f)
		})
	}
}
