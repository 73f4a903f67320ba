package policy

import (
	"testing"

	"github.com/aisa-it/redactor/internal/redactor/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	cfg := Config{
		Elements:       []string{"a", "b", "p"},
		Attributes:     map[string][]string{"a": {"href"}, "*": {"id"}},
		Protocols:      map[string]map[string][]string{"a": {"href": {"http", "https"}}},
		RemoveContents: []string{"script"},
	}
	s := New(cfg)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"javascript href", `<a href="javascript:alert(1)">x</a>`, `<a>x</a>`},
		{"obfuscated scheme", `<a href="java	script:alert(1)">x</a>`, `<a>x</a>`},
		{"allowed scheme", `<a href="https://example.com">x</a>`, `<a href="https://example.com">x</a>`},
		{"relative link", `<a href="/docs#a:b">x</a>`, `<a href="/docs#a:b">x</a>`},
		{"unknown tag unwrapped", `<p><span>a<b>b</b></span></p>`, `<p>a<b>b</b></p>`},
		{"attributes filtered", `<p id="x" class="y" onclick="z()">t</p>`, `<p id="x">t</p>`},
		{"removed with content", `a<script>alert(1)</script>b`, `ab`},
		{"comments dropped", `a<!-- c -->b`, `ab`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Sanitize(tt.in))
		})
	}
}

func TestSanitizeComments(t *testing.T) {
	s := New(Config{Elements: []string{"b"}, AllowComments: true})
	assert.Equal(t, `a<!-- c --><b>b</b>`, s.Sanitize(`a<!-- c --><b>b</b>`))
}

func TestAddAttributesOrder(t *testing.T) {
	s := New(Config{
		Elements:   []string{"b"},
		Attributes: map[string][]string{"b": {"title"}},
		AddAttributes: map[string]map[string]string{
			"b": {"title": "t", "data-z": "1", "data-m": "3", "data-a": "2"},
		},
	})
	for i := 0; i < 50; i++ {
		assert.Equal(t, `<b title="t" data-a="2" data-m="3" data-z="1">x</b>`, s.Sanitize(`<b title="old">x</b>`))
	}
}

func TestRemoveAllContents(t *testing.T) {
	s := New(Config{Elements: []string{"b"}, RemoveAllContents: true})
	assert.Equal(t, `<b>x</b>`, s.Sanitize(`<b>x</b><i>y</i>`))
}

func TestCleanKeepsSource(t *testing.T) {
	src, err := dom.ParseFragment(`<i>a</i><b>b</b>`)
	require.NoError(t, err)

	out := New(Config{Elements: []string{"b"}}).Clean(src)
	assert.Equal(t, `a<b>b</b>`, dom.InnerHTML(out))
	assert.Equal(t, `<i>a</i><b>b</b>`, dom.InnerHTML(src))
}

func TestTransformer(t *testing.T) {
	allowMention := func(in TransformInput) *TransformOutput {
		if in.Name == "span" && dom.GetAttr(in.Node, "data-type") == "mention" {
			return &TransformOutput{Whitelist: true, AttrWhitelist: []string{"data-type", "data-id"}}
		}
		return nil
	}
	dropIframes := func(in TransformInput) *TransformOutput {
		if in.Name == "iframe" {
			return &TransformOutput{Drop: true}
		}
		return nil
	}
	replaceFont := func(in TransformInput) *TransformOutput {
		if in.Name == "font" {
			el := dom.NewElement("b")
			dom.MoveChildren(el, dom.Clone(in.Node, true))
			return &TransformOutput{Node: el}
		}
		return nil
	}

	s := New(BasicConfig(), allowMention, dropIframes, replaceFont)
	got := s.Sanitize(`<span data-type="mention" data-id="7" style="x">@user</span><span>plain</span><iframe>bad</iframe><font>big</font>`)
	assert.Equal(t, `<span data-type="mention" data-id="7">@user</span>plain<b>big</b>`, got)
}

func TestBasicConfigLinks(t *testing.T) {
	s := New(BasicConfig())
	assert.Equal(t,
		`<a href="https://example.com" rel="noopener noreferrer">x</a>`,
		s.Sanitize(`<a href="https://example.com" onclick="x()">x</a>`))
	assert.Equal(t, `<a rel="noopener noreferrer">x</a>`, s.Sanitize(`<a href="data:text/html,x">x</a>`))
}

func TestRelaxedConfig(t *testing.T) {
	s := New(RelaxedConfig())
	in := `<p id="b1">text <img src="javascript:x" alt="a"></p><table><tbody><tr><td colspan="2">c</td></tr></tbody></table>`
	want := `<p id="b1">text <img alt="a"/></p><table><tbody><tr><td colspan="2">c</td></tr></tbody></table>`
	assert.Equal(t, want, s.Sanitize(in))
}

func TestURLScheme(t *testing.T) {
	tests := []struct {
		in     string
		scheme string
		ok     bool
	}{
		{"https://a", "https", true},
		{"JavaScript:x", "javascript", true},
		{" \tjavascript:x", "javascript", true},
		{"/path:x", "", false},
		{"?q=a:b", "", false},
		{"relative", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			scheme, ok := urlScheme(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.scheme, scheme)
		})
	}
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "bold text", StripTags("<b>bold</b> <i>text</i>"))
}

func TestUgcPolicyKeepsEditorMarkup(t *testing.T) {
	got := UgcPolicy.Sanitize(`<p id="block-1"><mark data-color="red">x</mark><u>y</u><script>z</script></p>`)
	assert.Equal(t, `<p id="block-1"><mark data-color="red">x</mark><u>y</u></p>`, got)
}
