// Пакет для экспорта документа редактора в Markdown, сжатый HTML и PDF.
//
// Основные возможности:
//   - Markdown: заголовки, абзацы, списки, цитаты, код, таблицы и строчное форматирование.
//   - HTML: рендеринг модели документа и минификация.
//   - PDF: текст с учетом жирного, курсива, подчеркивания, зачеркивания, ссылок и выделения цветом.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aisa-it/redactor/internal/redactor/dom"
	"github.com/aisa-it/redactor/internal/redactor/editor"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
	xhtml "golang.org/x/net/html"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
)

func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatMarkdown, FormatHTML, FormatPDF:
		return f, nil
	case "markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
}

var minifier *minify.M = minify.New()

func init() {
	minifier.Add("text/html", &html.Minifier{KeepEndTags: true, KeepQuotes: true})
}

// Export пишет документ в w в формате f.
func Export(f Format, title string, nodes []any, w io.Writer) error {
	switch f {
	case FormatMarkdown:
		return Markdown(title, nodes, w)
	case FormatHTML:
		out, err := HTML(nodes)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	case FormatPDF:
		return PDF(title, nodes, w)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
}

// HTML рендерит модель документа и сжимает разметку.
func HTML(nodes []any) (string, error) {
	markup, err := editor.RenderHTML(nodes)
	if err != nil {
		return "", err
	}
	return minifier.String("text/html", markup)
}

// blocks строит элементы верхнего уровня. Строки модели становятся абзацами.
func blocks(nodes []any) []*xhtml.Node {
	var res []*xhtml.Node
	for _, item := range nodes {
		switch v := item.(type) {
		case string:
			p := dom.NewElement("p")
			if err := dom.SetInnerHTML(p, v); err != nil {
				p.AppendChild(dom.NewText(v))
			}
			res = append(res, p)
		case editor.Node:
			res = append(res, editor.ParseChilds(v, true)...)
		case *editor.Node:
			res = append(res, editor.ParseChilds(*v, true)...)
		}
	}
	return res
}
