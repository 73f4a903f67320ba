package export

import (
	"io"
	"strings"

	"github.com/aisa-it/redactor/internal/redactor/dom"
	md "github.com/nao1215/markdown"
	"golang.org/x/net/html"
)

// Markdown пишет документ в Markdown. Пустой title не выводится.
func Markdown(title string, nodes []any, w io.Writer) error {
	m := md.NewMarkdown(w)
	first := true
	sep := func() {
		if !first {
			m.PlainText("")
		}
		first = false
	}

	if title != "" {
		sep()
		m.H1(title)
	}

	for _, el := range blocks(nodes) {
		if el.Type != html.ElementNode {
			if text := strings.TrimSpace(inlineMarkdown(el)); text != "" {
				sep()
				m.PlainText(text)
			}
			continue
		}
		sep()
		writeBlock(m, el)
	}
	return m.Build()
}

func writeBlock(m *md.Markdown, el *html.Node) {
	switch el.Data {
	case "h1":
		m.H1(inlineMarkdown(el))
	case "h2":
		m.H2(inlineMarkdown(el))
	case "h3":
		m.H3(inlineMarkdown(el))
	case "h4":
		m.H4(inlineMarkdown(el))
	case "h5":
		m.H5(inlineMarkdown(el))
	case "h6":
		m.H6(inlineMarkdown(el))
	case "ul", "ol":
		items := listItems(el)
		if el.Data == "ol" {
			m.OrderedList(items...)
		} else {
			m.BulletList(items...)
		}
	case "blockquote":
		m.Blockquote(inlineMarkdown(el))
	case "pre":
		m.CodeBlocks(md.SyntaxHighlight(dom.GetAttr(el, "data-language")), strings.TrimRight(dom.TextContent(el), "\n"))
	case "hr":
		m.HorizontalRule()
	case "table":
		m.Table(tableSet(el))
	default:
		m.PlainText(inlineMarkdown(el))
	}
}

func listItems(list *html.Node) []string {
	var items []string
	for c := list.FirstChild; c != nil; c = c.NextSibling {
		if dom.IsElement(c, "li") {
			items = append(items, inlineMarkdown(c))
		}
	}
	return items
}

func tableSet(table *html.Node) md.TableSet {
	var rows [][]string
	header := -1
	for _, tr := range dom.FindAll(table, "tr") {
		var row []string
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if dom.IsElement(c, "td") || dom.IsElement(c, "th") {
				if dom.IsElement(c, "th") && header < 0 {
					header = len(rows)
				}
				row = append(row, inlineMarkdown(c))
			}
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return md.TableSet{}
	}
	if header < 0 {
		header = 0
	}
	set := md.TableSet{Header: rows[header]}
	for i, row := range rows {
		if i != header {
			set.Rows = append(set.Rows, row)
		}
	}
	return set
}

// inlineMarkdown переводит строчное содержимое элемента. Теги без аналога в Markdown остаются HTML.
func inlineMarkdown(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode:
			b.WriteString(c.Data)
		case c.Type != html.ElementNode:
		case c.Data == "br":
			b.WriteString("  \n")
		case c.Data == "b" || c.Data == "strong":
			b.WriteString(md.Bold(inlineMarkdown(c)))
		case c.Data == "i" || c.Data == "em":
			b.WriteString(md.Italic(inlineMarkdown(c)))
		case c.Data == "s" || c.Data == "del" || c.Data == "strike":
			b.WriteString(md.Strikethrough(inlineMarkdown(c)))
		case c.Data == "code":
			b.WriteString(md.Code(dom.TextContent(c)))
		case c.Data == "a":
			b.WriteString(md.Link(inlineMarkdown(c), dom.GetAttr(c, "href")))
		case c.Data == "img":
			b.WriteString(md.Image(dom.GetAttr(c, "alt"), dom.GetAttr(c, "src")))
		case c.Data == "u" || c.Data == "mark" || c.Data == "sub" || c.Data == "sup":
			b.WriteString("<" + c.Data + ">" + inlineMarkdown(c) + "</" + c.Data + ">")
		case dom.IsBlock(c):
			if b.Len() > 0 {
				b.WriteString(" ")
			}
			b.WriteString(inlineMarkdown(c))
		default:
			b.WriteString(inlineMarkdown(c))
		}
	}
	return b.String()
}
