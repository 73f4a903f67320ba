package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"github.com/aisa-it/redactor/internal/redactor/dom"
	"golang.org/x/net/html"
)

const (
	pdfFont     = "Helvetica"
	pdfFontSize = 11
)

var headingSizes = map[string]float64{"h1": 22, "h2": 18, "h3": 15, "h4": 13, "h5": 12, "h6": 11}

type pdfStyle struct {
	bold, italic, underline, strike bool
	link                            string
	fill                            string
	size                            float64
	mono                            bool
}

func (s pdfStyle) fontStyle() string {
	res := ""
	if s.bold {
		res += "B"
	}
	if s.italic {
		res += "I"
	}
	if s.underline || s.link != "" {
		res += "U"
	}
	if s.strike {
		res += "S"
	}
	return res
}

type pdfWriter struct {
	pdf *fpdf.Fpdf
	tr  func(string) string

	defaultMargins Margins
}

type Margins struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

func (m *Margins) GetMargins(pdf fpdf.Pdf) {
	m.Left, m.Top, m.Right, m.Bottom = pdf.GetMargins()
}

// PDF пишет документ в PDF. Встроенный шрифт поддерживает только cp1252, остальные символы заменяются.
func PDF(title string, nodes []any, out io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "") // 210*297 mm
	w := pdfWriter{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
	}
	w.defaultMargins.GetMargins(pdf)

	pdf.SetTitle(title, true)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont(pdfFont, "B", 24)
		w.write(title, "")
		pdf.Ln(-1)
		pdf.Ln(4)
	}

	for _, el := range blocks(nodes) {
		w.writeBlock(el)
		w.resetMargins()
	}
	return pdf.Output(out)
}

func (w *pdfWriter) writeBlock(el *html.Node) {
	if el.Type != html.ElementNode {
		w.writeInline(el, pdfStyle{size: pdfFontSize})
		w.pdf.Ln(-1)
		return
	}

	switch el.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		w.pdf.Ln(2)
		w.writeInline(el, pdfStyle{bold: true, size: headingSizes[el.Data]})
		w.pdf.Ln(-1)
		w.pdf.Ln(1)
	case "ul", "ol":
		w.pdf.SetLeftMargin(w.defaultMargins.Left + 4)
		n := 0
		for li := el.FirstChild; li != nil; li = li.NextSibling {
			if !dom.IsElement(li, "li") {
				continue
			}
			n++
			w.setFont(pdfStyle{size: pdfFontSize})
			if el.Data == "ol" {
				w.write(fmt.Sprintf("%d. ", n), "")
			} else {
				w.write("• ", "")
			}
			w.writeInline(li, pdfStyle{size: pdfFontSize})
			w.pdf.Ln(-1)
		}
	case "blockquote":
		w.pdf.Ln(2)
		y1 := w.pdf.GetY()
		w.pdf.SetLeftMargin(w.defaultMargins.Left + 3)
		w.pdf.SetX(w.defaultMargins.Left + 3)
		w.writeInline(el, pdfStyle{italic: true, size: pdfFontSize})
		w.pdf.Ln(-1)

		w.pdf.SetLineWidth(0.5)
		w.pdf.SetDrawColor(74, 71, 82)
		w.pdf.Line(w.defaultMargins.Left+1, y1, w.defaultMargins.Left+1, w.pdf.GetY())
		w.pdf.Ln(2)
	case "pre":
		w.setFont(pdfStyle{mono: true, size: pdfFontSize - 1})
		w.pdf.MultiCell(0, 5, w.tr(dom.TextContent(el)), "", "L", false)
	case "hr":
		w.pdf.Ln(2)
		l, _, r, _ := w.pdf.GetMargins()
		pW, _ := w.pdf.GetPageSize()
		w.pdf.Line(l, w.pdf.GetY(), pW-r, w.pdf.GetY())
		w.pdf.Ln(2)
	case "table":
		w.writeTable(el)
	default:
		w.writeInline(el, pdfStyle{size: pdfFontSize})
		w.pdf.Ln(-1)
	}
}

func (w *pdfWriter) writeInline(n *html.Node, style pdfStyle) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			w.writeText(c.Data, style)
			continue
		case html.ElementNode:
		default:
			continue
		}

		s := style
		switch c.Data {
		case "br":
			w.pdf.Ln(-1)
			continue
		case "b", "strong":
			s.bold = true
		case "i", "em":
			s.italic = true
		case "u":
			s.underline = true
		case "s", "del", "strike":
			s.strike = true
		case "code":
			s.mono = true
		case "a":
			s.link = dom.GetAttr(c, "href")
		case "mark":
			s.fill = dom.GetAttr(c, "data-color")
			if s.fill == "" {
				s.fill = "#fff59d"
			}
		case "sub", "sup":
			s.size = style.size * 0.75
		}
		w.writeInline(c, s)
	}
}

func (w *pdfWriter) writeText(text string, style pdfStyle) {
	w.setFont(style)
	if style.fill != "" {
		w.SetHexFillColor(style.fill)
		_, h := w.pdf.GetFontSize()
		x := w.pdf.GetX()
		w.pdf.SetX(x + w.pdf.GetCellMargin())
		w.pdf.CellFormat(w.pdf.GetStringWidth(w.tr(text)), h+0.1, "", "", 0, "L", true, 0, "")
		w.pdf.SetX(x)
	}
	w.write(text, style.link)
}

func (w *pdfWriter) setFont(style pdfStyle) {
	family := pdfFont
	if style.mono {
		family = "Courier"
	}
	size := style.size
	if size == 0 {
		size = pdfFontSize
	}
	w.pdf.SetFont(family, style.fontStyle(), size)
	if style.link != "" {
		w.pdf.SetTextColor(20, 80, 200)
	} else {
		w.pdf.SetTextColor(0, 0, 0)
	}
}

func (w *pdfWriter) write(text, link string) {
	_, s := w.pdf.GetFontSize()
	w.pdf.WriteLinkString(s+0.1, w.tr(text), link)
}

func (w *pdfWriter) writeTable(table *html.Node) {
	rows := dom.FindAll(table, "tr")
	cols := 0
	for _, tr := range rows {
		cols = max(cols, len(tableCells(tr)))
	}
	if cols == 0 {
		return
	}

	l, _, r, _ := w.pdf.GetMargins()
	pW, _ := w.pdf.GetPageSize()
	colWidth := (pW - l - r) / float64(cols)

	for _, tr := range rows {
		for _, cell := range tableCells(tr) {
			header := dom.IsElement(cell, "th")
			w.setFont(pdfStyle{bold: header, size: pdfFontSize - 1})
			w.SetHexFillColor("#e5edfa")
			w.pdf.CellFormat(colWidth, 7, w.tr(dom.TextContent(cell)), "1", 0, "LM", header, 0, "")
		}
		w.pdf.Ln(-1)
	}
	w.pdf.Ln(2)
}

func tableCells(tr *html.Node) []*html.Node {
	var res []*html.Node
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if dom.IsElement(c, "td") || dom.IsElement(c, "th") {
			res = append(res, c)
		}
	}
	return res
}

// SetHexFillColor принимает #rrggbb или #rgb, некорректный цвет игнорируется.
func (w *pdfWriter) SetHexFillColor(hex string) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return
	}
	values, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return
	}
	w.pdf.SetFillColor(
		int(uint8(values>>16)),
		int(uint8((values>>8)&0xFF)),
		int(uint8(values&0xFF)),
	)
}

func (w *pdfWriter) resetMargins() {
	w.pdf.SetMargins(w.defaultMargins.Left, w.defaultMargins.Top, w.defaultMargins.Right)
}
