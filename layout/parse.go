package layout

import (
	"fmt"
	"io"
	"strconv"

	"github.com/antchfx/xmlquery"
)

// Parse reads the XML layout written by pdfminer (pdf2txt.py -t xml):
// pages/page/textbox/textline/text. Figures and other elements are
// ignored.
func Parse(r io.Reader) (*Layout, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}

	l := &Layout{}
	for i, pn := range xmlquery.Find(doc, "//page") {
		page := Page{Number: i + 1}
		if n, err := strconv.Atoi(pn.SelectAttr("id")); err == nil {
			page.Number = n
		}

		for _, tbn := range xmlquery.Find(pn, "./textbox") {
			var tb Textbox
			for _, tln := range xmlquery.Find(tbn, "./textline") {
				var tl Textline
				for _, tn := range xmlquery.Find(tln, "./text") {
					tl.Texts = append(tl.Texts, Text{
						Font: tn.SelectAttr("font"),
						Size: tn.SelectAttr("size"),
						Text: tn.InnerText(),
					})
				}
				tb.Textlines = append(tb.Textlines, tl)
			}
			page.Textboxes = append(page.Textboxes, tb)
		}
		l.Pages = append(l.Pages, page)
	}
	return l, nil
}
