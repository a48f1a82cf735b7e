package layer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/revelaction/naf/layout"
	"github.com/revelaction/naf/naf"
)

// RawText concatenates the word forms in identifier order, filling the
// offset gap before every word form with spaces. It also returns the ids of
// word forms overlapping their predecessor; those get no padding.
func RawText(wfs []naf.WordForm) (string, []string) {
	sorted := append([]naf.WordForm(nil), wfs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return wfNumber(sorted[i].ID) < wfNumber(sorted[j].ID)
	})

	var (
		b        strings.Builder
		overlaps []string
		end      int
	)
	for _, wf := range sorted {
		gap := wf.Offset - end
		if gap < 0 {
			overlaps = append(overlaps, wf.ID)
			gap = 0
		}
		b.WriteString(strings.Repeat(" ", gap))
		b.WriteString(wf.Text)
		end = wf.End()
	}
	return b.String(), overlaps
}

func wfNumber(id string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(id, naf.KindWordForm.Prefix()))
	if err != nil {
		return 0
	}
	return n
}

// AddRawLayer writes the raw text rebuilt from the text layer.
func AddRawLayer(c *Context) error {
	raw, overlaps := RawText(c.Doc.WordForms())
	for _, id := range overlaps {
		c.Log.Warn("word form overlaps its predecessor", "wf", id)
	}

	c.Doc.AddProcessor(naf.LayerRaw, c.processor())
	if err := c.Doc.AddRaw(raw); err != nil {
		return fmt.Errorf("raw layer: %w", err)
	}
	return nil
}

// Formats converts a layout into format pages. Consecutive runs of a line
// with the same style are merged, and every element carries its offset and
// length in the document text.
func Formats(l *layout.Layout) []naf.FormatPage {
	var (
		pages  []naf.FormatPage
		offset int
	)
	bounds := l.PageBounds()
	for i, page := range l.Pages {
		fp := naf.FormatPage{ID: itoa(bounds[i].Number), Offset: offset}
		for _, tb := range page.Textboxes {
			ftb := naf.FormatTextbox{Offset: offset}
			for _, tl := range tb.Textlines {
				ftl := naf.FormatTextline{Offset: offset}
				for _, t := range layout.Merge(tl.Texts) {
					n := t.Len()
					ftl.Texts = append(ftl.Texts, naf.FormatText{
						Font:   t.Font,
						Size:   t.Size,
						Offset: offset,
						Length: n,
						Text:   t.Text,
					})
					offset += n
				}
				ftl.Length = offset - ftl.Offset
				ftb.Textlines = append(ftb.Textlines, ftl)
			}
			ftb.Length = offset - ftb.Offset
			fp.Textboxes = append(fp.Textboxes, ftb)
		}
		fp.Length = offset - fp.Offset
		pages = append(pages, fp)
	}
	return pages
}

// AddFormatsLayer writes the source layout. Documents without a layout get
// no formats layer.
func AddFormatsLayer(c *Context) error {
	if c.Layout == nil {
		c.Log.Info("no source layout, formats layer skipped")
		return nil
	}

	c.Doc.AddProcessor(naf.LayerFormats, c.processor())
	for _, p := range Formats(c.Layout) {
		c.Doc.AddFormatPage(p)
	}
	return nil
}
