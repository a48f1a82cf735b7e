// Package layout models the visual structure of a source document: pages of
// text boxes, made of lines of styled text runs. The concatenation of all
// runs, in order, is the text handed to the NLP engine, so every offset
// derived from a Layout lives in the same coordinate space as the word
// forms.
package layout

import (
	"strings"
	"unicode/utf8"
)

// Text is a run of characters sharing one font and size.
type Text struct {
	Font string
	Size string
	Text string
}

// Len returns the rune length of the run.
func (t Text) Len() int {
	return utf8.RuneCountInString(t.Text)
}

// Textline is one visual line.
type Textline struct {
	Texts []Text
}

// Textbox is a block of lines, usually a paragraph.
type Textbox struct {
	Textlines []Textline
}

// Page is one page of the document.
type Page struct {
	Number    int
	Textboxes []Textbox
}

// Layout is the whole document.
type Layout struct {
	Pages []Page
}

// Text returns the concatenated text of every run.
func (l *Layout) Text() string {
	var b strings.Builder
	l.walk(func(_, _ int, t Text) {
		b.WriteString(t.Text)
	})
	return b.String()
}

// walk calls fn for every run with the index of its page and of its
// textbox, counted over the document.
func (l *Layout) walk(fn func(page, box int, t Text)) {
	box := 0
	for p, page := range l.Pages {
		for _, tb := range page.Textboxes {
			for _, tl := range tb.Textlines {
				for _, t := range tl.Texts {
					fn(p, box, t)
				}
			}
			box++
		}
	}
}

// Bound is the start of a page in the document text.
type Bound struct {
	Offset int
	Number int
}

// PageBounds returns one bound per page, empty pages included, so that page
// labels follow Page.Number. Pages without a number are numbered by
// position.
func (l *Layout) PageBounds() []Bound {
	out := make([]Bound, 0, len(l.Pages))
	offset := 0
	for p, page := range l.Pages {
		n := page.Number
		if n == 0 {
			n = p + 1
		}
		out = append(out, Bound{Offset: offset, Number: n})
		for _, tb := range page.Textboxes {
			for _, tl := range tb.Textlines {
				for _, t := range tl.Texts {
					offset += t.Len()
				}
			}
		}
	}
	return out
}

// PageOffsets returns the rune offset at which every page starts.
func (l *Layout) PageOffsets() []int {
	bounds := l.PageBounds()
	out := make([]int, len(bounds))
	for i, b := range bounds {
		out[i] = b.Offset
	}
	return out
}

// ParagraphOffsets returns the rune offset at which every non empty textbox
// starts.
func (l *Layout) ParagraphOffsets() []int {
	var out []int
	last := -1
	offset := 0
	l.walk(func(_, box int, t Text) {
		if box != last {
			out = append(out, offset)
			last = box
		}
		offset += t.Len()
	})
	return out
}

// Merge joins consecutive runs with the same font and size.
func Merge(texts []Text) []Text {
	var out []Text
	for _, t := range texts {
		if n := len(out); n > 0 && out[n-1].Font == t.Font && out[n-1].Size == t.Size {
			out[n-1].Text += t.Text
			continue
		}
		out = append(out, t)
	}
	return out
}

// FromText builds a single page layout from plain text: paragraphs are
// separated by blank lines and every line keeps its newline.
func FromText(text string) *Layout {
	page := Page{Number: 1}
	var box Textbox

	lines := strings.SplitAfter(text, "\n")
	for _, line := range lines {
		if line == "" {
			continue
		}
		box.Textlines = append(box.Textlines, Textline{Texts: []Text{{Text: line}}})
		if strings.TrimSpace(line) == "" {
			page.Textboxes = append(page.Textboxes, box)
			box = Textbox{}
		}
	}
	if len(box.Textlines) > 0 {
		page.Textboxes = append(page.Textboxes, box)
	}
	return &Layout{Pages: []Page{page}}
}
