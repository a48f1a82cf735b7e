// Package render writes NAF layers for humans (text) and for programs
// (JSON).
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"

	"github.com/revelaction/naf/naf"
)

var (
	Red       = "\033[1;31m"
	Green     = "\033[1;32m"
	Yellow    = "\033[0;33m"
	Purple    = "\033[1;34m"
	Magenta   = "\033[1;35m"
	Teal      = "\033[1;36m"
	Gray      = "\033[0;37m"
	Off       = "\033[0m"
	Yellow256 = "\033[1;38;5;130m"
	Grey256   = "\033[1;38;5;145m"
	Green256  = "\033[1;38;5;70m"
)

// entityColors colors the entity types most engines produce.
var entityColors = map[string]string{
	"PERSON": Green256,
	"PER":    Green256,
	"ORG":    Yellow256,
	"GPE":    Teal,
	"LOC":    Teal,
	"DATE":   Magenta,
	"MISC":   Purple,
}

// Renderer writes one layer, or every layer when l is empty.
type Renderer interface {
	Render(doc *naf.Document, l naf.Layer) error
}

// TextRenderer writes the text layer as sentences and other layers as
// aligned attribute tables.
type TextRenderer struct {
	W io.Writer

	// HasColor highlights entity tokens in sentences.
	HasColor bool
}

var _ Renderer = (*TextRenderer)(nil)

func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{W: w}
}

func (r *TextRenderer) Render(doc *naf.Document, l naf.Layer) error {
	if l != "" {
		return r.layer(doc, l)
	}

	for _, name := range doc.LayerNames() {
		fmt.Fprintf(r.W, "== %s\n", name)
		if err := r.layer(doc, naf.Layer(name)); err != nil {
			return err
		}
	}
	return nil
}

func (r *TextRenderer) layer(doc *naf.Document, l naf.Layer) error {
	if !doc.HasLayer(l) {
		return fmt.Errorf("document has no %s layer", l)
	}

	switch l {
	case naf.LayerHeader:
		r.header(doc.Header())
	case naf.LayerRaw:
		fmt.Fprintln(r.W, doc.Raw())
	case naf.LayerText:
		for _, s := range r.Sentences(doc) {
			fmt.Fprintln(r.W, s)
		}
	default:
		return r.table(doc.Records(l))
	}
	return nil
}

func (r *TextRenderer) header(h naf.Header) {
	if fd := h.FileDesc; fd != nil {
		fmt.Fprintf(r.W, "file: %s (%s) title=%q author=%q pages=%d\n", fd.Filename, fd.Filetype, fd.Title, fd.Author, fd.Pages)
	}
	if p := h.Public; p != nil {
		fmt.Fprintf(r.W, "public: %s %s\n", p.PublicID, p.URI)
	}
	for _, lp := range h.Processors {
		for _, rec := range lp.Records {
			fmt.Fprintf(r.W, "%s: %s %s %s\n", lp.Layer, rec.Name, rec.Model, rec.Version)
		}
	}
}

// Sentences returns the text of each sentence of the text layer, prefixed
// by its number. Word forms are placed at their offsets, so the spacing of
// the source is kept within a sentence.
func (r *TextRenderer) Sentences(doc *naf.Document) []string {
	types := r.entityTypes(doc)

	var out []string
	var str strings.Builder
	sent := ""
	lastEnd := 0
	for _, wf := range doc.WordForms() {
		if wf.Sent != sent {
			if str.Len() > 0 {
				out = append(out, str.String())
				str.Reset()
			}
			sent = wf.Sent
			fmt.Fprintf(&str, "%s: ", sent)
		} else if gap := wf.Offset - lastEnd; gap > 0 {
			str.WriteString(strings.Repeat(" ", gap))
		}
		str.WriteString(r.color(wf.Text, types[wf.ID]))
		lastEnd = wf.End()
	}
	if str.Len() > 0 {
		out = append(out, str.String())
	}
	return out
}

// entityTypes maps word form ids to the type of the entity covering them.
func (r *TextRenderer) entityTypes(doc *naf.Document) map[string]string {
	if !r.HasColor {
		return nil
	}

	terms := lo.KeyBy(doc.Terms(), func(t naf.Term) string { return t.ID })
	types := map[string]string{}
	for _, e := range doc.Entities() {
		for _, tid := range e.Span {
			for _, wid := range terms[tid].Span {
				types[wid] = e.Type
			}
		}
	}
	return types
}

func (r *TextRenderer) color(text, entityType string) string {
	if !r.HasColor || entityType == "" {
		return text
	}
	c, ok := entityColors[entityType]
	if !ok {
		c = Red
	}
	return c + text + Off
}

// table writes records as aligned key=value rows, id first.
func (r *TextRenderer) table(recs []map[string]string) error {
	tw := tabwriter.NewWriter(r.W, 0, 4, 2, ' ', 0)
	for _, rec := range recs {
		fmt.Fprintln(tw, strings.Join(Fields(rec), "\t"))
	}
	return tw.Flush()
}

// Fields returns the key=value pairs of rec with id first, then the other
// attributes sorted, then span and text.
func Fields(rec map[string]string) []string {
	keys := lo.Without(lo.Keys(rec), "id", "span", "text")
	sort.Strings(keys)

	var fields []string
	for _, k := range append(append([]string{"id"}, keys...), "span", "text") {
		if v, ok := rec[k]; ok {
			fields = append(fields, k+"="+v)
		}
	}
	return fields
}
