package naf

import (
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

var (
	wfExpr     = xpath.MustCompile("/NAF/text/wf")
	termExpr   = xpath.MustCompile("/NAF/terms/term")
	entityExpr = xpath.MustCompile("/NAF/entities/entity")
	depExpr    = xpath.MustCompile("/NAF/deps/dep")
	mwExpr     = xpath.MustCompile("/NAF/multiwords/mw")
	chunkExpr  = xpath.MustCompile("/NAF/chunks/chunk")
	pageExpr   = xpath.MustCompile("/NAF/formats/page")
)

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// textOf returns the concatenated character data directly under n.
func textOf(n *xmlquery.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.TextNode || c.Type == xmlquery.CharDataNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func externalRefsOf(n *xmlquery.Node) []ExternalRef {
	var refs []ExternalRef
	for _, r := range childElements(firstChild(n, "externalReferences"), "externalRef") {
		refs = append(refs, ExternalRef{
			Resource:   r.SelectAttr("resource"),
			Reference:  r.SelectAttr("reference"),
			Confidence: r.SelectAttr("confidence"),
			RefType:    r.SelectAttr("reftype"),
			Source:     r.SelectAttr("source"),
			Timestamp:  parseTime(r.SelectAttr("timestamp")),
		})
	}
	return refs
}

// Raw returns the raw text, or "" when the raw layer is absent.
func (d *Document) Raw() string {
	raw := d.layer(LayerRaw)
	if raw == nil {
		return ""
	}
	return textOf(raw)
}

// WordForms returns the word forms in document order.
func (d *Document) WordForms() []WordForm {
	var wfs []WordForm
	for _, n := range xmlquery.QuerySelectorAll(d.root, wfExpr) {
		wfs = append(wfs, WordForm{
			ID:     n.SelectAttr("id"),
			Sent:   n.SelectAttr("sent"),
			Para:   n.SelectAttr("para"),
			Page:   n.SelectAttr("page"),
			Offset: atoi(n.SelectAttr("offset")),
			Length: atoi(n.SelectAttr("length")),
			Text:   textOf(n),
		})
	}
	return wfs
}

// Terms returns the terms in document order.
func (d *Document) Terms() []Term {
	var terms []Term
	for _, n := range xmlquery.QuerySelectorAll(d.root, termExpr) {
		terms = append(terms, Term{
			ID:           n.SelectAttr("id"),
			Type:         n.SelectAttr("type"),
			Lemma:        n.SelectAttr("lemma"),
			POS:          n.SelectAttr("pos"),
			Morphofeat:   n.SelectAttr("morphofeat"),
			ComponentOf:  n.SelectAttr("component_of"),
			Span:         spanOf(n),
			Comment:      commentOf(n),
			ExternalRefs: externalRefsOf(n),
		})
	}
	return terms
}

// Entities returns the entities in document order.
func (d *Document) Entities() []Entity {
	var entities []Entity
	for _, n := range xmlquery.QuerySelectorAll(d.root, entityExpr) {
		entities = append(entities, Entity{
			ID:           n.SelectAttr("id"),
			Type:         n.SelectAttr("type"),
			Status:       n.SelectAttr("status"),
			Source:       n.SelectAttr("source"),
			Span:         spanOf(n),
			Comment:      commentOf(n),
			ExternalRefs: externalRefsOf(n),
		})
	}
	return entities
}

// Dependencies returns the dependencies in document order. The comment of a
// dependency is the comment node right before it.
func (d *Document) Dependencies() []Dependency {
	var deps []Dependency
	for _, n := range xmlquery.QuerySelectorAll(d.root, depExpr) {
		dep := Dependency{
			From:  n.SelectAttr("from"),
			To:    n.SelectAttr("to"),
			RFunc: n.SelectAttr("rfunc"),
		}
		if p := n.PrevSibling; p != nil && p.Type == xmlquery.CommentNode {
			dep.Comment = p.Data
		}
		deps = append(deps, dep)
	}
	return deps
}

// Multiwords returns the multiwords with their components.
func (d *Document) Multiwords() []Multiword {
	var mws []Multiword
	for _, n := range xmlquery.QuerySelectorAll(d.root, mwExpr) {
		mw := Multiword{
			ID:    n.SelectAttr("id"),
			Lemma: n.SelectAttr("lemma"),
			POS:   n.SelectAttr("pos"),
			Type:  n.SelectAttr("type"),
		}
		for _, c := range childElements(n, "component") {
			mw.Components = append(mw.Components, Component{
				ID:      c.SelectAttr("id"),
				Type:    c.SelectAttr("type"),
				Lemma:   c.SelectAttr("lemma"),
				POS:     c.SelectAttr("pos"),
				Span:    spanOf(c),
				Comment: commentOf(c),
			})
		}
		mws = append(mws, mw)
	}
	return mws
}

// Chunks returns the chunks in document order.
func (d *Document) Chunks() []Chunk {
	var chunks []Chunk
	for _, n := range xmlquery.QuerySelectorAll(d.root, chunkExpr) {
		chunks = append(chunks, Chunk{
			ID:      n.SelectAttr("id"),
			Head:    n.SelectAttr("head"),
			Phrase:  n.SelectAttr("phrase"),
			Span:    spanOf(n),
			Comment: commentOf(n),
		})
	}
	return chunks
}

// Formats returns the pages of the formats layer.
func (d *Document) Formats() []FormatPage {
	var pages []FormatPage
	for _, pn := range xmlquery.QuerySelectorAll(d.root, pageExpr) {
		p := FormatPage{
			ID:     pn.SelectAttr("id"),
			Offset: atoi(pn.SelectAttr("offset")),
			Length: atoi(pn.SelectAttr("length")),
		}
		for _, tbn := range childElements(pn, "textbox") {
			tb := FormatTextbox{Offset: atoi(tbn.SelectAttr("offset")), Length: atoi(tbn.SelectAttr("length"))}
			for _, tln := range childElements(tbn, "textline") {
				tl := FormatTextline{Offset: atoi(tln.SelectAttr("offset")), Length: atoi(tln.SelectAttr("length"))}
				for _, tn := range childElements(tln, "text") {
					tl.Texts = append(tl.Texts, FormatText{
						Font:   tn.SelectAttr("font"),
						Size:   tn.SelectAttr("size"),
						Offset: atoi(tn.SelectAttr("offset")),
						Length: atoi(tn.SelectAttr("length")),
						Text:   textOf(tn),
					})
				}
				tb.Textlines = append(tb.Textlines, tl)
			}
			p.Textboxes = append(p.Textboxes, tb)
		}
		pages = append(pages, p)
	}
	return pages
}

// Header returns the typed view of nafHeader.
func (d *Document) Header() Header {
	var h Header
	hn := d.layer(LayerHeader)
	if hn == nil {
		return h
	}

	if fd := firstChild(hn, "fileDesc"); fd != nil {
		h.FileDesc = &FileDesc{
			CreationTime: parseTime(fd.SelectAttr("creationtime")),
			Filename:     fd.SelectAttr("filename"),
			Filetype:     fd.SelectAttr("filetype"),
			Title:        fd.SelectAttr("title"),
			Author:       fd.SelectAttr("author"),
			Pages:        atoi(fd.SelectAttr("pages")),
		}
	}
	if p := firstChild(hn, "public"); p != nil {
		h.Public = &Public{PublicID: p.SelectAttr("publicId"), URI: p.SelectAttr("uri")}
	}

	for _, lps := range childElements(hn, "linguisticProcessors") {
		lp := LayerProcessors{Layer: Layer(lps.SelectAttr("layer"))}
		for _, r := range childElements(lps, "lp") {
			lp.Records = append(lp.Records, ProcessorRecord{
				Name:     r.SelectAttr("name"),
				Version:  r.SelectAttr("version"),
				Model:    r.SelectAttr("model"),
				Hostname: r.SelectAttr("hostname"),
				Begin:    parseTime(r.SelectAttr("beginTimestamp")),
				End:      parseTime(r.SelectAttr("endTimestamp")),
			})
		}
		h.Processors = append(h.Processors, lp)
	}
	return h
}

// Records returns the elements of layer l in a generic shape: one map per
// element holding its attributes, its character data under "text" and its
// span targets, space separated, under "span".
func (d *Document) Records(l Layer) []map[string]string {
	var out []map[string]string
	for _, n := range childElements(d.layer(l), "") {
		rec := make(map[string]string, len(n.Attr)+2)
		for _, a := range n.Attr {
			rec[a.Name.Local] = a.Value
		}
		if t := textOf(n); t != "" {
			rec["text"] = t
		}
		if span := spanOf(n); len(span) > 0 {
			rec["span"] = strings.Join(span, " ")
		}
		out = append(out, rec)
	}
	return out
}
