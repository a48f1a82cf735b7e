package naf

import (
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/google/uuid"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

// header returns the nafHeader element, creating it when absent.
func (d *Document) header() *xmlquery.Node {
	return d.ensureLayer(LayerHeader)
}

// headerChildRank orders the children of nafHeader.
func headerChildRank(name string) int {
	switch name {
	case "fileDesc":
		return 0
	case "public":
		return 1
	default:
		return 2
	}
}

// setHeaderChild replaces or inserts the unique header child n.
func (d *Document) setHeaderChild(n *xmlquery.Node) {
	h := d.header()
	if old := firstChild(h, n.Data); old != nil {
		insertBefore(old, n)
		xmlquery.RemoveFromTree(old)
		return
	}

	rank := headerChildRank(n.Data)
	for _, c := range childElements(h, "") {
		if headerChildRank(c.Data) > rank {
			insertBefore(c, n)
			return
		}
	}
	xmlquery.AddChild(h, n)
}

// SetFileDesc writes the fileDesc header element, replacing any previous one.
func (d *Document) SetFileDesc(fd FileDesc) {
	pages := ""
	if fd.Pages > 0 {
		pages = itoa(fd.Pages)
	}
	d.setHeaderChild(element("fileDesc",
		"creationtime", formatTime(fd.CreationTime),
		"filename", fd.Filename,
		"filetype", fd.Filetype,
		"title", fd.Title,
		"author", fd.Author,
		"pages", pages,
	))
}

// SetPublic writes the public header element. A UUID is generated when
// PublicID is empty. It returns the public id written.
func (d *Document) SetPublic(p Public) string {
	if p.PublicID == "" {
		p.PublicID = uuid.NewString()
	}
	d.setHeaderChild(element("public", "publicId", p.PublicID, "uri", p.URI))
	return p.PublicID
}

// AddProcessor records that rec produced layer l.
func (d *Document) AddProcessor(l Layer, rec ProcessorRecord) {
	h := d.header()

	var lps *xmlquery.Node
	for _, c := range childElements(h, "linguisticProcessors") {
		if c.SelectAttr("layer") == string(l) {
			lps = c
			break
		}
	}
	if lps == nil {
		lps = element("linguisticProcessors", "layer", string(l))
		xmlquery.AddChild(h, lps)
	}

	xmlquery.AddChild(lps, element("lp",
		"name", rec.Name,
		"version", rec.Version,
		"model", rec.Model,
		"beginTimestamp", formatTime(rec.Begin),
		"endTimestamp", formatTime(rec.End),
		"hostname", rec.Hostname,
	))
}

// RemoveProcessor removes the lp records of layer l written by the
// processor name and returns how many were removed. A linguisticProcessors
// element left empty is removed too.
func (d *Document) RemoveProcessor(l Layer, name string) int {
	removed := 0
	for _, lps := range childElements(d.header(), "linguisticProcessors") {
		if lps.SelectAttr("layer") != string(l) {
			continue
		}
		for _, lp := range childElements(lps, "lp") {
			if lp.SelectAttr("name") == name {
				xmlquery.RemoveFromTree(lp)
				removed++
			}
		}
		if len(childElements(lps, "lp")) == 0 {
			xmlquery.RemoveFromTree(lps)
		}
	}
	return removed
}

// AddRaw writes the raw text of the document. The raw layer can only be
// written once.
func (d *Document) AddRaw(text string) error {
	raw := d.ensureLayer(LayerRaw)
	if raw.FirstChild != nil {
		return ErrRawWritten
	}

	// CDATA cannot carry its own terminator
	if strings.Contains(text, "]]>") {
		xmlquery.AddChild(raw, textNode(text))
		return nil
	}
	xmlquery.AddChild(raw, &xmlquery.Node{Type: xmlquery.CharDataNode, Data: text})
	return nil
}

// AddWordForm appends a wf element to the text layer and returns its id.
func (d *Document) AddWordForm(wf WordForm) string {
	if wf.ID == "" {
		wf.ID = d.NextID(KindWordForm)
	}
	n := element("wf",
		"id", wf.ID,
		"sent", wf.Sent,
		"para", wf.Para,
		"page", wf.Page,
		"offset", itoa(wf.Offset),
		"length", itoa(wf.Length),
	)
	xmlquery.AddChild(n, textNode(wf.Text))
	xmlquery.AddChild(d.ensureLayer(LayerText), n)
	return wf.ID
}

func appendExternalRefs(parent *xmlquery.Node, refs []ExternalRef) {
	if len(refs) == 0 {
		return
	}
	ers := element("externalReferences")
	for _, r := range refs {
		xmlquery.AddChild(ers, element("externalRef",
			"resource", r.Resource,
			"reference", r.Reference,
			"confidence", r.Confidence,
			"reftype", r.RefType,
			"source", r.Source,
			"timestamp", formatTime(r.Timestamp),
		))
	}
	xmlquery.AddChild(parent, ers)
}

// AddTerm appends a term element to the terms layer and returns its id.
func (d *Document) AddTerm(t Term) string {
	if t.ID == "" {
		t.ID = d.NextID(KindTerm)
	}
	n := element("term",
		"id", t.ID,
		"type", t.Type,
		"lemma", t.Lemma,
		"pos", t.POS,
		"morphofeat", t.Morphofeat,
		"component_of", t.ComponentOf,
	)
	appendSpan(n, t.Span, t.Comment)
	appendExternalRefs(n, t.ExternalRefs)
	xmlquery.AddChild(d.ensureLayer(LayerTerms), n)
	return t.ID
}

// AddEntity appends an entity element to the entities layer and returns its
// id.
func (d *Document) AddEntity(e Entity) string {
	if e.ID == "" {
		e.ID = d.NextID(KindEntity)
	}
	n := element("entity",
		"id", e.ID,
		"type", e.Type,
		"status", e.Status,
		"source", e.Source,
	)
	appendSpan(n, e.Span, e.Comment)
	appendExternalRefs(n, e.ExternalRefs)
	xmlquery.AddChild(d.ensureLayer(LayerEntities), n)
	return e.ID
}

// AddDependency appends a dep element, preceded by its comment, to the deps
// layer.
func (d *Document) AddDependency(dep Dependency) {
	deps := d.ensureLayer(LayerDeps)
	if dep.Comment != "" {
		xmlquery.AddChild(deps, commentNode(dep.Comment))
	}
	xmlquery.AddChild(deps, element("dep",
		"from", dep.From,
		"to", dep.To,
		"rfunc", dep.RFunc,
	))
}

// AddMultiword appends an mw element with its components to the multiwords
// layer and returns its id. Components without an id get the next free
// component id of the multiword.
func (d *Document) AddMultiword(mw Multiword) string {
	if mw.ID == "" {
		mw.ID = d.NextID(KindMultiword)
	}
	n := element("mw",
		"id", mw.ID,
		"lemma", mw.Lemma,
		"pos", mw.POS,
		"type", mw.Type,
	)
	for _, c := range mw.Components {
		id := c.ID
		if id == "" {
			id = nextComponentID(n, mw.ID)
		}
		cn := element("component",
			"id", id,
			"type", c.Type,
			"lemma", c.Lemma,
			"pos", c.POS,
		)
		appendSpan(cn, c.Span, c.Comment)
		xmlquery.AddChild(n, cn)
	}
	xmlquery.AddChild(d.ensureLayer(LayerMultiwords), n)
	return mw.ID
}

// AddChunk appends a chunk element to the chunks layer and returns its id.
func (d *Document) AddChunk(c Chunk) string {
	if c.ID == "" {
		c.ID = d.NextID(KindChunk)
	}
	n := element("chunk",
		"id", c.ID,
		"head", c.Head,
		"phrase", c.Phrase,
	)
	appendSpan(n, c.Span, c.Comment)
	xmlquery.AddChild(d.ensureLayer(LayerChunks), n)
	return c.ID
}

// AddFormatPage appends a page with its textboxes, textlines and runs to
// the formats layer.
func (d *Document) AddFormatPage(p FormatPage) {
	pn := element("page", "id", p.ID, "offset", itoa(p.Offset), "length", itoa(p.Length))
	for _, tb := range p.Textboxes {
		tbn := element("textbox", "offset", itoa(tb.Offset), "length", itoa(tb.Length))
		for _, tl := range tb.Textlines {
			tln := element("textline", "offset", itoa(tl.Offset), "length", itoa(tl.Length))
			for _, t := range tl.Texts {
				tn := element("text",
					"font", t.Font,
					"size", t.Size,
					"offset", itoa(t.Offset),
					"length", itoa(t.Length),
				)
				xmlquery.AddChild(tn, textNode(t.Text))
				xmlquery.AddChild(tln, tn)
			}
			xmlquery.AddChild(tbn, tln)
		}
		xmlquery.AddChild(pn, tbn)
	}
	xmlquery.AddChild(d.ensureLayer(LayerFormats), pn)
}

// SetComponentOf marks term termID as part of multiword mwID. It reports
// whether the term exists.
func (d *Document) SetComponentOf(termID, mwID string) bool {
	t := d.termNode(termID)
	if t == nil {
		return false
	}
	t.SetAttr("component_of", mwID)
	return true
}

// RemoveMultiwords deletes every multiword of type typ together with the
// component_of back-references pointing at it. It returns how many were
// removed.
func (d *Document) RemoveMultiwords(typ string) int {
	removed := map[string]bool{}
	for _, mw := range childElements(d.layer(LayerMultiwords), "mw") {
		if mw.SelectAttr("type") != typ {
			continue
		}
		removed[mw.SelectAttr("id")] = true
		xmlquery.RemoveFromTree(mw)
	}
	if len(removed) == 0 {
		return 0
	}

	for _, t := range childElements(d.layer(LayerTerms), "term") {
		if removed[t.SelectAttr("component_of")] {
			t.RemoveAttr("component_of")
		}
	}
	return len(removed)
}

func (d *Document) termNode(id string) *xmlquery.Node {
	for _, t := range childElements(d.layer(LayerTerms), "term") {
		if t.SelectAttr("id") == id {
			return t
		}
	}
	return nil
}

func (d *Document) multiwordNode(id string) *xmlquery.Node {
	for _, mw := range childElements(d.layer(LayerMultiwords), "mw") {
		if mw.SelectAttr("id") == id {
			return mw
		}
	}
	return nil
}
