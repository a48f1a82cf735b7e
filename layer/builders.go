package layer

import (
	"fmt"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/revelaction/naf/layout"
	"github.com/revelaction/naf/naf"
)

const (
	// PhrasalRelation is the dependency label of a separable verb particle.
	PhrasalRelation = "compound:prt"

	// MultiwordType is the type of the multiwords built from
	// PhrasalRelation.
	MultiwordType = "phrasal"

	PhraseNP = "NP"
	PhrasePP = "PP"
)

// order is the build order: each layer only references layers built
// before it.
var order = []naf.Layer{
	naf.LayerText,
	naf.LayerTerms,
	naf.LayerEntities,
	naf.LayerDeps,
	naf.LayerMultiwords,
	naf.LayerChunks,
	naf.LayerRaw,
	naf.LayerFormats,
}

var builders = map[naf.Layer]Builder{
	naf.LayerText:       AddTextLayer,
	naf.LayerTerms:      AddTermsLayer,
	naf.LayerEntities:   AddEntitiesLayer,
	naf.LayerDeps:       AddDepsLayer,
	naf.LayerMultiwords: AddMultiwordsLayer,
	naf.LayerChunks:     AddChunksLayer,
	naf.LayerRaw:        AddRawLayer,
	naf.LayerFormats:    AddFormatsLayer,
}

// Order returns the layers in build order.
func Order() []naf.Layer {
	return append([]naf.Layer(nil), order...)
}

// For returns the builder of layer l.
func For(l naf.Layer) (Builder, bool) {
	b, ok := builders[l]
	return b, ok
}

// advance moves i forward while the next boundary is at or before offset.
func advance(bounds []int, i, offset int) int {
	for i+1 < len(bounds) && bounds[i+1] <= offset {
		i++
	}
	return i
}

// AddTextLayer writes one word form per token. Paragraph labels count the
// layout textboxes and page labels carry the layout page number; without a
// layout every token is on page 1, paragraph 1.
func AddTextLayer(c *Context) error {
	c.Doc.AddProcessor(naf.LayerText, c.processor())
	c.Doc.EnsureLayer(naf.LayerText)

	pages := []layout.Bound{{Number: 1}}
	var paras []int
	if c.Layout != nil && len(c.Layout.Pages) > 0 {
		pages = c.Layout.PageBounds()
		paras = c.Layout.ParagraphOffsets()
	}
	pageOffsets := lo.Map(pages, func(b layout.Bound, _ int) int { return b.Offset })

	ids := c.Doc.NewCounter(naf.KindWordForm)
	page, para := 0, 0
	for _, p := range c.positions() {
		offset := p.tok.Offset()
		page = advance(pageOffsets, page, offset)
		para = advance(paras, para, offset)

		text := p.tok.Text()
		c.wfIDs[p.pos] = c.Doc.AddWordForm(naf.WordForm{
			ID:     ids.Next(),
			Sent:   itoa(p.sentence),
			Para:   itoa(para + 1),
			Page:   itoa(pages[page].Number),
			Offset: offset,
			Length: utf8.RuneCountInString(text),
			Text:   text,
		})
	}
	return nil
}

// AddTermsLayer writes one term per token, spanning its word form.
func AddTermsLayer(c *Context) error {
	c.Doc.AddProcessor(naf.LayerTerms, c.processor())
	c.Doc.EnsureLayer(naf.LayerTerms)

	ids := c.Doc.NewCounter(naf.KindTerm)
	for _, p := range c.positions() {
		id := ids.Next()
		tag := p.tok.POS()
		mapped, ok := MapPos(tag)

		pos := tag
		if c.PosMapping {
			pos = mapped.Tag
			if !ok {
				c.Log.Warn("POS tag not in mapping", "tag", tag, "term", id)
			}
		}

		c.termIDs[p.pos] = c.Doc.AddTerm(naf.Term{
			ID:         id,
			Type:       mapped.Class,
			Lemma:      p.tok.Lemma(),
			POS:        pos,
			Morphofeat: p.tok.Morph(),
			Span:       []string{c.wfID(p.pos)},
			Comment:    p.tok.Text(),
		})
	}
	return nil
}

// AddEntitiesLayer writes one entity per engine entity, spanning the terms
// of its tokens.
func AddEntitiesLayer(c *Context) error {
	c.Doc.AddProcessor(naf.LayerEntities, c.processor())
	c.Doc.EnsureLayer(naf.LayerEntities)

	ids := c.Doc.NewCounter(naf.KindEntity)
	for _, e := range c.Output.Entities() {
		start, end := e.Bounds()
		span, text := c.termSpan(start, end)
		if len(span) == 0 {
			c.Log.Warn("entity without tokens skipped", "entity", e.Text(), "start", start, "end", end)
			continue
		}
		c.Doc.AddEntity(naf.Entity{
			ID:      ids.Next(),
			Type:    e.Label(),
			Span:    span,
			Comment: text,
		})
	}
	return nil
}

type edge struct {
	from, to, rfunc string
	comment         string
}

// AddDepsLayer walks, for every token, the chain of heads up to the
// sentence root and writes one dependency per step. Edges are written once
// per sentence. A chain that returns to a token already seen is a cycle: it
// is logged and the walk of that token stops.
func AddDepsLayer(c *Context) error {
	c.Doc.AddProcessor(naf.LayerDeps, c.processor())
	c.Doc.EnsureLayer(naf.LayerDeps)

	cor := c.correction()
	var (
		edges    []edge
		sentence int
	)
	flush := func() {
		for _, e := range lo.Uniq(edges) {
			c.Doc.AddDependency(naf.Dependency{From: e.from, To: e.to, RFunc: e.rfunc, Comment: e.comment})
		}
		edges = edges[:0]
	}

	for _, p := range c.positions() {
		if p.sentence != sentence {
			flush()
			sentence = p.sentence
		}

		cur := p
		visited := map[int]bool{cur.pos: true}
		for {
			head, headPos, ok := cur.headPos(cor)
			if !ok {
				break
			}
			if visited[headPos] {
				c.Log.Error("dependency cycle", "sentence", p.sentence, "token", p.tok.Text(), "head", head.Text())
				break
			}
			visited[headPos] = true

			label := cur.tok.DepLabel()
			edges = append(edges, edge{
				from:    c.termID(headPos),
				to:      c.termID(cur.pos),
				rfunc:   label,
				comment: fmt.Sprintf("%s(%s,%s)", label, head.Text(), cur.tok.Text()),
			})
			cur = position{tok: head, sent: cur.sent, sentence: cur.sentence, pos: headPos, total: cur.total}
		}
	}
	flush()
	return nil
}

// lemmaRules join the lemmas of a separable verb and its particle.
var lemmaRules = map[string]func(verb, particle string) string{
	"nl": func(verb, particle string) string { return particle + verb },
	"de": func(verb, particle string) string { return particle + verb },
	"en": func(verb, particle string) string { return verb + "_" + particle },
}

// AddMultiwordsLayer groups every verb and particle linked by
// PhrasalRelation in the deps layer into a multiword, and marks both terms
// as its components. Previous phrasal multiwords and the processor record
// of the engine are removed first, so the layer can be rebuilt. The record
// is only written when a multiword is. Languages without a lemma rule are
// skipped.
func AddMultiwordsLayer(c *Context) error {
	lang := c.Doc.Language()
	rule, ok := lemmaRules[lang]
	if !ok {
		c.Log.Info("multiwords not supported for language, layer skipped", "lang", lang)
		return nil
	}

	if n := c.Doc.RemoveMultiwords(MultiwordType); n > 0 {
		c.Log.Debug("previous multiwords removed", "count", n)
	}
	lp := c.processor()
	c.Doc.RemoveProcessor(naf.LayerMultiwords, lp.Name)

	terms := lo.KeyBy(c.Doc.Terms(), func(t naf.Term) string { return t.ID })
	used := map[string]bool{}
	for _, dep := range c.Doc.Dependencies() {
		if dep.RFunc != PhrasalRelation {
			continue
		}
		verb, okVerb := terms[dep.From]
		particle, okParticle := terms[dep.To]
		if !okVerb || !okParticle {
			c.Log.Warn("phrasal dependency references unknown term", "from", dep.From, "to", dep.To)
			continue
		}
		if used[verb.ID] || used[particle.ID] {
			c.Log.Warn("term already part of a multiword", "from", dep.From, "to", dep.To)
			continue
		}

		if len(used) == 0 {
			c.Doc.AddProcessor(naf.LayerMultiwords, lp)
		}
		id := c.Doc.AddMultiword(naf.Multiword{
			ID:    c.Doc.NextID(naf.KindMultiword),
			Lemma: rule(verb.Lemma, particle.Lemma),
			POS:   "VERB",
			Type:  MultiwordType,
			Components: []naf.Component{
				{Type: verb.Type, Lemma: verb.Lemma, POS: verb.POS, Span: []string{verb.ID}, Comment: verb.Lemma},
				{Type: particle.Type, Lemma: particle.Lemma, POS: particle.POS, Span: []string{particle.ID}, Comment: particle.Lemma},
			},
		})
		c.Doc.SetComponentOf(verb.ID, id)
		c.Doc.SetComponentOf(particle.ID, id)
		used[verb.ID], used[particle.ID] = true, true
	}
	return nil
}

// AddChunksLayer writes one chunk per noun chunk. A chunk preceded by an
// adposition in the same sentence is extended over it and becomes a PP.
func AddChunksLayer(c *Context) error {
	c.Doc.AddProcessor(naf.LayerChunks, c.processor())
	c.Doc.EnsureLayer(naf.LayerChunks)

	toks := c.positions()
	ids := c.Doc.NewCounter(naf.KindChunk)
	for _, ch := range c.Output.NounChunks() {
		start, end := ch.Bounds()
		phrase := PhraseNP
		if start > 0 && start < len(toks) {
			prev := toks[start-1]
			if prev.tok.POS() == "ADP" && prev.sentence == toks[start].sentence {
				start--
				phrase = PhrasePP
			}
		}

		span, text := c.termSpan(start, end)
		if len(span) == 0 {
			c.Log.Warn("chunk without tokens skipped", "start", start, "end", end)
			continue
		}

		var head string
		if h := ch.Head(); h >= 0 && h < len(toks) {
			head = c.termID(toks[h].pos)
		}
		c.Doc.AddChunk(naf.Chunk{
			ID:      ids.Next(),
			Head:    head,
			Phrase:  phrase,
			Span:    span,
			Comment: text,
		})
	}
	return nil
}
