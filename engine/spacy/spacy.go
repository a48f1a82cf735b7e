// Package spacy adapts the JSON form of a spaCy Doc.
//
// The expected input is the output of Doc.to_json() with two extra keys:
// "meta" (nlp.meta plus "spacy_version") and "noun_chunks" (token bounds
// and root of every noun chunk). Token ids are document-global and start at
// 0; a root token is its own head.
package spacy

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/revelaction/naf/engine"
)

type tokenJSON struct {
	ID    int    `json:"id"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Tag   string `json:"tag"`
	Pos   string `json:"pos"`
	Morph string `json:"morph"`
	Lemma string `json:"lemma"`
	Dep   string `json:"dep"`
	Head  int    `json:"head"`
}

type spanJSON struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label"`
}

type chunkJSON struct {
	Start int `json:"start"`
	End   int `json:"end"`
	Root  int `json:"root"`
}

type metaJSON struct {
	Lang         string `json:"lang"`
	Name         string `json:"name"`
	Version      string `json:"version"`
	SpacyVersion string `json:"spacy_version"`
}

type docJSON struct {
	Text       string      `json:"text"`
	Ents       []spanJSON  `json:"ents"`
	Sents      []spanJSON  `json:"sents"`
	Tokens     []tokenJSON `json:"tokens"`
	NounChunks []chunkJSON `json:"noun_chunks"`
	Meta       metaJSON    `json:"meta"`
}

// Meta describes the pipeline that produced a document.
type Meta struct {
	Model   string
	Version string
}

// Decode parses spaCy JSON. Entity bounds, given in characters by spaCy,
// are converted to token positions.
func Decode(data []byte) (engine.Document, Meta, error) {
	var dj docJSON
	if err := json.Unmarshal(data, &dj); err != nil {
		return nil, Meta{}, fmt.Errorf("decoding spaCy output: %w", err)
	}

	meta := Meta{Version: dj.Meta.SpacyVersion}
	if dj.Meta.Name != "" {
		meta.Model = dj.Meta.Name
		if dj.Meta.Lang != "" {
			meta.Model = dj.Meta.Lang + "_" + dj.Meta.Name
		}
	}
	if meta.Version == "" {
		meta.Version = dj.Meta.Version
	}

	text := []rune(dj.Text)
	d := &document{text: dj.Text, tokens: make([]*token, len(dj.Tokens))}
	for i, tj := range dj.Tokens {
		if tj.ID != i {
			return nil, meta, fmt.Errorf("decoding spaCy output: token %d has id %d", i, tj.ID)
		}
		if tj.Start < 0 || tj.End > len(text) || tj.Start > tj.End {
			return nil, meta, fmt.Errorf("decoding spaCy output: token %d bounds %d:%d outside text", i, tj.Start, tj.End)
		}
		d.tokens[i] = &token{j: tj, text: string(text[tj.Start:tj.End])}
	}
	for _, t := range d.tokens {
		if t.j.Head < 0 || t.j.Head >= len(d.tokens) {
			return nil, meta, fmt.Errorf("decoding spaCy output: token %d has head %d", t.j.ID, t.j.Head)
		}
	}

	d.sentences = splitSentences(d, dj.Sents)

	for _, e := range dj.Ents {
		if e.Start < 0 || e.End > len(text) || e.Start > e.End {
			return nil, meta, fmt.Errorf("decoding spaCy output: entity bounds %d:%d outside text", e.Start, e.End)
		}
		start, end := tokenBounds(d.tokens, e.Start, e.End)
		d.entities = append(d.entities, &entity{text: string(text[e.Start:e.End]), label: e.Label, start: start, end: end})
	}
	for _, c := range dj.NounChunks {
		d.chunks = append(d.chunks, &chunk{start: c.Start, end: c.End, head: c.Root})
	}

	return d, meta, nil
}

// splitSentences groups tokens by the character ranges of sents. Without
// sentence boundaries the whole document is one sentence.
func splitSentences(d *document, sents []spanJSON) []engine.Sentence {
	if len(sents) == 0 {
		sents = []spanJSON{{Start: 0, End: len([]rune(d.text))}}
	}

	var out []engine.Sentence
	i := 0
	for _, sj := range sents {
		s := &sentence{doc: d}
		for i < len(d.tokens) && d.tokens[i].j.Start < sj.End {
			if d.tokens[i].j.Start >= sj.Start {
				s.tokens = append(s.tokens, d.tokens[i])
			}
			i++
		}
		if len(s.tokens) > 0 {
			out = append(out, s)
		}
	}
	if i < len(d.tokens) {
		s := &sentence{doc: d, tokens: d.tokens[i:]}
		out = append(out, s)
	}
	return out
}

// tokenBounds returns the token positions [start, end) covering the
// character range [cstart, cend).
func tokenBounds(tokens []*token, cstart, cend int) (int, int) {
	start, end := -1, -1
	for i, t := range tokens {
		if t.j.End <= cstart || t.j.Start >= cend {
			continue
		}
		if start < 0 {
			start = i
		}
		end = i + 1
	}
	if start < 0 {
		return 0, 0
	}
	return start, end
}

type document struct {
	text      string
	tokens    []*token
	sentences []engine.Sentence
	entities  []engine.Entity
	chunks    []engine.Chunk
}

func (d *document) Text() string                 { return d.text }
func (d *document) Sentences() []engine.Sentence { return d.sentences }
func (d *document) Entities() []engine.Entity    { return d.entities }
func (d *document) NounChunks() []engine.Chunk   { return d.chunks }

type sentence struct {
	doc    *document
	tokens []*token
}

func (s *sentence) Tokens() []engine.Token {
	out := make([]engine.Token, len(s.tokens))
	for i, t := range s.tokens {
		out[i] = t
	}
	return out
}

func (s *sentence) Head(t engine.Token) (engine.Token, bool) {
	tok, ok := t.(*token)
	if !ok || tok.j.Head == tok.j.ID {
		return nil, false
	}
	return s.doc.tokens[tok.j.Head], true
}

type token struct {
	j    tokenJSON
	text string
}

func (t *token) Text() string     { return t.text }
func (t *token) Lemma() string    { return t.j.Lemma }
func (t *token) POS() string      { return t.j.Pos }
func (t *token) Morph() string    { return t.j.Morph }
func (t *token) Offset() int      { return t.j.Start }
func (t *token) Index() int       { return t.j.ID }
func (t *token) DepLabel() string { return t.j.Dep }

type entity struct {
	text       string
	label      string
	start, end int
}

func (e *entity) Text() string       { return e.text }
func (e *entity) Label() string      { return e.label }
func (e *entity) Bounds() (int, int) { return e.start, e.end }

type chunk struct {
	start, end, head int
}

func (c *chunk) Bounds() (int, int) { return c.start, c.end }
func (c *chunk) Head() int          { return c.head }

// Engine runs spaCy through a Runner.
type Engine struct {
	runner  engine.Runner
	model   string
	version string
}

var _ engine.Engine = (*Engine)(nil)

// Script prints the JSON read by Decode for the text on stdin. It takes
// the model name as its argument.
//
//go:embed spacy.py
var Script string

// DefaultModel returns the small pipeline of lang.
func DefaultModel(lang string) string {
	if lang == "en" {
		return "en_core_web_sm"
	}
	return lang + "_core_news_sm"
}

// Command runs Script with python3 for model.
func Command(model string) []string {
	return []string{"python3", "-c", Script, model}
}

// New is the engine.Factory of spaCy. Without a runner or a command, Script
// is run for the configured model.
func New(cfg engine.Config) (engine.Engine, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel(cfg.Language)
	}
	if cfg.Runner == nil && len(cfg.Command) == 0 {
		cfg.Command = Command(cfg.Model)
	}

	r, err := engine.RunnerFor(cfg)
	if err != nil {
		return nil, err
	}
	return &Engine{runner: r, model: cfg.Model}, nil
}

func (e *Engine) Name() engine.Name          { return engine.Spacy }
func (e *Engine) Model() string              { return e.model }
func (e *Engine) Version() string            { return e.version }
func (e *Engine) ResetsTokenNumbering() bool { return false }
func (e *Engine) FirstTokenIndex() int       { return 0 }

// Process runs spaCy over text. Model and version are taken from the
// output when it carries them.
func (e *Engine) Process(ctx context.Context, text string) (engine.Document, error) {
	out, err := e.runner.Run(ctx, text)
	if err != nil {
		return nil, err
	}

	doc, meta, err := Decode(out)
	if err != nil {
		return nil, err
	}
	if meta.Model != "" {
		e.model = meta.Model
	}
	if meta.Version != "" {
		e.version = meta.Version
	}
	return doc, nil
}
