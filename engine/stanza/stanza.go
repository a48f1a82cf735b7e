// Package stanza adapts the JSON form of a stanza Document.
//
// The expected input is an object with "text", "sentences" (the output of
// Document.to_dict(): one list of word objects per sentence), "entities"
// (type and character offsets of every entity) and an optional "meta".
// Word ids restart at 1 in every sentence and head 0 marks the root.
// Multi-word tokens (id given as a range) lend their character offsets to
// the words that follow them and are otherwise skipped.
package stanza

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/revelaction/naf/engine"
)

type wordJSON struct {
	ID        json.RawMessage `json:"id"`
	Text      string          `json:"text"`
	Lemma     string          `json:"lemma"`
	UPOS      string          `json:"upos"`
	XPOS      string          `json:"xpos"`
	Feats     string          `json:"feats"`
	Head      int             `json:"head"`
	Deprel    string          `json:"deprel"`
	StartChar *int            `json:"start_char"`
	EndChar   *int            `json:"end_char"`
	Misc      string          `json:"misc"`
}

type entityJSON struct {
	Text      string `json:"text"`
	Type      string `json:"type"`
	StartChar int    `json:"start_char"`
	EndChar   int    `json:"end_char"`
}

type metaJSON struct {
	Lang    string `json:"lang"`
	Model   string `json:"model"`
	Version string `json:"version"`
}

type docJSON struct {
	Text      string       `json:"text"`
	Sentences [][]wordJSON `json:"sentences"`
	Entities  []entityJSON `json:"entities"`
	Meta      metaJSON     `json:"meta"`
}

// Meta describes the pipeline that produced a document.
type Meta struct {
	Model   string
	Version string
}

// wordID returns the id of a word, false for a multi-word token range.
func wordID(raw json.RawMessage) (int, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		return 0, false, nil
	}
	var id int
	if err := json.Unmarshal(raw, &id); err != nil {
		return 0, false, fmt.Errorf("invalid word id %s", raw)
	}
	return id, true, nil
}

// charsFromMisc reads start_char and end_char from a misc field of the form
// start_char=0|end_char=3.
func charsFromMisc(misc string) (int, int, bool) {
	start, end := -1, -1
	for _, kv := range strings.Split(misc, "|") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		switch k {
		case "start_char":
			start = n
		case "end_char":
			end = n
		}
	}
	return start, end, start >= 0 && end >= 0
}

// Decode parses stanza JSON. Entity bounds, given in characters, are
// resolved to the global token positions of the words they overlap.
func Decode(data []byte) (engine.Document, Meta, error) {
	var dj docJSON
	if err := json.Unmarshal(data, &dj); err != nil {
		return nil, Meta{}, fmt.Errorf("decoding stanza output: %w", err)
	}
	meta := Meta{Model: dj.Meta.Model, Version: dj.Meta.Version}
	if meta.Model == "" && dj.Meta.Lang != "" {
		meta.Model = dj.Meta.Lang + "_default"
	}

	d := &document{text: dj.Text}
	for si, sj := range dj.Sentences {
		s := &sentence{}
		// offsets of the enclosing multi-word token
		mwtStart, mwtEnd := -1, -1

		for _, wj := range sj {
			id, ok, err := wordID(wj.ID)
			if err != nil {
				return nil, meta, fmt.Errorf("decoding stanza output: sentence %d: %w", si+1, err)
			}
			start, end := -1, -1
			switch {
			case wj.StartChar != nil && wj.EndChar != nil:
				start, end = *wj.StartChar, *wj.EndChar
			default:
				if ms, me, found := charsFromMisc(wj.Misc); found {
					start, end = ms, me
				}
			}

			if !ok {
				mwtStart, mwtEnd = start, end
				continue
			}
			if start < 0 {
				start, end = mwtStart, mwtEnd
			}
			if start < 0 {
				return nil, meta, fmt.Errorf("decoding stanza output: sentence %d word %d has no character offsets", si+1, id)
			}
			if id != len(s.tokens)+1 {
				return nil, meta, fmt.Errorf("decoding stanza output: sentence %d word %d out of sequence", si+1, id)
			}

			s.tokens = append(s.tokens, &token{j: wj, id: id, start: start, end: end})
		}

		for _, t := range s.tokens {
			if t.j.Head < 0 || t.j.Head > len(s.tokens) {
				return nil, meta, fmt.Errorf("decoding stanza output: sentence %d word %d has head %d", si+1, t.id, t.j.Head)
			}
		}
		d.sentences = append(d.sentences, s)
	}

	for _, ej := range dj.Entities {
		start, end := d.tokenBounds(ej.StartChar, ej.EndChar)
		d.entities = append(d.entities, &entity{text: ej.Text, label: ej.Type, start: start, end: end})
	}

	return d, meta, nil
}

// tokenBounds returns the global token positions [start, end) of the words
// overlapping the character range [cstart, cend).
func (d *document) tokenBounds(cstart, cend int) (int, int) {
	start, end := -1, -1
	pos := 0
	for _, s := range d.sentences {
		for _, t := range s.(*sentence).tokens {
			if t.end > cstart && t.start < cend {
				if start < 0 {
					start = pos
				}
				end = pos + 1
			}
			pos++
		}
	}
	if start < 0 {
		return 0, 0
	}
	return start, end
}

type document struct {
	text      string
	sentences []engine.Sentence
	entities  []engine.Entity
}

func (d *document) Text() string                 { return d.text }
func (d *document) Sentences() []engine.Sentence { return d.sentences }
func (d *document) Entities() []engine.Entity    { return d.entities }

// NounChunks is empty: stanza has no noun chunker.
func (d *document) NounChunks() []engine.Chunk { return nil }

type sentence struct {
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
	if !ok || tok.j.Head == 0 {
		return nil, false
	}
	return s.tokens[tok.j.Head-1], true
}

type token struct {
	j          wordJSON
	id         int
	start, end int
}

func (t *token) Text() string     { return t.j.Text }
func (t *token) Lemma() string    { return t.j.Lemma }
func (t *token) POS() string      { return t.j.UPOS }
func (t *token) Morph() string    { return t.j.Feats }
func (t *token) Offset() int      { return t.start }
func (t *token) Index() int       { return t.id }
func (t *token) DepLabel() string { return t.j.Deprel }

type entity struct {
	text       string
	label      string
	start, end int
}

func (e *entity) Text() string       { return e.text }
func (e *entity) Label() string      { return e.label }
func (e *entity) Bounds() (int, int) { return e.start, e.end }

// Engine runs stanza through a Runner.
type Engine struct {
	runner  engine.Runner
	model   string
	version string
}

var _ engine.Engine = (*Engine)(nil)

// Script prints the JSON read by Decode for the text on stdin. It takes
// the language as its argument.
//
//go:embed stanza.py
var Script string

// Command runs Script with python3 for lang.
func Command(lang string) []string {
	return []string{"python3", "-c", Script, lang}
}

// New is the engine.Factory of stanza. Without a runner or a command,
// Script is run for the configured language.
func New(cfg engine.Config) (engine.Engine, error) {
	if cfg.Model == "" {
		cfg.Model = cfg.Language
	}
	if cfg.Runner == nil && len(cfg.Command) == 0 {
		cfg.Command = Command(cfg.Language)
	}

	r, err := engine.RunnerFor(cfg)
	if err != nil {
		return nil, err
	}
	return &Engine{runner: r, model: cfg.Model}, nil
}

func (e *Engine) Name() engine.Name          { return engine.Stanza }
func (e *Engine) Model() string              { return e.model }
func (e *Engine) Version() string            { return e.version }
func (e *Engine) ResetsTokenNumbering() bool { return true }
func (e *Engine) FirstTokenIndex() int       { return 1 }

// Process runs stanza over text.
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
