// Package memory is an engine built from Go values. It serves tests and
// callers that already hold tokenized input, and can number tokens either
// continuously from 0 or from 1 in every sentence.
package memory

import (
	"context"
	"strings"
	"unicode"

	"github.com/revelaction/naf/engine"
)

// Token is one token of a sentence.
type Token struct {
	Text   string
	Lemma  string
	POS    string
	Morph  string
	Dep    string
	Offset int

	// Head is the position of the head token within the sentence, or -1
	// for the root.
	Head int
}

// Entity spans the global token positions [Start, End).
type Entity struct {
	Text  string
	Label string
	Start int
	End   int
}

// Chunk spans the global token positions [Start, End) with its head at the
// global position Head.
type Chunk struct {
	Start int
	End   int
	Head  int
}

// Doc is the input of the engine.
type Doc struct {
	Text       string
	Sentences  [][]Token
	Entities   []Entity
	NounChunks []Chunk
}

// Engine returns Doc on every Process call.
type Engine struct {
	doc     Doc
	reset   bool
	name    engine.Name
	model   string
	version string
}

var _ engine.Engine = (*Engine)(nil)

// New returns an engine for doc. With reset, token numbers restart at 1 in
// every sentence; otherwise they run from 0 over the document.
func New(doc Doc, reset bool) *Engine {
	return &Engine{doc: doc, reset: reset, name: "memory", model: "memory", version: "1"}
}

// WithName sets the name, model and version reported by the engine.
func (e *Engine) WithName(name engine.Name, model, version string) *Engine {
	e.name, e.model, e.version = name, model, version
	return e
}

func (e *Engine) Name() engine.Name         { return e.name }
func (e *Engine) Model() string             { return e.model }
func (e *Engine) Version() string           { return e.version }
func (e *Engine) ResetsTokenNumbering() bool { return e.reset }

func (e *Engine) FirstTokenIndex() int {
	if e.reset {
		return 1
	}
	return 0
}

// Process ignores text and returns the configured document.
func (e *Engine) Process(ctx context.Context, _ string) (engine.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d := &document{doc: e.doc}
	global := 0
	for _, st := range e.doc.Sentences {
		s := &sentence{}
		for i, t := range st {
			idx := global + i
			if e.reset {
				idx = i + 1
			}
			s.tokens = append(s.tokens, &token{tok: t, index: idx})
		}
		for i, t := range st {
			if t.Head >= 0 && t.Head < len(s.tokens) && t.Head != i {
				s.heads = append(s.heads, s.tokens[t.Head])
			} else {
				s.heads = append(s.heads, nil)
			}
		}
		global += len(st)
		d.sentences = append(d.sentences, s)
	}
	return d, nil
}

type document struct {
	doc       Doc
	sentences []engine.Sentence
}

func (d *document) Text() string                { return d.doc.Text }
func (d *document) Sentences() []engine.Sentence { return d.sentences }

func (d *document) Entities() []engine.Entity {
	out := make([]engine.Entity, 0, len(d.doc.Entities))
	for _, e := range d.doc.Entities {
		out = append(out, entity{e})
	}
	return out
}

func (d *document) NounChunks() []engine.Chunk {
	out := make([]engine.Chunk, 0, len(d.doc.NounChunks))
	for _, c := range d.doc.NounChunks {
		out = append(out, chunk{c})
	}
	return out
}

type sentence struct {
	tokens []*token
	heads  []*token
}

func (s *sentence) Tokens() []engine.Token {
	out := make([]engine.Token, len(s.tokens))
	for i, t := range s.tokens {
		out[i] = t
	}
	return out
}

func (s *sentence) Head(t engine.Token) (engine.Token, bool) {
	for i, tok := range s.tokens {
		if tok == t {
			if h := s.heads[i]; h != nil {
				return h, true
			}
			return nil, false
		}
	}
	return nil, false
}

type token struct {
	tok   Token
	index int
}

func (t *token) Text() string     { return t.tok.Text }
func (t *token) Lemma() string    { return t.tok.Lemma }
func (t *token) POS() string      { return t.tok.POS }
func (t *token) Morph() string    { return t.tok.Morph }
func (t *token) Offset() int      { return t.tok.Offset }
func (t *token) Index() int       { return t.index }
func (t *token) DepLabel() string { return t.tok.Dep }

type entity struct{ e Entity }

func (e entity) Text() string       { return e.e.Text }
func (e entity) Label() string      { return e.e.Label }
func (e entity) Bounds() (int, int) { return e.e.Start, e.e.End }

type chunk struct{ c Chunk }

func (c chunk) Bounds() (int, int) { return c.c.Start, c.c.End }
func (c chunk) Head() int          { return c.c.Head }

// Tokenize splits text into sentences of tokens: runs of letters and digits
// form a token, every other non-space rune is a token of its own and ., !
// and ? end a sentence. The first token of a sentence is its root and every
// other token depends on it. Lemmas are lower case.
func Tokenize(text string) Doc {
	doc := Doc{Text: text}
	var cur []Token
	flush := func() {
		if len(cur) > 0 {
			doc.Sentences = append(doc.Sentences, cur)
			cur = nil
		}
	}

	runes := []rune(text)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			j := i
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j])) {
				j++
			}
			cur = append(cur, word(string(runes[i:j]), i, len(cur)))
			i = j
		default:
			cur = append(cur, word(string(r), i, len(cur)))
			i++
			if r == '.' || r == '!' || r == '?' {
				flush()
			}
		}
	}
	flush()
	return doc
}

func word(text string, offset, pos int) Token {
	t := Token{Text: text, Lemma: strings.ToLower(text), POS: "X", Offset: offset, Head: 0, Dep: "dep"}
	if pos == 0 {
		t.Head = -1
		t.Dep = "root"
	}
	if len([]rune(text)) == 1 && unicode.IsPunct([]rune(text)[0]) {
		t.POS = "PUNCT"
		t.Dep = "punct"
		if pos == 0 {
			t.Dep = "root"
		}
	}
	return t
}
