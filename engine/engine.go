// Package engine defines what the layer builders need from an NLP engine and
// the registry of supported engines.
//
// Engines number tokens differently: some count continuously from 0 over
// the whole document, others restart at 1 in every sentence. Adapters keep
// the engine's own numbering in Token.Index and declare it through
// ResetsTokenNumbering and FirstTokenIndex; entity and chunk bounds are
// always given as document-global, zero-based, end-exclusive token
// positions.
package engine

import (
	"context"
	"errors"
	"fmt"
)

// Name identifies an engine family.
type Name string

const (
	Spacy  Name = "spacy"
	Stanza Name = "stanza"
)

// ErrConfig is wrapped by every configuration error.
var ErrConfig = errors.New("configuration error")

// ConfigError reports an invalid engine configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfig, e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfig
}

// Engine runs NLP over a text.
type Engine interface {
	Name() Name
	Model() string
	Version() string

	// ResetsTokenNumbering reports whether Token.Index restarts in every
	// sentence.
	ResetsTokenNumbering() bool

	// FirstTokenIndex is the Index of the first token, 0 or 1.
	FirstTokenIndex() int

	Process(ctx context.Context, text string) (Document, error)
}

// Document is the engine output for one text.
type Document interface {
	// Text is the text as the engine saw it.
	Text() string
	Sentences() []Sentence
	Entities() []Entity
	NounChunks() []Chunk
}

// Sentence is a sequence of tokens.
type Sentence interface {
	Tokens() []Token

	// Head returns the syntactic head of t, false when t is the root.
	Head(t Token) (Token, bool)
}

// Token is one word of a sentence.
type Token interface {
	Text() string
	Lemma() string
	POS() string
	Morph() string

	// Offset is the rune offset of the token in Document.Text.
	Offset() int

	// Index is the engine's own token number.
	Index() int
	DepLabel() string
}

// Entity is a named entity.
type Entity interface {
	Text() string
	Label() string
	Bounds() (start, end int)
}

// Chunk is a noun chunk. Head is the global token position of its head.
type Chunk interface {
	Bounds() (start, end int)
	Head() int
}
