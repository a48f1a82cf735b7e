// Package layer builds the NAF layers of a document from the output of an
// NLP engine.
//
// Every builder walks the engine sentences and tokens and derives the
// document position of each token from the engine's numbering. Builders
// share a Context, which records the identifiers they write by position so
// later layers can reference earlier ones without searching the tree.
package layer

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/revelaction/naf/engine"
	"github.com/revelaction/naf/layout"
	"github.com/revelaction/naf/logging"
	"github.com/revelaction/naf/naf"
)

// Builder writes one layer.
type Builder func(c *Context) error

// Context is the mutable state of one pipeline run. It must not be shared
// between runs.
type Context struct {
	Doc    *naf.Document
	Engine engine.Engine
	Output engine.Document

	// Begin and End bound the engine run.
	Begin time.Time
	End   time.Time

	Hostname string

	// PosMapping maps engine tags through PosMap.
	PosMapping bool

	// Layout is the source layout, nil for plain text.
	Layout *layout.Layout

	Log *slog.Logger

	// word form and term ids by 1-based document position
	wfIDs   map[int]string
	termIDs map[int]string

	tokens []position
}

// position is a token together with where it sits in the document.
type position struct {
	tok  engine.Token
	sent engine.Sentence

	// sentence is the 1-based sentence number
	sentence int
	// pos is the 1-based document position
	pos int
	// total is the correction added to the indexes of the sentence
	total int
}

// headPos returns the document position of the head of p.
func (p position) headPos(cor int) (engine.Token, int, bool) {
	h, ok := p.sent.Head(p.tok)
	if !ok {
		return nil, 0, false
	}
	return h, h.Index() + cor + p.total, true
}

// NewContext returns the context of one run of eng producing out.
func NewContext(doc *naf.Document, eng engine.Engine, out engine.Document, begin, end time.Time) *Context {
	host, _ := os.Hostname()
	return &Context{
		Doc:      doc,
		Engine:   eng,
		Output:   out,
		Begin:    begin,
		End:      end,
		Hostname: host,
		Log:      logging.GetLogger(),
		wfIDs:    map[int]string{},
		termIDs:  map[int]string{},
	}
}

func (c *Context) processor() naf.ProcessorRecord {
	return naf.ProcessorRecord{
		Name:     string(c.Engine.Name()),
		Version:  c.Engine.Version(),
		Model:    c.Engine.Model(),
		Hostname: c.Hostname,
		Begin:    c.Begin,
		End:      c.End,
	}
}

// correction turns an engine index into a 1-based position.
func (c *Context) correction() int {
	return 1 - c.Engine.FirstTokenIndex()
}

// positions returns every token in document order, so that the slice
// index is the 0-based document position. For engines that restart
// numbering in every sentence, the tokens of previous sentences are added
// to the engine index.
func (c *Context) positions() []position {
	if c.tokens != nil {
		return c.tokens
	}

	cor := c.correction()
	totalTokens := 0
	c.tokens = []position{}
	for i, s := range c.Output.Sentences() {
		toks := s.Tokens()
		for _, t := range toks {
			c.tokens = append(c.tokens, position{
				tok:      t,
				sent:     s,
				sentence: i + 1,
				pos:      t.Index() + cor + totalTokens,
				total:    totalTokens,
			})
		}
		if c.Engine.ResetsTokenNumbering() {
			totalTokens += len(toks)
		}
	}
	return c.tokens
}

// wfID returns the word form written for position pos. Positions not seen
// by the text builder fall back to the id it would have given.
func (c *Context) wfID(pos int) string {
	if id, ok := c.wfIDs[pos]; ok {
		return id
	}
	return naf.KindWordForm.Prefix() + itoa(pos)
}

func (c *Context) termID(pos int) string {
	if id, ok := c.termIDs[pos]; ok {
		return id
	}
	return naf.KindTerm.Prefix() + itoa(pos)
}

// termSpan returns the term ids of the 0-based, end-exclusive positions
// [start, end) together with the text they cover.
func (c *Context) termSpan(start, end int) ([]string, string) {
	toks := c.positions()
	var (
		ids   []string
		texts []string
	)
	for p := start; p < end && p < len(toks); p++ {
		if p < 0 {
			continue
		}
		ids = append(ids, c.termID(toks[p].pos))
		texts = append(texts, toks[p].tok.Text())
	}
	return ids, strings.Join(texts, " ")
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
