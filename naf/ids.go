package naf

import (
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Kind is an identifier namespace.
type Kind int

const (
	KindWordForm Kind = iota
	KindTerm
	KindEntity
	KindChunk
	KindMultiword
)

type kindInfo struct {
	layer   Layer
	element string
	prefix  string
}

var kinds = map[Kind]kindInfo{
	KindWordForm:  {LayerText, "wf", "w"},
	KindTerm:      {LayerTerms, "term", "t"},
	KindEntity:    {LayerEntities, "entity", "e"},
	KindChunk:     {LayerChunks, "chunk", "c"},
	KindMultiword: {LayerMultiwords, "mw", "mw"},
}

// Prefix returns the identifier prefix of the kind.
func (k Kind) Prefix() string {
	return kinds[k].prefix
}

// Layer returns the layer holding elements of the kind.
func (k Kind) Layer() Layer {
	return kinds[k].layer
}

// NextID returns the next free identifier of kind: the prefix followed by
// one more than the largest numeric suffix in use, or 1. Identifiers whose
// suffix is not a number are ignored. The layer is scanned on every call.
func (d *Document) NextID(k Kind) string {
	info := kinds[k]
	nodes := childElements(d.layer(info.layer), info.element)
	return info.prefix + strconv.Itoa(maxSuffix(nodes, info.prefix)+1)
}

// NextComponentID returns the next free component identifier inside the
// multiword mwID, e.g. mw3.c2.
func (d *Document) NextComponentID(mwID string) string {
	return nextComponentID(d.multiwordNode(mwID), mwID)
}

func nextComponentID(mw *xmlquery.Node, mwID string) string {
	prefix := mwID + ".c"
	return prefix + strconv.Itoa(maxSuffix(childElements(mw, "component"), prefix)+1)
}

func maxSuffix(nodes []*xmlquery.Node, prefix string) int {
	max := 0
	for _, n := range nodes {
		if v, ok := idSuffix(n.SelectAttr("id"), prefix); ok && v > max {
			max = v
		}
	}
	return max
}

func idSuffix(id, prefix string) (int, bool) {
	rest, ok := strings.CutPrefix(id, prefix)
	if !ok || rest == "" {
		return 0, false
	}
	v, err := strconv.Atoi(rest)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// Counter hands out consecutive identifiers of one kind starting at the
// value NextID would return. Builders writing many elements use it instead
// of rescanning the layer per element.
type Counter struct {
	prefix string
	next   int
}

// NewCounter seeds a counter for kind from the current document.
func (d *Document) NewCounter(k Kind) *Counter {
	info := kinds[k]
	nodes := childElements(d.layer(info.layer), info.element)
	return &Counter{prefix: info.prefix, next: maxSuffix(nodes, info.prefix) + 1}
}

// Next returns the next identifier and advances the counter.
func (c *Counter) Next() string {
	id := c.prefix + strconv.Itoa(c.next)
	c.next++
	return id
}
