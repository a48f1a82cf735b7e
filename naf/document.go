// Package naf holds the NLP Annotation Format document model.
//
// A Document owns one mutable XML tree. Layers (raw, text, terms, deps,
// chunks, entities, multiwords, formats) are created lazily on first write,
// placed in canonical order, and only ever appended to. Accessors rebuild
// typed records by walking the stored XML, so a Document loaded from disk
// and one built in memory answer the same way.
package naf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"
)

const (
	// DefaultVersion is the NAF version written by New when none is given.
	DefaultVersion = "v3.1"

	rootElement = "NAF"

	// timeLayout renders timestamps as YYYY-MM-DDThh:mm:ssUTC.
	timeLayout = "2006-01-02T15:04:05UTC"

	xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>`
)

var (
	// ErrNotNAF is returned when a parsed tree has no NAF root element.
	ErrNotNAF = errors.New("not a NAF document")

	// ErrRawWritten is returned when the raw layer already holds text.
	ErrRawWritten = errors.New("raw layer already written")
)

// Layer names a top-level annotation category.
type Layer string

const (
	LayerHeader     Layer = "nafHeader"
	LayerRaw        Layer = "raw"
	LayerText       Layer = "text"
	LayerTerms      Layer = "terms"
	LayerDeps       Layer = "deps"
	LayerChunks     Layer = "chunks"
	LayerEntities   Layer = "entities"
	LayerMultiwords Layer = "multiwords"
	LayerFormats    Layer = "formats"
)

// layerOrder is the canonical position of every layer under the root.
var layerOrder = []Layer{
	LayerHeader,
	LayerRaw,
	LayerText,
	LayerTerms,
	LayerDeps,
	LayerChunks,
	LayerEntities,
	LayerMultiwords,
	LayerFormats,
}

// Layers returns the annotation layers in canonical order, header excluded.
func Layers() []Layer {
	return append([]Layer(nil), layerOrder[1:]...)
}

func layerRank(name string) int {
	for i, l := range layerOrder {
		if string(l) == name {
			return i
		}
	}
	return len(layerOrder)
}

// Document is a NAF document. It is not safe for concurrent use.
type Document struct {
	root *xmlquery.Node
	naf  *xmlquery.Node
}

// New generates an empty document for the given language and NAF version.
func New(lang, version string) *Document {
	if version == "" {
		version = DefaultVersion
	}

	root := &xmlquery.Node{Type: xmlquery.DocumentNode}
	n := element(rootElement, "xml:lang", lang, "version", version)
	xmlquery.AddChild(root, n)

	return &Document{root: root, naf: n}
}

// Parse reads a NAF document. Whitespace between elements is dropped so
// that writing the document back is stable.
func Parse(r io.Reader) (*Document, error) {
	root, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing NAF: %w", err)
	}

	var n *xmlquery.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == rootElement {
			n = c
			break
		}
	}
	if n == nil {
		return nil, ErrNotNAF
	}

	stripWhitespace(n)
	return &Document{root: root, naf: n}, nil
}

// Open loads a NAF document from path.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("IO error: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// stripWhitespace removes whitespace-only text nodes, leaving the content of
// text-bearing elements untouched.
func stripWhitespace(n *xmlquery.Node) {
	switch n.Data {
	case "wf", "raw":
		return
	case "text":
		if n.Parent != nil && n.Parent.Data == "textline" {
			return
		}
	}

	c := n.FirstChild
	for c != nil {
		next := c.NextSibling
		switch c.Type {
		case xmlquery.TextNode:
			if strings.TrimSpace(c.Data) == "" {
				xmlquery.RemoveFromTree(c)
			}
		case xmlquery.ElementNode:
			stripWhitespace(c)
		}
		c = next
	}
}

// Language returns the xml:lang of the document.
func (d *Document) Language() string {
	return d.naf.SelectAttr("xml:lang")
}

// Version returns the NAF format version of the document.
func (d *Document) Version() string {
	return d.naf.SelectAttr("version")
}

// HasLayer reports whether the layer element exists.
func (d *Document) HasLayer(l Layer) bool {
	return d.layer(l) != nil
}

// LayerNames returns the names of the existing top-level elements, in
// document order.
func (d *Document) LayerNames() []string {
	var names []string
	for _, c := range childElements(d.naf, "") {
		names = append(names, c.Data)
	}
	return names
}

// EnsureLayer creates the layer element in its canonical position unless it
// exists. It reports whether the layer was created.
func (d *Document) EnsureLayer(l Layer) bool {
	if d.layer(l) != nil {
		return false
	}
	d.ensureLayer(l)
	return true
}

func (d *Document) layer(l Layer) *xmlquery.Node {
	for c := d.naf.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == string(l) {
			return c
		}
	}
	return nil
}

func (d *Document) ensureLayer(l Layer) *xmlquery.Node {
	if n := d.layer(l); n != nil {
		return n
	}

	n := element(string(l))
	rank := layerRank(string(l))
	for c := d.naf.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && layerRank(c.Data) > rank {
			insertBefore(c, n)
			return n
		}
	}
	xmlquery.AddChild(d.naf, n)
	return n
}

// Bytes serializes the document with an XML declaration and two-space
// indentation.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	// a bytes.Buffer never fails
	_ = d.Write(&buf)
	return buf.Bytes()
}

// Write serializes the document to w.
func (d *Document) Write(w io.Writer) error {
	if _, err := io.WriteString(w, xmlDeclaration); err != nil {
		return err
	}
	err := d.naf.WriteWithOptions(w,
		xmlquery.WithOutputSelf(),
		xmlquery.WithEmptyTagSupport(),
		xmlquery.WithIndentation("  "),
	)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// WriteFile serializes the document to path.
func (d *Document) WriteFile(path string) error {
	if err := os.WriteFile(path, d.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write NAF file %s: %w", path, err)
	}
	return nil
}

// element creates an element node. attrs are key/value pairs; pairs with an
// empty value are omitted.
func element(name string, attrs ...string) *xmlquery.Node {
	n := &xmlquery.Node{Type: xmlquery.ElementNode, Data: name}
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i+1] == "" {
			continue
		}
		xmlquery.AddAttr(n, attrs[i], attrs[i+1])
	}
	return n
}

func textNode(s string) *xmlquery.Node {
	return &xmlquery.Node{Type: xmlquery.TextNode, Data: s}
}

func commentNode(s string) *xmlquery.Node {
	return &xmlquery.Node{Type: xmlquery.CommentNode, Data: escapeComment(s)}
}

// insertBefore links n as the previous sibling of ref.
func insertBefore(ref, n *xmlquery.Node) {
	n.Parent = ref.Parent
	n.NextSibling = ref
	n.PrevSibling = ref.PrevSibling
	if ref.PrevSibling != nil {
		ref.PrevSibling.NextSibling = n
	} else if ref.Parent != nil {
		ref.Parent.FirstChild = n
	}
	ref.PrevSibling = n
}

// childElements returns the element children of n, filtered by name unless
// name is empty.
func childElements(n *xmlquery.Node, name string) []*xmlquery.Node {
	if n == nil {
		return nil
	}
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		if name != "" && c.Data != name {
			continue
		}
		out = append(out, c)
	}
	return out
}

func firstChild(n *xmlquery.Node, name string) *xmlquery.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == name {
			return c
		}
	}
	return nil
}
