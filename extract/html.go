package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/revelaction/naf/layout"
)

// sanitizer drops scripts, styles and the head before text is collected.
var sanitizer = bluemonday.UGCPolicy().SkipElementsContent("head", "title", "script", "style", "noscript")

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Blockquote: true, atom.Pre: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Tr: true, atom.Dt: true, atom.Dd: true, atom.Section: true, atom.Article: true,
	atom.Table: true, atom.Ul: true, atom.Ol: true,
}

// HTML extracts the visible text of an HTML document. Every block element
// becomes a textbox; <br> breaks a line.
func HTML(r io.Reader) (Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Source{}, fmt.Errorf("IO error: %w", err)
	}

	orig, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return Source{}, fmt.Errorf("parsing HTML: %w", err)
	}
	meta := Meta{Filetype: "html", Title: htmlTitle(orig), Author: htmlMeta(orig, "author")}

	clean, err := html.Parse(sanitizer.SanitizeReader(bytes.NewReader(data)))
	if err != nil {
		return Source{}, fmt.Errorf("parsing sanitized HTML: %w", err)
	}

	c := &htmlCollector{}
	c.walk(clean)
	c.endBlock()

	page := layout.Page{Number: 1}
	for _, box := range c.boxes {
		tb := layout.Textbox{}
		for _, line := range box {
			tb.Textlines = append(tb.Textlines, layout.Textline{Texts: []layout.Text{{Text: line}}})
		}
		page.Textboxes = append(page.Textboxes, tb)
	}
	return finish(&layout.Layout{Pages: []layout.Page{page}}, meta), nil
}

type htmlCollector struct {
	boxes [][]string
	lines []string
	cur   strings.Builder
	space bool
}

func (c *htmlCollector) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		c.text(n.Data)
		return
	case html.ElementNode:
		if n.DataAtom == atom.Br {
			c.endLine()
			return
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.DataAtom]
	if block {
		c.endBlock()
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.walk(ch)
	}
	if block {
		c.endBlock()
	}
}

// text appends s with runs of white space collapsed to one space.
func (c *htmlCollector) text(s string) {
	if s == "" {
		return
	}
	if strings.TrimLeftFunc(s, unicode.IsSpace) != s {
		c.space = true
	}
	for _, f := range strings.Fields(s) {
		if c.space && c.cur.Len() > 0 {
			c.cur.WriteByte(' ')
		}
		c.cur.WriteString(f)
		c.space = true
	}
	c.space = strings.TrimRightFunc(s, unicode.IsSpace) != s
}

func (c *htmlCollector) endLine() {
	line := strings.TrimSpace(c.cur.String())
	c.cur.Reset()
	c.space = false
	if line != "" {
		c.lines = append(c.lines, line+"\n")
	}
}

func (c *htmlCollector) endBlock() {
	c.endLine()
	if len(c.lines) == 0 {
		return
	}
	if len(c.boxes) > 0 {
		// blank line between paragraphs
		prev := c.boxes[len(c.boxes)-1]
		prev[len(prev)-1] += "\n"
	}
	c.boxes = append(c.boxes, c.lines)
	c.lines = nil
}

func htmlTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		var b strings.Builder
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			if ch.Type == html.TextNode {
				b.WriteString(ch.Data)
			}
		}
		return strings.TrimSpace(b.String())
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if t := htmlTitle(ch); t != "" {
			return t
		}
	}
	return ""
}

func htmlMeta(n *html.Node, name string) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Meta {
		var key, content string
		for _, a := range n.Attr {
			switch a.Key {
			case "name":
				key = a.Val
			case "content":
				content = a.Val
			}
		}
		if strings.EqualFold(key, name) {
			return content
		}
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if v := htmlMeta(ch, name); v != "" {
			return v
		}
	}
	return ""
}
