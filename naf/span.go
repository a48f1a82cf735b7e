package naf

import (
	"strings"

	"github.com/antchfx/xmlquery"
)

// escapeComment makes s safe as XML comment content: "--" is not allowed
// inside a comment and a comment may not end in "-".
func escapeComment(s string) string {
	s = strings.ReplaceAll(s, "--", "DOUBLEDASH")
	if strings.HasSuffix(s, "-") {
		s = strings.TrimSuffix(s, "-") + "SINGLEDASH"
	}
	return s
}

// appendSpan appends an optional comment and a span element with one target
// per id to parent.
func appendSpan(parent *xmlquery.Node, ids []string, comment string) {
	if comment != "" {
		xmlquery.AddChild(parent, commentNode(comment))
	}
	span := element("span")
	for _, id := range ids {
		xmlquery.AddChild(span, element("target", "id", id))
	}
	xmlquery.AddChild(parent, span)
}

// spanOf returns the target ids of the span child of n.
func spanOf(n *xmlquery.Node) []string {
	var ids []string
	for _, t := range childElements(firstChild(n, "span"), "target") {
		ids = append(ids, t.SelectAttr("id"))
	}
	return ids
}

// commentOf returns the content of the first comment child of n.
func commentOf(n *xmlquery.Node) string {
	if n == nil {
		return ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.CommentNode {
			return c.Data
		}
	}
	return ""
}
