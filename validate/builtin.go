package validate

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/samber/lo"
)

type rule struct {
	required []string
	// children allowed under the element, in order. nil means character
	// data only.
	children []string
	ordered  bool
	unique   bool
}

var v31 = map[string]rule{
	"NAF": {
		required: []string{"xml:lang", "version"},
		children: []string{"nafHeader", "raw", "text", "terms", "deps", "chunks", "entities", "multiwords", "formats"},
		ordered:  true,
		unique:   true,
	},
	"nafHeader":            {children: []string{"fileDesc", "public", "linguisticProcessors"}, ordered: true},
	"fileDesc":             {},
	"public":               {},
	"linguisticProcessors": {required: []string{"layer"}, children: []string{"lp"}},
	"lp":                   {required: []string{"name"}},
	"raw":                  {},
	"text":                 {children: []string{"wf"}},
	"wf":                   {required: []string{"id", "offset", "length"}},
	"terms":                {children: []string{"term"}},
	"term":                 {required: []string{"id"}, children: []string{"span", "externalReferences"}, ordered: true, unique: true},
	"span":                 {children: []string{"target"}},
	"target":               {required: []string{"id"}},
	"externalReferences":   {children: []string{"externalRef"}},
	"externalRef":          {required: []string{"reference"}},
	"deps":                 {children: []string{"dep"}},
	"dep":                  {required: []string{"from", "to", "rfunc"}},
	"chunks":               {children: []string{"chunk"}},
	"chunk":                {required: []string{"id", "head"}, children: []string{"span"}, unique: true},
	"entities":             {children: []string{"entity"}},
	"entity":               {required: []string{"id"}, children: []string{"references", "span", "externalReferences"}},
	"references":           {children: []string{"span"}},
	"multiwords":           {children: []string{"mw"}},
	"mw":                   {required: []string{"id", "type"}, children: []string{"component", "externalReferences"}},
	"component":            {required: []string{"id"}, children: []string{"span", "externalReferences"}},
	"formats":              {children: []string{"page"}},
	"page":                 {children: []string{"textbox"}},
	"textbox":              {children: []string{"textline"}},
	"textline":             {children: []string{"text"}},
	"run":                  {},
}

// v3 has no formats layer.
var v3 = func() map[string]rule {
	m := make(map[string]rule, len(v31))
	for k, r := range v31 {
		m[k] = r
	}
	root := m["NAF"]
	root.children = lo.Without(root.children, "formats")
	m["NAF"] = root
	for _, k := range []string{"formats", "page", "textbox", "textline", "run"} {
		delete(m, k)
	}
	return m
}()

var models = map[string]map[string]rule{
	"v3":   v3,
	"v3.1": v31,
}

// Builtin validates the content model and cross references of a NAF
// document without external tools.
type Builtin struct{}

var _ Validator = Builtin{}

// Validate implements Validator.
func (Builtin) Validate(_ context.Context, data []byte, version string) ([]Defect, error) {
	model, ok := models[version]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVersion, version)
	}

	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing NAF: %w", err)
	}

	root := xmlquery.FindOne(doc, "/NAF")
	if root == nil {
		return []Defect{{Path: "/", Message: "missing NAF root element"}}, nil
	}

	c := &checker{model: model, ids: map[string]string{}}
	if v := root.SelectAttr("version"); v != "" && v != version {
		c.add("/NAF", "version %q does not match %q", v, version)
	}
	c.walk(root, "/NAF")
	c.references(doc)

	return c.defects, nil
}

type checker struct {
	model   map[string]rule
	ids     map[string]string
	defects []Defect
}

func (c *checker) add(path, format string, args ...any) {
	c.defects = append(c.defects, Defect{Path: path, Message: fmt.Sprintf(format, args...)})
}

// ruleName resolves the element name to its rule; text runs of the formats
// layer share the name of the text layer.
func ruleName(n *xmlquery.Node) string {
	if n.Data == "text" && n.Parent != nil && n.Parent.Data == "textline" {
		return "run"
	}
	return n.Data
}

func nodePath(parent string, n *xmlquery.Node, index int) string {
	if id := n.SelectAttr("id"); id != "" {
		return fmt.Sprintf("%s/%s[@id='%s']", parent, n.Data, id)
	}
	return fmt.Sprintf("%s/%s[%d]", parent, n.Data, index)
}

func (c *checker) walk(n *xmlquery.Node, path string) {
	r, ok := c.model[ruleName(n)]
	if !ok {
		c.add(path, "element %s not allowed", n.Data)
		return
	}

	for _, a := range r.required {
		if !n.HasAttr(a) {
			c.add(path, "missing required attribute %s", a)
		}
	}

	if id := n.SelectAttr("id"); id != "" && n.Data != "target" {
		if prev, dup := c.ids[id]; dup {
			c.add(path, "duplicate id %s, first used at %s", id, prev)
		} else {
			c.ids[id] = path
		}
	}

	last := -1
	seen := map[string]bool{}
	index := map[string]int{}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		switch ch.Type {
		case xmlquery.TextNode, xmlquery.CharDataNode:
			if r.children != nil && strings.TrimSpace(ch.Data) != "" {
				c.add(path, "unexpected character data")
			}
			continue
		case xmlquery.ElementNode:
		default:
			continue
		}

		index[ch.Data]++
		childPath := nodePath(path, ch, index[ch.Data])

		pos := lo.IndexOf(r.children, ch.Data)
		if pos < 0 {
			c.add(childPath, "element %s not allowed in %s", ch.Data, n.Data)
			continue
		}
		if r.unique && seen[ch.Data] && len(r.children) > 1 {
			c.add(childPath, "element %s repeated", ch.Data)
		}
		if r.ordered && pos < last {
			c.add(childPath, "element %s out of order", ch.Data)
		}
		seen[ch.Data] = true
		last = max(last, pos)

		c.walk(ch, childPath)
	}

	if n.Data == "span" && n.FirstChild == nil {
		c.add(path, "empty span")
	}
}

// references checks that spans and relations point at existing elements of
// the right layer.
func (c *checker) references(doc *xmlquery.Node) {
	idsOf := func(expr string) map[string]bool {
		m := map[string]bool{}
		for _, n := range xmlquery.Find(doc, expr) {
			m[n.SelectAttr("id")] = true
		}
		return m
	}
	wfs := idsOf("/NAF/text/wf")
	terms := idsOf("/NAF/terms/term")
	mws := idsOf("/NAF/multiwords/mw")

	check := func(expr string, known map[string]bool, what string) {
		for _, t := range xmlquery.Find(doc, expr) {
			if id := t.SelectAttr("id"); !known[id] {
				c.add(expr, "target %s is not a %s", id, what)
			}
		}
	}
	check("/NAF/terms/term/span/target", wfs, "word form")
	check("/NAF/entities/entity/span/target", terms, "term")
	check("/NAF/entities/entity/references/span/target", terms, "term")
	check("/NAF/chunks/chunk/span/target", terms, "term")
	check("/NAF/multiwords/mw/component/span/target", terms, "term")

	for _, d := range xmlquery.Find(doc, "/NAF/deps/dep") {
		for _, a := range []string{"from", "to"} {
			if v := d.SelectAttr(a); v != "" && !terms[v] {
				c.add("/NAF/deps/dep", "%s %s is not a term", a, v)
			}
		}
	}
	for _, ch := range xmlquery.Find(doc, "/NAF/chunks/chunk") {
		if h := ch.SelectAttr("head"); h != "" && !terms[h] {
			c.add(nodePath("/NAF/chunks", ch, 0), "head %s is not a term", h)
		}
	}
	for _, t := range xmlquery.Find(doc, "/NAF/terms/term[@component_of]") {
		if mw := t.SelectAttr("component_of"); !mws[mw] {
			c.add(nodePath("/NAF/terms", t, 0), "component_of %s is not a multiword", mw)
		}
	}
}
