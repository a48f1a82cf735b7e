package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/revelaction/naf/naf"
)

// JSONRenderer writes layer records as JSON to a writer.
type JSONRenderer struct {
	W io.Writer
}

// NewJSONRenderer creates a JSONRenderer writing to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{W: w}
}

// Render writes the records of l as a JSON array. An empty l writes an
// object keyed by layer name holding the records of every layer but the
// header.
func (r *JSONRenderer) Render(doc *naf.Document, l naf.Layer) error {
	enc := json.NewEncoder(r.W)
	enc.SetIndent("", "  ")

	if l != "" {
		if !doc.HasLayer(l) {
			return fmt.Errorf("document has no %s layer", l)
		}
		return enc.Encode(records(doc, l))
	}

	all := map[string][]map[string]string{}
	for _, name := range doc.LayerNames() {
		if naf.Layer(name) == naf.LayerHeader {
			continue
		}
		all[name] = records(doc, naf.Layer(name))
	}
	return enc.Encode(all)
}

func records(doc *naf.Document, l naf.Layer) []map[string]string {
	if l == naf.LayerRaw {
		return []map[string]string{{"text": doc.Raw()}}
	}
	recs := doc.Records(l)
	if recs == nil {
		return []map[string]string{}
	}
	return recs
}

// compile-time interface check
var _ Renderer = (*JSONRenderer)(nil)
