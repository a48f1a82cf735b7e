// Package extract turns source files into the text handed to an NLP engine,
// together with the layout of the source when it has one.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/revelaction/naf/layout"
)

// ErrUnsupported is returned for file types without an extractor.
var ErrUnsupported = errors.New("unsupported file type")

// Meta describes the source file.
type Meta struct {
	Filename     string
	Filetype     string
	Title        string
	Author       string
	Pages        int
	CreationTime time.Time
}

// Source is an extracted document.
type Source struct {
	Text   string
	Layout *layout.Layout
	Meta   Meta
}

// Filetype returns the lower case extension of path without the dot.
func Filetype(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// Supported reports whether File can extract path.
func Supported(path string) bool {
	switch Filetype(path) {
	case "txt", "text", "html", "htm", "xhtml", "pdf", "docx":
		return true
	}
	return false
}

// File extracts the file at path according to its extension.
func File(path string) (Source, error) {
	var (
		src Source
		err error
	)

	switch ft := Filetype(path); ft {
	case "txt", "text", "":
		var data []byte
		data, err = os.ReadFile(path)
		if err == nil {
			src = Text(string(data))
		}
	case "html", "htm", "xhtml":
		var f *os.File
		f, err = os.Open(path)
		if err == nil {
			src, err = HTML(f)
			f.Close()
		}
	case "pdf":
		src, err = PDF(path)
	case "docx":
		src, err = DOCX(path)
	default:
		return Source{}, fmt.Errorf("%w: %s", ErrUnsupported, ft)
	}
	if err != nil {
		return Source{}, fmt.Errorf("extracting %s: %w", path, err)
	}

	src.Meta.Filename = filepath.Base(path)
	src.Meta.Filetype = Filetype(path)
	if src.Meta.Title == "" {
		src.Meta.Title = strings.TrimSuffix(src.Meta.Filename, filepath.Ext(path))
	}
	if fi, err := os.Stat(path); err == nil {
		src.Meta.CreationTime = fi.ModTime().UTC()
	}
	return src, nil
}

// normalize returns s in Unicode normalization form C, the form offsets are
// counted in.
func normalize(s string) string {
	return norm.NFC.String(s)
}

// finish normalizes the runs of l and derives the text from them, so that
// text and layout agree on every offset.
func finish(l *layout.Layout, meta Meta) Source {
	for p := range l.Pages {
		for b := range l.Pages[p].Textboxes {
			for tl := range l.Pages[p].Textboxes[b].Textlines {
				texts := l.Pages[p].Textboxes[b].Textlines[tl].Texts
				for i := range texts {
					texts[i].Text = normalize(texts[i].Text)
				}
			}
		}
	}
	meta.Pages = len(l.Pages)
	return Source{Text: l.Text(), Layout: l, Meta: meta}
}

// Text wraps plain text in a single page layout whose paragraphs are split
// at blank lines. Line endings are unified to \n.
func Text(s string) Source {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = normalize(s)
	return Source{Text: s, Layout: layout.FromText(s), Meta: Meta{Filetype: "txt", Pages: 1}}
}
