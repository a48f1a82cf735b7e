package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/revelaction/naf/layout"
)

// DOCX extracts the paragraphs of word/document.xml. Every paragraph is a
// textbox of one line; runs keep their font and size when the run
// properties name them. Title and author come from docProps/core.xml.
func DOCX(path string) (Source, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return Source{}, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var docFile, coreFile *zip.File
	for _, f := range r.File {
		switch f.Name {
		case "word/document.xml":
			docFile = f
		case "docProps/core.xml":
			coreFile = f
		}
	}
	if docFile == nil {
		return Source{}, fmt.Errorf("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return Source{}, fmt.Errorf("open document.xml: %w", err)
	}
	boxes, err := docxParagraphs(rc)
	rc.Close()
	if err != nil {
		return Source{}, err
	}

	meta := Meta{Filetype: "docx"}
	if coreFile != nil {
		if rc, err := coreFile.Open(); err == nil {
			meta.Title, meta.Author = docxCore(rc)
			rc.Close()
		}
	}

	l := &layout.Layout{Pages: []layout.Page{{Number: 1, Textboxes: boxes}}}
	return finish(l, meta), nil
}

func docxParagraphs(r io.Reader) ([]layout.Textbox, error) {
	dec := xml.NewDecoder(r)

	var (
		boxes  []layout.Textbox
		line   layout.Textline
		inPara bool
		inRun  bool
		inText bool
		font   string
		size   string
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
				line = layout.Textline{}
			case "r":
				inRun = true
				font, size = "", ""
			case "rFonts":
				font = attr(t, "ascii")
			case "sz":
				// half points
				size = halfPoints(attr(t, "val"))
			case "t":
				inText = inPara
			case "tab":
				if inRun {
					line.Texts = append(line.Texts, layout.Text{Font: font, Size: size, Text: "\t"})
				}
			case "br":
				if inRun {
					line.Texts = append(line.Texts, layout.Text{Font: font, Size: size, Text: " "})
				}
			}
		case xml.CharData:
			if inText && len(t) > 0 {
				line.Texts = append(line.Texts, layout.Text{Font: font, Size: size, Text: string(t)})
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "r":
				inRun = false
			case "p":
				inPara = false
				if strings.TrimSpace(lineText(line)) == "" {
					continue
				}
				if n := len(boxes); n > 0 {
					// blank line between paragraphs
					prev := &boxes[n-1].Textlines[0]
					prev.Texts[len(prev.Texts)-1].Text += "\n"
				}
				line.Texts = append(line.Texts, layout.Text{Text: "\n"})
				boxes = append(boxes, layout.Textbox{Textlines: []layout.Textline{line}})
			}
		}
	}
	return boxes, nil
}

func lineText(l layout.Textline) string {
	var b strings.Builder
	for _, t := range l.Texts {
		b.WriteString(t.Text)
	}
	return b.String()
}

func attr(e xml.StartElement, local string) string {
	for _, a := range e.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func halfPoints(v string) string {
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return ""
	}
	return fmt.Sprintf("%.3f", float64(n)/2)
}

// docxCore reads dc:title and dc:creator.
func docxCore(r io.Reader) (title, author string) {
	dec := xml.NewDecoder(r)
	var current string
	for {
		tok, err := dec.Token()
		if err != nil {
			return title, author
		}
		switch t := tok.(type) {
		case xml.StartElement:
			current = t.Name.Local
		case xml.CharData:
			switch current {
			case "title":
				title += string(t)
			case "creator":
				author += string(t)
			}
		case xml.EndElement:
			current = ""
		}
	}
}
