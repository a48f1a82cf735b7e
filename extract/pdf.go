package extract

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/revelaction/naf/layout"
)

// PDF extracts text and layout from the content streams of every page.
// Every text object (BT ... ET) becomes a textbox, every line move starts a
// new textline and every shown string is a run carrying the current font
// resource name and size. Strings are decoded as single byte text; fonts
// with other encodings yield approximate text.
func PDF(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return Source{}, fmt.Errorf("IO error: %w", err)
	}
	defer f.Close()

	ctx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return Source{}, fmt.Errorf("pdfcpu read: %w", err)
	}

	l := &layout.Layout{}
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		page := layout.Page{Number: pageNr}

		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err == nil && r != nil {
			data, err := io.ReadAll(r)
			if err != nil {
				return Source{}, fmt.Errorf("reading page %d: %w", pageNr, err)
			}
			page.Textboxes = contentTextboxes(data)
		}
		l.Pages = append(l.Pages, page)
	}

	meta := Meta{Filetype: "pdf", Title: firstLine(l)}
	return finish(l, meta), nil
}

// firstLine returns the first non blank line of the layout.
func firstLine(l *layout.Layout) string {
	for _, line := range strings.Split(l.Text(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			if r := []rune(line); len(r) > 200 {
				line = string(r[:200])
			}
			return line
		}
	}
	return ""
}

// contentTextboxes interprets the text operators of a content stream.
func contentTextboxes(data []byte) []layout.Textbox {
	st := &streamState{}
	lx := &lexer{data: data}

	var operands []token
	for {
		tok, ok := lx.next()
		if !ok {
			break
		}
		if tok.kind != tokOperator {
			operands = append(operands, tok)
			continue
		}

		switch tok.value {
		case "BT":
			st.beginBox()
		case "ET":
			st.endBox()
		case "Tf":
			if n := len(operands); n >= 2 {
				st.font = strings.TrimPrefix(operands[n-2].value, "/")
				st.size = formatSize(operands[n-1].value)
			}
		case "Td", "TD", "T*", "Tm":
			st.newLine()
		case "Tj":
			if n := len(operands); n >= 1 {
				st.show(operands[n-1])
			}
		case "'", `"`:
			st.newLine()
			if n := len(operands); n >= 1 {
				st.show(operands[n-1])
			}
		case "TJ":
			for _, o := range operands {
				if o.kind == tokNumber {
					// a large negative kerning is a word gap
					if v, err := strconv.ParseFloat(o.value, 64); err == nil && v < -200 {
						st.appendText(" ")
					}
					continue
				}
				st.show(o)
			}
		}
		operands = operands[:0]
	}
	st.endBox()
	return st.boxes
}

func formatSize(s string) string {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

type streamState struct {
	font, size string
	boxes      []layout.Textbox
	box        *layout.Textbox
	line       *layout.Textline
}

func (s *streamState) beginBox() {
	s.endBox()
	s.box = &layout.Textbox{}
}

func (s *streamState) endBox() {
	s.endLine()
	if s.box != nil && len(s.box.Textlines) > 0 {
		s.boxes = append(s.boxes, *s.box)
	}
	s.box = nil
}

// endLine closes the current line with a newline run.
func (s *streamState) endLine() {
	if s.line == nil {
		return
	}
	if len(s.line.Texts) > 0 {
		s.line.Texts = append(s.line.Texts, layout.Text{Text: "\n"})
		s.box.Textlines = append(s.box.Textlines, *s.line)
	}
	s.line = nil
}

func (s *streamState) newLine() {
	s.endLine()
}

func (s *streamState) show(t token) {
	switch t.kind {
	case tokString, tokHex:
		s.appendText(t.value)
	}
}

func (s *streamState) appendText(text string) {
	if text == "" {
		return
	}
	if s.box == nil {
		s.box = &layout.Textbox{}
	}
	if s.line == nil {
		s.line = &layout.Textline{}
	}
	s.line.Texts = append(s.line.Texts, layout.Text{Font: s.font, Size: s.size, Text: text})
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokHex
	tokName
	tokOperator
	tokOther
)

type token struct {
	kind  tokenKind
	value string
}

// lexer splits a PDF content stream into operands and operators. Arrays are
// flattened: their elements are returned as operands.
type lexer struct {
	data []byte
	pos  int
}

func isDelimiter(c byte) bool {
	return bytes.IndexByte([]byte("()<>[]{}/%"), c) >= 0
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', 0:
		return true
	}
	return false
}

func (l *lexer) next() (token, bool) {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		switch {
		case isSpace(c):
			l.pos++
		case c == '%':
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
		case c == '[' || c == ']' || c == '{' || c == '}':
			l.pos++
		case c == '(':
			return token{kind: tokString, value: l.literal()}, true
		case c == '<':
			if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
				l.pos += 2
				return token{kind: tokOther, value: "<<"}, true
			}
			return token{kind: tokHex, value: l.hexString()}, true
		case c == '>':
			l.pos++
			if l.pos < len(l.data) && l.data[l.pos] == '>' {
				l.pos++
			}
			return token{kind: tokOther, value: ">>"}, true
		case c == '/':
			start := l.pos
			l.pos++
			l.regular()
			return token{kind: tokName, value: string(l.data[start:l.pos])}, true
		default:
			start := l.pos
			l.regular()
			if l.pos == start {
				l.pos++
				continue
			}
			word := string(l.data[start:l.pos])
			if word == "BI" {
				l.skipInlineImage()
				continue
			}
			if _, err := strconv.ParseFloat(word, 64); err == nil {
				return token{kind: tokNumber, value: word}, true
			}
			return token{kind: tokOperator, value: word}, true
		}
	}
	return token{}, false
}

func (l *lexer) regular() {
	for l.pos < len(l.data) && !isSpace(l.data[l.pos]) && !isDelimiter(l.data[l.pos]) {
		l.pos++
	}
}

// skipInlineImage moves past the binary data of BI ... ID ... EI.
func (l *lexer) skipInlineImage() {
	if i := bytes.Index(l.data[l.pos:], []byte("EI")); i >= 0 {
		l.pos += i + 2
		return
	}
	l.pos = len(l.data)
}

// literal reads a (string) with balanced parentheses and escapes.
func (l *lexer) literal() string {
	l.pos++ // (
	var raw []byte
	depth := 1
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if c == '\\' && l.pos+1 < len(l.data) {
			raw = append(raw, c, l.data[l.pos+1])
			l.pos += 2
			continue
		}
		l.pos++
		if c == '(' {
			depth++
		} else if c == ')' {
			depth--
			if depth == 0 {
				break
			}
		}
		raw = append(raw, c)
	}
	return latin1(decodePDFString(raw))
}

func (l *lexer) hexString() string {
	l.pos++ // <
	start := l.pos
	for l.pos < len(l.data) && l.data[l.pos] != '>' {
		l.pos++
	}
	digits := strings.Map(func(r rune) rune {
		if isSpace(byte(r)) {
			return -1
		}
		return r
	}, string(l.data[start:l.pos]))
	if l.pos < len(l.data) {
		l.pos++ // >
	}
	if len(digits)%2 == 1 {
		digits += "0"
	}
	b, err := hex.DecodeString(digits)
	if err != nil {
		return ""
	}
	return latin1(b)
}

// decodePDFString resolves the escape sequences of a literal string.
func decodePDFString(raw []byte) []byte {
	var out []byte
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			out = append(out, raw[i])
			continue
		}
		i++
		switch c := raw[i]; c {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case '\n':
			// line continuation
		default:
			if c >= '0' && c <= '7' {
				v := int(c - '0')
				for k := 0; k < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; k++ {
					i++
					v = v*8 + int(raw[i]-'0')
				}
				out = append(out, byte(v))
				continue
			}
			out = append(out, c)
		}
	}
	return out
}

// latin1 maps every byte to the rune of the same value, dropping control
// characters but keeping white space.
func latin1(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		if c < 0x20 && c != '\n' && c != '\t' {
			continue
		}
		if c == '\n' || c == '\t' {
			c = ' '
		}
		sb.WriteRune(rune(c))
	}
	return sb.String()
}
