package extract

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revelaction/naf/layout"
)

func TestText(t *testing.T) {
	src := Text("Café one\r\ntwo\rthree")
	assert.Equal(t, "Café one\ntwo\nthree", src.Text)
	require.NotNil(t, src.Layout)
	assert.Equal(t, src.Text, src.Layout.Text())
	assert.Equal(t, "txt", src.Meta.Filetype)

	src = Text("First.\r\n\r\nSecond.")
	assert.Equal(t, src.Text, src.Layout.Text())
	assert.Equal(t, []int{0, 8}, src.Layout.ParagraphOffsets())
	assert.Equal(t, []int{0}, src.Layout.PageOffsets())
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("NLP is great."), 0o600))

	src, err := File(path)
	require.NoError(t, err)
	assert.Equal(t, "NLP is great.", src.Text)
	assert.Equal(t, "notes.txt", src.Meta.Filename)
	assert.Equal(t, "txt", src.Meta.Filetype)
	assert.Equal(t, "notes", src.Meta.Title)
	assert.False(t, src.Meta.CreationTime.IsZero())
}

func TestFileUnsupported(t *testing.T) {
	_, err := File("/tmp/archive.xyz")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestSupported(t *testing.T) {
	for _, p := range []string{"a.txt", "b.HTML", "c.pdf", "d.docx", "e.htm"} {
		assert.True(t, Supported(p), p)
	}
	for _, p := range []string{"a.json", "b.naf", "noext", "c.odt"} {
		assert.False(t, Supported(p), p)
	}
}

func TestFileMissing(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestHTML(t *testing.T) {
	doc := `<html><head><title>A title</title><meta name="author" content="Ada">
<script>var x = 1;</script><style>p {}</style></head>
<body><p>NLP <b>is</b>   great.</p>
<p>Second<br>line</p></body></html>`

	src, err := HTML(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, "NLP is great.\n\nSecond\nline\n", src.Text)
	assert.Equal(t, "A title", src.Meta.Title)
	assert.Equal(t, "Ada", src.Meta.Author)
	assert.Equal(t, 1, src.Meta.Pages)

	require.NotNil(t, src.Layout)
	assert.Equal(t, src.Text, src.Layout.Text())
	assert.Equal(t, []int{0, 15}, src.Layout.ParagraphOffsets())
}

func TestHTMLInlineElements(t *testing.T) {
	src, err := HTML(strings.NewReader(`<p>NLP<b>is</b> one word</p>`))
	require.NoError(t, err)
	assert.Equal(t, "NLPis one word\n", src.Text)
}

func writeDOCX(t *testing.T, document, core string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.docx")
	f, err := os.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(document))
	require.NoError(t, err)
	if core != "" {
		w, err = zw.Create("docProps/core.xml")
		require.NoError(t, err)
		_, err = w.Write([]byte(core))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestDOCX(t *testing.T) {
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:pPr><w:pStyle w:val="Title"/><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr>
<w:r><w:rPr><w:rFonts w:ascii="Arial"/><w:sz w:val="24"/></w:rPr><w:t>Hello</w:t></w:r>
<w:r><w:t xml:space="preserve"> world</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:r><w:t>Bye</w:t></w:r></w:p>
</w:body></w:document>`
	core := `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>Greeting</dc:title><dc:creator>Ada</dc:creator></cp:coreProperties>`

	src, err := File(writeDOCX(t, document, core))
	require.NoError(t, err)

	assert.Equal(t, "Hello world\n\nBye\n", src.Text)
	assert.Equal(t, "Greeting", src.Meta.Title)
	assert.Equal(t, "Ada", src.Meta.Author)
	assert.Equal(t, "docx", src.Meta.Filetype)

	boxes := src.Layout.Pages[0].Textboxes
	require.Len(t, boxes, 2)
	assert.Equal(t, layout.Text{Font: "Arial", Size: "12.000", Text: "Hello"}, boxes[0].Textlines[0].Texts[0])
	assert.Equal(t, []int{0, 13}, src.Layout.ParagraphOffsets())
}

func TestDOCXWithoutDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = DOCX(path)
	assert.Error(t, err)
}

func TestContentTextboxes(t *testing.T) {
	stream := `q 1 0 0 1 0 0 cm
BT /F1 12 Tf 72 712 Td (Hello) Tj 0 -14 Td [(Wor) -250 (ld) 10] TJ ET
% a comment (ignored) Tj
BT /F2 10 Tf (A\050b\051) Tj T* <4869> Tj ET Q`

	boxes := contentTextboxes([]byte(stream))
	require.Len(t, boxes, 2)

	l := &layout.Layout{Pages: []layout.Page{{Number: 1, Textboxes: boxes}}}
	assert.Equal(t, "Hello\nWor ld\nA(b)\nHi\n", l.Text())

	first := boxes[0].Textlines[0].Texts[0]
	assert.Equal(t, layout.Text{Font: "F1", Size: "12.000", Text: "Hello"}, first)
	assert.Equal(t, "F2", boxes[1].Textlines[0].Texts[0].Font)
	assert.Equal(t, "10.000", boxes[1].Textlines[0].Texts[0].Size)
}

func TestDecodePDFString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, "plain"},
		{`a\nb`, "a\nb"},
		{`\(x\)`, "(x)"},
		{`\\`, `\`},
		{`\101\102`, "AB"},
		{`\7`, "\a"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, string(decodePDFString([]byte(tt.in))))
		})
	}
}

func TestLatin1(t *testing.T) {
	assert.Equal(t, "café x", latin1([]byte{'c', 'a', 'f', 0xe9, '\n', 'x', 0x01}))
}

func TestFirstLine(t *testing.T) {
	l := layout.FromText("\n  \nTitle here\nbody\n")
	assert.Equal(t, "Title here", firstLine(l))
	assert.Equal(t, "", firstLine(&layout.Layout{}))
}
