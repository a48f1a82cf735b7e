package naf

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revelaction/naf/validate"
)

// sample builds the document of "NLP is great." with every layer but
// formats.
func sample(t *testing.T) *Document {
	t.Helper()
	d := New("en", "")

	require.NoError(t, d.AddRaw("NLP is great."))
	words := []struct {
		text   string
		offset int
	}{{"NLP", 0}, {"is", 4}, {"great", 7}, {".", 12}}
	for _, w := range words {
		d.AddWordForm(WordForm{Sent: "1", Para: "1", Page: "1", Offset: w.offset, Length: len(w.text), Text: w.text})
	}

	d.AddTerm(Term{Type: "open", Lemma: "NLP", POS: "PROPN", Span: []string{"w1"}, Comment: "NLP"})
	d.AddTerm(Term{Type: "close", Lemma: "be", POS: "VERB", Morphofeat: "Mood=Ind", Span: []string{"w2"}, Comment: "is"})
	d.AddTerm(Term{Type: "open", Lemma: "great", POS: "ADJ", Span: []string{"w3"}, Comment: "great"})
	d.AddTerm(Term{Type: "close", Lemma: ".", POS: "PUNCT", Span: []string{"w4"}, Comment: "."})

	d.AddDependency(Dependency{From: "t3", To: "t1", RFunc: "nsubj", Comment: "nsubj(great,NLP)"})
	d.AddDependency(Dependency{From: "t3", To: "t2", RFunc: "cop", Comment: "cop(great,is)"})

	d.AddEntity(Entity{Type: "ORG", Span: []string{"t1"}, Comment: "NLP", ExternalRefs: []ExternalRef{
		{Resource: "wikidata", Reference: "Q30642", Confidence: "0.9"},
	}})
	d.AddChunk(Chunk{Head: "t1", Phrase: "NP", Span: []string{"t1"}, Comment: "NLP"})
	return d
}

func TestNewRoot(t *testing.T) {
	d := New("nl", "")
	out := string(d.Bytes())

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`+"\n"+`<NAF xml:lang="nl" version="v3.1"`), out)
	assert.Equal(t, "nl", d.Language())
	assert.Equal(t, DefaultVersion, d.Version())
	assert.Equal(t, "v3", New("en", "v3").Version())
}

func TestEnsureLayerCanonicalOrder(t *testing.T) {
	d := New("en", "")

	assert.True(t, d.EnsureLayer(LayerEntities))
	assert.True(t, d.EnsureLayer(LayerText))
	assert.True(t, d.EnsureLayer(LayerFormats))
	assert.True(t, d.EnsureLayer(LayerRaw))
	assert.True(t, d.EnsureLayer(LayerDeps))
	assert.False(t, d.EnsureLayer(LayerText))
	assert.False(t, d.EnsureLayer(LayerEntities))

	assert.Equal(t, []string{"raw", "text", "deps", "entities", "formats"}, d.LayerNames())

	d.SetFileDesc(FileDesc{Filename: "a.txt"})
	assert.Equal(t, []string{"nafHeader", "raw", "text", "deps", "entities", "formats"}, d.LayerNames())
}

func TestAddTermOmitsEmptyAttributes(t *testing.T) {
	d := New("en", "")
	d.AddTerm(Term{Lemma: "cat", Span: []string{"w1", "w2"}, Comment: "big-cat"})

	out := string(d.Bytes())
	assert.Contains(t, out, `<term id="t1" lemma="cat">`)
	assert.Contains(t, out, `<!--big-cat-->`)
	assert.Contains(t, out, `<target id="w1"/>`)
	assert.Contains(t, out, `<target id="w2"/>`)
	assert.NotContains(t, out, "component_of")
	assert.NotContains(t, out, "externalReferences")
}

func TestEscapeComment(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"a--b", "aDOUBLEDASHb"},
		{"well-", "wellSINGLEDASH"},
		{"x---", "xDOUBLEDASHSINGLEDASH"},
		{"--", "DOUBLEDASH"},
		{"-a", "-a"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := escapeComment(tt.in)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "--")
			assert.False(t, strings.HasSuffix(got, "-"))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	d := sample(t)
	d.SetFileDesc(FileDesc{Filename: "nlp.txt", Filetype: "txt", Title: "NLP", Pages: 1,
		CreationTime: time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)})
	d.SetPublic(Public{PublicID: "doc-1", URI: "file:///nlp.txt"})
	d.AddFormatPage(FormatPage{Offset: 0, Length: 13, Textboxes: []FormatTextbox{{
		Offset: 0, Length: 13, Textlines: []FormatTextline{{
			Offset: 0, Length: 13, Texts: []FormatText{{Font: "Times", Size: "12.0", Offset: 0, Length: 13, Text: "NLP is great."}},
		}},
	}}})

	first := d.Bytes()
	loaded, err := Parse(bytes.NewReader(first))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(loaded.Bytes()))
	assert.Equal(t, d.Raw(), loaded.Raw())
	assert.Equal(t, d.WordForms(), loaded.WordForms())
	assert.Equal(t, d.Terms(), loaded.Terms())
	assert.Equal(t, d.Entities(), loaded.Entities())
	assert.Equal(t, d.Dependencies(), loaded.Dependencies())
	assert.Equal(t, d.Chunks(), loaded.Chunks())
	assert.Equal(t, d.Formats(), loaded.Formats())
	assert.Equal(t, d.Header(), loaded.Header())
	assert.Equal(t, "en", loaded.Language())
}

func TestOpenAndWriteFile(t *testing.T) {
	path := t.TempDir() + "/doc.naf"
	d := sample(t)
	require.NoError(t, d.WriteFile(path))

	loaded, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, d.Terms(), loaded.Terms())

	_, err = Open(t.TempDir() + "/missing.naf")
	assert.Error(t, err)
}

func TestParseIndentedDocument(t *testing.T) {
	in := `<?xml version="1.0" encoding="UTF-8"?>
<NAF version="v3.1" xml:lang="en">
  <raw><![CDATA[ a  b ]]></raw>
  <text>
    <wf id="w1" offset="1" length="1">a</wf>
    <wf id="w2" offset="4" length="1">b</wf>
  </text>
</NAF>`
	d, err := Parse(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, " a  b ", d.Raw())
	require.Len(t, d.WordForms(), 2)
	assert.Equal(t, "b", d.WordForms()[1].Text)
	assert.Equal(t, []string{"raw", "text"}, d.LayerNames())
}

func TestParseNotNAF(t *testing.T) {
	_, err := Parse(strings.NewReader(`<TEI><text/></TEI>`))
	assert.ErrorIs(t, err, ErrNotNAF)

	_, err = Parse(strings.NewReader(`<NAF><unclosed></NAF>`))
	assert.Error(t, err)
}

func TestAddRawOnce(t *testing.T) {
	d := New("en", "")
	require.NoError(t, d.AddRaw("a ]]> b"))
	assert.ErrorIs(t, d.AddRaw("again"), ErrRawWritten)

	loaded, err := Parse(bytes.NewReader(d.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "a ]]> b", loaded.Raw())
}

func TestHeader(t *testing.T) {
	d := New("en", "")
	begin := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	end := begin.Add(2 * time.Second)

	d.AddProcessor(LayerText, ProcessorRecord{Name: "spacy", Version: "3.7.2", Model: "en_core_web_sm", Hostname: "host", Begin: begin, End: end})
	d.AddProcessor(LayerTerms, ProcessorRecord{Name: "spacy", Begin: begin, End: end})
	id := d.SetPublic(Public{})
	d.SetFileDesc(FileDesc{Filename: "a.pdf", Pages: 3})
	d.SetFileDesc(FileDesc{Filename: "b.pdf", Pages: 2})

	_, err := uuid.Parse(id)
	require.NoError(t, err)

	out := string(d.Bytes())
	assert.Contains(t, out, `beginTimestamp="2024-01-02T03:04:05UTC"`)
	assert.Contains(t, out, `endTimestamp="2024-01-02T03:04:07UTC"`)
	assert.Less(t, strings.Index(out, "<fileDesc"), strings.Index(out, "<public"))
	assert.Less(t, strings.Index(out, "<public"), strings.Index(out, "<linguisticProcessors"))
	assert.Equal(t, 1, strings.Count(out, "<fileDesc"))

	h := d.Header()
	require.NotNil(t, h.FileDesc)
	assert.Equal(t, "b.pdf", h.FileDesc.Filename)
	assert.Equal(t, 2, h.FileDesc.Pages)
	assert.Equal(t, id, h.Public.PublicID)
	require.Len(t, h.Processors, 2)
	assert.Equal(t, LayerText, h.Processors[0].Layer)
	assert.Equal(t, begin, h.Processors[0].Records[0].Begin)
	assert.Equal(t, end, h.Processors[0].Records[0].End)
	assert.Equal(t, "en_core_web_sm", h.Processors[0].Records[0].Model)
}

func TestMultiwordsAndComponentOf(t *testing.T) {
	d := sample(t)

	mw := d.AddMultiword(Multiword{Lemma: "be_great", POS: "VERB", Type: "phrasal", Components: []Component{
		{Lemma: "be", POS: "VERB", Span: []string{"t2"}},
		{Lemma: "great", POS: "ADJ", Span: []string{"t3"}},
	}})
	assert.Equal(t, "mw1", mw)
	assert.True(t, d.SetComponentOf("t2", mw))
	assert.True(t, d.SetComponentOf("t3", mw))
	assert.False(t, d.SetComponentOf("t99", mw))

	mws := d.Multiwords()
	require.Len(t, mws, 1)
	require.Len(t, mws[0].Components, 2)
	assert.Equal(t, "mw1.c1", mws[0].Components[0].ID)
	assert.Equal(t, "mw1.c2", mws[0].Components[1].ID)
	assert.Equal(t, "mw1.c3", d.NextComponentID("mw1"))
	assert.Equal(t, "mw1", d.Terms()[1].ComponentOf)

	d.AddMultiword(Multiword{Type: "idiom", Components: []Component{{Span: []string{"t1"}}}})
	assert.Equal(t, 1, d.RemoveMultiwords("phrasal"))
	assert.Len(t, d.Multiwords(), 1)
	for _, term := range d.Terms() {
		assert.Empty(t, term.ComponentOf, term.ID)
	}
	assert.Equal(t, "mw3", d.NextID(KindMultiword))
}

func TestMultiwordComponentNumbering(t *testing.T) {
	d := sample(t)

	d.AddMultiword(Multiword{ID: "mw4", Type: "idiom", Components: []Component{
		{ID: "mw4.c2", Span: []string{"t1"}},
		{Span: []string{"t2"}},
		{Span: []string{"t3"}},
	}})
	mws := d.Multiwords()
	require.Len(t, mws, 1)
	ids := []string{mws[0].Components[0].ID, mws[0].Components[1].ID, mws[0].Components[2].ID}
	assert.Equal(t, []string{"mw4.c2", "mw4.c3", "mw4.c4"}, ids)
	assert.Equal(t, "mw4.c5", d.NextComponentID("mw4"))
}

func TestRemoveProcessor(t *testing.T) {
	d := New("en", "")
	d.AddProcessor(LayerMultiwords, ProcessorRecord{Name: "spacy"})
	d.AddProcessor(LayerMultiwords, ProcessorRecord{Name: "stanza"})
	d.AddProcessor(LayerTerms, ProcessorRecord{Name: "spacy"})

	assert.Equal(t, 1, d.RemoveProcessor(LayerMultiwords, "spacy"))
	h := d.Header()
	require.Len(t, h.Processors, 2)
	assert.Equal(t, LayerMultiwords, h.Processors[0].Layer)
	require.Len(t, h.Processors[0].Records, 1)
	assert.Equal(t, "stanza", h.Processors[0].Records[0].Name)

	assert.Equal(t, 1, d.RemoveProcessor(LayerMultiwords, "stanza"))
	assert.Equal(t, 0, d.RemoveProcessor(LayerMultiwords, "stanza"))
	h = d.Header()
	require.Len(t, h.Processors, 1)
	assert.Equal(t, LayerTerms, h.Processors[0].Layer)
}

func TestRecords(t *testing.T) {
	d := sample(t)

	recs := d.Records(LayerTerms)
	require.Len(t, recs, 4)
	assert.Equal(t, map[string]string{"id": "t2", "type": "close", "lemma": "be", "pos": "VERB", "morphofeat": "Mood=Ind", "span": "w2"}, recs[1])

	wfs := d.Records(LayerText)
	assert.Equal(t, "great", wfs[2]["text"])
	assert.Equal(t, "7", wfs[2]["offset"])

	assert.Empty(t, d.Records(LayerMultiwords))
}

func TestValidateSample(t *testing.T) {
	d := sample(t)
	defects, err := d.Validate(context.Background(), validate.Builtin{})
	require.NoError(t, err)
	assert.Empty(t, defects)

	d.AddDependency(Dependency{From: "t1", To: "t42", RFunc: "dep"})
	defects, err = d.Validate(context.Background(), validate.Builtin{})
	require.NoError(t, err)
	assert.NotEmpty(t, defects)

	_, err = New("en", "v9").Validate(context.Background(), validate.Builtin{})
	assert.Error(t, err)
}
