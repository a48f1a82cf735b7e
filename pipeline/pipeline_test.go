package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revelaction/naf/engine"
	"github.com/revelaction/naf/engine/memory"
	"github.com/revelaction/naf/extract"
	"github.com/revelaction/naf/layout"
	"github.com/revelaction/naf/logging"
	"github.com/revelaction/naf/naf"
	"github.com/revelaction/naf/validate"
)

const memoryEngine engine.Name = "memory"

func memoryConfig(text string, reset bool) Config {
	r := engine.NewRegistry()
	r.Register(memoryEngine, func(engine.Config) (engine.Engine, error) {
		return memory.New(memory.Tokenize(text), reset), nil
	})

	cfg := Default()
	cfg.Engine = memoryEngine
	cfg.Registry = r
	return cfg
}

func TestRun(t *testing.T) {
	cfg := memoryConfig("NLP is great.", false)
	cfg.Validation = ValidateBuiltin

	res, err := Run(context.Background(), cfg, extract.Text("NLP is great."))
	require.NoError(t, err)

	d := res.Doc
	assert.Equal(t, "en", d.Language())
	assert.Equal(t, naf.DefaultVersion, d.Version())
	assert.Len(t, d.WordForms(), 4)
	assert.Len(t, d.Terms(), 4)
	assert.Empty(t, d.Entities())
	assert.Equal(t, "NLP is great.", d.Raw())
	assert.Empty(t, res.Inconsistencies)
	assert.True(t, res.Validated)
	assert.True(t, res.Valid)

	h := d.Header()
	require.NotNil(t, h.Public)
	assert.NotEmpty(t, h.Public.PublicID)
	require.NotNil(t, h.FileDesc)
	assert.Equal(t, "txt", h.FileDesc.Filetype)
}

func TestRunInconsistentText(t *testing.T) {
	text := "NLP is great.\n"
	res, err := Run(context.Background(), memoryConfig(text, false), extract.Text(text))
	require.NoError(t, err)

	require.Len(t, res.Inconsistencies, 2)
	for _, in := range res.Inconsistencies {
		assert.Equal(t, naf.SeverityError, in.Severity)
	}
	assert.False(t, res.Validated)
}

// captureLogs redirects the global logger for the duration of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var logs bytes.Buffer
	logging.SetOutput(&logs)
	t.Cleanup(func() { logging.SetOutput(os.Stderr) })
	return &logs
}

func TestRunValidationDefectsLogged(t *testing.T) {
	logs := captureLogs(t)

	doc := memory.Doc{Text: "Run fast", Sentences: [][]memory.Token{{
		{Text: "Run", Lemma: "run", POS: "VERB", Offset: 0, Head: -1, Dep: "root"},
		{Text: "fast", Lemma: "fast", POS: "ADV", Offset: 4, Head: 0},
	}}}
	r := engine.NewRegistry()
	r.Register(memoryEngine, func(engine.Config) (engine.Engine, error) {
		return memory.New(doc, false), nil
	})
	cfg := Default()
	cfg.Engine = memoryEngine
	cfg.Registry = r
	cfg.Validation = ValidateBuiltin

	src := extract.Text("Run fast")
	src.Meta.Filename = "notes.txt"
	res, err := Run(context.Background(), cfg, src)
	require.NoError(t, err)

	assert.True(t, res.Validated)
	assert.False(t, res.Valid)
	paths := lo.Map(res.Defects, func(d validate.Defect, _ int) string { return d.Path })
	assert.Contains(t, paths, "/NAF/deps/dep[1]")

	var line string
	for _, l := range strings.Split(logs.String(), "\n") {
		if strings.Contains(l, "NAF validation defect") {
			line = l
			break
		}
	}
	require.NotEmpty(t, line, logs.String())
	assert.Contains(t, line, "doc=notes.txt")
}

func TestRunWithoutRawSkipsEvaluation(t *testing.T) {
	logs := captureLogs(t)

	cfg := memoryConfig("NLP is great.", false)
	cfg.Layers = []naf.Layer{naf.LayerText, naf.LayerTerms}
	src := extract.Text("NLP is great.")
	src.Meta.Filename = "notes.txt"

	res, err := Run(context.Background(), cfg, src)
	require.NoError(t, err)
	assert.Empty(t, res.Inconsistencies)
	assert.Contains(t, logs.String(), "consistency evaluation skipped")
	assert.Contains(t, logs.String(), "doc=notes.txt")
}

func TestRunConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		cfg   func() Config
		field string
	}{
		{"unknown engine", func() Config {
			c := Default()
			c.Engine = "nltk"
			return c
		}, "engine"},
		{"no language", func() Config {
			c := Default()
			c.Language = ""
			return c
		}, "lang"},
		{"version", func() Config {
			c := Default()
			c.Version = "v2"
			return c
		}, "naf-version"},
		{"layer", func() Config {
			c := Default()
			c.Layers = []naf.Layer{"coreferences"}
			return c
		}, "layers"},
		{"validation", func() Config {
			c := Default()
			c.Validation = "schematron"
			return c
		}, "validate"},
		{"missing command", func() Config {
			c := Default()
			c.Commands = map[engine.Name][]string{engine.Spacy: {"naf-no-such-engine"}}
			return c
		}, "command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Run(context.Background(), tt.cfg(), extract.Text("x"))
			assert.Nil(t, res)
			require.ErrorIs(t, err, engine.ErrConfig)

			var pe *ConfigError
			var ee *engine.ConfigError
			switch {
			case errors.As(err, &pe):
				assert.Equal(t, tt.field, pe.Field)
			case errors.As(err, &ee):
				assert.Equal(t, tt.field, ee.Field)
			default:
				t.Fatalf("unexpected error type %T", err)
			}
		})
	}
}

func TestRunLayerSelection(t *testing.T) {
	cfg := memoryConfig("NLP is great.", true)
	cfg.Layers = []naf.Layer{naf.LayerText, naf.LayerTerms}

	res, err := Run(context.Background(), cfg, extract.Text("NLP is great."))
	require.NoError(t, err)
	assert.Equal(t, []string{"nafHeader", "text", "terms"}, res.Doc.LayerNames())
	assert.Empty(t, res.Inconsistencies)
}

func TestRunPlainTextParagraphs(t *testing.T) {
	text := "NLP is great.\n\nNext one."
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))

	cfg := memoryConfig(text, false)
	cfg.Validation = ValidateBuiltin
	res, err := File(context.Background(), cfg, path)
	require.NoError(t, err)

	wfs := res.Doc.WordForms()
	require.Len(t, wfs, 7)
	assert.Equal(t, "1", wfs[3].Para)
	assert.Equal(t, "2", wfs[4].Para)
	require.True(t, res.Doc.HasLayer(naf.LayerFormats))
	assert.Len(t, res.Doc.Formats()[0].Textboxes, 2)
	assert.True(t, res.Valid)
}

func TestRunFormatsByVersion(t *testing.T) {
	l := layout.FromText("NLP is great.\n\nNext one.")
	src := extract.Source{Text: l.Text(), Layout: l, Meta: extract.Meta{Filename: "a.html", Pages: 1}}

	cfg := memoryConfig(src.Text, false)
	res, err := Run(context.Background(), cfg, src)
	require.NoError(t, err)
	assert.True(t, res.Doc.HasLayer(naf.LayerFormats))
	assert.Equal(t, "2", res.Doc.WordForms()[4].Para)

	cfg.Version = "v3"
	cfg.Validation = ValidateBuiltin
	res, err = Run(context.Background(), cfg, src)
	require.NoError(t, err)
	assert.False(t, res.Doc.HasLayer(naf.LayerFormats))
	assert.True(t, res.Valid)
}

const spacyJSON = `{
  "text": "NLP is great. Ümlauts work.",
  "ents": [{"start": 0, "end": 3, "label": "ORG"}],
  "sents": [{"start": 0, "end": 13}, {"start": 14, "end": 27}],
  "tokens": [
    {"id": 0, "start": 0, "end": 3, "pos": "PROPN", "morph": "Number=Sing", "lemma": "NLP", "dep": "nsubj", "head": 2},
    {"id": 1, "start": 4, "end": 6, "pos": "AUX", "morph": "Mood=Ind", "lemma": "be", "dep": "cop", "head": 2},
    {"id": 2, "start": 7, "end": 12, "pos": "ADJ", "lemma": "great", "dep": "ROOT", "head": 2},
    {"id": 3, "start": 12, "end": 13, "pos": "PUNCT", "lemma": ".", "dep": "punct", "head": 2},
    {"id": 4, "start": 14, "end": 21, "pos": "NOUN", "lemma": "ümlaut", "dep": "nsubj", "head": 5},
    {"id": 5, "start": 22, "end": 26, "pos": "VERB", "lemma": "work", "dep": "ROOT", "head": 5},
    {"id": 6, "start": 26, "end": 27, "pos": "PUNCT", "lemma": ".", "dep": "punct", "head": 5}
  ],
  "noun_chunks": [{"start": 0, "end": 1, "root": 0}, {"start": 4, "end": 5, "root": 4}],
  "meta": {"lang": "en", "name": "core_web_sm", "version": "3.7.1", "spacy_version": "3.7.2"}
}`

const stanzaJSON = `{
  "text": "NLP is great. Ümlauts work.",
  "sentences": [
    [
      {"id": 1, "text": "NLP", "lemma": "NLP", "upos": "PROPN", "feats": "Number=Sing", "head": 3, "deprel": "nsubj", "start_char": 0, "end_char": 3},
      {"id": 2, "text": "is", "lemma": "be", "upos": "AUX", "feats": "Mood=Ind", "head": 3, "deprel": "cop", "start_char": 4, "end_char": 6},
      {"id": 3, "text": "great", "lemma": "great", "upos": "ADJ", "head": 0, "deprel": "root", "start_char": 7, "end_char": 12},
      {"id": 4, "text": ".", "lemma": ".", "upos": "PUNCT", "head": 3, "deprel": "punct", "start_char": 12, "end_char": 13}
    ],
    [
      {"id": 1, "text": "Ümlauts", "lemma": "ümlaut", "upos": "NOUN", "head": 2, "deprel": "nsubj", "start_char": 14, "end_char": 21},
      {"id": 2, "text": "work", "lemma": "work", "upos": "VERB", "head": 0, "deprel": "root", "start_char": 22, "end_char": 26},
      {"id": 3, "text": ".", "lemma": ".", "upos": "PUNCT", "head": 2, "deprel": "punct", "start_char": 26, "end_char": 27}
    ]
  ],
  "entities": [{"text": "NLP", "type": "ORG", "start_char": 0, "end_char": 3}],
  "meta": {"lang": "en", "model": "en_default", "version": "1.7.0"}
}`

func writeJSON(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestFileEngineOutput(t *testing.T) {
	ctx := context.Background()

	cfg := Default()
	cfg.Validation = ValidateBuiltin
	sp, err := File(ctx, cfg, writeJSON(t, spacyJSON))
	require.NoError(t, err)

	cfg.Engine = engine.Stanza
	st, err := File(ctx, cfg, writeJSON(t, stanzaJSON))
	require.NoError(t, err)

	for _, res := range []*Result{sp, st} {
		assert.Empty(t, res.Inconsistencies)
		assert.True(t, res.Valid)
		assert.Equal(t, "NLP is great. Ümlauts work.", res.Doc.Raw())
	}

	// continuous and per-sentence numbering give the same document
	assert.Equal(t, sp.Doc.WordForms(), st.Doc.WordForms())
	assert.Equal(t, sp.Doc.Terms(), st.Doc.Terms())
	assert.Equal(t, sp.Doc.Dependencies(), st.Doc.Dependencies())
	assert.Equal(t, sp.Doc.Entities(), st.Doc.Entities())

	assert.Len(t, sp.Doc.Chunks(), 2)
	assert.Empty(t, st.Doc.Chunks())

	lp := sp.Doc.Header().Processors[0].Records[0]
	assert.Equal(t, "spacy", lp.Name)
	assert.Equal(t, "en_core_web_sm", lp.Model)
	assert.Equal(t, "3.7.2", lp.Version)
}

func TestFileMissing(t *testing.T) {
	_, err := File(context.Background(), Default(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, engine.ErrConfig))
}

func TestEngineOutputFileAnyExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spacy.out")
	require.NoError(t, os.WriteFile(path, []byte(spacyJSON), 0o600))

	res, err := EngineOutputFile(context.Background(), Default(), path)
	require.NoError(t, err)
	assert.Equal(t, "spacy.out", res.Doc.Header().FileDesc.Filename)
	assert.Len(t, res.Doc.WordForms(), 7)
}
