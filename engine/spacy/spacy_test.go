package spacy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revelaction/naf/engine"
)

const nlpJSON = `{
  "text": "NLP is great. Ümlauts work.",
  "ents": [{"start": 0, "end": 3, "label": "ORG"}],
  "sents": [{"start": 0, "end": 13}, {"start": 14, "end": 27}],
  "tokens": [
    {"id": 0, "start": 0, "end": 3, "tag": "NNP", "pos": "PROPN", "morph": "Number=Sing", "lemma": "NLP", "dep": "nsubj", "head": 2},
    {"id": 1, "start": 4, "end": 6, "tag": "VBZ", "pos": "AUX", "morph": "Mood=Ind", "lemma": "be", "dep": "cop", "head": 2},
    {"id": 2, "start": 7, "end": 12, "tag": "JJ", "pos": "ADJ", "lemma": "great", "dep": "ROOT", "head": 2},
    {"id": 3, "start": 12, "end": 13, "tag": ".", "pos": "PUNCT", "lemma": ".", "dep": "punct", "head": 2},
    {"id": 4, "start": 14, "end": 21, "tag": "NNS", "pos": "NOUN", "lemma": "ümlaut", "dep": "nsubj", "head": 5},
    {"id": 5, "start": 22, "end": 26, "tag": "VBP", "pos": "VERB", "lemma": "work", "dep": "ROOT", "head": 5},
    {"id": 6, "start": 26, "end": 27, "tag": ".", "pos": "PUNCT", "lemma": ".", "dep": "punct", "head": 5}
  ],
  "noun_chunks": [{"start": 0, "end": 1, "root": 0}, {"start": 4, "end": 5, "root": 4}],
  "meta": {"lang": "en", "name": "core_web_sm", "version": "3.7.1", "spacy_version": "3.7.2"}
}`

func TestDecode(t *testing.T) {
	doc, meta, err := Decode([]byte(nlpJSON))
	require.NoError(t, err)

	assert.Equal(t, Meta{Model: "en_core_web_sm", Version: "3.7.2"}, meta)
	assert.Equal(t, "NLP is great. Ümlauts work.", doc.Text())

	sents := doc.Sentences()
	require.Len(t, sents, 2)
	first := sents[0].Tokens()
	require.Len(t, first, 4)
	assert.Equal(t, "great", first[2].Text())
	assert.Equal(t, 7, first[2].Offset())
	assert.Equal(t, 2, first[2].Index())
	assert.Equal(t, "AUX", first[1].POS())
	assert.Equal(t, "Mood=Ind", first[1].Morph())

	second := sents[1].Tokens()
	assert.Equal(t, "Ümlauts", second[0].Text())
	assert.Equal(t, 4, second[0].Index())

	head, ok := sents[0].Head(first[0])
	require.True(t, ok)
	assert.Equal(t, "great", head.Text())

	_, ok = sents[0].Head(first[2])
	assert.False(t, ok, "root has no head")

	ents := doc.Entities()
	require.Len(t, ents, 1)
	start, end := ents[0].Bounds()
	assert.Equal(t, 0, start)
	assert.Equal(t, 1, end)
	assert.Equal(t, "NLP", ents[0].Text())
	assert.Equal(t, "ORG", ents[0].Label())

	chunks := doc.NounChunks()
	require.Len(t, chunks, 2)
	start, end = chunks[1].Bounds()
	assert.Equal(t, []int{4, 5, 4}, []int{start, end, chunks[1].Head()})
}

func TestDecodeWithoutSentences(t *testing.T) {
	doc, _, err := Decode([]byte(`{"text": "a b", "tokens": [
		{"id": 0, "start": 0, "end": 1, "head": 0},
		{"id": 1, "start": 2, "end": 3, "head": 0}]}`))
	require.NoError(t, err)
	require.Len(t, doc.Sentences(), 1)
	assert.Len(t, doc.Sentences()[0].Tokens(), 2)
}

func TestDecodeErrors(t *testing.T) {
	tests := map[string]string{
		"syntax":        `{"text":`,
		"id gap":        `{"text": "a", "tokens": [{"id": 1, "start": 0, "end": 1, "head": 1}]}`,
		"bounds":        `{"text": "a", "tokens": [{"id": 0, "start": 0, "end": 5, "head": 0}]}`,
		"head":          `{"text": "a", "tokens": [{"id": 0, "start": 0, "end": 1, "head": 3}]}`,
		"entity bounds": `{"text": "a", "ents": [{"start": 0, "end": 9}], "tokens": []}`,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := Decode([]byte(in))
			assert.Error(t, err)
		})
	}
}

func TestEngineProcess(t *testing.T) {
	e, err := New(engine.Config{Name: engine.Spacy, Model: "requested", Runner: engine.StaticRunner(nlpJSON)})
	require.NoError(t, err)

	assert.Equal(t, engine.Spacy, e.Name())
	assert.False(t, e.ResetsTokenNumbering())
	assert.Equal(t, 0, e.FirstTokenIndex())
	assert.Equal(t, "requested", e.Model())

	doc, err := e.Process(context.Background(), "ignored")
	require.NoError(t, err)
	assert.Len(t, doc.Sentences(), 2)
	assert.Equal(t, "en_core_web_sm", e.Model())
	assert.Equal(t, "3.7.2", e.Version())
}

func TestNewMissingCommand(t *testing.T) {
	_, err := New(engine.Config{Name: engine.Spacy, Command: []string{"naf-no-such-engine"}})
	assert.ErrorIs(t, err, engine.ErrConfig)
}

func TestDefaultCommand(t *testing.T) {
	assert.Equal(t, "en_core_web_sm", DefaultModel("en"))
	assert.Equal(t, "nl_core_news_sm", DefaultModel("nl"))

	cmd := Command("nl_core_news_sm")
	require.Len(t, cmd, 4)
	assert.Equal(t, "python3", cmd[0])
	assert.Contains(t, cmd[2], "doc.to_json()")
	assert.Equal(t, "nl_core_news_sm", cmd[3])
}
