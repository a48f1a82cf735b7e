package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revelaction/naf/engine"
)

func TestTokenize(t *testing.T) {
	doc := Tokenize("NLP is great. Ça va!")
	require.Len(t, doc.Sentences, 2)

	first := doc.Sentences[0]
	require.Len(t, first, 4)
	assert.Equal(t, Token{Text: "NLP", Lemma: "nlp", POS: "X", Dep: "root", Offset: 0, Head: -1}, first[0])
	assert.Equal(t, 7, first[2].Offset)
	assert.Equal(t, 0, first[2].Head)
	assert.Equal(t, "PUNCT", first[3].POS)
	assert.Equal(t, 12, first[3].Offset)

	second := doc.Sentences[1]
	require.Len(t, second, 3)
	assert.Equal(t, "Ça", second[0].Text)
	assert.Equal(t, 14, second[0].Offset)
}

func TestProcessNumbering(t *testing.T) {
	doc := Tokenize("A b. C d.")

	tests := []struct {
		name  string
		reset bool
		want  [][]int
		first int
	}{
		{"continuous", false, [][]int{{0, 1, 2}, {3, 4, 5}}, 0},
		{"reset", true, [][]int{{1, 2, 3}, {1, 2, 3}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(doc, tt.reset)
			assert.Equal(t, tt.reset, e.ResetsTokenNumbering())
			assert.Equal(t, tt.first, e.FirstTokenIndex())

			d, err := e.Process(context.Background(), doc.Text)
			require.NoError(t, err)

			var got [][]int
			for _, s := range d.Sentences() {
				var idx []int
				for _, tok := range s.Tokens() {
					idx = append(idx, tok.Index())
				}
				got = append(got, idx)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProcessHeads(t *testing.T) {
	doc := Tokenize("NLP is great.")
	d, err := New(doc, false).Process(context.Background(), doc.Text)
	require.NoError(t, err)

	s := d.Sentences()[0]
	toks := s.Tokens()

	_, ok := s.Head(toks[0])
	assert.False(t, ok)

	h, ok := s.Head(toks[1])
	require.True(t, ok)
	assert.Equal(t, "NLP", h.Text())
}

func TestEntitiesAndChunks(t *testing.T) {
	doc := Tokenize("NLP is great.")
	doc.Entities = []Entity{{Text: "NLP", Label: "ORG", Start: 0, End: 1}}
	doc.NounChunks = []Chunk{{Start: 0, End: 1, Head: 0}}

	e := New(doc, false).WithName(engine.Spacy, "en_test", "3.7")
	assert.Equal(t, engine.Spacy, e.Name())
	assert.Equal(t, "en_test", e.Model())
	assert.Equal(t, "3.7", e.Version())

	d, err := e.Process(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "NLP is great.", d.Text())

	require.Len(t, d.Entities(), 1)
	start, end := d.Entities()[0].Bounds()
	assert.Equal(t, [2]int{0, 1}, [2]int{start, end})
	assert.Equal(t, "ORG", d.Entities()[0].Label())

	require.Len(t, d.NounChunks(), 1)
	assert.Equal(t, 0, d.NounChunks()[0].Head())
}

func TestProcessCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Doc{}, false).Process(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}
