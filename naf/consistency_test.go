package naf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateConsistent(t *testing.T) {
	d := sample(t)
	assert.Empty(t, d.Evaluate("NLP is great.", "NLP is great."))
}

func TestEvaluateReportsEveryCheck(t *testing.T) {
	d := New("en", "")
	require.NoError(t, d.AddRaw("Ünïcode ok"))
	d.AddWordForm(WordForm{Offset: 0, Length: 7, Text: "Ünïcode"})
	d.AddWordForm(WordForm{Offset: 7, Length: 2, Text: "ok"})

	got := d.Evaluate("Ünïcode ok!", "Ünïcode")
	require.Len(t, got, 3)

	assert.Equal(t, CheckEngineText, got[0].Check)
	assert.Equal(t, SeverityError, got[0].Severity)
	assert.Equal(t, 11, got[0].Expected)
	assert.Equal(t, "10", got[0].Actual)

	assert.Equal(t, CheckInputText, got[1].Check)
	assert.Equal(t, 7, got[1].Expected)

	assert.Equal(t, CheckWordForm, got[2].Check)
	assert.Equal(t, SeverityWarning, got[2].Severity)
	assert.Equal(t, "w2", got[2].ID)
	assert.Equal(t, 2, got[2].Expected)
	assert.Equal(t, " o", got[2].Actual)
}

func TestEvaluateOutOfRangeWordForm(t *testing.T) {
	d := New("en", "")
	require.NoError(t, d.AddRaw("ab"))
	d.AddWordForm(WordForm{Offset: 5, Length: 3, Text: "xyz"})

	got := d.Evaluate("ab", "ab")
	require.Len(t, got, 1)
	assert.Equal(t, "", got[0].Actual)
}
