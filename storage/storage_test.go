package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revelaction/naf/naf"
)

func TestName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"a.naf", "a.naf"},
		{"dir/report.pdf", "report.naf"},
		{"/tmp/notes", "notes.naf"},
		{"x.tar.gz", "x.tar.naf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Name(tt.path), tt.path)
	}
}

func TestDescribe(t *testing.T) {
	doc := naf.New("nl", "v3")
	doc.SetFileDesc(naf.FileDesc{Title: "Verslag"})
	require.NoError(t, doc.AddRaw("Hallo"))
	data := doc.Bytes()

	d := Describe("verslag.naf", doc, data)
	assert.Equal(t, "verslag.naf", d.Name)
	assert.Equal(t, "nl", d.Lang)
	assert.Equal(t, "v3", d.Version)
	assert.Equal(t, "Verslag", d.Title)
	assert.Equal(t, []string{"nafHeader", "raw"}, d.Layers)
	assert.Equal(t, len(data), d.Size)
	assert.Len(t, d.Digest, 64)
	assert.Equal(t, d.Digest, Digest(doc.Bytes()))
	assert.NotEqual(t, d.Digest, Digest([]byte("other")))
}
