package naf

import "time"

// FileDesc describes the source file of the document.
type FileDesc struct {
	CreationTime time.Time
	Filename     string
	Filetype     string
	Title        string
	Author       string
	Pages        int
}

// Public holds the public identity of the document. An empty PublicID is
// replaced by a generated UUID when written.
type Public struct {
	PublicID string
	URI      string
}

// ProcessorRecord is the provenance of one layer: which engine produced it
// and when.
type ProcessorRecord struct {
	Name     string
	Version  string
	Model    string
	Hostname string
	Begin    time.Time
	End      time.Time
}

// LayerProcessors groups the processor records of one layer.
type LayerProcessors struct {
	Layer   Layer
	Records []ProcessorRecord
}

// Header is the typed view of nafHeader.
type Header struct {
	FileDesc   *FileDesc
	Public     *Public
	Processors []LayerProcessors
}

// WordForm is a token as it appears in the source text. Offset and Length
// count runes.
type WordForm struct {
	ID     string
	Sent   string
	Para   string
	Page   string
	Offset int
	Length int
	Text   string
}

// End returns the end-exclusive rune offset of the word form.
func (w WordForm) End() int {
	return w.Offset + w.Length
}

// ExternalRef links an annotation to an external resource.
type ExternalRef struct {
	Resource   string
	Reference  string
	Confidence string
	RefType    string
	Source     string
	Timestamp  time.Time
}

// Term is a lemma/POS annotation over one or more word forms.
type Term struct {
	ID          string
	Type        string
	Lemma       string
	POS         string
	Morphofeat  string
	ComponentOf string
	Span        []string
	Comment     string

	ExternalRefs []ExternalRef
}

// Entity is a named entity over a contiguous span of terms.
type Entity struct {
	ID      string
	Type    string
	Status  string
	Source  string
	Span    []string
	Comment string

	ExternalRefs []ExternalRef
}

// Dependency is a directed syntactic relation between two terms.
type Dependency struct {
	From    string
	To      string
	RFunc   string
	Comment string
}

// Component is one part of a multiword, spanning terms.
type Component struct {
	ID      string
	Type    string
	Lemma   string
	POS     string
	Span    []string
	Comment string
}

// Multiword groups terms that form one lexical unit, e.g. a phrasal verb.
type Multiword struct {
	ID         string
	Lemma      string
	POS        string
	Type       string
	Components []Component
}

// Chunk is a phrase over a span of terms.
type Chunk struct {
	ID      string
	Head    string
	Phrase  string
	Span    []string
	Comment string
}

// FormatText is a run of text with a single style.
type FormatText struct {
	Font   string
	Size   string
	Offset int
	Length int
	Text   string
}

// FormatTextline is a line of styled runs.
type FormatTextline struct {
	Offset int
	Length int
	Texts  []FormatText
}

// FormatTextbox is a block of lines.
type FormatTextbox struct {
	Offset    int
	Length    int
	Textlines []FormatTextline
}

// FormatPage is one page of the source layout.
type FormatPage struct {
	ID        string
	Offset    int
	Length    int
	Textboxes []FormatTextbox
}
