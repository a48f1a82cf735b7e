// Package stat aggregates counts over NAF documents.
package stat

import (
	"sort"

	"github.com/samber/lo"

	"github.com/revelaction/naf/naf"
)

type Handler struct {
	stats Stats
}

type Stats struct {
	NumDocs               int
	NumSentences          int
	NumTokens             int
	NumTerms              int
	NumEntities           int
	NumDeps               int
	NumChunks             int
	NumMultiwords         int
	TokensPerSentenceMean int
	TokensPerSentenceDis  map[int]int

	// POS counts terms per part of speech tag.
	POS map[string]int

	// EntityTypes counts entities per type.
	EntityTypes map[string]int
}

func (h *Handler) Get() Stats {
	return h.stats
}

func NewHandler() *Handler {
	stats := Stats{
		TokensPerSentenceDis: map[int]int{},
		POS:                  map[string]int{},
		EntityTypes:          map[string]int{},
	}
	return &Handler{
		stats: stats,
	}
}

// Aggregate adds the counts of doc. It can be called once per document of
// a collection.
func (h *Handler) Aggregate(doc *naf.Document) {
	h.stats.NumDocs++

	wfs := doc.WordForms()
	perSentence := lo.GroupBy(wfs, func(wf naf.WordForm) string { return wf.Sent })
	h.stats.NumSentences += len(perSentence)
	h.stats.NumTokens += len(wfs)
	for _, sentence := range perSentence {
		h.stats.TokensPerSentenceDis[len(sentence)]++
	}

	terms := doc.Terms()
	h.stats.NumTerms += len(terms)
	for _, t := range terms {
		h.stats.POS[t.POS]++
	}

	ents := doc.Entities()
	h.stats.NumEntities += len(ents)
	for _, e := range ents {
		h.stats.EntityTypes[e.Type]++
	}

	h.stats.NumDeps += len(doc.Dependencies())
	h.stats.NumChunks += len(doc.Chunks())
	h.stats.NumMultiwords += len(doc.Multiwords())

	if h.stats.NumSentences > 0 {
		h.stats.TokensPerSentenceMean = h.stats.NumTokens / h.stats.NumSentences
	}
}

// Distribution returns the sentence lengths of TokensPerSentenceDis in
// ascending order.
func (s Stats) Distribution() []int {
	lengths := lo.Keys(s.TokensPerSentenceDis)
	sort.Ints(lengths)
	return lengths
}
