package naf

import (
	"fmt"
	"unicode/utf8"
)

// Severity of an Inconsistency.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Inconsistency is one disagreement between the raw layer, the engine text
// and the word forms.
type Inconsistency struct {
	Severity Severity
	Check    string
	// ID of the word form, when the check is per word form.
	ID       string
	Expected int
	Actual   string
	Message  string
}

const (
	CheckEngineText = "engine-text-length"
	CheckInputText  = "input-text-length"
	CheckWordForm   = "wordform-substring"
)

// Evaluate compares the raw layer with the text the engine saw, the text
// that was given to the engine and every word form. It only reports;
// nothing in the document is changed.
func (d *Document) Evaluate(engineText, inputText string) []Inconsistency {
	var out []Inconsistency

	raw := []rune(d.Raw())
	engineLen := utf8.RuneCountInString(engineText)
	inputLen := utf8.RuneCountInString(inputText)

	if engineLen != len(raw) {
		out = append(out, Inconsistency{
			Severity: SeverityError,
			Check:    CheckEngineText,
			Expected: engineLen,
			Actual:   fmt.Sprint(len(raw)),
			Message:  "length of engine text differs from raw layer",
		})
	}

	if len(raw) != inputLen {
		out = append(out, Inconsistency{
			Severity: SeverityError,
			Check:    CheckInputText,
			Expected: inputLen,
			Actual:   fmt.Sprint(len(raw)),
			Message:  "length of raw layer differs from engine input",
		})
	}

	for _, wf := range d.WordForms() {
		got := substring(raw, wf.Offset, wf.End())
		if got == wf.Text {
			continue
		}
		out = append(out, Inconsistency{
			Severity: SeverityWarning,
			Check:    CheckWordForm,
			ID:       wf.ID,
			Expected: wf.Length,
			Actual:   got,
			Message:  fmt.Sprintf("raw text at offset %d does not match word form %q", wf.Offset, wf.Text),
		})
	}

	return out
}

// substring returns r[start:end] clamped to the bounds of r.
func substring(r []rune, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(r) {
		end = len(r)
	}
	if start >= end {
		return ""
	}
	return string(r[start:end])
}
