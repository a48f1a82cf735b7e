// Package validate checks serialized NAF documents against the content model
// of their format version.
package validate

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownVersion is returned for a NAF version without a content model.
var ErrUnknownVersion = errors.New("unknown NAF version")

// Defect is one validation failure.
type Defect struct {
	// Path locates the offending node, e.g. /NAF/terms/term[@id='t3'].
	Path    string
	Message string
}

func (d Defect) String() string {
	if d.Path == "" {
		return d.Message
	}
	return fmt.Sprintf("%s: %s", d.Path, d.Message)
}

// Validator validates a serialized NAF document of the given version. A nil
// error with no defects means the document is valid; an error means the
// validation could not run.
type Validator interface {
	Validate(ctx context.Context, data []byte, version string) ([]Defect, error)
}

// Versions returns the NAF versions with a content model.
func Versions() []string {
	return []string{"v3", "v3.1"}
}

// New returns the validator for mode: "builtin" or "dtd".
func New(mode string) (Validator, error) {
	switch mode {
	case "", "builtin":
		return Builtin{}, nil
	case "dtd":
		return XMLLint{}, nil
	default:
		return nil, fmt.Errorf("unknown validation mode %q", mode)
	}
}
