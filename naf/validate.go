package naf

import (
	"context"

	"github.com/revelaction/naf/validate"
)

// Validate checks the serialized document with v against the content model
// of the document version and returns the defects found. The document is
// valid when there are none. Logging them is left to the caller.
func (d *Document) Validate(ctx context.Context, v validate.Validator) ([]validate.Defect, error) {
	return v.Validate(ctx, d.Bytes(), d.Version())
}
