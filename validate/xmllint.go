package validate

import (
	"bufio"
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

//go:embed dtd/*.dtd
var dtds embed.FS

// ErrNoXMLLint is returned when the xmllint binary is not in PATH.
var ErrNoXMLLint = errors.New("xmllint not found in PATH")

// DTD returns the embedded DTD of a NAF version.
func DTD(version string) ([]byte, error) {
	b, err := dtds.ReadFile("dtd/naf_" + version + ".dtd")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVersion, version)
	}
	return b, nil
}

// XMLLint validates against the DTD of the version by running
// xmllint --noout --dtdvalid.
type XMLLint struct {
	// Path of the xmllint binary. Empty means look it up in PATH.
	Path string
}

var _ Validator = XMLLint{}

// Validate implements Validator.
func (x XMLLint) Validate(ctx context.Context, data []byte, version string) ([]Defect, error) {
	dtd, err := DTD(version)
	if err != nil {
		return nil, err
	}

	bin := x.Path
	if bin == "" {
		if bin, err = exec.LookPath("xmllint"); err != nil {
			return nil, ErrNoXMLLint
		}
	}

	dir, err := os.MkdirTemp("", "naf-validate")
	if err != nil {
		return nil, fmt.Errorf("IO error: %w", err)
	}
	defer os.RemoveAll(dir)

	dtdPath := filepath.Join(dir, "naf.dtd")
	docPath := filepath.Join(dir, "doc.naf")
	if err := os.WriteFile(dtdPath, dtd, 0644); err != nil {
		return nil, fmt.Errorf("IO error: %w", err)
	}
	if err := os.WriteFile(docPath, data, 0644); err != nil {
		return nil, fmt.Errorf("IO error: %w", err)
	}

	cmd := exec.CommandContext(ctx, bin, "--noout", "--dtdvalid", dtdPath, docPath)
	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return nil, fmt.Errorf("running xmllint: %w", err)
	}

	defects := parseXMLLint(output, docPath)
	if len(defects) == 0 {
		defects = append(defects, Defect{Message: fmt.Sprintf("xmllint exited with status %d", exitErr.ExitCode())})
	}
	return defects, nil
}

// parseXMLLint turns xmllint diagnostics ("file:line: message") into
// defects. Context lines (source excerpt and caret) are skipped.
func parseXMLLint(output []byte, docPath string) []Defect {
	var defects []Defect
	sc := bufio.NewScanner(bytes.NewReader(output))
	for sc.Scan() {
		line := sc.Text()
		rest, ok := strings.CutPrefix(line, docPath+":")
		if !ok {
			continue
		}
		loc, msg, found := strings.Cut(rest, ":")
		if !found {
			continue
		}
		defects = append(defects, Defect{Path: "line " + loc, Message: strings.TrimSpace(msg)})
	}
	return defects
}
