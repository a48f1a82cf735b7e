// Package storage defines the repositories that hold NAF documents.
package storage

import (
	"encoding/hex"
	"errors"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/revelaction/naf/naf"
)

// Ext is the file extension of stored documents.
const Ext = ".naf"

// ErrNotFound is returned when a document name is not in the repository.
var ErrNotFound = errors.New("document not found")

// Doc describes a stored document without its content.
type Doc struct {
	ID      int
	Name    string
	Lang    string
	Version string
	Title   string
	Layers  []string

	// Digest is the blake3 sum of the serialized document.
	Digest string
	Size   int
}

type DocReader interface {
	// List returns the documents whose name contains match, sorted by name.
	List(match string) ([]Doc, error)
	Read(name string) (*naf.Document, error)
}

type DocWriter interface {
	Write(name string, doc *naf.Document) error
}

type DocRepository interface {
	DocReader
	DocWriter
}

// Preloader loads all documents ahead of use. The callback is called for
// each document loaded (total, current name).
type Preloader interface {
	Load(cb func(total int, name string)) error
}

// Name returns the repository name of path: its base name with the .naf
// extension.
func Name(path string) string {
	base := filepath.Base(path)
	if filepath.Ext(base) == Ext {
		return base
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + Ext
}

// Digest returns the hex encoded blake3 sum of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Describe builds the Doc of a serialized document.
func Describe(name string, doc *naf.Document, data []byte) Doc {
	d := Doc{
		Name:    name,
		Lang:    doc.Language(),
		Version: doc.Version(),
		Layers:  doc.LayerNames(),
		Digest:  Digest(data),
		Size:    len(data),
	}
	if fd := doc.Header().FileDesc; fd != nil {
		d.Title = fd.Title
	}
	return d
}
