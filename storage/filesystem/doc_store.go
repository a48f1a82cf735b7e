package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/revelaction/naf/naf"
	"github.com/revelaction/naf/storage"
)

// DocStore keeps NAF documents as .naf files in a directory.
type DocStore struct {
	dir string

	mu sync.Mutex
	// In-memory cache, filled by Load and Read
	docs map[string]*naf.Document
}

var _ storage.DocRepository = (*DocStore)(nil)
var _ storage.Preloader = (*DocStore)(nil)

// NewDocStore returns a store rooted at dir, creating it if needed.
func NewDocStore(dir string) (*DocStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory %s: %w", dir, err)
	}
	return &DocStore{dir: dir, docs: map[string]*naf.Document{}}, nil
}

func (s *DocStore) names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != storage.Ext {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Load parses every document of the directory into memory.
func (s *DocStore) Load(cb func(total int, name string)) error {
	names, err := s.names()
	if err != nil {
		return err
	}

	for _, n := range names {
		if _, err := s.Read(n); err != nil {
			return err
		}
		if cb != nil {
			cb(len(names), n)
		}
	}
	return nil
}

func (s *DocStore) List(match string) ([]storage.Doc, error) {
	names, err := s.names()
	if err != nil {
		return nil, err
	}

	docs := []storage.Doc{}
	for i, n := range names {
		if !strings.Contains(n, match) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, n))
		if err != nil {
			return nil, err
		}
		doc, err := s.Read(n)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n, err)
		}
		d := storage.Describe(n, doc, data)
		d.ID = i + 1
		docs = append(docs, d)
	}
	return docs, nil
}

func (s *DocStore) Read(name string) (*naf.Document, error) {
	name = storage.Name(name)

	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.docs[name]; ok {
		return doc, nil
	}

	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, name)
	}
	doc, err := naf.Open(path)
	if err != nil {
		return nil, err
	}
	s.docs[name] = doc
	return doc, nil
}

func (s *DocStore) Write(name string, doc *naf.Document) error {
	name = storage.Name(name)
	if err := doc.WriteFile(filepath.Join(s.dir, name)); err != nil {
		return err
	}

	s.mu.Lock()
	s.docs[name] = doc
	s.mu.Unlock()
	return nil
}
