package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/revelaction/naf/naf"
	"github.com/revelaction/naf/storage"
	"github.com/revelaction/naf/storage/filesystem"
	"github.com/revelaction/naf/storage/sqlite/zombiezen"
)

// isDB reports whether path names a SQLite repository rather than a
// directory of .naf files.
func isDB(path string) bool {
	switch filepath.Ext(path) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// openRepo opens the repository at path. The returned func closes it.
func openRepo(path string) (storage.DocRepository, func() error, error) {
	if isDB(path) {
		s, err := zombiezen.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}

	s, err := filesystem.NewDocStore(path)
	if err != nil {
		return nil, nil, err
	}
	return s, func() error { return nil }, nil
}

// repoPath returns the repository named by --repo, or the configured store.
func (e *env) repoPath(c *cli.Context) string {
	if p := c.String("repo"); p != "" {
		return p
	}
	return e.cfg.Store.Path
}

func repoFlag() cli.Flag {
	return &cli.StringFlag{Name: "repo", Aliases: []string{"r"}, Usage: "document repository: a directory or a SQLite file (default store.path)"}
}

// docReader returns a reader of documents: the repository of --repo when
// set, else the filesystem where names are paths of NAF files.
func docReader(c *cli.Context) (func(name string) (*naf.Document, error), func() error, error) {
	if !c.IsSet("repo") {
		return naf.Open, func() error { return nil }, nil
	}

	repo, closeRepo, err := openRepo(c.String("repo"))
	if err != nil {
		return nil, nil, err
	}
	return repo.Read, closeRepo, nil
}
