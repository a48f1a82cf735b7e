package zombiezen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ulikunitz/xz"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/revelaction/naf/logging"
	"github.com/revelaction/naf/naf"
	"github.com/revelaction/naf/storage"
)

// DocStore keeps NAF documents in a SQLite table, xz compressed and keyed
// by name. The blake3 digest of the serialized document detects unchanged
// writes.
type DocStore struct {
	pool *sqlitex.Pool
}

var _ storage.DocRepository = (*DocStore)(nil)

func NewDocStore(pool *sqlitex.Pool) *DocStore {
	return &DocStore{pool: pool}
}

func (h *DocStore) Close() error {
	return h.pool.Close()
}

func (h *DocStore) List(match string) ([]storage.Doc, error) {
	conn, err := h.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer h.pool.Put(conn)

	docs := []storage.Doc{}
	err = sqlitex.Execute(conn, "SELECT id, name, lang, version, title, layers, digest, size FROM docs WHERE instr(name, ?) > 0 ORDER BY name", &sqlitex.ExecOptions{
		Args: []any{match},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			d := storage.Doc{
				ID:      stmt.ColumnInt(0),
				Name:    stmt.ColumnText(1),
				Lang:    stmt.ColumnText(2),
				Version: stmt.ColumnText(3),
				Title:   stmt.ColumnText(4),
				Digest:  stmt.ColumnText(6),
				Size:    stmt.ColumnInt(7),
			}
			if layers := stmt.ColumnText(5); layers != "" {
				d.Layers = strings.Split(layers, ",")
			}
			docs = append(docs, d)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (h *DocStore) Read(name string) (*naf.Document, error) {
	name = storage.Name(name)

	conn, err := h.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer h.pool.Put(conn)

	var data []byte
	found := false
	err = sqlitex.Execute(conn, "SELECT data FROM docs WHERE name = ?", &sqlitex.ExecOptions{
		Args: []any{name},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			found = true
			var err error
			data, err = decompress(stmt.ColumnReader(0))
			return err
		},
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, name)
	}

	return naf.Parse(bytes.NewReader(data))
}

// Write inserts or replaces the document stored under name. A document
// whose digest matches the stored one is not rewritten.
func (h *DocStore) Write(name string, doc *naf.Document) (err error) {
	name = storage.Name(name)
	data := doc.Bytes()
	d := storage.Describe(name, doc, data)

	conn, err := h.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer h.pool.Put(conn)

	defer sqlitex.Save(conn)(&err)

	unchanged := false
	err = sqlitex.Execute(conn, "SELECT 1 FROM docs WHERE name = ? AND digest = ?", &sqlitex.ExecOptions{
		Args: []any{name, d.Digest},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			unchanged = true
			return nil
		},
	})
	if err != nil {
		return err
	}
	if unchanged {
		logging.Debug("document unchanged, not rewritten", "name", name, "digest", d.Digest)
		return nil
	}

	blob, err := compress(data)
	if err != nil {
		return fmt.Errorf("compressing %s: %w", name, err)
	}

	return sqlitex.Execute(conn, `INSERT INTO docs (name, lang, version, title, layers, digest, size, data)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET lang = excluded.lang, version = excluded.version, title = excluded.title,
layers = excluded.layers, digest = excluded.digest, size = excluded.size, data = excluded.data`, &sqlitex.ExecOptions{
		Args: []any{name, d.Lang, d.Version, d.Title, strings.Join(d.Layers, ","), d.Digest, d.Size, blob},
	})
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(r io.Reader) ([]byte, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(xr)
}
