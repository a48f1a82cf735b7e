// Package pipeline turns a source document into a NAF document: it runs
// the configured engine over the extracted text, builds the selected
// layers, checks the layers against each other and optionally validates
// the result.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/revelaction/naf/engine"
	"github.com/revelaction/naf/engine/spacy"
	"github.com/revelaction/naf/engine/stanza"
	"github.com/revelaction/naf/extract"
	"github.com/revelaction/naf/layer"
	"github.com/revelaction/naf/logging"
	"github.com/revelaction/naf/naf"
	"github.com/revelaction/naf/validate"
)

// DefaultRegistry returns a registry of the spaCy and stanza engines.
func DefaultRegistry() *engine.Registry {
	r := engine.NewRegistry()
	r.Register(engine.Spacy, spacy.New)
	r.Register(engine.Stanza, stanza.New)
	return r
}

// Result is the outcome of one run.
type Result struct {
	Doc             *naf.Document
	Inconsistencies []naf.Inconsistency

	// Validated is false when no validation was configured.
	Validated bool
	Valid     bool
	Defects   []validate.Defect
}

// Run builds the NAF document of src. Configuration errors are returned
// as *ConfigError or *engine.ConfigError. Inconsistencies between layers
// are logged and returned in the result, never as an error.
func Run(ctx context.Context, cfg Config, src extract.Source) (*Result, error) {
	log := logging.With("doc", src.Meta.Filename)

	if err := cfg.Check(); err != nil {
		log.Error("invalid configuration", "error", err)
		return nil, err
	}

	eng, err := cfg.registry().New(cfg.engineConfig())
	if err != nil {
		log.Error("engine configuration", "engine", cfg.Engine, "error", err)
		return nil, err
	}

	doc := naf.New(cfg.Language, cfg.Version)
	doc.SetFileDesc(naf.FileDesc{
		CreationTime: src.Meta.CreationTime,
		Filename:     src.Meta.Filename,
		Filetype:     src.Meta.Filetype,
		Title:        src.Meta.Title,
		Author:       src.Meta.Author,
		Pages:        src.Meta.Pages,
	})
	doc.SetPublic(naf.Public{URI: src.Meta.Filename})

	begin := time.Now().UTC()
	out, err := eng.Process(ctx, src.Text)
	if err != nil {
		return nil, fmt.Errorf("engine %s: %w", cfg.Engine, err)
	}
	end := time.Now().UTC()
	log.Debug("engine finished", "engine", eng.Name(), "model", eng.Model(), "sentences", len(out.Sentences()), "duration", end.Sub(begin))

	// precomputed output brings its own text
	inputText := src.Text
	if inputText == "" && cfg.EngineOutput != nil {
		inputText = out.Text()
	}

	lc := layer.NewContext(doc, eng, out, begin, end)
	lc.PosMapping = cfg.PosMapping
	lc.Layout = src.Layout
	lc.Log = log

	for _, l := range layer.Order() {
		if !cfg.builds(l) {
			continue
		}
		if l == naf.LayerFormats && cfg.Version == "v3" {
			log.Info("NAF v3 has no formats layer, skipped")
			continue
		}
		build, _ := layer.For(l)
		if err := build(lc); err != nil {
			return nil, fmt.Errorf("building %s layer: %w", l, err)
		}
	}

	res := &Result{Doc: doc}
	if !doc.HasLayer(naf.LayerRaw) {
		log.Info("raw layer not built, consistency evaluation skipped")
	} else {
		res.Inconsistencies = doc.Evaluate(out.Text(), inputText)
		for _, in := range res.Inconsistencies {
			args := []any{"check", in.Check, "message", in.Message}
			if in.ID != "" {
				args = append(args, "id", in.ID, "expected", in.Expected, "actual", in.Actual)
			}
			if in.Severity == naf.SeverityError {
				log.Error("inconsistent layers", args...)
			} else {
				log.Warn("inconsistent layers", args...)
			}
		}
	}

	if cfg.Validation != ValidateNone {
		v, err := validate.New(cfg.Validation)
		if err != nil {
			return nil, &ConfigError{Field: "validate", Message: err.Error()}
		}
		res.Validated = true
		res.Defects, err = doc.Validate(ctx, v)
		if err != nil {
			log.Error("NAF validation could not run", "version", doc.Version(), "error", err)
		}
		for _, df := range res.Defects {
			log.Warn("NAF validation defect", "path", df.Path, "message", df.Message)
		}
		res.Valid = err == nil && len(res.Defects) == 0
	}
	return res, nil
}

// File extracts path and runs the pipeline over it. A .json file is taken
// as precomputed output of the configured engine.
func File(ctx context.Context, cfg Config, path string) (*Result, error) {
	if extract.Filetype(path) == "json" {
		return EngineOutputFile(ctx, cfg, path)
	}

	src, err := extract.File(path)
	if err != nil {
		return nil, err
	}
	return Run(ctx, cfg, src)
}

// EngineOutputFile runs the pipeline over the precomputed engine JSON at
// path instead of running the engine.
func EngineOutputFile(ctx context.Context, cfg Config, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("IO error: %w", err)
	}
	cfg.EngineOutput = data
	src := extract.Source{Meta: extract.Meta{Filename: filepath.Base(path), Filetype: "json"}}
	return Run(ctx, cfg, src)
}
