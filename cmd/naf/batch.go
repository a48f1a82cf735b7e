package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/gosuri/uiprogress"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/revelaction/naf/engine"
	"github.com/revelaction/naf/extract"
	"github.com/revelaction/naf/logging"
	"github.com/revelaction/naf/storage"
)

func (e *env) batchCommand() *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "build the NAF documents of every file of a directory",
		ArgsUsage: "<dir> <repo>",
		Flags: append(pipelineFlags(),
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "documents processed in parallel (default batch.workers)"},
		),
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return errors.New("batch needs an input directory and an output repository")
			}
			return e.batch(c, c.Args().Get(0), c.Args().Get(1))
		},
	}
}

// batchInputs returns the files of dir the pipeline can read, sorted. Inputs
// whose document names collide are rejected before any is processed.
func batchInputs(dir string, engineOutput bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, en := range entries {
		if en.IsDir() {
			continue
		}
		p := filepath.Join(dir, en.Name())
		if engineOutput || extract.Supported(p) || extract.Filetype(p) == "json" {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	if err := checkNames(paths); err != nil {
		return nil, err
	}
	return paths, nil
}

// checkNames fails when two inputs map to the same repository name, as in
// report.pdf and report.docx.
func checkNames(paths []string) error {
	byName := lo.GroupBy(paths, storage.Name)
	names := lo.Keys(byName)
	sort.Strings(names)

	var clashes []string
	for _, name := range names {
		if group := byName[name]; len(group) > 1 {
			bases := lo.Map(group, func(p string, _ int) string { return filepath.Base(p) })
			clashes = append(clashes, fmt.Sprintf("%s (%s)", name, strings.Join(bases, ", ")))
		}
	}
	if len(clashes) > 0 {
		return fmt.Errorf("inputs share a document name: %s", strings.Join(clashes, "; "))
	}
	return nil
}

// batch runs one pipeline per document. A failing document is logged and
// skipped; a configuration error stops the batch.
func (e *env) batch(c *cli.Context, dir, out string) error {
	engineOutput := c.Bool("engine-output")
	paths, err := batchInputs(dir, engineOutput)
	if err != nil {
		return err
	}

	repo, closeRepo, err := openRepo(out)
	if err != nil {
		return err
	}
	defer closeRepo()

	workers := e.cfg.Batch.Workers
	if c.IsSet("workers") {
		workers = c.Int("workers")
	}
	if workers < 1 {
		workers = 1
	}

	pc := e.pipelineConfig(c)
	if err := pc.Check(); err != nil {
		return err
	}

	fmt.Fprintf(e.ui.Out, "Processing %d docs from %s...\n", len(paths), dir)

	progress := uiprogress.New()
	progress.SetOut(e.ui.Err)
	progress.Start()
	bar := progress.AddBar(len(paths))
	bar.AppendCompleted()
	bar.PrependElapsed()

	var failed atomic.Int32
	g, ctx := errgroup.WithContext(c.Context)
	g.SetLimit(workers)
	for _, path := range paths {
		path := path // per-iteration copy (go1.21 loop semantics)
		g.Go(func() error {
			defer bar.Incr()

			if ctx.Err() != nil {
				return ctx.Err()
			}
			res, err := runPipeline(ctx, pc, path, engineOutput)
			if err != nil {
				if errors.Is(err, engine.ErrConfig) {
					return err
				}
				logging.Error("document not processed", "doc", path, "error", err)
				failed.Add(1)
				return nil
			}
			if err := repo.Write(storage.Name(path), res.Doc); err != nil {
				logging.Error("document not stored", "doc", path, "error", err)
				failed.Add(1)
			}
			return nil
		})
	}
	err = g.Wait()
	progress.Stop()
	if err != nil {
		return err
	}

	n := int(failed.Load())
	fmt.Fprintf(e.ui.Out, "Processed %d docs from %s to %s, %d failed\n", len(paths)-n, dir, out, n)
	if n > 0 {
		return fmt.Errorf("%d documents failed", n)
	}
	return nil
}
