package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/revelaction/naf/engine"
	"github.com/revelaction/naf/logging"
	"github.com/revelaction/naf/naf"
	"github.com/revelaction/naf/pipeline"
	"github.com/revelaction/naf/storage"
)

func pipelineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "engine", Aliases: []string{"e"}, Usage: "NLP engine: spacy or stanza"},
		&cli.StringFlag{Name: "lang", Aliases: []string{"l"}, Usage: "language of the input"},
		&cli.StringFlag{Name: "model", Usage: "engine model (default per engine and language)"},
		&cli.StringFlag{Name: "naf-version", Usage: "NAF version written: v3 or v3.1"},
		&cli.StringSliceFlag{Name: "layers", Usage: "layers to build (default all)"},
		&cli.BoolFlag{Name: "pos-mapping", Usage: "map engine POS tags to the NAF tag set"},
		&cli.StringFlag{Name: "validate", Usage: "validate the result: builtin or dtd"},
		&cli.BoolFlag{Name: "engine-output", Usage: "input is precomputed engine JSON"},
	}
}

// pipelineConfig returns the configured pipeline with the flags of c
// applied.
func (e *env) pipelineConfig(c *cli.Context) pipeline.Config {
	pc := e.cfg.Pipeline()
	if c.IsSet("engine") {
		pc.Engine = engine.Name(c.String("engine"))
	}
	if c.IsSet("lang") {
		pc.Language = c.String("lang")
	}
	if c.IsSet("model") {
		pc.Model = c.String("model")
	}
	if c.IsSet("naf-version") {
		pc.Version = c.String("naf-version")
	}
	if c.IsSet("layers") {
		pc.Layers = nil
		for _, l := range c.StringSlice("layers") {
			pc.Layers = append(pc.Layers, naf.Layer(l))
		}
	}
	if c.IsSet("pos-mapping") {
		pc.PosMapping = c.Bool("pos-mapping")
	}
	if c.IsSet("validate") {
		pc.Validation = c.String("validate")
	}
	return pc
}

func runPipeline(ctx context.Context, pc pipeline.Config, path string, engineOutput bool) (*pipeline.Result, error) {
	if engineOutput {
		return pipeline.EngineOutputFile(ctx, pc, path)
	}
	return pipeline.File(ctx, pc, path)
}

func (e *env) processCommand() *cli.Command {
	return &cli.Command{
		Name:      "process",
		Usage:     "build the NAF document of a file",
		ArgsUsage: "<input> <output|->",
		Flags: append(pipelineFlags(),
			&cli.StringFlag{Name: "store", Usage: "also write the document to this repository"},
		),
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return errors.New("process needs an input and an output path")
			}
			return e.process(c, c.Args().Get(0), c.Args().Get(1))
		},
	}
}

// process writes nothing when the input cannot be processed.
func (e *env) process(c *cli.Context, input, output string) error {
	res, err := runPipeline(c.Context, e.pipelineConfig(c), input, c.Bool("engine-output"))
	if err != nil {
		logging.Error("document not processed", "doc", input, "error", err)
		return err
	}
	if res.Validated && !res.Valid {
		logging.Warn("document is not valid NAF", "doc", input)
	}

	if output == "-" {
		if err := res.Doc.Write(e.ui.Out); err != nil {
			return err
		}
	} else if err := res.Doc.WriteFile(output); err != nil {
		return err
	}

	if p := c.String("store"); p != "" {
		repo, closeRepo, err := openRepo(p)
		if err != nil {
			return err
		}
		defer closeRepo()
		if err := repo.Write(storage.Name(input), res.Doc); err != nil {
			return fmt.Errorf("storing %s: %w", input, err)
		}
	}

	logging.Info("document processed", "doc", input, "output", output, "inconsistencies", len(res.Inconsistencies))
	return nil
}
