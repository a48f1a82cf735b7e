package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/revelaction/naf/pipeline"
	"github.com/revelaction/naf/validate"
)

func (e *env) validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "check NAF documents against the NAF content model",
		ArgsUsage: "<file.naf|name>...",
		Flags: []cli.Flag{
			repoFlag(),
			&cli.BoolFlag{Name: "dtd", Usage: "validate with xmllint and the NAF DTD"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return errors.New("validate needs a document")
			}

			mode := pipeline.ValidateBuiltin
			if c.Bool("dtd") {
				mode = pipeline.ValidateDTD
			}
			v, err := validate.New(mode)
			if err != nil {
				return err
			}

			read, done, err := docReader(c)
			if err != nil {
				return err
			}
			defer done()

			invalid := 0
			for _, name := range c.Args().Slice() {
				doc, err := read(name)
				if err != nil {
					return err
				}
				defects, err := v.Validate(c.Context, doc.Bytes(), doc.Version())
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				if len(defects) == 0 {
					fmt.Fprintf(e.ui.Out, "✅ %s: valid NAF %s\n", name, doc.Version())
					continue
				}
				invalid++
				fmt.Fprintf(e.ui.Out, "❌ %s: %d defects\n", name, len(defects))
				for _, d := range defects {
					fmt.Fprintf(e.ui.Out, "  %s\n", d)
				}
			}
			if invalid > 0 {
				return fmt.Errorf("%d invalid documents", invalid)
			}
			return nil
		},
	}
}
