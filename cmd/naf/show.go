package main

import (
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/revelaction/naf/naf"
	"github.com/revelaction/naf/render"
)

func (e *env) showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "render the layers of a NAF document",
		ArgsUsage: "<file.naf|name> [layer]",
		Flags: []cli.Flag{
			repoFlag(),
			&cli.BoolFlag{Name: "json", Usage: "write layer records as JSON"},
			&cli.BoolFlag{Name: "color", Usage: "highlight entities in sentences"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return errors.New("show needs a document")
			}
			read, done, err := docReader(c)
			if err != nil {
				return err
			}
			defer done()

			doc, err := read(c.Args().Get(0))
			if err != nil {
				return err
			}

			var r render.Renderer
			if c.Bool("json") {
				r = render.NewJSONRenderer(e.ui.Out)
			} else {
				r = &render.TextRenderer{W: e.ui.Out, HasColor: c.Bool("color")}
			}
			return r.Render(doc, naf.Layer(c.Args().Get(1)))
		},
	}
}
