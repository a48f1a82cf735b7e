package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

func (e *env) lsCommand() *cli.Command {
	return &cli.Command{
		Name:      "ls",
		Usage:     "list the documents of a repository",
		ArgsUsage: "[match]",
		Flags: []cli.Flag{
			repoFlag(),
			&cli.BoolFlag{Name: "long", Aliases: []string{"L"}, Usage: "show layers and digest"},
		},
		Action: func(c *cli.Context) error {
			repo, closeRepo, err := openRepo(e.repoPath(c))
			if err != nil {
				return err
			}
			defer closeRepo()

			docs, err := repo.List(c.Args().Get(0))
			if err != nil {
				return err
			}
			for _, d := range docs {
				fmt.Fprintf(e.ui.Out, "📖 %d %s %s %s %q\n", d.ID, d.Name, d.Lang, d.Version, d.Title)
				if c.Bool("long") {
					fmt.Fprintf(e.ui.Out, "   %s %d bytes blake3:%s\n", strings.Join(d.Layers, ","), d.Size, d.Digest)
				}
			}
			return nil
		},
	}
}
