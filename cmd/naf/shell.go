package main

import (
	"github.com/urfave/cli/v2"

	"github.com/revelaction/naf/shell"
)

func (e *env) shellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "browse the documents of a repository interactively",
		Flags: []cli.Flag{repoFlag()},
		Action: func(c *cli.Context) error {
			repo, closeRepo, err := openRepo(e.repoPath(c))
			if err != nil {
				return err
			}
			defer closeRepo()

			return shell.NewHandler(repo, e.ui.Out).Run()
		},
	}
}
