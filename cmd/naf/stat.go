package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/revelaction/naf/stat"
)

func (e *env) statCommand() *cli.Command {
	return &cli.Command{
		Name:      "stat",
		Usage:     "count the annotations of NAF documents",
		ArgsUsage: "<file.naf|name>...",
		Flags:     []cli.Flag{repoFlag()},
		Action: func(c *cli.Context) error {
			names := c.Args().Slice()
			if len(names) == 0 {
				if !c.IsSet("repo") {
					return errors.New("stat needs documents or a repository")
				}
				var err error
				if names, err = e.repoNames(c.String("repo"), ""); err != nil {
					return err
				}
			}

			read, done, err := docReader(c)
			if err != nil {
				return err
			}
			defer done()

			hdl := stat.NewHandler()
			for _, n := range names {
				doc, err := read(n)
				if err != nil {
					return err
				}
				hdl.Aggregate(doc)
			}

			e.printStats(hdl.Get())
			return nil
		},
	}
}

func (e *env) repoNames(path, match string) ([]string, error) {
	repo, closeRepo, err := openRepo(path)
	if err != nil {
		return nil, err
	}
	defer closeRepo()

	docs, err := repo.List(match)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}
	return names, nil
}

func (e *env) printStats(s stat.Stats) {
	fmt.Fprintf(e.ui.Out, "Num docs %d, num sentences %d, num tokens %d, num tokens per sentence %d\n",
		s.NumDocs, s.NumSentences, s.NumTokens, s.TokensPerSentenceMean)
	fmt.Fprintf(e.ui.Out, "Num terms %d, num entities %d, num deps %d, num chunks %d, num multiwords %d\n",
		s.NumTerms, s.NumEntities, s.NumDeps, s.NumChunks, s.NumMultiwords)
	for _, n := range s.Distribution() {
		fmt.Fprintf(e.ui.Out, "%4d tokens: %d sentences\n", n, s.TokensPerSentenceDis[n])
	}
}
