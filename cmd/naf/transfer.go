package main

import (
	"errors"
	"fmt"

	"github.com/gosuri/uiprogress"
	"github.com/urfave/cli/v2"

	"github.com/revelaction/naf/storage"
	"github.com/revelaction/naf/storage/filesystem"
	"github.com/revelaction/naf/storage/sqlite/zombiezen"
)

func (e *env) importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "copy the .naf files of a directory into a SQLite repository",
		ArgsUsage: "<dir> <db>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return errors.New("import needs a directory and a database")
			}
			from, to := c.Args().Get(0), c.Args().Get(1)

			src, err := filesystem.NewDocStore(from)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.ui.Out, "Reading docs from %s...\n", from)
			if err := src.Load(nil); err != nil {
				return err
			}

			dst, err := zombiezen.Open(to)
			if err != nil {
				return err
			}
			defer dst.Close()

			return e.transfer(src, dst, from, to)
		},
	}
}

func (e *env) exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "write the documents of a SQLite repository as .naf files",
		ArgsUsage: "<db> <dir>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return errors.New("export needs a database and a directory")
			}
			from, to := c.Args().Get(0), c.Args().Get(1)

			src, err := zombiezen.Open(from)
			if err != nil {
				return err
			}
			defer src.Close()

			dst, err := filesystem.NewDocStore(to)
			if err != nil {
				return err
			}

			return e.transfer(src, dst, from, to)
		},
	}
}

// transfer copies every document of src to dst.
func (e *env) transfer(src storage.DocReader, dst storage.DocWriter, from, to string) error {
	docs, err := src.List("")
	if err != nil {
		return err
	}

	progress := uiprogress.New()
	progress.SetOut(e.ui.Err)
	progress.Start()
	bar := progress.AddBar(len(docs))
	bar.AppendCompleted()
	bar.PrependElapsed()

	count := 0
	for _, d := range docs {
		doc, err := src.Read(d.Name)
		if err != nil {
			progress.Stop()
			return fmt.Errorf("failed to read doc %s: %w", d.Name, err)
		}

		if err := dst.Write(d.Name, doc); err != nil {
			progress.Stop()
			return fmt.Errorf("failed to write doc %s: %w", d.Name, err)
		}
		count++
		bar.Incr()
	}
	progress.Stop()

	fmt.Fprintf(e.ui.Out, "Successfully copied %d docs from %s to %s\n", count, from, to)
	return nil
}
