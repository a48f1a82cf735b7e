package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/revelaction/naf/config"
	"github.com/revelaction/naf/logging"
)

// UI contains the output streams for the application.
// Used for injecting buffers during testing.
type UI struct {
	Out io.Writer
	Err io.Writer
}

func main() {
	ui := UI{Out: os.Stdout, Err: os.Stderr}

	if err := newApp(ui).Run(os.Args); err != nil {
		fprintErr(ui.Err, err)
		os.Exit(1)
	}
}

func fprintErr(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "naf: %v\n", err)
}

// env is the state shared by the commands of one invocation.
type env struct {
	ui  UI
	cfg *config.Config
}

func newApp(ui UI) *cli.App {
	e := &env{ui: ui}

	return &cli.App{
		Name:      "naf",
		Usage:     "build NLP Annotation Format documents from text",
		Version:   fmt.Sprintf("%s (commit: %s)", BuildTag, BuildCommit),
		Writer:    ui.Out,
		ErrWriter: ui.Err,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "config file (default naf.yaml in . or $HOME/.config/naf)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "log-format", Usage: "text or json"},
		},
		Before: e.setup,
		Commands: []*cli.Command{
			e.processCommand(),
			e.batchCommand(),
			e.showCommand(),
			e.statCommand(),
			e.validateCommand(),
			e.importCommand(),
			e.exportCommand(),
			e.lsCommand(),
			e.shellCommand(),
			e.versionCommand(),
		},
	}
}

// setup loads the configuration and initializes the logger. Flags
// override the configuration.
func (e *env) setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}
	e.cfg = cfg

	logging.SetOutput(e.ui.Err)
	logging.InitLogger(logging.ParseLevel(cfg.Log.Level), logging.ParseFormat(cfg.Log.Format))
	return nil
}
