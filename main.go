package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"hstin/rainmap/internal/config"
	"hstin/rainmap/internal/pipeline"
	"hstin/rainmap/internal/sink"
	"hstin/rainmap/parser"
)

const (
	usage   = "Usage: rainmap [csv_file] [output_image]"
	example = "Example: rainmap mean_rainfall_simple.csv rainfall_map.png"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, parser.ErrNotFound):
		fmt.Fprintf(stdout, "Error: File '%s' not found.\n", missingFile(args))
		fmt.Fprintln(stdout, usage)
		fmt.Fprintln(stdout, example)
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return 1
}

func missingFile(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return config.DefaultInput
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rainmap [csv_file] [output_image]",
		Short: "Render a rainfall grid onto a map of South Asia",
		Long: `Render a CSV rainfall intensity grid onto a latitude/longitude map with
coastlines, borders and a colour legend.

Without an output path the map is opened in the system image viewer. The
output format follows the extension: png, jpg, gif, bmp, tif, webp, svg,
pdf, eps, or mbtiles for a web map tile set. Settings such as the bounding
box and colormap are read from an optional rainmap.toml, .yaml or .json in
the working directory.`,
		Example:       "  rainmap mean_rainfall_simple.csv rainfall_map.png",
		Args:          cobra.MaximumNArgs(2),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(".")
			if err != nil {
				return err
			}
			if len(args) > 0 {
				cfg.InputFile = args[0]
			}
			if len(args) > 1 {
				cfg.OutputFile = args[1]
			}

			// Verify input file exists
			if _, err := os.Stat(cfg.InputFile); err != nil {
				return fmt.Errorf("%w: %s", parser.ErrNotFound, cfg.InputFile)
			}

			log := newLogger(stderr, cfg.LogLevel)
			out, err := sink.New(cfg, stdout, log)
			if err != nil {
				return err
			}
			p := &pipeline.Pipeline{Config: cfg, Sink: out, Log: log}
			return p.Run()
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd
}

func newLogger(w io.Writer, level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.WithError(err).Warn("unknown log level, using warn")
		lvl = logrus.WarnLevel
	}
	log.SetLevel(lvl)
	return log
}
