package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

type multiFlag []string

func (m *multiFlag) String() string {
	return strings.Join(*m, ",")
}

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

type Flag struct {
	ConfigFile    string
	Manifest      string
	Dirs          []string
	Destination   string
	Filename      string
	PaperSize     string
	Orientation   string
	ItemsPerPage  int
	MaxConcurrent int
	Verbose       bool
}

var errHelp = errors.New("help requested")

func parseFlag(args []string, out io.Writer) (*Flag, error) {
	fs := flag.NewFlagSet("docexport", flag.ContinueOnError)
	fs.SetOutput(out)

	var dirs multiFlag
	help := fs.Bool("h", false, "Display this help message and exit")
	fs.BoolVar(help, "help", false, "Alias for -h")
	configFile := fs.String("c", "", `Path to config file (default "config.toml" when present)`)
	manifest := fs.String("m", "", `TOML manifest listing documents, pages and images`)
	fs.Var(&dirs, "d", `Image directory exported as one document (repeatable)`)
	destination := fs.String("o", "", `Output folder or provider destination (e.g. "content://provider/tree/X")`)
	filename := fs.String("f", "", `Output file name (default: current unix time in milliseconds)`)
	paperSize := fs.String("p", "", `Paper size: a5, a4, a3 or full`)
	orientation := fs.String("r", "", `Orientation: portrait or landscape`)
	itemsPerPage := fs.Int("n", 0, `Source pages packed per output page (ignored for full)`)
	maxConcurrent := fs.Int("x", 8, `Maximum images probed concurrently`)
	verbose := fs.Bool("v", false, `Enable debug logging`)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *help {
		fmt.Fprintln(out, "Document Exporter - Pack scanned pages into a compressed PDF")
		fmt.Fprintln(out, "Usage: `docexport -m <manifest>` or `docexport -d <dir> [-d <dir>...]`")
		fs.PrintDefaults()
		fmt.Fprintln(out, "\nExamples:")
		fmt.Fprintln(out, "  Two scans per A4 sheet: -d scans/ -p a4 -n 2")
		fmt.Fprintln(out, "  Full-bleed landscape:   -m docs.toml -p full -r landscape -o out/")
		fmt.Fprintln(out, "  Provider destination:   -d scans/ -o content://provider/tree/X -f report.pdf")
		return nil, errHelp
	}

	if *manifest == "" && len(dirs) == 0 {
		return nil, errors.New("either a manifest (-m) or at least one directory (-d) is required")
	}
	if *manifest != "" && len(dirs) > 0 {
		return nil, errors.New("cannot use both -m and -d at the same time")
	}
	if *itemsPerPage < 0 {
		return nil, errors.New("items per page (-n) must be >= 1")
	}
	if *maxConcurrent < 1 {
		return nil, errors.New("concurrency value (-x) must be >= 1")
	}

	return &Flag{
		ConfigFile:    *configFile,
		Manifest:      *manifest,
		Dirs:          dirs,
		Destination:   *destination,
		Filename:      *filename,
		PaperSize:     *paperSize,
		Orientation:   *orientation,
		ItemsPerPage:  *itemsPerPage,
		MaxConcurrent: *maxConcurrent,
		Verbose:       *verbose,
	}, nil
}
