// Package main implements the sleeplog CLI: it loads a sleep-tracker
// export in any supported format, derives the canonical diary and
// prints the schedule report.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/nightowl-dev/sleeplog/pkg/report"
)

var (
	timezone   = flag.String("timezone", "", "IANA zone for analytics (or set TZ; default: system zone)")
	formatName = flag.String("format", "", "Input format name, skipping detection (standard, sleepmeter, sleepasandroid)")
	jsonOut    = flag.String("json", "", "Write the canonical JSON export to this file")
	xlsxOut    = flag.String("xlsx", "", "Write a spreadsheet export to this file")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("sleeplog v1.2.0")
		return
	}

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <export-file>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	if *timezone == "" {
		*timezone = os.Getenv("TZ")
	}

	if err := run(logger, args[0]); err != nil {
		logger.Error("sleeplog failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	d, handler, err := load(data)
	if err != nil {
		return err
	}
	logger.Debug("export loaded", "format", handler.Name(), "records", len(d.Records))

	reporter := report.New(d)
	rendered, err := reporter.Render(*timezone)
	if err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	fmt.Print(rendered)

	if *jsonOut != "" {
		if err := writeExport(*jsonOut, exportJSON(d)); err != nil {
			return err
		}
		logger.Debug("canonical export written", "path", *jsonOut)
	}
	if *xlsxOut != "" {
		if err := writeExport(*xlsxOut, exportXLSX(d)); err != nil {
			return err
		}
		logger.Debug("spreadsheet export written", "path", *xlsxOut)
	}
	return nil
}
