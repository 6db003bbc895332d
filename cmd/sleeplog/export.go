package main

import (
	"fmt"
	"os"

	"github.com/nightowl-dev/sleeplog/pkg/diary"
	"github.com/nightowl-dev/sleeplog/pkg/format"
	"github.com/nightowl-dev/sleeplog/pkg/spreadsheet"
)

// load parses the export with the requested handler, or resolves the
// format by detection.
func load(data []byte) (*diary.Diary, format.Handler, error) {
	if *formatName != "" {
		handler, ok := format.ByName(*formatName)
		if !ok {
			return nil, nil, fmt.Errorf("unknown format %q", *formatName)
		}
		d, err := handler.Parse(data)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing as %s: %w", handler.Name(), err)
		}
		return d, handler, nil
	}
	return format.Resolve(data)
}

type exportFunc func() ([]byte, error)

func exportJSON(d *diary.Diary) exportFunc {
	return func() ([]byte, error) { return format.Standard{}.Serialize(d) }
}

func exportXLSX(d *diary.Diary) exportFunc {
	return func() ([]byte, error) { return spreadsheet.Export(d) }
}

func writeExport(path string, produce exportFunc) error {
	data, err := produce()
	if err != nil {
		return fmt.Errorf("building export for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
