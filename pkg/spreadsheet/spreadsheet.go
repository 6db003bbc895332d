// Package spreadsheet maps the canonical record list to and from a
// fixed-column xlsx grid, one record per row.
package spreadsheet

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nightowl-dev/sleeplog/pkg/diary"
)

const sheetName = "Sleep Diary"

// Header is the grid's column layout. Tags and comments are flattened
// with a pipe separator; comment timestamps do not round-trip.
var Header = []string{
	"Status",
	"Start",
	"End",
	"Start Timezone",
	"End Timezone",
	"Duration",
	"Day Number",
	"Start Of New Day",
	"Is Primary Sleep",
	"Missing Record After",
	"Tags",
	"Comments",
}

// Export renders the derived diary as an xlsx workbook.
func Export(d *diary.Diary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	for col, title := range Header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			return nil, err
		}
	}

	for i, r := range d.Records {
		row := []any{
			string(r.Status),
			optionalCell(r.Start),
			optionalCell(r.End),
			r.StartTimezone,
			r.EndTimezone,
			optionalCell(r.Duration),
			r.DayNumber,
			r.StartOfNewDay,
			r.IsPrimarySleep,
			r.MissingRecordAfter,
			strings.Join(r.Tags, "|"),
			joinComments(r.Comments),
		}
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Import reads a workbook produced by Export (or hand-edited to the
// same layout) back into a derived diary. Derived-field columns are
// ignored on import; derivation recomputes them.
func Import(data []byte) (*diary.Diary, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheet := sheetName
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	if len(rows) == 0 || len(rows[0]) < 3 || rows[0][0] != Header[0] {
		return nil, fmt.Errorf("grid header missing")
	}

	var records []diary.Record
	for i, row := range rows[1:] {
		cell := func(col int) string {
			if col < len(row) {
				return strings.TrimSpace(row[col])
			}
			return ""
		}

		r := diary.Record{
			Status:        diary.Status(cell(0)),
			StartTimezone: cell(3),
			EndTimezone:   cell(4),
		}
		if r.Start, err = parseOptional(cell(1)); err != nil {
			return nil, fmt.Errorf("row %d start: %w", i+2, err)
		}
		if r.End, err = parseOptional(cell(2)); err != nil {
			return nil, fmt.Errorf("row %d end: %w", i+2, err)
		}
		if r.Duration, err = parseOptional(cell(5)); err != nil {
			return nil, fmt.Errorf("row %d duration: %w", i+2, err)
		}
		if tags := cell(10); tags != "" {
			r.Tags = strings.Split(tags, "|")
		}
		if comments := cell(11); comments != "" {
			for _, text := range strings.Split(comments, "|") {
				r.Comments = append(r.Comments, diary.Comment{Text: text})
			}
		}
		records = append(records, r)
	}
	return diary.New(records, diary.Settings{}), nil
}

func optionalCell(v *int64) any {
	if v == nil {
		return ""
	}
	return *v
}

func parseOptional(cell string) (*int64, error) {
	if cell == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(cell, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", cell, err)
	}
	return &v, nil
}

func joinComments(comments []diary.Comment) string {
	parts := make([]string, 0, len(comments))
	for _, c := range comments {
		parts = append(parts, c.Text)
	}
	return strings.Join(parts, "|")
}
