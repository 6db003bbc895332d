package format

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/nightowl-dev/sleeplog/pkg/diary"
)

// Sleepmeter handles the SleepMeter CSV export: one row per night with
// bedtime, sleep and wake instants carrying their own UTC offsets.
// Each row becomes an in-bed record (bedtime to sleep) followed by an
// asleep record (sleep to wake).
type Sleepmeter struct{}

const sleepmeterHeader = "wake,sleep,bedtime,holes,type,dreams,aid,hindrances,helps,tags,quality,notes"

const sleepmeterTime = "2006-01-02 15:04-0700"

// Name implements Handler.
func (Sleepmeter) Name() string { return "sleepmeter" }

// Detect implements Handler.
func (Sleepmeter) Detect(data []byte) bool {
	line, _, _ := bytes.Cut(bytes.TrimSpace(data), []byte("\n"))
	return strings.HasPrefix(string(bytes.TrimSpace(line)), "wake,sleep,bedtime")
}

// Parse implements Handler.
func (Sleepmeter) Parse(data []byte) (*diary.Diary, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading sleepmeter CSV: %w", err)
	}
	if len(rows) == 0 || strings.Join(rows[0], ",") != sleepmeterHeader {
		return nil, fmt.Errorf("sleepmeter header missing")
	}

	var records []diary.Record
	for i, row := range rows[1:] {
		if len(row) < 12 {
			return nil, fmt.Errorf("sleepmeter row %d: want 12 columns, got %d", i+2, len(row))
		}
		wake, err := parseSleepmeterTime(row[0])
		if err != nil {
			return nil, fmt.Errorf("sleepmeter row %d wake: %w", i+2, err)
		}
		sleep, err := parseSleepmeterTime(row[1])
		if err != nil {
			return nil, fmt.Errorf("sleepmeter row %d sleep: %w", i+2, err)
		}
		bedtime, err := parseSleepmeterTime(row[2])
		if err != nil {
			return nil, fmt.Errorf("sleepmeter row %d bedtime: %w", i+2, err)
		}

		var tags []string
		if row[9] != "" {
			tags = strings.Split(row[9], "|")
		}
		var comments []diary.Comment
		if row[11] != "" {
			comments = []diary.Comment{{Text: row[11]}}
		}

		records = append(records,
			diary.Record{
				Status: diary.StatusInBed,
				Start:  bedtime,
				End:    sleep,
			},
			diary.Record{
				Status:   diary.StatusAsleep,
				Start:    sleep,
				End:      wake,
				Tags:     tags,
				Comments: comments,
			},
		)
	}
	return diary.New(records, diary.Settings{}), nil
}

func parseSleepmeterTime(field string) (*int64, error) {
	if field == "" {
		return nil, nil
	}
	t, err := time.Parse(sleepmeterTime, field)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", field, err)
	}
	ms := t.UnixMilli()
	return &ms, nil
}

// Serialize implements Handler. Asleep records become rows; an
// immediately preceding in-bed record supplies the bedtime, otherwise
// the bedtime equals the sleep instant.
func (Sleepmeter) Serialize(d *diary.Diary) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(strings.Split(sleepmeterHeader, ",")); err != nil {
		return nil, err
	}

	for i, r := range d.Records {
		if r.Status != diary.StatusAsleep || r.Start == nil || r.End == nil {
			continue
		}
		bedtime := *r.Start
		if i > 0 {
			if prev := d.Records[i-1]; prev.Status == diary.StatusInBed && prev.Start != nil {
				bedtime = *prev.Start
			}
		}

		var notes string
		if len(r.Comments) > 0 {
			notes = r.Comments[0].Text
		}
		row := []string{
			formatSleepmeterTime(*r.End, r.EndTimezone),
			formatSleepmeterTime(*r.Start, r.StartTimezone),
			formatSleepmeterTime(bedtime, r.StartTimezone),
			"", "NIGHT_SLEEP", "", "NONE", "", "",
			strings.Join(r.Tags, "|"),
			"", notes,
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("writing sleepmeter CSV: %w", err)
	}
	return buf.Bytes(), nil
}

func formatSleepmeterTime(ms int64, zone string) string {
	loc := time.Local
	if zone != "" {
		if parsed, err := time.LoadLocation(zone); err == nil {
			loc = parsed
		}
	}
	return time.UnixMilli(ms).In(loc).Format(sleepmeterTime)
}
