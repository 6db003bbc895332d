package format

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nightowl-dev/sleeplog/pkg/diary"
)

// SleepAsAndroid handles the Sleep as Android backup: a zip archive
// containing sleep-export.csv, or that CSV on its own. Each row is one
// asleep interval with its IANA zone and an optional comment.
type SleepAsAndroid struct{}

const (
	sleepAsAndroidCSV    = "sleep-export.csv"
	sleepAsAndroidHeader = "Id,Tz,From,To,Sched,Hours,Rating,Comment"
	sleepAsAndroidTime   = "02. 01. 2006 15:04"
)

// Name implements Handler.
func (SleepAsAndroid) Name() string { return "sleepasandroid" }

// Detect implements Handler.
func (SleepAsAndroid) Detect(data []byte) bool {
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		return true
	}
	line, _, _ := bytes.Cut(bytes.TrimSpace(data), []byte("\n"))
	return strings.HasPrefix(string(bytes.TrimSpace(line)), `"Id","Tz","From","To"`) ||
		strings.HasPrefix(string(bytes.TrimSpace(line)), "Id,Tz,From,To")
}

// Parse implements Handler.
func (SleepAsAndroid) Parse(data []byte) (*diary.Diary, error) {
	raw := data
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		extracted, err := extractFromArchive(data)
		if err != nil {
			return nil, err
		}
		raw = extracted
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading sleep-export CSV: %w", err)
	}
	if len(rows) == 0 || !strings.HasPrefix(strings.Join(rows[0], ","), sleepAsAndroidHeader) {
		return nil, fmt.Errorf("sleep-export header missing")
	}

	var records []diary.Record
	for i, row := range rows[1:] {
		if len(row) < 8 {
			return nil, fmt.Errorf("sleep-export row %d: want 8+ columns, got %d", i+2, len(row))
		}
		zone := row[1]
		loc, err := time.LoadLocation(zone)
		if err != nil {
			return nil, fmt.Errorf("sleep-export row %d zone %q: %w", i+2, zone, err)
		}
		from, err := time.ParseInLocation(sleepAsAndroidTime, row[2], loc)
		if err != nil {
			return nil, fmt.Errorf("sleep-export row %d from: %w", i+2, err)
		}
		to, err := time.ParseInLocation(sleepAsAndroidTime, row[3], loc)
		if err != nil {
			return nil, fmt.Errorf("sleep-export row %d to: %w", i+2, err)
		}

		r := diary.Record{
			Status:        diary.StatusAsleep,
			Start:         diary.Millis(from.UnixMilli()),
			End:           diary.Millis(to.UnixMilli()),
			StartTimezone: zone,
			EndTimezone:   zone,
		}
		if comment := row[7]; comment != "" {
			// Hashtags in the comment double as tags.
			for _, word := range strings.Fields(comment) {
				if tag, ok := strings.CutPrefix(word, "#"); ok {
					r.Tags = append(r.Tags, tag)
				}
			}
			r.Comments = []diary.Comment{{Text: comment}}
		}
		records = append(records, r)
	}
	return diary.New(records, diary.Settings{}), nil
}

func extractFromArchive(data []byte) ([]byte, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	for _, file := range archive.File {
		if file.Name != sleepAsAndroidCSV {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", file.Name, err)
		}
		defer rc.Close()
		raw, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file.Name, err)
		}
		return raw, nil
	}
	return nil, fmt.Errorf("archive has no %s", sleepAsAndroidCSV)
}

// Serialize implements Handler. Asleep records with both endpoints
// become rows inside a fresh archive.
func (SleepAsAndroid) Serialize(d *diary.Diary) ([]byte, error) {
	var csvBuf bytes.Buffer
	writer := csv.NewWriter(&csvBuf)
	if err := writer.Write(strings.Split(sleepAsAndroidHeader, ",")); err != nil {
		return nil, err
	}

	for _, r := range d.Records {
		if r.Status != diary.StatusAsleep || r.Start == nil || r.End == nil {
			continue
		}
		zone := r.StartTimezone
		loc := time.Local
		if zone != "" {
			parsed, err := time.LoadLocation(zone)
			if err != nil {
				return nil, fmt.Errorf("zone %q: %w", zone, err)
			}
			loc = parsed
		} else {
			zone = loc.String()
		}

		from := time.UnixMilli(*r.Start).In(loc)
		to := time.UnixMilli(*r.End).In(loc)
		hours := float64(*r.End-*r.Start) / float64(60*60*1000)

		var comment string
		if len(r.Comments) > 0 {
			comment = r.Comments[0].Text
		}
		row := []string{
			fmt.Sprintf("%d", *r.Start),
			zone,
			from.Format(sleepAsAndroidTime),
			to.Format(sleepAsAndroidTime),
			to.Format(sleepAsAndroidTime),
			fmt.Sprintf("%.3f", hours),
			"0.0",
			comment,
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("writing sleep-export CSV: %w", err)
	}

	var out bytes.Buffer
	archive := zip.NewWriter(&out)
	entry, err := archive.Create(sleepAsAndroidCSV)
	if err != nil {
		return nil, fmt.Errorf("creating archive entry: %w", err)
	}
	if _, err := entry.Write(csvBuf.Bytes()); err != nil {
		return nil, fmt.Errorf("writing archive entry: %w", err)
	}
	if err := archive.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	return out.Bytes(), nil
}
