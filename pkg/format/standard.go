package format

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/nightowl-dev/sleeplog/pkg/diary"
)

// Standard handles the canonical JSON serialization of the record
// list. It is the interchange format every other adapter converts
// through.
type Standard struct{}

// Name implements Handler.
func (Standard) Name() string { return "standard" }

// Detect implements Handler.
func (Standard) Detect(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{' &&
		bytes.Contains(trimmed, []byte(`"records"`))
}

// standardRecord mirrors diary.Record with pointer-typed derived
// fields, so a parse can tell "absent" from "false"/zero and flag
// supplied values as explicit.
type standardRecord struct {
	Status             diary.Status    `json:"status"`
	Start              *int64          `json:"start,omitempty"`
	End                *int64          `json:"end,omitempty"`
	StartTimezone      string          `json:"start_timezone,omitempty"`
	EndTimezone        string          `json:"end_timezone,omitempty"`
	Duration           *int64          `json:"duration,omitempty"`
	Tags               []string        `json:"tags,omitempty"`
	Comments           []diary.Comment `json:"comments,omitempty"`
	DayNumber          *int            `json:"day_number,omitempty"`
	StartOfNewDay      *bool           `json:"start_of_new_day,omitempty"`
	IsPrimarySleep     *bool           `json:"is_primary_sleep,omitempty"`
	MissingRecordAfter *bool           `json:"missing_record_after,omitempty"`
}

type standardFile struct {
	Records  []standardRecord `json:"records"`
	Settings diary.Settings   `json:"settings,omitempty"`
}

// Parse implements Handler.
func (Standard) Parse(data []byte) (*diary.Diary, error) {
	var file standardFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing standard JSON: %w", err)
	}

	records := make([]diary.Record, 0, len(file.Records))
	for _, sr := range file.Records {
		r := diary.Record{
			Status:        sr.Status,
			Start:         sr.Start,
			End:           sr.End,
			StartTimezone: sr.StartTimezone,
			EndTimezone:   sr.EndTimezone,
			Duration:      sr.Duration,
			Tags:          sr.Tags,
			Comments:      sr.Comments,
		}
		if sr.DayNumber != nil {
			r.DayNumber = *sr.DayNumber
			r.Explicit |= diary.ExplicitDayNumber
		}
		if sr.StartOfNewDay != nil {
			r.StartOfNewDay = *sr.StartOfNewDay
			r.Explicit |= diary.ExplicitStartOfNewDay
		}
		if sr.IsPrimarySleep != nil {
			r.IsPrimarySleep = *sr.IsPrimarySleep
			r.Explicit |= diary.ExplicitIsPrimarySleep
		}
		if sr.MissingRecordAfter != nil {
			r.MissingRecordAfter = *sr.MissingRecordAfter
			r.Explicit |= diary.ExplicitMissingRecordAfter
		}
		records = append(records, r)
	}
	return diary.New(records, file.Settings), nil
}

// Serialize implements Handler. The derived diary marshals directly;
// every derived field is defined after construction.
func (Standard) Serialize(d *diary.Diary) ([]byte, error) {
	out, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing standard JSON: %w", err)
	}
	return out, nil
}
