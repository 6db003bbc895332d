package spreadsheet

import (
	"testing"

	"github.com/nightowl-dev/sleeplog/pkg/diary"
)

const hour = int64(60 * 60 * 1000)

func TestExportImportRoundTrip(t *testing.T) {
	base := int64(1609542000000) // 2021-01-01 23:00 UTC
	d := diary.New([]diary.Record{
		{
			Status:        diary.StatusAsleep,
			Start:         diary.Millis(base),
			End:           diary.Millis(base + 8*hour),
			StartTimezone: "Europe/London",
			EndTimezone:   "Europe/London",
			Tags:          []string{"earplugs", "dog"},
			Comments:      []diary.Comment{{Text: "slept ok"}, {Text: "one wakeup"}},
		},
		{
			Status: diary.StatusAwake,
			Start:  diary.Millis(base + 8*hour),
		},
	}, diary.Settings{})

	data, err := Export(d)
	if err != nil {
		t.Fatal(err)
	}

	got, err := Import(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Records) != 2 {
		t.Fatalf("want 2 records, got %d", len(got.Records))
	}

	sleep := got.Records[0]
	if sleep.Status != diary.StatusAsleep {
		t.Errorf("status: got %q", sleep.Status)
	}
	if sleep.Start == nil || *sleep.Start != base {
		t.Errorf("start: want %d, got %v", base, sleep.Start)
	}
	if sleep.Duration == nil || *sleep.Duration != 8*hour {
		t.Errorf("duration: want 8h, got %v", sleep.Duration)
	}
	if sleep.StartTimezone != "Europe/London" {
		t.Errorf("zone: got %q", sleep.StartTimezone)
	}
	if len(sleep.Tags) != 2 || sleep.Tags[1] != "dog" {
		t.Errorf("tags: got %v", sleep.Tags)
	}
	if len(sleep.Comments) != 2 || sleep.Comments[1].Text != "one wakeup" {
		t.Errorf("comments: got %v", sleep.Comments)
	}

	// Derived fields come back from the derivation pass, not the grid.
	if !sleep.IsPrimarySleep {
		t.Error("the only sleep should be re-derived as primary")
	}

	awake := got.Records[1]
	if awake.Status != diary.StatusAwake || awake.End != nil {
		t.Errorf("awake record: %+v", awake)
	}
}

func TestImportRejectsForeignGrid(t *testing.T) {
	if _, err := Import([]byte("not a workbook")); err == nil {
		t.Error("expected an error for a non-xlsx payload")
	}
}
