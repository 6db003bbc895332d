package format

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/nightowl-dev/sleeplog/pkg/diary"
)

func TestByName(t *testing.T) {
	h, ok := ByName("SleepMeter")
	if !ok || h.Name() != "sleepmeter" {
		t.Errorf("lookup should be case-insensitive, got %v %v", h, ok)
	}
	if _, ok := ByName("fitbit"); ok {
		t.Error("unknown format name must not resolve")
	}
}

func TestResolveUnknownInput(t *testing.T) {
	_, _, err := Resolve([]byte("certainly not a sleep diary"))
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("want ErrUnknownFormat, got %v", err)
	}
}

func TestStandardRoundTrip(t *testing.T) {
	input := []byte(`{
		"records": [
			{"status": "asleep", "start": 0, "end": 28800000, "day_number": 5},
			{"status": "awake", "start": 28800000, "tags": ["refreshed"]}
		],
		"settings": {"minimum_day_duration": 57600000}
	}`)

	d, handler, err := Resolve(input)
	if err != nil {
		t.Fatal(err)
	}
	if handler.Name() != "standard" {
		t.Errorf("want the standard handler, got %s", handler.Name())
	}
	if len(d.Records) != 2 {
		t.Fatalf("want 2 records, got %d", len(d.Records))
	}

	// Supplied day numbers survive the derivation pass.
	if d.Records[0].DayNumber != 5 || !d.Records[0].Explicit.Has(diary.ExplicitDayNumber) {
		t.Errorf("explicit day number lost: %+v", d.Records[0])
	}
	if !d.Records[0].IsPrimarySleep {
		t.Error("the only sleep should be derived primary")
	}

	out, err := Standard{}.Serialize(d)
	if err != nil {
		t.Fatal(err)
	}
	again, _, err := Resolve(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Records) != 2 {
		t.Fatalf("round trip changed the record count: %d", len(again.Records))
	}
	for i := range d.Records {
		a, b := d.Records[i], again.Records[i]
		if a.Status != b.Status || a.DayNumber != b.DayNumber ||
			a.IsPrimarySleep != b.IsPrimarySleep {
			t.Errorf("record %d changed across the round trip:\nbefore: %+v\nafter:  %+v", i, a, b)
		}
	}
}

func TestSleepmeterParse(t *testing.T) {
	input := []byte(sleepmeterHeader + "\n" +
		`2021-01-02 07:00+0000,2021-01-01 23:00+0000,2021-01-01 22:30+0000,,NIGHT_SLEEP,,NONE,,,toothache|earplugs,,rough night` + "\n")

	d, handler, err := Resolve(input)
	if err != nil {
		t.Fatal(err)
	}
	if handler.Name() != "sleepmeter" {
		t.Errorf("want the sleepmeter handler, got %s", handler.Name())
	}
	if len(d.Records) != 2 {
		t.Fatalf("one row should become bed and sleep records, got %d", len(d.Records))
	}

	bed, sleep := d.Records[0], d.Records[1]
	if bed.Status != diary.StatusInBed || sleep.Status != diary.StatusAsleep {
		t.Fatalf("want [in bed, asleep], got [%s, %s]", bed.Status, sleep.Status)
	}
	if *bed.End != *sleep.Start {
		t.Errorf("bed end should meet sleep start: %d vs %d", *bed.End, *sleep.Start)
	}
	if got := *sleep.End - *sleep.Start; got != 8*60*60*1000 {
		t.Errorf("sleep span: want 8h, got %d ms", got)
	}
	if len(sleep.Tags) != 2 || sleep.Tags[0] != "toothache" {
		t.Errorf("tags: got %v", sleep.Tags)
	}
	if len(sleep.Comments) != 1 || sleep.Comments[0].Text != "rough night" {
		t.Errorf("comments: got %v", sleep.Comments)
	}
}

func TestSleepAsAndroidArchive(t *testing.T) {
	csvData := sleepAsAndroidHeader + "\n" +
		`1609542000000,Europe/London,01. 01. 2021 23:00,02. 01. 2021 07:00,02. 01. 2021 07:00,8.000,0.0,slept ok #earplugs` + "\n"

	var buf bytes.Buffer
	archive := zip.NewWriter(&buf)
	entry, err := archive.Create("sleep-export.csv")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := entry.Write([]byte(csvData)); err != nil {
		t.Fatal(err)
	}
	if err := archive.Close(); err != nil {
		t.Fatal(err)
	}

	d, handler, err := Resolve(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if handler.Name() != "sleepasandroid" {
		t.Errorf("want the sleepasandroid handler, got %s", handler.Name())
	}
	if len(d.Records) != 1 {
		t.Fatalf("want 1 record, got %d", len(d.Records))
	}

	r := d.Records[0]
	if r.Status != diary.StatusAsleep || r.StartTimezone != "Europe/London" {
		t.Errorf("record: %+v", r)
	}
	if got := *r.End - *r.Start; got != 8*60*60*1000 {
		t.Errorf("span: want 8h, got %d ms", got)
	}
	if len(r.Tags) != 1 || r.Tags[0] != "earplugs" {
		t.Errorf("hashtag should become a tag, got %v", r.Tags)
	}

	// The serialized archive must resolve back through the same handler.
	out, err := SleepAsAndroid{}.Serialize(d)
	if err != nil {
		t.Fatal(err)
	}
	again, handler, err := Resolve(out)
	if err != nil {
		t.Fatal(err)
	}
	if handler.Name() != "sleepasandroid" {
		t.Errorf("round trip resolved as %s", handler.Name())
	}
	if len(again.Records) != 1 || *again.Records[0].Start != *r.Start {
		t.Errorf("round trip changed the record: %+v", again.Records)
	}
}

func TestSleepAsAndroidBareCSV(t *testing.T) {
	input := []byte(`"Id","Tz","From","To","Sched","Hours","Rating","Comment"` + "\n" +
		`"1609542000000","UTC","01. 01. 2021 23:00","02. 01. 2021 07:00","02. 01. 2021 07:00","8.000","0.0",""` + "\n")

	if !(SleepAsAndroid{}).Detect(input) {
		t.Fatal("quoted CSV header should be detected")
	}
	d, err := SleepAsAndroid{}.Parse(input)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Records) != 1 || d.Records[0].Comments != nil {
		t.Errorf("records: %+v", d.Records)
	}
}
