package calendar

import (
	"testing"
	"time"
)

func TestZonedSummerAndWinterOffsets(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}

	summer := time.Date(2021, 7, 4, 12, 0, 0, 0, loc)
	dt, err := Zoned(summer.UnixMilli(), "America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	if dt.Year != 2021 || dt.Month != 7 || dt.Day != 4 || dt.Hour != 12 || dt.Minute != 0 {
		t.Errorf("wall clock: got %+v", dt)
	}
	if dt.OffsetMinutes != -240 {
		t.Errorf("EDT offset: want -240, got %d", dt.OffsetMinutes)
	}
	if dt.StandardOffsetMinutes != -300 {
		t.Errorf("standard offset: want -300, got %d", dt.StandardOffsetMinutes)
	}

	winter := time.Date(2021, 1, 4, 12, 0, 0, 0, loc)
	dt, err = Zoned(winter.UnixMilli(), "America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	if dt.OffsetMinutes != dt.StandardOffsetMinutes {
		t.Errorf("outside DST the offsets must agree: %d vs %d",
			dt.OffsetMinutes, dt.StandardOffsetMinutes)
	}
}

func TestStartOfDay(t *testing.T) {
	noon := time.Date(2021, 3, 5, 12, 34, 56, 0, time.UTC)
	got, err := StartOfDay(noon.UnixMilli(), "UTC")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2021, 3, 5, 0, 0, 0, 0, time.UTC).UnixMilli()
	if got != want {
		t.Errorf("start of day: want %d, got %d", want, got)
	}
}

func TestNextTransition(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}

	before := time.Date(2021, 3, 1, 0, 0, 0, 0, loc)
	got, err := NextTransition(before.UnixMilli(), "America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2021, 3, 14, 7, 0, 0, 0, time.UTC).UnixMilli()
	if got != want {
		t.Errorf("2021 spring-forward: want %d, got %d", want, got)
	}

	got, err = NextTransition(before.UnixMilli(), "UTC")
	if err != nil {
		t.Fatal(err)
	}
	if got != NoTransition {
		t.Errorf("UTC never transitions, got %d", got)
	}
}

func TestFormat(t *testing.T) {
	ms := time.Date(2021, 12, 31, 23, 5, 0, 0, time.UTC).UnixMilli()
	got, err := Format(ms, "UTC")
	if err != nil {
		t.Fatal(err)
	}
	if got != "2021-12-31 23:05" {
		t.Errorf("format: got %q", got)
	}
}

func TestUnknownZone(t *testing.T) {
	if _, err := Zoned(0, "Mars/Olympus_Mons"); err == nil {
		t.Error("expected an error for an unknown zone")
	}
	if _, err := OffsetMillis(0, "Mars/Olympus_Mons"); err == nil {
		t.Error("expected an error for an unknown zone")
	}
}
