package histogram

import (
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/nightowl-dev/sleeplog/pkg/diary"
)

const hour = int64(60 * 60 * 1000)

func asleep(start, end int64) diary.Record {
	return diary.Record{Status: diary.StatusAsleep, Start: diary.Millis(start), End: diary.Millis(end)}
}

func TestTotalsAggregatesByDay(t *testing.T) {
	d := diary.New([]diary.Record{
		asleep(0, 8*hour),         // night
		asleep(10*hour, 11*hour),  // nap, same day
		asleep(24*hour, 30*hour),  // next day
		{Status: diary.StatusAwake, Start: diary.Millis(8 * hour)},
	}, diary.Settings{})

	totals := Totals(d)
	if len(totals) != 2 {
		t.Fatalf("want 2 days, got %d", len(totals))
	}

	first := totals[0]
	if first.DayNumber != 0 || first.Records != 2 {
		t.Errorf("first day: %+v", first)
	}
	if first.AsleepHours != 9 {
		t.Errorf("first day total: want 9h, got %v", first.AsleepHours)
	}
	if first.PrimaryHours != 8 {
		t.Errorf("primary sleep: want 8h, got %v", first.PrimaryHours)
	}
	if totals[1].AsleepHours != 6 {
		t.Errorf("second day total: want 6h, got %v", totals[1].AsleepHours)
	}
}

func TestRender(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = old }()

	d := diary.New([]diary.Record{
		asleep(0, 8*hour),
		asleep(10*hour, 11*hour),
	}, diary.Settings{})

	out := Render(d)
	if !strings.Contains(out, "Sleep per day") {
		t.Errorf("missing header:\n%s", out)
	}
	if !strings.Contains(out, "9.0h") {
		t.Errorf("missing day total:\n%s", out)
	}
	if !strings.Contains(out, "(2 sleeps)") {
		t.Errorf("missing multi-sleep marker:\n%s", out)
	}
}

func TestRenderEmptyDiary(t *testing.T) {
	out := Render(diary.New(nil, diary.Settings{}))
	if out != "No sleep records available\n" {
		t.Errorf("empty diary: got %q", out)
	}
}
