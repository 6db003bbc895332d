// Package histogram renders a per-day terminal view of sleep
// durations from a derived diary.
package histogram

import (
	"fmt"
	"math"
	"strings"

	"github.com/fatih/color"

	"github.com/nightowl-dev/sleeplog/pkg/diary"
)

const (
	msPerHour = 60.0 * 60.0 * 1000.0
	barScale  = 2 // characters per hour of sleep
	maxBarLen = 12 * barScale
)

// DayTotal is one bar of the histogram.
type DayTotal struct {
	DayNumber    int
	AsleepHours  float64
	PrimaryHours float64 // duration of the day's primary sleep
	Records      int
}

// Totals aggregates the diary's asleep records by day number, in day
// order. Days without any asleep record are skipped.
func Totals(d *diary.Diary) []DayTotal {
	var totals []DayTotal
	byDay := map[int]int{} // day number -> index into totals

	for _, r := range d.Records {
		if r.Status != diary.StatusAsleep || r.Duration == nil {
			continue
		}
		i, ok := byDay[r.DayNumber]
		if !ok {
			i = len(totals)
			byDay[r.DayNumber] = i
			totals = append(totals, DayTotal{DayNumber: r.DayNumber})
		}
		totals[i].AsleepHours += float64(*r.Duration) / msPerHour
		totals[i].Records++
		if r.IsPrimarySleep {
			totals[i].PrimaryHours = float64(*r.Duration) / msPerHour
		}
	}
	return totals
}

// Render draws one bar per logged day, colored by how much sleep the
// day got.
func Render(d *diary.Diary) string {
	totals := Totals(d)
	if len(totals) == 0 {
		return "No sleep records available\n"
	}

	var output strings.Builder
	output.WriteString("😴 Sleep per day\n")
	output.WriteString(strings.Repeat("─", 50) + "\n")

	for _, day := range totals {
		barLen := int(math.Round(day.AsleepHours * barScale))
		overflow := false
		if barLen > maxBarLen {
			barLen = maxBarLen
			overflow = true
		}

		bar := strings.Repeat("█", barLen)
		if overflow {
			bar += "▶"
		}

		line := fmt.Sprintf("day %3d  %-25s %5.1fh", day.DayNumber, bar, day.AsleepHours)
		if day.Records > 1 {
			line += fmt.Sprintf("  (%d sleeps)", day.Records)
		}
		output.WriteString(barColor(day.AsleepHours).Sprint(line))
		output.WriteString("\n")
	}

	output.WriteString(strings.Repeat("─", 50) + "\n")
	output.WriteString(fmt.Sprintf("%s <5h  %s 5-7h  %s ≥7h\n",
		color.New(color.FgRed).Sprint("█"),
		color.New(color.FgYellow).Sprint("█"),
		color.New(color.FgGreen).Sprint("█")))
	return output.String()
}

// barColor maps nightly sleep to a rough adequacy color.
func barColor(hours float64) *color.Color {
	switch {
	case hours < 5:
		return color.New(color.FgRed)
	case hours < 7:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}
