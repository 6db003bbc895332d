// Package schedule summarises the time of day at which the primary
// sleep interval starts and ends.
//
// Times of day live on a circle: habitual bedtimes split between 23:50
// and 00:10 would naively average out near noon. Each series is
// therefore summarised twice, once as-is ("early" phase) and once
// shifted by half a day ("late" phase), and the phase with the lower
// standard deviation wins. Late-phase point statistics are shifted back
// before they are returned; the late-phase raw arrays are an internal
// device only and are replaced with the early-phase ones.
package schedule

import (
	"fmt"
	"math"

	"github.com/nightowl-dev/sleeplog/pkg/calendar"
	"github.com/nightowl-dev/sleeplog/pkg/diary"
	"github.com/nightowl-dev/sleeplog/pkg/stats"
)

// DefaultDayLength is 24 hours in milliseconds.
const DefaultDayLength = 24 * 60 * 60 * 1000

// Options controls a schedule summary.
type Options struct {
	// Filter keeps only matching primary sleeps; nil keeps all.
	Filter func(r diary.Record) bool
	// DayLength is the circular period in milliseconds; 0 means 24h.
	DayLength float64
	// Timezone is the fallback zone for records without their own.
	Timezone string
}

// Result carries the bedtime and wake-time statistics. Either summary
// is nil when no primary sleep supplied the corresponding endpoint.
type Result struct {
	Sleep *stats.Summary
	Wake  *stats.Summary
}

// Summarise computes the time-of-day schedule of d's primary sleeps.
func Summarise(d *diary.Diary, opts Options) (Result, error) {
	dayLength := opts.DayLength
	if dayLength <= 0 {
		dayLength = DefaultDayLength
	}

	var (
		sleepValues, wakeValues []float64
		sleepStamps, wakeStamps []int64
	)
	for _, r := range d.Records {
		if !r.IsPrimarySleep {
			continue
		}
		if opts.Filter != nil && !opts.Filter(r) {
			continue
		}
		v, ts, err := timeOfDay(r.Start, r.StartTimezone, opts.Timezone, dayLength)
		if err != nil {
			return Result{}, fmt.Errorf("sleep time: %w", err)
		}
		sleepValues = append(sleepValues, v)
		sleepStamps = append(sleepStamps, ts)

		v, ts, err = timeOfDay(r.End, r.EndTimezone, opts.Timezone, dayLength)
		if err != nil {
			return Result{}, fmt.Errorf("wake time: %w", err)
		}
		wakeValues = append(wakeValues, v)
		wakeStamps = append(wakeStamps, ts)
	}

	return Result{
		Sleep: summariseCircadian(sleepValues, sleepStamps, dayLength),
		Wake:  summariseCircadian(wakeValues, wakeStamps, dayLength),
	}, nil
}

// timeOfDay converts an optional instant to local milliseconds since
// midnight, modulo the day length. A nil instant becomes a NaN gap so
// the series keeps its index alignment.
func timeOfDay(ms *int64, zone, fallback string, dayLength float64) (float64, int64, error) {
	if ms == nil {
		return math.NaN(), 0, nil
	}
	if zone == "" {
		zone = fallback
	}
	dt, err := calendar.Zoned(*ms, zone)
	if err != nil {
		return 0, 0, err
	}
	local := float64((dt.Hour*60 + dt.Minute) * 60 * 1000)
	return math.Mod(local, dayLength), *ms, nil
}

// summariseCircadian runs the statistics engine on both phases of the
// series and keeps the steadier one.
func summariseCircadian(values []float64, timestamps []int64, dayLength float64) *stats.Summary {
	early := stats.SummariseCircular(values, timestamps, dayLength)
	if early == nil {
		return nil
	}

	half := dayLength / 2
	late := make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			late[i] = v
			continue
		}
		late[i] = math.Mod(v+half, dayLength)
	}

	shifted := stats.SummariseCircular(late, timestamps, dayLength)
	if shifted == nil || shifted.StandardDeviation >= early.StandardDeviation {
		return early
	}

	// The late phase won: express its point statistics back in early
	// phase, but keep the early-phase raw arrays for display.
	shifted.Average = math.Mod(shifted.Average+half, dayLength)
	shifted.Mean = math.Mod(shifted.Mean+half, dayLength)
	shifted.InterquartileMean = math.Mod(shifted.InterquartileMean+half, dayLength)
	shifted.Median = math.Mod(shifted.Median+half, dayLength)
	shifted.Durations = early.Durations
	shifted.InterquartileDurations = early.InterquartileDurations
	shifted.RollingAverage = early.RollingAverage
	return shifted
}
