// Package report wraps a derived diary with memoized analytics and
// renders the terminal report. Diary analytics are deterministic over
// an immutable store, so repeated queries with the same parameters are
// served from a small in-memory cache.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/fatih/color"
	"github.com/maypok86/otter/v2"

	"github.com/nightowl-dev/sleeplog/pkg/daily"
	"github.com/nightowl-dev/sleeplog/pkg/diary"
	"github.com/nightowl-dev/sleeplog/pkg/histogram"
	"github.com/nightowl-dev/sleeplog/pkg/schedule"
	"github.com/nightowl-dev/sleeplog/pkg/stats"
)

// DailyQuery identifies one daily-activities request. Zero values
// select the segmenter defaults.
type DailyQuery struct {
	Timezone      string
	DayStart      int64
	DayStride     int64
	SegmentStride int64
}

// Reporter owns the read-only diary view and the analytics caches.
type Reporter struct {
	diary     *diary.Diary
	schedules *otter.Cache[string, schedule.Result]
	dailies   *otter.Cache[string, []*daily.Day]
}

// New builds a reporter over an already-derived diary.
func New(d *diary.Diary) *Reporter {
	return &Reporter{
		diary:     d,
		schedules: otter.Must(&otter.Options[string, schedule.Result]{MaximumSize: 64}),
		dailies:   otter.Must(&otter.Options[string, []*daily.Day]{MaximumSize: 64}),
	}
}

// Diary returns the underlying store.
func (r *Reporter) Diary() *diary.Diary { return r.diary }

// Schedule returns the memoized schedule summary. Queries carrying a
// filter bypass the cache: closures have no usable cache identity.
func (r *Reporter) Schedule(opts schedule.Options) (schedule.Result, error) {
	if opts.Filter != nil {
		return schedule.Summarise(r.diary, opts)
	}
	key := fmt.Sprintf("%g|%s", opts.DayLength, opts.Timezone)
	if cached, ok := r.schedules.GetIfPresent(key); ok {
		return cached, nil
	}
	result, err := schedule.Summarise(r.diary, opts)
	if err != nil {
		return schedule.Result{}, err
	}
	r.schedules.Set(key, result)
	return result, nil
}

// Daily returns the memoized daily segmentation for the query.
func (r *Reporter) Daily(q DailyQuery) ([]*daily.Day, error) {
	key := fmt.Sprintf("%s|%d|%d|%d", q.Timezone, q.DayStart, q.DayStride, q.SegmentStride)
	if cached, ok := r.dailies.GetIfPresent(key); ok {
		return cached, nil
	}

	opts := []daily.Option{daily.WithTimezone(q.Timezone)}
	if q.DayStart != 0 {
		opts = append(opts, daily.WithDayStart(q.DayStart))
	}
	if q.DayStride != 0 {
		opts = append(opts, daily.WithDayStride(q.DayStride))
	}
	if q.SegmentStride != 0 {
		opts = append(opts, daily.WithSegmentStride(q.SegmentStride))
	}
	days, err := daily.Activities(r.diary, opts...)
	if err != nil {
		return nil, err
	}
	r.dailies.Set(key, days)
	return days, nil
}

// Render builds the full terminal report: schedule block plus per-day
// histogram.
func (r *Reporter) Render(timezone string) (string, error) {
	result, err := r.Schedule(schedule.Options{Timezone: timezone})
	if err != nil {
		return "", err
	}

	var output strings.Builder
	output.WriteString("🛏  Sleep schedule\n")
	output.WriteString(strings.Repeat("─", 50) + "\n")
	writeScheduleLine(&output, "bedtime", result.Sleep)
	writeScheduleLine(&output, "wake", result.Wake)
	output.WriteString("\n")
	output.WriteString(histogram.Render(r.diary))
	return output.String(), nil
}

func writeScheduleLine(output *strings.Builder, label string, s *stats.Summary) {
	if s == nil {
		fmt.Fprintf(output, "%-8s %s\n", label, color.New(color.FgHiBlack).Sprint("no data"))
		return
	}
	fmt.Fprintf(output, "%-8s avg %s  median %s  ±%s  IQR %s\n",
		label,
		color.New(color.FgCyan).Sprint(Clock(s.Average)),
		Clock(s.Median),
		minutes(s.StandardDeviation),
		minutes(s.InterquartileRange))
}

// Clock formats milliseconds-since-midnight as HH:MM, wrapping into a
// 24h day.
func Clock(ms float64) string {
	if math.IsNaN(ms) {
		return "--:--"
	}
	const dayMs = 24 * 60 * 60 * 1000
	wrapped := math.Mod(math.Mod(ms, dayMs)+dayMs, dayMs)
	total := int(math.Round(wrapped / 60000))
	return fmt.Sprintf("%02d:%02d", (total/60)%24, total%60)
}

func minutes(ms float64) string {
	return fmt.Sprintf("%dm", int(math.Round(ms/60000)))
}
