// Package daily partitions a derived diary into calendar-aligned days
// and splits each record into the activities that fall inside them.
//
// Day boundaries are walked in local time: each boundary is the
// previous one plus the day stride, corrected by the zone-offset
// difference so the local time of day stays fixed across DST
// transitions. Days are not uniform in length.
package daily

import (
	"fmt"
	"math"
	"sort"

	"github.com/nightowl-dev/sleeplog/pkg/calendar"
	"github.com/nightowl-dev/sleeplog/pkg/diary"
)

const msPerHour = int64(60 * 60 * 1000)

// Defaults: diary days run evening to evening.
const (
	DefaultDayStart  = 18 * msPerHour
	DefaultDayStride = 24 * msPerHour
)

// Option configures Activities.
type Option func(*config)

type config struct {
	zone          string
	dayStart      int64
	dayStride     int64
	segmentStride int64
}

// WithTimezone sets the zone the days are aligned to. The default is
// the process-local zone.
func WithTimezone(zone string) Option {
	return func(c *config) { c.zone = zone }
}

// WithDayStart sets the day boundary's offset from local midnight in
// milliseconds. The default is 18 hours.
func WithDayStart(offset int64) Option {
	return func(c *config) { c.dayStart = offset }
}

// WithDayStride sets the nominal day length in milliseconds. The
// default is 24 hours.
func WithDayStride(stride int64) Option {
	return func(c *config) { c.dayStride = stride }
}

// WithSegmentStride enables fixed-width segments of the given length
// in milliseconds within each day.
func WithSegmentStride(stride int64) Option {
	return func(c *config) { c.segmentStride = stride }
}

// ActivityType classifies how a record's interval meets a day.
type ActivityType string

// Activity types. Records spanning several days split into one
// start-mid, any number of mid-mid and one mid-end activity.
const (
	ActivityStartUnknown ActivityType = "start-unknown"
	ActivityUnknownEnd   ActivityType = "unknown-end"
	ActivityStartEnd     ActivityType = "start-end"
	ActivityStartMid     ActivityType = "start-mid"
	ActivityMidMid       ActivityType = "mid-mid"
	ActivityMidEnd       ActivityType = "mid-end"
)

// Activity is the portion of a record that falls within one day.
// Start, End and Time are epoch milliseconds as floats; an open side is
// NaN. The Offset fields are fractional positions within the day's
// span, in [0,1] for anything inside the day.
type Activity struct {
	Type   ActivityType
	Record *diary.Record
	Start  float64
	End    float64
	Time   float64

	OffsetStart float64
	OffsetEnd   float64
	OffsetTime  float64
}

// DSTState tags a segment's relation to daylight-saving time.
type DSTState string

// Segment DST states.
const (
	DSTOff           DSTState = "off"
	DSTOn            DSTState = "on"
	DSTChangeForward DSTState = "change-forward"
	DSTChangeBack    DSTState = "change-back"
)

// Segment is one fixed-width slice of a day.
type Segment struct {
	Start int64
	End   int64
	State DSTState
}

// Date is a calendar date with zero-based month and day-of-month,
// matching the canonical export form.
type Date struct {
	Year  int
	Month int
	Day   int
}

// StatusSummary aggregates one status's activities within a day.
// The First/Last fields are formatted local times of the earliest and
// latest defined endpoints.
type StatusSummary struct {
	FirstStart string
	FirstEnd   string
	LastStart  string
	LastEnd    string
	// DurationMillis is the summed span of the status's activities;
	// NaN once any contributing activity is missing an endpoint.
	DurationMillis float64
}

// Day is one calendar-aligned slice of the diary.
type Day struct {
	Index      int   // running day index from the first boundary
	Start, End int64 // boundary timestamps, ms
	Date       Date

	Activities        []Activity
	ActivitySummaries map[diary.Status]*StatusSummary
	Segments          []Segment
}

// Duration returns the day's span in milliseconds. Days touching a DST
// transition are shorter or longer than the nominal stride.
func (d *Day) Duration() int64 { return d.End - d.Start }

func (d *Day) offset(t float64) float64 {
	if math.IsNaN(t) {
		return math.NaN()
	}
	return (t - float64(d.Start)) / float64(d.Duration())
}

// Activities splits the diary into day objects. The result is indexed
// by running day index; days no record touches stay nil.
func Activities(d *diary.Diary, opts ...Option) ([]*Day, error) {
	cfg := config{dayStart: DefaultDayStart, dayStride: DefaultDayStride}
	for _, opt := range opts {
		opt(&cfg)
	}

	earliest, latest, ok := timeRange(d)
	if !ok {
		return nil, nil
	}

	bounds, err := dayBounds(earliest, latest, cfg)
	if err != nil {
		return nil, err
	}

	days := make([]*Day, len(bounds)-1)
	day := func(i int) (*Day, error) {
		if days[i] == nil {
			materialized, err := materializeDay(i, bounds, cfg)
			if err != nil {
				return nil, err
			}
			days[i] = materialized
		}
		return days[i], nil
	}

	for ri := range d.Records {
		if err := splitRecord(&d.Records[ri], bounds, day); err != nil {
			return nil, err
		}
	}

	for _, dy := range days {
		if dy == nil {
			continue
		}
		if err := summarizeDay(dy, cfg.zone); err != nil {
			return nil, err
		}
	}
	return days, nil
}

// timeRange returns the span of defined timestamps in the diary.
func timeRange(d *diary.Diary) (earliest, latest int64, ok bool) {
	for _, r := range d.Records {
		for _, t := range []*int64{r.Start, r.End} {
			if t == nil {
				continue
			}
			if !ok || *t < earliest {
				earliest = *t
			}
			if !ok || *t > latest {
				latest = *t
			}
			ok = true
		}
	}
	return earliest, latest, ok
}

// dayBounds walks day boundaries from the local day-start at or before
// the earliest record until one boundary lies past the latest record.
func dayBounds(earliest, latest int64, cfg config) ([]int64, error) {
	midnight, err := calendar.StartOfDay(earliest, cfg.zone)
	if err != nil {
		return nil, err
	}
	start := midnight + cfg.dayStart
	if start > earliest {
		midnight, err = calendar.StartOfDay(start-cfg.dayStride, cfg.zone)
		if err != nil {
			return nil, err
		}
		start = midnight + cfg.dayStart
	}

	bounds := []int64{start}
	nextDST, err := calendar.NextTransition(start, cfg.zone)
	if err != nil {
		return nil, err
	}

	cur := start
	for cur <= latest {
		next := cur + cfg.dayStride
		if nextDST != calendar.NoTransition && next >= nextDST {
			curOffset, err := calendar.OffsetMillis(cur, cfg.zone)
			if err != nil {
				return nil, err
			}
			nextOffset, err := calendar.OffsetMillis(next, cfg.zone)
			if err != nil {
				return nil, err
			}
			// Keep the local time of day fixed across the shift, but
			// only when the corrected boundary still advances: a
			// stride shorter than the offset change must not invert
			// the boundary ordering.
			if corrected := next + (curOffset - nextOffset); corrected > cur {
				next = corrected
			}
			if nextDST, err = calendar.NextTransition(next, cfg.zone); err != nil {
				return nil, err
			}
		}
		bounds = append(bounds, next)
		cur = next
	}
	return bounds, nil
}

func materializeDay(i int, bounds []int64, cfg config) (*Day, error) {
	dt, err := calendar.Zoned(bounds[i], cfg.zone)
	if err != nil {
		return nil, err
	}
	dy := &Day{
		Index: i,
		Start: bounds[i],
		End:   bounds[i+1],
		Date:  Date{Year: dt.Year, Month: dt.Month - 1, Day: dt.Day - 1},
	}
	if cfg.segmentStride > 0 {
		if dy.Segments, err = buildSegments(dy.Start, dy.End, cfg.segmentStride, cfg.zone); err != nil {
			return nil, err
		}
	}
	return dy, nil
}

// dayIndexOf returns the index of the day containing t: the largest i
// with bounds[i] <= t.
func dayIndexOf(t int64, bounds []int64) int {
	i := sort.Search(len(bounds), func(i int) bool { return bounds[i] > t }) - 1
	if i < 0 {
		i = 0
	}
	if i > len(bounds)-2 {
		i = len(bounds) - 2
	}
	return i
}

func splitRecord(r *diary.Record, bounds []int64, day func(int) (*Day, error)) error {
	add := func(i int, a Activity) error {
		dy, err := day(i)
		if err != nil {
			return err
		}
		a.Record = r
		a.OffsetStart = dy.offset(a.Start)
		a.OffsetEnd = dy.offset(a.End)
		a.OffsetTime = dy.offset(a.Time)
		dy.Activities = append(dy.Activities, a)
		return nil
	}

	switch {
	case r.Start == nil && r.End == nil:
		return nil

	case r.Start == nil:
		t := float64(*r.End)
		return add(dayIndexOf(*r.End, bounds), Activity{
			Type: ActivityStartUnknown, Start: math.NaN(), End: t, Time: t,
		})

	case r.End == nil:
		t := float64(*r.Start)
		return add(dayIndexOf(*r.Start, bounds), Activity{
			Type: ActivityUnknownEnd, Start: t, End: math.NaN(), Time: t,
		})
	}

	s, e := *r.Start, *r.End
	ds, de := dayIndexOf(s, bounds), dayIndexOf(e, bounds)
	if ds == de {
		return add(ds, Activity{
			Type:  ActivityStartEnd,
			Start: float64(s), End: float64(e), Time: float64(s+e) / 2,
		})
	}

	if err := add(ds, Activity{
		Type:  ActivityStartMid,
		Start: float64(s), End: float64(bounds[ds+1]),
		Time: (float64(s) + float64(bounds[ds+1])) / 2,
	}); err != nil {
		return err
	}
	for i := ds + 1; i < de; i++ {
		if err := add(i, Activity{
			Type:  ActivityMidMid,
			Start: float64(bounds[i]), End: float64(bounds[i+1]),
			Time: (float64(bounds[i]) + float64(bounds[i+1])) / 2,
		}); err != nil {
			return err
		}
	}
	return add(de, Activity{
		Type:  ActivityMidEnd,
		Start: float64(bounds[de]), End: float64(e),
		Time: (float64(bounds[de]) + float64(e)) / 2,
	})
}

// buildSegments steps through the day by the segment stride, tagging
// each slice with its DST state and resynchronizing on the predicted
// transition.
func buildSegments(start, end, stride int64, zone string) ([]Segment, error) {
	nextDST, err := calendar.NextTransition(start, zone)
	if err != nil {
		return nil, err
	}

	var segments []Segment
	for cur := start; cur < end; cur += stride {
		segEnd := cur + stride
		if segEnd > end {
			segEnd = end
		}

		var state DSTState
		if nextDST != calendar.NoTransition && nextDST > cur && nextDST <= segEnd {
			before, err := calendar.OffsetMillis(cur, zone)
			if err != nil {
				return nil, err
			}
			after, err := calendar.OffsetMillis(nextDST, zone)
			if err != nil {
				return nil, err
			}
			if after > before {
				state = DSTChangeForward
			} else {
				state = DSTChangeBack
			}
			if nextDST, err = calendar.NextTransition(segEnd, zone); err != nil {
				return nil, err
			}
		} else {
			dt, err := calendar.Zoned(cur, zone)
			if err != nil {
				return nil, err
			}
			if dt.OffsetMinutes != dt.StandardOffsetMinutes {
				state = DSTOn
			} else {
				state = DSTOff
			}
		}

		segments = append(segments, Segment{Start: cur, End: segEnd, State: state})
	}
	return segments, nil
}

// summarizeDay aggregates the day's activities by status.
func summarizeDay(dy *Day, zone string) error {
	if len(dy.Activities) == 0 {
		return nil
	}
	dy.ActivitySummaries = make(map[diary.Status]*StatusSummary)

	for _, a := range dy.Activities {
		sum := dy.ActivitySummaries[a.Record.Status]
		if sum == nil {
			sum = &StatusSummary{}
			dy.ActivitySummaries[a.Record.Status] = sum
		}

		if !math.IsNaN(a.Start) {
			formatted, err := calendar.Format(int64(a.Start), zone)
			if err != nil {
				return fmt.Errorf("formatting activity start: %w", err)
			}
			if sum.FirstStart == "" {
				sum.FirstStart = formatted
			}
			sum.LastStart = formatted
		}
		if !math.IsNaN(a.End) {
			formatted, err := calendar.Format(int64(a.End), zone)
			if err != nil {
				return fmt.Errorf("formatting activity end: %w", err)
			}
			if sum.FirstEnd == "" {
				sum.FirstEnd = formatted
			}
			sum.LastEnd = formatted
		}

		if math.IsNaN(a.Start) || math.IsNaN(a.End) {
			sum.DurationMillis = math.NaN()
		} else if !math.IsNaN(sum.DurationMillis) {
			sum.DurationMillis += a.End - a.Start
		}
	}
	return nil
}
