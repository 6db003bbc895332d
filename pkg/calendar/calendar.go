// Package calendar provides the zoned date arithmetic the diary
// analytics depend on: wall-clock construction, start-of-day lookup and
// DST-transition queries. All instants are milliseconds since the Unix
// epoch; zones are IANA IDs, with the empty string meaning the
// process-local zone.
//
// An unresolvable zone is a caller bug and propagates as an error.
package calendar

import (
	"fmt"
	"math"
	"time"
)

// NoTransition is returned by NextTransition when the zone has no
// further offset changes after the given instant.
const NoTransition = int64(math.MaxInt64)

// DateTime is the wall-clock view of an instant in a zone. Month and
// Day are one-based.
type DateTime struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	// OffsetMinutes is the UTC offset in effect at the instant;
	// StandardOffsetMinutes is the zone's offset outside DST.
	OffsetMinutes         int
	StandardOffsetMinutes int
}

func location(zone string) (*time.Location, error) {
	if zone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("resolving zone %q: %w", zone, err)
	}
	return loc, nil
}

// Zoned constructs the wall-clock view of ms in the given zone.
func Zoned(ms int64, zone string) (DateTime, error) {
	loc, err := location(zone)
	if err != nil {
		return DateTime{}, err
	}
	t := time.UnixMilli(ms).In(loc)
	_, offset := t.Zone()
	return DateTime{
		Year:                  t.Year(),
		Month:                 int(t.Month()),
		Day:                   t.Day(),
		Hour:                  t.Hour(),
		Minute:                t.Minute(),
		OffsetMinutes:         offset / 60,
		StandardOffsetMinutes: standardOffset(t) / 60,
	}, nil
}

// standardOffset returns the zone's non-DST UTC offset in seconds,
// walking back through transitions when t itself falls inside DST.
func standardOffset(t time.Time) int {
	_, offset := t.Zone()
	if !t.IsDST() {
		return offset
	}
	cur := t
	for range 8 { // zones alternate DST well within this many bounds
		start, _ := cur.ZoneBounds()
		if start.IsZero() {
			break
		}
		cur = start.Add(-time.Second)
		if !cur.IsDST() {
			_, standard := cur.Zone()
			return standard
		}
	}
	return offset
}

// OffsetMillis returns the UTC offset at ms in the zone, in
// milliseconds.
func OffsetMillis(ms int64, zone string) (int64, error) {
	loc, err := location(zone)
	if err != nil {
		return 0, err
	}
	_, offset := time.UnixMilli(ms).In(loc).Zone()
	return int64(offset) * 1000, nil
}

// StartOfDay returns the most recent local midnight at or before ms.
func StartOfDay(ms int64, zone string) (int64, error) {
	loc, err := location(zone)
	if err != nil {
		return 0, err
	}
	t := time.UnixMilli(ms).In(loc)
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return midnight.UnixMilli(), nil
}

// NextTransition returns the instant of the next zone-offset change
// strictly after ms, or NoTransition when none is known.
func NextTransition(ms int64, zone string) (int64, error) {
	loc, err := location(zone)
	if err != nil {
		return 0, err
	}
	_, end := time.UnixMilli(ms).In(loc).ZoneBounds()
	if end.IsZero() {
		return NoTransition, nil
	}
	return end.UnixMilli(), nil
}

// Format renders ms as a local "YYYY-MM-DD HH:MM" string in the zone.
func Format(ms int64, zone string) (string, error) {
	loc, err := location(zone)
	if err != nil {
		return "", err
	}
	return time.UnixMilli(ms).In(loc).Format("2006-01-02 15:04"), nil
}
