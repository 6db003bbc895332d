// Package diary implements the canonical sleep-diary record model: a
// sorted list of status intervals plus the derivation pass that assigns
// day numbers, primary-sleep flags and logging-gap markers.
package diary

import (
	"cmp"
	"slices"
)

// Status is one of the fixed vocabulary of interval states shared by
// every format adapter.
type Status string

// The canonical status vocabulary.
const (
	StatusAwake     Status = "awake"
	StatusAsleep    Status = "asleep"
	StatusSnack     Status = "snack"
	StatusDrink     Status = "drink"
	StatusSleepAid  Status = "sleep aid"
	StatusExercise  Status = "exercise"
	StatusToilet    Status = "toilet"
	StatusNoise     Status = "noise"
	StatusAlarm     Status = "alarm"
	StatusInBed     Status = "in bed"
	StatusOutOfBed  Status = "out of bed"
	StatusLightsOff Status = "lights off"
	StatusLightsOn  Status = "lights on"
)

// Explicit marks record fields that were supplied by the source rather
// than computed by the derivation pass. Explicit fields always win.
type Explicit uint8

// Explicit field bits.
const (
	ExplicitDayNumber Explicit = 1 << iota
	ExplicitStartOfNewDay
	ExplicitIsPrimarySleep
	ExplicitMissingRecordAfter
)

// Has reports whether all bits in flag are set.
func (e Explicit) Has(flag Explicit) bool { return e&flag == flag }

// Record is one status interval. Start, End and Duration are epoch
// milliseconds; nil means the value is unknown (an unterminated or
// open-started interval). Timezones are IANA zone IDs; the empty
// string means the process-local zone.
type Record struct {
	Status        Status    `json:"status"`
	Start         *int64    `json:"start,omitempty"`
	End           *int64    `json:"end,omitempty"`
	StartTimezone string    `json:"start_timezone,omitempty"`
	EndTimezone   string    `json:"end_timezone,omitempty"`
	Duration      *int64    `json:"duration,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	Comments      []Comment `json:"comments,omitempty"`

	DayNumber          int  `json:"day_number"`
	StartOfNewDay      bool `json:"start_of_new_day"`
	IsPrimarySleep     bool `json:"is_primary_sleep"`
	MissingRecordAfter bool `json:"missing_record_after"`

	// Explicit records which of the derived fields above were supplied
	// by the adapter; it never round-trips through serialization.
	Explicit Explicit `json:"-"`
}

// Settings holds the day-boundary thresholds.
type Settings struct {
	// MinimumDayDuration is how far past the current day's start an
	// asleep record must begin to open a new day.
	MinimumDayDuration int64 `json:"minimum_day_duration,omitempty"`
	// MaximumDayDuration is the gap beyond which a whole day is assumed
	// to have gone unlogged. Defaults to twice the minimum.
	MaximumDayDuration int64 `json:"maximum_day_duration,omitempty"`
}

// DefaultMinimumDayDuration is 16 hours in milliseconds.
const DefaultMinimumDayDuration = 16 * 60 * 60 * 1000

func (s Settings) withDefaults() Settings {
	if s.MinimumDayDuration <= 0 {
		s.MinimumDayDuration = DefaultMinimumDayDuration
	}
	if s.MaximumDayDuration <= 0 {
		s.MaximumDayDuration = 2 * s.MinimumDayDuration
	}
	return s
}

// Diary is the canonical record store. Records are kept sorted by
// (start, end) and carry derived fields after construction; analytics
// packages treat the store as read-only.
type Diary struct {
	Records  []Record `json:"records"`
	Settings Settings `json:"settings,omitempty"`
}

// New builds a derived diary from adapter output. The input slice is
// copied; records are sorted and the derivation pass runs once.
func New(records []Record, settings Settings) *Diary {
	d := &Diary{
		Records:  slices.Clone(records),
		Settings: settings.withDefaults(),
	}
	d.derive()
	return d
}

// Merge appends another diary's records and re-runs sorting and
// derivation. Settings of the receiver win.
func (d *Diary) Merge(other *Diary) {
	d.Records = append(d.Records, other.Records...)
	d.derive()
}

// compareRecords orders by (start, end); an unknown endpoint sorts
// before any known one so the order is deterministic and re-sorting a
// derived diary is a no-op.
func compareRecords(a, b Record) int {
	if c := compareOptional(a.Start, b.Start); c != 0 {
		return c
	}
	return compareOptional(a.End, b.End)
}

func compareOptional(a, b *int64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return cmp.Compare(*a, *b)
	}
}

// derive runs the single forward scan over the sorted records,
// computing every field the adapter did not supply. It never fails:
// missing timestamps degrade to nil fields.
func (d *Diary) derive() {
	slices.SortStableFunc(d.Records, compareRecords)

	// dayStart anchors day-boundary detection at the first known
	// timestamp so day numbering starts at zero.
	var dayStart int64
	for i := range d.Records {
		if s := d.Records[i].Start; s != nil {
			dayStart = *s
			break
		}
	}

	var (
		dayNumber int
		prevSleep *Record          // last awake/asleep record seen
		bestSleep = map[int]int{}  // day number -> index of longest asleep record
	)
	minDay := d.Settings.MinimumDayDuration
	maxDay := d.Settings.MaximumDayDuration

	for i := range d.Records {
		r := &d.Records[i]
		normalize(r)

		// Re-derivation must not keep stale flags from a previous pass.
		if !r.Explicit.Has(ExplicitIsPrimarySleep) {
			r.IsPrimarySleep = false
		}
		if !r.Explicit.Has(ExplicitMissingRecordAfter) {
			r.MissingRecordAfter = false
		}

		if !r.Explicit.Has(ExplicitStartOfNewDay) {
			r.StartOfNewDay = r.Status == StatusAsleep &&
				r.Start != nil && *r.Start > dayStart+minDay
		}

		if r.Explicit.Has(ExplicitDayNumber) {
			dayNumber = r.DayNumber
		} else {
			if r.StartOfNewDay {
				if r.Start != nil && *r.Start > dayStart+maxDay {
					dayNumber += 2 // a whole day went unlogged
				} else {
					dayNumber++
				}
			}
			r.DayNumber = dayNumber
		}
		if r.StartOfNewDay && r.Start != nil {
			dayStart = *r.Start
		}

		// A repeated awake/asleep status means the record in between
		// was never logged.
		if r.Status == StatusAwake || r.Status == StatusAsleep {
			if prevSleep != nil && !prevSleep.Explicit.Has(ExplicitMissingRecordAfter) {
				prevSleep.MissingRecordAfter = prevSleep.Status == r.Status
			}
			prevSleep = r
		}

		// Strict greater-than: the earliest record with the maximal
		// duration stays the day's primary sleep.
		if r.Status == StatusAsleep && r.Duration != nil {
			if best, ok := bestSleep[r.DayNumber]; !ok ||
				d.Records[best].Duration == nil ||
				*r.Duration > *d.Records[best].Duration {
				bestSleep[r.DayNumber] = i
			}
		}
	}

	for _, i := range bestSleep {
		if r := &d.Records[i]; !r.Explicit.Has(ExplicitIsPrimarySleep) {
			r.IsPrimarySleep = true
		}
	}
}

// normalize applies the per-record defaults: duration falls back to
// end-start and empty tag/comment lists are dropped.
func normalize(r *Record) {
	if r.Duration == nil && r.Start != nil && r.End != nil {
		duration := *r.End - *r.Start
		r.Duration = &duration
	}
	if len(r.Tags) == 0 {
		r.Tags = nil
	}
	if len(r.Comments) == 0 {
		r.Comments = nil
	}
}

// PrimarySleeps returns the records flagged as each day's primary
// sleep, in diary order.
func (d *Diary) PrimarySleeps() []Record {
	var out []Record
	for _, r := range d.Records {
		if r.IsPrimarySleep {
			out = append(out, r)
		}
	}
	return out
}

// Millis is a convenience for building optional timestamps.
func Millis(ms int64) *int64 { return &ms }
