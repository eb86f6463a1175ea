package domain

import (
	"fmt"
	"sort"
	"time"
)

// SlotMinutes is the fixed appointment granularity. A booking occupies the
// open interval of this length around its datetime: two non-terminal
// appointments for the same doctor may never be strictly closer than this.
const SlotMinutes = 30

// TimeOfDay is minutes since midnight. HH:MM strings are parsed into this
// so ordering is integer comparison instead of string comparison.
type TimeOfDay int

// ParseTimeOfDay parses a zero-padded 24-hour "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed time of day %q", ErrInvalidInput, s)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

// TimeOfDayOf extracts the wall-clock time of day of t.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

var weekdayLabels = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// WeekdayLabel is the single weekday convention (0=Sunday..6=Saturday)
// shared by availability checks, slot generation, and admission. All
// components must derive weekdays through this function.
func WeekdayLabel(t time.Time) string {
	return weekdayLabels[int(t.Weekday())]
}

func validWeekday(label string) bool {
	for _, l := range weekdayLabels {
		if l == label {
			return true
		}
	}
	return false
}

// ValidateWindows rejects malformed availability at write time: unknown
// weekday labels, unparseable times, or inverted windows (start >= end).
// Cross-midnight windows are not supported.
func ValidateWindows(windows []AvailabilityWindow) error {
	for _, w := range windows {
		if !validWeekday(w.Day) {
			return fmt.Errorf("%w: unknown weekday %q", ErrInvalidInput, w.Day)
		}
		start, err := ParseTimeOfDay(w.Start)
		if err != nil {
			return err
		}
		end, err := ParseTimeOfDay(w.End)
		if err != nil {
			return err
		}
		if start >= end {
			return fmt.Errorf("%w: window %s %s-%s must start before it ends", ErrInvalidInput, w.Day, w.Start, w.End)
		}
	}
	return nil
}

// WithinAvailability reports whether t falls inside some window for its
// weekday. Windows are half-open: start <= t < end, so a window ending at
// 17:00 does not admit an appointment at 17:00. Windows that fail to parse
// yield no availability rather than an error; writes are validated.
func WithinAvailability(windows []AvailabilityWindow, t time.Time) bool {
	day := WeekdayLabel(t)
	tod := TimeOfDayOf(t)
	for _, w := range windows {
		if w.Day != day {
			continue
		}
		start, err := ParseTimeOfDay(w.Start)
		if err != nil {
			continue
		}
		end, err := ParseTimeOfDay(w.End)
		if err != nil {
			continue
		}
		if start <= tod && tod < end {
			return true
		}
	}
	return false
}

// GenerateSlots derives the candidate slot times for date from the
// doctor's windows: 30-minute steps from each window's start while the
// slot still fits before the window's end. When date is today (relative to
// now), times not strictly after now are dropped. The result is
// deduplicated and ascending.
func GenerateSlots(windows []AvailabilityWindow, date time.Time, now time.Time) []TimeOfDay {
	day := WeekdayLabel(date)
	seen := make(map[TimeOfDay]bool)
	slots := make([]TimeOfDay, 0)
	for _, w := range windows {
		if w.Day != day {
			continue
		}
		start, err := ParseTimeOfDay(w.Start)
		if err != nil {
			continue
		}
		end, err := ParseTimeOfDay(w.End)
		if err != nil {
			continue
		}
		for cur := start; cur+SlotMinutes <= end; cur += SlotMinutes {
			if !seen[cur] {
				seen[cur] = true
				slots = append(slots, cur)
			}
		}
	}
	if SameDate(date, now) {
		cutoff := TimeOfDayOf(now)
		kept := slots[:0]
		for _, s := range slots {
			if s > cutoff {
				kept = append(kept, s)
			}
		}
		slots = kept
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots
}

// SameDate reports whether a and b fall on the same calendar day.
func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// DayBounds returns the half-open interval [00:00, next midnight) around t.
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

// FloorToSlot floors t to the slot grid; this is the normalized slot key
// backing the storage-level uniqueness constraint.
func FloorToSlot(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute()-t.Minute()%SlotMinutes, 0, 0, t.Location())
}
