package vetis

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PartialDate is a date with only a prefix of (year, month, day, hour, minute)
// populated. The registry reports production and expiry moments this way:
// "2023", "2023-07", "2023-07-15 08:30" are all valid values.
//
// A component may only be set when its coarser parent is set: a day without a
// month is invalid, a minute without an hour is invalid. The year is always
// required.
type PartialDate struct {
	Year   int
	Month  *int
	Day    *int
	Hour   *int
	Minute *int
}

// NewPartialDate validates the components and returns the value.
func NewPartialDate(year int, month, day, hour, minute *int) (PartialDate, error) {
	d := PartialDate{Year: year, Month: month, Day: day, Hour: hour, Minute: minute}
	if err := d.validate(); err != nil {
		return PartialDate{}, err
	}
	return d, nil
}

// ParsePartialDate parses the display form produced by String:
// "YYYY[-MM[-DD[ HH[:MM]]]]".
func ParsePartialDate(s string) (PartialDate, error) {
	var d PartialDate

	datePart := s
	timePart := ""
	if i := strings.IndexByte(s, ' '); i >= 0 {
		datePart, timePart = s[:i], s[i+1:]
	}

	ymd := strings.Split(datePart, "-")
	if len(ymd) == 0 || ymd[0] == "" {
		return PartialDate{}, fmt.Errorf("partial date %q: missing year", s)
	}
	year, err := strconv.Atoi(ymd[0])
	if err != nil {
		return PartialDate{}, fmt.Errorf("partial date %q: bad year: %w", s, err)
	}
	d.Year = year
	if len(ymd) >= 2 {
		if d.Month, err = atoiPtr(ymd[1]); err != nil {
			return PartialDate{}, fmt.Errorf("partial date %q: bad month: %w", s, err)
		}
	}
	if len(ymd) >= 3 {
		if d.Day, err = atoiPtr(ymd[2]); err != nil {
			return PartialDate{}, fmt.Errorf("partial date %q: bad day: %w", s, err)
		}
	}

	if timePart != "" {
		hm := strings.Split(timePart, ":")
		if d.Hour, err = atoiPtr(hm[0]); err != nil {
			return PartialDate{}, fmt.Errorf("partial date %q: bad hour: %w", s, err)
		}
		if len(hm) >= 2 {
			if d.Minute, err = atoiPtr(hm[1]); err != nil {
				return PartialDate{}, fmt.Errorf("partial date %q: bad minute: %w", s, err)
			}
		}
	}

	if err := d.validate(); err != nil {
		return PartialDate{}, err
	}
	return d, nil
}

func atoiPtr(s string) (*int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (d PartialDate) validate() error {
	if d.Year < 1 || d.Year > 9999 {
		return fmt.Errorf("partial date: year %d out of range", d.Year)
	}
	if d.Month == nil && d.Day != nil {
		return fmt.Errorf("partial date: day set without month")
	}
	if d.Day == nil && d.Hour != nil {
		return fmt.Errorf("partial date: hour set without day")
	}
	if d.Hour == nil && d.Minute != nil {
		return fmt.Errorf("partial date: minute set without hour")
	}
	if d.Month != nil && (*d.Month < 1 || *d.Month > 12) {
		return fmt.Errorf("partial date: month %d out of range", *d.Month)
	}
	if d.Day != nil && (*d.Day < 1 || *d.Day > 31) {
		return fmt.Errorf("partial date: day %d out of range", *d.Day)
	}
	if d.Hour != nil && (*d.Hour < 0 || *d.Hour > 23) {
		return fmt.Errorf("partial date: hour %d out of range", *d.Hour)
	}
	if d.Minute != nil && (*d.Minute < 0 || *d.Minute > 59) {
		return fmt.Errorf("partial date: minute %d out of range", *d.Minute)
	}
	return nil
}

// String renders the finest populated components: "YYYY[-MM[-DD[ HH[:MM]]]]".
func (d PartialDate) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%04d", d.Year)
	if d.Month == nil {
		return b.String()
	}
	fmt.Fprintf(&b, "-%02d", *d.Month)
	if d.Day == nil {
		return b.String()
	}
	fmt.Fprintf(&b, "-%02d", *d.Day)
	if d.Hour == nil {
		return b.String()
	}
	fmt.Fprintf(&b, " %02d", *d.Hour)
	if d.Minute != nil {
		fmt.Fprintf(&b, ":%02d", *d.Minute)
	}
	return b.String()
}

// Time returns the comparable instant: unset components default to their
// minimum (month and day to 1, hour and minute to 0).
func (d PartialDate) Time() time.Time {
	month, day, hour, minute := 1, 1, 0, 0
	if d.Month != nil {
		month = *d.Month
	}
	if d.Day != nil {
		day = *d.Day
	}
	if d.Hour != nil {
		hour = *d.Hour
	}
	if d.Minute != nil {
		minute = *d.Minute
	}
	return time.Date(d.Year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
}
