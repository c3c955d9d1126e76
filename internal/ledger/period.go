package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period is the (year, month) bucket entries are grouped by.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the period containing t, in t's own location.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod accepts "YYYY-MM" and the unpadded "YYYY-M".
func ParsePeriod(s string) (Period, error) {
	y, m, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Period{}, fmt.Errorf("invalid period %q: expected YYYY-MM", s)
	}
	year, err := strconv.Atoi(y)
	if err != nil || year < 1 || year > 9999 {
		return Period{}, fmt.Errorf("invalid period year %q", y)
	}
	month, err := strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return Period{}, fmt.Errorf("invalid period month %q", m)
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// String formats the period as YYYY-MM.
func (p Period) String() string {
	if p.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// IsZero reports whether p is unset.
func (p Period) IsZero() bool { return p.Year == 0 && p.Month == 0 }

// Contains reports whether t falls in p.
func (p Period) Contains(t time.Time) bool { return PeriodOf(t) == p }

// Before reports whether p is strictly earlier than q.
func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Month < q.Month
}

// Next returns the following period.
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Prev returns the preceding period.
func (p Period) Prev() Period {
	if p.Month == time.January {
		return Period{Year: p.Year - 1, Month: time.December}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

// Start returns the first instant of p in loc.
func (p Period) Start(loc *time.Location) time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, loc)
}
