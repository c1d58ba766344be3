package core

import (
	"strconv"
	"strings"
	"time"
)

// Date is a calendar date without a time component. The zero value is the
// absent date.
type Date struct {
	time.Time
}

// DateMode controls how unparseable date cells are handled during import.
type DateMode int

const (
	// DateLenient substitutes the current date for blank or unparseable
	// cells instead of failing the row.
	DateLenient DateMode = iota
	// DateStrict rejects the row when a date cell cannot be parsed.
	DateStrict
)

const dateLayout = "2006-01-02"

// dateLayouts are the accepted textual representations, most common first.
var dateLayouts = []string{dateLayout, "02-01-2006", "01/02/2006", "2006/01/02", "2 Jan 2006"}

// serialEpoch is day zero of the spreadsheet date-serial numbering.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// NewDate creates a Date from year, month and day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Today returns the current calendar date.
func Today() Date {
	return DateOf(time.Now().UTC())
}

// ParseDate parses a textual calendar date in any accepted layout.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, ErrInvalidDate
}

// FromSerial converts a spreadsheet date serial to a calendar date. The
// fractional part is time-of-day and is discarded.
func FromSerial(serial float64) Date {
	return DateOf(serialEpoch.AddDate(0, 0, int(serial)))
}

// NormalizeCellDate coerces a raw spreadsheet cell into a Date. Cells that
// already hold a parseable date string canonicalize directly; numeric cells
// are treated as date serials. In lenient mode anything else (blank,
// garbage) defaults to today; in strict mode it is an error.
func NormalizeCellDate(cell string, mode DateMode, today Date) (Date, error) {
	cell = strings.TrimSpace(cell)
	if cell != "" {
		if d, err := ParseDate(cell); err == nil {
			return d, nil
		}
		if serial, err := strconv.ParseFloat(cell, 64); err == nil && serial > 0 {
			return FromSerial(serial), nil
		}
	}
	if mode == DateStrict {
		return Date{}, ErrInvalidDate
	}
	return today, nil
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// DaysUntil returns the number of whole days from d to other. Negative when
// other is in the past.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD", or null when absent.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts "YYYY-MM-DD", an empty string, or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
