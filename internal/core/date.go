package core

import (
	"errors"
	"time"
)

// ISODate is the wire format for calendar dates.
const ISODate = "2006-01-02"

// Date is a timezone-naive calendar date (year/month/day, no time of day).
// Internally it is a time.Time pinned to midnight UTC; all arithmetic is done
// in whole calendar units so day boundaries can never shift.
type Date struct {
	time.Time
}

var ErrInvalidDate = errors.New("invalid date")

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(ISODate, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(ISODate)
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// IsEmpty returns true if the date is the zero value (used for optional dates).
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Before reports whether d falls on an earlier calendar day than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d falls on a later calendar day than other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// Equal reports whether both values name the same calendar day.
func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

// AddDays returns the date n days later (earlier when n is negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// AddMonthsClamped steps n calendar months forward and places the result on
// targetDay, clamped to the length of the target month. Unlike time.AddDate,
// day 31 + one month lands on Feb 28/29 instead of rolling into March.
func (d Date) AddMonthsClamped(n, targetDay int) Date {
	year := d.Year()
	month := d.Month() + n
	year += (month - 1) / 12
	month = (month-1)%12 + 1
	if month < 1 {
		month += 12
		year--
	}
	day := clampDay(targetDay, year, month)
	return NewDate(year, month, day)
}

// AddYearsClamped steps n years forward keeping month/day, clamping Feb 29 to
// Feb 28 in non-leap years.
func (d Date) AddYearsClamped(n int) Date {
	year := d.Year() + n
	day := clampDay(d.Day(), year, d.Month())
	return NewDate(year, d.Month(), day)
}

func clampDay(day, year, month int) int {
	if day < 1 {
		day = 1
	}
	if max := daysInMonth(year, month); day > max {
		day = max
	}
	return day
}

func daysInMonth(year, month int) int {
	switch month {
	case 2:
		if isLeapYear(year) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
