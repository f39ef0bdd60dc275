package core

import "time"

// Business-day calendar for the Québec banking jurisdiction.
//
// A business day is a weekday that is not a bank holiday. Holidays with a
// fixed nominal date are observed on the nearest weekday when they fall on a
// weekend (Sunday shifts forward to Monday, Saturday shifts back to Friday).
// The floating-Monday holidays are weekday-safe by construction and are never
// shifted.

// IsWeekend returns true for Saturday and Sunday.
func IsWeekend(d Date) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsBankHoliday returns true if the date matches one of the jurisdiction's
// observed bank holidays. Pure function of the date's year.
func IsBankHoliday(d Date) bool {
	return HolidayName(d) != ""
}

// IsBusinessDay returns true for weekdays that are not bank holidays.
func IsBusinessDay(d Date) bool {
	return !IsWeekend(d) && !IsBankHoliday(d)
}

// PreviousBusinessDay returns the closest business day on or before d.
// A date that is already a business day is returned unchanged.
func PreviousBusinessDay(d Date) Date {
	for !IsBusinessDay(d) {
		d = d.AddDays(-1)
	}
	return d
}

// NextBusinessDay returns the closest business day on or after d.
func NextBusinessDay(d Date) Date {
	for !IsBusinessDay(d) {
		d = d.AddDays(1)
	}
	return d
}

// HolidayName returns the name of the bank holiday observed on d, or the
// empty string when d is not a holiday. The following year is scanned too:
// a Jan 1 falling on Saturday is observed on Dec 31 of the prior year.
func HolidayName(d Date) string {
	for _, year := range [2]int{d.Year(), d.Year() + 1} {
		for _, h := range holidaysForYear(year) {
			if h.date.Equal(d) {
				return h.name
			}
		}
	}
	return ""
}

type holiday struct {
	name string
	date Date
}

func holidaysForYear(year int) []holiday {
	easter := easterSunday(year)
	return []holiday{
		{"New Year's Day", observed(NewDate(year, 1, 1))},
		{"Good Friday", easter.AddDays(-2)},
		{"National Patriots' Day", mondayBefore(NewDate(year, 5, 25))},
		{"Saint-Jean-Baptiste Day", observed(NewDate(year, 6, 24))},
		{"Canada Day", observed(NewDate(year, 7, 1))},
		{"Labour Day", nthMonday(year, 9, 1)},
		{"Thanksgiving", nthMonday(year, 10, 2)},
		{"Christmas Day", observed(NewDate(year, 12, 25))},
	}
}

// observed shifts a nominal holiday date off the weekend: Sunday moves
// forward to Monday, Saturday moves back to Friday.
func observed(d Date) Date {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDays(-1)
	case time.Sunday:
		return d.AddDays(1)
	default:
		return d
	}
}

// mondayBefore returns the Monday strictly before d.
func mondayBefore(d Date) Date {
	d = d.AddDays(-1)
	for d.Weekday() != time.Monday {
		d = d.AddDays(-1)
	}
	return d
}

// nthMonday returns the nth Monday of the given month.
func nthMonday(year, month, n int) Date {
	d := NewDate(year, month, 1)
	for d.Weekday() != time.Monday {
		d = d.AddDays(1)
	}
	return d.AddDays(7 * (n - 1))
}

// easterSunday returns the date of Easter Sunday for a given year
// (Meeus/Jones/Butcher algorithm).
func easterSunday(year int) Date {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1
	return NewDate(year, month, day)
}
