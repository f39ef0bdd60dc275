package core

import "testing"

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func TestEasterSunday(t *testing.T) {
	cases := []struct {
		year int
		want string
	}{
		{2024, "2024-03-31"},
		{2025, "2025-04-20"},
		{2026, "2026-04-05"},
		{2027, "2027-03-28"},
	}
	for _, tc := range cases {
		if got := easterSunday(tc.year); got.String() != tc.want {
			t.Fatalf("easter %d: expected %s, got %s", tc.year, tc.want, got)
		}
	}
}

func TestHolidayName(t *testing.T) {
	cases := []struct {
		date string
		want string
	}{
		{"2025-01-01", "New Year's Day"},
		{"2025-04-18", "Good Friday"},
		{"2025-05-19", "National Patriots' Day"}, // Monday strictly before May 25
		{"2025-06-24", "Saint-Jean-Baptiste Day"},
		{"2025-07-01", "Canada Day"},
		{"2025-09-01", "Labour Day"},      // 1st Monday of September
		{"2025-10-13", "Thanksgiving"},    // 2nd Monday of October
		{"2025-12-25", "Christmas Day"},
		{"2023-06-30", "Canada Day"},      // Jul 1 2023 is a Saturday, observed Friday
		{"2023-06-23", "Saint-Jean-Baptiste Day"}, // Jun 24 2023 is a Saturday
		{"2022-12-26", "Christmas Day"},   // Dec 25 2022 is a Sunday, observed Monday
		{"2021-12-31", "New Year's Day"},  // Jan 1 2022 is a Saturday, observed prior Friday
		{"2025-06-25", ""},
		{"2025-07-02", ""},
		{"2023-07-01", ""}, // nominal date vacated by the observed shift
	}
	for _, tc := range cases {
		if got := HolidayName(mustDate(t, tc.date)); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.date, tc.want, got)
		}
	}
}

func TestIsBankHoliday(t *testing.T) {
	if !IsBankHoliday(mustDate(t, "2025-04-18")) {
		t.Fatal("2025-04-18 (Good Friday) should be a bank holiday")
	}
	if !IsBankHoliday(mustDate(t, "2025-06-24")) {
		t.Fatal("2025-06-24 should be a bank holiday")
	}
	if IsBankHoliday(mustDate(t, "2025-06-23")) {
		t.Fatal("2025-06-23 should not be a bank holiday")
	}
}

func TestIsBusinessDay(t *testing.T) {
	cases := []struct {
		date string
		want bool
	}{
		{"2025-09-05", true},  // Friday
		{"2025-09-06", false}, // Saturday
		{"2025-09-07", false}, // Sunday
		{"2025-09-01", false}, // Labour Day
		{"2025-09-02", true},
		{"2023-06-30", false}, // observed Canada Day
	}
	for _, tc := range cases {
		if got := IsBusinessDay(mustDate(t, tc.date)); got != tc.want {
			t.Fatalf("IsBusinessDay(%s): expected %v, got %v", tc.date, tc.want, got)
		}
	}
}

func TestPreviousBusinessDay(t *testing.T) {
	cases := []struct {
		date string
		want string
	}{
		{"2025-09-05", "2025-09-05"}, // already a business day
		{"2025-09-06", "2025-09-05"}, // Saturday walks back to Friday
		{"2025-09-07", "2025-09-05"},
		{"2025-07-01", "2025-06-30"}, // holiday walks back one day
		{"2021-12-26", "2021-12-23"}, // Sunday, Saturday, then observed Christmas Friday
	}
	for _, tc := range cases {
		if got := PreviousBusinessDay(mustDate(t, tc.date)); got.String() != tc.want {
			t.Fatalf("PreviousBusinessDay(%s): expected %s, got %s", tc.date, tc.want, got)
		}
	}
}

func TestNextBusinessDay(t *testing.T) {
	cases := []struct {
		date string
		want string
	}{
		{"2025-09-05", "2025-09-05"},
		{"2025-09-06", "2025-09-08"},
		{"2025-04-18", "2025-04-21"}, // Good Friday, weekend, then Monday
	}
	for _, tc := range cases {
		if got := NextBusinessDay(mustDate(t, tc.date)); got.String() != tc.want {
			t.Fatalf("NextBusinessDay(%s): expected %s, got %s", tc.date, tc.want, got)
		}
	}
}
