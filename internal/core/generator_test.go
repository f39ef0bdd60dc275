package core

import (
	"reflect"
	"testing"
)

func dueDatesOf(occurrences []Occurrence) []string {
	out := make([]string, len(occurrences))
	for i, occ := range occurrences {
		out[i] = occ.DueDate.String()
	}
	return out
}

func TestGenerateOccurrences_NoSchedule(t *testing.T) {
	bill := Bill{ID: 1, Description: "no schedule", TotalAmount: Money{Cents: 5000}}
	if got := GenerateOccurrences(bill); len(got) != 0 {
		t.Fatalf("expected empty list, got %d occurrences", len(got))
	}
}

func TestGenerateOccurrences_OneOff(t *testing.T) {
	bill := Bill{
		ID:          7,
		Description: "tax installment",
		TotalAmount: Money{Cents: 75000},
		Schedule:    OneOff{DueDate: mustDate(t, "2025-06-24")},
	}
	got := GenerateOccurrences(bill)
	if len(got) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(got))
	}
	occ := got[0]
	if occ.BillID != 7 || occ.Sequence != 1 {
		t.Fatalf("unexpected identity: %+v", occ)
	}
	if occ.DueDate.String() != "2025-06-24" {
		t.Fatalf("expected due 2025-06-24, got %s", occ.DueDate)
	}
	if occ.AmountDue.Cents != 75000 {
		t.Fatalf("expected full amount, got %d", occ.AmountDue.Cents)
	}
	// Jun 24 is Saint-Jean-Baptiste: submission walks back past the weekend-free Monday
	if occ.SuggestedSubmissionDate.String() != "2025-06-23" {
		t.Fatalf("expected submission 2025-06-23, got %s", occ.SuggestedSubmissionDate)
	}
}

func TestGenerateOccurrences_MonthlyWithInstallments(t *testing.T) {
	bill := Bill{
		ID:                3,
		Description:       "insurance premium",
		TotalAmount:       Money{Cents: 120000}, // 1200.00
		InstallmentsTotal: 3,
		Schedule: Recurring{Rule: RecurringRule{
			Frequency:     Monthly,
			Interval:      1,
			AnchorDay:     15,
			StartDate:     mustDate(t, "2025-01-15"),
			HorizonMonths: 6,
		}},
	}
	got := GenerateOccurrences(bill)
	want := []string{"2025-01-15", "2025-02-15", "2025-03-15"}
	if !reflect.DeepEqual(dueDatesOf(got), want) {
		t.Fatalf("expected due dates %v, got %v", want, dueDatesOf(got))
	}
	for i, occ := range got {
		if occ.Sequence != i+1 {
			t.Fatalf("occurrence %d: expected sequence %d, got %d", i, i+1, occ.Sequence)
		}
		if occ.AmountDue.Cents != 40000 {
			t.Fatalf("occurrence %d: expected 400.00, got %s", i, occ.AmountDue)
		}
	}
}

func TestGenerateOccurrences_MonthEndClamping(t *testing.T) {
	bill := Bill{
		ID:          4,
		Description: "rent",
		TotalAmount: Money{Cents: 95000},
		Schedule: Recurring{Rule: RecurringRule{
			Frequency:     Monthly,
			Interval:      1,
			AnchorDay:     31,
			StartDate:     mustDate(t, "2025-01-31"),
			HorizonMonths: 4,
		}},
	}
	got := GenerateOccurrences(bill)
	want := []string{"2025-01-31", "2025-02-28", "2025-03-31", "2025-04-30", "2025-05-31"}
	if !reflect.DeepEqual(dueDatesOf(got), want) {
		t.Fatalf("expected %v, got %v", want, dueDatesOf(got))
	}
	// Open-ended rule without installments: each occurrence is a full charge
	for _, occ := range got {
		if occ.AmountDue.Cents != 95000 {
			t.Fatalf("expected full charge per occurrence, got %s", occ.AmountDue)
		}
	}
}

func TestGenerateOccurrences_LeapDayYearly(t *testing.T) {
	bill := Bill{
		ID:          5,
		Description: "domain renewal",
		TotalAmount: Money{Cents: 2000},
		Schedule: Recurring{Rule: RecurringRule{
			Frequency: Yearly,
			Interval:  1,
			StartDate: mustDate(t, "2024-02-29"),
		}},
	}
	got := GenerateOccurrences(bill)
	want := []string{"2024-02-29", "2025-02-28"} // default 18-month horizon
	if !reflect.DeepEqual(dueDatesOf(got), want) {
		t.Fatalf("expected %v, got %v", want, dueDatesOf(got))
	}
}

func TestGenerateOccurrences_WeeklyInterval(t *testing.T) {
	bill := Bill{
		ID:          6,
		Description: "cleaning service",
		TotalAmount: Money{Cents: 8000},
		Schedule: Recurring{Rule: RecurringRule{
			Frequency:     Weekly,
			Interval:      2,
			StartDate:     mustDate(t, "2025-01-15"),
			EndDate:       mustDate(t, "2025-02-26"),
			HorizonMonths: 12,
		}},
	}
	got := GenerateOccurrences(bill)
	// End date bounds generation; the boundary candidate is included
	want := []string{"2025-01-15", "2025-01-29", "2025-02-12", "2025-02-26"}
	if !reflect.DeepEqual(dueDatesOf(got), want) {
		t.Fatalf("expected %v, got %v", want, dueDatesOf(got))
	}
}

func TestGenerateOccurrences_IntervalNormalized(t *testing.T) {
	// interval 0 behaves as "every period" instead of looping forever
	bill := Bill{
		ID:          8,
		Description: "subscription",
		TotalAmount: Money{Cents: 1500},
		Schedule: Recurring{Rule: RecurringRule{
			Frequency:     Monthly,
			Interval:      0,
			StartDate:     mustDate(t, "2025-03-10"),
			HorizonMonths: 2,
		}},
	}
	got := GenerateOccurrences(bill)
	want := []string{"2025-03-10", "2025-04-10", "2025-05-10"}
	if !reflect.DeepEqual(dueDatesOf(got), want) {
		t.Fatalf("expected %v, got %v", want, dueDatesOf(got))
	}
}

func TestGenerateOccurrences_SumInvariant(t *testing.T) {
	totals := []int64{100000, 99999, 123457, 1}
	for _, total := range totals {
		for n := 2; n <= 36; n++ {
			bill := Bill{
				ID:                9,
				Description:       "installment plan",
				TotalAmount:       Money{Cents: total},
				InstallmentsTotal: n,
				Schedule: Recurring{Rule: RecurringRule{
					Frequency: Weekly,
					Interval:  1,
					StartDate: mustDate(t, "2025-01-06"),
				}},
			}
			got := GenerateOccurrences(bill)
			if len(got) != n {
				t.Fatalf("n=%d: expected %d occurrences, got %d", n, n, len(got))
			}
			var sum int64
			for _, occ := range got {
				sum += occ.AmountDue.Cents
			}
			if sum != total {
				t.Fatalf("n=%d total=%d: amounts sum to %d", n, total, sum)
			}
		}
	}
}

func TestGenerateOccurrences_Determinism(t *testing.T) {
	bill := Bill{
		ID:                10,
		Description:       "hydro",
		TotalAmount:       Money{Cents: 64321},
		InstallmentsTotal: 5,
		Schedule: Recurring{Rule: RecurringRule{
			Frequency: Monthly,
			Interval:  1,
			AnchorDay: 28,
			StartDate: mustDate(t, "2025-02-28"),
		}},
	}
	first := GenerateOccurrences(bill)
	second := GenerateOccurrences(bill)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("generation is not deterministic:\n%v\n%v", first, second)
	}
}

func TestGenerateOccurrences_OrderingAndBusinessDayContainment(t *testing.T) {
	bill := Bill{
		ID:          11,
		Description: "loan payment",
		TotalAmount: Money{Cents: 75000},
		Schedule: Recurring{Rule: RecurringRule{
			Frequency: Monthly,
			Interval:  1,
			AnchorDay: 1, // frequently lands on holidays and weekends
			StartDate: mustDate(t, "2025-01-01"),
		}},
	}
	got := GenerateOccurrences(bill)
	if len(got) == 0 {
		t.Fatal("expected occurrences")
	}
	for i, occ := range got {
		if occ.Sequence != i+1 {
			t.Fatalf("sequence gap at %d: got %d", i, occ.Sequence)
		}
		if i > 0 && !got[i-1].DueDate.Before(occ.DueDate) {
			t.Fatalf("due dates not strictly ascending at %d", i)
		}
		if !IsBusinessDay(occ.SuggestedSubmissionDate) {
			t.Fatalf("submission date %s is not a business day", occ.SuggestedSubmissionDate)
		}
		if occ.SuggestedSubmissionDate.After(occ.DueDate) {
			t.Fatalf("submission %s after due %s", occ.SuggestedSubmissionDate, occ.DueDate)
		}
	}
	// Jul 1 2025 is Canada Day: submission moves to Jun 30
	for _, occ := range got {
		if occ.DueDate.String() == "2025-07-01" && occ.SuggestedSubmissionDate.String() != "2025-06-30" {
			t.Fatalf("expected 2025-06-30 submission for Canada Day due date, got %s", occ.SuggestedSubmissionDate)
		}
	}
}

func TestGenerateOccurrences_OneOffWithInstallments(t *testing.T) {
	// Installments on a single occurrence still carry the full amount:
	// a one-element split is base plus the whole remainder.
	bill := Bill{
		ID:                12,
		Description:       "single with plan",
		TotalAmount:       Money{Cents: 99999},
		InstallmentsTotal: 4,
		Schedule:          OneOff{DueDate: mustDate(t, "2025-03-12")},
	}
	got := GenerateOccurrences(bill)
	if len(got) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(got))
	}
	if got[0].AmountDue.Cents != 99999 {
		t.Fatalf("expected full amount, got %d", got[0].AmountDue.Cents)
	}
}
