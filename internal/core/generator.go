package core

// GenerateOccurrences expands a bill's payment terms into its ordered
// occurrence list. The function is pure and deterministic: identical input
// always yields an identical list, no state is held between calls.
//
// Callers are expected to persist the returned list verbatim, replacing any
// previously stored occurrences for the bill.
func GenerateOccurrences(bill Bill) []Occurrence {
	var dueDates []Date

	switch s := bill.Schedule.(type) {
	case OneOff:
		if s.DueDate.IsEmpty() {
			return nil
		}
		dueDates = []Date{s.DueDate}
	case Recurring:
		dueDates = expandRule(s.Rule)
	default:
		// No schedule: zero occurrences, not an error.
		return nil
	}

	if len(dueDates) == 0 {
		return nil
	}

	// Finite installment plans cap the schedule even when the rule itself is
	// open-ended.
	if bill.InstallmentsTotal >= 1 && len(dueDates) > bill.InstallmentsTotal {
		dueDates = dueDates[:bill.InstallmentsTotal]
	}

	amounts := splitAmounts(bill.TotalAmount, bill.InstallmentsTotal, len(dueDates))

	occurrences := make([]Occurrence, len(dueDates))
	for i, due := range dueDates {
		occurrences[i] = Occurrence{
			BillID:                  bill.ID,
			Sequence:                i + 1,
			AmountDue:               amounts[i],
			DueDate:                 due,
			SuggestedSubmissionDate: PreviousBusinessDay(due),
		}
	}
	return occurrences
}

// expandRule walks forward from the rule's start date, one candidate per
// step, until the candidate passes the horizon. The horizon boundary is
// inclusive.
func expandRule(rule RecurringRule) []Date {
	if rule.StartDate.IsEmpty() {
		return nil
	}

	horizon := rule.StartDate.AddMonthsClamped(rule.Horizon(), rule.StartDate.Day())
	if !rule.EndDate.IsEmpty() && rule.EndDate.Before(horizon) {
		horizon = rule.EndDate
	}

	interval := rule.EffectiveInterval()
	anchorDay := rule.EffectiveAnchorDay()

	var dates []Date
	for step := 0; ; step++ {
		var candidate Date
		switch rule.Frequency {
		case Monthly:
			candidate = rule.StartDate.AddMonthsClamped(step*interval, anchorDay)
		case Weekly:
			candidate = rule.StartDate.AddDays(step * interval * 7)
		case Yearly:
			candidate = rule.StartDate.AddYearsClamped(step * interval)
		default:
			return nil
		}
		if candidate.After(horizon) {
			return dates
		}
		dates = append(dates, candidate)
	}
}

// splitAmounts computes the amount carried by each of count occurrences.
// With an installment plan of 2 or more the total is divided into near-equal
// cent shares, the first absorbing the remainder so the shares sum exactly to
// the total. Otherwise every occurrence is an independent full charge.
func splitAmounts(total Money, installments, count int) []Money {
	if installments >= 2 {
		return total.Split(count)
	}
	amounts := make([]Money, count)
	for i := range amounts {
		amounts[i] = total
	}
	return amounts
}
