package core

// MonthAmount is an amount aggregated for one calendar month.
type MonthAmount struct {
	Year   int
	Month  int // 1-12
	Amount Money
}

// UpcomingOverview is a compact summary of the occurrences due in a window.
type UpcomingOverview struct {
	From    Date
	To      Date
	Count   int
	Total   Money
	ByMonth []MonthAmount
}

// SummarizeUpcoming aggregates occurrences falling inside [from, to],
// inclusive on both ends. Input order is preserved in the per-month
// breakdown (occurrences arrive sorted by due date).
func SummarizeUpcoming(occurrences []Occurrence, from, to Date) UpcomingOverview {
	overview := UpcomingOverview{From: from, To: to}
	for _, occ := range occurrences {
		if occ.DueDate.Before(from) || occ.DueDate.After(to) {
			continue
		}
		overview.Count++
		overview.Total = overview.Total.Add(occ.AmountDue)

		y, m := occ.DueDate.Year(), occ.DueDate.Month()
		if n := len(overview.ByMonth); n > 0 && overview.ByMonth[n-1].Year == y && overview.ByMonth[n-1].Month == m {
			overview.ByMonth[n-1].Amount = overview.ByMonth[n-1].Amount.Add(occ.AmountDue)
		} else {
			overview.ByMonth = append(overview.ByMonth, MonthAmount{Year: y, Month: m, Amount: occ.AmountDue})
		}
	}
	return overview
}
