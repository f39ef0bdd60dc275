package core

import (
	"errors"
	"strings"
)

const (
	Monthly Frequency = "monthly"
	Weekly  Frequency = "weekly"
	Yearly  Frequency = "yearly"
)

// DefaultHorizonMonths caps how far into the future a recurring schedule is
// expanded when the rule has no explicit horizon.
const DefaultHorizonMonths = 18

type (
	// Frequency is the closed set of recurrence frequencies.
	Frequency string

	// RecurringRule describes how a bill repeats: every Interval periods of
	// Frequency, starting at StartDate, optionally bounded by EndDate and a
	// month horizon. AnchorDay places monthly occurrences on a fixed day of
	// the month (0 means "use StartDate's day").
	RecurringRule struct {
		Frequency     Frequency
		Interval      int
		AnchorDay     int
		StartDate     Date
		EndDate       Date // optional, zero when open-ended
		HorizonMonths int  // optional, 0 means DefaultHorizonMonths
	}

	// Schedule is the shape of a bill's payment terms: either a single due
	// date or a recurring rule. Exactly one variant applies per bill; a bill
	// without a schedule produces no occurrences.
	Schedule interface {
		isSchedule()
	}

	// OneOff is a schedule with a single due date.
	OneOff struct {
		DueDate Date
	}

	// Recurring is a schedule driven by a recurring rule.
	Recurring struct {
		Rule RecurringRule
	}

	// Bill is one payment obligation as supplied by the storage layer.
	// InstallmentsTotal, when 2 or more, caps the number of occurrences and
	// splits TotalAmount across them.
	Bill struct {
		ID                int64
		Description       string
		TotalAmount       Money
		Schedule          Schedule // nil means no schedule
		InstallmentsTotal int      // 0 means no installment plan
	}

	// Occurrence is one concrete dated payment obligation derived from a
	// bill. SuggestedSubmissionDate is always a business day on or before
	// DueDate.
	Occurrence struct {
		BillID                  int64
		Sequence                int
		AmountDue               Money
		DueDate                 Date
		SuggestedSubmissionDate Date
	}
)

func (OneOff) isSchedule()    {}
func (Recurring) isSchedule() {}

var (
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidInterval  = errors.New("invalid interval")
	ErrInvalidAnchorDay = errors.New("invalid anchor day")
	ErrEmptyDescription = errors.New("empty description")
)

// ParseFrequency converts a wire string into a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case Monthly:
		return Monthly, nil
	case Weekly:
		return Weekly, nil
	case Yearly:
		return Yearly, nil
	default:
		return "", ErrInvalidFrequency
	}
}

// Horizon returns the effective horizon in months, applying the default.
func (r RecurringRule) Horizon() int {
	if r.HorizonMonths <= 0 {
		return DefaultHorizonMonths
	}
	return r.HorizonMonths
}

// EffectiveInterval normalizes the interval: values below 1 are treated as
// "every period" rather than rejected, mirroring the generator's defensive
// floor.
func (r RecurringRule) EffectiveInterval() int {
	if r.Interval < 1 {
		return 1
	}
	return r.Interval
}

// EffectiveAnchorDay returns the day-of-month monthly occurrences land on:
// AnchorDay when set, otherwise StartDate's day. The value may still exceed
// a target month's length; the generator clamps per month.
func (r RecurringRule) EffectiveAnchorDay() int {
	if r.AnchorDay >= 1 {
		return r.AnchorDay
	}
	return r.StartDate.Day()
}

// Validate reports rule problems the HTTP layer surfaces at creation time.
// The generator itself never rejects a rule; it normalizes instead.
func (r RecurringRule) Validate() error {
	switch r.Frequency {
	case Monthly, Weekly, Yearly:
	default:
		return ErrInvalidFrequency
	}
	if err := r.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	if !r.EndDate.IsEmpty() && r.EndDate.Before(r.StartDate) {
		return errors.New("end date must not precede start date")
	}
	if r.Interval < 1 {
		return ErrInvalidInterval
	}
	if r.AnchorDay != 0 && (r.AnchorDay < 1 || r.AnchorDay > 31) {
		return ErrInvalidAnchorDay
	}
	return nil
}

func (b Bill) Validate() error {
	if len(strings.TrimSpace(b.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(b.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := b.TotalAmount.Validate(); err != nil {
		return err
	}
	if b.InstallmentsTotal < 0 {
		return errors.New("installments total must not be negative")
	}
	switch s := b.Schedule.(type) {
	case nil:
		return nil
	case OneOff:
		return s.DueDate.Validate()
	case Recurring:
		return s.Rule.Validate()
	default:
		return errors.New("unknown schedule type")
	}
}
