package core

import (
	"errors"
	"testing"
)

func TestParseFrequency(t *testing.T) {
	cases := []struct {
		in   string
		want Frequency
		ok   bool
	}{
		{"monthly", Monthly, true},
		{"Weekly", Weekly, true},
		{" YEARLY ", Yearly, true},
		{"daily", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseFrequency(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q: expected %q, got %q (err=%v)", tc.in, tc.want, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

func TestRecurringRuleDefaults(t *testing.T) {
	rule := RecurringRule{Frequency: Monthly, StartDate: mustDate(t, "2025-01-15")}

	if got := rule.Horizon(); got != DefaultHorizonMonths {
		t.Fatalf("expected default horizon %d, got %d", DefaultHorizonMonths, got)
	}
	if got := rule.EffectiveInterval(); got != 1 {
		t.Fatalf("expected interval normalized to 1, got %d", got)
	}
	if got := rule.EffectiveAnchorDay(); got != 15 {
		t.Fatalf("expected anchor from start date, got %d", got)
	}

	rule.Interval = -3
	if got := rule.EffectiveInterval(); got != 1 {
		t.Fatalf("negative interval should normalize to 1, got %d", got)
	}
	rule.AnchorDay = 31
	if got := rule.EffectiveAnchorDay(); got != 31 {
		t.Fatalf("expected explicit anchor day, got %d", got)
	}
}

func TestRecurringRuleValidate(t *testing.T) {
	start := mustDate(t, "2025-01-15")
	cases := []struct {
		name    string
		rule    RecurringRule
		wantErr error
	}{
		{"valid", RecurringRule{Frequency: Monthly, Interval: 1, StartDate: start}, nil},
		{"bad frequency", RecurringRule{Frequency: "daily", Interval: 1, StartDate: start}, ErrInvalidFrequency},
		{"zero interval", RecurringRule{Frequency: Weekly, Interval: 0, StartDate: start}, ErrInvalidInterval},
		{"bad anchor", RecurringRule{Frequency: Monthly, Interval: 1, AnchorDay: 32, StartDate: start}, ErrInvalidAnchorDay},
		{"missing start", RecurringRule{Frequency: Monthly, Interval: 1}, nil},
	}
	for _, tc := range cases {
		err := tc.rule.Validate()
		if tc.name == "missing start" {
			if err == nil {
				t.Fatal("missing start date should fail validation")
			}
			continue
		}
		if tc.wantErr == nil {
			if err != nil {
				t.Fatalf("%s: unexpected error %v", tc.name, err)
			}
		} else if !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestBillValidate(t *testing.T) {
	cases := []struct {
		name    string
		bill    Bill
		wantErr bool
	}{
		{
			"valid one-off",
			Bill{Description: "electricity", TotalAmount: Money{Cents: 4500}, Schedule: OneOff{DueDate: NewDate(2025, 3, 1)}},
			false,
		},
		{
			"valid without schedule",
			Bill{Description: "draft", TotalAmount: Money{Cents: 100}},
			false,
		},
		{
			"empty description",
			Bill{Description: "  ", TotalAmount: Money{Cents: 100}},
			true,
		},
		{
			"negative amount",
			Bill{Description: "x", TotalAmount: Money{Cents: -1}},
			true,
		},
		{
			"negative installments",
			Bill{Description: "x", TotalAmount: Money{Cents: 100}, InstallmentsTotal: -1},
			true,
		},
		{
			"invalid rule",
			Bill{Description: "x", TotalAmount: Money{Cents: 100}, Schedule: Recurring{Rule: RecurringRule{Frequency: "never"}}},
			true,
		},
	}
	for _, tc := range cases {
		err := tc.bill.Validate()
		if tc.wantErr && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
	}
}
