package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"12.34", "12.34", true},
		{"12,34", "12.34", true},
		{"0", "0", true},
		{" 7 ", "7", true},
		{"12.5", "12.5", true},
		{"", "", false},
		{"-1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
	}
	for i, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("case %d expected error", i)
			}
			continue
		}
		if got.String() != tc.want {
			t.Fatalf("case %d: got %s want %s", i, got, tc.want)
		}
	}
}

func TestResolveMonth(t *testing.T) {
	cases := []struct {
		explicit, current, date string
		want                    string
		ok                      bool
	}{
		{"March", "", "", "March", true},
		{"March", "April", "2024-05-01", "March", true},
		{"", "April", "2024-05-01", "April", true},
		{"", "", "2024-05-01", "May", true},
		{"", "", "not-a-date", "", false},
		{"", "", "", "", false},
		{"Marzo", "", "", "", false},
	}
	for i, tc := range cases {
		got, err := ResolveMonth(tc.explicit, tc.current, tc.date)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("case %d: got (%q, %v), want %q", i, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMonthFromDate(t *testing.T) {
	if m := MonthFromDate("2024-12-31"); m != "December" {
		t.Fatalf("got %q", m)
	}
	if m := MonthFromDate("31/12/2024"); m != "" {
		t.Fatalf("expected empty month, got %q", m)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:        "2024-03-01",
		Description: "lunch",
		Amount:      decimal.RequireFromString("12.5"),
		Type:        Expense,
		Category:    "Food",
		Month:       "March",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Description: "", Amount: decimal.NewFromInt(1), Type: Income},
		{Description: "a", Amount: decimal.NewFromInt(-1), Type: Income},
		{Description: "a", Amount: decimal.NewFromInt(1), Type: "transfer"},
		{Description: "a", Amount: decimal.NewFromInt(1), Type: Income, Month: "Marzo"},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
	// Blank category and month are legal: a category deletion blanks rows.
	blank := good
	blank.Category = ""
	blank.Month = ""
	if err := blank.Validate(); err != nil {
		t.Fatalf("blank category/month should validate, got %v", err)
	}
}

func TestDefaultMeta(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	m := DefaultMeta(now)
	if len(m.Years) != 1 || m.Years[0] != 2024 {
		t.Fatalf("years = %v", m.Years)
	}
	if m.CurrentYear != 2024 {
		t.Fatalf("currentYear = %d", m.CurrentYear)
	}
	want := []string{"Food", "Transport", "Salary"}
	if len(m.Categories) != len(want) {
		t.Fatalf("categories = %v", m.Categories)
	}
	for i, c := range want {
		if m.Categories[i] != c {
			t.Fatalf("categories = %v", m.Categories)
		}
	}
	if m.FilterMonth != "" || m.FilterCategory != "" || m.CurrentMonth != "" {
		t.Fatalf("filters should start empty: %+v", m)
	}
}

func TestValidYear(t *testing.T) {
	for _, y := range []int{1000, 2024, 9999} {
		if !ValidYear(y) {
			t.Fatalf("%d should be valid", y)
		}
	}
	for _, y := range []int{0, 999, 10000, -2024} {
		if ValidYear(y) {
			t.Fatalf("%d should be invalid", y)
		}
	}
}
