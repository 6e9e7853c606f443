package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  EntryType = "income"
	Expense EntryType = "expense"
)

type (
	// EntryType is the direction of a transaction: money in or money out.
	EntryType string

	// Transaction is a single cashbook entry. Identity inside a year is
	// positional (index in the year's list); ID is a surrogate key assigned
	// at creation so hosts can track rows across index shifts.
	Transaction struct {
		ID          string          `json:"id,omitempty"`
		Date        string          `json:"date"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Type        EntryType       `json:"type"`
		Category    string          `json:"category"`
		Month       string          `json:"month"`
		Edited      bool            `json:"edited,omitempty"`
	}
)

var (
	ErrInvalidYear       = errors.New("invalid year: must be a 4-digit number")
	ErrDuplicateYear     = errors.New("year already exists")
	ErrUnknownYear       = errors.New("year does not exist")
	ErrEmptyCategory     = errors.New("category name cannot be empty")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrEmptyDescription  = errors.New("empty description")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrUnknownType       = errors.New("unknown entry type")
	ErrUnknownMonth      = errors.New("unknown month name")
	ErrUnresolvedMonth   = errors.New("month could not be resolved")
	ErrIndexOutOfRange   = errors.New("index out of range")
)

// Months are the canonical month names used for tagging and filtering.
var Months = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// IsMonth reports whether name is one of the canonical month names.
func IsMonth(name string) bool {
	for _, m := range Months {
		if m == name {
			return true
		}
	}
	return false
}

// MonthFromDate derives the canonical month name from a YYYY-MM-DD date
// string. Returns "" if the date does not parse.
func MonthFromDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ""
	}
	return Months[int(t.Month())-1]
}

// ResolveMonth picks the month for a new entry: the explicit selection wins,
// then the session's current month, then the calendar month of the entry
// date. An explicit value must be a canonical month name.
func ResolveMonth(explicit, current, date string) (string, error) {
	if explicit != "" {
		if !IsMonth(explicit) {
			return "", ErrUnknownMonth
		}
		return explicit, nil
	}
	if current != "" {
		return current, nil
	}
	if m := MonthFromDate(date); m != "" {
		return m, nil
	}
	return "", ErrUnresolvedMonth
}

// ValidYear reports whether y is a 4-digit calendar year.
func ValidYear(y int) bool {
	return y >= 1000 && y <= 9999
}

func (t EntryType) Valid() bool {
	return t == Income || t == Expense
}

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !t.Type.Valid() {
		return ErrUnknownType
	}
	if t.Month != "" && !IsMonth(t.Month) {
		return ErrUnknownMonth
	}
	return nil
}
