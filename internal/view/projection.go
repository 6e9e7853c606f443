// Package view computes the filtered, paginated, summarized projection of
// the ledger state that the presentation layer renders. It is pure: it never
// mutates the store and never talks to persistence.
package view

import (
	"github.com/shopspring/decimal"

	"cashbook/internal/core"
	"cashbook/internal/ledger"
)

// EntriesPerPage is the fixed page size of the transactions table.
const EntriesPerPage = 50

type (
	// Summary is the income/expense/balance triplet over the current
	// page's visible rows. Page-scoped rather than filter-scoped: the
	// summary cards sit above a single page of rows, and that is the
	// contract.
	Summary struct {
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
		Balance decimal.Decimal `json:"balance"`
	}

	Projection struct {
		Rows []core.Transaction `json:"rows"`
		// Page is the clamped 1-based page actually rendered, which may
		// differ from the requested page.
		Page         int     `json:"page"`
		TotalEntries int     `json:"totalEntries"`
		TotalPages   int     `json:"totalPages"`
		// PageStart/PageEnd are the 1-based bounds of the visible rows
		// within the filtered set ("Showing X - Y of N"). Both are 0 when
		// the filtered set is empty.
		PageStart int     `json:"pageStart"`
		PageEnd   int     `json:"pageEnd"`
		Summary   Summary `json:"summary"`
	}
)

// Project filters, paginates, and summarizes the snapshot.
//
// A transaction passes the filter iff both active filters match (an empty
// filter matches everything). Row order is insertion order. The requested
// page is clamped to [1, totalPages] before slicing; an empty filtered set
// projects as page 1 of 1 with no rows.
func Project(snap ledger.Snapshot, page int) Projection {
	filtered := make([]core.Transaction, 0, len(snap.Transactions))
	for _, t := range snap.Transactions {
		if snap.FilterCategory != "" && t.Category != snap.FilterCategory {
			continue
		}
		if snap.FilterMonth != "" && t.Month != snap.FilterMonth {
			continue
		}
		filtered = append(filtered, t)
	}

	totalEntries := len(filtered)
	totalPages := (totalEntries + EntriesPerPage - 1) / EntriesPerPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * EntriesPerPage
	end := start + EntriesPerPage
	if end > totalEntries {
		end = totalEntries
	}
	if start > totalEntries {
		start = totalEntries
	}
	rows := filtered[start:end]

	p := Projection{
		Rows:         rows,
		Page:         page,
		TotalEntries: totalEntries,
		TotalPages:   totalPages,
		Summary:      summarize(rows),
	}
	if totalEntries > 0 {
		p.PageStart = start + 1
		p.PageEnd = end
	}
	return p
}

func summarize(rows []core.Transaction) Summary {
	income := decimal.Zero
	expense := decimal.Zero
	for _, t := range rows {
		if t.Type == core.Income {
			income = income.Add(t.Amount)
		} else {
			expense = expense.Add(t.Amount)
		}
	}
	return Summary{
		Income:  income,
		Expense: expense,
		Balance: income.Sub(expense),
	}
}
