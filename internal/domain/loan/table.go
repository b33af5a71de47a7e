package loan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// TableType selects which derived view of a mortgage slice to return.
type TableType string

const (
	// TypeFull is the stakeholder's actual ongoing payoff schedule.
	TypeFull TableType = "full"
	// TypeBaseline is the fair-share schedule absent all payments.
	TypeBaseline TableType = "baseline"
	// TypeSideloan is the delta between what the stakeholder carries and
	// their nominal share of the property loan.
	TypeSideloan TableType = "sideloan"
)

// ParseTableType maps the wire form ("full", "baseline", "sideloan") to a
// TableType, case-insensitively.
func ParseTableType(s string) (TableType, error) {
	switch TableType(strings.ToLower(s)) {
	case TypeFull:
		return TypeFull, nil
	case TypeBaseline:
		return TypeBaseline, nil
	case TypeSideloan:
		return TypeSideloan, nil
	}
	return "", fmt.Errorf("unknown table type %q", s)
}

// Row is one period of an amortization schedule.
type Row struct {
	Period       int
	TotalPayment float64
	Principal    float64
	Interest     float64
	Extra        float64
	Balance      float64
}

// Table is an immutable tabular view of a schedule, indexed 1..N.
type Table struct {
	Rows []Row
}

const tableHeader = "Payment # | Total Payment | Principal | Interest | Extra Payment | Remaining Balance"

func tableFromMap(rows map[int]*Row) Table {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return Table{Rows: out}
}

func cents(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func formatRow(r Row) string {
	return fmt.Sprintf("%9d | %13.2f | %9.2f | %8.2f | %13.2f | %17.2f",
		r.Period, r.TotalPayment, r.Principal, r.Interest, r.Extra, r.Balance)
}

func (t Table) String() string {
	lines := make([]string, 0, len(t.Rows)+1)
	lines = append(lines, tableHeader)
	for _, r := range t.Rows {
		lines = append(lines, formatRow(r))
	}
	return strings.Join(lines, "\n")
}

// Equal compares tables row-for-row on period, total payment, principal and
// interest, rounded to cents. Extra and balance are deliberately excluded:
// two schedules that cost the same per period compare equal regardless of
// how the balance path was reached, which is exactly what makes sideloan
// views meaningful.
func (t Table) Equal(other Table) bool {
	return len(t.Diff(other)) == 0 && len(t.Rows) == len(other.Rows)
}

// Diff reports per-row mismatches between t (expected) and other (actual)
// over their shared prefix, naming the row, the column and both values.
func (t Table) Diff(other Table) []string {
	n := len(t.Rows)
	if len(other.Rows) < n {
		n = len(other.Rows)
	}

	var mismatches []string
	for i := 0; i < n; i++ {
		want, got := t.Rows[i], other.Rows[i]

		var diffs []string
		if want.Period != got.Period {
			diffs = append(diffs, fmt.Sprintf("Payment #: Expected %d, got %d", want.Period, got.Period))
		}
		for _, col := range []struct {
			label     string
			want, got float64
		}{
			{"Total Payment", want.TotalPayment, got.TotalPayment},
			{"Principal", want.Principal, got.Principal},
			{"Interest", want.Interest, got.Interest},
		} {
			if !cents(col.want).Equal(cents(col.got)) {
				diffs = append(diffs, fmt.Sprintf("%s: Expected %s, got %s",
					col.label, cents(col.want).StringFixed(2), cents(col.got).StringFixed(2)))
			}
		}

		if len(diffs) > 0 {
			mismatches = append(mismatches, fmt.Sprintf("Row %d mismatch -> %s", i+1, strings.Join(diffs, "; ")))
		}
	}
	return mismatches
}

// Summary renders the table with runs of identical total payments longer
// than head+tail elided to the first head and last tail rows.
func (t Table) Summary(head, tail int) string {
	if len(t.Rows) == 0 {
		return ""
	}

	lines := []string{tableHeader}
	start := 0
	flush := func(start, end int) {
		if end-start+1 > head+tail {
			for _, r := range t.Rows[start : start+head] {
				lines = append(lines, formatRow(r))
			}
			lines = append(lines, "...")
			for _, r := range t.Rows[end-tail+1 : end+1] {
				lines = append(lines, formatRow(r))
			}
			return
		}
		for _, r := range t.Rows[start : end+1] {
			lines = append(lines, formatRow(r))
		}
	}
	for i := 1; i < len(t.Rows); i++ {
		if t.Rows[i].TotalPayment != t.Rows[start].TotalPayment {
			flush(start, i-1)
			start = i
		}
	}
	flush(start, len(t.Rows)-1)

	return strings.Join(lines, "\n")
}
