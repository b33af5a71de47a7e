package loan

import (
	"errors"
	"fmt"
	"math"

	"comortgage/internal/domain/ledger"
)

var ErrPeriodOutOfRange = errors.New("requested period is out of range")

// Info holds the fixed terms shared by every loan cut from the same mortgage.
type Info struct {
	AnnualRate   float64 // decimal fraction per year, e.g. 0.06
	TotalPeriods int     // months the schedule is defined over
}

// PaymentDetails is the per-period view callers reconcile actual payments
// against.
type PaymentDetails struct {
	TotalPayment     float64
	Principal        float64
	Interest         float64
	RemainingBalance float64
}

// Loan is a fixed-rate level-payment amortizing loan with arbitrary signed
// extra payments per period. Every extra payment re-amortizes the remainder
// at a newly computed level payment, so a negative extra re-inflates the
// schedule. TotalValue may itself be negative: that is how an under-payment
// is represented as a synthetic sub-loan.
type Loan struct {
	info          Info
	totalValue    float64
	startPeriod   int
	extraPayments map[int]float64

	downPayment    float64
	principal      float64
	monthlyRate    float64
	paymentPeriods int

	schedule Table
}

// New builds a loan with regular payments starting at period 1 and no extra
// payments.
func New(info Info, totalValue float64) *Loan {
	return NewWithExtras(info, totalValue, 1, nil)
}

// NewWithExtras builds a loan whose first regular payment falls in
// startPeriod. An extras entry at period 0 is treated as a down payment and
// reduces the amortized principal.
func NewWithExtras(info Info, totalValue float64, startPeriod int, extras map[int]float64) *Loan {
	l := &Loan{
		info:           info,
		totalValue:     totalValue,
		startPeriod:    startPeriod,
		extraPayments:  make(map[int]float64, len(extras)),
		monthlyRate:    info.AnnualRate / 12,
		paymentPeriods: info.TotalPeriods - startPeriod + 1,
	}
	for period, amount := range extras {
		l.extraPayments[period] = amount
	}
	l.periodZeroSetup()
	l.schedule = l.generateSchedule()
	return l
}

// periodZeroSetup splits the total value into down payment and amortized
// principal. Re-run whenever a period-0 extra lands after construction.
func (l *Loan) periodZeroSetup() {
	l.downPayment = l.extraPayments[0]
	l.principal = l.totalValue - l.downPayment
}

func (l *Loan) Info() Info          { return l.info }
func (l *Loan) TotalValue() float64 { return l.totalValue }
func (l *Loan) Principal() float64  { return l.principal }
func (l *Loan) StartPeriod() int    { return l.startPeriod }
func (l *Loan) Schedule() Table     { return l.schedule }

func (l *Loan) String() string {
	balance := 0.0
	if n := len(l.schedule.Rows); n > 0 {
		balance = l.schedule.Rows[n-1].Balance
	}
	return fmt.Sprintf("Loan(principal=%.2f, annual_rate=%.4f, total_periods=%d, start_period=%d, remaining_balance=%.2f)",
		l.principal, l.info.AnnualRate, l.info.TotalPeriods, l.startPeriod, balance)
}

// calculatePayment computes the level payment that amortizes principal over
// the given number of periods at the loan's monthly rate.
func (l *Loan) calculatePayment(principal float64, periods int) float64 {
	if periods <= 0 {
		return 0
	}
	if l.monthlyRate == 0 {
		return principal / float64(periods)
	}
	return (l.monthlyRate * principal) / (1 - math.Pow(1+l.monthlyRate, -float64(periods)))
}

func (l *Loan) generateSchedule() Table {
	balance := l.principal
	rows := make([]Row, 0, l.info.TotalPeriods)

	payment := l.calculatePayment(l.principal, l.paymentPeriods)

	for i := 1; i < l.startPeriod; i++ {
		rows = append(rows, Row{Period: i})
	}

	for i := l.startPeriod; i <= l.info.TotalPeriods; i++ {
		interest := balance * l.monthlyRate
		principal := payment - interest
		extra := l.extraPayments[i]
		balance -= principal + extra
		rows = append(rows, Row{
			Period:       i,
			TotalPayment: payment,
			Principal:    principal,
			Interest:     interest,
			Extra:        extra,
			Balance:      balance,
		})

		// A signed extra changes the balance path, so the remaining
		// periods re-amortize at a fresh level payment from i+1 on.
		if extra != 0 {
			if remaining := l.info.TotalPeriods - i; remaining > 0 {
				payment = l.calculatePayment(balance, remaining)
			}
		}
	}

	return Table{Rows: rows}
}

// AddExtraPayment records a signed extra payment and regenerates the
// schedule. Amounts accumulate when a period already holds one.
func (l *Loan) AddExtraPayment(p ledger.Payment) {
	l.extraPayments[p.Period] += p.Amount
	l.periodZeroSetup() // a down payment recorded from the ledger must take effect
	l.schedule = l.generateSchedule()
}

// PaymentForPeriod returns the expected payment details for a period.
// Period 0 is a sentinel: all down payments land there, so it reports zeros
// with the full value still outstanding.
func (l *Loan) PaymentForPeriod(period int) (PaymentDetails, error) {
	if period == 0 {
		return PaymentDetails{RemainingBalance: l.totalValue}, nil
	}
	if period < 0 || period > len(l.schedule.Rows) {
		return PaymentDetails{}, fmt.Errorf("%w: period %d", ErrPeriodOutOfRange, period)
	}
	for _, row := range l.schedule.Rows {
		if row.Period == period {
			return PaymentDetails{
				TotalPayment:     row.TotalPayment,
				Principal:        row.Principal,
				Interest:         row.Interest,
				RemainingBalance: row.Balance,
			}, nil
		}
	}
	return PaymentDetails{}, fmt.Errorf("%w: no payment found for period %d", ErrPeriodOutOfRange, period)
}

// Clone returns an independent copy: mutating either loan's extra payments
// leaves the other untouched.
func (l *Loan) Clone() *Loan {
	return NewWithExtras(l.info, l.totalValue, l.startPeriod, l.extraPayments)
}

// Combine sums loan schedules row-wise over the union of periods.
// Commutative, so the argument order never matters.
func Combine(loans ...*Loan) Table {
	tables := make([]Table, len(loans))
	for i, l := range loans {
		tables[i] = l.schedule
	}
	return CombineTables(tables...)
}

// CombineTables is Combine over already-derived tables.
func CombineTables(tables ...Table) Table {
	combined := make(map[int]*Row)

	for _, t := range tables {
		for _, row := range t.Rows {
			agg, ok := combined[row.Period]
			if !ok {
				agg = &Row{Period: row.Period}
				combined[row.Period] = agg
			}
			agg.TotalPayment += row.TotalPayment
			agg.Principal += row.Principal
			agg.Interest += row.Interest
			agg.Extra += row.Extra
			agg.Balance += row.Balance
		}
	}

	return tableFromMap(combined)
}

// Subtract diffs two schedules row-wise over the intersection of their
// periods; the shorter operand truncates. Not commutative.
func Subtract(a, b *Loan) Table {
	n := len(a.schedule.Rows)
	if len(b.schedule.Rows) < n {
		n = len(b.schedule.Rows)
	}

	combined := make(map[int]*Row, n)
	for i := 0; i < n; i++ {
		ra, rb := a.schedule.Rows[i], b.schedule.Rows[i]
		combined[ra.Period] = &Row{
			Period:       ra.Period,
			TotalPayment: ra.TotalPayment - rb.TotalPayment,
			Principal:    ra.Principal - rb.Principal,
			Interest:     ra.Interest - rb.Interest,
			Extra:        ra.Extra - rb.Extra,
			Balance:      ra.Balance - rb.Balance,
		}
	}

	return tableFromMap(combined)
}
