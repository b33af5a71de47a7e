package mortgage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"comortgage/internal/domain/ledger"
	"comortgage/internal/domain/loan"
)

var (
	ErrPeriodMismatch      = errors.New("payment is not for the current period")
	ErrNegativeDownPayment = errors.New("down payment cannot be negative")
	ErrVerificationFailed  = errors.New("adjustment verification failed: amortization tables do not match")
)

// Slice is one stakeholder's flexible obligation on a shared mortgage. It
// queues payments per period and, on every period advance, reconciles the
// queued total against the then-expected payment. The signed difference is
// recorded twice: as an extra payment on the adjusted loan, and as a
// synthetic loan on the verification list. The two representations must
// stay equal after every mutation; a divergence is an engine bug, not a
// user error.
type Slice struct {
	payer     ledger.Party
	recipient ledger.Party

	// nominalLoan is the stakeholder's pro-rata share of the property's
	// actual mortgage principal. Read-only after construction.
	nominalLoan *loan.Loan
	// baselineLoan is sized to the stakeholder's full fair share of the
	// purchase cost (debt + equity). Read-only after construction.
	baselineLoan *loan.Loan
	// adjustedLoan starts as a copy of the baseline and absorbs every
	// reconciled payment as an extra payment.
	adjustedLoan *loan.Loan
	// verification holds one synthetic loan per adjustment; combined with
	// the baseline they must reproduce the adjusted schedule.
	verification []*loan.Loan

	currentPeriod int
	pending       []ledger.Payment
}

// NewSlice builds a flexible slice from a baseline loan and the nominal
// slice of the mortgage. The baseline is deep-copied into the adjusted loan
// so later mutations never touch it.
func NewSlice(parties ledger.Parties, baseline, nominal *loan.Loan) *Slice {
	return &Slice{
		payer:        parties.Stakeholder,
		recipient:    parties.CommonParty,
		nominalLoan:  nominal,
		baselineLoan: baseline,
		adjustedLoan: baseline.Clone(),
	}
}

func (s *Slice) CurrentPeriod() int { return s.currentPeriod }

// Adjustments returns the synthetic loans emitted so far, oldest first.
func (s *Slice) Adjustments() []*loan.Loan {
	out := make([]*loan.Loan, len(s.verification))
	copy(out, s.verification)
	return out
}

// AcceptPayment queues a payment for the current period. Nothing is applied
// to any loan until the period advances.
func (s *Slice) AcceptPayment(p ledger.Payment) error {
	if p.Period != s.currentPeriod {
		return fmt.Errorf("%w: payment for period %d, current period is %d",
			ErrPeriodMismatch, p.Period, s.currentPeriod)
	}
	s.pending = append(s.pending, p)
	return nil
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// AdvancePeriod reconciles the queued payments as a batch against the
// expected payment for the current period, emits an adjustment for any
// nonzero difference, and moves to the next period. Reconciling per batch
// rather than per payment lets partial payments and offsetting transfers
// within one month net correctly.
func (s *Slice) AdvancePeriod() error {
	totalPaid := 0.0
	for _, p := range s.pending {
		totalPaid += p.Amount
	}

	expected, err := s.adjustedLoan.PaymentForPeriod(s.currentPeriod)
	if err != nil {
		return err
	}
	difference := round2(totalPaid - expected.TotalPayment)

	// A stakeholder cannot enter the collaboration owing more than their
	// full share before period 1.
	if difference < 0 && s.currentPeriod < 1 {
		return fmt.Errorf("%w: %s paid %.2f before period 1", ErrNegativeDownPayment, s.payer.Name, totalPaid)
	}

	if difference != 0 {
		adjustment := ledger.Payment{
			Amount:    difference,
			Sender:    s.payer,
			Recipient: s.recipient,
			Period:    s.currentPeriod,
		}
		if err := s.addAdjustmentPayment(adjustment); err != nil {
			return err
		}
	}

	kept := s.pending[:0]
	for _, p := range s.pending {
		if p.Period > s.currentPeriod {
			kept = append(kept, p)
		}
	}
	s.pending = kept
	s.currentPeriod++
	return nil
}

// addAdjustmentPayment records an adjustment in both representations: an
// extra payment of D on the adjusted loan, and a synthetic loan of -D
// starting next period on the verification list. Paying D today is
// un-borrowing D from tomorrow; the sign flip is the whole trick.
func (s *Slice) addAdjustmentPayment(p ledger.Payment) error {
	synthetic := loan.NewWithExtras(s.baselineLoan.Info(), -p.Amount, p.Period+1, nil)

	s.adjustedLoan.AddExtraPayment(p)
	s.verification = append(s.verification, synthetic)
	return s.VerifyAdjustments()
}

// VerifyAdjustments checks the dual-representation invariant: the adjusted
// loan's schedule must equal the baseline combined with every synthetic
// adjustment loan. The returned error carries both tables and the row
// mismatches, since a failure means the re-amortization algebra itself is
// broken.
func (s *Slice) VerifyAdjustments() error {
	adjusted := s.adjustedLoan.Schedule()
	combined := loan.Combine(append([]*loan.Loan{s.baselineLoan}, s.verification...)...)

	if adjusted.Equal(combined) {
		return nil
	}

	mismatches := adjusted.Diff(combined)
	return fmt.Errorf("%w for %s\n%s\nadjusted schedule:\n%s\ncombined verification:\n%s",
		ErrVerificationFailed, s.payer.Name,
		strings.Join(mismatches, "\n"), adjusted, combined)
}

// AdjustmentTable combines the synthetic loans alone, without the baseline.
func (s *Slice) AdjustmentTable() loan.Table {
	return loan.Combine(s.verification...)
}

// SideloanTable is adjusted minus nominal: how far this stakeholder is
// ahead of (positive) or behind (negative) their share of the mortgage.
func (s *Slice) SideloanTable() (loan.Table, error) {
	if err := s.VerifyAdjustments(); err != nil {
		return loan.Table{}, err
	}
	return loan.Subtract(s.adjustedLoan, s.nominalLoan), nil
}

// Schedule returns one of the three derived views, verifying the dual
// representation first.
func (s *Slice) Schedule(t loan.TableType) (loan.Table, error) {
	if err := s.VerifyAdjustments(); err != nil {
		return loan.Table{}, err
	}
	switch t {
	case loan.TypeFull:
		return s.adjustedLoan.Schedule(), nil
	case loan.TypeBaseline:
		return s.baselineLoan.Schedule(), nil
	case loan.TypeSideloan:
		return loan.Subtract(s.adjustedLoan, s.nominalLoan), nil
	}
	return loan.Table{}, fmt.Errorf("unknown table type %q", t)
}
