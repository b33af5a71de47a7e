package mortgage

import (
	"comortgage/internal/domain/ledger"
	"comortgage/internal/domain/loan"
)

// Stake binds a stakeholder to their two loans and the flexible slice built
// from them. Stateless after construction; all bookkeeping lives in the
// slice.
type Stake struct {
	BaselineValue float64
	LoanPrincipal float64
	Parties       ledger.Parties
	Slice         *Slice
}

// NewStake sizes the baseline loan to the stakeholder's full fair share of
// the purchase cost and the nominal loan to their share of the mortgage
// principal, both on the same terms.
func NewStake(baselineValue, loanPrincipal float64, parties ledger.Parties, info loan.Info) *Stake {
	nominal := loan.New(info, loanPrincipal)
	baseline := loan.New(info, baselineValue)

	return &Stake{
		BaselineValue: baselineValue,
		LoanPrincipal: loanPrincipal,
		Parties:       parties,
		Slice:         NewSlice(parties, baseline, nominal),
	}
}
