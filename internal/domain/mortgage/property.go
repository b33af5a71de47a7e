package mortgage

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"comortgage/internal/domain/ledger"
	"comortgage/internal/domain/loan"
)

var (
	ErrUnknownStakeholder = errors.New("unknown stakeholder")
	ErrNoStakeholders     = errors.New("property requires at least one stakeholder")
)

const commonFundName = "Common Fund"

// Params configures a property purchase split evenly across stakeholders.
type Params struct {
	PurchaseCost        float64
	PurchaseDownPayment float64
	LoanInfo            loan.Info
	Stakeholders        []ledger.Party
	// StakeholderDownPayments are synthesized as period-0 payments and
	// consumed by the first AdvancePeriod.
	StakeholderDownPayments map[string]float64
}

// Property fans payments and period advances out to one slice per
// stakeholder, all paying into a single common fund.
type Property struct {
	stakeholders map[string]ledger.Party
	commonFund   ledger.Party
	stakes       map[string]*Stake
	slices       map[string]*Slice
	info         loan.Info
}

// NewProperty distributes the purchase evenly: each stakeholder's baseline
// is priced at cost/N and their mortgage slice at (cost-down)/N.
//
// The stated purchase down payment and the per-stakeholder down payments
// are two sources of truth that both exist in reality; when they disagree
// the mismatch is logged but construction proceeds.
func NewProperty(params Params, log zerolog.Logger) (*Property, error) {
	stakeholders := make(map[string]ledger.Party)
	for _, party := range params.Stakeholders {
		if party.Type == "Common Party" {
			continue
		}
		stakeholders[party.Name] = party
	}
	if len(stakeholders) == 0 {
		return nil, ErrNoStakeholders
	}

	p := &Property{
		stakeholders: stakeholders,
		commonFund:   ledger.Party{Name: commonFundName, Type: "Common Party"},
		stakes:       make(map[string]*Stake, len(stakeholders)),
		slices:       make(map[string]*Slice, len(stakeholders)),
		info:         params.LoanInfo,
	}

	n := float64(len(stakeholders))
	stakeValue := params.PurchaseCost / n
	stakeDebt := (params.PurchaseCost - params.PurchaseDownPayment) / n

	for name, party := range stakeholders {
		parties := ledger.Parties{Stakeholder: party, CommonParty: p.commonFund}
		stake := NewStake(stakeValue, stakeDebt, parties, params.LoanInfo)
		p.stakes[name] = stake
		p.slices[name] = stake.Slice
	}

	recorded := 0.0
	for name, amount := range params.StakeholderDownPayments {
		slice, ok := p.slices[name]
		if !ok {
			continue
		}
		payment, err := ledger.NewPayment(amount, stakeholders[name], p.commonFund, 0)
		if err != nil {
			return nil, err
		}
		if err := slice.AcceptPayment(payment); err != nil {
			return nil, err
		}
		recorded += amount
	}

	if len(params.StakeholderDownPayments) > 0 &&
		math.Abs(recorded-params.PurchaseDownPayment) >= 0.005 {
		log.Warn().
			Float64("recorded_down_payments", recorded).
			Float64("purchase_down_payment", params.PurchaseDownPayment).
			Msg("stakeholder down payments do not sum to the purchase down payment")
	}

	return p, nil
}

// Stakeholders lists the stakeholder names on this property.
func (p *Property) Stakeholders() []string {
	names := make([]string, 0, len(p.stakeholders))
	for name := range p.stakeholders {
		names = append(names, name)
	}
	return names
}

// Slice returns the mortgage slice for a stakeholder name.
func (p *Property) Slice(name string) (*Slice, bool) {
	s, ok := p.slices[name]
	return s, ok
}

// CurrentPeriod reports the period the property is in. All slices advance
// together, so any one of them answers.
func (p *Property) CurrentPeriod() int {
	for _, s := range p.slices {
		return s.CurrentPeriod()
	}
	return 0
}

// AcceptPayment routes a stakeholder's payment to their slice.
func (p *Property) AcceptPayment(stakeholder ledger.Party, amount float64, period int) error {
	slice, ok := p.slices[stakeholder.Name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStakeholder, stakeholder.Name)
	}
	payment, err := ledger.NewPayment(amount, p.stakeholders[stakeholder.Name], p.commonFund, period)
	if err != nil {
		return err
	}
	return slice.AcceptPayment(payment)
}

// AdvancePeriod advances every slice by one period.
func (p *Property) AdvancePeriod() error {
	for name, slice := range p.slices {
		if err := slice.AdvancePeriod(); err != nil {
			return fmt.Errorf("advancing %s: %w", name, err)
		}
	}
	return nil
}

// Schedules returns the requested table for every stakeholder.
func (p *Property) Schedules(t loan.TableType) (map[string]loan.Table, error) {
	out := make(map[string]loan.Table, len(p.slices))
	for name, slice := range p.slices {
		table, err := slice.Schedule(t)
		if err != nil {
			return nil, err
		}
		out[name] = table
	}
	return out, nil
}
