package property

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"comortgage/internal/domain/ledger"
	"comortgage/internal/domain/loan"
	"comortgage/internal/domain/mortgage"
	"comortgage/pkg/id"
)

var ErrPropertyNotFound = errors.New("property not found")

// engineEntry pairs a live property engine with the parameters it was built
// from, so the engine can be rebuilt from the persisted ledger.
type engineEntry struct {
	prop      *mortgage.Property
	params    mortgage.Params
	createdAt time.Time
}

// Usecase owns the registry of live property engines. Engine state is
// in-memory by design; only the raw payment ledger is persisted. The mutex
// serializes access because the engines themselves are strictly
// single-threaded.
type Usecase struct {
	mu      sync.Mutex
	engines map[string]*engineEntry
	repo    ledger.Repository
	log     zerolog.Logger
}

func NewUsecase(repo ledger.Repository, log zerolog.Logger) *Usecase {
	return &Usecase{engines: make(map[string]*engineEntry), repo: repo, log: log}
}

func (u *Usecase) Create(ctx context.Context, in CreatePropertyInput) (*PropertyDTO, error) {
	if in.PurchaseCost <= 0 || in.TotalPeriods < 1 || len(in.Stakeholders) == 0 {
		return nil, errors.New("invalid input")
	}
	if in.PurchaseDownPayment < 0 || in.PurchaseDownPayment > in.PurchaseCost {
		return nil, errors.New("invalid down payment")
	}

	parties := make([]ledger.Party, 0, len(in.Stakeholders))
	for _, name := range in.Stakeholders {
		if name == "" {
			return nil, errors.New("empty stakeholder name")
		}
		parties = append(parties, ledger.Party{Name: name, Type: "Stakeholder"})
	}

	params := mortgage.Params{
		PurchaseCost:            in.PurchaseCost,
		PurchaseDownPayment:     in.PurchaseDownPayment,
		LoanInfo:                loan.Info{AnnualRate: in.AnnualRate, TotalPeriods: in.TotalPeriods},
		Stakeholders:            parties,
		StakeholderDownPayments: in.DownPayments,
	}
	prop, err := mortgage.NewProperty(params, u.log)
	if err != nil {
		return nil, err
	}

	propertyID := id.NewID32()
	for name, amount := range in.DownPayments {
		entry := &ledger.Entry{
			EntryID:     id.NewID32(),
			PropertyID:  propertyID,
			Stakeholder: name,
			Amount:      amount,
			Period:      0,
		}
		if err := u.repo.Create(ctx, entry); err != nil {
			return nil, fmt.Errorf("recording down payment: %w", err)
		}
	}

	entry := &engineEntry{prop: prop, params: params, createdAt: time.Now().UTC()}
	u.mu.Lock()
	u.engines[propertyID] = entry
	u.mu.Unlock()

	u.log.Info().Str("property_id", propertyID).Int("stakeholders", len(prop.Stakeholders())).
		Msg("property created")
	return u.dto(propertyID, entry), nil
}

func (u *Usecase) Get(ctx context.Context, propertyID string) (*PropertyDTO, error) {
	entry, err := u.engine(propertyID)
	if err != nil {
		return nil, err
	}
	return u.dto(propertyID, entry), nil
}

// AcceptPayment queues a payment on the stakeholder's slice and records it
// in the persistent ledger.
func (u *Usecase) AcceptPayment(ctx context.Context, propertyID string, in PaymentInput) error {
	entry, err := u.engine(propertyID)
	if err != nil {
		return err
	}

	u.mu.Lock()
	err = entry.prop.AcceptPayment(ledger.Party{Name: in.Stakeholder}, in.Amount, in.Period)
	u.mu.Unlock()
	if err != nil {
		return err
	}

	return u.repo.Create(ctx, &ledger.Entry{
		EntryID:       id.NewID32(),
		PropertyID:    propertyID,
		Stakeholder:   in.Stakeholder,
		Amount:        in.Amount,
		Period:        in.Period,
		StatementDate: in.Date,
	})
}

func (u *Usecase) AdvancePeriod(ctx context.Context, propertyID string) error {
	entry, err := u.engine(propertyID)
	if err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return entry.prop.AdvancePeriod()
}

// Schedules derives the requested table for every stakeholder.
func (u *Usecase) Schedules(ctx context.Context, propertyID, tableType string) (map[string]ScheduleDTO, error) {
	t, err := loan.ParseTableType(tableType)
	if err != nil {
		return nil, err
	}
	entry, engineErr := u.engine(propertyID)
	if engineErr != nil {
		return nil, engineErr
	}

	u.mu.Lock()
	tables, err := entry.prop.Schedules(t)
	u.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make(map[string]ScheduleDTO, len(tables))
	for name, table := range tables {
		out[name] = scheduleDTO(table)
	}
	return out, nil
}

// ProcessPayments feeds a period-sorted batch of payments through the
// engine, advancing the property whenever the ledger rolls into a new
// period. Payments from senders with no stake are skipped, not failed:
// bank statements are full of them.
func (u *Usecase) ProcessPayments(ctx context.Context, propertyID string, payments []ledger.Payment) error {
	entry, err := u.engine(propertyID)
	if err != nil {
		return err
	}

	sorted := make([]ledger.Payment, len(payments))
	copy(sorted, payments)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Period < sorted[j].Period })

	u.mu.Lock()
	defer u.mu.Unlock()

	for _, p := range sorted {
		for entry.prop.CurrentPeriod() < p.Period {
			if err := entry.prop.AdvancePeriod(); err != nil {
				return err
			}
		}
		if _, ok := entry.prop.Slice(p.Sender.Name); !ok {
			u.log.Debug().Str("sender", p.Sender.Name).Float64("amount", p.Amount).
				Msg("skipping payment from non-stakeholder")
			continue
		}
		if err := entry.prop.AcceptPayment(p.Sender, p.Amount, p.Period); err != nil {
			return err
		}
		if err := u.repo.Create(ctx, &ledger.Entry{
			EntryID:       id.NewID32(),
			PropertyID:    propertyID,
			Stakeholder:   p.Sender.Name,
			Amount:        p.Amount,
			Period:        p.Period,
			StatementDate: p.Date,
		}); err != nil {
			return err
		}
	}
	return nil
}

// Rebuild replays a property's persisted ledger through a fresh engine,
// proving the durable record is sufficient to reconstruct the in-memory
// state.
func (u *Usecase) Rebuild(ctx context.Context, propertyID string) error {
	entry, err := u.engine(propertyID)
	if err != nil {
		return err
	}

	entries, err := u.repo.ListByProperty(ctx, propertyID)
	if err != nil {
		return err
	}

	// The replayed entries include the original down payments, so the
	// fresh engine must not queue them a second time.
	params := entry.params
	params.StakeholderDownPayments = nil
	fresh, err := mortgage.NewProperty(params, u.log)
	if err != nil {
		return err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	target := entry.prop.CurrentPeriod()
	for _, e := range entries {
		for fresh.CurrentPeriod() < e.Period {
			if err := fresh.AdvancePeriod(); err != nil {
				return err
			}
		}
		if err := fresh.AcceptPayment(ledger.Party{Name: e.Stakeholder}, e.Amount, e.Period); err != nil {
			return err
		}
	}
	for fresh.CurrentPeriod() < target {
		if err := fresh.AdvancePeriod(); err != nil {
			return err
		}
	}

	entry.prop = fresh
	u.log.Info().Str("property_id", propertyID).Int("entries", len(entries)).
		Msg("property rebuilt from ledger")
	return nil
}

func (u *Usecase) engine(propertyID string) (*engineEntry, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	entry, ok := u.engines[propertyID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPropertyNotFound, propertyID)
	}
	return entry, nil
}

func (u *Usecase) dto(propertyID string, entry *engineEntry) *PropertyDTO {
	n := float64(len(entry.prop.Stakeholders()))
	return &PropertyDTO{
		PropertyID:    propertyID,
		Stakeholders:  entry.prop.Stakeholders(),
		StakeValue:    entry.params.PurchaseCost / n,
		StakeDebt:     (entry.params.PurchaseCost - entry.params.PurchaseDownPayment) / n,
		CurrentPeriod: entry.prop.CurrentPeriod(),
		CreatedAt:     entry.createdAt,
	}
}

func scheduleDTO(t loan.Table) ScheduleDTO {
	rows := make([]RowDTO, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = RowDTO{
			Period:       r.Period,
			TotalPayment: r.TotalPayment,
			Principal:    r.Principal,
			Interest:     r.Interest,
			Extra:        r.Extra,
			Balance:      r.Balance,
		}
	}
	return ScheduleDTO{Rows: rows, Summary: t.Summary(2, 2)}
}
