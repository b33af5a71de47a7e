// Command simulation drives a two-stakeholder property through a few months
// of bank-statement payments and prints the derived schedules.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"comortgage/internal/adapter/bankcsv"
	"comortgage/internal/domain/ledger"
	"comortgage/internal/usecase/property"
)

// statement is a fragment of a real-world bank export: tab-separated
// (date, description, amount, balance) rows with the usual noise.
const statement = "Date\tDescription\tAmount\tBalance\n" +
	"03/05/2025\talice mortgage payment\t1,748.76\t48,251.24\n" +
	"03/07/2025\tbob loan repayment\t1,648.76\t46,602.48\n" +
	"03/12/2025\tcoffee shop downtown\t-4.50\t46,597.98\n" +
	"04/05/2025\talice mortgage payment\t1,748.76\t44,849.22\n" +
	"04/07/2025\tbob loan repayment\t1,648.76\t43,200.46\n"

// noopRepo satisfies the ledger repository without persisting anything;
// a simulation run has no database behind it.
type noopRepo struct{}

func (noopRepo) Create(ctx context.Context, e *ledger.Entry) error { return nil }
func (noopRepo) ListByProperty(ctx context.Context, propertyID string) ([]ledger.Entry, error) {
	return nil, nil
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	ctx := context.Background()

	uc := property.NewUsecase(noopRepo{}, logger)
	dto, err := uc.Create(ctx, property.CreatePropertyInput{
		PurchaseCost:        550_000,
		PurchaseDownPayment: 120_000,
		AnnualRate:          0.06,
		TotalPeriods:        360,
		Stakeholders:        []string{"Alice", "Bob"},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("creating property")
	}

	parties := []ledger.Party{
		{Name: "Alice", Type: "Stakeholder", LedgerStrings: []string{"alice"}},
		{Name: "Bob", Type: "Stakeholder", LedgerStrings: []string{"bob"}},
	}
	firstPeriod := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	reader := bankcsv.NewReader(parties, nil, firstPeriod, logger)

	payments, err := reader.Parse(strings.NewReader(statement))
	if err != nil {
		logger.Fatal().Err(err).Msg("parsing statement")
	}
	for _, p := range payments {
		fmt.Println(p.String())
	}

	if err := uc.ProcessPayments(ctx, dto.PropertyID, payments); err != nil {
		logger.Fatal().Err(err).Msg("processing payments")
	}
	if err := uc.AdvancePeriod(ctx, dto.PropertyID); err != nil {
		logger.Fatal().Err(err).Msg("advancing period")
	}

	for _, tableType := range []string{"sideloan", "baseline", "full"} {
		schedules, err := uc.Schedules(ctx, dto.PropertyID, tableType)
		if err != nil {
			logger.Fatal().Err(err).Msg("deriving schedules")
		}
		for name, schedule := range schedules {
			fmt.Printf("%s table for %s\n", tableType, name)
			fmt.Println(schedule.Summary)
		}
	}
}
