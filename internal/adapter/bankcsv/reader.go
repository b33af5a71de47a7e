// Package bankcsv turns raw bank-statement exports into ledger payments.
// Statements are tab-separated with rows of (date, description, amount,
// balance); rows that don't parse are skipped, since real exports are full
// of headers, footers and noise.
package bankcsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"comortgage/internal/domain/ledger"
)

const dateLayout = "01/02/2006"

type Reader struct {
	parties     []ledger.Party
	commonParty ledger.Party
	// mutualIncomeMarkers flag transactions (e.g. rental income) that are
	// split evenly across all stakeholders instead of credited to one.
	mutualIncomeMarkers []string
	firstPeriod         time.Time
	log                 zerolog.Logger
}

func NewReader(parties []ledger.Party, mutualIncomeMarkers []string, firstPeriod time.Time, log zerolog.Logger) *Reader {
	return &Reader{
		parties:             parties,
		commonParty:         ledger.Party{Name: "Common Account", Type: "Common Party"},
		mutualIncomeMarkers: mutualIncomeMarkers,
		firstPeriod:         firstPeriod,
		log:                 log,
	}
}

// monthsBetween counts calendar-month boundaries crossed between two dates.
func monthsBetween(start, end time.Time) int {
	return (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
}

func (r *Reader) ParseFile(path string) ([]ledger.Payment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return r.Parse(f)
}

func (r *Reader) Parse(src io.Reader) ([]ledger.Payment, error) {
	cr := csv.NewReader(src)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var payments []ledger.Payment

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading statement: %w", err)
		}
		if len(row) < 4 {
			r.log.Debug().Strs("row", row).Msg("skipping malformed row")
			continue
		}

		dateStr, description, amountStr := row[0], row[1], row[2]

		transactionDate, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			r.log.Debug().Str("date", dateStr).Msg("skipping row with unparseable date")
			continue
		}
		amountDec, err := decimal.NewFromString(strings.ReplaceAll(amountStr, ",", ""))
		if err != nil {
			r.log.Debug().Str("amount", amountStr).Msg("skipping row with unparseable amount")
			continue
		}
		amount := amountDec.InexactFloat64()

		period := monthsBetween(r.firstPeriod, transactionDate) + 1

		sender, found, err := r.identifySender(description, amount)
		if err != nil {
			return nil, err
		}

		if found {
			p, err := ledger.NewDatedPayment(amount, sender, r.commonParty, period, dateStr)
			if err != nil {
				return nil, err
			}
			payments = append(payments, p)
		}

		mutualIncome := false
		for _, marker := range r.mutualIncomeMarkers {
			if strings.Contains(strings.ToLower(description), strings.ToLower(marker)) {
				mutualIncome = true
			}
		}

		if mutualIncome && found {
			return nil, fmt.Errorf("transaction %q matched sender %s but is also flagged as mutual income",
				description, sender.Name)
		}
		if mutualIncome {
			share := amount / float64(len(r.parties))
			for _, party := range r.parties {
				p, err := ledger.NewDatedPayment(share, party, r.commonParty, period, dateStr)
				if err != nil {
					return nil, err
				}
				payments = append(payments, p)
			}
		}
	}

	return payments, nil
}

// identifySender matches a transaction description against every party's
// match strings. Exactly one party may claim a transaction; exclusion
// strings and the minimum-amount threshold drop false positives like
// utility autopays sharing an account prefix.
func (r *Reader) identifySender(description string, amount float64) (ledger.Party, bool, error) {
	lower := strings.ToLower(description)

	var identified []ledger.Party
	for _, party := range r.parties {
		excluded := false
		for _, exclusion := range party.LedgerExclusions {
			if strings.Contains(lower, strings.ToLower(exclusion)) {
				excluded = true
			}
		}

		matched := false
		for _, marker := range party.LedgerStrings {
			if strings.Contains(lower, strings.ToLower(marker)) {
				matched = true
			}
		}
		if matched && party.ExclusionAmount > 0 && math.Abs(amount) < party.ExclusionAmount {
			excluded = true
		}
		if matched && !excluded {
			identified = append(identified, party)
		}
	}

	if len(identified) > 1 {
		names := make([]string, len(identified))
		for i, p := range identified {
			names[i] = p.Name
		}
		return ledger.Party{}, false, fmt.Errorf("transaction %q matched multiple senders: %s",
			description, strings.Join(names, ", "))
	}
	if len(identified) == 1 {
		return identified[0], true, nil
	}
	return ledger.Party{}, false, nil
}
