package ledger

import (
	"errors"
	"fmt"
	"time"
)

var ErrNegativePeriod = errors.New("period must be a non-negative integer")

// Party is a named actor in the mortgage collaboration: a co-owner, the
// common fund, or anything that shows up on a bank statement. The matching
// fields drive sender identification during statement ingestion; the engine
// itself only ever reads Name.
type Party struct {
	Name string
	Type string // e.g. "Stakeholder", "Common Party", "Bank"

	// Statement matching: a transaction belongs to this party when its
	// description contains one of LedgerStrings and none of LedgerExclusions.
	// ExclusionAmount, when > 0, drops matches below that absolute amount.
	LedgerStrings    []string
	LedgerExclusions []string
	ExclusionAmount  float64
}

// Parties pairs a stakeholder with the common party they pay into.
type Parties struct {
	Stakeholder Party
	CommonParty Party
}

// Payment is a transfer between two parties in a specific period.
// Period 0 is reserved for down payments.
type Payment struct {
	Amount    float64
	Sender    Party
	Recipient Party
	Period    int
	Date      string
}

func NewPayment(amount float64, sender, recipient Party, period int) (Payment, error) {
	if period < 0 {
		return Payment{}, fmt.Errorf("%w: got %d", ErrNegativePeriod, period)
	}
	return Payment{Amount: amount, Sender: sender, Recipient: recipient, Period: period}, nil
}

func NewDatedPayment(amount float64, sender, recipient Party, period int, date string) (Payment, error) {
	p, err := NewPayment(amount, sender, recipient, period)
	if err != nil {
		return Payment{}, err
	}
	p.Date = date
	return p, nil
}

func (p Payment) String() string {
	s := fmt.Sprintf("Payment(amount=%.2f, sender=%s, recipient=%s, period=%d",
		p.Amount, p.Sender.Name, p.Recipient.Name, p.Period)
	if p.Date != "" {
		s += ", date=" + p.Date
	}
	return s + ")"
}

// Entry is the persisted form of an accepted payment. The engine state is
// in-memory only; entries are the durable ledger a property can be rebuilt
// from by replaying them in period order.
type Entry struct {
	ID            uint64    `gorm:"primaryKey;column:id" json:"-"`
	EntryID       string    `gorm:"size:32;uniqueIndex:ux_ledger_entries_entry_id" json:"entry_id"`
	PropertyID    string    `gorm:"size:32;index:idx_ledger_entries_property" json:"property_id"`
	Stakeholder   string    `gorm:"size:64" json:"stakeholder"`
	Amount        float64   `gorm:"type:decimal(18,2)" json:"amount"`
	Period        int       `gorm:"index" json:"period"`
	StatementDate string    `gorm:"size:16" json:"statement_date,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Entry) TableName() string { return "ledger_entries" }
