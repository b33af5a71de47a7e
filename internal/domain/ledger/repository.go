package ledger

import "context"

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	// ListByProperty returns a property's entries ordered by period, then
	// insertion order, so a replay reproduces the original sequence.
	ListByProperty(ctx context.Context, propertyID string) ([]Entry, error)
}
