package ledgermock

import (
	"context"

	domain "comortgage/internal/domain/ledger"
)

// Repo is a function-backed mock that satisfies ledger.Repository.
// Unset methods behave as benign no-ops so tests only wire what they assert.
type Repo struct {
	CreateFn         func(ctx context.Context, e *domain.Entry) error
	ListByPropertyFn func(ctx context.Context, propertyID string) ([]domain.Entry, error)
}

func (m *Repo) Create(ctx context.Context, e *domain.Entry) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, e)
	}
	return nil
}

func (m *Repo) ListByProperty(ctx context.Context, propertyID string) ([]domain.Entry, error) {
	if m.ListByPropertyFn != nil {
		return m.ListByPropertyFn(ctx, propertyID)
	}
	return nil, nil
}
