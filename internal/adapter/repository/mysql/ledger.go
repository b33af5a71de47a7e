package mysql

import (
	"context"

	"gorm.io/gorm"

	ledgerDomain "comortgage/internal/domain/ledger"
)

type LedgerRepository struct{ db *gorm.DB }

func NewLedgerRepository(db *gorm.DB) *LedgerRepository { return &LedgerRepository{db: db} }

// Tx runs fn in a db transaction, passing a repo bound to the tx
func (r *LedgerRepository) Tx(ctx context.Context, fn func(repo ledgerDomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&LedgerRepository{db: tx})
	})
}

func (r *LedgerRepository) Create(ctx context.Context, e *ledgerDomain.Entry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *LedgerRepository) ListByProperty(ctx context.Context, propertyID string) ([]ledgerDomain.Entry, error) {
	var out []ledgerDomain.Entry
	res := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("period ASC, id ASC").
		Find(&out)
	return out, res.Error
}
