package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/productreview/internal/repository"
	"github.com/utafrali/productreview/pkg/database"
)

// Transactor implements repository.Transactor on a pgx pool.
type Transactor struct {
	db database.TxBeginner
}

// NewTransactor creates a Transactor that opens transactions on db.
func NewTransactor(db database.TxBeginner) *Transactor {
	return &Transactor{db: db}
}

// WithinTx runs fn with product and review repositories bound to one transaction.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	return database.WithTx(ctx, t.db, func(tx pgx.Tx) error {
		return fn(ctx, repository.Repos{
			Products: NewProductRepository(tx),
			Reviews:  NewReviewRepository(tx),
		})
	})
}
