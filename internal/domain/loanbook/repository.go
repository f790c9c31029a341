package loanbook

import "context"

type Repository interface {
	Create(ctx context.Context, l *ActiveLoan) error
	GetByID(ctx context.Context, id uint64) (*ActiveLoan, error)
	// GetByIDForUpdate locks the row for the enclosing transaction.
	GetByIDForUpdate(ctx context.Context, id uint64) (*ActiveLoan, error)
	Save(ctx context.Context, l *ActiveLoan) error

	// ListOpen enumerates loans still in StatusOpen, ascending id order.
	ListOpen(ctx context.Context) ([]ActiveLoan, error)
}
