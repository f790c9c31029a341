package request

import "context"

type Repository interface {
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id uint64) (*Request, error)
	// GetByIDForUpdate locks the row for the enclosing transaction.
	GetByIDForUpdate(ctx context.Context, id uint64) (*Request, error)
	Save(ctx context.Context, r *Request) error

	// Enumeration views, ascending id order.
	ListByBorrower(ctx context.Context, borrower string) ([]Request, error)
	ListAll(ctx context.Context) ([]Request, error)
}
