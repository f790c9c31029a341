package requestmock

import (
	"context"

	domain "nftlend-backend/internal/domain/request"
)

// Repo is a function-backed mock that satisfies request.Repository.
// Only the methods a test cares about need a Fn; the rest default to
// context.Canceled so accidental calls surface loudly.
type Repo struct {
	CreateFn           func(ctx context.Context, r *domain.Request) error
	GetByIDFn          func(ctx context.Context, id uint64) (*domain.Request, error)
	GetByIDForUpdateFn func(ctx context.Context, id uint64) (*domain.Request, error)
	SaveFn             func(ctx context.Context, r *domain.Request) error
	ListByBorrowerFn   func(ctx context.Context, borrower string) ([]domain.Request, error)
	ListAllFn          func(ctx context.Context) ([]domain.Request, error)
}

func (m *Repo) Create(ctx context.Context, r *domain.Request) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Request, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, id uint64) (*domain.Request, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, r *domain.Request) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, r)
	}
	return nil
}

func (m *Repo) ListByBorrower(ctx context.Context, borrower string) ([]domain.Request, error) {
	if m.ListByBorrowerFn != nil {
		return m.ListByBorrowerFn(ctx, borrower)
	}
	return nil, context.Canceled
}

func (m *Repo) ListAll(ctx context.Context) ([]domain.Request, error) {
	if m.ListAllFn != nil {
		return m.ListAllFn(ctx)
	}
	return nil, context.Canceled
}
