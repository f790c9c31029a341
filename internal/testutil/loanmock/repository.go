package loanmock

import (
	"context"

	domain "nftlend-backend/internal/domain/loanbook"
)

// Repo is a function-backed mock that satisfies loanbook.Repository.
type Repo struct {
	CreateFn           func(ctx context.Context, l *domain.ActiveLoan) error
	GetByIDFn          func(ctx context.Context, id uint64) (*domain.ActiveLoan, error)
	GetByIDForUpdateFn func(ctx context.Context, id uint64) (*domain.ActiveLoan, error)
	SaveFn             func(ctx context.Context, l *domain.ActiveLoan) error
	ListOpenFn         func(ctx context.Context) ([]domain.ActiveLoan, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.ActiveLoan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.ActiveLoan, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, id uint64) (*domain.ActiveLoan, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, l *domain.ActiveLoan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) ListOpen(ctx context.Context) ([]domain.ActiveLoan, error) {
	if m.ListOpenFn != nil {
		return m.ListOpenFn(ctx)
	}
	return nil, context.Canceled
}
