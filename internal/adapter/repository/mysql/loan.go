package mysql

import (
	"context"

	"gorm.io/gorm"

	loanDomain "nftlend-backend/internal/domain/loanbook"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.ActiveLoan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.ActiveLoan) error {
	return saveAssigned(r.db.WithContext(ctx), l)
}

func (r *LoanRepository) GetByID(ctx context.Context, id uint64) (*loanDomain.ActiveLoan, error) {
	var out loanDomain.ActiveLoan
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*loanDomain.ActiveLoan, error) {
	var out loanDomain.ActiveLoan
	res := lockForUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *LoanRepository) ListOpen(ctx context.Context) ([]loanDomain.ActiveLoan, error) {
	var out []loanDomain.ActiveLoan
	res := r.db.WithContext(ctx).
		Where("status = ?", loanDomain.StatusOpen).
		Order("id ASC").
		Find(&out)
	return out, res.Error
}
