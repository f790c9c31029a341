package mysql

import (
	"context"

	"gorm.io/gorm"

	eventDomain "nftlend-backend/internal/domain/event"
	loanDomain "nftlend-backend/internal/domain/loanbook"
	requestDomain "nftlend-backend/internal/domain/request"
	"nftlend-backend/internal/domain/uow"
)

// GormUoW binds every repository to one gorm transaction. This is what makes
// a ledger operation all-or-nothing: the status flip, the counter bump, the
// custody and value transfers and the event append either all commit or the
// rollback leaves the prior state untouched.
type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := uow.Repos{
			Requests: &RequestRepository{db: tx},
			Loans:    &LoanRepository{db: tx},
			Counters: &CounterRepository{db: tx},
			Items:    &ItemRepository{db: tx},
			Accounts: &AccountRepository{db: tx},
			Events:   &EventRepository{db: tx},
		}
		return fn(r)
	})
}

// Migrate creates the ledger tables. The escrow_items/escrow_operators/
// escrow_accounts rows themselves are provisioned by the external registry
// and identity services writing the same schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&requestDomain.Request{},
		&loanDomain.ActiveLoan{},
		&eventDomain.Event{},
		&Counter{},
		&EscrowItem{},
		&EscrowOperator{},
		&EscrowAccount{},
	)
}
