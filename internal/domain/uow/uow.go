package uow

import (
	"context"

	"nftlend-backend/internal/domain/custody"
	"nftlend-backend/internal/domain/event"
	"nftlend-backend/internal/domain/loanbook"
	"nftlend-backend/internal/domain/request"
)

// Sequence names for the two scalar id counters.
const (
	SeqRequest = "request"
	SeqLoan    = "loan"
)

// Counters hands out sequence-assigned record ids, starting at 0.
type Counters interface {
	Next(ctx context.Context, name string) (uint64, error)
}

// Repos is the full set of stores a mutating ledger operation may touch.
// Every member is bound to the same transaction, so a status flip and its
// accompanying transfers commit together or roll back together.
type Repos struct {
	Requests request.Repository
	Loans    loanbook.Repository
	Counters Counters
	Items    custody.Custodian
	Accounts custody.Wallet
	Events   event.Recorder
}

type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(r Repos) error) error
}
