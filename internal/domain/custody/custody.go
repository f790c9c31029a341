// Package custody declares the narrow capabilities the ledger consumes from
// the collateral-asset registry and the account/value provider. The ledger
// never tracks item ownership itself; the custodian is the sole source of
// truth for holdership, and the ledger's status fields only say which record
// an item is logically escrowed against.
package custody

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownItem       = errors.New("custody: unknown item")
	ErrNotItemHolder     = errors.New("custody: caller does not hold the item")
	ErrItemNotAuthorized = errors.New("custody: ledger not authorized to move the item")
	ErrUnknownAccount    = errors.New("custody: unknown account")
	ErrInsufficientFunds = errors.New("custody: insufficient balance")
)

// Custodian is the escrow authority for collateral items.
type Custodian interface {
	HolderOf(ctx context.Context, itemID string) (string, error)
	// IsAuthorized covers both item-specific approval and blanket operator
	// authorization over all of owner's items.
	IsAuthorized(ctx context.Context, itemID, owner, operator string) (bool, error)
	// Transfer fails if from does not presently hold the item.
	Transfer(ctx context.Context, itemID, from, to string) error
}

// Wallet moves value units between accounts. Amounts are integer-valued in
// the smallest unit.
type Wallet interface {
	Transfer(ctx context.Context, from, to string, amount decimal.Decimal) error
}
