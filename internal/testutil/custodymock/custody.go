package custodymock

import (
	"context"

	"github.com/shopspring/decimal"

	"nftlend-backend/internal/domain/custody"
)

// Custodian is a stateful in-memory escrow registry. Tests seed Holders,
// Approvals (item → approved operator) and Operators (owner → operator
// blanket grants), then assert where each item ends up.
type Custodian struct {
	Holders   map[string]string
	Approvals map[string]string
	Operators map[string]map[string]bool

	// TransferErr, when set, makes every Transfer fail. Used to exercise the
	// roll-back-on-transfer-failure paths.
	TransferErr error
}

func NewCustodian() *Custodian {
	return &Custodian{
		Holders:   map[string]string{},
		Approvals: map[string]string{},
		Operators: map[string]map[string]bool{},
	}
}

// Seed registers an item with its holder and approves operator to move it.
func (c *Custodian) Seed(itemID, holder, operator string) {
	c.Holders[itemID] = holder
	c.Approvals[itemID] = operator
}

func (c *Custodian) HolderOf(_ context.Context, itemID string) (string, error) {
	h, ok := c.Holders[itemID]
	if !ok {
		return "", custody.ErrUnknownItem
	}
	return h, nil
}

func (c *Custodian) IsAuthorized(_ context.Context, itemID, owner, operator string) (bool, error) {
	if _, ok := c.Holders[itemID]; !ok {
		return false, custody.ErrUnknownItem
	}
	if c.Approvals[itemID] == operator {
		return true, nil
	}
	return c.Operators[owner][operator], nil
}

func (c *Custodian) Transfer(_ context.Context, itemID, from, to string) error {
	if c.TransferErr != nil {
		return c.TransferErr
	}
	h, ok := c.Holders[itemID]
	if !ok {
		return custody.ErrUnknownItem
	}
	if h != from {
		return custody.ErrNotItemHolder
	}
	c.Holders[itemID] = to
	delete(c.Approvals, itemID)
	return nil
}

// Wallet is a stateful in-memory balance book satisfying custody.Wallet.
type Wallet struct {
	Balances map[string]decimal.Decimal

	// TransferErr, when set, makes every Transfer fail.
	TransferErr error
}

func NewWallet() *Wallet { return &Wallet{Balances: map[string]decimal.Decimal{}} }

// Deposit credits an account, creating it if needed.
func (w *Wallet) Deposit(accountID string, amount decimal.Decimal) {
	w.Balances[accountID] = w.Balances[accountID].Add(amount)
}

func (w *Wallet) Transfer(_ context.Context, from, to string, amount decimal.Decimal) error {
	if w.TransferErr != nil {
		return w.TransferErr
	}
	if amount.Sign() == 0 {
		return nil
	}
	bal, ok := w.Balances[from]
	if !ok {
		return custody.ErrUnknownAccount
	}
	if bal.Cmp(amount) < 0 {
		return custody.ErrInsufficientFunds
	}
	w.Balances[from] = bal.Sub(amount)
	w.Balances[to] = w.Balances[to].Add(amount)
	return nil
}
