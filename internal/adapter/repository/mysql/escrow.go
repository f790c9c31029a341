package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"nftlend-backend/internal/domain/custody"
)

// EscrowItem mirrors the asset registry's per-item state: current holder,
// an optional per-item approved operator. Blanket operator grants live in
// escrow_operators. The registry service owns provisioning of these rows;
// the ledger only reads them and moves holdership.
type EscrowItem struct {
	ItemID    string    `gorm:"primaryKey;size:64;column:item_id"`
	Holder    string    `gorm:"size:32;index"`
	Approved  string    `gorm:"size:32"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (EscrowItem) TableName() string { return "escrow_items" }

// EscrowOperator is a blanket authorization: Operator may move any item
// currently held by Owner.
type EscrowOperator struct {
	Owner    string `gorm:"primaryKey;size:32"`
	Operator string `gorm:"primaryKey;size:32"`
}

func (EscrowOperator) TableName() string { return "escrow_operators" }

// EscrowAccount is one value-unit balance. Balances are integer decimals.
type EscrowAccount struct {
	AccountID string          `gorm:"primaryKey;size:32;column:account_id"`
	Balance   decimal.Decimal `gorm:"type:decimal(38,0)"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime"`
}

func (EscrowAccount) TableName() string { return "escrow_accounts" }

// ItemRepository implements custody.Custodian against the registry tables.
type ItemRepository struct{ db *gorm.DB }

func NewItemRepository(db *gorm.DB) *ItemRepository { return &ItemRepository{db: db} }

func (r *ItemRepository) HolderOf(ctx context.Context, itemID string) (string, error) {
	var item EscrowItem
	res := r.db.WithContext(ctx).Where("item_id = ?", itemID).First(&item)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return "", custody.ErrUnknownItem
		}
		return "", res.Error
	}
	return item.Holder, nil
}

func (r *ItemRepository) IsAuthorized(ctx context.Context, itemID, owner, operator string) (bool, error) {
	var item EscrowItem
	res := r.db.WithContext(ctx).Where("item_id = ?", itemID).First(&item)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return false, custody.ErrUnknownItem
		}
		return false, res.Error
	}
	if item.Approved != "" && item.Approved == operator {
		return true, nil
	}
	var n int64
	res = r.db.WithContext(ctx).Model(&EscrowOperator{}).
		Where("owner = ? AND operator = ?", owner, operator).
		Count(&n)
	if res.Error != nil {
		return false, res.Error
	}
	return n > 0, nil
}

func (r *ItemRepository) Transfer(ctx context.Context, itemID, from, to string) error {
	var item EscrowItem
	res := lockForUpdate(r.db.WithContext(ctx)).Where("item_id = ?", itemID).First(&item)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return custody.ErrUnknownItem
		}
		return res.Error
	}
	if item.Holder != from {
		return custody.ErrNotItemHolder
	}
	item.Holder = to
	// Holdership change voids any per-item approval.
	item.Approved = ""
	return r.db.WithContext(ctx).Save(&item).Error
}

// AccountRepository implements custody.Wallet against escrow_accounts.
type AccountRepository struct{ db *gorm.DB }

func NewAccountRepository(db *gorm.DB) *AccountRepository { return &AccountRepository{db: db} }

func (r *AccountRepository) Transfer(ctx context.Context, from, to string, amount decimal.Decimal) error {
	if amount.Sign() == 0 {
		return nil
	}
	var src EscrowAccount
	res := lockForUpdate(r.db.WithContext(ctx)).Where("account_id = ?", from).First(&src)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return custody.ErrUnknownAccount
		}
		return res.Error
	}
	if src.Balance.Cmp(amount) < 0 {
		return custody.ErrInsufficientFunds
	}
	// A transfer to the same account moves nothing; loading the destination
	// row separately would clobber the debit with a stale balance.
	if from == to {
		return nil
	}

	var dst EscrowAccount
	res = lockForUpdate(r.db.WithContext(ctx)).Where("account_id = ?", to).First(&dst)
	if res.Error != nil {
		if !errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return res.Error
		}
		dst = EscrowAccount{AccountID: to, Balance: decimal.Zero}
		if err := r.db.WithContext(ctx).Create(&dst).Error; err != nil {
			return err
		}
	}

	src.Balance = src.Balance.Sub(amount)
	dst.Balance = dst.Balance.Add(amount)
	if err := r.db.WithContext(ctx).Save(&src).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(&dst).Error
}

// BalanceOf is a read-side helper for handlers and tests.
func (r *AccountRepository) BalanceOf(ctx context.Context, accountID string) (decimal.Decimal, error) {
	var acc EscrowAccount
	res := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&acc)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return decimal.Zero, custody.ErrUnknownAccount
		}
		return decimal.Zero, res.Error
	}
	return acc.Balance, nil
}
