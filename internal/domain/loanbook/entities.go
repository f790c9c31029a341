package loanbook

import (
	"errors"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"nftlend-backend/internal/domain/request"
)

var (
	ErrNotFound            = errors.New("active loan: not found")
	ErrAlreadyClosed       = errors.New("active loan: already closed")
	ErrNotBorrower         = errors.New("active loan: caller is not the borrower")
	ErrNotLender           = errors.New("active loan: caller is not the lender")
	ErrLoanExpired         = errors.New("active loan: past deadline, repayment closed")
	ErrNotYetExpired       = errors.New("active loan: deadline not reached")
	ErrInsufficientPayment = errors.New("active loan: value sent below amount due")
)

type Status string

const (
	StatusOpen       Status = "open"
	StatusRepaid     Status = "repaid"
	StatusLiquidated Status = "liquidated"
)

// Valid reports whether s is a known loan state.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusRepaid, StatusLiquidated:
		return true
	default:
		return false
	}
}

// ActiveLoan is a funded Request, an obligation from borrower to lender.
// IDs come from the ledger's loan counter, an id space independent of the
// request counter. The closing transition is irreversible: exactly one of
// repay or liquidate moves the loan out of StatusOpen.
type ActiveLoan struct {
	ID                  uint64          `gorm:"primaryKey;autoIncrement:false;column:id" json:"id"`
	RequestID           uint64          `gorm:"column:request_id;index" json:"request_id"`
	Borrower            string          `gorm:"size:32" json:"borrower"`
	Lender              string          `gorm:"size:32" json:"lender"`
	Principal           decimal.Decimal `gorm:"type:decimal(38,0)" json:"principal"`
	CollateralID        string          `gorm:"size:64;column:collateral_id" json:"collateral_id"`
	InterestRatePercent uint32          `gorm:"column:interest_rate_percent" json:"interest_rate_percent"`
	StartTime           int64           `gorm:"column:start_time" json:"start_time"` // unix seconds
	Deadline            int64           `gorm:"column:deadline" json:"deadline"`     // start + durationDays*86400
	Status              Status          `gorm:"type:varchar(16)" json:"status"`
	RecordedAt          time.Time       `gorm:"autoCreateTime" json:"-"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"-"`
}

func (ActiveLoan) TableName() string { return "active_loans" }

// Closed reports whether the loan has left StatusOpen.
func (l *ActiveLoan) Closed() bool { return l.Status != StatusOpen }

// Repayable reports whether repayment is still legal. The boundary instant
// belongs to repay: now == Deadline is repayable, now > Deadline is not.
func (l *ActiveLoan) Repayable(now int64) bool { return now <= l.Deadline }

// Liquidatable reports whether the deadline has strictly passed.
func (l *ActiveLoan) Liquidatable(now int64) bool { return now > l.Deadline }

// RepaymentDue returns principal + floor(principal * rate / 100). Simple
// interest, non-compounding, rounded down; computed over big.Int so
// smallest-unit amounts at ETH scale stay exact.
func (l *ActiveLoan) RepaymentDue() decimal.Decimal {
	p := l.Principal.BigInt()
	interest := new(big.Int).Mul(p, big.NewInt(int64(l.InterestRatePercent)))
	interest.Quo(interest, big.NewInt(100))
	return decimal.NewFromBigInt(new(big.Int).Add(p, interest), 0)
}

// DeadlineFor computes the repayment deadline for a loan funded at start
// against a request asking for durationDays.
func DeadlineFor(start int64, durationDays uint32) int64 {
	return start + int64(durationDays)*request.SecondsPerDay
}
