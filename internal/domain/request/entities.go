package request

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Lifecycle constants. The funding window is fixed; it is not negotiated per
// request.
const (
	MaxInterestRatePercent uint32 = 7
	ExpirySeconds          int64  = 2 * 24 * 60 * 60
	SecondsPerDay          int64  = 86400
)

var (
	ErrInvalidAmount       = errors.New("loan request: principal must be positive")
	ErrInvalidDuration     = errors.New("loan request: duration must be positive")
	ErrInvalidInterestRate = errors.New("loan request: interest rate out of range")
	ErrNotFound            = errors.New("loan request: not found")
	ErrNotActive           = errors.New("loan request: not active")
	ErrNotBorrower         = errors.New("loan request: caller is not the borrower")
	ErrNotYetExpired       = errors.New("loan request: funding window still open")
	ErrWindowExpired       = errors.New("loan request: funding window expired")
	ErrWrongValueSent      = errors.New("loan request: value sent must equal principal")
)

type Status string

const (
	StatusActive    Status = "active"
	StatusFunded    Status = "funded"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Valid reports whether s is one of the four lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusFunded, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// Terminal reports whether s admits no further transition. Active is the only
// non-terminal state.
func (s Status) Terminal() bool { return s.Valid() && s != StatusActive }

// Request is a borrower's time-boxed ask for a loan, backed by exactly one
// escrowed collateral item while Status == StatusActive. IDs are assigned by
// the ledger's request counter, monotonically increasing from 0; rows are
// never deleted, only status-flagged.
type Request struct {
	ID                  uint64          `gorm:"primaryKey;autoIncrement:false;column:id" json:"id"`
	Borrower            string          `gorm:"size:32;index:idx_loan_requests_borrower" json:"borrower"`
	Principal           decimal.Decimal `gorm:"type:decimal(38,0)" json:"principal"`
	DurationDays        uint32          `gorm:"column:duration_days" json:"duration_days"`
	InterestRatePercent uint32          `gorm:"column:interest_rate_percent" json:"interest_rate_percent"`
	CollateralID        string          `gorm:"size:64;column:collateral_id" json:"collateral_id"`
	CreatedAt           int64           `gorm:"column:created_at" json:"created_at"` // unix seconds
	Status              Status          `gorm:"type:varchar(16)" json:"status"`
	RecordedAt          time.Time       `gorm:"autoCreateTime" json:"-"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"-"`
}

func (Request) TableName() string { return "loan_requests" }

// FundingDeadline is the last instant at which the request may still be
// funded. Funding at exactly the deadline succeeds; expiry requires strictly
// after it.
func (r *Request) FundingDeadline() int64 { return r.CreatedAt + ExpirySeconds }

// Fundable reports whether now is inside the funding window.
func (r *Request) Fundable(now int64) bool { return now <= r.FundingDeadline() }

// Expirable reports whether the funding window has lapsed.
func (r *Request) Expirable(now int64) bool { return now > r.FundingDeadline() }
