package event

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"nftlend-backend/internal/domain/loanbook"
	"nftlend-backend/internal/domain/request"
)

const (
	TypeRequestCreated   = "lend.request.created"
	TypeRequestCancelled = "lend.request.cancelled"
	TypeRequestExpired   = "lend.request.expired"
	TypeLoanFunded       = "lend.loan.funded"
	TypeLoanRepaid       = "lend.loan.repaid"
	TypeLoanLiquidated   = "lend.loan.liquidated"
)

// Event is one observable ledger transition, appended in the same
// transaction as the transition it describes.
type Event struct {
	ID         string            `gorm:"primaryKey;size:36" json:"id"`
	Type       string            `gorm:"size:64;index" json:"type"`
	Attributes map[string]string `gorm:"serializer:json" json:"attributes"`
	RecordedAt time.Time         `gorm:"autoCreateTime" json:"recorded_at"`
}

func (Event) TableName() string { return "ledger_events" }

// Recorder appends events to the ledger's event log.
type Recorder interface {
	Append(ctx context.Context, e *Event) error
}

func newEvent(eventType string, attrs map[string]string) *Event {
	return &Event{ID: uuid.NewString(), Type: eventType, Attributes: attrs}
}

func requestAttrs(r *request.Request) map[string]string {
	return map[string]string{
		"request_id":    strconv.FormatUint(r.ID, 10),
		"borrower":      r.Borrower,
		"principal":     r.Principal.String(),
		"collateral_id": r.CollateralID,
		"status":        string(r.Status),
	}
}

func loanAttrs(l *loanbook.ActiveLoan) map[string]string {
	return map[string]string{
		"loan_id":       strconv.FormatUint(l.ID, 10),
		"request_id":    strconv.FormatUint(l.RequestID, 10),
		"borrower":      l.Borrower,
		"lender":        l.Lender,
		"principal":     l.Principal.String(),
		"collateral_id": l.CollateralID,
		"deadline":      strconv.FormatInt(l.Deadline, 10),
		"status":        string(l.Status),
	}
}

// NewRequestCreated is emitted once collateral is escrowed and the request
// row exists.
func NewRequestCreated(r *request.Request) *Event {
	return newEvent(TypeRequestCreated, requestAttrs(r))
}

// NewRequestCancelled is emitted when the borrower withdraws an active
// request and the collateral returns.
func NewRequestCancelled(r *request.Request) *Event {
	return newEvent(TypeRequestCancelled, requestAttrs(r))
}

// NewRequestExpired is emitted by the permissionless cleanup path after the
// funding window lapses.
func NewRequestExpired(r *request.Request, caller string) *Event {
	attrs := requestAttrs(r)
	attrs["caller"] = caller
	return newEvent(TypeRequestExpired, attrs)
}

// NewLoanFunded is emitted when a request turns into an active loan.
func NewLoanFunded(l *loanbook.ActiveLoan) *Event {
	return newEvent(TypeLoanFunded, loanAttrs(l))
}

// NewLoanRepaid carries the amount actually settled to the lender.
func NewLoanRepaid(l *loanbook.ActiveLoan, paid string) *Event {
	attrs := loanAttrs(l)
	attrs["amount_paid"] = paid
	return newEvent(TypeLoanRepaid, attrs)
}

// NewLoanLiquidated is emitted when collateral settles to the lender after
// the deadline lapses unpaid.
func NewLoanLiquidated(l *loanbook.ActiveLoan) *Event {
	return newEvent(TypeLoanLiquidated, loanAttrs(l))
}
