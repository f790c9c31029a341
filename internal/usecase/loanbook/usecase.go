package loanbook

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"nftlend-backend/internal/domain/event"
	domain "nftlend-backend/internal/domain/loanbook"
	"nftlend-backend/internal/domain/uow"
	"nftlend-backend/pkg/clock"
)

// Usecase drives the active-loan half of the ledger. The deadline is the
// sole discriminator between the two legal closing actions: repay up to and
// including the deadline instant, liquidate strictly after it.
type Usecase struct {
	loans    domain.Repository
	uow      uow.UnitOfWork
	clk      clock.Clock
	ledgerID string
}

func NewUsecase(loans domain.Repository, tx uow.UnitOfWork, clk clock.Clock, ledgerID string) *Usecase {
	return &Usecase{loans: loans, uow: tx, clk: clk, ledgerID: ledgerID}
}

// notFound maps a record miss onto the domain error; any other repository
// failure passes through unchanged so it does not masquerade as a 404.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

type LoanDTO struct {
	ID                  uint64          `json:"id"`
	RequestID           uint64          `json:"request_id"`
	Borrower            string          `json:"borrower"`
	Lender              string          `json:"lender"`
	Principal           decimal.Decimal `json:"principal"`
	CollateralID        string          `json:"collateral_id"`
	InterestRatePercent uint32          `json:"interest_rate_percent"`
	StartTime           int64           `json:"start_time"`
	Deadline            int64           `json:"deadline"`
	Status              string          `json:"status"`
}

func toDTO(l *domain.ActiveLoan) *LoanDTO {
	return &LoanDTO{
		ID:                  l.ID,
		RequestID:           l.RequestID,
		Borrower:            l.Borrower,
		Lender:              l.Lender,
		Principal:           l.Principal,
		CollateralID:        l.CollateralID,
		InterestRatePercent: l.InterestRatePercent,
		StartTime:           l.StartTime,
		Deadline:            l.Deadline,
		Status:              string(l.Status),
	}
}

// RepayAmount returns principal + floor(principal*rate/100) for an open
// loan. Once the loan closes the quote is gone and the call reports
// ErrAlreadyClosed.
func (u *Usecase) RepayAmount(ctx context.Context, loanID uint64) (decimal.Decimal, error) {
	l, err := u.loans.GetByID(ctx, loanID)
	if err != nil {
		return decimal.Zero, notFound(err)
	}
	if l.Closed() {
		return decimal.Zero, domain.ErrAlreadyClosed
	}
	return l.RepaymentDue(), nil
}

type RepayInput struct {
	LoanID    uint64
	Caller    string
	ValueSent decimal.Decimal
}

type RepayResult struct {
	Loan       *LoanDTO        `json:"loan"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	Refund     decimal.Decimal `json:"refund"`
}

// Repay settles the loan before or at the deadline. Three transfer legs and
// the status flip form one atomic unit: the due amount to the lender, any
// excess back to the caller, and the collateral back to the borrower.
func (u *Usecase) Repay(ctx context.Context, in RepayInput) (*RepayResult, error) {
	var res *RepayResult
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByIDForUpdate(ctx, in.LoanID)
		if err != nil {
			return notFound(err)
		}
		if l.Closed() {
			return domain.ErrAlreadyClosed
		}
		if l.Borrower != in.Caller {
			return domain.ErrNotBorrower
		}
		if !l.Repayable(u.clk.Now().Unix()) {
			return domain.ErrLoanExpired
		}
		due := l.RepaymentDue()
		if in.ValueSent.Cmp(due) < 0 {
			return domain.ErrInsufficientPayment
		}

		l.Status = domain.StatusRepaid
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		if err := r.Accounts.Transfer(ctx, in.Caller, u.ledgerID, in.ValueSent); err != nil {
			return err
		}
		if err := r.Accounts.Transfer(ctx, u.ledgerID, l.Lender, due); err != nil {
			return err
		}
		refund := in.ValueSent.Sub(due)
		if refund.Sign() > 0 {
			if err := r.Accounts.Transfer(ctx, u.ledgerID, in.Caller, refund); err != nil {
				return err
			}
		}
		if err := r.Items.Transfer(ctx, l.CollateralID, u.ledgerID, l.Borrower); err != nil {
			return err
		}
		if err := r.Events.Append(ctx, event.NewLoanRepaid(l, due.String())); err != nil {
			return err
		}
		res = &RepayResult{Loan: toDTO(l), AmountPaid: due, Refund: refund}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Liquidate settles the collateral claim to the lender once the deadline has
// strictly passed. No value moves; the lender already carried the
// principal's risk.
func (u *Usecase) Liquidate(ctx context.Context, loanID uint64, caller string) (*LoanDTO, error) {
	var dto *LoanDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByIDForUpdate(ctx, loanID)
		if err != nil {
			return notFound(err)
		}
		if l.Closed() {
			return domain.ErrAlreadyClosed
		}
		if !l.Liquidatable(u.clk.Now().Unix()) {
			return domain.ErrNotYetExpired
		}
		if l.Lender != caller {
			return domain.ErrNotLender
		}

		l.Status = domain.StatusLiquidated
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		if err := r.Items.Transfer(ctx, l.CollateralID, u.ledgerID, l.Lender); err != nil {
			return err
		}
		if err := r.Events.Append(ctx, event.NewLoanLiquidated(l)); err != nil {
			return err
		}
		dto = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// Get returns a single loan by id.
func (u *Usecase) Get(ctx context.Context, loanID uint64) (*LoanDTO, error) {
	l, err := u.loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, notFound(err)
	}
	return toDTO(l), nil
}

// ListOpen enumerates loans still open, ascending id order.
func (u *Usecase) ListOpen(ctx context.Context) ([]LoanDTO, error) {
	rows, err := u.loans.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]LoanDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDTO(&rows[i]))
	}
	return out, nil
}
