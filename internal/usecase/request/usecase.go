package request

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"nftlend-backend/internal/domain/custody"
	"nftlend-backend/internal/domain/event"
	"nftlend-backend/internal/domain/loanbook"
	domain "nftlend-backend/internal/domain/request"
	"nftlend-backend/internal/domain/uow"
	"nftlend-backend/pkg/clock"
)

// Usecase drives the request half of the ledger: creation takes custody of
// the collateral, and exactly one of fund, cancel or expire moves the request
// out of its only non-terminal state. Every mutating path runs inside one
// unit of work so a failed transfer leg unwinds the staged status flip.
type Usecase struct {
	requests domain.Repository
	uow      uow.UnitOfWork
	clk      clock.Clock
	ledgerID string
}

// NewUsecase wires the read-side repository, the transactional unit of work,
// the clock and the ledger's own escrow identity.
func NewUsecase(requests domain.Repository, tx uow.UnitOfWork, clk clock.Clock, ledgerID string) *Usecase {
	return &Usecase{requests: requests, uow: tx, clk: clk, ledgerID: ledgerID}
}

// notFound maps a record miss onto the domain error; any other repository
// failure passes through unchanged so it does not masquerade as a 404.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

type CreateInput struct {
	Borrower            string          `json:"borrower"`
	Principal           decimal.Decimal `json:"principal"`
	DurationDays        uint32          `json:"duration_days"`
	InterestRatePercent uint32          `json:"interest_rate_percent"`
	CollateralID        string          `json:"collateral_id"`
}

type RequestDTO struct {
	ID                  uint64          `json:"id"`
	Borrower            string          `json:"borrower"`
	Principal           decimal.Decimal `json:"principal"`
	DurationDays        uint32          `json:"duration_days"`
	InterestRatePercent uint32          `json:"interest_rate_percent"`
	CollateralID        string          `json:"collateral_id"`
	CreatedAt           int64           `json:"created_at"`
	Status              string          `json:"status"`
}

func toDTO(r *domain.Request) *RequestDTO {
	return &RequestDTO{
		ID:                  r.ID,
		Borrower:            r.Borrower,
		Principal:           r.Principal,
		DurationDays:        r.DurationDays,
		InterestRatePercent: r.InterestRatePercent,
		CollateralID:        r.CollateralID,
		CreatedAt:           r.CreatedAt,
		Status:              string(r.Status),
	}
}

// Create escrows the caller's collateral item and appends a new Active
// request. The custodian transfer-in happens in the same transaction as the
// insert; if the custodian rejects it, no request row survives.
func (u *Usecase) Create(ctx context.Context, in CreateInput) (*RequestDTO, error) {
	if in.Principal.Sign() <= 0 || !in.Principal.IsInteger() {
		return nil, domain.ErrInvalidAmount
	}
	if in.DurationDays == 0 {
		return nil, domain.ErrInvalidDuration
	}
	if in.InterestRatePercent == 0 || in.InterestRatePercent > domain.MaxInterestRatePercent {
		return nil, domain.ErrInvalidInterestRate
	}

	var dto *RequestDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		holder, err := r.Items.HolderOf(ctx, in.CollateralID)
		if err != nil {
			return err
		}
		if holder != in.Borrower {
			return custody.ErrNotItemHolder
		}
		ok, err := r.Items.IsAuthorized(ctx, in.CollateralID, in.Borrower, u.ledgerID)
		if err != nil {
			return err
		}
		if !ok {
			return custody.ErrItemNotAuthorized
		}

		id, err := r.Counters.Next(ctx, uow.SeqRequest)
		if err != nil {
			return err
		}
		if err := r.Items.Transfer(ctx, in.CollateralID, in.Borrower, u.ledgerID); err != nil {
			return err
		}

		req := &domain.Request{
			ID:                  id,
			Borrower:            in.Borrower,
			Principal:           in.Principal,
			DurationDays:        in.DurationDays,
			InterestRatePercent: in.InterestRatePercent,
			CollateralID:        in.CollateralID,
			CreatedAt:           u.clk.Now().Unix(),
			Status:              domain.StatusActive,
		}
		if err := r.Requests.Create(ctx, req); err != nil {
			return err
		}
		if err := r.Events.Append(ctx, event.NewRequestCreated(req)); err != nil {
			return err
		}
		dto = toDTO(req)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// Cancel lets the borrower withdraw an Active request; the collateral goes
// back to them in the same transaction as the status flip.
func (u *Usecase) Cancel(ctx context.Context, requestID uint64, caller string) (*RequestDTO, error) {
	var dto *RequestDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		req, err := r.Requests.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return notFound(err)
		}
		if req.Status != domain.StatusActive {
			return domain.ErrNotActive
		}
		if req.Borrower != caller {
			return domain.ErrNotBorrower
		}

		req.Status = domain.StatusCancelled
		if err := r.Requests.Save(ctx, req); err != nil {
			return err
		}
		if err := r.Items.Transfer(ctx, req.CollateralID, u.ledgerID, req.Borrower); err != nil {
			return err
		}
		if err := r.Events.Append(ctx, event.NewRequestCancelled(req)); err != nil {
			return err
		}
		dto = toDTO(req)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// Expire finalizes an Active request whose funding window has lapsed and
// returns the collateral to the borrower. It is deliberately permissionless:
// the borrower may be unreachable, and any interested party may trigger the
// refund once the window is over.
func (u *Usecase) Expire(ctx context.Context, requestID uint64, caller string) (*RequestDTO, error) {
	var dto *RequestDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		req, err := r.Requests.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return notFound(err)
		}
		if req.Status != domain.StatusActive {
			return domain.ErrNotActive
		}
		if !req.Expirable(u.clk.Now().Unix()) {
			return domain.ErrNotYetExpired
		}

		req.Status = domain.StatusExpired
		if err := r.Requests.Save(ctx, req); err != nil {
			return err
		}
		if err := r.Items.Transfer(ctx, req.CollateralID, u.ledgerID, req.Borrower); err != nil {
			return err
		}
		if err := r.Events.Append(ctx, event.NewRequestExpired(req, caller)); err != nil {
			return err
		}
		dto = toDTO(req)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

type FundInput struct {
	RequestID uint64
	Lender    string
	ValueSent decimal.Decimal
}

type FundedLoanDTO struct {
	LoanID              uint64          `json:"loan_id"`
	RequestID           uint64          `json:"request_id"`
	Borrower            string          `json:"borrower"`
	Lender              string          `json:"lender"`
	Principal           decimal.Decimal `json:"principal"`
	CollateralID        string          `json:"collateral_id"`
	InterestRatePercent uint32          `json:"interest_rate_percent"`
	StartTime           int64           `json:"start_time"`
	Deadline            int64           `json:"deadline"`
}

// Fund turns an Active request into an ActiveLoan. The lender's value moves
// through the ledger account to the borrower in full; the collateral does not
// move, it stays escrowed until the loan closes. Funding at exactly the
// window boundary succeeds; one second later it is a hard rejection, distinct
// from Expire.
func (u *Usecase) Fund(ctx context.Context, in FundInput) (*FundedLoanDTO, error) {
	var dto *FundedLoanDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		req, err := r.Requests.GetByIDForUpdate(ctx, in.RequestID)
		if err != nil {
			return notFound(err)
		}
		if req.Status != domain.StatusActive {
			return domain.ErrNotActive
		}
		now := u.clk.Now().Unix()
		if !req.Fundable(now) {
			return domain.ErrWindowExpired
		}
		if !in.ValueSent.Equal(req.Principal) {
			return domain.ErrWrongValueSent
		}

		req.Status = domain.StatusFunded
		if err := r.Requests.Save(ctx, req); err != nil {
			return err
		}

		loanID, err := r.Counters.Next(ctx, uow.SeqLoan)
		if err != nil {
			return err
		}
		loan := &loanbook.ActiveLoan{
			ID:                  loanID,
			RequestID:           req.ID,
			Borrower:            req.Borrower,
			Lender:              in.Lender,
			Principal:           req.Principal,
			CollateralID:        req.CollateralID,
			InterestRatePercent: req.InterestRatePercent,
			StartTime:           now,
			Deadline:            loanbook.DeadlineFor(now, req.DurationDays),
			Status:              loanbook.StatusOpen,
		}
		if err := r.Loans.Create(ctx, loan); err != nil {
			return err
		}

		// Value legs: consume the lender's payment, forward the principal in
		// full to the borrower. A failure on either leg aborts the whole call.
		if err := r.Accounts.Transfer(ctx, in.Lender, u.ledgerID, in.ValueSent); err != nil {
			return err
		}
		if err := r.Accounts.Transfer(ctx, u.ledgerID, req.Borrower, req.Principal); err != nil {
			return err
		}

		if err := r.Events.Append(ctx, event.NewLoanFunded(loan)); err != nil {
			return err
		}
		dto = &FundedLoanDTO{
			LoanID:              loan.ID,
			RequestID:           loan.RequestID,
			Borrower:            loan.Borrower,
			Lender:              loan.Lender,
			Principal:           loan.Principal,
			CollateralID:        loan.CollateralID,
			InterestRatePercent: loan.InterestRatePercent,
			StartTime:           loan.StartTime,
			Deadline:            loan.Deadline,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// Get returns a single request by id.
func (u *Usecase) Get(ctx context.Context, requestID uint64) (*RequestDTO, error) {
	req, err := u.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, notFound(err)
	}
	return toDTO(req), nil
}

// ListByBorrower enumerates a borrower's requests, ascending id order.
func (u *Usecase) ListByBorrower(ctx context.Context, borrower string) ([]RequestDTO, error) {
	rows, err := u.requests.ListByBorrower(ctx, borrower)
	if err != nil {
		return nil, err
	}
	return toDTOs(rows), nil
}

// ListAll enumerates every request regardless of status, for lender-side
// discovery, ascending id order.
func (u *Usecase) ListAll(ctx context.Context) ([]RequestDTO, error) {
	rows, err := u.requests.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return toDTOs(rows), nil
}

func toDTOs(rows []domain.Request) []RequestDTO {
	out := make([]RequestDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDTO(&rows[i]))
	}
	return out
}
