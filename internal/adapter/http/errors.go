package http

import (
	"errors"
	"net/http"

	"nftlend-backend/internal/domain/custody"
	loanDomain "nftlend-backend/internal/domain/loanbook"
	requestDomain "nftlend-backend/internal/domain/request"
)

// statusFor maps domain rejections onto HTTP statuses following the error
// taxonomy: bad input 400, wrong caller 403, missing record 404, stale view
// of the state machine 409, transfer failure 422. Anything unknown is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, requestDomain.ErrInvalidAmount),
		errors.Is(err, requestDomain.ErrInvalidDuration),
		errors.Is(err, requestDomain.ErrInvalidInterestRate),
		errors.Is(err, requestDomain.ErrWrongValueSent),
		errors.Is(err, loanDomain.ErrInsufficientPayment):
		return http.StatusBadRequest
	case errors.Is(err, requestDomain.ErrNotBorrower),
		errors.Is(err, loanDomain.ErrNotBorrower),
		errors.Is(err, loanDomain.ErrNotLender),
		errors.Is(err, custody.ErrNotItemHolder),
		errors.Is(err, custody.ErrItemNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, requestDomain.ErrNotFound),
		errors.Is(err, loanDomain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, requestDomain.ErrNotActive),
		errors.Is(err, requestDomain.ErrNotYetExpired),
		errors.Is(err, requestDomain.ErrWindowExpired),
		errors.Is(err, loanDomain.ErrAlreadyClosed),
		errors.Is(err, loanDomain.ErrLoanExpired),
		errors.Is(err, loanDomain.ErrNotYetExpired):
		return http.StatusConflict
	case errors.Is(err, custody.ErrUnknownItem),
		errors.Is(err, custody.ErrUnknownAccount),
		errors.Is(err, custody.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func resultLabel(code int) string {
	switch {
	case code < 400:
		return "ok"
	case code < 500:
		return "rejected"
	default:
		return "error"
	}
}
