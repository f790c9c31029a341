package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"nftlend-backend/internal/obs"
	loanUC "nftlend-backend/internal/usecase/loanbook"
)

type LoanHandler struct {
	uc      *loanUC.Usecase
	metrics *obs.Metrics
}

func NewLoanHandler(uc *loanUC.Usecase, m *obs.Metrics) *LoanHandler {
	return &LoanHandler{uc: uc, metrics: m}
}

type repayReq struct {
	ValueSent decimal.Decimal `json:"value_sent" validate:"required,intamount"`
}

// Repay settles an open loan before or at its deadline.
func (h *LoanHandler) Repay(c echo.Context) error {
	started := time.Now()
	caller, ok := callerID(c)
	if !ok {
		return missingCaller(c)
	}
	id, ok := pathID(c, "loan_id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid loan id")
	}
	var req repayReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}

	res, err := h.uc.Repay(c.Request().Context(), loanUC.RepayInput{
		LoanID:    id,
		Caller:    caller,
		ValueSent: req.ValueSent,
	})
	if err != nil {
		code := statusFor(err)
		h.metrics.Observe("repay", resultLabel(code), started)
		return jsonError(c, code, err.Error())
	}
	h.metrics.Observe("repay", "ok", started)
	return c.JSON(http.StatusOK, res)
}

// Liquidate settles collateral to the lender after the deadline lapses.
func (h *LoanHandler) Liquidate(c echo.Context) error {
	started := time.Now()
	caller, ok := callerID(c)
	if !ok {
		return missingCaller(c)
	}
	id, ok := pathID(c, "loan_id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid loan id")
	}
	dto, err := h.uc.Liquidate(c.Request().Context(), id, caller)
	if err != nil {
		code := statusFor(err)
		h.metrics.Observe("liquidate", resultLabel(code), started)
		return jsonError(c, code, err.Error())
	}
	h.metrics.Observe("liquidate", "ok", started)
	return c.JSON(http.StatusOK, dto)
}

// RepayAmount quotes the settlement amount for an open loan.
func (h *LoanHandler) RepayAmount(c echo.Context) error {
	id, ok := pathID(c, "loan_id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid loan id")
	}
	due, err := h.uc.RepayAmount(c.Request().Context(), id)
	if err != nil {
		return jsonError(c, statusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"loan_id": id, "repay_amount": due})
}

// GetLoan returns one loan by id.
func (h *LoanHandler) GetLoan(c echo.Context) error {
	id, ok := pathID(c, "loan_id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid loan id")
	}
	dto, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return jsonError(c, statusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, dto)
}

// ListOpenLoans enumerates loans still open, ascending id order.
func (h *LoanHandler) ListOpenLoans(c echo.Context) error {
	out, err := h.uc.ListOpen(c.Request().Context())
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "enumeration failed")
	}
	h.metrics.SetOpenLoans(len(out))
	return c.JSON(http.StatusOK, out)
}
