package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"nftlend-backend/internal/obs"
	requestUC "nftlend-backend/internal/usecase/request"
)

type RequestHandler struct {
	uc      *requestUC.Usecase
	metrics *obs.Metrics
}

func NewRequestHandler(uc *requestUC.Usecase, m *obs.Metrics) *RequestHandler {
	return &RequestHandler{uc: uc, metrics: m}
}

type createRequestReq struct {
	Principal           decimal.Decimal `json:"principal" validate:"required,intamount"`
	DurationDays        uint32          `json:"duration_days" validate:"required"`
	InterestRatePercent uint32          `json:"interest_rate_percent" validate:"required"`
	CollateralID        string          `json:"collateral_id" validate:"required,max=64"`
}

// CreateRequest escrows the caller's collateral and opens a loan request.
func (h *RequestHandler) CreateRequest(c echo.Context) error {
	started := time.Now()
	caller, ok := callerID(c)
	if !ok {
		return missingCaller(c)
	}
	var req createRequestReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}

	dto, err := h.uc.Create(c.Request().Context(), requestUC.CreateInput{
		Borrower:            caller,
		Principal:           req.Principal,
		DurationDays:        req.DurationDays,
		InterestRatePercent: req.InterestRatePercent,
		CollateralID:        req.CollateralID,
	})
	if err != nil {
		code := statusFor(err)
		h.metrics.Observe("create", resultLabel(code), started)
		return jsonError(c, code, err.Error())
	}
	h.metrics.Observe("create", "ok", started)
	return c.JSON(http.StatusCreated, dto)
}

// CancelRequest withdraws the caller's own active request.
func (h *RequestHandler) CancelRequest(c echo.Context) error {
	started := time.Now()
	caller, ok := callerID(c)
	if !ok {
		return missingCaller(c)
	}
	id, ok := pathID(c, "request_id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid request id")
	}
	dto, err := h.uc.Cancel(c.Request().Context(), id, caller)
	if err != nil {
		code := statusFor(err)
		h.metrics.Observe("cancel", resultLabel(code), started)
		return jsonError(c, code, err.Error())
	}
	h.metrics.Observe("cancel", "ok", started)
	return c.JSON(http.StatusOK, dto)
}

// ExpireRequest finalizes a lapsed request. Any caller may trigger it.
func (h *RequestHandler) ExpireRequest(c echo.Context) error {
	started := time.Now()
	caller, ok := callerID(c)
	if !ok {
		return missingCaller(c)
	}
	id, ok := pathID(c, "request_id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid request id")
	}
	dto, err := h.uc.Expire(c.Request().Context(), id, caller)
	if err != nil {
		code := statusFor(err)
		h.metrics.Observe("expire", resultLabel(code), started)
		return jsonError(c, code, err.Error())
	}
	h.metrics.Observe("expire", "ok", started)
	return c.JSON(http.StatusOK, dto)
}

type fundRequestReq struct {
	ValueSent decimal.Decimal `json:"value_sent" validate:"required,intamount"`
}

// FundRequest lends against an active request; the caller becomes the lender.
func (h *RequestHandler) FundRequest(c echo.Context) error {
	started := time.Now()
	caller, ok := callerID(c)
	if !ok {
		return missingCaller(c)
	}
	id, ok := pathID(c, "request_id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid request id")
	}
	var req fundRequestReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}

	dto, err := h.uc.Fund(c.Request().Context(), requestUC.FundInput{
		RequestID: id,
		Lender:    caller,
		ValueSent: req.ValueSent,
	})
	if err != nil {
		code := statusFor(err)
		h.metrics.Observe("fund", resultLabel(code), started)
		return jsonError(c, code, err.Error())
	}
	h.metrics.Observe("fund", "ok", started)
	return c.JSON(http.StatusCreated, dto)
}

// GetRequest returns one request by id.
func (h *RequestHandler) GetRequest(c echo.Context) error {
	id, ok := pathID(c, "request_id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid request id")
	}
	dto, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return jsonError(c, statusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, dto)
}

// ListRequests enumerates requests, optionally filtered by borrower.
func (h *RequestHandler) ListRequests(c echo.Context) error {
	borrower := c.QueryParam("borrower")
	if borrower != "" {
		if !reHex32.MatchString(borrower) {
			return jsonError(c, http.StatusBadRequest, "invalid borrower id")
		}
		out, err := h.uc.ListByBorrower(c.Request().Context(), borrower)
		if err != nil {
			return jsonError(c, http.StatusInternalServerError, "enumeration failed")
		}
		return c.JSON(http.StatusOK, out)
	}
	out, err := h.uc.ListAll(c.Request().Context())
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "enumeration failed")
	}
	return c.JSON(http.StatusOK, out)
}
