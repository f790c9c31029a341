package http

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts the ledger's full HTTP surface on e.
func RegisterRoutes(e *echo.Echo, h *Handler, rh *RequestHandler, lh *LoanHandler) {
	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/requests", rh.CreateRequest)
	e.GET("/requests", rh.ListRequests)
	e.GET("/requests/:request_id", rh.GetRequest)
	e.POST("/requests/:request_id/cancel", rh.CancelRequest)
	e.POST("/requests/:request_id/expire", rh.ExpireRequest)
	e.POST("/requests/:request_id/fund", rh.FundRequest)

	e.GET("/loans/open", lh.ListOpenLoans)
	e.GET("/loans/:loan_id", lh.GetLoan)
	e.GET("/loans/:loan_id/repay-amount", lh.RepayAmount)
	e.POST("/loans/:loan_id/repay", lh.Repay)
	e.POST("/loans/:loan_id/liquidate", lh.Liquidate)
}
