package main

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	httpadp "nftlend-backend/internal/adapter/http"
	"nftlend-backend/internal/adapter/middleware"
	"nftlend-backend/internal/adapter/repository/mysql"
	"nftlend-backend/internal/config"
	"nftlend-backend/internal/infrastructure/cache"
	"nftlend-backend/internal/infrastructure/db"
	"nftlend-backend/internal/obs"
	loanUC "nftlend-backend/internal/usecase/loanbook"
	requestUC "nftlend-backend/internal/usecase/request"
	"nftlend-backend/pkg/clock"
	"nftlend-backend/pkg/id"
)

func main() {
	log.Printf("nftlend api starting, instance=%s", id.NewID32())

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	if err := mysql.Migrate(gdb); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}

	metrics := obs.NewMetrics()
	clk := clock.System()
	uow := mysql.NewGormUoW(gdb)
	requests := mysql.NewRequestRepository(gdb)
	loans := mysql.NewLoanRepository(gdb)

	ruc := requestUC.NewUsecase(requests, uow, clk, cfg.LedgerAccountID)
	luc := loanUC.NewUsecase(loans, uow, clk, cfg.LedgerAccountID)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Logger(), echomw.Recover())
	e.Use(middleware.Idempotency(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second))

	httpadp.RegisterRoutes(e,
		httpadp.NewHandler(),
		httpadp.NewRequestHandler(ruc, metrics),
		httpadp.NewLoanHandler(luc, metrics),
	)

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
