package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	httpadp "expense-approval-backend/internal/adapter/http"
	appmw "expense-approval-backend/internal/adapter/middleware"
	"expense-approval-backend/internal/adapter/repository/mysql"
	"expense-approval-backend/internal/config"
	"expense-approval-backend/internal/infrastructure/cache"
	"expense-approval-backend/internal/infrastructure/currency"
	"expense-approval-backend/internal/infrastructure/db"
	"expense-approval-backend/internal/infrastructure/identity"
	"expense-approval-backend/internal/infrastructure/notify"
	ucdashboard "expense-approval-backend/internal/usecase/dashboard"
	ucexpense "expense-approval-backend/internal/usecase/expense"
	ucworkflow "expense-approval-backend/internal/usecase/workflow"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %s", err.Error())
	}

	gdb, err := db.Open(cfg.MySQLDSN())
	if err != nil {
		log.Fatalf("mysql: %s", err.Error())
	}

	rdb, err := cache.Open(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis: %s", err.Error())
	}

	// repositories
	expenseRepo := mysql.NewExpenseRepository(gdb)
	auditRepo := mysql.NewAuditRepository(gdb)
	uow := mysql.NewGormUoW(gdb)

	// infrastructure services
	converter := currency.NewClient(cfg.ExchangeRateAPIURL, rdb, time.Duration(cfg.RateCacheTTLSecs)*time.Second)
	resolver := identity.NewStaticResolver(cfg.MockManagerID, cfg.MockFinanceID, cfg.MockDirectorID)
	notifier := notify.LogNotifier{}

	// usecases
	chain := ucworkflow.NewChainBuilder(ucworkflow.ChainConfig{
		ManagerOnlyMax:    cfg.ManagerOnlyMax,
		ManagerFinanceMax: cfg.ManagerFinanceMax,
	}, resolver)
	workflowUC := ucworkflow.NewUsecase(expenseRepo, auditRepo, uow, chain, ucworkflow.StaticCatalog{}, notifier, cfg.AllowApprovalRestart)
	expenseUC := ucexpense.NewUsecase(expenseRepo, auditRepo, uow, converter, cfg.BaseCurrency)
	dashboardUC := ucdashboard.NewUsecase(expenseRepo)

	// handlers
	h := httpadp.NewHandler()
	eh := httpadp.NewExpenseHandler(expenseUC)
	ah := httpadp.NewApprovalHandler(workflowUC)
	dh := httpadp.NewDashboardHandler(dashboardUC)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Logger(), echomw.Recover())

	e.GET("/health", h.Health)

	idemp := appmw.Idempotency(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second)

	api := e.Group("/api")

	ex := api.Group("/expenses")
	ex.POST("", eh.Create, idemp)
	ex.GET("/my", eh.ListMine)
	ex.GET("/statistics", eh.Statistics)
	ex.GET("/categories", eh.Categories)
	ex.GET("/:expense_id", eh.Get)
	ex.PATCH("/:expense_id", eh.Update, idemp)
	ex.DELETE("/:expense_id", eh.Cancel, idemp)
	ex.GET("/:expense_id/logs", eh.Logs)

	ap := api.Group("/approvals")
	ap.POST("/start/:expense_id", ah.Start, idemp)
	ap.PATCH("/approve/:expense_id", ah.Approve, idemp)
	ap.PATCH("/reject/:expense_id", ah.Reject, idemp)
	ap.GET("/pending", ah.Pending)
	ap.GET("/statistics", ah.Statistics)
	ap.GET("/history/:expense_id", ah.History)
	ap.POST("/rules/:expense_id", ah.ApplyRules, idemp)
	ap.GET("/rules", ah.AvailableRules)
	ap.GET("/rules/summary/:expense_id", ah.RuleSummary)

	dash := api.Group("/dashboard")
	dash.GET("/pending", dh.Pending)
	dash.GET("/history", dh.History)
	dash.GET("/stats", dh.Stats)
	dash.GET("/export", dh.Export)

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
