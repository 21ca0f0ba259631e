package app

import (
	"os"
	"path/filepath"
	"strconv"

	"go-payroll/internal/adhocevent"
	"go-payroll/internal/attendance"
	"go-payroll/internal/audit"
	"go-payroll/internal/calculation"
	"go-payroll/internal/compensation"
	"go-payroll/internal/employee"
	"go-payroll/internal/messaging/kafka"
	"go-payroll/internal/middleware"
	"go-payroll/internal/payrollrun"
	"go-payroll/internal/payslip"
	"go-payroll/internal/rbac"
	"go-payroll/internal/rbac/infra"
	"go-payroll/internal/shared/counter"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	rbacRepo := rbac.NewRepository(gormDB)
	directory := employee.NewDirectory(gormDB)
	compensationRepo := compensation.NewRepository(gormDB)
	adhocRepo := adhocevent.NewRepository(gormDB)
	payrollRepo := payrollrun.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	summaryProvider := attendance.NewSummaryProvider(gormDB)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer(filepath.Join("internal", "rbac", "infra", "model.conf"))
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer)

	auditor := audit.NewWriter(gormDB, zap.L())

	// --- Services ---
	compensationService := compensation.NewService(gormDB, compensationRepo, directory, auditor)
	adhocService := adhocevent.NewService(gormDB, adhocRepo, directory, auditor)
	payrollService := payrollrun.NewService(
		gormDB,
		payrollRepo,
		directory,
		compensationRepo,
		summaryProvider,
		adhocRepo,
		outboxRepo,
		auditor,
		taxStrategyFromEnv(),
		intFromEnv("PAYROLL_WORKERS", 4),
	)
	slipStorage := payslip.NewLocalStorage(envOr("PAYSLIP_DIR", filepath.Join("data", "payslips")))
	payslipService := payslip.NewService(gormDB, payrollRepo, counterRepo, slipStorage, auditor)

	// --- Handlers ---
	compensationHandler := compensation.NewHandler(compensationService)
	adhocHandler := adhocevent.NewHandler(adhocService)
	payrollHandler := payrollrun.NewHandler(payrollService, rdb)
	payslipHandler := payslip.NewHandler(payslipService)

	// --- Routes Registration ---
	router.Use(middleware.ContextLogger(zap.L()))

	api := router.Group("/api/v1")
	api.Use(middleware.RateLimitByIP(rate.Limit(intFromEnv("RATE_LIMIT_RPS", 50)), intFromEnv("RATE_LIMIT_BURST", 100)))
	{
		compensation.RegisterRoutes(api, compensationHandler, rbacService)
		adhocevent.RegisterRoutes(api, adhocHandler, rbacService)
		payrollrun.RegisterRoutes(api, payrollHandler, rbacService, rdb)
		payslip.RegisterRoutes(api, payslipHandler, rbacService)
	}

	return nil
}

// taxStrategyFromEnv builds the withholding strategy. Without TAX_FLAT_RATE
// the engine withholds nothing; statutory tables belong to a downstream
// integration, not this binary.
func taxStrategyFromEnv() calculation.TaxStrategy {
	rawRate := os.Getenv("TAX_FLAT_RATE")
	if rawRate == "" {
		return calculation.NoTaxStrategy{}
	}
	pct, err := decimal.NewFromString(rawRate)
	if err != nil {
		zap.L().Warn("invalid TAX_FLAT_RATE, withholding disabled", zap.String("value", rawRate))
		return calculation.NoTaxStrategy{}
	}
	exemption := int64(intFromEnv("TAX_MONTHLY_EXEMPTION", 0))
	return calculation.NewFlatRateStrategy(exemption, pct)
}

func intFromEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
