package app

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go-payroll/internal/audit"
	"go-payroll/internal/events"
	"go-payroll/internal/messaging/kafka"
	"go-payroll/internal/payrollrun"
	"go-payroll/internal/payslip"
	"go-payroll/internal/shared/connection"
	"go-payroll/internal/shared/counter"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunConsumer renders payslips for payroll.payslip.requested messages.
// Generation is idempotent, so redelivery after a crash is harmless.
func RunConsumer() error {
	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	payrollRepo := payrollrun.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	storage := payslip.NewLocalStorage(envOr("PAYSLIP_DIR", filepath.Join("data", "payslips")))
	auditor := audit.NewWriter(gormDB, zap.L())
	payslipService := payslip.NewService(gormDB, payrollRepo, counterRepo, storage, auditor)

	handler := func(ctx context.Context, msg kafkago.Message) error {
		var evt events.PayslipRequested
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			zap.L().Error("dropping undecodable payslip request",
				zap.String("key", string(msg.Key)),
				zap.Error(err),
			)
			return nil
		}

		_, err := payslipService.Generate(ctx, evt.CompanyID, evt.PayrollLineID)
		if err != nil {
			zap.L().Error("payslip generation failed",
				zap.String("payroll_line_id", evt.PayrollLineID),
				zap.Error(err),
			)
			return err
		}

		zap.L().Info("payslip generated",
			zap.String("payroll_line_id", evt.PayrollLineID),
			zap.String("run_id", evt.RunID),
		)
		return nil
	}

	consumer := kafka.NewConsumer(
		[]string{os.Getenv("KAFKA_BROKER")},
		"go-payroll-payslip",
		events.TopicPayslipRequested,
		handler,
		zap.L(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return consumer.Run(ctx)
}
