package payrollrun

import (
	"go-payroll/internal/middleware"
	"go-payroll/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	rdb *redis.Client,
) {
	runs := r.Group("/payroll/runs")
	runs.Use(middleware.AuthMiddleware())
	{
		runs.POST("", middleware.RBACAuthorize(rbacService, "payroll_run", "create"), handler.Create)
		runs.GET("", middleware.RBACAuthorize(rbacService, "payroll_run", "read"), handler.GetAll)
		runs.GET("/:id", middleware.RBACAuthorize(rbacService, "payroll_run", "read"), handler.GetById)
		runs.GET("/:id/lines", middleware.RBACAuthorize(rbacService, "payroll_run", "read"), handler.GetLines)
		runs.DELETE("/:id", middleware.RBACAuthorize(rbacService, "payroll_run", "delete"), handler.Delete)

		runs.POST("/:id/process",
			middleware.RBACAuthorize(rbacService, "payroll_run", "process"),
			middleware.Idempotency(rdb),
			handler.Process,
		)
		runs.POST("/:id/approve", middleware.RBACAuthorize(rbacService, "payroll_run", "approve"), handler.Approve)
		runs.POST("/:id/finalize",
			middleware.RBACAuthorize(rbacService, "payroll_run", "finalize"),
			middleware.Idempotency(rdb),
			handler.Finalize,
		)
		runs.POST("/:id/cancel", middleware.RBACAuthorize(rbacService, "payroll_run", "cancel"), handler.Cancel)
	}

	items := r.Group("/payroll/items")
	items.Use(middleware.AuthMiddleware())
	{
		items.GET("/:id", middleware.RBACAuthorize(rbacService, "payroll_line", "read"), handler.GetLine)
	}
}
