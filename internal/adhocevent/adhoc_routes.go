package adhocevent

import (
	"go-payroll/internal/middleware"
	"go-payroll/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
) {
	payroll := r.Group("/payroll")
	payroll.Use(middleware.AuthMiddleware())
	{
		payroll.POST("/bonuses", middleware.RBACAuthorize(rbacService, "adhoc_event", "create"), handler.CreateBonus)
		payroll.POST("/loans", middleware.RBACAuthorize(rbacService, "adhoc_event", "create"), handler.CreateLoan)
		payroll.POST("/reimbursements", middleware.RBACAuthorize(rbacService, "adhoc_event", "create"), handler.CreateReimbursement)

		payroll.GET("/adhoc-events", middleware.RBACAuthorize(rbacService, "adhoc_event", "read"), handler.GetAll)
		payroll.GET("/adhoc-events/:id", middleware.RBACAuthorize(rbacService, "adhoc_event", "read"), handler.GetById)
		payroll.POST("/adhoc-events/:id/approve", middleware.RBACAuthorize(rbacService, "adhoc_event", "approve"), handler.Approve)
		payroll.POST("/adhoc-events/:id/reject", middleware.RBACAuthorize(rbacService, "adhoc_event", "approve"), handler.Reject)
	}
}
