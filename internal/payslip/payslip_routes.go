package payslip

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
	slips := r.Group("/payroll/items/:id")
	slips.Use(middleware.AuthMiddleware())
	{
		slips.POST("/generate-slip", middleware.RBACAuthorize(rbacService, "payslip", "create"), handler.Generate)
		slips.GET("/slip", middleware.RBACAuthorize(rbacService, "payslip", "read"), handler.Download)
	}
}
