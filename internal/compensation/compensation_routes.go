package compensation

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
	comp := r.Group("/compensation")
	comp.Use(middleware.AuthMiddleware())
	{
		comp.GET("/components", middleware.RBACAuthorize(rbacService, "compensation", "read"), handler.ListComponents)
		comp.POST("/components", middleware.RBACAuthorize(rbacService, "compensation", "manage"), handler.CreateComponent)
		comp.POST("/revisions", middleware.RBACAuthorize(rbacService, "compensation", "manage"), handler.Revise)
		comp.GET("/employees/:id/current", middleware.RBACAuthorize(rbacService, "compensation", "read"), handler.GetCurrent)
		comp.GET("/employees/:id/history", middleware.RBACAuthorize(rbacService, "compensation", "read"), handler.GetHistory)
	}
}
