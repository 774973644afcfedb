package httpapi

import (
	"github.com/labstack/echo/v4"
)

// Register mounts every route on e. Admin routes exist only when an admin
// key is configured.
func Register(e *echo.Echo, d Deps) {
	h := &handlers{users: d.Users, admin: d.Admin, db: d.DB}

	e.GET("/health/live", h.live)
	e.GET("/health/ready", h.ready)

	e.POST("/register", h.register)
	e.POST("/login", h.login)
	e.POST("/logout", h.logout)
	e.POST("/refresh-token", h.refresh)

	// Attached per route so unknown paths still answer 404.
	requireAuth := RequireAuth(d.Users)
	e.GET("/me", h.me, requireAuth)
	e.POST("/reset-password", h.resetPassword, requireAuth)

	if d.AdminKey == "" || d.Admin == nil {
		return
	}

	admin := e.Group("/admin")
	admin.Use(RequireAdminKey(d.AdminKey))
	admin.GET("/users", h.listUsers)
	admin.GET("/users/:id", h.getUser)
	admin.PATCH("/users/status", h.bulkUpdateStatus)
	admin.POST("/users/bulk-delete", h.bulkDelete)
}
