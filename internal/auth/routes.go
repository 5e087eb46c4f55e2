package auth

import (
	"billify.site/internal/user"
	"billify.site/pkg/billify"
)

// Routes mounts the account endpoints on app.
func Routes(app *billify.App, h *Handler) {
	authenticated := CheckAuth(h.store, h.tokens)
	admin := CheckRole(user.RoleAdmin)

	app.POST("/api/v1/auth/register", h.Register)
	app.GET("/api/v1/auth/verify/{emailToken}/{userId}", h.Verify)
	app.POST("/api/v1/auth/login", h.Login, LoginLimiter(app))
	app.GET("/api/v1/auth/me", authenticated(h.Me))
	app.GET("/api/v1/users/{id}", authenticated(admin(h.GetUser)))
}
