package auth

import (
	"context"
	"strings"
	"time"

	"billify.site/internal/user"
	"billify.site/pkg/billify"
	"billify.site/pkg/billify/apperror"
	billifyHTTP "billify.site/pkg/billify/http"
	"billify.site/pkg/billify/http/middleware"
	"billify.site/pkg/billify/logging"
)

const (
	bearerPrefix = "Bearer "

	loginRateLimit  = 20
	loginRateWindow = 30 * time.Minute
)

type userKey struct{}

// UserFrom returns the user authenticated by CheckAuth, or nil.
func UserFrom(ctx context.Context) *user.User {
	u, _ := ctx.Value(userKey{}).(*user.User)
	return u
}

type rolesKey struct{}

func rolesFrom(ctx context.Context) []string {
	roles, _ := ctx.Value(rolesKey{}).([]string)
	return roles
}

// CheckAuth requires a valid Bearer access token whose user still exists. The user
// and the token roles are put on the context and the request logger.
func CheckAuth(store UserStore, tokens *TokenIssuer) func(billify.Handler) billify.Handler {
	return func(next billify.Handler) billify.Handler {
		return func(c *billify.Context) (any, error) {
			header := c.Header("Authorization")

			tokenString, ok := strings.CutPrefix(header, bearerPrefix)
			if !ok || tokenString == "" {
				c.Warn("No token provided")
				return nil, apperror.NewUnauthorized("No token provided", nil)
			}

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				c.Warn("JWT verification failed", logging.Fields{"err": err})
				return nil, apperror.NewUnauthorized("JWT verification failed", nil, apperror.WithCause(err))
			}

			u, err := store.FindUserByID(c, claims.ID)
			if err != nil {
				return nil, err
			}

			if u == nil {
				c.Warn("User no longer exists")
				return nil, apperror.NewUnauthorized("User no longer exists", nil)
			}

			c.Context = context.WithValue(context.WithValue(c.Context, userKey{}, u), rolesKey{}, claims.Roles)
			c.Logger = c.Logger.WithFields(logging.Fields{"userId": u.ID.Hex(), "roles": claims.Roles})

			return next(c)
		}
	}
}

// CheckRole allows the request when the authenticated caller holds any of roles.
func CheckRole(roles ...user.Role) func(billify.Handler) billify.Handler {
	return func(next billify.Handler) billify.Handler {
		return func(c *billify.Context) (any, error) {
			have := rolesFrom(c)

			if UserFrom(c) == nil || have == nil {
				c.Warn("Not authenticated")
				return nil, apperror.NewUnauthorized("Not authenticated", nil)
			}

			for _, h := range have {
				for _, want := range roles {
					if user.Role(h) == want {
						return next(c)
					}
				}
			}

			c.Warn("Access denied")

			return nil, apperror.NewForbidden("Access denied", nil)
		}
	}
}

// LoginLimiter throttles login attempts per client IP.
func LoginLimiter(app *billify.App) billifyHTTP.Middleware {
	settings := app.Container().Settings

	return middleware.RateLimiter(middleware.RateLimiterConfig{
		Name:           "login",
		Max:            loginRateLimit,
		Window:         loginRateWindow,
		Message:        "Too many login attempts from this IP, please try again after 30 minutes",
		TrustedProxies: settings.TrustProxy,
	}, app.Container().Metrics(), app.ErrorWriter())
}
