package httpapi

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/raselkhaanlab/accounts/internal/common"
	"github.com/raselkhaanlab/accounts/internal/logging"
	"github.com/raselkhaanlab/accounts/internal/server/models"
)

const userKey = "user"

// RequireAuth checks the bearer access token and the account status on every
// request and stores the user in the echo context.
func RequireAuth(users UserService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(common.AuthorizationHeader)
			if !strings.HasPrefix(header, common.BearerPrefix) {
				return common.NewError(common.KindTokenInvalid, "missing bearer token")
			}
			token := strings.TrimSpace(strings.TrimPrefix(header, common.BearerPrefix))

			ctx := c.Request().Context()
			u, err := users.Authenticate(ctx, token)
			if err != nil {
				return err
			}

			l := logging.FromContext(ctx, nil).With("user_id", u.ID)
			c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l)))
			c.Set(userKey, u)
			return next(c)
		}
	}
}

// CurrentUser returns the user stored by RequireAuth.
func CurrentUser(c echo.Context) (*models.User, error) {
	u, ok := c.Get(userKey).(*models.User)
	if !ok || u == nil {
		return nil, common.NewError(common.KindTokenInvalid, "not authenticated")
	}
	return u, nil
}

// RequireAdminKey compares the X-Admin-Key header against key in constant time.
func RequireAdminKey(key string) echo.MiddlewareFunc {
	want := []byte(key)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := []byte(c.Request().Header.Get(common.AdminKeyHeader))
			if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
				return common.NewError(common.KindInvalidCredentials, "invalid admin key")
			}
			return next(c)
		}
	}
}

// RequestLogger puts a request-scoped logger into the request context and
// logs one line per request once the error handler has written the response.
func RequestLogger(base logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = req.Header.Get(echo.HeaderXRequestID)
			}

			l := base.With(
				"method", req.Method,
				"path", c.Path(),
				"remote_ip", c.RealIP(),
			)
			if rid != "" {
				l = l.With("request_id", rid)
			}

			ctx := logging.IntoContext(req.Context(), l)
			c.SetRequest(req.WithContext(ctx))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			status := c.Response().Status
			dur := time.Since(start).Milliseconds()

			// RequireAuth may have added user_id
			l = logging.FromContext(c.Request().Context(), l)
			switch {
			case status >= 500:
				l.Error(ctx, "request completed", "status", status, "duration_ms", dur, "error", errString(err))
			case status >= 400:
				l.Warn(ctx, "request completed", "status", status, "duration_ms", dur, "kind", string(common.KindOf(err)))
			default:
				l.Info(ctx, "request completed", "status", status, "duration_ms", dur, "bytes", c.Response().Size)
			}
			return nil
		}
	}
}

// errString includes the underlying cause, which never reaches the client.
func errString(err error) string {
	if err == nil {
		return ""
	}
	var e *common.Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Error() + ": " + e.Err.Error()
	}
	return err.Error()
}
