package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/raselkhaanlab/accounts/internal/common"
	"github.com/raselkhaanlab/accounts/internal/server/auth"
	"github.com/raselkhaanlab/accounts/internal/server/models"
)

type handlers struct {
	users UserService
	admin AdminService
	db    Pinger
}

type request interface {
	normalize()
	Validate() error
}

// bind decodes the request into req, trims it and validates it. Any failure
// is reported as invalid input.
func bind(c echo.Context, req request) error {
	if err := c.Bind(req); err != nil {
		return common.WrapError(common.KindInvalidInput, "invalid request body", err)
	}
	req.normalize()
	if err := req.Validate(); err != nil {
		return common.WrapError(common.KindInvalidInput, err.Error(), err)
	}
	return nil
}

func tokens(p *auth.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:      p.AccessToken,
		RefreshToken:     p.RefreshToken,
		AccessExpiresAt:  p.AccessExpiresAt.Unix(),
		RefreshExpiresAt: p.RefreshExpiresAt.Unix(),
	}
}

func (h *handlers) register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	u, err := h.users.Register(c.Request().Context(), req.Name, req.Email, req.Password, models.SourceEmail)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, userResponse{User: u})
}

func (h *handlers) login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResponse{tokenResponse: tokens(res.Tokens), User: res.User})
}

func (h *handlers) logout(c echo.Context) error {
	var req refreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.users.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okResponse{OK: true})
}

func (h *handlers) refresh(c echo.Context) error {
	var req refreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	pair, err := h.users.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokens(pair))
}

func (h *handlers) me(c echo.Context) error {
	u, err := CurrentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: u})
}

func (h *handlers) resetPassword(c echo.Context) error {
	u, err := CurrentUser(c)
	if err != nil {
		return err
	}

	var req resetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.users.ResetPassword(c.Request().Context(), u.ID, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okResponse{OK: true})
}

func (h *handlers) listUsers(c echo.Context) error {
	var q listUsersQuery
	if err := bind(c, &q); err != nil {
		return err
	}

	page, err := h.admin.ListUsers(c.Request().Context(), q.Page, q.Limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *handlers) getUser(c echo.Context) error {
	u, err := h.admin.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: u})
}

func (h *handlers) bulkUpdateStatus(c echo.Context) error {
	var req bulkStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	n, err := h.admin.BulkUpdateStatus(c.Request().Context(), req.UserIDs, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, matchedResponse{MatchedCount: n})
}

func (h *handlers) bulkDelete(c echo.Context) error {
	var req bulkDeleteRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	n, err := h.admin.BulkDelete(c.Request().Context(), req.UserIDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deletedResponse{DeletedCount: n})
}

func (h *handlers) live(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (h *handlers) ready(c echo.Context) error {
	if h.db == nil {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
