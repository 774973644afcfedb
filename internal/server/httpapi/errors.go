package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/raselkhaanlab/accounts/internal/common"
	"github.com/raselkhaanlab/accounts/internal/logging"
)

type errorBody struct {
	Kind    common.Kind `json:"kind"`
	Message string      `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// statusKinds classifies errors raised by echo itself (unknown route, wrong
// method, oversized body) into the service's error kinds.
var statusKinds = map[int]common.Kind{
	http.StatusBadRequest:            common.KindInvalidInput,
	http.StatusUnauthorized:          common.KindTokenInvalid,
	http.StatusNotFound:              common.KindNotFound,
	http.StatusMethodNotAllowed:      common.KindNotFound,
	http.StatusRequestEntityTooLarge: common.KindInvalidInput,
	http.StatusUnsupportedMediaType:  common.KindInvalidInput,
}

// toResponse maps err to a status code and a client-safe body.
func toResponse(err error) (int, errorResponse) {
	var ce *common.Error
	if errors.As(err, &ce) {
		return ce.Kind.Status(), errorResponse{Error: errorBody{Kind: ce.Kind, Message: ce.Message}}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		kind, ok := statusKinds[he.Code]
		if !ok {
			return http.StatusInternalServerError, internalError()
		}
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok {
			msg = s
		}
		return he.Code, errorResponse{Error: errorBody{Kind: kind, Message: msg}}
	}

	return http.StatusInternalServerError, internalError()
}

func internalError() errorResponse {
	return errorResponse{Error: errorBody{Kind: common.KindStoreFailure, Message: common.ErrStoreFailure.Message}}
}

// ErrorHandler writes every error as {"error": {"kind", "message"}}. Failed
// requests are logged by RequestLogger, not here.
func ErrorHandler(log logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := toResponse(err)

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			log.Error(c.Request().Context(), "write error response", "error", werr)
		}
	}
}
