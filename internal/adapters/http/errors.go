package httpadapter

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/PabloGalante/advocate/internal/app/advocacy"
	"github.com/PabloGalante/advocate/internal/app/wizard"
	"github.com/PabloGalante/advocate/internal/domain"
	"github.com/PabloGalante/advocate/internal/observability"
)

type errorResponse struct {
	Error string `json:"error"`
}

var conflicts = []error{
	wizard.ErrIllegalTransition,
	wizard.ErrNoPreviousStep,
	wizard.ErrBackNotAllowed,
	wizard.ErrAlreadySending,
	wizard.ErrAlreadySent,
	wizard.ErrNotSending,
	wizard.ErrLocked,
	wizard.ErrFixedRecipient,
	wizard.ErrVerificationState,
	advocacy.ErrBusy,
	domain.ErrConflict,
}

// statusFor maps service errors to HTTP statuses.
func statusFor(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, advocacy.ErrGenerationUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusBadGateway
	}
	for _, target := range conflicts {
		if errors.Is(err, target) {
			return http.StatusConflict
		}
	}
	return http.StatusInternalServerError
}

func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := statusFor(err)
	msg := err.Error()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}
	if status == http.StatusInternalServerError {
		observability.LoggerFromContext(c.Request().Context()).Error("request failed", zap.Error(err))
		msg = "internal server error"
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, errorResponse{Error: msg})
}
