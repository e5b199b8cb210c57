package httpadapter

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/PabloGalante/advocate/internal/app/advocacy"
	"github.com/PabloGalante/advocate/internal/app/wizard"
	"github.com/PabloGalante/advocate/internal/domain"
	"github.com/PabloGalante/advocate/internal/observability"
)

const profileKey = "profile"

// withRequestContext puts the request id on the request context so the
// services log it.
func withRequestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		ctx := observability.WithRequestID(c.Request().Context(), id)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// withLogging logs every request.
func withLogging(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		observability.LoggerFromContext(c.Request().Context()).Info("http request",
			zap.String("method", c.Request().Method),
			zap.String("route", c.Path()),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
		)
		return nil
	}
}

// withCORS allows calls from the web front-end.
func withCORS() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	})
}

// withProfile resolves an optional bearer token to the signed-in profile.
// A token that does not resolve is rejected.
func (s *Server) withProfile(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || s.accounts == nil {
			return next(c)
		}

		p, err := s.accounts.Authenticate(c.Request().Context(), strings.TrimSpace(token))
		if err != nil {
			return domain.ErrUnauthorized
		}
		c.Set(profileKey, p)
		return next(c)
	}
}

// withSessionAuth upgrades the session when a signed-in user drives it.
func (s *Server) withSessionAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := sessionID(c)
		ctx := observability.WithSessionID(c.Request().Context(), string(id))
		c.SetRequest(c.Request().WithContext(ctx))

		if p := profile(c); p != nil {
			_, err := s.advocacy.Authenticate(ctx, id, p)
			// A locked or busy session is upgraded on a later request.
			if err != nil && !errors.Is(err, wizard.ErrLocked) && !errors.Is(err, advocacy.ErrBusy) {
				return err
			}
		}
		return next(c)
	}
}

func requireProfile(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if profile(c) == nil {
			return domain.ErrUnauthorized
		}
		return next(c)
	}
}

func profile(c echo.Context) *domain.UserProfile {
	p, _ := c.Get(profileKey).(*domain.UserProfile)
	return p
}

func sessionID(c echo.Context) domain.SessionID {
	return domain.SessionID(c.Param("id"))
}
