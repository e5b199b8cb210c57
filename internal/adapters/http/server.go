package httpadapter

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PabloGalante/advocate/internal/app/advocacy"
	"github.com/PabloGalante/advocate/internal/app/history"
	"github.com/PabloGalante/advocate/internal/domain"
)

type Server struct {
	advocacy *advocacy.Service
	history  *history.Service
	accounts domain.AccountProvider
}

// NewServer wires the advocacy API on echo.
func NewServer(svc *advocacy.Service, historySvc *history.Service, accounts domain.AccountProvider) *echo.Echo {
	s := &Server{
		advocacy: svc,
		history:  historySvc,
		accounts: accounts,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(withRequestContext)
	e.Use(withLogging)
	e.Use(withCORS())
	e.Use(s.withProfile)

	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/sessions", s.handleCreateSession)

	// /sessions/:id/...
	g := e.Group("/sessions/:id", s.withSessionAuth)
	g.GET("", s.handleGetSession)
	g.POST("/continue", s.handleContinue)
	g.POST("/skip", s.handleSkip)
	g.POST("/back", s.handleBack)

	g.POST("/verification", s.handleSubmitIdentity)
	g.POST("/verification/select", s.handleSelectCandidate)
	g.POST("/verification/not-me", s.handleNotMe)
	g.POST("/verification/try-again", s.handleTryAgain)
	g.POST("/verification/manual", s.handleSubmitManual)
	g.POST("/verification/manual/back", s.handleManualBack)

	g.PUT("/position", s.handleSetPosition)
	g.POST("/generate", s.handleGenerate)
	g.PUT("/message", s.handleSetMessage)
	g.PUT("/media", s.handleSetMedia)
	g.POST("/recipients", s.handleAddRecipient)
	g.DELETE("/recipients/:rid", s.handleRemoveRecipient)
	g.GET("/review", s.handleReview)
	g.POST("/disclosure/:field", s.handleToggleField)
	g.PUT("/delivery", s.handleSetDelivery)
	g.POST("/send", s.handleSend)
	g.POST("/account", s.handleCreateAccount)

	e.GET("/members/search", s.handleSearchMembers)
	e.GET("/me/activities", s.handleMyActivities, requireProfile)

	return e
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
