package httpadapter

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/PabloGalante/advocate/internal/app/advocacy"
	"github.com/PabloGalante/advocate/internal/app/wizard"
	"github.com/PabloGalante/advocate/internal/domain"
)

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type createSessionRequest struct {
	Congress   int      `json:"congress,omitempty"`
	BillType   string   `json:"bill_type,omitempty"`
	BillNumber string   `json:"bill_number,omitempty"`
	CampaignID string   `json:"campaign_id,omitempty"`
	Member     string   `json:"member,omitempty"`
	ZipCode    string   `json:"zip_code,omitempty"`
	Recipients []string `json:"recipients,omitempty"`
}

type selectCandidateRequest struct {
	Index int `json:"index"`
}

type positionRequest struct {
	Position string `json:"position"`
}

type messageRequest struct {
	Body string `json:"body"`
}

type mediaRequest struct {
	URLs []string `json:"urls"`
}

type recipientRequest struct {
	ID string `json:"id"`
}

type deliveryRequest struct {
	Channel string `json:"channel"`
}

type generateRequest struct {
	Tone string `json:"tone,omitempty"`
}

type accountRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accountResponse struct {
	Token string         `json:"token"`
	View  *advocacy.View `json:"view"`
}

type activityResponse struct {
	ID              string             `json:"id"`
	Sender          string             `json:"sender"`
	Stance          string             `json:"stance"`
	Body            string             `json:"body"`
	Recipients      []domain.Recipient `json:"recipients"`
	Bill            string             `json:"bill,omitempty"`
	CampaignID      string             `json:"campaign_id,omitempty"`
	DeliveryChannel string             `json:"delivery_channel"`
	DeliveryStatus  string             `json:"delivery_status"`
	CreatedAt       time.Time          `json:"created_at"`
}

// ─────────────────────────────────────────────
// Session lifecycle
// ─────────────────────────────────────────────

func (s *Server) handleCreateSession(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON body")
	}

	in := advocacy.StartSessionInput{
		CampaignID: strings.TrimSpace(req.CampaignID),
		MemberID:   strings.TrimSpace(req.Member),
		ZipCode:    req.ZipCode,
		Preselect:  req.Recipients,
		Profile:    profile(c),
	}
	if req.Congress != 0 || req.BillType != "" || req.BillNumber != "" {
		ref, err := domain.NewBillRef(req.Congress, req.BillType, req.BillNumber)
		if err != nil {
			return err
		}
		in.Bill = &ref
	}

	v, err := s.advocacy.StartSession(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, v)
}

func (s *Server) handleGetSession(c echo.Context) error {
	return respond(c)(s.advocacy.GetSession(c.Request().Context(), sessionID(c)))
}

func (s *Server) handleContinue(c echo.Context) error {
	return respond(c)(s.advocacy.Continue(c.Request().Context(), sessionID(c)))
}

func (s *Server) handleSkip(c echo.Context) error {
	return respond(c)(s.advocacy.Skip(c.Request().Context(), sessionID(c)))
}

func (s *Server) handleBack(c echo.Context) error {
	return respond(c)(s.advocacy.Back(c.Request().Context(), sessionID(c)))
}

// ─────────────────────────────────────────────
// Verification
// ─────────────────────────────────────────────

func (s *Server) handleSubmitIdentity(c echo.Context) error {
	var req wizard.IdentityQuery
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON body")
	}
	return respond(c)(s.advocacy.SubmitIdentity(c.Request().Context(), sessionID(c), req))
}

func (s *Server) handleSelectCandidate(c echo.Context) error {
	var req selectCandidateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON body")
	}
	return respond(c)(s.advocacy.SelectCandidate(c.Request().Context(), sessionID(c), req.Index))
}

func (s *Server) handleNotMe(c echo.Context) error {
	return respond(c)(s.advocacy.NotMe(c.Request().Context(), sessionID(c)))
}

func (s *Server) handleTryAgain(c echo.Context) error {
	return respond(c)(s.advocacy.TryAgain(c.Request().Context(), sessionID(c)))
}

func (s *Server) handleSubmitManual(c echo.Context) error {
	var req domain.VerificationRecord
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON body")
	}
	return respond(c)(s.advocacy.SubmitManual(c.Request().Context(), sessionID(c), req))
}

func (s *Server) handleManualBack(c echo.Context) error {
	return respond(c)(s.advocacy.ManualBack(c.Request().Context(), sessionID(c)))
}

// ─────────────────────────────────────────────
// Message editing
// ─────────────────────────────────────────────

func (s *Server) handleSetPosition(c echo.Context) error {
	var req positionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON body")
	}
	stance, ok := domain.ParseStance(strings.ToLower(strings.TrimSpace(req.Position)))
	if !ok {
		return fmt.Errorf("%w: position must be support or oppose", domain.ErrValidation)
	}
	return respond(c)(s.advocacy.SetPosition(c.Request().Context(), sessionID(c), stance))
}

func (s *Server) handleGenerate(c echo.Context) error {
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON body")
	}
	return respond(c)(s.advocacy.Generate(c.Request().Context(), sessionID(c), advocacy.GenerateInput{Tone: req.Tone}))
}

func (s *Server) handleSetMessage(c echo.Context) error {
	var req messageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON body")
	}
	return respond(c)(s.advocacy.SetBody(c.Request().Context(), sessionID(c), req.Body))
}

func (s *Server) handleSetMedia(c echo.Context) error {
	var req mediaRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON body")
	}
	return respond(c)(s.advocacy.SetMedia(c.Request().Context(), sessionID(c), req.URLs))
}

func (s *Server) handleAddRecipient(c echo.Context) error {
	var req recipientRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON body")
	}
	return respond(c)(s.advocacy.AddRecipient(c.Request().Context(), sessionID(c), req.ID))
}

func (s *Server) handleRemoveRecipient(c echo.Context) error {
	rid := domain.RecipientID(c.Param("rid"))
	return respond(c)(s.advocacy.RemoveRecipient(c.Request().Context(), sessionID(c), rid))
}

func (s *Server) handleToggleField(c echo.Context) error {
	k, ok := domain.ParseFieldKey(c.Param("field"))
	if !ok {
		return fmt.Errorf("%w: unknown field %q", domain.ErrValidation, c.Param("field"))
	}
	return respond(c)(s.advocacy.ToggleField(c.Request().Context(), sessionID(c), k))
}

func (s *Server) handleSetDelivery(c echo.Context) error {
	var req deliveryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON body")
	}
	ch, ok := domain.ParseDeliveryChannel(req.Channel)
	if !ok {
		return fmt.Errorf("%w: unknown delivery channel %q", domain.ErrValidation, req.Channel)
	}
	return respond(c)(s.advocacy.SetDeliveryChannel(c.Request().Context(), sessionID(c), ch))
}

// GET /sessions/:id/review?page=N&size=M
func (s *Server) handleReview(c echo.Context) error {
	page := queryInt(c, "page", 1)
	size := queryInt(c, "size", 5)
	out, err := s.advocacy.Review(c.Request().Context(), sessionID(c), page, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// ─────────────────────────────────────────────
// Sending and account
// ─────────────────────────────────────────────

// POST /sessions/:id/send[?wait=true]
// Without wait the Sending view is returned at once (202) and the client
// polls; with wait the settled view is returned.
func (s *Server) handleSend(c echo.Context) error {
	ctx := c.Request().Context()
	v, err := s.advocacy.Send(ctx, sessionID(c))
	if err != nil {
		return err
	}
	if wait, _ := strconv.ParseBool(c.QueryParam("wait")); wait {
		settled, err := s.advocacy.AwaitSend(ctx, sessionID(c))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, settled)
	}
	return c.JSON(http.StatusAccepted, v)
}

func (s *Server) handleCreateAccount(c echo.Context) error {
	var req accountRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON body")
	}
	out, err := s.advocacy.CreateAccount(c.Request().Context(), sessionID(c), advocacy.CreateAccountInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, accountResponse{Token: out.Token, View: out.View})
}

// ─────────────────────────────────────────────
// Members and history
// ─────────────────────────────────────────────

// GET /members/search?q=...&limit=N
func (s *Server) handleSearchMembers(c echo.Context) error {
	rs, err := s.advocacy.SearchMembers(c.Request().Context(), c.QueryParam("q"), queryInt(c, "limit", 10))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"members": rs})
}

// GET /me/activities?limit=N
func (s *Server) handleMyActivities(c echo.Context) error {
	p := profile(c)
	acts, err := s.history.ListUserActivities(c.Request().Context(), p.UserID, queryInt(c, "limit", 20))
	if err != nil {
		return err
	}

	out := make([]activityResponse, 0, len(acts))
	for _, a := range acts {
		out = append(out, toActivityResponse(a))
	}
	return c.JSON(http.StatusOK, map[string]any{"activities": out})
}

func toActivityResponse(a *domain.MessageActivity) activityResponse {
	r := activityResponse{
		ID:              string(a.ID),
		Sender:          string(a.Sender),
		Stance:          string(a.Stance),
		Body:            a.Body,
		Recipients:      a.Recipients,
		CampaignID:      a.CampaignID,
		DeliveryChannel: string(a.DeliveryChannel),
		DeliveryStatus:  string(a.DeliveryStatus),
		CreatedAt:       a.CreatedAt,
	}
	if a.Bill != nil {
		r.Bill = a.Bill.String()
	}
	return r
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

// respond writes a view or hands the error to the error handler.
func respond(c echo.Context) func(*advocacy.View, error) error {
	return func(v *advocacy.View, err error) error {
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, v)
	}
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}

func queryInt(c echo.Context, name string, def int) int {
	if n, err := strconv.Atoi(c.QueryParam(name)); err == nil {
		return n
	}
	return def
}
