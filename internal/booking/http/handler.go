package http

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/hostel-booking-backend/internal/auth"
	"github.com/nekogravitycat/hostel-booking-backend/internal/booking"
	"github.com/nekogravitycat/hostel-booking-backend/internal/confirmation"
	"github.com/nekogravitycat/hostel-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/hostel-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/hostel-booking-backend/internal/stay"
)

type Handler struct {
	manager       *booking.Manager
	confirmations confirmation.Service
	tokens        *auth.JWTManager
	appURL        string
}

func NewHandler(
	manager *booking.Manager,
	confirmations confirmation.Service,
	tokens *auth.JWTManager,
	appURL string,
) *Handler {
	return &Handler{
		manager:       manager,
		confirmations: confirmations,
		tokens:        tokens,
		appURL:        appURL,
	}
}

// session resolves the :id path parameter. It writes the error response and
// returns false when the session cannot be used.
func (h *Handler) session(c *gin.Context) (*booking.Session, bool) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id", "details": err.Error()})
		return nil, false
	}

	if auth.GetSessionID(c) != req.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "token does not grant access to this session"})
		return nil, false
	}

	s, err := h.manager.Get(req.ID)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if auth.GetRoomID(c) != s.Room().ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "token was issued for another room"})
		return nil, false
	}
	return s, true
}

// respond writes the session state after a mutation, or the mutation's error.
func (h *Handler) respond(c *gin.Context, s *booking.Session, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSessionResponse(s.Snapshot()))
}

func (h *Handler) Open(c *gin.Context) {
	var body OpenSessionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	s, err := h.manager.Open(c.Request.Context(), body.RoomID, body.Language)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.tokens.GenerateSessionToken(s.ID(), body.RoomID)
	if err != nil {
		_ = h.manager.Close(s.ID())
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, OpenSessionResponse{
		Token:   token,
		Session: NewSessionResponse(s.Snapshot()),
	})
}

func (h *Handler) Get(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, NewSessionResponse(s.Snapshot()))
}

func (h *Handler) Close(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id", "details": err.Error()})
		return
	}

	if err := h.manager.Close(req.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) SetDates(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var body SetDatesRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	r, err := stay.Parse(body.CheckIn, body.CheckOut)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dates", "details": err.Error()})
		return
	}

	h.respond(c, s, s.SetDates(r))
}

func (h *Handler) Beds(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, NewBedsResponse(s.Snapshot()))
}

func (h *Handler) RefreshBeds(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.RefreshAvailability(); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusAccepted, NewBedsResponse(s.Snapshot()))
}

func (h *Handler) ToggleBed(c *gin.Context) {
	var uri BedURIRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bed id", "details": err.Error()})
		return
	}

	s, ok := h.session(c)
	if !ok {
		return
	}

	h.respond(c, s, s.ToggleBed(uri.BedID))
}

func (h *Handler) UpdateGuest(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var body UpdateGuestRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	h.respond(c, s, s.UpdateGuest(body.toPatch()))
}

func (h *Handler) SetTerms(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var body SetTermsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	h.respond(c, s, s.SetAgreedToTerms(*body.Agreed))
}

func (h *Handler) Next(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	h.respond(c, s, s.Next())
}

func (h *Handler) Back(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	h.respond(c, s, s.Back())
}

func (h *Handler) Reset(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	h.respond(c, s, s.Reset())
}

func (h *Handler) RefreshQuote(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	h.respond(c, s, s.RefreshQuote())
}

func (h *Handler) Submit(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	conf, err := s.Submit(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, SubmitResponse{
		Confirmation: NewConfirmationResponse(conf),
		Session:      NewSessionResponse(s.Snapshot()),
	})
}

// Download serves the confirmation document as an attachment.
func (h *Handler) Download(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	conf, err := s.Confirmation()
	if err != nil {
		response.Error(c, err)
		return
	}

	stream, stored, err := h.confirmations.Download(c.Request.Context(), conf.Reference)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer stream.Close()

	c.Header("Content-Type", "application/json")
	c.Header("Content-Disposition", "attachment; filename=\""+stored.FileName()+"\"")

	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, stream); err != nil {
		// Response already started
		slog.Warn("confirmation download interrupted", "reference", conf.Reference, "error", err)
	}
}

func (h *Handler) Share(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var body ShareRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}

	conf, err := s.Confirmation()
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, confirmation.SinkFor(body.NativeAvailable, h.appURL).Share(conf))
}
