package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	contactdomain "github.com/smallbiznis/frontdesk/internal/contact/domain"
	eventdomain "github.com/smallbiznis/frontdesk/internal/event/domain"
	"github.com/smallbiznis/frontdesk/internal/observability/logger"
	"go.uber.org/zap"
)

const submitAcknowledgement = "Contact form submitted successfully. We will respond within 24 hours."

type submitContactRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	Urgent    bool   `json:"urgent"`

	CurrentPage string `json:"current_page"`
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id"`

	CompletionTimeSeconds *int           `json:"completion_time_seconds"`
	FieldInteractions     map[string]any `json:"field_interactions"`
	ConversionData        map[string]any `json:"conversion_data"`
	AbandonmentPoint      string         `json:"abandonment_point"`
}

func (s *Server) SubmitContact(c *gin.Context) {
	var req submitContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	meta := eventdomain.MetaFromRequest(c.Request)

	window := s.analyticsConfig().RateLimits.ContactSubmit
	limited, err := s.limiter.IsLimited(ctx, meta.IPAddress, eventdomain.TypeContactFormSubmit, window.Limit, window.WindowMinutes)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if limited {
		logger.Security(ctx).Warn("contact submission rate limit exceeded",
			zap.Int("limit", window.Limit),
			zap.Int("window_minutes", window.WindowMinutes),
		)
		s.obsMetrics.RecordRateLimitDenied(ctx, normalizeRateLimitEndpoint(c), rateLimitReasonWindow)
		AbortWithError(c, ErrRateLimited)
		return
	}

	created, err := s.contactSvc.Create(ctx, contactdomain.SubmitRequest{
		FirstName:             req.FirstName,
		LastName:              req.LastName,
		Email:                 req.Email,
		Phone:                 req.Phone,
		Company:               req.Company,
		Subject:               req.Subject,
		Message:               req.Message,
		Urgent:                req.Urgent,
		CurrentPage:           req.CurrentPage,
		SessionID:             req.SessionID,
		UserID:                req.UserID,
		CompletionTimeSeconds: req.CompletionTimeSeconds,
		FieldInteractions:     req.FieldInteractions,
		ConversionData:        req.ConversionData,
		AbandonmentPoint:      req.AbandonmentPoint,
		IPAddress:             meta.IPAddress,
		UserAgent:             meta.UserAgent,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"request_id": created.ID,
		"message":    submitAcknowledgement,
	})
}

func (s *Server) ListContactRequests(c *gin.Context) {
	var query struct {
		Status    string `form:"status"`
		Priority  string `form:"priority"`
		StartDate string `form:"start_date"`
		EndDate   string `form:"end_date"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	window, err := parseDateWindow(query.StartDate, query.EndDate)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.contactSvc.List(c.Request.Context(), contactdomain.ListRequest{
		Status:    strings.TrimSpace(query.Status),
		Priority:  strings.TrimSpace(query.Priority),
		StartDate: window.StartDate,
		EndDate:   window.EndDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetContactRequest(c *gin.Context) {
	detail, err := s.contactSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (s *Server) UpdateContactStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	updated, err := s.contactSvc.SetStatus(c.Request.Context(), contactdomain.SetStatusRequest{
		ID:     c.Param("id"),
		Status: req.Status,
		Notes:  req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Status updated successfully",
		"request": updated,
	})
}

type annotateRequest struct {
	AssignedTo *string `json:"assigned_to"`
	Priority   *string `json:"priority"`
	Notes      *string `json:"notes"`
}

func (s *Server) AnnotateContactRequest(c *gin.Context) {
	var req annotateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	updated, err := s.contactSvc.Annotate(c.Request.Context(), contactdomain.AnnotateRequest{
		ID:         c.Param("id"),
		AssignedTo: req.AssignedTo,
		Priority:   req.Priority,
		Notes:      req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": updated})
}
