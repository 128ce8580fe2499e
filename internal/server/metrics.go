package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	analyticsdomain "github.com/smallbiznis/frontdesk/internal/analytics/domain"
	eventdomain "github.com/smallbiznis/frontdesk/internal/event/domain"
)

type trackEventRequest struct {
	EventType      string         `json:"event_type"`
	PageURL        string         `json:"page_url"`
	UserID         string         `json:"user_id"`
	SessionID      string         `json:"session_id"`
	Referrer       string         `json:"referrer"`
	Country        string         `json:"country"`
	DeviceType     string         `json:"device_type"`
	AdditionalData map[string]any `json:"additional_data"`
}

func (s *Server) TrackEvent(c *gin.Context) {
	var req trackEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.EventType) == "" {
		AbortWithError(c, newValidationError("event_type", "event_type_required", "event_type is required"))
		return
	}

	meta := eventdomain.MetaFromRequest(c.Request)
	event, err := s.eventSvc.Track(c.Request.Context(), eventdomain.TrackRequest{
		EventType:      req.EventType,
		PageURL:        req.PageURL,
		UserID:         req.UserID,
		SessionID:      req.SessionID,
		Referrer:       req.Referrer,
		Country:        req.Country,
		DeviceType:     req.DeviceType,
		AdditionalData: req.AdditionalData,
		IPAddress:      meta.IPAddress,
		UserAgent:      meta.UserAgent,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"metric_id": event.ID.String()})
}

func (s *Server) Analytics(c *gin.Context) {
	var query struct {
		StartDate string `form:"start_date"`
		EndDate   string `form:"end_date"`
		EventType string `form:"event_type"`
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
	window = withDefaultWindow(window, s.clock.Now(), s.analyticsConfig().DefaultWindowDays)

	summary, err := s.analyticsSvc.Summarize(c.Request.Context(), analyticsdomain.SummarizeRequest{
		StartDate: window.StartDate,
		EndDate:   window.EndDate,
		EventType: strings.TrimSpace(query.EventType),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
