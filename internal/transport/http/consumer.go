package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"arcanum/backend/internal/domain"
	"arcanum/backend/internal/service/scheduling"
)

func (s *Server) getAvailableSlots(c *gin.Context) {
	providerID := c.Query("providerId")
	if providerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "providerId is required"})
		return
	}

	startDate, err := time.Parse(dateLayout, c.Query("startDate"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "startDate must be YYYY-MM-DD"})
		return
	}
	endDate, err := time.Parse(dateLayout, c.Query("endDate"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endDate must be YYYY-MM-DD"})
		return
	}

	duration := scheduling.SlotGranularityMinutes
	if raw := c.Query("durationMinutes"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "durationMinutes must be a number"})
			return
		}
		duration = d
	}

	slots, err := s.svc.GetAvailableSlots(c.Request.Context(), providerID, startDate, endDate, duration)
	if err != nil {
		s.writeError(c, "getAvailableSlots", err)
		return
	}

	out := make([]slotJSON, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slotJSON{
			Date:            slot.Date,
			Time:            slot.Time,
			DurationMinutes: slot.DurationMinutes,
			Available:       slot.Available,
		})
	}

	s.log.Debug("slots listed",
		slog.String("provider_id", providerID),
		slog.Int("count", len(out)),
	)
	c.JSON(http.StatusOK, out)
}

type bookRequest struct {
	ProviderID      string `json:"providerId" binding:"required"`
	SessionDate     string `json:"sessionDate" binding:"required"`
	SessionTime     string `json:"sessionTime" binding:"required"`
	DurationMinutes int    `json:"durationMinutes" binding:"required"`
	SessionType     string `json:"sessionType" binding:"required"`
	UserNotes       string `json:"userNotes"`
}

func (s *Server) bookSession(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionDate, err := time.Parse(dateLayout, req.SessionDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionDate must be YYYY-MM-DD"})
		return
	}

	sess, err := s.svc.BookSession(c.Request.Context(), c.GetString(ctxUserID), c.GetString(ctxUserEmail), scheduling.BookSessionInput{
		TarotistID:      req.ProviderID,
		SessionDate:     sessionDate,
		SessionTime:     req.SessionTime,
		DurationMinutes: req.DurationMinutes,
		Kind:            domain.SessionKind(req.SessionType),
		UserNotes:       req.UserNotes,
	})
	if err != nil {
		s.writeError(c, "bookSession", err)
		return
	}

	s.log.Info("session booked",
		slog.String("session_id", sess.ID.String()),
		slog.String("user_id", sess.UserID),
		slog.String("provider_id", sess.TarotistID),
		slog.String("session_date", sess.SessionDate.Format(dateLayout)),
		slog.String("session_time", sess.SessionTime),
	)
	c.JSON(http.StatusCreated, toSessionJSON(sess))
}

func (s *Server) listMySessions(c *gin.Context) {
	sessions, err := s.svc.ListUserSessions(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		s.writeError(c, "listMySessions", err)
		return
	}
	c.JSON(http.StatusOK, toSessionListJSON(sessions))
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) cancelMySession(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	var req cancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	sess, err := s.svc.CancelSession(c.Request.Context(), c.GetString(ctxUserID), id, req.Reason)
	if err != nil {
		s.writeError(c, "cancelMySession", err)
		return
	}

	s.log.Info("session cancelled by user",
		slog.String("session_id", sess.ID.String()),
		slog.String("user_id", sess.UserID),
	)
	c.JSON(http.StatusOK, toSessionJSON(sess))
}
