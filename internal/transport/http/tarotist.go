package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"arcanum/backend/internal/domain"
	"arcanum/backend/internal/service/scheduling"
)

type weeklyRequest struct {
	DayOfWeek *int   `json:"dayOfWeek" binding:"required"`
	StartTime string `json:"startTime" binding:"required"`
	EndTime   string `json:"endTime" binding:"required"`
}

func (s *Server) setWeeklyAvailability(c *gin.Context) {
	var req weeklyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w, err := s.svc.SetWeeklyAvailability(c.Request.Context(), c.GetString(ctxTarotistID), scheduling.WeeklyAvailabilityInput{
		DayOfWeek: *req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		s.writeError(c, "setWeeklyAvailability", err)
		return
	}

	s.log.Info("weekly availability set",
		slog.String("tarotist_id", w.TarotistID),
		slog.Int("day_of_week", w.DayOfWeek),
		slog.String("start_time", w.StartTime),
		slog.String("end_time", w.EndTime),
	)
	c.JSON(http.StatusCreated, toWeeklyJSON(w))
}

func (s *Server) listWeeklyAvailability(c *gin.Context) {
	rows, err := s.svc.ListWeeklyAvailability(c.Request.Context(), c.GetString(ctxTarotistID))
	if err != nil {
		s.writeError(c, "listWeeklyAvailability", err)
		return
	}
	out := make([]weeklyJSON, 0, len(rows))
	for _, w := range rows {
		out = append(out, toWeeklyJSON(w))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) removeWeeklyAvailability(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}
	if err := s.svc.RemoveWeeklyAvailability(c.Request.Context(), c.GetString(ctxTarotistID), id); err != nil {
		s.writeError(c, "removeWeeklyAvailability", err)
		return
	}
	c.Status(http.StatusNoContent)
}

type exceptionRequest struct {
	ExceptionDate string `json:"exceptionDate" binding:"required"`
	ExceptionType string `json:"exceptionType" binding:"required"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	Reason        string `json:"reason"`
}

func (s *Server) addException(c *gin.Context) {
	var req exceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date, err := time.Parse(dateLayout, req.ExceptionDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exceptionDate must be YYYY-MM-DD"})
		return
	}

	ex, err := s.svc.AddException(c.Request.Context(), c.GetString(ctxTarotistID), scheduling.ExceptionInput{
		Date:      date,
		Kind:      domain.ExceptionKind(strings.ToLower(req.ExceptionType)),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
	})
	if err != nil {
		s.writeError(c, "addException", err)
		return
	}

	s.log.Info("availability exception added",
		slog.String("tarotist_id", ex.TarotistID),
		slog.String("exception_date", ex.ExceptionDate.Format(dateLayout)),
		slog.String("kind", string(ex.Kind)),
	)
	c.JSON(http.StatusCreated, toExceptionJSON(ex))
}

func (s *Server) listExceptions(c *gin.Context) {
	now := time.Now().UTC()
	from, to := now, now.AddDate(0, 0, 30)

	if raw := c.Query("startDate"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "startDate must be YYYY-MM-DD"})
			return
		}
		from = parsed
	}
	if raw := c.Query("endDate"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "endDate must be YYYY-MM-DD"})
			return
		}
		to = parsed
	}

	rows, err := s.svc.ListExceptions(c.Request.Context(), c.GetString(ctxTarotistID), from, to)
	if err != nil {
		s.writeError(c, "listExceptions", err)
		return
	}
	out := make([]exceptionJSON, 0, len(rows))
	for _, ex := range rows {
		out = append(out, toExceptionJSON(ex))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) removeException(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}
	if err := s.svc.RemoveException(c.Request.Context(), c.GetString(ctxTarotistID), id); err != nil {
		s.writeError(c, "removeException", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listTarotistSessions(c *gin.Context) {
	sessions, err := s.svc.ListTarotistSessions(c.Request.Context(), c.GetString(ctxTarotistID))
	if err != nil {
		s.writeError(c, "listTarotistSessions", err)
		return
	}
	c.JSON(http.StatusOK, toSessionListJSON(sessions))
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) confirmSession(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	var req notesRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	sess, err := s.svc.ConfirmSession(c.Request.Context(), c.GetString(ctxTarotistID), id, req.Notes)
	if err != nil {
		s.writeError(c, "confirmSession", err)
		return
	}

	s.log.Info("session confirmed",
		slog.String("session_id", sess.ID.String()),
		slog.String("tarotist_id", sess.TarotistID),
	)
	c.JSON(http.StatusOK, toSessionJSON(sess))
}

func (s *Server) completeSession(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	var req notesRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	sess, err := s.svc.CompleteSession(c.Request.Context(), c.GetString(ctxTarotistID), id, req.Notes)
	if err != nil {
		s.writeError(c, "completeSession", err)
		return
	}

	s.log.Info("session completed",
		slog.String("session_id", sess.ID.String()),
		slog.String("tarotist_id", sess.TarotistID),
	)
	c.JSON(http.StatusOK, toSessionJSON(sess))
}

func (s *Server) cancelSessionByTarotist(c *gin.Context) {
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

	sess, err := s.svc.CancelSessionByTarotist(c.Request.Context(), c.GetString(ctxTarotistID), id, req.Reason)
	if err != nil {
		s.writeError(c, "cancelSessionByTarotist", err)
		return
	}

	s.log.Info("session cancelled by tarotist",
		slog.String("session_id", sess.ID.String()),
		slog.String("tarotist_id", sess.TarotistID),
	)
	c.JSON(http.StatusOK, toSessionJSON(sess))
}
