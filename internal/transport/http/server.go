package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"arcanum/backend/internal/domain"
	"arcanum/backend/internal/service/scheduling"
	"arcanum/backend/internal/store"
)

// Identity headers are stamped by the upstream gateway after it authenticates
// the caller; this service trusts them as-is.
const (
	headerUserID     = "X-User-Id"
	headerUserEmail  = "X-User-Email"
	headerTarotistID = "X-Tarotist-Id"
)

const (
	ctxUserID     = "userID"
	ctxUserEmail  = "userEmail"
	ctxTarotistID = "tarotistID"
)

type schedulingService interface {
	GetAvailableSlots(ctx context.Context, tarotistID string, startDate, endDate time.Time, durationMinutes int) ([]scheduling.Slot, error)
	BookSession(ctx context.Context, userID, userEmail string, in scheduling.BookSessionInput) (domain.Session, error)
	ListUserSessions(ctx context.Context, userID string) ([]domain.Session, error)
	CancelSession(ctx context.Context, userID string, sessionID uuid.UUID, reason string) (domain.Session, error)

	SetWeeklyAvailability(ctx context.Context, tarotistID string, in scheduling.WeeklyAvailabilityInput) (domain.WeeklyAvailability, error)
	ListWeeklyAvailability(ctx context.Context, tarotistID string) ([]domain.WeeklyAvailability, error)
	RemoveWeeklyAvailability(ctx context.Context, tarotistID string, id uuid.UUID) error
	AddException(ctx context.Context, tarotistID string, in scheduling.ExceptionInput) (domain.AvailabilityException, error)
	ListExceptions(ctx context.Context, tarotistID string, from, to time.Time) ([]domain.AvailabilityException, error)
	RemoveException(ctx context.Context, tarotistID string, id uuid.UUID) error
	ListTarotistSessions(ctx context.Context, tarotistID string) ([]domain.Session, error)
	ConfirmSession(ctx context.Context, tarotistID string, sessionID uuid.UUID, notes string) (domain.Session, error)
	CompleteSession(ctx context.Context, tarotistID string, sessionID uuid.UUID, notes string) (domain.Session, error)
	CancelSessionByTarotist(ctx context.Context, tarotistID string, sessionID uuid.UUID, reason string) (domain.Session, error)
}

type Server struct {
	svc schedulingService
	log *slog.Logger
}

func NewServer(svc schedulingService, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		svc: svc,
		log: log.With(slog.String("component", "http.scheduling")),
	}
}

func (s *Server) Routes(r *gin.Engine) {
	pub := r.Group("/scheduling")
	pub.GET("/available-slots", s.getAvailableSlots)

	user := r.Group("/scheduling", requireUser)
	user.POST("/book", s.bookSession)
	user.GET("/my-sessions", s.listMySessions)
	user.POST("/my-sessions/:id/cancel", s.cancelMySession)

	tarotist := r.Group("/tarotist/scheduling", requireTarotist)
	tarotist.POST("/availability/weekly", s.setWeeklyAvailability)
	tarotist.GET("/availability/weekly", s.listWeeklyAvailability)
	tarotist.DELETE("/availability/weekly/:id", s.removeWeeklyAvailability)
	tarotist.POST("/availability/exceptions", s.addException)
	tarotist.GET("/availability/exceptions", s.listExceptions)
	tarotist.DELETE("/availability/exceptions/:id", s.removeException)
	tarotist.GET("/sessions", s.listTarotistSessions)
	tarotist.POST("/sessions/:id/confirm", s.confirmSession)
	tarotist.POST("/sessions/:id/complete", s.completeSession)
	tarotist.POST("/sessions/:id/cancel", s.cancelSessionByTarotist)
}

func requireUser(c *gin.Context) {
	id := c.GetHeader(headerUserID)
	if id == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user identity is required"})
		return
	}
	c.Set(ctxUserID, id)
	c.Set(ctxUserEmail, c.GetHeader(headerUserEmail))
	c.Next()
}

func requireTarotist(c *gin.Context) {
	id := c.GetHeader(headerTarotistID)
	if id == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "tarotist identity is required"})
		return
	}
	c.Set(ctxTarotistID, id)
	c.Next()
}

// writeError maps service and store errors onto the HTTP surface. Policy
// rejections keep their human-readable explanation; everything unexpected
// collapses to an opaque 500.
func (s *Server) writeError(c *gin.Context, route string, err error) {
	log := s.log.With(slog.String("route", route))

	var vErr *scheduling.ValidationError
	if errors.As(err, &vErr) {
		log.Warn("invalid request", slog.Any("err", err))
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
		return
	}

	var cErr *scheduling.ConflictError
	if errors.As(err, &cErr) {
		log.Info("request conflict", slog.Any("err", err))
		c.JSON(http.StatusConflict, gin.H{"error": cErr.Error()})
		return
	}

	if errors.Is(err, store.ErrConflict) {
		log.Info("request conflict", slog.Any("err", err))
		c.JSON(http.StatusConflict, gin.H{"error": "that slot was just taken"})
		return
	}

	if errors.Is(err, store.ErrNotFound) {
		log.Info("not found", slog.Any("err", err))
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	log.Error("request failed", slog.Any("err", err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func parsePathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a UUID"})
		return uuid.Nil, false
	}
	return id, true
}

const dateLayout = "2006-01-02"

type sessionJSON struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"userId"`
	ProviderID         string     `json:"providerId"`
	SessionDate        string     `json:"sessionDate"`
	SessionTime        string     `json:"sessionTime"`
	DurationMinutes    int        `json:"durationMinutes"`
	SessionType        string     `json:"sessionType"`
	Status             string     `json:"status"`
	PriceUsd           float64    `json:"priceUsd"`
	PaymentStatus      string     `json:"paymentStatus"`
	MeetingLink        string     `json:"meetingLink"`
	UserNotes          string     `json:"userNotes,omitempty"`
	ProviderNotes      string     `json:"providerNotes,omitempty"`
	CancellationReason *string    `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	ConfirmedAt        *time.Time `json:"confirmedAt,omitempty"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
}

func toSessionJSON(sess domain.Session) sessionJSON {
	return sessionJSON{
		ID:                 sess.ID.String(),
		UserID:             sess.UserID,
		ProviderID:         sess.TarotistID,
		SessionDate:        sess.SessionDate.Format(dateLayout),
		SessionTime:        sess.SessionTime,
		DurationMinutes:    sess.DurationMinutes,
		SessionType:        string(sess.Kind),
		Status:             string(sess.Status),
		PriceUsd:           float64(sess.PriceCents) / 100,
		PaymentStatus:      string(sess.PaymentStatus),
		MeetingLink:        sess.MeetingLink,
		UserNotes:          sess.UserNotes,
		ProviderNotes:      sess.TarotistNotes,
		CancellationReason: sess.CancellationReason,
		CreatedAt:          sess.CreatedAt,
		ConfirmedAt:        sess.ConfirmedAt,
		CompletedAt:        sess.CompletedAt,
		CancelledAt:        sess.CancelledAt,
	}
}

func toSessionListJSON(sessions []domain.Session) []sessionJSON {
	out := make([]sessionJSON, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, toSessionJSON(sess))
	}
	return out
}

type slotJSON struct {
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"durationMinutes"`
	Available       bool   `json:"available"`
}

type weeklyJSON struct {
	ID        string `json:"id"`
	DayOfWeek int    `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	IsActive  bool   `json:"isActive"`
}

func toWeeklyJSON(w domain.WeeklyAvailability) weeklyJSON {
	return weeklyJSON{
		ID:        w.ID.String(),
		DayOfWeek: w.DayOfWeek,
		StartTime: w.StartTime,
		EndTime:   w.EndTime,
		IsActive:  w.IsActive,
	}
}

type exceptionJSON struct {
	ID            string  `json:"id"`
	ExceptionDate string  `json:"exceptionDate"`
	ExceptionType string  `json:"exceptionType"`
	StartTime     *string `json:"startTime,omitempty"`
	EndTime       *string `json:"endTime,omitempty"`
	Reason        *string `json:"reason,omitempty"`
}

func toExceptionJSON(ex domain.AvailabilityException) exceptionJSON {
	return exceptionJSON{
		ID:            ex.ID.String(),
		ExceptionDate: ex.ExceptionDate.Format(dateLayout),
		ExceptionType: string(ex.Kind),
		StartTime:     ex.StartTime,
		EndTime:       ex.EndTime,
		Reason:        ex.Reason,
	}
}
