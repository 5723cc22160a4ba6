package scheduling

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"arcanum/backend/internal/domain"
	"arcanum/backend/internal/store"
)

const (
	// SlotGranularityMinutes is the fixed spacing between candidate slot
	// starts, independent of the requested duration.
	SlotGranularityMinutes = 30

	// MinBookingLead is the minimum notice between "now" and a slot start
	// for it to be bookable.
	MinBookingLead = 2 * time.Hour

	// UserCancelLead is the minimum notice for a consumer-initiated
	// cancellation. Tarotists may cancel at any time before the start.
	UserCancelLead = 24 * time.Hour
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// ConflictError signals that the request lost to existing state (an occupied
// slot, a duplicate exception, an outstanding pending session). The caller is
// expected to retry against freshly fetched availability.
type ConflictError struct {
	msg string
}

func (e *ConflictError) Error() string {
	return e.msg
}

func conflictError(msg string) error {
	return &ConflictError{msg: msg}
}

type Service struct {
	repo   store.SchedulingRepository
	links  MeetingLinks
	notify Notifier
	log    *slog.Logger
	now    func() time.Time
}

func NewService(repo store.SchedulingRepository, links MeetingLinks, notify Notifier, log *slog.Logger) *Service {
	if links == nil {
		links = PlaceholderMeetingLinks{}
	}
	if notify == nil {
		notify = NopNotifier{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:   repo,
		links:  links,
		notify: notify,
		log:    log.With(slog.String("component", "service.scheduling")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func validDuration(minutes int) bool {
	switch minutes {
	case 30, 60, 90:
		return true
	}
	return false
}

type WeeklyAvailabilityInput struct {
	DayOfWeek int
	StartTime string
	EndTime   string
}

// SetWeeklyAvailability writes the recurring open interval for one day of the
// week, replacing any previous row for that (tarotist, day).
func (s *Service) SetWeeklyAvailability(ctx context.Context, tarotistID string, in WeeklyAvailabilityInput) (domain.WeeklyAvailability, error) {
	if tarotistID == "" {
		return domain.WeeklyAvailability{}, validationError("tarotist_id is required")
	}
	if in.DayOfWeek < 0 || in.DayOfWeek > 6 {
		return domain.WeeklyAvailability{}, validationError("day_of_week must be between 0 (Sunday) and 6 (Saturday)")
	}
	startMin, err := domain.ParseTimeOfDay(in.StartTime)
	if err != nil {
		return domain.WeeklyAvailability{}, validationError("start_time must be HH:MM")
	}
	endMin, err := domain.ParseTimeOfDay(in.EndTime)
	if err != nil {
		return domain.WeeklyAvailability{}, validationError("end_time must be HH:MM")
	}
	if startMin >= endMin {
		return domain.WeeklyAvailability{}, validationError("start_time must be before end_time")
	}

	return s.repo.UpsertWeeklyAvailability(ctx, domain.WeeklyAvailability{
		TarotistID: tarotistID,
		DayOfWeek:  in.DayOfWeek,
		StartTime:  in.StartTime,
		EndTime:    in.EndTime,
		IsActive:   true,
	})
}

func (s *Service) ListWeeklyAvailability(ctx context.Context, tarotistID string) ([]domain.WeeklyAvailability, error) {
	if tarotistID == "" {
		return nil, validationError("tarotist_id is required")
	}
	return s.repo.ListWeeklyAvailability(ctx, tarotistID)
}

func (s *Service) RemoveWeeklyAvailability(ctx context.Context, tarotistID string, id uuid.UUID) error {
	if tarotistID == "" {
		return validationError("tarotist_id is required")
	}
	if id == uuid.Nil {
		return validationError("availability id is required")
	}
	return s.repo.DeleteWeeklyAvailability(ctx, tarotistID, id)
}

type ExceptionInput struct {
	Date      time.Time
	Kind      domain.ExceptionKind
	StartTime string
	EndTime   string
	Reason    string
}

// AddException records a date-specific override. Exceptions are immutable:
// changing one means deleting it and creating a replacement.
func (s *Service) AddException(ctx context.Context, tarotistID string, in ExceptionInput) (domain.AvailabilityException, error) {
	if tarotistID == "" {
		return domain.AvailabilityException{}, validationError("tarotist_id is required")
	}
	if in.Date.IsZero() {
		return domain.AvailabilityException{}, validationError("exception date is required")
	}
	date := domain.DateOnly(in.Date)
	if date.Before(domain.DateOnly(s.now())) {
		return domain.AvailabilityException{}, validationError("exception date must be today or later")
	}

	ex := domain.AvailabilityException{
		TarotistID:    tarotistID,
		ExceptionDate: date,
		Kind:          in.Kind,
	}
	if in.Reason != "" {
		reason := in.Reason
		ex.Reason = &reason
	}

	switch in.Kind {
	case domain.ExceptionKindBlocked:
		// Times are meaningless on a blocked day; drop them.
	case domain.ExceptionKindCustomHours:
		startMin, err := domain.ParseTimeOfDay(in.StartTime)
		if err != nil {
			return domain.AvailabilityException{}, validationError("custom hours require a start_time in HH:MM")
		}
		endMin, err := domain.ParseTimeOfDay(in.EndTime)
		if err != nil {
			return domain.AvailabilityException{}, validationError("custom hours require an end_time in HH:MM")
		}
		if startMin >= endMin {
			return domain.AvailabilityException{}, validationError("start_time must be before end_time")
		}
		start, end := in.StartTime, in.EndTime
		ex.StartTime = &start
		ex.EndTime = &end
	default:
		return domain.AvailabilityException{}, validationError("exception type must be blocked or custom_hours")
	}

	out, err := s.repo.CreateException(ctx, ex)
	if err != nil {
		if err == store.ErrConflict {
			return domain.AvailabilityException{}, conflictError("an exception already exists for that date; delete it first")
		}
		return domain.AvailabilityException{}, err
	}
	return out, nil
}

func (s *Service) ListExceptions(ctx context.Context, tarotistID string, from, to time.Time) ([]domain.AvailabilityException, error) {
	if tarotistID == "" {
		return nil, validationError("tarotist_id is required")
	}
	if to.Before(from) {
		return nil, validationError("end date must not be before start date")
	}
	return s.repo.ListExceptions(ctx, tarotistID, from, to)
}

func (s *Service) RemoveException(ctx context.Context, tarotistID string, id uuid.UUID) error {
	if tarotistID == "" {
		return validationError("tarotist_id is required")
	}
	if id == uuid.Nil {
		return validationError("exception id is required")
	}
	return s.repo.DeleteException(ctx, tarotistID, id)
}

func (s *Service) ListUserSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	if userID == "" {
		return nil, validationError("user_id is required")
	}
	return s.repo.ListUserSessions(ctx, userID)
}

func (s *Service) ListTarotistSessions(ctx context.Context, tarotistID string) ([]domain.Session, error) {
	if tarotistID == "" {
		return nil, validationError("tarotist_id is required")
	}
	return s.repo.ListTarotistSessions(ctx, tarotistID)
}

// dispatch fires a notification without tying its outcome to the calling
// operation. Failures are logged, never propagated.
func (s *Service) dispatch(ctx context.Context, event string, sess domain.Session) {
	notifyCtx := context.WithoutCancel(ctx)
	go func() {
		if err := s.notify.SessionEvent(notifyCtx, event, sess); err != nil {
			s.log.Warn("notification dispatch failed",
				slog.String("event", event),
				slog.String("session_id", sess.ID.String()),
				slog.Any("err", err),
			)
		}
	}()
}
