package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"arcanum/backend/internal/domain"
)

// MaxSlotRangeDays bounds a single available-slots query so the per-day
// generation loop stays small.
const MaxSlotRangeDays = 90

type SchedulingRepository interface {
	UpsertWeeklyAvailability(ctx context.Context, w domain.WeeklyAvailability) (domain.WeeklyAvailability, error)
	ListWeeklyAvailability(ctx context.Context, tarotistID string) ([]domain.WeeklyAvailability, error)
	DeleteWeeklyAvailability(ctx context.Context, tarotistID string, id uuid.UUID) error

	CreateException(ctx context.Context, ex domain.AvailabilityException) (domain.AvailabilityException, error)
	ListExceptions(ctx context.Context, tarotistID string, from, to time.Time) ([]domain.AvailabilityException, error)
	DeleteException(ctx context.Context, tarotistID string, id uuid.UUID) error

	ListOpenSessions(ctx context.Context, tarotistID string, from, to time.Time) ([]domain.Session, error)
	ListUserSessions(ctx context.Context, userID string) ([]domain.Session, error)
	ListTarotistSessions(ctx context.Context, tarotistID string) ([]domain.Session, error)
	GetUserSession(ctx context.Context, userID string, id uuid.UUID) (domain.Session, error)
	HasPendingSessionWith(ctx context.Context, userID, tarotistID string) (bool, error)

	InBookingTx(ctx context.Context, tarotistID string, fn func(ctx context.Context, tx BookingTx) error) error
}
