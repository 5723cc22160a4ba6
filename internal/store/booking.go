package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"arcanum/backend/internal/domain"
)

// BookingTx is the explicit transaction handle for the booking write path.
// Everything read through it sees the transaction's snapshot, so the slot
// re-derivation and the occupancy re-check happen under the same isolation
// as the insert that follows them.
type BookingTx interface {
	ListActiveWeeklyAvailability(ctx context.Context, tarotistID string) ([]domain.WeeklyAvailability, error)
	ListExceptions(ctx context.Context, tarotistID string, from, to time.Time) ([]domain.AvailabilityException, error)
	ListOpenSessions(ctx context.Context, tarotistID string, from, to time.Time) ([]domain.Session, error)

	HasOpenSessionAt(ctx context.Context, tarotistID string, date time.Time, sessionTime string) (bool, error)
	HasPendingSessionWith(ctx context.Context, userID, tarotistID string) (bool, error)

	CreateSession(ctx context.Context, s domain.Session) (domain.Session, error)
	GetSessionForUser(ctx context.Context, userID string, id uuid.UUID) (domain.Session, error)
	GetSessionForTarotist(ctx context.Context, tarotistID string, id uuid.UUID) (domain.Session, error)
	UpdateSession(ctx context.Context, s domain.Session) (domain.Session, error)
}
