package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type SessionStatus string

const (
	SessionStatusPending             SessionStatus = "pending"
	SessionStatusConfirmed           SessionStatus = "confirmed"
	SessionStatusCompleted           SessionStatus = "completed"
	SessionStatusCancelledByUser     SessionStatus = "cancelled_by_user"
	SessionStatusCancelledByTarotist SessionStatus = "cancelled_by_tarotist"
)

// Terminal reports whether no further transition is permitted out of s.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionStatusCompleted, SessionStatusCancelledByUser, SessionStatusCancelledByTarotist:
		return true
	}
	return false
}

// Open reports whether s occupies its slot for conflict purposes.
func (s SessionStatus) Open() bool {
	return s == SessionStatusPending || s == SessionStatusConfirmed
}

type SessionKind string

const (
	SessionKindGeneral   SessionKind = "general"
	SessionKindLove      SessionKind = "love"
	SessionKindCareer    SessionKind = "career"
	SessionKindSpiritual SessionKind = "spiritual"
)

func (k SessionKind) Valid() bool {
	switch k {
	case SessionKindGeneral, SessionKindLove, SessionKindCareer, SessionKindSpiritual:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Session is one reserved appointment between a user and a tarotist.
// SessionDate is a UTC calendar date; SessionTime is "HH:MM" UTC wall clock.
// PriceCents is fixed at booking time and never updated. Sessions are never
// hard-deleted; cancellation is a status transition.
type Session struct {
	bun.BaseModel `bun:"table:sessions"`

	ID                 uuid.UUID     `bun:"id,pk,type:uuid"`
	UserID             string        `bun:"user_id,notnull"`
	UserEmail          string        `bun:"user_email,notnull"`
	TarotistID         string        `bun:"tarotist_id,notnull"`
	SessionDate        time.Time     `bun:"session_date,notnull,type:date"`
	SessionTime        string        `bun:"session_time,notnull"`
	DurationMinutes    int           `bun:"duration_minutes,notnull"`
	Kind               SessionKind   `bun:"kind,notnull"`
	Status             SessionStatus `bun:"status,notnull"`
	PriceCents         int64         `bun:"price_cents,notnull"`
	PaymentStatus      PaymentStatus `bun:"payment_status,notnull"`
	MeetingLink        string        `bun:"meeting_link,notnull"`
	UserNotes          string        `bun:"user_notes"`
	TarotistNotes      string        `bun:"tarotist_notes"`
	CancellationReason *string       `bun:"cancellation_reason"`
	CreatedAt          time.Time     `bun:"created_at,notnull"`
	UpdatedAt          time.Time     `bun:"updated_at,notnull"`
	ConfirmedAt        *time.Time    `bun:"confirmed_at"`
	CompletedAt        *time.Time    `bun:"completed_at"`
	CancelledAt        *time.Time    `bun:"cancelled_at"`
}

func (s *Session) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if s.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			s.ID = id
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		s.UpdatedAt = now
	}
	return nil
}

// StartsAt combines SessionDate and SessionTime into a UTC instant.
func (s *Session) StartsAt() (time.Time, error) {
	minutes, err := ParseTimeOfDay(s.SessionTime)
	if err != nil {
		return time.Time{}, err
	}
	return DateOnly(s.SessionDate).Add(time.Duration(minutes) * time.Minute), nil
}
