package scheduling

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"arcanum/backend/internal/domain"
	"arcanum/backend/internal/store"
)

type BookSessionInput struct {
	TarotistID      string
	SessionDate     time.Time
	SessionTime     string
	DurationMinutes int
	Kind            domain.SessionKind
	UserNotes       string
}

// BookSession turns a slot request into a durable reservation. The slot is
// re-derived and the occupancy probe re-run inside the booking transaction,
// so of N concurrent requests for the same slot exactly one commits and the
// rest observe a conflict.
func (s *Service) BookSession(ctx context.Context, userID, userEmail string, in BookSessionInput) (domain.Session, error) {
	if userID == "" {
		return domain.Session{}, validationError("user_id is required")
	}
	if strings.TrimSpace(userEmail) == "" {
		return domain.Session{}, validationError("user email is required")
	}
	if in.TarotistID == "" {
		return domain.Session{}, validationError("tarotist_id is required")
	}
	if !in.Kind.Valid() {
		return domain.Session{}, validationError("unknown session type")
	}
	if !validDuration(in.DurationMinutes) {
		return domain.Session{}, validationError("duration must be 30, 60 or 90 minutes")
	}
	if in.SessionDate.IsZero() {
		return domain.Session{}, validationError("session date is required")
	}
	startMin, err := domain.ParseTimeOfDay(in.SessionTime)
	if err != nil {
		return domain.Session{}, validationError("session time must be HH:MM")
	}

	day := domain.DateOnly(in.SessionDate)
	startsAt := day.Add(time.Duration(startMin) * time.Minute)
	if startsAt.Sub(s.now()) < MinBookingLead {
		return domain.Session{}, validationError("sessions must be booked at least 2 hours in advance")
	}

	pending, err := s.repo.HasPendingSessionWith(ctx, userID, in.TarotistID)
	if err != nil {
		return domain.Session{}, err
	}
	if pending {
		return domain.Session{}, conflictError("you already have a pending session with this tarotist; confirm or cancel it first")
	}

	priceCents, err := SessionPriceCents(in.Kind, in.DurationMinutes)
	if err != nil {
		return domain.Session{}, validationError(err.Error())
	}

	sessionID, err := uuid.NewV7()
	if err != nil {
		return domain.Session{}, err
	}

	var out domain.Session
	err = s.repo.InBookingTx(ctx, in.TarotistID, func(ctx context.Context, tx store.BookingTx) error {
		// Re-check the one-pending policy under the per-tarotist lock: the
		// unlocked pre-check above can race with another booking by the
		// same user.
		pending, err := tx.HasPendingSessionWith(ctx, userID, in.TarotistID)
		if err != nil {
			return err
		}
		if pending {
			return conflictError("you already have a pending session with this tarotist; confirm or cancel it first")
		}

		weekly, err := tx.ListActiveWeeklyAvailability(ctx, in.TarotistID)
		if err != nil {
			return err
		}
		exceptions, err := tx.ListExceptions(ctx, in.TarotistID, day, day)
		if err != nil {
			return err
		}
		sessions, err := tx.ListOpenSessions(ctx, in.TarotistID, day, day)
		if err != nil {
			return err
		}
		slots, err := deriveSlots(weekly, exceptions, sessions, day, day, in.DurationMinutes, s.now())
		if err != nil {
			return err
		}
		if !slotListed(slots, day.Format(dateLayout), in.SessionTime) {
			return conflictError("that slot is not available; refresh availability and pick another")
		}

		taken, err := tx.HasOpenSessionAt(ctx, in.TarotistID, day, in.SessionTime)
		if err != nil {
			return err
		}
		if taken {
			return conflictError("that slot was just taken")
		}

		created, err := tx.CreateSession(ctx, domain.Session{
			ID:              sessionID,
			UserID:          userID,
			UserEmail:       strings.TrimSpace(userEmail),
			TarotistID:      in.TarotistID,
			SessionDate:     day,
			SessionTime:     in.SessionTime,
			DurationMinutes: in.DurationMinutes,
			Kind:            in.Kind,
			Status:          domain.SessionStatusPending,
			PriceCents:      priceCents,
			PaymentStatus:   domain.PaymentStatusUnpaid,
			MeetingLink:     s.links.NewLink(sessionID),
			UserNotes:       in.UserNotes,
		})
		if err != nil {
			return err
		}
		out = created
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}

	s.dispatch(ctx, "session_booked", out)
	return out, nil
}

// ConfirmSession moves a pending session to confirmed. Tarotist-owned.
func (s *Service) ConfirmSession(ctx context.Context, tarotistID string, sessionID uuid.UUID, notes string) (domain.Session, error) {
	out, err := s.transition(ctx, tarotistID, sessionID, func(sess *domain.Session) error {
		if sess.Status != domain.SessionStatusPending {
			return validationError("only pending sessions can be confirmed")
		}
		now := s.now()
		sess.Status = domain.SessionStatusConfirmed
		sess.ConfirmedAt = &now
		if notes != "" {
			sess.TarotistNotes = notes
		}
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}
	s.dispatch(ctx, "session_confirmed", out)
	return out, nil
}

// CompleteSession moves a confirmed session to completed. Tarotist-owned.
func (s *Service) CompleteSession(ctx context.Context, tarotistID string, sessionID uuid.UUID, notes string) (domain.Session, error) {
	out, err := s.transition(ctx, tarotistID, sessionID, func(sess *domain.Session) error {
		if sess.Status != domain.SessionStatusConfirmed {
			return validationError("only confirmed sessions can be completed")
		}
		now := s.now()
		sess.Status = domain.SessionStatusCompleted
		sess.CompletedAt = &now
		if notes != "" {
			sess.TarotistNotes = notes
		}
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}
	s.dispatch(ctx, "session_completed", out)
	return out, nil
}

// CancelSession is the consumer-initiated cancellation. It is stricter than
// booking: at least 24 hours of notice are required.
func (s *Service) CancelSession(ctx context.Context, userID string, sessionID uuid.UUID, reason string) (domain.Session, error) {
	if userID == "" {
		return domain.Session{}, validationError("user_id is required")
	}
	if sessionID == uuid.Nil {
		return domain.Session{}, validationError("session id is required")
	}

	// The advisory lock is keyed by tarotist, so look the session up first.
	existing, err := s.repo.GetUserSession(ctx, userID, sessionID)
	if err != nil {
		return domain.Session{}, err
	}

	var out domain.Session
	err = s.repo.InBookingTx(ctx, existing.TarotistID, func(ctx context.Context, tx store.BookingTx) error {
		sess, err := tx.GetSessionForUser(ctx, userID, sessionID)
		if err != nil {
			return err
		}
		if sess.Status.Terminal() {
			return validationError("this session is already finalized")
		}
		startsAt, err := sess.StartsAt()
		if err != nil {
			return err
		}
		if startsAt.Sub(s.now()) < UserCancelLead {
			return validationError("sessions can only be cancelled at least 24 hours before they start")
		}

		now := s.now()
		sess.Status = domain.SessionStatusCancelledByUser
		sess.CancelledAt = &now
		if reason != "" {
			r := reason
			sess.CancellationReason = &r
		}
		updated, err := tx.UpdateSession(ctx, sess)
		if err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}

	s.dispatch(ctx, "session_cancelled_by_user", out)
	return out, nil
}

// CancelSessionByTarotist cancels on the provider's behalf. No notice window
// applies; only the terminal-state guard.
func (s *Service) CancelSessionByTarotist(ctx context.Context, tarotistID string, sessionID uuid.UUID, reason string) (domain.Session, error) {
	out, err := s.transition(ctx, tarotistID, sessionID, func(sess *domain.Session) error {
		if sess.Status.Terminal() {
			return validationError("this session is already finalized")
		}
		now := s.now()
		sess.Status = domain.SessionStatusCancelledByTarotist
		sess.CancelledAt = &now
		if reason != "" {
			r := reason
			sess.CancellationReason = &r
		}
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}
	s.dispatch(ctx, "session_cancelled_by_tarotist", out)
	return out, nil
}

// transition runs a tarotist-owned status change inside the booking
// transaction so it cannot interleave with a concurrent booking or another
// transition on the same diary.
func (s *Service) transition(ctx context.Context, tarotistID string, sessionID uuid.UUID, mutate func(*domain.Session) error) (domain.Session, error) {
	if tarotistID == "" {
		return domain.Session{}, validationError("tarotist_id is required")
	}
	if sessionID == uuid.Nil {
		return domain.Session{}, validationError("session id is required")
	}

	var out domain.Session
	err := s.repo.InBookingTx(ctx, tarotistID, func(ctx context.Context, tx store.BookingTx) error {
		sess, err := tx.GetSessionForTarotist(ctx, tarotistID, sessionID)
		if err != nil {
			return err
		}
		if err := mutate(&sess); err != nil {
			return err
		}
		updated, err := tx.UpdateSession(ctx, sess)
		if err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}
	return out, nil
}
