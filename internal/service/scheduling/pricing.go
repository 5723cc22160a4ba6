package scheduling

import (
	"errors"

	"arcanum/backend/internal/domain"
)

// Per-minute rates in USD cents by reading type. Pricing is resolved once at
// booking time and stored on the session; it never changes afterwards.
var perMinuteCents = map[domain.SessionKind]int64{
	domain.SessionKindGeneral:   150,
	domain.SessionKindLove:      200,
	domain.SessionKindCareer:    200,
	domain.SessionKindSpiritual: 250,
}

func SessionPriceCents(kind domain.SessionKind, durationMinutes int) (int64, error) {
	rate, ok := perMinuteCents[kind]
	if !ok {
		return 0, errors.New("unknown session type")
	}
	if durationMinutes <= 0 {
		return 0, errors.New("invalid duration")
	}
	return rate * int64(durationMinutes), nil
}
