package scheduling

import (
	"context"

	"github.com/google/uuid"

	"arcanum/backend/internal/domain"
)

// MeetingLinks produces the video-call link stored on a booked session. The
// real video-conferencing integration lives outside this service; the default
// implementation only mints an opaque placeholder URL.
type MeetingLinks interface {
	NewLink(sessionID uuid.UUID) string
}

type PlaceholderMeetingLinks struct {
	BaseURL string
}

func (g PlaceholderMeetingLinks) NewLink(sessionID uuid.UUID) string {
	base := g.BaseURL
	if base == "" {
		base = "https://meet.arcanum.app/s"
	}
	return base + "/" + sessionID.String()
}

// Notifier receives fire-and-forget session lifecycle events. Implementations
// must tolerate being called after the originating request has completed.
type Notifier interface {
	SessionEvent(ctx context.Context, event string, sess domain.Session) error
}

type NopNotifier struct{}

func (NopNotifier) SessionEvent(ctx context.Context, event string, sess domain.Session) error {
	return nil
}
