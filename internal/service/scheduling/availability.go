package scheduling

import (
	"context"
	"time"

	"arcanum/backend/internal/domain"
	"arcanum/backend/internal/store"
)

const dateLayout = "2006-01-02"

// Slot is one bookable (date, time, duration) candidate. Only available
// slots are ever emitted.
type Slot struct {
	Date            string
	Time            string
	DurationMinutes int
	Available       bool
}

// GetAvailableSlots derives every bookable slot for a tarotist across
// [startDate, endDate]. Pure read: calling it twice with no intervening
// writes yields identical results.
func (s *Service) GetAvailableSlots(ctx context.Context, tarotistID string, startDate, endDate time.Time, durationMinutes int) ([]Slot, error) {
	if tarotistID == "" {
		return nil, validationError("tarotist_id is required")
	}
	if !validDuration(durationMinutes) {
		return nil, validationError("duration must be 30, 60 or 90 minutes")
	}
	from := domain.DateOnly(startDate)
	to := domain.DateOnly(endDate)
	if to.Before(from) {
		return nil, validationError("end date must not be before start date")
	}
	if to.Sub(from) > store.MaxSlotRangeDays*24*time.Hour {
		return nil, validationError("date range too large")
	}

	weekly, err := s.repo.ListWeeklyAvailability(ctx, tarotistID)
	if err != nil {
		return nil, err
	}
	exceptions, err := s.repo.ListExceptions(ctx, tarotistID, from, to)
	if err != nil {
		return nil, err
	}
	sessions, err := s.repo.ListOpenSessions(ctx, tarotistID, from, to)
	if err != nil {
		return nil, err
	}

	return deriveSlots(weekly, exceptions, sessions, from, to, durationMinutes, s.now())
}

type busySpan struct {
	start, end int
}

// deriveSlots is the availability engine. Per day: a blocked exception wins
// outright, a custom_hours exception replaces the weekly rule, otherwise the
// active weekly row for that day-of-week opens the day. Candidate starts are
// spaced SlotGranularityMinutes apart; a candidate survives if it fits before
// close, starts at least MinBookingLead after now, and does not overlap an
// open session. All arithmetic is minutes since midnight on UTC calendar days.
func deriveSlots(
	weekly []domain.WeeklyAvailability,
	exceptions []domain.AvailabilityException,
	sessions []domain.Session,
	startDate, endDate time.Time,
	durationMinutes int,
	now time.Time,
) ([]Slot, error) {
	weeklyByDay := make(map[int]domain.WeeklyAvailability, len(weekly))
	for _, w := range weekly {
		if w.IsActive {
			weeklyByDay[w.DayOfWeek] = w
		}
	}

	exByDate := make(map[string]domain.AvailabilityException, len(exceptions))
	for _, e := range exceptions {
		exByDate[domain.DateOnly(e.ExceptionDate).Format(dateLayout)] = e
	}

	busyByDate := make(map[string][]busySpan, len(sessions))
	for _, sess := range sessions {
		startMin, err := domain.ParseTimeOfDay(sess.SessionTime)
		if err != nil {
			return nil, err
		}
		key := domain.DateOnly(sess.SessionDate).Format(dateLayout)
		busyByDate[key] = append(busyByDate[key], busySpan{start: startMin, end: startMin + sess.DurationMinutes})
	}

	out := make([]Slot, 0, 32)
	for day := startDate; !day.After(endDate); day = day.AddDate(0, 0, 1) {
		key := day.Format(dateLayout)

		var openStart, openEnd int
		if ex, ok := exByDate[key]; ok {
			if ex.Kind != domain.ExceptionKindCustomHours || ex.StartTime == nil || ex.EndTime == nil {
				continue
			}
			var err error
			if openStart, err = domain.ParseTimeOfDay(*ex.StartTime); err != nil {
				return nil, err
			}
			if openEnd, err = domain.ParseTimeOfDay(*ex.EndTime); err != nil {
				return nil, err
			}
		} else {
			w, ok := weeklyByDay[int(day.Weekday())]
			if !ok {
				continue
			}
			var err error
			if openStart, err = domain.ParseTimeOfDay(w.StartTime); err != nil {
				return nil, err
			}
			if openEnd, err = domain.ParseTimeOfDay(w.EndTime); err != nil {
				return nil, err
			}
		}

		for startMin := openStart; startMin+durationMinutes <= openEnd; startMin += SlotGranularityMinutes {
			slotStart := day.Add(time.Duration(startMin) * time.Minute)
			if slotStart.Sub(now) < MinBookingLead {
				continue
			}

			occupied := false
			for _, b := range busyByDate[key] {
				if domain.IntervalsOverlap(startMin, startMin+durationMinutes, b.start, b.end) {
					occupied = true
					break
				}
			}
			if occupied {
				continue
			}

			out = append(out, Slot{
				Date:            key,
				Time:            domain.FormatTimeOfDay(startMin),
				DurationMinutes: durationMinutes,
				Available:       true,
			})
		}
	}

	return out, nil
}

func slotListed(slots []Slot, date, timeOfDay string) bool {
	for _, s := range slots {
		if s.Date == date && s.Time == timeOfDay {
			return true
		}
	}
	return false
}
