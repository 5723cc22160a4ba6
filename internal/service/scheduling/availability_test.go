package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"arcanum/backend/internal/domain"
)

// 2026-03-02 is a Monday.
var (
	monday  = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	tuesday = monday.AddDate(0, 0, 1)
	// Far enough before the window that the lead-time filter never bites.
	longBefore = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
)

func weeklyRule(day int, start, end string) domain.WeeklyAvailability {
	return domain.WeeklyAvailability{
		TarotistID: "t1",
		DayOfWeek:  day,
		StartTime:  start,
		EndTime:    end,
		IsActive:   true,
	}
}

func slotTimes(slots []Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Date+" "+s.Time)
	}
	return out
}

func TestDeriveSlots_WeeklyWindowThirtyMinute(t *testing.T) {
	slots, err := deriveSlots(
		[]domain.WeeklyAvailability{weeklyRule(1, "09:00", "12:00")},
		nil, nil, monday, monday, 30, longBefore,
	)
	if err != nil {
		t.Fatalf("deriveSlots error: %v", err)
	}

	want := []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"}
	if len(slots) != len(want) {
		t.Fatalf("slots = %v, want %d entries", slotTimes(slots), len(want))
	}
	for i, w := range want {
		if slots[i].Time != w {
			t.Fatalf("slot[%d].Time = %q, want %q", i, slots[i].Time, w)
		}
		if slots[i].Date != "2026-03-02" {
			t.Fatalf("slot[%d].Date = %q, want 2026-03-02", i, slots[i].Date)
		}
		if !slots[i].Available {
			t.Fatalf("slot[%d] not available", i)
		}
	}
}

func TestDeriveSlots_DurationMustFitBeforeClose(t *testing.T) {
	slots, err := deriveSlots(
		[]domain.WeeklyAvailability{weeklyRule(1, "09:00", "12:00")},
		nil, nil, monday, monday, 60, longBefore,
	)
	if err != nil {
		t.Fatalf("deriveSlots error: %v", err)
	}

	// A 60-minute session starting at 11:30 would run past close, so the last
	// start is 11:00.
	want := []string{"09:00", "09:30", "10:00", "10:30", "11:00"}
	if len(slots) != len(want) {
		t.Fatalf("slots = %v, want %v", slotTimes(slots), want)
	}
	for i, w := range want {
		if slots[i].Time != w {
			t.Fatalf("slot[%d].Time = %q, want %q", i, slots[i].Time, w)
		}
	}
}

func TestDeriveSlots_OpenSessionBlocksOverlappingStarts(t *testing.T) {
	booked := domain.Session{
		TarotistID:      "t1",
		SessionDate:     monday,
		SessionTime:     "10:00",
		DurationMinutes: 60,
		Status:          domain.SessionStatusConfirmed,
	}

	slots, err := deriveSlots(
		[]domain.WeeklyAvailability{weeklyRule(1, "09:00", "12:00")},
		nil, []domain.Session{booked}, monday, monday, 30, longBefore,
	)
	if err != nil {
		t.Fatalf("deriveSlots error: %v", err)
	}

	want := []string{"09:00", "09:30", "11:00", "11:30"}
	got := slotTimes(slots)
	if len(got) != len(want) {
		t.Fatalf("slots = %v, want times %v", got, want)
	}
	for i, w := range want {
		if slots[i].Time != w {
			t.Fatalf("slot[%d].Time = %q, want %q", i, slots[i].Time, w)
		}
	}
}

func TestDeriveSlots_AdjacentSessionDoesNotBlock(t *testing.T) {
	// Half-open intervals: a session ending at 10:00 leaves 10:00 free.
	booked := domain.Session{
		TarotistID:      "t1",
		SessionDate:     monday,
		SessionTime:     "09:00",
		DurationMinutes: 60,
		Status:          domain.SessionStatusPending,
	}

	slots, err := deriveSlots(
		[]domain.WeeklyAvailability{weeklyRule(1, "09:00", "12:00")},
		nil, []domain.Session{booked}, monday, monday, 30, longBefore,
	)
	if err != nil {
		t.Fatalf("deriveSlots error: %v", err)
	}
	if !slotListed(slots, "2026-03-02", "10:00") {
		t.Fatalf("10:00 should be free, got %v", slotTimes(slots))
	}
	if slotListed(slots, "2026-03-02", "09:00") || slotListed(slots, "2026-03-02", "09:30") {
		t.Fatalf("09:00 and 09:30 should be occupied, got %v", slotTimes(slots))
	}
}

func TestDeriveSlots_BlockedExceptionRemovesDay(t *testing.T) {
	blocked := domain.AvailabilityException{
		TarotistID:    "t1",
		ExceptionDate: monday,
		Kind:          domain.ExceptionKindBlocked,
	}

	slots, err := deriveSlots(
		[]domain.WeeklyAvailability{weeklyRule(1, "09:00", "12:00")},
		[]domain.AvailabilityException{blocked},
		nil, monday, monday, 30, longBefore,
	)
	if err != nil {
		t.Fatalf("deriveSlots error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots on a blocked day, got %v", slotTimes(slots))
	}
}

func TestDeriveSlots_CustomHoursReplaceWeeklyRule(t *testing.T) {
	start, end := "14:00", "16:00"
	custom := domain.AvailabilityException{
		TarotistID:    "t1",
		ExceptionDate: monday,
		Kind:          domain.ExceptionKindCustomHours,
		StartTime:     &start,
		EndTime:       &end,
	}

	slots, err := deriveSlots(
		[]domain.WeeklyAvailability{weeklyRule(1, "09:00", "12:00")},
		[]domain.AvailabilityException{custom},
		nil, monday, monday, 30, longBefore,
	)
	if err != nil {
		t.Fatalf("deriveSlots error: %v", err)
	}

	want := []string{"14:00", "14:30", "15:00", "15:30"}
	got := slotTimes(slots)
	if len(got) != len(want) {
		t.Fatalf("slots = %v, want times %v", got, want)
	}
	if slotListed(slots, "2026-03-02", "09:00") {
		t.Fatalf("weekly hours must not survive a custom_hours day")
	}
}

func TestDeriveSlots_LeadTimeFiltersNearSlots(t *testing.T) {
	// 08:30 on the day itself: everything before 10:30 is inside the two-hour
	// notice window. 10:30 itself is exactly two hours out and stays bookable.
	now := monday.Add(8*time.Hour + 30*time.Minute)

	slots, err := deriveSlots(
		[]domain.WeeklyAvailability{weeklyRule(1, "09:00", "12:00")},
		nil, nil, monday, monday, 30, now,
	)
	if err != nil {
		t.Fatalf("deriveSlots error: %v", err)
	}

	want := []string{"10:30", "11:00", "11:30"}
	got := slotTimes(slots)
	if len(got) != len(want) {
		t.Fatalf("slots = %v, want times %v", got, want)
	}
	for i, w := range want {
		if slots[i].Time != w {
			t.Fatalf("slot[%d].Time = %q, want %q", i, slots[i].Time, w)
		}
	}
}

func TestDeriveSlots_InactiveWeeklyRuleIgnored(t *testing.T) {
	rule := weeklyRule(1, "09:00", "12:00")
	rule.IsActive = false

	slots, err := deriveSlots([]domain.WeeklyAvailability{rule}, nil, nil, monday, monday, 30, longBefore)
	if err != nil {
		t.Fatalf("deriveSlots error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("inactive rule produced slots: %v", slotTimes(slots))
	}
}

func TestDeriveSlots_MultiDayAscendingOrder(t *testing.T) {
	rules := []domain.WeeklyAvailability{
		weeklyRule(1, "09:00", "10:00"),
		weeklyRule(2, "11:00", "12:00"),
	}

	slots, err := deriveSlots(rules, nil, nil, monday, tuesday, 30, longBefore)
	if err != nil {
		t.Fatalf("deriveSlots error: %v", err)
	}

	want := []string{
		"2026-03-02 09:00",
		"2026-03-02 09:30",
		"2026-03-03 11:00",
		"2026-03-03 11:30",
	}
	got := slotTimes(slots)
	if len(got) != len(want) {
		t.Fatalf("slots = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("slot[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDeriveSlots_Deterministic(t *testing.T) {
	rules := []domain.WeeklyAvailability{weeklyRule(1, "09:00", "12:00")}
	booked := []domain.Session{{
		SessionDate:     monday,
		SessionTime:     "09:30",
		DurationMinutes: 30,
		Status:          domain.SessionStatusPending,
	}}

	first, err := deriveSlots(rules, nil, booked, monday, monday, 30, longBefore)
	if err != nil {
		t.Fatalf("deriveSlots error: %v", err)
	}
	second, err := deriveSlots(rules, nil, booked, monday, monday, 30, longBefore)
	if err != nil {
		t.Fatalf("deriveSlots error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("slot[%d] differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestGetAvailableSlots_RejectsBadInput(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil, nil, nil)

	cases := []struct {
		name     string
		tarotist string
		start    time.Time
		end      time.Time
		duration int
	}{
		{"missing tarotist", "", monday, monday, 30},
		{"bad duration", "t1", monday, monday, 45},
		{"inverted range", "t1", tuesday, monday, 30},
		{"range too large", "t1", monday, monday.AddDate(0, 0, 120), 30},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.GetAvailableSlots(context.Background(), tc.tarotist, tc.start, tc.end, tc.duration)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
		})
	}
}

func TestGetAvailableSlots_ReadsThroughRepository(t *testing.T) {
	repo := &fakeRepo{
		listWeekly: func(ctx context.Context, tarotistID string) ([]domain.WeeklyAvailability, error) {
			if tarotistID != "t1" {
				t.Fatalf("tarotistID = %q, want t1", tarotistID)
			}
			return []domain.WeeklyAvailability{weeklyRule(1, "09:00", "10:00")}, nil
		},
		listExceptions: func(ctx context.Context, tarotistID string, from, to time.Time) ([]domain.AvailabilityException, error) {
			return nil, nil
		},
		listOpenSessions: func(ctx context.Context, tarotistID string, from, to time.Time) ([]domain.Session, error) {
			return nil, nil
		},
	}

	svc := NewService(repo, nil, nil, nil)
	svc.now = func() time.Time { return longBefore }

	slots, err := svc.GetAvailableSlots(context.Background(), "t1", monday, monday, 30)
	if err != nil {
		t.Fatalf("GetAvailableSlots error: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("slots = %v, want 2 entries", slotTimes(slots))
	}
}

func TestGetAvailableSlots_PropagatesRepositoryErrors(t *testing.T) {
	boom := errors.New("db down")
	repo := &fakeRepo{
		listWeekly: func(ctx context.Context, tarotistID string) ([]domain.WeeklyAvailability, error) {
			return nil, boom
		},
	}

	svc := NewService(repo, nil, nil, nil)
	_, err := svc.GetAvailableSlots(context.Background(), "t1", monday, monday, 30)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
}
