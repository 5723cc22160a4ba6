package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"arcanum/backend/internal/domain"
	"arcanum/backend/internal/store"
)

func TestSetWeeklyAvailability_UpsertsActiveRow(t *testing.T) {
	var got domain.WeeklyAvailability
	repo := &fakeRepo{
		upsertWeekly: func(ctx context.Context, w domain.WeeklyAvailability) (domain.WeeklyAvailability, error) {
			got = w
			return w, nil
		},
	}

	svc := NewService(repo, nil, nil, nil)
	_, err := svc.SetWeeklyAvailability(context.Background(), "t1", WeeklyAvailabilityInput{
		DayOfWeek: 1,
		StartTime: "09:00",
		EndTime:   "17:00",
	})
	if err != nil {
		t.Fatalf("SetWeeklyAvailability error: %v", err)
	}
	if got.TarotistID != "t1" || got.DayOfWeek != 1 {
		t.Fatalf("upserted row = %+v", got)
	}
	if !got.IsActive {
		t.Fatalf("new rows must be active")
	}
}

func TestSetWeeklyAvailability_RejectsBadInput(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil, nil, nil)

	cases := []struct {
		name string
		in   WeeklyAvailabilityInput
	}{
		{"day too small", WeeklyAvailabilityInput{DayOfWeek: -1, StartTime: "09:00", EndTime: "17:00"}},
		{"day too large", WeeklyAvailabilityInput{DayOfWeek: 7, StartTime: "09:00", EndTime: "17:00"}},
		{"bad start", WeeklyAvailabilityInput{DayOfWeek: 1, StartTime: "9:00", EndTime: "17:00"}},
		{"bad end", WeeklyAvailabilityInput{DayOfWeek: 1, StartTime: "09:00", EndTime: "25:00"}},
		{"inverted", WeeklyAvailabilityInput{DayOfWeek: 1, StartTime: "17:00", EndTime: "09:00"}},
		{"empty interval", WeeklyAvailabilityInput{DayOfWeek: 1, StartTime: "09:00", EndTime: "09:00"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SetWeeklyAvailability(context.Background(), "t1", tc.in)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
		})
	}
}

func TestAddException_BlockedDropsTimes(t *testing.T) {
	var got domain.AvailabilityException
	repo := &fakeRepo{
		createException: func(ctx context.Context, ex domain.AvailabilityException) (domain.AvailabilityException, error) {
			got = ex
			return ex, nil
		},
	}

	svc := NewService(repo, nil, nil, nil)
	svc.now = func() time.Time { return longBefore }

	_, err := svc.AddException(context.Background(), "t1", ExceptionInput{
		Date:      monday,
		Kind:      domain.ExceptionKindBlocked,
		StartTime: "09:00",
		EndTime:   "12:00",
		Reason:    "holiday",
	})
	if err != nil {
		t.Fatalf("AddException error: %v", err)
	}
	if got.StartTime != nil || got.EndTime != nil {
		t.Fatalf("blocked exception kept times: %+v", got)
	}
	if got.Reason == nil || *got.Reason != "holiday" {
		t.Fatalf("reason = %v", got.Reason)
	}
}

func TestAddException_CustomHoursRequireValidInterval(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil, nil, nil)
	svc.now = func() time.Time { return longBefore }

	cases := []struct {
		name       string
		start, end string
	}{
		{"missing start", "", "12:00"},
		{"missing end", "09:00", ""},
		{"inverted", "12:00", "09:00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddException(context.Background(), "t1", ExceptionInput{
				Date:      monday,
				Kind:      domain.ExceptionKindCustomHours,
				StartTime: tc.start,
				EndTime:   tc.end,
			})
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
		})
	}
}

func TestAddException_PastDateRejected(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil, nil, nil)
	svc.now = func() time.Time { return tuesday.Add(8 * time.Hour) }

	_, err := svc.AddException(context.Background(), "t1", ExceptionInput{
		Date: monday,
		Kind: domain.ExceptionKindBlocked,
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}

	// Later the same day is still "today" and allowed.
	repo := &fakeRepo{
		createException: func(ctx context.Context, ex domain.AvailabilityException) (domain.AvailabilityException, error) {
			return ex, nil
		},
	}
	svc = NewService(repo, nil, nil, nil)
	svc.now = func() time.Time { return monday.Add(23 * time.Hour) }
	if _, err := svc.AddException(context.Background(), "t1", ExceptionInput{
		Date: monday,
		Kind: domain.ExceptionKindBlocked,
	}); err != nil {
		t.Fatalf("AddException same day: %v", err)
	}
}

func TestAddException_DuplicateDateIsConflict(t *testing.T) {
	repo := &fakeRepo{
		createException: func(ctx context.Context, ex domain.AvailabilityException) (domain.AvailabilityException, error) {
			return domain.AvailabilityException{}, store.ErrConflict
		},
	}

	svc := NewService(repo, nil, nil, nil)
	svc.now = func() time.Time { return longBefore }

	_, err := svc.AddException(context.Background(), "t1", ExceptionInput{
		Date: monday,
		Kind: domain.ExceptionKindBlocked,
	})
	var cErr *ConflictError
	if !errors.As(err, &cErr) {
		t.Fatalf("error = %v, want *ConflictError", err)
	}
}

func TestListExceptions_InvertedRangeRejected(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil, nil, nil)
	_, err := svc.ListExceptions(context.Background(), "t1", tuesday, monday)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
}

func TestRemove_RequiresIdentifiers(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil, nil, nil)

	var vErr *ValidationError
	if err := svc.RemoveWeeklyAvailability(context.Background(), "", uuid.New()); !errors.As(err, &vErr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if err := svc.RemoveWeeklyAvailability(context.Background(), "t1", uuid.Nil); !errors.As(err, &vErr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if err := svc.RemoveException(context.Background(), "t1", uuid.Nil); !errors.As(err, &vErr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
}

func TestRemoveWeeklyAvailability_PropagatesNotFound(t *testing.T) {
	repo := &fakeRepo{
		deleteWeekly: func(ctx context.Context, tarotistID string, id uuid.UUID) error {
			return store.ErrNotFound
		},
	}

	svc := NewService(repo, nil, nil, nil)
	err := svc.RemoveWeeklyAvailability(context.Background(), "t1", uuid.New())
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("error = %v, want %v", err, store.ErrNotFound)
	}
}
