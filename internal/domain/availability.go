package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// WeeklyAvailability is one recurring open interval per (tarotist, day-of-week).
// DayOfWeek is Sunday-indexed: 0=Sunday .. 6=Saturday. Times are "HH:MM" wall
// clock in UTC. At most one active row exists per (tarotist, day); setting a new
// one overwrites the previous row for that day.
type WeeklyAvailability struct {
	bun.BaseModel `bun:"table:weekly_availability"`

	ID         uuid.UUID `bun:"id,pk,type:uuid"`
	TarotistID string    `bun:"tarotist_id,notnull"`
	DayOfWeek  int       `bun:"day_of_week,notnull"`
	StartTime  string    `bun:"start_time,notnull"`
	EndTime    string    `bun:"end_time,notnull"`
	IsActive   bool      `bun:"is_active,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

func (w *WeeklyAvailability) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if w.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			w.ID = id
		}
		if w.CreatedAt.IsZero() {
			w.CreatedAt = now
		}
		if w.UpdatedAt.IsZero() {
			w.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		w.UpdatedAt = now
	}
	return nil
}

type ExceptionKind string

const (
	ExceptionKindBlocked     ExceptionKind = "blocked"
	ExceptionKindCustomHours ExceptionKind = "custom_hours"
)

// AvailabilityException overrides the weekly rule for one calendar date.
// A blocked exception removes the whole day; custom_hours replaces (never
// merges with) the weekly interval. At most one exception per (tarotist, date).
type AvailabilityException struct {
	bun.BaseModel `bun:"table:availability_exceptions"`

	ID            uuid.UUID     `bun:"id,pk,type:uuid"`
	TarotistID    string        `bun:"tarotist_id,notnull"`
	ExceptionDate time.Time     `bun:"exception_date,notnull,type:date"`
	Kind          ExceptionKind `bun:"kind,notnull"`
	StartTime     *string       `bun:"start_time"`
	EndTime       *string       `bun:"end_time"`
	Reason        *string       `bun:"reason"`
	CreatedAt     time.Time     `bun:"created_at,notnull"`
	UpdatedAt     time.Time     `bun:"updated_at,notnull"`
}

func (e *AvailabilityException) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if e.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			e.ID = id
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		if e.UpdatedAt.IsZero() {
			e.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		e.UpdatedAt = now
	}
	return nil
}

// ParseTimeOfDay converts an "HH:MM" string to minutes since midnight.
func ParseTimeOfDay(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, errors.New("time must be HH:MM")
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, errors.New("time must be HH:MM")
		}
	}
	hh := int(s[0]-'0')*10 + int(s[1]-'0')
	mm := int(s[3]-'0')*10 + int(s[4]-'0')
	if hh > 23 || mm > 59 {
		return 0, errors.New("time out of range")
	}
	return hh*60 + mm, nil
}

// FormatTimeOfDay renders minutes since midnight as "HH:MM".
func FormatTimeOfDay(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// IntervalsOverlap reports whether the half-open minute intervals
// [aStart, aEnd) and [bStart, bEnd) intersect.
func IntervalsOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// DateOnly truncates t to a UTC calendar date (midnight).
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
