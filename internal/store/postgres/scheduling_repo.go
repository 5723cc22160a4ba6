package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"arcanum/backend/internal/domain"
	"arcanum/backend/internal/store"
)

type SchedulingRepo struct {
	db *bun.DB
}

func NewSchedulingRepo(db *bun.DB) *SchedulingRepo {
	return &SchedulingRepo{db: db}
}

type bookingTx struct {
	tx bun.Tx
}

func (r *SchedulingRepo) UpsertWeeklyAvailability(ctx context.Context, w domain.WeeklyAvailability) (domain.WeeklyAvailability, error) {
	m := w
	_, err := r.db.NewInsert().
		Model(&m).
		On("CONFLICT (tarotist_id, day_of_week) DO UPDATE").
		Set("start_time = EXCLUDED.start_time").
		Set("end_time = EXCLUDED.end_time").
		Set("is_active = EXCLUDED.is_active").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.WeeklyAvailability{}, err
	}
	return m, nil
}

func (r *SchedulingRepo) ListWeeklyAvailability(ctx context.Context, tarotistID string) ([]domain.WeeklyAvailability, error) {
	var rows []domain.WeeklyAvailability
	err := r.db.NewSelect().
		Model(&rows).
		Where("tarotist_id = ?", tarotistID).
		OrderExpr("day_of_week ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SchedulingRepo) DeleteWeeklyAvailability(ctx context.Context, tarotistID string, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.WeeklyAvailability)(nil)).
		Where("tarotist_id = ?", tarotistID).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *SchedulingRepo) CreateException(ctx context.Context, ex domain.AvailabilityException) (domain.AvailabilityException, error) {
	m := ex
	_, err := r.db.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.AvailabilityException{}, store.ErrConflict
		}
		return domain.AvailabilityException{}, err
	}
	return m, nil
}

func (r *SchedulingRepo) ListExceptions(ctx context.Context, tarotistID string, from, to time.Time) ([]domain.AvailabilityException, error) {
	return listExceptions(ctx, r.db, tarotistID, from, to)
}

func (r *SchedulingRepo) DeleteException(ctx context.Context, tarotistID string, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.AvailabilityException)(nil)).
		Where("tarotist_id = ?", tarotistID).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *SchedulingRepo) ListOpenSessions(ctx context.Context, tarotistID string, from, to time.Time) ([]domain.Session, error) {
	return listOpenSessions(ctx, r.db, tarotistID, from, to)
}

func (r *SchedulingRepo) ListUserSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	var rows []domain.Session
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		OrderExpr("session_date ASC, session_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SchedulingRepo) ListTarotistSessions(ctx context.Context, tarotistID string) ([]domain.Session, error) {
	var rows []domain.Session
	err := r.db.NewSelect().
		Model(&rows).
		Where("tarotist_id = ?", tarotistID).
		OrderExpr("session_date ASC, session_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SchedulingRepo) GetUserSession(ctx context.Context, userID string, id uuid.UUID) (domain.Session, error) {
	var s domain.Session
	err := r.db.NewSelect().
		Model(&s).
		Where("user_id = ?", userID).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, store.ErrNotFound
		}
		return domain.Session{}, err
	}
	return s, nil
}

func (r *SchedulingRepo) HasPendingSessionWith(ctx context.Context, userID, tarotistID string) (bool, error) {
	return hasPendingSessionWith(ctx, r.db, userID, tarotistID)
}

func (r *SchedulingRepo) InBookingTx(ctx context.Context, tarotistID string, fn func(ctx context.Context, tx store.BookingTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockTarotistDiary(ctx, tx, tarotistID); err != nil {
			return err
		}
		return fn(ctx, bookingTx{tx: tx})
	})
}

// lockTarotistDiary serializes booking writes per tarotist for the lifetime of
// the surrounding transaction.
func lockTarotistDiary(ctx context.Context, tx bun.Tx, tarotistID string) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", tarotistID).Exec(ctx)
	return err
}

func (t bookingTx) ListActiveWeeklyAvailability(ctx context.Context, tarotistID string) ([]domain.WeeklyAvailability, error) {
	var rows []domain.WeeklyAvailability
	err := t.tx.NewSelect().
		Model(&rows).
		Where("tarotist_id = ?", tarotistID).
		Where("is_active").
		OrderExpr("day_of_week ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (t bookingTx) ListExceptions(ctx context.Context, tarotistID string, from, to time.Time) ([]domain.AvailabilityException, error) {
	return listExceptions(ctx, t.tx, tarotistID, from, to)
}

func (t bookingTx) ListOpenSessions(ctx context.Context, tarotistID string, from, to time.Time) ([]domain.Session, error) {
	return listOpenSessions(ctx, t.tx, tarotistID, from, to)
}

func (t bookingTx) HasOpenSessionAt(ctx context.Context, tarotistID string, date time.Time, sessionTime string) (bool, error) {
	return t.tx.NewSelect().
		Model((*domain.Session)(nil)).
		Where("tarotist_id = ?", tarotistID).
		Where("session_date = ?", domain.DateOnly(date)).
		Where("session_time = ?", sessionTime).
		Where("status IN (?)", bun.In([]domain.SessionStatus{domain.SessionStatusPending, domain.SessionStatusConfirmed})).
		Exists(ctx)
}

func (t bookingTx) HasPendingSessionWith(ctx context.Context, userID, tarotistID string) (bool, error) {
	return hasPendingSessionWith(ctx, t.tx, userID, tarotistID)
}

func (t bookingTx) CreateSession(ctx context.Context, s domain.Session) (domain.Session, error) {
	m := s
	_, err := t.tx.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "sessions_one_open_per_slot" {
			return domain.Session{}, store.ErrConflict
		}
		return domain.Session{}, err
	}
	return m, nil
}

func (t bookingTx) GetSessionForUser(ctx context.Context, userID string, id uuid.UUID) (domain.Session, error) {
	return getSession(ctx, t.tx, "user_id", userID, id)
}

func (t bookingTx) GetSessionForTarotist(ctx context.Context, tarotistID string, id uuid.UUID) (domain.Session, error) {
	return getSession(ctx, t.tx, "tarotist_id", tarotistID, id)
}

func (t bookingTx) UpdateSession(ctx context.Context, s domain.Session) (domain.Session, error) {
	m := s
	res, err := t.tx.NewUpdate().Model(&m).WherePK().Exec(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Session{}, err
	}
	if affected == 0 {
		return domain.Session{}, store.ErrNotFound
	}
	return m, nil
}

func getSession(ctx context.Context, db bun.IDB, ownerColumn, ownerID string, id uuid.UUID) (domain.Session, error) {
	var s domain.Session
	err := db.NewSelect().
		Model(&s).
		Where("? = ?", bun.Ident(ownerColumn), ownerID).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, store.ErrNotFound
		}
		return domain.Session{}, err
	}
	return s, nil
}

func listExceptions(ctx context.Context, db bun.IDB, tarotistID string, from, to time.Time) ([]domain.AvailabilityException, error) {
	var rows []domain.AvailabilityException
	err := db.NewSelect().
		Model(&rows).
		Where("tarotist_id = ?", tarotistID).
		Where("exception_date >= ?", domain.DateOnly(from)).
		Where("exception_date <= ?", domain.DateOnly(to)).
		OrderExpr("exception_date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func listOpenSessions(ctx context.Context, db bun.IDB, tarotistID string, from, to time.Time) ([]domain.Session, error) {
	var rows []domain.Session
	err := db.NewSelect().
		Model(&rows).
		Where("tarotist_id = ?", tarotistID).
		Where("session_date >= ?", domain.DateOnly(from)).
		Where("session_date <= ?", domain.DateOnly(to)).
		Where("status IN (?)", bun.In([]domain.SessionStatus{domain.SessionStatusPending, domain.SessionStatusConfirmed})).
		OrderExpr("session_date ASC, session_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func hasPendingSessionWith(ctx context.Context, db bun.IDB, userID, tarotistID string) (bool, error) {
	return db.NewSelect().
		Model((*domain.Session)(nil)).
		Where("user_id = ?", userID).
		Where("tarotist_id = ?", tarotistID).
		Where("status = ?", domain.SessionStatusPending).
		Exists(ctx)
}
