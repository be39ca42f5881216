package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campusrooms/internal/models"
)

const reservationColumns = `id, room_id, requester_id, start_time, end_time,
	purpose, status, COALESCE(reason, ''), created_at, updated_at, version`

// CreateReservation validates room availability against APPROVED
// reservations inside the transaction, inserts the reservation in PENDING
// status, and appends the CREATED audit entry. The insert and the audit
// row commit or roll back together.
func (db *DB) CreateReservation(ctx context.Context, res *models.Reservation) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Re-check the overlap inside the transaction. Only APPROVED
	// reservations participate; coexisting PENDING requests are resolved
	// at approval time.
	var conflicts int
	queryCount := `SELECT COUNT(*) FROM reservations
		WHERE room_id = ? AND status = ? AND start_time < ? AND end_time > ?`
	err = tx.QueryRowContext(ctx, queryCount, res.RoomID, models.StatusApproved,
		res.EndTime.UTC(), res.StartTime.UTC()).Scan(&conflicts)
	if err != nil {
		return fmt.Errorf("failed to check overlap in tx: %w", err)
	}
	if conflicts > 0 {
		return ErrOverlap
	}

	now := time.Now().UTC()
	queryInsert := `INSERT INTO reservations (
			room_id, requester_id, start_time, end_time, purpose,
			status, created_at, updated_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, queryInsert,
		res.RoomID,
		res.RequesterID,
		res.StartTime.UTC(),
		res.EndTime.UTC(),
		res.Purpose,
		models.StatusPending,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reservation in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}

	queryHistory := `INSERT INTO reservation_history (
			reservation_id, actor_id, previous_status, new_status, action, reason, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, queryHistory,
		id, res.RequesterID, "", models.StatusPending, models.ActionCreated, "", now)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry in tx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reservation: %w", err)
	}

	res.ID = id
	res.Status = models.StatusPending
	res.CreatedAt = now
	res.UpdatedAt = now
	res.Version = 1
	return nil
}

// ApplyTransition updates the reservation status guarded by the version
// column and appends the matching audit entry in one transaction.
// A version mismatch means a concurrent transition won; the caller gets
// ErrConcurrentModification and nothing is written.
func (db *DB) ApplyTransition(ctx context.Context, p models.TransitionParams) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()

	var result sql.Result
	if p.SetReason {
		query := `UPDATE reservations SET status = ?, reason = ?, version = version + 1, updated_at = ?
			WHERE id = ? AND version = ?`
		result, err = tx.ExecContext(ctx, query, p.ToStatus, p.Reason, now, p.ReservationID, p.FromVersion)
	} else {
		query := `UPDATE reservations SET status = ?, version = version + 1, updated_at = ?
			WHERE id = ? AND version = ?`
		result, err = tx.ExecContext(ctx, query, p.ToStatus, now, p.ReservationID, p.FromVersion)
	}
	if err != nil {
		return fmt.Errorf("failed to update reservation status: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM reservations WHERE id = ?`, p.ReservationID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check reservation existence: %w", err)
		}
		if exists == 0 {
			return ErrReservationNotFound
		}
		return ErrConcurrentModification
	}

	queryHistory := `INSERT INTO reservation_history (
			reservation_id, actor_id, previous_status, new_status, action, reason, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, queryHistory,
		p.ReservationID, p.ActorID, p.FromStatus, p.ToStatus, p.Action, p.Reason, now)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry in tx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transition: %w", err)
	}
	return nil
}

func (db *DB) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(db.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return res, nil
}

func (db *DB) ListReservations(ctx context.Context) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations ORDER BY start_time ASC, id ASC`
	return db.queryReservations(ctx, query)
}

func (db *DB) ListUserReservations(ctx context.Context, userID int64) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE requester_id = ? ORDER BY start_time DESC, id DESC`
	return db.queryReservations(ctx, query, userID)
}

// GetReservationsByDateRange returns reservations whose window intersects
// [start, end], for reporting.
func (db *DB) GetReservationsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE start_time < ? AND end_time > ? ORDER BY start_time ASC, id ASC`
	return db.queryReservations(ctx, query, end.UTC(), start.UTC())
}

// FindConflicting returns APPROVED reservations for the room whose
// half-open window intersects [start, end). Back-to-back windows do not
// conflict. PENDING, REJECTED and CANCELLED reservations are invisible
// to this query.
func (db *DB) FindConflicting(ctx context.Context, roomID int64, start, end time.Time) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE room_id = ? AND status = ? AND start_time < ? AND end_time > ?
		ORDER BY start_time ASC`
	return db.queryReservations(ctx, query, roomID, models.StatusApproved, end.UTC(), start.UTC())
}

func (db *DB) queryReservations(ctx context.Context, query string, args ...any) ([]*models.Reservation, error) {
	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*models.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reservations: %w", err)
	}
	return reservations, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*models.Reservation, error) {
	var res models.Reservation
	err := row.Scan(
		&res.ID, &res.RoomID, &res.RequesterID, &res.StartTime, &res.EndTime,
		&res.Purpose, &res.Status, &res.Reason, &res.CreatedAt, &res.UpdatedAt,
		&res.Version,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
