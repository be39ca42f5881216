package database

import (
	"context"
	"fmt"

	"campusrooms/internal/models"
)

// ListAuditEntries returns the audit trail for one reservation in the
// order the transitions occurred. Entries are never mutated or deleted;
// the only writers are CreateReservation and ApplyTransition.
func (db *DB) ListAuditEntries(ctx context.Context, reservationID int64) ([]*models.AuditEntry, error) {
	query := `SELECT id, reservation_id, actor_id, previous_status, new_status,
			action, COALESCE(reason, ''), created_at
		FROM reservation_history WHERE reservation_id = ? ORDER BY id ASC`
	rows, err := db.db.QueryContext(ctx, query, reservationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		e := &models.AuditEntry{}
		err := rows.Scan(
			&e.ID, &e.ReservationID, &e.ActorID, &e.PreviousStatus,
			&e.NewStatus, &e.Action, &e.Reason, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}
	return entries, nil
}
