package database

import (
	"context"
	"fmt"
	"time"

	"campusrooms/internal/models"
)

// IsHolidayDate reports whether an active holiday blocks the calendar
// date of the given instant. A holiday blocks the whole day regardless
// of time-of-day.
func (db *DB) IsHolidayDate(ctx context.Context, at time.Time) (bool, error) {
	dateStr := at.UTC().Format("2006-01-02")

	var count int
	query := `SELECT COUNT(*) FROM holidays WHERE date = ? AND is_active = 1`
	if err := db.db.QueryRowContext(ctx, query, dateStr).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check holiday: %w", err)
	}
	return count > 0, nil
}

func (db *DB) UpsertHoliday(ctx context.Context, holiday *models.Holiday) error {
	query := `INSERT INTO holidays (date, name, is_active) VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET name = excluded.name, is_active = excluded.is_active`
	if _, err := db.db.ExecContext(ctx, query, holiday.Date, holiday.Name, holiday.IsActive); err != nil {
		return fmt.Errorf("failed to upsert holiday: %w", err)
	}
	return nil
}

func (db *DB) ListHolidays(ctx context.Context) ([]*models.Holiday, error) {
	query := `SELECT date, name, is_active FROM holidays ORDER BY date ASC`
	rows, err := db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []*models.Holiday
	for rows.Next() {
		h := &models.Holiday{}
		if err := rows.Scan(&h.Date, &h.Name, &h.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holidays: %w", err)
	}
	return holidays, nil
}
