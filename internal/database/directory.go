package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"campusrooms/internal/models"
)

// Directory lookups. The reservation core only reads these tables;
// catalog and account management live outside the core.

func (db *DB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	query := `SELECT id, name, email, role, created_at FROM users WHERE id = ?`
	err := db.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.Email, &user.Role, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (db *DB) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	var room models.Room
	query := `SELECT id, name, capacity, is_active FROM rooms WHERE id = ?`
	err := db.db.QueryRowContext(ctx, query, id).Scan(
		&room.ID, &room.Name, &room.Capacity, &room.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return &room, nil
}

func (db *DB) ListRooms(ctx context.Context) ([]*models.Room, error) {
	query := `SELECT id, name, capacity, is_active FROM rooms ORDER BY name ASC`
	rows, err := db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		r := &models.Room{}
		if err := rows.Scan(&r.ID, &r.Name, &r.Capacity, &r.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rooms: %w", err)
	}
	return rooms, nil
}

// UpsertUser seeds or refreshes a directory user by id.
func (db *DB) UpsertUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, name, email, role) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, email = excluded.email, role = excluded.role`
	if _, err := db.db.ExecContext(ctx, query, user.ID, user.Name, user.Email, user.Role); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// UpsertRoom seeds or refreshes a catalog room by id.
func (db *DB) UpsertRoom(ctx context.Context, room *models.Room) error {
	query := `INSERT INTO rooms (id, name, capacity, is_active) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, capacity = excluded.capacity, is_active = excluded.is_active`
	if _, err := db.db.ExecContext(ctx, query, room.ID, room.Name, room.Capacity, room.IsActive); err != nil {
		return fmt.Errorf("failed to upsert room: %w", err)
	}
	return nil
}
