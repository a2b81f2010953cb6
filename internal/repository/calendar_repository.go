package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/planboard-api/internal/models"
	appErrors "github.com/noah-isme/planboard-api/pkg/errors"
)

// CalendarRepository persists shared calendars.
type CalendarRepository struct {
	db *sqlx.DB
}

// NewCalendarRepository constructs a calendar repository.
func NewCalendarRepository(db *sqlx.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// Create inserts a calendar.
func (r *CalendarRepository) Create(ctx context.Context, calendar *models.Calendar) error {
	if calendar.ID == "" {
		calendar.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	calendar.CreatedAt = now
	calendar.UpdatedAt = now
	const query = `INSERT INTO calendars (id, name, passcode_hash, created_at, updated_at)
VALUES (:id, :name, :passcode_hash, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, calendar); err != nil {
		return fmt.Errorf("create calendar: %w", err)
	}
	return nil
}

// GetByID fetches a calendar.
func (r *CalendarRepository) GetByID(ctx context.Context, id string) (*models.Calendar, error) {
	const query = `SELECT id, name, passcode_hash, created_at, updated_at FROM calendars WHERE id = $1`
	var calendar models.Calendar
	if err := r.db.GetContext(ctx, &calendar, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "calendar not found")
		}
		return nil, fmt.Errorf("get calendar: %w", err)
	}
	return &calendar, nil
}

// Rename updates the display name.
func (r *CalendarRepository) Rename(ctx context.Context, id, name string) error {
	const query = `UPDATE calendars SET name = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, name, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("rename calendar: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "calendar not found")
	}
	return nil
}
