package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/planboard-api/internal/models"
)

// EntityRepository is the persistence collaborator for board entities. Every
// top-level board object is stored as a JSONB payload keyed by calendar, type and id.
type EntityRepository struct {
	db *sqlx.DB
}

// NewEntityRepository constructs an entity repository.
func NewEntityRepository(db *sqlx.DB) *EntityRepository {
	return &EntityRepository{db: db}
}

// Query returns all stored entities of one type for a calendar.
func (r *EntityRepository) Query(ctx context.Context, calendarID string, entityType models.EntityType) ([]models.Entity, error) {
	const query = `SELECT id, calendar_id, type, payload, created_at, updated_at
FROM board_entities WHERE calendar_id = $1 AND type = $2 ORDER BY created_at ASC, id ASC`
	var entities []models.Entity
	if err := r.db.SelectContext(ctx, &entities, query, calendarID, string(entityType)); err != nil {
		return nil, fmt.Errorf("query %s entities: %w", entityType, err)
	}
	return entities, nil
}

// Upsert stores an entity and returns its canonical stored form. An id is
// assigned when absent.
func (r *EntityRepository) Upsert(ctx context.Context, calendarID string, entity models.Entity) (*models.Entity, error) {
	const query = `INSERT INTO board_entities (id, calendar_id, type, payload, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
ON CONFLICT (calendar_id, type, id)
DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
RETURNING id, calendar_id, type, payload, created_at, updated_at`
	if entity.ID == "" {
		entity.ID = uuid.NewString()
	}
	if len(entity.Payload) == 0 {
		entity.Payload = []byte("{}")
	}
	var stored models.Entity
	err := r.db.QueryRowxContext(ctx, query,
		entity.ID, calendarID, string(entity.Type), entity.Payload, time.Now().UTC(),
	).StructScan(&stored)
	if err != nil {
		return nil, fmt.Errorf("upsert %s entity %s: %w", entity.Type, entity.ID, err)
	}
	return &stored, nil
}

// Delete removes an entity. Deleting a missing entity is not an error.
func (r *EntityRepository) Delete(ctx context.Context, calendarID, entityID string) error {
	const query = `DELETE FROM board_entities WHERE calendar_id = $1 AND id = $2`
	if _, err := r.db.ExecContext(ctx, query, calendarID, entityID); err != nil {
		return fmt.Errorf("delete entity %s: %w", entityID, err)
	}
	return nil
}

// DeleteMany removes a batch of entities in one statement.
func (r *EntityRepository) DeleteMany(ctx context.Context, calendarID string, entityIDs []string) (int64, error) {
	if len(entityIDs) == 0 {
		return 0, nil
	}
	const query = `DELETE FROM board_entities WHERE calendar_id = $1 AND id = ANY($2)`
	res, err := r.db.ExecContext(ctx, query, calendarID, pq.Array(entityIDs))
	if err != nil {
		return 0, fmt.Errorf("delete entities: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}
