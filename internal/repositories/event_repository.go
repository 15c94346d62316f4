package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/learntrack/backend/internal/models"
)

type eventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sql.DB) *eventRepository {
	return &eventRepository{
		db: db,
	}
}

// GetByID retrieves a live-session event by its ID
func (r *eventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	query := `
		SELECT id, course_id, instructor_id, title, starts_at
		FROM events
		WHERE id = ?
		LIMIT 1
	`

	var event models.Event
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.CourseID,
		&event.InstructorID,
		&event.Title,
		&event.StartsAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("event %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event by id: %w", err)
	}

	return &event, nil
}
