package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/reviewcal/pkg/models"
)

// ItemRepository stores the imported curriculum
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository creates a new repository instance
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// SaveLessons inserts every label of every lesson, skipping ones already
// stored. It returns the number of new rows.
func (r *ItemRepository) SaveLessons(ctx context.Context, lessons []models.Lesson) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := tx.Rebind(`
		INSERT INTO items (label, lesson_id) VALUES (?, ?)
		ON CONFLICT (label, lesson_id) DO NOTHING
	`)
	created := 0
	for _, lesson := range lessons {
		for _, label := range lesson.Labels {
			result, err := tx.ExecContext(ctx, query, label, lesson.ID)
			if err != nil {
				return 0, fmt.Errorf("failed to create item: %w", err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return 0, fmt.Errorf("failed to get rows affected: %w", err)
			}
			created += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit items: %w", err)
	}
	return created, nil
}

// GetAll returns every stored item ordered by lesson, then insertion
func (r *ItemRepository) GetAll(ctx context.Context) ([]models.StoredItem, error) {
	var items []models.StoredItem
	err := r.db.SelectContext(ctx, &items, `
		SELECT id, label, lesson_id, created_at
		FROM items
		ORDER BY lesson_id, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	return items, nil
}

// Lessons groups the stored items into lessons
func (r *ItemRepository) Lessons(ctx context.Context) ([]models.Lesson, error) {
	items, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var lessons []models.Lesson
	for _, item := range items {
		if len(lessons) == 0 || lessons[len(lessons)-1].ID != item.LessonID {
			lessons = append(lessons, models.Lesson{ID: item.LessonID})
		}
		last := &lessons[len(lessons)-1]
		last.Labels = append(last.Labels, item.Label)
	}
	return lessons, nil
}
