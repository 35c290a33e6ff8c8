package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/estate/internal/models"
)

// typeRepository is the PostgreSQL implementation of PropertyTypeRepository.
// offer_count is computed by the services layer and is not stored.
type typeRepository struct {
	q querier
}

func (r *typeRepository) Create(ctx context.Context, t *models.PropertyType) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO property_types (name, sequence)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, t.Name, t.Sequence).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return translateError(err, "property type", "create")
	}
	return nil
}

func (r *typeRepository) Get(ctx context.Context, id int64) (*models.PropertyType, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *typeRepository) GetByName(ctx context.Context, name string) (*models.PropertyType, error) {
	return r.getBy(ctx, "name = $1", name)
}

func (r *typeRepository) getBy(ctx context.Context, cond string, arg any) (*models.PropertyType, error) {
	var t models.PropertyType
	err := r.q.QueryRow(ctx,
		`SELECT id, name, sequence, created_at FROM property_types WHERE `+cond, arg,
	).Scan(&t.ID, &t.Name, &t.Sequence, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query property type: %w", err)
	}
	return &t, nil
}

func (r *typeRepository) List(ctx context.Context) ([]models.PropertyType, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, name, sequence, created_at
		FROM property_types
		ORDER BY sequence ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query property types: %w", err)
	}
	defer rows.Close()

	results := []models.PropertyType{}
	for rows.Next() {
		var t models.PropertyType
		if err := rows.Scan(&t.ID, &t.Name, &t.Sequence, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan property type row: %w", err)
		}
		results = append(results, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating property type rows: %w", err)
	}
	return results, nil
}

func (r *typeRepository) Update(ctx context.Context, t *models.PropertyType) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE property_types SET name = $2, sequence = $3 WHERE id = $1`,
		t.ID, t.Name, t.Sequence,
	)
	if err != nil {
		return translateError(err, "property type", "update")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update property type %d: %w", t.ID, pgx.ErrNoRows)
	}
	return nil
}

// Delete removes a type. Properties and offers referencing it are unset by
// the ON DELETE SET NULL foreign keys.
func (r *typeRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM property_types WHERE id = $1`, id)
	if err != nil {
		return false, translateError(err, "property type", "delete")
	}
	return tag.RowsAffected() > 0, nil
}

// tagRepository is the PostgreSQL implementation of PropertyTagRepository.
type tagRepository struct {
	q querier
}

func (r *tagRepository) Create(ctx context.Context, t *models.PropertyTag) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO property_tags (name, color)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, t.Name, t.Color).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return translateError(err, "tag", "create")
	}
	return nil
}

func (r *tagRepository) Get(ctx context.Context, id int64) (*models.PropertyTag, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *tagRepository) GetByName(ctx context.Context, name string) (*models.PropertyTag, error) {
	return r.getBy(ctx, "name = $1", name)
}

func (r *tagRepository) getBy(ctx context.Context, cond string, arg any) (*models.PropertyTag, error) {
	var t models.PropertyTag
	err := r.q.QueryRow(ctx,
		`SELECT id, name, color, created_at FROM property_tags WHERE `+cond, arg,
	).Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query tag: %w", err)
	}
	return &t, nil
}

func (r *tagRepository) List(ctx context.Context) ([]models.PropertyTag, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, name, color, created_at
		FROM property_tags
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	results := []models.PropertyTag{}
	for rows.Next() {
		var t models.PropertyTag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		results = append(results, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tag rows: %w", err)
	}
	return results, nil
}

func (r *tagRepository) Update(ctx context.Context, t *models.PropertyTag) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE property_tags SET name = $2, color = $3 WHERE id = $1`,
		t.ID, t.Name, t.Color,
	)
	if err != nil {
		return translateError(err, "tag", "update")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update tag %d: %w", t.ID, pgx.ErrNoRows)
	}
	return nil
}

func (r *tagRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM property_tags WHERE id = $1`, id)
	if err != nil {
		return false, translateError(err, "tag", "delete")
	}
	return tag.RowsAffected() > 0, nil
}
