package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/estate/internal/models"
)

const propertyColumns = `
	id,
	name,
	description,
	postcode,
	date_availability,
	active,
	owner_id,
	bedrooms,
	facades,
	garage,
	property_type_id,
	salesperson_id,
	buyer_id,
	living_area,
	total_area,
	best_offer,
	garden,
	garden_area,
	garden_orientation,
	state,
	selling_price,
	expected_price,
	created_at,
	updated_at`

// propertyRepository is the PostgreSQL implementation of PropertyRepository.
type propertyRepository struct {
	q querier
}

func scanProperty(row pgx.Row, p *models.Property) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Postcode,
		&p.DateAvailability,
		&p.Active,
		&p.OwnerID,
		&p.Bedrooms,
		&p.Facades,
		&p.Garage,
		&p.PropertyTypeID,
		&p.SalespersonID,
		&p.BuyerID,
		&p.LivingArea,
		&p.TotalArea,
		&p.BestOffer,
		&p.Garden,
		&p.GardenArea,
		&p.GardenOrientation,
		&p.State,
		&p.SellingPrice,
		&p.ExpectedPrice,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

// Create inserts a property row and its tag relations.
func (r *propertyRepository) Create(ctx context.Context, p *models.Property) error {
	query := `
		INSERT INTO properties (
			name, description, postcode, date_availability, active, owner_id,
			bedrooms, facades, garage, property_type_id, salesperson_id, buyer_id,
			living_area, total_area, best_offer, garden, garden_area,
			garden_orientation, state, selling_price, expected_price
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21
		)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		p.Name, p.Description, p.Postcode, p.DateAvailability, p.Active, p.OwnerID,
		p.Bedrooms, p.Facades, p.Garage, p.PropertyTypeID, p.SalespersonID, p.BuyerID,
		p.LivingArea, p.TotalArea, p.BestOffer, p.Garden, p.GardenArea,
		p.GardenOrientation, p.State, p.SellingPrice, p.ExpectedPrice,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return translateError(err, "property", "create")
	}

	return r.replaceTags(ctx, p.ID, p.TagIDs)
}

// Get loads a single property by id.
func (r *propertyRepository) Get(ctx context.Context, id int64) (*models.Property, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate loads a property and locks its row with SELECT ... FOR UPDATE.
func (r *propertyRepository) GetForUpdate(ctx context.Context, id int64) (*models.Property, error) {
	return r.get(ctx, id, true)
}

func (r *propertyRepository) get(ctx context.Context, id int64, lock bool) (*models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	var p models.Property
	if err := scanProperty(r.q.QueryRow(ctx, query, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query property %d: %w", id, err)
	}

	tags, err := r.loadTags(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	p.TagIDs = tags[id]
	if p.TagIDs == nil {
		p.TagIDs = []int64{}
	}

	return &p, nil
}

// List returns properties matching filter, newest first.
func (r *propertyRepository) List(ctx context.Context, filter PropertyFilter) ([]models.Property, error) {
	var (
		where []string
		args  []any
	)
	if filter.Active != nil {
		args = append(args, *filter.Active)
		where = append(where, fmt.Sprintf("active = $%d", len(args)))
	}
	if filter.SalespersonID != nil {
		args = append(args, *filter.SalespersonID)
		where = append(where, fmt.Sprintf("salesperson_id = $%d", len(args)))
	}
	if len(filter.States) > 0 {
		states := make([]string, 0, len(filter.States))
		for _, s := range filter.States {
			states = append(states, string(s))
		}
		args = append(args, states)
		where = append(where, fmt.Sprintf("state = ANY($%d)", len(args)))
	}

	query := `SELECT ` + propertyColumns + ` FROM properties`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	defer rows.Close()

	results := []models.Property{}
	ids := []int64{}
	for rows.Next() {
		var p models.Property
		if err := scanProperty(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan property row: %w", err)
		}
		results = append(results, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating property rows: %w", err)
	}

	tags, err := r.loadTags(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].TagIDs = tags[results[i].ID]
		if results[i].TagIDs == nil {
			results[i].TagIDs = []int64{}
		}
	}

	return results, nil
}

// Update writes all mutable columns and replaces the tag set.
func (r *propertyRepository) Update(ctx context.Context, p *models.Property) error {
	query := `
		UPDATE properties SET
			name = $2,
			description = $3,
			postcode = $4,
			date_availability = $5,
			active = $6,
			owner_id = $7,
			bedrooms = $8,
			facades = $9,
			garage = $10,
			property_type_id = $11,
			salesperson_id = $12,
			buyer_id = $13,
			living_area = $14,
			total_area = $15,
			best_offer = $16,
			garden = $17,
			garden_area = $18,
			garden_orientation = $19,
			state = $20,
			selling_price = $21,
			expected_price = $22,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		p.ID, p.Name, p.Description, p.Postcode, p.DateAvailability, p.Active, p.OwnerID,
		p.Bedrooms, p.Facades, p.Garage, p.PropertyTypeID, p.SalespersonID, p.BuyerID,
		p.LivingArea, p.TotalArea, p.BestOffer, p.Garden, p.GardenArea,
		p.GardenOrientation, p.State, p.SellingPrice, p.ExpectedPrice,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to update property %d: %w", p.ID, err)
		}
		return translateError(err, "property", "update")
	}

	return r.replaceTags(ctx, p.ID, p.TagIDs)
}

// Delete removes a property. Offers and tag relations cascade.
func (r *propertyRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return false, translateError(err, "property", "delete")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *propertyRepository) replaceTags(ctx context.Context, propertyID int64, tagIDs []int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM property_tag_rel WHERE property_id = $1`, propertyID); err != nil {
		return fmt.Errorf("failed to clear tags of property %d: %w", propertyID, err)
	}
	if len(tagIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO property_tag_rel (property_id, tag_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING
	`
	if _, err := r.q.Exec(ctx, query, propertyID, tagIDs); err != nil {
		return translateError(err, "property tag", "attach")
	}
	return nil
}

func (r *propertyRepository) loadTags(ctx context.Context, propertyIDs []int64) (map[int64][]int64, error) {
	result := make(map[int64][]int64, len(propertyIDs))
	if len(propertyIDs) == 0 {
		return result, nil
	}

	rows, err := r.q.Query(ctx, `
		SELECT property_id, tag_id
		FROM property_tag_rel
		WHERE property_id = ANY($1)
		ORDER BY property_id, tag_id
	`, propertyIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query property tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var propertyID, tagID int64
		if err := rows.Scan(&propertyID, &tagID); err != nil {
			return nil, fmt.Errorf("failed to scan property tag row: %w", err)
		}
		result[propertyID] = append(result[propertyID], tagID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating property tag rows: %w", err)
	}

	return result, nil
}
