package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/estate/internal/models"
)

const offerColumns = `
	id,
	price,
	status,
	partner_id,
	property_id,
	property_type_id,
	validity,
	date_deadline,
	create_date`

// offerRepository is the PostgreSQL implementation of OfferRepository.
type offerRepository struct {
	q querier
}

func scanOffer(row pgx.Row, o *models.Offer) error {
	return row.Scan(
		&o.ID,
		&o.Price,
		&o.Status,
		&o.PartnerID,
		&o.PropertyID,
		&o.PropertyTypeID,
		&o.Validity,
		&o.DateDeadline,
		&o.CreateDate,
	)
}

// Create inserts an offer. CreateDate is kept when already set so the stored
// deadline matches the one computed by the caller.
func (r *offerRepository) Create(ctx context.Context, o *models.Offer) error {
	query := `
		INSERT INTO offers (
			price, status, partner_id, property_id, property_type_id,
			validity, date_deadline, create_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()))
		RETURNING id, create_date
	`

	var createDate *time.Time
	if !o.CreateDate.IsZero() {
		createDate = &o.CreateDate
	}

	err := r.q.QueryRow(ctx, query,
		o.Price, o.Status, o.PartnerID, o.PropertyID, o.PropertyTypeID,
		o.Validity, o.DateDeadline, createDate,
	).Scan(&o.ID, &o.CreateDate)
	if err != nil {
		return translateError(err, "offer", "create")
	}
	return nil
}

// Get loads a single offer by id.
func (r *offerRepository) Get(ctx context.Context, id int64) (*models.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`

	var o models.Offer
	if err := scanOffer(r.q.QueryRow(ctx, query, id), &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query offer %d: %w", id, err)
	}
	return &o, nil
}

// ListByProperty returns the offers of a property, highest price first.
func (r *offerRepository) ListByProperty(ctx context.Context, propertyID int64) ([]models.Offer, error) {
	query := `
		SELECT ` + offerColumns + `
		FROM offers
		WHERE property_id = $1
		ORDER BY price DESC, id ASC
	`

	rows, err := r.q.Query(ctx, query, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers of property %d: %w", propertyID, err)
	}
	defer rows.Close()

	results := []models.Offer{}
	for rows.Next() {
		var o models.Offer
		if err := scanOffer(rows, &o); err != nil {
			return nil, fmt.Errorf("failed to scan offer row: %w", err)
		}
		results = append(results, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offer rows: %w", err)
	}

	return results, nil
}

// Update writes the mutable columns of an offer.
func (r *offerRepository) Update(ctx context.Context, o *models.Offer) error {
	query := `
		UPDATE offers SET
			price = $2,
			status = $3,
			partner_id = $4,
			property_type_id = $5,
			validity = $6,
			date_deadline = $7
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query,
		o.ID, o.Price, o.Status, o.PartnerID, o.PropertyTypeID, o.Validity, o.DateDeadline,
	)
	if err != nil {
		return translateError(err, "offer", "update")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update offer %d: %w", o.ID, pgx.ErrNoRows)
	}
	return nil
}

// Delete removes an offer.
func (r *offerRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return false, translateError(err, "offer", "delete")
	}
	return tag.RowsAffected() > 0, nil
}

// CountByType counts offers carrying the given property type.
func (r *offerRepository) CountByType(ctx context.Context, typeID int64) (int, error) {
	var count int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM offers WHERE property_type_id = $1`, typeID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count offers of type %d: %w", typeID, err)
	}
	return count, nil
}

// SetPropertyType rewrites the denormalized type of every offer of a property.
func (r *offerRepository) SetPropertyType(ctx context.Context, propertyID int64, typeID *int64) error {
	_, err := r.q.Exec(ctx,
		`UPDATE offers SET property_type_id = $2 WHERE property_id = $1`, propertyID, typeID,
	)
	if err != nil {
		return translateError(err, "offer", "update")
	}
	return nil
}
