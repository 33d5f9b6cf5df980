package repositories

import (
	"context"
	"fmt"

	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/gtech-mulearn/mulearn/internal/db"
	"github.com/gtech-mulearn/mulearn/internal/pkg/apperrors"
	"github.com/gtech-mulearn/mulearn/internal/pkg/dberrors"
)

// IIntegrationRepository defines partner account links
type IIntegrationRepository interface {
	Get(ctx context.Context, integration, userID string) (*models.IntegrationAuthorization, error)
	Upsert(ctx context.Context, auth *models.IntegrationAuthorization) error
	Delete(ctx context.Context, integration, userID string) error
}

// IntegrationRepository handles integration_authorizations
type IntegrationRepository struct {
	db db.Querier
}

// NewIntegrationRepository creates a new IntegrationRepository
func NewIntegrationRepository(q db.Querier) *IntegrationRepository {
	return &IntegrationRepository{db: q}
}

// Get retrieves the user's link for an integration by name
func (r *IntegrationRepository) Get(ctx context.Context, integration, userID string) (*models.IntegrationAuthorization, error) {
	a := &models.IntegrationAuthorization{}
	err := r.db.QueryRow(ctx, `
		SELECT a.id, i.name, a.user_id, a.integration_value, a.additional_field, a.verified, a.created_at, a.updated_at
		FROM integration_authorizations a
		JOIN integrations i ON i.id = a.integration_id
		WHERE i.name = $1 AND a.user_id = $2`,
		integration, userID).Scan(&a.ID, &a.Integration, &a.UserID, &a.IntegrationValue,
		&a.AdditionalField, &a.Verified, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrIntegrationNotLinked
		}
		return nil, fmt.Errorf("error retrieving integration authorization: %w", err)
	}
	return a, nil
}

// Upsert creates or replaces the user's link. An external value already
// linked to another user returns ErrIntegrationValueTaken.
func (r *IntegrationRepository) Upsert(ctx context.Context, a *models.IntegrationAuthorization) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO integration_authorizations (integration_id, user_id, integration_value, additional_field, verified)
		SELECT i.id, $2::uuid, $3::text, $4::text, $5::boolean FROM integrations i WHERE i.name = $1
		ON CONFLICT ON CONSTRAINT integration_authorizations_user_key DO UPDATE
		SET integration_value = EXCLUDED.integration_value,
			additional_field = EXCLUDED.additional_field,
			verified = EXCLUDED.verified,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		a.Integration, a.UserID, a.IntegrationValue, a.AdditionalField, a.Verified).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, "integration_authorizations_value_key"):
			return apperrors.ErrIntegrationValueTaken
		case dberrors.IsNoRows(err):
			return apperrors.NewResourceNotFoundError(fmt.Sprintf("integration %q is not configured", a.Integration))
		}
		return fmt.Errorf("error saving integration authorization: %w", err)
	}
	return nil
}

// Delete removes the user's link
func (r *IntegrationRepository) Delete(ctx context.Context, integration, userID string) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM integration_authorizations a
		USING integrations i
		WHERE i.id = a.integration_id AND i.name = $1 AND a.user_id = $2`,
		integration, userID)
	if err != nil {
		return fmt.Errorf("error deleting integration authorization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrIntegrationNotLinked
	}
	return nil
}
