package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/savdohub/ranking-engine/internal/domain/entities"
	"github.com/savdohub/ranking-engine/internal/domain/repositories"
	"github.com/savdohub/ranking-engine/internal/infrastructure/clients/postgres"
	apperrors "github.com/savdohub/ranking-engine/pkg/errors"
)

// InteractionAdapter implements InteractionRepository over Postgres
type InteractionAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewInteractionAdapter creates a new interaction adapter
func NewInteractionAdapter(client *postgres.Client) repositories.InteractionRepository {
	return &InteractionAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Record appends one interaction row
func (a *InteractionAdapter) Record(ctx context.Context, interaction *entities.Interaction) error {
	if interaction.ID == "" {
		interaction.ID = uuid.New().String()
	}
	if interaction.CreatedAt.IsZero() {
		interaction.CreatedAt = time.Now()
	}

	record := goqu.Record{
		"id":               interaction.ID,
		"listing_id":       interaction.ListingID,
		"user_id":          interaction.UserID,
		"interaction_type": string(interaction.Type),
		"matched_tags":     pq.Array(interaction.MatchedTags),
		"query":            sql.NullString{String: interaction.Query, Valid: interaction.Query != ""},
		"created_at":       interaction.CreatedAt,
	}

	query, args, err := a.db.Insert("interactions").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build interaction insert", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to record interaction", err)
	}

	return nil
}

// ListByUser returns a user's interactions since the given time, newest first
func (a *InteractionAdapter) ListByUser(ctx context.Context, userID string, since time.Time) ([]*entities.Interaction, error) {
	query, args, err := a.db.Select("id", "listing_id", "user_id", "interaction_type", "matched_tags", "query", "created_at").
		From("interactions").
		Where(goqu.Ex{"user_id": userID}, goqu.C("created_at").Gte(since)).
		Order(goqu.I("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build interactions query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query interactions", err)
	}
	defer rows.Close()

	var interactions []*entities.Interaction
	for rows.Next() {
		interaction := &entities.Interaction{}
		var interactionType string
		var q sql.NullString

		err := rows.Scan(
			&interaction.ID,
			&interaction.ListingID,
			&interaction.UserID,
			&interactionType,
			pq.Array(&interaction.MatchedTags),
			&q,
			&interaction.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan interaction", err)
		}

		interaction.Type = entities.InteractionType(interactionType)
		interaction.Query = q.String
		interactions = append(interactions, interaction)
	}

	return interactions, nil
}

// GetListingFunnel returns per-stage counts for one listing since the given time
func (a *InteractionAdapter) GetListingFunnel(ctx context.Context, listingID string, since time.Time) (*entities.ListingFunnel, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE interaction_type = 'view')    AS views,
			COUNT(*) FILTER (WHERE interaction_type = 'click')   AS clicks,
			COUNT(*) FILTER (WHERE interaction_type = 'contact') AS contacts,
			COUNT(*) FILTER (WHERE interaction_type = 'order')   AS orders
		FROM interactions
		WHERE listing_id = $1 AND created_at >= $2
	`

	funnel := &entities.ListingFunnel{ListingID: listingID}
	err := a.client.DB().QueryRowContext(ctx, query, listingID, since).Scan(
		&funnel.Views,
		&funnel.Clicks,
		&funnel.Contacts,
		&funnel.Orders,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get listing funnel", err)
	}

	return funnel, nil
}
