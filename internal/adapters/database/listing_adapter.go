package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"
	"github.com/savdohub/ranking-engine/internal/domain/entities"
	"github.com/savdohub/ranking-engine/internal/domain/repositories"
	"github.com/savdohub/ranking-engine/internal/infrastructure/clients/postgres"
	apperrors "github.com/savdohub/ranking-engine/pkg/errors"
)

var listingColumns = []interface{}{
	"id", "seller_id", "title", "description", "category", "tags",
	"price", "currency", "image_count", "is_boosted", "is_active",
	"created_at", "updated_at",
}

// ListingAdapter implements ListingRepository over Postgres
type ListingAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewListingAdapter creates a new listing adapter
func NewListingAdapter(client *postgres.Client) repositories.ListingRepository {
	return &ListingAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetByID retrieves a listing by ID
func (a *ListingAdapter) GetByID(ctx context.Context, id string) (*entities.Listing, error) {
	query, args, err := a.db.Select(listingColumns...).
		From("listings").
		Where(goqu.Ex{"id": id}).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build listing query", err)
	}

	row := a.client.DB().QueryRowContext(ctx, query, args...)
	listing, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("listing not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get listing", err)
	}

	return listing, nil
}

// GetByIDs retrieves multiple listings by their IDs
func (a *ListingAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Listing, error) {
	if len(ids) == 0 {
		return []*entities.Listing{}, nil
	}

	query, args, err := a.db.Select(listingColumns...).
		From("listings").
		Where(goqu.Ex{"id": ids}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build listings query", err)
	}

	return a.queryListings(ctx, query, args)
}

// ListRecent retrieves active listings newest first
func (a *ListingAdapter) ListRecent(ctx context.Context, limit int) ([]*entities.Listing, error) {
	if limit <= 0 {
		limit = 50
	}

	query, args, err := a.db.Select(listingColumns...).
		From("listings").
		Where(goqu.Ex{"is_active": true}).
		Order(goqu.I("created_at").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build recent listings query", err)
	}

	return a.queryListings(ctx, query, args)
}

func (a *ListingAdapter) queryListings(ctx context.Context, query string, args []interface{}) ([]*entities.Listing, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query listings", err)
	}
	defer rows.Close()

	var listings []*entities.Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan listing", err)
		}
		listings = append(listings, listing)
	}

	return listings, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(row rowScanner) (*entities.Listing, error) {
	listing := &entities.Listing{}
	var description, category sql.NullString
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&listing.ID,
		&listing.SellerID,
		&listing.Title,
		&description,
		&category,
		pq.Array(&listing.Tags),
		&listing.Price,
		&listing.Currency,
		&listing.ImageCount,
		&listing.IsBoosted,
		&listing.IsActive,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	listing.Description = description.String
	listing.Category = category.String
	listing.CreatedAt = createdAt
	listing.UpdatedAt = updatedAt

	return listing, nil
}
