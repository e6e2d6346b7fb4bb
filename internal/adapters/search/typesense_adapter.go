package search

import (
	"context"
	"time"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"github.com/savdohub/ranking-engine/internal/domain/entities"
	"github.com/savdohub/ranking-engine/internal/domain/providers"
	tsclient "github.com/savdohub/ranking-engine/internal/infrastructure/clients/typesense"
	apperrors "github.com/savdohub/ranking-engine/pkg/errors"
)

// TypesenseAdapter implements CandidateSource against the listings
// collection maintained by the external indexer. The engine only
// retrieves candidates here; scoring happens in the ranking service.
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ providers.CandidateSource = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense candidate source
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// Search returns listing snapshots loosely matching the query
func (a *TypesenseAdapter) Search(ctx context.Context, query string, limit int) ([]*entities.Listing, error) {
	if limit <= 0 {
		limit = 50
	}

	params := &api.SearchCollectionParams{
		Q:        pointer.String(query),
		QueryBy:  pointer.String("title,description,tags"),
		FilterBy: pointer.String("is_active:true"),
		PerPage:  pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(tsclient.ListingsCollection).Documents().Search(ctx, params)
	if err != nil {
		return nil, apperrors.NewExternalError("typesense search failed", err)
	}

	if result.Hits == nil {
		return []*entities.Listing{}, nil
	}

	listings := make([]*entities.Listing, 0, len(*result.Hits))
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		listings = append(listings, documentToListing(*hit.Document))
	}

	return listings, nil
}

func documentToListing(doc map[string]interface{}) *entities.Listing {
	listing := &entities.Listing{
		ID:          stringField(doc, "id"),
		SellerID:    stringField(doc, "seller_id"),
		Title:       stringField(doc, "title"),
		Description: stringField(doc, "description"),
		Category:    stringField(doc, "category"),
	}

	if tags, ok := doc["tags"].([]interface{}); ok {
		for _, t := range tags {
			if s, ok := t.(string); ok {
				listing.Tags = append(listing.Tags, s)
			}
		}
	}
	if boosted, ok := doc["is_boosted"].(bool); ok {
		listing.IsBoosted = boosted
	}
	if active, ok := doc["is_active"].(bool); ok {
		listing.IsActive = active
	}
	if createdAt, ok := doc["created_at"].(float64); ok {
		listing.CreatedAt = time.Unix(int64(createdAt), 0)
	}

	return listing
}

func stringField(doc map[string]interface{}, key string) string {
	if v, ok := doc[key].(string); ok {
		return v
	}
	return ""
}
