package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/savdohub/ranking-engine/internal/domain/entities"
	apperrors "github.com/savdohub/ranking-engine/pkg/errors"
)

func TestTrack_RejectsInvalidInteractions(t *testing.T) {
	svc := NewInteractionTrackingService(&fakeInteractionRepo{}, nil)
	ctx := context.Background()

	cases := []struct {
		name        string
		interaction *entities.Interaction
	}{
		{"nil interaction", nil},
		{"missing listing id", &entities.Interaction{Type: entities.InteractionView}},
		{"unknown type", &entities.Interaction{ListingID: "l1", Type: "hover"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Track(ctx, tc.interaction)

			require.Error(t, err)
			appErr, ok := err.(*apperrors.AppError)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
		})
	}
}

func TestTrack_AcceptsValidInteraction(t *testing.T) {
	svc := NewInteractionTrackingService(&fakeInteractionRepo{}, nil)

	err := svc.Track(context.Background(), &entities.Interaction{
		ListingID:   "l1",
		UserID:      "u1",
		Type:        entities.InteractionView,
		MatchedTags: []string{"telefon"},
	})

	assert.NoError(t, err)
}

func TestTrack_StampsCreatedAt(t *testing.T) {
	svc := NewInteractionTrackingService(&fakeInteractionRepo{}, nil)

	interaction := &entities.Interaction{ListingID: "l1", Type: entities.InteractionClick}
	err := svc.Track(context.Background(), interaction)

	require.NoError(t, err)
	assert.False(t, interaction.CreatedAt.IsZero())
}
