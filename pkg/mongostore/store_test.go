package mongostore

import (
	"context"
	"testing"

	"github.com/arnavshah/manifest-api-go/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestTripDocRoundTrip(t *testing.T) {
	three := 3
	trip := models.Trip{
		ID:                 "665f1c2e9b1d4a0012345678",
		PassengerID:        "p1",
		FromOrigin:         "Base",
		ToDestination:      "NSC",
		TripDate:           "2024-06-10",
		Confirmed:          true,
		NumberOfPassengers: &three,
		SortIndices: models.SortIndices{
			models.NewBucketKey("NSC", models.Incoming):  4,
			models.NewBucketKey("Base", models.Outgoing): 1,
		},
	}

	raw, err := bson.Marshal(newTripDoc(trip))
	require.NoError(t, err)

	var doc tripDoc
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, map[string]int{"NSC-incoming": 4, "Base-outgoing": 1}, doc.SortIndices)
	assert.Equal(t, trip, doc.toModel())
}

func TestTripDocDropsMalformedKeys(t *testing.T) {
	doc := tripDoc{
		ID:          "t1",
		TripDate:    "2024-06-10",
		SortIndices: map[string]int{"NSC-incoming": 0, "NSC": 2, "NSC-sideways": 1},
	}
	got := doc.toModel()
	assert.Equal(t, models.SortIndices{models.NewBucketKey("NSC", models.Incoming): 0}, got.SortIndices)
}

func newMockStore(mt *mtest.T) *Store {
	mt.Helper()
	// one reply per index created by New
	mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())
	s, err := New(context.Background(), mt.DB)
	require.NoError(mt, err)
	return s
}

func TestStoreMissingTrips(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	nscIn := models.NewBucketKey("NSC", models.Incoming)
	noMatch := mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0})

	mt.Run("patch", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(noMatch)
		err := s.PatchTripSortIndices(ctx, "ghost", models.SortIndices{nscIn: 1})
		assert.ErrorIs(mt, err, models.ErrNotFound)
	})

	mt.Run("replace", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(noMatch)
		_, err := s.ReplaceTrip(ctx, "ghost", models.Trip{FromOrigin: "Base", ToDestination: "NSC", TripDate: "2024-06-10"})
		assert.ErrorIs(mt, err, models.ErrNotFound)
	})

	mt.Run("delete", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		assert.ErrorIs(mt, s.DeleteTrip(ctx, "ghost"), models.ErrNotFound)
	})

	mt.Run("existing trip", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)
		require.NoError(mt, s.PatchTripSortIndices(ctx, "t1", models.SortIndices{nscIn: 1}))
		require.NoError(mt, s.DeleteTrip(ctx, "t1"))
	})

	mt.Run("server error", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 11600, Message: "interrupted"}))
		err := s.DeleteTrip(ctx, "t1")
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, models.ErrNotFound)
	})
}
