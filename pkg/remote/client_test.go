package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arnavshah/manifest-api-go/pkg/logger"
	"github.com/arnavshah/manifest-api-go/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ListTripsSendsBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/trips", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"_id":"t1","passengerId":"p1","fromOrigin":"Base","toDestination":"NSC","tripDate":"2024-06-10","confirmed":true,"sortIndices":{"NSC-incoming":2,"bogus":1}}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "secret", logger.NewNop())
	trips, err := c.ListTrips(context.Background())
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, "t1", trips[0].ID)
	assert.Equal(t, models.SortIndices{models.NewBucketKey("NSC", models.Incoming): 2}, trips[0].SortIndices)
}

func TestClient_PatchSortIndices(t *testing.T) {
	var got map[string]map[string]int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/trips/t1/sort", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", logger.NewNop())
	err := c.PatchTripSortIndices(context.Background(), "t1", models.SortIndices{
		models.NewBucketKey("Base", models.Outgoing): 0,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Base-outgoing": 0}, got["sortIndices"])
}

func TestClient_NotFoundAndFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", logger.NewNop())
	assert.ErrorIs(t, c.DeleteTrip(context.Background(), "t1"), models.ErrNotFound)

	_, err := c.ReplaceTrip(context.Background(), "t1", models.Trip{TripDate: "2024-06-10"})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	assert.Equal(t, "boom", statusErr.Body)
}

func TestClient_CreateTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in wireTrip
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Empty(t, in.ID)
		in.ID = "created"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(in)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", logger.NewNop())
	trip, err := c.CreateTrip(context.Background(), models.TripInput{
		PassengerID: "p1", FromOrigin: "Base", ToDestination: "NSC", TripDate: "2024-06-10",
	})
	require.NoError(t, err)
	assert.Equal(t, "created", trip.ID)
	assert.Equal(t, "NSC", trip.ToDestination)
}
