package coordinator

import (
	"context"

	"github.com/arnavshah/manifest-api-go/pkg/models"
)

// Store is the authoritative trip ledger and site snapshot owner. Writes are
// independent requests; the store offers no multi-record transaction.
// Implementations return models.ErrNotFound for missing records.
type Store interface {
	ListTrips(ctx context.Context) ([]models.Trip, error)
	ListSites(ctx context.Context) ([]models.Site, error)
	ListPassengers(ctx context.Context) ([]models.Passenger, error)

	// PatchTripSortIndices replaces one trip's sort index map
	PatchTripSortIndices(ctx context.Context, tripID string, indices models.SortIndices) error
	// ReplaceTrip overwrites the full trip record
	ReplaceTrip(ctx context.Context, tripID string, trip models.Trip) (models.Trip, error)
	CreateTrip(ctx context.Context, input models.TripInput) (models.Trip, error)
	DeleteTrip(ctx context.Context, tripID string) error

	CreatePassenger(ctx context.Context, p models.Passenger) (models.Passenger, error)
}
