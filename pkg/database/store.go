package database

import (
	"context"
	"errors"

	"github.com/arnavshah/manifest-api-go/pkg/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLStore keeps trips, sites and passengers in the local database
type SQLStore struct {
	DB *gorm.DB
}

// NewSQLStore wraps an opened, migrated database
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{DB: db}
}

func (r TripRecord) toModel() models.Trip {
	return models.Trip{
		ID:                 r.ID,
		PassengerID:        r.PassengerID,
		FromOrigin:         r.FromOrigin,
		ToDestination:      r.ToDestination,
		TripDate:           r.TripDate,
		Confirmed:          r.Confirmed,
		NumberOfPassengers: r.NumberOfPassengers,
		SortIndices:        r.SortIndices,
	}
}

func tripRecord(t models.Trip) TripRecord {
	indices := t.SortIndices
	if indices == nil {
		indices = models.SortIndices{}
	}
	return TripRecord{
		ID:                 t.ID,
		PassengerID:        t.PassengerID,
		FromOrigin:         t.FromOrigin,
		ToDestination:      t.ToDestination,
		TripDate:           t.TripDate,
		Confirmed:          t.Confirmed,
		NumberOfPassengers: t.NumberOfPassengers,
		SortIndices:        indices,
	}
}

// ListTrips returns every trip ordered by date
func (s *SQLStore) ListTrips(ctx context.Context) ([]models.Trip, error) {
	var records []TripRecord
	if err := s.DB.WithContext(ctx).Order("trip_date, id").Find(&records).Error; err != nil {
		return nil, err
	}
	trips := make([]models.Trip, len(records))
	for i, r := range records {
		trips[i] = r.toModel()
	}
	return trips, nil
}

// ListSites returns every site snapshot
func (s *SQLStore) ListSites(ctx context.Context) ([]models.Site, error) {
	var records []SiteRecord
	if err := s.DB.WithContext(ctx).Order("site_name").Find(&records).Error; err != nil {
		return nil, err
	}
	sites := make([]models.Site, len(records))
	for i, r := range records {
		sites[i] = models.Site{
			ID:             r.ID,
			SiteName:       r.SiteName,
			CurrentPOB:     r.CurrentPOB,
			MaximumPOB:     r.MaximumPOB,
			POBUpdatedDate: r.POBUpdatedDate,
		}
	}
	return sites, nil
}

// ListPassengers returns every passenger
func (s *SQLStore) ListPassengers(ctx context.Context) ([]models.Passenger, error) {
	var records []PassengerRecord
	if err := s.DB.WithContext(ctx).Order("last_name, first_name").Find(&records).Error; err != nil {
		return nil, err
	}
	passengers := make([]models.Passenger, len(records))
	for i, r := range records {
		passengers[i] = models.Passenger{ID: r.ID, FirstName: r.FirstName, LastName: r.LastName, JobRole: r.JobRole}
	}
	return passengers, nil
}

// PatchTripSortIndices overwrites one trip's sort index map
func (s *SQLStore) PatchTripSortIndices(ctx context.Context, tripID string, indices models.SortIndices) error {
	if indices == nil {
		indices = models.SortIndices{}
	}
	res := s.DB.WithContext(ctx).Model(&TripRecord{}).Where("id = ?", tripID).Update("sort_indices", indices)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ReplaceTrip overwrites every field of an existing trip
func (s *SQLStore) ReplaceTrip(ctx context.Context, tripID string, trip models.Trip) (models.Trip, error) {
	db := s.DB.WithContext(ctx)

	var existing TripRecord
	if err := db.First(&existing, "id = ?", tripID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Trip{}, models.ErrNotFound
		}
		return models.Trip{}, err
	}

	trip.ID = tripID
	rec := tripRecord(trip)
	err := db.Model(&existing).
		Select("passenger_id", "from_origin", "to_destination", "trip_date", "confirmed", "number_of_passengers", "sort_indices").
		Updates(&rec).Error
	if err != nil {
		return models.Trip{}, err
	}

	var saved TripRecord
	if err := db.First(&saved, "id = ?", tripID).Error; err != nil {
		return models.Trip{}, err
	}
	return saved.toModel(), nil
}

// CreateTrip inserts a trip with a fresh id
func (s *SQLStore) CreateTrip(ctx context.Context, input models.TripInput) (models.Trip, error) {
	rec := tripRecord(input.Trip(uuid.NewString()))
	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return models.Trip{}, err
	}
	return rec.toModel(), nil
}

// DeleteTrip removes a trip
func (s *SQLStore) DeleteTrip(ctx context.Context, tripID string) error {
	res := s.DB.WithContext(ctx).Delete(&TripRecord{}, "id = ?", tripID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CreatePassenger inserts a passenger with a fresh id
func (s *SQLStore) CreatePassenger(ctx context.Context, p models.Passenger) (models.Passenger, error) {
	rec := PassengerRecord{ID: uuid.NewString(), FirstName: p.FirstName, LastName: p.LastName, JobRole: p.JobRole}
	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return models.Passenger{}, err
	}
	p.ID = rec.ID
	return p, nil
}

// UpsertSite records a new POB snapshot for a site, creating it if needed
func (s *SQLStore) UpsertSite(ctx context.Context, site models.Site) (models.Site, error) {
	rec := SiteRecord{
		ID:             uuid.NewString(),
		SiteName:       site.SiteName,
		CurrentPOB:     site.CurrentPOB,
		MaximumPOB:     site.MaximumPOB,
		POBUpdatedDate: site.POBUpdatedDate,
	}

	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "site_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"current_pob", "maximum_pob", "pob_updated_date", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return models.Site{}, err
	}

	var saved SiteRecord
	if err := s.DB.WithContext(ctx).First(&saved, "site_name = ?", site.SiteName).Error; err != nil {
		return models.Site{}, err
	}
	return models.Site{
		ID:             saved.ID,
		SiteName:       saved.SiteName,
		CurrentPOB:     saved.CurrentPOB,
		MaximumPOB:     saved.MaximumPOB,
		POBUpdatedDate: saved.POBUpdatedDate,
	}, nil
}
