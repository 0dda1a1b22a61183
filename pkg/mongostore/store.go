package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/arnavshah/manifest-api-go/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewMongoClient connects to uri and pings the server
func NewMongoClient(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

type tripDoc struct {
	ID                 string         `bson:"_id"`
	PassengerID        string         `bson:"passengerId"`
	FromOrigin         string         `bson:"fromOrigin"`
	ToDestination      string         `bson:"toDestination"`
	TripDate           string         `bson:"tripDate"`
	Confirmed          bool           `bson:"confirmed"`
	NumberOfPassengers *int           `bson:"numberOfPassengers,omitempty"`
	SortIndices        map[string]int `bson:"sortIndices"`
	UpdatedAt          time.Time      `bson:"updatedAt"`
}

type siteDoc struct {
	ID             string `bson:"_id"`
	SiteName       string `bson:"siteName"`
	CurrentPOB     int    `bson:"currentPOB"`
	MaximumPOB     int    `bson:"maximumPOB"`
	POBUpdatedDate string `bson:"pobUpdatedDate"`
}

type passengerDoc struct {
	ID        string `bson:"_id"`
	FirstName string `bson:"firstName"`
	LastName  string `bson:"lastName"`
	JobRole   string `bson:"jobRole"`
}

func (d tripDoc) toModel() models.Trip {
	return models.Trip{
		ID:                 d.ID,
		PassengerID:        d.PassengerID,
		FromOrigin:         d.FromOrigin,
		ToDestination:      d.ToDestination,
		TripDate:           d.TripDate,
		Confirmed:          d.Confirmed,
		NumberOfPassengers: d.NumberOfPassengers,
		SortIndices:        models.SortIndicesFromStringMap(d.SortIndices),
	}
}

func newTripDoc(t models.Trip) tripDoc {
	return tripDoc{
		ID:                 t.ID,
		PassengerID:        t.PassengerID,
		FromOrigin:         t.FromOrigin,
		ToDestination:      t.ToDestination,
		TripDate:           t.TripDate,
		Confirmed:          t.Confirmed,
		NumberOfPassengers: t.NumberOfPassengers,
		SortIndices:        t.SortIndices.StringMap(),
		UpdatedAt:          time.Now().UTC(),
	}
}

// Store keeps the manifest in MongoDB collections trips, sites and passengers
type Store struct {
	trips      *mongo.Collection
	sites      *mongo.Collection
	passengers *mongo.Collection
}

// New creates the store and ensures its indexes
func New(ctx context.Context, db *mongo.Database) (*Store, error) {
	s := &Store{
		trips:      db.Collection("trips"),
		sites:      db.Collection("sites"),
		passengers: db.Collection("passengers"),
	}

	if _, err := s.trips.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "tripDate", Value: 1}}}); err != nil {
		return nil, err
	}
	_, err := s.sites.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "siteName", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListTrips returns every trip
func (s *Store) ListTrips(ctx context.Context) ([]models.Trip, error) {
	cursor, err := s.trips.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "tripDate", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []tripDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	trips := make([]models.Trip, len(docs))
	for i, d := range docs {
		trips[i] = d.toModel()
	}
	return trips, nil
}

// ListSites returns every site snapshot
func (s *Store) ListSites(ctx context.Context) ([]models.Site, error) {
	cursor, err := s.sites.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var docs []siteDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	sites := make([]models.Site, len(docs))
	for i, d := range docs {
		sites[i] = models.Site{
			ID:             d.ID,
			SiteName:       d.SiteName,
			CurrentPOB:     d.CurrentPOB,
			MaximumPOB:     d.MaximumPOB,
			POBUpdatedDate: d.POBUpdatedDate,
		}
	}
	return sites, nil
}

// ListPassengers returns every passenger
func (s *Store) ListPassengers(ctx context.Context) ([]models.Passenger, error) {
	cursor, err := s.passengers.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var docs []passengerDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	passengers := make([]models.Passenger, len(docs))
	for i, d := range docs {
		passengers[i] = models.Passenger(d)
	}
	return passengers, nil
}

// PatchTripSortIndices sets the sortIndices field of one trip
func (s *Store) PatchTripSortIndices(ctx context.Context, tripID string, indices models.SortIndices) error {
	res, err := s.trips.UpdateOne(ctx,
		bson.M{"_id": tripID},
		bson.M{"$set": bson.M{"sortIndices": indices.StringMap(), "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ReplaceTrip overwrites the trip document
func (s *Store) ReplaceTrip(ctx context.Context, tripID string, trip models.Trip) (models.Trip, error) {
	trip.ID = tripID
	res, err := s.trips.ReplaceOne(ctx, bson.M{"_id": tripID}, newTripDoc(trip))
	if err != nil {
		return models.Trip{}, err
	}
	if res.MatchedCount == 0 {
		return models.Trip{}, models.ErrNotFound
	}
	return trip, nil
}

// CreateTrip inserts a trip under a new ObjectID hex id
func (s *Store) CreateTrip(ctx context.Context, input models.TripInput) (models.Trip, error) {
	trip := input.Trip(primitive.NewObjectID().Hex())
	if _, err := s.trips.InsertOne(ctx, newTripDoc(trip)); err != nil {
		return models.Trip{}, err
	}
	if trip.SortIndices == nil {
		trip.SortIndices = models.SortIndices{}
	}
	return trip, nil
}

// DeleteTrip removes a trip document
func (s *Store) DeleteTrip(ctx context.Context, tripID string) error {
	res, err := s.trips.DeleteOne(ctx, bson.M{"_id": tripID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CreatePassenger inserts a passenger under a new ObjectID hex id
func (s *Store) CreatePassenger(ctx context.Context, p models.Passenger) (models.Passenger, error) {
	p.ID = primitive.NewObjectID().Hex()
	if _, err := s.passengers.InsertOne(ctx, passengerDoc(p)); err != nil {
		return models.Passenger{}, err
	}
	return p, nil
}

// UpsertSite writes a new POB snapshot keyed by site name
func (s *Store) UpsertSite(ctx context.Context, site models.Site) (models.Site, error) {
	var existing siteDoc
	err := s.sites.FindOne(ctx, bson.M{"siteName": site.SiteName}).Decode(&existing)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		site.ID = primitive.NewObjectID().Hex()
	case err != nil:
		return models.Site{}, err
	default:
		site.ID = existing.ID
	}

	_, err = s.sites.UpdateOne(ctx,
		bson.M{"_id": site.ID},
		bson.M{"$set": bson.M{
			"siteName":       site.SiteName,
			"currentPOB":     site.CurrentPOB,
			"maximumPOB":     site.MaximumPOB,
			"pobUpdatedDate": site.POBUpdatedDate,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return models.Site{}, err
	}
	return site, nil
}
