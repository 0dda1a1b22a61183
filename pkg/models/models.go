package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Direction is the side of a site's manifest a trip appears on
type Direction string

const (
	Incoming Direction = "incoming"
	Outgoing Direction = "outgoing"
	None     Direction = "none"
)

// Valid reports whether d names a manifest bucket direction
func (d Direction) Valid() bool {
	return d == Incoming || d == Outgoing
}

// BucketKey identifies one ordered list: a site seen from one direction
type BucketKey struct {
	Site      string
	Direction Direction
}

// NewBucketKey builds a bucket key for a site and direction
func NewBucketKey(site string, direction Direction) BucketKey {
	return BucketKey{Site: site, Direction: direction}
}

// String returns the wire form "<site>-<direction>"
func (k BucketKey) String() string {
	return k.Site + "-" + string(k.Direction)
}

// ParseBucketKey parses the wire form. Site names may contain dashes, so the
// direction is taken from the last one.
func ParseBucketKey(s string) (BucketKey, error) {
	i := strings.LastIndex(s, "-")
	if i <= 0 || i == len(s)-1 {
		return BucketKey{}, fmt.Errorf("invalid bucket key %q", s)
	}
	k := BucketKey{Site: s[:i], Direction: Direction(s[i+1:])}
	if !k.Direction.Valid() {
		return BucketKey{}, fmt.Errorf("invalid bucket direction in %q", s)
	}
	return k, nil
}

// SortIndices holds a trip's position in each bucket it belongs to
type SortIndices map[BucketKey]int

// Clone returns an independent copy
func (s SortIndices) Clone() SortIndices {
	out := make(SortIndices, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// StringMap converts to the string-keyed form used on the wire
func (s SortIndices) StringMap() map[string]int {
	out := make(map[string]int, len(s))
	for k, v := range s {
		out[k.String()] = v
	}
	return out
}

// SortIndicesFromStringMap converts the wire form, skipping malformed keys
func SortIndicesFromStringMap(m map[string]int) SortIndices {
	out := make(SortIndices, len(m))
	for raw, v := range m {
		k, err := ParseBucketKey(raw)
		if err != nil {
			continue
		}
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the indices as a string-keyed object
func (s SortIndices) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.StringMap())
}

// UnmarshalJSON decodes a string-keyed object
func (s *SortIndices) UnmarshalJSON(data []byte) error {
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = SortIndicesFromStringMap(raw)
	return nil
}

// Value stores the indices as JSON text
func (s SortIndices) Value() (driver.Value, error) {
	b, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads the indices back from JSON text
func (s *SortIndices) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*s = SortIndices{}
		return nil
	case string:
		return s.UnmarshalJSON([]byte(v))
	case []byte:
		return s.UnmarshalJSON(v)
	default:
		return errors.New("unsupported sort indices column type")
	}
}

// Trip is one passenger movement between two sites on a date
type Trip struct {
	ID                 string      `json:"_id"`
	PassengerID        string      `json:"passengerId"`
	FromOrigin         string      `json:"fromOrigin"`
	ToDestination      string      `json:"toDestination"`
	TripDate           string      `json:"tripDate"`
	Confirmed          bool        `json:"confirmed"`
	NumberOfPassengers *int        `json:"numberOfPassengers,omitempty"`
	SortIndices        SortIndices `json:"sortIndices,omitempty"`
}

// PassengerCount is the headcount this trip moves. Absent or values of one
// and below count as a single person.
func (t Trip) PassengerCount() int {
	if t.NumberOfPassengers != nil && *t.NumberOfPassengers > 1 {
		return *t.NumberOfPassengers
	}
	return 1
}

// Clone returns a copy that shares no maps or pointers with t
func (t Trip) Clone() Trip {
	out := t
	if t.NumberOfPassengers != nil {
		n := *t.NumberOfPassengers
		out.NumberOfPassengers = &n
	}
	if t.SortIndices != nil {
		out.SortIndices = t.SortIndices.Clone()
	}
	return out
}

// Site is a rig or base with a manually maintained POB snapshot
type Site struct {
	ID             string `json:"_id,omitempty"`
	SiteName       string `json:"siteName"`
	CurrentPOB     int    `json:"currentPOB"`
	MaximumPOB     int    `json:"maximumPOB"`
	POBUpdatedDate string `json:"pobUpdatedDate"`
}

// Passenger is a person who can be booked on trips
type Passenger struct {
	ID        string `json:"_id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	JobRole   string `json:"jobRole"`
}

// POBResult is the headcount for a site on a date
type POBResult struct {
	POB  int    `json:"pob"`
	Note string `json:"updateInfo,omitempty"`
}

// POBStatus grades a headcount against site capacity
type POBStatus string

const (
	StatusNormal   POBStatus = "normal"
	StatusWarning  POBStatus = "warning"
	StatusCritical POBStatus = "critical"
)

// IndexAssignment is one trip's new position in a bucket
type IndexAssignment struct {
	TripID string `json:"tripId"`
	Index  int    `json:"index"`
}

// DayData is one cell of the manifest week grid
type DayData struct {
	Date     string    `json:"date"`
	Incoming []Trip    `json:"incoming"`
	Outgoing []Trip    `json:"outgoing"`
	POB      int       `json:"pob"`
	Note     string    `json:"updateInfo,omitempty"`
	Status   POBStatus `json:"status"`
}

// TripInput is the payload for creating or replacing a trip
type TripInput struct {
	PassengerID        string      `json:"passengerId" binding:"required"`
	FromOrigin         string      `json:"fromOrigin" binding:"required"`
	ToDestination      string      `json:"toDestination" binding:"required"`
	TripDate           string      `json:"tripDate" binding:"required"`
	Confirmed          bool        `json:"confirmed"`
	NumberOfPassengers *int        `json:"numberOfPassengers,omitempty"`
	SortIndices        SortIndices `json:"sortIndices,omitempty"`
}

// Trip converts the input into a trip record with the given id
func (in TripInput) Trip(id string) Trip {
	return Trip{
		ID:                 id,
		PassengerID:        in.PassengerID,
		FromOrigin:         in.FromOrigin,
		ToDestination:      in.ToDestination,
		TripDate:           in.TripDate,
		Confirmed:          in.Confirmed,
		NumberOfPassengers: in.NumberOfPassengers,
		SortIndices:        in.SortIndices,
	}
}
