package manifest

import (
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/arnavshah/manifest-api-go/pkg/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// MissingIndex is the effective position of a trip with no entry for a bucket
const MissingIndex = math.MaxInt

var (
	ErrTripNotInBucket = errors.New("trip is not listed in this bucket")
	ErrInvalidBucket   = errors.New("invalid bucket")
)

// Directory resolves passenger ids to passengers for name ordering
type Directory map[string]models.Passenger

// NewDirectory indexes passengers by id
func NewDirectory(passengers []models.Passenger) Directory {
	d := make(Directory, len(passengers))
	for _, p := range passengers {
		d[p.ID] = p
	}
	return d
}

// SortName is the "last first" lower-cased name used to break ties. Unknown
// passengers sort with an empty name.
func (d Directory) SortName(passengerID string) string {
	p, ok := d[passengerID]
	if !ok {
		return ""
	}
	return strings.ToLower(p.LastName + " " + p.FirstName)
}

// DisplayName is "First Last", or empty for unknown passengers
func (d Directory) DisplayName(passengerID string) string {
	p, ok := d[passengerID]
	if !ok {
		return ""
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// SortIndex returns the trip's position in the bucket, or MissingIndex
func SortIndex(trip models.Trip, key models.BucketKey) int {
	if idx, ok := trip.SortIndices[key]; ok {
		return idx
	}
	return MissingIndex
}

// EffectiveOrder returns a sorted copy of trips as they display in key's
// bucket: by stored index with missing entries last, then confirmed before
// unconfirmed, then by passenger name, then by id.
func EffectiveOrder(key models.BucketKey, trips []models.Trip, dir Directory) []models.Trip {
	out := make([]models.Trip, len(trips))
	copy(out, trips)

	col := collate.New(language.English)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		ai, bi := SortIndex(a, key), SortIndex(b, key)
		if ai != bi {
			return ai < bi
		}
		if a.Confirmed != b.Confirmed {
			return a.Confirmed
		}
		if c := col.CompareString(dir.SortName(a.PassengerID), dir.SortName(b.PassengerID)); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
	return out
}

// ReorderResult is the outcome of a drag-reorder within one bucket
type ReorderResult struct {
	Bucket models.BucketKey
	// Order holds every trip of the bucket with its new index applied
	Order []models.Trip
	// Changed lists the assignments that differ from what was stored
	Changed []models.IndexAssignment
}

// Reorder moves draggedID to targetIndex within the bucket and renumbers
// every trip 0..n-1. targetIndex is a position in the current effective
// order; when the dragged trip sat before it the insertion point shifts down
// by one to account for the removal.
func Reorder(key models.BucketKey, trips []models.Trip, draggedID string, targetIndex int, dir Directory) (ReorderResult, error) {
	if key.Site == "" || !key.Direction.Valid() {
		return ReorderResult{}, ErrInvalidBucket
	}

	ordered := EffectiveOrder(key, trips, dir)
	from := -1
	for i, t := range ordered {
		if t.ID == draggedID {
			from = i
			break
		}
	}
	if from == -1 {
		return ReorderResult{}, ErrTripNotInBucket
	}

	dragged := ordered[from]
	rest := make([]models.Trip, 0, len(ordered)-1)
	rest = append(rest, ordered[:from]...)
	rest = append(rest, ordered[from+1:]...)

	at := targetIndex
	if from < targetIndex {
		at--
	}
	if at < 0 {
		at = 0
	}
	if at > len(rest) {
		at = len(rest)
	}

	next := make([]models.Trip, 0, len(ordered))
	next = append(next, rest[:at]...)
	next = append(next, dragged)
	next = append(next, rest[at:]...)

	res := ReorderResult{Bucket: key, Order: make([]models.Trip, len(next))}
	for i, t := range next {
		prev, had := t.SortIndices[key]
		t = t.Clone()
		if t.SortIndices == nil {
			t.SortIndices = models.SortIndices{}
		}
		t.SortIndices[key] = i
		res.Order[i] = t
		if !had || prev != i {
			res.Changed = append(res.Changed, models.IndexAssignment{TripID: t.ID, Index: i})
		}
	}
	return res, nil
}

// MoveToDate returns a copy of trip rescheduled to newDate and pinned to the
// front of key's bucket. Other trips in the destination bucket keep their
// indices, so index 0 may be shared until the next full reorder.
func MoveToDate(trip models.Trip, newDate string, key models.BucketKey) (models.Trip, error) {
	if !InBucket(trip, key) {
		return models.Trip{}, ErrTripNotInBucket
	}
	d, err := NormalizeDate(newDate)
	if err != nil {
		return models.Trip{}, err
	}

	moved := trip.Clone()
	moved.TripDate = d
	if moved.SortIndices == nil {
		moved.SortIndices = models.SortIndices{}
	}
	moved.SortIndices[key] = 0
	return moved, nil
}
