package manifest

import "github.com/arnavshah/manifest-api-go/pkg/models"

// Classify reports which side of site's manifest the trip belongs to. A trip
// is never both incoming and outgoing for the same site; the destination
// check wins for a trip that starts and ends at the same place.
func Classify(trip models.Trip, site string) models.Direction {
	switch {
	case site == "":
		return models.None
	case trip.ToDestination == site:
		return models.Incoming
	case trip.FromOrigin == site:
		return models.Outgoing
	default:
		return models.None
	}
}

// AffectsSite reports whether the trip arrives at or departs from site
func AffectsSite(trip models.Trip, site string) bool {
	return Classify(trip, site) != models.None
}

// InBucket reports whether the trip is listed in the bucket
func InBucket(trip models.Trip, key models.BucketKey) bool {
	return key.Direction.Valid() && Classify(trip, key.Site) == key.Direction
}

// BucketsFor returns the buckets a trip can hold a position in: the
// destination's incoming list and the origin's outgoing list.
func BucketsFor(trip models.Trip) []models.BucketKey {
	var keys []models.BucketKey
	if trip.ToDestination != "" {
		keys = append(keys, models.NewBucketKey(trip.ToDestination, models.Incoming))
	}
	if trip.FromOrigin != "" && trip.FromOrigin != trip.ToDestination {
		keys = append(keys, models.NewBucketKey(trip.FromOrigin, models.Outgoing))
	}
	return keys
}
