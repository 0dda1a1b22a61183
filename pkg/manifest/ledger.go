package manifest

import "github.com/arnavshah/manifest-api-go/pkg/models"

// LedgerFilter narrows the trip ledger. Empty fields match everything.
// Direction is only meaningful together with Site.
type LedgerFilter struct {
	Date      string
	Site      string
	Direction models.Direction
}

// Select returns the trips matching f in ledger order. The input slice is
// not modified.
func Select(trips []models.Trip, f LedgerFilter) []models.Trip {
	date := ""
	if f.Date != "" {
		date = dateKey(f.Date)
	}

	out := make([]models.Trip, 0)
	for _, t := range trips {
		if date != "" && dateKey(t.TripDate) != date {
			continue
		}
		if f.Site != "" {
			dir := Classify(t, f.Site)
			if dir == models.None {
				continue
			}
			if f.Direction.Valid() && dir != f.Direction {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// BucketOn returns the trips listed in key's bucket on date
func BucketOn(trips []models.Trip, key models.BucketKey, date string) []models.Trip {
	return Select(trips, LedgerFilter{Date: date, Site: key.Site, Direction: key.Direction})
}

// groupByDate buckets the trips affecting site by normalized trip date,
// keeping only dates accepted by keep.
func groupByDate(trips []models.Trip, site string, keep func(date string) bool) map[string][]models.Trip {
	groups := make(map[string][]models.Trip)
	for _, t := range trips {
		if !AffectsSite(t, site) {
			continue
		}
		d := dateKey(t.TripDate)
		if !keep(d) {
			continue
		}
		groups[d] = append(groups[d], t)
	}
	return groups
}
