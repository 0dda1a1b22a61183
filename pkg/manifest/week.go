package manifest

import (
	"time"

	"github.com/arnavshah/manifest-api-go/pkg/models"
)

// DefaultVisibleWeeks is how many weeks a manifest grid shows
const DefaultVisibleWeeks = 10

// WeekOptions configures BuildWeeks
type WeekOptions struct {
	Today          time.Time
	Offset         int
	Weeks          int
	Site           string
	DefaultMaximum int
	Calculator     *Calculator
}

// StartOfWeek returns the Sunday on or before t, at midnight
func StartOfWeek(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// BuildWeeks lays out the manifest for a site as rows of Sunday-start weeks,
// each day carrying its ordered incoming and outgoing lists and POB.
func BuildWeeks(opts WeekOptions, trips []models.Trip, sites []models.Site, passengers []models.Passenger) [][]models.DayData {
	weeks := opts.Weeks
	if weeks <= 0 {
		weeks = DefaultVisibleWeeks
	}
	calc := opts.Calculator
	if calc == nil {
		calc = defaultCalculator
	}

	site, _ := FindSite(sites, opts.Site)
	capacity := Capacity(site, opts.DefaultMaximum)
	dir := NewDirectory(passengers)
	incoming := models.NewBucketKey(opts.Site, models.Incoming)
	outgoing := models.NewBucketKey(opts.Site, models.Outgoing)

	first := StartOfWeek(opts.Today).AddDate(0, 0, 7*opts.Offset)
	grid := make([][]models.DayData, weeks)
	for w := 0; w < weeks; w++ {
		row := make([]models.DayData, 7)
		for d := 0; d < 7; d++ {
			date := FormatDate(first.AddDate(0, 0, 7*w+d))
			pob := calc.Compute(date, opts.Site, trips, sites)
			row[d] = models.DayData{
				Date:     date,
				Incoming: EffectiveOrder(incoming, BucketOn(trips, incoming, date), dir),
				Outgoing: EffectiveOrder(outgoing, BucketOn(trips, outgoing, date), dir),
				POB:      pob.POB,
				Note:     pob.Note,
				Status:   Status(pob.POB, capacity),
			}
		}
		grid[w] = row
	}
	return grid
}
