package manifest

import (
	"fmt"
	"sort"
	"time"

	"github.com/arnavshah/manifest-api-go/pkg/models"
)

// Calculator computes persons-on-board from a site snapshot and the trip
// ledger. It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	// Now supplies "today" for sites whose snapshot has no date
	Now func() time.Time
}

// NewCalculator creates a calculator using the wall clock
func NewCalculator() *Calculator {
	return &Calculator{Now: time.Now}
}

var defaultCalculator = NewCalculator()

// ComputePOB computes the headcount at siteID on date using the wall clock
func ComputePOB(date, siteID string, trips []models.Trip, sites []models.Site) models.POBResult {
	return defaultCalculator.Compute(date, siteID, trips, sites)
}

// FindSite returns the site named siteID
func FindSite(sites []models.Site, siteID string) (models.Site, bool) {
	for _, s := range sites {
		if s.SiteName == siteID {
			return s, true
		}
	}
	return models.Site{}, false
}

// Anchor returns the calendar date the site's snapshot describes
func (c *Calculator) Anchor(site models.Site) string {
	if d, err := NormalizeDate(site.POBUpdatedDate); err == nil {
		return d
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return FormatDate(now())
}

// Compute returns the headcount at siteID on date.
//
// The snapshot is the headcount at the start of its anchor date. On the
// anchor date itself the day's movements are applied once. Earlier dates are
// reconstructed by undoing each day in [date, anchor) newest first; later
// dates are projected by applying each day in [anchor, date] oldest first.
// The result never goes below zero.
func (c *Calculator) Compute(date, siteID string, trips []models.Trip, sites []models.Site) models.POBResult {
	site, ok := FindSite(sites, siteID)
	if !ok {
		return models.POBResult{}
	}

	target := dateKey(date)
	anchor := c.Anchor(site)
	snapshot := site.CurrentPOB

	switch {
	case target == anchor:
		pob := snapshot + dailyNet(trips, siteID, target, 1)
		return models.POBResult{
			POB:  clamp(pob),
			Note: fmt.Sprintf("updated to %d", snapshot),
		}
	case target < anchor:
		groups := groupByDate(trips, siteID, func(d string) bool { return d >= target && d < anchor })
		pob := snapshot
		for _, d := range sortedDates(groups, true) {
			pob += netChange(groups[d], siteID, -1)
		}
		return models.POBResult{POB: clamp(pob)}
	default:
		groups := groupByDate(trips, siteID, func(d string) bool { return d >= anchor && d <= target })
		pob := snapshot
		for _, d := range sortedDates(groups, false) {
			pob += netChange(groups[d], siteID, 1)
		}
		return models.POBResult{POB: clamp(pob)}
	}
}

// dailyNet is the signed movement at site for trips dated exactly date
func dailyNet(trips []models.Trip, site, date string, sign int) int {
	groups := groupByDate(trips, site, func(d string) bool { return d == date })
	return netChange(groups[date], site, sign)
}

// netChange sums arrivals minus departures, multiplied by sign. A sign of -1
// undoes the movements when walking backwards in time.
func netChange(trips []models.Trip, site string, sign int) int {
	net := 0
	for _, t := range trips {
		switch Classify(t, site) {
		case models.Incoming:
			net += t.PassengerCount()
		case models.Outgoing:
			net -= t.PassengerCount()
		}
	}
	return sign * net
}

func sortedDates(groups map[string][]models.Trip, descending bool) []string {
	dates := make([]string, 0, len(groups))
	for d := range groups {
		dates = append(dates, d)
	}
	if descending {
		sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	} else {
		sort.Strings(dates)
	}
	return dates
}

func clamp(pob int) int {
	if pob < 0 {
		return 0
	}
	return pob
}

// Status grades pob against the site's capacity
func Status(pob, maximum int) models.POBStatus {
	if pob == 0 {
		return models.StatusNormal
	}
	if maximum <= 0 || pob > maximum {
		return models.StatusCritical
	}
	if pob*100 >= maximum*95 {
		return models.StatusWarning
	}
	return models.StatusNormal
}

// Capacity returns the site's maximum POB, or fallback when none is set
func Capacity(site models.Site, fallback int) int {
	if site.MaximumPOB > 0 {
		return site.MaximumPOB
	}
	return fallback
}
