package manifest

import (
	"testing"
	"time"

	"github.com/arnavshah/manifest-api-go/pkg/models"
	"github.com/stretchr/testify/assert"
)

func intPtr(n int) *int { return &n }

func nsc() []models.Site {
	return []models.Site{{SiteName: "NSC", CurrentPOB: 50, MaximumPOB: 60, POBUpdatedDate: "2024-06-10"}}
}

func trip(id, from, to, date string, pax int) models.Trip {
	t := models.Trip{ID: id, PassengerID: "p-" + id, FromOrigin: from, ToDestination: to, TripDate: date}
	if pax > 0 {
		t.NumberOfPassengers = intPtr(pax)
	}
	return t
}

func TestComputePOB_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		trips    []models.Trip
		expected int
		note     string
	}{
		{
			name:     "anchor day departure",
			date:     "2024-06-10",
			trips:    []models.Trip{trip("t1", "NSC", "BASE", "2024-06-10", 3)},
			expected: 47,
			note:     "updated to 50",
		},
		{
			name:     "arrival before anchor is undone",
			date:     "2024-06-08",
			trips:    []models.Trip{trip("t1", "BASE", "NSC", "2024-06-08", 5)},
			expected: 45,
		},
		{
			name:     "arrival after anchor is applied",
			date:     "2024-06-12",
			trips:    []models.Trip{trip("t1", "BASE", "NSC", "2024-06-12", 2)},
			expected: 52,
		},
		{
			name:     "missing passenger count is one person",
			date:     "2024-06-10",
			trips:    []models.Trip{trip("t1", "BASE", "NSC", "2024-06-10", 0)},
			expected: 51,
			note:     "updated to 50",
		},
		{
			name:     "count of one or less is one person",
			date:     "2024-06-11",
			trips:    []models.Trip{{ID: "t1", FromOrigin: "NSC", ToDestination: "BASE", TripDate: "2024-06-11", NumberOfPassengers: intPtr(-4)}},
			expected: 49,
		},
		{
			name: "forward projection includes anchor day",
			date: "2024-06-11",
			trips: []models.Trip{
				trip("t1", "NSC", "BASE", "2024-06-10", 4),
				trip("t2", "BASE", "NSC", "2024-06-11", 1),
				trip("t3", "BASE", "NSC", "2024-06-12", 9),
			},
			expected: 47,
		},
		{
			name: "backward reconstruction excludes anchor day",
			date: "2024-06-09",
			trips: []models.Trip{
				trip("t1", "NSC", "BASE", "2024-06-10", 4),
				trip("t2", "NSC", "BASE", "2024-06-09", 2),
				trip("t3", "BASE", "NSC", "2024-06-08", 9),
			},
			expected: 52,
		},
		{
			name:     "unrelated sites are ignored",
			date:     "2024-06-10",
			trips:    []models.Trip{trip("t1", "BASE", "RIG2", "2024-06-10", 7)},
			expected: 50,
			note:     "updated to 50",
		},
		{
			name:     "negative result clamps to zero",
			date:     "2024-06-12",
			trips:    []models.Trip{trip("t1", "NSC", "BASE", "2024-06-11", 80)},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputePOB(tt.date, "NSC", tt.trips, nsc())
			assert.Equal(t, tt.expected, got.POB)
			assert.Equal(t, tt.note, got.Note)
		})
	}
}

func TestComputePOB_UnknownSite(t *testing.T) {
	got := ComputePOB("2024-06-10", "NOPE", []models.Trip{trip("t1", "BASE", "NOPE", "2024-06-10", 3)}, nsc())
	assert.Equal(t, models.POBResult{}, got)
}

func TestComputePOB_AnchorDependsOnlyOnSameDay(t *testing.T) {
	base := []models.Trip{trip("t1", "NSC", "BASE", "2024-06-10", 3)}
	noisy := append([]models.Trip{
		trip("t2", "BASE", "NSC", "2024-06-09", 10),
		trip("t3", "BASE", "NSC", "2024-06-11", 10),
	}, base...)

	assert.Equal(t, ComputePOB("2024-06-10", "NSC", base, nsc()), ComputePOB("2024-06-10", "NSC", noisy, nsc()))
}

func TestComputePOB_BackwardPathIndependence(t *testing.T) {
	trips := []models.Trip{
		trip("a", "BASE", "NSC", "2024-06-01", 3),
		trip("b", "NSC", "BASE", "2024-06-03", 2),
		trip("c", "BASE", "NSC", "2024-06-05", 4),
		trip("d", "NSC", "BASE", "2024-06-07", 1),
		trip("e", "BASE", "NSC", "2024-06-09", 2),
	}
	sites := nsc()

	d2 := "2024-06-06"
	atD2 := ComputePOB(d2, "NSC", trips, sites).POB

	// Undo [d1, d2) starting from the value at d2.
	for _, d1 := range []string{"2024-06-01", "2024-06-03", "2024-06-05"} {
		stepped := atD2
		for _, tr := range trips {
			if tr.TripDate >= d1 && tr.TripDate < d2 {
				stepped += netChange([]models.Trip{tr}, "NSC", -1)
			}
		}
		assert.Equal(t, ComputePOB(d1, "NSC", trips, sites).POB, stepped, "from %s", d1)
	}
}

func TestComputePOB_Idempotent(t *testing.T) {
	trips := []models.Trip{
		trip("a", "BASE", "NSC", "2024-06-01", 3),
		trip("b", "NSC", "BASE", "2024-06-15", 2),
	}
	for _, d := range []string{"2024-05-01", "2024-06-10", "2024-07-01"} {
		first := ComputePOB(d, "NSC", trips, nsc())
		second := ComputePOB(d, "NSC", trips, nsc())
		assert.Equal(t, first, second)
		assert.GreaterOrEqual(t, first.POB, 0)
	}
}

func TestCalculator_EmptyAnchorUsesToday(t *testing.T) {
	calc := &Calculator{Now: func() time.Time { return time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC) }}
	sites := []models.Site{{SiteName: "NSC", CurrentPOB: 20}}

	got := calc.Compute("2024-06-10", "NSC", []models.Trip{trip("t1", "BASE", "NSC", "2024-06-10", 2)}, sites)
	assert.Equal(t, 22, got.POB)
	assert.Equal(t, "updated to 20", got.Note)
}

func TestCalculator_TimestampAnchor(t *testing.T) {
	sites := []models.Site{{SiteName: "NSC", CurrentPOB: 30, POBUpdatedDate: "2024-06-10T08:30:00.000Z"}}
	got := ComputePOB("2024-06-10", "NSC", nil, sites)
	assert.Equal(t, 30, got.POB)
	assert.Equal(t, "updated to 30", got.Note)
}

func TestStatus(t *testing.T) {
	tests := []struct {
		pob, max int
		expected models.POBStatus
	}{
		{0, 100, models.StatusNormal},
		{50, 100, models.StatusNormal},
		{95, 100, models.StatusWarning},
		{100, 100, models.StatusWarning},
		{101, 100, models.StatusCritical},
		{5, 0, models.StatusCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Status(tt.pob, tt.max), "pob=%d max=%d", tt.pob, tt.max)
	}
}

func TestCapacity(t *testing.T) {
	assert.Equal(t, 60, Capacity(models.Site{MaximumPOB: 60}, 200))
	assert.Equal(t, 200, Capacity(models.Site{}, 200))
}
