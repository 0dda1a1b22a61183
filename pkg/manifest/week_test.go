package manifest

import (
	"testing"
	"time"

	"github.com/arnavshah/manifest-api-go/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOfWeek(t *testing.T) {
	wed := time.Date(2024, 6, 12, 17, 45, 0, 0, time.UTC)
	assert.Equal(t, "2024-06-09", FormatDate(StartOfWeek(wed)))

	sun := time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-06-09", FormatDate(StartOfWeek(sun)))
}

func TestBuildWeeks(t *testing.T) {
	first := trip("first", "BASE", "NSC", "2024-06-10", 2)
	first.SortIndices = models.SortIndices{nscIn: 0}
	trips := []models.Trip{
		trip("second", "BASE", "NSC", "2024-06-10", 0),
		first,
		trip("leaving", "NSC", "BASE", "2024-06-10", 0),
		trip("later", "BASE", "NSC", "2024-06-18", 58),
	}

	grid := BuildWeeks(WeekOptions{
		Today:          time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC),
		Weeks:          2,
		Site:           "NSC",
		DefaultMaximum: 200,
	}, trips, nsc(), nil)

	require.Len(t, grid, 2)
	require.Len(t, grid[0], 7)
	assert.Equal(t, "2024-06-09", grid[0][0].Date)
	assert.Equal(t, "2024-06-22", grid[1][6].Date)

	monday := grid[0][1]
	assert.Equal(t, "2024-06-10", monday.Date)
	assert.Equal(t, []string{"first", "second"}, ids(monday.Incoming))
	assert.Equal(t, []string{"leaving"}, ids(monday.Outgoing))
	assert.Equal(t, 52, monday.POB)
	assert.Equal(t, "updated to 50", monday.Note)
	assert.Equal(t, models.StatusNormal, monday.Status)

	// 52 + 58 against a capacity of 60
	assert.Equal(t, models.StatusCritical, grid[1][2].Status)
	assert.Equal(t, 110, grid[1][2].POB)
}

func TestBuildWeeks_Offset(t *testing.T) {
	grid := BuildWeeks(WeekOptions{
		Today:  time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC),
		Offset: -1,
		Weeks:  1,
		Site:   "NSC",
	}, nil, nsc(), nil)

	require.Len(t, grid, 1)
	assert.Equal(t, "2024-06-02", grid[0][0].Date)
}
