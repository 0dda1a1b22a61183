package handlers

import (
	"net/http"

	"github.com/arnavshah/manifest-api-go/pkg/manifest"
	"github.com/arnavshah/manifest-api-go/pkg/models"
	"github.com/gin-gonic/gin"
)

// ValidateTrip checks a trip payload without saving it and reports which
// manifest lists it would appear in
func (h *Handler) ValidateTrip(c *gin.Context) {
	var input models.TripInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	input, err := manifest.ValidateInput(input)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}

	var warnings []string
	for _, site := range []string{input.FromOrigin, input.ToDestination} {
		if _, ok := h.Coord.Site(site); !ok {
			warnings = append(warnings, "unknown site: "+site)
		}
	}

	trip := input.Trip("")
	buckets := make([]string, 0, 2)
	for _, k := range manifest.BucketsFor(trip) {
		buckets = append(buckets, k.String())
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":          true,
		"tripDate":       input.TripDate,
		"passengerCount": trip.PassengerCount(),
		"buckets":        buckets,
		"warnings":       warnings,
	})
}
