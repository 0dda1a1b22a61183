package handlers

import (
	"net/http"
	"strconv"

	"github.com/arnavshah/manifest-api-go/pkg/manifest"
	"github.com/arnavshah/manifest-api-go/pkg/models"
	"github.com/gin-gonic/gin"
)

type pobResponse struct {
	Date       string           `json:"date"`
	Site       string           `json:"site"`
	POB        int              `json:"pob"`
	Note       string           `json:"updateInfo,omitempty"`
	MaximumPOB int              `json:"maximumPob"`
	Status     models.POBStatus `json:"status"`
}

type bucketRequest struct {
	Site      string           `json:"site" binding:"required"`
	Direction models.Direction `json:"direction" binding:"required"`
	Date      string           `json:"date" binding:"required"`
}

func (r bucketRequest) key() (models.BucketKey, error) {
	if !r.Direction.Valid() {
		return models.BucketKey{}, manifest.ErrInvalidBucket
	}
	return models.NewBucketKey(r.Site, r.Direction), nil
}

// queryDate reads ?date= and defaults to today
func (h *Handler) queryDate(c *gin.Context) (string, bool) {
	raw := c.Query("date")
	if raw == "" {
		return h.Coord.Today(), true
	}
	d, err := manifest.NormalizeDate(raw)
	if err != nil {
		RespondDomainError(c, err)
		return "", false
	}
	return d, true
}

// ListSites returns every cached site snapshot
func (h *Handler) ListSites(c *gin.Context) {
	sites := h.Coord.Snapshot().Sites
	if sites == nil {
		sites = []models.Site{}
	}
	c.JSON(http.StatusOK, sites)
}

// ListPassengers returns every cached passenger
func (h *Handler) ListPassengers(c *gin.Context) {
	passengers := h.Coord.Snapshot().Passengers
	if passengers == nil {
		passengers = []models.Passenger{}
	}
	c.JSON(http.StatusOK, passengers)
}

// ListTrips returns the ledger filtered by ?date, ?site and ?direction
func (h *Handler) ListTrips(c *gin.Context) {
	f := manifest.LedgerFilter{
		Site:      c.Query("site"),
		Direction: models.Direction(c.Query("direction")),
	}
	if f.Direction != "" && !f.Direction.Valid() {
		respondError(c, http.StatusBadRequest, "validation_error", "direction must be incoming or outgoing")
		return
	}
	if raw := c.Query("date"); raw != "" {
		d, err := manifest.NormalizeDate(raw)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		f.Date = d
	}
	c.JSON(http.StatusOK, h.Coord.Trips(f))
}

// SitePOB returns the headcount for a site on ?date
func (h *Handler) SitePOB(c *gin.Context) {
	res, ok := h.sitePOB(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) sitePOB(c *gin.Context) (pobResponse, bool) {
	siteID := c.Param("site")
	site, ok := h.Coord.Site(siteID)
	if !ok {
		respondError(c, http.StatusNotFound, "not_found", "site not found")
		return pobResponse{}, false
	}
	date, ok := h.queryDate(c)
	if !ok {
		return pobResponse{}, false
	}

	res := h.Coord.ComputePOB(date, siteID)
	capacity := manifest.Capacity(site, h.Config.DefaultMaximumPOB)
	return pobResponse{
		Date:       date,
		Site:       siteID,
		POB:        res.POB,
		Note:       res.Note,
		MaximumPOB: capacity,
		Status:     manifest.Status(res.POB, capacity),
	}, true
}

// SiteManifest returns both ordered lists and the POB for one day
func (h *Handler) SiteManifest(c *gin.Context) {
	siteID := c.Param("site")
	if _, ok := h.Coord.Site(siteID); !ok {
		respondError(c, http.StatusNotFound, "not_found", "site not found")
		return
	}
	date, ok := h.queryDate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.Coord.Day(siteID, date, h.Config.DefaultMaximumPOB))
}

// SiteWeeks returns the week grid for a site
func (h *Handler) SiteWeeks(c *gin.Context) {
	siteID := c.Param("site")
	if _, ok := h.Coord.Site(siteID); !ok {
		respondError(c, http.StatusNotFound, "not_found", "site not found")
		return
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "offset must be an integer")
		return
	}
	weeks, err := strconv.Atoi(c.DefaultQuery("weeks", strconv.Itoa(h.Config.VisibleWeeks)))
	if err != nil || weeks < 1 || weeks > 52 {
		respondError(c, http.StatusBadRequest, "validation_error", "weeks must be between 1 and 52")
		return
	}

	grid := h.Coord.Weeks(manifest.WeekOptions{
		Offset:         offset,
		Weeks:          weeks,
		Site:           siteID,
		DefaultMaximum: h.Config.DefaultMaximumPOB,
	})
	c.JSON(http.StatusOK, gin.H{"site": siteID, "offset": offset, "weeks": grid})
}

// Refresh forces a refetch from the store
func (h *Handler) Refresh(c *gin.Context) {
	if err := h.Coord.Refresh(c.Request.Context()); err != nil {
		h.Log.Error("Manual refresh failed", "error", err)
		respondError(c, http.StatusBadGateway, "sync_failed", "could not reach the trip store")
		return
	}
	snap := h.Coord.Snapshot()
	c.JSON(http.StatusOK, gin.H{"refreshed_at": snap.RefreshedAt, "trips": len(snap.Trips)})
}

// CreateTrip adds a trip
func (h *Handler) CreateTrip(c *gin.Context) {
	var input models.TripInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	trip, err := h.Coord.CreateTrip(c.Request.Context(), input)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, trip)
}

// UpdateTrip replaces a trip
func (h *Handler) UpdateTrip(c *gin.Context) {
	var input models.TripInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	trip, err := h.Coord.UpdateTrip(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

// DeleteTrip removes a trip
func (h *Handler) DeleteTrip(c *gin.Context) {
	if err := h.Coord.DeleteTrip(c.Request.Context(), c.Param("id")); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ReorderTrip drags a trip to a new position within its list
func (h *Handler) ReorderTrip(c *gin.Context) {
	var req struct {
		bucketRequest
		TargetIndex *int `json:"targetIndex" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	key, err := req.key()
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	res, err := h.Coord.Reorder(c.Request.Context(), key, req.Date, c.Param("id"), *req.TargetIndex)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	changed := res.Changed
	if changed == nil {
		changed = []models.IndexAssignment{}
	}
	c.JSON(http.StatusOK, gin.H{
		"bucket":  res.Bucket.String(),
		"order":   res.Order,
		"changed": changed,
	})
}

// MoveTrip reschedules a trip to another date at the top of its list
func (h *Handler) MoveTrip(c *gin.Context) {
	var req bucketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	key, err := req.key()
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	trip, err := h.Coord.MoveToDate(c.Request.Context(), key, c.Param("id"), req.Date)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

// CreatePassenger adds a passenger
func (h *Handler) CreatePassenger(c *gin.Context) {
	var req struct {
		FirstName string `json:"firstName" binding:"required"`
		LastName  string `json:"lastName" binding:"required"`
		JobRole   string `json:"jobRole"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	p, err := h.Coord.CreatePassenger(c.Request.Context(), models.Passenger{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		JobRole:   req.JobRole,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// UpdateSitePOB records a fresh headcount snapshot for a site
func (h *Handler) UpdateSitePOB(c *gin.Context) {
	if h.Sites == nil {
		respondError(c, http.StatusNotImplemented, "not_supported", "site snapshots are managed by the upstream service")
		return
	}

	var req struct {
		CurrentPOB     *int   `json:"currentPOB" binding:"required"`
		MaximumPOB     int    `json:"maximumPOB"`
		POBUpdatedDate string `json:"pobUpdatedDate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if *req.CurrentPOB < 0 || req.MaximumPOB < 0 {
		respondError(c, http.StatusBadRequest, "validation_error", "POB values cannot be negative")
		return
	}

	date := h.Coord.Today()
	if req.POBUpdatedDate != "" {
		d, err := manifest.NormalizeDate(req.POBUpdatedDate)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		date = d
	}

	siteID := c.Param("site")
	maximum := req.MaximumPOB
	if maximum == 0 {
		if existing, ok := h.Coord.Site(siteID); ok {
			maximum = existing.MaximumPOB
		}
	}

	site, err := h.Sites.UpsertSite(c.Request.Context(), models.Site{
		SiteName:       siteID,
		CurrentPOB:     *req.CurrentPOB,
		MaximumPOB:     maximum,
		POBUpdatedDate: date,
	})
	if err != nil {
		h.Log.Error("Could not update site snapshot", "site", siteID, "error", err)
		RespondDomainError(c, err)
		return
	}
	if err := h.Coord.Refresh(c.Request.Context()); err != nil {
		h.Log.Warn("Refresh after site update failed", "site", siteID, "error", err)
	}
	c.JSON(http.StatusOK, site)
}

// BoardPOB is the read-only POB feed for wall displays
func (h *Handler) BoardPOB(c *gin.Context) {
	res, ok := h.sitePOB(c)
	if !ok {
		return
	}
	h.RecordUsage(c, 1)
	c.JSON(http.StatusOK, res)
}
