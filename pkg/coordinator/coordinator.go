package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/arnavshah/manifest-api-go/pkg/logger"
	"github.com/arnavshah/manifest-api-go/pkg/manifest"
	"github.com/arnavshah/manifest-api-go/pkg/metrics"
	"github.com/arnavshah/manifest-api-go/pkg/models"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultRefreshInterval matches the manifest board's polling period
	DefaultRefreshInterval = 10 * time.Minute

	resyncTimeout = 30 * time.Second
	patchWorkers  = 8
)

// Coordinator keeps an in-memory copy of the ledger, applies operator
// gestures optimistically, persists them to the Store, and refetches
// everything when a write fails.
type Coordinator struct {
	store   Store
	log     logger.Logger
	metrics *metrics.Metrics
	calc    *manifest.Calculator

	mu          sync.RWMutex
	trips       []models.Trip
	sites       []models.Site
	passengers  []models.Passenger
	refreshedAt time.Time

	busyMu sync.Mutex
	busy   map[models.BucketKey]bool
}

// Snapshot is a point-in-time copy of the cache
type Snapshot struct {
	Trips       []models.Trip
	Sites       []models.Site
	Passengers  []models.Passenger
	RefreshedAt time.Time
}

// New creates a coordinator. Call Refresh before serving reads.
func New(store Store, log logger.Logger, m *metrics.Metrics, calc *manifest.Calculator) *Coordinator {
	if calc == nil {
		calc = manifest.NewCalculator()
	}
	return &Coordinator{
		store:   store,
		log:     log,
		metrics: m,
		calc:    calc,
		busy:    make(map[models.BucketKey]bool),
	}
}

// Refresh refetches trips, sites and passengers and replaces the cache. On
// failure the last known good state is kept.
func (c *Coordinator) Refresh(ctx context.Context) error {
	start := time.Now()

	var trips []models.Trip
	var sites []models.Site
	var passengers []models.Passenger

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		trips, err = c.store.ListTrips(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		sites, err = c.store.ListSites(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		passengers, err = c.store.ListPassengers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		c.log.Error("Refresh failed, keeping cached state", "error", err)
		return err
	}

	c.mu.Lock()
	c.trips = trips
	c.sites = sites
	c.passengers = passengers
	c.refreshedAt = time.Now()
	c.mu.Unlock()

	c.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	c.metrics.CachedTrips.Set(float64(len(trips)))
	c.log.Debug("Refreshed manifest cache", "trips", len(trips), "sites", len(sites), "passengers", len(passengers))
	return nil
}

// Run refreshes the cache every interval until ctx is cancelled
func (c *Coordinator) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("Manifest refresh stopped")
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.log.Error("Error during auto-refresh", "error", err)
			}
		}
	}
}

// Snapshot returns a copy of the cache. Trips are never mutated in place, so
// the copies may share their sort index maps with the cache.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Trips:       append([]models.Trip(nil), c.trips...),
		Sites:       append([]models.Site(nil), c.sites...),
		Passengers:  append([]models.Passenger(nil), c.passengers...),
		RefreshedAt: c.refreshedAt,
	}
}

// RefreshedAt is when the cache was last filled from the store
func (c *Coordinator) RefreshedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshedAt
}

// Trips returns the cached trips matching f
func (c *Coordinator) Trips(f manifest.LedgerFilter) []models.Trip {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return manifest.Select(c.trips, f)
}

// Site returns the cached site snapshot
func (c *Coordinator) Site(siteID string) (models.Site, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return manifest.FindSite(c.sites, siteID)
}

// ComputePOB computes the headcount at siteID on date from the cache
func (c *Coordinator) ComputePOB(date, siteID string) models.POBResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.metrics.POBQueries.Inc()
	return c.calc.Compute(date, siteID, c.trips, c.sites)
}

// EffectiveOrder returns the bucket's trips for date in display order
func (c *Coordinator) EffectiveOrder(key models.BucketKey, date string) []models.Trip {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return manifest.EffectiveOrder(key, manifest.BucketOn(c.trips, key, date), manifest.NewDirectory(c.passengers))
}

// Day returns one manifest cell for site on date
func (c *Coordinator) Day(siteID, date string, defaultMaximum int) models.DayData {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dir := manifest.NewDirectory(c.passengers)
	in := models.NewBucketKey(siteID, models.Incoming)
	out := models.NewBucketKey(siteID, models.Outgoing)
	pob := c.calc.Compute(date, siteID, c.trips, c.sites)
	site, _ := manifest.FindSite(c.sites, siteID)
	c.metrics.POBQueries.Inc()

	return models.DayData{
		Date:     date,
		Incoming: manifest.EffectiveOrder(in, manifest.BucketOn(c.trips, in, date), dir),
		Outgoing: manifest.EffectiveOrder(out, manifest.BucketOn(c.trips, out, date), dir),
		POB:      pob.POB,
		Note:     pob.Note,
		Status:   manifest.Status(pob.POB, manifest.Capacity(site, defaultMaximum)),
	}
}

// Weeks builds the week grid for a site
func (c *Coordinator) Weeks(opts manifest.WeekOptions) [][]models.DayData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if opts.Calculator == nil {
		opts.Calculator = c.calc
	}
	if opts.Today.IsZero() {
		opts.Today = c.now()
	}
	return manifest.BuildWeeks(opts, c.trips, c.sites, c.passengers)
}

// Reorder drags tripID to targetIndex within key's list for date, applies
// the new order locally and persists every changed index. Reorders on the
// same bucket are serialized; a concurrent one gets ErrBucketBusy.
func (c *Coordinator) Reorder(ctx context.Context, key models.BucketKey, date, tripID string, targetIndex int) (manifest.ReorderResult, error) {
	day, err := manifest.NormalizeDate(date)
	if err != nil {
		return manifest.ReorderResult{}, err
	}
	if !c.acquire(key) {
		return manifest.ReorderResult{}, ErrBucketBusy
	}
	defer c.release(key)

	c.mu.Lock()
	_, found := c.indexOf(tripID)
	if !found {
		c.mu.Unlock()
		return manifest.ReorderResult{}, ErrTripNotFound
	}
	res, err := manifest.Reorder(key, manifest.BucketOn(c.trips, key, day), tripID, targetIndex, manifest.NewDirectory(c.passengers))
	if err != nil {
		c.mu.Unlock()
		return manifest.ReorderResult{}, err
	}
	pending := c.applyOrderLocked(key, res)
	c.mu.Unlock()

	var g errgroup.Group
	g.SetLimit(patchWorkers)
	for id, indices := range pending {
		g.Go(func() error {
			return c.store.PatchTripSortIndices(ctx, id, indices)
		})
	}
	if err := g.Wait(); err != nil {
		return manifest.ReorderResult{}, c.resync(ctx, "reorder", err)
	}

	c.metrics.Reorders.Inc()
	c.log.Info("Reordered manifest", "bucket", key.String(), "date", day, "trip", tripID, "target", targetIndex, "changed", len(res.Changed))
	return res, nil
}

// MoveToDate reschedules tripID to newDate at the front of key's list
func (c *Coordinator) MoveToDate(ctx context.Context, key models.BucketKey, tripID, newDate string) (models.Trip, error) {
	if !c.acquire(key) {
		return models.Trip{}, ErrBucketBusy
	}
	defer c.release(key)

	c.mu.RLock()
	i, found := c.indexOf(tripID)
	var current models.Trip
	if found {
		current = c.trips[i]
	}
	c.mu.RUnlock()
	if !found {
		return models.Trip{}, ErrTripNotFound
	}

	moved, err := manifest.MoveToDate(current, newDate, key)
	if err != nil {
		return models.Trip{}, err
	}

	c.mu.Lock()
	c.replaceLocked(moved)
	c.mu.Unlock()

	saved, err := c.store.ReplaceTrip(ctx, tripID, moved)
	if err != nil {
		return models.Trip{}, c.resync(ctx, "move", err)
	}

	c.mu.Lock()
	c.replaceLocked(saved)
	c.mu.Unlock()

	c.metrics.Moves.Inc()
	c.log.Info("Moved trip", "trip", tripID, "bucket", key.String(), "from", current.TripDate, "to", saved.TripDate)
	return saved, nil
}

// CreateTrip stores a new trip and adds it to the cache
func (c *Coordinator) CreateTrip(ctx context.Context, in models.TripInput) (models.Trip, error) {
	in, err := manifest.ValidateInput(in)
	if err != nil {
		return models.Trip{}, err
	}

	created, err := c.store.CreateTrip(ctx, in)
	if err != nil {
		c.log.Error("Error adding trip", "error", err)
		return models.Trip{}, err
	}

	c.mu.Lock()
	c.trips = append(c.trips, created)
	c.mu.Unlock()
	return created, nil
}

// UpdateTrip replaces a trip and updates the cache once the store accepts it
func (c *Coordinator) UpdateTrip(ctx context.Context, tripID string, in models.TripInput) (models.Trip, error) {
	in, err := manifest.ValidateInput(in)
	if err != nil {
		return models.Trip{}, err
	}

	c.mu.RLock()
	i, found := c.indexOf(tripID)
	var existing models.Trip
	if found {
		existing = c.trips[i]
	}
	c.mu.RUnlock()

	next := in.Trip(tripID)
	if next.SortIndices == nil && found {
		next.SortIndices = existing.SortIndices
	}

	saved, err := c.store.ReplaceTrip(ctx, tripID, next)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.Trip{}, ErrTripNotFound
		}
		c.log.Error("Error updating trip", "trip", tripID, "error", err)
		return models.Trip{}, err
	}

	c.mu.Lock()
	c.replaceLocked(saved)
	c.mu.Unlock()
	return saved, nil
}

// DeleteTrip removes the trip from the cache first, then from the store. A
// trip the store no longer has counts as deleted; any other failure refetches.
func (c *Coordinator) DeleteTrip(ctx context.Context, tripID string) error {
	c.mu.Lock()
	if i, ok := c.indexOf(tripID); ok {
		c.trips = append(c.trips[:i:i], c.trips[i+1:]...)
	}
	c.mu.Unlock()

	if err := c.store.DeleteTrip(ctx, tripID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		return c.resync(ctx, "delete", err)
	}
	return nil
}

// CreatePassenger stores a passenger and refetches the passenger list
func (c *Coordinator) CreatePassenger(ctx context.Context, p models.Passenger) (models.Passenger, error) {
	created, err := c.store.CreatePassenger(ctx, p)
	if err != nil {
		c.log.Error("Error adding passenger", "error", err)
		return models.Passenger{}, err
	}

	passengers, err := c.store.ListPassengers(ctx)
	c.mu.Lock()
	if err == nil {
		c.passengers = passengers
	} else {
		c.passengers = append(c.passengers, created)
	}
	c.mu.Unlock()
	return created, nil
}

// resync logs a failed write, refetches the ledger and wraps the cause. The
// refetch runs even if the caller's context is already done.
func (c *Coordinator) resync(ctx context.Context, op string, cause error) error {
	c.metrics.SyncFailures.WithLabelValues(op).Inc()
	c.log.Warn("Store write failed, resynchronizing", "operation", op, "error", cause)

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resyncTimeout)
	defer cancel()
	if err := c.Refresh(rctx); err != nil {
		c.log.Error("Resync after failed write also failed", "operation", op, "error", err)
	}
	return &SyncError{Op: op, Err: cause}
}

func (c *Coordinator) acquire(key models.BucketKey) bool {
	c.busyMu.Lock()
	defer c.busyMu.Unlock()
	if c.busy[key] {
		return false
	}
	c.busy[key] = true
	return true
}

func (c *Coordinator) release(key models.BucketKey) {
	c.busyMu.Lock()
	delete(c.busy, key)
	c.busyMu.Unlock()
}

// indexOf must be called with mu held
func (c *Coordinator) indexOf(tripID string) (int, bool) {
	for i, t := range c.trips {
		if t.ID == tripID {
			return i, true
		}
	}
	return -1, false
}

// replaceLocked swaps in t by id, appending it if unknown. Requires mu.
func (c *Coordinator) replaceLocked(t models.Trip) {
	if i, ok := c.indexOf(t.ID); ok {
		c.trips[i] = t
		return
	}
	c.trips = append(c.trips, t)
}

// applyOrderLocked writes key's new positions into the cached trips, leaving
// every other field as it is in the cache now, and returns the index maps to
// persist for trips whose position changed. Requires mu.
func (c *Coordinator) applyOrderLocked(key models.BucketKey, res manifest.ReorderResult) map[string]models.SortIndices {
	changed := make(map[string]bool, len(res.Changed))
	for _, a := range res.Changed {
		changed[a.TripID] = true
	}

	pending := make(map[string]models.SortIndices, len(changed))
	for pos, t := range res.Order {
		i, ok := c.indexOf(t.ID)
		if !ok {
			continue
		}
		cached := c.trips[i]
		indices := cached.SortIndices.Clone()
		indices[key] = pos
		cached.SortIndices = indices
		c.trips[i] = cached
		if changed[t.ID] {
			pending[t.ID] = indices.Clone()
		}
	}
	return pending
}

// Today is the current calendar date as seen by the POB calculator
func (c *Coordinator) Today() string {
	return manifest.FormatDate(c.now())
}

func (c *Coordinator) now() time.Time {
	if c.calc.Now != nil {
		return c.calc.Now()
	}
	return time.Now()
}
