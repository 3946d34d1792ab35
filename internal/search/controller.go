package search

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/climadados/clima-dashboard/internal/client"
	"github.com/climadados/clima-dashboard/internal/debounce"
	"github.com/climadados/clima-dashboard/internal/models"
	"github.com/climadados/clima-dashboard/internal/observability"
	"github.com/climadados/clima-dashboard/internal/store"
)

// Fixed user-facing messages. Both not-found and transport failures collapse to
// MsgCityNotFound; splitting that taxonomy would be a behavior change.
const (
	MsgCityNotFound = "Não foi possível encontrar a cidade."
	MsgEmptyQuery   = "Por favor, digite uma cidade."
)

const homeForecastDays = 8

// Geolocator resolves the device position. Failures are reported to the caller
// as a blocking notice, never through the inline error field.
type Geolocator interface {
	Current(ctx context.Context) (lat, lon float64, err error)
}

// Config holds the collaborators of a Controller.
type Config struct {
	API              client.WeatherAPI
	Store            store.LocationStore
	Geolocator       Geolocator
	Logger           *zap.Logger
	DebounceInterval time.Duration
}

// Controller owns the home page search state and mediates between user input,
// the weatherapi.com client, geolocation and deep-linking. All state lives
// behind one mutex; collaborators are stateless with respect to it.
type Controller struct {
	api    client.WeatherAPI
	store  store.LocationStore
	geo    Geolocator
	logger *zap.Logger
	deb    *debounce.Debouncer[string]

	mu    sync.Mutex
	state models.SearchState

	// Monotonic tags so that only the most recently issued request may apply
	// its result; a slow superseded response is discarded.
	fetchSeq  atomic.Uint64
	lookupSeq atomic.Uint64
}

func New(cfg Config) *Controller {
	interval := cfg.DebounceInterval
	if interval <= 0 {
		interval = 600 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		api:    cfg.API,
		store:  cfg.Store,
		geo:    cfg.Geolocator,
		logger: logger,
		deb:    debounce.New[string](interval),
	}
}

// Snapshot returns a copy of the current search state.
func (c *Controller) Snapshot() models.SearchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	if c.state.Candidates != nil {
		s.Candidates = make([]models.City, len(c.state.Candidates))
		copy(s.Candidates, c.state.Candidates)
	}
	return s
}

// SetQuery records a keystroke: the query updates immediately and the debounced
// autocomplete pipeline is fed.
func (c *Controller) SetQuery(q string) {
	c.mu.Lock()
	c.state.Query = q
	c.mu.Unlock()
	c.deb.Update(q)
}

// Run consumes debounced query values until ctx is done, resolving candidates
// for non-empty values and clearing the list for empty ones. Teardown cancels
// any pending debounce emission.
func (c *Controller) Run(ctx context.Context) {
	defer c.deb.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case q := <-c.deb.C():
			c.resolveCandidates(ctx, q)
		}
	}
}

// resolveCandidates performs one debounced lookup. Failures degrade silently to
// an empty list; autocomplete never surfaces an error to the user.
func (c *Controller) resolveCandidates(ctx context.Context, q string) {
	if q == "" {
		c.mu.Lock()
		c.state.Candidates = nil
		c.mu.Unlock()
		return
	}

	seq := c.lookupSeq.Add(1)
	observability.CityLookupsTotal.Inc()

	cities, err := c.api.SearchCities(ctx, q)
	if err != nil {
		observability.CityLookupFailuresTotal.Inc()
		c.logger.Warn("city lookup failed", zap.String("query", q), zap.Error(err))
		cities = nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.lookupSeq.Load() {
		// A newer lookup was issued while this one was in flight.
		return
	}
	c.state.Candidates = cities
}

// Submit handles the search form. Empty input clears the weather and sets the
// fixed prompt without touching the network; anything else fetches by raw text.
func (c *Controller) Submit(ctx context.Context) {
	c.mu.Lock()
	q := strings.TrimSpace(c.state.Query)
	if q == "" {
		c.state.Weather = nil
		c.state.Error = MsgEmptyQuery
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.fetchWeather(ctx, q, "submit")
}

// Select fetches weather for a chosen candidate, keyed by its coordinates and
// bypassing free-text resolution.
func (c *Controller) Select(ctx context.Context, city models.City) {
	c.fetchWeather(ctx, FormatCoords(city.Lat, city.Lon), "select")
}

// Locate resolves the device position, persists it as the last known location
// and fetches weather for it. The returned error is the geolocation failure
// channel; it never reaches the inline error field.
func (c *Controller) Locate(ctx context.Context) error {
	lat, lon, err := c.geo.Current(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.state.Error = ""
	c.mu.Unlock()

	loc := FormatCoords(lat, lon)
	if err := c.store.Set(ctx, loc); err != nil {
		// Persistence is best-effort; the fetch still proceeds.
		c.logger.Warn("persist location failed", zap.String("location", loc), zap.Error(err))
	}
	c.fetchWeather(ctx, loc, "geolocation")
	return nil
}

// Mount runs the page-load path: a deep-link location wins, else a previously
// persisted one; with neither, the controller stays idle.
func (c *Controller) Mount(ctx context.Context, deepLink string) {
	if deepLink != "" {
		c.fetchWeather(ctx, deepLink, "mount")
		return
	}
	loc, ok, err := c.store.Get(ctx)
	if err != nil {
		c.logger.Warn("read stored location failed", zap.Error(err))
		return
	}
	if ok {
		c.fetchWeather(ctx, loc, "mount")
	}
}

// fetchWeather runs the shared fetch envelope: clear error, set loading, issue
// the request; on success replace the weather and clear loading, query and
// candidates; on failure set the fixed message, clear loading and leave any
// prior weather visible.
func (c *Controller) fetchWeather(ctx context.Context, location, trigger string) {
	seq := c.fetchSeq.Add(1)

	c.mu.Lock()
	c.state.Error = ""
	c.state.Loading = true
	c.mu.Unlock()

	observability.RecordWeatherFetch(trigger)
	weather, err := c.api.Forecast(ctx, client.ForecastQuery{
		Location: location,
		Days:     homeForecastDays,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.fetchSeq.Load() {
		// Superseded: the state now belongs to a more recently issued fetch.
		return
	}
	if err != nil {
		observability.WeatherFetchFailuresTotal.Inc()
		c.logger.Warn("weather fetch failed",
			zap.String("location", location),
			zap.String("trigger", trigger),
			zap.Error(err))
		c.state.Error = MsgCityNotFound
		c.state.Loading = false
		return
	}
	c.state.Weather = &weather
	c.state.Loading = false
	c.state.Query = ""
	c.state.Candidates = nil
	// A lookup debounced before the fetch completed must not repopulate the
	// candidate list after it was cleared.
	c.deb.Update("")
}

// FormatCoords renders a coordinate pair as the "lat,lon" location key used by
// every coordinate-based fetch and by the persisted location value.
func FormatCoords(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}
