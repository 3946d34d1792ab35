package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/climadados/clima-dashboard/internal/client"
	"github.com/climadados/clima-dashboard/internal/models"
	"github.com/climadados/clima-dashboard/internal/observability"
	"github.com/climadados/clima-dashboard/internal/search"
	"github.com/climadados/clima-dashboard/internal/validation"
)

// Home handles GET /. A plain load runs the mount path (deep-link q, else the
// persisted location); a form submission runs the submit path with its
// empty-input rule.
func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.acquire(w, r)
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	if _, submitted := r.URL.Query()["submit"]; submitted {
		sess.ctrl.SetQuery(q)
		sess.ctrl.Submit(r.Context())
	} else {
		sess.ctrl.Mount(r.Context(), q)
	}

	s.render(w, r, "home.html", NewHomeView(sess.ctrl.Snapshot()))
}

// SelectCity handles a click on an autocomplete candidate: fetch by the
// candidate's coordinates, then land back on the home page.
func (s *Server) SelectCity(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.acquire(w, r)

	params := r.URL.Query()
	lat, latErr := validation.Latitude(params.Get("lat"))
	lon, lonErr := validation.Longitude(params.Get("lon"))
	if latErr != nil || lonErr != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	id, _ := strconv.Atoi(params.Get("id"))

	sess.ctrl.Select(r.Context(), models.City{
		ID:     id,
		Name:   params.Get("name"),
		Region: params.Get("region"),
		Lat:    lat,
		Lon:    lon,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

// APICities handles GET /api/cities?q=. The page script calls it on every
// keystroke; the session controller debounces, so the upstream sees one lookup
// per stable query and the returned list converges once typing stops.
// Autocomplete failures are already degraded to an empty list by the controller.
func (s *Server) APICities(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.acquire(w, r)

	raw := r.URL.Query().Get("q")
	q, err := validation.SearchQuery(raw, s.queryMaxLen)
	switch {
	case err == nil:
		sess.ctrl.SetQuery(q)
	case errors.Is(err, validation.ErrQueryEmpty):
		sess.ctrl.SetQuery("")
	default:
		// Invalid input is treated like an empty query, not an error.
		if logger := loggerFromContext(r.Context()); logger != nil {
			logger.Debug("rejected autocomplete query", zap.Error(err))
		}
		sess.ctrl.SetQuery("")
	}

	candidates := sess.ctrl.Snapshot().Candidates
	if candidates == nil {
		candidates = []models.City{}
	}
	writeJSON(w, http.StatusOK, candidates)
}

// APIGeolocation handles POST /api/geolocation with the browser's coordinates.
// Success persists the location, fetches weather into the session and points
// the page back home. Failures use this endpoint's status code, a channel
// distinct from the inline search error.
func (s *Server) APIGeolocation(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.acquire(w, r)

	var body struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Lat == nil || body.Lon == nil {
		writeError(w, r, http.StatusBadRequest, "GEOLOCATION_UNAVAILABLE", "Este navegador não suporta Geolocalização.")
		return
	}
	if *body.Lat < -90 || *body.Lat > 90 || *body.Lon < -180 || *body.Lon > 180 {
		writeError(w, r, http.StatusBadRequest, "GEOLOCATION_INVALID", "Coordenadas inválidas.")
		return
	}

	sess.geo.set(*body.Lat, *body.Lon)
	if err := sess.ctrl.Locate(r.Context()); err != nil {
		writeError(w, r, http.StatusBadGateway, "GEOLOCATION_FAILED", "Não foi possível usar sua localização.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"redirect": "/"})
}

// Detail handles GET /previsao/{lat}/{long}?dt=. Missing or invalid parameters
// redirect home; the view is derived once from a single-day fetch.
func (s *Server) Detail(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	lat, latErr := validation.Latitude(vars["lat"])
	long, longErr := validation.Longitude(vars["long"])
	dt, dtErr := validation.ForecastDate(r.URL.Query().Get("dt"))
	if latErr != nil || longErr != nil || dtErr != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	observability.RecordWeatherFetch("detail")
	weather, err := s.api.Forecast(r.Context(), client.ForecastQuery{
		Location: search.FormatCoords(lat, long),
		Date:     dt,
	})
	if err != nil {
		observability.WeatherFetchFailuresTotal.Inc()
		if logger := loggerFromContext(r.Context()); logger != nil {
			logger.Warn("detail fetch failed", zap.String("date", dt), zap.Error(err))
		}
		http.Error(w, "Não foi possível carregar a previsão.", http.StatusBadGateway)
		return
	}

	s.render(w, r, "detail.html", NewDetailView(weather))
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	statusCode := http.StatusOK
	if IsDraining() {
		status = "shutting-down"
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, map[string]interface{}{
		"status":    status,
		"service":   "clima-dashboard",
		"version":   "dev",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		corrID = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}
