package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/climadados/clima-dashboard/internal/search"
)

const sessionCookie = "sid"

// browserGeolocator receives coordinates posted by the browser; the device
// position is only ever known client-side. Locate without a posted position
// reports the geolocation-unavailable failure.
type browserGeolocator struct {
	mu  sync.Mutex
	lat float64
	lon float64
	ok  bool
}

func (g *browserGeolocator) set(lat, lon float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lat, g.lon, g.ok = lat, lon, true
}

func (g *browserGeolocator) Current(ctx context.Context) (float64, float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.ok {
		return 0, 0, ErrNoGeolocation
	}
	return g.lat, g.lon, nil
}

// session couples one browser to one search controller. The controller's event
// loop lives as long as the session.
type session struct {
	ctrl     *search.Controller
	geo      *browserGeolocator
	cancel   context.CancelFunc
	lastSeen time.Time
}

// sessionRegistry hands out per-browser sessions keyed by cookie and reaps the
// idle ones. Each new session starts its controller's Run loop under the
// registry's lifetime context, so server shutdown tears down every pending
// debounce timer.
type sessionRegistry struct {
	mu       sync.Mutex
	ctx      context.Context
	sessions map[string]*session
	ttl      time.Duration
	build    func(geo search.Geolocator) *search.Controller
}

func newSessionRegistry(ctx context.Context, ttl time.Duration, build func(geo search.Geolocator) *search.Controller) *sessionRegistry {
	r := &sessionRegistry{
		ctx:      ctx,
		sessions: make(map[string]*session),
		ttl:      ttl,
		build:    build,
	}
	go r.reapLoop()
	return r
}

// acquire returns the session for the request's cookie, creating both the
// cookie and the session as needed.
func (r *sessionRegistry) acquire(w http.ResponseWriter, req *http.Request) *session {
	var id string
	if c, err := req.Cookie(sessionCookie); err == nil && c.Value != "" {
		id = c.Value
	} else {
		id = uuid.New().String()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.lastSeen = time.Now()
		return s
	}

	geo := &browserGeolocator{}
	ctrl := r.build(geo)
	ctx, cancel := context.WithCancel(r.ctx)
	go ctrl.Run(ctx)

	s := &session{ctrl: ctrl, geo: geo, cancel: cancel, lastSeen: time.Now()}
	r.sessions[id] = s
	return s
}

func (r *sessionRegistry) reapLoop() {
	interval := r.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.reap(time.Now())
		}
	}
}

func (r *sessionRegistry) reap(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.ttl {
			s.cancel()
			delete(r.sessions, id)
		}
	}
}
