package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/climadados/clima-dashboard/internal/client"
	"github.com/climadados/clima-dashboard/internal/models"
	"github.com/climadados/clima-dashboard/internal/search"
	"github.com/climadados/clima-dashboard/internal/store"
)

type fakeAPI struct {
	mu       sync.Mutex
	cities   []models.City
	weather  models.Weather
	err      error
	searches []string
	queries  []client.ForecastQuery
}

func (f *fakeAPI) SearchCities(ctx context.Context, query string) ([]models.City, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.cities, nil
}

func (f *fakeAPI) Forecast(ctx context.Context, q client.ForecastQuery) (models.Weather, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return models.Weather{}, f.err
	}
	return f.weather, nil
}

func (f *fakeAPI) lastQuery(t *testing.T) client.ForecastQuery {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		t.Fatal("no forecast calls recorded")
	}
	return f.queries[len(f.queries)-1]
}

func testWeather() models.Weather {
	return models.Weather{
		Location: models.Location{
			Name: "Sao Paulo", Region: "Sao Paulo", Country: "Brazil",
			Lat: -23.55, Lon: -46.63,
		},
		Current: models.Current{
			TempC: 27.6, FeelslikeC: 29.1, Humidity: 70, WindKph: 9,
			LastUpdated: "2024-03-04 09:45",
			Condition:   models.Condition{Text: "Parcialmente nublado", Icon: "//cdn/116.png"},
			AirQuality:  models.AirQuality{USEPAIndex: 2},
		},
		Forecast: models.Forecast{Forecastday: []models.ForecastDay{
			{
				Date: "2024-03-04", WeekDay: "segunda-feira",
				Astro: models.Astro{Sunrise: "06:45 AM", Sunset: "06:12 PM"},
				Day: models.Day{
					MintempC: 19.2, MaxtempC: 28.8,
					Condition: models.Condition{Text: "Sol", Icon: "//cdn/113.png"},
				},
				Hour: []models.Hour{
					{Current: models.Current{TempC: 20.4, Humidity: 80}, Time: "2024-03-04 00:00"},
					{Current: models.Current{TempC: 21.6, Humidity: 75}, Time: "2024-03-04 01:00"},
				},
			},
			{
				Date: "2024-03-05", WeekDay: "terça-feira",
				Day: models.Day{MintempC: 18, MaxtempC: 26, Condition: models.Condition{Text: "Chuva"}},
			},
		}},
	}
}

func newTestServer(t *testing.T, api client.WeatherAPI, st store.LocationStore) *httptest.Server {
	t.Helper()
	if st == nil {
		st = store.NewMemoryStore()
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv, err := NewServer(ctx, Config{
		API:              api,
		Store:            st,
		Logger:           zap.NewNop(),
		DebounceInterval: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

// noRedirectClient returns redirects to the caller instead of following them.
func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// newCookieClient keeps the session cookie across requests.
func newCookieClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{Jar: jar}
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func TestHome_DeepLinkFetches(t *testing.T) {
	api := &fakeAPI{weather: testWeather()}
	ts := newTestServer(t, api, nil)

	resp, body := get(t, ts.URL+"/?q=40.7,-74.0")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := api.lastQuery(t); got.Location != "40.7,-74.0" || got.Days != 8 {
		t.Errorf("forecast query = %+v", got)
	}
	if !strings.Contains(body, "Sao Paulo - Sao Paulo - Brazil") {
		t.Error("body missing location line")
	}
	if !strings.Contains(body, "<strong>28°</strong>") { // 27.6 rounds up
		t.Error("body missing rounded temperature")
	}
}

func TestHome_PlainLoadUsesStoredLocation(t *testing.T) {
	api := &fakeAPI{weather: testWeather()}
	st := store.NewMemoryStore()
	if err := st.Set(context.Background(), "-22.9,-43.1"); err != nil {
		t.Fatal(err)
	}
	ts := newTestServer(t, api, st)

	if resp, _ := get(t, ts.URL+"/"); resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := api.lastQuery(t); got.Location != "-22.9,-43.1" {
		t.Errorf("forecast location = %q, want stored value", got.Location)
	}
}

func TestHome_PlainLoadWithoutHistoryFetchesNothing(t *testing.T) {
	api := &fakeAPI{weather: testWeather()}
	ts := newTestServer(t, api, nil)

	resp, body := get(t, ts.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	api.mu.Lock()
	calls := len(api.queries)
	api.mu.Unlock()
	if calls != 0 {
		t.Errorf("forecast calls = %d, want 0", calls)
	}
	if strings.Contains(body, "Sao Paulo") {
		t.Error("body shows weather without any fetch")
	}
}

func TestHome_SubmitEmptyQueryShowsPrompt(t *testing.T) {
	api := &fakeAPI{weather: testWeather()}
	ts := newTestServer(t, api, nil)

	_, body := get(t, ts.URL+"/?q=++&submit=1")
	if !strings.Contains(body, search.MsgEmptyQuery) {
		t.Errorf("body missing %q", search.MsgEmptyQuery)
	}
	api.mu.Lock()
	calls := len(api.queries)
	api.mu.Unlock()
	if calls != 0 {
		t.Errorf("forecast calls = %d, want 0 for empty submit", calls)
	}
}

func TestHome_SubmitFailureShowsFixedMessage(t *testing.T) {
	api := &fakeAPI{err: client.ErrCityNotFound}
	ts := newTestServer(t, api, nil)

	_, body := get(t, ts.URL+"/?q=xyzzy&submit=1")
	if !strings.Contains(body, search.MsgCityNotFound) {
		t.Errorf("body missing %q", search.MsgCityNotFound)
	}
}

func TestHome_SubmitRendersForecastStrip(t *testing.T) {
	api := &fakeAPI{weather: testWeather()}
	ts := newTestServer(t, api, nil)

	_, body := get(t, ts.URL+"/?q=sao+paulo&submit=1")
	if !strings.Contains(body, "Terça") {
		t.Error("body missing short weekday for strip day")
	}
	if !strings.Contains(body, "/previsao/-23.55/-46.63?dt=2024-03-05") {
		t.Error("body missing detail link for strip day")
	}
	if !strings.Contains(body, "Moderado") {
		t.Error("body missing air quality label")
	}
}

func TestSelectCity_FetchesAndRedirects(t *testing.T) {
	api := &fakeAPI{weather: testWeather()}
	ts := newTestServer(t, api, nil)

	resp, err := noRedirectClient().Get(ts.URL + "/selecionar?id=315078&name=Sao+Paulo&region=Sao+Paulo&lat=-23.55&lon=-46.63")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/" {
		t.Errorf("redirect = %q, want /", loc)
	}
	if got := api.lastQuery(t); got.Location != "-23.55,-46.63" {
		t.Errorf("forecast location = %q", got.Location)
	}
}

func TestSelectCity_InvalidCoordinatesRedirectWithoutFetch(t *testing.T) {
	api := &fakeAPI{weather: testWeather()}
	ts := newTestServer(t, api, nil)

	resp, err := noRedirectClient().Get(ts.URL + "/selecionar?lat=bogus&lon=-46.63")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	api.mu.Lock()
	calls := len(api.queries)
	api.mu.Unlock()
	if calls != 0 {
		t.Errorf("forecast calls = %d, want 0", calls)
	}
}

func TestAPICities_DebouncedLookupConverges(t *testing.T) {
	api := &fakeAPI{cities: []models.City{
		{ID: 1, Name: "Sao Paulo", Region: "Sao Paulo", Lat: -23.55, Lon: -46.63},
	}}
	ts := newTestServer(t, api, nil)

	jar := newCookieClient(t)
	// First call registers the query; the debounced lookup resolves shortly
	// after, so polling with the same session cookie converges on the list.
	deadline := time.Now().Add(2 * time.Second)
	var cities []models.City
	for time.Now().Before(deadline) {
		resp, err := jar.Get(ts.URL + "/api/cities?q=sao")
		if err != nil {
			t.Fatal(err)
		}
		cities = nil
		if err := json.NewDecoder(resp.Body).Decode(&cities); err != nil {
			resp.Body.Close()
			t.Fatalf("decode: %v", err)
		}
		resp.Body.Close()
		if len(cities) > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if len(cities) != 1 || cities[0].Name != "Sao Paulo" {
		t.Fatalf("cities = %+v, want the seeded candidate", cities)
	}

	api.mu.Lock()
	searches := append([]string(nil), api.searches...)
	api.mu.Unlock()
	for _, q := range searches {
		if q != "sao" {
			t.Errorf("unexpected lookup query %q", q)
		}
	}
}

func TestAPICities_AlwaysReturnsArray(t *testing.T) {
	api := &fakeAPI{}
	ts := newTestServer(t, api, nil)

	resp, body := get(t, ts.URL+"/api/cities?q=")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if strings.TrimSpace(body) != "[]" {
		t.Errorf("body = %q, want empty JSON array", body)
	}
}

func TestAPICities_InvalidInputTreatedAsEmpty(t *testing.T) {
	api := &fakeAPI{cities: []models.City{{ID: 1, Name: "X"}}}
	ts := newTestServer(t, api, nil)

	resp, body := get(t, ts.URL+"/api/cities?q=%3Cscript%3E")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if strings.TrimSpace(body) != "[]" {
		t.Errorf("body = %q, want empty JSON array for rejected input", body)
	}
}

func TestAPIGeolocation_Success(t *testing.T) {
	api := &fakeAPI{weather: testWeather()}
	st := store.NewMemoryStore()
	ts := newTestServer(t, api, st)

	resp, err := http.Post(ts.URL+"/api/geolocation", "application/json",
		strings.NewReader(`{"lat": -22.9, "lon": -43.1}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["redirect"] != "/" {
		t.Errorf("redirect = %q, want /", out["redirect"])
	}
	if got := api.lastQuery(t); got.Location != "-22.9,-43.1" {
		t.Errorf("forecast location = %q", got.Location)
	}
	if loc, ok, _ := st.Get(context.Background()); !ok || loc != "-22.9,-43.1" {
		t.Errorf("stored location = %q ok=%v", loc, ok)
	}
}

func TestAPIGeolocation_MissingCoordinates(t *testing.T) {
	api := &fakeAPI{weather: testWeather()}
	ts := newTestServer(t, api, nil)

	resp, err := http.Post(ts.URL+"/api/geolocation", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var out struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Error.Code != "GEOLOCATION_UNAVAILABLE" {
		t.Errorf("code = %q", out.Error.Code)
	}
	if out.Error.Message != "Este navegador não suporta Geolocalização." {
		t.Errorf("message = %q", out.Error.Message)
	}
}

func TestAPIGeolocation_OutOfRange(t *testing.T) {
	api := &fakeAPI{weather: testWeather()}
	ts := newTestServer(t, api, nil)

	resp, err := http.Post(ts.URL+"/api/geolocation", "application/json",
		strings.NewReader(`{"lat": 91, "lon": 0}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAPIGeolocation_UpstreamFailure(t *testing.T) {
	api := &fakeAPI{err: client.ErrUpstreamFailure}
	ts := newTestServer(t, api, nil)

	resp, err := http.Post(ts.URL+"/api/geolocation", "application/json",
		strings.NewReader(`{"lat": -22.9, "lon": -43.1}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
}

func TestDetail_RendersDayView(t *testing.T) {
	api := &fakeAPI{weather: testWeather()}
	ts := newTestServer(t, api, nil)

	resp, body := get(t, ts.URL+"/previsao/-23.55/-46.63?dt=2024-03-04")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	got := api.lastQuery(t)
	if got.Location != "-23.55,-46.63" {
		t.Errorf("forecast location = %q", got.Location)
	}
	if got.Date != "2024-03-04" {
		t.Errorf("forecast date = %q", got.Date)
	}

	if !strings.Contains(body, "Clima do dia 04/03/2024") {
		t.Error("body missing day title")
	}
	if !strings.Contains(body, "Ultima atualização em: 04/03/2024 09:45h") {
		t.Error("body missing last-updated suffix")
	}
	if !strings.Contains(body, "/?q=-23.55,-46.63") {
		t.Error("body missing back link")
	}
	// Hourly samples: 00:00 at 20.4°C and 01:00 at 21.6°C, rounded.
	if !strings.Contains(body, "00:00") || !strings.Contains(body, "01:00") {
		t.Error("body missing hourly labels")
	}
	if !strings.Contains(body, "22") {
		t.Error("body missing rounded hourly value")
	}
}

func TestDetail_MissingDateRedirectsHome(t *testing.T) {
	api := &fakeAPI{weather: testWeather()}
	ts := newTestServer(t, api, nil)

	resp, err := noRedirectClient().Get(ts.URL + "/previsao/-23.55/-46.63")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
}

func TestDetail_PartialPathRedirectsHome(t *testing.T) {
	api := &fakeAPI{weather: testWeather()}
	ts := newTestServer(t, api, nil)

	for _, path := range []string{"/previsao", "/previsao/-23.55"} {
		resp, err := noRedirectClient().Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusFound {
			t.Errorf("GET %s status = %d, want 302", path, resp.StatusCode)
		}
	}
}

func TestDetail_UpstreamFailure(t *testing.T) {
	api := &fakeAPI{err: client.ErrUpstreamFailure}
	ts := newTestServer(t, api, nil)

	resp, body := get(t, ts.URL+"/previsao/-23.55/-46.63?dt=2024-03-04")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
	if !strings.Contains(body, "Não foi possível carregar a previsão.") {
		t.Errorf("body = %q", body)
	}
}

func TestGetHealth(t *testing.T) {
	api := &fakeAPI{}
	ts := newTestServer(t, api, nil)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["status"] != "healthy" {
		t.Errorf("status = %v", out["status"])
	}
	if out["service"] != "clima-dashboard" {
		t.Errorf("service = %v", out["service"])
	}
}

func TestGetHealth_Draining(t *testing.T) {
	api := &fakeAPI{}
	ts := newTestServer(t, api, nil)

	SetDraining(true)
	t.Cleanup(func() { SetDraining(false) })

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
}

func TestSessionCookieIssuedOnce(t *testing.T) {
	api := &fakeAPI{}
	ts := newTestServer(t, api, nil)

	jar := newCookieClient(t)
	resp, err := jar.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	var sid string
	for _, c := range resp.Cookies() {
		if c.Name == "sid" {
			sid = c.Value
		}
	}
	if sid == "" {
		t.Fatal("no sid cookie issued on first request")
	}

	resp, err = jar.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	for _, c := range resp.Cookies() {
		if c.Name == "sid" {
			t.Errorf("sid re-issued on second request: %q", c.Value)
		}
	}
}
