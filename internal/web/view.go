package web

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/climadados/clima-dashboard/internal/models"
	"github.com/climadados/clima-dashboard/internal/search"
	"github.com/climadados/clima-dashboard/internal/timeutil"
)

// airQualityLabels maps us-epa-index (1..6) to the display label.
var airQualityLabels = []string{
	"Boa",
	"Moderado",
	"Alerta para grupo sensível",
	"Ruim",
	"Muito Ruim",
	"Perigoso",
}

// CurrentView is the current-conditions panel, shared by home and detail pages.
type CurrentView struct {
	Title         string
	LocationLine  string
	Icon          string
	TempC         int
	ConditionText string
	FeelslikeC    int
	MinC          int
	MaxC          int
	Humidity      int
	WindKph       float64
	Sun           string
	AirQuality    string
}

// StripDay is one entry of the 7-day forecast strip.
type StripDay struct {
	WeekDay   string
	Icon      string
	Condition string
	MinC      int
	MaxC      int
	DetailURL string
}

// HomeView is everything the home template renders.
type HomeView struct {
	Query   string
	Error   string
	Loading bool
	Weather *CurrentView
	Strip   []StripDay
}

// DetailView is everything the detail template renders.
type DetailView struct {
	Weather        CurrentView
	BackURL        string
	TempSeries     []models.SeriesPoint
	HumiditySeries []models.SeriesPoint
}

// NewHomeView projects a search state snapshot into template data.
func NewHomeView(s models.SearchState) HomeView {
	v := HomeView{
		Query:   s.Query,
		Error:   s.Error,
		Loading: s.Loading,
	}
	if s.Weather == nil {
		return v
	}
	cv := newCurrentView(*s.Weather, "")
	v.Weather = &cv
	v.Strip = newStrip(*s.Weather)
	return v
}

// NewDetailView projects a single-day snapshot into template data. Both chart
// series are derived once, up front; the temperature/humidity toggle never
// recomputes them.
func NewDetailView(w models.Weather) DetailView {
	title := "Clima do dia"
	if len(w.Forecast.Forecastday) > 0 {
		if d, err := timeutil.FormatDate(w.Forecast.Forecastday[0].Date); err == nil {
			title = fmt.Sprintf("Clima do dia %s", d)
		}
	}
	if lu, err := timeutil.FormatLastUpdated(w.Current.LastUpdated); err == nil {
		title = fmt.Sprintf("%s - Ultima atualização em: %s", title, lu)
	}
	return DetailView{
		Weather:        newCurrentView(w, title),
		BackURL:        fmt.Sprintf("/?q=%s", search.FormatCoords(w.Location.Lat, w.Location.Lon)),
		TempSeries:     HourlySeries(w, func(h models.Hour) float64 { return h.TempC }),
		HumiditySeries: HourlySeries(w, func(h models.Hour) float64 { return float64(h.Humidity) }),
	}
}

// HourlySeries derives one chart series from the first forecast day's hourly
// samples: each point labeled with the clock portion of the sample timestamp,
// value rounded for display.
func HourlySeries(w models.Weather, value func(models.Hour) float64) []models.SeriesPoint {
	if len(w.Forecast.Forecastday) == 0 {
		return nil
	}
	hours := w.Forecast.Forecastday[0].Hour
	points := make([]models.SeriesPoint, 0, len(hours))
	for _, h := range hours {
		points = append(points, models.SeriesPoint{
			Time:  clockPart(h.Time),
			Value: timeutil.RoundTemp(value(h)),
		})
	}
	return points
}

func newCurrentView(w models.Weather, title string) CurrentView {
	if title == "" {
		title = fmt.Sprintf("Clima atual - Ultima atualização às %s", w.Current.LastUpdated)
	}
	v := CurrentView{
		Title:         title,
		LocationLine:  fmt.Sprintf("%s - %s - %s", w.Location.Name, w.Location.Region, w.Location.Country),
		Icon:          w.Current.Condition.Icon,
		TempC:         timeutil.RoundTemp(w.Current.TempC),
		ConditionText: w.Current.Condition.Text,
		FeelslikeC:    timeutil.RoundTemp(w.Current.FeelslikeC),
		Humidity:      w.Current.Humidity,
		WindKph:       w.Current.WindKph,
		AirQuality:    airQualityLabel(w.Current.AirQuality.USEPAIndex),
	}
	if len(w.Forecast.Forecastday) > 0 {
		today := w.Forecast.Forecastday[0]
		v.MinC = timeutil.RoundTemp(today.Day.MintempC)
		v.MaxC = timeutil.RoundTemp(today.Day.MaxtempC)
		v.Sun = fmt.Sprintf("%sh - %sh", astroClock(today.Astro.Sunrise), astroClock(today.Astro.Sunset))
	}
	return v
}

// newStrip builds the 7-day strip: the fetched span is 8 days and the first
// (today) belongs to the current panel, not the strip.
func newStrip(w models.Weather) []StripDay {
	days := w.Forecast.Forecastday
	if len(days) <= 1 {
		return nil
	}
	strip := make([]StripDay, 0, len(days)-1)
	for _, d := range days[1:] {
		strip = append(strip, StripDay{
			WeekDay:   ShortWeekday(d.WeekDay),
			Icon:      d.Day.Condition.Icon,
			Condition: d.Day.Condition.Text,
			MinC:      timeutil.RoundTemp(d.Day.MintempC),
			MaxC:      timeutil.RoundTemp(d.Day.MaxtempC),
			DetailURL: fmt.Sprintf("/previsao/%s/%s?dt=%s",
				strconv.FormatFloat(w.Location.Lat, 'f', -1, 64),
				strconv.FormatFloat(w.Location.Lon, 'f', -1, 64),
				d.Date),
		})
	}
	return strip
}

// ShortWeekday renders "segunda-feira" as "Segunda": the part before the
// hyphen, first letter upper-cased.
func ShortWeekday(weekday string) string {
	head := strings.SplitN(weekday, "-", 2)[0]
	if head == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(head)
	return string(unicode.ToUpper(r)) + head[size:]
}

// clockPart extracts "15:04" from an hourly timestamp "2006-01-02 15:04".
func clockPart(ts string) string {
	parts := strings.SplitN(ts, " ", 2)
	if len(parts) == 2 {
		return parts[1]
	}
	return ts
}

func astroClock(s string) string {
	if t, err := timeutil.To24Hour(s); err == nil {
		return t
	}
	// Upstream occasionally reports "No moonrise"/"No sunset"; show it as-is.
	return s
}

func airQualityLabel(index int) string {
	if index < 1 || index > len(airQualityLabels) {
		return ""
	}
	return airQualityLabels[index-1]
}
