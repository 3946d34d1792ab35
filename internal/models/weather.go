package models

// City is one candidate returned by the city search endpoint. Candidates are
// ephemeral: the list is replaced wholesale on every lookup and never persisted.
type City struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Region string  `json:"region"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

type Condition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
}

type AirQuality struct {
	USEPAIndex int `json:"us-epa-index"`
}

// Current carries the conditions shared by the current panel and each hourly sample.
type Current struct {
	TempC       float64    `json:"temp_c"`
	FeelslikeC  float64    `json:"feelslike_c"`
	Humidity    int        `json:"humidity"`
	WindKph     float64    `json:"wind_kph"`
	LastUpdated string     `json:"last_updated"`
	Condition   Condition  `json:"condition"`
	AirQuality  AirQuality `json:"air_quality"`
}

type Location struct {
	Name      string  `json:"name"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Localtime string  `json:"localtime"`
}

type Astro struct {
	Sunrise  string `json:"sunrise"`
	Sunset   string `json:"sunset"`
	Moonrise string `json:"moonrise"`
	Moonset  string `json:"moonset"`
}

type Day struct {
	MintempC          float64   `json:"mintemp_c"`
	MaxtempC          float64   `json:"maxtemp_c"`
	AvgtempC          float64   `json:"avgtemp_c"`
	Avghumidity       float64   `json:"avghumidity"`
	AvgvisKm          float64   `json:"avgvis_km"`
	DailyChanceOfRain int       `json:"daily_chance_of_rain"`
	Condition         Condition `json:"condition"`
}

// Hour is one hourly sample. It carries the same shape as Current plus the
// sample timestamp ("2006-01-02 15:04") and rain probability.
type Hour struct {
	Current
	Time         string `json:"time"`
	ChanceOfRain int    `json:"chance_of_rain"`
}

// ForecastDay is one day of forecast. WeekDay is always recomputed from Date on
// receipt; any weekday hint in the upstream payload is ignored.
type ForecastDay struct {
	Date    string `json:"date"`
	WeekDay string `json:"weekDay"`
	Astro   Astro  `json:"astro"`
	Day     Day    `json:"day"`
	Hour    []Hour `json:"hour"`
}

type Forecast struct {
	Forecastday []ForecastDay `json:"forecastday"`
}

// Weather is the full snapshot for one location at one point in time: current
// conditions plus the forecast span that was requested (8 days from the home
// flow, a single anchored day from the detail flow).
type Weather struct {
	Location Location `json:"location"`
	Current  Current  `json:"current"`
	Forecast Forecast `json:"forecast"`
}

// SearchState is the home page state owned by the search controller. Presentation
// receives it by value and never mutates it.
type SearchState struct {
	Query      string
	Candidates []City
	Loading    bool
	Error      string
	Weather    *Weather
}

// SeriesPoint is one sample of a detail-view chart series, labeled with the
// clock portion of the hourly timestamp.
type SeriesPoint struct {
	Time  string `json:"time"`
	Value int    `json:"value"`
}
