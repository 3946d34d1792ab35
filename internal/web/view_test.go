package web

import (
	"testing"

	"github.com/climadados/clima-dashboard/internal/models"
)

func TestShortWeekday(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"segunda-feira", "Segunda"},
		{"terça-feira", "Terça"},
		{"sábado", "Sábado"},
		{"domingo", "Domingo"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ShortWeekday(tt.in); got != tt.want {
			t.Errorf("ShortWeekday(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewHomeView_NoWeather(t *testing.T) {
	v := NewHomeView(models.SearchState{Query: "sao", Error: "msg", Loading: true})
	if v.Weather != nil || v.Strip != nil {
		t.Errorf("view carries weather without a fetch: %+v", v)
	}
	if v.Query != "sao" || v.Error != "msg" || !v.Loading {
		t.Errorf("view = %+v", v)
	}
}

func TestNewHomeView_StripSkipsToday(t *testing.T) {
	w := testWeather()
	v := NewHomeView(models.SearchState{Weather: &w})

	if v.Weather == nil {
		t.Fatal("missing current panel")
	}
	if v.Weather.TempC != 28 {
		t.Errorf("TempC = %d, want 28", v.Weather.TempC)
	}
	if v.Weather.AirQuality != "Moderado" {
		t.Errorf("AirQuality = %q", v.Weather.AirQuality)
	}
	if v.Weather.Sun != "06:45h - 18:12h" {
		t.Errorf("Sun = %q", v.Weather.Sun)
	}

	if len(v.Strip) != 1 {
		t.Fatalf("strip length = %d, want 1", len(v.Strip))
	}
	d := v.Strip[0]
	if d.WeekDay != "Terça" {
		t.Errorf("WeekDay = %q", d.WeekDay)
	}
	if d.DetailURL != "/previsao/-23.55/-46.63?dt=2024-03-05" {
		t.Errorf("DetailURL = %q", d.DetailURL)
	}
	if d.MinC != 18 || d.MaxC != 26 {
		t.Errorf("MinC/MaxC = %d/%d", d.MinC, d.MaxC)
	}
}

func TestNewDetailView(t *testing.T) {
	v := NewDetailView(testWeather())

	want := "Clima do dia 04/03/2024 - Ultima atualização em: 04/03/2024 09:45h"
	if v.Weather.Title != want {
		t.Errorf("Title = %q, want %q", v.Weather.Title, want)
	}
	if v.BackURL != "/?q=-23.55,-46.63" {
		t.Errorf("BackURL = %q", v.BackURL)
	}

	if len(v.TempSeries) != 2 || len(v.HumiditySeries) != 2 {
		t.Fatalf("series lengths = %d/%d, want 2/2", len(v.TempSeries), len(v.HumiditySeries))
	}
	if p := v.TempSeries[0]; p.Time != "00:00" || p.Value != 20 {
		t.Errorf("TempSeries[0] = %+v", p)
	}
	if p := v.TempSeries[1]; p.Time != "01:00" || p.Value != 22 {
		t.Errorf("TempSeries[1] = %+v", p)
	}
	if p := v.HumiditySeries[0]; p.Value != 80 {
		t.Errorf("HumiditySeries[0] = %+v", p)
	}
}

func TestHourlySeries_NoForecastDays(t *testing.T) {
	if got := HourlySeries(models.Weather{}, func(h models.Hour) float64 { return h.TempC }); got != nil {
		t.Errorf("HourlySeries() = %v, want nil", got)
	}
}

func TestAirQualityLabel(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{1, "Boa"},
		{3, "Alerta para grupo sensível"},
		{6, "Perigoso"},
		{0, ""},
		{7, ""},
	}
	for _, tt := range tests {
		if got := airQualityLabel(tt.index); got != tt.want {
			t.Errorf("airQualityLabel(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}
