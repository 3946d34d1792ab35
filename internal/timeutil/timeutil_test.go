package timeutil

import "testing"

func TestWeekdayLabel(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		want    string
		wantErr bool
	}{
		{name: "monday", date: "2024-03-04", want: "segunda-feira"},
		{name: "sunday", date: "2024-03-03", want: "domingo"},
		{name: "saturday", date: "2024-03-09", want: "sábado"},
		{name: "wednesday", date: "2024-05-01", want: "quarta-feira"},
		{name: "leap day", date: "2024-02-29", want: "quinta-feira"},
		{name: "malformed", date: "04/03/2024", wantErr: true},
		{name: "empty", date: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WeekdayLabel(tt.date)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("WeekdayLabel(%q) expected error, got %q", tt.date, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("WeekdayLabel(%q) error = %v", tt.date, err)
			}
			if got != tt.want {
				t.Errorf("WeekdayLabel(%q) = %q, want %q", tt.date, got, tt.want)
			}
		})
	}
}

func TestTo24Hour(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "morning", in: "06:45 AM", want: "06:45"},
		{name: "afternoon", in: "05:12 PM", want: "17:12"},
		{name: "midnight", in: "12:00 AM", want: "00:00"},
		{name: "noon", in: "12:00 PM", want: "12:00"},
		{name: "already 24h", in: "17:12", wantErr: true},
		{name: "garbage", in: "no moonrise", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := To24Hour(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("To24Hour(%q) expected error, got %q", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("To24Hour(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("To24Hour(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRoundTemp(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{21.4, 21},
		{21.5, 22},
		{21.6, 22},
		{-2.5, -2},
		{-2.6, -3},
		{0, 0},
	}

	for _, tt := range tests {
		if got := RoundTemp(tt.in); got != tt.want {
			t.Errorf("RoundTemp(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	got, err := FormatDate("2024-05-01")
	if err != nil {
		t.Fatalf("FormatDate() error = %v", err)
	}
	if got != "01/05/2024" {
		t.Errorf("FormatDate() = %q, want %q", got, "01/05/2024")
	}

	if _, err := FormatDate("2024-13-01"); err == nil {
		t.Errorf("FormatDate() expected error for invalid month")
	}
}

func TestFormatLastUpdated(t *testing.T) {
	got, err := FormatLastUpdated("2024-05-01 13:45")
	if err != nil {
		t.Fatalf("FormatLastUpdated() error = %v", err)
	}
	if got != "01/05/2024 13:45h" {
		t.Errorf("FormatLastUpdated() = %q, want %q", got, "01/05/2024 13:45h")
	}

	if _, err := FormatLastUpdated("2024-05-01"); err == nil {
		t.Errorf("FormatLastUpdated() expected error for date without time")
	}
}
