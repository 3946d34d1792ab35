package validation

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ErrQueryEmpty is returned when a query is empty or whitespace-only after trim.
var ErrQueryEmpty = errors.New("query is required")

// ErrQueryTooLong is returned when a query exceeds the maximum length.
var ErrQueryTooLong = errors.New("query too long")

// ErrQueryInvalidChars is returned when a query contains disallowed characters.
var ErrQueryInvalidChars = errors.New("query contains invalid characters")

// ErrInvalidCoordinate is returned for unparseable or out-of-range coordinates.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// ErrInvalidDate is returned for a date not in 2006-01-02 form.
var ErrInvalidDate = errors.New("invalid date")

// SearchQuery trims the input, enforces a maximum length (runes) and restricts
// to letters (Unicode), digits, space, comma, period, hyphen. Commas, periods
// and hyphens keep "lat,lon" pairs valid search input.
func SearchQuery(input string, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	if len(r) == 0 {
		return "", ErrQueryEmpty
	}
	if maxLen > 0 && len(r) > maxLen {
		return "", ErrQueryTooLong
	}
	for _, c := range r {
		if !isAllowedQueryRune(c) {
			return "", ErrQueryInvalidChars
		}
	}
	return s, nil
}

func isAllowedQueryRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', ',', '.', '-':
		return true
	}
	return false
}

// Latitude parses a latitude in degrees, range [-90, 90].
func Latitude(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < -90 || v > 90 {
		return 0, ErrInvalidCoordinate
	}
	return v, nil
}

// Longitude parses a longitude in degrees, range [-180, 180].
func Longitude(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < -180 || v > 180 {
		return 0, ErrInvalidCoordinate
	}
	return v, nil
}

// ForecastDate validates a detail-view target date ("2006-01-02").
func ForecastDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidDate
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", ErrInvalidDate
	}
	return s, nil
}
