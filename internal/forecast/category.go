package forecast

import (
	"strconv"
	"strings"
)

const (
	precipNone = "none"
	amountNone = "no precipitation"
)

var skyStates = map[string]string{
	"1": "clear",
	"3": "partly cloudy",
	"4": "overcast",
}

var precipTypes = map[string]string{
	"0": precipNone,
	"1": "rain",
	"2": "rain/snow",
	"3": "snow",
	"4": "shower",
	"5": "drizzle",
	"6": "drizzle/snow flurry",
	"7": "snow flurry",
}

// Translate renders a raw category value for display. Unknown categories and
// codes fall back to "<category>: <value>" instead of failing.
func Translate(category Category, raw string) string {
	value := strings.TrimSpace(raw)
	switch category {
	case CategorySky:
		if s, ok := skyStates[value]; ok {
			return s
		}
	case CategoryPrecipType:
		if s, ok := precipTypes[value]; ok {
			return s
		}
	case CategoryTemperature, CategoryTemperatureHour, CategoryTemperatureMin, CategoryTemperatureMax:
		return value + "°C"
	case CategoryHumidity:
		return "humidity " + value + "%"
	case CategoryPrecipProb:
		return "precipitation probability " + value + "%"
	case CategoryRainHour, CategoryPrecipAmount:
		if noAmount(value) {
			return amountNone
		}
		return "precipitation " + withUnit(value, "mm")
	case CategorySnowAmount:
		if noAmount(value) || value == "적설없음" {
			return "no snow"
		}
		return "snowfall " + withUnit(value, "cm")
	case CategoryWindSpeed:
		return "wind speed " + value + " m/s"
	case CategoryWindDirection:
		return "wind direction " + value + "°"
	}
	return string(category) + ": " + value
}

// noAmount matches the provider's spellings of "nothing fell".
func noAmount(v string) bool {
	switch v {
	case "", "0", "0.0", "-", "강수없음":
		return true
	}
	return false
}

// withUnit appends unit unless the provider already did ("1.0mm", "1mm 미만").
func withUnit(v, unit string) string {
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return v + unit
	}
	return v
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
