package forecast

import (
	"fmt"
	"strings"
	"time"
)

// KST is the provider's time zone. Korea observes no daylight saving time.
var KST = time.FixedZone("KST", 9*60*60)

const (
	dateLayout = "20060102"
	timeLayout = "1504"
)

// Coordinate is a WGS84 position in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

// Validate reports whether the coordinate lies on the globe.
func (c Coordinate) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return &ProjectionError{Coordinate: c, Reason: "latitude out of range"}
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return &ProjectionError{Coordinate: c, Reason: "longitude out of range"}
	}
	return nil
}

// GridCell is the (nx, ny) index of the provider's 5 km forecast grid.
type GridCell struct {
	NX int `json:"nx"`
	NY int `json:"ny"`
}

func (g GridCell) String() string {
	return fmt.Sprintf("%d,%d", g.NX, g.NY)
}

// Product identifies one of the provider's forecast feeds.
type Product int

const (
	Nowcast Product = iota
	UltraForecast
	ShortTerm
)

func (p Product) String() string {
	switch p {
	case Nowcast:
		return "nowcast"
	case UltraForecast:
		return "ultra"
	case ShortTerm:
		return "short"
	default:
		return fmt.Sprintf("product(%d)", int(p))
	}
}

// MaxOffsetHours is the furthest horizon the product covers.
func (p Product) MaxOffsetHours() int {
	switch p {
	case UltraForecast:
		return 6
	case ShortTerm:
		return 120
	default:
		return 0
	}
}

func (p Product) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Product) UnmarshalText(text []byte) error {
	v, err := ParseProduct(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ParseProduct accepts the names produced by Product.String plus a few aliases.
func ParseProduct(s string) (Product, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nowcast", "ncst", "current":
		return Nowcast, nil
	case "ultra", "ultraforecast", "ultra-short", "fcst":
		return UltraForecast, nil
	case "short", "shortterm", "short-term", "village":
		return ShortTerm, nil
	}
	return 0, fmt.Errorf("unknown forecast product %q", s)
}

// IssueDescriptor identifies one published batch of a product.
type IssueDescriptor struct {
	Product Product `json:"product"`
	Date    string  `json:"baseDate"` // YYYYMMDD
	Time    string  `json:"baseTime"` // HHMM
}

// At returns the nominal issue instant in KST.
func (d IssueDescriptor) At() time.Time {
	t, err := time.ParseInLocation(dateLayout+timeLayout, d.Date+d.Time, KST)
	if err != nil {
		return time.Time{}
	}
	return t
}

func newIssue(p Product, at time.Time) IssueDescriptor {
	at = at.In(KST)
	return IssueDescriptor{
		Product: p,
		Date:    at.Format(dateLayout),
		Time:    at.Format(timeLayout),
	}
}

// Category is a provider-defined record code.
type Category string

const (
	CategoryTemperature     Category = "T1H" // nowcast / ultra temperature
	CategoryTemperatureHour Category = "TMP" // short-term hourly temperature
	CategoryTemperatureMin  Category = "TMN"
	CategoryTemperatureMax  Category = "TMX"
	CategorySky             Category = "SKY"
	CategoryPrecipType      Category = "PTY"
	CategoryPrecipProb      Category = "POP"
	CategoryHumidity        Category = "REH"
	CategoryRainHour        Category = "RN1"
	CategoryPrecipAmount    Category = "PCP"
	CategorySnowAmount      Category = "SNO"
	CategoryWindSpeed       Category = "WSD"
	CategoryWindDirection   Category = "VEC"
)

// ForecastRecord is one raw datum as published by the provider.
type ForecastRecord struct {
	Date     string   `json:"date"` // YYYYMMDD
	Time     string   `json:"time"` // HHMM
	Category Category `json:"category"`
	Value    string   `json:"value"`
}

// At returns the record's timestamp in KST, or ok=false when the date/time fields are malformed.
func (r ForecastRecord) At() (time.Time, bool) {
	t, err := time.ParseInLocation(dateLayout+timeLayout, r.Date+r.Time, KST)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// RequestKind classifies what the user asked for.
type RequestKind string

const (
	KindCurrent       RequestKind = "current"
	KindForecast      RequestKind = "forecast"
	KindComprehensive RequestKind = "comprehensive"
)

// TimeWindowRequest is the parsed intent of a time phrase.
type TimeWindowRequest struct {
	Reference         time.Time   `json:"reference"`
	TargetOffsetHours int         `json:"targetOffsetHours"`
	FullDay           bool        `json:"fullDay"`
	Kind              RequestKind `json:"requestKind"`

	// Ambiguous marks a low-confidence parse: a time phrase was present but
	// could not be completed, so the offset fell back to zero.
	Ambiguous bool   `json:"ambiguous,omitempty"`
	Rule      string `json:"rule,omitempty"`
}

// Target is the hour slot the window points at.
func (w TimeWindowRequest) Target() time.Time {
	return w.Reference.In(KST).Add(time.Duration(w.TargetOffsetHours) * time.Hour).Truncate(time.Hour)
}

// WeatherSnapshot is the rendered view of every category present at one timestamp.
// Absent categories stay nil.
type WeatherSnapshot struct {
	Timestamp         time.Time `json:"timestamp"`
	TemperatureC      *float64  `json:"temperatureC,omitempty"`
	SkyState          *string   `json:"skyState,omitempty"`
	PrecipType        *string   `json:"precipType,omitempty"`
	PrecipProbability *int      `json:"precipProbability,omitempty"`
	Humidity          *int      `json:"humidity,omitempty"`
	WindSpeed         *float64  `json:"windSpeed,omitempty"`
	PrecipAmount      *string   `json:"precipAmount,omitempty"`
	WindDirection     *int      `json:"windDirection,omitempty"`
}

// Summary renders the snapshot as a single human-readable line.
func (s WeatherSnapshot) Summary() string {
	var parts []string
	if s.TemperatureC != nil {
		parts = append(parts, "temperature "+formatNumber(*s.TemperatureC)+"°C")
	}
	if s.SkyState != nil {
		parts = append(parts, *s.SkyState)
	}
	if s.PrecipType != nil && *s.PrecipType != precipNone {
		parts = append(parts, *s.PrecipType)
	}
	if s.PrecipProbability != nil {
		parts = append(parts, fmt.Sprintf("precipitation probability %d%%", *s.PrecipProbability))
	}
	if s.PrecipAmount != nil && *s.PrecipAmount != amountNone {
		parts = append(parts, *s.PrecipAmount)
	}
	if s.Humidity != nil {
		parts = append(parts, fmt.Sprintf("humidity %d%%", *s.Humidity))
	}
	if s.WindSpeed != nil {
		parts = append(parts, "wind speed "+formatNumber(*s.WindSpeed)+" m/s")
	}
	return strings.Join(parts, ", ")
}

// DaySnapshots groups the full-day slots of one calendar date.
type DaySnapshots struct {
	Date      string            `json:"date"`
	Snapshots []WeatherSnapshot `json:"snapshots"`
}
