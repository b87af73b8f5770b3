package providers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/kma-forecast/internal/forecast"
)

var errNoAddress = errors.New("geocoder returned no address")

// The geocoder library keeps its key in a package variable and takes no context.
var (
	geocoderMu     sync.Mutex
	geocode        = geocoder.Geocoding
	reverseGeocode = geocoder.GeocodingReverse
)

// GoogleGeocoder resolves Korean place names through the Google Geocoding API.
type GoogleGeocoder struct {
	apiKey  string
	country string
}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{apiKey: apiKey, country: "South Korea"}
}

// CityToCoordinates geocodes a free-form place name.
func (g *GoogleGeocoder) CityToCoordinates(ctx context.Context, name string) (forecast.Coordinate, error) {
	type result struct {
		loc geocoder.Location
		err error
	}
	ch := make(chan result, 1)
	go func() {
		geocoderMu.Lock()
		defer geocoderMu.Unlock()
		geocoder.ApiKey = g.apiKey
		loc, err := geocode(geocoder.Address{City: name, Country: g.country})
		ch <- result{loc, err}
	}()

	select {
	case <-ctx.Done():
		return forecast.Coordinate{}, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return forecast.Coordinate{}, fmt.Errorf("geocode %q: %w", name, r.err)
		}
		return forecast.Coordinate{Latitude: r.loc.Latitude, Longitude: r.loc.Longitude}, nil
	}
}

// CoordinatesToCity returns the most specific locality name for c.
func (g *GoogleGeocoder) CoordinatesToCity(ctx context.Context, c forecast.Coordinate) (string, error) {
	type result struct {
		addrs []geocoder.Address
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		geocoderMu.Lock()
		defer geocoderMu.Unlock()
		geocoder.ApiKey = g.apiKey
		addrs, err := reverseGeocode(geocoder.Location{Latitude: c.Latitude, Longitude: c.Longitude})
		ch <- result{addrs, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return "", fmt.Errorf("reverse geocode %s: %w", c.String(), r.err)
		}
		for _, a := range r.addrs {
			switch {
			case a.City != "":
				return a.City, nil
			case a.District != "":
				return a.District, nil
			case a.FormattedAddress != "":
				return a.FormattedAddress, nil
			}
		}
		return "", errNoAddress
	}
}
