package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/kma-forecast/internal/forecast"
)

func stubGeocoder(t *testing.T,
	fwd func(geocoder.Address) (geocoder.Location, error),
	rev func(geocoder.Location) ([]geocoder.Address, error),
) {
	t.Helper()
	origFwd, origRev := geocode, reverseGeocode
	geocode, reverseGeocode = fwd, rev
	t.Cleanup(func() { geocode, reverseGeocode = origFwd, origRev })
}

func TestGoogleGeocoderCityToCoordinates(t *testing.T) {
	var got geocoder.Address
	stubGeocoder(t, func(a geocoder.Address) (geocoder.Location, error) {
		got = a
		if geocoder.ApiKey != "key" {
			t.Errorf("expected the api key to be set, got %q", geocoder.ApiKey)
		}
		return geocoder.Location{Latitude: 37.3422, Longitude: 127.9202}, nil
	}, nil)

	c, err := NewGoogleGeocoder("key").CityToCoordinates(context.Background(), "원주")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != (forecast.Coordinate{Latitude: 37.3422, Longitude: 127.9202}) {
		t.Fatalf("unexpected coordinate %v", c)
	}
	if got.City != "원주" || got.Country != "South Korea" {
		t.Fatalf("unexpected address %+v", got)
	}
}

func TestGoogleGeocoderCoordinatesToCity(t *testing.T) {
	tests := []struct {
		name    string
		addrs   []geocoder.Address
		err     error
		want    string
		wantErr bool
	}{
		{name: "city", addrs: []geocoder.Address{{City: "Chuncheon-si", District: "Hyoja-dong"}}, want: "Chuncheon-si"},
		{name: "district only", addrs: []geocoder.Address{{District: "Nowon-gu"}}, want: "Nowon-gu"},
		{name: "formatted", addrs: []geocoder.Address{{FormattedAddress: "Jeju"}}, want: "Jeju"},
		{name: "empty", wantErr: true},
		{name: "failure", err: errors.New("over quota"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubGeocoder(t, nil, func(geocoder.Location) ([]geocoder.Address, error) {
				return tt.addrs, tt.err
			})
			got, err := NewGoogleGeocoder("key").CoordinatesToCity(context.Background(), forecast.Coordinate{Latitude: 37.88, Longitude: 127.73})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestGoogleGeocoderHonoursContext(t *testing.T) {
	started, release := make(chan struct{}), make(chan struct{})
	stubGeocoder(t, func(geocoder.Address) (geocoder.Location, error) {
		close(started)
		<-release
		return geocoder.Location{}, nil
	}, nil)
	defer func() {
		<-started
		close(release)
		// wait for the abandoned lookup before the stub is restored
		geocoderMu.Lock()
		geocoderMu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := NewGoogleGeocoder("key").CityToCoordinates(ctx, "원주"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected a deadline error, got %v", err)
	}
}
