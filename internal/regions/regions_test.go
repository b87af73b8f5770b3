package regions

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/i474232898/kma-forecast/internal/forecast"
)

func TestDefaultTableProjectsToKnownCells(t *testing.T) {
	table := Default()
	tests := map[string]forecast.GridCell{
		"서울": {NX: 60, NY: 127},
		"춘천": {NX: 73, NY: 134},
		"노원": {NX: 61, NY: 129},
		"부산": {NX: 98, NY: 76},
		"제주": {NX: 53, NY: 38},
	}
	for name, want := range tests {
		r, err := table.Get(name)
		if err != nil {
			t.Fatalf("Get(%q): %v", name, err)
		}
		got, err := forecast.Project(r.Coordinate())
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got != want {
			t.Fatalf("%s: expected %s, got %s", name, want, got)
		}
	}
}

func TestLookup(t *testing.T) {
	table := Default()
	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"춘천 3시간 후 날씨 어때?", "춘천", true},
		{"노원구 내일 아침", "노원", true},
		{"What's the weather in Busan tomorrow?", "부산", true},
		{"서울 노원구 날씨", "서울", true},
		{"날씨 어때?", "", false},
	}
	for _, tt := range tests {
		r, ok := table.Lookup(tt.text)
		if ok != tt.wantOK {
			t.Fatalf("Lookup(%q): expected ok=%v, got %v", tt.text, tt.wantOK, ok)
		}
		if ok && r.Name != tt.want {
			t.Fatalf("Lookup(%q): expected %s, got %s", tt.text, tt.want, r.Name)
		}
	}
}

func TestGetUnknownRegion(t *testing.T) {
	_, err := Default().Get("pyongyang")
	if !errors.Is(err, ErrUnknownRegion) {
		t.Fatalf("expected ErrUnknownRegion, got %v", err)
	}
}

func TestNearest(t *testing.T) {
	table := Default()

	r, km := table.Nearest(forecast.Coordinate{Latitude: 37.87, Longitude: 127.74})
	if r.Name != "춘천" {
		t.Fatalf("expected 춘천, got %s", r.Name)
	}
	if km > 5 {
		t.Fatalf("expected under 5 km, got %.2f", km)
	}

	// Haeundae is closer to Busan's reference point than to Ulsan's.
	if r, _ := table.Nearest(forecast.Coordinate{Latitude: 35.1631, Longitude: 129.1635}); r.Name != "부산" {
		t.Fatalf("expected 부산, got %s", r.Name)
	}
}

func TestParseRejectsBadTables(t *testing.T) {
	tests := map[string]string{
		"empty":        "[]",
		"no name":      "- latitude: 37.5\n  longitude: 127\n",
		"duplicate":    "- {name: a, latitude: 37.5, longitude: 127}\n- {name: A, latitude: 37.5, longitude: 127}\n",
		"off the grid": "- {name: tokyo, latitude: 35.6762, longitude: 139.6503}\n",
		"not yaml":     "{",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.yaml")
	doc := "- name: 원주\n  aliases: [wonju]\n  latitude: 37.3422\n  longitude: 127.9202\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r, ok := table.Lookup("Wonju tonight"); !ok || r.Name != "원주" {
		t.Fatalf("expected 원주, got %+v (ok=%v)", r, ok)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
