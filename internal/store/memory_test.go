package store

import (
	"errors"
	"testing"
	"time"

	"github.com/i474232898/kma-forecast/internal/weather"
)

var chuncheon = weather.Location{Name: "춘천"}

func answerAt(id string, at time.Time) weather.Answer {
	return weather.Answer{ID: id, Location: chuncheon, ResolvedAt: at}
}

func TestMemoryStoreLatestAndRange(t *testing.T) {
	s := NewMemoryStore(0, 0)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	s.SaveAnswer(chuncheon, answerAt("a", base))
	s.SaveAnswer(chuncheon, answerAt("c", base.Add(2*time.Hour)))
	s.SaveAnswer(chuncheon, answerAt("b", base.Add(time.Hour)))

	latest, err := s.GetLatest(chuncheon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest.ID != "c" {
		t.Fatalf("expected latest c, got %s", latest.ID)
	}

	got, err := s.GetRange(chuncheon, base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("expected [a b], got %+v", got)
	}

	if _, err := s.GetRange(chuncheon, base.Add(5*time.Hour), base.Add(6*time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for an empty range, got %v", err)
	}
}

func TestMemoryStoreUnknownLocation(t *testing.T) {
	s := NewMemoryStore(10, time.Hour)
	if _, err := s.GetLatest(weather.Location{Name: "부산"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetRange(weather.Location{Name: "부산"}, time.Time{}, time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreKeyIsNormalised(t *testing.T) {
	s := NewMemoryStore(0, 0)
	s.SaveAnswer(weather.Location{Name: "Seoul"}, answerAt("x", time.Now()))
	if _, err := s.GetLatest(weather.Location{Name: "  SEOUL "}); err != nil {
		t.Fatalf("expected the same key, got %v", err)
	}
}

func TestMemoryStoreRetention(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	byCount := NewMemoryStore(2, 0)
	for i, id := range []string{"a", "b", "c"} {
		byCount.SaveAnswer(chuncheon, answerAt(id, now.Add(time.Duration(i)*time.Minute)))
	}
	got, _ := byCount.GetRange(chuncheon, now.Add(-time.Hour), now.Add(time.Hour))
	if len(got) != 2 || got[0].ID != "b" {
		t.Fatalf("expected [b c], got %+v", got)
	}

	byAge := NewMemoryStore(0, time.Hour)
	byAge.now = func() time.Time { return now }
	byAge.SaveAnswer(chuncheon, answerAt("old", now.Add(-3*time.Hour)))
	byAge.SaveAnswer(chuncheon, answerAt("fresh", now.Add(-10*time.Minute)))
	got, _ = byAge.GetRange(chuncheon, now.Add(-24*time.Hour), now)
	if len(got) != 1 || got[0].ID != "fresh" {
		t.Fatalf("expected only the fresh answer, got %+v", got)
	}

	// a lone stale answer is still the latest known state
	lone := NewMemoryStore(0, time.Hour)
	lone.now = func() time.Time { return now }
	lone.SaveAnswer(chuncheon, answerAt("stale", now.Add(-5*time.Hour)))
	if _, err := lone.GetLatest(chuncheon); err != nil {
		t.Fatalf("expected the stale answer to be kept, got %v", err)
	}
}
