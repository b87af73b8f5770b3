package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/kma-forecast/internal/weather"
)

var (
	// ErrNotFound is returned when no answer is stored for a given location.
	ErrNotFound = errors.New("no weather answers for location")
)

// AnswerHistory holds a time-ordered list of answers for a location.
type AnswerHistory struct {
	Answers []weather.Answer
}

// MemoryStore is a concurrency-safe in-memory implementation of a weather store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location key, value: history
	data map[string]*AnswerHistory

	// retention configuration
	maxHistory int           // max number of answers per location
	maxAge     time.Duration // optional max age, measured on ResolvedAt
	now        func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*AnswerHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveAnswer inserts an answer in ResolvedAt order and enforces retention.
func (s *MemoryStore) SaveAnswer(loc weather.Location, answer weather.Answer) {
	key := loc.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &AnswerHistory{}
		s.data[key] = history
	}

	// Answers usually arrive in order; walk back for the rare late one.
	i := len(history.Answers)
	for i > 0 && history.Answers[i-1].ResolvedAt.After(answer.ResolvedAt) {
		i--
	}
	history.Answers = append(history.Answers, weather.Answer{})
	copy(history.Answers[i+1:], history.Answers[i:])
	history.Answers[i] = answer

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Answers) > s.maxHistory {
		over := len(history.Answers) - s.maxHistory
		history.Answers = history.Answers[over:]
	}

	// Enforce retention by age. The newest answer is always kept.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Answers)-1; i++ {
			if !history.Answers[i].ResolvedAt.Before(cutoff) {
				break
			}
		}
		history.Answers = history.Answers[i:]
	}
}

// GetLatest returns the most recent answer for a location.
func (s *MemoryStore) GetLatest(loc weather.Location) (weather.Answer, error) {
	key := loc.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Answers) == 0 {
		return weather.Answer{}, ErrNotFound
	}
	return history.Answers[len(history.Answers)-1], nil
}

// GetRange returns all answers for a location resolved between from and to (inclusive).
func (s *MemoryStore) GetRange(loc weather.Location, from, to time.Time) ([]weather.Answer, error) {
	key := loc.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Answers) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.Answer
	for _, a := range history.Answers {
		if !a.ResolvedAt.Before(from) && !a.ResolvedAt.After(to) {
			result = append(result, a)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
