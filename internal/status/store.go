// Package status keeps a mutex-guarded snapshot of the monitor's latest
// cycle for the read-only HTTP API. The loop writes, the API reads; the
// loop itself stays single-threaded.
package status

import (
	"sync"
	"time"

	"github.com/arunkv/aqi-monitor/internal/domain"
)

type Snapshot struct {
	Mode         string          `json:"mode"`
	StartedAt    time.Time       `json:"started_at"`
	Cycles       int64           `json:"cycles"`
	ReadFailures int64           `json:"read_failures"`
	LastAQI      *float64        `json:"last_aqi,omitempty"`
	LastReading  *domain.Reading `json:"last_reading,omitempty"`
}

type Store struct {
	mu   sync.RWMutex
	snap Snapshot
}

func New(mode domain.Mode) *Store {
	return &Store{snap: Snapshot{
		Mode:      mode.String(),
		StartedAt: time.Now().UTC(),
	}}
}

// RecordReading notes a completed cycle that produced a reading.
func (s *Store) RecordReading(r domain.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Cycles++
	rr := r
	s.snap.LastReading = &rr
	aqi := r.AQI
	s.snap.LastAQI = &aqi
}

// RecordReadFailure notes a cycle whose sensor read failed.
func (s *Store) RecordReadFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Cycles++
	s.snap.ReadFailures++
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.snap
	if s.snap.LastReading != nil {
		r := *s.snap.LastReading
		out.LastReading = &r
	}
	if s.snap.LastAQI != nil {
		a := *s.snap.LastAQI
		out.LastAQI = &a
	}
	return out
}
