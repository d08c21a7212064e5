package app

import (
	"time"

	"github.com/felixgeelhaar/plugmirror/internal/domain/mirror"
)

// Summary reports what a run did. A failed run still returns the counts up
// to the failure.
type Summary struct {
	RunID  string
	Phase  Phase
	Policy mirror.Policy
	// Output is the manifest path, empty when writing to a stream.
	Output string

	Plugins   int
	Records   int
	CacheHits int
	Hashed    int
	Broken    int
	Skipped   int

	// Err is the failure that ended the run, nil on success.
	Err error

	// BrokenRecords lists the artifacts written with the broken marker.
	BrokenRecords []mirror.Record

	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns the wall time of the run.
func (s *Summary) Duration() time.Duration {
	if s.StartedAt.IsZero() || s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Succeeded reports whether the manifest was completed.
func (s *Summary) Succeeded() bool {
	return s.Phase == PhaseCompleted
}

func (s *Summary) count(res mirror.Resolution) {
	switch res.Effect {
	case mirror.EffectCacheHit:
		s.CacheHits++
	case mirror.EffectHashed:
		s.Hashed++
	case mirror.EffectBroken:
		s.Broken++
		s.BrokenRecords = append(s.BrokenRecords, res.Record)
	}
}
