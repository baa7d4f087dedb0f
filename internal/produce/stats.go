package produce

import (
	"sync"
	"time"
)

// maxRecentErrors bounds the error log; the newest entries are kept.
const maxRecentErrors = 50

// ErrorRecord is one failed-send entry in the statistics error log.
type ErrorRecord struct {
	Timestamp time.Time
	Error     string
}

// Stats aggregates delivery counters for one Publisher. Only the two
// completion callbacks mutate state; sends may complete concurrently, so
// the counter block is guarded by a mutex.
type Stats struct {
	topics []string

	mu             sync.Mutex
	messagesSent   int64
	messagesFailed int64
	bytesSent      int64
	lastSendTime   time.Time
	recentErrors   []ErrorRecord
}

// NewStats creates an aggregator that reports the given stream names in
// its snapshots.
func NewStats(topics []string) *Stats {
	return &Stats{topics: topics}
}

// OnSuccess records one acknowledged send.
func (s *Stats) OnSuccess(bytes int, at time.Time) {
	s.mu.Lock()
	s.messagesSent++
	s.bytesSent += int64(bytes)
	s.lastSendTime = at
	s.mu.Unlock()
}

// OnError records one failed send.
func (s *Stats) OnError(err error, at time.Time) {
	s.mu.Lock()
	s.messagesFailed++
	s.recentErrors = append(s.recentErrors, ErrorRecord{Timestamp: at, Error: err.Error()})
	if len(s.recentErrors) > maxRecentErrors {
		s.recentErrors = s.recentErrors[len(s.recentErrors)-maxRecentErrors:]
	}
	s.mu.Unlock()
}

// Snapshot is a read-only copy of the aggregator state.
type Snapshot struct {
	MessagesSent   int64
	MessagesFailed int64
	BytesSent      int64
	LastSendTime   time.Time
	RecentErrors   []ErrorRecord
	Topics         []string
}

// Snapshot returns a consistent copy of the counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	errs := make([]ErrorRecord, len(s.recentErrors))
	copy(errs, s.recentErrors)
	topics := make([]string, len(s.topics))
	copy(topics, s.topics)
	return Snapshot{
		MessagesSent:   s.messagesSent,
		MessagesFailed: s.messagesFailed,
		BytesSent:      s.bytesSent,
		LastSendTime:   s.lastSendTime,
		RecentErrors:   errs,
		Topics:         topics,
	}
}
