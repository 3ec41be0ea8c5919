package daemon

import (
	"sync"
	"time"
)

// TimeSeriesRecorder records the times of the last N control ticks.
type TimeSeriesRecorder struct {
	MaxRecordCount int
	LastTickTimes  []time.Time
	mu             *sync.Mutex
}

// NewTimeSeriesRecorder returns a new TimeSeriesRecorder.
func NewTimeSeriesRecorder(maxRecordCount int) *TimeSeriesRecorder {
	return &TimeSeriesRecorder{
		MaxRecordCount: maxRecordCount,
		LastTickTimes:  make([]time.Time, 0),
		mu:             &sync.Mutex{},
	}
}

// AddRecordNow adds a new record with the current time.
func (r *TimeSeriesRecorder) AddRecordNow() {
	r.AddRecord(time.Now())
}

// AddRecord adds a new record.
func (r *TimeSeriesRecorder) AddRecord(t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Strip monotonic clock reading.
	t = t.Round(0)

	if len(r.LastTickTimes) >= r.MaxRecordCount {
		r.LastTickTimes = r.LastTickTimes[1:]
	}
	r.LastTickTimes = append(r.LastTickTimes, t)
}

// ClearRecords clears all records.
func (r *TimeSeriesRecorder) ClearRecords() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.LastTickTimes = make([]time.Time, 0)
}

// GetRecordsIn returns the number of records in the last duration.
func (r *TimeSeriesRecorder) GetRecordsIn(last time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for i := len(r.LastTickTimes) - 1; i >= 0; i-- {
		if time.Since(r.LastTickTimes[i]) > last {
			break
		}
		count++
	}
	return count
}

// Rate returns ticks per second over the records in the last duration.
// Fewer than two records give zero.
func (r *TimeSeriesRecorder) Rate(last time.Duration) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.LastTickTimes)
	if n < 2 {
		return 0
	}

	newest := r.LastTickTimes[n-1]
	if time.Since(newest) > last {
		return 0
	}

	first := n - 1
	for i := n - 2; i >= 0; i-- {
		if time.Since(r.LastTickTimes[i]) > last {
			break
		}
		first = i
	}
	span := newest.Sub(r.LastTickTimes[first])
	if first == n-1 || span <= 0 {
		return 0
	}
	return float64(n-1-first) / span.Seconds()
}

// GetLastRecord returns the last record.
func (r *TimeSeriesRecorder) GetLastRecord() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.LastTickTimes) == 0 {
		return time.Time{}
	}

	return r.LastTickTimes[len(r.LastTickTimes)-1]
}
