package daemon

import (
	"math"
	"sync"
	"testing"
	"time"
)

func TestTimeSeriesRecorder_GetRecordsIn(t *testing.T) {
	now := time.Now()
	r := &TimeSeriesRecorder{
		MaxRecordCount: 10,
		LastTickTimes: []time.Time{
			now.Add(-5 * time.Second),
			now.Add(-3 * time.Second),
			now.Add(-2 * time.Second),
			now.Add(-1 * time.Second),
		},
		mu: &sync.Mutex{},
	}

	tests := []struct {
		last time.Duration
		want int
	}{
		{time.Second + 500*time.Millisecond, 1},
		{4 * time.Second, 3},
		{time.Minute, 4},
		{100 * time.Millisecond, 0},
	}
	for _, tt := range tests {
		if got := r.GetRecordsIn(tt.last); got != tt.want {
			t.Errorf("GetRecordsIn(%s) = %d, want %d", tt.last, got, tt.want)
		}
	}
}

func TestTimeSeriesRecorder_Rate(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name  string
		times []time.Time
		last  time.Duration
		want  float64
	}{
		{
			name:  "empty",
			times: nil,
			last:  time.Minute,
			want:  0,
		},
		{
			name:  "single",
			times: []time.Time{now},
			last:  time.Minute,
			want:  0,
		},
		{
			name: "ten per second",
			times: []time.Time{
				now.Add(-400 * time.Millisecond),
				now.Add(-300 * time.Millisecond),
				now.Add(-200 * time.Millisecond),
				now.Add(-100 * time.Millisecond),
				now,
			},
			last: time.Minute,
			want: 10,
		},
		{
			name: "stale",
			times: []time.Time{
				now.Add(-2 * time.Minute),
				now.Add(-time.Minute - time.Second),
			},
			last: time.Minute,
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &TimeSeriesRecorder{MaxRecordCount: 10, LastTickTimes: tt.times, mu: &sync.Mutex{}}
			if got := r.Rate(tt.last); math.Abs(got-tt.want) > 0.01 {
				t.Errorf("Rate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimeSeriesRecorder_Bounded(t *testing.T) {
	r := NewTimeSeriesRecorder(3)
	for i := 0; i < 5; i++ {
		r.AddRecordNow()
	}
	if got := len(r.LastTickTimes); got != 3 {
		t.Fatalf("kept %d records, want 3", got)
	}
	if r.GetLastRecord().IsZero() {
		t.Fatalf("last record should be set")
	}
	r.ClearRecords()
	if !r.GetLastRecord().IsZero() {
		t.Fatalf("records not cleared")
	}
}
