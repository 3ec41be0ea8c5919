package motor

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Mock is an in-memory Driver. It records every call and is used when no
// motor hardware is attached and in tests.
type Mock struct {
	mu       sync.Mutex
	left     float64
	right    float64
	calls    []string
	closed   bool
	stops    int
	failWith error
}

var _ Driver = &Mock{}

// NewMock returns a stopped mock driver.
func NewMock() *Mock {
	return &Mock{}
}

// FailWith makes every later call return err.
func (m *Mock) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

func (m *Mock) SetVelocity(side Side, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}

	switch side {
	case Left:
		m.left = value
	case Right:
		m.right = value
	}
	m.calls = append(m.calls, "set:"+string(side))
	logrus.WithFields(logrus.Fields{"side": side, "value": value}).Trace("mock motor velocity")
	return nil
}

func (m *Mock) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.left, m.right = 0, 0
	m.stops++
	m.calls = append(m.calls, "stop")
	return m.failWith
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.left, m.right = 0, 0
	m.closed = true
	m.calls = append(m.calls, "close")
	return nil
}

// Velocities returns the current left and right outputs.
func (m *Mock) Velocities() (float64, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.left, m.right
}

// Stops returns how many times Stop was called.
func (m *Mock) Stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

// Calls returns the call log.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
