package stats

import "github.com/stretchr/testify/mock"

type MockStatsUpdater struct {
	mock.Mock
}

// NewMockStatsUpdater returns a mock that accepts any call. Tests asserting
// specific updates set up a MockStatsUpdater themselves.
func NewMockStatsUpdater() *MockStatsUpdater {
	su := &MockStatsUpdater{}
	su.On("Incr", mock.Anything).Maybe()
	su.On("Decr", mock.Anything).Maybe()
	su.On("RegisterMetric", mock.Anything).Maybe()
	su.On("RegisterFunc", mock.Anything, mock.Anything).Maybe()
	su.On("Run").Maybe()
	return su
}

func (m *MockStatsUpdater) Incr(name string) {
	m.Called(name)
}

func (m *MockStatsUpdater) Decr(name string) {
	m.Called(name)
}

func (m *MockStatsUpdater) RegisterMetric(name string) {
	m.Called(name)
}

func (m *MockStatsUpdater) RegisterFunc(name string, fn func() any) {
	m.Called(name, fn)
}

func (m *MockStatsUpdater) Run() {
	m.Called()
}
