package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                  sync.Mutex
	teamsGenerated      map[string]int
	schedulesGenerated  map[string]int
	resultsRecorded     int
	conflicts           int
	publishFailed       int
	generationDurations []float64
	startupTime         float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		teamsGenerated:      make(map[string]int),
		schedulesGenerated:  make(map[string]int),
		generationDurations: make([]float64, 0),
	}
}

func (m *Mock) IncTeamsGenerated(strategy string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teamsGenerated[strategy]++
}

func (m *Mock) IncSchedulesGenerated(format string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedulesGenerated[format]++
}

func (m *Mock) IncResultsRecorded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resultsRecorded++
}

func (m *Mock) IncConflicts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts++
}

func (m *Mock) IncPublishFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishFailed++
}

func (m *Mock) ObserveGenerationDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generationDurations = append(m.generationDurations, duration)
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// TeamsGenerated returns how often IncTeamsGenerated was called with strategy.
func (m *Mock) TeamsGenerated(strategy string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.teamsGenerated[strategy]
}

// SchedulesGenerated returns how often IncSchedulesGenerated was called with format.
func (m *Mock) SchedulesGenerated(format string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.schedulesGenerated[format]
}

// ResultsRecorded returns the number of times IncResultsRecorded was called.
func (m *Mock) ResultsRecorded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resultsRecorded
}

// Conflicts returns the number of times IncConflicts was called.
func (m *Mock) Conflicts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conflicts
}

// PublishFailed returns the number of times IncPublishFailed was called.
func (m *Mock) PublishFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.publishFailed
}

// GenerationDurations returns every observed generation duration.
func (m *Mock) GenerationDurations() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.generationDurations...)
}
