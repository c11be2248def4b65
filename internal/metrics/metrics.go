// Package metrics keeps in-process counters for the collection
// pipeline, exposed as JSON by the monitoring endpoints.
package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	ArticlesFetched    int64
	VideosFetched      int64
	ArticlesFiltered   int64 // dropped by period boundary
	DuplicatesFiltered int64
	LLMCalls           int64
	LLMFailures        int64
	EnrichmentFallback int64 // tasks that degraded to the typed-empty result
	VideosSkipped      int64 // already owned by another period
	RowsWritten        int64

	// Timings
	LastRunDuration time.Duration

	// Status
	LastRunTime   time.Time
	LastPeriodID  string
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) AddArticlesFetched(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesFetched += int64(n)
}

func (m *Metrics) AddVideosFetched(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VideosFetched += int64(n)
}

func (m *Metrics) AddArticlesFiltered(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesFiltered += int64(n)
}

func (m *Metrics) AddDuplicatesFiltered(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered += int64(n)
}

func (m *Metrics) IncrementLLMCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LLMCalls++
}

func (m *Metrics) IncrementLLMFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LLMFailures++
}

func (m *Metrics) IncrementEnrichmentFallback() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EnrichmentFallback++
}

func (m *Metrics) AddVideosSkipped(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VideosSkipped += int64(n)
}

func (m *Metrics) AddRowsWritten(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RowsWritten += int64(n)
}

func (m *Metrics) SetLastRun(periodID string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.LastPeriodID = periodID
	m.LastRunDuration = duration
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"articles_fetched":     m.ArticlesFetched,
		"videos_fetched":       m.VideosFetched,
		"articles_filtered":    m.ArticlesFiltered,
		"duplicates_filtered":  m.DuplicatesFiltered,
		"llm_calls":            m.LLMCalls,
		"llm_failures":         m.LLMFailures,
		"enrichment_fallbacks": m.EnrichmentFallback,
		"videos_skipped":       m.VideosSkipped,
		"rows_written":         m.RowsWritten,
		"last_run_duration_ms": m.LastRunDuration.Milliseconds(),
		"last_run_time":        m.LastRunTime.Format(time.RFC3339),
		"last_period_id":       m.LastPeriodID,
		"last_error_time":      m.LastErrorTime.Format(time.RFC3339),
		"last_error":           m.LastError,
		"is_healthy":           m.IsHealthy,
	}
}
