package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedStats map[string]int

func (f fixedStats) Stats() map[string]int { return f }

func TestHistoryCollector(t *testing.T) {
	source := fixedStats{"words": 3, "nodes": 9, "submissions": 7, "rejected": 2, "style": 1}
	collector := NewHistoryCollector(source)

	assert.Equal(t, 5, testutil.CollectAndCount(collector))

	expected := `
# HELP wordrecall_history_words Distinct words in the history
# TYPE wordrecall_history_words gauge
wordrecall_history_words 3
# HELP wordrecall_submissions_total Submissions recorded into the history
# TYPE wordrecall_submissions_total counter
wordrecall_submissions_total 7
`
	require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected),
		"wordrecall_history_words", "wordrecall_submissions_total"))
}

func TestObserveRequest(t *testing.T) {
	m := New(fixedStats{})
	m.ObserveRequest("complete", "ok", time.Millisecond)
	m.ObserveRequest("complete", "ok", time.Millisecond)
	m.ObserveRequest("record", "error", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("complete", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("record", "error")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.ObserveRequest("complete", "ok", 0) })
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New(fixedStats{"words": 4})
	m.ObserveRequest("stats", "ok", 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, body, "wordrecall_history_words 4")
	assert.Contains(t, body, `wordrecall_requests_total{action="stats",outcome="ok"} 1`)
}
