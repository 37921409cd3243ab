package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/kind-letters/pkg/core/domain"
)

func TestEventCounters(t *testing.T) {
	m := New()

	m.LetterSubmitted()
	m.LetterSubmitted()
	m.LetterApproved()
	m.LetterRejected()
	m.VisitRecorded()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LettersSubmitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LettersApproved))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LettersRejected))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VisitsRecorded))
}

func TestObserveStats(t *testing.T) {
	m := New()

	m.ObserveStats(&domain.Stats{UniqueVisitors: 7, PendingLetters: 3, ApprovedLetters: 2})

	assert.Equal(t, 3.0, testutil.ToFloat64(m.PendingLetters))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ApprovedLetters))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.UniqueVisitors))
}

func TestRecordHTTPRequest(t *testing.T) {
	m := New()

	m.RecordHTTPRequest("POST", "POST /api/letters/pending", "201", 15*time.Millisecond)
	m.RecordHTTPRequest("POST", "POST /api/letters/pending", "201", 5*time.Millisecond)
	m.RateLimitHit("submit")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "POST /api/letters/pending", "201")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequestDuration))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited.WithLabelValues("submit")))
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()

	a.LetterSubmitted()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.LettersSubmitted))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.LettersSubmitted))
}

func TestHandler(t *testing.T) {
	m := New()
	m.LetterApproved()

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "letters_approved_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
