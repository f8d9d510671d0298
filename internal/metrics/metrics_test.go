package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveHTTP(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/v1/songs", "200"))
	ObserveHTTP("GET", "/v1/songs", http.StatusOK, 12*time.Millisecond)
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/v1/songs", "200"))
	assert.Equal(t, before+1, after)
}

func TestRecordRecalculation(t *testing.T) {
	runs := testutil.ToFloat64(rotationRuns)
	changes := testutil.ToFloat64(rotationChanges)

	RecordRecalculation(3)

	assert.Equal(t, runs+1, testutil.ToFloat64(rotationRuns))
	assert.Equal(t, changes+3, testutil.ToFloat64(rotationChanges))
}

func TestRecordJobRun(t *testing.T) {
	ok := testutil.ToFloat64(jobRuns.WithLabelValues("slot_expirer", "ok"))
	failed := testutil.ToFloat64(jobRuns.WithLabelValues("slot_expirer", "error"))

	RecordJobRun("slot_expirer", nil)
	RecordJobRun("slot_expirer", errors.New("boom"))

	assert.Equal(t, ok+1, testutil.ToFloat64(jobRuns.WithLabelValues("slot_expirer", "ok")))
	assert.Equal(t, failed+1, testutil.ToFloat64(jobRuns.WithLabelValues("slot_expirer", "error")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	RecordAuthz("songs", true)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "worship_authz_decisions_total")
}
