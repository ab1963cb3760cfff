package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAlarm(t *testing.T) {
	before := testutil.ToFloat64(alarmsHandled.WithLabelValues("ladder", "sent"))

	RecordAlarm("ladder", "sent", 20*time.Millisecond)
	RecordAlarm("ladder", "sent", 0)

	assert.Equal(t, before+2, testutil.ToFloat64(alarmsHandled.WithLabelValues("ladder", "sent")))
}

func TestRecordAlarmEmptyOutcome(t *testing.T) {
	before := testutil.ToFloat64(alarmsHandled.WithLabelValues("daily", "unknown"))
	RecordAlarm("daily", "", time.Second)
	assert.Equal(t, before+1, testutil.ToFloat64(alarmsHandled.WithLabelValues("daily", "unknown")))
}

func TestRecordNotification(t *testing.T) {
	before := testutil.ToFloat64(notificationsShown.WithLabelValues("daily", "false"))
	RecordNotification("daily", false)
	assert.Equal(t, before+1, testutil.ToFloat64(notificationsShown.WithLabelValues("daily", "false")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	RecordNotification("premium_reminder", true)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "arcana_notifications_shown_total")
}
