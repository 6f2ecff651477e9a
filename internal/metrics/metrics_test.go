package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CommentCreated()
	m.CommentCreated()
	m.CommentModerated("hide")
	m.EventDelivered("new_comment", 3)
	m.EventDelivered("new_comment", 0)
	m.EventDropped("new_comment")
	m.ClientConnected("websocket")
	m.ClientConnected("websocket")
	m.ClientDisconnected("websocket")

	assert.InDelta(t, 2, testutil.ToFloat64(m.CommentsCreated), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Moderations.WithLabelValues("hide")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.EventsDelivered.WithLabelValues("new_comment")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.EventsDropped.WithLabelValues("new_comment")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ClientsConnected.WithLabelValues("websocket")), 0)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.CommentCreated()
		m.InstanceCreated()
		m.EventDelivered("x", 1)
		m.ClientConnected("sse")
		m.RegisterStoreStats(func() (int, int) { return 0, 0 })
	})
}

func TestMetrics_HandlerServesStoreStats(t *testing.T) {
	m := New(NewRegistry())
	m.RegisterStoreStats(func() (int, int) { return 2, 7 })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "easycomment_store_instances 2")
	assert.Contains(t, string(body), "easycomment_store_comments 7")
	assert.Contains(t, string(body), "go_goroutines")
}
