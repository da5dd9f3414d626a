package stats

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// expvar names are process-wide, so every check shares one updater.
func TestStatsUpdater(t *testing.T) {
	mux := http.NewServeMux()
	su := NewStatsUpdater(mux)
	require.NotNil(t, su, "expected StatsUpdater to be non-nil")
	assert.NotNil(t, su.updates, "expected updates channel to be initialized")

	handler, pattern := mux.Handler(&http.Request{URL: &url.URL{Path: "/debug/vars"}, Method: http.MethodGet})
	assert.NotNil(t, handler, "expected handler for /debug/vars to be set")
	assert.Equal(t, "GET /debug/vars", pattern, "expected handler to be registered for GET method on /debug/vars")

	readVars := func() map[string]any {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/debug/vars", nil))

		var body map[string]any
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			return nil
		}
		return body
	}

	t.Run("uptime is published", func(t *testing.T) {
		body := readVars()
		require.NotNil(t, body, "expected a JSON object")
		assert.Contains(t, body, "Uptime")
	})

	t.Run("counters settle", func(t *testing.T) {
		su.RegisterMetric(NumActiveRooms)
		su.Run()
		defer su.Stop()

		su.Incr(NumActiveRooms)
		su.Incr(NumActiveRooms)
		su.Decr(NumActiveRooms)

		assert.Eventually(t, func() bool {
			return readVars()[NumActiveRooms] == float64(1)
		}, time.Second, 10*time.Millisecond, "expected NumActiveRooms to settle at 1")
	})

	t.Run("funcs are evaluated on read", func(t *testing.T) {
		occupancy := map[string]int{"lobby": 2}
		su.RegisterFunc(RoomOccupancy, func() any { return occupancy })

		assert.Equal(t, map[string]any{"lobby": float64(2)}, readVars()[RoomOccupancy])
	})
}
