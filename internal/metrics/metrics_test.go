package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveMutation("create", ResultOK)
		m.SetRecords(3)
		m.SessionOpened()
		m.SessionClosed()
	})
	assert.Nil(t, m.Registry())
}

func TestStoreCollectors(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveMutation("create", ResultOK)
	m.ObserveMutation("create", ResultOK)
	m.ObserveMutation("update", ResultInvalid)
	m.SetRecords(5)
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.storeMutations.WithLabelValues("create", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeMutations.WithLabelValues("update", ResultInvalid)))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.storeRecords))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.liveSessions))
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/employees/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/employees/"+id, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/employees/:id", "200")))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "employee_directory_http_requests_total"))
	assert.True(t, strings.Contains(body, "employee_directory_store_records"))
}
