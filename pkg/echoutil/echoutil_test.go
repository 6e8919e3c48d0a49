package echoutil_test

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus/testutil"
	httptestutil "github.com/scc-digitalhub/digitalhub-go/internal/testutils/http"
	"github.com/scc-digitalhub/digitalhub-go/pkg/echoutil"
	"github.com/scc-digitalhub/digitalhub-go/pkg/metrics"
)

func TestSetLevel(t *testing.T) {
	for name, testcase := range map[string]struct {
		when string
		then log.Lvl
	}{
		"debug":           {when: "debug", then: log.DEBUG},
		"upper case info": {when: "INFO", then: log.INFO},
		"empty is warn":   {when: "", then: log.WARN},
		"error":           {when: "error", then: log.ERROR},
		"off":             {when: "off", then: log.OFF},
		"unknown is warn": {when: "verbose", then: log.WARN},
	} {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			echoutil.SetLevel(e, testcase.when)
			if actual := e.Logger.Level(); actual != testcase.then {
				t.Errorf("unexpected level: %v, expected %v", actual, testcase.then)
			}
		})
	}
}

func TestMetricsHandlerFunc(t *testing.T) {
	e := echo.New()
	route := "/metrics-test/:id"

	t.Run("it records status of response", func(t *testing.T) {
		before := testutil.ToFloat64(metrics.ServerRequests(http.MethodGet, route, http.StatusAccepted))

		c, _ := httptestutil.Get(e, "/metrics-test/1")
		c.SetPath(route)
		h := echoutil.MetricsHandlerFunc(func(c echo.Context) error {
			return c.NoContent(http.StatusAccepted)
		})
		if err := h(c); err != nil {
			t.Fatal(err)
		}

		after := testutil.ToFloat64(metrics.ServerRequests(http.MethodGet, route, http.StatusAccepted))
		if after-before != 1 {
			t.Errorf("unexpected count: %v -> %v", before, after)
		}
	})

	t.Run("it records status of HTTPError", func(t *testing.T) {
		before := testutil.ToFloat64(metrics.ServerRequests(http.MethodGet, route, http.StatusNotFound))

		c, _ := httptestutil.Get(e, "/metrics-test/2")
		c.SetPath(route)
		h := echoutil.MetricsHandlerFunc(func(c echo.Context) error {
			return echo.NewHTTPError(http.StatusNotFound)
		})
		if err := h(c); err == nil {
			t.Fatal("error is swallowed")
		}

		after := testutil.ToFloat64(metrics.ServerRequests(http.MethodGet, route, http.StatusNotFound))
		if after-before != 1 {
			t.Errorf("unexpected count: %v -> %v", before, after)
		}
	})
}
