package echoutil

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/scc-digitalhub/digitalhub-go/pkg/metrics"
)

// MetricsHandlerFunc records requests by route pattern.
func MetricsHandlerFunc(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		begin := time.Now()
		err := next(c)

		status := c.Response().Status
		if err != nil {
			// not committed yet; the error handler decides the status.
			status = http.StatusInternalServerError
			var herr *echo.HTTPError
			if errors.As(err, &herr) {
				status = herr.Code
			}
		}
		metrics.RecordServerRequest(c.Request().Method, c.Path(), status, time.Since(begin))
		return err
	}
}
