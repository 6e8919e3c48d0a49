package echoutil

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/scc-digitalhub/digitalhub-go/pkg/logger"
)

func LogHandlerFunc(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		meth := c.Request().Method
		path := c.Request().URL
		BEGIN := time.Now()
		c.Logger().Infof(
			"< request @[%s] %s %s", BEGIN, meth, path,
		)

		var err error

		defer func() {
			END := time.Now()
			c.Logger().Infof(
				"> response @[%s] status = %d (for request @[%s] %s %s) in %v / error = %+v",
				END, c.Response().Status, BEGIN, meth, path, END.Sub(BEGIN), err,
			)
		}()

		err = next(c)
		return err
	}
}

// SetLevel sets level of the echo logger by name: debug|info|warn|error|off.
func SetLevel(e *echo.Echo, loglevel string) {
	logger.SetLevel(e.Logger, loglevel)
}
