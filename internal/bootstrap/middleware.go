package bootstrap

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/locvowork/employee_directory/internal/logger"
)

func newRequestID() string {
	return uuid.NewString()
}

// RequestLogger attaches a request-scoped zerolog logger to the request
// context and logs one line per request.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			reqID := c.Response().Header().Get(echo.HeaderXRequestID)

			ctx := logger.WithLogger(req.Context(), map[string]interface{}{
				"request_id": reqID,
			})
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			logger.Logger(ctx).Info().
				Str("method", req.Method).
				Str("uri", req.RequestURI).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Msg("request")
			return nil
		}
	}
}
