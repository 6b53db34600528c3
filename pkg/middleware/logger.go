package middleware

import (
	"net/http"
	"time"

	"fuel-pricing/pkg/utils"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// RequestLogger writes one zap line per request.
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("ip", v.RemoteIP),
			}
			if v.RequestID != "" {
				fields = append(fields, zap.String("request_id", v.RequestID))
			}
			if userID, err := utils.GetUserIDFromCtx(c.Request().Context()); err == nil {
				fields = append(fields, zap.Uint64("userID", userID))
			}

			switch {
			case v.Status >= http.StatusInternalServerError:
				logger.Error("request", append(fields, zap.Error(v.Error))...)
			case v.Latency > 2*time.Second:
				logger.Warn("slow request", fields...)
			default:
				logger.Info("request", fields...)
			}
			return nil
		},
	})
}
