package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/labstack/echo/v4"
	"github.com/unrolled/secure"
)

// SecureHeaders applies the standard security header set. Development relaxes HSTS.
func SecureHeaders(isProduction bool) echo.MiddlewareFunc {
	sec := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		STSSeconds:            31536000,
		STSIncludeSubdomains:  true,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		IsDevelopment:         !isProduction,
	})
	return echo.WrapMiddleware(sec.Handler)
}

// RateLimitByIP limits requests per client IP within window.
func RateLimitByIP(requests int, window time.Duration) echo.MiddlewareFunc {
	limiter := httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"status":false,"message":"too many requests, try again later"}`))
		}),
	)
	return echo.WrapMiddleware(limiter)
}
