package handlers

import (
	"fabric/service"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ConcurrencyLimit rejects requests with too_busy while max requests are already in flight.
// max below 1 disables the limit.
func ConcurrencyLimit(max int64) echo.MiddlewareFunc {
	if max < 1 {
		return passThrough
	}
	sem := semaphore.NewWeighted(max)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !sem.TryAcquire(1) {
				return service.NewFabricError(service.ErrTooBusy, "Gateway is too busy, try again later", nil)
			}
			defer sem.Release(1)
			return next(c)
		}
	}
}

// RateLimit rejects requests with too_many_requests once the token bucket is empty.
// rps of zero or less disables the limit.
func RateLimit(rps float64, burst int) echo.MiddlewareFunc {
	if rps <= 0 {
		return passThrough
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiter.Allow() {
				return service.NewFabricError(service.ErrTooManyRequests, "Too many requests", nil)
			}
			return next(c)
		}
	}
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc {
	return next
}
