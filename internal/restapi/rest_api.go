package restapi

import (
	"time"

	"routecatalog.transit.hk/internal/app"
)

// RestAPI serves a loaded catalog file over HTTP.
type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
}

// NewRestAPI limits each client to Config.RateLimit requests per second.
func NewRestAPI(application *app.Application) *RestAPI {
	return &RestAPI{
		Application: application,
		rateLimiter: NewRateLimitMiddleware(application.Config.RateLimit, time.Second),
	}
}

// Shutdown stops the rate limiter's cleanup goroutine.
func (api *RestAPI) Shutdown() {
	api.rateLimiter.Stop()
}
