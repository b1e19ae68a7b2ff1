package restapi

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (api *RestAPI) validateAPIKey(finalHandler http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.invalidAPIKeyResponse(w, r)
			return
		}
		finalHandler(w, r)
	})
}

// SetRoutes registers the catalog endpoints on router.
func (api *RestAPI) SetRoutes(router *httprouter.Router) {
	router.Handler(http.MethodGet, "/api/catalog/stats", api.validateAPIKey(api.statsHandler))
	router.Handler(http.MethodGet, "/api/catalog/routes/:number", api.validateAPIKey(api.routesHandler))
	router.Handler(http.MethodGet, "/api/catalog/stops/:id", api.validateAPIKey(api.stopHandler))
	router.Handler(http.MethodGet, "/api/catalog/current-time", api.validateAPIKey(api.currentTimeHandler))
	router.NotFound = http.HandlerFunc(api.sendNotFound)
}

// Handler returns the full middleware chain around the catalog router:
// security headers, request logging, compression, rate limiting.
func (api *RestAPI) Handler() (http.Handler, error) {
	router := httprouter.New()
	api.SetRoutes(router)

	compress, err := newCompressionMiddleware(compressionMinSize, compressionLevel)
	if err != nil {
		return nil, fmt.Errorf("build handler: %w", err)
	}

	var h http.Handler = router
	h = api.rateLimiter.Handler(h)
	h = compress(h)
	h = NewRequestLoggingMiddleware(api.Logger)(h)
	h = securityHeaders(h)
	return h, nil
}
