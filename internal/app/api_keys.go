package app

import (
	"net/http"
	"slices"
)

// AuthEnabled reports whether requests must carry one of the configured keys.
func (app *Application) AuthEnabled() bool {
	return len(app.Config.APIKeys) > 0
}

// RequestHasInvalidAPIKey checks the "key" query parameter. It never rejects
// a request when auth is disabled.
func (app *Application) RequestHasInvalidAPIKey(r *http.Request) bool {
	return app.AuthEnabled() && app.IsInvalidAPIKey(r.URL.Query().Get("key"))
}

// IsInvalidAPIKey reports whether key is blank or not configured.
func (app *Application) IsInvalidAPIKey(key string) bool {
	return key == "" || !slices.Contains(app.Config.APIKeys, key)
}
