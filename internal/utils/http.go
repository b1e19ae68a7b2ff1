package utils

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
)

// PathParam returns the named router parameter with a trailing ".json"
// removed, so /stops/001001 and /stops/001001.json address the same stop.
func PathParam(r *http.Request, name string) string {
	value := httprouter.ParamsFromContext(r.Context()).ByName(name)
	return strings.TrimSuffix(value, ".json")
}
