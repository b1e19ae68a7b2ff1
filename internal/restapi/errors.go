package restapi

import (
	"net/http"

	"github.com/goccy/go-json"

	"routecatalog.transit.hk/internal/models"
)

func (api *RestAPI) writeJSON(w http.ResponseWriter, status int, response models.ResponseModel) {
	setJSONResponseType(w)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		api.Logger.Error("failed to encode response", "error", err, "status", status)
	}
}

func (api *RestAPI) invalidAPIKeyResponse(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(w, http.StatusUnauthorized,
		models.NewResponse(http.StatusUnauthorized, nil, "permission denied"))
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.Logger.Error("request failed", "error", err, "path", r.URL.Path)
	api.writeJSON(w, http.StatusInternalServerError,
		models.NewResponse(http.StatusInternalServerError, nil, "internal server error"))
}

// validationErrorResponse sends a 400 Bad Request response with field-specific validation errors
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	data := map[string]interface{}{"fieldErrors": fieldErrors}
	api.writeJSON(w, http.StatusBadRequest,
		models.NewResponse(http.StatusBadRequest, data, "invalid request"))
}

func (api *RestAPI) sendNotFound(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(w, http.StatusNotFound,
		models.NewResponse(http.StatusNotFound, nil, "resource not found"))
}
