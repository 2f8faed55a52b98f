package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// statusFor maps an error kind onto an HTTP status code.
func statusFor(err error) int {
	switch common.KindOf(err) {
	case common.ErrValidation:
		return http.StatusUnprocessableEntity
	case common.ErrConflict:
		return http.StatusConflict
	case common.ErrUnauthorized:
		return http.StatusUnauthorized
	case common.ErrForbidden:
		return http.StatusForbidden
	case common.ErrNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func respondError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	respondJSON(w, code, ErrorResponse{Message: common.PublicMessage(err)})
}

func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"message":"internal error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// decode reads a JSON body into v. An empty body leaves v unchanged.
func decode(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return common.WrapError(common.ErrValidation, "malformed request body", err)
	}
	return nil
}
