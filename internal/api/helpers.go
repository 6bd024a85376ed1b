package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/taskbase/taskbase/internal/middleware"
)

var validate = validator.New()

// sendJSON sends a JSON response
func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func sendError(w http.ResponseWriter, r *http.Request, status int, code, message string, details interface{}) {
	middleware.WriteError(w, r, status, code, message, details)
}

// decodeJSON decodes and validates the request body
func decodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var input T
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		sendError(w, r, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON body", err.Error())
		return input, false
	}

	if err := validate.Struct(input); err != nil {
		sendError(w, r, http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", validationDetails(err))
		return input, false
	}
	return input, true
}

const maxBodyBytes = 8 << 20

func validationDetails(err error) interface{} {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Namespace()] = fe.Tag()
	}
	return out
}
