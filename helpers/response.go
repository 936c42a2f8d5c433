package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/leetryscode/matchmakr-vg0-sub001/apperrors"
)

// WriteJSONResponse writes payload as JSON with the given status.
func WriteJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("❌ Error encoding response: %v", err)
	}
}

// HTTPStatus maps an error code to the status a client sees.
func HTTPStatus(code apperrors.Code) int {
	switch code {
	case apperrors.CodeInvalidArgument:
		return http.StatusBadRequest
	case apperrors.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.CodeAuthorization:
		return http.StatusForbidden
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeInvalidState, apperrors.CodeStoreConflict:
		return http.StatusConflict
	case apperrors.CodeForbiddenTransition, apperrors.CodePrecondition, apperrors.CodeContextResolution:
		return http.StatusUnprocessableEntity
	case apperrors.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string         `json:"error"`
	Code  apperrors.Code `json:"code"`
}

// WriteError writes err as {"error", "code"}. Errors without an AppError in
// their chain are reported as INTERNAL and their detail is only logged.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		log.Printf("❌ Internal error: %v", err)
		WriteJSONResponse(w, http.StatusInternalServerError, errorBody{Error: "internal error", Code: apperrors.CodeInternal})
		return
	}
	status := HTTPStatus(appErr.Code)
	if status == http.StatusInternalServerError {
		log.Printf("❌ Internal error: %v", err)
	}
	WriteJSONResponse(w, status, errorBody{Error: appErr.Message, Code: appErr.Code})
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return apperrors.InvalidArg(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}
