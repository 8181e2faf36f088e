package handlers

import (
	"errors"
	"log"
	"net/http"

	"signlearn/internal/service"
	"signlearn/internal/validation"
)

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	writeJSON(w, status, apiResponse{Success: false, Message: userMsg})
}

// statusForError maps service errors to HTTP status codes and user-facing messages
func statusForError(err error) (int, string) {
	var vErr validation.ValidationError
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest, vErr.Error()
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, service.ErrLessonEmpty):
		return http.StatusNotFound, "This lesson has no gestures"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, service.ErrLessonLocked):
		return http.StatusForbidden, "Lesson is locked"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, "Email is already registered"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "Conflict"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrSessionExpired):
		return http.StatusUnauthorized, ErrUnauthorized
	default:
		return http.StatusInternalServerError, ErrInternalServerError
	}
}

// respondServiceError writes the response for an error returned by a service.
// Only server-side failures are logged.
func respondServiceError(w http.ResponseWriter, logMsg string, err error) {
	status, userMsg := statusForError(err)
	if status >= http.StatusInternalServerError {
		respondWithError(w, status, userMsg, logMsg, err)
		return
	}
	respondWithError(w, status, userMsg, "", nil)
}
