package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"signlearn/internal/service"
)

// LessonHandler serves the lesson listing, questions, answers and completion
type LessonHandler struct {
	progressService *service.ProgressService
}

// NewLessonHandler creates a new lesson handler
func NewLessonHandler(progressService *service.ProgressService) *LessonHandler {
	return &LessonHandler{progressService: progressService}
}

type answerRequest struct {
	GestureID      int64  `json:"gesture_id"`
	IsCorrect      bool   `json:"is_correct"`
	SelectedAnswer string `json:"selected_answer"`
	// Question is the 1-based number of the answered question. Answering the
	// last question finishes the lesson.
	Question int `json:"question,omitempty"`
}

type answerResponse struct {
	*service.AnswerResult
	Finished *service.FinishResult `json:"finished,omitempty"`
	Redirect string                `json:"redirect,omitempty"`
}

// respondFinishDegraded reports a lesson whose completion could not be saved.
// The response stays 200 so the client keeps any recorded answer and returns
// to the lesson list.
func respondFinishDegraded(w http.ResponseWriter, userID, lessonID int64, resp answerResponse, err error) {
	log.Printf("Error finishing lesson %d for user %d: %v", lessonID, userID, err)
	resp.Redirect = "/api/modules"
	writeJSON(w, http.StatusOK, apiResponse{
		Success: false,
		Message: "Could not save lesson progress",
		Data:    resp,
	})
}

// ListModules returns every module with its lessons and the user's unlock state
func (h *LessonHandler) ListModules(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	modules, err := h.progressService.GetModulesWithLessons(r.Context(), user.ID)
	if err != nil {
		respondServiceError(w, "Error listing modules", err)
		return
	}
	respondOK(w, modules)
}

// Access reports whether the user may open a lesson
func (h *LessonHandler) Access(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	lessonID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}

	access, err := h.progressService.ResolveLessonAccess(r.Context(), user.ID, lessonID)
	if err != nil {
		respondServiceError(w, "Error resolving lesson access", err)
		return
	}
	respondOK(w, access)
}

// Question returns question n of a lesson
func (h *LessonHandler) Question(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	lessonID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}
	// A malformed number falls back to the first question like an out of range one
	n, _ := strconv.Atoi(r.PathValue("n"))

	question, err := h.progressService.GetQuestion(r.Context(), user.ID, lessonID, n)
	if err != nil {
		respondServiceError(w, "Error loading question", err)
		return
	}
	respondOK(w, question)
}

// Answer records an answer and finishes the lesson after its last question
func (h *LessonHandler) Answer(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	lessonID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}

	var req answerRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	result, err := h.progressService.RecordAnswer(r.Context(), user.ID, service.AnswerInput{
		LessonID:       lessonID,
		GestureID:      req.GestureID,
		IsCorrect:      req.IsCorrect,
		SelectedAnswer: req.SelectedAnswer,
	})
	if err != nil {
		respondServiceError(w, "Error recording answer", err)
		return
	}

	resp := answerResponse{AnswerResult: result}
	if req.Question > 0 {
		question, err := h.progressService.GetQuestion(r.Context(), user.ID, lessonID, req.Question)
		if err != nil {
			respondServiceError(w, "Error loading question", err)
			return
		}
		if question.Number == req.Question && question.NextQuestion == 0 {
			finished, err := h.progressService.FinishLesson(r.Context(), user.ID, lessonID)
			if errors.Is(err, service.ErrPersistence) {
				respondFinishDegraded(w, user.ID, lessonID, resp, err)
				return
			}
			if err != nil {
				respondServiceError(w, "Error finishing lesson", err)
				return
			}
			resp.Finished = finished
		}
	}
	respondOK(w, resp)
}

// Finish marks a lesson completed
func (h *LessonHandler) Finish(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	lessonID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}

	result, err := h.progressService.FinishLesson(r.Context(), user.ID, lessonID)
	if errors.Is(err, service.ErrPersistence) {
		respondFinishDegraded(w, user.ID, lessonID, answerResponse{}, err)
		return
	}
	if err != nil {
		respondServiceError(w, "Error finishing lesson", err)
		return
	}
	respondOK(w, result)
}
