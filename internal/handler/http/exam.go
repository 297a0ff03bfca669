package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/internal/service"
	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/pkg/httputil"
	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/pkg/validator"
)

// ExamHandler handles HTTP requests for exam lifecycle and submission endpoints.
type ExamHandler struct {
	service *service.ExamService
	logger  *slog.Logger
}

// NewExamHandler creates a new exam HTTP handler.
func NewExamHandler(svc *service.ExamService, logger *slog.Logger) *ExamHandler {
	return &ExamHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateExamRequest is the JSON request body for creating an exam.
type CreateExamRequest struct {
	Title     string                `json:"title" validate:"required"`
	Scheduled bool                  `json:"scheduled"`
	Questions []ExamQuestionRequest `json:"questions" validate:"dive"`
}

// ExamQuestionRequest is a single question in the create request.
type ExamQuestionRequest struct {
	Text   string `json:"text" validate:"required"`
	Points int    `json:"points" validate:"gte=0"`
}

// SubmitRequest is the JSON request body for a student submission.
type SubmitRequest struct {
	Answers json.RawMessage `json:"answers" validate:"required"`
}

// CreateExam handles POST /api/v1/exams.
func (h *ExamHandler) CreateExam(w http.ResponseWriter, r *http.Request) {
	tenantID, creatorID, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateExamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	questions := make([]service.QuestionInput, len(req.Questions))
	for i, q := range req.Questions {
		questions[i] = service.QuestionInput{
			Text:   q.Text,
			Points: q.Points,
		}
	}

	exam, err := h.service.CreateExam(r.Context(), tenantID, creatorID, &service.CreateExamInput{
		Title:     req.Title,
		Scheduled: req.Scheduled,
		Questions: questions,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: exam})
}

// GetExam handles GET /api/v1/exams/{id}.
func (h *ExamHandler) GetExam(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	exam, err := h.service.GetExam(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: exam})
}

// StartExam handles POST /api/v1/exams/{id}/start.
func (h *ExamHandler) StartExam(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	exam, err := h.service.StartExam(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: exam})
}

// CloseExam handles POST /api/v1/exams/{id}/close.
func (h *ExamHandler) CloseExam(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	exam, err := h.service.CloseExam(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: exam})
}

// Submit handles POST /api/v1/exams/{id}/submissions. The submitting student
// is taken from the X-User-ID header.
func (h *ExamHandler) Submit(w http.ResponseWriter, r *http.Request) {
	tenantID, studentID, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	submission, err := h.service.Submit(r.Context(), tenantID, chi.URLParam(r, "id"), studentID, req.Answers)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: submission})
}
