package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/internal/domain"
	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/internal/repository"
	apperrors "github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/pkg/errors"
)

// ExamEventPublisher publishes exam lifecycle events, best effort.
type ExamEventPublisher interface {
	PublishExamStarted(ctx context.Context, exam *domain.Exam) error
	PublishExamClosed(ctx context.Context, exam *domain.Exam) error
}

// ExamService implements the exam lifecycle and submission rules. State
// transitions are decided by the exam's state object; this service persists
// the result and enforces the one-submission-per-student rule.
type ExamService struct {
	exams       repository.ExamRepository
	submissions repository.SubmissionRepository
	producer    ExamEventPublisher
	logger      *slog.Logger
}

// NewExamService creates a new exam service.
func NewExamService(
	exams repository.ExamRepository,
	submissions repository.SubmissionRepository,
	producer ExamEventPublisher,
	logger *slog.Logger,
) *ExamService {
	return &ExamService{
		exams:       exams,
		submissions: submissions,
		producer:    producer,
		logger:      logger,
	}
}

// CreateExamInput holds the parameters for creating an exam.
type CreateExamInput struct {
	Title     string          `json:"title" validate:"required"`
	Scheduled bool            `json:"scheduled"`
	Questions []QuestionInput `json:"questions" validate:"dive"`
}

// QuestionInput is a single question in the create request.
type QuestionInput struct {
	Text   string `json:"text" validate:"required"`
	Points int    `json:"points" validate:"gte=0"`
}

// CreateExam creates an exam in draft state, or scheduled when requested.
func (s *ExamService) CreateExam(ctx context.Context, tenantID, creatorID string, input *CreateExamInput) (*domain.Exam, error) {
	if tenantID == "" {
		return nil, apperrors.InvalidInput("tenant id is required")
	}
	if creatorID == "" {
		return nil, apperrors.InvalidInput("creator id is required")
	}
	if input == nil || input.Title == "" {
		return nil, apperrors.InvalidInput("title is required")
	}

	state := domain.ExamStateDraft
	if input.Scheduled {
		state = domain.ExamStateScheduled
	}

	now := time.Now().UTC()
	examID := uuid.New().String()

	questions := make([]domain.Question, len(input.Questions))
	for i, q := range input.Questions {
		questions[i] = domain.Question{
			ID:       uuid.New().String(),
			ExamID:   examID,
			Text:     q.Text,
			Points:   q.Points,
			Position: i + 1,
		}
	}

	exam := &domain.Exam{
		ID:        examID,
		TenantID:  tenantID,
		CreatorID: creatorID,
		Title:     input.Title,
		State:     state,
		Questions: questions,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	s.logger.InfoContext(ctx, "exam created",
		slog.String("exam_id", exam.ID),
		slog.String("state", exam.State),
	)

	return exam, nil
}

// GetExam retrieves an exam scoped to a tenant.
func (s *ExamService) GetExam(ctx context.Context, tenantID, examID string) (*domain.Exam, error) {
	return s.exams.GetByIDAndTenant(ctx, examID, tenantID)
}

// StartExam transitions a scheduled exam to live.
func (s *ExamService) StartExam(ctx context.Context, tenantID, examID string) (*domain.Exam, error) {
	exam, err := s.exams.GetByIDAndTenant(ctx, examID, tenantID)
	if err != nil {
		return nil, err
	}

	prior := exam.State
	if err := exam.Start(); err != nil {
		return nil, err
	}

	if err := s.exams.UpdateState(ctx, examID, tenantID, prior, exam.State); err != nil {
		return nil, err
	}

	if err := s.producer.PublishExamStarted(ctx, exam); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish exam.started event",
			slog.String("exam_id", examID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "exam started", slog.String("exam_id", examID))

	return exam, nil
}

// CloseExam transitions a live exam to closed.
func (s *ExamService) CloseExam(ctx context.Context, tenantID, examID string) (*domain.Exam, error) {
	exam, err := s.exams.GetByIDAndTenant(ctx, examID, tenantID)
	if err != nil {
		return nil, err
	}

	prior := exam.State
	if err := exam.Close(); err != nil {
		return nil, err
	}

	if err := s.exams.UpdateState(ctx, examID, tenantID, prior, exam.State); err != nil {
		return nil, err
	}

	if err := s.producer.PublishExamClosed(ctx, exam); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish exam.closed event",
			slog.String("exam_id", examID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "exam closed", slog.String("exam_id", examID))

	return exam, nil
}

// Submit records a student's answers for a live exam. At most one submission
// per (exam, student, tenant); duplicates fail with a conflict.
func (s *ExamService) Submit(ctx context.Context, tenantID, examID, studentID string, answers json.RawMessage) (*domain.Submission, error) {
	if studentID == "" {
		return nil, apperrors.InvalidInput("student id is required")
	}
	if len(answers) == 0 {
		return nil, apperrors.InvalidInput("answers payload is required")
	}

	exam, err := s.exams.GetByIDAndTenant(ctx, examID, tenantID)
	if err != nil {
		return nil, err
	}

	if !exam.CanSubmit() {
		return nil, apperrors.Conflict(fmt.Sprintf("exam is %s and does not accept submissions", exam.State))
	}

	submission := &domain.Submission{
		ID:          uuid.New().String(),
		ExamID:      examID,
		StudentID:   studentID,
		TenantID:    tenantID,
		Answers:     answers,
		SubmittedAt: time.Now().UTC(),
	}

	if err := s.submissions.Create(ctx, submission); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "submission recorded",
		slog.String("exam_id", examID),
		slog.String("student_id", studentID),
	)

	return submission, nil
}
