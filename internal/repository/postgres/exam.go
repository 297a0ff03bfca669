package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/internal/domain"
	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/pkg/database"
	apperrors "github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/pkg/errors"
)

const uniqueViolationCode = "23505"

// ExamRepository implements repository.ExamRepository using PostgreSQL.
type ExamRepository struct {
	pool database.DBTX
}

// NewExamRepository creates a new PostgreSQL-backed exam repository.
func NewExamRepository(pool database.DBTX) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// Create inserts a new exam and its questions atomically.
func (r *ExamRepository) Create(ctx context.Context, e *domain.Exam) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	examQuery := `
		INSERT INTO exams (id, tenant_id, creator_id, title, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = tx.Exec(ctx, examQuery,
		e.ID,
		e.TenantID,
		e.CreatorID,
		e.Title,
		e.State,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert exam: %w", err)
	}

	questionQuery := `
		INSERT INTO exam_questions (id, exam_id, text, points, position)
		VALUES ($1, $2, $3, $4, $5)`

	for _, q := range e.Questions {
		_, err = tx.Exec(ctx, questionQuery, q.ID, q.ExamID, q.Text, q.Points, q.Position)
		if err != nil {
			return fmt.Errorf("insert exam question: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByIDAndTenant retrieves an exam by its ID within a tenant, eagerly
// loading its questions.
func (r *ExamRepository) GetByIDAndTenant(ctx context.Context, id, tenantID string) (*domain.Exam, error) {
	query := `
		SELECT
			e.id, e.tenant_id, e.creator_id, e.title, e.state, e.created_at, e.updated_at,
			COALESCE(
				JSONB_AGG(
					JSONB_BUILD_OBJECT(
						'id', q.id,
						'exam_id', q.exam_id,
						'text', q.text,
						'points', q.points,
						'position', q.position
					) ORDER BY q.position
				) FILTER (WHERE q.id IS NOT NULL),
				'[]'::jsonb
			) AS questions
		FROM exams e
		LEFT JOIN exam_questions q ON e.id = q.exam_id
		WHERE e.id = $1 AND e.tenant_id = $2
		GROUP BY e.id, e.tenant_id, e.creator_id, e.title, e.state, e.created_at, e.updated_at`

	var (
		e             domain.Exam
		questionsJSON []byte
	)

	err := r.pool.QueryRow(ctx, query, id, tenantID).Scan(
		&e.ID,
		&e.TenantID,
		&e.CreatorID,
		&e.Title,
		&e.State,
		&e.CreatedAt,
		&e.UpdatedAt,
		&questionsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("exam", id)
		}
		return nil, fmt.Errorf("scan exam: %w", err)
	}

	if len(questionsJSON) > 0 && string(questionsJSON) != "null" && string(questionsJSON) != "[]" {
		if err := json.Unmarshal(questionsJSON, &e.Questions); err != nil {
			return nil, fmt.Errorf("unmarshal exam questions: %w", err)
		}
	} else {
		e.Questions = []domain.Question{}
	}

	return &e, nil
}

// UpdateState persists a lifecycle state change as a compare-and-swap. The
// UPDATE only matches while the row is still in fromState, so of two
// concurrent transitions exactly one wins; the loser gets ErrConflict.
func (r *ExamRepository) UpdateState(ctx context.Context, id, tenantID, fromState, toState string) error {
	query := `
		UPDATE exams
		SET state = $1, updated_at = $2
		WHERE id = $3 AND tenant_id = $4 AND state = $5`

	ct, err := r.pool.Exec(ctx, query, toState, time.Now().UTC(), id, tenantID, fromState)
	if err != nil {
		return fmt.Errorf("update exam state: %w", err)
	}

	if ct.RowsAffected() == 0 {
		var current string
		err := r.pool.QueryRow(ctx,
			`SELECT state FROM exams WHERE id = $1 AND tenant_id = $2`,
			id, tenantID,
		).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("exam", id)
		}
		if err != nil {
			return fmt.Errorf("check exam state: %w", err)
		}
		return apperrors.Conflict(fmt.Sprintf("exam %s is %s, not %s", id, current, fromState))
	}

	return nil
}

// SubmissionRepository implements repository.SubmissionRepository using
// PostgreSQL.
type SubmissionRepository struct {
	pool database.DBTX
}

// NewSubmissionRepository creates a new PostgreSQL-backed submission repository.
func NewSubmissionRepository(pool database.DBTX) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// Create inserts a submission. The unique constraint on
// (exam_id, student_id, tenant_id) makes duplicate submission attempts fail
// with a conflict regardless of interleaving.
func (r *SubmissionRepository) Create(ctx context.Context, s *domain.Submission) error {
	query := `
		INSERT INTO exam_submissions (id, exam_id, student_id, tenant_id, answers, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.ExamID,
		s.StudentID,
		s.TenantID,
		s.Answers,
		s.SubmittedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return apperrors.Conflict(fmt.Sprintf("student %s already submitted exam %s", s.StudentID, s.ExamID))
		}
		return fmt.Errorf("insert submission: %w", err)
	}

	return nil
}

// GetByExamAndStudent retrieves a student's submission for an exam.
func (r *SubmissionRepository) GetByExamAndStudent(ctx context.Context, examID, studentID, tenantID string) (*domain.Submission, error) {
	query := `
		SELECT id, exam_id, student_id, tenant_id, answers, submitted_at
		FROM exam_submissions
		WHERE exam_id = $1 AND student_id = $2 AND tenant_id = $3`

	var s domain.Submission
	err := r.pool.QueryRow(ctx, query, examID, studentID, tenantID).Scan(
		&s.ID,
		&s.ExamID,
		&s.StudentID,
		&s.TenantID,
		&s.Answers,
		&s.SubmittedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("submission", examID)
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}

	return &s, nil
}
