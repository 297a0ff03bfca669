package domain

import (
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/pkg/errors"
)

// Exam lifecycle state constants.
const (
	ExamStateDraft     = "draft"
	ExamStateScheduled = "scheduled"
	ExamStateLive      = "live"
	ExamStateClosed    = "closed"
)

// ExamState defines the behavior of one lifecycle state. Each state decides
// for itself which transitions it accepts; Start and Close return the name
// of the next state or a conflict error.
type ExamState interface {
	Name() string
	Start() (string, error)
	Close() (string, error)
	CanSubmit() bool
}

type draftState struct{}

func (draftState) Name() string { return ExamStateDraft }
func (draftState) Start() (string, error) {
	return "", apperrors.Conflict("exam is still a draft and cannot be started")
}
func (draftState) Close() (string, error) {
	return "", apperrors.Conflict("exam is still a draft and cannot be closed")
}
func (draftState) CanSubmit() bool { return false }

type scheduledState struct{}

func (scheduledState) Name() string           { return ExamStateScheduled }
func (scheduledState) Start() (string, error) { return ExamStateLive, nil }
func (scheduledState) Close() (string, error) {
	return "", apperrors.Conflict("exam has not started and cannot be closed")
}
func (scheduledState) CanSubmit() bool { return false }

type liveState struct{}

func (liveState) Name() string { return ExamStateLive }
func (liveState) Start() (string, error) {
	return "", apperrors.Conflict("exam is already live")
}
func (liveState) Close() (string, error) { return ExamStateClosed, nil }
func (liveState) CanSubmit() bool        { return true }

type closedState struct{}

func (closedState) Name() string { return ExamStateClosed }
func (closedState) Start() (string, error) {
	return "", apperrors.Conflict("exam is closed")
}
func (closedState) Close() (string, error) {
	return "", apperrors.Conflict("exam is already closed")
}
func (closedState) CanSubmit() bool { return false }

// StateFor resolves a state name to its state object.
func StateFor(name string) (ExamState, error) {
	switch name {
	case ExamStateDraft:
		return draftState{}, nil
	case ExamStateScheduled:
		return scheduledState{}, nil
	case ExamStateLive:
		return liveState{}, nil
	case ExamStateClosed:
		return closedState{}, nil
	default:
		return nil, fmt.Errorf("unknown exam state %q", name)
	}
}

// ValidExamStates returns all valid exam lifecycle states.
func ValidExamStates() []string {
	return []string{ExamStateDraft, ExamStateScheduled, ExamStateLive, ExamStateClosed}
}

// Exam represents a scheduled assessment with its lifecycle state.
type Exam struct {
	ID        string     `json:"id"`
	TenantID  string     `json:"tenant_id"`
	CreatorID string     `json:"creator_id"`
	Title     string     `json:"title"`
	State     string     `json:"state"`
	Questions []Question `json:"questions,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Question is a single question belonging to an exam.
type Question struct {
	ID       string `json:"id"`
	ExamID   string `json:"exam_id"`
	Text     string `json:"text"`
	Points   int    `json:"points"`
	Position int    `json:"position"`
}

// Start transitions the exam to live. Only a scheduled exam can start.
func (e *Exam) Start() error {
	state, err := StateFor(e.State)
	if err != nil {
		return err
	}
	next, err := state.Start()
	if err != nil {
		return err
	}
	e.State = next
	return nil
}

// Close transitions the exam to closed. Only a live exam can close.
func (e *Exam) Close() error {
	state, err := StateFor(e.State)
	if err != nil {
		return err
	}
	next, err := state.Close()
	if err != nil {
		return err
	}
	e.State = next
	return nil
}

// CanSubmit reports whether the exam currently accepts submissions.
func (e *Exam) CanSubmit() bool {
	state, err := StateFor(e.State)
	if err != nil {
		return false
	}
	return state.CanSubmit()
}

// Submission is a student's answer set for an exam. At most one submission
// may exist per (exam, student, tenant).
type Submission struct {
	ID          string          `json:"id"`
	ExamID      string          `json:"exam_id"`
	StudentID   string          `json:"student_id"`
	TenantID    string          `json:"tenant_id"`
	Answers     json.RawMessage `json:"answers"`
	SubmittedAt time.Time       `json:"submitted_at"`
}
