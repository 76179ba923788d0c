package assessment

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

// DateLayout is the format every persisted date column uses.
const DateLayout = "2006-01-02"

type Assessment struct {
	ID         string `json:"id"`
	ModuleID   string `json:"module_id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	TotalMarks int    `json:"total_marks"`
	Weightage  int    `json:"weightage"` // percentage of the module total
	CreatedBy  string `json:"created_by"`
}

type Grade struct {
	ID           string  `json:"id"`
	AssessmentID string  `json:"assessment_id"`
	StudentID    string  `json:"student_id"`
	Marks        float64 `json:"marks"`
	Grade        string  `json:"grade"` // letter, derived from the grading table
	LecturerID   string  `json:"lecturer_id"`
	Date         string  `json:"date"`
}

type Feedback struct {
	ID           string `json:"id"`
	AssessmentID string `json:"assessment_id"`
	StudentID    string `json:"student_id"`
	LecturerID   string `json:"lecturer_id"`
	Text         string `json:"text"`
	Date         string `json:"date"`
}

type Comment struct {
	ID         string `json:"id"`
	StudentID  string `json:"student_id"`
	LecturerID string `json:"lecturer_id"`
	ModuleID   string `json:"module_id"`
	Text       string `json:"text"`
	Date       string `json:"date"`
}

// GradingRule maps a closed percentage range onto a letter grade. Ranges of
// persisted rules never overlap.
type GradingRule struct {
	Grade string `json:"grade"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
}

// NewAssessment contains information needed to create a new Assessment.
type NewAssessment struct {
	ModuleID   string `json:"module_id" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Type       string `json:"type" validate:"required"`
	TotalMarks int    `json:"total_marks" validate:"required,gte=1"`
	Weightage  int    `json:"weightage" validate:"gte=0,lte=100"` // zero-weight assessments are legal
}

func (na *NewAssessment) Validate(validate *validator.Validate) error {
	na.ModuleID = core.CleanString(na.ModuleID)
	na.Name = core.CleanString(na.Name)
	na.Type = core.CleanString(na.Type)
	return validate.Struct(na)
}

type UpdateAssessment struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	TotalMarks int    `json:"total_marks" validate:"omitempty,gte=1"`
	Weightage  int    `json:"weightage" validate:"omitempty,gte=0,lte=100"`
}

func (ua *UpdateAssessment) Validate(validate *validator.Validate) error {
	ua.Name = core.CleanString(ua.Name)
	ua.Type = core.CleanString(ua.Type)
	return validate.Struct(ua)
}

type NewGrade struct {
	AssessmentID string  `json:"assessment_id" validate:"required"`
	StudentID    string  `json:"student_id" validate:"required"`
	Marks        float64 `json:"marks" validate:"gte=0"`
}

func (ng *NewGrade) Validate(validate *validator.Validate) error {
	ng.AssessmentID = core.CleanString(ng.AssessmentID)
	ng.StudentID = core.CleanString(ng.StudentID)
	return validate.Struct(ng)
}

type NewFeedback struct {
	AssessmentID string `json:"assessment_id" validate:"required"`
	StudentID    string `json:"student_id" validate:"required"`
	Text         string `json:"text" validate:"required"`
}

func (nf *NewFeedback) Validate(validate *validator.Validate) error {
	nf.AssessmentID = core.CleanString(nf.AssessmentID)
	nf.StudentID = core.CleanString(nf.StudentID)
	nf.Text = core.CleanString(nf.Text)
	return validate.Struct(nf)
}

type NewComment struct {
	StudentID string `json:"student_id" validate:"required"`
	ModuleID  string `json:"module_id" validate:"required"`
	Text      string `json:"text" validate:"required"`
}

func (nc *NewComment) Validate(validate *validator.Validate) error {
	nc.StudentID = core.CleanString(nc.StudentID)
	nc.ModuleID = core.CleanString(nc.ModuleID)
	nc.Text = core.CleanString(nc.Text)
	return validate.Struct(nc)
}

type NewGradingRule struct {
	Grade string `json:"grade" validate:"required,gradesymbol"`
	Min   int    `json:"min" validate:"gte=0,lte=100"`
	Max   int    `json:"max" validate:"gte=0,lte=100"`
}

func (nr *NewGradingRule) Validate(validate *validator.Validate) error {
	nr.Grade = core.CleanString(nr.Grade)
	if err := validate.Struct(nr); err != nil {
		return err
	}
	if nr.Min > nr.Max {
		return core.NewValidationError(nil, core.FieldError{
			Field: "min", Error: "min must not exceed max",
		})
	}
	return nil
}
