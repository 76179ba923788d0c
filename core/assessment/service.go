package assessment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/module"
	"github.com/trezcool/shule/core/user"
)

var (
	// errors
	ErrNotFound         = errors.New("assessment not found")
	ErrFeedbackNotFound = errors.New("feedback not found")
	ErrRuleNotFound     = errors.New("grading rule not found")
)

type (
	Repository interface {
		QueryAllAssessments() ([]Assessment, error)
		QueryAssessmentsByModuleID(moduleID string) ([]Assessment, error)
		GetAssessmentByID(id string) (Assessment, error)
		NextAssessmentID() (string, error)
		CreateAssessment(ass Assessment) (Assessment, error)
		UpdateAssessment(ass Assessment) (Assessment, error)
		DeleteAssessmentByID(id string) error

		QueryAllGrades() ([]Grade, error)
		NextGradeID() (string, error)
		CreateGrade(grd Grade) (Grade, error)

		QueryAllFeedback() ([]Feedback, error)
		GetFeedbackByPair(assessmentID, studentID string) (Feedback, error)
		NextFeedbackID() (string, error)
		CreateFeedback(fb Feedback) (Feedback, error)
		UpdateFeedback(fb Feedback) (Feedback, error)

		QueryAllComments() ([]Comment, error)
		NextCommentID() (string, error)
		CreateComment(cmt Comment) (Comment, error)

		QueryAllGradingRules() ([]GradingRule, error)
		GetGradingRuleByGrade(grade string) (GradingRule, error)
		CreateGradingRule(rule GradingRule) error
		UpdateGradingRule(rule GradingRule) error
		DeleteGradingRuleByGrade(grade string) error
	}

	// ModuleDirectory is the slice of the module service this package needs.
	ModuleDirectory interface {
		GetByID(id string) (module.Module, error)
		IsEnrolled(studentID, moduleID string) (bool, error)
	}

	Service struct {
		repo    Repository
		modules ModuleDirectory
	}
)

func NewService(repo Repository, modules ModuleDirectory) *Service {
	return &Service{repo: repo, modules: modules}
}

// Assessments

func (svc *Service) QueryAll() ([]Assessment, error) {
	return svc.repo.QueryAllAssessments()
}

func (svc *Service) GetByID(id string) (Assessment, error) {
	return svc.repo.GetAssessmentByID(id)
}

func (svc *Service) Create(actor user.User, na NewAssessment) (Assessment, error) {
	if err := svc.checkModuleOwnership(actor, na.ModuleID); err != nil {
		return Assessment{}, err
	}
	if err := svc.checkWeightageCap(na.ModuleID, "", na.Weightage); err != nil {
		return Assessment{}, err
	}

	id, err := svc.repo.NextAssessmentID()
	if err != nil {
		return Assessment{}, err
	}
	return svc.repo.CreateAssessment(Assessment{
		ID:         id,
		ModuleID:   na.ModuleID,
		Name:       na.Name,
		Type:       na.Type,
		TotalMarks: na.TotalMarks,
		Weightage:  na.Weightage,
		CreatedBy:  actor.ID,
	})
}

func (svc *Service) Update(actor user.User, id string, ua UpdateAssessment) (Assessment, error) {
	ass, err := svc.repo.GetAssessmentByID(id)
	if err != nil {
		return Assessment{}, err
	}
	if err := svc.checkModuleOwnership(actor, ass.ModuleID); err != nil {
		return Assessment{}, err
	}
	if ua.Weightage != 0 {
		if err := svc.checkWeightageCap(ass.ModuleID, ass.ID, ua.Weightage); err != nil {
			return Assessment{}, err
		}
		ass.Weightage = ua.Weightage
	}
	if ua.Name != "" {
		ass.Name = ua.Name
	}
	if ua.Type != "" {
		ass.Type = ua.Type
	}
	if ua.TotalMarks != 0 {
		ass.TotalMarks = ua.TotalMarks
	}
	return svc.repo.UpdateAssessment(ass)
}

func (svc *Service) Delete(actor user.User, id string) error {
	ass, err := svc.repo.GetAssessmentByID(id)
	if err != nil {
		return err
	}
	if err := svc.checkModuleOwnership(actor, ass.ModuleID); err != nil {
		return err
	}
	return svc.repo.DeleteAssessmentByID(id)
}

// Grades

func (svc *Service) QueryAllGrades() ([]Grade, error) {
	return svc.repo.QueryAllGrades()
}

// RecordGrade stores a student's marks for an assessment. The acting lecturer
// must teach the assessment's module and the student must be enrolled in it;
// the letter grade is derived from the grading table at write time.
func (svc *Service) RecordGrade(actor user.User, ng NewGrade) (Grade, error) {
	ass, err := svc.repo.GetAssessmentByID(ng.AssessmentID)
	if err != nil {
		return Grade{}, err
	}
	if err := svc.checkStudentAccess(actor, ass.ModuleID, ng.StudentID); err != nil {
		return Grade{}, err
	}
	// legacy rows may carry a zero total, which would make the percentage NaN
	if ass.TotalMarks <= 0 {
		return Grade{}, core.NewValidationError(nil, core.FieldError{
			Field: "assessment_id",
			Error: "assessment " + ass.ID + " has no total marks to grade against",
		})
	}
	if ng.Marks > float64(ass.TotalMarks) {
		return Grade{}, core.NewValidationError(nil, core.FieldError{
			Field: "marks",
			Error: fmt.Sprintf("marks exceed the assessment total of %d", ass.TotalMarks),
		})
	}

	letter, err := svc.LetterFor(ng.Marks / float64(ass.TotalMarks) * 100)
	if err != nil {
		return Grade{}, err
	}
	id, err := svc.repo.NextGradeID()
	if err != nil {
		return Grade{}, err
	}
	return svc.repo.CreateGrade(Grade{
		ID:           id,
		AssessmentID: ass.ID,
		StudentID:    ng.StudentID,
		Marks:        ng.Marks,
		Grade:        letter,
		LecturerID:   actor.ID,
		Date:         time.Now().Format(DateLayout),
	})
}

// Feedback

func (svc *Service) QueryAllFeedback() ([]Feedback, error) {
	return svc.repo.QueryAllFeedback()
}

// GiveFeedback writes feedback for an (assessment, student) pair. At most one
// row exists per pair: a second write replaces the first (last write wins).
func (svc *Service) GiveFeedback(actor user.User, nf NewFeedback) (Feedback, error) {
	ass, err := svc.repo.GetAssessmentByID(nf.AssessmentID)
	if err != nil {
		return Feedback{}, err
	}
	if err := svc.checkStudentAccess(actor, ass.ModuleID, nf.StudentID); err != nil {
		return Feedback{}, err
	}

	date := time.Now().Format(DateLayout)
	if fb, err := svc.repo.GetFeedbackByPair(nf.AssessmentID, nf.StudentID); err == nil {
		fb.LecturerID = actor.ID
		fb.Text = nf.Text
		fb.Date = date
		return svc.repo.UpdateFeedback(fb)
	} else if err != ErrFeedbackNotFound {
		return Feedback{}, err
	}

	id, err := svc.repo.NextFeedbackID()
	if err != nil {
		return Feedback{}, err
	}
	return svc.repo.CreateFeedback(Feedback{
		ID:           id,
		AssessmentID: nf.AssessmentID,
		StudentID:    nf.StudentID,
		LecturerID:   actor.ID,
		Text:         nf.Text,
		Date:         date,
	})
}

// Comments

func (svc *Service) QueryAllComments() ([]Comment, error) {
	return svc.repo.QueryAllComments()
}

// AddComment appends a comment on a student within a module. Comments are
// append-only; they are never edited or replaced.
func (svc *Service) AddComment(actor user.User, nc NewComment) (Comment, error) {
	if err := svc.checkStudentAccess(actor, nc.ModuleID, nc.StudentID); err != nil {
		return Comment{}, err
	}
	id, err := svc.repo.NextCommentID()
	if err != nil {
		return Comment{}, err
	}
	return svc.repo.CreateComment(Comment{
		ID:         id,
		StudentID:  nc.StudentID,
		LecturerID: actor.ID,
		ModuleID:   nc.ModuleID,
		Text:       nc.Text,
		Date:       time.Now().Format(DateLayout),
	})
}

// Grading rules

func (svc *Service) QueryAllGradingRules() ([]GradingRule, error) {
	return svc.repo.QueryAllGradingRules()
}

func (svc *Service) CreateGradingRule(nr NewGradingRule) (GradingRule, error) {
	if _, err := svc.repo.GetGradingRuleByGrade(nr.Grade); err == nil {
		return GradingRule{}, core.NewValidationError(nil, core.FieldError{
			Field: "grade", Error: "a rule for this grade already exists: " + nr.Grade,
		})
	} else if err != ErrRuleNotFound {
		return GradingRule{}, err
	}
	if err := svc.checkRangeOverlap(nr, ""); err != nil {
		return GradingRule{}, err
	}
	rule := GradingRule{Grade: nr.Grade, Min: nr.Min, Max: nr.Max}
	return rule, svc.repo.CreateGradingRule(rule)
}

func (svc *Service) UpdateGradingRule(grade string, nr NewGradingRule) (GradingRule, error) {
	if _, err := svc.repo.GetGradingRuleByGrade(grade); err != nil {
		return GradingRule{}, err
	}
	renamed := !strings.EqualFold(nr.Grade, grade)
	if renamed {
		if _, err := svc.repo.GetGradingRuleByGrade(nr.Grade); err == nil {
			return GradingRule{}, core.NewValidationError(nil, core.FieldError{
				Field: "grade", Error: "a rule for this grade already exists: " + nr.Grade,
			})
		} else if err != ErrRuleNotFound {
			return GradingRule{}, err
		}
	}
	if err := svc.checkRangeOverlap(nr, grade); err != nil {
		return GradingRule{}, err
	}

	rule := GradingRule{Grade: nr.Grade, Min: nr.Min, Max: nr.Max}
	if renamed { // the grade symbol is the row key; renaming replaces the row
		if err := svc.repo.DeleteGradingRuleByGrade(grade); err != nil {
			return GradingRule{}, err
		}
		return rule, svc.repo.CreateGradingRule(rule)
	}
	return rule, svc.repo.UpdateGradingRule(rule)
}

func (svc *Service) DeleteGradingRule(grade string) error {
	if _, err := svc.repo.GetGradingRuleByGrade(grade); err != nil {
		return err
	}
	return svc.repo.DeleteGradingRuleByGrade(grade)
}

// LetterFor resolves a percentage to the letter grade of the rule covering it.
func (svc *Service) LetterFor(pct float64) (string, error) {
	rules, err := svc.repo.QueryAllGradingRules()
	if err != nil {
		return "", err
	}
	for _, rule := range rules {
		if pct >= float64(rule.Min) && pct <= float64(rule.Max) {
			return rule.Grade, nil
		}
	}
	return "", core.NewValidationError(nil, core.FieldError{
		Field: "marks",
		Error: fmt.Sprintf("no grading rule covers %.1f%%; configure the grading scale first", pct),
	})
}

// checks

// checkModuleOwnership ensures the module exists and, for lecturers, that the
// actor is the module's assigned lecturer.
func (svc *Service) checkModuleOwnership(actor user.User, moduleID string) error {
	mod, err := svc.modules.GetByID(moduleID)
	if err != nil {
		if err == module.ErrNotFound {
			return core.NewValidationError(nil, core.FieldError{
				Field: "module_id", Error: "module does not exist: " + moduleID,
			})
		}
		return err
	}
	if actor.IsLecturer() && !strings.EqualFold(mod.LecturerID, actor.ID) {
		return core.NewValidationError(nil, core.FieldError{
			Field: "module_id", Error: "module " + mod.Code + " is not assigned to you",
		})
	}
	return nil
}

func (svc *Service) checkStudentAccess(actor user.User, moduleID, studentID string) error {
	if err := svc.checkModuleOwnership(actor, moduleID); err != nil {
		return err
	}
	enrolled, err := svc.modules.IsEnrolled(studentID, moduleID)
	if err != nil {
		return err
	}
	if !enrolled {
		return core.NewValidationError(nil, core.FieldError{
			Field: "student_id",
			Error: fmt.Sprintf("student %s is not enrolled in this module", studentID),
		})
	}
	return nil
}

// checkWeightageCap recomputes the module's weightage total from all other
// assessments plus the candidate and rejects totals above 100.
func (svc *Service) checkWeightageCap(moduleID, excludeID string, candidate int) error {
	asses, err := svc.repo.QueryAssessmentsByModuleID(moduleID)
	if err != nil {
		return err
	}
	sum := candidate
	for _, ass := range asses {
		if ass.ID != excludeID {
			sum += ass.Weightage
		}
	}
	if sum > 100 {
		return core.NewValidationError(nil, core.FieldError{
			Field: "weightage",
			Error: fmt.Sprintf("combined weightage for this module would reach %d%%", sum),
		})
	}
	return nil
}

// checkRangeOverlap rejects a candidate range intersecting any other rule.
// Two closed ranges overlap iff cand.Max >= other.Min && cand.Min <= other.Max.
func (svc *Service) checkRangeOverlap(nr NewGradingRule, excludeGrade string) error {
	rules, err := svc.repo.QueryAllGradingRules()
	if err != nil {
		return err
	}
	for _, rule := range rules {
		if excludeGrade != "" && strings.EqualFold(rule.Grade, excludeGrade) {
			continue
		}
		if nr.Max >= rule.Min && nr.Min <= rule.Max {
			return core.NewValidationError(nil, core.FieldError{
				Field: "min",
				Error: fmt.Sprintf("range %d-%d overlaps rule %s (%d-%d)", nr.Min, nr.Max, rule.Grade, rule.Min, rule.Max),
			})
		}
	}
	return nil
}
