package flatfile

import (
	"strconv"
	"strings"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assessment"
)

// assessments layout: id|moduleId|name|type|totalMarks|weightage|createdBy
func parseAssessment(f []string) (assessment.Assessment, bool) {
	if len(f) != 7 {
		return assessment.Assessment{}, false
	}
	total, err := strconv.Atoi(f[4])
	if err != nil {
		return assessment.Assessment{}, false
	}
	weight, err := strconv.Atoi(f[5])
	if err != nil {
		return assessment.Assessment{}, false
	}
	return assessment.Assessment{
		ID:         f[0],
		ModuleID:   f[1],
		Name:       f[2],
		Type:       f[3],
		TotalMarks: total,
		Weightage:  weight,
		CreatedBy:  f[6],
	}, true
}

func marshalAssessment(ass assessment.Assessment) []string {
	return []string{
		ass.ID,
		ass.ModuleID,
		ass.Name,
		ass.Type,
		strconv.Itoa(ass.TotalMarks),
		strconv.Itoa(ass.Weightage),
		ass.CreatedBy,
	}
}

// grades layout: id|assessmentId|studentId|marks|grade|lecturerId|date
func parseGrade(f []string) (assessment.Grade, bool) {
	if len(f) != 7 {
		return assessment.Grade{}, false
	}
	marks, err := strconv.ParseFloat(f[3], 64)
	if err != nil {
		return assessment.Grade{}, false
	}
	return assessment.Grade{
		ID:           f[0],
		AssessmentID: f[1],
		StudentID:    f[2],
		Marks:        marks,
		Grade:        f[4],
		LecturerID:   f[5],
		Date:         f[6],
	}, true
}

func marshalGrade(grd assessment.Grade) []string {
	return []string{
		grd.ID,
		grd.AssessmentID,
		grd.StudentID,
		strconv.FormatFloat(grd.Marks, 'f', -1, 64),
		grd.Grade,
		grd.LecturerID,
		grd.Date,
	}
}

// feedback layout: id|assessmentId|studentId|lecturerId|text|date
func parseFeedback(f []string) (assessment.Feedback, bool) {
	if len(f) != 6 {
		return assessment.Feedback{}, false
	}
	return assessment.Feedback{
		ID:           f[0],
		AssessmentID: f[1],
		StudentID:    f[2],
		LecturerID:   f[3],
		Text:         f[4],
		Date:         f[5],
	}, true
}

func marshalFeedback(fb assessment.Feedback) []string {
	return []string{fb.ID, fb.AssessmentID, fb.StudentID, fb.LecturerID, fb.Text, fb.Date}
}

// comments layout: id|studentId|lecturerId|moduleId|text|date
func parseComment(f []string) (assessment.Comment, bool) {
	if len(f) != 6 {
		return assessment.Comment{}, false
	}
	return assessment.Comment{
		ID:         f[0],
		StudentID:  f[1],
		LecturerID: f[2],
		ModuleID:   f[3],
		Text:       f[4],
		Date:       f[5],
	}, true
}

func marshalComment(cmt assessment.Comment) []string {
	return []string{cmt.ID, cmt.StudentID, cmt.LecturerID, cmt.ModuleID, cmt.Text, cmt.Date}
}

// grading layout: grade|min|max
func parseGradingRule(f []string) (assessment.GradingRule, bool) {
	if len(f) != 3 {
		return assessment.GradingRule{}, false
	}
	min, err := strconv.Atoi(f[1])
	if err != nil {
		return assessment.GradingRule{}, false
	}
	max, err := strconv.Atoi(f[2])
	if err != nil {
		return assessment.GradingRule{}, false
	}
	return assessment.GradingRule{Grade: f[0], Min: min, Max: max}, true
}

func marshalGradingRule(rule assessment.GradingRule) []string {
	return []string{rule.Grade, strconv.Itoa(rule.Min), strconv.Itoa(rule.Max)}
}

type assessmentRepository struct {
	store *Store
}

var _ assessment.Repository = (*assessmentRepository)(nil)

func NewAssessmentRepository(store *Store) *assessmentRepository {
	return &assessmentRepository{store: store}
}

// Assessments

func (repo *assessmentRepository) QueryAllAssessments() ([]assessment.Assessment, error) {
	rows, err := repo.store.ReadAll(core.AssessmentsFile)
	if err != nil {
		return nil, err
	}
	asses := make([]assessment.Assessment, 0, len(rows))
	for _, row := range rows {
		if ass, ok := parseAssessment(row); ok {
			asses = append(asses, ass)
		}
	}
	return asses, nil
}

func (repo *assessmentRepository) QueryAssessmentsByModuleID(moduleID string) ([]assessment.Assessment, error) {
	asses, err := repo.QueryAllAssessments()
	if err != nil {
		return nil, err
	}
	matched := asses[:0]
	for _, ass := range asses {
		if strings.EqualFold(ass.ModuleID, moduleID) {
			matched = append(matched, ass)
		}
	}
	return matched, nil
}

func (repo *assessmentRepository) GetAssessmentByID(id string) (assessment.Assessment, error) {
	asses, err := repo.QueryAllAssessments()
	if err != nil {
		return assessment.Assessment{}, err
	}
	for _, ass := range asses {
		if strings.EqualFold(ass.ID, id) {
			return ass, nil
		}
	}
	return assessment.Assessment{}, assessment.ErrNotFound
}

func (repo *assessmentRepository) NextAssessmentID() (string, error) {
	return repo.store.nextSequentialID(core.AssessmentsFile, "AS")
}

func (repo *assessmentRepository) CreateAssessment(ass assessment.Assessment) (assessment.Assessment, error) {
	if err := repo.store.Append(core.AssessmentsFile, marshalAssessment(ass)); err != nil {
		return assessment.Assessment{}, err
	}
	return ass, nil
}

func (repo *assessmentRepository) UpdateAssessment(ass assessment.Assessment) (assessment.Assessment, error) {
	found, err := repo.store.UpdateByID(core.AssessmentsFile, ass.ID, marshalAssessment(ass))
	if err != nil {
		return assessment.Assessment{}, err
	}
	if !found {
		return assessment.Assessment{}, assessment.ErrNotFound
	}
	return ass, nil
}

func (repo *assessmentRepository) DeleteAssessmentByID(id string) error {
	deleted, err := repo.store.DeleteByID(core.AssessmentsFile, id)
	if err != nil {
		return err
	}
	if !deleted {
		return assessment.ErrNotFound
	}
	return nil
}

// Grades

func (repo *assessmentRepository) QueryAllGrades() ([]assessment.Grade, error) {
	rows, err := repo.store.ReadAll(core.GradesFile)
	if err != nil {
		return nil, err
	}
	grades := make([]assessment.Grade, 0, len(rows))
	for _, row := range rows {
		if grd, ok := parseGrade(row); ok {
			grades = append(grades, grd)
		}
	}
	return grades, nil
}

func (repo *assessmentRepository) NextGradeID() (string, error) {
	return repo.store.nextSequentialID(core.GradesFile, "G")
}

func (repo *assessmentRepository) CreateGrade(grd assessment.Grade) (assessment.Grade, error) {
	if err := repo.store.Append(core.GradesFile, marshalGrade(grd)); err != nil {
		return assessment.Grade{}, err
	}
	return grd, nil
}

// Feedback

func (repo *assessmentRepository) QueryAllFeedback() ([]assessment.Feedback, error) {
	rows, err := repo.store.ReadAll(core.FeedbackFile)
	if err != nil {
		return nil, err
	}
	fbs := make([]assessment.Feedback, 0, len(rows))
	for _, row := range rows {
		if fb, ok := parseFeedback(row); ok {
			fbs = append(fbs, fb)
		}
	}
	return fbs, nil
}

func (repo *assessmentRepository) GetFeedbackByPair(assessmentID, studentID string) (assessment.Feedback, error) {
	fbs, err := repo.QueryAllFeedback()
	if err != nil {
		return assessment.Feedback{}, err
	}
	for _, fb := range fbs {
		if strings.EqualFold(fb.AssessmentID, assessmentID) && strings.EqualFold(fb.StudentID, studentID) {
			return fb, nil
		}
	}
	return assessment.Feedback{}, assessment.ErrFeedbackNotFound
}

func (repo *assessmentRepository) NextFeedbackID() (string, error) {
	return repo.store.nextSequentialID(core.FeedbackFile, "FB")
}

func (repo *assessmentRepository) CreateFeedback(fb assessment.Feedback) (assessment.Feedback, error) {
	if err := repo.store.Append(core.FeedbackFile, marshalFeedback(fb)); err != nil {
		return assessment.Feedback{}, err
	}
	return fb, nil
}

func (repo *assessmentRepository) UpdateFeedback(fb assessment.Feedback) (assessment.Feedback, error) {
	found, err := repo.store.UpdateByID(core.FeedbackFile, fb.ID, marshalFeedback(fb))
	if err != nil {
		return assessment.Feedback{}, err
	}
	if !found {
		return assessment.Feedback{}, assessment.ErrFeedbackNotFound
	}
	return fb, nil
}

// Comments

func (repo *assessmentRepository) QueryAllComments() ([]assessment.Comment, error) {
	rows, err := repo.store.ReadAll(core.CommentsFile)
	if err != nil {
		return nil, err
	}
	cmts := make([]assessment.Comment, 0, len(rows))
	for _, row := range rows {
		if cmt, ok := parseComment(row); ok {
			cmts = append(cmts, cmt)
		}
	}
	return cmts, nil
}

func (repo *assessmentRepository) NextCommentID() (string, error) {
	return repo.store.nextSequentialID(core.CommentsFile, "CM")
}

func (repo *assessmentRepository) CreateComment(cmt assessment.Comment) (assessment.Comment, error) {
	if err := repo.store.Append(core.CommentsFile, marshalComment(cmt)); err != nil {
		return assessment.Comment{}, err
	}
	return cmt, nil
}

// Grading rules

func (repo *assessmentRepository) QueryAllGradingRules() ([]assessment.GradingRule, error) {
	rows, err := repo.store.ReadAll(core.GradingFile)
	if err != nil {
		return nil, err
	}
	rules := make([]assessment.GradingRule, 0, len(rows))
	for _, row := range rows {
		if rule, ok := parseGradingRule(row); ok {
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

func (repo *assessmentRepository) GetGradingRuleByGrade(grade string) (assessment.GradingRule, error) {
	rules, err := repo.QueryAllGradingRules()
	if err != nil {
		return assessment.GradingRule{}, err
	}
	for _, rule := range rules {
		if strings.EqualFold(rule.Grade, grade) {
			return rule, nil
		}
	}
	return assessment.GradingRule{}, assessment.ErrRuleNotFound
}

func (repo *assessmentRepository) CreateGradingRule(rule assessment.GradingRule) error {
	return repo.store.Append(core.GradingFile, marshalGradingRule(rule))
}

func (repo *assessmentRepository) UpdateGradingRule(rule assessment.GradingRule) error {
	found, err := repo.store.UpdateByID(core.GradingFile, rule.Grade, marshalGradingRule(rule))
	if err != nil {
		return err
	}
	if !found {
		return assessment.ErrRuleNotFound
	}
	return nil
}

func (repo *assessmentRepository) DeleteGradingRuleByGrade(grade string) error {
	deleted, err := repo.store.DeleteByID(core.GradingFile, grade)
	if err != nil {
		return err
	}
	if !deleted {
		return assessment.ErrRuleNotFound
	}
	return nil
}
