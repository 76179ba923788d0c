package core

// Names of the persisted record files, all living under Config.DataDir.
// Their pipe-delimited layouts are the system's external interface; the
// dependency guard and the flat-file repositories share these constants.
const (
	UsersFile          = "users"
	ModulesFile        = "modules"
	ClassesFile        = "classes"
	LeaderLecturerFile = "leader_lecturer"
	AssessmentsFile    = "assessments"
	GradesFile         = "grades"
	FeedbackFile       = "feedback"
	CommentsFile       = "comments"
	GradingFile        = "grading"
	StudentClassesFile = "student_classes"
	StudentsFile       = "students"
	LecturersFile      = "lecturers" // derived projection, regenerated only
)
