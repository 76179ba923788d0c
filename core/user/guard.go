package user

import (
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

// reference declares one foreign-key-style column that may point back at a
// user of a given role. The guard iterates these generically instead of
// hand-coding a scan per role.
type reference struct {
	File   string
	Column int
	Reason string
}

var roleReferences = map[string][]reference{
	RoleLeader: {
		{File: core.ModulesFile, Column: 4, Reason: "leader still owns modules"},
		{File: core.LeaderLecturerFile, Column: 0, Reason: "leader still has assigned lecturers"},
	},
	RoleLecturer: {
		{File: core.ModulesFile, Column: 5, Reason: "lecturer is still assigned to a module"},
		{File: core.LeaderLecturerFile, Column: 1, Reason: "lecturer is still assigned to a leader"},
		{File: core.GradesFile, Column: 5, Reason: "lecturer has recorded grades"},
		{File: core.FeedbackFile, Column: 3, Reason: "lecturer has written feedback"},
		{File: core.CommentsFile, Column: 2, Reason: "lecturer has written comments"},
	},
	RoleStudent: {
		{File: core.StudentClassesFile, Column: 0, Reason: "student is registered in classes"},
		{File: core.GradesFile, Column: 2, Reason: "student has recorded grades"},
		{File: core.FeedbackFile, Column: 2, Reason: "student has received feedback"},
		{File: core.CommentsFile, Column: 1, Reason: "student has received comments"},
	},
}

// checkDependencies scans every file column that may reference `usr` under
// their current role. It mutates nothing; a match blocks the caller with a
// DependencyError listing all matched files.
func (svc *Service) checkDependencies(usr User) error {
	refs, ok := roleReferences[usr.Role]
	if !ok { // admins are referenced nowhere
		return nil
	}

	keys := []string{usr.ID}
	switch {
	case usr.IsLecturer():
		// some files key lecturers by username instead of id
		keys = append(keys, usr.Username)
	case usr.IsStudent():
		if sid, err := svc.repo.ResolveStudentID(usr); err == nil && sid != "" {
			keys = append(keys, sid)
		} else if err != nil && err != ErrNotFound {
			return errors.Wrap(err, "resolving student id")
		}
	}

	var matched []core.DependencyRef
	for _, ref := range refs {
		found, err := svc.scanner.ScanColumn(ref.File, ref.Column, keys...)
		if err != nil {
			return errors.Wrapf(err, "scanning %s", ref.File)
		}
		if found {
			matched = append(matched, core.DependencyRef{File: ref.File, Reason: ref.Reason})
		}
	}
	if len(matched) > 0 {
		return core.NewDependencyError(matched...)
	}
	return nil
}
