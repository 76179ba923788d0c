package module

import (
	"errors"
	"fmt"
	"strings"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

const (
	maxModulesPerLeader   = 3
	maxLecturersPerLeader = 3
)

var (
	// errors
	ErrNotFound      = errors.New("module not found")
	ErrClassNotFound = errors.New("class not found")
)

type (
	Repository interface {
		QueryAllModules() ([]Module, error)
		GetModuleByID(id string) (Module, error)
		GetModuleByCode(code string) (Module, error)
		NextModuleID() (string, error)
		CreateModule(mod Module) (Module, error)
		UpdateModule(mod Module) (Module, error)
		DeleteModuleByID(id string) error

		QueryAllClasses() ([]Class, error)
		GetClassByID(id string) (Class, error)
		GetClassByModuleID(moduleID string) (Class, error)
		NextClassID() (string, error)
		CreateClass(cls Class) (Class, error)
		DeleteClassByID(id string) error

		QueryAllAssignments() ([]Assignment, error)
		CreateAssignment(asg Assignment) error
		DeleteAssignment(leaderID, lecturerID string) error

		QueryAllRegistrations() ([]Registration, error)
		CreateRegistration(reg Registration) error

		QueryLecturerRows() ([]LecturerRow, error)
		ReplaceLecturerRows(rows []LecturerRow) error
	}

	// UserDirectory is the slice of the user service this package needs.
	UserDirectory interface {
		GetByID(id string) (user.User, error)
		QueryAll() ([]user.User, error)
	}

	Service struct {
		repo  Repository
		users UserDirectory
	}
)

func NewService(repo Repository, users UserDirectory) *Service {
	return &Service{repo: repo, users: users}
}

func (svc *Service) QueryAll() ([]Module, error) {
	return svc.repo.QueryAllModules()
}

func (svc *Service) GetByID(id string) (Module, error) {
	return svc.repo.GetModuleByID(id)
}

func (svc *Service) Create(nm NewModule) (Module, error) {
	if err := svc.checkCodeUniqueness(nm.Code); err != nil {
		return Module{}, err
	}
	if err := svc.checkLeaderCap(nm.LeaderID); err != nil {
		return Module{}, err
	}
	if err := svc.checkRole(nm.LeaderID, user.RoleLeader, "leader_id"); err != nil {
		return Module{}, err
	}

	id, err := svc.repo.NextModuleID()
	if err != nil {
		return Module{}, err
	}
	mod, err := svc.repo.CreateModule(Module{
		ID:          id,
		Name:        nm.Name,
		Code:        nm.Code,
		CreditHours: nm.CreditHours,
		LeaderID:    nm.LeaderID,
	})
	if err != nil {
		return Module{}, err
	}
	return mod, svc.SyncLecturers()
}

func (svc *Service) Update(id string, um UpdateModule) (Module, error) {
	mod, err := svc.repo.GetModuleByID(id)
	if err != nil {
		return Module{}, err
	}
	if um.Code != "" && !strings.EqualFold(um.Code, mod.Code) {
		if err := svc.checkCodeUniqueness(um.Code); err != nil {
			return Module{}, err
		}
		mod.Code = um.Code
	}
	if um.Name != "" {
		mod.Name = um.Name
	}
	if um.CreditHours != 0 {
		mod.CreditHours = um.CreditHours
	}
	mod, err = svc.repo.UpdateModule(mod)
	if err != nil {
		return Module{}, err
	}
	return mod, svc.SyncLecturers()
}

func (svc *Service) Delete(id string) error {
	if _, err := svc.repo.GetModuleByID(id); err != nil {
		return err
	}
	if err := svc.repo.DeleteModuleByID(id); err != nil {
		return err
	}
	return svc.SyncLecturers()
}

// AssignLecturer puts `lecturerID` in charge of the module. The acting leader
// must own the module, the lecturer must work under that leader per the
// assignment table, and a lecturer teaches at most one module at a time.
func (svc *Service) AssignLecturer(actor user.User, moduleID, lecturerID string) (Module, error) {
	lecturerID = core.CleanString(lecturerID)

	mod, err := svc.repo.GetModuleByID(moduleID)
	if err != nil {
		return Module{}, err
	}
	if actor.IsLeader() && !strings.EqualFold(mod.LeaderID, actor.ID) {
		return Module{}, core.NewValidationError(nil, core.FieldError{
			Field: "module_id", Error: "this module is not owned by you",
		})
	}
	if err := svc.checkRole(lecturerID, user.RoleLecturer, "lecturer_id"); err != nil {
		return Module{}, err
	}

	assigned, err := svc.isAssignedToLeader(mod.LeaderID, lecturerID)
	if err != nil {
		return Module{}, err
	}
	if !assigned {
		return Module{}, core.NewValidationError(nil, core.FieldError{
			Field: "lecturer_id",
			Error: fmt.Sprintf("lecturer %s is not assigned to you", lecturerID),
		})
	}

	// a lecturer owns at most one module at a time
	mods, err := svc.repo.QueryAllModules()
	if err != nil {
		return Module{}, err
	}
	for _, m := range mods {
		if m.ID != mod.ID && strings.EqualFold(m.LecturerID, lecturerID) {
			return Module{}, core.NewValidationError(nil, core.FieldError{
				Field: "lecturer_id",
				Error: fmt.Sprintf("lecturer %s already teaches module %s", lecturerID, m.Code),
			})
		}
	}

	mod.LecturerID = lecturerID
	mod, err = svc.repo.UpdateModule(mod)
	if err != nil {
		return Module{}, err
	}
	return mod, svc.SyncLecturers()
}

func (svc *Service) UnassignLecturer(actor user.User, moduleID string) (Module, error) {
	mod, err := svc.repo.GetModuleByID(moduleID)
	if err != nil {
		return Module{}, err
	}
	if actor.IsLeader() && !strings.EqualFold(mod.LeaderID, actor.ID) {
		return Module{}, core.NewValidationError(nil, core.FieldError{
			Field: "module_id", Error: "this module is not owned by you",
		})
	}
	mod.LecturerID = ""
	mod, err = svc.repo.UpdateModule(mod)
	if err != nil {
		return Module{}, err
	}
	return mod, svc.SyncLecturers()
}

// Classes

func (svc *Service) QueryAllClasses() ([]Class, error) {
	return svc.repo.QueryAllClasses()
}

func (svc *Service) CreateClass(nc NewClass) (Class, error) {
	if _, err := svc.repo.GetModuleByID(nc.ModuleID); err != nil {
		if err == ErrNotFound {
			return Class{}, core.NewValidationError(nil, core.FieldError{
				Field: "module_id", Error: "module does not exist: " + nc.ModuleID,
			})
		}
		return Class{}, err
	}

	// exactly one class per module
	if _, err := svc.repo.GetClassByModuleID(nc.ModuleID); err == nil {
		return Class{}, core.NewValidationError(nil, core.FieldError{
			Field: "module_id", Error: "module already has a class: " + nc.ModuleID,
		})
	} else if err != ErrClassNotFound {
		return Class{}, err
	}

	id, err := svc.repo.NextClassID()
	if err != nil {
		return Class{}, err
	}
	return svc.repo.CreateClass(Class{ID: id, Name: nc.Name, ModuleID: nc.ModuleID})
}

func (svc *Service) DeleteClass(id string) error {
	if _, err := svc.repo.GetClassByID(id); err != nil {
		return err
	}
	return svc.repo.DeleteClassByID(id)
}

// Leader-lecturer assignments

func (svc *Service) QueryAllAssignments() ([]Assignment, error) {
	return svc.repo.QueryAllAssignments()
}

func (svc *Service) CreateAssignment(na NewAssignment) (Assignment, error) {
	if err := svc.checkRole(na.LeaderID, user.RoleLeader, "leader_id"); err != nil {
		return Assignment{}, err
	}
	if err := svc.checkRole(na.LecturerID, user.RoleLecturer, "lecturer_id"); err != nil {
		return Assignment{}, err
	}

	asgs, err := svc.repo.QueryAllAssignments()
	if err != nil {
		return Assignment{}, err
	}
	var leaderCount int
	for _, asg := range asgs {
		if strings.EqualFold(asg.LecturerID, na.LecturerID) {
			return Assignment{}, core.NewValidationError(nil, core.FieldError{
				Field: "lecturer_id",
				Error: fmt.Sprintf("lecturer %s is already assigned to leader %s", na.LecturerID, asg.LeaderID),
			})
		}
		if strings.EqualFold(asg.LeaderID, na.LeaderID) {
			leaderCount++
		}
	}
	if leaderCount >= maxLecturersPerLeader {
		return Assignment{}, core.NewValidationError(nil, core.FieldError{
			Field: "leader_id",
			Error: fmt.Sprintf("leader %s already has %d lecturers", na.LeaderID, maxLecturersPerLeader),
		})
	}

	asg := Assignment{LeaderID: na.LeaderID, LecturerID: na.LecturerID}
	if err := svc.repo.CreateAssignment(asg); err != nil {
		return Assignment{}, err
	}
	return asg, svc.SyncLecturers()
}

func (svc *Service) DeleteAssignment(leaderID, lecturerID string) error {
	if err := svc.repo.DeleteAssignment(leaderID, lecturerID); err != nil {
		return err
	}
	return svc.SyncLecturers()
}

// Registrations

func (svc *Service) QueryAllRegistrations() ([]Registration, error) {
	return svc.repo.QueryAllRegistrations()
}

func (svc *Service) RegisterStudent(nr NewRegistration) (Registration, error) {
	if _, err := svc.repo.GetClassByID(nr.ClassID); err != nil {
		if err == ErrClassNotFound {
			return Registration{}, core.NewValidationError(nil, core.FieldError{
				Field: "class_id", Error: "class does not exist: " + nr.ClassID,
			})
		}
		return Registration{}, err
	}

	regs, err := svc.repo.QueryAllRegistrations()
	if err != nil {
		return Registration{}, err
	}
	for _, reg := range regs {
		if strings.EqualFold(reg.StudentID, nr.StudentID) && strings.EqualFold(reg.ClassID, nr.ClassID) {
			return Registration{}, core.NewValidationError(nil, core.FieldError{
				Field: "class_id", Error: "student is already registered in this class",
			})
		}
	}

	reg := Registration{StudentID: nr.StudentID, ClassID: nr.ClassID}
	return reg, svc.repo.CreateRegistration(reg)
}

// IsEnrolled reports whether the student (by student number) is enrolled in
// the module through a class registration.
func (svc *Service) IsEnrolled(studentID, moduleID string) (bool, error) {
	regs, err := svc.repo.QueryAllRegistrations()
	if err != nil {
		return false, err
	}
	for _, reg := range regs {
		if !strings.EqualFold(reg.StudentID, studentID) {
			continue
		}
		cls, err := svc.repo.GetClassByID(reg.ClassID)
		if err != nil {
			if err == ErrClassNotFound {
				continue
			}
			return false, err
		}
		if strings.EqualFold(cls.ModuleID, moduleID) {
			return true, nil
		}
	}
	return false, nil
}

// checks

func (svc *Service) checkCodeUniqueness(code string) error {
	if _, err := svc.repo.GetModuleByCode(code); err == nil {
		return core.NewValidationError(nil, core.FieldError{
			Field: "code", Error: "Module code already exists: " + code,
		})
	} else if err != ErrNotFound {
		return err
	}
	return nil
}

func (svc *Service) checkLeaderCap(leaderID string) error {
	mods, err := svc.repo.QueryAllModules()
	if err != nil {
		return err
	}
	var count int
	for _, mod := range mods {
		if strings.EqualFold(mod.LeaderID, leaderID) {
			count++
		}
	}
	if count >= maxModulesPerLeader {
		return core.NewValidationError(nil, core.FieldError{
			Field: "leader_id",
			Error: fmt.Sprintf("leader %s already owns %d modules", leaderID, maxModulesPerLeader),
		})
	}
	return nil
}

func (svc *Service) checkRole(id, role, field string) error {
	usr, err := svc.users.GetByID(id)
	if err != nil {
		if err == user.ErrNotFound {
			return core.NewValidationError(nil, core.FieldError{
				Field: field, Error: "user does not exist: " + id,
			})
		}
		return err
	}
	if usr.Role != role {
		return core.NewValidationError(nil, core.FieldError{
			Field: field, Error: fmt.Sprintf("user %s is not a %s", id, role),
		})
	}
	return nil
}

func (svc *Service) isAssignedToLeader(leaderID, lecturerID string) (bool, error) {
	asgs, err := svc.repo.QueryAllAssignments()
	if err != nil {
		return false, err
	}
	for _, asg := range asgs {
		if strings.EqualFold(asg.LeaderID, leaderID) && strings.EqualFold(asg.LecturerID, lecturerID) {
			return true, nil
		}
	}
	return false, nil
}
