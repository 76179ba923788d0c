package flatfile

import (
	"strconv"
	"strings"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/module"
)

// modules layout: id|name|code|creditHours|leaderId|lecturerId
func parseModule(f []string) (module.Module, bool) {
	if len(f) != 6 {
		return module.Module{}, false
	}
	credits, err := strconv.Atoi(f[3])
	if err != nil {
		return module.Module{}, false
	}
	return module.Module{
		ID:          f[0],
		Name:        f[1],
		Code:        f[2],
		CreditHours: credits,
		LeaderID:    f[4],
		LecturerID:  f[5],
	}, true
}

func marshalModule(mod module.Module) []string {
	return []string{mod.ID, mod.Name, mod.Code, strconv.Itoa(mod.CreditHours), mod.LeaderID, mod.LecturerID}
}

// classes layout: id|name|moduleId
func parseClass(f []string) (module.Class, bool) {
	if len(f) != 3 {
		return module.Class{}, false
	}
	return module.Class{ID: f[0], Name: f[1], ModuleID: f[2]}, true
}

func marshalClass(cls module.Class) []string {
	return []string{cls.ID, cls.Name, cls.ModuleID}
}

// leader_lecturer layout: leaderId|lecturerId; a literal header line from the
// legacy exporter is skipped.
func parseAssignment(f []string) (module.Assignment, bool) {
	if len(f) != 2 || strings.EqualFold(f[0], "LeaderID") {
		return module.Assignment{}, false
	}
	return module.Assignment{LeaderID: f[0], LecturerID: f[1]}, true
}

// student_classes layout: studentId|classId
func parseRegistration(f []string) (module.Registration, bool) {
	if len(f) != 2 {
		return module.Registration{}, false
	}
	return module.Registration{StudentID: f[0], ClassID: f[1]}, true
}

// lecturers (derived) layout:
// username|password|name|gender|email|phone|age|moduleId|leaderId
func parseLecturerRow(f []string) (module.LecturerRow, bool) {
	if len(f) != 9 {
		return module.LecturerRow{}, false
	}
	age, ok := parseOptionalInt(f[6])
	if !ok {
		return module.LecturerRow{}, false
	}
	return module.LecturerRow{
		Username: f[0],
		Password: f[1],
		Name:     f[2],
		Gender:   f[3],
		Email:    f[4],
		Phone:    f[5],
		Age:      age,
		ModuleID: f[7],
		LeaderID: f[8],
	}, true
}

func marshalLecturerRow(row module.LecturerRow) []string {
	return []string{
		row.Username,
		row.Password,
		row.Name,
		row.Gender,
		row.Email,
		row.Phone,
		strconv.Itoa(row.Age),
		row.ModuleID,
		row.LeaderID,
	}
}

type moduleRepository struct {
	store *Store
}

var _ module.Repository = (*moduleRepository)(nil)

func NewModuleRepository(store *Store) *moduleRepository {
	return &moduleRepository{store: store}
}

// Modules

func (repo *moduleRepository) QueryAllModules() ([]module.Module, error) {
	rows, err := repo.store.ReadAll(core.ModulesFile)
	if err != nil {
		return nil, err
	}
	mods := make([]module.Module, 0, len(rows))
	for _, row := range rows {
		if mod, ok := parseModule(row); ok {
			mods = append(mods, mod)
		}
	}
	return mods, nil
}

func (repo *moduleRepository) GetModuleByID(id string) (module.Module, error) {
	mods, err := repo.QueryAllModules()
	if err != nil {
		return module.Module{}, err
	}
	for _, mod := range mods {
		if strings.EqualFold(mod.ID, id) {
			return mod, nil
		}
	}
	return module.Module{}, module.ErrNotFound
}

func (repo *moduleRepository) GetModuleByCode(code string) (module.Module, error) {
	mods, err := repo.QueryAllModules()
	if err != nil {
		return module.Module{}, err
	}
	for _, mod := range mods {
		if strings.EqualFold(mod.Code, code) {
			return mod, nil
		}
	}
	return module.Module{}, module.ErrNotFound
}

func (repo *moduleRepository) NextModuleID() (string, error) {
	return repo.store.nextSequentialID(core.ModulesFile, "M")
}

func (repo *moduleRepository) CreateModule(mod module.Module) (module.Module, error) {
	if err := repo.store.Append(core.ModulesFile, marshalModule(mod)); err != nil {
		return module.Module{}, err
	}
	return mod, nil
}

func (repo *moduleRepository) UpdateModule(mod module.Module) (module.Module, error) {
	found, err := repo.store.UpdateByID(core.ModulesFile, mod.ID, marshalModule(mod))
	if err != nil {
		return module.Module{}, err
	}
	if !found {
		return module.Module{}, module.ErrNotFound
	}
	return mod, nil
}

func (repo *moduleRepository) DeleteModuleByID(id string) error {
	deleted, err := repo.store.DeleteByID(core.ModulesFile, id)
	if err != nil {
		return err
	}
	if !deleted {
		return module.ErrNotFound
	}
	return nil
}

// Classes

func (repo *moduleRepository) QueryAllClasses() ([]module.Class, error) {
	rows, err := repo.store.ReadAll(core.ClassesFile)
	if err != nil {
		return nil, err
	}
	classes := make([]module.Class, 0, len(rows))
	for _, row := range rows {
		if cls, ok := parseClass(row); ok {
			classes = append(classes, cls)
		}
	}
	return classes, nil
}

func (repo *moduleRepository) GetClassByID(id string) (module.Class, error) {
	classes, err := repo.QueryAllClasses()
	if err != nil {
		return module.Class{}, err
	}
	for _, cls := range classes {
		if strings.EqualFold(cls.ID, id) {
			return cls, nil
		}
	}
	return module.Class{}, module.ErrClassNotFound
}

func (repo *moduleRepository) GetClassByModuleID(moduleID string) (module.Class, error) {
	classes, err := repo.QueryAllClasses()
	if err != nil {
		return module.Class{}, err
	}
	for _, cls := range classes {
		if strings.EqualFold(cls.ModuleID, moduleID) {
			return cls, nil
		}
	}
	return module.Class{}, module.ErrClassNotFound
}

func (repo *moduleRepository) NextClassID() (string, error) {
	return repo.store.nextSequentialID(core.ClassesFile, "C")
}

func (repo *moduleRepository) CreateClass(cls module.Class) (module.Class, error) {
	if err := repo.store.Append(core.ClassesFile, marshalClass(cls)); err != nil {
		return module.Class{}, err
	}
	return cls, nil
}

func (repo *moduleRepository) DeleteClassByID(id string) error {
	deleted, err := repo.store.DeleteByID(core.ClassesFile, id)
	if err != nil {
		return err
	}
	if !deleted {
		return module.ErrClassNotFound
	}
	return nil
}

// Leader-lecturer assignments

func (repo *moduleRepository) QueryAllAssignments() ([]module.Assignment, error) {
	rows, err := repo.store.ReadAll(core.LeaderLecturerFile)
	if err != nil {
		return nil, err
	}
	asgs := make([]module.Assignment, 0, len(rows))
	for _, row := range rows {
		if asg, ok := parseAssignment(row); ok {
			asgs = append(asgs, asg)
		}
	}
	return asgs, nil
}

func (repo *moduleRepository) CreateAssignment(asg module.Assignment) error {
	return repo.store.Append(core.LeaderLecturerFile, []string{asg.LeaderID, asg.LecturerID})
}

// DeleteAssignment removes every row for the (leader, lecturer) pair; rows it
// does not touch (the optional header included) are written back untouched.
func (repo *moduleRepository) DeleteAssignment(leaderID, lecturerID string) error {
	rows, err := repo.store.ReadAll(core.LeaderLecturerFile)
	if err != nil {
		return err
	}
	kept := rows[:0]
	for _, row := range rows {
		if len(row) == 2 && strings.EqualFold(row[0], leaderID) && strings.EqualFold(row[1], lecturerID) {
			continue
		}
		kept = append(kept, row)
	}
	return repo.store.ReplaceAll(core.LeaderLecturerFile, kept)
}

// Registrations

func (repo *moduleRepository) QueryAllRegistrations() ([]module.Registration, error) {
	rows, err := repo.store.ReadAll(core.StudentClassesFile)
	if err != nil {
		return nil, err
	}
	regs := make([]module.Registration, 0, len(rows))
	for _, row := range rows {
		if reg, ok := parseRegistration(row); ok {
			regs = append(regs, reg)
		}
	}
	return regs, nil
}

func (repo *moduleRepository) CreateRegistration(reg module.Registration) error {
	return repo.store.Append(core.StudentClassesFile, []string{reg.StudentID, reg.ClassID})
}

// Derived lecturer projection

func (repo *moduleRepository) QueryLecturerRows() ([]module.LecturerRow, error) {
	rows, err := repo.store.ReadAll(core.LecturersFile)
	if err != nil {
		return nil, err
	}
	lects := make([]module.LecturerRow, 0, len(rows))
	for _, row := range rows {
		if lect, ok := parseLecturerRow(row); ok {
			lects = append(lects, lect)
		}
	}
	return lects, nil
}

func (repo *moduleRepository) ReplaceLecturerRows(lects []module.LecturerRow) error {
	records := make([][]string, 0, len(lects))
	for _, lect := range lects {
		records = append(records, marshalLecturerRow(lect))
	}
	return repo.store.ReplaceAll(core.LecturersFile, records)
}
