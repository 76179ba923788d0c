package module

import (
	"sort"
	"strings"

	"github.com/trezcool/shule/core/user"
)

// LecturerRow is one row of the derived lecturers file: the lecturer's user
// profile joined with their current module and leader. The file is fully
// computable from users and modules and must only ever be regenerated.
type LecturerRow struct {
	Username string `json:"username"`
	Password string `json:"-"`
	Name     string `json:"name"`
	Gender   string `json:"gender"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Age      int    `json:"age"`
	ModuleID string `json:"module_id"`
	LeaderID string `json:"leader_id"`
}

// QueryLecturerRows returns the projection as currently persisted.
func (svc *Service) QueryLecturerRows() ([]LecturerRow, error) {
	return svc.repo.QueryLecturerRows()
}

// SyncLecturers regenerates the lecturers projection from the canonical users
// and modules tables. Rows whose username still resolves to a LECTURER are
// overwritten in place (preserving row order), lecturers missing from the
// projection are appended in id order, and stale rows are pruned. Running it
// twice without an intervening canonical change yields byte-identical output.
func (svc *Service) SyncLecturers() error {
	users, err := svc.users.QueryAll()
	if err != nil {
		return err
	}
	byUsername := make(map[string]user.User)
	byID := make(map[string]user.User)
	ids := make([]string, 0, len(users))
	for _, u := range users {
		if u.IsLecturer() {
			byUsername[strings.ToLower(u.Username)] = u
			byID[u.ID] = u
			ids = append(ids, u.ID)
		}
	}

	mods, err := svc.repo.QueryAllModules()
	if err != nil {
		return err
	}
	// the one-module-per-lecturer invariant caps this to a single entry;
	// should the file ever violate it, the last module found wins
	teaching := make(map[string]Module)
	for _, mod := range mods {
		if mod.LecturerID != "" {
			teaching[strings.ToUpper(mod.LecturerID)] = mod
		}
	}

	existing, err := svc.repo.QueryLecturerRows()
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(existing))
	rows := make([]LecturerRow, 0, len(ids))
	for _, row := range existing {
		u, ok := byUsername[strings.ToLower(row.Username)]
		if !ok || seen[u.ID] {
			continue // pruned: no longer a lecturer (or a duplicate row)
		}
		rows = append(rows, newLecturerRow(u, teaching))
		seen[u.ID] = true
	}

	sort.Strings(ids)
	for _, id := range ids {
		if !seen[id] {
			rows = append(rows, newLecturerRow(byID[id], teaching))
		}
	}
	return svc.repo.ReplaceLecturerRows(rows)
}

func newLecturerRow(u user.User, teaching map[string]Module) LecturerRow {
	mod := teaching[strings.ToUpper(u.ID)]
	return LecturerRow{
		Username: u.Username,
		Password: u.PasswordHash,
		Name:     u.Name,
		Gender:   u.Gender,
		Email:    u.Email,
		Phone:    u.Phone,
		Age:      u.Age,
		ModuleID: mod.ID,
		LeaderID: mod.LeaderID,
	}
}
