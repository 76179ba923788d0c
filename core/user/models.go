package user

import (
	"crypto/subtle"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/shule/core"
)

// Roles
const (
	RoleAdmin    = "ADMIN"
	RoleLeader   = "LEADER"
	RoleLecturer = "LECTURER"
	RoleStudent  = "STUDENT"
)

var (
	AllRoles = []string{RoleAdmin, RoleLeader, RoleLecturer, RoleStudent}

	// id prefixes: ids are role-prefixed, zero-padded sequences (A001, T012, ...)
	idPrefixes = map[string]string{
		RoleAdmin:    "A",
		RoleLeader:   "L",
		RoleLecturer: "T",
		RoleStudent:  "S",
	}

	Roles = []Role{
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Module Leader", Value: RoleLeader},
		{Name: "Lecturer", Value: RoleLecturer},
		{Name: "Student", Value: RoleStudent},
	}
)

func IDPrefix(role string) string {
	return idPrefixes[role]
}

func IsValidRole(role string) bool {
	_, ok := idPrefixes[role]
	return ok
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Name         string `json:"name"`
	Gender       string `json:"gender"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Age          int    `json:"age"`
	Role         string `json:"role"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies `pwd` against the stored bcrypt hash. Rows migrated
// from the legacy layout may still hold a plaintext password; those are
// accepted via a constant-time comparison and re-hashed on the next update.
func (u *User) CheckPassword(pwd string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pwd)); err == nil {
		return nil
	}
	if !strings.HasPrefix(u.PasswordHash, "$2") &&
		subtle.ConstantTimeCompare([]byte(u.PasswordHash), []byte(pwd)) == 1 {
		return nil
	}
	return bcrypt.ErrMismatchedHashAndPassword
}

func (u User) IsAdmin() bool    { return u.Role == RoleAdmin }
func (u User) IsLeader() bool   { return u.Role == RoleLeader }
func (u User) IsLecturer() bool { return u.Role == RoleLecturer }
func (u User) IsStudent() bool  { return u.Role == RoleStudent }

// Student links a STUDENT user to their student number and enrolled module.
// The extended row duplicates the user profile; the compact legacy row only
// carries (studentId, userId) and is resolved through the users file.
type Student struct {
	Username  string `json:"username"`
	Password  string `json:"-"`
	Name      string `json:"name"`
	Gender    string `json:"gender"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Age       int    `json:"age"`
	StudentID string `json:"student_id"`
	ModuleID  string `json:"module_id"`
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username string `json:"username" validate:"required,min=4,alphanum_"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Gender   string `json:"gender" validate:"omitempty,oneof=Male Female"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
	Age      int    `json:"age" validate:"omitempty,gte=18,lte=100"`
	Role     string `json:"role" validate:"required,oneof=ADMIN LEADER LECTURER STUDENT"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Phone = core.CleanString(nu.Phone)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Username)
}

// NewStudent assigns a student number (and optionally a module) to an
// existing STUDENT user.
type NewStudent struct {
	Username  string `json:"username" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
	ModuleID  string `json:"module_id"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Username = core.CleanString(ns.Username, true /* lower */)
	ns.StudentID = core.CleanString(ns.StudentID)
	ns.ModuleID = core.CleanString(ns.ModuleID)
	return validate.Struct(ns)
}

// UpdateUser defines what information may be provided to modify an existing User.
// A Role change is subject to the dependency guard on the user's current role.
type UpdateUser struct {
	Username string `json:"username" validate:"omitempty,min=4,alphanum_"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Gender   string `json:"gender" validate:"omitempty,oneof=Male Female"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
	Age      int    `json:"age" validate:"omitempty,gte=18,lte=100"`
	Role     string `json:"role" validate:"omitempty,oneof=ADMIN LEADER LECTURER STUDENT"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc *Service) error {
	uname := core.CleanString(uu.Username, true /* lower */)
	if uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}

	name := core.CleanString(uu.Name)
	if name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	email := core.CleanString(uu.Email, true /* lower */)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(uu.Username, origUsr)
}
