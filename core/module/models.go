package module

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

type Module struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	CreditHours int    `json:"credit_hours"`
	LeaderID    string `json:"leader_id"`
	LecturerID  string `json:"lecturer_id"` // empty until a lecturer is assigned
}

type Class struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ModuleID string `json:"module_id"`
}

// Assignment maps a lecturer to the leader they work under.
type Assignment struct {
	LeaderID   string `json:"leader_id"`
	LecturerID string `json:"lecturer_id"`
}

// Registration enrolls a student (by student number) into a class.
type Registration struct {
	StudentID string `json:"student_id"`
	ClassID   string `json:"class_id"`
}

// NewModule contains information needed to create a new Module.
type NewModule struct {
	Name        string `json:"name" validate:"required"`
	Code        string `json:"code" validate:"required"`
	CreditHours int    `json:"credit_hours" validate:"required,gte=1,lte=10"`
	LeaderID    string `json:"leader_id" validate:"required"`
}

func (nm *NewModule) Validate(validate *validator.Validate) error {
	nm.Name = core.CleanString(nm.Name)
	nm.Code = core.CleanString(nm.Code)
	nm.LeaderID = core.CleanString(nm.LeaderID)
	return validate.Struct(nm)
}

// UpdateModule defines what information may be provided to modify an existing Module.
type UpdateModule struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	CreditHours int    `json:"credit_hours" validate:"omitempty,gte=1,lte=10"`
}

func (um *UpdateModule) Validate(validate *validator.Validate) error {
	um.Name = core.CleanString(um.Name)
	um.Code = core.CleanString(um.Code)
	return validate.Struct(um)
}

type NewClass struct {
	Name     string `json:"name" validate:"required"`
	ModuleID string `json:"module_id" validate:"required"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.ModuleID = core.CleanString(nc.ModuleID)
	return validate.Struct(nc)
}

type NewAssignment struct {
	LeaderID   string `json:"leader_id" validate:"required"`
	LecturerID string `json:"lecturer_id" validate:"required"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.LeaderID = core.CleanString(na.LeaderID)
	na.LecturerID = core.CleanString(na.LecturerID)
	return validate.Struct(na)
}

type NewRegistration struct {
	StudentID string `json:"student_id" validate:"required"`
	ClassID   string `json:"class_id" validate:"required"`
}

func (nr *NewRegistration) Validate(validate *validator.Validate) error {
	nr.StudentID = core.CleanString(nr.StudentID)
	nr.ClassID = core.CleanString(nr.ClassID)
	return validate.Struct(nr)
}
