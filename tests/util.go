package testutil

import (
	"net/mail"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assessment"
	"github.com/trezcool/shule/core/module"
	"github.com/trezcool/shule/core/user"
)

// NewConfig returns a Config pointed at a throwaway data directory.
func NewConfig(t *testing.T) *core.Config {
	t.Helper()
	conf := &core.Config{
		Debug:            true,
		TestMode:         true,
		Env:              "TEST",
		AppName:          "Shule",
		SecretKey:        "secret",
		DataDir:          t.TempDir(),
		DefaultFromEmail: mail.Address{Name: "Shule", Address: "noreply@localhost"},
	}
	conf.Server.Address = ":0"
	conf.Server.ShutdownTimeout = 5 * time.Second
	conf.Server.JWTExpirationDelta = time.Hour
	conf.Server.JWTRefreshExpirationDelta = time.Hour
	return conf
}

// NewValidator returns a ready-to-use validator and its translator.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(t *testing.T, repo user.Repository, name, uname, pwd, role string) user.User {
	t.Helper()
	id, err := repo.NextUserID(user.IDPrefix(role))
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr := user.User{
		ID:       id,
		Username: uname,
		Name:     name,
		Role:     role,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err = repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateModule(t *testing.T, repo module.Repository, name, code string, credits int, leaderID, lecturerID string) module.Module {
	t.Helper()
	id, err := repo.NextModuleID()
	if err != nil {
		t.Fatalf("CreateModule() failed: %v", err)
	}
	mod, err := repo.CreateModule(module.Module{
		ID:          id,
		Name:        name,
		Code:        code,
		CreditHours: credits,
		LeaderID:    leaderID,
		LecturerID:  lecturerID,
	})
	if err != nil {
		t.Fatalf("CreateModule() failed: %v", err)
	}
	return mod
}

func CreateClass(t *testing.T, repo module.Repository, name, moduleID string) module.Class {
	t.Helper()
	id, err := repo.NextClassID()
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	cls, err := repo.CreateClass(module.Class{ID: id, Name: name, ModuleID: moduleID})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return cls
}

func CreateAssessment(t *testing.T, repo assessment.Repository, moduleID, name, typ string, total, weight int, createdBy string) assessment.Assessment {
	t.Helper()
	id, err := repo.NextAssessmentID()
	if err != nil {
		t.Fatalf("CreateAssessment() failed: %v", err)
	}
	ass, err := repo.CreateAssessment(assessment.Assessment{
		ID:         id,
		ModuleID:   moduleID,
		Name:       name,
		Type:       typ,
		TotalMarks: total,
		Weightage:  weight,
		CreatedBy:  createdBy,
	})
	if err != nil {
		t.Fatalf("CreateAssessment() failed: %v", err)
	}
	return ass
}

func CreateGradingRule(t *testing.T, repo assessment.Repository, grade string, min, max int) assessment.GradingRule {
	t.Helper()
	rule := assessment.GradingRule{Grade: grade, Min: min, Max: max}
	if err := repo.CreateGradingRule(rule); err != nil {
		t.Fatalf("CreateGradingRule() failed: %v", err)
	}
	return rule
}
