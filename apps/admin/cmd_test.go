package main

import (
	"testing"

	"github.com/trezcool/shule/core/assessment"
	"github.com/trezcool/shule/core/module"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/storage/flatfile"
	testutil "github.com/trezcool/shule/tests"
)

func setup(t *testing.T) *commandLine {
	t.Helper()
	conf := testutil.NewConfig(t)
	store := flatfile.NewStore(conf.DataDir)
	usrSvc := user.NewService(flatfile.NewUserRepository(store), store, nil, conf)
	modSvc := module.NewService(flatfile.NewModuleRepository(store), usrSvc)
	assSvc := assessment.NewService(flatfile.NewAssessmentRepository(store), modSvc)
	usrSvc.SetProjectionSyncer(modSvc)

	validate, _ := testutil.NewValidator()
	return &commandLine{
		usrSvc:   usrSvc,
		modSvc:   modSvc,
		assSvc:   assSvc,
		validate: validate,
	}
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "missing role", args: []string{"adduser", "-username", "alice", "-name", "Alice"}, wantErr: errHelp},
		{name: "unknown role", args: []string{"adduser", "-username", "bob", "-name", "Bob", "-role", "BOSS"}, pwd: "x", wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "alice", "-name", "Alice", "-role", "ADMIN"}, wantErr: errHelp},
		{name: "ok", args: []string{"adduser", "-username", "alice", "-name", "Alice", "-role", "ADMIN"}, pwd: "s3cret"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	usr, err := cli.usrSvc.Authenticate("alice", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate() failed after adduser: %v", err)
	}
	if !usr.IsAdmin() {
		t.Errorf("role = %s, want ADMIN", usr.Role)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	if _, err := cli.usrSvc.Create(user.NewUser{Username: "alice", Password: "old", Name: "Alice", Role: user.RoleAdmin}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "alice"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "ghost"}, pwd: "new", wantErr: user.ErrNotFound},
		{name: "ok", args: []string{"resetpassword", "-username", "alice"}, pwd: "new"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if _, err := cli.usrSvc.Authenticate("alice", "new"); err != nil {
		t.Errorf("Authenticate() with new password failed: %v", err)
	}
	if _, err := cli.usrSvc.Authenticate("alice", "old"); err != user.ErrNotFound {
		t.Errorf("Authenticate() with old password = %v, want ErrNotFound", err)
	}
}

func Test_commandLine_seedGrading(t *testing.T) {
	cli := setup(t)

	if err := cli.run([]string{"admin", "seedgrading"}); err != nil {
		t.Fatalf("cli.run() error = %v", err)
	}

	rules, err := cli.assSvc.QueryAllGradingRules()
	if err != nil {
		t.Fatalf("QueryAllGradingRules() error = %v", err)
	}
	if len(rules) != len(defaultGradingScale) {
		t.Errorf("rules len = %d, want %d", len(rules), len(defaultGradingScale))
	}

	// every percentage resolves to exactly one letter
	for _, pct := range []float64{0, 19, 20, 55.5, 94, 100} {
		if _, err := cli.assSvc.LetterFor(pct); err != nil {
			t.Errorf("LetterFor(%v) error = %v", pct, err)
		}
	}

	if err := cli.run([]string{"admin", "seedgrading"}); err == nil {
		t.Error("cli.run() second seed succeeded, want error")
	}
}

func Test_commandLine_syncProjection(t *testing.T) {
	cli := setup(t)

	if err := cli.run([]string{"admin", "syncprojection"}); err != nil {
		t.Fatalf("cli.run() error = %v", err)
	}
}
