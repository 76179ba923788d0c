package user_test

import (
	"strings"
	"testing"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/module"
	"github.com/trezcool/shule/core/user"
	emailsvc "github.com/trezcool/shule/services/email"
	"github.com/trezcool/shule/storage/flatfile"
	testutil "github.com/trezcool/shule/tests"
)

func setup(t *testing.T) (*user.Service, user.Repository, *flatfile.Store) {
	t.Helper()
	conf := testutil.NewConfig(t)
	store := flatfile.NewStore(conf.DataDir)
	repo := flatfile.NewUserRepository(store)
	svc := user.NewService(repo, store, emailsvc.NewConsoleServiceMock(conf), conf)
	return svc, repo, store
}

func TestService_Create(t *testing.T) {
	svc, _, _ := setup(t)
	emailsvc.ClearSentMessages()

	usr, err := svc.Create(user.NewUser{
		Username: "alice",
		Password: "s3cret",
		Name:     "Alice Admin",
		Email:    "alice@test.cd",
		Role:     user.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if usr.ID != "A001" {
		t.Errorf("ID = %s, want A001", usr.ID)
	}
	if !strings.HasPrefix(usr.PasswordHash, "$2") {
		t.Errorf("password not hashed: %q", usr.PasswordHash)
	}

	// role prefix drives id allocation
	lect, err := svc.Create(user.NewUser{Username: "tom", Password: "x", Name: "Tom", Role: user.RoleLecturer})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if lect.ID != "T001" {
		t.Errorf("ID = %s, want T001", lect.ID)
	}

	// a welcome email went out to the user with an email address
	if len(emailsvc.SentMessages) != 1 {
		t.Errorf("SentMessages len = %d, want 1", len(emailsvc.SentMessages))
	}
}

func TestService_CheckUniqueness(t *testing.T) {
	svc, _, _ := setup(t)

	if _, err := svc.Create(user.NewUser{Username: "alice", Password: "x", Name: "Alice", Role: user.RoleAdmin}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err := svc.CheckUniqueness("ALICE")
	vErr, ok := err.(*core.ValidationError)
	if !ok {
		t.Fatalf("CheckUniqueness() error = %T(%v), want *core.ValidationError", err, err)
	}
	if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "username" {
		t.Errorf("fields = %+v, want a username error", vErr.Fields)
	}
}

func TestService_Authenticate(t *testing.T) {
	svc, repo, store := setup(t)

	if _, err := svc.Create(user.NewUser{Username: "alice", Password: "s3cret", Name: "Alice", Role: user.RoleAdmin}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	// a row migrated from the legacy layout still holds a plaintext password
	_ = store.Append(core.UsersFile, []string{"T001", "Tom", "tom", "plaintext", "LECTURER"})

	tests := []struct {
		name    string
		uname   string
		pwd     string
		wantErr error
	}{
		{"bcrypt ok", "Alice", "s3cret", nil},
		{"bcrypt wrong password", "alice", "nope", user.ErrNotFound},
		{"legacy plaintext ok", "tom", "plaintext", nil},
		{"legacy wrong password", "tom", "other", user.ErrNotFound},
		{"unknown user", "ghost", "x", user.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Authenticate(tt.uname, tt.pwd); err != tt.wantErr {
				t.Errorf("Authenticate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
	_ = repo
}

func TestService_Delete_blockedByDependencies(t *testing.T) {
	svc, _, store := setup(t)

	leader, err := svc.Create(user.NewUser{Username: "lea", Password: "x", Name: "Lea Leader", Role: user.RoleLeader})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	// the leader still owns a module
	_ = store.Append(core.ModulesFile, []string{"M001", "Programming", "CS101", "3", leader.ID, ""})

	err = svc.Delete(leader.ID)
	depErr, ok := err.(*core.DependencyError)
	if !ok {
		t.Fatalf("Delete() error = %T(%v), want *core.DependencyError", err, err)
	}
	if len(depErr.Refs) != 1 || depErr.Refs[0].File != core.ModulesFile {
		t.Errorf("refs = %+v, want one ref to %s", depErr.Refs, core.ModulesFile)
	}

	// nothing was mutated
	if _, err := svc.GetByID(leader.ID); err != nil {
		t.Errorf("user was deleted despite the guard: %v", err)
	}
}

func TestService_Delete_ok(t *testing.T) {
	svc, _, _ := setup(t)

	usr, err := svc.Create(user.NewUser{Username: "alice", Password: "x", Name: "Alice", Role: user.RoleAdmin})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := svc.Delete(usr.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.GetByID(usr.ID); err != user.ErrNotFound {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestService_Update_roleChangeGuard(t *testing.T) {
	svc, _, store := setup(t)
	validate, _ := testutil.NewValidator()

	lect, err := svc.Create(user.NewUser{Username: "tom", Password: "x", Name: "Tom", Role: user.RoleLecturer})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	// lecturer is referenced by username in the assignment table
	_ = store.Append(core.LeaderLecturerFile, []string{"L001", lect.Username})

	data := user.UpdateUser{Role: user.RoleAdmin}
	if err := data.Validate(lect, validate, svc); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	_, err = svc.Update(lect.ID, data)
	if _, ok := err.(*core.DependencyError); !ok {
		t.Fatalf("Update() error = %T(%v), want *core.DependencyError", err, err)
	}

	// a plain profile update is unaffected
	data = user.UpdateUser{Name: "Tommy"}
	if err := data.Validate(lect, validate, svc); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	usr, err := svc.Update(lect.ID, data)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if usr.Name != "Tommy" {
		t.Errorf("Name = %s, want Tommy", usr.Name)
	}
}

func TestService_SetPassword_syncsProjection(t *testing.T) {
	svc, repo, store := setup(t)
	modSvc := module.NewService(flatfile.NewModuleRepository(store), svc)
	svc.SetProjectionSyncer(modSvc)

	lect, err := svc.Create(user.NewUser{Username: "tom", Password: "old", Name: "Tom", Role: user.RoleLecturer})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := svc.SetPassword(lect.Username, "newpwd"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}

	// the projection duplicates the password column; it must be refreshed
	usr, err := repo.GetUserByUsername(lect.Username)
	if err != nil {
		t.Fatalf("GetUserByUsername() error = %v", err)
	}
	rows, err := modSvc.QueryLecturerRows()
	if err != nil {
		t.Fatalf("QueryLecturerRows() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("lecturer rows = %d, want 1", len(rows))
	}
	if rows[0].Password != usr.PasswordHash {
		t.Errorf("projection password stale: %q, want %q", rows[0].Password, usr.PasswordHash)
	}
}

func TestService_CreateStudentRecord(t *testing.T) {
	svc, _, _ := setup(t)

	student, err := svc.Create(user.NewUser{Username: "jane", Password: "x", Name: "Jane", Role: user.RoleStudent})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Create(user.NewUser{Username: "tom", Password: "x", Name: "Tom", Role: user.RoleLecturer}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("rejects non-students", func(t *testing.T) {
		_, err := svc.CreateStudentRecord(user.NewStudent{Username: "tom", StudentID: "ST100"})
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("CreateStudentRecord() error = %T(%v), want *core.ValidationError", err, err)
		}
	})

	t.Run("happy path", func(t *testing.T) {
		st, err := svc.CreateStudentRecord(user.NewStudent{Username: "jane", StudentID: "ST100", ModuleID: "M001"})
		if err != nil {
			t.Fatalf("CreateStudentRecord() error = %v", err)
		}
		if st.StudentID != "ST100" || st.Username != student.Username {
			t.Errorf("student = %+v", st)
		}
	})

	t.Run("rejects duplicate record", func(t *testing.T) {
		_, err := svc.CreateStudentRecord(user.NewStudent{Username: "jane", StudentID: "ST999"})
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("CreateStudentRecord() error = %T(%v), want *core.ValidationError", err, err)
		}
	})

	t.Run("rejects taken student number", func(t *testing.T) {
		another, err := svc.Create(user.NewUser{Username: "john", Password: "x", Name: "John", Role: user.RoleStudent})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		_, err = svc.CreateStudentRecord(user.NewStudent{Username: another.Username, StudentID: "ST100"})
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("CreateStudentRecord() error = %T(%v), want *core.ValidationError", err, err)
		}
	})
}

func TestNewUser_Validate(t *testing.T) {
	svc, _, _ := setup(t)
	validate, _ := testutil.NewValidator()

	tests := []struct {
		name    string
		data    user.NewUser
		wantErr bool
	}{
		{"valid", user.NewUser{Username: "alice", Password: "x", Name: "Alice", Role: "ADMIN"}, false},
		{"short username", user.NewUser{Username: "al", Password: "x", Name: "Alice", Role: "ADMIN"}, true},
		{"bad username chars", user.NewUser{Username: "al!ce", Password: "x", Name: "Alice", Role: "ADMIN"}, true},
		{"unknown role", user.NewUser{Username: "alice", Password: "x", Name: "Alice", Role: "BOSS"}, true},
		{"underage", user.NewUser{Username: "alice", Password: "x", Name: "Alice", Age: 12, Role: "ADMIN"}, true},
		{"bad email", user.NewUser{Username: "alice", Password: "x", Name: "Alice", Email: "nope", Role: "ADMIN"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate(validate, svc)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
