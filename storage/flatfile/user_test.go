package flatfile

import (
	"reflect"
	"testing"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

func TestUserRepository_readsBothLayouts(t *testing.T) {
	store := NewStore(t.TempDir())
	repo := NewUserRepository(store)

	// legacy: id|name|username|password|role
	_ = store.Append(core.UsersFile, []string{"A001", "Alice Admin", "alice", "pass123", "ADMIN"})
	// current: id|username|password|name|gender|email|phone|age|role
	_ = store.Append(core.UsersFile, []string{"T001", "tom", "pass456", "Tom Teacher", "Male", "tom@test.cd", "0990001122", "34", "LECTURER"})
	// malformed lines are dropped, not fatal
	_ = store.Append(core.UsersFile, []string{"junk", "line"})
	_ = store.Append(core.UsersFile, []string{"T002", "tim", "x", "Tim", "Male", "tim@test.cd", "n/a", "not-a-number", "LECTURER"})

	users, err := repo.QueryAllUsers()
	if err != nil {
		t.Fatalf("QueryAllUsers() error = %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("QueryAllUsers() len = %d, want 2; got %v", len(users), users)
	}

	alice := users[0]
	if alice.ID != "A001" || alice.Username != "alice" || alice.Name != "Alice Admin" || alice.Role != "ADMIN" {
		t.Errorf("legacy row parsed wrong: %+v", alice)
	}
	if alice.PasswordHash != "pass123" {
		t.Errorf("legacy password = %q, want pass123", alice.PasswordHash)
	}

	tom := users[1]
	if tom.ID != "T001" || tom.Username != "tom" || tom.Age != 34 || tom.Role != "LECTURER" {
		t.Errorf("current row parsed wrong: %+v", tom)
	}
}

func TestUserRepository_UpdateUser_migratesLegacyRow(t *testing.T) {
	store := NewStore(t.TempDir())
	repo := NewUserRepository(store)

	_ = store.Append(core.UsersFile, []string{"A001", "Alice Admin", "alice", "pass123", "ADMIN"})

	usr, err := repo.GetUserByID("a001")
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	usr.Email = "alice@test.cd"
	if _, err := repo.UpdateUser(usr); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	rows, _ := store.ReadAll(core.UsersFile)
	want := []string{"A001", "alice", "pass123", "Alice Admin", "", "alice@test.cd", "", "0", "ADMIN"}
	if !reflect.DeepEqual(rows[0], want) {
		t.Errorf("row = %v, want current layout %v", rows[0], want)
	}
}

func TestUserRepository_CheckUsernameUniqueness(t *testing.T) {
	store := NewStore(t.TempDir())
	repo := NewUserRepository(store)

	usr, _ := repo.CreateUser(user.User{ID: "A001", Username: "alice", Role: "ADMIN"})

	if err := repo.CheckUsernameUniqueness("ALICE"); err != user.ErrUsernameExists {
		t.Errorf("CheckUsernameUniqueness() = %v, want ErrUsernameExists", err)
	}
	if err := repo.CheckUsernameUniqueness("bob"); err != nil {
		t.Errorf("CheckUsernameUniqueness() = %v, want nil", err)
	}
	// the user themselves is excludable (for updates)
	if err := repo.CheckUsernameUniqueness("alice", usr); err != nil {
		t.Errorf("CheckUsernameUniqueness(excl self) = %v, want nil", err)
	}
}

func TestUserRepository_ResolveStudentID(t *testing.T) {
	store := NewStore(t.TempDir())
	repo := NewUserRepository(store)

	// compact legacy row: studentId|userId
	_ = store.Append(core.StudentsFile, []string{"ST100", "S001"})
	// extended row keyed by username
	_ = store.Append(core.StudentsFile, []string{"jane", "hash", "Jane", "Female", "jane@test.cd", "", "21", "ST200", "M001"})

	tests := []struct {
		name    string
		usr     user.User
		want    string
		wantErr error
	}{
		{"compact row by user id", user.User{ID: "S001", Username: "john"}, "ST100", nil},
		{"extended row by username", user.User{ID: "S002", Username: "JANE"}, "ST200", nil},
		{"unknown student", user.User{ID: "S999", Username: "nope"}, "", user.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ResolveStudentID(tt.usr)
			if err != tt.wantErr {
				t.Fatalf("ResolveStudentID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveStudentID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserRepository_students(t *testing.T) {
	store := NewStore(t.TempDir())
	repo := NewUserRepository(store)

	st, err := repo.CreateStudent(user.Student{
		Username: "jane", Password: "hash", Name: "Jane", Gender: "Female",
		Email: "jane@test.cd", Age: 21, StudentID: "ST200", ModuleID: "M001",
	})
	if err != nil {
		t.Fatalf("CreateStudent() error = %v", err)
	}

	got, err := repo.GetStudentByUsername("JANE")
	if err != nil {
		t.Fatalf("GetStudentByUsername() error = %v", err)
	}
	if !reflect.DeepEqual(got, st) {
		t.Errorf("GetStudentByUsername() = %+v, want %+v", got, st)
	}

	if _, err := repo.GetStudentByUsername("nope"); err != user.ErrNotFound {
		t.Errorf("GetStudentByUsername() error = %v, want ErrNotFound", err)
	}
}
