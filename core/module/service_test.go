package module_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/module"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/storage/flatfile"
	testutil "github.com/trezcool/shule/tests"
)

type fixture struct {
	conf    *core.Config
	store   *flatfile.Store
	usrRepo user.Repository
	usrSvc  *user.Service
	svc     *module.Service
}

func setup(t *testing.T) *fixture {
	t.Helper()
	conf := testutil.NewConfig(t)
	store := flatfile.NewStore(conf.DataDir)
	usrRepo := flatfile.NewUserRepository(store)
	usrSvc := user.NewService(usrRepo, store, nil, conf)
	svc := module.NewService(flatfile.NewModuleRepository(store), usrSvc)
	usrSvc.SetProjectionSyncer(svc)
	return &fixture{conf: conf, store: store, usrRepo: usrRepo, usrSvc: usrSvc, svc: svc}
}

func wantFieldError(t *testing.T, err error, field string) {
	t.Helper()
	vErr, ok := err.(*core.ValidationError)
	if !ok {
		t.Fatalf("error = %T(%v), want *core.ValidationError", err, err)
	}
	if len(vErr.Fields) == 0 || vErr.Fields[0].Field != field {
		t.Fatalf("fields = %+v, want an error on %q", vErr.Fields, field)
	}
}

func TestService_Create(t *testing.T) {
	fix := setup(t)
	leader := testutil.CreateUser(t, fix.usrRepo, "Lea Leader", "lea", "", user.RoleLeader)

	mod, err := fix.svc.Create(module.NewModule{Name: "Programming", Code: "CS101", CreditHours: 3, LeaderID: leader.ID})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if mod.ID != "M001" {
		t.Errorf("ID = %s, want M001", mod.ID)
	}

	t.Run("duplicate code", func(t *testing.T) {
		_, err := fix.svc.Create(module.NewModule{Name: "Other", Code: "cs101", CreditHours: 3, LeaderID: leader.ID})
		wantFieldError(t, err, "code")
	})

	t.Run("unknown leader", func(t *testing.T) {
		_, err := fix.svc.Create(module.NewModule{Name: "Other", Code: "CS102", CreditHours: 3, LeaderID: "L999"})
		wantFieldError(t, err, "leader_id")
	})

	t.Run("leader_id must be a LEADER", func(t *testing.T) {
		lect := testutil.CreateUser(t, fix.usrRepo, "Tom", "tom", "", user.RoleLecturer)
		_, err := fix.svc.Create(module.NewModule{Name: "Other", Code: "CS102", CreditHours: 3, LeaderID: lect.ID})
		wantFieldError(t, err, "leader_id")
	})

	t.Run("leader module cap", func(t *testing.T) {
		for _, code := range []string{"CS102", "CS103"} {
			if _, err := fix.svc.Create(module.NewModule{Name: code, Code: code, CreditHours: 3, LeaderID: leader.ID}); err != nil {
				t.Fatalf("Create(%s) error = %v", code, err)
			}
		}
		_, err := fix.svc.Create(module.NewModule{Name: "One too many", Code: "CS104", CreditHours: 3, LeaderID: leader.ID})
		wantFieldError(t, err, "leader_id")
	})
}

func TestService_AssignLecturer(t *testing.T) {
	fix := setup(t)
	leader := testutil.CreateUser(t, fix.usrRepo, "Lea", "lea", "", user.RoleLeader)
	other := testutil.CreateUser(t, fix.usrRepo, "Leo", "leo", "", user.RoleLeader)
	lect := testutil.CreateUser(t, fix.usrRepo, "Tom", "tom", "", user.RoleLecturer)

	mod, err := fix.svc.Create(module.NewModule{Name: "Programming", Code: "CS101", CreditHours: 3, LeaderID: leader.ID})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("not the owner", func(t *testing.T) {
		_, err := fix.svc.AssignLecturer(other, mod.ID, lect.ID)
		wantFieldError(t, err, "module_id")
	})

	t.Run("lecturer not assigned to leader", func(t *testing.T) {
		_, err := fix.svc.AssignLecturer(leader, mod.ID, lect.ID)
		wantFieldError(t, err, "lecturer_id")
	})

	if _, err := fix.svc.CreateAssignment(module.NewAssignment{LeaderID: leader.ID, LecturerID: lect.ID}); err != nil {
		t.Fatalf("CreateAssignment() error = %v", err)
	}

	t.Run("happy path", func(t *testing.T) {
		got, err := fix.svc.AssignLecturer(leader, mod.ID, lect.ID)
		if err != nil {
			t.Fatalf("AssignLecturer() error = %v", err)
		}
		if got.LecturerID != lect.ID {
			t.Errorf("LecturerID = %s, want %s", got.LecturerID, lect.ID)
		}

		// the projection reflects the assignment
		rows, err := fix.svc.QueryLecturerRows()
		if err != nil {
			t.Fatalf("QueryLecturerRows() error = %v", err)
		}
		if len(rows) != 1 || rows[0].ModuleID != mod.ID || rows[0].LeaderID != leader.ID {
			t.Errorf("rows = %+v, want tom teaching %s under %s", rows, mod.ID, leader.ID)
		}
	})

	t.Run("one module per lecturer", func(t *testing.T) {
		mod2, err := fix.svc.Create(module.NewModule{Name: "Databases", Code: "CS102", CreditHours: 3, LeaderID: leader.ID})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		_, err = fix.svc.AssignLecturer(leader, mod2.ID, lect.ID)
		wantFieldError(t, err, "lecturer_id")
	})

	t.Run("unassign", func(t *testing.T) {
		got, err := fix.svc.UnassignLecturer(leader, mod.ID)
		if err != nil {
			t.Fatalf("UnassignLecturer() error = %v", err)
		}
		if got.LecturerID != "" {
			t.Errorf("LecturerID = %s, want empty", got.LecturerID)
		}
	})
}

func TestService_CreateAssignment_caps(t *testing.T) {
	fix := setup(t)
	leader := testutil.CreateUser(t, fix.usrRepo, "Lea", "lea", "", user.RoleLeader)
	other := testutil.CreateUser(t, fix.usrRepo, "Leo", "leo", "", user.RoleLeader)

	var lects []user.User
	for _, uname := range []string{"tom", "tim", "tam", "ted"} {
		lects = append(lects, testutil.CreateUser(t, fix.usrRepo, uname, uname, "", user.RoleLecturer))
	}

	for _, lect := range lects[:3] {
		if _, err := fix.svc.CreateAssignment(module.NewAssignment{LeaderID: leader.ID, LecturerID: lect.ID}); err != nil {
			t.Fatalf("CreateAssignment() error = %v", err)
		}
	}

	t.Run("a lecturer has one leader", func(t *testing.T) {
		_, err := fix.svc.CreateAssignment(module.NewAssignment{LeaderID: other.ID, LecturerID: lects[0].ID})
		wantFieldError(t, err, "lecturer_id")
	})

	t.Run("a leader has at most three lecturers", func(t *testing.T) {
		_, err := fix.svc.CreateAssignment(module.NewAssignment{LeaderID: leader.ID, LecturerID: lects[3].ID})
		wantFieldError(t, err, "leader_id")
	})
}

func TestService_classesAndRegistrations(t *testing.T) {
	fix := setup(t)
	leader := testutil.CreateUser(t, fix.usrRepo, "Lea", "lea", "", user.RoleLeader)
	mod, err := fix.svc.Create(module.NewModule{Name: "Programming", Code: "CS101", CreditHours: 3, LeaderID: leader.ID})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	cls, err := fix.svc.CreateClass(module.NewClass{Name: "CS101-A", ModuleID: mod.ID})
	if err != nil {
		t.Fatalf("CreateClass() error = %v", err)
	}

	t.Run("one class per module", func(t *testing.T) {
		_, err := fix.svc.CreateClass(module.NewClass{Name: "CS101-B", ModuleID: mod.ID})
		wantFieldError(t, err, "module_id")
	})

	t.Run("class needs an existing module", func(t *testing.T) {
		_, err := fix.svc.CreateClass(module.NewClass{Name: "X", ModuleID: "M999"})
		wantFieldError(t, err, "module_id")
	})

	if _, err := fix.svc.RegisterStudent(module.NewRegistration{StudentID: "ST100", ClassID: cls.ID}); err != nil {
		t.Fatalf("RegisterStudent() error = %v", err)
	}

	t.Run("duplicate registration", func(t *testing.T) {
		_, err := fix.svc.RegisterStudent(module.NewRegistration{StudentID: "st100", ClassID: cls.ID})
		wantFieldError(t, err, "class_id")
	})

	t.Run("registration needs an existing class", func(t *testing.T) {
		_, err := fix.svc.RegisterStudent(module.NewRegistration{StudentID: "ST100", ClassID: "C999"})
		wantFieldError(t, err, "class_id")
	})

	t.Run("enrollment resolves through the class", func(t *testing.T) {
		enrolled, err := fix.svc.IsEnrolled("ST100", mod.ID)
		if err != nil {
			t.Fatalf("IsEnrolled() error = %v", err)
		}
		if !enrolled {
			t.Error("IsEnrolled() = false, want true")
		}
		enrolled, err = fix.svc.IsEnrolled("ST999", mod.ID)
		if err != nil {
			t.Fatalf("IsEnrolled() error = %v", err)
		}
		if enrolled {
			t.Error("IsEnrolled() = true, want false")
		}
	})
}

func TestService_SyncLecturers(t *testing.T) {
	fix := setup(t)

	// stale rows: one unknown username, one duplicate, one valid
	_ = fix.store.ReplaceAll(core.LecturersFile, [][]string{
		{"ghost", "x", "Ghost", "", "", "", "0", "", ""},
		{"tom", "stale", "Stale Tom", "", "", "", "0", "M009", "L009"},
		{"TOM", "stale", "Dup Tom", "", "", "", "0", "", ""},
	})

	leader := testutil.CreateUser(t, fix.usrRepo, "Lea", "lea", "", user.RoleLeader)
	tom := testutil.CreateUser(t, fix.usrRepo, "Tom", "tom", "", user.RoleLecturer)
	tim := testutil.CreateUser(t, fix.usrRepo, "Tim", "tim", "", user.RoleLecturer)
	_ = fix.store.Append(core.ModulesFile, []string{"M001", "Programming", "CS101", "3", leader.ID, tom.ID})

	if err := fix.svc.SyncLecturers(); err != nil {
		t.Fatalf("SyncLecturers() error = %v", err)
	}

	rows, err := fix.svc.QueryLecturerRows()
	if err != nil {
		t.Fatalf("QueryLecturerRows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows len = %d, want 2; got %+v", len(rows), rows)
	}
	// tom kept his original slot, refreshed from the canonical tables
	if rows[0].Username != tom.Username || rows[0].Name != "Tom" || rows[0].ModuleID != "M001" || rows[0].LeaderID != leader.ID {
		t.Errorf("row[0] = %+v", rows[0])
	}
	// tim was appended
	if rows[1].Username != tim.Username || rows[1].ModuleID != "" {
		t.Errorf("row[1] = %+v", rows[1])
	}

	t.Run("idempotent", func(t *testing.T) {
		path := filepath.Join(fix.conf.DataDir, core.LecturersFile)
		before, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := fix.svc.SyncLecturers(); err != nil {
			t.Fatalf("SyncLecturers() error = %v", err)
		}
		after, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(before) != string(after) {
			diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
				A:        difflib.SplitLines(string(before)),
				B:        difflib.SplitLines(string(after)),
				FromFile: "first sync",
				ToFile:   "second sync",
				Context:  2,
			})
			t.Errorf("projection not idempotent:\n%s", diff)
		}
	})
}
