package echoapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	echoapi "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assessment"
	"github.com/trezcool/shule/core/module"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/storage/flatfile"
	testutil "github.com/trezcool/shule/tests"
)

type fixture struct {
	server echoapi.Server
	usrSvc *user.Service
	store  *flatfile.Store
}

func setup(t *testing.T) *fixture {
	t.Helper()
	conf := testutil.NewConfig(t)
	store := flatfile.NewStore(conf.DataDir)
	usrSvc := user.NewService(flatfile.NewUserRepository(store), store, nil, conf)
	modSvc := module.NewService(flatfile.NewModuleRepository(store), usrSvc)
	assSvc := assessment.NewService(flatfile.NewAssessmentRepository(store), modSvc)
	usrSvc.SetProjectionSyncer(modSvc)

	validate, translator := testutil.NewValidator()
	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         nopLogger{},
		UserSvc:        usrSvc,
		ModuleSvc:      modSvc,
		AssessmentSvc:  assSvc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	return &fixture{server: server, usrSvc: usrSvc, store: store}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func (fix *fixture) request(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	fix.server.ServeHTTP(rec, req)
	return rec
}

func (fix *fixture) login(t *testing.T, uname, pwd string) string {
	t.Helper()
	rec := fix.request(t, http.MethodPost, "/v1/users/login", "",
		`{"username":"`+uname+`","password":"`+pwd+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	return res.Token
}

func TestServer_auth(t *testing.T) {
	fix := setup(t)
	if _, err := fix.usrSvc.Create(user.NewUser{Username: "alice", Password: "s3cret", Name: "Alice", Role: user.RoleAdmin}); err != nil {
		t.Fatal(err)
	}

	t.Run("bad credentials", func(t *testing.T) {
		rec := fix.request(t, http.MethodPost, "/v1/users/login", "",
			`{"username":"alice","password":"nope"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("guarded endpoint needs a token", func(t *testing.T) {
		rec := fix.request(t, http.MethodGet, "/v1/users", "", "")
		if rec.Code != http.StatusBadRequest && rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 400/401", rec.Code)
		}
	})

	t.Run("login grants access", func(t *testing.T) {
		token := fix.login(t, "alice", "s3cret")
		rec := fix.request(t, http.MethodGet, "/v1/users", token, "")
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		if _, err := fix.usrSvc.Create(user.NewUser{Username: "jane", Password: "x", Name: "Jane", Role: user.RoleStudent}); err != nil {
			t.Fatal(err)
		}
		token := fix.login(t, "jane", "x")
		rec := fix.request(t, http.MethodGet, "/v1/users", token, "")
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403; body %s", rec.Code, rec.Body.String())
		}
	})
}

func TestServer_validationErrors(t *testing.T) {
	fix := setup(t)
	if _, err := fix.usrSvc.Create(user.NewUser{Username: "alice", Password: "s3cret", Name: "Alice", Role: user.RoleAdmin}); err != nil {
		t.Fatal(err)
	}
	token := fix.login(t, "alice", "s3cret")

	rec := fix.request(t, http.MethodPost, "/v1/users/register", token,
		`{"username":"al","password":"","name":"","role":"BOSS"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var fields map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &fields); err != nil {
		t.Fatalf("body is not a field error map: %s", rec.Body.String())
	}
	for _, fld := range []string{"username", "password", "name", "role"} {
		if _, ok := fields[fld]; !ok {
			t.Errorf("missing field error for %q in %v", fld, fields)
		}
	}
}

func TestServer_dependencyConflict(t *testing.T) {
	fix := setup(t)
	if _, err := fix.usrSvc.Create(user.NewUser{Username: "alice", Password: "s3cret", Name: "Alice", Role: user.RoleAdmin}); err != nil {
		t.Fatal(err)
	}
	leader, err := fix.usrSvc.Create(user.NewUser{Username: "lea", Password: "x", Name: "Lea", Role: user.RoleLeader})
	if err != nil {
		t.Fatal(err)
	}
	// the leader still owns a module
	if err := fix.store.Append(core.ModulesFile, []string{"M001", "Programming", "CS101", "3", leader.ID, ""}); err != nil {
		t.Fatal(err)
	}

	token := fix.login(t, "alice", "s3cret")
	rec := fix.request(t, http.MethodDelete, "/v1/users/"+leader.ID, token, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Error      string `json:"error"`
		References []struct {
			File   string `json:"file"`
			Reason string `json:"reason"`
		} `json:"references"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.References) != 1 || res.References[0].File != core.ModulesFile {
		t.Errorf("references = %+v, want one ref to %s", res.References, core.ModulesFile)
	}
}
