package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/saltyorg/projectdb/internal/auth"
	"github.com/saltyorg/projectdb/internal/config"
	"github.com/saltyorg/projectdb/internal/database"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	auth.BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) (http.Handler, *database.Manager) {
	t.Helper()

	db := database.New(filepath.Join(t.TempDir(), "projects.db"))
	if err := db.InitializeSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}
	if err := db.AddPhotoColumn(); err != nil {
		t.Fatalf("failed to add photo column: %v", err)
	}
	return NewServer(db, 0, "", config.ServerTimeouts{}).Handler(), db
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func login(t *testing.T, h http.Handler, name, password string) int64 {
	t.Helper()

	rec := do(t, h, http.MethodPost, "/api/login", fmt.Sprintf(`{"name":%q,"password":%q}`, name, password))
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		UserID int64 `json:"user_id"`
	}
	decodeBody(t, rec, &resp)
	return resp.UserID
}

func TestEndToEndProjectFlow(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/users", `{"name":"alice","password":"pw1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}

	userID := login(t, h, "alice", "pw1")
	if userID <= 0 {
		t.Fatalf("expected a user id, got %d", userID)
	}

	projectsPath := fmt.Sprintf("/api/users/%d/projects", userID)
	rec = do(t, h, http.MethodPost, projectsPath, `{"name":"Portfolio","description":"site","url":"https://example.com","status_id":1}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create project status = %d, body %s", rec.Code, rec.Body.String())
	}

	var list struct {
		Projects []string `json:"projects"`
	}
	rec = do(t, h, http.MethodGet, projectsPath, "")
	decodeBody(t, rec, &list)
	if len(list.Projects) != 1 || !strings.Contains(list.Projects[0], "Portfolio") || !strings.Contains(list.Projects[0], "в планах") {
		t.Fatalf("unexpected projects: %v", list.Projects)
	}

	var info struct {
		Projects []database.ProjectInfo `json:"projects"`
	}
	rec = do(t, h, http.MethodGet, projectsPath+"/by-name/Portfolio", "")
	decodeBody(t, rec, &info)
	if len(info.Projects) != 1 {
		t.Fatalf("expected one project info, got %v", info.Projects)
	}
	projectID := info.Projects[0].ID

	rec = do(t, h, http.MethodPatch, projectsPath+"/by-name/Portfolio", `{"field":"status_id","value":"2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/api/skills", `{"name":"Go"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create skill status = %d, body %s", rec.Code, rec.Body.String())
	}
	var skills struct {
		Skills []database.Skill `json:"skills"`
	}
	decodeBody(t, do(t, h, http.MethodGet, "/api/skills", ""), &skills)
	if len(skills.Skills) != 1 {
		t.Fatalf("expected one skill, got %v", skills.Skills)
	}

	skillPath := fmt.Sprintf("/api/projects/%d/skills/%d", projectID, skills.Skills[0].ID)
	if rec := do(t, h, http.MethodPost, skillPath, ""); rec.Code != http.StatusCreated {
		t.Fatalf("add skill status = %d, body %s", rec.Code, rec.Body.String())
	}

	var names struct {
		Skills []string `json:"skills"`
	}
	decodeBody(t, do(t, h, http.MethodGet, fmt.Sprintf("/api/projects/%d/skills", projectID), ""), &names)
	if len(names.Skills) != 1 || names.Skills[0] != "Go" {
		t.Fatalf("unexpected project skills: %v", names.Skills)
	}

	if rec := do(t, h, http.MethodDelete, skillPath, ""); rec.Code != http.StatusOK {
		t.Fatalf("remove skill status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodDelete, skillPath, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second remove skill status = %d, want 404", rec.Code)
	}

	rec = do(t, h, http.MethodDelete, fmt.Sprintf("%s/%d", projectsPath, projectID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete project status = %d, body %s", rec.Code, rec.Body.String())
	}

	list.Projects = nil
	decodeBody(t, do(t, h, http.MethodGet, projectsPath, ""), &list)
	if list.Projects == nil || len(list.Projects) != 0 {
		t.Fatalf("expected empty project list, got %#v", list.Projects)
	}
}

func TestLoginRejectsWrongCredentials(t *testing.T) {
	h, db := newTestServer(t)

	if err := db.CreateUser("alice", "pw1"); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	rec := do(t, h, http.MethodPost, "/api/login", `{"name":"alice","password":"nope"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("login status = %d, want 401", rec.Code)
	}
}

func TestRegisterLongPassword(t *testing.T) {
	h, _ := newTestServer(t)

	password := strings.Repeat("пароль", 13)
	rec := do(t, h, http.MethodPost, "/api/users", fmt.Sprintf(`{"name":"alice","password":%q}`, password))
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}
	if id := login(t, h, "alice", password); id <= 0 {
		t.Fatalf("expected a user id, got %d", id)
	}
}

func TestRequestValidation(t *testing.T) {
	h, db := newTestServer(t)

	if err := db.CreateUser("alice", "pw1"); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	userID := login(t, h, "alice", "pw1")
	projectsPath := fmt.Sprintf("/api/users/%d/projects", userID)

	if err := db.CreateProject(userID, "Portfolio", "", "", database.StatusPlanned); err != nil {
		t.Fatalf("CreateProject returned error: %v", err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{name: "register missing password", method: http.MethodPost, path: "/api/users", body: `{"name":"bob"}`, want: http.StatusBadRequest},
		{name: "malformed json", method: http.MethodPost, path: "/api/users", body: `{"name":`, want: http.StatusBadRequest},
		{name: "project without status", method: http.MethodPost, path: projectsPath, body: `{"name":"X"}`, want: http.StatusBadRequest},
		{name: "project with bad url", method: http.MethodPost, path: projectsPath, body: `{"name":"X","url":"not a url","status_id":1}`, want: http.StatusBadRequest},
		{name: "project with unknown status", method: http.MethodPost, path: projectsPath, body: `{"name":"X","status_id":99}`, want: http.StatusBadRequest},
		{name: "non-numeric user id", method: http.MethodGet, path: "/api/users/abc/projects", want: http.StatusBadRequest},
		{name: "update unknown field", method: http.MethodPatch, path: projectsPath + "/by-name/Portfolio", body: `{"field":"user_id","value":"2"}`, want: http.StatusBadRequest},
		{name: "update photo traversal", method: http.MethodPatch, path: projectsPath + "/by-name/Portfolio", body: `{"field":"photo","value":"../../etc/passwd"}`, want: http.StatusBadRequest},
		{name: "update missing project", method: http.MethodPatch, path: projectsPath + "/by-name/Missing", body: `{"field":"url","value":"https://x"}`, want: http.StatusNotFound},
		{name: "delete missing project", method: http.MethodDelete, path: projectsPath + "/999", want: http.StatusNotFound},
		{name: "empty body", method: http.MethodPost, path: "/api/skills", body: "", want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("%s %s status = %d, want %d (body %s)", tt.method, tt.path, rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestUpdatePhoto(t *testing.T) {
	h, db := newTestServer(t)

	if err := db.CreateUser("alice", "pw1"); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	userID := login(t, h, "alice", "pw1")
	if err := db.CreateProject(userID, "Portfolio", "", "", database.StatusPlanned); err != nil {
		t.Fatalf("CreateProject returned error: %v", err)
	}

	path := fmt.Sprintf("/api/users/%d/projects/by-name/Portfolio", userID)
	rec := do(t, h, http.MethodPatch, path, `{"field":"photo","value":"photos/portfolio.png"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update photo status = %d, body %s", rec.Code, rec.Body.String())
	}

	var info struct {
		Projects []database.ProjectInfo `json:"projects"`
	}
	decodeBody(t, do(t, h, http.MethodGet, path, ""), &info)
	if len(info.Projects) != 1 || info.Projects[0].Photo != "photos/portfolio.png" {
		t.Fatalf("unexpected project info: %+v", info.Projects)
	}
}

func TestProjectNamesWithReservedCharacters(t *testing.T) {
	h, db := newTestServer(t)

	if err := db.CreateUser("alice", "pw1"); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	userID := login(t, h, "alice", "pw1")

	tests := []struct {
		name    string
		escaped string
	}{
		{name: "a/b", escaped: "a%2Fb"},
		{name: "100%", escaped: "100%25"},
		{name: "my site", escaped: "my%20site"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := db.CreateProject(userID, tt.name, "", "", database.StatusPlanned); err != nil {
				t.Fatalf("CreateProject returned error: %v", err)
			}
			path := fmt.Sprintf("/api/users/%d/projects/by-name/%s", userID, tt.escaped)

			var info struct {
				Projects []database.ProjectInfo `json:"projects"`
			}
			decodeBody(t, do(t, h, http.MethodGet, path, ""), &info)
			if len(info.Projects) != 1 || info.Projects[0].Name != tt.name {
				t.Fatalf("GET %s = %+v, want project %q", path, info.Projects, tt.name)
			}

			rec := do(t, h, http.MethodPatch, path, `{"field":"description","value":"updated"}`)
			if rec.Code != http.StatusOK {
				t.Fatalf("PATCH %s status = %d, body %s", path, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestStatusesAndHealth(t *testing.T) {
	h, _ := newTestServer(t)

	if rec := do(t, h, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}

	var resp struct {
		Statuses []database.Status `json:"statuses"`
	}
	decodeBody(t, do(t, h, http.MethodGet, "/api/statuses", ""), &resp)
	if len(resp.Statuses) != 3 || resp.Statuses[0].Name != "в планах" {
		t.Fatalf("unexpected statuses: %v", resp.Statuses)
	}
}

func TestUnavailableStore(t *testing.T) {
	db := database.New(filepath.Join(t.TempDir(), "missing", "projects.db"))
	h := NewServer(db, 0, "", config.ServerTimeouts{}).Handler()

	rec := do(t, h, http.MethodGet, "/api/statuses", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
