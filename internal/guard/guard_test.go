package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/hireloop-web/internal/model"
)

func identity(role model.Role) *model.Identity {
	return &model.Identity{ID: "u-1", Name: "Test", Email: "t@x.com", Role: role}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		required model.Role
		want     Kind
	}{
		{name: "unresolved", state: State{Resolved: false, Identity: identity(model.RoleWorker), Token: "t"}, required: model.RoleWorker, want: Loading},
		{name: "no identity", state: State{Resolved: true}, required: model.RoleWorker, want: RedirectLogin},
		{name: "no identity any role", state: State{Resolved: true}, required: "", want: RedirectLogin},
		{name: "identity without token", state: State{Resolved: true, Identity: identity(model.RoleWorker)}, required: model.RoleWorker, want: RedirectLogin},
		{name: "token without identity", state: State{Resolved: true, Token: "t"}, required: "", want: RedirectLogin},
		{name: "worker on employer route", state: State{Resolved: true, Identity: identity(model.RoleWorker), Token: "t"}, required: model.RoleEmployer, want: RedirectHome},
		{name: "employer on admin route", state: State{Resolved: true, Identity: identity(model.RoleEmployer), Token: "t"}, required: model.RoleAdmin, want: RedirectHome},
		{name: "matching role", state: State{Resolved: true, Identity: identity(model.RoleEmployer), Token: "t"}, required: model.RoleEmployer, want: Authorized},
		{name: "any logged in", state: State{Resolved: true, Identity: identity(model.RoleAdmin), Token: "t"}, required: "", want: Authorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.state, tt.required)
			assert.Equal(t, tt.want, d.Kind, "got %s", d.Kind)
			switch d.Kind {
			case RedirectLogin:
				assert.Equal(t, LoginPath, d.Location)
			case RedirectHome:
				assert.Equal(t, HomePath, d.Location)
			}
		})
	}
}

func TestDecide_NoIdentityAlwaysRedirectsToLogin(t *testing.T) {
	for _, role := range []model.Role{"", model.RoleWorker, model.RoleEmployer, model.RoleAdmin} {
		d := Decide(State{Resolved: true}, role)
		assert.Equal(t, RedirectLogin, d.Kind, "role %q", role)
	}
}

type fakeReady bool

func (f fakeReady) Resolved() bool { return bool(f) }

type fakeSession struct {
	identity *model.Identity
	token    string
}

func (f *fakeSession) Identity() (model.Identity, bool) {
	if f.identity == nil {
		return model.Identity{}, false
	}
	return *f.identity, true
}

func (f *fakeSession) Token() string { return f.token }

func serve(ready Readiness, s Session, role model.Role, target string) *httptest.ResponseRecorder {
	protected := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("protected content"))
	})
	h := Require(ready, func(*http.Request) Session { return s }, role)(protected)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestRequire_Loading(t *testing.T) {
	rec := serve(fakeReady(false), &fakeSession{identity: identity(model.RoleWorker), token: "t"}, model.RoleWorker, "/applications")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"status":"loading"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "protected content")
}

func TestRequire_RedirectsToLoginWithNext(t *testing.T) {
	rec := serve(fakeReady(true), &fakeSession{}, model.RoleWorker, "/applications?page=2")

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?next=%2Fapplications%3Fpage%3D2", rec.Header().Get("Location"))
	assert.NotContains(t, rec.Body.String(), "protected content")
}

func TestRequire_NilSessionRedirectsToLogin(t *testing.T) {
	rec := serve(fakeReady(true), nil, "", "/profile")

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?next=%2Fprofile", rec.Header().Get("Location"))
}

func TestRequire_WrongRoleRedirectsHome(t *testing.T) {
	rec := serve(fakeReady(true), &fakeSession{identity: identity(model.RoleWorker), token: "t"}, model.RoleEmployer, "/employer/jobs")

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.NotContains(t, rec.Body.String(), "protected content")
}

func TestRequire_Authorized(t *testing.T) {
	rec := serve(fakeReady(true), &fakeSession{identity: identity(model.RoleEmployer), token: "t"}, model.RoleEmployer, "/employer/jobs")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "protected content", rec.Body.String())
}

func TestLoginTarget(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{next: "", want: "/"},
		{next: "/applications", want: "/applications"},
		{next: "/jobs?q=weld&page=2", want: "/jobs?q=weld&page=2"},
		{next: "https://evil.example/", want: "/"},
		{next: "//evil.example/path", want: "/"},
		{next: "/\\evil.example", want: "/"},
		{next: "javascript:alert(1)", want: "/"},
		{next: "applications", want: "/"},
		{next: "/login", want: "/"},
		{next: "/ok\r\nSet-Cookie: x=1", want: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			assert.Equal(t, tt.want, LoginTarget(tt.next))
		})
	}
}

func TestLoginURL(t *testing.T) {
	assert.Equal(t, "/login", LoginURL("/"))
	assert.Equal(t, "/login", LoginURL("//evil"))
	assert.Equal(t, "/login?next=%2Fadmin%2Fusers", LoginURL("/admin/users"))
}
