package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/hireloop-web/internal/gateway"
	"github.com/hireloop/hireloop-web/internal/middleware"
	"github.com/hireloop/hireloop-web/internal/model"
	"github.com/hireloop/hireloop-web/internal/repository"
	"github.com/hireloop/hireloop-web/internal/service"
	"github.com/hireloop/hireloop-web/internal/testutil"
)

type harness struct {
	backend *testutil.Backend
	server  *httptest.Server
	client  *http.Client
}

func newHarness(t *testing.T, probe bool) *harness {
	t.Helper()
	backend := testutil.NewBackend()
	t.Cleanup(backend.Close)

	sessions := service.NewSessions(repository.NewMemorySlots().Slot, repository.NewMemorySlots().Slot, gateway.Config{BaseURL: backend.URL}, nil)
	readiness := service.NewReadiness(nil)
	if probe {
		require.NoError(t, readiness.Probe(context.Background(), sessions.Pinger()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	server := httptest.NewServer(NewRouter(ctx, RouterConfig{
		Sessions:       sessions,
		Readiness:      readiness,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}))
	t.Cleanup(server.Close)

	return &harness{backend: backend, server: server, client: newBrowser(t)}
}

func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (h *harness) do(t *testing.T, client *http.Client, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, h.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func (h *harness) login(t *testing.T, client *http.Client, role model.Role, remember bool) sessionResponse {
	t.Helper()
	resp, body := h.do(t, client, http.MethodPost, "/login", loginRequest{
		Email: string(role) + "@x.com", Password: "secret", Role: role, Remember: remember,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var view sessionResponse
	require.NoError(t, json.Unmarshal(body, &view))
	return view
}

func (h *harness) session(t *testing.T, client *http.Client) sessionResponse {
	t.Helper()
	resp, body := h.do(t, client, http.MethodGet, "/session", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view sessionResponse
	require.NoError(t, json.Unmarshal(body, &view))
	return view
}

func errorOf(t *testing.T, body []byte) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp["error"]
}

// restartBrowser returns a client that only kept the persistent cookie, as a browser
// does after it is closed and reopened.
func (h *harness) restartBrowser(t *testing.T, client *http.Client) *http.Client {
	t.Helper()
	u, err := url.Parse(h.server.URL)
	require.NoError(t, err)
	next := newBrowser(t)
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == middleware.ClientCookie {
			next.Jar.SetCookies(u, []*http.Cookie{c})
		}
	}
	return next
}

func TestHealth(t *testing.T) {
	h := newHarness(t, true)
	resp, body := h.do(t, h.client, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	loading := newHarness(t, false)
	_, body = loading.do(t, loading.client, http.MethodGet, "/health", nil)
	assert.JSONEq(t, `{"status":"loading"}`, string(body))
}

func TestLoginSessionLogout(t *testing.T) {
	h := newHarness(t, true)

	assert.False(t, h.session(t, h.client).LoggedIn)

	resp, body := h.do(t, h.client, http.MethodPost, "/login", loginRequest{
		Email: "worker@x.com", Password: "secret", Role: model.RoleWorker, Remember: true, Next: "/dashboard/worker",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view sessionResponse
	require.NoError(t, json.Unmarshal(body, &view))
	assert.True(t, view.LoggedIn)
	assert.True(t, view.Remembered)
	assert.Equal(t, "/dashboard/worker", view.Redirect)
	require.NotNil(t, view.User)
	assert.Equal(t, model.RoleWorker, view.User.Role)
	assert.NotContains(t, string(body), "token")

	assert.True(t, h.session(t, h.client).LoggedIn)

	resp, _ = h.do(t, h.client, http.MethodPost, "/logout", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, h.session(t, h.client).LoggedIn)

	// logout is idempotent
	resp, _ = h.do(t, h.client, http.MethodPost, "/logout", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin_OffsiteRedirectIgnored(t *testing.T) {
	h := newHarness(t, true)
	resp, body := h.do(t, h.client, http.MethodPost, "/login", loginRequest{
		Email: "worker@x.com", Password: "secret", Role: model.RoleWorker, Next: "//evil.example/",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view sessionResponse
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, "/", view.Redirect)
}

func TestLogin_RememberSurvivesBrowserRestart(t *testing.T) {
	h := newHarness(t, true)

	h.login(t, h.client, model.RoleWorker, true)
	assert.True(t, h.session(t, h.restartBrowser(t, h.client)).LoggedIn)

	other := newBrowser(t)
	h.login(t, other, model.RoleWorker, false)
	assert.True(t, h.session(t, other).LoggedIn)
	assert.False(t, h.session(t, h.restartBrowser(t, other)).LoggedIn)
}

func TestLogin_Failures(t *testing.T) {
	h := newHarness(t, true)

	tests := []struct {
		name    string
		req     loginRequest
		status  int
		message string
	}{
		{
			name:    "wrong password",
			req:     loginRequest{Email: "worker@x.com", Password: "nope", Role: model.RoleWorker},
			status:  http.StatusUnauthorized,
			message: "Invalid credentials",
		},
		{
			name:    "wrong role",
			req:     loginRequest{Email: "worker@x.com", Password: "secret", Role: model.RoleEmployer},
			status:  http.StatusUnauthorized,
			message: "This account is not registered as employer",
		},
		{
			name:   "invalid email",
			req:    loginRequest{Email: "not-an-email", Password: "secret", Role: model.RoleWorker},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := h.do(t, h.client, http.MethodPost, "/login", tt.req)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.message != "" {
				assert.Equal(t, tt.message, errorOf(t, body))
			}
			assert.False(t, h.session(t, h.client).LoggedIn)
		})
	}
}

func TestLogin_InvalidBody(t *testing.T) {
	h := newHarness(t, true)
	req, err := http.NewRequest(http.MethodPost, h.server.URL+"/login", bytes.NewBufferString("{"))
	require.NoError(t, err)
	resp, err := h.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin_BackendDown(t *testing.T) {
	h := newHarness(t, true)
	h.backend.Close()

	resp, body := h.do(t, h.client, http.MethodPost, "/login", loginRequest{
		Email: "worker@x.com", Password: "secret", Role: model.RoleWorker,
	})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, errorOf(t, body), "connect")
}

func TestRegisterAndPasswordReset(t *testing.T) {
	h := newHarness(t, true)

	resp, body := h.do(t, h.client, http.MethodPost, "/register", model.RegisterRequest{
		Name: "New", Email: "new@x.com", Password: "secret1", Role: model.RoleWorker,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = h.do(t, h.client, http.MethodPost, "/register", model.RegisterRequest{
		Name: "Dup", Email: "worker@x.com", Password: "secret1", Role: model.RoleWorker,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "User already exists", errorOf(t, body))

	resp, body = h.do(t, h.client, http.MethodPost, "/register", model.RegisterRequest{
		Name: "Short", Email: "short@x.com", Password: "123", Role: model.RoleWorker,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, errorOf(t, body), "password")

	resp, _ = h.do(t, h.client, http.MethodPost, "/forgot-password", map[string]string{"email": "worker@x.com"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = h.do(t, h.client, http.MethodPost, "/reset-password/"+testutil.ValidResetToken, map[string]string{"password": "another1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = h.do(t, h.client, http.MethodPost, "/reset-password/stale", map[string]string{"password": "another1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Reset link is invalid or has expired", errorOf(t, body))
}

func TestContact(t *testing.T) {
	h := newHarness(t, true)
	resp, body := h.do(t, h.client, http.MethodPost, "/contact", model.ContactMessage{
		Name: "Ann", Email: "ann@x.com", Message: "Hello there",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
}

func TestGuard_RedirectsAnonymousToLogin(t *testing.T) {
	h := newHarness(t, true)
	resp, _ := h.do(t, h.client, http.MethodGet, "/profile", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?next=%2Fprofile", resp.Header.Get("Location"))
}

func TestGuard_LoadingBeforeProbe(t *testing.T) {
	h := newHarness(t, false)
	resp, body := h.do(t, h.client, http.MethodGet, "/dashboard/worker", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
	assert.JSONEq(t, `{"status":"loading"}`, string(body))
}

func TestGuard_WrongRoleGoesHome(t *testing.T) {
	h := newHarness(t, true)
	h.login(t, h.client, model.RoleWorker, true)

	for _, path := range []string{"/admin/users", "/dashboard/employer", "/employer/jobs"} {
		resp, _ := h.do(t, h.client, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/", resp.Header.Get("Location"), path)
	}
}

func TestRejectedTokenEndsSession(t *testing.T) {
	h := newHarness(t, true)
	h.login(t, h.client, model.RoleWorker, true)
	h.backend.RejectTokens()

	resp, body := h.do(t, h.client, http.MethodGet, "/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Your session has expired. Please log in again.", errorOf(t, body))

	assert.False(t, h.session(t, h.client).LoggedIn)
	resp, _ = h.do(t, h.client, http.MethodGet, "/profile", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestWorkerFlow(t *testing.T) {
	h := newHarness(t, true)
	h.login(t, h.client, model.RoleWorker, true)

	resp, body := h.do(t, h.client, http.MethodGet, "/jobs?q=weld", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page model.JobPage
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page.Jobs, 1)

	resp, body = h.do(t, h.client, http.MethodPost, "/jobs/j-1/apply", map[string]string{"coverLetter": "hire me"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var applied model.AppliedJob
	require.NoError(t, json.Unmarshal(body, &applied))

	resp, body = h.do(t, h.client, http.MethodPost, "/jobs/j-1/apply", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "You have already applied for this job", errorOf(t, body))

	resp, body = h.do(t, h.client, http.MethodGet, "/dashboard/worker", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var dash workerDashboard
	require.NoError(t, json.Unmarshal(body, &dash))
	assert.Equal(t, "u-worker", dash.User.ID)
	assert.Len(t, dash.Applications, 1)
	assert.Equal(t, 2, dash.Notifications.Unread)

	view := h.session(t, h.client)
	assert.Equal(t, []string{"j-1"}, view.AppliedJobs)
	assert.Equal(t, 2, view.Unread)

	resp, _ = h.do(t, h.client, http.MethodDelete, "/applications/"+applied.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = h.do(t, h.client, http.MethodPost, "/notifications/read-all", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var feed model.NotificationFeed
	require.NoError(t, json.Unmarshal(body, &feed))
	assert.Zero(t, feed.Unread)
}

func TestEmployerFlow(t *testing.T) {
	h := newHarness(t, true)
	h.login(t, h.client, model.RoleEmployer, true)

	resp, body := h.do(t, h.client, http.MethodPost, "/employer/jobs", model.JobInput{Title: "Plumber", Company: "Acme", Location: "Pune"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = h.do(t, h.client, http.MethodPost, "/employer/jobs", model.JobInput{Title: "Missing fields"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, errorOf(t, body), "company")

	resp, body = h.do(t, h.client, http.MethodGet, "/dashboard/employer", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var dash employerDashboard
	require.NoError(t, json.Unmarshal(body, &dash))
	assert.Equal(t, 2, dash.Stats.TotalJobs)
	assert.Len(t, dash.Jobs, 3)

	resp, body = h.do(t, h.client, http.MethodPatch, "/employer/applications/app-9/status", model.StatusUpdate{Status: model.StatusShortlisted})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, _ = h.do(t, h.client, http.MethodPatch, "/employer/applications/app-9/status", model.StatusUpdate{Status: "promoted"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminBackup(t *testing.T) {
	h := newHarness(t, true)
	h.login(t, h.client, model.RoleAdmin, true)

	resp, body := h.do(t, h.client, http.MethodGet, "/admin/backup", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, testutil.BackupContent, string(body))
	assert.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "hireloop-backup.zip")

	resp, _ = h.do(t, h.client, http.MethodGet, "/admin/users", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = h.do(t, h.client, http.MethodDelete, "/admin/contacts/c-1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestFirstVisitIssuesCookies(t *testing.T) {
	h := newHarness(t, true)
	resp, _ := h.do(t, h.client, http.MethodGet, "/session", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var names []string
	for _, c := range resp.Cookies() {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{middleware.ClientCookie, middleware.TabCookie}, names)
}
