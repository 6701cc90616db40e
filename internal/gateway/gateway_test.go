package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(baseURL, token string, onUnauthorized UnauthorizedFunc) *Gateway {
	return New(Config{BaseURL: baseURL, Timeout: 2 * time.Second}, TokenFunc(func() string { return token }), onUnauthorized)
}

func TestGateway_Do_AttachesBearerAndDecodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Equal(t, "/applications", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "j-1", body["jobId"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"_id": "a-1"})
	}))
	defer server.Close()

	gw := newTestGateway(server.URL+"/", "tok-123", nil)
	var out struct {
		ID string `json:"_id"`
	}
	err := gw.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/applications",
		Query:  url.Values{"page": {"2"}},
		Body:   map[string]string{"jobId": "j-1"},
	}, &out)

	require.NoError(t, err)
	assert.Equal(t, "a-1", out.ID)
}

func TestGateway_Do_AnonymousAndNoToken(t *testing.T) {
	var sawAuth atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	require.NoError(t, newTestGateway(server.URL, "tok", nil).Do(context.Background(), Request{Path: "/jobs", Anonymous: true}, nil))
	assert.Equal(t, "", sawAuth.Load())

	require.NoError(t, newTestGateway(server.URL, "", nil).Do(context.Background(), Request{Path: "/jobs"}, nil))
	assert.Equal(t, "", sawAuth.Load())
}

func TestGateway_Do_CallerHeadersOverrideDefaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer override", r.Header.Get("Authorization"))
		assert.Equal(t, "text/csv", r.Header.Get("Accept"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := newTestGateway(server.URL, "tok", nil).Do(context.Background(), Request{
		Path:   "/admin/reports",
		Header: http.Header{"Authorization": {"Bearer override"}, "Accept": {"text/csv"}},
	}, nil)
	require.NoError(t, err)
}

func TestGateway_Do_UnauthorizedTearsDownSession(t *testing.T) {
	for _, path := range []string{"/applications", "/notifications", "/users/profile", "/admin/users"} {
		t.Run(path, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"msg":"Token expired"}`))
			}))
			defer server.Close()

			var teardowns int32
			var rejected atomic.Value
			gw := newTestGateway(server.URL, "stale", func(_ context.Context, token string) {
				atomic.AddInt32(&teardowns, 1)
				rejected.Store(token)
			})

			err := gw.Do(context.Background(), Request{Path: path}, nil)
			assert.ErrorIs(t, err, ErrUnauthorized)
			assert.Equal(t, int32(1), atomic.LoadInt32(&teardowns))
			assert.Equal(t, "stale", rejected.Load(), "the hook learns which token was rejected")
		})
	}
}

func TestGateway_Do_AnonymousUnauthorizedIsRequestError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"msg":"Invalid credentials"}`))
	}))
	defer server.Close()

	called := false
	gw := newTestGateway(server.URL, "", func(context.Context, string) { called = true })
	err := gw.Do(context.Background(), Request{Method: http.MethodPost, Path: "/auth/login", Anonymous: true}, nil)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusUnauthorized, reqErr.Status)
	assert.Equal(t, "Invalid credentials", reqErr.Message)
	assert.False(t, called)
}

func TestGateway_Do_RequestFailedMessage(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "msg field", status: 404, body: `{"msg":"No account found"}`, want: "No account found"},
		{name: "message field", status: 400, body: `{"message":"Email already registered"}`, want: "Email already registered"},
		{name: "error field", status: 403, body: `{"error":"Forbidden for role"}`, want: "Forbidden for role"},
		{name: "validation array", status: 422, body: `{"errors":[{"msg":"Name is required"},{"msg":"Invalid email"}]}`, want: "Name is required; Invalid email"},
		{name: "non json body", status: 500, body: `<html>oops</html>`, want: "Internal Server Error"},
		{name: "empty body", status: 409, body: ``, want: "Conflict"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := newTestGateway(server.URL, "tok", nil).Do(context.Background(), Request{Path: "/x"}, nil)

			assert.ErrorIs(t, err, ErrRequestFailed)
			var reqErr *RequestError
			require.ErrorAs(t, err, &reqErr)
			assert.Equal(t, tt.status, reqErr.Status)
			assert.Equal(t, tt.want, reqErr.Message)
		})
	}
}

func TestGateway_Do_ConnectivityError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	err := newTestGateway(baseURL, "tok", nil).Do(context.Background(), Request{Path: "/jobs"}, nil)

	assert.ErrorIs(t, err, ErrConnectivity)
	assert.NotErrorIs(t, err, ErrRequestFailed)
	assert.Contains(t, err.Error(), baseURL)
}

func TestGateway_Do_TimeoutIsConnectivityError(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	gw := New(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond}, nil, nil)
	err := gw.Do(context.Background(), Request{Path: "/slow"}, nil)

	assert.ErrorIs(t, err, ErrConnectivity)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGateway_Do_SupersededActionIsCancelled(t *testing.T) {
	var calls int32
	firstStarted := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(firstStarted)
			<-r.Context().Done()
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"q": r.URL.Query().Get("q")})
	}))
	defer server.Close()

	gw := newTestGateway(server.URL, "", nil)

	firstErr := make(chan error, 1)
	go func() {
		firstErr <- gw.Do(context.Background(), Request{Path: "/jobs", Query: url.Values{"q": {"wel"}}, Action: "job-search"}, nil)
	}()
	<-firstStarted

	var out map[string]string
	require.NoError(t, gw.Do(context.Background(), Request{Path: "/jobs", Query: url.Values{"q": {"welder"}}, Action: "job-search"}, &out))
	assert.Equal(t, "welder", out["q"])

	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded call did not return")
	}
	assert.Equal(t, 0, gw.actions.inFlight())
}

func TestGateway_Do_CallerCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := newTestGateway(server.URL, "", nil).Do(ctx, Request{Path: "/jobs"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrConnectivity)
}

func TestGateway_Upload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))

		file, header, err := r.FormFile("resume")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "cv.pdf", header.Filename)
		assert.Equal(t, "%PDF-1.4", string(data))

		json.NewEncoder(w).Encode(map[string]string{"url": "/uploads/cv.pdf"})
	}))
	defer server.Close()

	var out struct {
		URL string `json:"url"`
	}
	err := newTestGateway(server.URL, "tok", nil).Upload(context.Background(), "/users/upload/resume", "resume", "cv.pdf", strings.NewReader("%PDF-1.4"), &out)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/cv.pdf", out.URL)
}

func TestGateway_Download(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", `attachment; filename="backup-2026.zip"`)
		w.Write([]byte{0x50, 0x4b, 0x03, 0x04})
	}))
	defer server.Close()

	var buf bytes.Buffer
	name, err := newTestGateway(server.URL, "tok", nil).Download(context.Background(), "/admin/backup/export", &buf)

	require.NoError(t, err)
	assert.Equal(t, "backup-2026.zip", name)
	assert.Equal(t, []byte{0x50, 0x4b, 0x03, 0x04}, buf.Bytes())
}

func TestGateway_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	assert.NoError(t, newTestGateway(server.URL, "", nil).Ping(context.Background(), "/health"))

	server.Close()
	err := newTestGateway(server.URL, "", nil).Ping(context.Background(), "/health")
	assert.True(t, errors.Is(err, ErrConnectivity))
}
