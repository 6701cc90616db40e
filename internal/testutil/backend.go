// Package testutil provides an in-process fake of the marketplace REST backend for tests.
package testutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/hireloop/hireloop-web/internal/model"
)

// ValidResetToken is the only password reset token the fake backend accepts.
const ValidResetToken = "valid-reset-token"

// Account is a user known to the fake backend.
type Account struct {
	Identity model.Identity
	Password string
}

type override struct {
	status int
	body   string
}

// Backend is a fake marketplace backend served over httptest.
type Backend struct {
	*httptest.Server

	secret []byte

	mu            sync.Mutex
	accounts      map[string]*Account // by email
	jobs          []model.Job
	applications  []model.AppliedJob
	received      []model.Application
	notifications []model.Notification
	contacts      []model.Contact
	reports       []model.Report
	stats         model.EmployerStats
	rejectTokens  bool
	overrides     map[string]override
	hits          map[string]int
	seq           int
}

// NewBackend starts a fake backend seeded with one account per role:
// worker@x.com, employer@x.com and admin@x.com, all with password "secret".
func NewBackend() *Backend {
	b := &Backend{
		secret:    []byte("test-backend-secret"),
		accounts:  make(map[string]*Account),
		overrides: make(map[string]override),
		hits:      make(map[string]int),
	}
	for _, role := range []model.Role{model.RoleWorker, model.RoleEmployer, model.RoleAdmin} {
		b.AddAccount(model.Identity{
			ID:    "u-" + string(role),
			Name:  strings.ToUpper(string(role[:1])) + string(role[1:]),
			Email: string(role) + "@x.com",
			Role:  role,
		}, "secret")
	}
	b.jobs = []model.Job{
		{ID: "j-1", Title: "Welder", Company: "Acme", Location: "Pune", PostedBy: "u-employer", Status: "open"},
		{ID: "j-2", Title: "Electrician", Company: "Volt", Location: "Mumbai", PostedBy: "u-employer", Status: "open"},
	}
	b.notifications = []model.Notification{
		{ID: "n-1", Title: "Welcome", Message: "Thanks for joining", IsRead: true},
		{ID: "n-2", Title: "Application viewed", Message: "Acme viewed your application"},
		{ID: "n-3", Title: "New job", Message: "A new job matches your skills"},
	}
	b.received = []model.Application{
		{ID: "app-9", JobID: "j-1", Applicant: model.Identity{ID: "u-worker", Name: "Worker"}, Status: model.StatusApplied},
	}
	b.contacts = []model.Contact{{ID: "c-1", Name: "Ann", Email: "ann@x.com", Message: "Hello"}}
	b.reports = []model.Report{{ID: "r-1", Reason: "spam", TargetType: "job", TargetID: "j-2"}}
	b.stats = model.EmployerStats{TotalJobs: 2, ActiveJobs: 2, TotalApplications: 1, NewApplications: 1}

	b.Server = httptest.NewServer(b.routes())
	return b
}

// AddAccount registers an account.
func (b *Backend) AddAccount(identity model.Identity, password string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[identity.Email] = &Account{Identity: identity, Password: password}
}

// MintToken signs a token for identity that expires after ttl. A negative ttl
// yields an already expired token.
func (b *Backend) MintToken(identity model.Identity, ttl time.Duration) string {
	claims := jwt.MapClaims{
		"id":   identity.ID,
		"role": string(identity.Role),
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

// RejectTokens makes every authenticated endpoint answer 401, as if all issued
// tokens had been revoked.
func (b *Backend) RejectTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejectTokens = true
}

// Fail makes method+path answer status with a {"msg": msg} body.
func (b *Backend) Fail(method, path string, status int, msg string) {
	body, _ := json.Marshal(map[string]string{"msg": msg})
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overrides[method+" "+path] = override{status: status, body: string(body)}
}

// Hits returns how often method+path was called.
func (b *Backend) Hits(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[method+" "+path]
}

// SetStats replaces the employer stats.
func (b *Backend) SetStats(stats model.EmployerStats) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats = stats
}

// Notifications returns the backend's notifications.
func (b *Backend) Notifications() []model.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Notification(nil), b.notifications...)
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.record)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/auth/login", b.login)
	r.Post("/auth/register", b.register)
	r.Post("/auth/forgot-password", b.forgotPassword)
	r.Post("/auth/reset-password/{token}", b.resetPassword)
	r.Post("/contact", b.contact)
	r.Get("/jobs", b.searchJobs)
	r.Get("/jobs/{id}", b.getJob)

	r.Group(func(r chi.Router) {
		r.Use(b.authenticate)

		r.Get("/users/profile", b.profile)
		r.Put("/users/profile", b.updateProfile)
		r.Post("/users/upload/photo", b.upload("profilePhoto"))
		r.Post("/users/upload/resume", b.upload("resume"))

		r.Post("/applications", b.apply)
		r.Get("/applications/my", b.myApplications)
		r.Delete("/applications/{id}", b.withdraw)

		r.Get("/notifications", b.listNotifications)
		r.Put("/notifications/read-all", b.readAll)
		r.Put("/notifications/{id}/read", b.readOne)

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.RoleEmployer))
			r.Get("/employer/stats", b.employerStats)
			r.Get("/employer/jobs", b.employerJobs)
			r.Post("/jobs", b.createJob)
			r.Put("/jobs/{id}", b.updateJob)
			r.Delete("/jobs/{id}", b.deleteJob)
			r.Get("/applications/job/{id}", b.jobApplications)
			r.Patch("/applications/{id}/status", b.setStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.RoleAdmin))
			r.Get("/admin/users", b.adminUsers)
			r.Delete("/admin/users/{id}", b.ok)
			r.Get("/admin/jobs", b.adminJobs)
			r.Delete("/admin/jobs/{id}", b.ok)
			r.Get("/admin/contacts", b.adminContacts)
			r.Delete("/admin/contacts/{id}", b.ok)
			r.Get("/admin/reports", b.adminReports)
			r.Get("/admin/backup/export", b.backup)
		})
	})
	return r
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		b.mu.Lock()
		b.hits[key]++
		o, forced := b.overrides[key]
		b.mu.Unlock()

		if forced {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(o.status)
			io.WriteString(w, o.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type claimsKey struct{}

func (b *Backend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		reject := b.rejectTokens
		b.mu.Unlock()

		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if reject || raw == "" {
			writeJSON(w, http.StatusUnauthorized, msg("No token, authorization denied"))
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return b.secret, nil
		})
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, msg("Token is not valid"))
			return
		}

		id, _ := claims["id"].(string)
		role, _ := claims["role"].(string)
		r.Header.Set("X-User-ID", id)
		r.Header.Set("X-User-Role", role)
		next.ServeHTTP(w, r)
	})
}

func requireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if model.Role(r.Header.Get("X-User-Role")) != role {
				writeJSON(w, http.StatusForbidden, msg("Access denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, msg("Invalid request body"))
		return
	}

	b.mu.Lock()
	acct, ok := b.accounts[req.Email]
	b.mu.Unlock()
	if !ok || acct.Password != req.Password {
		writeJSON(w, http.StatusBadRequest, msg("Invalid credentials"))
		return
	}
	if acct.Identity.Role != req.Role {
		writeJSON(w, http.StatusForbidden, msg(fmt.Sprintf("This account is not registered as %s", req.Role)))
		return
	}

	writeJSON(w, http.StatusOK, model.AuthResponse{Token: b.MintToken(acct.Identity, time.Hour), User: acct.Identity})
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, msg("Invalid request body"))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.accounts[req.Email]; exists {
		writeJSON(w, http.StatusBadRequest, msg("User already exists"))
		return
	}
	b.seq++
	b.accounts[req.Email] = &Account{
		Identity: model.Identity{ID: fmt.Sprintf("u-new-%d", b.seq), Name: req.Name, Email: req.Email, Role: req.Role, City: req.City},
		Password: req.Password,
	}
	writeJSON(w, http.StatusCreated, msg("Registration successful"))
}

func (b *Backend) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	_, ok := b.accounts[req.Email]
	b.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, msg("No account found"))
		return
	}
	writeJSON(w, http.StatusOK, msg("Password reset link sent to your email"))
}

func (b *Backend) resetPassword(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "token") != ValidResetToken {
		writeJSON(w, http.StatusBadRequest, msg("Reset link is invalid or has expired"))
		return
	}
	writeJSON(w, http.StatusOK, msg("Password has been reset"))
}

func (b *Backend) contact(w http.ResponseWriter, r *http.Request) {
	var req model.ContactMessage
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, msg("Invalid request body"))
		return
	}
	b.mu.Lock()
	b.seq++
	b.contacts = append(b.contacts, model.Contact{ID: fmt.Sprintf("c-%d", b.seq), Name: req.Name, Email: req.Email, Message: req.Message})
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, msg("Message sent"))
}

func (b *Backend) searchJobs(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))

	b.mu.Lock()
	jobs := []model.Job{}
	for _, j := range b.jobs {
		if q == "" || strings.Contains(strings.ToLower(j.Title), q) {
			jobs = append(jobs, j)
		}
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, model.JobPage{Jobs: jobs, Page: 1, TotalPages: 1, Total: len(jobs)})
}

func (b *Backend) getJob(w http.ResponseWriter, r *http.Request) {
	if job, ok := b.findJob(chi.URLParam(r, "id")); ok {
		writeJSON(w, http.StatusOK, job)
		return
	}
	writeJSON(w, http.StatusNotFound, msg("Job not found"))
}

func (b *Backend) findJob(id string) (model.Job, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, j := range b.jobs {
		if j.ID == id {
			return j, true
		}
	}
	return model.Job{}, false
}

func (b *Backend) identityFor(r *http.Request) (model.Identity, bool) {
	id := r.Header.Get("X-User-ID")
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, acct := range b.accounts {
		if acct.Identity.ID == id {
			return acct.Identity, true
		}
	}
	return model.Identity{}, false
}

func (b *Backend) profile(w http.ResponseWriter, r *http.Request) {
	identity, ok := b.identityFor(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, msg("User not found"))
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

func (b *Backend) updateProfile(w http.ResponseWriter, r *http.Request) {
	var upd model.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeJSON(w, http.StatusBadRequest, msg("Invalid request body"))
		return
	}

	id := r.Header.Get("X-User-ID")
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, acct := range b.accounts {
		if acct.Identity.ID != id {
			continue
		}
		if upd.Name != nil {
			acct.Identity.Name = *upd.Name
		}
		if upd.City != nil {
			acct.Identity.City = *upd.City
		}
		if upd.Pincode != nil {
			acct.Identity.Pincode = *upd.Pincode
		}
		if upd.Skills != nil {
			acct.Identity.Skills = upd.Skills
		}
		writeJSON(w, http.StatusOK, model.ProfileResponse{User: acct.Identity})
		return
	}
	writeJSON(w, http.StatusNotFound, msg("User not found"))
}

func (b *Backend) upload(field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile(field)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, msg("No file uploaded"))
			return
		}
		ref := "/uploads/" + header.Filename

		id := r.Header.Get("X-User-ID")
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, acct := range b.accounts {
			if acct.Identity.ID != id {
				continue
			}
			if field == "resume" {
				acct.Identity.Resume = ref
			} else {
				acct.Identity.ProfilePhoto = ref
			}
			user := acct.Identity
			writeJSON(w, http.StatusOK, model.UploadResponse{URL: ref, User: &user})
			return
		}
		writeJSON(w, http.StatusNotFound, msg("User not found"))
	}
}

func (b *Backend) apply(w http.ResponseWriter, r *http.Request) {
	var req model.ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, msg("Invalid request body"))
		return
	}
	job, ok := b.findJob(req.JobID)
	if !ok {
		writeJSON(w, http.StatusNotFound, msg("Job not found"))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.applications {
		if a.JobID == req.JobID {
			writeJSON(w, http.StatusBadRequest, msg("You have already applied for this job"))
			return
		}
	}
	b.seq++
	applied := model.AppliedJob{
		ID:        fmt.Sprintf("a-%d", b.seq),
		JobID:     job.ID,
		Title:     job.Title,
		Company:   job.Company,
		Status:    model.StatusApplied,
		AppliedAt: time.Now().UTC().Truncate(time.Second),
	}
	b.applications = append(b.applications, applied)
	writeJSON(w, http.StatusCreated, applied)
}

func (b *Backend) myApplications(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	apps := append([]model.AppliedJob{}, b.applications...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, apps)
}

func (b *Backend) withdraw(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, a := range b.applications {
		if a.ID == id {
			b.applications = append(b.applications[:i], b.applications[i+1:]...)
			writeJSON(w, http.StatusOK, msg("Application withdrawn"))
			return
		}
	}
	writeJSON(w, http.StatusNotFound, msg("Application not found"))
}

func (b *Backend) listNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.Notifications())
}

func (b *Backend) readOne(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.notifications {
		if b.notifications[i].ID == id {
			b.notifications[i].IsRead = true
			writeJSON(w, http.StatusOK, b.notifications[i])
			return
		}
	}
	writeJSON(w, http.StatusNotFound, msg("Notification not found"))
}

func (b *Backend) readAll(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	for i := range b.notifications {
		b.notifications[i].IsRead = true
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, msg("All notifications marked as read"))
}

func (b *Backend) employerStats(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	stats := b.stats
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, stats)
}

func (b *Backend) employerJobs(w http.ResponseWriter, r *http.Request) {
	owner := r.Header.Get("X-User-ID")
	b.mu.Lock()
	jobs := []model.Job{}
	for _, j := range b.jobs {
		if j.PostedBy == owner {
			jobs = append(jobs, j)
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, jobs)
}

func (b *Backend) createJob(w http.ResponseWriter, r *http.Request) {
	var in model.JobInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, msg("Invalid request body"))
		return
	}
	b.mu.Lock()
	b.seq++
	job := model.Job{
		ID:          fmt.Sprintf("j-new-%d", b.seq),
		Title:       in.Title,
		Company:     in.Company,
		Location:    in.Location,
		Description: in.Description,
		PostedBy:    r.Header.Get("X-User-ID"),
		Status:      "open",
	}
	b.jobs = append(b.jobs, job)
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, job)
}

func (b *Backend) updateJob(w http.ResponseWriter, r *http.Request) {
	var in model.JobInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, msg("Invalid request body"))
		return
	}
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.jobs {
		if b.jobs[i].ID == id {
			b.jobs[i].Title = in.Title
			b.jobs[i].Company = in.Company
			b.jobs[i].Location = in.Location
			writeJSON(w, http.StatusOK, b.jobs[i])
			return
		}
	}
	writeJSON(w, http.StatusNotFound, msg("Job not found"))
}

func (b *Backend) deleteJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.jobs {
		if b.jobs[i].ID == id {
			b.jobs = append(b.jobs[:i], b.jobs[i+1:]...)
			writeJSON(w, http.StatusOK, msg("Job removed"))
			return
		}
	}
	writeJSON(w, http.StatusNotFound, msg("Job not found"))
}

func (b *Backend) jobApplications(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	b.mu.Lock()
	apps := []model.Application{}
	for _, a := range b.received {
		if a.JobID == jobID {
			apps = append(apps, a)
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, apps)
}

func (b *Backend) setStatus(w http.ResponseWriter, r *http.Request) {
	var upd model.StatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil || !upd.Status.Valid() {
		writeJSON(w, http.StatusBadRequest, msg("Invalid status"))
		return
	}
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.received {
		if b.received[i].ID == id {
			b.received[i].Status = upd.Status
			writeJSON(w, http.StatusOK, b.received[i])
			return
		}
	}
	writeJSON(w, http.StatusNotFound, msg("Application not found"))
}

func (b *Backend) adminUsers(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	users := []model.AdminUser{}
	for _, acct := range b.accounts {
		users = append(users, model.AdminUser{ID: acct.Identity.ID, Name: acct.Identity.Name, Email: acct.Identity.Email, Role: acct.Identity.Role})
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, users)
}

func (b *Backend) adminJobs(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	jobs := append([]model.Job{}, b.jobs...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, jobs)
}

func (b *Backend) adminContacts(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	contacts := append([]model.Contact{}, b.contacts...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, contacts)
}

func (b *Backend) adminReports(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	reports := append([]model.Report{}, b.reports...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, reports)
}

// BackupContent is the body served by the backup export endpoint.
const BackupContent = "PK-fake-backup-archive"

func (b *Backend) backup(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="hireloop-backup.zip"`)
	io.WriteString(w, BackupContent)
}

func (b *Backend) ok(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, msg("Deleted"))
}

func msg(text string) map[string]string {
	return map[string]string{"msg": text}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
