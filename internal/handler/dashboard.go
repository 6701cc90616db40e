package handler

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/hireloop/hireloop-web/internal/model"
)

// DashboardHandler serves the role dashboards, fetching their parts concurrently.
type DashboardHandler struct{}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

type workerDashboard struct {
	User          model.Identity         `json:"user"`
	Applications  []model.AppliedJob     `json:"applications"`
	Notifications model.NotificationFeed `json:"notifications"`
}

type employerDashboard struct {
	User  model.Identity      `json:"user"`
	Stats model.EmployerStats `json:"stats"`
	Jobs  []model.Job         `json:"jobs"`
}

// HandleWorker handles GET /dashboard/worker requests.
func (h *DashboardHandler) HandleWorker(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}

	var dash workerDashboard
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		apps, err := sess.Applications().Mine(ctx)
		dash.Applications = apps
		return err
	})
	g.Go(func() error {
		feed, err := sess.Notifications().List(ctx)
		dash.Notifications = feed
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(w, r, err)
		return
	}

	dash.User, _ = sess.Identity()
	writeJSON(w, http.StatusOK, dash)
}

// HandleEmployer handles GET /dashboard/employer requests.
func (h *DashboardHandler) HandleEmployer(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}

	var dash employerDashboard
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		stats, err := sess.Employer().Stats(ctx)
		dash.Stats = stats
		return err
	})
	g.Go(func() error {
		jobs, err := sess.Jobs().Mine(ctx)
		dash.Jobs = jobs
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(w, r, err)
		return
	}

	dash.User, _ = sess.Identity()
	writeJSON(w, http.StatusOK, dash)
}
