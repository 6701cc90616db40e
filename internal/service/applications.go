package service

import (
	"context"
	"net/http"
	"net/url"
	"slices"

	"github.com/hireloop/hireloop-web/internal/gateway"
	"github.com/hireloop/hireloop-web/internal/model"
)

// Applications is the job application client. Worker calls keep the session's
// applied-jobs projection in step; the backend's list stays authoritative.
type Applications struct {
	s *Session
}

// Applications returns the application client bound to s.
func (s *Session) Applications() *Applications {
	return &Applications{s: s}
}

// Apply submits an application and adds it to the projection.
func (a *Applications) Apply(ctx context.Context, jobID, coverLetter string) (model.AppliedJob, error) {
	token, err := a.s.requireToken()
	if err != nil {
		return model.AppliedJob{}, err
	}
	if err := validateVar("jobId", jobID, "required"); err != nil {
		return model.AppliedJob{}, err
	}

	var applied model.AppliedJob
	err = a.s.api.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   "/applications",
		Body:   model.ApplyRequest{JobID: jobID, CoverLetter: coverLetter},
		Action: "apply:" + jobID,
	}, &applied)
	if err != nil {
		return model.AppliedJob{}, err
	}
	if applied.JobID == "" {
		applied.JobID = jobID
	}

	a.s.updateAppliedJobs(ctx, token, func(jobs []model.AppliedJob) []model.AppliedJob {
		jobs = slices.DeleteFunc(jobs, func(j model.AppliedJob) bool { return j.ID == applied.ID })
		return append([]model.AppliedJob{applied}, jobs...)
	})
	return applied, nil
}

// Mine re-syncs the projection from the backend and mirrors it to storage.
func (a *Applications) Mine(ctx context.Context) ([]model.AppliedJob, error) {
	token, err := a.s.requireToken()
	if err != nil {
		return nil, err
	}

	jobs := []model.AppliedJob{}
	if err := a.s.api.Do(ctx, gateway.Request{Path: "/applications/my", Action: "applications"}, &jobs); err != nil {
		return nil, err
	}

	a.s.updateAppliedJobs(ctx, token, func([]model.AppliedJob) []model.AppliedJob {
		return slices.Clone(jobs)
	})
	return jobs, nil
}

// Withdraw removes the application from the projection immediately, then asks the
// backend to delete it. A failure is returned and the next Mine restores the
// authoritative list.
func (a *Applications) Withdraw(ctx context.Context, id string) error {
	token, err := a.s.requireToken()
	if err != nil {
		return err
	}
	if err := validateVar("id", id, "required"); err != nil {
		return err
	}

	a.s.updateAppliedJobs(ctx, token, func(jobs []model.AppliedJob) []model.AppliedJob {
		return slices.DeleteFunc(jobs, func(j model.AppliedJob) bool { return j.ID == id })
	})

	return a.s.api.Do(ctx, gateway.Request{
		Method: http.MethodDelete,
		Path:   "/applications/" + url.PathEscape(id),
		Action: "withdraw:" + id,
	}, nil)
}

// ForJob lists the applications received for one of the employer's jobs.
func (a *Applications) ForJob(ctx context.Context, jobID string) ([]model.Application, error) {
	if err := validateVar("jobId", jobID, "required"); err != nil {
		return nil, err
	}
	apps := []model.Application{}
	err := a.s.api.Do(ctx, gateway.Request{Path: "/applications/job/" + url.PathEscape(jobID), Action: "job-applications"}, &apps)
	if err != nil {
		return nil, err
	}
	return apps, nil
}

// SetStatus moves an application to status.
func (a *Applications) SetStatus(ctx context.Context, id string, status model.ApplicationStatus) (model.Application, error) {
	if err := validateVar("id", id, "required"); err != nil {
		return model.Application{}, err
	}
	if !status.Valid() {
		return model.Application{}, &ValidationError{
			Message: "status must be one of: applied reviewed shortlisted rejected hired",
			Fields:  map[string]string{"status": "invalid"},
		}
	}

	var app model.Application
	err := a.s.api.Do(ctx, gateway.Request{
		Method: http.MethodPatch,
		Path:   "/applications/" + url.PathEscape(id) + "/status",
		Body:   model.StatusUpdate{Status: status},
		Action: "status:" + id,
	}, &app)
	if err != nil {
		return model.Application{}, asValidationError(err)
	}
	return app, nil
}
