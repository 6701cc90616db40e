package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hireloop/hireloop-web/internal/gateway"
	"github.com/hireloop/hireloop-web/internal/model"
)

// Jobs is the job listing client.
type Jobs struct {
	s *Session
}

// Jobs returns the job listing client bound to s.
func (s *Session) Jobs() *Jobs {
	return &Jobs{s: s}
}

// Search lists public jobs. A newer search supersedes one still in flight.
func (j *Jobs) Search(ctx context.Context, q model.JobQuery) (model.JobPage, error) {
	params := url.Values{}
	if q.Q != "" {
		params.Set("q", q.Q)
	}
	if q.Location != "" {
		params.Set("location", q.Location)
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	var page model.JobPage
	err := j.s.api.Do(ctx, gateway.Request{Path: "/jobs", Query: params, Action: "job-search", Anonymous: true}, &page)
	if err != nil {
		return model.JobPage{}, err
	}
	if page.Jobs == nil {
		page.Jobs = []model.Job{}
	}
	return page, nil
}

// Get returns one public job.
func (j *Jobs) Get(ctx context.Context, id string) (model.Job, error) {
	if err := validateVar("id", id, "required"); err != nil {
		return model.Job{}, err
	}
	var job model.Job
	err := j.s.api.Do(ctx, gateway.Request{Path: "/jobs/" + url.PathEscape(id), Anonymous: true}, &job)
	return job, err
}

// Mine lists the jobs posted by the logged-in employer.
func (j *Jobs) Mine(ctx context.Context) ([]model.Job, error) {
	jobs := []model.Job{}
	if err := j.s.api.Do(ctx, gateway.Request{Path: "/employer/jobs", Action: "employer-jobs"}, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// Create posts a new job listing.
func (j *Jobs) Create(ctx context.Context, in model.JobInput) (model.Job, error) {
	if err := validateStruct(in); err != nil {
		return model.Job{}, err
	}
	var job model.Job
	err := j.s.api.Do(ctx, gateway.Request{Method: http.MethodPost, Path: "/jobs", Body: in}, &job)
	if err != nil {
		return model.Job{}, asValidationError(err)
	}
	return job, nil
}

// Update replaces the editable fields of a job listing.
func (j *Jobs) Update(ctx context.Context, id string, in model.JobInput) (model.Job, error) {
	if err := validateVar("id", id, "required"); err != nil {
		return model.Job{}, err
	}
	if err := validateStruct(in); err != nil {
		return model.Job{}, err
	}
	var job model.Job
	err := j.s.api.Do(ctx, gateway.Request{Method: http.MethodPut, Path: "/jobs/" + url.PathEscape(id), Body: in}, &job)
	if err != nil {
		return model.Job{}, asValidationError(err)
	}
	return job, nil
}

// Delete removes a job listing.
func (j *Jobs) Delete(ctx context.Context, id string) error {
	if err := validateVar("id", id, "required"); err != nil {
		return err
	}
	return j.s.api.Do(ctx, gateway.Request{Method: http.MethodDelete, Path: "/jobs/" + url.PathEscape(id)}, nil)
}
