package service

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/hireloop/hireloop-web/internal/gateway"
	"github.com/hireloop/hireloop-web/internal/model"
)

// Admin is the administration client.
type Admin struct {
	s *Session
}

// Admin returns the administration client bound to s.
func (s *Session) Admin() *Admin {
	return &Admin{s: s}
}

func (a *Admin) Users(ctx context.Context) ([]model.AdminUser, error) {
	users := []model.AdminUser{}
	if err := a.s.api.Do(ctx, gateway.Request{Path: "/admin/users", Action: "admin-users"}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (a *Admin) DeleteUser(ctx context.Context, id string) error {
	return a.delete(ctx, "/admin/users/", id)
}

func (a *Admin) Jobs(ctx context.Context) ([]model.Job, error) {
	jobs := []model.Job{}
	if err := a.s.api.Do(ctx, gateway.Request{Path: "/admin/jobs", Action: "admin-jobs"}, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (a *Admin) DeleteJob(ctx context.Context, id string) error {
	return a.delete(ctx, "/admin/jobs/", id)
}

func (a *Admin) Contacts(ctx context.Context) ([]model.Contact, error) {
	contacts := []model.Contact{}
	if err := a.s.api.Do(ctx, gateway.Request{Path: "/admin/contacts", Action: "admin-contacts"}, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

func (a *Admin) DeleteContact(ctx context.Context, id string) error {
	return a.delete(ctx, "/admin/contacts/", id)
}

func (a *Admin) Reports(ctx context.Context) ([]model.Report, error) {
	reports := []model.Report{}
	if err := a.s.api.Do(ctx, gateway.Request{Path: "/admin/reports", Action: "admin-reports"}, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// ExportBackup streams the backend's backup archive into w and returns its filename.
func (a *Admin) ExportBackup(ctx context.Context, w io.Writer) (string, error) {
	return a.s.api.Download(ctx, "/admin/backup/export", w)
}

func (a *Admin) delete(ctx context.Context, prefix, id string) error {
	if err := validateVar("id", id, "required"); err != nil {
		return err
	}
	return a.s.api.Do(ctx, gateway.Request{Method: http.MethodDelete, Path: prefix + url.PathEscape(id)}, nil)
}
