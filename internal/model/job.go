package model

import "time"

// Job represents a job listing.
type Job struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Description string    `json:"description,omitempty"`
	Salary      string    `json:"salary,omitempty"`
	Type        string    `json:"type,omitempty"`
	Skills      []string  `json:"skills,omitempty"`
	Status      string    `json:"status,omitempty"`
	PostedBy    string    `json:"postedBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// JobQuery filters and paginates a job search.
type JobQuery struct {
	Q        string
	Location string
	Page     int
	Limit    int
}

// JobPage is one page of job search results.
type JobPage struct {
	Jobs       []Job `json:"jobs"`
	Page       int   `json:"page"`
	TotalPages int   `json:"totalPages"`
	Total      int   `json:"total"`
}

// JobInput is the employer-editable part of a job listing.
type JobInput struct {
	Title       string   `json:"title" validate:"required"`
	Company     string   `json:"company" validate:"required"`
	Location    string   `json:"location" validate:"required"`
	Description string   `json:"description,omitempty"`
	Salary      string   `json:"salary,omitempty"`
	Type        string   `json:"type,omitempty"`
	Skills      []string `json:"skills,omitempty"`
}

// ApplicationStatus is the lifecycle state of a job application.
type ApplicationStatus string

const (
	StatusApplied     ApplicationStatus = "applied"
	StatusReviewed    ApplicationStatus = "reviewed"
	StatusShortlisted ApplicationStatus = "shortlisted"
	StatusRejected    ApplicationStatus = "rejected"
	StatusHired       ApplicationStatus = "hired"
)

// Valid reports whether s is a known application status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusApplied, StatusReviewed, StatusShortlisted, StatusRejected, StatusHired:
		return true
	}
	return false
}

// AppliedJob is a worker's application summary, the entry type of the applied-jobs cache.
type AppliedJob struct {
	ID        string            `json:"_id"`
	JobID     string            `json:"jobId"`
	Title     string            `json:"title"`
	Company   string            `json:"company"`
	Status    ApplicationStatus `json:"status"`
	AppliedAt time.Time         `json:"appliedAt"`
}

// ApplyRequest represents a job application submission.
type ApplyRequest struct {
	JobID       string `json:"jobId"`
	CoverLetter string `json:"coverLetter,omitempty"`
}

// Application is an application as seen by the employer who owns the job.
type Application struct {
	ID          string            `json:"_id"`
	JobID       string            `json:"jobId"`
	Applicant   Identity          `json:"applicant"`
	CoverLetter string            `json:"coverLetter,omitempty"`
	Status      ApplicationStatus `json:"status"`
	AppliedAt   time.Time         `json:"appliedAt"`
}

// StatusUpdate changes an application's status.
type StatusUpdate struct {
	Status ApplicationStatus `json:"status"`
}

// EmployerStats summarises an employer's listings and incoming applications.
type EmployerStats struct {
	TotalJobs         int `json:"totalJobs"`
	ActiveJobs        int `json:"activeJobs"`
	TotalApplications int `json:"totalApplications"`
	NewApplications   int `json:"newApplications"`
}
