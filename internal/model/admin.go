package model

import "time"

// AdminUser represents a user row in the admin user table.
type AdminUser struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Contact is a message submitted through the public contact form.
type Contact struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// ContactMessage is the public contact form submission.
type ContactMessage struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message" validate:"required"`
}

// Report is a user-submitted report about a listing or account.
type Report struct {
	ID         string    `json:"_id"`
	Reason     string    `json:"reason"`
	TargetType string    `json:"targetType"`
	TargetID   string    `json:"targetId"`
	ReportedBy string    `json:"reportedBy,omitempty"`
	Status     string    `json:"status,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
