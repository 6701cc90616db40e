package model

import "encoding/json"

// Role is the account type a user logs in as.
type Role string

const (
	RoleWorker   Role = "worker"
	RoleEmployer Role = "employer"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleWorker, RoleEmployer, RoleAdmin:
		return true
	}
	return false
}

// Identity represents the logged-in user's profile as returned by the backend.
type Identity struct {
	ID           string   `json:"_id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Role         Role     `json:"role"`
	ProfilePhoto string   `json:"profilePhoto,omitempty"`
	Resume       string   `json:"resume,omitempty"`
	City         string   `json:"city,omitempty"`
	Pincode      string   `json:"pincode,omitempty"`
	Skills       []string `json:"skills,omitempty"`
}

// UnmarshalJSON accepts both "_id" and "id" for the user identifier.
func (i *Identity) UnmarshalJSON(data []byte) error {
	type identity Identity
	aux := struct {
		*identity
		AltID string `json:"id"`
	}{identity: (*identity)(i)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if i.ID == "" {
		i.ID = aux.AltID
	}
	return nil
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role" validate:"required,oneof=worker employer admin"`
}

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	Name     string   `json:"name" validate:"required"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=6"`
	Role     Role     `json:"role" validate:"required,oneof=worker employer admin"`
	City     string   `json:"city,omitempty"`
	Pincode  string   `json:"pincode,omitempty" validate:"omitempty,numeric"`
	Skills   []string `json:"skills,omitempty"`
}

// ProfileUpdate carries the editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name    *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	City    *string  `json:"city,omitempty"`
	Pincode *string  `json:"pincode,omitempty" validate:"omitempty,numeric"`
	Skills  []string `json:"skills,omitempty"`
}

// AuthResponse represents a successful login response with the bearer token and user.
type AuthResponse struct {
	Token string   `json:"token"`
	User  Identity `json:"user"`
}

// MessageResponse is the body of endpoints that only acknowledge with a message.
type MessageResponse struct {
	Msg string `json:"msg"`
}

// ProfileResponse wraps the user returned by profile endpoints.
type ProfileResponse struct {
	User Identity `json:"user"`
}

// UploadResponse is returned by the photo and resume upload endpoints.
type UploadResponse struct {
	URL  string    `json:"url"`
	User *Identity `json:"user,omitempty"`
}
