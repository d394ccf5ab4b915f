package models

import "strings"

// Teacher is an operator account. PasswordHash holds a bcrypt digest.
type Teacher struct {
	ID               int    `json:"id"`
	Name             string `json:"name" validate:"required,max=120"`
	RegistrationCode string `json:"registration_code" validate:"required,max=50"`
	PasswordHash     string `json:"password_hash" validate:"required"`
}

// TeacherProfile is the teacher record without credentials, used in responses.
type TeacherProfile struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	RegistrationCode string `json:"registration_code"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search   string
	Page     int
	PageSize int
}

// EntityID implements the store's keyed record contract.
func (t *Teacher) EntityID() int { return t.ID }

// SetEntityID implements the store's keyed record contract.
func (t *Teacher) SetEntityID(id int) { t.ID = id }

// Code returns the registration code used for uniqueness checks.
func (t *Teacher) Code() string { return t.RegistrationCode }

// Clone returns an independent copy.
func (t *Teacher) Clone() Teacher { return *t }

// Profile strips the password digest.
func (t Teacher) Profile() TeacherProfile {
	return TeacherProfile{ID: t.ID, Name: t.Name, RegistrationCode: t.RegistrationCode}
}

// Matches reports whether the teacher's name or code contains the search term.
func (t Teacher) Matches(search string) bool {
	return containsFold(t.Name, search) || containsFold(t.RegistrationCode, search)
}

func containsFold(value, search string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(search))
}
