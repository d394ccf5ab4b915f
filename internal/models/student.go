package models

// Student represents a learner registered in the school.
type Student struct {
	ID               int    `json:"id"`
	Name             string `json:"name" validate:"required,max=120"`
	RegistrationCode string `json:"registration_code" validate:"required,max=50"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search   string
	ClassID  int
	Page     int
	PageSize int
}

// EntityID implements the store's keyed record contract.
func (s *Student) EntityID() int { return s.ID }

// SetEntityID implements the store's keyed record contract.
func (s *Student) SetEntityID(id int) { s.ID = id }

// Code returns the registration code used for uniqueness checks.
func (s *Student) Code() string { return s.RegistrationCode }

// Clone returns an independent copy.
func (s *Student) Clone() Student { return *s }

// Matches reports whether the student's name or code contains the search term.
func (s Student) Matches(search string) bool {
	return containsFold(s.Name, search) || containsFold(s.RegistrationCode, search)
}
