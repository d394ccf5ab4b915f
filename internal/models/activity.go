package models

// Grade bounds accepted at entry time.
const (
	MinGrade = 0.0
	MaxGrade = 10.0
)

// Activity is a graded piece of work owned by exactly one class.
// Grades is keyed by student id; on disk the keys are the decimal text of the id.
type Activity struct {
	ID          int             `json:"id"`
	Name        string          `json:"name" validate:"required,max=120"`
	Description string          `json:"description" validate:"max=1000"`
	ClassID     int             `json:"class_id" validate:"gt=0"`
	Grades      map[int]float64 `json:"grades" validate:"dive,gte=0,lte=10"`
}

// ActivityFilter scopes activity listings.
type ActivityFilter struct {
	ClassID int
}

// EntityID implements the store's keyed record contract.
func (a *Activity) EntityID() int { return a.ID }

// SetEntityID implements the store's keyed record contract.
func (a *Activity) SetEntityID(id int) { a.ID = id }

// Code returns an empty code; activities have no registration code.
func (a *Activity) Code() string { return "" }

// Clone returns a copy with its own grade map.
func (a *Activity) Clone() Activity {
	out := *a
	out.Grades = make(map[int]float64, len(a.Grades))
	for k, v := range a.Grades {
		out.Grades[k] = v
	}
	return out
}

// Grade returns the student's grade, if recorded.
func (a Activity) Grade(studentID int) (float64, bool) {
	v, ok := a.Grades[studentID]
	return v, ok
}

// GradeRow is one recorded grade of an activity, joined with the student record.
type GradeRow struct {
	StudentID        int     `json:"student_id"`
	StudentName      string  `json:"student_name"`
	RegistrationCode string  `json:"registration_code,omitempty"`
	Grade            float64 `json:"grade"`
}
