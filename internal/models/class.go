package models

// Class is a group of enrolled students with its graded activities.
// StudentIDs keeps enrollment order; report tie-breaks depend on it.
type Class struct {
	ID          int    `json:"id"`
	Name        string `json:"name" validate:"required,max=120"`
	StudentIDs  []int  `json:"student_ids"`
	ActivityIDs []int  `json:"activity_ids"`
}

// EntityID implements the store's keyed record contract.
func (c *Class) EntityID() int { return c.ID }

// SetEntityID implements the store's keyed record contract.
func (c *Class) SetEntityID(id int) { c.ID = id }

// Code returns an empty code; class names are not unique.
func (c *Class) Code() string { return "" }

// Clone returns a copy that shares no slices with the receiver.
func (c *Class) Clone() Class {
	out := *c
	out.StudentIDs = append(make([]int, 0, len(c.StudentIDs)), c.StudentIDs...)
	out.ActivityIDs = append(make([]int, 0, len(c.ActivityIDs)), c.ActivityIDs...)
	return out
}

// HasStudent reports whether the student is enrolled.
func (c Class) HasStudent(studentID int) bool {
	return containsID(c.StudentIDs, studentID)
}

// HasActivity reports whether the activity belongs to the class.
func (c Class) HasActivity(activityID int) bool {
	return containsID(c.ActivityIDs, activityID)
}

// RemoveStudent drops the student id and reports whether it was present.
func (c *Class) RemoveStudent(studentID int) bool {
	var removed bool
	c.StudentIDs, removed = removeID(c.StudentIDs, studentID)
	return removed
}

// RemoveActivity drops the activity id and reports whether it was present.
func (c *Class) RemoveActivity(activityID int) bool {
	var removed bool
	c.ActivityIDs, removed = removeID(c.ActivityIDs, activityID)
	return removed
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []int, id int) ([]int, bool) {
	out := ids[:0]
	removed := false
	for _, v := range ids {
		if v == id {
			removed = true
			continue
		}
		out = append(out, v)
	}
	return out, removed
}
