package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/repository"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

// GradeService records and removes activity grades.
type GradeService struct {
	store  recordStore
	logger *zap.Logger
}

// NewGradeService constructs the grade service.
func NewGradeService(store recordStore, logger *zap.Logger) *GradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{store: store, logger: logger}
}

// ValidateGrade rejects values outside the inclusive [0, 10] range.
func ValidateGrade(value float64) error {
	if math.IsNaN(value) || value < models.MinGrade || value > models.MaxGrade {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("grade must be between %g and %g", models.MinGrade, models.MaxGrade))
	}
	return nil
}

// SetGrade upserts the student's grade on the activity. The student must be
// enrolled in the activity's class.
func (s *GradeService) SetGrade(ctx context.Context, activityID, studentID int, value float64) error {
	if err := ValidateGrade(value); err != nil {
		return err
	}
	err := s.store.Mutate(ctx, func(tx *repository.Tx) error {
		activity, err := tx.Activity(activityID)
		if err != nil {
			return translate(err, "activity")
		}
		class, err := tx.Class(activity.ClassID)
		if err != nil {
			return translate(err, "class")
		}
		if !class.HasStudent(studentID) {
			return appErrors.ErrNotEnrolled
		}
		activity.Grades[studentID] = value
		return tx.UpdateActivity(activity)
	})
	if err != nil {
		return translate(err, "grade")
	}
	s.logger.Debug("grade recorded", zap.Int("activity_id", activityID), zap.Int("student_id", studentID))
	return nil
}

// RemoveGrade deletes the student's grade from the activity.
func (s *GradeService) RemoveGrade(ctx context.Context, activityID, studentID int) error {
	err := s.store.Mutate(ctx, func(tx *repository.Tx) error {
		activity, err := tx.Activity(activityID)
		if err != nil {
			return translate(err, "activity")
		}
		if _, ok := activity.Grades[studentID]; !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		delete(activity.Grades, studentID)
		return tx.UpdateActivity(activity)
	})
	if err != nil {
		return translate(err, "grade")
	}
	return nil
}

// Grades lists the activity's recorded grades ordered by the class's
// enrollment order. Grades for ids no longer in the class come last.
func (s *GradeService) Grades(ctx context.Context, activityID int) ([]models.GradeRow, error) {
	var (
		rows []models.GradeRow
		err  error
	)
	s.store.View(func(v *repository.View) {
		var activity models.Activity
		if activity, err = v.Activity(activityID); err != nil {
			return
		}
		order := make([]int, 0, len(activity.Grades))
		if class, classErr := v.Class(activity.ClassID); classErr == nil {
			for _, sid := range class.StudentIDs {
				if _, ok := activity.Grades[sid]; ok {
					order = append(order, sid)
				}
			}
		}
		order = appendMissing(order, activity.Grades)
		rows = make([]models.GradeRow, 0, len(order))
		for _, sid := range order {
			rows = append(rows, gradeRow(v, sid, activity.Grades[sid]))
		}
	})
	if err != nil {
		return nil, translate(err, "activity")
	}
	return rows, nil
}

func gradeRow(v *repository.View, studentID int, grade float64) models.GradeRow {
	row := models.GradeRow{StudentID: studentID, Grade: grade}
	if st, err := v.Student(studentID); err == nil {
		row.StudentName = st.Name
		row.RegistrationCode = st.RegistrationCode
	} else {
		row.StudentName = fmt.Sprintf("student #%d", studentID)
	}
	return row
}

// appendMissing adds the graded ids not yet in order, ascending.
func appendMissing(order []int, grades map[int]float64) []int {
	seen := make(map[int]bool, len(order))
	for _, id := range order {
		seen[id] = true
	}
	extra := make([]int, 0)
	for id := range grades {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	sort.Ints(extra)
	return append(order, extra...)
}
