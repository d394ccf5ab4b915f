package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/repository"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

// EnrollmentService adds students to classes and removes them.
type EnrollmentService struct {
	store  recordStore
	logger *zap.Logger
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(store recordStore, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{store: store, logger: logger}
}

// Enroll appends the student to the class's enrollment list.
func (s *EnrollmentService) Enroll(ctx context.Context, classID, studentID int) error {
	err := s.store.Mutate(ctx, func(tx *repository.Tx) error {
		return enroll(tx, classID, studentID)
	})
	if err != nil {
		return translate(err, "enrollment")
	}
	s.logger.Info("student enrolled", zap.Int("class_id", classID), zap.Int("student_id", studentID))
	return nil
}

// Unenroll removes the student from the class and drops every grade the
// student holds in the class's activities.
func (s *EnrollmentService) Unenroll(ctx context.Context, classID, studentID int) error {
	var purged int
	err := s.store.Mutate(ctx, func(tx *repository.Tx) error {
		class, err := tx.Class(classID)
		if err != nil {
			return translate(err, "class")
		}
		if !class.RemoveStudent(studentID) {
			return appErrors.ErrNotEnrolled
		}
		if err := tx.UpdateClass(class); err != nil {
			return err
		}
		for _, aid := range class.ActivityIDs {
			activity, err := tx.Activity(aid)
			if err != nil {
				continue
			}
			if _, ok := activity.Grades[studentID]; !ok {
				continue
			}
			delete(activity.Grades, studentID)
			if err := tx.UpdateActivity(activity); err != nil {
				return err
			}
			purged++
		}
		return nil
	})
	if err != nil {
		return translate(err, "enrollment")
	}
	s.logger.Info("student unenrolled",
		zap.Int("class_id", classID),
		zap.Int("student_id", studentID),
		zap.Int("grades_removed", purged),
	)
	return nil
}

func enroll(tx *repository.Tx, classID, studentID int) error {
	class, err := tx.Class(classID)
	if err != nil {
		return translate(err, "class")
	}
	if _, err := tx.Student(studentID); err != nil {
		return translate(err, "student")
	}
	if class.HasStudent(studentID) {
		return appErrors.ErrAlreadyEnrolled
	}
	class.StudentIDs = append(class.StudentIDs, studentID)
	return tx.UpdateClass(class)
}
