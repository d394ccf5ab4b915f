package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/repository"
)

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	Name             string `json:"name" validate:"required,max=120"`
	RegistrationCode string `json:"registration_code" validate:"required,max=50"`
}

// UpdateStudentRequest holds a partial student update; nil fields are left unchanged.
type UpdateStudentRequest struct {
	Name             *string `json:"name" validate:"omitempty,min=1,max=120"`
	RegistrationCode *string `json:"registration_code" validate:"omitempty,min=1,max=50"`
}

// StudentService handles student use-cases.
type StudentService struct {
	store     recordStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(store recordStore, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{store: store, validator: validate, logger: logger}
}

// List returns students whose name or code contains the search term,
// optionally restricted to one class.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	var (
		students []models.Student
		err      error
	)
	search := strings.TrimSpace(filter.Search)
	s.store.View(func(v *repository.View) {
		var class models.Class
		if filter.ClassID > 0 {
			if class, err = v.Class(filter.ClassID); err != nil {
				return
			}
		}
		for _, st := range v.Students() {
			if filter.ClassID > 0 && !class.HasStudent(st.ID) {
				continue
			}
			if st.Matches(search) {
				students = append(students, st)
			}
		}
	})
	if err != nil {
		return nil, nil, translate(err, "class")
	}
	page, pagination := models.Paginate(students, filter.Page, filter.PageSize)
	return page, pagination, nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, id int) (*models.Student, error) {
	var (
		student models.Student
		err     error
	)
	s.store.View(func(v *repository.View) {
		student, err = v.Student(id)
	})
	if err != nil {
		return nil, translate(err, "student")
	}
	return &student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.RegistrationCode = strings.TrimSpace(req.RegistrationCode)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid student payload")
	}
	student := models.Student{Name: req.Name, RegistrationCode: req.RegistrationCode}
	if err := s.store.Mutate(ctx, func(tx *repository.Tx) error {
		return tx.CreateStudent(&student)
	}); err != nil {
		return nil, translate(err, "student")
	}
	s.logger.Info("student created", zap.Int("student_id", student.ID))
	return &student, nil
}

// Update applies a partial update to a student.
func (s *StudentService) Update(ctx context.Context, id int, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid student payload")
	}
	var updated models.Student
	err := s.store.Mutate(ctx, func(tx *repository.Tx) error {
		student, err := tx.Student(id)
		if err != nil {
			return err
		}
		if req.Name != nil {
			student.Name = strings.TrimSpace(*req.Name)
		}
		if req.RegistrationCode != nil {
			student.RegistrationCode = strings.TrimSpace(*req.RegistrationCode)
		}
		updated = student
		return tx.UpdateStudent(student)
	})
	if err != nil {
		return nil, translate(err, "student")
	}
	return &updated, nil
}

// Delete removes the student, its enrollments and every grade it holds.
func (s *StudentService) Delete(ctx context.Context, id int) error {
	var classesTouched, gradesRemoved int
	err := s.store.Mutate(ctx, func(tx *repository.Tx) error {
		if _, err := tx.Student(id); err != nil {
			return err
		}
		for _, class := range tx.Classes() {
			if class.RemoveStudent(id) {
				if err := tx.UpdateClass(class); err != nil {
					return err
				}
				classesTouched++
			}
		}
		for _, activity := range tx.Activities() {
			if _, ok := activity.Grades[id]; !ok {
				continue
			}
			delete(activity.Grades, id)
			if err := tx.UpdateActivity(activity); err != nil {
				return err
			}
			gradesRemoved++
		}
		return tx.DeleteStudent(id)
	})
	if err != nil {
		return translate(err, "student")
	}
	s.logger.Info("student deleted",
		zap.Int("student_id", id),
		zap.Int("classes_updated", classesTouched),
		zap.Int("grades_removed", gradesRemoved),
	)
	return nil
}

// Classes returns the classes the student is enrolled in.
func (s *StudentService) Classes(ctx context.Context, id int) ([]models.Class, error) {
	var (
		classes []models.Class
		err     error
	)
	s.store.View(func(v *repository.View) {
		if _, err = v.Student(id); err != nil {
			return
		}
		classes = enrolledClasses(v, id)
	})
	if err != nil {
		return nil, translate(err, "student")
	}
	return classes, nil
}

func enrolledClasses(v *repository.View, studentID int) []models.Class {
	out := make([]models.Class, 0)
	for _, class := range v.Classes() {
		if class.HasStudent(studentID) {
			out = append(out, class)
		}
	}
	return out
}
