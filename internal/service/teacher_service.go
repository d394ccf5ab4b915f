package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/repository"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

// RegisterTeacherRequest holds the payload for creating a teacher account.
type RegisterTeacherRequest struct {
	Name             string `json:"name" validate:"required,max=120"`
	RegistrationCode string `json:"registration_code" validate:"required,max=50"`
	Password         string `json:"password" validate:"required,min=4,max=72"`
}

// UpdateTeacherRequest holds a partial teacher update; nil fields are left unchanged.
type UpdateTeacherRequest struct {
	Name             *string `json:"name" validate:"omitempty,min=1,max=120"`
	RegistrationCode *string `json:"registration_code" validate:"omitempty,min=1,max=50"`
	Password         *string `json:"password" validate:"omitempty,min=4,max=72"`
}

// TeacherService manages teacher accounts.
type TeacherService struct {
	store     recordStore
	validator *validator.Validate
	logger    *zap.Logger
	cost      int
}

// NewTeacherService constructs the teacher service.
func NewTeacherService(store recordStore, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{store: store, validator: validate, logger: logger, cost: bcrypt.DefaultCost}
}

// Register creates a teacher with a bcrypt digest of the password.
func (s *TeacherService) Register(ctx context.Context, req RegisterTeacherRequest) (*models.TeacherProfile, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.RegistrationCode = strings.TrimSpace(req.RegistrationCode)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid teacher payload")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}
	teacher := models.Teacher{Name: req.Name, RegistrationCode: req.RegistrationCode, PasswordHash: string(hash)}
	if err := s.store.Mutate(ctx, func(tx *repository.Tx) error {
		return tx.CreateTeacher(&teacher)
	}); err != nil {
		return nil, translate(err, "teacher")
	}
	s.logger.Info("teacher registered", zap.Int("teacher_id", teacher.ID))
	profile := teacher.Profile()
	return &profile, nil
}

// Get returns the teacher profile.
func (s *TeacherService) Get(ctx context.Context, id int) (*models.TeacherProfile, error) {
	var (
		teacher models.Teacher
		err     error
	)
	s.store.View(func(v *repository.View) {
		teacher, err = v.Teacher(id)
	})
	if err != nil {
		return nil, translate(err, "teacher")
	}
	profile := teacher.Profile()
	return &profile, nil
}

// List returns teacher profiles matching the search term.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherProfile, *models.Pagination, error) {
	var profiles []models.TeacherProfile
	s.store.View(func(v *repository.View) {
		for _, t := range v.Teachers() {
			if t.Matches(strings.TrimSpace(filter.Search)) {
				profiles = append(profiles, t.Profile())
			}
		}
	})
	page, pagination := models.Paginate(profiles, filter.Page, filter.PageSize)
	return page, pagination, nil
}

// Update applies a partial update. A new password is re-hashed.
func (s *TeacherService) Update(ctx context.Context, id int, req UpdateTeacherRequest) (*models.TeacherProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid teacher payload")
	}
	var newHash string
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), s.cost)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to hash password")
		}
		newHash = string(hash)
	}
	var updated models.Teacher
	err := s.store.Mutate(ctx, func(tx *repository.Tx) error {
		teacher, err := tx.Teacher(id)
		if err != nil {
			return err
		}
		if req.Name != nil {
			teacher.Name = strings.TrimSpace(*req.Name)
		}
		if req.RegistrationCode != nil {
			teacher.RegistrationCode = strings.TrimSpace(*req.RegistrationCode)
		}
		if newHash != "" {
			teacher.PasswordHash = newHash
		}
		updated = teacher
		return tx.UpdateTeacher(teacher)
	})
	if err != nil {
		return nil, translate(err, "teacher")
	}
	profile := updated.Profile()
	return &profile, nil
}

// Delete removes a teacher account. Teachers own no other records.
func (s *TeacherService) Delete(ctx context.Context, id int) error {
	if err := s.store.Mutate(ctx, func(tx *repository.Tx) error {
		return tx.DeleteTeacher(id)
	}); err != nil {
		return translate(err, "teacher")
	}
	s.logger.Info("teacher deleted", zap.Int("teacher_id", id))
	return nil
}
