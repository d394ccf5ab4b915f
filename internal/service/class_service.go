package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/repository"
)

// ClassRequest holds the payload for creating or renaming a class.
type ClassRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// ClassFilter scopes class listings.
type ClassFilter struct {
	Search   string
	Page     int
	PageSize int
}

// ClassService manages classes.
type ClassService struct {
	store     recordStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs the class service.
func NewClassService(store recordStore, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{store: store, validator: validate, logger: logger}
}

// Create adds an empty class.
func (s *ClassService) Create(ctx context.Context, req ClassRequest) (*models.Class, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid class payload")
	}
	class := models.Class{Name: req.Name}
	if err := s.store.Mutate(ctx, func(tx *repository.Tx) error {
		return tx.CreateClass(&class)
	}); err != nil {
		return nil, translate(err, "class")
	}
	s.logger.Info("class created", zap.Int("class_id", class.ID))
	return &class, nil
}

// Get returns one class.
func (s *ClassService) Get(ctx context.Context, id int) (*models.Class, error) {
	var (
		class models.Class
		err   error
	)
	s.store.View(func(v *repository.View) {
		class, err = v.Class(id)
	})
	if err != nil {
		return nil, translate(err, "class")
	}
	return &class, nil
}

// List returns classes whose name contains the search term.
func (s *ClassService) List(ctx context.Context, filter ClassFilter) ([]models.Class, *models.Pagination, error) {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var classes []models.Class
	s.store.View(func(v *repository.View) {
		for _, class := range v.Classes() {
			if strings.Contains(strings.ToLower(class.Name), search) {
				classes = append(classes, class)
			}
		}
	})
	page, pagination := models.Paginate(classes, filter.Page, filter.PageSize)
	return page, pagination, nil
}

// Update renames a class.
func (s *ClassService) Update(ctx context.Context, id int, req ClassRequest) (*models.Class, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid class payload")
	}
	var updated models.Class
	err := s.store.Mutate(ctx, func(tx *repository.Tx) error {
		class, err := tx.Class(id)
		if err != nil {
			return err
		}
		class.Name = req.Name
		updated = class
		return tx.UpdateClass(class)
	})
	if err != nil {
		return nil, translate(err, "class")
	}
	return &updated, nil
}

// Delete removes the class and every activity it owns.
func (s *ClassService) Delete(ctx context.Context, id int) error {
	var removed int
	err := s.store.Mutate(ctx, func(tx *repository.Tx) error {
		if _, err := tx.Class(id); err != nil {
			return err
		}
		for _, activity := range tx.Activities() {
			if activity.ClassID != id {
				continue
			}
			if err := tx.DeleteActivity(activity.ID); err != nil {
				return err
			}
			removed++
		}
		return tx.DeleteClass(id)
	})
	if err != nil {
		return translate(err, "class")
	}
	s.logger.Info("class deleted", zap.Int("class_id", id), zap.Int("activities_removed", removed))
	return nil
}

// Students returns the enrolled students in enrollment order. Ids that no
// longer resolve are skipped.
func (s *ClassService) Students(ctx context.Context, id int) ([]models.Student, error) {
	var (
		students []models.Student
		err      error
	)
	s.store.View(func(v *repository.View) {
		var class models.Class
		if class, err = v.Class(id); err != nil {
			return
		}
		students = make([]models.Student, 0, len(class.StudentIDs))
		for _, sid := range class.StudentIDs {
			if st, lookupErr := v.Student(sid); lookupErr == nil {
				students = append(students, st)
			}
		}
	})
	if err != nil {
		return nil, translate(err, "class")
	}
	return students, nil
}

// Activities returns the activities owned by the class.
func (s *ClassService) Activities(ctx context.Context, id int) ([]models.Activity, error) {
	var (
		activities []models.Activity
		err        error
	)
	s.store.View(func(v *repository.View) {
		var class models.Class
		if class, err = v.Class(id); err != nil {
			return
		}
		activities = classActivities(v, class)
	})
	if err != nil {
		return nil, translate(err, "class")
	}
	return activities, nil
}

// classActivities resolves the class's activity ids in order, skipping dangling ones.
func classActivities(v *repository.View, class models.Class) []models.Activity {
	out := make([]models.Activity, 0, len(class.ActivityIDs))
	for _, aid := range class.ActivityIDs {
		if activity, err := v.Activity(aid); err == nil {
			out = append(out, activity)
		}
	}
	return out
}
