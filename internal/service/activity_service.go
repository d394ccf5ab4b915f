package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/repository"
)

// CreateActivityRequest holds the payload for a new activity.
type CreateActivityRequest struct {
	ClassID     int    `json:"class_id" validate:"required,gt=0"`
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=1000"`
}

// UpdateActivityRequest edits name and description; the owning class never changes.
type UpdateActivityRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=120"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

// ActivityService manages graded activities.
type ActivityService struct {
	store     recordStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewActivityService constructs the activity service.
func NewActivityService(store recordStore, validate *validator.Validate, logger *zap.Logger) *ActivityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{store: store, validator: validate, logger: logger}
}

// Create adds an activity and appends it to the owning class.
func (s *ActivityService) Create(ctx context.Context, req CreateActivityRequest) (*models.Activity, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid activity payload")
	}
	activity := models.Activity{Name: req.Name, Description: req.Description, ClassID: req.ClassID}
	err := s.store.Mutate(ctx, func(tx *repository.Tx) error {
		class, err := tx.Class(req.ClassID)
		if err != nil {
			return translate(err, "class")
		}
		if err := tx.CreateActivity(&activity); err != nil {
			return err
		}
		class.ActivityIDs = append(class.ActivityIDs, activity.ID)
		return tx.UpdateClass(class)
	})
	if err != nil {
		return nil, translate(err, "activity")
	}
	s.logger.Info("activity created", zap.Int("activity_id", activity.ID), zap.Int("class_id", activity.ClassID))
	return &activity, nil
}

// Get returns one activity.
func (s *ActivityService) Get(ctx context.Context, id int) (*models.Activity, error) {
	var (
		activity models.Activity
		err      error
	)
	s.store.View(func(v *repository.View) {
		activity, err = v.Activity(id)
	})
	if err != nil {
		return nil, translate(err, "activity")
	}
	return &activity, nil
}

// List returns activities, optionally only those of one class.
func (s *ActivityService) List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, error) {
	activities := make([]models.Activity, 0)
	s.store.View(func(v *repository.View) {
		for _, activity := range v.Activities() {
			if filter.ClassID > 0 && activity.ClassID != filter.ClassID {
				continue
			}
			activities = append(activities, activity)
		}
	})
	return activities, nil
}

// Update edits the activity's name or description.
func (s *ActivityService) Update(ctx context.Context, id int, req UpdateActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid activity payload")
	}
	var updated models.Activity
	err := s.store.Mutate(ctx, func(tx *repository.Tx) error {
		activity, err := tx.Activity(id)
		if err != nil {
			return err
		}
		if req.Name != nil {
			activity.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			activity.Description = strings.TrimSpace(*req.Description)
		}
		updated = activity
		return tx.UpdateActivity(activity)
	})
	if err != nil {
		return nil, translate(err, "activity")
	}
	return &updated, nil
}

// Delete removes the activity and detaches it from its class.
func (s *ActivityService) Delete(ctx context.Context, id int) error {
	err := s.store.Mutate(ctx, func(tx *repository.Tx) error {
		activity, err := tx.Activity(id)
		if err != nil {
			return err
		}
		if class, err := tx.Class(activity.ClassID); err == nil && class.RemoveActivity(id) {
			if err := tx.UpdateClass(class); err != nil {
				return err
			}
		}
		return tx.DeleteActivity(id)
	})
	if err != nil {
		return translate(err, "activity")
	}
	s.logger.Info("activity deleted", zap.Int("activity_id", id))
	return nil
}
