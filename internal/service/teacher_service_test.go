package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/repository"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

func newTeacherService(t *testing.T) (*TeacherService, *repository.Store) {
	t.Helper()
	store := repository.NewStore(repository.NewMemorySink(), nil, nil)
	require.NoError(t, store.Load(context.Background()))
	svc := NewTeacherService(store, nil, nil)
	svc.cost = bcrypt.MinCost
	return svc, store
}

func TestTeacherServiceRegisterHashesPassword(t *testing.T) {
	svc, store := newTeacherService(t)

	profile, err := svc.Register(context.Background(), RegisterTeacherRequest{Name: " Sri ", RegistrationCode: "T01", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "Sri", profile.Name)

	store.View(func(v *repository.View) {
		teacher, err := v.Teacher(profile.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "secret", teacher.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte("secret")))
	})

	_, err = svc.Register(context.Background(), RegisterTeacherRequest{Name: "Other", RegistrationCode: "t01", Password: "secret"})
	assert.Equal(t, appErrors.ErrDuplicateKey.Code, appErrors.FromError(err).Code)

	_, err = svc.Register(context.Background(), RegisterTeacherRequest{Name: "", RegistrationCode: "T02", Password: "secret"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTeacherServiceListUpdateDelete(t *testing.T) {
	svc, _ := newTeacherService(t)
	ctx := context.Background()
	sri, err := svc.Register(ctx, RegisterTeacherRequest{Name: "Sri", RegistrationCode: "T01", Password: "secret"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterTeacherRequest{Name: "Agus", RegistrationCode: "T02", Password: "secret"})
	require.NoError(t, err)

	list, pagination, err := svc.List(ctx, models.TeacherFilter{Search: "sri"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, pagination.TotalCount)

	name := "Sri Wahyuni"
	updated, err := svc.Update(ctx, sri.ID, UpdateTeacherRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, "T01", updated.RegistrationCode)

	code := "T02"
	_, err = svc.Update(ctx, sri.ID, UpdateTeacherRequest{RegistrationCode: &code})
	assert.Equal(t, appErrors.ErrDuplicateKey.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(ctx, sri.ID))
	_, err = svc.Get(ctx, sri.ID)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
