package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-gradebook/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

func TestStudentServiceListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	class := f.class(t, "7A")
	ana := f.student(t, "Ana Putri", "S1")
	f.student(t, "Budi", "S2")
	anton := f.student(t, "Anton", "X9")
	f.enroll(t, class.ID, anton)

	list, pagination, err := f.students.List(ctx, models.StudentFilter{Search: "an"})
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 2, pagination.TotalCount)

	list, _, err = f.students.List(ctx, models.StudentFilter{Search: "an", ClassID: class.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, anton.ID, list[0].ID)

	list, pagination, err = f.students.List(ctx, models.StudentFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 3, pagination.TotalCount)

	_, _, err = f.students.List(ctx, models.StudentFilter{ClassID: 404})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	got, err := f.students.Get(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Putri", got.Name)
}

func TestStudentServiceCreateAndUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.student(t, "Ana", "S1")
	budi := f.student(t, "Budi", "S2")

	_, err := f.students.Create(ctx, CreateStudentRequest{Name: "", RegistrationCode: "S3"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	name := "Ana Putri"
	updated, err := f.students.Update(ctx, ana.ID, UpdateStudentRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ana Putri", updated.Name)
	assert.Equal(t, "S1", updated.RegistrationCode)

	code := "s2"
	_, err = f.students.Update(ctx, ana.ID, UpdateStudentRequest{RegistrationCode: &code})
	assert.Equal(t, appErrors.ErrDuplicateKey.Code, appErrors.FromError(err).Code)

	code = "S2"
	same, err := f.students.Update(ctx, budi.ID, UpdateStudentRequest{RegistrationCode: &code})
	require.NoError(t, err)
	assert.Equal(t, budi.ID, same.ID)
}
