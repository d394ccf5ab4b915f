package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/repository"
)

type fixture struct {
	sink        *repository.MemorySink
	store       *repository.Store
	students    *StudentService
	classes     *ClassService
	enrollments *EnrollmentService
	activities  *ActivityService
	grades      *GradeService
	reports     *ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sink := repository.NewMemorySink()
	store := repository.NewStore(sink, nil, nil)
	require.NoError(t, store.Load(context.Background()))
	return &fixture{
		sink:        sink,
		store:       store,
		students:    NewStudentService(store, nil, nil),
		classes:     NewClassService(store, nil, nil),
		enrollments: NewEnrollmentService(store, nil),
		activities:  NewActivityService(store, nil, nil),
		grades:      NewGradeService(store, nil),
		reports:     NewReportService(store, DefaultPassThreshold, nil),
	}
}

func (f *fixture) student(t *testing.T, name, code string) models.Student {
	t.Helper()
	st, err := f.students.Create(context.Background(), CreateStudentRequest{Name: name, RegistrationCode: code})
	require.NoError(t, err)
	return *st
}

func (f *fixture) class(t *testing.T, name string) models.Class {
	t.Helper()
	class, err := f.classes.Create(context.Background(), ClassRequest{Name: name})
	require.NoError(t, err)
	return *class
}

func (f *fixture) activity(t *testing.T, classID int, name string) models.Activity {
	t.Helper()
	activity, err := f.activities.Create(context.Background(), CreateActivityRequest{ClassID: classID, Name: name})
	require.NoError(t, err)
	return *activity
}

func (f *fixture) enroll(t *testing.T, classID int, students ...models.Student) {
	t.Helper()
	for _, st := range students {
		require.NoError(t, f.enrollments.Enroll(context.Background(), classID, st.ID))
	}
}

func (f *fixture) grade(t *testing.T, activityID, studentID int, value float64) {
	t.Helper()
	require.NoError(t, f.grades.SetGrade(context.Background(), activityID, studentID, value))
}

func (f *fixture) gradebook() Gradebook {
	var gb Gradebook
	f.store.View(func(v *repository.View) {
		gb = NewGradebook(frozenView{
			classes:    v.Classes(),
			activities: v.Activities(),
			students:   v.Students(),
		})
	})
	return gb
}

// frozenView is a detached copy of the records for calling Gradebook outside a View.
type frozenView struct {
	classes    []models.Class
	activities []models.Activity
	students   []models.Student
}

func (v frozenView) Class(id int) (models.Class, error) {
	for _, c := range v.classes {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Class{}, repository.ErrNotFound
}

func (v frozenView) Classes() []models.Class { return v.classes }

func (v frozenView) Activity(id int) (models.Activity, error) {
	for _, a := range v.activities {
		if a.ID == id {
			return a, nil
		}
	}
	return models.Activity{}, repository.ErrNotFound
}

func (v frozenView) Student(id int) (models.Student, error) {
	for _, s := range v.students {
		if s.ID == id {
			return s, nil
		}
	}
	return models.Student{}, repository.ErrNotFound
}
