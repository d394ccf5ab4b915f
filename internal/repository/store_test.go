package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-gradebook/internal/models"
)

type failingSink struct {
	*MemorySink
	failOn Collection
	saves  []Collection
}

func (f *failingSink) Save(ctx context.Context, c Collection, payload []byte) error {
	if c == f.failOn {
		return errors.New("disk full")
	}
	f.saves = append(f.saves, c)
	return f.MemorySink.Save(ctx, c, payload)
}

type persistRecorder struct {
	calls map[string]int
}

func (p *persistRecorder) ObservePersist(collection string, _ time.Duration, _ error) {
	p.calls[collection]++
}

func newLoadedStore(t *testing.T, sink Sink) *Store {
	t.Helper()
	store := NewStore(sink, nil, nil)
	require.NoError(t, store.Load(context.Background()))
	return store
}

func createStudent(t *testing.T, store *Store, name, code string) models.Student {
	t.Helper()
	st := models.Student{Name: name, RegistrationCode: code}
	require.NoError(t, store.Mutate(context.Background(), func(tx *Tx) error {
		return tx.CreateStudent(&st)
	}))
	return st
}

func TestStoreAssignsIncreasingIDsAndNeverReuses(t *testing.T) {
	store := newLoadedStore(t, NewMemorySink())

	a := createStudent(t, store, "Ana", "S1")
	b := createStudent(t, store, "Budi", "S2")
	assert.Equal(t, 1, a.ID)
	assert.Equal(t, 2, b.ID)

	require.NoError(t, store.Mutate(context.Background(), func(tx *Tx) error {
		return tx.DeleteStudent(b.ID)
	}))
	c := createStudent(t, store, "Citra", "S3")
	assert.Equal(t, 3, c.ID)
}

func TestStoreRejectsDuplicateCodesCaseInsensitive(t *testing.T) {
	store := newLoadedStore(t, NewMemorySink())
	createStudent(t, store, "Ana", "ab12")
	other := createStudent(t, store, "Budi", "CD34")

	err := store.Mutate(context.Background(), func(tx *Tx) error {
		return tx.CreateStudent(&models.Student{Name: "Clone", RegistrationCode: "AB12"})
	})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	other.RegistrationCode = "Ab12"
	err = store.Mutate(context.Background(), func(tx *Tx) error {
		return tx.UpdateStudent(other)
	})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	store.View(func(v *View) {
		assert.Len(t, v.Students(), 2)
		got, err := v.StudentByCode("cd34")
		require.NoError(t, err)
		assert.Equal(t, "Budi", got.Name)
	})
}

func TestStoreUnknownIDs(t *testing.T) {
	store := newLoadedStore(t, NewMemorySink())

	store.View(func(v *View) {
		_, err := v.Class(42)
		assert.ErrorIs(t, err, ErrNotFound)
	})
	err := store.Mutate(context.Background(), func(tx *Tx) error {
		return tx.DeleteActivity(42)
	})
	assert.ErrorIs(t, err, ErrNotFound)
	err = store.Mutate(context.Background(), func(tx *Tx) error {
		return tx.UpdateTeacher(models.Teacher{ID: 9, Name: "X", RegistrationCode: "T9", PasswordHash: "h"})
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreValidatesRecords(t *testing.T) {
	store := newLoadedStore(t, NewMemorySink())

	err := store.Mutate(context.Background(), func(tx *Tx) error {
		return tx.CreateStudent(&models.Student{Name: "", RegistrationCode: "S1"})
	})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	err = store.Mutate(context.Background(), func(tx *Tx) error {
		return tx.CreateActivity(&models.Activity{Name: "Quiz", ClassID: 1, Grades: map[int]float64{1: 11}})
	})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestStoreMutateRollsBackOnCallbackError(t *testing.T) {
	sink := &failingSink{MemorySink: NewMemorySink()}
	store := newLoadedStore(t, sink)
	sink.saves = nil

	boom := errors.New("boom")
	err := store.Mutate(context.Background(), func(tx *Tx) error {
		if err := tx.CreateStudent(&models.Student{Name: "Ana", RegistrationCode: "S1"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, sink.saves)
	store.View(func(v *View) {
		assert.Empty(t, v.Students())
	})
}

func TestStoreMutateRollsBackOnPersistFailure(t *testing.T) {
	sink := &failingSink{MemorySink: NewMemorySink()}
	store := newLoadedStore(t, sink)
	sink.failOn = CollectionClasses

	err := store.Mutate(context.Background(), func(tx *Tx) error {
		return tx.CreateClass(&models.Class{Name: "7A"})
	})
	assert.ErrorIs(t, err, ErrPersist)
	store.View(func(v *View) {
		assert.Empty(t, v.Classes())
	})
}

func TestStorePersistsOnlyTouchedCollections(t *testing.T) {
	sink := &failingSink{MemorySink: NewMemorySink()}
	recorder := &persistRecorder{calls: map[string]int{}}
	store := NewStore(sink, nil, nil, WithObserver(recorder))
	require.NoError(t, store.Load(context.Background()))
	assert.ElementsMatch(t, append([]Collection{CollectionSequences}, Collections...), sink.saves)
	sink.saves = nil

	createStudent(t, store, "Ana", "S1")
	assert.Equal(t, []Collection{CollectionSequences, CollectionStudents}, sink.saves)
	sink.saves = nil

	st := createStudent(t, store, "Budi", "S2")
	sink.saves = nil
	st.Name = "Budi S"
	require.NoError(t, store.Mutate(context.Background(), func(tx *Tx) error {
		return tx.UpdateStudent(st)
	}))
	assert.Equal(t, []Collection{CollectionStudents}, sink.saves)
	assert.Equal(t, 4, recorder.calls[string(CollectionStudents)])
	assert.Equal(t, 1, recorder.calls[string(CollectionClasses)])
}

func TestStoreReturnsCopies(t *testing.T) {
	store := newLoadedStore(t, NewMemorySink())
	class := models.Class{Name: "7A"}
	require.NoError(t, store.Mutate(context.Background(), func(tx *Tx) error {
		return tx.CreateClass(&class)
	}))

	store.View(func(v *View) {
		got, err := v.Class(class.ID)
		require.NoError(t, err)
		got.StudentIDs = append(got.StudentIDs, 99)
	})
	store.View(func(v *View) {
		got, err := v.Class(class.ID)
		require.NoError(t, err)
		assert.Empty(t, got.StudentIDs)
	})
}

func TestStoreLoadDecodesTextGradeKeys(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()
	require.NoError(t, sink.Save(ctx, CollectionStudents, []byte(`[{"id":4,"name":"Ana","registration_code":"S4"}]`)))
	require.NoError(t, sink.Save(ctx, CollectionClasses, []byte(`[{"id":2,"name":"7A","student_ids":[4],"activity_ids":[7]}]`)))
	require.NoError(t, sink.Save(ctx, CollectionActivities, []byte(`[{"id":7,"name":"Quiz","description":"","class_id":2,"grades":{"4":8.5}}]`)))

	store := newLoadedStore(t, sink)
	store.View(func(v *View) {
		act, err := v.Activity(7)
		require.NoError(t, err)
		grade, ok := act.Grade(4)
		require.True(t, ok)
		assert.Equal(t, 8.5, grade)
	})

	raw, err := sink.Load(ctx, CollectionActivities)
	require.NoError(t, err)
	var docs []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &docs))
	assert.Equal(t, map[string]interface{}{"4": 8.5}, docs[0]["grades"])

	student := createStudent(t, store, "Budi", "S5")
	assert.Equal(t, 5, student.ID)
}

func TestStoreLoadToleratesMissingAndCorruptDocuments(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()
	require.NoError(t, sink.Save(ctx, CollectionStudents, []byte(`{not json`)))
	require.NoError(t, sink.Save(ctx, CollectionTeachers, []byte(`[{"id":1,"name":"","registration_code":"T1","password_hash":"x"},{"id":2,"name":"Sri","registration_code":"T2","password_hash":"x"}]`)))

	store := newLoadedStore(t, sink)
	store.View(func(v *View) {
		assert.Empty(t, v.Students())
		assert.Empty(t, v.Classes())
		teachers := v.Teachers()
		require.Len(t, teachers, 1)
		assert.Equal(t, "Sri", teachers[0].Name)
	})

	for _, c := range Collections {
		raw, err := sink.Load(ctx, c)
		require.NoError(t, err)
		assert.NotNil(t, raw, "collection %s should be written back", c)
	}
	raw, _ := sink.Load(ctx, CollectionStudents)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestStoreNeverReusesIDsAcrossReload(t *testing.T) {
	sink := NewMemorySink()
	store := newLoadedStore(t, sink)
	createStudent(t, store, "Ana", "S1")
	budi := createStudent(t, store, "Budi", "S2")
	require.NoError(t, store.Mutate(context.Background(), func(tx *Tx) error {
		return tx.DeleteStudent(budi.ID)
	}))

	reopened := newLoadedStore(t, sink)
	citra := createStudent(t, reopened, "Citra", "S3")
	assert.Equal(t, 3, citra.ID)

	raw, err := sink.Load(context.Background(), CollectionSequences)
	require.NoError(t, err)
	assert.JSONEq(t, `{"teachers":0,"students":3,"classes":0,"activities":0}`, string(raw))
}

func TestStoreLoadSeedsFromHighestIDWhenSequencesUnreadable(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()
	require.NoError(t, sink.Save(ctx, CollectionStudents, []byte(`[{"id":7,"name":"Ana","registration_code":"S7"}]`)))
	require.NoError(t, sink.Save(ctx, CollectionSequences, []byte(`{broken`)))

	store := newLoadedStore(t, sink)
	assert.Equal(t, 8, createStudent(t, store, "Budi", "S8").ID)

	require.NoError(t, sink.Save(ctx, CollectionSequences, []byte(`{"students":20}`)))
	store = newLoadedStore(t, sink)
	assert.Equal(t, 21, createStudent(t, store, "Citra", "S9").ID)
}

func TestStoreRestoresSavedDocumentsWhenLaterSaveFails(t *testing.T) {
	sink := &failingSink{MemorySink: NewMemorySink()}
	store := newLoadedStore(t, sink)
	sink.failOn = CollectionClasses
	ctx := context.Background()

	err := store.Mutate(ctx, func(tx *Tx) error {
		if err := tx.CreateStudent(&models.Student{Name: "Ana", RegistrationCode: "S1"}); err != nil {
			return err
		}
		return tx.CreateClass(&models.Class{Name: "7A"})
	})
	assert.ErrorIs(t, err, ErrPersist)

	raw, err := sink.Load(ctx, CollectionStudents)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
	raw, err = sink.Load(ctx, CollectionSequences)
	require.NoError(t, err)
	assert.JSONEq(t, `{"teachers":0,"students":0,"classes":0,"activities":0}`, string(raw))

	sink.failOn = ""
	assert.Equal(t, 1, createStudent(t, store, "Ana", "S1").ID)
}

func TestStoreLoadDropsDuplicateIDsAndCodes(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()
	require.NoError(t, sink.Save(ctx, CollectionStudents, []byte(`[
		{"id":1,"name":"Ana","registration_code":"S1"},
		{"id":1,"name":"Budi","registration_code":"S2"},
		{"id":2,"name":"Citra","registration_code":" s1 "},
		{"id":3,"name":"Dewi","registration_code":"S3"}
	]`)))

	store := newLoadedStore(t, sink)
	store.View(func(v *View) {
		students := v.Students()
		require.Len(t, students, 2)
		assert.Equal(t, "Ana", students[0].Name)
		assert.Equal(t, "Dewi", students[1].Name)
	})

	err := store.Mutate(ctx, func(tx *Tx) error {
		return tx.CreateStudent(&models.Student{Name: "Budi", RegistrationCode: "S2"})
	})
	require.NoError(t, err)
}

func TestStoreReadOnly(t *testing.T) {
	sink := &failingSink{MemorySink: NewMemorySink()}
	ctx := context.Background()
	require.NoError(t, sink.MemorySink.Save(ctx, CollectionClasses, []byte(`[{"id":1,"name":"7A","student_ids":[],"activity_ids":[]}]`)))

	store := NewStore(sink, nil, nil, WithReadOnly())
	require.NoError(t, store.Load(ctx))
	assert.Empty(t, sink.saves)

	store.View(func(v *View) {
		assert.Len(t, v.Classes(), 1)
	})
	err := store.Mutate(ctx, func(tx *Tx) error {
		return tx.CreateClass(&models.Class{Name: "7B"})
	})
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.Empty(t, sink.saves)
}
