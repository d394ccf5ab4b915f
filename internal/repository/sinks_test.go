package repository

import (
	"context"
	"errors"
	"os"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSinkRoundTrip(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	require.NoError(t, err)
	ctx := context.Background()

	data, err := sink.Load(ctx, CollectionStudents)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, sink.Save(ctx, CollectionStudents, []byte(`[]`)))
	data, err = sink.Load(ctx, CollectionStudents)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))

	onDisk, err := os.ReadFile(sink.Path(CollectionStudents))
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(onDisk))
}

func TestFileSinkBacksStore(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	require.NoError(t, err)

	store := newLoadedStore(t, sink)
	createStudent(t, store, "Ana", "S1")

	reopened := newLoadedStore(t, sink)
	reopened.View(func(v *View) {
		got, err := v.StudentByCode("s1")
		require.NoError(t, err)
		assert.Equal(t, 1, got.ID)
	})
}

type fakeRedis struct {
	values map[string]string
	setErr error
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.values[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func TestRedisSinkLoadSave(t *testing.T) {
	client := &fakeRedis{values: map[string]string{}}
	sink := NewRedisSink(client, "gradebook:")
	ctx := context.Background()

	data, err := sink.Load(ctx, CollectionClasses)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, sink.Save(ctx, CollectionClasses, []byte(`[{"id":1}]`)))
	assert.Equal(t, `[{"id":1}]`, client.values["gradebook:classes"])

	data, err = sink.Load(ctx, CollectionClasses)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(data))

	client.setErr = errors.New("READONLY")
	err = sink.Save(ctx, CollectionClasses, []byte(`[]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gradebook:classes")
}

func newDocumentsMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPostgresSinkLoad(t *testing.T) {
	db, mock, cleanup := newDocumentsMock(t)
	defer cleanup()
	sink := NewPostgresSink(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM gradebook_documents WHERE name = $1")).
		WithArgs("teachers").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte(`[]`)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM gradebook_documents WHERE name = $1")).
		WithArgs("students").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	data, err := sink.Load(context.Background(), CollectionTeachers)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))

	data, err = sink.Load(context.Background(), CollectionStudents)
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSinkSaveAndSchema(t *testing.T) {
	db, mock, cleanup := newDocumentsMock(t)
	defer cleanup()
	sink := NewPostgresSink(db)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS gradebook_documents").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO gradebook_documents").
		WithArgs("activities", `[{"id":1}]`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO gradebook_documents").
		WithArgs("activities", `[]`).
		WillReturnError(errors.New("connection reset"))

	require.NoError(t, sink.EnsureSchema(context.Background()))
	require.NoError(t, sink.Save(context.Background(), CollectionActivities, []byte(`[{"id":1}]`)))
	err := sink.Save(context.Background(), CollectionActivities, []byte(`[]`))
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
